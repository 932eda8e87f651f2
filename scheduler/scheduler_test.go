package scheduler

import (
	"sync"
	"testing"

	"github.com/archsystems/latticeworld"
)

// TestSchedulerOrder: S1 writes a
// resource, S2 reads it. Registration order means S1 lands in an earlier
// level than S2, even though nothing else distinguishes them, so S2 always
// observes S1's write.
func TestSchedulerOrder(t *testing.T) {
	resID := latticeworld.TypeID(1)

	var seenByS2 int
	s1 := &System{
		Name:      "S1",
		ResWrites: []latticeworld.TypeID{resID},
		Run: func(w *latticeworld.World) error {
			return nil
		},
	}
	s2 := &System{
		Name:     "S2",
		ResReads: []latticeworld.TypeID{resID},
		Run: func(w *latticeworld.World) error {
			seenByS2++
			return nil
		},
	}

	s := NewScheduler(nil)
	s.AddSystem(s1)
	s.AddSystem(s2)

	levels := s.Levels()
	if len(levels) != 2 {
		t.Fatalf("expected 2 levels for conflicting systems, got %d", len(levels))
	}
	if len(levels[0]) != 1 || levels[0][0] != s1 {
		t.Fatalf("expected S1 alone in level 0")
	}
	if len(levels[1]) != 1 || levels[1][0] != s2 {
		t.Fatalf("expected S2 alone in level 1")
	}

	w := latticeworld.NewWorld()
	if err := s.Run(w); err != nil {
		t.Fatalf("run: %v", err)
	}
	if seenByS2 != 1 {
		t.Fatalf("S2 should have run exactly once after S1, got %d", seenByS2)
	}
}

// TestSchedulerParallelNonConflict: two systems reading disjoint
// component types share no writer,
// so they land in the same level and both run under the scoped executor.
func TestSchedulerParallelNonConflict(t *testing.T) {
	typeA := latticeworld.TypeID(10)
	typeB := latticeworld.TypeID(11)

	var mu sync.Mutex
	var ran []string

	sa := &System{
		Name:  "ReadA",
		Reads: []latticeworld.TypeID{typeA},
		Run: func(w *latticeworld.World) error {
			mu.Lock()
			ran = append(ran, "ReadA")
			mu.Unlock()
			return nil
		},
	}
	sb := &System{
		Name:  "ReadB",
		Reads: []latticeworld.TypeID{typeB},
		Run: func(w *latticeworld.World) error {
			mu.Lock()
			ran = append(ran, "ReadB")
			mu.Unlock()
			return nil
		},
	}

	s := NewScheduler(nil)
	s.AddSystem(sa)
	s.AddSystem(sb)

	levels := s.Levels()
	if len(levels) != 1 {
		t.Fatalf("expected both systems in a single level, got %d levels", len(levels))
	}
	if len(levels[0]) != 2 {
		t.Fatalf("expected 2 systems in level 0, got %d", len(levels[0]))
	}

	w := latticeworld.NewWorld()
	if err := s.Run(w); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(ran) != 2 {
		t.Fatalf("expected both systems to run, got %v", ran)
	}
}

// TestSchedulerWorldWriteSerializesEverything: a system
// declaring WorldWrite conflicts with every other system, regardless of its
// declared type access, guaranteeing exclusive access.
func TestSchedulerWorldWriteSerializesEverything(t *testing.T) {
	exclusive := &System{Name: "Exclusive", World: WorldWrite, Run: noop}
	reader := &System{Name: "Reader", Run: noop}

	s := NewScheduler(nil)
	s.AddSystem(exclusive)
	s.AddSystem(reader)

	levels := s.Levels()
	if len(levels) != 2 {
		t.Fatalf("WorldWrite system should force a separate level, got %d levels", len(levels))
	}
}

// TestSchedulerLocalRunsSynchronously verifies an IsLocal system runs on
// the calling goroutine before its level's parallel systems dispatch,
// rather than through the scoped executor.
func TestSchedulerLocalRunsSynchronously(t *testing.T) {
	var order []string
	var mu sync.Mutex

	local := &System{
		Name:    "Local",
		IsLocal: true,
		Run: func(w *latticeworld.World) error {
			mu.Lock()
			order = append(order, "local")
			mu.Unlock()
			return nil
		},
	}

	parallel := &System{
		Name: "Parallel",
		Run: func(w *latticeworld.World) error {
			mu.Lock()
			order = append(order, "parallel")
			mu.Unlock()
			return nil
		},
	}

	s := NewScheduler(nil)
	s.AddSystem(parallel)
	s.AddSystem(local)

	w := latticeworld.NewWorld()
	if err := s.Run(w); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(order) != 2 || order[0] != "local" || order[1] != "parallel" {
		t.Fatalf("expected local system to run before the level's parallel system, got %v", order)
	}
}

// TestSchedulerPanicSurfaces verifies a panicking parallel system is
// converted into a PanicError by the executor rather than crashing the
// process.
func TestSchedulerPanicSurfaces(t *testing.T) {
	boom := &System{
		Name: "Boom",
		Run: func(w *latticeworld.World) error {
			panic("kaboom")
		},
	}

	s := NewScheduler(nil)
	s.AddSystem(boom)

	w := latticeworld.NewWorld()
	err := s.Run(w)
	if err == nil {
		t.Fatalf("expected an error from the panicking system")
	}
	if _, ok := err.(*PanicError); !ok {
		t.Fatalf("expected *PanicError, got %T: %v", err, err)
	}
}

func noop(w *latticeworld.World) error { return nil }
