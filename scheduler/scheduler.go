// Package scheduler turns a registration-ordered list of systems into a
// conflict graph and dispatches each non-conflicting level in parallel
// over a scoped executor.
package scheduler

import (
	"golang.org/x/sync/errgroup"

	"github.com/archsystems/latticeworld"
)

// WorldAccess is the coarse world-level access a system declares, used
// alongside its per-type component/resource access to build the conflict
// graph.
type WorldAccess int

const (
	WorldNone WorldAccess = iota
	WorldRead
	WorldWrite
)

// Access pairs a type id with the mode a system declares for it.
type Access struct {
	Type latticeworld.TypeID
	Mode latticeworld.AccessMode
}

// System is a runnable unit with declared access. Go has no
// attribute-driven reflection over a function signature's argument types,
// so a system states its world, component and resource access explicitly
// on construction and the scheduler trusts the declaration.
type System struct {
	Name string

	// IsLocal systems must run on the scheduler's calling goroutine rather
	// than the scoped executor. Go has no thread-affinity primitive, so
	// IsLocal means "run synchronously before the level's parallel systems
	// are dispatched."
	IsLocal bool

	World     WorldAccess
	Reads     []latticeworld.TypeID
	Writes    []latticeworld.TypeID
	ResReads  []latticeworld.TypeID
	ResWrites []latticeworld.TypeID

	Run func(w *latticeworld.World) error
}

func containsAny(a, b []latticeworld.TypeID) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[latticeworld.TypeID]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	for _, t := range b {
		if set[t] {
			return true
		}
	}
	return false
}

// conflicts reports whether a and b may not run in the same level: either
// requests Write world access, or they share a component/resource type id
// with a write on either side.
func conflicts(a, b *System) bool {
	if a.World == WorldWrite || b.World == WorldWrite {
		return true
	}
	if containsAny(a.Writes, b.Writes) || containsAny(a.Writes, b.Reads) || containsAny(a.Reads, b.Writes) {
		return true
	}
	if containsAny(a.ResWrites, b.ResWrites) || containsAny(a.ResWrites, b.ResReads) || containsAny(a.ResReads, b.ResWrites) {
		return true
	}
	return false
}

// ScopedExecutor runs one level's worth of systems and guarantees all of
// them have been joined before it returns. ErrGroupExecutor is the
// default, errgroup-backed implementation.
type ScopedExecutor interface {
	RunLevel(systems []*System, w *latticeworld.World) error
}

// ErrGroupExecutor runs one goroutine per system via errgroup.Group and
// waits for the whole level before returning. A panicking system surfaces
// as a *PanicError through Wait instead of crashing the process.
type ErrGroupExecutor struct{}

func (ErrGroupExecutor) RunLevel(systems []*System, w *latticeworld.World) error {
	g := new(errgroup.Group)
	for _, sys := range systems {
		sys := sys
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &PanicError{System: sys.Name, Value: r}
				}
			}()
			return sys.Run(w)
		})
	}
	return g.Wait()
}

// PanicError wraps a recovered panic from a system run under the scoped
// executor; it aborts the level that produced it.
type PanicError struct {
	System string
	Value  any
}

func (e *PanicError) Error() string {
	return "scheduler: system " + e.System + " panicked"
}

// Scheduler accepts systems in registration order, builds the conflict
// graph once per Run, and dispatches each level through its executor
// before draining the world's action buffers.
type Scheduler struct {
	systems  []*System
	executor ScopedExecutor
}

// NewScheduler constructs a Scheduler. A nil executor defaults to
// ErrGroupExecutor.
func NewScheduler(executor ScopedExecutor) *Scheduler {
	if executor == nil {
		executor = ErrGroupExecutor{}
	}
	return &Scheduler{executor: executor}
}

// AddSystem registers sys. Registration order is significant: it decides
// level assignment. After each level the world's single action buffer
// drains in the order actions were pushed, which for systems sharing a level
// is not registration order.
func (s *Scheduler) AddSystem(sys *System) {
	s.systems = append(s.systems, sys)
}

// Levels computes the conflict-free level assignment for the currently
// registered systems, in registration order: a system lands in the
// earliest level with no conflicting predecessor.
// Exposed for tests and introspection; Run recomputes it on every call
// since systems may be added between runs.
func (s *Scheduler) Levels() [][]*System {
	levels := make([][]*System, 0)
	placed := make([]int, len(s.systems))
	for i, sys := range s.systems {
		level := 0
		for j := 0; j < i; j++ {
			if conflicts(sys, s.systems[j]) && placed[j]+1 > level {
				level = placed[j] + 1
			}
		}
		placed[i] = level
		for len(levels) <= level {
			levels = append(levels, nil)
		}
		levels[level] = append(levels[level], sys)
	}
	return levels
}

// Run dispatches every registered system across conflict-free levels,
// running IsLocal systems synchronously and the rest through the scoped
// executor, then calls w.Maintain after each level so deferred mutations
// land between levels. The world has one action buffer, drained in push
// order; actions from systems of the same level are not sorted by
// registration.
func (s *Scheduler) Run(w *latticeworld.World) error {
	for _, level := range s.Levels() {
		var local, parallel []*System
		for _, sys := range level {
			if sys.IsLocal {
				local = append(local, sys)
			} else {
				parallel = append(parallel, sys)
			}
		}
		for _, sys := range local {
			if err := sys.Run(w); err != nil {
				return err
			}
		}
		if len(parallel) > 0 {
			if err := s.executor.RunLevel(parallel, w); err != nil {
				return err
			}
		}
		w.Maintain()
	}
	return nil
}

// RunSequential runs every registered system in registration order on the
// calling goroutine, draining action buffers after each one. Used when the
// caller wants deterministic single-threaded execution regardless of the
// conflict graph.
func (s *Scheduler) RunSequential(w *latticeworld.World) error {
	for _, sys := range s.systems {
		if err := sys.Run(w); err != nil {
			return err
		}
		w.Maintain()
	}
	return nil
}
