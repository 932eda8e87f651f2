package latticeworld

import (
	"errors"
	"sync"

	"github.com/TheBitDrifter/bark"
)

// resources is the world's singleton container: at most one value per Go
// type, keyed by the process-local type identity. Res[T]/ResMut[T] layer a
// borrow-counting lock on top; the scheduler keeps those locks uncontested
// within a level, so the runtime check only defends against misuse in
// local systems.
type resources struct {
	mu    sync.Mutex
	byID  map[TypeID]any
	locks map[TypeID]*resourceLock
}

// resourceLock tracks the borrow state of one resource slot. It is a plain
// mutex-guarded counter, not an actual concurrency primitive: the
// scheduler's conflict graph already guarantees no two systems in the same
// level touch the same resource with a write on either side, so this only
// needs to catch misuse (e.g. a local system nesting ResMut inside Res).
type resourceLock struct {
	mu      sync.Mutex
	readers int
	writer  bool
}

func newResources() *resources {
	return &resources{
		byID:  make(map[TypeID]any),
		locks: make(map[TypeID]*resourceLock),
	}
}

func insertResource[T any](r *resources, value T) {
	id := TypeIdentity[T]()
	r.mu.Lock()
	defer r.mu.Unlock()
	v := value
	r.byID[id] = &v
	if _, ok := r.locks[id]; !ok {
		r.locks[id] = &resourceLock{}
	}
}

func lockFor(r *resources, id TypeID) *resourceLock {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[id]
	if !ok {
		l = &resourceLock{}
		r.locks[id] = l
	}
	return l
}

// withResource borrows resource T for the duration of fn: shared if
// exclusive is false, exclusive otherwise. Returns ResourceMissingError if
// T was never inserted; panics (a programming bug, not a
// recoverable error) if the borrow would alias an existing one.
func withResource[T any](r *resources, exclusive bool, fn func(*T)) error {
	id := TypeIdentity[T]()
	r.mu.Lock()
	raw, ok := r.byID[id]
	r.mu.Unlock()
	if !ok {
		return ResourceMissingError{Type: id}
	}

	l := lockFor(r, id)
	l.mu.Lock()
	if exclusive {
		if l.writer || l.readers > 0 {
			l.mu.Unlock()
			panic(bark.AddTrace(errors.New("ResMut aliases an existing resource borrow")))
		}
		l.writer = true
	} else {
		if l.writer {
			l.mu.Unlock()
			panic(bark.AddTrace(errors.New("Res aliases an existing exclusive resource borrow")))
		}
		l.readers++
	}
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		if exclusive {
			l.writer = false
		} else {
			l.readers--
		}
		l.mu.Unlock()
	}()

	fn(raw.(*T))
	return nil
}

// hasResource reports whether T was ever inserted; World.HasResource
// exposes it.
func hasResource[T any](r *resources) bool {
	id := TypeIdentity[T]()
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byID[id]
	return ok
}
