package latticeworld

// action is a deferred world mutation: a closure-erased record of
// (fn, payload) applied at a safe drain point. Actions close over whatever
// state they need directly: World's identity model keys everything off
// EntityID plus World.IsAlive, so there is no separate recycled-generation
// check to thread through.
type action interface {
	apply(w *World)
}

// ActionBuffer is the queue of deferred mutations a hook or system records
// instead of mutating the world inline. World applies the queue in FIFO
// order at well-defined safe points (after each scheduler level, at the end
// of Maintain, and between stages of a cascading drop). Ordering within one
// buffer is preserved; two buffers used concurrently by different systems
// are each atomic with respect to one another but unordered relative to
// each other.
type ActionBuffer struct {
	queue []action
}

func newActionBuffer() *ActionBuffer {
	return &ActionBuffer{}
}

// Push enqueues an action for the next drain.
func (b *ActionBuffer) Push(a action) {
	b.queue = append(b.queue, a)
}

// drain applies every queued action against w in FIFO order, then clears
// the queue. Actions pushed by a hook running during drain are appended to
// the same queue and are applied in this same pass (they queued against
// the live buffer, not a snapshot).
func (b *ActionBuffer) drain(w *World) {
	for len(b.queue) > 0 {
		next := b.queue[0]
		b.queue = b.queue[1:]
		next.apply(w)
	}
}

// Encoder is the handle hooks and deferred systems record mutations
// through. It never exposes a *World reference directly, so a hook's
// effects can't violate whatever access declarations the currently running
// iteration made, only the read-only liveness check a hook needs to
// validate the ids it records.
type Encoder struct {
	buf   *ActionBuffer
	alive func(EntityID) bool
}

func newEncoder(w *World) *Encoder {
	return &Encoder{buf: w.actions, alive: w.IsAlive}
}

// IsAlive reports whether id is alive at the time of the call; it reads
// the world's live entity set, not a snapshot. Used by hooks to decide whether an
// action is still meaningful before enqueuing it.
func (e *Encoder) IsAlive(id EntityID) bool { return e.alive(id) }

// Despawn records a deferred despawn of id.
func (e *Encoder) Despawn(id EntityID) {
	e.buf.Push(despawnAction{id: id})
}

// Insert records a deferred component insert onto id. Reservations flush
// before the buffer drains, so recording an insert against a freshly
// reserved id works: by drain time the id is resident in the empty
// archetype and migrates normally.
func (e *Encoder) Insert(id EntityID, components ...Component) {
	e.buf.Push(insertAction{id: id, components: components})
}

// RemoveRelationEntry records a deferred removal of one (target, payload)
// pair from origin's Origin[R] list, used by non-owned relation cascades.
func (e *Encoder) RemoveRelationEntry(kind relationKind, origin, target EntityID) {
	e.buf.Push(removeRelationEntryAction{kind: kind, origin: origin, target: target})
}

// insertAction is the deferred form of World.Insert.
type insertAction struct {
	id         EntityID
	components []Component
}

func (a insertAction) apply(w *World) {
	if !w.IsAlive(a.id) {
		return
	}
	_ = w.Insert(a.id, a.components...)
}

// despawnAction is the deferred form of World.Despawn, used by
// World.EnqueueDespawn and by relation cascades.
type despawnAction struct {
	id EntityID
}

func (a despawnAction) apply(w *World) {
	if !w.IsAlive(a.id) {
		return
	}
	_ = w.despawnImmediate(a.id)
}

// removeRelationEntryAction deletes one target entry from an origin's
// Origin[R] companion list without despawning anything, the non-owned half
// of a cascade.
type removeRelationEntryAction struct {
	kind   relationKind
	origin EntityID
	target EntityID
}

func (a removeRelationEntryAction) apply(w *World) {
	if !w.IsAlive(a.origin) {
		return
	}
	w.rel.removeEntry(w, a.kind, a.origin, a.target)
}

// removeTargetOriginAction deletes one origin id from a target's Target[R]
// companion list, the cleanup enqueued when one of the target's origins is
// despawned.
type removeTargetOriginAction struct {
	kind   relationKind
	target EntityID
	origin EntityID
}

func (a removeTargetOriginAction) apply(w *World) {
	if !w.IsAlive(a.target) {
		return
	}
	w.rel.removeTargetOrigin(w, a.kind, a.target, a.origin)
}
