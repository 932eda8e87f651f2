package latticeworld

import "iter"

// altTerm is the structural face of an Alt[T] fetch: it declares write
// access for the scheduler's conflict graph, same as an ordinary Write
// term, but AltView never stamps through it directly; AltRef.Mut does
// that lazily instead.
type altTerm[T any] struct {
	comp AccessibleComponent[T]
}

func (t altTerm[T]) typeID() TypeID                    { return t.comp.TypeID() }
func (t altTerm[T]) isWrite() bool                     { return true }
func (t altTerm[T]) isOptional() bool                  { return false }
func (t altTerm[T]) present(a ArchetypeImpl) bool      { return t.comp.Accessor.Check(a.table) }
func (t altTerm[T]) skipArchetype(ArchetypeImpl) bool  { return false }
func (t altTerm[T]) skipChunk(ArchetypeImpl, int) bool { return false }

// AltRef is the item AltView yields: a pointer to T that only stamps the
// entity/chunk/column epoch if the caller actually calls Mut, avoiding
// epoch inflation for a borrow that turns out to be a no-op. Peek reads the
// value without ever stamping.
type AltRef[T any] struct {
	ptr      *T
	epoch    *archetypeEpoch
	typeID   TypeID
	row      int
	rowCount int
	writeAt  Epoch
}

// Peek returns the current value without recording a write.
func (r AltRef[T]) Peek() *T {
	return r.ptr
}

// Mut stamps the row, chunk and column epochs at the view's write epoch,
// then returns the pointer for mutation. Calling Mut is what makes this row
// observable to a later Modified[T] scan; calling only Peek never does.
func (r AltRef[T]) Mut() *T {
	r.epoch.stampRow(r.typeID, r.row, r.rowCount, r.writeAt)
	r.epoch.stampChunk(r.typeID, chunkOf(r.row), r.rowCount, r.writeAt)
	r.epoch.stampColumn(r.typeID, r.rowCount, r.writeAt)
	return r.ptr
}

// AltView binds a single Alt[T] term to a world for one borrow.
type AltView[T any] struct {
	raw   *rawView
	world *World
	comp  AccessibleComponent[T]
}

// ViewAlt builds a pseudo-write view over component T: iterating it does
// not by itself advance any row's epoch, only calling AltRef.Mut during
// iteration does.
func ViewAlt[T any](w *World, c AccessibleComponent[T]) *AltView[T] {
	terms := []queryTerm{altTerm[T]{comp: c}}
	epoch := w.clock.bump()
	return &AltView[T]{raw: newRawView(w.sto, terms, epoch), world: w, comp: c}
}

func (v *AltView[T]) itemAt(a ArchetypeImpl, row int) AltRef[T] {
	return AltRef[T]{
		ptr:      v.comp.Get(row, a.table),
		epoch:    a.epoch,
		typeID:   v.comp.TypeID(),
		row:      row,
		rowCount: a.table.Length(),
		writeAt:  v.raw.epoch,
	}
}

// Iter yields every matching (entity, AltRef) pair.
func (v *AltView[T]) Iter() iter.Seq2[EntityID, AltRef[T]] {
	return func(yield func(EntityID, AltRef[T]) bool) {
		v.raw.withLock(func() {
			for _, a := range v.raw.matched {
				n := a.table.Length()
				for row := 0; row < n; row++ {
					id, ok := v.world.entityAt(a, row)
					if !ok {
						continue
					}
					if !yield(id, v.itemAt(a, row)) {
						return
					}
				}
			}
		})
	}
}

// Get resolves the AltRef for one entity directly.
func (v *AltView[T]) Get(id EntityID) (AltRef[T], bool) {
	var zero AltRef[T]
	loc, ok := v.world.locate(id)
	if !ok {
		return zero, false
	}
	a := v.world.sto.ArchetypeByID(loc.Archetype)
	if !v.comp.Accessor.Check(a.table) {
		return zero, false
	}
	return v.itemAt(a, int(loc.Row)), true
}
