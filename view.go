package latticeworld

import (
	"iter"
	"sync/atomic"
)

// lockBitCounter hands out the bit index each concurrently-live view
// reserves in storage's mask.Mask256 lock bitset; without a borrow checker
// the read-lock discipline has to be a runtime one. 256 bits is enough concurrent
// views that wrapping around onto one still held by a long-lived view would
// require an implausible amount of simultaneous iteration; Mask256's width
// is the hard ceiling this module accepts instead of growing the bitset.
var lockBitCounter uint32

func reserveLockBit() uint32 {
	return atomic.AddUint32(&lockBitCounter, 1) % 256
}

// rawView is the type-erased iteration engine shared by View1..View5. It
// holds one of the storage's lock bits for the duration of each scan, the
// runtime form of binding a query to a world borrow.
type rawView struct {
	sto     Storage
	terms   []queryTerm
	filters []Filter
	epoch   Epoch
	matched []ArchetypeImpl
}

func newRawView(sto Storage, terms []queryTerm, writeEpoch Epoch, filters ...Filter) *rawView {
	validateAliasing(terms)
	return &rawView{sto: sto, terms: terms, epoch: writeEpoch, filters: filters}
}

func (v *rawView) withLock(fn func()) {
	bit := reserveLockBit()
	v.sto.AddLock(bit)
	defer v.sto.RemoveLock(bit)
	v.matched = v.matched[:0]
	for _, a := range v.sto.Archetypes() {
		if !matchesArchetype(v.terms, a) {
			continue
		}
		if !passesFilters(v.filters, a, v.sto) {
			continue
		}
		if anyTermSkipsArchetype(v.terms, a) {
			continue
		}
		v.matched = append(v.matched, a)
	}
	fn()
}

// passesFilters reports whether archetype a satisfies every structural
// filter attached to a view.
func passesFilters(filters []Filter, a ArchetypeImpl, sto Storage) bool {
	for _, f := range filters {
		if !f.Evaluate(a, sto) {
			return false
		}
	}
	return true
}

// viewIter drives the shared archetype-ascending, row-ascending item scan
// for every view arity: archetypes in creation order, rows in index order,
// each row gated by the query's change/row predicates before fetch.
func viewIter[I any](raw *rawView, w *World, rowOK func(ArchetypeImpl, int) bool, fetch func(ArchetypeImpl, int, Epoch) I) iter.Seq2[EntityID, I] {
	return func(yield func(EntityID, I) bool) {
		raw.withLock(func() {
			for _, a := range raw.matched {
				n := a.table.Length()
				for start := 0; start < n; start += ChunkSize {
					if anyTermSkipsChunk(raw.terms, a, chunkOf(start)) {
						continue
					}
					end := start + ChunkSize
					if end > n {
						end = n
					}
					for row := start; row < end; row++ {
						if !rowOK(a, row) {
							continue
						}
						id, ok := w.entityAt(a, row)
						if !ok {
							continue
						}
						if !yield(id, fetch(a, row, raw.epoch)) {
							return
						}
					}
				}
			}
		})
	}
}

// viewChunks drives the shared chunk-grouped scan: items grouped into
// ChunkSize row runs, with each write term's chunk epoch stamped once per
// chunk, between the first row that passes the query's predicates and that
// row's fetch. A chunk that produces no items is never stamped. Each fetch
// then stamps its row, chunk and column again through term.get, as in
// viewIter.
func viewChunks[I any](raw *rawView, rowOK func(ArchetypeImpl, int) bool, fetch func(ArchetypeImpl, int, Epoch) I) iter.Seq2[int, []I] {
	return func(yield func(int, []I) bool) {
		raw.withLock(func() {
			chunkIdx := 0
			for _, a := range raw.matched {
				n := a.table.Length()
				for start := 0; start < n; start += ChunkSize {
					if anyTermSkipsChunk(raw.terms, a, chunkOf(start)) {
						continue
					}
					end := start + ChunkSize
					if end > n {
						end = n
					}
					stamped := false
					items := make([]I, 0, end-start)
					for row := start; row < end; row++ {
						if !rowOK(a, row) {
							continue
						}
						if !stamped {
							for _, t := range raw.terms {
								if t.isWrite() {
									a.epoch.stampChunk(t.typeID(), chunkOf(start), n, raw.epoch)
								}
							}
							stamped = true
						}
						items = append(items, fetch(a, row, raw.epoch))
					}
					if !yield(chunkIdx, items) {
						return
					}
					chunkIdx++
				}
			}
		})
	}
}

// viewGet resolves the item for one entity directly, without a full scan.
// The bool is false when the entity is dead, its archetype doesn't match,
// or the row is rejected by the query's change/row predicates.
func viewGet[I any](raw *rawView, w *World, rowOK func(ArchetypeImpl, int) bool, fetch func(ArchetypeImpl, int, Epoch) I, id EntityID) (I, bool) {
	var zero I
	loc, ok := w.locate(id)
	if !ok {
		return zero, false
	}
	a := w.sto.ArchetypeByID(loc.Archetype)
	if !matchesArchetype(raw.terms, a) || !passesFilters(raw.filters, a, w.sto) {
		return zero, false
	}
	if !rowOK(a, int(loc.Row)) {
		return zero, false
	}
	return fetch(a, int(loc.Row), raw.epoch), true
}

// viewTryMap runs fn over the item for id, distinguishing a dead entity
// (NoSuchEntityError) from a live one whose archetype lacks the queried
// components or whose row is filtered out (MissingComponentsError).
// Ordinary iteration silently skips those rows; per-entity extraction is
// where the miss is reported.
func viewTryMap[I any](raw *rawView, w *World, rowOK func(ArchetypeImpl, int) bool, fetch func(ArchetypeImpl, int, Epoch) I, id EntityID, fn func(I)) error {
	if !w.IsAlive(id) {
		return NoSuchEntityError{ID: id}
	}
	item, ok := viewGet(raw, w, rowOK, fetch, id)
	if !ok {
		return MissingComponentsError{Entity: id}
	}
	fn(item)
	return nil
}

// View1..View5 bind a Query of the matching arity to a world for the
// duration of one borrow. They are constructed by View1..View5 (world.go)
// and must not outlive the Maintain() call that follows their use.
type viewImpl1[A any] struct {
	raw   *rawView
	world *World
	q     Query1[A]
}
type viewImpl2[A, B any] struct {
	raw   *rawView
	world *World
	q     Query2[A, B]
}
type viewImpl3[A, B, C any] struct {
	raw   *rawView
	world *World
	q     Query3[A, B, C]
}
type viewImpl4[A, B, C, D any] struct {
	raw   *rawView
	world *World
	q     Query4[A, B, C, D]
}
type viewImpl5[A, B, C, D, E any] struct {
	raw   *rawView
	world *World
	q     Query5[A, B, C, D, E]
}

// Iter yields every matching (entity, item) pair, archetype-index
// ascending then row-index ascending. The sequence is only valid while no
// other exclusive mutation runs concurrently; draining it fully releases
// the view's borrow.
func (v *viewImpl1[A]) Iter() iter.Seq2[EntityID, Item1[A]] {
	return viewIter(v.raw, v.world, v.q.rowOK, v.q.fetch)
}

func (v *viewImpl2[A, B]) Iter() iter.Seq2[EntityID, Item2[A, B]] {
	return viewIter(v.raw, v.world, v.q.rowOK, v.q.fetch)
}

func (v *viewImpl3[A, B, C]) Iter() iter.Seq2[EntityID, Item3[A, B, C]] {
	return viewIter(v.raw, v.world, v.q.rowOK, v.q.fetch)
}

func (v *viewImpl4[A, B, C, D]) Iter() iter.Seq2[EntityID, Item4[A, B, C, D]] {
	return viewIter(v.raw, v.world, v.q.rowOK, v.q.fetch)
}

func (v *viewImpl5[A, B, C, D, E]) Iter() iter.Seq2[EntityID, Item5[A, B, C, D, E]] {
	return viewIter(v.raw, v.world, v.q.rowOK, v.q.fetch)
}

// WithChunks yields items grouped into ChunkSize row runs. Each write
// term's chunk epoch is stamped when a chunk produces its first item, and
// each fetched row stamps its row, chunk and column as in Iter.
func (v *viewImpl1[A]) WithChunks() iter.Seq2[int, []Item1[A]] {
	return viewChunks(v.raw, v.q.rowOK, v.q.fetch)
}

func (v *viewImpl2[A, B]) WithChunks() iter.Seq2[int, []Item2[A, B]] {
	return viewChunks(v.raw, v.q.rowOK, v.q.fetch)
}

func (v *viewImpl3[A, B, C]) WithChunks() iter.Seq2[int, []Item3[A, B, C]] {
	return viewChunks(v.raw, v.q.rowOK, v.q.fetch)
}

func (v *viewImpl4[A, B, C, D]) WithChunks() iter.Seq2[int, []Item4[A, B, C, D]] {
	return viewChunks(v.raw, v.q.rowOK, v.q.fetch)
}

func (v *viewImpl5[A, B, C, D, E]) WithChunks() iter.Seq2[int, []Item5[A, B, C, D, E]] {
	return viewChunks(v.raw, v.q.rowOK, v.q.fetch)
}

// Get resolves the item for one entity directly, without a full scan.
// Returns false if the entity is dead, its archetype doesn't match, or the
// row is filtered out.
func (v *viewImpl1[A]) Get(id EntityID) (Item1[A], bool) {
	return viewGet(v.raw, v.world, v.q.rowOK, v.q.fetch, id)
}

func (v *viewImpl2[A, B]) Get(id EntityID) (Item2[A, B], bool) {
	return viewGet(v.raw, v.world, v.q.rowOK, v.q.fetch, id)
}

func (v *viewImpl3[A, B, C]) Get(id EntityID) (Item3[A, B, C], bool) {
	return viewGet(v.raw, v.world, v.q.rowOK, v.q.fetch, id)
}

func (v *viewImpl4[A, B, C, D]) Get(id EntityID) (Item4[A, B, C, D], bool) {
	return viewGet(v.raw, v.world, v.q.rowOK, v.q.fetch, id)
}

func (v *viewImpl5[A, B, C, D, E]) Get(id EntityID) (Item5[A, B, C, D, E], bool) {
	return viewGet(v.raw, v.world, v.q.rowOK, v.q.fetch, id)
}

// TryMap resolves the item for id and applies fn to it. Returns
// NoSuchEntityError for a dead id, MissingComponentsError for a live one
// the query doesn't match.
func (v *viewImpl1[A]) TryMap(id EntityID, fn func(Item1[A])) error {
	return viewTryMap(v.raw, v.world, v.q.rowOK, v.q.fetch, id, fn)
}

func (v *viewImpl2[A, B]) TryMap(id EntityID, fn func(Item2[A, B])) error {
	return viewTryMap(v.raw, v.world, v.q.rowOK, v.q.fetch, id, fn)
}

func (v *viewImpl3[A, B, C]) TryMap(id EntityID, fn func(Item3[A, B, C])) error {
	return viewTryMap(v.raw, v.world, v.q.rowOK, v.q.fetch, id, fn)
}

func (v *viewImpl4[A, B, C, D]) TryMap(id EntityID, fn func(Item4[A, B, C, D])) error {
	return viewTryMap(v.raw, v.world, v.q.rowOK, v.q.fetch, id, fn)
}

func (v *viewImpl5[A, B, C, D, E]) TryMap(id EntityID, fn func(Item5[A, B, C, D, E])) error {
	return viewTryMap(v.raw, v.world, v.q.rowOK, v.q.fetch, id, fn)
}
