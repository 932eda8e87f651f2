package latticeworld

import "github.com/TheBitDrifter/bark"

// AccessMode distinguishes a read-only fetch term from a write-capable one.
// A write term touches the entity/chunk/column epoch on every Get, so later
// Modified queries can observe it.
type AccessMode int

const (
	ModeRead AccessMode = iota
	ModeWrite
)

// term is one slot of a query tuple: a typed component accessor plus the
// access mode, optionality, and change-filter for that slot. Queries are
// built by composing terms with Read/Write/Option/Modified and passing them
// to NewQuery1..NewQuery5; Go's lack of variadic generics is why the arity
// is spelled out rather than a single variadic Query type.
//
// rowFilter is an additional per-row predicate beyond the epoch-based
// Modified check, used by the relation package to restrict a term to rows
// whose component value satisfies some data-dependent condition (e.g. "this
// origin's entry list contains a given target") without needing a whole
// second query mechanism.
type term[T any] struct {
	comp       AccessibleComponent[T]
	mode       AccessMode
	optional   bool
	modified   bool
	afterEpoch Epoch
	rowFilter  func(present bool, v *T) bool
}

// Read declares a read-only fetch of component T.
func Read[T any](c AccessibleComponent[T]) term[T] {
	return term[T]{comp: c, mode: ModeRead}
}

// Write declares a mutable fetch of component T. At most one Write per type
// id may appear across a query tuple; constructing a query that violates
// this raises QueryAliasingViolationError.
func Write[T any](c AccessibleComponent[T]) term[T] {
	return term[T]{comp: c, mode: ModeWrite}
}

// Option makes a term optional: archetypes lacking the component still
// match, and the resolved item pointer is nil for them, instead of the
// archetype being excluded entirely.
func Option[T any](t term[T]) term[T] {
	t.optional = true
	return t
}

// Modified restricts a term to rows whose value has changed since
// afterEpoch, as observed by the column/chunk/row epoch stamps. It composes
// with Read or Write: Modified(Read(c), after).
func Modified[T any](t term[T], after Epoch) term[T] {
	t.modified = true
	t.afterEpoch = after
	return t
}

// withRowFilter attaches an additional data-dependent predicate to t. It
// composes with Read/Write/Option/Modified and is evaluated alongside the
// epoch-based change check in changed().
func withRowFilter[T any](t term[T], f func(present bool, v *T) bool) term[T] {
	t.rowFilter = f
	return t
}

// queryTerm is the type-erased structural face of a term[T], used to match
// archetypes, build the conflict graph, and drive the layered change skip
// without knowing T.
type queryTerm interface {
	typeID() TypeID
	isWrite() bool
	isOptional() bool
	present(a ArchetypeImpl) bool
	skipArchetype(a ArchetypeImpl) bool
	skipChunk(a ArchetypeImpl, chunk int) bool
}

func (t term[T]) typeID() TypeID               { return t.comp.TypeID() }
func (t term[T]) isWrite() bool                { return t.mode == ModeWrite }
func (t term[T]) isOptional() bool             { return t.optional }
func (t term[T]) present(a ArchetypeImpl) bool { return t.comp.Accessor.Check(a.table) }

// skipArchetype reports that this Modified term can prove no row of a will
// pass: the column's last write is at or before the term's baseline. Sound
// because entity_epoch <= chunk_epoch <= column_epoch.
func (t term[T]) skipArchetype(a ArchetypeImpl) bool {
	if !t.modified || !t.present(a) {
		return false
	}
	return !a.epoch.columnEpochOf(t.typeID()).After(t.afterEpoch)
}

// skipChunk is the chunk-granularity tier of the same proof.
func (t term[T]) skipChunk(a ArchetypeImpl, chunk int) bool {
	if !t.modified || !t.present(a) {
		return false
	}
	return !a.epoch.chunkEpochOf(t.typeID(), chunk, a.table.Length()).After(t.afterEpoch)
}

// anyTermSkipsArchetype short-circuits a whole archetype out of a scan
// when any Modified term's column baseline proves it empty.
func anyTermSkipsArchetype(terms []queryTerm, a ArchetypeImpl) bool {
	for _, t := range terms {
		if t.skipArchetype(a) {
			return true
		}
	}
	return false
}

// anyTermSkipsChunk is the per-chunk counterpart.
func anyTermSkipsChunk(terms []queryTerm, a ArchetypeImpl, chunk int) bool {
	for _, t := range terms {
		if t.skipChunk(a, chunk) {
			return true
		}
	}
	return false
}

// changed reports whether this term passes its Modified filter (if any) and
// its rowFilter (if any) for the row in archetype a. Both default to "pass"
// when unset, so a plain Read/Write term always returns true here.
func (t term[T]) changed(a ArchetypeImpl, row int) bool {
	if t.modified {
		if !t.present(a) {
			return false
		}
		if !a.epoch.rowEpochOf(t.typeID(), row, a.table.Length()).After(t.afterEpoch) {
			return false
		}
	}
	if t.rowFilter != nil {
		present := t.present(a)
		var ptr *T
		if present {
			ptr = t.comp.Get(row, a.table)
		}
		if !t.rowFilter(present, ptr) {
			return false
		}
	}
	return true
}

// get resolves the item pointer for row, touching the write epoch if this
// term is a Write. writeEpoch is the epoch consumed once per fetch/view
// creation. A write stamps all three tiers the row belongs to (row, chunk
// and column) so the entity_epoch <= chunk_epoch <= column_epoch ordering
// holds for plain row-at-a-time iteration, not only for WithChunks.
func (t term[T]) get(a ArchetypeImpl, row int, writeEpoch Epoch) *T {
	if t.optional && !t.present(a) {
		return nil
	}
	ptr := t.comp.Get(row, a.table)
	if t.mode == ModeWrite {
		n := a.table.Length()
		a.epoch.stampRow(t.typeID(), row, n, writeEpoch)
		a.epoch.stampChunk(t.typeID(), chunkOf(row), n, writeEpoch)
		a.epoch.stampColumn(t.typeID(), n, writeEpoch)
	}
	return ptr
}

// validateAliasing panics with QueryAliasingViolationError if the same type
// id is mutably fetched more than once in terms.
func validateAliasing(terms []queryTerm) {
	seen := make(map[TypeID]bool, len(terms))
	for _, t := range terms {
		if !t.isWrite() {
			continue
		}
		if seen[t.typeID()] {
			panic(bark.AddTrace(QueryAliasingViolationError{Type: t.typeID()}))
		}
		seen[t.typeID()] = true
	}
}

// matchesArchetype reports whether every non-optional term in terms is
// present in a's table.
func matchesArchetype(terms []queryTerm, a ArchetypeImpl) bool {
	for _, t := range terms {
		if t.isOptional() {
			continue
		}
		if !t.present(a) {
			return false
		}
	}
	return true
}

// Item1..Item5 are the per-row results of iterating a View of the matching
// arity, one pointer field per query term (nil for an Option term whose
// component was absent on that row's archetype).
type Item1[A any] struct{ A *A }
type Item2[A, B any] struct {
	A *A
	B *B
}
type Item3[A, B, C any] struct {
	A *A
	B *B
	C *C
}
type Item4[A, B, C, D any] struct {
	A *A
	B *B
	C *C
	D *D
}
type Item5[A, B, C, D, E any] struct {
	A *A
	B *B
	C *C
	D *D
	E *E
}

// Query1..Query5 are the composed query descriptors passed to
// View1..View5. Each wraps one term per type parameter.
type Query1[A any] struct{ a term[A] }
type Query2[A, B any] struct {
	a term[A]
	b term[B]
}
type Query3[A, B, C any] struct {
	a term[A]
	b term[B]
	c term[C]
}
type Query4[A, B, C, D any] struct {
	a term[A]
	b term[B]
	c term[C]
	d term[D]
}
type Query5[A, B, C, D, E any] struct {
	a term[A]
	b term[B]
	c term[C]
	d term[D]
	e term[E]
}

func NewQuery1[A any](a term[A]) Query1[A] { return Query1[A]{a: a} }
func NewQuery2[A, B any](a term[A], b term[B]) Query2[A, B] {
	q := Query2[A, B]{a: a, b: b}
	validateAliasing(q.terms())
	return q
}
func NewQuery3[A, B, C any](a term[A], b term[B], c term[C]) Query3[A, B, C] {
	q := Query3[A, B, C]{a: a, b: b, c: c}
	validateAliasing(q.terms())
	return q
}
func NewQuery4[A, B, C, D any](a term[A], b term[B], c term[C], d term[D]) Query4[A, B, C, D] {
	q := Query4[A, B, C, D]{a: a, b: b, c: c, d: d}
	validateAliasing(q.terms())
	return q
}
func NewQuery5[A, B, C, D, E any](a term[A], b term[B], c term[C], d term[D], e term[E]) Query5[A, B, C, D, E] {
	q := Query5[A, B, C, D, E]{a: a, b: b, c: c, d: d, e: e}
	validateAliasing(q.terms())
	return q
}

func (q Query1[A]) terms() []queryTerm { return []queryTerm{q.a} }
func (q Query2[A, B]) terms() []queryTerm {
	return []queryTerm{q.a, q.b}
}
func (q Query3[A, B, C]) terms() []queryTerm {
	return []queryTerm{q.a, q.b, q.c}
}
func (q Query4[A, B, C, D]) terms() []queryTerm {
	return []queryTerm{q.a, q.b, q.c, q.d}
}
func (q Query5[A, B, C, D, E]) terms() []queryTerm {
	return []queryTerm{q.a, q.b, q.c, q.d, q.e}
}

func (q Query1[A]) fetch(a ArchetypeImpl, row int, e Epoch) Item1[A] {
	return Item1[A]{A: q.a.get(a, row, e)}
}
func (q Query1[A]) rowOK(a ArchetypeImpl, row int) bool { return q.a.changed(a, row) }

func (q Query2[A, B]) fetch(a ArchetypeImpl, row int, e Epoch) Item2[A, B] {
	return Item2[A, B]{A: q.a.get(a, row, e), B: q.b.get(a, row, e)}
}
func (q Query2[A, B]) rowOK(a ArchetypeImpl, row int) bool {
	return q.a.changed(a, row) && q.b.changed(a, row)
}

func (q Query3[A, B, C]) fetch(a ArchetypeImpl, row int, e Epoch) Item3[A, B, C] {
	return Item3[A, B, C]{A: q.a.get(a, row, e), B: q.b.get(a, row, e), C: q.c.get(a, row, e)}
}
func (q Query3[A, B, C]) rowOK(a ArchetypeImpl, row int) bool {
	return q.a.changed(a, row) && q.b.changed(a, row) && q.c.changed(a, row)
}

func (q Query4[A, B, C, D]) fetch(a ArchetypeImpl, row int, e Epoch) Item4[A, B, C, D] {
	return Item4[A, B, C, D]{
		A: q.a.get(a, row, e), B: q.b.get(a, row, e),
		C: q.c.get(a, row, e), D: q.d.get(a, row, e),
	}
}
func (q Query4[A, B, C, D]) rowOK(a ArchetypeImpl, row int) bool {
	return q.a.changed(a, row) && q.b.changed(a, row) && q.c.changed(a, row) && q.d.changed(a, row)
}

func (q Query5[A, B, C, D, E]) fetch(a ArchetypeImpl, row int, e Epoch) Item5[A, B, C, D, E] {
	return Item5[A, B, C, D, E]{
		A: q.a.get(a, row, e), B: q.b.get(a, row, e), C: q.c.get(a, row, e),
		D: q.d.get(a, row, e), E: q.e.get(a, row, e),
	}
}
func (q Query5[A, B, C, D, E]) rowOK(a ArchetypeImpl, row int) bool {
	return q.a.changed(a, row) && q.b.changed(a, row) && q.c.changed(a, row) &&
		q.d.changed(a, row) && q.e.changed(a, row)
}
