package latticeworld

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/table"
)

// World owns one schema's worth of archetype storage, the entity identity
// space, the epoch counter, the deferred action buffer, and the relation
// registry. All exclusive mutation (Spawn, Despawn, Insert,
// Remove, Maintain) assumes single-writer access; concurrent Views only
// read, matching the scheduler's conflict-graph guarantee (scheduler
// package).
type World struct {
	sto   Storage
	alloc *allocator
	ents  *entitySet
	clock *epochCounter

	actions *ActionBuffer
	rel     *relationRegistry
	res     *resources
	edges   *archetypeEdges

	// freed collects despawned ids until the next Maintain, when they are
	// released back to the allocator's free list. Recycling is deferred to
	// the drain point so a cascade action enqueued against a despawned id
	// can never observe a freshly respawned entity under the same id.
	freed []EntityID
}

// NewWorld creates an empty World over a fresh schema.
func NewWorld() *World {
	w := &World{
		sto:     newStorage(table.Factory.NewSchema()),
		alloc:   newAllocator(),
		ents:    newEntitySet(),
		clock:   newEpochCounter(),
		actions: newActionBuffer(),
		rel:     newRelationRegistry(),
		res:     newResources(),
		edges:   newArchetypeEdges(),
	}
	return w
}

// Epoch returns the world's current epoch without consuming it.
func (w *World) Epoch() Epoch { return w.clock.current() }

// Archetypes returns the world's archetypes in creation order, exposed for
// the scheduler's conflict analysis and for introspection.
func (w *World) Archetypes() []ArchetypeImpl {
	return w.sto.Archetypes()
}

// Spawn creates one entity with the given components and returns a located
// handle. Spawn is exclusive: it must not be called while a View is live.
// A bundle naming the same component type twice is misuse and panics; use
// TrySpawn to get the error as a value instead.
func (w *World) Spawn(components ...Component) Located {
	out, err := w.TrySpawnBatch(1, components...)
	if err != nil {
		panic(bark.AddTrace(err))
	}
	return out[0]
}

// SpawnBatch creates n entities sharing the same component set.
func (w *World) SpawnBatch(n int, components ...Component) []Located {
	out, err := w.TrySpawnBatch(n, components...)
	if err != nil {
		panic(bark.AddTrace(err))
	}
	return out
}

// TrySpawn is Spawn with the bundle validation error returned as a value.
func (w *World) TrySpawn(components ...Component) (Located, error) {
	out, err := w.TrySpawnBatch(1, components...)
	if err != nil {
		return Located{}, err
	}
	return out[0], nil
}

// TrySpawnBatch creates n entities sharing the same component set,
// returning InvalidBundleError when the bundle names a component type more
// than once.
func (w *World) TrySpawnBatch(n int, components ...Component) ([]Located, error) {
	w.assertUnlocked()
	if dup, ok := duplicateComponent(components); ok {
		return nil, InvalidBundleError{Component: dup}
	}
	arche, err := w.sto.NewOrExistingArchetype(components...)
	if err != nil {
		return nil, err
	}
	entries, err := arche.table.NewEntries(n)
	if err != nil {
		return nil, err
	}
	out := make([]Located, len(entries))
	rows := make([]int, len(entries))
	for i, entry := range entries {
		id := w.alloc.allocate()
		w.ents.insert(id, entry.ID())
		rows[i] = entry.Index()
		out[i] = Located{ID: id, Loc: Location{Archetype: arche.ID(), Row: uint32(entry.Index())}}
	}
	if len(rows) > 0 {
		w.stampRows(arche, rows, components)
	}
	return out, nil
}

// assertUnlocked panics when a structural mutation is attempted while an
// in-flight view holds the storage lock; mutating under an immutable
// iteration is a programming bug, not a recoverable condition.
func (w *World) assertUnlocked() {
	if w.sto.Locked() {
		panic(bark.AddTrace(LockedStorageError{}))
	}
}

// duplicateComponent reports the first component whose dynamic type appears
// more than once in the bundle.
func duplicateComponent(components []Component) (Component, bool) {
	seen := make(map[any]bool, len(components))
	for _, c := range components {
		if seen[c.ID()] {
			return c, true
		}
		seen[c.ID()] = true
	}
	return nil, false
}

// stampRows marks the given rows as written, for every component in
// components, at a freshly consumed epoch. Spawn and Insert both count as
// write operations that produce initial component values, so a freshly
// spawned or inserted component is immediately visible to a Modified scan
// taken before the call.
func (w *World) stampRows(a ArchetypeImpl, rows []int, components []Component) {
	e := w.clock.bump()
	rowCount := a.table.Length()
	for _, c := range components {
		tid, ok := typeIDOf(c)
		if !ok {
			continue
		}
		for _, row := range rows {
			a.epoch.stampRow(tid, row, rowCount, e)
			a.epoch.stampChunk(tid, chunkOf(row), rowCount, e)
		}
		a.epoch.stampColumn(tid, rowCount, e)
	}
}

// Reserve optimistically claims an entity id from a shared reference,
// without requiring exclusive access. The id is valid immediately for
// identity comparisons but is not resident in any archetype until the next
// Maintain.
func (w *World) Reserve() Weak {
	id := w.alloc.Reserve()
	w.ents.markReserved(id)
	return Weak{ID: id}
}

// Maintain commits pending reservations, drains the action buffer, and
// releases despawned ids back to the allocator. Reserved entities are
// materialized into the empty archetype; callers add components with
// Insert once they hold an Alive handle.
func (w *World) Maintain() {
	ids := w.alloc.commitReservations()
	live := ids[:0]
	for _, id := range ids {
		// A reservation cancelled by a Despawn before this flush stays
		// dead rather than materializing.
		if w.ents.isReserved(id) {
			live = append(live, id)
		}
	}
	ids = live
	if len(ids) > 0 {
		arche, err := w.sto.NewOrExistingArchetype()
		if err != nil {
			panic(bark.AddTrace(err))
		}
		entries, err := arche.table.NewEntries(len(ids))
		if err != nil {
			panic(bark.AddTrace(err))
		}
		for i, id := range ids {
			w.ents.insert(id, entries[i].ID())
		}
	}
	w.actions.drain(w)
	for _, id := range w.freed {
		w.alloc.release(id)
	}
	w.freed = w.freed[:0]
}

// IsAlive reports whether id refers to a live (resident or pending) entity.
func (w *World) IsAlive(id EntityID) bool { return w.ents.isAlive(id) }

// locate resolves id's current Location through the shared entry index,
// which stays current across swap-remove backfills and migrations without
// any per-world bookkeeping.
func (w *World) locate(id EntityID) (Location, bool) {
	entryID, ok := w.ents.entryOf(id)
	if !ok {
		return Location{}, false
	}
	entry, err := globalEntryIndex.Entry(int(entryID) - 1)
	if err != nil {
		return Location{}, false
	}
	a, ok := w.sto.ArchetypeForTable(entry.Table())
	if !ok {
		return Location{}, false
	}
	return Location{Archetype: a.ID(), Row: uint32(entry.Index())}, true
}

// Locate publicly resolves id's current Location, e.g. to refresh a stale
// Located handle.
func (w *World) Locate(id EntityID) (Location, bool) {
	return w.locate(id)
}

// entityAt reverse-resolves a (archetype, row) pair back to an entity id,
// used by View iteration to report which entity a matched row belongs to.
func (w *World) entityAt(a ArchetypeImpl, row int) (EntityID, bool) {
	entry, err := a.table.Entry(row)
	if err != nil {
		return 0, false
	}
	return w.ents.ownerOf(entry.ID())
}

// Despawn removes an entity immediately. Any OWNED or cascading relations
// referencing it are enqueued through the action buffer (relation.go) and
// applied on the next drain point, never inline with this call. Despawning
// a reserved-but-unmaterialized entity just cancels the reservation.
func (w *World) Despawn(id EntityID) error {
	return w.despawnImmediate(id)
}

func (w *World) despawnImmediate(id EntityID) error {
	w.assertUnlocked()
	if w.ents.isReserved(id) {
		w.ents.remove(id)
		w.freed = append(w.freed, id)
		return nil
	}
	entryID, ok := w.ents.entryOf(id)
	if !ok {
		return NoSuchEntityError{ID: id}
	}
	w.rel.cascade(w, id)
	if loc, ok := w.locate(id); ok {
		a := w.sto.ArchetypeByID(loc.Archetype)
		w.fireDropHooks(id, a.components)
	}

	entry, err := globalEntryIndex.Entry(int(entryID) - 1)
	if err != nil {
		return err
	}
	if _, err := entry.Table().DeleteEntries(int(entryID)); err != nil {
		return err
	}
	w.ents.remove(id)
	w.freed = append(w.freed, id)
	return nil
}

// EnqueueDespawn queues a despawn to run at the next drain point, for use
// from inside a running system.
func (w *World) EnqueueDespawn(id EntityID) {
	w.actions.Push(despawnAction{id: id})
}

// Encoder returns a handle for recording deferred mutations against w's
// action buffer, e.g. from a system that only holds shared access. The
// recorded actions apply at the next drain point.
func (w *World) Encoder() *Encoder {
	return newEncoder(w)
}

// HasComponent reports whether the live entity id currently carries
// component c.
func (w *World) HasComponent(id EntityID, c Component) bool {
	loc, ok := w.locate(id)
	if !ok {
		return false
	}
	return w.sto.ArchetypeByID(loc.Archetype).table.Contains(c)
}

// Insert adds components to an entity, migrating it to the archetype for
// its new component set. The destination archetype is resolved through the
// edge cache, so repeated Insert calls with the same source archetype and
// component set skip straight to the cached destination.
func (w *World) Insert(id EntityID, components ...Component) error {
	w.assertUnlocked()
	if dup, ok := duplicateComponent(components); ok {
		return InvalidBundleError{Component: dup}
	}
	loc, ok := w.locate(id)
	if !ok {
		return NoSuchEntityError{ID: id}
	}
	a := w.sto.ArchetypeByID(loc.Archetype)
	dest, err := w.resolveEdge(a, edgeInsert, components, mergeComponents)
	if err != nil {
		return err
	}
	if a.ID() == dest.ID() {
		return nil
	}
	if err := w.migrate(id, a, dest); err != nil {
		return err
	}
	newLoc, _ := w.locate(id)
	w.stampRows(dest, []int{int(newLoc.Row)}, newlyAdded(a, components))
	return nil
}

// newlyAdded filters components down to those whose dynamic type was not
// already part of a's signature, so a redundant Insert of a component the
// entity already carries doesn't falsely mark that column as just written.
func newlyAdded(a ArchetypeImpl, components []Component) []Component {
	existing := make(map[any]bool, len(a.components))
	for _, c := range a.components {
		existing[c.ID()] = true
	}
	out := make([]Component, 0, len(components))
	for _, c := range components {
		if !existing[c.ID()] {
			out = append(out, c)
		}
	}
	return out
}

// Remove drops components from an entity, migrating it to the archetype
// for its remaining component set, likewise resolved through the edge
// cache.
func (w *World) Remove(id EntityID, components ...Component) error {
	w.assertUnlocked()
	loc, ok := w.locate(id)
	if !ok {
		return NoSuchEntityError{ID: id}
	}
	a := w.sto.ArchetypeByID(loc.Archetype)
	dest, err := w.resolveEdge(a, edgeRemove, components, subtractComponents)
	if err != nil {
		return err
	}
	w.fireDropHooks(id, newlyAdded(dest, a.components))
	return w.migrate(id, a, dest)
}

// fireDropHooks invokes the declared on-drop hook of every component in
// components being dropped from id. Hooks receive an encoder, so their
// effects land in the action buffer rather than running inline.
func (w *World) fireDropHooks(id EntityID, components []Component) {
	var enc *Encoder
	for _, c := range components {
		tid, ok := typeIDOf(c)
		if !ok {
			continue
		}
		hook := dropHookFor(tid)
		if hook == nil {
			continue
		}
		if enc == nil {
			enc = newEncoder(w)
		}
		hook(id, enc)
	}
}

// resolveEdge looks up the cached destination archetype for (source,
// mutation key), falling back to computing it from combine(source,
// components) and recording the result on a miss.
func (w *World) resolveEdge(src ArchetypeImpl, kind edgeKind, components []Component, combine func(ArchetypeImpl, []Component) []Component) (ArchetypeImpl, error) {
	if destID, ok := w.edges.lookup(src.id, kind, components); ok {
		return w.sto.ArchetypeByID(uint32(destID)), nil
	}
	signature := combine(src, components)
	dest, err := w.sto.NewOrExistingArchetype(signature...)
	if err != nil {
		return ArchetypeImpl{}, err
	}
	w.edges.record(src.id, kind, components, archetypeID(dest.ID()))
	return dest, nil
}

// migrate moves id's row from src to dest. The shared entry index tracks
// the row's new position and the swap-remove backfill in src on its own.
func (w *World) migrate(id EntityID, src, dest ArchetypeImpl) error {
	if src.ID() == dest.ID() {
		return nil
	}
	entryID, ok := w.ents.entryOf(id)
	if !ok {
		return NoSuchEntityError{ID: id}
	}
	entry, err := globalEntryIndex.Entry(int(entryID) - 1)
	if err != nil {
		return err
	}
	return src.table.TransferEntries(dest.table, entry.Index())
}

// mergeComponents returns a's component signature plus add, deduplicated by
// dynamic type so Insert is idempotent when called with a component the
// entity already carries.
func mergeComponents(a ArchetypeImpl, add []Component) []Component {
	seen := make(map[any]bool, len(a.components)+len(add))
	var out []Component
	for _, c := range a.components {
		seen[c.ID()] = true
		out = append(out, c)
	}
	for _, c := range add {
		id := c.ID()
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, c)
	}
	return out
}

// subtractComponents returns a's component signature with every component
// sharing a dynamic type in remove dropped.
func subtractComponents(a ArchetypeImpl, remove []Component) []Component {
	removeSet := make(map[any]bool, len(remove))
	for _, c := range remove {
		removeSet[c.ID()] = true
	}
	var out []Component
	for _, c := range a.components {
		if !removeSet[c.ID()] {
			out = append(out, c)
		}
	}
	return out
}

// getComponent resolves a pointer to component c's value on the live
// entity id, or false if id is dead or its archetype lacks c.
func getComponent[T any](w *World, id EntityID, c AccessibleComponent[T]) (*T, bool) {
	loc, ok := w.locate(id)
	if !ok {
		return nil, false
	}
	a := w.sto.ArchetypeByID(loc.Archetype)
	if !c.Accessor.Check(a.table) {
		return nil, false
	}
	return c.Get(int(loc.Row), a.table), true
}

// ensureComponent resolves a pointer to component c's value on id,
// inserting a zero-valued c first if the entity's current archetype
// doesn't carry it. Used by the relation layer to lazily attach
// Origin[R]/Target[R] companion components on first use.
func ensureComponent[T any](w *World, id EntityID, c AccessibleComponent[T]) (*T, error) {
	if ptr, ok := getComponent(w, id, c); ok {
		return ptr, nil
	}
	if err := w.Insert(id, c); err != nil {
		return nil, err
	}
	ptr, ok := getComponent(w, id, c)
	if !ok {
		return nil, fmt.Errorf("latticeworld: component not present after insert")
	}
	return ptr, nil
}

// --- Views ---

// anyWrite reports whether any term in a query declares write access; a
// view over such a query consumes one epoch from the world counter at
// construction.
func anyWrite(terms []queryTerm) bool {
	for _, t := range terms {
		if t.isWrite() {
			return true
		}
	}
	return false
}

func (w *World) viewEpoch(terms []queryTerm) Epoch {
	if anyWrite(terms) {
		return w.clock.bump()
	}
	return w.clock.current()
}

// View1 binds Query1 to w for one borrow, optionally narrowed by
// structural filters.
func View1[A any](w *World, q Query1[A], filters ...Filter) *viewImpl1[A] {
	terms := q.terms()
	return &viewImpl1[A]{raw: newRawView(w.sto, terms, w.viewEpoch(terms), filters...), world: w, q: q}
}

func View2[A, B any](w *World, q Query2[A, B], filters ...Filter) *viewImpl2[A, B] {
	terms := q.terms()
	return &viewImpl2[A, B]{raw: newRawView(w.sto, terms, w.viewEpoch(terms), filters...), world: w, q: q}
}

func View3[A, B, C any](w *World, q Query3[A, B, C], filters ...Filter) *viewImpl3[A, B, C] {
	terms := q.terms()
	return &viewImpl3[A, B, C]{raw: newRawView(w.sto, terms, w.viewEpoch(terms), filters...), world: w, q: q}
}

func View4[A, B, C, D any](w *World, q Query4[A, B, C, D], filters ...Filter) *viewImpl4[A, B, C, D] {
	terms := q.terms()
	return &viewImpl4[A, B, C, D]{raw: newRawView(w.sto, terms, w.viewEpoch(terms), filters...), world: w, q: q}
}

func View5[A, B, C, D, E any](w *World, q Query5[A, B, C, D, E], filters ...Filter) *viewImpl5[A, B, C, D, E] {
	terms := q.terms()
	return &viewImpl5[A, B, C, D, E]{raw: newRawView(w.sto, terms, w.viewEpoch(terms), filters...), world: w, q: q}
}

// --- Relations (generic convenience wrappers; see RelationDef[R] methods) ---

// AddRelation attaches relation def from origin to target with payload,
// applying EXCLUSIVE/SYMMETRIC semantics.
func AddRelation[R any](w *World, origin EntityID, def RelationDef[R], payload R, target EntityID) error {
	return def.Add(w, origin, payload, target)
}

// RemoveRelation detaches the edge origin->target for relation def.
func RemoveRelation[R any](w *World, origin EntityID, def RelationDef[R], target EntityID) error {
	return def.Remove(w, origin, target)
}

// DropRelation removes every edge originating at origin for relation def.
func DropRelation[R any](w *World, origin EntityID, def RelationDef[R]) error {
	return def.Drop(w, origin)
}

// --- Resources ---

// InsertResource installs a singleton value of type T into the world's
// resource container, a simple typed map keyed by type identity.
func InsertResource[T any](w *World, value T) {
	insertResource(w.res, value)
}

// Res takes a shared borrow of resource T, for the duration of fn.
// Returns ResourceMissingError if T was never inserted.
func Res[T any](w *World, fn func(*T)) error {
	return withResource(w.res, false, fn)
}

// ResMut takes an exclusive borrow of resource T, for the duration of fn.
// Returns ResourceMissingError if T was never inserted.
func ResMut[T any](w *World, fn func(*T)) error {
	return withResource(w.res, true, fn)
}

// HasResource reports whether T was ever inserted into w's resource
// container.
func HasResource[T any](w *World) bool {
	return hasResource[T](w.res)
}
