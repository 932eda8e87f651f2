package latticeworld

import (
	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

// Ensure storage implements Storage interface
var _ Storage = &storage{}

// globalEntryIndex is the single table.EntryIndex shared by every archetype
// a World creates. The table package keys row recycling off this index, so
// all archetypes belonging to one World must share it.
var globalEntryIndex = table.Factory.NewEntryIndex()

// Storage is the archetype/table layer a World is built on top of: it owns
// the schema, the archetype graph, and the per-view lock bitset. World adds
// identity, epoch, query/fetch, relation and scheduling concerns around it.
type Storage interface {
	NewOrExistingArchetype(components ...Component) (ArchetypeImpl, error)
	RowIndexFor(Component) uint32
	Locked() bool
	AddLock(bit uint32)
	RemoveLock(bit uint32)
	Register(...Component)
	Archetypes() []ArchetypeImpl
	ArchetypeByID(id uint32) ArchetypeImpl
	ArchetypeForTable(tbl table.Table) (ArchetypeImpl, bool)
}

// storage implements the Storage interface
type storage struct {
	locks      mask.Mask256
	schema     table.Schema
	archetypes *archetypes
}

// archetypes manages archetype collections and identification
type archetypes struct {
	nextID           archetypeID
	asSlice          []ArchetypeImpl
	idsGroupedByMask map[mask.Mask]archetypeID
	idsByTable       map[table.Table]archetypeID
}

// newStorage creates a new Storage implementation with the given schema
func newStorage(schema table.Schema) Storage {
	archetypes := &archetypes{
		nextID:           1,
		idsGroupedByMask: make(map[mask.Mask]archetypeID),
		idsByTable:       make(map[table.Table]archetypeID),
	}
	return &storage{
		archetypes: archetypes,
		schema:     schema,
	}
}

// NewOrExistingArchetype gets or creates the archetype matching the given
// component signature. The schema<->mask lookup is a coarse cache over the
// full signature; edges.go layers a finer single-mutation cache on top of
// this for the hot insert/remove path.
func (sto *storage) NewOrExistingArchetype(components ...Component) (ArchetypeImpl, error) {
	var entityMask mask.Mask
	for _, component := range components {
		sto.schema.Register(component)
		bit := sto.schema.RowIndexFor(component)
		entityMask.Mark(bit)
	}
	id, archetypeFound := sto.archetypes.idsGroupedByMask[entityMask]
	if archetypeFound {
		return sto.archetypes.asSlice[id-1], nil
	}

	created, err := newArchetype(sto.schema, globalEntryIndex, sto.archetypes.nextID, components...)
	if err != nil {
		return ArchetypeImpl{}, err
	}
	sto.archetypes.asSlice = append(sto.archetypes.asSlice, created)
	sto.archetypes.idsGroupedByMask[entityMask] = created.id
	sto.archetypes.idsByTable[created.table] = created.id
	sto.archetypes.nextID++
	return created, nil
}

// RowIndexFor returns the bit index for a component in the schema
func (sto *storage) RowIndexFor(c Component) uint32 {
	return sto.schema.RowIndexFor(c)
}

// Register adds components to the storage schema ahead of first use, so
// schema bit assignment doesn't depend on which archetype happens to be
// created first.
func (sto *storage) Register(comps ...Component) {
	for _, c := range comps {
		sto.schema.Register(c)
	}
}

// Locked checks if the storage is currently locked
func (sto *storage) Locked() bool {
	return !sto.locks.IsEmpty()
}

func (sto *storage) AddLock(bit uint32) {
	sto.locks.Mark(bit)
}

// RemoveLock releases a specific bit lock. Deferred structural mutations
// enqueued while the storage was locked are drained by World.Maintain's
// ActionBuffer, not here; the lock itself only guards iteration safety
// (removing while iterating with an immutable view is a programming bug).
func (sto *storage) RemoveLock(bit uint32) {
	sto.locks.Unmark(bit)
}

// Archetypes returns all archetypes in this storage
func (s *storage) Archetypes() []ArchetypeImpl {
	return s.archetypes.asSlice
}

// ArchetypeByID returns the archetype with the given id. Used by World to
// resolve an entity's Location back to its column storage.
func (s *storage) ArchetypeByID(id uint32) ArchetypeImpl {
	return s.archetypes.asSlice[id-1]
}

// ArchetypeForTable reverse-resolves a table back to its owning archetype.
// The shared entry index reports an entity's current table; this lookup
// turns that into a Location's archetype half.
func (s *storage) ArchetypeForTable(tbl table.Table) (ArchetypeImpl, bool) {
	id, ok := s.archetypes.idsByTable[tbl]
	if !ok {
		return ArchetypeImpl{}, false
	}
	return s.archetypes.asSlice[id-1], true
}
