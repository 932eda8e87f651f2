package latticeworld

import "github.com/TheBitDrifter/table"

type archetypeID uint32

// ArchetypeImpl is the concrete archetype: a table.Table holding the
// columns for one component signature, plus the epoch bookkeeping layered
// on top of it. Archetypes are created on first transition requesting their
// type set and never destroyed mid-run; edges.go caches the transitions
// between them.
type ArchetypeImpl struct {
	id         archetypeID
	table      table.Table
	epoch      *archetypeEpoch
	components []Component
}

// ID returns the archetype's stable identifier within its storage.
func (a ArchetypeImpl) ID() uint32 {
	return uint32(a.id)
}

// Table returns the underlying column storage.
func (a ArchetypeImpl) Table() table.Table {
	return a.table
}

// Components returns the component signature this archetype was built
// from, used by World.Insert/Remove to compute a destination signature.
func (a ArchetypeImpl) Components() []Component {
	return a.components
}

func newArchetype(schema table.Schema, entryIndex table.EntryIndex, id archetypeID, components ...Component) (ArchetypeImpl, error) {
	elementTypes := make([]table.ElementType, len(components))
	for i, comp := range components {
		elementTypes[i] = comp
	}
	tbl, err := table.NewTableBuilder().
		WithSchema(schema).
		WithEntryIndex(entryIndex).
		WithElementTypes(elementTypes...).
		WithEvents(Config.tableEvents).
		Build()
	if err != nil {
		return ArchetypeImpl{}, err
	}
	return ArchetypeImpl{
		table:      tbl,
		id:         id,
		epoch:      newArchetypeEpoch(),
		components: components,
	}, nil
}
