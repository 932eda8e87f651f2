package latticeworld

import "github.com/TheBitDrifter/table"

// entitySet cross-links this world's entity ids with the table layer's
// entry ids. The shared entry index keeps an entry's (table, row) current
// across swap-removes and transfers, so residency is tracked here and the
// (archetype, row) Location is derived on demand rather than cached and
// patched. It is owned exclusively by the World; all mutation happens under
// the world's exclusive access (spawn, despawn, migrate, maintain).
type entitySet struct {
	resident map[EntityID]table.EntryID
	byEntry  map[table.EntryID]EntityID
	reserved map[EntityID]struct{}
}

func newEntitySet() *entitySet {
	return &entitySet{
		resident: make(map[EntityID]table.EntryID),
		byEntry:  make(map[table.EntryID]EntityID),
		reserved: make(map[EntityID]struct{}),
	}
}

// insert records a resident entity's backing entry.
func (s *entitySet) insert(id EntityID, entry table.EntryID) {
	delete(s.reserved, id)
	s.resident[id] = entry
	s.byEntry[entry] = id
}

// markReserved records that id has been optimistically reserved but is not
// yet resident.
func (s *entitySet) markReserved(id EntityID) {
	s.reserved[id] = struct{}{}
}

// remove drops id from both the resident and reserved sets, e.g. on
// despawn.
func (s *entitySet) remove(id EntityID) {
	if entry, ok := s.resident[id]; ok {
		delete(s.byEntry, entry)
	}
	delete(s.resident, id)
	delete(s.reserved, id)
}

// entryOf returns the backing entry id of a resident entity.
func (s *entitySet) entryOf(id EntityID) (table.EntryID, bool) {
	entry, ok := s.resident[id]
	return entry, ok
}

// ownerOf reverse-resolves an entry id back to the entity occupying it.
func (s *entitySet) ownerOf(entry table.EntryID) (EntityID, bool) {
	id, ok := s.byEntry[entry]
	return id, ok
}

// isAlive reports whether id is either resident or reserved-but-pending.
func (s *entitySet) isAlive(id EntityID) bool {
	if _, ok := s.resident[id]; ok {
		return true
	}
	_, ok := s.reserved[id]
	return ok
}

// isReserved reports whether id is reserved but not yet materialized.
func (s *entitySet) isReserved(id EntityID) bool {
	_, ok := s.reserved[id]
	return ok
}

// reservedIDs returns a snapshot of the reserved-but-pending ids.
func (s *entitySet) reservedIDs() []EntityID {
	out := make([]EntityID, 0, len(s.reserved))
	for id := range s.reserved {
		out = append(out, id)
	}
	return out
}
