package latticeworld

import "iter"

// ViewEntities yields every live entity whose archetype satisfies filters,
// without resolving any component data, the structural-only counterpart
// of View1..View5 for callers that only need identities, e.g. to feed into
// Despawn or a relation call. With no filters it yields every entity in the
// world.
//
// A caller that wants a multi-term query's archetype match without its item
// data gets it by building a Filter from the same components and calling
// ViewEntities with that filter, rather than reaching for a second query
// type that only differs by discarding its own results.
func ViewEntities(w *World, filters ...Filter) iter.Seq[EntityID] {
	return func(yield func(EntityID) bool) {
		bit := reserveLockBit()
		w.sto.AddLock(bit)
		defer w.sto.RemoveLock(bit)

		for _, a := range w.sto.Archetypes() {
			if !passesFilters(filters, a, w.sto) {
				continue
			}
			n := a.table.Length()
			for row := 0; row < n; row++ {
				id, ok := w.entityAt(a, row)
				if !ok {
					continue
				}
				if !yield(id) {
					return
				}
			}
		}
	}
}

// ReservedEntities yields the ids that have been reserved from shared
// references but not yet materialized by Maintain. Ordinary views never
// produce these (a reservation has no components to match); callers that
// opted into reservation-aware scans enumerate them here instead.
func ReservedEntities(w *World) []EntityID {
	return w.ents.reservedIDs()
}
