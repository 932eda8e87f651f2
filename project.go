package latticeworld

// ProjectTo resolves a To-typed projection of whichever component on id
// declared one via RegisterProjection, letting a caller ask for "a To view
// of whatever concrete component is present" without naming the concrete
// type. The first component in the archetype's signature with a matching
// projection wins. The signature keeps the order its components were listed
// in when the archetype was first created; it is not sorted by type id, so
// which of two projecting components wins depends on that creation order.
//
// Returns NoSuchEntityError for a dead id and MissingComponentsError when
// no component on the entity projects to To.
func ProjectTo[To any](w *World, id EntityID) (To, error) {
	var zero To
	toID := TypeIdentity[To]()
	loc, ok := w.locate(id)
	if !ok {
		return zero, NoSuchEntityError{ID: id}
	}
	a := w.sto.ArchetypeByID(loc.Archetype)
	for _, comp := range a.components {
		tid, ok := typeIDOf(comp)
		if !ok {
			continue
		}
		project, get := projectionFor(tid, toID)
		if project == nil || get == nil {
			continue
		}
		return project(get(int(loc.Row), a.table)).(To), nil
	}
	return zero, MissingComponentsError{Entity: id}
}
