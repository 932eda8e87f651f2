package latticeworld

// Typed is a located, typed entity reference: proof that, as of the
// Location it was resolved against, id carried component T. It lets a helper
// function take a reference to an entity known to carry T without
// re-querying for it, distinct from the Weak/Alive/Located handle flavors
// which carry no type information.
type Typed[T any] struct {
	ID  EntityID
	loc Location
}

// AsTyped resolves id against w and, if its archetype carries component c,
// returns a Typed[T] pinned to that location. The second return is false
// if id is dead or currently lacks T.
func AsTyped[T any](w *World, id EntityID, c AccessibleComponent[T]) (Typed[T], bool) {
	loc, ok := w.locate(id)
	if !ok {
		return Typed[T]{}, false
	}
	a := w.sto.ArchetypeByID(loc.Archetype)
	if !c.Accessor.Check(a.table) {
		return Typed[T]{}, false
	}
	return Typed[T]{ID: id, loc: loc}, true
}

// Get resolves T's current value for a Typed[T] reference. The reference
// only proves residency at the moment it was constructed; a migration
// since then (another Insert/Remove, a despawn) invalidates it, so Get
// re-validates against the live world rather than trusting the cached
// Location blindly.
func (t Typed[T]) Get(w *World, c AccessibleComponent[T]) (*T, bool) {
	loc, ok := w.locate(t.ID)
	if !ok || loc != t.loc {
		return getComponent(w, t.ID, c)
	}
	a := w.sto.ArchetypeByID(loc.Archetype)
	if !c.Accessor.Check(a.table) {
		return nil, false
	}
	return c.Get(int(loc.Row), a.table), true
}
