package latticeworld

// ChildOfPayload is the payload of the builtin ChildOf relation: empty,
// since parentage carries no data of its own beyond the edge itself.
type ChildOfPayload struct{}

// ChildOf is the builtin EXCLUSIVE, OWNED hierarchy relation: a child
// points at its parent, at most one parent per child (EXCLUSIVE), and
// despawning a parent despawns every child pointing at it (OWNED).
var ChildOf = FactoryNewRelation[ChildOfPayload](RelationModifiers{
	Exclusive: true,
	Owned:     true,
})

// SetParent makes child a child of parent, replacing any existing parent
// edge (EXCLUSIVE semantics).
func SetParent(w *World, child, parent EntityID) error {
	return ChildOf.Add(w, child, ChildOfPayload{}, parent)
}

// Unparent removes child's parent edge, if any. child itself is untouched;
// only the relation edge is dropped.
func Unparent(w *World, child EntityID) error {
	return ChildOf.Drop(w, child)
}

// ParentOf returns child's parent, if it has one.
func ParentOf(w *World, child EntityID) (EntityID, bool) {
	entry, ok := ChildOf.Single(w, child)
	if !ok {
		return 0, false
	}
	return entry.Target, true
}

// ChildrenOf returns every entity currently pointing ChildOf at parent.
func ChildrenOf(w *World, parent EntityID) []EntityID {
	t, ok := getComponent(w, parent, ChildOf.targetComp)
	if !ok {
		return nil
	}
	out := make([]EntityID, len(t.Origins))
	copy(out, t.Origins)
	return out
}
