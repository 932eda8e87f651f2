package latticeworld

import "fmt"

// edgeKind distinguishes an insert transition from a remove transition.
// Both single-component and bundle calls share the same kind; the edge key
// below folds the component signature in separately.
type edgeKind int

const (
	edgeInsert edgeKind = iota
	edgeRemove
)

// archetypeEdges remembers, for each (source archetype, mutation) pair, the
// destination archetype that transition resolves to. It is built on the
// same generic Cache used elsewhere in this package (cache.go), keyed by a
// string encoding the source archetype id, the mutation kind, and the
// component ids of the change in the order the caller listed them (the same
// set listed in another order is a separate key).
type archetypeEdges struct {
	cache Cache[archetypeID]
}

func newArchetypeEdges() *archetypeEdges {
	return &archetypeEdges{cache: FactoryNewCache[archetypeID](1 << 20)}
}

func edgeKey(source archetypeID, kind edgeKind, components []Component) string {
	key := fmt.Sprintf("%d:%d", source, kind)
	for _, c := range components {
		key += fmt.Sprintf(":%v", c.ID())
	}
	return key
}

// lookup returns the cached destination archetype id for this transition,
// if one has been resolved before.
func (e *archetypeEdges) lookup(source archetypeID, kind edgeKind, components []Component) (archetypeID, bool) {
	key := edgeKey(source, kind, components)
	idx, ok := e.cache.GetIndex(key)
	if !ok {
		return 0, false
	}
	return *e.cache.GetItem(idx), true
}

// record remembers the destination archetype id resolved for this
// transition, so future Insert/Remove calls for the same (source,
// mutation) pair skip straight to it instead of resolving the signature
// again.
func (e *archetypeEdges) record(source archetypeID, kind edgeKind, components []Component, dest archetypeID) {
	key := edgeKey(source, kind, components)
	if _, exists := e.cache.GetIndex(key); exists {
		return
	}
	// Edge cache registration failure (capacity exhaustion) degrades to an
	// uncached resolve on the next call; it never changes correctness.
	_, _ = e.cache.Register(key, dest)
}
