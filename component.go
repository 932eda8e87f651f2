package latticeworld

import (
	"errors"
	"reflect"
	"sync"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/table"
)

// Component represents a data attribute/state that can be attached to
// entities. Components can be used to create queries for entities.
type Component interface {
	table.ElementType
}

// TypeID is a process-local, monotonically assigned identity for a Go type
// registered as a component, relation, or resource. Component identities
// are derived from this facility rather than from any per-storage schema,
// so they stay stable across every World in the process.
type TypeID uint64

type componentMeta struct {
	typ  reflect.Type
	name string

	// onDrop/onReplace are the declared hooks for this component type. They
	// are called inline by the mutation that triggers them but receive only
	// an Encoder, so whatever they record lands in the deferred action
	// buffer. They must be total: a hook records actions on an encoder, it
	// never returns an error.
	onDrop    func(entity EntityID, enc *Encoder)
	onReplace func(entity EntityID, enc *Encoder)

	// projections lets the engine expose this component polymorphically:
	// a (target type id) -> projection fn table populated by
	// RegisterProjection, so a query can request "give me a Drawable view
	// of whatever concrete component is present" without a vtable on the
	// hot path.
	projections map[TypeID]func(value any) any

	// getAny is the type-erased row accessor FactoryNewComponent installs,
	// returning a *T as any. It is what lets ProjectTo walk an archetype's
	// components without knowing any of their concrete types.
	getAny func(row int, tbl table.Table) any
}

var typeRegistry = struct {
	mu     sync.Mutex
	byType map[reflect.Type]TypeID
	byID   []*componentMeta
	nextID TypeID
}{
	byType: make(map[reflect.Type]TypeID),
	nextID: 1,
}

// typeIdentityOf returns the stable TypeID for t, registering it on first
// use.
func typeIdentityOf(t reflect.Type) TypeID {
	typeRegistry.mu.Lock()
	defer typeRegistry.mu.Unlock()

	if id, ok := typeRegistry.byType[t]; ok {
		return id
	}
	id := typeRegistry.nextID
	typeRegistry.nextID++
	typeRegistry.byType[t] = id
	typeRegistry.byID = append(typeRegistry.byID, &componentMeta{
		typ:         t,
		name:        t.String(),
		projections: make(map[TypeID]func(value any) any),
	})
	return id
}

// TypeIdentity returns the process-local TypeID for T, registering it on
// first use. Used by the component registry, the relation registry, and
// the resource container to key process-local identity off a type, instead
// of a per-storage schema bit.
func TypeIdentity[T any]() TypeID {
	var zero T
	return typeIdentityOf(reflect.TypeOf(&zero).Elem())
}

// typeIdentified is implemented by AccessibleComponent[T]; it lets code
// working with the type-erased Component interface recover the
// process-local TypeID without knowing T, e.g. to stamp epochs for
// components supplied as a bundle at Spawn/Insert time.
type typeIdentified interface {
	TypeID() TypeID
}

// typeIDOf returns c's process-local TypeID, if c was constructed through
// FactoryNewComponent (every Component in practice is).
func typeIDOf(c Component) (TypeID, bool) {
	t, ok := c.(typeIdentified)
	if !ok {
		return 0, false
	}
	return t.TypeID(), true
}

func metaFor(id TypeID) *componentMeta {
	typeRegistry.mu.Lock()
	defer typeRegistry.mu.Unlock()
	return typeRegistry.byID[id-1]
}

// RegisterHooks declares the on-drop/on-replace hooks for component type T.
// A hook is called inline by the mutation that triggers it, with an Encoder
// rather than the World; the actions it records apply at the next drain
// point.
func RegisterHooks[T any](onDrop, onReplace func(entity EntityID, enc *Encoder)) {
	overrideHooks(TypeIdentity[T](), onDrop, onReplace)
}

// overrideHooks installs hook overrides for an already-registered type id,
// shared by RegisterHooks and WorldBuilder registrations. A nil hook leaves
// the existing one in place.
func overrideHooks(id TypeID, onDrop, onReplace func(entity EntityID, enc *Encoder)) {
	meta := metaFor(id)
	typeRegistry.mu.Lock()
	if onDrop != nil {
		meta.onDrop = onDrop
	}
	if onReplace != nil {
		meta.onReplace = onReplace
	}
	typeRegistry.mu.Unlock()
}

// dropHookFor returns T's declared on-drop hook, or nil.
func dropHookFor(id TypeID) func(entity EntityID, enc *Encoder) {
	meta := metaFor(id)
	typeRegistry.mu.Lock()
	defer typeRegistry.mu.Unlock()
	return meta.onDrop
}

// replaceHookFor returns T's declared on-replace hook, or nil.
func replaceHookFor(id TypeID) func(entity EntityID, enc *Encoder) {
	meta := metaFor(id)
	typeRegistry.mu.Lock()
	defer typeRegistry.mu.Unlock()
	return meta.onReplace
}

// registerAnyGetter installs the type-erased row accessor for id, called by
// FactoryNewComponent.
func registerAnyGetter(id TypeID, get func(row int, tbl table.Table) any) {
	meta := metaFor(id)
	typeRegistry.mu.Lock()
	meta.getAny = get
	typeRegistry.mu.Unlock()
}

// projectionFor returns the (projection fn, row accessor) pair for
// projecting component `from` to target type `to`, or nils if the pair was
// never registered.
func projectionFor(from, to TypeID) (func(value any) any, func(row int, tbl table.Table) any) {
	meta := metaFor(from)
	typeRegistry.mu.Lock()
	defer typeRegistry.mu.Unlock()
	return meta.projections[to], meta.getAny
}

// RegisterProjection declares that a component of type From can be
// projected to a value of type To (typically an interface type), letting
// queries fetch the projection without knowing From concretely. Panics if
// called twice for the same (From, To) pair.
func RegisterProjection[From, To any](project func(*From) To) {
	fromID := TypeIdentity[From]()
	toID := TypeIdentity[To]()
	meta := metaFor(fromID)

	typeRegistry.mu.Lock()
	defer typeRegistry.mu.Unlock()
	if _, exists := meta.projections[toID]; exists {
		panic(bark.AddTrace(errors.New("projection already registered for this (From, To) pair")))
	}
	meta.projections[toID] = func(value any) any {
		v := value.(*From)
		return project(v)
	}
}
