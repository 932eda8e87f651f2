package latticeworld

import "github.com/TheBitDrifter/table"

// factory implements the factory pattern for latticeworld components.
type factory struct{}

// Factory is the global factory instance for creating latticeworld
// storages and worlds. Components, relations and caches come from the
// FactoryNew* functions; resources install through InsertResource.
var Factory factory

// NewStorage creates a new Storage instance with the given schema. Exposed
// mainly for tests; NewWorld is the usual entry point.
func (f factory) NewStorage(schema table.Schema) Storage {
	return newStorage(schema)
}

// NewWorld creates a new, empty World.
func (f factory) NewWorld() *World {
	return NewWorld()
}

// FactoryNewComponent creates a new AccessibleComponent for type T, wiring
// it to the table package's schema-local accessor and the process-local
// TypeID used by epoch tracking, relation synthesis, and the scheduler's
// conflict graph.
func FactoryNewComponent[T any]() AccessibleComponent[T] {
	iden := table.FactoryNewElementType[T]()
	acc := table.FactoryNewAccessor[T](iden)
	c := AccessibleComponent[T]{
		Component: iden,
		Accessor:  acc,
		typeID:    TypeIdentity[T](),
	}
	registerAnyGetter(c.typeID, func(row int, tbl table.Table) any {
		return acc.Get(row, tbl)
	})
	return c
}

// FactoryNewCache creates a new Cache with the specified capacity.
func FactoryNewCache[T any](cap int) Cache[T] {
	return &SimpleCache[T]{
		itemIndices: make(map[string]int),
		maxCapacity: cap,
	}
}
