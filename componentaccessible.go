package latticeworld

import "github.com/TheBitDrifter/table"

// AccessibleComponent extends a base Component with table-based
// accessibility. It provides methods to retrieve components using
// different access patterns, and carries the process-local TypeID used by
// the query/fetch protocol, the scheduler's conflict graph, and relation
// synthesis.
type AccessibleComponent[T any] struct {
	Component
	table.Accessor[T] // concrete.
	typeID            TypeID
}

// TypeID returns the process-local identity of T, used to key access
// declarations, epoch tracking, and hook registration.
func (c AccessibleComponent[T]) TypeID() TypeID {
	return c.typeID
}
