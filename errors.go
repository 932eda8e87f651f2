package latticeworld

import "fmt"

// LockedStorageError is the panic value raised when a structural mutation
// (spawn, despawn, insert, remove) is attempted while an in-flight view
// holds the storage lock. Mutating under an iteration is a programming
// bug, not a recoverable condition.
type LockedStorageError struct{}

func (e LockedStorageError) Error() string {
	return "storage is currently locked"
}

type ComponentNotFoundError struct {
	Component Component
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component does not exist on entity: %T", e.Component)
}

// NoSuchEntityError is returned by any operation that takes a weak entity
// handle referring to an ID that was never allocated, or has since been
// despawned.
type NoSuchEntityError struct {
	ID EntityID
}

func (e NoSuchEntityError) Error() string {
	return fmt.Sprintf("no such entity: %v", e.ID)
}

// MissingComponentsError is returned when extracting a query's result from a
// specific entity whose archetype lacks one or more components the query
// requires. During ordinary iteration the same situation silently skips the
// archetype instead of erroring.
type MissingComponentsError struct {
	Entity EntityID
}

func (e MissingComponentsError) Error() string {
	return fmt.Sprintf("entity %v does not have the components this query requires", e.Entity)
}

// InvalidBundleError is returned when a dynamic bundle names the same
// component type more than once.
type InvalidBundleError struct {
	Component Component
}

func (e InvalidBundleError) Error() string {
	return fmt.Sprintf("bundle contains duplicate component type: %T", e.Component)
}

// QueryAliasingViolationError is the panic value raised when a statically
// composed query (NewQuery2..NewQuery5, or a view built over a query) names
// the same type id in more than one Write term. Borrow projections
// (ProjectTo) resolve a single component and never return it.
type QueryAliasingViolationError struct {
	Type TypeID
}

func (e QueryAliasingViolationError) Error() string {
	return fmt.Sprintf("query aliasing violation: type id %v is mutably fetched more than once", e.Type)
}

// ResourceMissingError is returned when a system or Res[T]/ResMut[T] access
// requires a resource that was never inserted into the world.
type ResourceMissingError struct {
	Type TypeID
}

func (e ResourceMissingError) Error() string {
	return fmt.Sprintf("resource not present: type id %v", e.Type)
}
