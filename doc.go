/*
Package latticeworld is an archetype-based entity-component store with
epoch-tagged change tracking, typed relations, scoped views, and a
conflict-aware parallel system scheduler.

Latticeworld keeps entities that share a component signature packed together
in an archetype for cache-friendly iteration, then layers on top of that
storage:

  - a world epoch that every write consumes, stamped at the column, chunk and
    row level so Modified[T] queries can skip whole archetypes or chunks with
    one comparison;
  - a typed query/fetch protocol (visit archetype, visit chunk, visit item,
    get item) that composes by arity (Query1..Query5);
  - relations: typed companion components (Origin[R]/Target[R]) linking an
    origin entity to a target entity, with exclusive/symmetric/owned
    modifiers and cascading despawns applied through a deferred action
    buffer;
  - a scheduler that turns a registration-ordered list of systems into a
    conflict graph and dispatches each non-conflicting level in parallel.

Basic Usage:

	world := Factory.NewWorld()

	position := FactoryNewComponent[Position]()
	velocity := FactoryNewComponent[Velocity]()

	world.SpawnBatch(100, position, velocity)

	view := View2(world, NewQuery2(Write(position), Read(velocity)))
	for _, item := range view.Iter() {
		item.A.X += item.B.X
		item.A.Y += item.B.Y
	}
	world.Maintain()

Latticeworld has no rendering, networking, or persistence opinions of its
own; it is the data plane other layers are built on top of.
*/
package latticeworld
