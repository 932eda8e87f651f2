package latticeworld

import "testing"

func TestSpawnAndIsAlive(t *testing.T) {
	w := NewWorld()
	pos := FactoryNewComponent[Position]()

	e := w.Spawn(pos)
	if !w.IsAlive(e.ID) {
		t.Fatalf("spawned entity should be alive")
	}
	if err := w.Despawn(e.ID); err != nil {
		t.Fatalf("despawn: %v", err)
	}
	if w.IsAlive(e.ID) {
		t.Fatalf("despawned entity should not be alive")
	}
}

func TestDespawnUnknownEntity(t *testing.T) {
	w := NewWorld()
	err := w.Despawn(EntityID(999))
	if _, ok := err.(NoSuchEntityError); !ok {
		t.Fatalf("expected NoSuchEntityError, got %v", err)
	}
}

// TestSpawnBatchUnique: SpawnBatch(n) yields n entities and every id is
// unique.
func TestSpawnBatchUnique(t *testing.T) {
	w := NewWorld()
	pos := FactoryNewComponent[Position]()

	const n = 500
	entities := w.SpawnBatch(n, pos)
	if len(entities) != n {
		t.Fatalf("got %d entities, want %d", len(entities), n)
	}
	seen := make(map[EntityID]bool, n)
	for _, e := range entities {
		if seen[e.ID] {
			t.Fatalf("duplicate entity id %v", e.ID)
		}
		seen[e.ID] = true
	}

	count := 0
	view := View1(w, NewQuery1(Read(pos)))
	for range view.Iter() {
		count++
	}
	if count != n {
		t.Fatalf("view counted %d entities, want %d", count, n)
	}
}

// TestInsertRemoveRoundTrip: an inserted component is readable until its
// removal, and removal leaves the rest of the entity intact.
func TestInsertRemoveRoundTrip(t *testing.T) {
	w := NewWorld()
	pos := FactoryNewComponent[Position]()
	vel := FactoryNewComponent[Velocity]()

	e := w.Spawn(pos)
	if err := w.Insert(e.ID, vel); err != nil {
		t.Fatalf("insert: %v", err)
	}
	v, ok := Get(w, e.ID, vel)
	if !ok {
		t.Fatalf("expected velocity component present after insert")
	}
	v.X = 3
	v.Y = 4

	view := View1(w, NewQuery1(Read(vel)))
	got, ok := view.Get(e.ID)
	if !ok || got.A.X != 3 || got.A.Y != 4 {
		t.Fatalf("expected velocity {3,4}, got %+v ok=%v", got, ok)
	}

	if err := w.Remove(e.ID, vel); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if w.HasComponent(e.ID, vel) {
		t.Fatalf("velocity should have been removed")
	}
	if w.HasComponent(e.ID, pos) {
		// position should still be present, untouched by the removal
	} else {
		t.Fatalf("position should still be present after removing velocity")
	}
}

// TestReserveAndMaintain: Reserve from a shared reference, Insert once
// materialized, Maintain flushes the reservation.
func TestReserveAndMaintain(t *testing.T) {
	w := NewWorld()
	foo := FactoryNewComponent[Position]()

	w1 := w.Reserve()
	w2 := w.Reserve()
	if !w.IsAlive(w1.ID) || !w.IsAlive(w2.ID) {
		t.Fatalf("reserved entities should report alive before Maintain")
	}

	w.Maintain()

	if err := w.Insert(w1.ID, foo); err != nil {
		t.Fatalf("insert on materialized reservation: %v", err)
	}
	if err := w.Insert(w2.ID, foo); err != nil {
		t.Fatalf("insert on materialized reservation: %v", err)
	}

	count := 0
	view := View1(w, NewQuery1(Read(foo)))
	for range view.Iter() {
		count++
	}
	if count != 2 {
		t.Fatalf("expected 2 entities with Position, got %d", count)
	}
}

// TestBasicInsertQuery: spawn two entities with (A,B) and (B,); a view
// over A yields exactly one item, and a view over (A,B) yields exactly
// one item.
func TestBasicInsertQuery(t *testing.T) {
	w := NewWorld()
	a := FactoryNewComponent[Position]()
	b := FactoryNewComponent[Velocity]()

	w.Spawn(a, b)
	w.Spawn(b)

	onlyA := 0
	for range View1(w, NewQuery1(Read(a))).Iter() {
		onlyA++
	}
	if onlyA != 1 {
		t.Fatalf("View<&A> yielded %d, want 1", onlyA)
	}

	both := 0
	for range View2(w, NewQuery2(Read(a), Read(b))).Iter() {
		both++
	}
	if both != 1 {
		t.Fatalf("View<(&A,&B)> yielded %d, want 1", both)
	}
}

// TestIterationOrderDeterministic: iteration is archetype-index
// ascending, row-index ascending.
func TestIterationOrderDeterministic(t *testing.T) {
	w := NewWorld()
	pos := FactoryNewComponent[Position]()
	vel := FactoryNewComponent[Velocity]()

	// Create two archetypes, interleaving insert order so a naive
	// insertion-order iteration would differ from archetype/row order.
	w.Spawn(pos, vel)
	w.Spawn(pos)
	w.Spawn(pos, vel)

	view := View1(w, NewQuery1(Read(pos)))
	var archSeen []uint32
	for id := range view.Iter() {
		loc, _ := w.locate(id)
		archSeen = append(archSeen, loc.Archetype)
	}
	for i := 1; i < len(archSeen); i++ {
		if archSeen[i] < archSeen[i-1] {
			t.Fatalf("archetype order not ascending: %v", archSeen)
		}
	}
}

func TestFilterWithout(t *testing.T) {
	w := NewWorld()
	pos := FactoryNewComponent[Position]()
	vel := FactoryNewComponent[Velocity]()

	w.Spawn(pos, vel)
	lonely := w.Spawn(pos)

	view := View1(w, NewQuery1(Read(pos)), Without(vel))
	count := 0
	var lastID EntityID
	for id := range view.Iter() {
		count++
		lastID = id
	}
	if count != 1 || lastID != lonely.ID {
		t.Fatalf("Without(vel) should match only the lonely entity, got count=%d id=%v", count, lastID)
	}
}

func TestOptionTerm(t *testing.T) {
	w := NewWorld()
	pos := FactoryNewComponent[Position]()
	vel := FactoryNewComponent[Velocity]()

	w.Spawn(pos, vel)
	w.Spawn(pos)

	view := View2(w, NewQuery2(Read(pos), Option(Read(vel))))
	var withVel, withoutVel int
	for _, item := range view.Iter() {
		if item.B == nil {
			withoutVel++
		} else {
			withVel++
		}
	}
	if withVel != 1 || withoutVel != 1 {
		t.Fatalf("expected 1 with velocity and 1 without, got %d/%d", withVel, withoutVel)
	}
}

// TestDespawnBackfill verifies the swap-remove backfill keeps every
// surviving entity resolvable: despawning a middle row must not disturb
// the entity that takes its place.
func TestDespawnBackfill(t *testing.T) {
	w := NewWorld()
	pos := FactoryNewComponent[Position]()

	entities := w.SpawnBatch(3, pos)
	for i, e := range entities {
		p, ok := Get(w, e.ID, pos)
		if !ok {
			t.Fatalf("entity %d missing position", i)
		}
		p.X = float64(i)
	}

	if err := w.Despawn(entities[1].ID); err != nil {
		t.Fatalf("despawn middle: %v", err)
	}

	if w.IsAlive(entities[1].ID) {
		t.Fatalf("despawned entity should be dead")
	}
	for _, i := range []int{0, 2} {
		e := entities[i]
		if !w.IsAlive(e.ID) {
			t.Fatalf("survivor %d should still be alive", i)
		}
		p, ok := Get(w, e.ID, pos)
		if !ok || p.X != float64(i) {
			t.Fatalf("survivor %d: got %+v ok=%v, want X=%d", i, p, ok, i)
		}
	}

	count := 0
	for range View1(w, NewQuery1(Read(pos))).Iter() {
		count++
	}
	if count != 2 {
		t.Fatalf("view counted %d entities after despawn, want 2", count)
	}
}

// TestInsertValueRemoveComponent: InsertValue makes the value immediately
// readable, RemoveComponent hands the removed value back.
func TestInsertValueRemoveComponent(t *testing.T) {
	w := NewWorld()
	pos := FactoryNewComponent[Position]()
	vel := FactoryNewComponent[Velocity]()

	e := w.Spawn(pos)
	if err := InsertValue(w, e.ID, vel, Velocity{X: 3, Y: 4}); err != nil {
		t.Fatalf("insert value: %v", err)
	}
	v, ok := Get(w, e.ID, vel)
	if !ok || v.X != 3 || v.Y != 4 {
		t.Fatalf("expected velocity {3,4}, got %+v ok=%v", v, ok)
	}

	removed, err := RemoveComponent(w, e.ID, vel)
	if err != nil {
		t.Fatalf("remove component: %v", err)
	}
	if removed.X != 3 || removed.Y != 4 {
		t.Fatalf("removed value should round-trip, got %+v", removed)
	}
	if w.HasComponent(e.ID, vel) {
		t.Fatalf("velocity should be gone after RemoveComponent")
	}

	if _, err := RemoveComponent(w, e.ID, vel); err == nil {
		t.Fatalf("removing an absent component should error")
	}
	if _, err := RemoveComponent(w, EntityID(9999), vel); err == nil {
		t.Fatalf("removing from a dead entity should error")
	}
}

// TestTrySpawnDuplicateBundle: a bundle naming one component type twice
// is rejected as a value from the dynamic API.
func TestTrySpawnDuplicateBundle(t *testing.T) {
	w := NewWorld()
	pos := FactoryNewComponent[Position]()

	if _, err := w.TrySpawn(pos, pos); err == nil {
		t.Fatalf("expected InvalidBundleError for a duplicate bundle")
	} else if _, ok := err.(InvalidBundleError); !ok {
		t.Fatalf("expected InvalidBundleError, got %T: %v", err, err)
	}
}

// TestDespawnReserved verifies despawning a reserved-but-unmaterialized id
// cancels the reservation instead of erroring, and Maintain does not
// resurrect it.
func TestDespawnReserved(t *testing.T) {
	w := NewWorld()

	r := w.Reserve()
	if err := w.Despawn(r.ID); err != nil {
		t.Fatalf("despawn reserved: %v", err)
	}
	if w.IsAlive(r.ID) {
		t.Fatalf("cancelled reservation should not be alive")
	}
	w.Maintain()
	if w.IsAlive(r.ID) {
		t.Fatalf("cancelled reservation should stay dead across Maintain")
	}
}

// TestViewTryMapErrors distinguishes the two per-entity extraction
// failures: a dead id and a live one the query doesn't match.
func TestViewTryMapErrors(t *testing.T) {
	w := NewWorld()
	pos := FactoryNewComponent[Position]()
	vel := FactoryNewComponent[Velocity]()

	e := w.Spawn(pos)
	view := View1(w, NewQuery1(Read(vel)))

	err := view.TryMap(EntityID(4242), func(Item1[Velocity]) {})
	if _, ok := err.(NoSuchEntityError); !ok {
		t.Fatalf("expected NoSuchEntityError for a dead id, got %v", err)
	}

	err = view.TryMap(e.ID, func(Item1[Velocity]) {})
	if _, ok := err.(MissingComponentsError); !ok {
		t.Fatalf("expected MissingComponentsError for a non-matching entity, got %v", err)
	}

	matched := View1(w, NewQuery1(Read(pos)))
	ran := false
	if err := matched.TryMap(e.ID, func(Item1[Position]) { ran = true }); err != nil {
		t.Fatalf("TryMap on a matching entity: %v", err)
	}
	if !ran {
		t.Fatalf("TryMap should have run fn for a matching entity")
	}
}

// TestReservedInsertThroughEncoder: reserve from a shared reference,
// record the insert on an encoder, and let Maintain materialize the
// reservation before the deferred insert drains.
func TestReservedInsertThroughEncoder(t *testing.T) {
	w := NewWorld()
	foo := FactoryNewComponent[Position]()

	for i := 0; i < 2; i++ {
		e := w.Reserve()
		w.Encoder().Insert(e.ID, foo)
		w.Maintain()
	}

	count := 0
	for range View1(w, NewQuery1(Read(foo))).Iter() {
		count++
	}
	if count != 2 {
		t.Fatalf("expected 2 entities with Position after two deferred inserts, got %d", count)
	}
}
