package latticeworld

// Generic ergonomic helpers over World's variadic Component bundle API:
// these reduce a 2-, 3- or 4-component bundle call site from repeating
// []Component{a, b} to a single typed call.

// InsertBundle2 inserts components a and b onto id in one migration.
func InsertBundle2[A, B any](w *World, id EntityID, a AccessibleComponent[A], b AccessibleComponent[B]) error {
	return w.Insert(id, a, b)
}

// InsertBundle3 inserts components a, b and c onto id in one migration.
func InsertBundle3[A, B, C any](w *World, id EntityID, a AccessibleComponent[A], b AccessibleComponent[B], c AccessibleComponent[C]) error {
	return w.Insert(id, a, b, c)
}

// InsertBundle4 inserts components a, b, c and d onto id in one migration.
func InsertBundle4[A, B, C, D any](w *World, id EntityID, a AccessibleComponent[A], b AccessibleComponent[B], c AccessibleComponent[C], d AccessibleComponent[D]) error {
	return w.Insert(id, a, b, c, d)
}

// RemoveBundle2 removes components a and b from id in one migration.
func RemoveBundle2[A, B any](w *World, id EntityID, a AccessibleComponent[A], b AccessibleComponent[B]) error {
	return w.Remove(id, a, b)
}

// RemoveBundle3 removes components a, b and c from id in one migration.
func RemoveBundle3[A, B, C any](w *World, id EntityID, a AccessibleComponent[A], b AccessibleComponent[B], c AccessibleComponent[C]) error {
	return w.Remove(id, a, b, c)
}

// Bundle2 spawns n entities carrying exactly components a and b.
func Bundle2[A, B any](w *World, n int, a AccessibleComponent[A], b AccessibleComponent[B]) []Located {
	return w.SpawnBatch(n, a, b)
}

// Bundle3 spawns n entities carrying exactly components a, b and c.
func Bundle3[A, B, C any](w *World, n int, a AccessibleComponent[A], b AccessibleComponent[B], c AccessibleComponent[C]) []Located {
	return w.SpawnBatch(n, a, b, c)
}

// Bundle4 spawns n entities carrying exactly components a, b, c and d.
func Bundle4[A, B, C, D any](w *World, n int, a AccessibleComponent[A], b AccessibleComponent[B], c AccessibleComponent[C], d AccessibleComponent[D]) []Located {
	return w.SpawnBatch(n, a, b, c, d)
}

// Get resolves component T's value on id, or false if id is dead or its
// archetype lacks T.
func Get[T any](w *World, id EntityID, c AccessibleComponent[T]) (*T, bool) {
	return getComponent(w, id, c)
}

// InsertValue inserts component c onto id carrying the given value,
// migrating the entity if its archetype lacks c. If the entity already
// carries c, the value is replaced in place and c's on-replace hook fires.
func InsertValue[T any](w *World, id EntityID, c AccessibleComponent[T], value T) error {
	if ptr, ok := getComponent(w, id, c); ok {
		if hook := replaceHookFor(c.TypeID()); hook != nil {
			hook(id, newEncoder(w))
		}
		*ptr = value
		if loc, ok := w.locate(id); ok {
			w.stampRows(w.sto.ArchetypeByID(loc.Archetype), []int{int(loc.Row)}, []Component{c})
		}
		return nil
	}
	if err := w.Insert(id, c); err != nil {
		return err
	}
	ptr, ok := getComponent(w, id, c)
	if !ok {
		return MissingComponentsError{Entity: id}
	}
	*ptr = value
	return nil
}

// RemoveComponent removes component c from id and returns the removed
// value. Returns NoSuchEntityError for a dead id and
// ComponentNotFoundError when the entity doesn't carry c.
func RemoveComponent[T any](w *World, id EntityID, c AccessibleComponent[T]) (T, error) {
	var zero T
	ptr, ok := getComponent(w, id, c)
	if !ok {
		if !w.IsAlive(id) {
			return zero, NoSuchEntityError{ID: id}
		}
		return zero, ComponentNotFoundError{Component: c}
	}
	value := *ptr
	if err := w.Remove(id, c); err != nil {
		return zero, err
	}
	return value, nil
}
