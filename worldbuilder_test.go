package latticeworld

import "testing"

type buildHooked struct {
	N int
}

func TestWorldBuilderFirstID(t *testing.T) {
	pos := FactoryNewComponent[Position]()
	w := NewWorldBuilder().
		WithComponents(pos).
		WithFirstID(1000).
		Build()

	e := w.Spawn(pos)
	if uint64(e.ID) < 1000 {
		t.Fatalf("expected ids to start at 1000, got %v", e.ID)
	}
}

func TestWorldBuilderDropHook(t *testing.T) {
	hooked := FactoryNewComponent[buildHooked]()

	var dropped []EntityID
	w := NewWorldBuilder().
		WithRegistration(ComponentRegistration{
			Component: hooked,
			OnDrop: func(entity EntityID, enc *Encoder) {
				dropped = append(dropped, entity)
			},
		}).
		Build()

	e := w.Spawn(hooked)
	if err := w.Remove(e.ID, hooked); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(dropped) != 1 || dropped[0] != e.ID {
		t.Fatalf("on-drop hook should fire once on Remove, got %v", dropped)
	}

	e2 := w.Spawn(hooked)
	if err := w.Despawn(e2.ID); err != nil {
		t.Fatalf("despawn: %v", err)
	}
	if len(dropped) != 2 || dropped[1] != e2.ID {
		t.Fatalf("on-drop hook should fire on Despawn too, got %v", dropped)
	}
}
