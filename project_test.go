package latticeworld

import "testing"

// Describable is the projection target used by the tests below: any
// component that registered a projection to it can be viewed as one.
type Describable interface {
	Describe() string
}

type NameTag struct {
	Text string
}

func (n *NameTag) Describe() string { return "name:" + n.Text }

func TestProjectTo(t *testing.T) {
	RegisterProjection(func(n *NameTag) Describable { return n })

	w := NewWorld()
	tag := FactoryNewComponent[NameTag]()

	e := w.Spawn(tag)
	if err := InsertValue(w, e.ID, tag, NameTag{Text: "alpha"}); err != nil {
		t.Fatalf("insert value: %v", err)
	}

	d, err := ProjectTo[Describable](w, e.ID)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if got := d.Describe(); got != "name:alpha" {
		t.Fatalf("projection saw %q, want %q", got, "name:alpha")
	}
}

func TestProjectToMisses(t *testing.T) {
	w := NewWorld()
	pos := FactoryNewComponent[Position]()

	e := w.Spawn(pos)
	if _, err := ProjectTo[Describable](w, e.ID); err == nil {
		t.Fatalf("expected MissingComponentsError when nothing projects to the target")
	} else if _, ok := err.(MissingComponentsError); !ok {
		t.Fatalf("expected MissingComponentsError, got %T: %v", err, err)
	}

	if _, err := ProjectTo[Describable](w, EntityID(777)); err == nil {
		t.Fatalf("expected NoSuchEntityError for a dead id")
	} else if _, ok := err.(NoSuchEntityError); !ok {
		t.Fatalf("expected NoSuchEntityError, got %T: %v", err, err)
	}
}
