package latticeworld

// DumpState classifies one entity's relationship to a DumpQuery's tracked
// component, independent of any serialization format: Missing when the
// entity's archetype doesn't carry the component at all, Unmodified/
// Modified by comparing the row's last-write epoch against the query's
// baseline.
type DumpState int

const (
	DumpMissing DumpState = iota
	DumpUnmodified
	DumpModified
)

// DumpItem is one row of a DumpQuery scan.
type DumpItem[T any] struct {
	ID    EntityID
	State DumpState
	Value *T
}

// DumpQuery scans every entity in the world, whether or not its archetype
// carries T, tagging each with DumpState relative to Since. A serialization
// layer built on top decides what to do with Missing/Unmodified/Modified;
// this type only classifies.
type DumpQuery[T any] struct {
	comp  AccessibleComponent[T]
	Since Epoch
}

// NewDumpQuery builds a DumpQuery for component c, classifying rows changed
// since the given epoch. With 0, a present row is Modified once it carries a
// row stamp in its current archetype; a row moved in by Insert/Remove and
// not written there since can read as epoch 0 and is then Unmodified.
func NewDumpQuery[T any](c AccessibleComponent[T], since Epoch) DumpQuery[T] {
	return DumpQuery[T]{comp: c, Since: since}
}

// Dump runs q against w, returning one DumpItem per live entity.
func Dump[T any](w *World, q DumpQuery[T]) []DumpItem[T] {
	bit := reserveLockBit()
	w.sto.AddLock(bit)
	defer w.sto.RemoveLock(bit)

	var out []DumpItem[T]
	for _, a := range w.sto.Archetypes() {
		n := a.table.Length()
		present := q.comp.Accessor.Check(a.table)
		for row := 0; row < n; row++ {
			id, ok := w.entityAt(a, row)
			if !ok {
				continue
			}
			if !present {
				out = append(out, DumpItem[T]{ID: id, State: DumpMissing})
				continue
			}
			item := DumpItem[T]{ID: id, Value: q.comp.Get(row, a.table)}
			if a.epoch.rowEpochOf(q.comp.TypeID(), row, n).After(q.Since) {
				item.State = DumpModified
			} else {
				item.State = DumpUnmodified
			}
			out = append(out, item)
		}
	}
	return out
}
