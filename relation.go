package latticeworld

import (
	"errors"

	"github.com/TheBitDrifter/bark"
)

// OriginEntry is one (target, payload) pair inside an origin entity's
// Origin[R] companion list.
type OriginEntry[R any] struct {
	Target  EntityID
	Payload R
}

// Origin is the hidden companion component attached to a relation's origin
// entity: the list of targets it points at, together with each edge's
// payload. Stored and migrated exactly like any other component.
type Origin[R any] struct {
	Entries []OriginEntry[R]
}

// Single returns the relation's sole entry, assuming EXCLUSIVE. The second
// return is false if the origin has no entry at all (e.g. matched
// structurally via an Option term).
func (o Origin[R]) Single() (OriginEntry[R], bool) {
	if len(o.Entries) == 0 {
		var zero OriginEntry[R]
		return zero, false
	}
	return o.Entries[0], true
}

// For returns the payload of the entry targeting t, if any.
func (o Origin[R]) For(t EntityID) (R, bool) {
	for _, e := range o.Entries {
		if e.Target == t {
			return e.Payload, true
		}
	}
	var zero R
	return zero, false
}

// Target is the hidden companion component attached to a relation's target
// entity: the list of origins that point at it.
type Target[R any] struct {
	Origins []EntityID
}

// Has reports whether o is among this target's origins.
func (t Target[R]) Has(o EntityID) bool {
	for _, id := range t.Origins {
		if id == o {
			return true
		}
	}
	return false
}

// RelationModifiers are the per-relation-type behavior flags.
type RelationModifiers struct {
	// Exclusive: at most one target per origin; re-adding replaces the
	// existing entry and fires OnReplace.
	Exclusive bool
	// Symmetric: adding R from a->b also installs the reverse edge b->a.
	Symmetric bool
	// Owned: despawning a relation's target despawns every origin that
	// points to it.
	Owned bool
}

// RelationDef is the handle returned by FactoryNewRelation[R]: it carries
// the synthesized Origin[R]/Target[R] component accessors plus the
// modifiers and optional hooks for relation type R.
type RelationDef[R any] struct {
	kind       TypeID
	mods       RelationModifiers
	originComp AccessibleComponent[Origin[R]]
	targetComp AccessibleComponent[Target[R]]

	// onReplace fires when EXCLUSIVE replaces an existing entry; returning
	// true also fires onDrop for the replaced entry.
	onReplace func(old, new R, origin, oldTarget, newTarget EntityID, enc *Encoder) bool
	// onDrop fires when an entry is dropped outright (replaced with no
	// onReplace, or removed by RemoveRelation/DropRelation/cascade).
	onDrop func(payload R, origin, target EntityID, enc *Encoder)
}

// WithHooks attaches on-replace/on-drop hooks to a relation definition,
// mirroring the per-component hook declarations of the component registry,
// scoped to this relation type's payload.
func (d RelationDef[R]) WithHooks(
	onReplace func(old, new R, origin, oldTarget, newTarget EntityID, enc *Encoder) bool,
	onDrop func(payload R, origin, target EntityID, enc *Encoder),
) RelationDef[R] {
	d.onReplace = onReplace
	d.onDrop = onDrop
	return d
}

// FactoryNewRelation declares a new relation type R with the given
// modifiers, registering its Origin[R]/Target[R] companion components and
// a type-erased cascade descriptor in the process-local relation registry.
func FactoryNewRelation[R any](mods RelationModifiers) RelationDef[R] {
	def := RelationDef[R]{
		kind:       TypeIdentity[R](),
		mods:       mods,
		originComp: FactoryNewComponent[Origin[R]](),
		targetComp: FactoryNewComponent[Target[R]](),
	}
	registerRelationKind(relationKindMeta{
		id:    def.kind,
		owned: mods.Owned,
		originsOfTarget: func(w *World, target EntityID) []EntityID {
			t, ok := getComponent(w, target, def.targetComp)
			if !ok {
				return nil
			}
			out := make([]EntityID, len(t.Origins))
			copy(out, t.Origins)
			return out
		},
		targetsOfOrigin: func(w *World, origin EntityID) []EntityID {
			o, ok := getComponent(w, origin, def.originComp)
			if !ok {
				return nil
			}
			out := make([]EntityID, len(o.Entries))
			for i, e := range o.Entries {
				out[i] = e.Target
			}
			return out
		},
		removeEntry: func(w *World, origin, target EntityID) {
			def.removeOriginEntry(w, origin, target)
		},
		removeTargetOrigin: func(w *World, target, origin EntityID) {
			def.removeTargetOrigin(w, target, origin)
		},
	})
	return def
}

// Kind returns the process-local relation-type identity, used to key
// cascade actions enqueued through an Encoder.
func (d RelationDef[R]) Kind() TypeID { return d.kind }

// Add attaches relation R from origin to target with the given payload.
// EXCLUSIVE replaces any existing entry (firing OnReplace, and OnDrop if it
// returns true); SYMMETRIC additionally installs the reverse edge.
func (d RelationDef[R]) Add(w *World, origin EntityID, payload R, target EntityID) error {
	if !w.IsAlive(origin) {
		return NoSuchEntityError{ID: origin}
	}
	if !w.IsAlive(target) {
		return NoSuchEntityError{ID: target}
	}
	if err := d.addOneDirection(w, origin, payload, target); err != nil {
		return err
	}
	if d.mods.Symmetric {
		if err := d.addOneDirection(w, target, payload, origin); err != nil {
			return err
		}
	}
	return nil
}

func (d RelationDef[R]) addOneDirection(w *World, origin EntityID, payload R, target EntityID) error {
	// Both ensure calls may migrate rows, which can relocate the other
	// entity's storage. Resolve the working pointers only once both
	// companions are in place.
	if _, err := ensureComponent(w, origin, d.originComp); err != nil {
		return err
	}
	if _, err := ensureComponent(w, target, d.targetComp); err != nil {
		return err
	}
	originComp, ok := getComponent(w, origin, d.originComp)
	if !ok {
		return MissingComponentsError{Entity: origin}
	}
	targetComp, ok := getComponent(w, target, d.targetComp)
	if !ok {
		return MissingComponentsError{Entity: target}
	}

	if d.mods.Exclusive && len(originComp.Entries) > 0 {
		old := originComp.Entries[0]
		enc := newEncoder(w)
		fireDrop := true
		if d.onReplace != nil {
			fireDrop = d.onReplace(old.Payload, payload, origin, old.Target, target, enc)
		}
		if fireDrop && d.onDrop != nil {
			d.onDrop(old.Payload, origin, old.Target, enc)
		}
		if old.Target != target {
			d.removeTargetOrigin(w, old.Target, origin)
		}
		originComp.Entries[0] = OriginEntry[R]{Target: target, Payload: payload}
	} else {
		// A non-exclusive relation is replaced only when re-added with the
		// same target: the existing entry's payload is overwritten in place
		// (firing OnReplace, and OnDrop if it returns true), never
		// duplicated.
		replaced := false
		for i, e := range originComp.Entries {
			if e.Target != target {
				continue
			}
			enc := newEncoder(w)
			fireDrop := true
			if d.onReplace != nil {
				fireDrop = d.onReplace(e.Payload, payload, origin, e.Target, target, enc)
			}
			if fireDrop && d.onDrop != nil {
				d.onDrop(e.Payload, origin, e.Target, enc)
			}
			originComp.Entries[i] = OriginEntry[R]{Target: target, Payload: payload}
			replaced = true
			break
		}
		if !replaced {
			originComp.Entries = append(originComp.Entries, OriginEntry[R]{Target: target, Payload: payload})
		}
	}

	if !targetComp.Has(origin) {
		targetComp.Origins = append(targetComp.Origins, origin)
	}
	return nil
}

// Remove detaches the edge from origin to target, if present, firing
// OnDrop. The reverse edge installed by SYMMETRIC is also removed.
func (d RelationDef[R]) Remove(w *World, origin, target EntityID) error {
	d.removeOriginEntry(w, origin, target)
	if d.mods.Symmetric {
		d.removeOriginEntry(w, target, origin)
	}
	return nil
}

func (d RelationDef[R]) removeOriginEntry(w *World, origin, target EntityID) {
	originComp, ok := getComponent(w, origin, d.originComp)
	if !ok {
		return
	}
	idx := -1
	for i, e := range originComp.Entries {
		if e.Target == target {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	removed := originComp.Entries[idx]
	originComp.Entries = append(originComp.Entries[:idx], originComp.Entries[idx+1:]...)
	d.removeTargetOrigin(w, target, origin)
	if d.onDrop != nil {
		d.onDrop(removed.Payload, origin, target, newEncoder(w))
	}
}

func (d RelationDef[R]) removeTargetOrigin(w *World, target, origin EntityID) {
	targetComp, ok := getComponent(w, target, d.targetComp)
	if !ok {
		return
	}
	for i, id := range targetComp.Origins {
		if id == origin {
			targetComp.Origins = append(targetComp.Origins[:i], targetComp.Origins[i+1:]...)
			return
		}
	}
}

// Drop removes every edge originating at origin.
func (d RelationDef[R]) Drop(w *World, origin EntityID) error {
	originComp, ok := getComponent(w, origin, d.originComp)
	if !ok {
		return nil
	}
	targets := make([]EntityID, len(originComp.Entries))
	for i, e := range originComp.Entries {
		targets[i] = e.Target
	}
	for _, t := range targets {
		if err := d.Remove(w, origin, t); err != nil {
			return err
		}
	}
	return nil
}

// Single returns origin's sole relation entry, assuming d is EXCLUSIVE. The
// second return is false if origin has no Origin[R] component at all or the
// entry list is empty.
func (d RelationDef[R]) Single(w *World, origin EntityID) (OriginEntry[R], bool) {
	originComp, ok := getComponent(w, origin, d.originComp)
	if !ok {
		var zero OriginEntry[R]
		return zero, false
	}
	return originComp.Single()
}

// Relates reports whether origin has relation R pointed at target.
func (d RelationDef[R]) Relates(w *World, origin, target EntityID) bool {
	originComp, ok := getComponent(w, origin, d.originComp)
	if !ok {
		return false
	}
	_, found := originComp.For(target)
	return found
}

// Relates builds a Read term over a relation's Origin[R] companion
// component, yielding each origin's full (target, payload) list.
func Relates[R any](d RelationDef[R]) term[Origin[R]] {
	return Read(d.originComp)
}

// RelatesExclusive is the same term as Relates, documented separately
// because callers should only reach for it when d was declared EXCLUSIVE
// (Origin[R].Single() then never has more than one entry). Go's generics
// can't express a compile-time assertion here, so this is a runtime-checked
// convention rather than a distinct type.
func RelatesExclusive[R any](d RelationDef[R]) term[Origin[R]] {
	if !d.mods.Exclusive {
		panic(bark.AddTrace(errors.New("RelatesExclusive used with a non-EXCLUSIVE relation definition")))
	}
	return Read(d.originComp)
}

// RelatesTo builds a term over a relation's Origin[R] companion component,
// narrowed to origins whose entry list contains target. An origin whose
// Origin[R] doesn't mention target at all is excluded from the match,
// exactly like a structural filter, even though the component itself is
// present.
func RelatesTo[R any](d RelationDef[R], target EntityID) term[Origin[R]] {
	return withRowFilter(Read(d.originComp), func(present bool, v *Origin[R]) bool {
		if !present {
			return false
		}
		_, ok := v.For(target)
		return ok
	})
}

// NotRelatesTo is the mirror of RelatesTo: it matches origins whose
// Origin[R] entry list does NOT contain target (including origins with no
// Origin[R] component at all).
func NotRelatesTo[R any](d RelationDef[R], target EntityID) term[Origin[R]] {
	t := Option(Read(d.originComp))
	return withRowFilter(t, func(present bool, v *Origin[R]) bool {
		if !present {
			return true
		}
		_, ok := v.For(target)
		return !ok
	})
}

// Related builds a Read term over a relation's Target[R] companion
// component, yielding the list of origins pointing at each matched target.
func Related[R any](d RelationDef[R]) term[Target[R]] {
	return Read(d.targetComp)
}

// NotRelated is a structural filter matching entities that carry no
// Target[R] component for this relation at all, i.e. nothing relates to
// them via d.
func NotRelated[R any](d RelationDef[R]) Filter {
	return Without(d.targetComp)
}

// NotRelatesAny is a structural filter matching entities that carry no
// Origin[R] component for this relation at all, i.e. they relate to
// nothing via d.
func NotRelatesAny[R any](d RelationDef[R]) Filter {
	return Without(d.originComp)
}

// relationKindMeta is the type-erased cascade descriptor FactoryNewRelation
// registers for relation type R. World.Despawn walks every registered kind
// to find cascades without needing to know R at compile time.
type relationKindMeta struct {
	id    TypeID
	owned bool

	originsOfTarget    func(w *World, target EntityID) []EntityID
	targetsOfOrigin    func(w *World, origin EntityID) []EntityID
	removeEntry        func(w *World, origin, target EntityID)
	removeTargetOrigin func(w *World, target, origin EntityID)
}

var registeredRelationKinds []relationKindMeta

func registerRelationKind(m relationKindMeta) {
	registeredRelationKinds = append(registeredRelationKinds, m)
}

// relationKind identifies a registered relation type for deferred action
// payloads.
type relationKind = TypeID

// relationRegistry is the World-scoped cascade driver. The definitions
// themselves (registeredRelationKinds) are process-local; this
// struct exists only to give World a stable field to call into and to keep
// cascade logic out of world.go.
type relationRegistry struct{}

func newRelationRegistry() *relationRegistry { return &relationRegistry{} }

// cascade runs when despawned is removed from the world. For every
// registered relation kind: enumerate despawned's
// Target[R] origins and, for OWNED kinds, enqueue their despawn; for
// non-owned kinds, enqueue removal of their Origin[R] entry. Separately,
// enumerate despawned's own Origin[R] entries and enqueue removal of the
// reverse Target[R].Origins entry on each listed target. Every mutation
// runs through the action buffer so nothing changes structure inline with
// an in-flight iteration.
func (r *relationRegistry) cascade(w *World, despawned EntityID) {
	for _, kind := range registeredRelationKinds {
		for _, origin := range kind.originsOfTarget(w, despawned) {
			if kind.owned {
				w.actions.Push(despawnAction{id: origin})
			} else {
				w.actions.Push(removeRelationEntryAction{kind: kind.id, origin: origin, target: despawned})
			}
		}
		for _, target := range kind.targetsOfOrigin(w, despawned) {
			w.actions.Push(removeTargetOriginAction{kind: kind.id, target: target, origin: despawned})
		}
	}
}

// removeEntry is the generic-erased counterpart of RelationDef[R].Remove,
// used by removeRelationEntryAction.apply to drain a cascade-enqueued
// removal without knowing R.
func (r *relationRegistry) removeEntry(w *World, kind relationKind, origin, target EntityID) {
	for _, k := range registeredRelationKinds {
		if k.id == kind {
			k.removeEntry(w, origin, target)
			return
		}
	}
}

// removeTargetOrigin is the generic-erased counterpart of
// RelationDef[R].removeTargetOrigin, used by removeTargetOriginAction.
func (r *relationRegistry) removeTargetOrigin(w *World, kind relationKind, target, origin EntityID) {
	for _, k := range registeredRelationKinds {
		if k.id == kind {
			k.removeTargetOrigin(w, target, origin)
			return
		}
	}
}
