package latticeworld

// ComponentRegistration couples a component pre-registration with optional
// hook overrides, for WorldBuilder. A nil hook leaves any previously
// declared hook for that component type in place.
type ComponentRegistration struct {
	Component Component
	OnDrop    func(entity EntityID, enc *Encoder)
	OnReplace func(entity EntityID, enc *Encoder)
}

// WorldBuilder configures a World before construction: component
// pre-registrations (so schema bit assignment doesn't depend on first-use
// order), per-component hook overrides, and the first id the allocator
// mints, for embedders that partition one id space across several worlds.
// Hook overrides are written to the process-wide component registry, so
// they apply to every World in the process, not only the one Build returns.
// The zero builder is not usable; start from NewWorldBuilder.
type WorldBuilder struct {
	regs    []ComponentRegistration
	firstID uint64
}

// NewWorldBuilder returns a builder producing worlds equivalent to
// NewWorld() until configured otherwise.
func NewWorldBuilder() *WorldBuilder {
	return &WorldBuilder{firstID: 1}
}

// WithComponents pre-registers components without hook overrides.
func (b *WorldBuilder) WithComponents(components ...Component) *WorldBuilder {
	for _, c := range components {
		b.regs = append(b.regs, ComponentRegistration{Component: c})
	}
	return b
}

// WithRegistration pre-registers one component together with its hook
// overrides.
func (b *WorldBuilder) WithRegistration(r ComponentRegistration) *WorldBuilder {
	b.regs = append(b.regs, r)
	return b
}

// WithFirstID sets the first entity id the world's allocator mints. Ids
// below first are never produced, letting an embedder carve disjoint
// ranges out of the shared 64-bit space. Zero is reserved and clamps to 1.
func (b *WorldBuilder) WithFirstID(first uint64) *WorldBuilder {
	if first == 0 {
		first = 1
	}
	b.firstID = first
	return b
}

// Build constructs the configured World.
func (b *WorldBuilder) Build() *World {
	w := NewWorld()
	w.alloc.nextID.Store(b.firstID)
	for _, r := range b.regs {
		w.sto.Register(r.Component)
		if r.OnDrop == nil && r.OnReplace == nil {
			continue
		}
		if tid, ok := typeIDOf(r.Component); ok {
			overrideHooks(tid, r.OnDrop, r.OnReplace)
		}
	}
	return w
}
