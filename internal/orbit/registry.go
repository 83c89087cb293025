package orbit

import (
	"math"
	"math/rand"
)

// Registry owns every Body in a simulation. Callers receive pointers into
// the registry, never copies, so positions cannot desync.
type Registry struct {
	bodies []*Body
}

// NewRegistry takes ownership of bodies, assigns indices and sets each
// body's current speed to its base speed. A body with a non-positive
// distance or period is a configuration error.
func NewRegistry(bodies []*Body) (*Registry, error) {
	r := &Registry{bodies: make([]*Body, len(bodies))}
	for i, b := range bodies {
		if b == nil {
			return nil, Errorf("orbit.NewRegistry", ErrConfiguration, "body %d is nil", i)
		}
		if !positive(b.Distance) {
			return nil, Errorf("orbit.NewRegistry", ErrConfiguration, "%s: distance must be positive", b.Name)
		}
		if !positive(b.OrbitalPeriodDays) {
			return nil, Errorf("orbit.NewRegistry", ErrConfiguration, "%s: orbital period must be positive", b.Name)
		}
		if math.IsNaN(b.BaseSpeed) || math.IsInf(b.BaseSpeed, 0) {
			return nil, Errorf("orbit.NewRegistry", ErrConfiguration, "%s: base speed must be finite", b.Name)
		}
		b.Index = i
		b.Speed = b.BaseSpeed
		r.bodies[i] = b
	}
	return r, nil
}

func (r *Registry) Len() int { return len(r.bodies) }

// Get returns the body at index.
func (r *Registry) Get(index int) (*Body, error) {
	if index < 0 || index >= len(r.bodies) {
		return nil, Errorf("orbit.Registry.Get", ErrValidation, "body index %d out of range [0,%d)", index, len(r.bodies))
	}
	return r.bodies[index], nil
}

// Lookup finds a body by name.
func (r *Registry) Lookup(name string) (*Body, bool) {
	for _, b := range r.bodies {
		if b.Name == name {
			return b, true
		}
	}
	return nil, false
}

// Bodies returns the registry's bodies. The slice is shared; do not append.
func (r *Registry) Bodies() []*Body { return r.bodies }

// Randomize assigns every body a phase in [0, 2π).
func (r *Registry) Randomize(rng *rand.Rand) {
	for _, b := range r.bodies {
		b.Angle = rng.Float64() * 2 * math.Pi
	}
}

// Reset re-randomizes phases and restores base speeds.
func (r *Registry) Reset(rng *rand.Rand) {
	r.Randomize(rng)
	for _, b := range r.bodies {
		b.Speed = b.BaseSpeed
	}
}
