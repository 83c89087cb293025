package orbit

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Axis selects a local rotation axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	default:
		return "z"
	}
}

// EffectKind classifies a sub-effect attached to a body.
type EffectKind int

const (
	EffectAtmosphere EffectKind = iota
	EffectClouds
	EffectStorm
	EffectDust
	EffectRing
	EffectGlow
)

func (k EffectKind) String() string {
	return [...]string{"atmosphere", "clouds", "storm", "dust", "ring", "glow"}[k]
}

// Effect is a visual sub-effect spinning at a fixed rate about one axis.
// A shell rotating about two axes is two Effects sharing a Name.
type Effect struct {
	Name     string
	Kind     EffectKind
	Rate     float64
	Axis     Axis
	Rotation float64
}

// Body is one orbiting planet. Angle is unbounded; only its value mod 2π is
// meaningful.
type Body struct {
	Name  string
	Index int

	Distance          float64
	OrbitalPeriodDays float64
	BaseSpeed         float64
	Speed             float64
	Angle             float64
	RotationSpeed     float64
	Rotation          float64

	Radius          float64
	RealisticRadius float64
	Color           string
	Info            string
	RealDistance    string
	RealPeriod      string

	Effects []Effect
}

// Position returns the body's location on its circular orbit in the shared
// y=0 plane.
func (b *Body) Position() mgl64.Vec3 {
	return mgl64.Vec3{math.Cos(b.Angle) * b.Distance, 0, math.Sin(b.Angle) * b.Distance}
}

// DisplayRadius returns the rendered radius for the current size mode.
func (b *Body) DisplayRadius(realistic bool) float64 {
	if realistic && b.RealisticRadius > 0 {
		return b.RealisticRadius
	}
	return b.Radius
}

// Phase returns Angle normalized to [0, 2π).
func (b *Body) Phase() float64 {
	p := math.Mod(b.Angle, 2*math.Pi)
	if p < 0 {
		p += 2 * math.Pi
	}
	return p
}

// Advance moves the body forward by delta simulated seconds at global speed
// scale g.
func (b *Body) Advance(g, delta float64) {
	b.Angle += b.Speed * g * delta * OrbitPacing
	spin := g * delta * RotationPacing
	b.Rotation += b.RotationSpeed * spin
	for i := range b.Effects {
		b.Effects[i].Rotation += b.Effects[i].Rate * spin
	}
}

// Clone returns a deep copy.
func (b *Body) Clone() *Body {
	c := *b
	c.Effects = append([]Effect(nil), b.Effects...)
	return &c
}

// RingEffects builds n ring segments whose spin rate grows with their index.
func RingEffects(n int) []Effect {
	rings := make([]Effect, n)
	for i := range rings {
		rings[i] = Effect{
			Name: "ring",
			Kind: EffectRing,
			Rate: RingBaseRate + float64(i)*RingRateStep,
			Axis: AxisZ,
		}
	}
	return rings
}

// Published effect rates, per unit of RotationPacing.
const (
	CloudRate            = 0.008
	StormRate            = 0.015
	DustSpinRate         = 0.012
	DustTumbleRate       = 0.005
	RetrogradeVenusRate  = -0.003
	RingBaseRate         = 0.001
	RingRateStep         = 0.0002
	StarRotationRate     = 0.005
	StarRadius           = 5.0
	StarRealisticRadius  = 8.0
	StarGlowRadiusFactor = 1.4
)
