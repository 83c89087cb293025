package metrics

import (
	"math"

	"github.com/san-kum/orrery/internal/sim"
)

// RadiusDrift is the largest distance any body strayed from its circle.
// Anything above float noise means positions and angles disagree.
type RadiusDrift struct {
	name     string
	maxDrift float64
}

func NewRadiusDrift() *RadiusDrift {
	return &RadiusDrift{name: "radius_drift"}
}

func (d *RadiusDrift) Name() string { return d.name }

func (d *RadiusDrift) Observe(s sim.Snapshot) {
	for _, b := range s.Bodies {
		drift := math.Abs(b.Position.Len() - b.Distance)
		d.maxDrift = math.Max(d.maxDrift, drift)
	}
}

func (d *RadiusDrift) Value() float64 { return d.maxDrift }

func (d *RadiusDrift) Reset() { d.maxDrift = 0 }

// OrbitCount is the number of revolutions one body completed since the first
// observation.
type OrbitCount struct {
	name    string
	body    string
	first   float64
	last    float64
	samples int
}

func NewOrbitCount(body string) *OrbitCount {
	return &OrbitCount{name: "orbits_" + body, body: body}
}

func (o *OrbitCount) Name() string { return o.name }

func (o *OrbitCount) Observe(s sim.Snapshot) {
	b, ok := s.Body(o.body)
	if !ok {
		return
	}
	if o.samples == 0 {
		o.first = b.Angle
	}
	o.last = b.Angle
	o.samples++
}

func (o *OrbitCount) Value() float64 {
	if o.samples == 0 {
		return 0
	}
	return (o.last - o.first) / (2 * math.Pi)
}

func (o *OrbitCount) Reset() {
	o.first, o.last = 0, 0
	o.samples = 0
}
