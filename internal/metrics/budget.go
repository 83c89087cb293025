package metrics

import "github.com/san-kum/orrery/internal/sim"

// FrameBudget is the fraction of snapshots whose measured frame rate met the
// threshold.
type FrameBudget struct {
	name      string
	threshold int
	misses    int
	samples   int
}

func NewFrameBudget(threshold int) *FrameBudget {
	return &FrameBudget{
		name:      "frame_budget",
		threshold: threshold,
	}
}

func (f *FrameBudget) Name() string {
	return f.name
}

func (f *FrameBudget) Observe(s sim.Snapshot) {
	f.samples++
	if s.FPS < f.threshold {
		f.misses++
	}
}

func (f *FrameBudget) Value() float64 {
	if f.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(f.misses)/float64(f.samples)
}

func (f *FrameBudget) Reset() {
	f.misses = 0
	f.samples = 0
}
