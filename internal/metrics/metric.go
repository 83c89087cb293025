// Package metrics measures a running orrery: Prometheus instruments for the
// live loop, and run summaries computed over snapshots for offline runs.
package metrics

import "github.com/san-kum/orrery/internal/sim"

// Metric folds a sequence of snapshots into one number.
type Metric interface {
	Name() string
	Observe(s sim.Snapshot)
	Value() float64
	Reset()
}

// Summarize returns name -> value for every metric.
func Summarize(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}

// Standard returns the metrics recorded for every offline run.
func Standard(bodies []string) []Metric {
	ms := []Metric{NewRadiusDrift(), NewFrameBudget(30)}
	for _, name := range bodies {
		ms = append(ms, NewOrbitCount(name))
	}
	return ms
}
