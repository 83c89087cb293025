package orbit

import "math"

const (
	SecondsPerDay = 86400.0

	// BaseSpeed scales the real/desired period ratio into an angular speed.
	BaseSpeed = 0.002
	MinSpeed  = 0.0001
	MaxSpeed  = 10.0

	// DefaultSpeed is the manual multiplier applied when time-based control
	// cannot be derived.
	DefaultSpeed = 1.0

	// OrbitPacing and RotationPacing decouple on-screen motion from the
	// time-unit model. They are tuned visually; do not change them.
	OrbitPacing    = 0.1
	RotationPacing = 10.0
)

// SpeedFor returns the angular speed that makes a body with the given real
// orbital period appear to complete one orbit in desiredPeriodSeconds. The
// result is clamped to [MinSpeed, MaxSpeed].
func SpeedFor(orbitalPeriodDays, desiredPeriodSeconds float64) (float64, error) {
	if !positive(orbitalPeriodDays) {
		return 0, Errorf("orbit.SpeedFor", ErrValidation, "orbital period must be positive, got %v days", orbitalPeriodDays)
	}
	if !positive(desiredPeriodSeconds) {
		return 0, Errorf("orbit.SpeedFor", ErrValidation, "desired period must be positive, got %v s", desiredPeriodSeconds)
	}

	realPeriodSeconds := orbitalPeriodDays * SecondsPerDay
	multiplier := realPeriodSeconds / desiredPeriodSeconds
	return clamp(BaseSpeed*multiplier, MinSpeed, MaxSpeed), nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
