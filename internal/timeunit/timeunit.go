// Package timeunit holds the named time units used by time-based speed
// control ("complete one orbit in a year").
package timeunit

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/orrery/internal/orbit"
)

const (
	Second = "second"
	Minute = "minute"
	Hour   = "hour"
	Day    = "day"
	Week   = "week"
	Month  = "month"
	Year   = "year"
)

// Required lists the units every table must define.
var Required = []string{Second, Minute, Hour, Day, Week, Month, Year}

// Defaults returns the standard unit lengths in seconds. Month and year are
// Gregorian averages (30.44 and 365.2425 days).
func Defaults() map[string]float64 {
	return map[string]float64{
		Second: 1,
		Minute: 60,
		Hour:   3600,
		Day:    86400,
		Week:   604800,
		Month:  2629746,
		Year:   31556952,
	}
}

// Table is a validated, read-only unit table.
type Table struct {
	seconds map[string]float64
}

// Validate checks raw and freezes it into a Table. A missing required unit or
// a non-positive or non-finite value is a configuration error.
func Validate(raw map[string]float64) (Table, error) {
	var missing []string
	for _, name := range Required {
		if _, ok := raw[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Table{}, orbit.Errorf("timeunit.Validate", orbit.ErrConfiguration, "missing time units %v", missing)
	}

	seconds := make(map[string]float64, len(raw))
	for name, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return Table{}, orbit.Errorf("timeunit.Validate", orbit.ErrConfiguration, "invalid value for %q: %v", name, v)
		}
		seconds[name] = v
	}
	return Table{seconds: seconds}, nil
}

// MustDefault returns the validated default table.
func MustDefault() Table {
	t, err := Validate(Defaults())
	if err != nil {
		panic(err)
	}
	return t
}

// Seconds returns the length of unit. Unknown units are a validation error.
func (t Table) Seconds(unit string) (float64, error) {
	v, ok := t.seconds[unit]
	if !ok {
		return 0, orbit.Errorf("timeunit.Seconds", orbit.ErrValidation, "unknown time unit %q", unit)
	}
	return v, nil
}

// Names returns unit names ordered by length, shortest first.
func (t Table) Names() []string {
	names := make([]string, 0, len(t.seconds))
	for name := range t.seconds {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := t.seconds[names[i]], t.seconds[names[j]]
		if a == b {
			return names[i] < names[j]
		}
		return a < b
	})
	return names
}

// Len returns the number of units.
func (t Table) Len() int { return len(t.seconds) }

func (t Table) String() string {
	return fmt.Sprintf("timeunit.Table(%d units)", len(t.seconds))
}
