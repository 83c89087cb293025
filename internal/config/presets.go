package config

import (
	"sort"

	"github.com/san-kum/orrery/internal/orbit"
)

func mercury() BodyConfig {
	return BodyConfig{
		Name: "Mercury", Radius: 0.38, RealisticRadius: 0.1, Distance: 15, Speed: 4.74, RotationSpeed: 0.01, Days: 88,
		Color: "#8c7853", Info: "The smallest planet and closest to the Sun.",
		RealDistance: "57.9 million km", RealPeriod: "88 days",
	}
}

func venus() BodyConfig {
	return BodyConfig{
		Name: "Venus", Radius: 0.95, RealisticRadius: 0.2, Distance: 22, Speed: 3.50, RotationSpeed: -0.004, Days: 225,
		Color: "#ffc649", Info: "The hottest planet with a thick, toxic atmosphere.",
		RealDistance: "108.2 million km", RealPeriod: "225 days",
		Effects: []EffectConfig{
			{Name: "atmosphere", Kind: "atmosphere", Rate: orbit.RetrogradeVenusRate, Axis: "y"},
		},
	}
}

func earth() BodyConfig {
	return BodyConfig{
		Name: "Earth", Radius: 1.0, RealisticRadius: 0.25, Distance: 30, Speed: 2.98, RotationSpeed: 0.02, Days: 365,
		Color: "#6b93d6", Info: "Our home planet, the only known planet with life.",
		RealDistance: "149.6 million km", RealPeriod: "365 days",
		Effects: []EffectConfig{
			{Name: "atmosphere", Kind: "atmosphere", Axis: "y"},
			{Name: "clouds", Kind: "clouds", Rate: orbit.CloudRate, Axis: "y"},
		},
	}
}

func mars() BodyConfig {
	return BodyConfig{
		Name: "Mars", Radius: 0.53, RealisticRadius: 0.15, Distance: 45, Speed: 2.41, RotationSpeed: 0.018, Days: 687,
		Color: "#cd5c5c", Info: "The Red Planet, with the largest volcano in the solar system.",
		RealDistance: "227.9 million km", RealPeriod: "687 days",
		Effects: []EffectConfig{
			{Name: "dust", Kind: "dust", Rate: orbit.DustSpinRate, Axis: "y"},
			{Name: "dust", Kind: "dust", Rate: orbit.DustTumbleRate, Axis: "x"},
		},
	}
}

func jupiter() BodyConfig {
	return BodyConfig{
		Name: "Jupiter", Radius: 2.5, RealisticRadius: 2.8, Distance: 70, Speed: 1.31, RotationSpeed: 0.04, Days: 4333,
		Color: "#d8ca9d", Info: "The largest planet, a gas giant with over 80 moons.",
		RealDistance: "778.5 million km", RealPeriod: "12 years",
		Effects: []EffectConfig{
			{Name: "glow", Kind: "glow", Axis: "y"},
			{Name: "storm", Kind: "storm", Rate: orbit.StormRate, Axis: "y"},
		},
	}
}

func saturn() BodyConfig {
	b := BodyConfig{
		Name: "Saturn", Radius: 2.1, RealisticRadius: 2.3, Distance: 95, Speed: 0.97, RotationSpeed: 0.038, Days: 10759,
		Color: "#fad5a5", Info: "Famous for its prominent ring system.",
		RealDistance: "1.43 billion km", RealPeriod: "29 years",
	}
	for _, r := range orbit.RingEffects(4) {
		b.Effects = append(b.Effects, EffectConfig{Name: r.Name, Kind: r.Kind.String(), Rate: r.Rate, Axis: r.Axis.String()})
	}
	return b
}

func uranus() BodyConfig {
	return BodyConfig{
		Name: "Uranus", Radius: 1.6, RealisticRadius: 1.0, Distance: 120, Speed: 0.68, RotationSpeed: 0.03, Days: 30687,
		Color: "#4fd0e7", Info: "An ice giant that rotates on its side.",
		RealDistance: "2.87 billion km", RealPeriod: "84 years",
	}
}

func neptune() BodyConfig {
	return BodyConfig{
		Name: "Neptune", Radius: 1.5, RealisticRadius: 0.95, Distance: 150, Speed: 0.54, RotationSpeed: 0.032, Days: 60190,
		Color: "#4b70dd", Info: "The windiest planet with speeds up to 2,100 km/h.",
		RealDistance: "4.50 billion km", RealPeriod: "165 years",
	}
}

func solarBodies() []BodyConfig {
	return []BodyConfig{mercury(), venus(), earth(), mars(), jupiter(), saturn(), uranus(), neptune()}
}

// Presets build fresh body tables so callers may mutate what they get.
var Presets = map[string]func() []BodyConfig{
	"solar":  solarBodies,
	"inner":  func() []BodyConfig { return []BodyConfig{mercury(), venus(), earth(), mars()} },
	"giants": func() []BodyConfig { return []BodyConfig{jupiter(), saturn(), uranus(), neptune()} },
}

// GetPreset returns the default config with the named preset's bodies, or
// nil when no such preset exists.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Preset = name
	cfg.Bodies = build()
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
