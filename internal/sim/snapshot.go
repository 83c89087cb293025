package sim

import "github.com/go-gl/mathgl/mgl64"

// BodyState is a copy of one body's observable state.
type BodyState struct {
	Index        int        `json:"index"`
	Name         string     `json:"name"`
	Angle        float64    `json:"angle"`
	Phase        float64    `json:"phase"`
	Position     mgl64.Vec3 `json:"position"`
	Speed        float64    `json:"speed"`
	BaseSpeed    float64    `json:"base_speed"`
	Rotation     float64    `json:"rotation"`
	Distance     float64    `json:"distance"`
	Radius       float64    `json:"radius"`
	Color        string     `json:"color"`
	Info         string     `json:"info,omitempty"`
	RealDistance string     `json:"real_distance,omitempty"`
	RealPeriod   string     `json:"real_period,omitempty"`
}

// Snapshot is an immutable view for adapters and recorders.
type Snapshot struct {
	Playing       bool        `json:"playing"`
	GlobalSpeed   float64     `json:"global_speed"`
	CameraSpeed   float64     `json:"camera_speed"`
	FPS           int         `json:"fps"`
	PixelRatio    float64     `json:"pixel_ratio"`
	TrailsEnabled bool        `json:"trails_enabled"`
	Display       Display     `json:"display"`
	StarRotation  float64     `json:"star_rotation"`
	StarRadius    float64     `json:"star_radius"`
	ShaderTime    float64     `json:"shader_time"`
	Elapsed       float64     `json:"elapsed"`
	Ticks         uint64      `json:"ticks"`
	Frames        uint64      `json:"frames"`
	Hovered       string      `json:"hovered,omitempty"`
	Bodies        []BodyState `json:"bodies"`
}

func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		Playing:       s.playing,
		GlobalSpeed:   s.globalSpeed,
		CameraSpeed:   s.cameraSpeed,
		FPS:           s.quality.FPS(),
		PixelRatio:    s.quality.PixelRatio(),
		TrailsEnabled: s.quality.TrailsEnabled(),
		Display:       s.display,
		StarRotation:  s.starRotation,
		StarRadius:    StarRadius(s.display.RealisticSizes),
		ShaderTime:    s.shaderTime,
		Elapsed:       s.clock.Elapsed(),
		Ticks:         s.ticks,
		Frames:        s.frames,
		Bodies:        make([]BodyState, 0, s.registry.Len()),
	}
	if h := s.picker.Hovered(); h != nil {
		snap.Hovered = h.Name
	}
	for _, b := range s.registry.Bodies() {
		snap.Bodies = append(snap.Bodies, BodyState{
			Index:        b.Index,
			Name:         b.Name,
			Angle:        b.Angle,
			Phase:        b.Phase(),
			Position:     b.Position(),
			Speed:        b.Speed,
			BaseSpeed:    b.BaseSpeed,
			Rotation:     b.Rotation,
			Distance:     b.Distance,
			Radius:       b.DisplayRadius(s.display.RealisticSizes),
			Color:        b.Color,
			Info:         b.Info,
			RealDistance: b.RealDistance,
			RealPeriod:   b.RealPeriod,
		})
	}
	return snap
}

// Body returns the state of one body by name.
func (snap Snapshot) Body(name string) (BodyState, bool) {
	for _, b := range snap.Bodies {
		if b.Name == name {
			return b, true
		}
	}
	return BodyState{}, false
}
