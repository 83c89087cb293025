package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/orrery/internal/orbit"
	"github.com/san-kum/orrery/internal/picking"
	"github.com/san-kum/orrery/internal/scene"
)

// SetGlobalSpeedScale sets the multiplier applied to every body's motion.
// Zero freezes motion without pausing.
func (s *Simulation) SetGlobalSpeedScale(scale float64) error {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale < 0 {
		err := orbit.Errorf("sim.SetGlobalSpeedScale", orbit.ErrValidation, "scale must be finite and non-negative, got %v", scale)
		s.notify("global_speed", err)
		return err
	}
	s.globalSpeed = scale
	s.notify("global_speed", nil)
	return nil
}

func (s *Simulation) GlobalSpeedScale() float64 { return s.globalSpeed }

// SetPlayback starts or pauses the loop. Under the reset resume policy the
// clock is rebased on resume so the paused interval is skipped.
func (s *Simulation) SetPlayback(playing bool) {
	if playing && !s.playing && s.resumeReset {
		s.clock.Rebase()
	}
	s.playing = playing
	s.notify("playback", nil)
}

// TogglePlayback flips playback and returns the new state.
func (s *Simulation) TogglePlayback() bool {
	s.SetPlayback(!s.playing)
	return s.playing
}

func (s *Simulation) Playing() bool { return s.playing }

// SetPlanetManualMultiplier sets a body's speed to its base speed times m.
// The result is not clamped.
func (s *Simulation) SetPlanetManualMultiplier(index int, m float64) error {
	b, err := s.registry.Get(index)
	if err == nil && (math.IsNaN(m) || math.IsInf(m, 0)) {
		err = orbit.Errorf("sim.SetPlanetManualMultiplier", orbit.ErrValidation, "multiplier must be finite, got %v", m)
	}
	if err != nil {
		s.notify("manual_multiplier", err)
		return err
	}
	b.Speed = b.BaseSpeed * m
	s.notify("manual_multiplier", nil)
	return nil
}

// SetPlanetOrbitalPeriod makes body index complete one orbit per unit at
// global speed 1 and returns the speed applied. When the unit or the body's
// period is invalid the error is logged, the default multiplier is applied
// instead, and the resulting speed is returned with the error.
func (s *Simulation) SetPlanetOrbitalPeriod(index int, unit string) (float64, error) {
	b, err := s.registry.Get(index)
	if err != nil {
		s.notify("orbital_period", err)
		return 0, err
	}
	speed, err := s.orbitalPeriod(b, unit)
	s.notify("orbital_period", err)
	return speed, err
}

// orbitalPeriod applies one orbit per unit to b and returns b's new speed.
func (s *Simulation) orbitalPeriod(b *orbit.Body, unit string) (float64, error) {
	speed, err := s.periodSpeed(b, unit)
	if err != nil {
		s.log.Warn("%s: %v; falling back to %.1fx", b.Name, err, orbit.DefaultSpeed)
		b.Speed = b.BaseSpeed * orbit.DefaultSpeed
		return b.Speed, err
	}
	b.Speed = speed
	s.log.Debug("%s: one orbit per %s, speed %.6f", b.Name, unit, speed)
	return b.Speed, nil
}

func (s *Simulation) periodSpeed(b *orbit.Body, unit string) (float64, error) {
	secs, err := s.units.Seconds(unit)
	if err != nil {
		return 0, err
	}
	return orbit.SpeedFor(b.OrbitalPeriodDays, secs)
}

func (s *Simulation) ToggleOrbits(on bool) {
	s.display.Orbits = on
	s.renderer.SetLayerVisible(scene.LayerOrbits, on)
	s.notify("orbits", nil)
}

func (s *Simulation) ToggleLabels(on bool) {
	s.display.Labels = on
	s.renderer.SetLayerVisible(scene.LayerLabels, on)
	s.notify("labels", nil)
}

func (s *Simulation) ToggleStars(on bool) {
	s.display.Stars = on
	s.renderer.SetLayerVisible(scene.LayerStars, on)
	s.notify("stars", nil)
}

// ToggleTrails is the user's trail switch. Switching off clears every trail;
// switching on starts them empty.
func (s *Simulation) ToggleTrails(on bool) {
	s.quality.SetTrailsEnabled(on)
	s.trails.ClearAll()
	s.renderer.SetLayerVisible(scene.LayerTrails, on)
	s.pushTrails()
	s.notify("trails", nil)
}

// ToggleRealisticSizes swaps every body and the star between scaled and
// realistic radii. Picking follows immediately.
func (s *Simulation) ToggleRealisticSizes(on bool) {
	s.display.RealisticSizes = on
	s.picker.SetRealisticSizes(on)
	s.applySizes()
	s.notify("realistic_sizes", nil)
}

// Reset gives every body a fresh random phase, restores base speeds and sets
// the global and camera speeds back to 1.
func (s *Simulation) Reset() {
	s.registry.Reset(s.rng)
	s.globalSpeed = 1
	s.cameraSpeed = 1
	s.controls.SetSpeed(1)
	s.trails.ClearAll()
	s.push()
	s.pushTrails()
	s.log.Info("reset")
	s.notify("reset", nil)
}

// SetCameraSpeed forwards a camera rotation speed to the controls.
func (s *Simulation) SetCameraSpeed(speed float64) error {
	if math.IsNaN(speed) || math.IsInf(speed, 0) || speed <= 0 {
		err := orbit.Errorf("sim.SetCameraSpeed", orbit.ErrValidation, "camera speed must be positive, got %v", speed)
		s.notify("camera_speed", err)
		return err
	}
	s.cameraSpeed = speed
	s.controls.SetSpeed(speed)
	s.notify("camera_speed", nil)
	return nil
}

// Pick updates the hover state from a pointer at ndc.
func (s *Simulation) Pick(ndc mgl64.Vec2) picking.HoverResult {
	r := s.picker.Pick(ndc, s.registry.Bodies())
	if r.Changed {
		s.notify("hover", nil)
	}
	return r
}

// ClearHover drops the hover when the pointer leaves the view.
func (s *Simulation) ClearHover() { s.picker.Clear() }

// Activate focuses the camera on the hovered body, if any.
func (s *Simulation) Activate() (picking.FocusRequest, bool) {
	req, ok := s.picker.Activate()
	if ok {
		s.log.Debug("focus %s", req.Body.Name)
		s.notify("focus", nil)
	}
	return req, ok
}
