// Package quality trades rendering cost for frame rate. It counts rendered
// frames in fixed windows and lowers the pixel ratio or switches trails off
// when the rate drops.
package quality

import (
	"math"
	"time"
)

// Config sets the control-loop thresholds. RestoreAbove must stay well above
// DowngradeBelow so the ratio does not oscillate.
type Config struct {
	Window             time.Duration `yaml:"window"`
	DowngradeBelow     int           `yaml:"downgrade_below"`
	RestoreAbove       int           `yaml:"restore_above"`
	DisableTrailsBelow int           `yaml:"disable_trails_below"`
	TrailFPSFloor      int           `yaml:"trail_fps_floor"`
	DevicePixelRatio   float64       `yaml:"device_pixel_ratio"`
	MaxPixelRatio      float64       `yaml:"max_pixel_ratio"`
	InitialFPS         int           `yaml:"initial_fps"`
}

func DefaultConfig() Config {
	return Config{
		Window:             time.Second,
		DowngradeBelow:     30,
		RestoreAbove:       50,
		DisableTrailsBelow: 25,
		TrailFPSFloor:      30,
		DevicePixelRatio:   2,
		MaxPixelRatio:      2,
		InitialFPS:         60,
	}
}

// Decision reports what one Sample call changed.
type Decision struct {
	// WindowClosed is true when this sample ended a measurement window and
	// FPS holds a fresh reading.
	WindowClosed      bool
	FPS               int
	PixelRatio        float64
	PixelRatioChanged bool
	TrailsEnabled     bool
	TrailsDisabled    bool
}

// Controller is the frame-rate control loop. It is not safe for concurrent
// use.
type Controller struct {
	cfg           Config
	pixelRatio    float64
	trailsEnabled bool
	frameCount    int
	windowStart   time.Time
	started       bool
	fps           int
}

// New returns a controller at full quality with trails enabled.
func New(cfg Config) *Controller {
	c := &Controller{cfg: cfg, trailsEnabled: true, fps: cfg.InitialFPS}
	c.pixelRatio = c.DeviceCap()
	return c
}

// DeviceCap is the highest pixel ratio the controller will restore to.
func (c *Controller) DeviceCap() float64 {
	dpr := c.cfg.DevicePixelRatio
	if dpr <= 0 {
		dpr = 1
	}
	if c.cfg.MaxPixelRatio > 0 {
		dpr = math.Min(dpr, c.cfg.MaxPixelRatio)
	}
	return dpr
}

// Sample records one host frame at now. The first call opens the first
// window.
func (c *Controller) Sample(now time.Time, rendered bool) Decision {
	if !c.started {
		c.started = true
		c.windowStart = now
	}
	if rendered {
		c.frameCount++
	}

	d := Decision{FPS: c.fps, PixelRatio: c.pixelRatio, TrailsEnabled: c.trailsEnabled}
	if now.Sub(c.windowStart) <= c.cfg.Window {
		return d
	}

	c.fps = c.frameCount
	c.frameCount = 0
	c.windowStart = now

	d.WindowClosed = true
	d.FPS = c.fps
	c.adapt(&d)
	return d
}

func (c *Controller) adapt(d *Decision) {
	if c.fps < c.cfg.DowngradeBelow && c.pixelRatio > 1 {
		c.pixelRatio = 1
		d.PixelRatioChanged = true
	} else if c.fps > c.cfg.RestoreAbove && c.pixelRatio < c.DeviceCap() {
		c.pixelRatio = c.DeviceCap()
		d.PixelRatioChanged = true
	}

	// One-way: only the user turns trails back on.
	if c.fps < c.cfg.DisableTrailsBelow && c.trailsEnabled {
		c.trailsEnabled = false
		d.TrailsDisabled = true
	}

	d.PixelRatio = c.pixelRatio
	d.TrailsEnabled = c.trailsEnabled
}

// FPS returns the last measured rate, or InitialFPS before the first window
// closes.
func (c *Controller) FPS() int { return c.fps }

func (c *Controller) PixelRatio() float64 { return c.pixelRatio }

func (c *Controller) TrailsEnabled() bool { return c.trailsEnabled }

// SetTrailsEnabled applies a user toggle.
func (c *Controller) SetTrailsEnabled(on bool) { c.trailsEnabled = on }

// TrailsAllowed reports whether trails should be recorded this frame.
func (c *Controller) TrailsAllowed() bool {
	return c.trailsEnabled && c.fps > c.cfg.TrailFPSFloor
}

// SetDevicePixelRatio updates the device ratio, for example after the host
// window moves to another display. The current ratio is clamped to the new
// cap.
func (c *Controller) SetDevicePixelRatio(dpr float64) {
	c.cfg.DevicePixelRatio = dpr
	if c.pixelRatio > c.DeviceCap() {
		c.pixelRatio = c.DeviceCap()
	}
}
