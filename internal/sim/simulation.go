package sim

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/orrery/internal/config"
	"github.com/san-kum/orrery/internal/logging"
	"github.com/san-kum/orrery/internal/orbit"
	"github.com/san-kum/orrery/internal/picking"
	"github.com/san-kum/orrery/internal/quality"
	"github.com/san-kum/orrery/internal/scene"
	"github.com/san-kum/orrery/internal/timeunit"
	"github.com/san-kum/orrery/internal/trail"
	"golang.org/x/time/rate"
)

// FrameReport describes what one Frame did.
type FrameReport struct {
	Quality        quality.Decision
	Ticked         bool
	Delta          float64
	TrailsRecorded bool
}

// Observer is notified after every frame and every command.
type Observer interface {
	OnFrame(r FrameReport)
	OnCommand(name string, err error)
}

// Display holds the visibility toggles.
type Display struct {
	Orbits         bool `json:"orbits"`
	Labels         bool `json:"labels"`
	Stars          bool `json:"stars"`
	RealisticSizes bool `json:"realistic_sizes"`
}

// Simulation is the single context object behind a running orrery. Its
// methods are not safe for concurrent use; goroutines other than the loop
// owner go through Do.
type Simulation struct {
	mu sync.Mutex

	registry *orbit.Registry
	units    timeunit.Table
	clock    *Clock
	trails   *trail.Store
	quality  *quality.Controller
	picker   *picking.Picker

	renderer        scene.Renderer
	controls        scene.CameraControls
	controlsFactory func() (scene.CameraControls, error)
	hover           scene.HoverListener
	observers       []Observer
	log             *logging.Logger
	rng             *rand.Rand
	now             func() time.Time

	playing      bool
	resumeReset  bool
	globalSpeed  float64
	cameraSpeed  float64
	display      Display
	starRotation float64
	shaderTime   float64
	ticks        uint64
	frames       uint64
	stopped      bool
}

type Option func(*Simulation)

func WithRenderer(r scene.Renderer) Option { return func(s *Simulation) { s.renderer = r } }

// WithCameraControls supplies a factory for the camera controls. A failing
// factory leaves the simulation with inert controls.
func WithCameraControls(factory func() (scene.CameraControls, error)) Option {
	return func(s *Simulation) { s.controlsFactory = factory }
}

func WithHoverListener(h scene.HoverListener) Option { return func(s *Simulation) { s.hover = h } }
func WithLogger(l *logging.Logger) Option            { return func(s *Simulation) { s.log = l } }
func WithObserver(o Observer) Option                 { return func(s *Simulation) { s.observers = append(s.observers, o) } }
func WithRand(r *rand.Rand) Option                   { return func(s *Simulation) { s.rng = r } }

// WithTimeSource replaces time.Now for Run and for clock rebasing.
func WithTimeSource(now func() time.Time) Option { return func(s *Simulation) { s.now = now } }

// New builds a simulation from cfg. Any configuration problem, including an
// invalid time-unit table, is returned and nothing starts.
func New(cfg *config.Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	units, err := cfg.Units()
	if err != nil {
		return nil, err
	}
	bodies, err := cfg.BuildBodies()
	if err != nil {
		return nil, err
	}
	registry, err := orbit.NewRegistry(bodies)
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		registry:    registry,
		units:       units,
		renderer:    scene.NopRenderer{},
		log:         logging.Discard(),
		now:         time.Now,
		playing:     !cfg.StartPaused,
		resumeReset: cfg.ResumeResets(),
		globalSpeed: 1,
		cameraSpeed: cfg.Camera.Speed,
		display: Display{
			Orbits:         cfg.Display.Orbits,
			Labels:         cfg.Display.Labels,
			Stars:          cfg.Display.Stars,
			RealisticSizes: cfg.Display.RealisticSizes,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log.Debug("time units validated: %s", units)

	if s.rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		s.rng = rand.New(rand.NewSource(seed))
	}
	if s.cameraSpeed <= 0 {
		s.cameraSpeed = 1
	}

	s.controls, _ = scene.NewCameraControls(s.controlsFactory, s.log)
	s.controls.SetSpeed(s.cameraSpeed)

	s.clock = NewClock(s.now)
	s.trails = trail.NewStore(registry.Len(), cfg.TrailLength)
	s.quality = quality.New(cfg.Quality)
	s.quality.SetTrailsEnabled(cfg.Display.Trails)

	cam := picking.DefaultCamera(cfg.Camera.Aspect)
	cam.Eye = mgl64.Vec3(cfg.Camera.Eye)
	if cfg.Camera.FovY > 0 {
		cam.FovY = cfg.Camera.FovY
	}
	if cfg.Camera.Near > 0 && cfg.Camera.Far > cfg.Camera.Near {
		cam.Near, cam.Far = cfg.Camera.Near, cfg.Camera.Far
	}
	s.picker = picking.New(cam, s.controls, s.hover)
	s.picker.SetRealisticSizes(s.display.RealisticSizes)

	registry.Randomize(s.rng)
	if cfg.InitialUnit != "" {
		for _, b := range registry.Bodies() {
			// failures are logged and leave the default multiplier
			s.orbitalPeriod(b, cfg.InitialUnit)
		}
	}

	s.renderer.SetPixelRatio(s.quality.PixelRatio())
	s.renderer.SetLayerVisible(scene.LayerOrbits, s.display.Orbits)
	s.renderer.SetLayerVisible(scene.LayerLabels, s.display.Labels)
	s.renderer.SetLayerVisible(scene.LayerStars, s.display.Stars)
	s.renderer.SetLayerVisible(scene.LayerTrails, s.quality.TrailsEnabled())
	s.applySizes()
	s.push()

	s.log.Info("simulation ready: %d bodies, seed %d", registry.Len(), cfg.Seed)
	return s, nil
}

// Frame runs one host refresh at now: quality sampling, then, when playing,
// a clock read, a tick and trail recording, then the camera update.
func (s *Simulation) Frame(now time.Time) FrameReport {
	if s.stopped {
		return FrameReport{}
	}
	s.frames++

	d := s.quality.Sample(now, true)
	r := FrameReport{Quality: d}
	if d.PixelRatioChanged {
		s.renderer.SetPixelRatio(d.PixelRatio)
		s.log.Info("fps %d: pixel ratio now %.1f", d.FPS, d.PixelRatio)
	}
	if d.TrailsDisabled {
		s.trails.ClearAll()
		s.renderer.SetLayerVisible(scene.LayerTrails, false)
		s.log.Info("fps %d: trails disabled", d.FPS)
	}

	if s.playing {
		delta, elapsed := s.clock.Read(now)
		s.Tick(delta, elapsed)
		r.Ticked, r.Delta = true, delta

		if s.quality.TrailsAllowed() {
			for _, b := range s.registry.Bodies() {
				_ = s.trails.Record(b.Index, b.Position())
			}
			r.TrailsRecorded = true
			s.pushTrails()
		}
	}

	s.controls.Update()

	for _, o := range s.observers {
		o.OnFrame(r)
	}
	return r
}

// Tick advances every body, the star and the shader clock by delta seconds
// at the current global speed, then pushes transforms to the renderer.
func (s *Simulation) Tick(delta, elapsed float64) {
	g := s.globalSpeed
	for _, b := range s.registry.Bodies() {
		b.Advance(g, delta)
	}
	s.starRotation += orbit.StarRotationRate * g * delta * orbit.RotationPacing
	s.shaderTime = elapsed * g
	s.ticks++
	s.push()
}

func (s *Simulation) push() {
	for _, b := range s.registry.Bodies() {
		s.renderer.SetBodyTransform(b.Index, b.Position(), b.Rotation)
		for i, e := range b.Effects {
			s.renderer.SetEffectRotation(b.Index, i, e.Axis, e.Rotation)
		}
	}
	s.renderer.SetStarRotation(s.starRotation)
	s.renderer.SetShaderTime(s.shaderTime)
}

func (s *Simulation) pushTrails() {
	for _, b := range s.registry.Bodies() {
		points, _ := s.trails.Snapshot(b.Index)
		s.renderer.SetTrail(b.Index, points)
	}
}

func (s *Simulation) applySizes() {
	realistic := s.display.RealisticSizes
	for _, b := range s.registry.Bodies() {
		s.renderer.SetBodyRadius(b.Index, b.DisplayRadius(realistic))
	}
	s.renderer.SetStarRadius(StarRadius(realistic))
}

// StarRadius returns the star's rendered radius for the size mode.
func StarRadius(realistic bool) float64 {
	if realistic {
		return orbit.StarRealisticRadius
	}
	return orbit.StarRadius
}

// Run calls Frame at up to fps frames per second until ctx is cancelled or
// Stop is called. Each frame holds the simulation lock.
func (s *Simulation) Run(ctx context.Context, fps int) error {
	if fps <= 0 {
		fps = config.DefaultFPS
	}
	limiter := rate.NewLimiter(rate.Limit(fps), 1)

	for {
		// Wait also fails early when the next frame would land past the
		// deadline.
		if err := limiter.Wait(ctx); err != nil {
			<-ctx.Done()
			return ctx.Err()
		}

		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return nil
		}
		s.Frame(s.now())
		s.mu.Unlock()
	}
}

// Do runs fn with the simulation lock held.
func (s *Simulation) Do(fn func(*Simulation)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// Stop disposes the simulation. Later frames are no-ops and Run returns.
// Stop takes the lock, so it must not be called from inside Do.
func (s *Simulation) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.trails.ClearAll()
	s.log.Info("simulation stopped after %d frames", s.frames)
}

// Stopped reports whether Stop has been called.
func (s *Simulation) Stopped() bool { return s.stopped }

// Bodies exposes the registry's bodies. Callers must not retain them across
// goroutines without Do.
func (s *Simulation) Bodies() []*orbit.Body { return s.registry.Bodies() }

func (s *Simulation) Units() timeunit.Table { return s.units }

func (s *Simulation) Camera() picking.Camera { return s.picker.Camera() }

// SetCamera mirrors a host camera change (resize, orbit drag) for picking.
func (s *Simulation) SetCamera(c picking.Camera) { s.picker.SetCamera(c) }

// Trail returns a copy of one body's trail.
func (s *Simulation) Trail(index int) ([]mgl64.Vec3, error) { return s.trails.Snapshot(index) }

func (s *Simulation) notify(name string, err error) {
	for _, o := range s.observers {
		o.OnCommand(name, err)
	}
}
