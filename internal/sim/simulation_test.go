package sim_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/orrery/internal/config"
	"github.com/san-kum/orrery/internal/logging"
	"github.com/san-kum/orrery/internal/orbit"
	"github.com/san-kum/orrery/internal/scene"
	"github.com/san-kum/orrery/internal/sim"
	"github.com/san-kum/orrery/internal/timeunit"
	"github.com/san-kum/orrery/internal/trail"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type recordingRenderer struct {
	scene.NopRenderer
	layers     map[scene.Layer]bool
	radii      map[int]float64
	starRadius float64
	pixelRatio float64
	positions  map[int]mgl64.Vec3
	trails     map[int]int
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{
		layers:    map[scene.Layer]bool{},
		radii:     map[int]float64{},
		positions: map[int]mgl64.Vec3{},
		trails:    map[int]int{},
	}
}

func (r *recordingRenderer) SetLayerVisible(l scene.Layer, v bool) { r.layers[l] = v }
func (r *recordingRenderer) SetBodyRadius(i int, radius float64)   { r.radii[i] = radius }
func (r *recordingRenderer) SetStarRadius(radius float64)          { r.starRadius = radius }
func (r *recordingRenderer) SetPixelRatio(ratio float64)           { r.pixelRatio = ratio }
func (r *recordingRenderer) SetTrail(i int, pts []mgl64.Vec3)      { r.trails[i] = len(pts) }
func (r *recordingRenderer) SetBodyTransform(i int, p mgl64.Vec3, _ float64) {
	r.positions[i] = p
}

type countingObserver struct {
	frames   int
	commands map[string]int
	failures int
}

func (c *countingObserver) OnFrame(sim.FrameReport) { c.frames++ }
func (c *countingObserver) OnCommand(name string, err error) {
	if c.commands == nil {
		c.commands = map[string]int{}
	}
	c.commands[name]++
	if err != nil {
		c.failures++
	}
}

type speedControls struct{ speed float64 }

func (c *speedControls) Focus(mgl64.Vec3, mgl64.Vec3) {}
func (c *speedControls) SetSpeed(s float64)           { c.speed = s }
func (c *speedControls) Update()                      {}

// frames drives n frames spaced step apart, starting at start, and returns
// the time of the last one.
func frames(s *sim.Simulation, start time.Time, n int, step time.Duration) time.Time {
	t := start
	for i := 0; i < n; i++ {
		t = start.Add(time.Duration(i) * step)
		s.Frame(t)
	}
	return t
}

var _ = Describe("Simulation", func() {
	var (
		cfg      *config.Config
		s        *sim.Simulation
		renderer *recordingRenderer
		observer *countingObserver
		controls *speedControls
		now      time.Time
	)

	build := func() {
		var err error
		s, err = sim.New(cfg,
			sim.WithRenderer(renderer),
			sim.WithObserver(observer),
			sim.WithRand(rand.New(rand.NewSource(7))),
			sim.WithTimeSource(func() time.Time { return now }),
			sim.WithCameraControls(func() (scene.CameraControls, error) { return controls, nil }),
		)
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		cfg = config.DefaultConfig()
		renderer = newRecordingRenderer()
		observer = &countingObserver{}
		controls = &speedControls{}
		now = epoch
		build()
	})

	Describe("construction", func() {
		It("rejects a time-unit table missing a required unit", func() {
			delete(cfg.TimeUnits, timeunit.Month)
			_, err := sim.New(cfg)
			Expect(errors.Is(err, orbit.ErrConfiguration)).To(BeTrue())
		})

		It("rejects a non-positive unit length", func() {
			cfg.TimeUnits[timeunit.Day] = 0
			_, err := sim.New(cfg)
			Expect(errors.Is(err, orbit.ErrConfiguration)).To(BeTrue())
		})

		It("falls back to inert camera controls when the factory fails", func() {
			fallback, err := sim.New(cfg, sim.WithCameraControls(func() (scene.CameraControls, error) {
				return nil, errors.New("no canvas")
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(fallback.SetCameraSpeed(2)).To(Succeed())
			fallback.Frame(epoch)
		})

		It("places every body at a phase in [0, 2pi) at one orbit per year", func() {
			year, err := s.Units().Seconds(timeunit.Year)
			Expect(err).NotTo(HaveOccurred())
			for _, b := range s.Bodies() {
				Expect(b.Phase()).To(BeNumerically(">=", 0))
				Expect(b.Phase()).To(BeNumerically("<", 2*math.Pi))
				want, err := orbit.SpeedFor(b.OrbitalPeriodDays, year)
				Expect(err).NotTo(HaveOccurred())
				Expect(b.Speed).To(Equal(want))
			}
			Expect(s.Bodies()[0].Speed).To(BeNumerically("~", 0.000482, 1e-6))
			Expect(observer.failures).To(BeZero())
		})

		It("keeps base speeds when no initial unit is set", func() {
			cfg.InitialUnit = ""
			build()
			for _, b := range s.Bodies() {
				Expect(b.Speed).To(Equal(b.BaseSpeed))
			}
		})

		It("logs under the component name the host chose", func() {
			var buf bytes.Buffer
			root := logging.New(logging.LevelWarn)
			root.SetOutput(&buf)
			cfg.InitialUnit = "fortnight"
			_, err := sim.New(cfg, sim.WithLogger(root.Named("sim")))
			Expect(err).NotTo(HaveOccurred())

			Expect(buf.String()).To(ContainSubstring("] sim: Mercury"))
			Expect(strings.Contains(buf.String(), "sim.sim")).To(BeFalse())
		})

		It("starts at the default multiplier when the initial unit is unknown", func() {
			cfg.InitialUnit = "fortnight"
			build()
			for _, b := range s.Bodies() {
				Expect(b.Speed).To(Equal(b.BaseSpeed * orbit.DefaultSpeed))
			}
		})

		It("publishes initial visibility and sizes", func() {
			Expect(renderer.layers[scene.LayerOrbits]).To(BeTrue())
			Expect(renderer.layers[scene.LayerTrails]).To(BeTrue())
			Expect(renderer.starRadius).To(Equal(orbit.StarRadius))
			Expect(renderer.pixelRatio).To(Equal(2.0))
			Expect(controls.speed).To(Equal(1.0))
		})
	})

	Describe("ticking", func() {
		It("advances angle and rotation in closed form", func() {
			earth := s.Bodies()[2]
			angle, rotation := earth.Angle, earth.Rotation
			Expect(s.SetGlobalSpeedScale(2.5)).To(Succeed())

			s.Tick(0.016, 1)

			Expect(earth.Angle - angle).To(BeNumerically("~", earth.Speed*2.5*0.016*orbit.OrbitPacing, 1e-12))
			Expect(earth.Rotation - rotation).To(BeNumerically("~", earth.RotationSpeed*2.5*0.016*orbit.RotationPacing, 1e-12))
			Expect(s.Snapshot().ShaderTime).To(BeNumerically("~", 2.5, 1e-12))
			Expect(renderer.positions[2]).To(Equal(earth.Position()))
		})

		It("advances effects from the table", func() {
			saturn := s.Bodies()[5]
			s.Tick(1, 1)
			for i, e := range saturn.Effects {
				want := (orbit.RingBaseRate + float64(i)*orbit.RingRateStep) * orbit.RotationPacing
				Expect(e.Rotation).To(BeNumerically("~", want, 1e-12))
			}
			Expect(s.Snapshot().StarRotation).To(BeNumerically("~", orbit.StarRotationRate*orbit.RotationPacing, 1e-12))
		})

		It("keeps bodies on their circles", func() {
			frames(s, epoch, 120, 16*time.Millisecond)
			for _, b := range s.Bodies() {
				Expect(b.Position().Len()).To(BeNumerically("~", b.Distance, 1e-9))
				Expect(b.Position().Y()).To(Equal(0.0))
			}
		})

		It("moves nothing while paused", func() {
			s.SetPlayback(false)
			before := s.Snapshot()
			frames(s, epoch, 30, 16*time.Millisecond)
			after := s.Snapshot()
			Expect(after.Ticks).To(Equal(before.Ticks))
			for i := range before.Bodies {
				Expect(after.Bodies[i].Angle).To(Equal(before.Bodies[i].Angle))
			}
		})
	})

	Describe("resume", func() {
		pauseAndResume := func() float64 {
			s.Frame(epoch)
			s.Frame(epoch.Add(16 * time.Millisecond))
			s.SetPlayback(false)
			s.Frame(epoch.Add(5 * time.Second))
			now = epoch.Add(5 * time.Second)
			Expect(s.TogglePlayback()).To(BeTrue())
			return s.Frame(epoch.Add(5*time.Second + 16*time.Millisecond)).Delta
		}

		It("carries the paused interval into the next delta by default", func() {
			Expect(pauseAndResume()).To(BeNumerically("~", 5.0, 1e-9))
		})

		It("skips the paused interval under the reset policy", func() {
			cfg.ResumePolicy = config.ResumeReset
			build()
			Expect(pauseAndResume()).To(BeNumerically("~", 0.016, 1e-9))
		})
	})

	Describe("speed commands", func() {
		It("sets Mercury to one orbit per year", func() {
			speed, err := s.SetPlanetOrbitalPeriod(0, timeunit.Year)
			Expect(err).NotTo(HaveOccurred())
			Expect(speed).To(BeNumerically("~", 0.000482, 1e-6))
			Expect(s.Bodies()[0].Speed).To(Equal(speed))
		})

		It("clamps fast periods", func() {
			speed, err := s.SetPlanetOrbitalPeriod(7, timeunit.Second)
			Expect(err).NotTo(HaveOccurred())
			Expect(speed).To(Equal(orbit.MaxSpeed))
		})

		It("falls back to the default multiplier on an unknown unit", func() {
			mars := s.Bodies()[3]
			Expect(s.SetPlanetManualMultiplier(3, 4)).To(Succeed())

			speed, err := s.SetPlanetOrbitalPeriod(3, "fortnight")
			Expect(errors.Is(err, orbit.ErrValidation)).To(BeTrue())
			Expect(mars.Speed).To(Equal(mars.BaseSpeed * orbit.DefaultSpeed))
			Expect(speed).To(Equal(mars.Speed))
			Expect(observer.failures).To(Equal(1))
		})

		It("rejects an out-of-range body index", func() {
			_, err := s.SetPlanetOrbitalPeriod(99, timeunit.Day)
			Expect(errors.Is(err, orbit.ErrValidation)).To(BeTrue())
			Expect(errors.Is(s.SetPlanetManualMultiplier(-1, 2), orbit.ErrValidation)).To(BeTrue())
		})

		It("does not clamp manual multipliers", func() {
			Expect(s.SetPlanetManualMultiplier(0, 5)).To(Succeed())
			Expect(s.Bodies()[0].Speed).To(BeNumerically("~", 4.74*5, 1e-12))
		})

		It("validates global and camera speeds", func() {
			Expect(errors.Is(s.SetGlobalSpeedScale(math.NaN()), orbit.ErrValidation)).To(BeTrue())
			Expect(errors.Is(s.SetGlobalSpeedScale(-1), orbit.ErrValidation)).To(BeTrue())
			Expect(s.SetGlobalSpeedScale(0)).To(Succeed())
			Expect(errors.Is(s.SetCameraSpeed(0), orbit.ErrValidation)).To(BeTrue())
			Expect(s.SetCameraSpeed(3)).To(Succeed())
			Expect(controls.speed).To(Equal(3.0))
		})
	})

	Describe("reset", func() {
		It("restores speeds and scales", func() {
			Expect(s.SetGlobalSpeedScale(4)).To(Succeed())
			Expect(s.SetCameraSpeed(2)).To(Succeed())
			Expect(s.SetPlanetManualMultiplier(1, 9)).To(Succeed())
			frames(s, epoch, 10, 16*time.Millisecond)

			s.Reset()

			snap := s.Snapshot()
			Expect(snap.GlobalSpeed).To(Equal(1.0))
			Expect(snap.CameraSpeed).To(Equal(1.0))
			Expect(controls.speed).To(Equal(1.0))
			for _, b := range snap.Bodies {
				Expect(b.Speed).To(Equal(b.BaseSpeed))
				Expect(b.Angle).To(BeNumerically(">=", 0))
				Expect(b.Angle).To(BeNumerically("<", 2*math.Pi))
			}
			pts, err := s.Trail(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(pts).To(BeEmpty())
		})
	})

	Describe("trails", func() {
		It("records one sample per playing frame up to capacity", func() {
			frames(s, epoch, 10, 16*time.Millisecond)
			pts, _ := s.Trail(1)
			Expect(pts).To(HaveLen(10))
			Expect(renderer.trails[1]).To(Equal(10))

			frames(s, epoch.Add(time.Second/2), trail.DefaultCapacity+20, time.Millisecond)
			pts, _ = s.Trail(1)
			Expect(pts).To(HaveLen(trail.DefaultCapacity))
		})

		It("clears on toggle off and restarts empty", func() {
			frames(s, epoch, 5, 16*time.Millisecond)
			s.ToggleTrails(false)
			Expect(renderer.layers[scene.LayerTrails]).To(BeFalse())
			pts, _ := s.Trail(0)
			Expect(pts).To(BeEmpty())

			frames(s, epoch.Add(100*time.Millisecond), 5, 16*time.Millisecond)
			pts, _ = s.Trail(0)
			Expect(pts).To(BeEmpty())

			s.ToggleTrails(true)
			s.Frame(epoch.Add(200 * time.Millisecond))
			pts, _ = s.Trail(0)
			Expect(pts).To(HaveLen(1))
		})

		It("stops recording and clears when the frame rate collapses", func() {
			// 100 ms frames: ~11 fps in the first window.
			last := frames(s, epoch, 12, 100*time.Millisecond)
			snap := s.Snapshot()
			Expect(snap.TrailsEnabled).To(BeFalse())
			Expect(snap.PixelRatio).To(Equal(1.0))
			Expect(renderer.pixelRatio).To(Equal(1.0))
			Expect(renderer.layers[scene.LayerTrails]).To(BeFalse())

			s.Frame(last.Add(100 * time.Millisecond))
			pts, _ := s.Trail(0)
			Expect(pts).To(BeEmpty())
		})
	})

	Describe("display toggles", func() {
		It("swaps radii for realistic sizes", func() {
			s.ToggleRealisticSizes(true)
			Expect(renderer.starRadius).To(Equal(orbit.StarRealisticRadius))
			Expect(renderer.radii[4]).To(Equal(2.8))
			Expect(s.Snapshot().Bodies[0].Radius).To(Equal(0.1))

			s.ToggleRealisticSizes(false)
			Expect(renderer.starRadius).To(Equal(orbit.StarRadius))
			Expect(renderer.radii[4]).To(Equal(2.5))
		})

		It("forwards layer visibility", func() {
			s.ToggleOrbits(false)
			s.ToggleLabels(false)
			s.ToggleStars(false)
			Expect(renderer.layers[scene.LayerOrbits]).To(BeFalse())
			Expect(renderer.layers[scene.LayerLabels]).To(BeFalse())
			Expect(renderer.layers[scene.LayerStars]).To(BeFalse())
			Expect(s.Snapshot().Display.Orbits).To(BeFalse())
		})
	})

	Describe("picking", func() {
		It("hovers and focuses the body under the pointer", func() {
			earth := s.Bodies()[2]
			ndc, _, visible := s.Camera().Project(earth.Position())
			Expect(visible).To(BeTrue())

			r := s.Pick(ndc)
			Expect(r.Body).To(BeIdenticalTo(earth))
			Expect(s.Snapshot().Hovered).To(Equal("Earth"))

			req, ok := s.Activate()
			Expect(ok).To(BeTrue())
			Expect(req.Target).To(Equal(earth.Position()))

			s.ClearHover()
			_, ok = s.Activate()
			Expect(ok).To(BeFalse())
		})
	})

	Describe("lifecycle", func() {
		It("ignores frames after Stop", func() {
			s.Frame(epoch)
			s.Stop()
			Expect(s.Stopped()).To(BeTrue())
			r := s.Frame(epoch.Add(time.Second))
			Expect(r.Ticked).To(BeFalse())
			Expect(s.Run(context.Background(), 60)).To(Succeed())
		})

		It("returns the context error when Run is cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			err := s.Run(ctx, 1000)
			Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())
			Expect(observer.frames).To(BeNumerically(">", 0))
		})

		It("serializes work through Do", func() {
			done := make(chan struct{})
			go func() {
				defer close(done)
				s.Do(func(s *sim.Simulation) { s.TogglePlayback() })
			}()
			Eventually(done).Should(BeClosed())
			var playing bool
			s.Do(func(s *sim.Simulation) { playing = s.Playing() })
			Expect(playing).To(BeFalse())
		})
	})
})
