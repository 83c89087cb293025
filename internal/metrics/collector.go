package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/san-kum/orrery/internal/sim"
)

// Collector exports the frame loop to Prometheus. It implements
// sim.Observer.
type Collector struct {
	frames         prometheus.Counter
	ticks          prometheus.Counter
	fps            prometheus.Gauge
	pixelRatio     prometheus.Gauge
	trailsEnabled  prometheus.Gauge
	tickDelta      prometheus.Histogram
	qualityChanges *prometheus.CounterVec
	commands       *prometheus.CounterVec
}

// NewCollector registers the loop metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orrery_frames_total",
			Help: "Host frames processed",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orrery_ticks_total",
			Help: "Frames that advanced the bodies",
		}),
		fps: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orrery_fps",
			Help: "Frame rate measured over the last quality window",
		}),
		pixelRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orrery_pixel_ratio",
			Help: "Current render pixel ratio",
		}),
		trailsEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orrery_trails_enabled",
			Help: "1 when trails are switched on",
		}),
		tickDelta: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "orrery_tick_delta_seconds",
			Help:    "Clock delta applied per tick",
			Buckets: []float64{0.004, 0.008, 0.016, 0.033, 0.066, 0.1, 0.25, 1},
		}),
		qualityChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_quality_changes_total",
				Help: "Quality controller interventions",
			},
			[]string{"kind"},
		),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_commands_total",
				Help: "Commands applied to the simulation",
			},
			[]string{"command", "result"},
		),
	}

	reg.MustRegister(c.frames, c.ticks, c.fps, c.pixelRatio, c.trailsEnabled,
		c.tickDelta, c.qualityChanges, c.commands)
	return c
}

func (c *Collector) OnFrame(r sim.FrameReport) {
	c.frames.Inc()
	c.fps.Set(float64(r.Quality.FPS))
	c.pixelRatio.Set(r.Quality.PixelRatio)
	if r.Quality.TrailsEnabled {
		c.trailsEnabled.Set(1)
	} else {
		c.trailsEnabled.Set(0)
	}
	if r.Quality.PixelRatioChanged {
		c.qualityChanges.WithLabelValues("pixel_ratio").Inc()
	}
	if r.Quality.TrailsDisabled {
		c.qualityChanges.WithLabelValues("trails_off").Inc()
	}
	if r.Ticked {
		c.ticks.Inc()
		c.tickDelta.Observe(r.Delta)
	}
}

func (c *Collector) OnCommand(name string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.commands.WithLabelValues(name, result).Inc()
}

// Handler serves g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
