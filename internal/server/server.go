// Package server exposes a running simulation over HTTP: a WebSocket that
// streams snapshots and accepts commands, plain JSON endpoints for scripts,
// and the Prometheus scrape endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/san-kum/orrery/internal/command"
	"github.com/san-kum/orrery/internal/logging"
	"github.com/san-kum/orrery/internal/metrics"
	"github.com/san-kum/orrery/internal/sim"
	"golang.org/x/time/rate"
)

const (
	DefaultAddr           = ":8080"
	DefaultStreamInterval = 100 * time.Millisecond
	DefaultCommandRate    = 20
	DefaultCommandBurst   = 10

	writeWait       = 5 * time.Second
	sendBuffer      = 16
	shutdownTimeout = 5 * time.Second
	maxCommandBytes = 4096
)

// ErrRateLimited is reported to clients that send commands too fast.
var ErrRateLimited = errors.New("rate limited")

// Config holds the listener and pacing settings.
type Config struct {
	Addr           string
	FPS            int
	StreamInterval time.Duration
	CommandRate    rate.Limit
	CommandBurst   int
}

func DefaultConfig() Config {
	return Config{
		Addr:           DefaultAddr,
		FPS:            60,
		StreamInterval: DefaultStreamInterval,
		CommandRate:    DefaultCommandRate,
		CommandBurst:   DefaultCommandBurst,
	}
}

// Message is one frame on the WebSocket. Type is "state" or "result".
type Message struct {
	Type   string          `json:"type"`
	State  *sim.Snapshot   `json:"state,omitempty"`
	Result *command.Result `json:"result,omitempty"`
}

type Server struct {
	sim      *sim.Simulation
	cfg      Config
	log      *logging.Logger
	limiter  *ClientLimiter
	gatherer prometheus.Gatherer
	upgrader websocket.Upgrader

	connected prometheus.Gauge
	rejected  prometheus.Counter

	mu      sync.Mutex
	clients map[*client]struct{}
}

type Option func(*Server)

func WithLogger(l *logging.Logger) Option { return func(s *Server) { s.log = l } }

// WithMetrics registers the server's own metrics on reg and serves g on
// /metrics.
func WithMetrics(reg prometheus.Registerer, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
		if reg != nil {
			reg.MustRegister(s.connected, s.rejected)
		}
	}
}

func New(s *sim.Simulation, cfg Config, opts ...Option) *Server {
	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.FPS <= 0 {
		cfg.FPS = def.FPS
	}
	if cfg.StreamInterval <= 0 {
		cfg.StreamInterval = def.StreamInterval
	}
	if cfg.CommandRate <= 0 {
		cfg.CommandRate = def.CommandRate
	}
	if cfg.CommandBurst <= 0 {
		cfg.CommandBurst = def.CommandBurst
	}

	srv := &Server{
		sim:     s,
		cfg:     cfg,
		log:     logging.Discard(),
		limiter: NewClientLimiter(cfg.CommandRate, cfg.CommandBurst),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orrery_ws_clients",
			Help: "Connected WebSocket clients",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orrery_commands_rejected_total",
			Help: "Commands dropped by the per-client rate limiter",
		}),
		clients: make(map[*client]struct{}),
	}
	for _, o := range opts {
		o(srv)
	}
	return srv
}

// Handler routes /ws, /state, /command and, when configured, /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/command", s.handleCommand)
	if s.gatherer != nil {
		mux.Handle("/metrics", metrics.Handler(s.gatherer))
	}
	return mux
}

// ListenAndServe runs the simulation loop and the HTTP listener until ctx
// is cancelled, then shuts both down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 2)
	go func() {
		if err := s.sim.Run(ctx, s.cfg.FPS); err != nil && ctx.Err() == nil {
			errc <- err
			return
		}
		errc <- nil
	}()
	go func() {
		s.log.Info("listening on %s", s.cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-errc:
	}
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if serr := httpServer.Shutdown(shutdownCtx); serr != nil {
		s.log.Warn("http shutdown: %v", serr)
	}
	s.closeClients()
	s.log.Info("server stopped")
	return err
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// apply runs one command on the loop's side of the mutex.
func (s *Server) apply(key string, c command.Command) command.Result {
	if !s.limiter.Allow(key) {
		s.rejected.Inc()
		return command.Result{Op: c.Op, Error: ErrRateLimited.Error()}
	}
	var res command.Result
	s.sim.Do(func(sm *sim.Simulation) {
		res, _ = command.Apply(sm, c)
	})
	if res.Error != "" {
		s.log.Debug("%s from %s: %s", c.Op, key, res.Error)
	}
	return res
}

func (s *Server) snapshot() sim.Snapshot {
	var snap sim.Snapshot
	s.sim.Do(func(sm *sim.Simulation) { snap = sm.Snapshot() })
	return snap
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var c command.Command
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBytes)).Decode(&c); err != nil {
		http.Error(w, "bad command: "+err.Error(), http.StatusBadRequest)
		return
	}

	res := s.apply(clientKey(r), c)
	status := http.StatusOK
	switch {
	case res.Error == ErrRateLimited.Error():
		status = http.StatusTooManyRequests
	case res.Error != "":
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
