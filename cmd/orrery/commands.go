package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/san-kum/orrery/internal/config"
	"github.com/san-kum/orrery/internal/export"
	"github.com/san-kum/orrery/internal/metrics"
	"github.com/san-kum/orrery/internal/orbit"
	"github.com/san-kum/orrery/internal/server"
	"github.com/san-kum/orrery/internal/sim"
	"github.com/san-kum/orrery/internal/storage"
	"github.com/san-kum/orrery/internal/viz"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"golang.org/x/time/rate"
)

// runHeadless steps the simulation on a synthetic clock so that runs with
// the same seed and flags are reproducible.
func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if frames <= 0 {
		return fmt.Errorf("--frames must be positive, got %d", frames)
	}
	if interval <= 0 {
		return fmt.Errorf("--interval must be positive, got %v", interval)
	}
	if sampleEvery <= 0 {
		sampleEvery = 1
	}
	log, closer, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer closer.Close()

	renderer := viz.NewTermRenderer()
	s, err := sim.New(cfg, sim.WithLogger(log.Named("sim")), sim.WithRenderer(renderer))
	if err != nil {
		return err
	}
	if err := s.SetGlobalSpeedScale(globalSpeed); err != nil {
		return err
	}

	var frameLog *storage.FrameLog
	if sqlitePath != "" {
		frameLog, err = storage.CreateFrameLog(sqlitePath)
		if err != nil {
			return err
		}
		defer frameLog.Close()
	}

	snap := s.Snapshot()
	names := make([]string, len(snap.Bodies))
	for i, b := range snap.Bodies {
		names[i] = b.Name
	}
	ms := metrics.Standard(names)
	rec := storage.NewRecording(snap)

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	step := time.Duration(interval * float64(time.Second))
	t0 := time.Unix(0, 0)

	fmt.Printf("running %s: %d frames at %.4fs, speed %.2fx\n", cfg.Preset, frames, interval, globalSpeed)
	for i := 0; i < frames; i++ {
		s.Frame(t0.Add(time.Duration(i) * step))
		snap := s.Snapshot()
		for _, m := range ms {
			m.Observe(snap)
		}
		if i%sampleEvery == 0 {
			rec.Add(snap.Elapsed, snap)
		}
		if frameLog != nil {
			if err := frameLog.Write(i, snap); err != nil {
				return fmt.Errorf("frame log: %w", err)
			}
		}
		if isTTY && (i%50 == 0 || i == frames-1) {
			fmt.Printf("\r  frame %d/%d", i+1, frames)
		}
	}
	if isTTY {
		fmt.Println()
	}

	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}
	meta := storage.RunMetadata{
		Preset:        cfg.Preset,
		Seed:          cfg.Seed,
		FrameInterval: interval,
		GlobalSpeed:   globalSpeed,
		Metrics:       metrics.Summarize(ms),
	}
	runID, err := store.Save(meta, rec)
	if err != nil {
		return err
	}
	log.Debug("saved %d samples", len(rec.Times))

	if svgPath != "" {
		if err := writeSVG(s, renderer); err != nil {
			return err
		}
		fmt.Printf("picture written to %s\n", svgPath)
	}

	fmt.Printf("run %s saved\n", runID)
	for _, m := range ms {
		fmt.Printf("  %-18s %.4f\n", m.Name(), m.Value())
	}
	return nil
}

// writeSVG pictures the final frame, either from above or through the
// configured camera as the terminal would show it.
func writeSVG(s *sim.Simulation, r *viz.TermRenderer) error {
	var out string
	switch svgView {
	case "top":
		snap := s.Snapshot()
		trails := make([][]mgl64.Vec3, len(snap.Bodies))
		for i := range snap.Bodies {
			trails[i], _ = s.Trail(i)
		}
		out = export.OrbitDiagram(snap, export.DiagramOptions{
			Size:   800,
			Orbits: snap.Display.Orbits,
			Labels: snap.Display.Labels,
			Trails: trails,
		})
	case "camera":
		canvas := viz.NewCanvas(160, 60)
		r.Draw(canvas, s.Camera(), nil, viz.GetTheme(""))
		out = export.CanvasToSVG(canvas, 4, "#9fd3ff")
	default:
		return fmt.Errorf("unknown --svg-view %q (top or camera)", svgView)
	}
	return os.WriteFile(svgPath, []byte(out), 0644)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closer, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer closer.Close()

	reg := prometheus.NewRegistry()
	s, err := sim.New(cfg,
		sim.WithLogger(log.Named("sim")),
		sim.WithObserver(metrics.NewCollector(reg)),
	)
	if err != nil {
		return err
	}

	srv := server.New(s, server.Config{
		Addr:           addr,
		FPS:            cfg.FPS,
		StreamInterval: time.Duration(streamMs) * time.Millisecond,
		CommandRate:    rate.Limit(commandRate),
		CommandBurst:   commandBurst,
	}, server.WithLogger(log.Named("server")), server.WithMetrics(reg, reg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Info("shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	return srv.ListenAndServe(ctx)
}

// speedCalc prints the angular speed that makes a body with the given
// orbital period complete one orbit per unit. The unit is a time-unit name
// or a number of seconds.
func speedCalc(cmd *cobra.Command, args []string) error {
	days, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid orbital period %q: %w", args[0], err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	units, err := cfg.Units()
	if err != nil {
		return err
	}

	seconds, uerr := units.Seconds(args[1])
	if uerr != nil {
		v, perr := strconv.ParseFloat(args[1], 64)
		if perr != nil {
			return uerr
		}
		seconds = v
	}

	speed, err := orbit.SpeedFor(days, seconds)
	if err != nil {
		return err
	}
	fmt.Printf("%.9f rad/frame (%.2fx base)\n", speed, speed/orbit.BaseSpeed)
	return nil
}

func listUnits(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	units, err := cfg.Units()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "UNIT\tSECONDS")
	for _, name := range units.Names() {
		secs, _ := units.Seconds(name)
		fmt.Fprintf(w, "%s\t%.0f\n", name, secs)
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tBODIES")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		bodies := make([]string, len(p.Bodies))
		for i, b := range p.Bodies {
			bodies[i] = b.Name
		}
		fmt.Fprintf(w, "%s\t%s\n", name, strings.Join(bodies, ", "))
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	runs, err := store.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tFRAMES\tSPEED\tTIMESTAMP")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%s\n",
			run.ID, run.Preset, run.Frames, run.GlobalSpeed,
			run.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	store := storage.New(dataDir)

	meta, err := store.Load(runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	rec, err := store.LoadRecording(runID)
	if err != nil {
		return fmt.Errorf("failed to load recording: %w", err)
	}
	if len(rec.Times) == 0 {
		return fmt.Errorf("run %s has no samples", runID)
	}

	names := rec.Names
	if plotBody != "" {
		names = []string{plotBody}
	}

	fmt.Printf("\n  %s  (%s, %d frames)\n\n", meta.ID, meta.Preset, meta.Frames)
	for _, name := range names {
		series := rec.Series(name)
		if series == nil {
			return fmt.Errorf("run %s has no body %q", runID, name)
		}
		// angles grow without bound; the phase shows the orbits
		phases := make([]float64, len(series))
		for i, a := range series {
			phases[i] = math.Mod(a, 2*math.Pi)
		}
		graph := asciigraph.Plot(phases,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" phase (rad)"))
		fmt.Println(graph)
		fmt.Println()
	}

	if len(meta.Metrics) > 0 {
		fmt.Println("  metrics:")
		for k, v := range meta.Metrics {
			fmt.Printf("    %-18s %.4f\n", k, v)
		}
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	store := storage.New(dataDir)

	meta, err := store.Load(runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	rec, err := store.LoadRecording(runID)
	if err != nil {
		return fmt.Errorf("failed to load recording: %w", err)
	}
	return storage.ExportJSON(os.Stdout, *meta, rec)
}
