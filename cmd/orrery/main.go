package main

import (
	"fmt"
	"io"
	"os"

	"github.com/san-kum/orrery/internal/config"
	"github.com/san-kum/orrery/internal/logging"
	"github.com/san-kum/orrery/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir     string
	configFile  string
	preset      string
	seed        int64
	logLevel    string
	logFile     string
	paused      bool
	resume      string
	trailLen    int
	initialUnit string
	// live
	theme   string
	noPrefs bool
	gifPath string
	// run
	frames      int
	interval    float64
	globalSpeed float64
	sqlitePath  string
	sampleEvery int
	svgPath     string
	svgView     string
	// serve
	addr         string
	frameRate    int
	streamMs     int
	commandRate  float64
	commandBurst int
	// plot
	plotBody string
)

// main registers the commands and opens the preset menu when no subcommand
// is given.
func main() {
	rootCmd := &cobra.Command{
		Use:           "orrery",
		Short:         "clockwork solar system simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runMenu,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".orrery", "data directory for recorded runs")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", config.DefaultPreset, "body preset (see 'orrery presets')")
	pf.Int64Var(&seed, "seed", 0, "random seed for initial phases (0 = time based)")
	pf.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "debug, info, warn or error")
	pf.StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
	pf.BoolVar(&paused, "paused", false, "start paused")
	pf.StringVar(&resume, "resume", config.ResumeElapsed, "resume policy: elapsed or reset")
	pf.IntVar(&trailLen, "trail-length", config.DefaultTrailLength, "trail samples kept per body")
	pf.StringVar(&initialUnit, "initial-unit", config.DefaultInitialUnit, "start every body at one orbit per unit (empty keeps base speeds)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the orrery in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&theme, "theme", defaultTheme, "color theme")
	liveCmd.Flags().BoolVar(&noPrefs, "no-prefs", false, "do not read or write preferences")
	liveCmd.Flags().StringVar(&gifPath, "gif", "orrery.gif", "where 'g' saves recordings")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run headless for a fixed number of frames and record it",
		Args:  cobra.NoArgs,
		RunE:  runHeadless,
	}
	runCmd.Flags().IntVar(&frames, "frames", 600, "frames to simulate")
	runCmd.Flags().Float64Var(&interval, "interval", 1.0/60, "seconds between frames")
	runCmd.Flags().Float64Var(&globalSpeed, "speed", 1, "global speed scale")
	runCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "also log every body per frame to this SQLite file")
	runCmd.Flags().IntVar(&sampleEvery, "sample", 1, "record every n-th frame")
	runCmd.Flags().StringVar(&svgPath, "svg", "", "write a picture of the final frame to this SVG file")
	runCmd.Flags().StringVar(&svgView, "svg-view", "top", "svg picture: top or camera")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run headless and serve state and commands over WebSocket",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().IntVar(&frameRate, "fps", config.DefaultFPS, "loop frame rate")
	serveCmd.Flags().IntVar(&streamMs, "stream-ms", 100, "snapshot interval in milliseconds")
	serveCmd.Flags().Float64Var(&commandRate, "command-rate", 20, "commands per second per client")
	serveCmd.Flags().IntVar(&commandBurst, "command-burst", 10, "command burst per client")

	speedCmd := &cobra.Command{
		Use:   "speed [orbital_period_days] [unit]",
		Short: "angular speed that shows one orbit per unit",
		Args:  cobra.ExactArgs(2),
		RunE:  speedCalc,
	}

	unitsCmd := &cobra.Command{
		Use:   "units",
		Short: "list time units",
		Args:  cobra.NoArgs,
		RunE:  listUnits,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list body presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot body phases of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotBody, "body", "", "plot only this body")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a recorded run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	rootCmd.AddCommand(liveCmd, runCmd, serveCmd, speedCmd, unitsCmd, presetsCmd, listCmd, plotCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

const defaultTheme = "deep-space"

// loadConfig builds the effective config: defaults, then the config file,
// then the preset, then any flag the user actually set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if configFile == "" || flags.Changed("preset") {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg.Preset, cfg.Bodies = preset, p.Bodies
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("paused") {
		cfg.StartPaused = paused
	}
	if flags.Changed("resume") {
		cfg.ResumePolicy = resume
	}
	if flags.Changed("trail-length") {
		cfg.TrailLength = trailLen
	}
	if flags.Changed("initial-unit") {
		cfg.InitialUnit = initialUnit
	}
	if flags.Changed("fps") {
		cfg.FPS = frameRate
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger opens the configured log sink. The returned closer is never nil.
func newLogger(cfg *config.Config, quietByDefault bool) (*logging.Logger, io.Closer, error) {
	log := logging.New(logging.ParseLevel(cfg.LogLevel))
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		log.SetOutput(f)
		return log, f, nil
	}
	if quietByDefault {
		// the terminal belongs to the view
		log.SetOutput(io.Discard)
	}
	return log, io.NopCloser(nil), nil
}

func liveOptions(log *logging.Logger) viz.Options {
	opts := viz.Options{Logger: log, Theme: theme, GIFPath: gifPath}
	if noPrefs {
		return opts
	}
	path, err := config.DefaultPreferencesPath()
	if err != nil {
		log.Warn("no preferences directory: %v", err)
		return opts
	}
	opts.PrefsPath = path
	return opts
}

func runMenu(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closer, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer closer.Close()

	return viz.RunInteractive(cfg, liveOptions(log))
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closer, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer closer.Close()

	return viz.RunLive(cfg, liveOptions(log))
}
