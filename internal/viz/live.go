package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/orrery/internal/command"
	"github.com/san-kum/orrery/internal/config"
	"github.com/san-kum/orrery/internal/logging"
	"github.com/san-kum/orrery/internal/picking"
	"github.com/san-kum/orrery/internal/scene"
	"github.com/san-kum/orrery/internal/sim"
	"github.com/san-kum/orrery/internal/timeunit"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	panelWidth    = 50
	// canvas padding from canvasStyle
	padX, padY  = 2, 1
	fpsCapacity = 60
	frameRate   = time.Second / 60
)

var canvasStyle = lipgloss.NewStyle().Padding(padY, padX)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Options configures the terminal view.
type Options struct {
	Logger *logging.Logger
	Theme  string
	// PrefsPath is where the help-shown flag persists. Empty disables it.
	PrefsPath string
	GIFPath   string
}

// Model is the Bubble Tea host of a running orrery.
type Model struct {
	sim      *sim.Simulation
	renderer *TermRenderer
	controls *OrbitControls
	canvas   *Canvas
	recorder *Recorder
	log      *logging.Logger

	theme  Theme
	styles styles
	preset string

	width, height int
	selected      int
	fpsHistory    []float64
	showHelp      bool
	prefs         config.Preferences
	prefsPath     string
	gifPath       string
	recording     bool

	prompt  bool
	input   string
	message string
	failed  bool
}

// Build constructs the renderer, camera controls and simulation for cfg and
// wraps them in a Model. Extra sim options (observers, loggers) are applied
// after the terminal collaborators.
func Build(cfg *config.Config, opts Options, simOpts ...sim.Option) (Model, error) {
	r := NewTermRenderer()
	controls := NewOrbitControls()
	all := append([]sim.Option{
		sim.WithRenderer(r),
		sim.WithCameraControls(func() (scene.CameraControls, error) { return controls, nil }),
	}, simOpts...)
	if opts.Logger != nil {
		all = append(all, sim.WithLogger(opts.Logger.Named("sim")))
	}
	s, err := sim.New(cfg, all...)
	if err != nil {
		return Model{}, err
	}
	m := NewModel(s, r, controls, opts)
	m.preset = cfg.Preset
	return m, nil
}

// NewModel wires an existing simulation to the terminal. r and controls
// must be the collaborators s was built with.
func NewModel(s *sim.Simulation, r *TermRenderer, controls *OrbitControls, opts Options) Model {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	controls.Attach(s.Camera, s.SetCamera)

	m := Model{
		sim:       s,
		renderer:  r,
		controls:  controls,
		recorder:  &Recorder{},
		log:       log.Named("viz"),
		theme:     GetTheme(opts.Theme),
		prefsPath: opts.PrefsPath,
		gifPath:   opts.GIFPath,
	}
	if m.gifPath == "" {
		m.gifPath = "orrery.gif"
	}
	m.styles = newStyles(m.theme)
	m.resize(defaultWidth, defaultHeight)

	if m.prefsPath != "" {
		p, err := config.LoadPreferences(m.prefsPath)
		if err != nil {
			m.log.Warn("preferences: %v", err)
		}
		m.prefs = p
	}
	// first visit opens the help overlay once
	if !m.prefs.HelpShown {
		m.showHelp = true
		m.prefs.HelpShown = true
		m.savePrefs()
	}
	return m
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := config.SavePreferences(m.prefsPath, m.prefs); err != nil {
		m.log.Warn("preferences: %v", err)
	}
}

// resize fits the canvas into a terminal of w x h cells next to the panel.
func (m *Model) resize(w, h int) {
	cw := w - panelWidth - 2*padX
	ch := h - 2*padY - 1
	if cw < 20 {
		cw = 20
	}
	if ch < 8 {
		ch = 8
	}
	m.width, m.height = cw, ch
	if m.canvas == nil {
		m.canvas = NewCanvas(cw, ch)
	} else {
		m.canvas.Resize(cw, ch)
	}
	pw, ph := m.canvas.PixelSize()
	cam := m.sim.Camera()
	cam.Aspect = float64(pw) / float64(ph)
	m.sim.SetCamera(cam)
}

func (m Model) Init() tea.Cmd { return tick() }

// Simulation exposes the wrapped simulation.
func (m Model) Simulation() *sim.Simulation { return m.sim }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case TickMsg:
		rep := m.sim.Frame(time.Time(msg))
		if rep.Quality.WindowClosed {
			m.fpsHistory = append(m.fpsHistory, float64(rep.Quality.FPS))
			if len(m.fpsHistory) > fpsCapacity {
				m.fpsHistory = m.fpsHistory[len(m.fpsHistory)-fpsCapacity:]
			}
		}
		if m.recording {
			m.draw()
			m.recorder.Capture(m.canvas)
		}
		return m, tick()
	case tea.MouseMsg:
		m.mouse(msg)
	case tea.KeyMsg:
		if m.prompt {
			m.promptKey(msg)
			return m, nil
		}
		return m.key(msg)
	}
	return m, nil
}

func (m *Model) mouse(msg tea.MouseMsg) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.controls.Dolly(0.9)
		return
	case tea.MouseButtonWheelDown:
		m.controls.Dolly(1.1)
		return
	}

	col, row := msg.X-padX, msg.Y-padY
	if col < 0 || row < 0 || col >= m.width || row >= m.height {
		m.sim.ClearHover()
		return
	}
	pw, ph := m.canvas.PixelSize()
	ndc := picking.NDC(float64(col*2+1), float64(row*4+2), float64(pw), float64(ph))
	m.sim.Pick(ndc)

	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		if req, ok := m.sim.Activate(); ok {
			m.selected = req.Body.Index
			m.notice("focused %s", req.Body.Name)
		}
	}
}

func (m Model) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.sim
	switch msg.String() {
	case "q", "ctrl+c":
		if m.recording {
			m.stopRecording()
		}
		s.Stop()
		return m, tea.Quit
	case " ":
		if s.TogglePlayback() {
			m.notice("playing")
		} else {
			m.notice("paused")
		}
	case "r":
		s.Reset()
		m.notice("reset")
	case "t":
		m.theme = NextTheme(m.theme)
		m.styles = newStyles(m.theme)
		m.notice("theme %s", m.theme.Name)
	case "?":
		m.showHelp = !m.showHelp
	case ":":
		m.prompt, m.input = true, ""
	case "o":
		s.ToggleOrbits(!s.Snapshot().Display.Orbits)
	case "l":
		s.ToggleLabels(!s.Snapshot().Display.Labels)
	case "s":
		s.ToggleStars(!s.Snapshot().Display.Stars)
	case "p":
		s.ToggleTrails(!s.Snapshot().TrailsEnabled)
	case "z":
		s.ToggleRealisticSizes(!s.Snapshot().Display.RealisticSizes)
	case "+", "=":
		m.setSpeed(s.GlobalSpeedScale() * 1.25)
	case "-", "_":
		m.setSpeed(s.GlobalSpeedScale() / 1.25)
	case "tab":
		if n := len(s.Bodies()); n > 0 {
			m.selected = (m.selected + 1) % n
		}
	case "shift+tab":
		if n := len(s.Bodies()); n > 0 {
			m.selected = (m.selected + n - 1) % n
		}
	case "1", "2", "3", "4", "5", "6", "7":
		unit := timeunit.Required[msg.String()[0]-'1']
		if _, err := s.SetPlanetOrbitalPeriod(m.selected, unit); err != nil {
			m.fail(err)
		} else {
			m.notice("%s: one orbit per %s", s.Bodies()[m.selected].Name, unit)
		}
	case "m":
		m.multiply(2)
	case "n":
		m.multiply(0.5)
	case "left", "h":
		m.controls.Nudge(-1, 0)
	case "right":
		m.controls.Nudge(1, 0)
	case "up", "k":
		m.controls.Nudge(0, 1)
	case "down", "j":
		m.controls.Nudge(0, -1)
	case "[":
		m.setCameraSpeed(m.controls.Speed() / 1.5)
	case "]":
		m.setCameraSpeed(m.controls.Speed() * 1.5)
	case "g":
		if m.recording {
			m.stopRecording()
		} else {
			m.recording = true
			m.notice("recording")
		}
	}
	return m, nil
}

func (m *Model) multiply(f float64) {
	b := m.sim.Bodies()[m.selected]
	if err := m.sim.SetPlanetManualMultiplier(m.selected, b.Speed/b.BaseSpeed*f); err != nil {
		m.fail(err)
	}
}

func (m *Model) setSpeed(v float64) {
	if err := m.sim.SetGlobalSpeedScale(v); err != nil {
		m.fail(err)
	}
}

func (m *Model) setCameraSpeed(v float64) {
	if err := m.sim.SetCameraSpeed(v); err != nil {
		m.fail(err)
	}
}

func (m *Model) stopRecording() {
	n := m.recorder.Len()
	m.recording = false
	if err := m.recorder.Save(m.gifPath); err != nil {
		m.fail(err)
		return
	}
	m.notice("saved %d frames to %s", n, m.gifPath)
}

func (m *Model) promptKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.prompt, m.input = false, ""
	case tea.KeyEnter:
		m.prompt = false
		m.run(m.input)
		m.input = ""
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
}

// run executes a prompt line through the shared command vocabulary.
func (m *Model) run(line string) {
	c, err := command.Parse(line)
	if err != nil {
		m.fail(err)
		return
	}
	res, err := command.Apply(m.sim, c)
	if err != nil {
		m.fail(err)
		return
	}
	switch {
	case res.Focused != "":
		m.notice("focused %s", res.Focused)
	case res.Speed != 0:
		m.notice("%s: %g", res.Op, res.Speed)
	default:
		m.notice("%s ok", res.Op)
	}
}

func (m *Model) notice(format string, args ...interface{}) {
	m.message, m.failed = fmt.Sprintf(format, args...), false
}

func (m *Model) fail(err error) {
	m.message, m.failed = err.Error(), true
	m.log.Warn("%v", err)
}

func (m *Model) draw() {
	snap := m.sim.Snapshot()
	labels := make([]BodyLabel, len(snap.Bodies))
	for i, b := range snap.Bodies {
		labels[i] = BodyLabel{Text: b.Name, Color: b.Color}
	}
	m.renderer.Draw(m.canvas, m.sim.Camera(), labels, m.theme)
}

func (m Model) View() string {
	m.draw()
	snap := m.sim.Snapshot()
	st := m.styles

	var s strings.Builder
	title := "ORRERY"
	if m.preset != "" {
		title += " · " + strings.ToUpper(m.preset)
	}
	s.WriteString(GradientText(title, m.theme.Secondary, m.theme.Accent) + "\n\n")

	status := st.running.Render("RUNNING")
	if !snap.Playing {
		status = st.paused.Render("PAUSED")
	}
	if m.recording {
		status += st.warn.Render(fmt.Sprintf("  ● REC %d", m.recorder.Len()))
	}
	s.WriteString(status + "\n\n")

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Elapsed", fmt.Sprintf("%.1fs", snap.Elapsed))
	row("Speed", fmt.Sprintf("%s %.2fx", SpeedBar(snap.GlobalSpeed, 12, m.theme), snap.GlobalSpeed))
	row("Camera", fmt.Sprintf("%.2fx", snap.CameraSpeed))
	row("FPS", fmt.Sprintf("%d @ %.1f px", snap.FPS, snap.PixelRatio))
	row("Trails", onOff(snap.TrailsEnabled))
	if snap.Hovered != "" {
		row("Hover", snap.Hovered)
	}

	if m.selected < len(snap.Bodies) {
		b := snap.Bodies[m.selected]
		s.WriteString("\n" + st.selected.Render("▸ "+b.Name) + "\n")
		if b.Info != "" {
			s.WriteString(st.hint.Render(b.Info) + "\n")
		}
		row("Distance", b.RealDistance)
		row("Period", b.RealPeriod)
		row("Speed", fmt.Sprintf("%.3g rad/s (%.2fx)", b.Speed, b.Speed/b.BaseSpeed))
	}

	if len(m.fpsHistory) > 1 {
		chart := asciigraph.Plot(m.fpsHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("FPS"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	if m.prompt {
		s.WriteString("\n" + st.selected.Render(":"+m.input+"█") + "\n")
	} else if m.message != "" {
		style := st.hint
		if m.failed {
			style = st.warn
		}
		s.WriteString("\n" + style.Render(m.message) + "\n")
	}
	s.WriteString(st.hint.Render("\nspace:play r:reset ?:help :cmd q:quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top,
		canvasStyle.Render(m.canvas.String()),
		st.panel.Render(s.String()))
	if m.showHelp {
		return st.help.Render(helpText) + "\n" + mainView
	}
	return mainView
}

const helpText = `KEYBOARD SHORTCUTS
space      play / pause          r      reset
+ / -      global speed          [ ]    camera speed
arrows     orbit camera          wheel  zoom
tab        select body           1-7    one orbit per second..year
m / n      double / halve speed  click  focus a body
o l s      orbits labels stars   p      trails
z          realistic sizes       t      theme
g          record GIF            :      command prompt
?          toggle this help      q      quit`

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
