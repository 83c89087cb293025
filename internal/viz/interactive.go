package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/orrery/internal/config"
	"github.com/san-kum/orrery/internal/sim"
)

var presetInfo = map[string]string{
	"solar":  "all eight planets",
	"inner":  "mercury to mars",
	"giants": "jupiter to neptune",
}

// App is the interactive entry point: a preset menu that hands over to the
// live orrery once a preset is chosen.
type App struct {
	base    *config.Config
	opts    Options
	simOpts []sim.Option

	presets []string
	cursor  int
	err     error

	started bool
	live    Model
	size    *tea.WindowSizeMsg
}

// NewApp builds the menu. base supplies every setting except the bodies.
func NewApp(base *config.Config, opts Options, simOpts ...sim.Option) *App {
	presets := config.ListPresets()
	a := &App{base: base, opts: opts, simOpts: simOpts, presets: presets}
	for i, p := range presets {
		if p == base.Preset {
			a.cursor = i
		}
	}
	return a
}

func (a *App) Init() tea.Cmd { return nil }

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.started {
		next, cmd := a.live.Update(msg)
		a.live = next.(Model)
		return a, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.size = &msg
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		case "up", "k":
			if a.cursor > 0 {
				a.cursor--
			}
		case "down", "j":
			if a.cursor < len(a.presets)-1 {
				a.cursor++
			}
		case "enter", " ":
			return a, a.start()
		}
	}
	return a, nil
}

func (a *App) start() tea.Cmd {
	name := a.presets[a.cursor]
	cfg := *a.base
	cfg.Preset = name
	cfg.Bodies = config.GetPreset(name).Bodies

	live, err := Build(&cfg, a.opts, a.simOpts...)
	if err != nil {
		a.err = err
		return nil
	}
	if a.size != nil {
		next, _ := live.Update(*a.size)
		live = next.(Model)
	}
	a.live, a.started, a.err = live, true, nil
	return a.live.Init()
}

func (a *App) View() string {
	if a.started {
		return a.live.View()
	}

	t := GetTheme(a.opts.Theme)
	st := newStyles(t)
	var b strings.Builder
	b.WriteString("\n\n    " + GradientText("ORRERY", t.Secondary, t.Accent) + "\n    " +
		st.hint.Render("a clockwork solar system") + "\n    " +
		st.hint.Render("─────────────────────────") + "\n\n")
	for i, name := range a.presets {
		desc := presetInfo[name]
		if i == a.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n",
				st.selected.Render("▸"),
				st.value.Bold(true).Render(fmt.Sprintf("%-10s", name)),
				st.selected.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n",
				st.hint.Render(fmt.Sprintf("%-10s", name)),
				st.hint.Render(desc)))
		}
	}
	if a.err != nil {
		b.WriteString("\n    " + st.warn.Render(a.err.Error()) + "\n")
	}
	key := lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	b.WriteString("\n    " + key.Render("j/k") + st.hint.Render(" navigate  ") +
		key.Render("enter") + st.hint.Render(" start  ") +
		key.Render("q") + st.hint.Render(" quit") + "\n")
	return b.String()
}

// Live returns the running orrery model, if a preset was started.
func (a *App) Live() (Model, bool) { return a.live, a.started }

func programOptions() []tea.ProgramOption {
	return []tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseAllMotion()}
}

// RunInteractive shows the preset menu, then the live orrery.
func RunInteractive(base *config.Config, opts Options, simOpts ...sim.Option) error {
	_, err := tea.NewProgram(NewApp(base, opts, simOpts...), programOptions()...).Run()
	return err
}

// RunLive starts the live orrery directly for cfg.
func RunLive(cfg *config.Config, opts Options, simOpts ...sim.Option) error {
	m, err := Build(cfg, opts, simOpts...)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, programOptions()...).Run()
	return err
}
