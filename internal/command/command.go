// Package command maps UI events onto simulation commands. Every host (the
// terminal view, the WebSocket server) speaks this one vocabulary.
package command

import (
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/orrery/internal/orbit"
	"github.com/san-kum/orrery/internal/sim"
)

type Op string

const (
	OpSpeedScale       Op = "speed_scale"
	OpPlay             Op = "play"
	OpPause            Op = "pause"
	OpTogglePlay       Op = "toggle_play"
	OpManualMultiplier Op = "manual_multiplier"
	OpOrbitalPeriod    Op = "orbital_period"
	OpOrbits           Op = "orbits"
	OpLabels           Op = "labels"
	OpStars            Op = "stars"
	OpTrails           Op = "trails"
	OpRealisticSizes   Op = "realistic_sizes"
	OpReset            Op = "reset"
	OpCameraSpeed      Op = "camera_speed"
	OpPick             Op = "pick"
	OpActivate         Op = "activate"
	OpSnapshot         Op = "snapshot"
)

// Command is one UI request. Index selects a body; Body may name it instead.
type Command struct {
	Op    Op      `json:"op"`
	Index int     `json:"index,omitempty"`
	Body  string  `json:"body,omitempty"`
	Value float64 `json:"value,omitempty"`
	Unit  string  `json:"unit,omitempty"`
	Flag  bool    `json:"flag,omitempty"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
}

// Result echoes what a command changed.
type Result struct {
	Op      Op            `json:"op"`
	Speed   float64       `json:"speed,omitempty"`
	Playing bool          `json:"playing"`
	Hovered string        `json:"hovered,omitempty"`
	Focused string        `json:"focused,omitempty"`
	Error   string        `json:"error,omitempty"`
	State   *sim.Snapshot `json:"state,omitempty"`
}

// Apply runs c against s. The caller must own s (the loop goroutine, or
// inside Simulation.Do).
func Apply(s *sim.Simulation, c Command) (Result, error) {
	r := Result{Op: c.Op}
	var err error

	switch c.Op {
	case OpSpeedScale:
		err = s.SetGlobalSpeedScale(c.Value)
	case OpPlay:
		s.SetPlayback(true)
	case OpPause:
		s.SetPlayback(false)
	case OpTogglePlay:
		s.TogglePlayback()
	case OpManualMultiplier:
		var idx int
		if idx, err = resolve(s, c); err == nil {
			if err = s.SetPlanetManualMultiplier(idx, c.Value); err == nil {
				r.Speed = s.Bodies()[idx].Speed
			}
		}
	case OpOrbitalPeriod:
		var idx int
		if idx, err = resolve(s, c); err == nil {
			r.Speed, err = s.SetPlanetOrbitalPeriod(idx, c.Unit)
		}
	case OpOrbits:
		s.ToggleOrbits(c.Flag)
	case OpLabels:
		s.ToggleLabels(c.Flag)
	case OpStars:
		s.ToggleStars(c.Flag)
	case OpTrails:
		s.ToggleTrails(c.Flag)
	case OpRealisticSizes:
		s.ToggleRealisticSizes(c.Flag)
	case OpReset:
		s.Reset()
	case OpCameraSpeed:
		err = s.SetCameraSpeed(c.Value)
	case OpPick:
		if h := s.Pick(mgl64.Vec2{c.X, c.Y}); h.Body != nil {
			r.Hovered = h.Body.Name
		}
	case OpActivate:
		if req, ok := s.Activate(); ok {
			r.Focused = req.Body.Name
		}
	case OpSnapshot:
		snap := s.Snapshot()
		r.State = &snap
	default:
		err = orbit.Errorf("command.Apply", orbit.ErrValidation, "unknown op %q", c.Op)
	}

	r.Playing = s.Playing()
	if err != nil {
		r.Error = err.Error()
	}
	return r, err
}

func resolve(s *sim.Simulation, c Command) (int, error) {
	if c.Body == "" {
		return c.Index, nil
	}
	for _, b := range s.Bodies() {
		if strings.EqualFold(b.Name, c.Body) {
			return b.Index, nil
		}
	}
	return 0, orbit.Errorf("command.resolve", orbit.ErrValidation, "no body named %q", c.Body)
}

// Parse reads the short text form used by the terminal prompt, e.g.
// "speed 2", "period earth year", "mult mars 3", "trails off".
func Parse(line string) (Command, error) {
	f := strings.Fields(strings.ToLower(line))
	if len(f) == 0 {
		return Command{}, orbit.Errorf("command.Parse", orbit.ErrValidation, "empty command")
	}

	switch f[0] {
	case "speed":
		v, err := number(f, 1)
		return Command{Op: OpSpeedScale, Value: v}, err
	case "camera":
		v, err := number(f, 1)
		return Command{Op: OpCameraSpeed, Value: v}, err
	case "play":
		return Command{Op: OpPlay}, nil
	case "pause":
		return Command{Op: OpPause}, nil
	case "reset":
		return Command{Op: OpReset}, nil
	case "period":
		if len(f) != 3 {
			return Command{}, usage("period <body> <unit>")
		}
		return Command{Op: OpOrbitalPeriod, Body: f[1], Unit: f[2]}, nil
	case "mult":
		if len(f) != 3 {
			return Command{}, usage("mult <body> <multiplier>")
		}
		v, err := number(f, 2)
		return Command{Op: OpManualMultiplier, Body: f[1], Value: v}, err
	case "orbits", "labels", "stars", "trails", "realistic":
		on, err := toggle(f)
		op := Op(f[0])
		if f[0] == "realistic" {
			op = OpRealisticSizes
		}
		return Command{Op: op, Flag: on}, err
	}
	return Command{}, orbit.Errorf("command.Parse", orbit.ErrValidation, "unknown command %q", f[0])
}

func number(f []string, i int) (float64, error) {
	if len(f) <= i {
		return 0, usage(f[0] + " <number>")
	}
	v, err := strconv.ParseFloat(f[i], 64)
	if err != nil {
		return 0, orbit.Errorf("command.Parse", orbit.ErrValidation, "%s: bad number %q", f[0], f[i])
	}
	return v, nil
}

func toggle(f []string) (bool, error) {
	if len(f) != 2 {
		return false, usage(f[0] + " on|off")
	}
	switch f[1] {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, usage(f[0] + " on|off")
}

func usage(u string) error {
	return orbit.Errorf("command.Parse", orbit.ErrValidation, "usage: %s", u)
}
