package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// styles derives the panel styles from a theme.
type styles struct {
	title    lipgloss.Style
	running  lipgloss.Style
	paused   lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	selected lipgloss.Style
	hint     lipgloss.Style
	warn     lipgloss.Style
	graph    lipgloss.Style
	panel    lipgloss.Style
	star     lipgloss.Style
	help     lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(t.Secondary),
		running:  lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		paused:   lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		label:    lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:    lipgloss.NewStyle().Foreground(t.Text),
		selected: lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		hint:     lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		warn:     lipgloss.NewStyle().Foreground(t.Error),
		graph:    lipgloss.NewStyle().Foreground(t.Primary).Padding(1, 0),
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(46),
		star: lipgloss.NewStyle().Foreground(t.Star),
		help: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Primary).
			Padding(1, 2),
	}
}

// bodyStyle colors a label with the body's own hex color.
func bodyStyle(hex string, fallback lipgloss.Color) lipgloss.Style {
	if len(hex) != 7 || hex[0] != '#' {
		return lipgloss.NewStyle().Foreground(fallback)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(strings.ToLower(hex)))
}

// GradientText creates a gradient effect on text using color interpolation
func GradientText(text string, startColor, endColor lipgloss.Color) string {
	if len(text) == 0 {
		return ""
	}

	sr, sg, sb := parseHex(string(startColor))
	er, eg, eb := parseHex(string(endColor))

	var result strings.Builder
	n := len(text)

	for i, c := range text {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		r := int(float64(sr) + t*float64(er-sr))
		g := int(float64(sg) + t*float64(eg-sg))
		b := int(float64(sb) + t*float64(eb-sb))

		style := lipgloss.NewStyle().Foreground(lipgloss.Color(hexColor(r, g, b)))
		result.WriteString(style.Render(string(c)))
	}

	return result.String()
}

// SpeedBar renders a log-ish bar for a speed scale: 1x fills a third.
func SpeedBar(scale float64, width int, t Theme) string {
	frac := 0.0
	switch {
	case scale <= 0:
		frac = 0
	case scale <= 1:
		frac = scale / 3
	default:
		frac = 1.0/3 + (scale-1)/(3*4.5)
	}
	filled := int(frac * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return lipgloss.NewStyle().Foreground(t.Primary).Render(bar)
}

func parseHex(hex string) (r, g, b int) {
	if len(hex) != 7 || hex[0] != '#' {
		return 255, 255, 255
	}
	r = parseHexByte(hex[1:3])
	g = parseHexByte(hex[3:5])
	b = parseHexByte(hex[5:7])
	return
}

func parseHexByte(s string) int {
	var val int
	for _, c := range s {
		val *= 16
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'a' && c <= 'f':
			val += int(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			val += int(c - 'A' + 10)
		}
	}
	return val
}

func hexColor(r, g, b int) string {
	return "#" + hexByte(r) + hexByte(g) + hexByte(b)
}

func hexByte(v int) string {
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	const hex = "0123456789abcdef"
	return string(hex[v/16]) + string(hex[v%16])
}
