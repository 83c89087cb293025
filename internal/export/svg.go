// Package export writes static pictures of an orrery: the braille canvas as
// seen in the terminal, and a top-down orbit diagram built from a snapshot.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/orrery/internal/sim"
	"github.com/san-kum/orrery/internal/viz"
)

const background = "#0a0a0a"

// CanvasToSVG converts a braille canvas to SVG, one circle per lit dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64, color string) string {
	if canvas == nil {
		return ""
	}
	if color == "" {
		color = "#00ff00"
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="%s">
`, width, height, width, height, background, color)

	dotRadius := scale * 0.4
	pw, ph := canvas.PixelSize()
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// DiagramOptions controls OrbitDiagram.
type DiagramOptions struct {
	Size   int
	Orbits bool
	Labels bool
	// Trails holds one trail per body, in snapshot order. Missing or short
	// entries are skipped.
	Trails [][]mgl64.Vec3
}

// OrbitDiagram draws the snapshot from above: the star at the centre, one
// circle per orbit, each body at its current position and, when given, the
// trails as polylines. Body sizes are exaggerated so that small bodies
// stay visible.
func OrbitDiagram(snap sim.Snapshot, opts DiagramOptions) string {
	size := opts.Size
	if size <= 0 {
		size = 800
	}

	extent := 0.0
	for _, b := range snap.Bodies {
		extent = math.Max(extent, b.Distance+b.Radius)
	}
	if extent == 0 {
		extent = 1
	}
	half := float64(size) / 2
	scale := half / (extent * 1.1)
	toSVG := func(p mgl64.Vec3) (float64, float64) {
		return half + p.X()*scale, half + p.Z()*scale
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, size, size, size, size, background)

	if opts.Orbits {
		sb.WriteString(`<g fill="none" stroke="#333" stroke-width="1">` + "\n")
		for _, b := range snap.Bodies {
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", half, half, b.Distance*scale)
		}
		sb.WriteString("</g>\n")
	}

	for i, b := range snap.Bodies {
		if i >= len(opts.Trails) || len(opts.Trails[i]) < 2 {
			continue
		}
		writePath(&sb, opts.Trails[i], b.Color, toSVG)
	}

	starR := math.Max(snap.StarRadius*scale, 4)
	fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"#ffcc33\"/>\n", half, half, starR)

	for _, b := range snap.Bodies {
		x, y := toSVG(b.Position)
		r := math.Max(b.Radius*scale*2, 2.5)
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"%s\"/>\n", x, y, r, b.Color)
		if opts.Labels {
			fmt.Fprintf(&sb, "<text x=\"%.1f\" y=\"%.1f\" fill=\"#ccc\" font-family=\"monospace\" font-size=\"12\">%s</text>\n",
				x+r+3, y-r-3, escape(b.Name))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func writePath(sb *strings.Builder, points []mgl64.Vec3, color string, toSVG func(mgl64.Vec3) (float64, float64)) {
	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-opacity="0.5" stroke-width="1.5" d="M`, color)
	for i, p := range points {
		x, y := toSVG(p)
		if i == 0 {
			fmt.Fprintf(sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return escaper.Replace(s) }
