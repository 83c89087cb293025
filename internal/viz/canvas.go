package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Label is text drawn over the braille grid starting at a cell.
type Label struct {
	Col, Row int
	Text     string
	Style    lipgloss.Style
}

// Canvas is a braille pixel grid of Width x Height cells, each holding 2x4
// sub-pixels, plus an optional text overlay.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	labels        []Label
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h}
	c.Resize(w, h)
	return c
}

// Resize reallocates the grid and clears it.
func (c *Canvas) Resize(w, h int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	c.Width, c.Height = w, h
	c.Grid = make([][]rune, h)
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
}

// PixelSize returns the canvas size in sub-pixels.
func (c *Canvas) PixelSize() (int, int) { return c.Width * 2, c.Height * 4 }

// Set sets a pixel at (x, y) in sub-pixel coordinates.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether the pixel at (x, y) is on.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
	c.labels = c.labels[:0]
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// FillCircle sets every pixel within r of (cx, cy). A radius below one
// still sets the centre.
func (c *Canvas) FillCircle(cx, cy, r int) {
	if r < 1 {
		c.Set(cx, cy)
		return
	}
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				c.Set(cx+dx, cy+dy)
			}
		}
	}
}

// AddLabel queues text to be drawn over the cell containing sub-pixel
// (x, y), one cell to the right.
func (c *Canvas) AddLabel(x, y int, text string, style lipgloss.Style) {
	col, row := x/2+1, y/4
	if row < 0 || row >= c.Height || col < 0 || col >= c.Width {
		return
	}
	c.labels = append(c.labels, Label{Col: col, Row: row, Text: text, Style: style})
}

func (c *Canvas) String() string {
	byRow := make(map[int][]Label)
	for _, l := range c.labels {
		byRow[l.Row] = append(byRow[l.Row], l)
	}

	var b strings.Builder
	for r, row := range c.Grid {
		labels := byRow[r]
		if len(labels) == 0 {
			b.WriteString(string(row) + "\n")
			continue
		}
		for col := 0; col < len(row); {
			if l, ok := labelAt(labels, col); ok {
				text := []rune(l.Text)
				if len(text) > len(row)-col {
					text = text[:len(row)-col]
				}
				b.WriteString(l.Style.Render(string(text)))
				col += len(text)
				continue
			}
			b.WriteRune(row[col])
			col++
		}
		b.WriteString("\n")
	}
	return b.String()
}

func labelAt(labels []Label, col int) (Label, bool) {
	for _, l := range labels {
		if l.Col == col {
			return l, true
		}
	}
	return Label{}, false
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
