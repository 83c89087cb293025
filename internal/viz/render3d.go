package viz

import (
	"math"
	"math/rand"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/orrery/internal/orbit"
	"github.com/san-kum/orrery/internal/picking"
	"github.com/san-kum/orrery/internal/scene"
)

const (
	orbitSegments = 96
	starfieldSize = 240
	// segments longer than this in NDC are off-screen enough to skip
	maxNDC = 4.0
)

// TermRenderer is the scene.Renderer of the terminal view. It keeps the
// latest state pushed by the simulation and rasterizes it onto a braille
// Canvas on demand.
type TermRenderer struct {
	positions  []mgl64.Vec3
	rotations  []float64
	radii      []float64
	distances  []float64
	trails     [][]mgl64.Vec3
	layers     [4]bool
	starRadius float64
	starSpin   float64
	shaderTime float64
	pixelRatio float64
	starfield  []mgl64.Vec3
}

var _ scene.Renderer = (*TermRenderer)(nil)

func NewTermRenderer() *TermRenderer {
	r := &TermRenderer{
		layers:     [4]bool{true, true, true, true},
		starRadius: orbit.StarRadius,
		pixelRatio: 1,
	}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < starfieldSize; i++ {
		dir := mgl64.Vec3{rng.NormFloat64(), rng.NormFloat64() * 0.6, rng.NormFloat64()}.Normalize()
		r.starfield = append(r.starfield, dir.Mul(2000+rng.Float64()*2000))
	}
	return r
}

func (r *TermRenderer) grow(index int) {
	for len(r.positions) <= index {
		r.positions = append(r.positions, mgl64.Vec3{})
		r.rotations = append(r.rotations, 0)
		r.radii = append(r.radii, 1)
		r.distances = append(r.distances, 0)
		r.trails = append(r.trails, nil)
	}
}

func (r *TermRenderer) SetBodyTransform(index int, position mgl64.Vec3, rotation float64) {
	r.grow(index)
	r.positions[index] = position
	r.rotations[index] = rotation
	r.distances[index] = math.Hypot(position.X(), position.Z())
}

// Effect shells have no terminal representation.
func (r *TermRenderer) SetEffectRotation(int, int, orbit.Axis, float64) {}

func (r *TermRenderer) SetStarRotation(rotation float64) { r.starSpin = rotation }
func (r *TermRenderer) SetShaderTime(t float64)          { r.shaderTime = t }

func (r *TermRenderer) SetTrail(index int, points []mgl64.Vec3) {
	r.grow(index)
	r.trails[index] = append(r.trails[index][:0], points...)
}

func (r *TermRenderer) SetLayerVisible(layer scene.Layer, visible bool) {
	if int(layer) < len(r.layers) {
		r.layers[layer] = visible
	}
}

func (r *TermRenderer) SetBodyRadius(index int, radius float64) {
	r.grow(index)
	r.radii[index] = radius
}

func (r *TermRenderer) SetStarRadius(radius float64) { r.starRadius = radius }
func (r *TermRenderer) SetPixelRatio(ratio float64)  { r.pixelRatio = ratio }

// LayerVisible reports the last visibility pushed for layer.
func (r *TermRenderer) LayerVisible(layer scene.Layer) bool { return r.layers[layer] }

// PixelRatio reports the last pixel ratio pushed by the quality controller.
func (r *TermRenderer) PixelRatio() float64 { return r.pixelRatio }

// BodyLabel names and colors one body on the canvas.
type BodyLabel struct {
	Text  string
	Color string
}

type projector struct {
	viewProj mgl64.Mat4
	focal    float64
	w, h     float64
}

func newProjector(cam picking.Camera, c *Canvas) projector {
	w, h := c.PixelSize()
	proj := cam.Projection()
	return projector{
		viewProj: proj.Mul4(cam.View()),
		focal:    proj.At(1, 1),
		w:        float64(w),
		h:        float64(h),
	}
}

// project maps p to canvas sub-pixels. ok is false behind the camera.
func (p projector) project(v mgl64.Vec3) (x, y int, depth, clipW float64, ok bool) {
	clip := p.viewProj.Mul4x1(v.Vec4(1))
	if clip.W() <= 0 {
		return 0, 0, 0, 0, false
	}
	nx, ny := clip.X()/clip.W(), clip.Y()/clip.W()
	if math.Abs(nx) > maxNDC || math.Abs(ny) > maxNDC {
		return 0, 0, 0, 0, false
	}
	x = int((nx + 1) / 2 * p.w)
	y = int((1 - ny) / 2 * p.h)
	return x, y, clip.Z() / clip.W(), clip.W(), true
}

// radius returns the on-screen radius in sub-pixels of a sphere of world
// radius r at clip depth w.
func (p projector) radius(r, w float64) int {
	return int(math.Round(r * p.focal / w * p.h / 2))
}

type projectedBody struct {
	index int
	x, y  int
	depth float64
	r     int
}

// Draw rasterizes the scene as seen from cam. labels is indexed like the
// bodies and may be shorter.
func (r *TermRenderer) Draw(c *Canvas, cam picking.Camera, labels []BodyLabel, t Theme) {
	c.Clear()
	p := newProjector(cam, c)

	if r.layers[scene.LayerStars] {
		for i, s := range r.starfield {
			// a few stars twinkle with the shader clock
			if i%7 == 0 && math.Sin(r.shaderTime*3+float64(i)) < -0.6 {
				continue
			}
			if x, y, _, _, ok := p.project(s); ok {
				c.Set(x, y)
			}
		}
	}

	if r.layers[scene.LayerOrbits] {
		for i := range r.positions {
			r.drawOrbit(c, p, r.distances[i])
		}
	}

	if r.layers[scene.LayerTrails] {
		for _, tr := range r.trails {
			for _, pt := range tr {
				if x, y, _, _, ok := p.project(pt); ok {
					c.Set(x, y)
				}
			}
		}
	}

	if x, y, _, w, ok := p.project(mgl64.Vec3{}); ok {
		c.FillCircle(x, y, p.radius(r.starRadius, w))
	}

	bodies := make([]projectedBody, 0, len(r.positions))
	for i, pos := range r.positions {
		x, y, d, w, ok := p.project(pos)
		if !ok {
			continue
		}
		bodies = append(bodies, projectedBody{index: i, x: x, y: y, depth: d, r: p.radius(r.radii[i], w)})
	}
	// painter's order, far first
	sort.Slice(bodies, func(i, j int) bool { return bodies[i].depth > bodies[j].depth })
	for _, b := range bodies {
		c.FillCircle(b.x, b.y, b.r)
		if r.layers[scene.LayerLabels] && b.index < len(labels) {
			l := labels[b.index]
			c.AddLabel(b.x+b.r, b.y, l.Text, bodyStyle(l.Color, t.Text))
		}
	}
}

func (r *TermRenderer) drawOrbit(c *Canvas, p projector, dist float64) {
	if dist <= 0 {
		return
	}
	var px, py int
	have := false
	for k := 0; k <= orbitSegments; k++ {
		a := 2 * math.Pi * float64(k) / orbitSegments
		x, y, _, _, ok := p.project(mgl64.Vec3{math.Cos(a) * dist, 0, math.Sin(a) * dist})
		if ok && have {
			c.DrawLine(px, py, x, y)
		}
		px, py, have = x, y, ok
	}
}
