// Package picking resolves pointer positions to bodies and turns clicks into
// camera focus requests.
package picking

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/orrery/internal/orbit"
	"github.com/san-kum/orrery/internal/scene"
)

// FocusHeight and FocusPullback place the camera above and behind a focused
// body.
const (
	FocusHeight   = 10.0
	FocusPullback = 1.5
)

// HoverResult is the outcome of one Pick.
type HoverResult struct {
	Body     *orbit.Body // nil when nothing is under the pointer
	T        float64
	Previous *orbit.Body
	Changed  bool
}

// None reports whether nothing was hit.
func (h HoverResult) None() bool { return h.Body == nil }

// FocusRequest is sent to the camera controls on activation.
type FocusRequest struct {
	Body     *orbit.Body
	Target   mgl64.Vec3
	Position mgl64.Vec3
}

// Picker owns the hover state.
type Picker struct {
	camera    Camera
	realistic bool
	hovered   *orbit.Body
	controls  scene.CameraControls
	listener  scene.HoverListener
}

// New returns a picker. Nil collaborators are replaced by no-ops.
func New(camera Camera, controls scene.CameraControls, listener scene.HoverListener) *Picker {
	if controls == nil {
		controls = &scene.NopCameraControls{Speed: 1}
	}
	if listener == nil {
		listener = scene.NopHoverListener{}
	}
	return &Picker{camera: camera, controls: controls, listener: listener}
}

func (p *Picker) Camera() Camera           { return p.camera }
func (p *Picker) SetCamera(c Camera)       { p.camera = c }
func (p *Picker) SetRealisticSizes(b bool) { p.realistic = b }
func (p *Picker) Hovered() *orbit.Body     { return p.hovered }

// Pick casts a ray through ndc and hovers the nearest body it hits. The
// hover state moves directly from the old body to the new one.
func (p *Picker) Pick(ndc mgl64.Vec2, bodies []*orbit.Body) HoverResult {
	ray := p.camera.Ray(ndc)

	var hit *orbit.Body
	best := 0.0
	for _, b := range bodies {
		t, ok := ray.IntersectSphere(b.Position(), b.DisplayRadius(p.realistic))
		if ok && (hit == nil || t < best) {
			hit, best = b, t
		}
	}

	res := HoverResult{Body: hit, T: best, Previous: p.hovered, Changed: hit != p.hovered}
	p.hovered = hit
	if res.Changed {
		p.listener.Hovered(hit)
	}
	return res
}

// Clear drops the hover, as when the pointer leaves the viewport.
func (p *Picker) Clear() {
	if p.hovered != nil {
		p.hovered = nil
		p.listener.Hovered(nil)
	}
}

// Activate focuses the camera on the hovered body. It reports false and does
// nothing when no body is hovered.
func (p *Picker) Activate() (FocusRequest, bool) {
	if p.hovered == nil {
		return FocusRequest{}, false
	}
	target := p.hovered.Position()
	position := target.Add(mgl64.Vec3{0, FocusHeight, 0}).Mul(FocusPullback)

	p.controls.Focus(target, position)
	p.camera.Eye = position
	p.camera.Target = target
	return FocusRequest{Body: p.hovered, Target: target, Position: position}, true
}
