package picking

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/orrery/internal/orbit"
)

type focusRecorder struct {
	calls            int
	target, position mgl64.Vec3
}

func (f *focusRecorder) Focus(target, position mgl64.Vec3) {
	f.calls++
	f.target, f.position = target, position
}
func (f *focusRecorder) SetSpeed(float64) {}
func (f *focusRecorder) Update()          {}

type hoverRecorder struct{ seen []*orbit.Body }

func (h *hoverRecorder) Hovered(b *orbit.Body) { h.seen = append(h.seen, b) }

func planets() []*orbit.Body {
	return []*orbit.Body{
		{Name: "Mercury", Index: 0, Distance: 15, Angle: 0.3, Radius: 0.38, RealisticRadius: 0.1},
		{Name: "Earth", Index: 1, Distance: 30, Angle: 2.1, Radius: 1.0, RealisticRadius: 0.25},
		{Name: "Jupiter", Index: 2, Distance: 70, Angle: 4.0, Radius: 2.5, RealisticRadius: 2.8},
	}
}

func TestPickThroughCenter(t *testing.T) {
	cam := DefaultCamera(16.0 / 9.0)
	bodies := planets()

	for _, realistic := range []bool{false, true} {
		p := New(cam, nil, nil)
		p.SetRealisticSizes(realistic)
		for _, b := range bodies {
			ndc, _, visible := cam.Project(b.Position())
			if !visible {
				t.Fatalf("%s not visible from default camera", b.Name)
			}
			res := p.Pick(ndc, bodies)
			if res.Body != b {
				t.Errorf("realistic=%v: pick through %s center hit %v", realistic, b.Name, res.Body)
			}
		}
	}
}

func TestPickMiss(t *testing.T) {
	p := New(DefaultCamera(1), nil, nil)
	res := p.Pick(mgl64.Vec2{0.99, 0.99}, planets())
	if !res.None() {
		t.Errorf("expected no hit, got %s", res.Body.Name)
	}
	if res.Changed {
		t.Error("none -> none is not a transition")
	}
}

func TestPickNearestWins(t *testing.T) {
	cam := Camera{
		Eye: mgl64.Vec3{0, 0, 100}, Up: mgl64.Vec3{0, 1, 0},
		FovY: 60, Aspect: 1, Near: 0.1, Far: 1000,
	}
	far := &orbit.Body{Name: "far", Distance: 10, Angle: math.Pi / 2, Radius: 2}
	near := &orbit.Body{Name: "near", Distance: 30, Angle: math.Pi / 2, Radius: 1}

	res := New(cam, nil, nil).Pick(mgl64.Vec2{0, 0}, []*orbit.Body{far, near})
	if res.Body != near {
		t.Fatalf("expected near body, got %v", res.Body)
	}
	// The ray starts on the near plane, 0.1 in front of the eye.
	if math.Abs(res.T-68.9) > 1e-4 {
		t.Errorf("t = %v, want 68.9", res.T)
	}
}

func TestHoverTransitions(t *testing.T) {
	cam := DefaultCamera(1)
	bodies := planets()
	listener := &hoverRecorder{}
	p := New(cam, nil, listener)

	at := func(b *orbit.Body) mgl64.Vec2 {
		ndc, _, _ := cam.Project(b.Position())
		return ndc
	}

	r1 := p.Pick(at(bodies[0]), bodies)
	r2 := p.Pick(at(bodies[0]), bodies)
	r3 := p.Pick(at(bodies[2]), bodies)
	r4 := p.Pick(mgl64.Vec2{0.99, 0.99}, bodies)

	if !r1.Changed || r1.Previous != nil {
		t.Errorf("none -> Mercury: %+v", r1)
	}
	if r2.Changed {
		t.Error("Mercury -> Mercury should not be a transition")
	}
	if !r3.Changed || r3.Previous != bodies[0] || r3.Body != bodies[2] {
		t.Errorf("Mercury -> Jupiter: %+v", r3)
	}
	if !r4.Changed || r4.Body != nil {
		t.Errorf("Jupiter -> none: %+v", r4)
	}

	want := []*orbit.Body{bodies[0], bodies[2], nil}
	if len(listener.seen) != len(want) {
		t.Fatalf("listener saw %d events, want %d", len(listener.seen), len(want))
	}
	for i := range want {
		if listener.seen[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, listener.seen[i], want[i])
		}
	}
}

func TestActivate(t *testing.T) {
	cam := DefaultCamera(1)
	bodies := planets()
	controls := &focusRecorder{}
	p := New(cam, controls, nil)

	if _, ok := p.Activate(); ok || controls.calls != 0 {
		t.Fatal("activate with nothing hovered must be a no-op")
	}

	earth := bodies[1]
	ndc, _, _ := cam.Project(earth.Position())
	p.Pick(ndc, bodies)

	req, ok := p.Activate()
	if !ok || req.Body != earth {
		t.Fatalf("Activate() = %+v, %v", req, ok)
	}
	pos := earth.Position()
	want := mgl64.Vec3{pos.X() * 1.5, 15, pos.Z() * 1.5}
	if !req.Position.ApproxEqual(want) || !controls.position.ApproxEqual(want) {
		t.Errorf("camera position = %v, want %v", req.Position, want)
	}
	if controls.target != pos || controls.calls != 1 {
		t.Errorf("focus target = %v (calls %d)", controls.target, controls.calls)
	}
	if p.Camera().Eye != req.Position {
		t.Error("picker camera should follow the focus request")
	}
}

func TestNDC(t *testing.T) {
	tests := []struct {
		x, y, w, h float64
		want       mgl64.Vec2
	}{
		{0, 0, 800, 600, mgl64.Vec2{-1, 1}},
		{800, 600, 800, 600, mgl64.Vec2{1, -1}},
		{400, 300, 800, 600, mgl64.Vec2{0, 0}},
		{10, 10, 0, 600, mgl64.Vec2{0, 0}},
	}

	for _, tt := range tests {
		if got := NDC(tt.x, tt.y, tt.w, tt.h); !got.ApproxEqual(tt.want) {
			t.Errorf("NDC(%v,%v,%v,%v) = %v, want %v", tt.x, tt.y, tt.w, tt.h, got, tt.want)
		}
	}
}

func TestRayIntersectSphere(t *testing.T) {
	r := Ray{Origin: mgl64.Vec3{0, 0, 0}, Dir: mgl64.Vec3{1, 0, 0}}

	if tHit, ok := r.IntersectSphere(mgl64.Vec3{10, 0, 0}, 2); !ok || math.Abs(tHit-8) > 1e-12 {
		t.Errorf("front hit = %v, %v", tHit, ok)
	}
	if tHit, ok := r.IntersectSphere(mgl64.Vec3{0, 0, 0}, 3); !ok || math.Abs(tHit-3) > 1e-12 {
		t.Errorf("inside hit = %v, %v", tHit, ok)
	}
	if _, ok := r.IntersectSphere(mgl64.Vec3{-10, 0, 0}, 2); ok {
		t.Error("sphere behind the origin should miss")
	}
	if _, ok := r.IntersectSphere(mgl64.Vec3{10, 5, 0}, 2); ok {
		t.Error("offset sphere should miss")
	}
}
