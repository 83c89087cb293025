package picking

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera mirrors the host's perspective camera. Picking only needs its
// matrices; the host stays the owner.
type Camera struct {
	Eye, Target, Up mgl64.Vec3
	FovY            float64 // degrees
	Aspect          float64
	Near, Far       float64
}

// DefaultCamera looks at the star from above and behind the orbital plane.
func DefaultCamera(aspect float64) Camera {
	if aspect <= 0 {
		aspect = 1
	}
	return Camera{
		Eye:    mgl64.Vec3{0, 50, 100},
		Target: mgl64.Vec3{0, 0, 0},
		Up:     mgl64.Vec3{0, 1, 0},
		FovY:   75,
		Aspect: aspect,
		Near:   0.1,
		Far:    10000,
	}
}

func (c Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Eye, c.Target, c.Up)
}

func (c Camera) Projection() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
}

// Ray returns the world-space ray through a point in normalized device
// coordinates ([-1,1] on both axes, y up).
func (c Camera) Ray(ndc mgl64.Vec2) Ray {
	inv := c.Projection().Mul4(c.View()).Inv()
	near := unproject(inv, mgl64.Vec3{ndc.X(), ndc.Y(), -1})
	far := unproject(inv, mgl64.Vec3{ndc.X(), ndc.Y(), 1})
	return Ray{Origin: near, Dir: far.Sub(near).Normalize()}
}

// Project maps a world point to NDC. visible is false for points behind the
// camera or outside the view volume.
func (c Camera) Project(p mgl64.Vec3) (ndc mgl64.Vec2, depth float64, visible bool) {
	clip := c.Projection().Mul4(c.View()).Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return mgl64.Vec2{}, 0, false
	}
	x, y, z := clip.X()/clip.W(), clip.Y()/clip.W(), clip.Z()/clip.W()
	visible = x >= -1 && x <= 1 && y >= -1 && y <= 1 && z >= -1 && z <= 1
	return mgl64.Vec2{x, y}, z, visible
}

func unproject(inv mgl64.Mat4, ndc mgl64.Vec3) mgl64.Vec3 {
	v := inv.Mul4x1(ndc.Vec4(1))
	return v.Vec3().Mul(1 / v.W())
}

// NDC converts a viewport pixel position to normalized device coordinates.
func NDC(x, y, width, height float64) mgl64.Vec2 {
	if width <= 0 || height <= 0 {
		return mgl64.Vec2{}
	}
	return mgl64.Vec2{x/width*2 - 1, -(y/height)*2 + 1}
}

// Ray is a half-line with a unit direction.
type Ray struct {
	Origin mgl64.Vec3
	Dir    mgl64.Vec3
}

// At returns the point at parameter t.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// IntersectSphere returns the smallest non-negative t at which the ray meets
// the sphere.
func (r Ray) IntersectSphere(center mgl64.Vec3, radius float64) (float64, bool) {
	oc := r.Origin.Sub(center)
	b := oc.Dot(r.Dir)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t := -b - sq
	if t < 0 {
		t = -b + sq
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}
