package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/orrery/internal/picking"
	"github.com/san-kum/orrery/internal/scene"
)

const (
	controlDamping = 0.85
	nudgeStep      = 0.02
	minPolar       = 0.05
	minDistance    = 2.0
)

// OrbitControls orbits the camera around its target with damped angular
// velocity, the way a mouse-driven orbit camera would. Keys add impulses.
type OrbitControls struct {
	speed    float64
	yawVel   float64
	pitchVel float64

	get func() picking.Camera
	set func(picking.Camera)
}

var _ scene.CameraControls = (*OrbitControls)(nil)

func NewOrbitControls() *OrbitControls { return &OrbitControls{speed: 1} }

// Attach binds the controls to the camera they drive.
func (o *OrbitControls) Attach(get func() picking.Camera, set func(picking.Camera)) {
	o.get, o.set = get, set
}

// Focus stops any residual motion; the picker already moved the camera.
func (o *OrbitControls) Focus(target, position mgl64.Vec3) {
	o.yawVel, o.pitchVel = 0, 0
}

func (o *OrbitControls) SetSpeed(speed float64) { o.speed = speed }
func (o *OrbitControls) Speed() float64         { return o.speed }

// Nudge adds angular velocity, scaled by the camera speed.
func (o *OrbitControls) Nudge(yaw, pitch float64) {
	o.yawVel += yaw * nudgeStep * o.speed
	o.pitchVel += pitch * nudgeStep * o.speed
}

// Dolly scales the eye's distance from the target by factor.
func (o *OrbitControls) Dolly(factor float64) {
	if o.get == nil || factor <= 0 {
		return
	}
	cam := o.get()
	offset := cam.Eye.Sub(cam.Target).Mul(factor)
	if offset.Len() < minDistance {
		offset = offset.Normalize().Mul(minDistance)
	}
	cam.Eye = cam.Target.Add(offset)
	o.set(cam)
}

// Update applies and damps the pending rotation.
func (o *OrbitControls) Update() {
	if o.get == nil || (o.yawVel == 0 && o.pitchVel == 0) {
		return
	}
	cam := o.get()
	cam.Eye = cam.Target.Add(orbitOffset(cam.Eye.Sub(cam.Target), cam.Up, o.yawVel, o.pitchVel))
	o.set(cam)

	o.yawVel *= controlDamping
	o.pitchVel *= controlDamping
	if math.Abs(o.yawVel) < 1e-5 {
		o.yawVel = 0
	}
	if math.Abs(o.pitchVel) < 1e-5 {
		o.pitchVel = 0
	}
}

// orbitOffset rotates offset by yaw about up, then by pitch towards up,
// keeping clear of the poles.
func orbitOffset(offset, up mgl64.Vec3, yaw, pitch float64) mgl64.Vec3 {
	offset = mgl64.QuatRotate(yaw, up).Rotate(offset)

	polar := math.Acos(mgl64.Clamp(offset.Normalize().Dot(up.Normalize()), -1, 1))
	next := mgl64.Clamp(polar-pitch, minPolar, math.Pi-minPolar)
	right := offset.Cross(up)
	if right.Len() == 0 {
		return offset
	}
	return mgl64.QuatRotate(polar-next, right.Normalize()).Rotate(offset)
}
