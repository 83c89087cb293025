// Package scene declares what the simulation core needs from the rendering
// side and ships inert implementations for headless hosts and tests.
package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/orrery/internal/logging"
	"github.com/san-kum/orrery/internal/orbit"
)

// ErrCollaboratorInit marks a collaborator that failed to start. Callers
// recover by substituting a no-op.
var ErrCollaboratorInit = errors.New("scene: collaborator failed to initialize")

// Layer is a toggleable group of scene objects.
type Layer int

const (
	LayerOrbits Layer = iota
	LayerLabels
	LayerStars
	LayerTrails
)

func (l Layer) String() string {
	return [...]string{"orbits", "labels", "stars", "trails"}[l]
}

// Renderer receives everything the core writes each frame.
type Renderer interface {
	SetBodyTransform(index int, position mgl64.Vec3, rotation float64)
	SetEffectRotation(index, effect int, axis orbit.Axis, rotation float64)
	SetStarRotation(rotation float64)
	SetShaderTime(t float64)
	SetTrail(index int, points []mgl64.Vec3)
	SetLayerVisible(layer Layer, visible bool)
	// SetBodyRadius asks the renderer to rebuild a body's geometry; the
	// renderer owns disposal of the old resources.
	SetBodyRadius(index int, radius float64)
	SetStarRadius(radius float64)
	SetPixelRatio(ratio float64)
}

// CameraControls is the orbit-camera collaborator.
type CameraControls interface {
	Focus(target, position mgl64.Vec3)
	SetSpeed(speed float64)
	Update()
}

// HoverListener is told when the hovered body changes. A nil body means
// nothing is hovered.
type HoverListener interface {
	Hovered(body *orbit.Body)
}

type NopRenderer struct{}

func (NopRenderer) SetBodyTransform(int, mgl64.Vec3, float64)       {}
func (NopRenderer) SetEffectRotation(int, int, orbit.Axis, float64) {}
func (NopRenderer) SetStarRotation(float64)                         {}
func (NopRenderer) SetShaderTime(float64)                           {}
func (NopRenderer) SetTrail(int, []mgl64.Vec3)                      {}
func (NopRenderer) SetLayerVisible(Layer, bool)                     {}
func (NopRenderer) SetBodyRadius(int, float64)                      {}
func (NopRenderer) SetStarRadius(float64)                           {}
func (NopRenderer) SetPixelRatio(float64)                           {}

// NopCameraControls keeps the controls interface shape with no behaviour.
// It still remembers the last speed so callers reading it back see a sane
// value.
type NopCameraControls struct {
	Speed float64
}

func (*NopCameraControls) Focus(mgl64.Vec3, mgl64.Vec3) {}
func (n *NopCameraControls) SetSpeed(s float64)         { n.Speed = s }
func (*NopCameraControls) Update()                      {}

type NopHoverListener struct{}

func (NopHoverListener) Hovered(*orbit.Body) {}

// NewCameraControls runs factory and falls back to NopCameraControls when it
// fails or panics. The returned error, if any, wraps ErrCollaboratorInit and
// is informational only.
func NewCameraControls(factory func() (CameraControls, error), log *logging.Logger) (controls CameraControls, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: camera controls panicked: %v", ErrCollaboratorInit, r)
			log.Error("camera controls unavailable, using inert controls: %v", err)
			controls = &NopCameraControls{Speed: 1}
		}
	}()

	if factory == nil {
		return &NopCameraControls{Speed: 1}, nil
	}
	c, ferr := factory()
	if ferr != nil || c == nil {
		if ferr == nil {
			ferr = errors.New("factory returned nil")
		}
		err = fmt.Errorf("%w: camera controls: %v", ErrCollaboratorInit, ferr)
		log.Error("camera controls unavailable, using inert controls: %v", err)
		return &NopCameraControls{Speed: 1}, err
	}
	log.Debug("camera controls initialized")
	return c, nil
}
