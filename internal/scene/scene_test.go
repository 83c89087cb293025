package scene

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/orrery/internal/logging"
)

type recordingControls struct {
	focused mgl64.Vec3
}

func (r *recordingControls) Focus(target, _ mgl64.Vec3) { r.focused = target }
func (r *recordingControls) SetSpeed(float64)           {}
func (r *recordingControls) Update()                    {}

func TestNewCameraControls(t *testing.T) {
	log := logging.Discard()

	tests := []struct {
		name    string
		factory func() (CameraControls, error)
		wantNop bool
		wantErr bool
	}{
		{"nil factory", nil, true, false},
		{"ok", func() (CameraControls, error) { return &recordingControls{}, nil }, false, false},
		{"error", func() (CameraControls, error) { return nil, errors.New("no canvas") }, true, true},
		{"nil controls", func() (CameraControls, error) { return nil, nil }, true, true},
		{"panic", func() (CameraControls, error) { panic("boom") }, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCameraControls(tt.factory, log)
			if c == nil {
				t.Fatal("controls must never be nil")
			}
			_, isNop := c.(*NopCameraControls)
			if isNop != tt.wantNop {
				t.Errorf("nop = %v, want %v", isNop, tt.wantNop)
			}
			if tt.wantErr && !errors.Is(err, ErrCollaboratorInit) {
				t.Errorf("err = %v, want ErrCollaboratorInit", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected err %v", err)
			}

			c.SetSpeed(2)
			c.Focus(mgl64.Vec3{}, mgl64.Vec3{})
			c.Update()
		})
	}
}

func TestLayerString(t *testing.T) {
	if LayerTrails.String() != "trails" || LayerOrbits.String() != "orbits" {
		t.Errorf("unexpected names %s %s", LayerTrails, LayerOrbits)
	}
}
