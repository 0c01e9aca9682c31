// Package viewer holds the window-independent parts of the viewer: the
// active model with its swap rules and the mapping from input to camera
// motion and actions.
package viewer

import (
	"errors"
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/model-viewer/internal/engine/model"
	"github.com/Faultbox/model-viewer/internal/engine/renderer"
	"github.com/Faultbox/model-viewer/internal/logger"
	"github.com/Faultbox/model-viewer/pkg/math"
)

// Loader imports a model file.
type Loader func(path string) (*model.Model, error)

// Uploader moves models to and from the GPU.
type Uploader interface {
	Upload(m *model.Model) (*renderer.Model, error)
	Release(gm *renderer.Model)
}

// ErrNoPath is returned when a swap is requested without a file.
var ErrNoPath = errors.New("no model path")

// Session owns the active model. A swap either fully replaces it or
// leaves it untouched.
type Session struct {
	load     Loader
	uploader Uploader

	normalize bool
	fitSize   float32

	active *renderer.Model
	log    *zap.Logger
}

// SessionConfig controls how loaded models are placed.
type SessionConfig struct {
	// Normalize centers the model and scales its largest side to FitSize.
	Normalize bool
	FitSize   float32
}

// NewSession creates a session with no active model.
func NewSession(load Loader, uploader Uploader, cfg SessionConfig) *Session {
	if cfg.FitSize <= 0 {
		cfg.FitSize = 2
	}
	return &Session{
		load:      load,
		uploader:  uploader,
		normalize: cfg.Normalize,
		fitSize:   cfg.FitSize,
		log:       logger.Named("session"),
	}
}

// Open loads path and makes it the active model. The previous model is
// released only after the new one is fully uploaded; on any error it
// stays active and the error is returned for the caller to report.
func (s *Session) Open(path string) error {
	if path == "" {
		return ErrNoPath
	}

	m, err := s.load(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	gm, err := s.uploader.Upload(m)
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}

	old := s.active
	s.active = gm
	if old != nil {
		s.uploader.Release(old)
	}

	vertices, triangles := m.Stats()
	s.log.Info("model loaded",
		zap.String("path", path),
		zap.Int("meshes", len(m.Meshes)),
		zap.Int("vertices", vertices),
		zap.Int("triangles", triangles),
	)
	return nil
}

// Active returns the active model, or nil before the first successful Open.
func (s *Session) Active() *renderer.Model {
	return s.active
}

// Path returns the file of the active model.
func (s *Session) Path() string {
	if s.active == nil || s.active.Source == nil {
		return ""
	}
	return s.active.Source.Path
}

// Placement returns the model matrix that places the active model in the
// world before any spin.
func (s *Session) Placement() math.Mat4 {
	if s.active == nil || s.active.Source == nil || !s.normalize {
		return math.Identity()
	}
	return s.active.Source.Bounds.FitTransform(s.fitSize)
}

// Focus returns the world-space center and radius of the placed model.
func (s *Session) Focus() (center math.Vec3, radius float32) {
	if s.active == nil || s.active.Source == nil {
		return math.Vec3{}, 1
	}
	b := s.active.Source.Bounds
	if s.normalize {
		return math.Vec3{}, s.fitSize / 2
	}
	radius = b.MaxExtent() / 2
	if radius <= 0 {
		radius = 1
	}
	return b.Center(), radius
}

// Close releases the active model.
func (s *Session) Close() {
	if s.active != nil {
		s.uploader.Release(s.active)
		s.active = nil
	}
}

// FramePose returns a camera pose on the +Z side of center, looking down
// -Z, far enough back that a sphere of radius fits the vertical fov.
func FramePose(center math.Vec3, radius, fovDegrees float32) (position math.Vec3, yaw, pitch float32) {
	half := float64(math.Radians(fovDegrees)) / 2
	dist := float32(float64(radius)/gomath.Sin(half)) * 1.1
	return math.Vec3{X: center.X, Y: center.Y, Z: center.Z + dist}, -90, 0
}
