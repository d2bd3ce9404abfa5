package scene

import (
	"errors"
	"sync"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
)

// ErrSceneFrozen is returned when adding to a scene that has been handed to a renderer
var ErrSceneFrozen = errors.New("scene is frozen")

// Scene contains all the elements needed for rendering.
//
// Shapes are appended during setup. Freeze marks the hand-off to the
// renderer; after that the scene is read-only and Hit is safe to call from
// any number of goroutines without locking.
type Scene struct {
	CameraConfig   geometry.CameraConfig
	SamplingConfig SamplingConfig

	mu     sync.Mutex
	frozen bool
	world  geometry.HittableList
}

// SamplingConfig holds the render settings a scene suggests
type SamplingConfig struct {
	Width           int // Image width
	Height          int // Image height
	SamplesPerPixel int // Number of rays per pixel
	MaxDepth        int // Maximum ray bounce depth
}

// DefaultSamplingConfig returns the settings used when a scene does not specify any
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		Width:           400,
		Height:          225,
		SamplesPerPixel: 50,
		MaxDepth:        50,
	}
}

// NewScene creates an empty scene with the default camera and sampling settings
func NewScene() *Scene {
	return &Scene{
		CameraConfig:   geometry.DefaultCameraConfig(),
		SamplingConfig: DefaultSamplingConfig(),
	}
}

// Add appends a shape. It fails once the scene has been frozen.
func (s *Scene) Add(shape geometry.Shape) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return ErrSceneFrozen
	}
	s.world.Add(shape)
	return nil
}

// Freeze makes the scene read-only. Calling it more than once is harmless.
func (s *Scene) Freeze() {
	s.mu.Lock()
	s.frozen = true
	s.mu.Unlock()
}

// Frozen reports whether the scene has been frozen
func (s *Scene) Frozen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frozen
}

// Len returns the number of shapes in the scene
func (s *Scene) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.world.Shapes)
}

// Shapes returns the shapes in insertion order. The slice must not be modified.
func (s *Scene) Shapes() []geometry.Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.Shapes
}

// Hit returns the nearest intersection among all shapes
func (s *Scene) Hit(ray core.Ray, tMin, tMax float32) (*material.HitRecord, bool) {
	return s.world.Hit(ray, tMin, tMax)
}

// Camera builds the camera described by the scene's camera configuration
func (s *Scene) Camera() (*geometry.Camera, error) {
	return geometry.NewCamera(s.CameraConfig)
}

// add appends during construction inside this package, before any hand-off
func (s *Scene) add(shapes ...geometry.Shape) {
	s.world.Shapes = append(s.world.Shapes, shapes...)
}
