package geometry

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/df07/go-pathtracer/pkg/core"
)

// ErrDegenerateCamera is returned when a camera configuration cannot produce a valid basis
var ErrDegenerateCamera = errors.New("degenerate camera")

// CameraConfig contains all camera configuration parameters
type CameraConfig struct {
	Center      core.Vec3 // Eye position
	LookAt      core.Vec3 // Point the camera looks at; its distance sets the focus plane
	Up          core.Vec3 // Up direction
	VFov        float32   // Vertical field of view in degrees
	AspectRatio float32   // Width / height
	Aperture    float32   // Lens diameter, 0 for a pinhole camera
}

// DefaultCameraConfig returns a pinhole camera at the origin looking down -Z
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Center:      core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        90.0,
		AspectRatio: 16.0 / 9.0,
		Aperture:    0.0,
	}
}

// MergeCameraConfig returns base with every non-zero field of override applied
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	result := base
	zero := core.Vec3{}

	if override.Center != zero {
		result.Center = override.Center
	}
	if override.LookAt != zero {
		result.LookAt = override.LookAt
	}
	if override.Up != zero {
		result.Up = override.Up
	}
	if override.VFov != 0 {
		result.VFov = override.VFov
	}
	if override.AspectRatio != 0 {
		result.AspectRatio = override.AspectRatio
	}
	if override.Aperture != 0 {
		result.Aperture = override.Aperture
	}

	return result
}

// Camera generates rays for rendering. It is immutable once constructed;
// changing any input means building a new camera.
type Camera struct {
	config CameraConfig

	origin       core.Vec3
	vpCenter     core.Vec3 // viewport center relative to origin, on the focus plane
	vpHorizontal core.Vec3
	vpVertical   core.Vec3

	right      core.Vec3
	up         core.Vec3
	forward    core.Vec3
	lensRadius float32
}

// NewCamera derives the viewport basis from the configuration
func NewCamera(config CameraConfig) (*Camera, error) {
	if config.AspectRatio <= 0 || math32.IsNaN(config.AspectRatio) {
		return nil, fmt.Errorf("%w: aspect ratio %v must be positive", ErrDegenerateCamera, config.AspectRatio)
	}
	if !(config.VFov > 0 && config.VFov < 180) {
		return nil, fmt.Errorf("%w: vertical fov %v must be in (0, 180)", ErrDegenerateCamera, config.VFov)
	}
	if config.Aperture < 0 {
		return nil, fmt.Errorf("%w: aperture %v is negative", ErrDegenerateCamera, config.Aperture)
	}

	view := config.LookAt.Subtract(config.Center)
	focusDistance := view.Length()
	if focusDistance == 0 {
		return nil, fmt.Errorf("%w: eye and look-at point coincide", ErrDegenerateCamera)
	}
	forward := view.Normalize()

	right := forward.Cross(config.Up)
	if right.NearZero() {
		return nil, fmt.Errorf("%w: up vector %v is parallel to view direction", ErrDegenerateCamera, config.Up)
	}
	right = right.Normalize()
	up := right.Cross(forward)

	theta := config.VFov * math32.Pi / 180
	h := math32.Tan(theta / 2)
	viewportHeight := 2 * h
	viewportWidth := config.AspectRatio * viewportHeight

	return &Camera{
		config:       config,
		origin:       config.Center,
		vpCenter:     forward.Multiply(focusDistance),
		vpHorizontal: right.Multiply(focusDistance * viewportWidth),
		vpVertical:   up.Multiply(focusDistance * viewportHeight),
		right:        right,
		up:           up,
		forward:      forward,
		lensRadius:   config.Aperture / 2,
	}, nil
}

// GetRay generates a ray for normalized image coordinates (u, v), where
// (0.5, 0.5) is the image center and v grows upward
func (c *Camera) GetRay(u, v float32, sampler core.Sampler) core.Ray {
	direction := c.vpCenter.
		Add(c.vpHorizontal.Multiply(u - 0.5)).
		Add(c.vpVertical.Multiply(v - 0.5))

	if c.lensRadius <= 0 {
		return core.NewRay(c.origin, direction)
	}

	// Offset the origin across the lens and re-aim at the same focus-plane point
	rd := core.RandomInUnitDisk(sampler).Multiply(c.lensRadius)
	offset := c.right.Multiply(rd.X).Add(c.up.Multiply(rd.Y))

	return core.NewRay(c.origin.Add(offset), direction.Subtract(offset))
}

// GetCameraForward returns the unit view direction
func (c *Camera) GetCameraForward() core.Vec3 {
	return c.forward
}

// Config returns the configuration the camera was built from
func (c *Camera) Config() CameraConfig {
	return c.config
}
