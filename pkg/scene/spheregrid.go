package scene

import (
	"github.com/chewxy/math32"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
)

// oklchToRGB converts OKLCH color values to RGB
// L: lightness (0-1), C: chroma (0-0.4+), H: hue (0-360 degrees)
func oklchToRGB(l, c, h float32) core.Color {
	hRad := h * math32.Pi / 180.0

	// OKLCH to OKLAB
	a := c * math32.Cos(hRad)
	b := c * math32.Sin(hRad)

	// OKLAB to LMS
	l_ := l + 0.3963377774*a + 0.2158037573*b
	m_ := l - 0.1055613458*a - 0.0638541728*b
	s_ := l - 0.0894841775*a - 1.2914855480*b

	l_ = l_ * l_ * l_
	m_ = m_ * m_ * m_
	s_ = s_ * s_ * s_

	// LMS to linear RGB
	r := +4.0767416621*l_ - 3.3077115913*m_ + 0.2309699292*s_
	g := -1.2684380046*l_ + 2.6097574011*m_ - 0.3413193965*s_
	blue := -0.0041960863*l_ - 0.7034186147*m_ + 1.7076147010*s_

	return core.NewColor(clamp01(r), clamp01(g), clamp01(blue))
}

func clamp01(x float32) float32 {
	return math32.Max(0, math32.Min(1, x))
}

// NewSphereGridScene creates a grid of metal spheres sweeping hue across X,
// chroma across Z, and roughness along the diagonals
func NewSphereGridScene(gridSize int, cameraOverrides ...geometry.CameraConfig) *Scene {
	if gridSize < 2 {
		gridSize = 2
	}

	defaultCameraConfig := geometry.CameraConfig{
		Center:      core.NewVec3(4.5, 6, 18),    // Back from the grid and above it
		LookAt:      core.NewVec3(4.5, 0.8, 4.5), // Center of the grid, slightly lower
		Up:          core.NewVec3(0, 1, 0),
		AspectRatio: 16.0 / 9.0,
		VFov:        40.0,
		Aperture:    0.02, // Small depth of field for some focus variation
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	s := &Scene{
		CameraConfig: cameraConfig,
		SamplingConfig: SamplingConfig{
			Width:           800,
			Height:          450,
			SamplesPerPixel: 100,
			MaxDepth:        40,
		},
	}

	// Ground sphere large enough to read as a plane at y=0
	ground := material.NewLambertian(core.NewColor(0.5, 0.5, 0.5))
	s.add(geometry.NewSphere(core.NewVec3(4.5, -10000, 4.5), 10000, ground))

	// Fit the grid into a roughly 9x9 area regardless of size
	targetArea := float32(9.0)
	spacing := targetArea / float32(gridSize-1)

	sphereRadius := spacing * 0.35
	sphereRadius = math32.Max(0.02, math32.Min(0.35, sphereRadius))

	baseLightness := float32(0.65)
	minChroma := float32(0.05)
	maxChroma := float32(0.25)

	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			x := float32(i)*spacing - targetArea/2.0 + 4.5
			z := float32(j)*spacing - targetArea/2.0 + 4.5
			position := core.NewVec3(x, sphereRadius, z)

			hue := (float32(i) / float32(gridSize-1)) * 360.0
			chroma := minChroma + (float32(j)/float32(gridSize-1))*(maxChroma-minChroma)
			lightness := baseLightness + 0.1*math32.Sin(float32(i+j)*0.5)

			roughness := 0.05 + 0.1*float32((i+j)%3)/2.0
			metal := material.NewMetal(oklchToRGB(lightness, chroma, hue), roughness)

			s.add(geometry.NewSphere(position, sphereRadius, metal))
		}
	}

	return s
}
