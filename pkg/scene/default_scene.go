package scene

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
)

// NewWeekendScene creates the random sphere field: a large ground sphere,
// a 22x22 grid of small randomly placed spheres, and three large spheres,
// one per material. The same seed always produces the same scene.
func NewWeekendScene(seed uint64, cameraOverrides ...geometry.CameraConfig) *Scene {
	eye := core.NewVec3(13, 2, 3)
	lookToward := core.NewVec3(0, 0, 0)

	defaultCameraConfig := geometry.CameraConfig{
		Center: eye,
		// Keep the look direction but move the look-at point to put focus at distance 10
		LookAt:      eye.Add(lookToward.Subtract(eye).Normalize().Multiply(10)),
		Up:          core.NewVec3(0, 1, 0),
		AspectRatio: 3.0 / 2.0,
		VFov:        20.0,
		Aperture:    0.1,
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	s := &Scene{
		CameraConfig: cameraConfig,
		SamplingConfig: SamplingConfig{
			Width:           600,
			Height:          400,
			SamplesPerPixel: 50,
			MaxDepth:        50,
		},
	}

	random := core.NewRandomSampler(seed)

	// ground
	groundMat := material.NewLambertian(core.NewColor(0.5, 0.5, 0.5))
	s.add(geometry.NewSphere(core.NewVec3(0, -1000, 0), 1000, groundMat))

	// little balls randomly strewn about
	clearing := core.NewVec3(4, 0.2, 0)
	for a := -11; a < 11; a++ {
		for b := -11; b < 11; b++ {
			chooseMat := random.Float32()
			center := core.NewVec3(
				float32(a)+0.9*random.Float32(),
				0.2,
				float32(b)+0.9*random.Float32(),
			)

			if center.Subtract(clearing).LengthSquared() <= 0.9*0.9 {
				continue
			}

			var mat material.Material
			switch {
			case chooseMat < 0.8:
				mat = material.NewLambertian(randomColor(random))
			case chooseMat < 0.95:
				albedo := randomColor(random)
				mat = material.NewMetal(albedo, random.Float32())
			default:
				mat = material.NewDielectric(1.5)
			}
			s.add(geometry.NewSphere(center, 0.2, mat))
		}
	}

	// the big balls
	s.add(
		geometry.NewSphere(core.NewVec3(0, 1, 0), 1.0, material.NewDielectric(1.5)),
		geometry.NewSphere(core.NewVec3(-4, 1, 0), 1.0, material.NewLambertian(core.NewColor(0.4, 0.2, 0.1))),
		geometry.NewSphere(core.NewVec3(4, 1, 0), 1.0, material.NewMetal(core.NewColor(0.7, 0.6, 0.5), 0.0)),
	)

	return s
}

// NewThreeSpheresScene creates a small scene with one sphere per material on a large ground sphere
func NewThreeSpheresScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	defaultCameraConfig := geometry.CameraConfig{
		Center:      core.NewVec3(0, 0.5, 2), // Slightly above the spheres
		LookAt:      core.NewVec3(0, 0, -1),  // Focus on the center sphere
		Up:          core.NewVec3(0, 1, 0),
		AspectRatio: 16.0 / 9.0,
		VFov:        40.0,
		Aperture:    0.05,
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	s := &Scene{
		CameraConfig: cameraConfig,
		SamplingConfig: SamplingConfig{
			Width:           400,
			Height:          225,
			SamplesPerPixel: 100,
			MaxDepth:        50,
		},
	}

	lambertianGround := material.NewLambertian(core.NewColor(0.8, 0.8, 0.0))
	lambertianBlue := material.NewLambertian(core.NewColor(0.1, 0.2, 0.5))
	glass := material.NewDielectric(1.5)
	metalGold := material.NewMetal(core.NewColor(0.8, 0.6, 0.2), 0.0)
	metalSilver := material.NewMetal(core.NewColor(0.8, 0.8, 0.8), 0.3)

	s.add(
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, lambertianGround),
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, lambertianBlue),
		geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5, glass),
		geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5, metalGold),
		geometry.NewSphere(core.NewVec3(0.4, -0.35, -0.3), 0.15, metalSilver),
	)

	return s
}

// NewEmptyScene creates a scene with no shapes; every ray sees the background
func NewEmptyScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	s := NewScene()
	if len(cameraOverrides) > 0 {
		s.CameraConfig = geometry.MergeCameraConfig(s.CameraConfig, cameraOverrides[0])
	}
	return s
}

// randomColor draws an albedo with each channel uniform in [0, 1)
func randomColor(random core.Sampler) core.Color {
	return core.NewColor(random.Float32(), random.Float32(), random.Float32())
}
