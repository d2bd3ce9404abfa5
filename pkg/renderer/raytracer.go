package renderer

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/raster"
)

// ErrInvalidConfig is returned for sampling configurations that cannot render
var ErrInvalidConfig = errors.New("invalid sampling config")

// jitterStream selects the random stream used for the per-sample pixel offsets
const jitterStream = 0x6a09e667f3bcc908

// Background is the vertical sky gradient seen by rays that escape the scene
type Background struct {
	Bottom core.Color // Color straight down
	Top    core.Color // Color straight up
}

// DefaultBackground returns a white-to-sky-blue gradient
func DefaultBackground() Background {
	return Background{
		Bottom: core.White(),
		Top:    core.NewColor(0.5, 0.7, 1.0),
	}
}

// Color returns the gradient color for a ray direction
func (b Background) Color(ray core.Ray) core.Color {
	t := 0.5 * (ray.Direction().Y + 1.0)
	return core.LerpColor(t, b.Bottom, b.Top)
}

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	SamplesPerPixel int        // Number of rays per pixel
	MaxDepth        int        // Maximum ray bounce depth
	TMin            float32    // Nearest accepted hit, excludes self-intersection
	TMax            float32    // Farthest accepted hit
	Gamma           float32    // Display gamma applied after averaging
	Seed            uint64     // Base seed for every random stream
	Background      Background // Color of escaped rays
}

// DefaultSamplingConfig returns sensible default values
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		SamplesPerPixel: 50,
		MaxDepth:        50,
		TMin:            0.001,
		TMax:            1000.0,
		Gamma:           2.0,
		Seed:            0,
		Background:      DefaultBackground(),
	}
}

// Validate checks that the configuration can produce an image
func (c SamplingConfig) Validate() error {
	switch {
	case c.SamplesPerPixel <= 0:
		return fmt.Errorf("%w: samples per pixel must be positive, got %d", ErrInvalidConfig, c.SamplesPerPixel)
	case c.MaxDepth <= 0:
		return fmt.Errorf("%w: max depth must be positive, got %d", ErrInvalidConfig, c.MaxDepth)
	case !(c.TMin >= 0) || !(c.TMin < c.TMax):
		return fmt.Errorf("%w: need 0 <= tMin < tMax, got [%v, %v]", ErrInvalidConfig, c.TMin, c.TMax)
	case !(c.Gamma > 0):
		return fmt.Errorf("%w: gamma must be positive, got %v", ErrInvalidConfig, c.Gamma)
	}
	return nil
}

// Scene interface to avoid circular imports
type Scene interface {
	Hit(ray core.Ray, tMin, tMax float32) (*material.HitRecord, bool)
}

// Camera maps normalized image coordinates to world-space rays
type Camera interface {
	GetRay(u, v float32, sampler core.Sampler) core.Ray
}

// RenderTarget pairs a buffer with the size of the full picture it belongs
// to, so a tile can compute the same (u, v) as the whole image would
type RenderTarget struct {
	FullWidth  int
	FullHeight int
	Buffer     *raster.Image
}

// NewRenderTarget creates a target whose buffer covers the whole picture
func NewRenderTarget(width, height int) RenderTarget {
	return RenderTarget{
		FullWidth:  width,
		FullHeight: height,
		Buffer:     raster.NewImage(width, height),
	}
}

// Renderer traces camera rays through a scene. It holds no mutable state
// and may be shared by any number of workers.
type Renderer struct {
	config  SamplingConfig
	offsets []jitter
}

type jitter struct {
	du, dv float32
}

// NewRenderer validates the configuration and precomputes the per-sample pixel offsets
func NewRenderer(config SamplingConfig) (*Renderer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// The first sample always goes through the pixel center
	offsets := make([]jitter, config.SamplesPerPixel)
	random := core.NewRandomSampler(config.Seed)
	random.Reseed(config.Seed, jitterStream)
	for i := 1; i < len(offsets); i++ {
		offsets[i] = jitter{
			du: random.Float32() - 0.5,
			dv: random.Float32() - 0.5,
		}
	}

	return &Renderer{config: config, offsets: offsets}, nil
}

// Config returns the sampling configuration
func (r *Renderer) Config() SamplingConfig {
	return r.config
}

// SampleOffset returns the pixel jitter used by sample index s
func (r *Renderer) SampleOffset(s int) (du, dv float32) {
	if s < 0 || s >= len(r.offsets) {
		return 0, 0
	}
	return r.offsets[s].du, r.offsets[s].dv
}

// Cast returns the radiance carried back along a ray. At depth 0 the
// background is returned without testing the scene.
func (r *Renderer) Cast(ray core.Ray, scene Scene, depth int, sampler core.Sampler) core.Color {
	if depth <= 0 {
		return r.config.Background.Color(ray)
	}

	hit, isHit := scene.Hit(ray, r.config.TMin, r.config.TMax)
	if !isHit {
		return r.config.Background.Color(ray)
	}
	if hit.Material == nil {
		return core.Black()
	}

	scatter, didScatter := hit.Material.Scatter(ray, *hit, sampler)
	if !didScatter {
		return core.Black() // Material absorbed the ray
	}

	return scatter.Attenuation.MultiplyColor(r.Cast(scatter.Scattered, scene, depth-1, sampler))
}

// Sample traces sample s of absolute pixel (x, y). The sampler is reseeded
// from (seed, x, y, s), so the result does not depend on which worker or
// job computes it.
func (r *Renderer) Sample(camera Camera, scene Scene, fullWidth, fullHeight, x, y, s int, sampler *core.RandomSampler) core.Color {
	sampler.Reseed(r.config.Seed, core.StreamKey(x, y, s))

	du, dv := r.SampleOffset(s)
	u := (float32(x) + du) / float32(max(1, fullWidth-1))
	v := (float32(y) + dv) / float32(max(1, fullHeight-1))

	ray := camera.GetRay(u, v, sampler)
	return r.Cast(ray, scene, r.config.MaxDepth, sampler)
}

// Accumulate adds samples [first, first+count) of every pixel in the
// accumulator's region, in sample order
func (r *Renderer) Accumulate(camera Camera, scene Scene, fullWidth, fullHeight int, acc *raster.Accumulator, first, count int, sampler *core.RandomSampler) {
	region := acc.Region()
	for y := region.Y; y < region.Y+region.Height; y++ {
		for x := region.X; x < region.X+region.Width; x++ {
			sum := acc.At(x, y)
			for s := first; s < first+count; s++ {
				sum = sum.Add(r.Sample(camera, scene, fullWidth, fullHeight, x, y, s, sampler))
			}
			acc.Set(x, y, sum)
		}
	}
}

// Render writes the fully sampled, tone-mapped color of every pixel in the
// target buffer's region
func (r *Renderer) Render(camera Camera, scene Scene, target RenderTarget, sampler *core.RandomSampler) {
	region := target.Buffer.Region()
	n := r.config.SamplesPerPixel

	for y := region.Y; y < region.Y+region.Height; y++ {
		for x := region.X; x < region.X+region.Width; x++ {
			sum := core.Black()
			for s := 0; s < n; s++ {
				sum = sum.Add(r.Sample(camera, scene, target.FullWidth, target.FullHeight, x, y, s, sampler))
			}
			target.Buffer.SetPixelColor(x, y, r.Resolve(sum, n))
		}
	}
}

// Resolve turns a radiance sum over n samples into a display color:
// the mean, then gamma correction
func (r *Renderer) Resolve(sum core.Color, n int) core.Color {
	if n <= 0 {
		return core.Black()
	}
	mean := sum.Multiply(1.0 / float32(n))

	if r.config.Gamma == 2 {
		return core.NewColor(math32.Sqrt(mean.R), math32.Sqrt(mean.G), math32.Sqrt(mean.B))
	}
	inv := 1 / r.config.Gamma
	return core.NewColor(math32.Pow(mean.R, inv), math32.Pow(mean.G, inv), math32.Pow(mean.B, inv))
}

// ResolveInto writes the resolved color of every accumulated pixel into img
func (r *Renderer) ResolveInto(acc *raster.Accumulator, n int, img *raster.Image) {
	region := acc.Region().Intersect(img.Region())
	for y := region.Y; y < region.Y+region.Height; y++ {
		for x := region.X; x < region.X+region.Width; x++ {
			img.SetPixelColor(x, y, r.Resolve(acc.At(x, y), n))
		}
	}
}
