package core

import (
	"math/rand/v2"
)

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	// Float32 returns a uniform value in [0, 1)
	Float32() float32
}

// RandomSampler owns an independent PCG stream. It is not safe for concurrent
// use; every worker goroutine holds its own instance.
type RandomSampler struct {
	pcg    *rand.PCG
	random *rand.Rand
}

// NewRandomSampler creates a sampler seeded with the given value
func NewRandomSampler(seed uint64) *RandomSampler {
	pcg := rand.NewPCG(seed, 0)
	return &RandomSampler{pcg: pcg, random: rand.New(pcg)}
}

// Reseed restarts the generator at the stream identified by (seed, stream).
// Reseeding is allocation free, so it can be done per pixel sample.
func (r *RandomSampler) Reseed(seed, stream uint64) {
	r.pcg.Seed(seed, stream)
}

// Float32 returns a random float32 in [0, 1)
func (r *RandomSampler) Float32() float32 {
	return r.random.Float32()
}

// StreamKey derives a well-mixed stream identifier for one sample of one pixel
func StreamKey(x, y, sample int) uint64 {
	key := uint64(uint32(x)) | uint64(uint32(y))<<32
	return mix64(mix64(key) + uint64(sample))
}

// mix64 is the splitmix64 finalizer
func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// RandomInUnitDisk generates a random point in a unit disk (for depth of field)
func RandomInUnitDisk(sampler Sampler) Vec3 {
	for {
		// Generate random point in [-1,1] x [-1,1] square
		p := NewVec3(2*sampler.Float32()-1, 2*sampler.Float32()-1, 0)
		// Accept if inside unit disk
		if p.Dot(p) <= 1.0 {
			return p
		}
	}
}

// RandomUnitVector generates a uniformly distributed unit vector
func RandomUnitVector(sampler Sampler) Vec3 {
	for {
		p := NewVec3(2*sampler.Float32()-1, 2*sampler.Float32()-1, 2*sampler.Float32()-1)
		lengthSquared := p.LengthSquared()
		// Reject points outside the sphere and points too close to the center to normalize
		if lengthSquared <= 1.0 && lengthSquared > 1e-12 {
			return p.Normalize()
		}
	}
}
