package core

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestRandomSampler_Range(t *testing.T) {
	sampler := NewRandomSampler(42)
	for i := 0; i < 10000; i++ {
		v := sampler.Float32()
		if v < 0 || v >= 1 {
			t.Fatalf("Sample %d out of [0,1): %f", i, v)
		}
	}
}

func TestRandomSampler_ReseedIsDeterministic(t *testing.T) {
	a := NewRandomSampler(1)
	b := NewRandomSampler(999)

	stream := StreamKey(10, 20, 3)
	a.Reseed(7, stream)
	b.Reseed(7, stream)

	for i := 0; i < 100; i++ {
		if va, vb := a.Float32(), b.Float32(); va != vb {
			t.Fatalf("Draw %d differs after identical reseed: %f vs %f", i, va, vb)
		}
	}
}

func TestStreamKey_Distinct(t *testing.T) {
	seen := make(map[uint64]bool)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			for s := 0; s < 4; s++ {
				key := StreamKey(x, y, s)
				if seen[key] {
					t.Fatalf("Duplicate stream key for (%d,%d,%d)", x, y, s)
				}
				seen[key] = true
			}
		}
	}
}

func TestRandomInUnitDisk(t *testing.T) {
	sampler := NewRandomSampler(42)
	for i := 0; i < 1000; i++ {
		p := RandomInUnitDisk(sampler)
		if p.Z != 0 {
			t.Fatalf("Disk sample should lie in z=0 plane, got %v", p)
		}
		if p.LengthSquared() > 1 {
			t.Fatalf("Disk sample outside unit disk: %v", p)
		}
	}
}

func TestRandomUnitVector(t *testing.T) {
	sampler := NewRandomSampler(42)
	var sum Vec3
	const n = 20000
	for i := 0; i < n; i++ {
		v := RandomUnitVector(sampler)
		if math32.Abs(v.Length()-1) > 1e-5 {
			t.Fatalf("Expected unit vector, got length %f", v.Length())
		}
		sum = sum.Add(v)
	}

	// Uniform directions average out near the origin
	mean := sum.Multiply(1.0 / n)
	if mean.Length() > 0.05 {
		t.Errorf("Mean of unit vectors too far from zero: %v", mean)
	}
}
