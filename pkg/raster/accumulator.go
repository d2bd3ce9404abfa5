package raster

import (
	"github.com/df07/go-pathtracer/pkg/core"
)

// Accumulator holds per-pixel sums of linear radiance over a region
type Accumulator struct {
	region Region
	sums   []core.Color
}

// NewAccumulator creates a zeroed accumulator for the region
func NewAccumulator(region Region) *Accumulator {
	return &Accumulator{
		region: region,
		sums:   make([]core.Color, region.Area()),
	}
}

// Region returns the area covered by the accumulator
func (a *Accumulator) Region() Region {
	return a.region
}

func (a *Accumulator) index(x, y int) int {
	if !a.region.Contains(x, y) {
		return -1
	}
	return (y-a.region.Y)*a.region.Width + (x - a.region.X)
}

// Add adds radiance to absolute pixel (x, y). Pixels outside are ignored.
func (a *Accumulator) Add(x, y int, c core.Color) {
	if i := a.index(x, y); i >= 0 {
		a.sums[i] = a.sums[i].Add(c)
	}
}

// Set overwrites the sum at absolute pixel (x, y)
func (a *Accumulator) Set(x, y int, c core.Color) {
	if i := a.index(x, y); i >= 0 {
		a.sums[i] = c
	}
}

// At returns the sum at absolute pixel (x, y)
func (a *Accumulator) At(x, y int) core.Color {
	if i := a.index(x, y); i >= 0 {
		return a.sums[i]
	}
	return core.Black()
}

// Merge adds other's sums into a over the overlapping pixels
func (a *Accumulator) Merge(other *Accumulator) {
	overlap := a.region.Intersect(other.region)
	for y := overlap.Y; y < overlap.Y+overlap.Height; y++ {
		dst := a.index(overlap.X, y)
		src := other.index(overlap.X, y)
		for i := 0; i < overlap.Width; i++ {
			a.sums[dst+i] = a.sums[dst+i].Add(other.sums[src+i])
		}
	}
}

// Reset zeroes every sum
func (a *Accumulator) Reset() {
	clear(a.sums)
}
