// Package raster holds the framebuffer types shared by the renderer, the
// scheduler and the encoders: rectangular regions in absolute image
// coordinates, 24-bit BGR images addressed by those coordinates, and linear
// radiance accumulators.
//
// Rows are stored bottom-up: y = 0 is the bottom row of the picture, which
// matches both the camera's v axis and the row order of an uncompressed BMP.
package raster

import (
	"fmt"
	"image"
)

// Region is a rectangle in absolute image coordinates
type Region struct {
	X, Y          int
	Width, Height int
}

// NewRegion creates a region at the origin
func NewRegion(width, height int) Region {
	return Region{Width: width, Height: height}
}

// Empty reports whether the region has no pixels
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Area returns the number of pixels in the region
func (r Region) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Width * r.Height
}

// Contains reports whether the absolute pixel (x, y) lies inside the region
func (r Region) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Intersect returns the overlap of two regions, empty if they do not overlap
func (r Region) Intersect(other Region) Region {
	x0 := max(r.X, other.X)
	y0 := max(r.Y, other.Y)
	x1 := min(r.X+r.Width, other.X+other.Width)
	y1 := min(r.Y+r.Height, other.Y+other.Height)
	if x1 <= x0 || y1 <= y0 {
		return Region{X: x0, Y: y0}
	}
	return Region{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Chunks partitions the region row by row into tiles no larger than
// size x size. Tiles on the right and top edges shrink to fit. A size <= 0
// returns the whole region as one chunk.
func (r Region) Chunks(size int) []Region {
	if r.Empty() {
		return nil
	}
	if size <= 0 {
		return []Region{r}
	}

	tilesX := (r.Width + size - 1) / size // Ceiling division
	tilesY := (r.Height + size - 1) / size
	chunks := make([]Region, 0, tilesX*tilesY)

	for y := r.Y; y < r.Y+r.Height; y += size {
		height := min(size, r.Y+r.Height-y)
		for x := r.X; x < r.X+r.Width; x += size {
			width := min(size, r.X+r.Width-x)
			chunks = append(chunks, Region{X: x, Y: y, Width: width, Height: height})
		}
	}

	return chunks
}

// Rectangle converts the region to an image.Rectangle in the same coordinates
func (r Region) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

func (r Region) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}
