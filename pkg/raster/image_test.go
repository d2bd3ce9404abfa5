package raster

import (
	"bytes"
	"image/color"
	"math"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
)

func TestToByte(t *testing.T) {
	tests := []struct {
		name     string
		input    float32
		expected uint8
	}{
		{"Zero", 0, 0},
		{"Negative", -0.5, 0},
		{"NaN", float32(math.NaN()), 0},
		{"Half", 0.5, 127},
		{"One", 1, 255},
		{"Over range", 3.2, 255},
		{"Positive infinity", float32(math.Inf(1)), 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToByte(tt.input); got != tt.expected {
				t.Errorf("ToByte(%f) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestImage_SetPixelColorLayout(t *testing.T) {
	img := NewImage(4, 3)
	img.SetPixelColor(1, 2, core.NewColor(1, 0.5, 0))

	// Bottom-up rows, BGR order
	i := 2*img.Stride() + 1*BytesPerPixel
	got := img.Pix()[i : i+3]
	want := []byte{0, 127, 255}
	if !bytes.Equal(got, want) {
		t.Errorf("Stored bytes = %v, want %v", got, want)
	}

	b, g, r, ok := img.PixelBGR(1, 2)
	if !ok || b != 0 || g != 127 || r != 255 {
		t.Errorf("PixelBGR = (%d,%d,%d,%v)", b, g, r, ok)
	}
}

func TestImage_SetPixelColorOutOfRangeDropped(t *testing.T) {
	img := NewImageWithRegion(Region{X: 10, Y: 10, Width: 4, Height: 4})
	white := core.White()

	for _, p := range [][2]int{{9, 10}, {10, 9}, {14, 10}, {10, 14}, {-1, -1}, {1000, 1000}} {
		img.SetPixelColor(p[0], p[1], white)
	}

	for i, v := range img.Pix() {
		if v != 0 {
			t.Fatalf("Out-of-range write landed at byte %d", i)
		}
	}

	img.SetPixelColor(13, 13, white)
	if _, _, r, _ := img.PixelBGR(13, 13); r != 255 {
		t.Error("In-range write at the far corner was dropped")
	}
}

// patternImage fills a region with a position-dependent color
func patternImage(region Region) *Image {
	img := NewImageWithRegion(region)
	for y := region.Y; y < region.Y+region.Height; y++ {
		for x := region.X; x < region.X+region.Width; x++ {
			img.SetPixelColor(x, y, core.NewColor(float32(x%7)/7, float32(y%5)/5, float32((x+y)%3)/3))
		}
	}
	return img
}

func TestImage_BlitReconstructsInAnyOrder(t *testing.T) {
	full := Region{Width: 37, Height: 23}
	reference := patternImage(full)

	chunks := full.Chunks(8)

	orders := map[string][]int{}
	forward := make([]int, len(chunks))
	reverse := make([]int, len(chunks))
	interleaved := make([]int, 0, len(chunks))
	for i := range chunks {
		forward[i] = i
		reverse[i] = len(chunks) - 1 - i
	}
	for i := 0; i < len(chunks); i += 2 {
		interleaved = append(interleaved, i)
	}
	for i := 1; i < len(chunks); i += 2 {
		interleaved = append(interleaved, i)
	}
	orders["forward"] = forward
	orders["reverse"] = reverse
	orders["interleaved"] = interleaved

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			dst := NewImageWithRegion(full)
			for _, idx := range order {
				dst.Blit(patternImage(chunks[idx]))
			}
			if !bytes.Equal(dst.Pix(), reference.Pix()) {
				t.Error("Blitted chunks do not reconstruct the reference image")
			}
		})
	}
}

func TestImage_BlitClips(t *testing.T) {
	dst := NewImage(10, 10)

	tests := []struct {
		name   string
		src    Region
		inside Region
	}{
		{"Overhang right and top", Region{X: 7, Y: 8, Width: 6, Height: 6}, Region{X: 7, Y: 8, Width: 3, Height: 2}},
		{"Overhang left and bottom", Region{X: -2, Y: -3, Width: 5, Height: 5}, Region{X: 0, Y: 0, Width: 3, Height: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewImageWithRegion(tt.src)
			for y := tt.src.Y; y < tt.src.Y+tt.src.Height; y++ {
				for x := tt.src.X; x < tt.src.X+tt.src.Width; x++ {
					src.SetPixelColor(x, y, core.White())
				}
			}

			out := dst.Clone()
			out.Blit(src)

			for y := 0; y < 10; y++ {
				for x := 0; x < 10; x++ {
					_, _, r, _ := out.PixelBGR(x, y)
					want := uint8(0)
					if tt.inside.Contains(x, y) {
						want = 255
					}
					if r != want {
						t.Fatalf("Pixel (%d,%d) = %d, want %d", x, y, r, want)
					}
				}
			}
		})
	}

	// Fully outside is a no-op
	out := dst.Clone()
	out.Blit(patternImage(Region{X: 50, Y: 50, Width: 4, Height: 4}))
	if !bytes.Equal(out.Pix(), dst.Pix()) {
		t.Error("Blit of a disjoint source changed the destination")
	}
}

func TestImage_PixelsU32TopDown(t *testing.T) {
	img := NewImage(2, 2)
	img.SetPixelColor(0, 0, core.NewColor(1, 0, 0)) // bottom left
	img.SetPixelColor(1, 1, core.NewColor(0, 0, 1)) // top right

	pixels := img.PixelsU32()
	expected := []uint32{
		0x000000, 0x0000FF, // top row
		0xFF0000, 0x000000, // bottom row
	}
	for i := range expected {
		if pixels[i] != expected[i] {
			t.Errorf("Pixel %d = %06x, want %06x", i, pixels[i], expected[i])
		}
	}
}

func TestImage_ImageInterfaceIsTopDown(t *testing.T) {
	img := NewImageWithRegion(Region{X: 5, Y: 5, Width: 3, Height: 2})
	img.SetPixelColor(5, 6, core.NewColor(0, 1, 0)) // top-left of the region

	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 || b.Min.X != 0 || b.Min.Y != 0 {
		t.Errorf("Unexpected bounds %v", b)
	}

	got := img.At(0, 0).(color.RGBA)
	if got != (color.RGBA{G: 255, A: 255}) {
		t.Errorf("At(0,0) = %v, want green", got)
	}
	if got := img.At(0, 1).(color.RGBA); got != (color.RGBA{A: 255}) {
		t.Errorf("At(0,1) = %v, want black", got)
	}
}

func BenchmarkImage_SetPixelColor(b *testing.B) {
	img := NewImage(600, 400)
	c := core.NewColor(0.5, 0.5, 0.5)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		img.SetPixelColor(300, 200, c)
	}
}

func BenchmarkImage_Blit(b *testing.B) {
	img := NewImage(600, 400)
	src := NewImageWithRegion(Region{X: 100, Y: 100, Width: 300, Height: 200})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		img.Blit(src)
	}
}
