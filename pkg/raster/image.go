package raster

import (
	"image"
	"image/color"

	"github.com/df07/go-pathtracer/pkg/core"
)

// BytesPerPixel is the size of one stored pixel (blue, green, red)
const BytesPerPixel = 3

// Image is a 24-bit BGR pixel buffer covering a region of a larger picture.
// Pixels are addressed by absolute coordinates; rows are stored bottom-up
// with no padding. An Image is not safe for concurrent writes.
type Image struct {
	region Region
	pix    []byte
}

// NewImage creates a black image covering (0, 0, width, height)
func NewImage(width, height int) *Image {
	return NewImageWithRegion(NewRegion(width, height))
}

// NewImageWithRegion creates a black image covering the given region
func NewImageWithRegion(region Region) *Image {
	return &Image{
		region: region,
		pix:    make([]byte, BytesPerPixel*region.Area()),
	}
}

// Region returns the area of the picture this image covers
func (img *Image) Region() Region {
	return img.region
}

// Width returns the image width in pixels
func (img *Image) Width() int {
	return img.region.Width
}

// Height returns the image height in pixels
func (img *Image) Height() int {
	return img.region.Height
}

// Stride returns the number of bytes per row
func (img *Image) Stride() int {
	return BytesPerPixel * img.region.Width
}

// Pix returns the raw BGR rows, bottom row first
func (img *Image) Pix() []byte {
	return img.pix
}

// offset returns the byte index of absolute pixel (x, y), or -1 if outside
func (img *Image) offset(x, y int) int {
	if !img.region.Contains(x, y) {
		return -1
	}
	return (y-img.region.Y)*img.Stride() + (x-img.region.X)*BytesPerPixel
}

// SetPixelColor stores a display color at absolute pixel (x, y). Channels
// are clamped to [0, 1] and quantized. Writes outside the region are dropped.
func (img *Image) SetPixelColor(x, y int, c core.Color) {
	i := img.offset(x, y)
	if i < 0 {
		return
	}
	img.pix[i+0] = ToByte(c.B)
	img.pix[i+1] = ToByte(c.G)
	img.pix[i+2] = ToByte(c.R)
}

// SetPixelBGR stores raw bytes at absolute pixel (x, y)
func (img *Image) SetPixelBGR(x, y int, b, g, r byte) {
	i := img.offset(x, y)
	if i < 0 {
		return
	}
	img.pix[i+0] = b
	img.pix[i+1] = g
	img.pix[i+2] = r
}

// PixelBGR returns the stored bytes of absolute pixel (x, y)
func (img *Image) PixelBGR(x, y int) (b, g, r byte, ok bool) {
	i := img.offset(x, y)
	if i < 0 {
		return 0, 0, 0, false
	}
	return img.pix[i], img.pix[i+1], img.pix[i+2], true
}

// Blit copies the pixels of src into img at src's absolute position,
// skipping any part that falls outside img
func (img *Image) Blit(src *Image) {
	overlap := img.region.Intersect(src.region)
	if overlap.Empty() {
		return
	}

	rowBytes := overlap.Width * BytesPerPixel
	for y := overlap.Y; y < overlap.Y+overlap.Height; y++ {
		dst := img.offset(overlap.X, y)
		from := src.offset(overlap.X, y)
		copy(img.pix[dst:dst+rowBytes], src.pix[from:from+rowBytes])
	}
}

// Clone returns a deep copy of the image
func (img *Image) Clone() *Image {
	clone := &Image{region: img.region, pix: make([]byte, len(img.pix))}
	copy(clone.pix, img.pix)
	return clone
}

// PixelsU32 returns the image as packed 0x00RRGGBB values, top row first,
// the layout preview windows and canvases expect
func (img *Image) PixelsU32() []uint32 {
	width, height := img.region.Width, img.region.Height
	out := make([]uint32, 0, img.region.Area())
	for row := height - 1; row >= 0; row-- {
		base := row * img.Stride()
		for col := 0; col < width; col++ {
			i := base + col*BytesPerPixel
			out = append(out, uint32(img.pix[i+2])<<16|uint32(img.pix[i+1])<<8|uint32(img.pix[i]))
		}
	}
	return out
}

// ColorModel implements image.Image
func (img *Image) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements image.Image. The view is top-down and starts at (0, 0).
func (img *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, img.region.Width, img.region.Height)
}

// At implements image.Image, flipping rows so y = 0 is the top of the picture
func (img *Image) At(x, y int) color.Color {
	b, g, r, ok := img.PixelBGR(img.region.X+x, img.region.Y+img.region.Height-1-y)
	if !ok {
		return color.RGBA{}
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// ToByte quantizes a display channel in [0, 1] to a byte, mapping NaN and
// negative values to 0
func ToByte(f float32) uint8 {
	if !(f > 0) {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return uint8(255 * f)
}
