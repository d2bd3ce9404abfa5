// Package imageio hands finished frames to image encoders and reads them back.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"

	"github.com/df07/go-pathtracer/pkg/raster"
)

// ErrUnsupportedFormat is returned for file extensions with no encoder
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Format identifies an output encoding
type Format string

const (
	FormatBMP Format = "bmp"
	FormatPNG Format = "png"
)

// FormatFromPath picks the encoding from the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp":
		return FormatBMP, nil
	case ".png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Save encodes img to path. The format follows the extension.
func Save(path string, img *raster.Image) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}

	if err := Encode(file, format, img); err != nil {
		file.Close()
		return err
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}
	return nil
}

// Encode writes img to w in the given format. Both encoders see the
// top-down image.Image view of the frame.
func Encode(w io.Writer, format Format, img *raster.Image) error {
	var err error
	switch format {
	case FormatBMP:
		err = bmp.Encode(w, img)
	case FormatPNG:
		err = png.Encode(w, img)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return nil
}

// Load decodes a BMP or PNG file into a frame with bottom-up rows
func Load(path string) (*raster.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	// bmp registers itself with image.Decode
	src, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return FromImage(src), nil
}

// FromImage copies any image into a frame, flipping rows so the top of the
// picture lands in the last buffer row
func FromImage(src image.Image) *raster.Image {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	img := raster.NewImage(width, height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := src.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns 16-bit channels
			img.SetPixelBGR(x, height-1-y, byte(b>>8), byte(g>>8), byte(r>>8))
		}
	}
	return img
}
