// Package raster turns encoded tiles into single-channel intensity rasters.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
)

// Image is a 2D intensity raster stored row-major.
type Image struct {
	Width  int
	Height int
	Pix    []float64
	// Max is the largest value the source dtype can hold (255 or 65535).
	Max float64
}

// New allocates a zeroed raster.
func New(width, height int, max float64) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
		Max:    max,
	}
}

// At returns the raw intensity at column x, row y.
func (m *Image) At(x, y int) float64 {
	return m.Pix[y*m.Width+x]
}

// Set stores a raw intensity at column x, row y.
func (m *Image) Set(x, y int, v float64) {
	m.Pix[y*m.Width+x] = v
}

// In reports whether (x, y) lies inside the raster.
func (m *Image) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

// Normalized returns a copy scaled to [0, 1] by the dtype maximum.
func (m *Image) Normalized() []float64 {
	out := make([]float64, len(m.Pix))
	scale := m.Max
	if scale <= 0 {
		scale = 1
	}
	for i, v := range m.Pix {
		out[i] = v / scale
	}
	return out
}

// SizeBytes is the decoded footprint, used for logging.
func (m *Image) SizeBytes() uint64 {
	return uint64(len(m.Pix)) * 8
}

// Decode reads an encoded image (PNG, or JPEG) into a raster.
func Decode(data []byte) (*Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img), nil
}

// FromImage converts any image to intensities. Gray images keep their raw values;
// colour images are converted to luminance.
func FromImage(img image.Image) *Image {
	b := img.Bounds()
	switch src := img.(type) {
	case *image.Gray:
		out := New(b.Dx(), b.Dy(), 255)
		for y := 0; y < b.Dy(); y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+b.Dx()]
			for x, v := range row {
				out.Set(x, y, float64(v))
			}
		}
		return out
	case *image.Gray16:
		out := New(b.Dx(), b.Dy(), 65535)
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				out.Set(x, y, float64(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
		return out
	}

	out := New(b.Dx(), b.Dy(), 255)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			out.Set(x, y, float64(g.Y))
		}
	}
	return out
}

// EncodeGray writes an 8-bit raster as PNG. Values are clamped to [0, 255].
func EncodeGray(m *Image) ([]byte, error) {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			v := m.At(x, y)
			switch {
			case v < 0:
				v = 0
			case v > 255:
				v = 255
			}
			img.Pix[y*img.Stride+x] = uint8(v + 0.5)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
