// Package roi computes intensity statistics inside circular regions of interest.
package roi

import (
	"errors"
	"image"
	"math"

	"github.com/boucaud/sample-intensity-worker/internal/raster"
)

var (
	ErrNoImage   = errors.New("roi: no image")
	ErrBadRadius = errors.New("roi: radius must be positive")
)

// Mask is a label image the size of a tile. Pixels inside the current disk carry
// the inside label, all others are 0.
type Mask struct {
	Width, Height int
	Labels        []uint8
	inside        uint8
	// bounds of the last rasterized disk, clipped to the mask
	bounds image.Rectangle
}

// NewMask allocates an empty mask.
func NewMask(width, height int, inside uint8) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Labels: make([]uint8, width*height),
		inside: inside,
	}
}

// Rasterize recenters the disk at (cx, cy). Pixel (i, j) is inside when
// (i-cx)² + (j-cy)² <= r².
func (m *Mask) Rasterize(cx, cy, radius float64) {
	for y := m.bounds.Min.Y; y < m.bounds.Max.Y; y++ {
		row := m.Labels[y*m.Width : (y+1)*m.Width]
		for x := m.bounds.Min.X; x < m.bounds.Max.X; x++ {
			row[x] = 0
		}
	}

	box := image.Rect(
		int(math.Ceil(cx-radius)), int(math.Ceil(cy-radius)),
		int(math.Floor(cx+radius))+1, int(math.Floor(cy+radius))+1,
	)
	m.bounds = box.Intersect(image.Rect(0, 0, m.Width, m.Height))

	r2 := radius * radius
	for y := m.bounds.Min.Y; y < m.bounds.Max.Y; y++ {
		dy := float64(y) - cy
		for x := m.bounds.Min.X; x < m.bounds.Max.X; x++ {
			dx := float64(x) - cx
			if dx*dx+dy*dy <= r2 {
				m.Labels[y*m.Width+x] = m.inside
			}
		}
	}
}

// Bounds returns the clipped bounding box of the current disk.
func (m *Mask) Bounds() image.Rectangle {
	return m.bounds
}

// Count returns the number of pixels carrying label.
func (m *Mask) Count(label uint8) int {
	n := 0
	for y := m.bounds.Min.Y; y < m.bounds.Max.Y; y++ {
		for x := m.bounds.Min.X; x < m.bounds.Max.X; x++ {
			if m.Labels[y*m.Width+x] == label {
				n++
			}
		}
	}
	return n
}

// LabelMean returns the mean of img over pixels whose mask label equals label.
// An empty label set has mean 0.
func LabelMean(img *raster.Image, m *Mask, label uint8) float64 {
	var sum float64
	n := 0
	for y := m.bounds.Min.Y; y < m.bounds.Max.Y; y++ {
		for x := m.bounds.Min.X; x < m.bounds.Max.X; x++ {
			if m.Labels[y*m.Width+x] != label {
				continue
			}
			sum += img.At(x, y)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Engine measures the mean intensity of a fixed-radius disk. It reuses one mask
// while consecutive images share a size.
type Engine struct {
	Radius      float64
	InsideValue uint8

	mask *Mask
}

// NewEngine creates an engine for disks of the given radius.
func NewEngine(radius float64, inside uint8) *Engine {
	return &Engine{Radius: radius, InsideValue: inside}
}

// Mean returns the mean intensity of img inside the disk centred at (x, y).
// Only in-bounds pixels contribute.
func (e *Engine) Mean(img *raster.Image, x, y float64) (float64, error) {
	if img == nil {
		return 0, ErrNoImage
	}
	if e.Radius <= 0 {
		return 0, ErrBadRadius
	}
	if e.mask == nil || e.mask.Width != img.Width || e.mask.Height != img.Height {
		e.mask = NewMask(img.Width, img.Height, e.InsideValue)
	}
	e.mask.Rasterize(x, y, e.Radius)
	return LabelMean(img, e.mask, e.InsideValue), nil
}
