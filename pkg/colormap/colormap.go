// Package colormap provides color schemes for annotation overlays.
package colormap

import (
	"image/color"
)

// Colormap maps indices or normalized values [0, 1] to colors.
type Colormap interface {
	At(t float64) color.Color
	AtIndex(i int) color.Color
}

// CategoricalColormap provides distinct colors for categories such as tags.
type CategoricalColormap struct {
	colors []color.RGBA
}

// At returns color at position t.
func (c CategoricalColormap) At(t float64) color.Color {
	if t < 0 {
		t = 0
	}
	idx := int(t * float64(len(c.colors)))
	if idx >= len(c.colors) {
		idx = len(c.colors) - 1
	}
	return c.colors[idx]
}

// AtIndex returns color at index, wrapping around. Negative indices map to the first color.
func (c CategoricalColormap) AtIndex(i int) color.Color {
	if i < 0 {
		i = 0
	}
	return c.colors[i%len(c.colors)]
}

// Len returns the number of distinct colors.
func (c CategoricalColormap) Len() int {
	return len(c.colors)
}

// Categorical is a 10-color palette that stays readable over grayscale tiles.
var Categorical = CategoricalColormap{
	colors: []color.RGBA{
		{0, 255, 255, 255},   // Cyan
		{255, 0, 255, 255},   // Magenta
		{255, 255, 0, 255},   // Yellow
		{0, 255, 0, 255},     // Green
		{255, 127, 14, 255},  // Orange
		{31, 119, 180, 255},  // Blue
		{227, 119, 194, 255}, // Pink
		{188, 189, 34, 255},  // Olive
		{148, 103, 189, 255}, // Purple
		{255, 255, 255, 255}, // White
	},
}
