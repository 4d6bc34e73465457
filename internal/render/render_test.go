package render

import (
	"bytes"
	"encoding/base64"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/boucaud/sample-intensity-worker/internal/annotation"
	"github.com/boucaud/sample-intensity-worker/internal/raster"
	"github.com/boucaud/sample-intensity-worker/pkg/colormap"
)

// twoLevel returns an image whose left half is 200 and right half is 50.
func twoLevel(w, h int) *raster.Image {
	img := raster.New(w, h, 255)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.Set(x, y, 200)
			} else {
				img.Set(x, y, 50)
			}
		}
	}
	return img
}

func TestThresholdOverlay(t *testing.T) {
	img := twoLevel(16, 8)
	out := ThresholdOverlay(img, 100)

	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			i := out.PixOffset(x, y)
			got := out.Pix[i : i+4]
			want := []uint8{0, 0, 0, 0}
			if x < 8 {
				want = []uint8{255, 0, 0, 255}
			}
			if !bytes.Equal(got, want) {
				t.Fatalf("pixel (%d,%d): expected %v, got %v", x, y, want, got)
			}
		}
	}
}

func TestThresholdOverlayStrict(t *testing.T) {
	img := raster.New(2, 1, 255)
	img.Set(0, 0, 100)
	img.Set(1, 0, 101)
	out := ThresholdOverlay(img, 100)

	if out.Pix[3] != 0 {
		t.Error("pixel equal to the threshold must stay unpainted")
	}
	if out.Pix[7] != 255 {
		t.Error("pixel above the threshold must be painted")
	}
}

func TestPreviewDataURI(t *testing.T) {
	r := NewRenderer(Config{})
	uri, err := r.PreviewDataURI(twoLevel(10, 10), 100)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}

	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("unexpected data URI prefix: %.40s", uri)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}
	if got := color.RGBAModel.Convert(img.At(0, 0)).(color.RGBA); got != OverlayColor {
		t.Errorf("expected red at (0,0), got %v", got)
	}
	if _, _, _, a := img.At(9, 0).RGBA(); a != 0 {
		t.Errorf("expected transparent at (9,0), got alpha %d", a)
	}
}

func TestAnnotatedTile(t *testing.T) {
	r := NewRenderer(Config{PointRadius: 2})
	img := raster.New(20, 20, 255)
	anns := []annotation.Annotation{
		{Shape: annotation.ShapePoint, Tags: []string{"b"}, Coordinates: []annotation.Coordinate{{X: 5, Y: 5}}},
		{Shape: annotation.ShapePoint, Tags: []string{"a"}, Coordinates: []annotation.Coordinate{{X: 15, Y: 15}}},
		{Shape: "polygon", Coordinates: []annotation.Coordinate{{X: 10, Y: 10}}},
	}

	data, err := r.AnnotatedTile(img, anns)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	out, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}

	rgba := func(x, y int) color.RGBA { return color.RGBAModel.Convert(out.At(x, y)).(color.RGBA) }
	if got, want := rgba(15, 15), colormap.Categorical.AtIndex(0); got != want {
		t.Errorf("tag a should use the first color: got %v, want %v", got, want)
	}
	if got, want := rgba(5, 5), colormap.Categorical.AtIndex(1); got != want {
		t.Errorf("tag b should use the second color: got %v, want %v", got, want)
	}
	if got := rgba(10, 10); got != (color.RGBA{A: 255}) {
		t.Errorf("non-point annotations must not be drawn, got %v", got)
	}
}
