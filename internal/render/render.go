// Package render produces PNG images for worker previews and annotated tiles using fogleman/gg.
package render

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"sort"
	"sync"

	"github.com/fogleman/gg"

	"github.com/boucaud/sample-intensity-worker/internal/annotation"
	"github.com/boucaud/sample-intensity-worker/internal/raster"
	"github.com/boucaud/sample-intensity-worker/pkg/colormap"
)

// OverlayColor paints above-threshold pixels in previews.
var OverlayColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}

// Config contains renderer configuration.
type Config struct {
	PointRadius float64
}

// Renderer renders previews and annotated tiles.
type Renderer struct {
	config     Config
	bufferPool sync.Pool
	palette    colormap.Colormap
}

// NewRenderer creates a new renderer.
func NewRenderer(cfg Config) *Renderer {
	if cfg.PointRadius <= 0 {
		cfg.PointRadius = 3
	}
	return &Renderer{
		config: cfg,
		bufferPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 32*1024))
			},
		},
		palette: colormap.Categorical,
	}
}

// ThresholdOverlay paints every pixel whose raw intensity exceeds threshold opaque
// red on a transparent canvas the size of img.
func ThresholdOverlay(img *raster.Image, threshold float64) *image.RGBA {
	dc := gg.NewContext(img.Width, img.Height)
	dc.SetColor(OverlayColor)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if img.At(x, y) > threshold {
				dc.SetPixel(x, y)
			}
		}
	}
	return dc.Image().(*image.RGBA)
}

// PreviewDataURI renders the threshold overlay and returns it as a PNG data URI.
func (r *Renderer) PreviewDataURI(img *raster.Image, threshold float64) (string, error) {
	data, err := r.EncodePNG(ThresholdOverlay(img, threshold))
	if err != nil {
		return "", err
	}
	return DataURI(data), nil
}

// DataURI wraps PNG bytes in a base64 data URI.
func DataURI(pngData []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData)
}

// AnnotatedTile draws point annotations over an 8-bit rendition of img. Each point
// is a filled circle coloured by its first tag.
func (r *Renderer) AnnotatedTile(img *raster.Image, annotations []annotation.Annotation) ([]byte, error) {
	dc := gg.NewContext(img.Width, img.Height)
	dc.SetColor(color.Black)
	dc.Clear()

	scale := 255.0
	if img.Max > 0 {
		scale = 255.0 / img.Max
	}
	base := dc.Image().(*image.RGBA)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			v := uint8(clampByte(img.At(x, y) * scale))
			base.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	tagIndex := indexTags(annotations)
	for _, a := range annotations {
		if a.Shape != annotation.ShapePoint {
			continue
		}
		c, ok := a.Center()
		if !ok {
			continue
		}
		idx := 0
		if len(a.Tags) > 0 {
			idx = tagIndex[a.Tags[0]]
		}
		dc.SetColor(r.palette.AtIndex(idx))
		dc.DrawCircle(c.X, c.Y, r.config.PointRadius)
		dc.Fill()
	}

	return r.encodeContext(dc)
}

// EncodePNG encodes img with the fast PNG encoder.
func (r *Renderer) EncodePNG(img image.Image) ([]byte, error) {
	buf := r.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		r.bufferPool.Put(buf)
	}()

	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(buf, img); err != nil {
		return nil, err
	}

	// Copy buffer contents (buffer will be reused)
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

func (r *Renderer) encodeContext(dc *gg.Context) ([]byte, error) {
	return r.EncodePNG(dc.Image())
}

// indexTags assigns palette indices to first tags in sorted order.
func indexTags(annotations []annotation.Annotation) map[string]int {
	seen := make(map[string]struct{})
	for _, a := range annotations {
		if len(a.Tags) > 0 {
			seen[a.Tags[0]] = struct{}{}
		}
	}
	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)

	index := make(map[string]int, len(tags))
	for i, t := range tags {
		index[t] = i
	}
	return index
}

func clampByte(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
