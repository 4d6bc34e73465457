package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/boucaud/sample-intensity-worker/internal/annotation"
	"github.com/boucaud/sample-intensity-worker/internal/imagecache"
	"github.com/boucaud/sample-intensity-worker/internal/params"
	"github.com/boucaud/sample-intensity-worker/internal/raster"
)

// fakePlatform records every call a worker makes against the platform API.
type fakePlatform struct {
	annotations []annotation.Annotation
	created     []annotation.Annotation
	values      map[string]map[string]float64
	previews    []annotation.Preview
	interfaces  []annotation.Interface
	images      []string
	listShape   string
	createErr   error
}

func (f *fakePlatform) GetAnnotationsByDatasetID(ctx context.Context, datasetID, shape string) ([]annotation.Annotation, error) {
	f.listShape = shape
	var out []annotation.Annotation
	for _, a := range f.annotations {
		if a.Shape == shape {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakePlatform) GetAnnotationByID(ctx context.Context, id string) (*annotation.Annotation, error) {
	for i := range f.annotations {
		if f.annotations[i].ID == id {
			a := f.annotations[i]
			return &a, nil
		}
	}
	return nil, fmt.Errorf("annotation %s not found", id)
}

func (f *fakePlatform) AddAnnotationPropertyValues(ctx context.Context, datasetID, annotationID string, values map[string]float64) error {
	if f.values == nil {
		f.values = make(map[string]map[string]float64)
	}
	f.values[annotationID] = values
	return nil
}

func (f *fakePlatform) CreateAnnotation(ctx context.Context, a *annotation.Annotation) (*annotation.Annotation, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	saved := *a
	saved.ID = fmt.Sprintf("created-%d", len(f.created))
	f.created = append(f.created, saved)
	return &saved, nil
}

func (f *fakePlatform) SetWorkerImagePreview(ctx context.Context, image string, preview annotation.Preview) error {
	f.images = append(f.images, image)
	f.previews = append(f.previews, preview)
	return nil
}

func (f *fakePlatform) SetWorkerImageInterface(ctx context.Context, image string, iface annotation.Interface) error {
	f.images = append(f.images, image)
	f.interfaces = append(f.interfaces, iface)
	return nil
}

// fakeTiles serves encoded rasters by location and counts fetches.
type fakeTiles struct {
	tiles map[imagecache.Key][]byte
	calls map[imagecache.Key]int
}

func newFakeTiles() *fakeTiles {
	return &fakeTiles{
		tiles: make(map[imagecache.Key][]byte),
		calls: make(map[imagecache.Key]int),
	}
}

func (f *fakeTiles) put(t *testing.T, key imagecache.Key, img *raster.Image) {
	t.Helper()
	data, err := raster.EncodeGray(img)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	f.tiles[key] = data
}

func (f *fakeTiles) GetRawImage(ctx context.Context, xy, z, time, channel int) ([]byte, error) {
	key := imagecache.Key{Channel: channel, Time: time, Z: z, XY: xy}
	f.calls[key]++
	data, ok := f.tiles[key]
	if !ok {
		return nil, errors.New("no such tile " + key.String())
	}
	return data, nil
}

func (f *fakeTiles) total() int {
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func uniform(w, h int, v float64) *raster.Image {
	img := raster.New(w, h, 255)
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func decode(t *testing.T, raw string) params.Blob {
	t.Helper()
	b, err := params.Decode(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return b
}
