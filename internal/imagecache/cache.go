// Package imagecache keeps decoded tiles for the lifetime of one worker run.
package imagecache

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/boucaud/sample-intensity-worker/internal/logging"
	"github.com/boucaud/sample-intensity-worker/internal/raster"
)

// Key identifies one image plane of one channel.
type Key struct {
	Channel int
	Time    int
	Z       int
	XY      int
}

func (k Key) String() string {
	return fmt.Sprintf("c%d/t%d/z%d/xy%d", k.Channel, k.Time, k.Z, k.XY)
}

// Source fetches encoded tile bytes.
type Source interface {
	GetRawImage(ctx context.Context, xy, z, time, channel int) ([]byte, error)
}

// Cache maps location keys to decoded rasters. It is not safe for concurrent use;
// workers are single-threaded.
type Cache struct {
	source  Source
	images  map[Key]*raster.Image
	fetches int
}

// New creates an empty cache in front of source.
func New(source Source) *Cache {
	return &Cache{
		source: source,
		images: make(map[Key]*raster.Image),
	}
}

// Get returns the raster for key, fetching and decoding it on first use.
// Failed fetches are not cached.
func (c *Cache) Get(ctx context.Context, key Key) (*raster.Image, error) {
	if img, ok := c.images[key]; ok {
		return img, nil
	}

	data, err := c.source.GetRawImage(ctx, key.XY, key.Z, key.Time, key.Channel)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image %s: %w", key, err)
	}
	c.fetches++

	img, err := raster.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", key, err)
	}
	logging.Debugf("Fetched image %s: %dx%d, %s encoded", key, img.Width, img.Height, humanize.Bytes(uint64(len(data))))

	c.images[key] = img
	return img, nil
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	return len(c.images)
}

// Fetches returns how many times the source was called successfully.
func (c *Cache) Fetches() int {
	return c.fetches
}
