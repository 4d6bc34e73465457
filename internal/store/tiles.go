package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/boucaud/sample-intensity-worker/internal/annotation"
)

// TileDir reads raw tile PNGs laid out as <root>/<datasetId>/xy<XY>_z<Z>_t<Time>_c<Channel>.png.
type TileDir struct {
	root string
}

// NewTileDir creates a tile reader rooted at dir.
func NewTileDir(dir string) *TileDir {
	return &TileDir{root: dir}
}

// Path returns the file holding one plane of one channel.
func (d *TileDir) Path(datasetID string, loc annotation.Location, channel int) string {
	name := fmt.Sprintf("xy%d_z%d_t%d_c%d.png", loc.XY, loc.Z, loc.Time, channel)
	return filepath.Join(d.root, filepath.Base(datasetID), name)
}

// Read returns the encoded tile. Missing tiles wrap os.ErrNotExist.
func (d *TileDir) Read(datasetID string, loc annotation.Location, channel int) ([]byte, error) {
	data, err := os.ReadFile(d.Path(datasetID, loc, channel))
	if err != nil {
		return nil, fmt.Errorf("failed to read tile: %w", err)
	}
	return data, nil
}

// Write stores an encoded tile, creating the dataset directory as needed.
func (d *TileDir) Write(datasetID string, loc annotation.Location, channel int, data []byte) error {
	path := d.Path(datasetID, loc, channel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create tile directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
