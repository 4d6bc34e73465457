// Package detect finds bright spots in a tile: Gaussian smoothing, a Laplacian
// blob response, then thresholded local maxima.
package detect

import (
	"github.com/boucaud/sample-intensity-worker/internal/raster"
)

// Config controls spot detection.
type Config struct {
	Sigma       float64
	MinDistance int
	// Threshold is the minimum blob response (on intensities scaled to [0, 1]).
	Threshold float64
	// IntensityThreshold, when set, also requires the raw pixel value at a peak
	// to exceed it.
	IntensityThreshold *float64
}

// Detector runs the spot detection pipeline.
type Detector struct {
	cfg Config
}

// New creates a detector.
func New(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// Response returns the blob response of img, row-major.
func (d *Detector) Response(img *raster.Image) []float64 {
	return blobResponse(img.Normalized(), img.Width, img.Height, d.cfg.Sigma)
}

// Detect returns peaks whose response exceeds the threshold, strongest first.
func (d *Detector) Detect(img *raster.Image) []Peak {
	resp := d.Response(img)
	peaks := PeakLocalMax(resp, img.Width, img.Height, d.cfg.MinDistance, d.cfg.Threshold)
	if d.cfg.IntensityThreshold == nil {
		return peaks
	}

	gate := *d.cfg.IntensityThreshold
	kept := peaks[:0]
	for _, p := range peaks {
		if img.At(p.Col, p.Row) > gate {
			kept = append(kept, p)
		}
	}
	return kept
}
