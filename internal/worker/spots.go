package worker

import (
	"context"
	"fmt"
	"log"

	"github.com/boucaud/sample-intensity-worker/internal/annotation"
	"github.com/boucaud/sample-intensity-worker/internal/detect"
	"github.com/boucaud/sample-intensity-worker/internal/imagecache"
	"github.com/boucaud/sample-intensity-worker/internal/logging"
	"github.com/boucaud/sample-intensity-worker/internal/params"
	"github.com/boucaud/sample-intensity-worker/internal/raster"
	"github.com/boucaud/sample-intensity-worker/internal/render"
)

// SpotsConfig contains spot-annotation worker configuration.
type SpotsConfig struct {
	DatasetID   string
	Annotations AnnotationStore
	Tiles       imagecache.Source
	UI          WorkerUI
	Renderer    *render.Renderer

	Sigma             float64
	MinDistance       int
	ResponseThreshold float64
	// MaxUploads caps created annotations per run; the cap is checked before each upload.
	MaxUploads int
}

// SpotsReport summarizes one spot-annotation run.
type SpotsReport struct {
	Request  params.Request
	Detected int
	Created  int
	Capped   bool
}

// SpotsWorker detects spots and serves the interactive interface and preview.
type SpotsWorker struct {
	cfg    SpotsConfig
	images *imagecache.Cache
}

// NewSpotsWorker creates a spot-annotation worker.
func NewSpotsWorker(cfg SpotsConfig) *SpotsWorker {
	if cfg.Renderer == nil {
		cfg.Renderer = render.NewRenderer(render.Config{})
	}
	return &SpotsWorker{
		cfg:    cfg,
		images: imagecache.New(cfg.Tiles),
	}
}

// Run executes the handler selected by the request field.
func (w *SpotsWorker) Run(ctx context.Context, p *params.Spots) (*SpotsReport, error) {
	switch p.Request {
	case params.RequestInterface:
		return w.Interface(ctx, p)
	case params.RequestPreview:
		return w.Preview(ctx, p)
	default:
		return w.Compute(ctx, p)
	}
}

// SpotInterface describes the parameters users can tune for spot detection.
func SpotInterface() annotation.Interface {
	lo, hi := 0.0, 65535.0
	return annotation.Interface{
		"threshold": {Type: "number", Min: &lo, Max: &hi, Default: 0.0},
		"tags":      {Type: "tags"},
		"layer":     {Type: "layer"},
		"someText":  {Type: "text"},
	}
}

// Interface publishes the interface descriptor for the worker image.
func (w *SpotsWorker) Interface(ctx context.Context, p *params.Spots) (*SpotsReport, error) {
	if err := w.cfg.UI.SetWorkerImageInterface(ctx, p.Image, SpotInterface()); err != nil {
		return nil, fmt.Errorf("failed to set worker interface: %w", err)
	}
	log.Printf("Published interface for %s", p.Image)
	return &SpotsReport{Request: params.RequestInterface}, nil
}

// Preview publishes a red overlay of the pixels above the interface threshold.
func (w *SpotsWorker) Preview(ctx context.Context, p *params.Spots) (*SpotsReport, error) {
	threshold, ok := p.IntensityThreshold()
	if !ok {
		return nil, &params.ValidationError{Reason: "workerInterface.threshold is required for a preview"}
	}

	img, err := w.tile(ctx, p)
	if err != nil {
		return nil, err
	}
	uri, err := w.cfg.Renderer.PreviewDataURI(img, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to render preview: %w", err)
	}

	preview := annotation.Preview{Text: p.Text(), Image: uri}
	if err := w.cfg.UI.SetWorkerImagePreview(ctx, p.Image, preview); err != nil {
		return nil, fmt.Errorf("failed to set worker preview: %w", err)
	}
	log.Printf("Published preview for %s at threshold %g", p.Image, threshold)
	return &SpotsReport{Request: params.RequestPreview}, nil
}

// Compute detects spots on the configured tile and uploads one point annotation per spot.
func (w *SpotsWorker) Compute(ctx context.Context, p *params.Spots) (*SpotsReport, error) {
	img, err := w.tile(ctx, p)
	if err != nil {
		return nil, err
	}

	cfg := detect.Config{
		Sigma:       w.cfg.Sigma,
		MinDistance: w.cfg.MinDistance,
		Threshold:   w.cfg.ResponseThreshold,
	}
	if th, ok := p.IntensityThreshold(); ok {
		cfg.IntensityThreshold = &th
	}
	peaks := detect.New(cfg).Detect(img)

	report := &SpotsReport{Request: params.RequestCompute, Detected: len(peaks)}
	log.Printf("Uploading %d annotations", len(peaks))

	tags := p.EffectiveTags()
	if tags == nil {
		tags = []string{}
	}
	channel := p.EffectiveChannel()

	for _, pk := range peaks {
		if w.cfg.MaxUploads > 0 && report.Created >= w.cfg.MaxUploads {
			report.Capped = true
			log.Printf("Reached the limit of %d annotations, skipping %d", w.cfg.MaxUploads, len(peaks)-report.Created)
			break
		}
		a := &annotation.Annotation{
			DatasetID: w.cfg.DatasetID,
			Shape:     annotation.ShapePoint,
			Channel:   channel,
			Location:  p.Assignment,
			Tags:      tags,
			Coordinates: []annotation.Coordinate{
				{X: float64(pk.Col), Y: float64(pk.Row), Z: 0},
			},
		}
		if _, err := w.cfg.Annotations.CreateAnnotation(ctx, a); err != nil {
			return nil, fmt.Errorf("failed to upload annotation at (%d, %d): %w", pk.Col, pk.Row, err)
		}
		report.Created++
		logging.Debugf("Uploaded annotation at (%d, %d), response %.5f", pk.Col, pk.Row, pk.Value)
	}
	return report, nil
}

func (w *SpotsWorker) tile(ctx context.Context, p *params.Spots) (*raster.Image, error) {
	key := imagecache.Key{
		Channel: p.EffectiveChannel(),
		Time:    p.Tile.Time,
		Z:       p.Tile.Z,
		XY:      p.Tile.XY,
	}
	img, err := w.images.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	logging.Debugf("Detecting on %s with %s filters", key, detect.Backend)
	return img, nil
}
