package worker

import (
	"context"
	"fmt"
	"log"

	"github.com/boucaud/sample-intensity-worker/internal/annotation"
	"github.com/boucaud/sample-intensity-worker/internal/imagecache"
	"github.com/boucaud/sample-intensity-worker/internal/logging"
	"github.com/boucaud/sample-intensity-worker/internal/params"
	"github.com/boucaud/sample-intensity-worker/internal/roi"
)

// IntensityConfig contains intensity-property worker configuration.
type IntensityConfig struct {
	DatasetID   string
	Annotations AnnotationStore
	Tiles       imagecache.Source
	Radius      float64
	InsideValue uint8
}

// IntensityReport summarizes one intensity-property run.
type IntensityReport struct {
	PropertyName string
	// Values maps annotation id to the computed mean.
	Values  map[string]float64
	Fetches int
}

// IntensityWorker computes the mean intensity around point annotations.
type IntensityWorker struct {
	cfg IntensityConfig
}

// NewIntensityWorker creates an intensity-property worker.
func NewIntensityWorker(cfg IntensityConfig) *IntensityWorker {
	return &IntensityWorker{cfg: cfg}
}

// Run computes and stores the property for every selected annotation. Any fetch or
// compute failure aborts the run.
func (w *IntensityWorker) Run(ctx context.Context, p *params.Intensity) (*IntensityReport, error) {
	report := &IntensityReport{
		PropertyName: p.PropertyName(),
		Values:       make(map[string]float64),
	}

	annotations, err := w.selectAnnotations(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(annotations) == 0 {
		log.Printf("No annotations in dataset %s, nothing to compute", w.cfg.DatasetID)
		return report, nil
	}
	log.Printf("Computing %q for %d annotations", report.PropertyName, len(annotations))

	images := imagecache.New(w.cfg.Tiles)
	engine := roi.NewEngine(w.cfg.Radius, w.cfg.InsideValue)

	for i := range annotations {
		a := &annotations[i]
		center, ok := a.Center()
		if !ok {
			return nil, fmt.Errorf("annotation %s has no coordinates", a.ID)
		}

		key := imagecache.Key{
			Channel: p.ChannelFor(a),
			Time:    a.Location.Time,
			Z:       a.Location.Z,
			XY:      a.Location.XY,
		}
		img, err := images.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("annotation %s: %w", a.ID, err)
		}

		mean, err := engine.Mean(img, center.X, center.Y)
		if err != nil {
			return nil, fmt.Errorf("annotation %s: %w", a.ID, err)
		}

		values := map[string]float64{report.PropertyName: mean}
		if err := w.cfg.Annotations.AddAnnotationPropertyValues(ctx, w.cfg.DatasetID, a.ID, values); err != nil {
			return nil, fmt.Errorf("failed to store property for annotation %s: %w", a.ID, err)
		}
		report.Values[a.ID] = mean
		logging.Debugf("Annotation %s at (%.1f, %.1f) on %s: %s=%.3f", a.ID, center.X, center.Y, key, report.PropertyName, mean)
	}

	report.Fetches = images.Fetches()
	log.Printf("Stored %d values using %d image fetches", len(report.Values), report.Fetches)
	return report, nil
}

// selectAnnotations returns the annotations named in the parameters, or every
// annotation of the dataset with the requested shape.
func (w *IntensityWorker) selectAnnotations(ctx context.Context, p *params.Intensity) ([]annotation.Annotation, error) {
	if len(p.AnnotationIDs) == 0 {
		list, err := w.cfg.Annotations.GetAnnotationsByDatasetID(ctx, w.cfg.DatasetID, p.Shape)
		if err != nil {
			return nil, fmt.Errorf("failed to list annotations: %w", err)
		}
		return list, nil
	}

	list := make([]annotation.Annotation, 0, len(p.AnnotationIDs))
	for _, id := range p.AnnotationIDs {
		a, err := w.cfg.Annotations.GetAnnotationByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch annotation %s: %w", id, err)
		}
		list = append(list, *a)
	}
	return list, nil
}
