// Package worker implements the worker pipelines: fetch parameters' targets from the
// platform, compute, and write results back.
package worker

import (
	"context"

	"github.com/boucaud/sample-intensity-worker/internal/annotation"
)

// AnnotationStore is the part of the platform API that holds annotations.
type AnnotationStore interface {
	GetAnnotationsByDatasetID(ctx context.Context, datasetID, shape string) ([]annotation.Annotation, error)
	GetAnnotationByID(ctx context.Context, id string) (*annotation.Annotation, error)
	AddAnnotationPropertyValues(ctx context.Context, datasetID, annotationID string, values map[string]float64) error
	CreateAnnotation(ctx context.Context, a *annotation.Annotation) (*annotation.Annotation, error)
}

// WorkerUI is the part of the platform API that configures interactive workers.
type WorkerUI interface {
	SetWorkerImagePreview(ctx context.Context, image string, preview annotation.Preview) error
	SetWorkerImageInterface(ctx context.Context, image string, iface annotation.Interface) error
}
