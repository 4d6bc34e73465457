package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/boucaud/sample-intensity-worker/internal/annotation"
)

const annotationPath = "upenncontrast_annotation"

// GetAnnotationsByDatasetID lists every annotation of a dataset with the given shape.
func (c *Client) GetAnnotationsByDatasetID(ctx context.Context, datasetID, shape string) ([]annotation.Annotation, error) {
	q := url.Values{}
	q.Set("datasetId", datasetID)
	if shape != "" {
		q.Set("shape", shape)
	}
	q.Set("limit", "0")

	var list []annotation.Annotation
	if err := c.doJSON(ctx, http.MethodGet, annotationPath, q, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetAnnotationByID fetches one annotation.
func (c *Client) GetAnnotationByID(ctx context.Context, id string) (*annotation.Annotation, error) {
	var a annotation.Annotation
	if err := c.doJSON(ctx, http.MethodGet, annotationPath+"/"+id, nil, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAnnotation stores a new annotation and returns it as saved by the platform.
func (c *Client) CreateAnnotation(ctx context.Context, a *annotation.Annotation) (*annotation.Annotation, error) {
	var created annotation.Annotation
	if err := c.doJSON(ctx, http.MethodPost, annotationPath, nil, a, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// AddAnnotationPropertyValues attaches named values to an annotation.
func (c *Client) AddAnnotationPropertyValues(ctx context.Context, datasetID, annotationID string, values map[string]float64) error {
	q := url.Values{}
	q.Set("datasetId", datasetID)
	q.Set("annotationId", annotationID)
	return c.doJSON(ctx, http.MethodPost, "annotation_property_values", q, values, nil)
}
