package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/boucaud/sample-intensity-worker/internal/annotation"
)

// SetWorkerImagePreview publishes a preview for the worker image.
func (c *Client) SetWorkerImagePreview(ctx context.Context, image string, preview annotation.Preview) error {
	q := url.Values{}
	q.Set("image", image)
	return c.doJSON(ctx, http.MethodPost, "worker_preview", q, preview, nil)
}

// SetWorkerImageInterface publishes the parameter interface of the worker image.
func (c *Client) SetWorkerImageInterface(ctx context.Context, image string, iface annotation.Interface) error {
	q := url.Values{}
	q.Set("image", image)
	return c.doJSON(ctx, http.MethodPost, "worker_interface", q, iface, nil)
}
