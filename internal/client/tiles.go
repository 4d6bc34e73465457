package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Dataset fetches tile images of one dataset.
type Dataset struct {
	client    *Client
	datasetID string
}

// Dataset returns a tile client bound to datasetID.
func (c *Client) Dataset(datasetID string) *Dataset {
	return &Dataset{client: c, datasetID: datasetID}
}

// ID returns the dataset identifier.
func (d *Dataset) ID() string {
	return d.datasetID
}

// GetRawImage returns the PNG-encoded plane at the given location.
func (d *Dataset) GetRawImage(ctx context.Context, xy, z, time, channel int) ([]byte, error) {
	q := url.Values{}
	q.Set("xy", strconv.Itoa(xy))
	q.Set("z", strconv.Itoa(z))
	q.Set("time", strconv.Itoa(time))
	q.Set("channel", strconv.Itoa(channel))
	q.Set("encoding", "PNG")
	return d.client.do(ctx, http.MethodGet, "item/"+d.datasetID+"/tiles/raw", q, nil)
}
