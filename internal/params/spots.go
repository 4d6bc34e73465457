package params

import (
	"encoding/json"

	"github.com/boucaud/sample-intensity-worker/internal/annotation"
)

// Request selects what a spot-annotation invocation does.
type Request int

const (
	RequestCompute Request = iota
	RequestPreview
	RequestInterface
)

func (r Request) String() string {
	switch r {
	case RequestPreview:
		return "preview"
	case RequestInterface:
		return "interface"
	default:
		return "compute"
	}
}

// ParseRequest maps the "request" field onto a Request. An empty value means compute.
func ParseRequest(s string) (Request, error) {
	switch s {
	case "", "compute":
		return RequestCompute, nil
	case "preview":
		return RequestPreview, nil
	case "interface":
		return RequestInterface, nil
	}
	return 0, &ValidationError{Reason: "unknown request " + s}
}

// Keys each request needs before anything is fetched.
var requiredSpotKeys = map[Request][]string{
	RequestCompute:   {"assignment", "channel", "connectTo", "tags", "tile"},
	RequestPreview:   {"channel", "tile", "workerInterface", "image"},
	RequestInterface: {"image"},
}

// Value wraps a single worker interface value as sent by the platform UI.
type Value[T any] struct {
	Value T `json:"value"`
}

// WorkerInterface holds the values a user set through the worker interface.
type WorkerInterface struct {
	Threshold *Value[float64]  `json:"threshold,omitempty"`
	SomeText  *Value[string]   `json:"someText,omitempty"`
	Tags      *Value[[]string] `json:"tags,omitempty"`
	Layer     *Value[int]      `json:"layer,omitempty"`
}

// Spots holds the parameters of the spot-annotation worker.
type Spots struct {
	Request         Request
	Assignment      annotation.Location
	Channel         int
	ConnectTo       json.RawMessage
	Tags            []string
	Tile            annotation.Location
	WorkerInterface WorkerInterface
	Image           string
}

// ParseSpots dispatches on the request field and checks the keys that request needs.
func ParseSpots(b Blob) (*Spots, error) {
	var request string
	if err := b.Get("request", &request); err != nil {
		return nil, err
	}
	req, err := ParseRequest(request)
	if err != nil {
		return nil, err
	}
	if err := b.Require(requiredSpotKeys[req]...); err != nil {
		return nil, err
	}

	p := &Spots{Request: req, ConnectTo: b.Raw("connectTo")}
	fields := []struct {
		key string
		dst any
	}{
		{"assignment", &p.Assignment},
		{"channel", &p.Channel},
		{"tags", &p.Tags},
		{"tile", &p.Tile},
		{"workerInterface", &p.WorkerInterface},
		{"image", &p.Image},
	}
	for _, f := range fields {
		if err := b.Get(f.key, f.dst); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// EffectiveChannel is the layer chosen in the interface, or the configured channel.
func (p *Spots) EffectiveChannel() int {
	if p.WorkerInterface.Layer != nil {
		return p.WorkerInterface.Layer.Value
	}
	return p.Channel
}

// EffectiveTags are the tags chosen in the interface, or the configured tags.
func (p *Spots) EffectiveTags() []string {
	if p.WorkerInterface.Tags != nil && len(p.WorkerInterface.Tags.Value) > 0 {
		return p.WorkerInterface.Tags.Value
	}
	return p.Tags
}

// IntensityThreshold returns the interface threshold, if the user set one.
func (p *Spots) IntensityThreshold() (float64, bool) {
	if p.WorkerInterface.Threshold == nil {
		return 0, false
	}
	return p.WorkerInterface.Threshold.Value, true
}

// Text returns the free-text interface value.
func (p *Spots) Text() string {
	if p.WorkerInterface.SomeText == nil {
		return ""
	}
	return p.WorkerInterface.SomeText.Value
}
