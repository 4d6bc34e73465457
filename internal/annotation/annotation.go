// Package annotation defines the annotation records exchanged with the platform.
package annotation

// Shapes understood by the workers.
const (
	ShapePoint = "point"
)

// Location identifies one image plane of a dataset.
type Location struct {
	XY   int `json:"XY"`
	Z    int `json:"Z"`
	Time int `json:"Time"`
}

// Coordinate is a vertex of an annotation in image pixel space.
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Annotation is a labeled shape on one image plane.
type Annotation struct {
	ID          string             `json:"_id,omitempty"`
	DatasetID   string             `json:"datasetId"`
	Shape       string             `json:"shape"`
	Channel     int                `json:"channel"`
	Location    Location           `json:"location"`
	Coordinates []Coordinate       `json:"coordinates"`
	Tags        []string           `json:"tags"`
	Properties  map[string]float64 `json:"properties,omitempty"`
}

// Center returns the first coordinate, which is the position of a point annotation.
func (a *Annotation) Center() (Coordinate, bool) {
	if len(a.Coordinates) == 0 {
		return Coordinate{}, false
	}
	return a.Coordinates[0], true
}

// InterfaceField describes one user-adjustable worker parameter.
type InterfaceField struct {
	Type    string   `json:"type"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Default any      `json:"default,omitempty"`
}

// Interface is the set of parameters a worker exposes to the platform UI.
type Interface map[string]InterfaceField

// Preview is the payload shown by the platform while tuning a worker.
type Preview struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}
