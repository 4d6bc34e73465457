package params

import "github.com/boucaud/sample-intensity-worker/internal/annotation"

const defaultPropertyName = "unknown_property"

// Intensity holds the parameters of the intensity-property worker.
type Intensity struct {
	Name          string
	CustomName    string
	ID            string
	PropertyType  string
	AnnotationIDs []string
	Shape         string
	// Layer overrides the channel of every annotation when set.
	Layer *int
	Tags  []string
}

// PropertyName returns the name under which computed values are stored.
func (p *Intensity) PropertyName() string {
	if p.CustomName != "" {
		return p.CustomName
	}
	if p.Name != "" {
		return p.Name
	}
	return defaultPropertyName
}

// ChannelFor returns the channel to sample for an annotation.
func (p *Intensity) ChannelFor(a *annotation.Annotation) int {
	if p.Layer != nil {
		return *p.Layer
	}
	return a.Channel
}

// ParseIntensity extracts intensity-property parameters. No key is required.
func ParseIntensity(b Blob) (*Intensity, error) {
	p := &Intensity{Shape: annotation.ShapePoint}
	fields := []struct {
		key string
		dst any
	}{
		{"name", &p.Name},
		{"customName", &p.CustomName},
		{"id", &p.ID},
		{"propertyType", &p.PropertyType},
		{"annotationIds", &p.AnnotationIDs},
		{"shape", &p.Shape},
		{"layer", &p.Layer},
		{"tags", &p.Tags},
	}
	for _, f := range fields {
		if err := b.Get(f.key, f.dst); err != nil {
			return nil, err
		}
	}
	if p.Shape == "" {
		p.Shape = annotation.ShapePoint
	}
	return p, nil
}
