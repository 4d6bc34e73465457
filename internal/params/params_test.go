package params

import (
	"testing"

	"github.com/boucaud/sample-intensity-worker/internal/annotation"
)

func mustDecode(t *testing.T, raw string) Blob {
	t.Helper()
	b, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return b
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode(`{"name": `)
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	if IsValidation(err) {
		t.Fatal("malformed JSON must be a hard error, not a validation error")
	}
}

func TestIntensity_PropertyName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"customName wins", `{"name": "Intensity", "customName": "Mean 5px"}`, "Mean 5px"},
		{"empty customName falls back", `{"name": "Intensity", "customName": ""}`, "Intensity"},
		{"nothing set", `{}`, "unknown_property"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseIntensity(mustDecode(t, tt.raw))
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if got := p.PropertyName(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestIntensity_LayerOverride(t *testing.T) {
	a := &annotation.Annotation{Channel: 2}

	p, err := ParseIntensity(mustDecode(t, `{"layer": 0}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := p.ChannelFor(a); got != 0 {
		t.Errorf("expected layer 0 to override channel, got %d", got)
	}

	p, err = ParseIntensity(mustDecode(t, `{"layer": null}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := p.ChannelFor(a); got != 2 {
		t.Errorf("expected fallback to annotation channel 2, got %d", got)
	}
}

func TestIntensity_Defaults(t *testing.T) {
	p, err := ParseIntensity(mustDecode(t, `{"annotationIds": ["a", "b"]}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if p.Shape != annotation.ShapePoint {
		t.Errorf("expected default shape point, got %q", p.Shape)
	}
	if len(p.AnnotationIDs) != 2 {
		t.Errorf("expected 2 annotation ids, got %v", p.AnnotationIDs)
	}
}

func TestIntensity_WrongType(t *testing.T) {
	_, err := ParseIntensity(mustDecode(t, `{"annotationIds": "abc"}`))
	if err == nil {
		t.Fatal("expected decode error")
	}
	if IsValidation(err) {
		t.Fatal("type errors are hard errors")
	}
}

const computeBlob = `{
	"assignment": {"XY": 1, "Z": 2, "Time": 3},
	"channel": 1,
	"connectTo": {"tags": [], "layer": null},
	"tags": ["spot"],
	"tile": {"XY": 0, "Z": 0, "Time": 0}
}`

func TestParseSpots_Compute(t *testing.T) {
	p, err := ParseSpots(mustDecode(t, computeBlob))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if p.Request != RequestCompute {
		t.Errorf("expected compute, got %v", p.Request)
	}
	if p.Assignment != (annotation.Location{XY: 1, Z: 2, Time: 3}) {
		t.Errorf("unexpected assignment: %+v", p.Assignment)
	}
	if p.EffectiveChannel() != 1 {
		t.Errorf("expected channel 1, got %d", p.EffectiveChannel())
	}
	if tags := p.EffectiveTags(); len(tags) != 1 || tags[0] != "spot" {
		t.Errorf("unexpected tags: %v", tags)
	}
	if _, ok := p.IntensityThreshold(); ok {
		t.Error("expected no interface threshold")
	}
}

func TestParseSpots_MissingKeys(t *testing.T) {
	_, err := ParseSpots(mustDecode(t, `{"channel": 0, "tags": []}`))
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	verr := err.(*ValidationError)
	want := []string{"assignment", "connectTo", "tile"}
	if len(verr.Missing) != len(want) {
		t.Fatalf("expected missing %v, got %v", want, verr.Missing)
	}
	for i := range want {
		if verr.Missing[i] != want[i] {
			t.Errorf("expected missing %v, got %v", want, verr.Missing)
		}
	}
}

func TestParseSpots_Requests(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Request
		invalid bool
	}{
		{"interface needs only image", `{"request": "interface", "image": "img"}`, RequestInterface, false},
		{"interface without image", `{"request": "interface"}`, 0, true},
		{"preview", `{"request": "preview", "image": "img", "channel": 0, "tile": {"XY": 0, "Z": 0, "Time": 0}, "workerInterface": {"threshold": {"value": 10}, "someText": {"value": "hi"}}}`, RequestPreview, false},
		{"preview without interface", `{"request": "preview", "image": "img", "channel": 0, "tile": {}}`, 0, true},
		{"unknown request", `{"request": "explode"}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseSpots(mustDecode(t, tt.raw))
			if tt.invalid {
				if !IsValidation(err) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if p.Request != tt.want {
				t.Errorf("expected %v, got %v", tt.want, p.Request)
			}
		})
	}
}

func TestParseSpots_InterfaceOverrides(t *testing.T) {
	raw := `{
		"request": "preview", "image": "img", "channel": 0, "tags": ["a"],
		"tile": {"XY": 0, "Z": 0, "Time": 0},
		"workerInterface": {
			"threshold": {"value": 42.5},
			"someText": {"value": "note"},
			"tags": {"value": ["b", "c"]},
			"layer": {"value": 3}
		}
	}`
	p, err := ParseSpots(mustDecode(t, raw))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if th, ok := p.IntensityThreshold(); !ok || th != 42.5 {
		t.Errorf("expected threshold 42.5, got %v (%v)", th, ok)
	}
	if p.Text() != "note" {
		t.Errorf("expected text note, got %q", p.Text())
	}
	if p.EffectiveChannel() != 3 {
		t.Errorf("expected layer 3, got %d", p.EffectiveChannel())
	}
	if tags := p.EffectiveTags(); len(tags) != 2 || tags[0] != "b" {
		t.Errorf("unexpected tags: %v", tags)
	}
}
