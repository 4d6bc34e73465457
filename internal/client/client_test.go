package client

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/boucaud/sample-intensity-worker/internal/annotation"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Config{APIURL: srv.URL + "/api/v1", Token: "secret", Timeout: 5 * time.Second, UserAgent: "test-agent"})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8080", "://bad"} {
		if _, err := New(Config{APIURL: raw}); err == nil {
			t.Errorf("expected error for api url %q", raw)
		}
	}
}

func TestGetAnnotationsByDatasetID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/upenncontrast_annotation" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get(TokenHeader); got != "secret" {
			t.Errorf("expected token header, got %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("expected user agent, got %q", got)
		}
		q := r.URL.Query()
		if q.Get("datasetId") != "ds1" || q.Get("shape") != "point" || q.Get("limit") != "0" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"_id":"a1","shape":"point","channel":1,"location":{"XY":2,"Z":3,"Time":4},"coordinates":[{"x":10,"y":20,"z":0}],"tags":["t"]}]`))
	})

	list, err := c.GetAnnotationsByDatasetID(context.Background(), "ds1", "point")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 annotation, got %d", len(list))
	}
	a := list[0]
	if a.ID != "a1" || a.Channel != 1 || a.Location != (annotation.Location{XY: 2, Z: 3, Time: 4}) {
		t.Errorf("unexpected annotation %+v", a)
	}
	if center, ok := a.Center(); !ok || center.X != 10 || center.Y != 20 {
		t.Errorf("unexpected center %+v", center)
	}
}

func TestGetAnnotationByID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/upenncontrast_annotation/abc" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"_id":"abc","shape":"point"}`))
	})

	a, err := c.GetAnnotationByID(context.Background(), "abc")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if a.ID != "abc" {
		t.Errorf("expected id abc, got %q", a.ID)
	}
}

func TestCreateAnnotation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/upenncontrast_annotation" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		var a annotation.Annotation
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if a.DatasetID != "ds1" || len(a.Tags) != 1 || a.Tags[0] != "spot" {
			t.Errorf("unexpected annotation body %+v", a)
		}
		a.ID = "new"
		json.NewEncoder(w).Encode(a)
	})

	created, err := c.CreateAnnotation(context.Background(), &annotation.Annotation{
		DatasetID:   "ds1",
		Shape:       annotation.ShapePoint,
		Tags:        []string{"spot"},
		Coordinates: []annotation.Coordinate{{X: 1, Y: 2}},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID != "new" {
		t.Errorf("expected saved id, got %q", created.ID)
	}
}

func TestAddAnnotationPropertyValues(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/annotation_property_values" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("datasetId") != "ds1" || q.Get("annotationId") != "a1" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		var values map[string]float64
		if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if values["Mean"] != 12.5 {
			t.Errorf("unexpected values %v", values)
		}
	})

	if err := c.AddAnnotationPropertyValues(context.Background(), "ds1", "a1", map[string]float64{"Mean": 12.5}); err != nil {
		t.Fatalf("add values failed: %v", err)
	}
}

func TestGetRawImage(t *testing.T) {
	payload := []byte("\x89PNG fake")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/item/ds1/tiles/raw" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("xy") != "1" || q.Get("z") != "2" || q.Get("time") != "3" || q.Get("channel") != "4" || q.Get("encoding") != "PNG" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write(payload)
	})

	ds := c.Dataset("ds1")
	if ds.ID() != "ds1" {
		t.Errorf("unexpected dataset id %q", ds.ID())
	}
	data, err := ds.GetRawImage(context.Background(), 1, 2, 3, 4)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("unexpected payload %q", data)
	}
}

func TestWorkerEndpoints(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if got := r.URL.Query().Get("image"); got != "worker:latest" {
			t.Errorf("expected image query, got %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if len(body) == 0 {
			t.Error("expected a JSON body")
		}
	})

	ctx := context.Background()
	if err := c.SetWorkerImagePreview(ctx, "worker:latest", annotation.Preview{Text: "hi", Image: "data:"}); err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if err := c.SetWorkerImageInterface(ctx, "worker:latest", annotation.Interface{"tags": {Type: "tags"}}); err != nil {
		t.Fatalf("interface failed: %v", err)
	}
	if len(paths) != 2 || paths[0] != "/api/v1/worker_preview" || paths[1] != "/api/v1/worker_interface" {
		t.Errorf("unexpected paths %v", paths)
	}
}

func TestStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such annotation", http.StatusNotFound)
	})

	_, err := c.GetAnnotationByID(context.Background(), "missing")
	var serr *StatusError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if serr.StatusCode != http.StatusNotFound || serr.Body != "no such annotation" {
		t.Errorf("unexpected status error %+v", serr)
	}
}

func TestMalformedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	if _, err := c.GetAnnotationByID(context.Background(), "x"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestGzipResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept-Encoding") == "" {
			t.Error("expected the transport to ask for compression")
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte(`{"_id":"zipped"}`))
		gz.Close()
	})

	a, err := c.GetAnnotationByID(context.Background(), "zipped")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if a.ID != "zipped" {
		t.Errorf("expected decompressed body, got %+v", a)
	}
}
