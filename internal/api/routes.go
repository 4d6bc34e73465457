// Package api provides HTTP handlers for the dev annotation platform.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/boucaud/sample-intensity-worker/internal/annotation"
	"github.com/boucaud/sample-intensity-worker/internal/cache"
	"github.com/boucaud/sample-intensity-worker/internal/client"
	"github.com/boucaud/sample-intensity-worker/internal/raster"
	"github.com/boucaud/sample-intensity-worker/internal/render"
	"github.com/boucaud/sample-intensity-worker/internal/store"
)

// APIPrefix is where the platform routes are mounted.
const APIPrefix = "/api/v1"

const maxBodyBytes = 16 << 20

// RouterConfig contains router configuration.
type RouterConfig struct {
	Store       *store.Store
	Tiles       *store.TileDir
	Cache       *cache.Manager
	Renderer    *render.Renderer
	CORSOrigins []string
}

type handlers struct {
	store    *store.Store
	tiles    *store.TileDir
	cache    *cache.Manager
	renderer *render.Renderer
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	h := &handlers{
		store:    cfg.Store,
		tiles:    cfg.Tiles,
		cache:    cfg.Cache,
		renderer: cfg.Renderer,
	}
	if h.renderer == nil {
		h.renderer = render.NewRenderer(render.Config{})
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", client.TokenHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route(APIPrefix, func(r chi.Router) {
		r.Route("/upenncontrast_annotation", func(r chi.Router) {
			r.Get("/", h.listAnnotations)
			r.Post("/", h.createAnnotation)
			r.Get("/{id}", h.getAnnotation)
		})
		r.Post("/annotation_property_values", h.addPropertyValues)

		r.Get("/item/{datasetId}/tiles/raw", h.rawTile)
		r.Get("/item/{datasetId}/tiles/annotated", h.annotatedTile)

		r.Get("/worker_preview", h.getWorkerPreview)
		r.Post("/worker_preview", h.setWorkerPreview)
		r.Get("/worker_interface", h.getWorkerInterface)
		r.Post("/worker_interface", h.setWorkerInterface)

		r.Get("/cache/stats", h.cacheStats)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

func requireQuery(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		http.Error(w, "missing required query param: "+name, http.StatusBadRequest)
		return "", false
	}
	return v, true
}

// listAnnotations serves cached list queries; the cache is purged on writes.
func (h *handlers) listAnnotations(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := requireQuery(w, r, "datasetId")
	if !ok {
		return
	}
	shape := r.URL.Query().Get("shape")

	key := cache.AnnotationsKey(datasetID, shape)
	if data, ok := h.cache.GetQuery(key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
		return
	}

	list, err := h.store.ListAnnotations(datasetID, shape)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// limit=0 means no limit
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 && limit < len(list) {
		list = list[:limit]
		writeJSON(w, http.StatusOK, list)
		return
	}

	data, err := json.Marshal(list)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.cache.SetQuery(key, data)
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (h *handlers) getAnnotation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := h.store.GetAnnotation(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if a == nil {
		http.Error(w, "annotation not found: "+id, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *handlers) createAnnotation(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := annotationValidator.Validate(doc); err != nil {
		http.Error(w, "invalid annotation: "+err.Error(), http.StatusBadRequest)
		return
	}

	var a annotation.Annotation
	if err := json.Unmarshal(body, &a); err != nil {
		http.Error(w, "invalid annotation: "+err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.store.CreateAnnotation(&a)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.cache.PurgeDataset(created.DatasetID)
	writeJSON(w, http.StatusOK, created)
}

func (h *handlers) addPropertyValues(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := requireQuery(w, r, "datasetId")
	if !ok {
		return
	}
	annotationID, ok := requireQuery(w, r, "annotationId")
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var values map[string]float64
	if err := json.Unmarshal(body, &values); err != nil {
		http.Error(w, "invalid property values: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.store.AddPropertyValues(datasetID, annotationID, values); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	h.cache.PurgeDataset(datasetID)
	writeJSON(w, http.StatusOK, values)
}

// tileRequest holds the plane selected by tile query parameters.
type tileRequest struct {
	datasetID string
	loc       annotation.Location
	channel   int
}

func parseTileRequest(r *http.Request) (tileRequest, error) {
	req := tileRequest{datasetID: chi.URLParam(r, "datasetId")}
	q := r.URL.Query()
	fields := []struct {
		name string
		dst  *int
	}{
		{"xy", &req.loc.XY},
		{"z", &req.loc.Z},
		{"time", &req.loc.Time},
		{"channel", &req.channel},
	}
	for _, f := range fields {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return req, errors.New("invalid " + f.name)
		}
		*f.dst = v
	}
	return req, nil
}

// tileBytes returns the encoded tile, reading through the tile cache.
func (h *handlers) tileBytes(req tileRequest) ([]byte, error) {
	key := cache.TileKey(req.datasetID, req.loc, req.channel)
	if data, ok := h.cache.GetTile(key); ok {
		return data, nil
	}

	data, err := h.tiles.Read(req.datasetID, req.loc, req.channel)
	if err != nil {
		return nil, err
	}
	if err := h.cache.SetTile(key, data); err != nil {
		log.Printf("Failed to cache tile %s: %v", key, err)
	}
	return data, nil
}

func (h *handlers) writeTileError(w http.ResponseWriter, err error) {
	if errors.Is(err, os.ErrNotExist) {
		http.Error(w, "tile not found", http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (h *handlers) rawTile(w http.ResponseWriter, r *http.Request) {
	req, err := parseTileRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if enc := r.URL.Query().Get("encoding"); enc != "" && !strings.EqualFold(enc, "PNG") {
		http.Error(w, "unsupported encoding: "+enc, http.StatusBadRequest)
		return
	}

	data, err := h.tileBytes(req)
	if err != nil {
		h.writeTileError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// annotatedTile draws the point annotations of a plane on top of its tile.
func (h *handlers) annotatedTile(w http.ResponseWriter, r *http.Request) {
	req, err := parseTileRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := h.tileBytes(req)
	if err != nil {
		h.writeTileError(w, err)
		return
	}
	img, err := raster.Decode(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	list, err := h.store.ListAnnotations(req.datasetID, annotation.ShapePoint)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	onPlane := list[:0]
	for _, a := range list {
		if a.Location == req.loc {
			onPlane = append(onPlane, a)
		}
	}

	png, err := h.renderer.AnnotatedTile(img, onPlane)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (h *handlers) setWorkerPreview(w http.ResponseWriter, r *http.Request) {
	image, ok := requireQuery(w, r, "image")
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var preview annotation.Preview
	if err := json.Unmarshal(body, &preview); err != nil {
		http.Error(w, "invalid preview: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.store.SetWorkerPreview(image, preview); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (h *handlers) getWorkerPreview(w http.ResponseWriter, r *http.Request) {
	image, ok := requireQuery(w, r, "image")
	if !ok {
		return
	}
	preview, err := h.store.GetWorkerPreview(image)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if preview == nil {
		http.Error(w, "no preview for image: "+image, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (h *handlers) setWorkerInterface(w http.ResponseWriter, r *http.Request) {
	image, ok := requireQuery(w, r, "image")
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var iface annotation.Interface
	if err := json.Unmarshal(body, &iface); err != nil {
		http.Error(w, "invalid interface: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.store.SetWorkerInterface(image, iface); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, iface)
}

func (h *handlers) getWorkerInterface(w http.ResponseWriter, r *http.Request) {
	image, ok := requireQuery(w, r, "image")
	if !ok {
		return
	}
	iface, err := h.store.GetWorkerInterface(image)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if iface == nil {
		http.Error(w, "no interface for image: "+image, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, iface)
}

func (h *handlers) cacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cache.Stats())
}
