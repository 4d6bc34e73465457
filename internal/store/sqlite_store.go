// Package store provides persistent storage for the dev platform using SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/boucaud/sample-intensity-worker/internal/annotation"
)

// ErrNotFound is returned when a write targets a missing record.
var ErrNotFound = errors.New("not found")

// Store holds annotations, their property values and worker UI state.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// NewStore creates a new SQLite-based store.
func NewStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for sqlite: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS annotations (
		id TEXT PRIMARY KEY,
		dataset_id TEXT NOT NULL,
		shape TEXT NOT NULL,
		channel INTEGER NOT NULL,
		xy INTEGER NOT NULL,
		z INTEGER NOT NULL,
		time INTEGER NOT NULL,
		coordinates_json TEXT NOT NULL,
		tags_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_annotations_dataset ON annotations(dataset_id, shape);

	CREATE TABLE IF NOT EXISTS property_values (
		annotation_id TEXT NOT NULL,
		dataset_id TEXT NOT NULL,
		name TEXT NOT NULL,
		value REAL NOT NULL,
		PRIMARY KEY (annotation_id, name)
	);

	CREATE INDEX IF NOT EXISTS idx_property_values_dataset ON property_values(dataset_id);

	CREATE TABLE IF NOT EXISTS worker_previews (
		image TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		data_uri TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS worker_interfaces (
		image TEXT PRIMARY KEY,
		interface_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateAnnotation stores a copy of a with a fresh id and returns it.
func (s *Store) CreateAnnotation(a *annotation.Annotation) (*annotation.Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *a
	saved.ID = uuid.NewString()
	saved.Properties = nil
	if saved.Tags == nil {
		saved.Tags = []string{}
	}
	if saved.Coordinates == nil {
		saved.Coordinates = []annotation.Coordinate{}
	}

	coordsJSON, err := json.Marshal(saved.Coordinates)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal coordinates: %w", err)
	}
	tagsJSON, err := json.Marshal(saved.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO annotations (id, dataset_id, shape, channel, xy, z, time, coordinates_json, tags_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		saved.ID,
		saved.DatasetID,
		saved.Shape,
		saved.Channel,
		saved.Location.XY,
		saved.Location.Z,
		saved.Location.Time,
		string(coordsJSON),
		string(tagsJSON),
		time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// GetAnnotation retrieves an annotation by id. It returns nil when none exists.
func (s *Store) GetAnnotation(id string) (*annotation.Annotation, error) {
	rows, err := s.db.Query(`
		SELECT id, dataset_id, shape, channel, xy, z, time, coordinates_json, tags_json
		FROM annotations WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list, err := scanAnnotations(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	a := &list[0]
	props, err := s.propertiesOf("annotation_id = ?", a.ID)
	if err != nil {
		return nil, err
	}
	a.Properties = props[a.ID]
	return a, nil
}

// ListAnnotations returns the annotations of a dataset in creation order. An empty
// shape matches every shape.
func (s *Store) ListAnnotations(datasetID, shape string) ([]annotation.Annotation, error) {
	query := `
		SELECT id, dataset_id, shape, channel, xy, z, time, coordinates_json, tags_json
		FROM annotations WHERE dataset_id = ?`
	args := []any{datasetID}
	if shape != "" {
		query += " AND shape = ?"
		args = append(args, shape)
	}
	query += " ORDER BY rowid ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list, err := scanAnnotations(rows)
	if err != nil {
		return nil, err
	}

	props, err := s.propertiesOf("dataset_id = ?", datasetID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Properties = props[list[i].ID]
	}
	if list == nil {
		list = []annotation.Annotation{}
	}
	return list, nil
}

// AddPropertyValues upserts named values on an annotation of the dataset.
func (s *Store) AddPropertyValues(datasetID, annotationID string, values map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM annotations WHERE id = ? AND dataset_id = ?", annotationID, datasetID).Scan(&n)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("annotation %s in dataset %s: %w", annotationID, datasetID, ErrNotFound)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO property_values (annotation_id, dataset_id, name, value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(annotation_id, name) DO UPDATE SET value = excluded.value
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for name, v := range values {
		if _, err := stmt.Exec(annotationID, datasetID, name, v); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SetWorkerPreview replaces the preview of a worker image.
func (s *Store) SetWorkerPreview(image string, preview annotation.Preview) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO worker_previews (image, text, data_uri, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(image) DO UPDATE SET text = excluded.text, data_uri = excluded.data_uri, updated_at = excluded.updated_at
	`, image, preview.Text, preview.Image, time.Now().Format(time.RFC3339))
	return err
}

// GetWorkerPreview returns the preview of a worker image, or nil when none was set.
func (s *Store) GetWorkerPreview(image string) (*annotation.Preview, error) {
	var p annotation.Preview
	err := s.db.QueryRow("SELECT text, data_uri FROM worker_previews WHERE image = ?", image).Scan(&p.Text, &p.Image)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SetWorkerInterface replaces the interface descriptor of a worker image.
func (s *Store) SetWorkerInterface(image string, iface annotation.Interface) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(iface)
	if err != nil {
		return fmt.Errorf("failed to marshal interface: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO worker_interfaces (image, interface_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(image) DO UPDATE SET interface_json = excluded.interface_json, updated_at = excluded.updated_at
	`, image, string(data), time.Now().Format(time.RFC3339))
	return err
}

// GetWorkerInterface returns the descriptor of a worker image, or nil when none was set.
func (s *Store) GetWorkerInterface(image string) (annotation.Interface, error) {
	var data string
	err := s.db.QueryRow("SELECT interface_json FROM worker_interfaces WHERE image = ?", image).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var iface annotation.Interface
	if err := json.Unmarshal([]byte(data), &iface); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interface: %w", err)
	}
	return iface, nil
}

// propertiesOf loads property values matching where, grouped by annotation id.
func (s *Store) propertiesOf(where string, arg any) (map[string]map[string]float64, error) {
	rows, err := s.db.Query("SELECT annotation_id, name, value FROM property_values WHERE "+where, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	props := make(map[string]map[string]float64)
	for rows.Next() {
		var id, name string
		var v float64
		if err := rows.Scan(&id, &name, &v); err != nil {
			return nil, err
		}
		if props[id] == nil {
			props[id] = make(map[string]float64)
		}
		props[id][name] = v
	}
	return props, rows.Err()
}

func scanAnnotations(rows *sql.Rows) ([]annotation.Annotation, error) {
	var list []annotation.Annotation
	for rows.Next() {
		var a annotation.Annotation
		var coordsJSON, tagsJSON string

		err := rows.Scan(
			&a.ID,
			&a.DatasetID,
			&a.Shape,
			&a.Channel,
			&a.Location.XY,
			&a.Location.Z,
			&a.Location.Time,
			&coordsJSON,
			&tagsJSON,
		)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(coordsJSON), &a.Coordinates); err != nil {
			return nil, fmt.Errorf("failed to unmarshal coordinates: %w", err)
		}
		if err := json.Unmarshal([]byte(tagsJSON), &a.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}

		list = append(list, a)
	}
	return list, rows.Err()
}
