package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// DefaultFPS is the target frame rate assigned to cameras that do not
// specify one.
const DefaultFPS = 5

// Camera represents a camera configuration stored in the registry.
// Source is one of: an all-digit device index ("0"), a file path, or an
// http(s)/rtsp URL.
type Camera struct {
	ID        string
	Name      string
	Source    string
	FPS       int
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CameraRepository provides CRUD operations for camera configurations.
type CameraRepository struct {
	db *sql.DB
}

// Cameras returns the camera repository for this store.
func (s *Store) Cameras() *CameraRepository {
	return &CameraRepository{db: s.db}
}

// Create inserts a new camera into the registry.
func (r *CameraRepository) Create(c *Camera) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO cameras (id, name, source, fps, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Source, c.FPS, c.Active, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return err
	}

	return nil
}

// GetByID retrieves a camera by its ID.
func (r *CameraRepository) GetByID(id string) (*Camera, error) {
	c := &Camera{}

	err := r.db.QueryRow(
		`SELECT id, name, source, fps, active, created_at, updated_at
		 FROM cameras WHERE id = ?`,
		id,
	).Scan(&c.ID, &c.Name, &c.Source, &c.FPS, &c.Active, &c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return c, nil
}

// GetByName retrieves a camera by its display name. The comparison is
// case-insensitive: "Gate" and "gate" refer to the same camera.
func (r *CameraRepository) GetByName(name string) (*Camera, error) {
	c := &Camera{}

	err := r.db.QueryRow(
		`SELECT id, name, source, fps, active, created_at, updated_at
		 FROM cameras WHERE name = ? COLLATE NOCASE`,
		name,
	).Scan(&c.ID, &c.Name, &c.Source, &c.FPS, &c.Active, &c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return c, nil
}

// List retrieves all cameras from the registry.
func (r *CameraRepository) List() ([]*Camera, error) {
	rows, err := r.db.Query(
		`SELECT id, name, source, fps, active, created_at, updated_at
		 FROM cameras ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cameras []*Camera
	for rows.Next() {
		c := &Camera{}

		err := rows.Scan(&c.ID, &c.Name, &c.Source, &c.FPS, &c.Active, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, err
		}

		cameras = append(cameras, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cameras, nil
}

// Update updates an existing camera in the registry.
func (r *CameraRepository) Update(c *Camera) error {
	c.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE cameras SET name = ?, source = ?, fps = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.Source, c.FPS, c.Active, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a camera from the registry by its ID.
func (r *CameraRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM cameras WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
