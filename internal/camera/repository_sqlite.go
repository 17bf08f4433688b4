package camera

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// SQLiteRepository implements Repository on the camera_properties and
// property_changes tables.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// SaveProperty upserts the current value of a property.
func (r *SQLiteRepository) SaveProperty(ctx context.Context, cameraID, name, value string) error {
	if cameraID == "" {
		return ErrCameraIDRequired
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO camera_properties (camera_id, name, value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (camera_id, name) DO UPDATE SET
		   value = excluded.value,
		   updated_at = excluded.updated_at`,
		cameraID,
		name,
		value,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving property %s: %w", name, err)
	}
	return nil
}

// LoadProperties returns every stored property value of a camera.
func (r *SQLiteRepository) LoadProperties(ctx context.Context, cameraID string) (map[string]string, error) {
	if cameraID == "" {
		return nil, ErrCameraIDRequired
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT name, value FROM camera_properties WHERE camera_id = ?",
		cameraID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying properties: %w", err)
	}
	defer rows.Close()

	props := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		props[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating properties: %w", err)
	}
	return props, nil
}

// RecordChange inserts a history row. A zero CreatedAt is stored as now.
func (r *SQLiteRepository) RecordChange(ctx context.Context, c Change) error {
	if c.CameraID == "" {
		return ErrCameraIDRequired
	}
	if c.Source == "" {
		c.Source = SourceAPI
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO property_changes (camera_id, name, value, previous, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.CameraID,
		c.Property,
		c.Value,
		c.Previous,
		c.Source,
		c.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting property change: %w", err)
	}
	return nil
}

// GetHistory returns changes newest first, limited to limit rows
// (default 50, max 200).
func (r *SQLiteRepository) GetHistory(ctx context.Context, cameraID, property string, limit int) ([]Change, error) {
	if cameraID == "" {
		return nil, ErrCameraIDRequired
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	query := `SELECT id, camera_id, name, value, previous, source, created_at
		 FROM property_changes
		 WHERE camera_id = ?`
	args := []any{cameraID}
	if property != "" {
		query += " AND name = ?"
		args = append(args, property)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying property history: %w", err)
	}
	defer rows.Close()

	changes := make([]Change, 0, limit)
	for rows.Next() {
		var c Change
		var createdAt string
		if err := rows.Scan(&c.ID, &c.CameraID, &c.Property, &c.Value, &c.Previous, &c.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning property change: %w", err)
		}
		ts, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		c.CreatedAt = ts
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating property history: %w", err)
	}
	return changes, nil
}

// PruneHistory deletes changes older than olderThan and returns the number
// of rows removed.
func (r *SQLiteRepository) PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM property_changes WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting property history: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}
