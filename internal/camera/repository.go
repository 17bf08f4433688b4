package camera

import (
	"context"
	"time"
)

// Change sources recorded with each applied property value.
const (
	SourceAPI     = "api"
	SourceMQTT    = "mqtt"
	SourcePreset  = "preset"
	SourceRestore = "restore"
	SourceConfig  = "config"
)

// Change is a single applied property value.
type Change struct {
	// ID is the history row key. It is zero for changes not yet persisted.
	ID int64 `json:"id,omitempty"`

	CameraID string `json:"camera_id"`
	Property string `json:"property"`

	// Value is the canonical value read back from the device after the set.
	Value string `json:"value"`

	// Previous is the value read before the set.
	Previous string `json:"previous"`

	// Source identifies the surface that requested the change (api, mqtt, preset, ...).
	Source string `json:"source"`

	// CreatedAt is the UTC time the change was applied.
	CreatedAt time.Time `json:"created_at"`
}

// Repository persists current property values and the change history.
//
// Implementations must be safe for concurrent use and store UTC timestamps.
type Repository interface {
	// SaveProperty stores the current value of one property, replacing any
	// earlier value.
	SaveProperty(ctx context.Context, cameraID, name, value string) error

	// LoadProperties returns the stored values for a camera (may be empty).
	LoadProperties(ctx context.Context, cameraID string) (map[string]string, error)

	// RecordChange appends a change to the history.
	RecordChange(ctx context.Context, c Change) error

	// GetHistory returns recent changes newest first. An empty property
	// returns changes of all properties.
	GetHistory(ctx context.Context, cameraID, property string, limit int) ([]Change, error)
}
