package camera

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Recorder receives applied changes for time-series storage.
type Recorder interface {
	WritePropertyChange(cameraID, property, value, source string)
}

// Logger is the logging surface used by the controller.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	// CameraID identifies the camera in storage, telemetry and events.
	CameraID string

	// Adapter translates property values for the device. Required.
	Adapter *PropertyAdapter

	// Repository persists values and history. Optional.
	Repository Repository

	// Recorder receives changes for telemetry. Optional.
	Recorder Recorder

	// Logger is optional.
	Logger Logger
}

// Controller applies property changes on behalf of the API and MQTT
// surfaces. Writes are serialised, so a flip read-modify-write issued
// through the controller is never interleaved with another controller write.
// Each applied value is read back, persisted, recorded and announced to
// change listeners.
type Controller struct {
	cameraID string
	adapter  *PropertyAdapter
	repo     Repository
	recorder Recorder
	logger   Logger

	mu sync.Mutex

	listenersMu sync.RWMutex
	listeners   []func(Change)
}

// NewController validates opts and returns a ready controller.
func NewController(opts ControllerOptions) (*Controller, error) {
	if opts.Adapter == nil {
		return nil, errors.New("camera: adapter is required")
	}
	if opts.CameraID == "" {
		return nil, ErrCameraIDRequired
	}
	return &Controller{
		cameraID: opts.CameraID,
		adapter:  opts.Adapter,
		repo:     opts.Repository,
		recorder: opts.Recorder,
		logger:   opts.Logger,
	}, nil
}

// CameraID returns the camera identifier.
func (c *Controller) CameraID() string {
	return c.cameraID
}

// OnChange registers fn to be called after every change that alters a
// property value. Listeners run synchronously on the writer's goroutine and
// must not block.
func (c *Controller) OnChange(fn func(Change)) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Set applies one property value.
func (c *Controller) Set(ctx context.Context, name, value, source string) error {
	c.mu.Lock()
	change, changed, err := c.apply(ctx, name, value, source)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if changed {
		c.notify(change)
	}
	return nil
}

// SetMany applies props with recognised properties first in declaration
// order. It returns the failures keyed by name; nil means all applied.
func (c *Controller) SetMany(ctx context.Context, props map[string]string, source string) map[string]error {
	var (
		failed  map[string]error
		changes []Change
	)

	c.mu.Lock()
	for _, name := range orderedNames(props) {
		change, changed, err := c.apply(ctx, name, props[name], source)
		if err != nil {
			if failed == nil {
				failed = make(map[string]error)
			}
			failed[name] = err
			continue
		}
		if changed {
			changes = append(changes, change)
		}
	}
	c.mu.Unlock()

	for _, change := range changes {
		c.notify(change)
	}
	return failed
}

// Get returns the current value of one property.
func (c *Controller) Get(name string) (string, error) {
	return c.adapter.GetProperty(name)
}

// GetAll returns every readable property.
func (c *Controller) GetAll() map[string]string {
	return c.adapter.GetAllProperties()
}

// GetSubset returns the named properties. Unknown names are omitted.
func (c *Controller) GetSubset(names []string) map[string]string {
	values := make(map[string]string, len(names))
	for _, name := range names {
		if v, err := c.adapter.GetProperty(name); err == nil {
			values[name] = v
		}
	}
	return values
}

// Restore re-applies the values stored in the repository and returns how
// many were applied. Stored values the device no longer accepts are logged
// and skipped.
func (c *Controller) Restore(ctx context.Context) (int, error) {
	if c.repo == nil {
		return 0, nil
	}

	props, err := c.repo.LoadProperties(ctx, c.cameraID)
	if err != nil {
		return 0, fmt.Errorf("loading stored properties: %w", err)
	}

	failed := c.SetMany(ctx, props, SourceRestore)
	for name, ferr := range failed {
		c.logWarn("skipping stored property", "property", name, "value", props[name], "error", ferr)
	}
	return len(props) - len(failed), nil
}

// History returns the recorded changes, newest first. It returns an empty
// slice when no repository is configured.
func (c *Controller) History(ctx context.Context, property string, limit int) ([]Change, error) {
	if c.repo == nil {
		return []Change{}, nil
	}
	return c.repo.GetHistory(ctx, c.cameraID, property, limit)
}

// SavePreset writes the current property values to path, replacing the file
// atomically.
func (c *Controller) SavePreset(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".preset-*")
	if err != nil {
		return fmt.Errorf("creating preset file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after rename

	if err := SavePreset(tmp, c.GetAll()); err != nil {
		tmp.Close() //nolint:errcheck // already failing
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing preset file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing preset file: %w", err)
	}
	return nil
}

// LoadPreset reads a preset file and applies it. The returned map holds the
// per-property failures; the error is set only when the file cannot be read.
func (c *Controller) LoadPreset(ctx context.Context, path, source string) (map[string]error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening preset file: %w", err)
	}
	defer f.Close()

	props, err := LoadPreset(f)
	if err != nil {
		return nil, err
	}
	return c.SetMany(ctx, props, source), nil
}

// apply performs one set with c.mu held. changed reports whether the value
// read back differs from the value before the set.
func (c *Controller) apply(ctx context.Context, name, value, source string) (Change, bool, error) {
	previous, err := c.adapter.GetProperty(name)
	if err != nil {
		return Change{}, false, err
	}
	if err := c.adapter.SetProperty(name, value); err != nil {
		return Change{}, false, err
	}

	current, err := c.adapter.GetProperty(name)
	if err != nil {
		return Change{}, false, err
	}
	if kind, _ := KindOf(name); kind == KindMode && current == "" {
		c.logWarn("device reports a mode with no name", "property", name)
	}

	change := Change{
		CameraID:  c.cameraID,
		Property:  name,
		Value:     current,
		Previous:  previous,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
	changed := current != previous

	if c.repo != nil {
		if err := c.repo.SaveProperty(ctx, c.cameraID, name, current); err != nil {
			c.logError("failed to persist property", "property", name, "error", err)
		}
		if changed {
			if err := c.repo.RecordChange(ctx, change); err != nil {
				c.logError("failed to record property change", "property", name, "error", err)
			}
		}
	}
	if changed && c.recorder != nil {
		c.recorder.WritePropertyChange(c.cameraID, name, current, source)
	}

	c.logDebug("property applied", "property", name, "value", current, "previous", previous, "source", source)
	return change, changed, nil
}

func (c *Controller) notify(change Change) {
	c.listenersMu.RLock()
	listeners := make([]func(Change), len(c.listeners))
	copy(listeners, c.listeners)
	c.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(change)
	}
}

func (c *Controller) logDebug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Controller) logWarn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *Controller) logError(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Error(msg, args...)
	}
}
