package api

import (
	"context"
	"net/http"
	"time"

	"github.com/nerrad567/raspicam-bridge/internal/camera"
	"github.com/nerrad567/raspicam-bridge/internal/infrastructure/influxdb"
)

const (
	defaultTelemetryRange = 24 * time.Hour
	maxTelemetryRange     = 30 * 24 * time.Hour
)

// TelemetryQuerier is satisfied by *influxdb.Client.
type TelemetryQuerier interface {
	QueryPropertyTrend(ctx context.Context, cameraID, property string, since time.Duration) ([]influxdb.TrendPoint, error)
}

// handleTelemetry returns the recorded numeric values of one property.
// Query parameters: property (required) and range, a Go duration such as
// "6h" (default 24h, at most 30 days).
func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	if s.telemetry == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "telemetry is not enabled")
		return
	}

	q := r.URL.Query()
	property := q.Get("property")
	kind, ok := camera.KindOf(property)
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeUnknownProperty, "unknown property: "+property)
		return
	}
	if kind == camera.KindMode {
		writeBadRequest(w, property+" has no numeric telemetry")
		return
	}

	since := defaultTelemetryRange
	if raw := q.Get("range"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			writeBadRequest(w, "range must be a positive duration such as 6h")
			return
		}
		since = min(d, maxTelemetryRange)
	}

	points, err := s.telemetry.QueryPropertyTrend(r.Context(), s.ctrl.CameraID(), property, since)
	if err != nil {
		s.logger.Error("telemetry query failed", "property", property, "error", err)
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "telemetry query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"property": property,
		"range":    since.String(),
		"points":   points,
	})
}
