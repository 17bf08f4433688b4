package api

import (
	"database/sql"
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/raspicam-bridge/internal/bridge"
)

// DBStatsProvider is satisfied by *database.DB.
type DBStatsProvider interface {
	Stats() sql.DBStats
}

// ConnectionChecker is satisfied by *mqtt.Client.
type ConnectionChecker interface {
	IsConnected() bool
}

// BridgeStatsProvider is satisfied by *bridge.Bridge.
type BridgeStatsProvider interface {
	Statistics() bridge.BridgeStatistics
}

// SystemMetrics is the GET /metrics response.
type SystemMetrics struct {
	Timestamp     string                   `json:"timestamp"`
	Version       string                   `json:"version"`
	UptimeSeconds int64                    `json:"uptime_seconds"`
	CameraID      string                   `json:"camera_id"`
	Runtime       RuntimeMetrics           `json:"runtime"`
	WebSocket     WSMetrics                `json:"websocket"`
	MQTT          MQTTMetrics              `json:"mqtt"`
	Bridge        *bridge.BridgeStatistics `json:"bridge,omitempty"`
	Database      *DatabaseMetrics         `json:"database,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// MQTTMetrics reports the broker connection.
type MQTTMetrics struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// handleMetrics returns process, transport and database statistics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		CameraID:      s.ctrl.CameraID(),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{ConnectedClients: s.hub.ClientCount()},
	}

	if s.mqtt != nil {
		metrics.MQTT = MQTTMetrics{Enabled: true, Connected: s.mqtt.IsConnected()}
	}
	if s.bridge != nil {
		stats := s.bridge.Statistics()
		metrics.Bridge = &stats
	}
	if s.db != nil {
		dbStats := s.db.Stats()
		metrics.Database = &DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}
