package bridge

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"
)

const defaultHealthInterval = 30 * time.Second

// HealthRecorder stores health samples for trending. Optional.
type HealthRecorder interface {
	WriteBridgeHealth(cameraID string, uptime time.Duration, commands, failures int64)
}

type stats struct {
	commandsReceived atomic.Int64
	commandsFailed   atomic.Int64
	requestsServed   atomic.Int64
}

func (s *stats) snapshot() BridgeStatistics {
	return BridgeStatistics{
		CommandsReceived: s.commandsReceived.Load(),
		CommandsFailed:   s.commandsFailed.Load(),
		RequestsServed:   s.requestsServed.Load(),
	}
}

// healthLoop publishes health on every tick until ctx is cancelled or the
// bridge stops.
func (b *Bridge) healthLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.healthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case <-ticker.C:
			b.publishHealth(b.currentHealth())
		}
	}
}

func (b *Bridge) currentHealth() (HealthStatus, string) {
	if !b.mqtt.IsConnected() {
		return HealthDegraded, "MQTT disconnected"
	}
	return HealthHealthy, ""
}

func (b *Bridge) publishHealth(status HealthStatus, reason string) {
	uptime := time.Since(b.startTime)
	msg := HealthMessage{
		CameraID:      b.cameraID,
		Timestamp:     time.Now().UTC(),
		Status:        status,
		Version:       b.version,
		UptimeSeconds: int64(uptime.Seconds()),
		Statistics:    b.stats.snapshot(),
		Reason:        reason,
	}

	if b.recorder != nil {
		b.recorder.WriteBridgeHealth(b.cameraID, uptime, msg.Statistics.CommandsReceived, msg.Statistics.CommandsFailed)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		b.logError("failed to marshal health", err)
		return
	}
	if err := b.mqtt.Publish(b.topics.Health(b.cameraID), payload, b.qos, true); err != nil {
		b.logError("failed to publish health", err)
	}
}
