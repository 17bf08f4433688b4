package influxdb_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/raspicam-bridge/internal/infrastructure/config"
	"github.com/nerrad567/raspicam-bridge/internal/infrastructure/influxdb"
)

// testConfig matches the local development InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "raspicam-dev-token",
		Org:           "raspicam",
		Bucket:        "camera",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

// connectOrSkip skips the test when no InfluxDB server is reachable.
func connectOrSkip(t *testing.T) *influxdb.Client {
	t.Helper()
	client, err := influxdb.Connect(testConfig())
	if err != nil {
		t.Skipf("InfluxDB not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999"

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestHealthCheck(t *testing.T) {
	client := connectOrSkip(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestHealthCheck_AfterClose(t *testing.T) {
	client := connectOrSkip(t)
	client.Close()

	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
	// Writes and flushes after close are no-ops.
	client.WritePropertyChange("cam", "brightness", "10", "api")
	client.Flush()
}

func TestWritePropertyChange(t *testing.T) {
	client := connectOrSkip(t)

	var (
		mu       sync.Mutex
		writeErr error
	)
	client.SetOnError(func(err error) {
		mu.Lock()
		writeErr = err
		mu.Unlock()
	})

	client.WritePropertyChange("test-cam", "brightness", "60", "api")
	client.WritePropertyChange("test-cam", "awb", "Sunlight", "mqtt")
	client.WriteBridgeHealth("test-cam", 90*time.Second, 4, 1)
	client.Flush()

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if writeErr != nil {
		t.Errorf("async write error: %v", writeErr)
	}
}

func TestQueryPropertyTrend(t *testing.T) {
	client := connectOrSkip(t)

	camID := "trend-" + time.Now().Format("150405.000")
	client.WritePropertyChange(camID, "sharpness", "10", "api")
	client.WritePropertyChange(camID, "sharpness", "25", "api")
	client.WritePropertyChange(camID, "effect", "Sketch", "api")
	client.Flush()

	points, err := client.QueryPropertyTrend(context.Background(), camID, "sharpness", time.Hour)
	if err != nil {
		t.Fatalf("QueryPropertyTrend() error = %v", err)
	}
	if len(points) == 0 {
		t.Fatal("no trend points returned")
	}
	if last := points[len(points)-1].Value; last != 25 {
		t.Errorf("last value = %d, want 25", last)
	}

	points, err = client.QueryPropertyTrend(context.Background(), camID, "effect", time.Hour)
	if err != nil {
		t.Fatalf("QueryPropertyTrend(effect) error = %v", err)
	}
	if len(points) != 0 {
		t.Errorf("mode property returned %d points", len(points))
	}
}
