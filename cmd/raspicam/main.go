// Raspicam Bridge exposes the settings of a Raspberry Pi camera over a REST
// and WebSocket API and an MQTT command bridge.
//
// Configuration is read from configs/config.yaml, or the file named by the
// RASPICAM_CONFIG environment variable. "raspicam hash-password" reads a
// password on stdin and prints the hash for the users section.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/nerrad567/raspicam-bridge/migrations"

	"github.com/nerrad567/raspicam-bridge/internal/api"
	"github.com/nerrad567/raspicam-bridge/internal/auth"
	"github.com/nerrad567/raspicam-bridge/internal/bridge"
	"github.com/nerrad567/raspicam-bridge/internal/camera"
	"github.com/nerrad567/raspicam-bridge/internal/infrastructure/config"
	"github.com/nerrad567/raspicam-bridge/internal/infrastructure/database"
	"github.com/nerrad567/raspicam-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/raspicam-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/raspicam-bridge/internal/infrastructure/mqtt"
)

// Version information, set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		if err := hashPassword(os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the application and blocks until ctx is cancelled. Resources are
// released in reverse order of acquisition.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear start-up sequence
	log := logging.Default()
	log.Info("starting raspicam bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"camera_id", cfg.Camera.ID,
		"level", cfg.Logging.Level,
	)

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	repo := camera.NewSQLiteRepository(db.DB)
	if days := cfg.Camera.HistoryRetentionDays; days > 0 {
		pruned, pruneErr := repo.PruneHistory(ctx, time.Duration(days)*24*time.Hour)
		if pruneErr != nil {
			return fmt.Errorf("pruning history: %w", pruneErr)
		}
		log.Info("history pruned", "removed", pruned, "retention_days", days)
	}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	ctrl, err := startCamera(ctx, cfg, repo, influxClient, log)
	if err != nil {
		return err
	}
	if cfg.Camera.PresetFile != "" {
		defer func() {
			if saveErr := ctrl.SavePreset(cfg.Camera.PresetFile); saveErr != nil {
				log.Error("failed to save preset", "path", cfg.Camera.PresetFile, "error", saveErr)
				return
			}
			log.Info("preset saved", "path", cfg.Camera.PresetFile)
		}()
	}

	users, err := auth.NewUserStore(cfg.Security.Users)
	if err != nil {
		return fmt.Errorf("loading users: %w", err)
	}
	if len(cfg.Security.Users) == 0 {
		log.Warn("no API users configured, only the health endpoint is usable")
	}

	var (
		mqttClient *mqtt.Client
		camBridge  *bridge.Bridge
	)
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		camBridge, err = startBridge(ctx, cfg, ctrl, mqttClient, influxClient, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("stopping MQTT bridge")
			camBridge.Stop()
		}()
	} else {
		log.Info("MQTT bridge disabled")
	}

	deps := api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Security:   cfg.Security,
		Logger:     log,
		Controller: ctrl,
		Users:      users,
		CameraName: cfg.Camera.Name,
		DB:         db,
		Version:    version,
	}
	// Typed nil pointers must not reach the interface fields.
	if mqttClient != nil {
		deps.MQTT = mqttClient
	}
	if camBridge != nil {
		deps.Bridge = camBridge
	}
	if influxClient != nil {
		deps.Telemetry = influxClient
	}

	apiServer, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// startCamera builds the controller and brings the camera to its start-up
// settings: configured values, then stored values, then the preset file.
func startCamera(ctx context.Context, cfg *config.Config, repo camera.Repository, influxClient *influxdb.Client, log *logging.Logger) (*camera.Controller, error) {
	opts := camera.ControllerOptions{
		CameraID:   cfg.Camera.ID,
		Adapter:    camera.NewPropertyAdapter(camera.NewSimulatedDevice()),
		Repository: repo,
		Logger:     log,
	}
	if influxClient != nil {
		opts.Recorder = influxClient
	}

	ctrl, err := camera.NewController(opts)
	if err != nil {
		return nil, fmt.Errorf("creating camera controller: %w", err)
	}

	if len(cfg.Camera.Properties) > 0 {
		failed := ctrl.SetMany(ctx, cfg.Camera.Properties, camera.SourceConfig)
		for name, ferr := range failed {
			log.Warn("ignoring configured property", "property", name, "error", ferr)
		}
	}

	if cfg.Camera.RestoreOnStart {
		restored, restoreErr := ctrl.Restore(ctx)
		if restoreErr != nil {
			return nil, fmt.Errorf("restoring camera settings: %w", restoreErr)
		}
		log.Info("camera settings restored", "properties", restored)
	}

	if path := cfg.Camera.PresetFile; path != "" {
		failed, presetErr := ctrl.LoadPreset(ctx, path, camera.SourcePreset)
		switch {
		case errors.Is(presetErr, fs.ErrNotExist):
			log.Info("no preset file yet", "path", path)
		case presetErr != nil:
			return nil, fmt.Errorf("loading preset: %w", presetErr)
		default:
			for name, ferr := range failed {
				log.Warn("ignoring preset property", "property", name, "error", ferr)
			}
			log.Info("preset loaded", "path", path)
		}
	}

	log.Info("camera ready", "camera_id", ctrl.CameraID(), "properties", ctrl.GetAll())
	return ctrl, nil
}

// startBridge connects the controller to the MQTT command and request topics.
func startBridge(ctx context.Context, cfg *config.Config, ctrl *camera.Controller, mqttClient *mqtt.Client, influxClient *influxdb.Client, log *logging.Logger) (*bridge.Bridge, error) {
	opts := bridge.Options{
		Controller:     ctrl,
		MQTTClient:     &mqttBridgeAdapter{client: mqttClient},
		QoS:            byte(cfg.MQTT.QoS), //nolint:gosec // validated to 0..2
		HealthInterval: cfg.GetHealthInterval(),
		Version:        version,
		Logger:         log,
	}
	if influxClient != nil {
		opts.Recorder = influxClient
	}

	b, err := bridge.New(opts)
	if err != nil {
		return nil, fmt.Errorf("creating MQTT bridge: %w", err)
	}
	if err := b.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting MQTT bridge: %w", err)
	}
	log.Info("MQTT bridge started", "camera_id", ctrl.CameraID())
	return b, nil
}

// hashPassword reads a password from the first line of r and writes its
// argon2id hash for use in security.users[].password_hash.
func hashPassword(r io.Reader, w io.Writer) error {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errors.New("password is empty")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, hash)
	return err
}

// getConfigPath returns RASPICAM_CONFIG if set, otherwise the default path.
func getConfigPath() string {
	if path := os.Getenv("RASPICAM_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the infrastructure connections. mqttClient and
// influxClient are nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}

// mqttBridgeAdapter adapts the infrastructure MQTT client to
// bridge.MQTTClient, whose handlers do not return errors.
type mqttBridgeAdapter struct {
	client *mqtt.Client
}

func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}
