package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the camera bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Camera    CameraConfig    `yaml:"camera"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
}

// CameraConfig identifies the camera and controls how its settings survive restarts.
type CameraConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	// Properties are applied at start-up, before stored values are restored.
	Properties map[string]string `yaml:"properties"`

	// RestoreOnStart re-applies the last persisted value of every property.
	RestoreOnStart bool `yaml:"restore_on_start"`

	// PresetFile is a name=value settings file loaded at start-up and
	// rewritten on shutdown. Empty disables it.
	PresetFile string `yaml:"preset_file"`

	// HistoryRetentionDays prunes older change history at start-up. 0 keeps everything.
	HistoryRetentionDays int `yaml:"history_retention_days"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// HealthInterval is the period of health publications in seconds.
	HealthInterval int `yaml:"health_interval"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains authentication settings.
type SecurityConfig struct {
	JWT   JWTConfig    `yaml:"jwt"`
	Users []UserConfig `yaml:"users"`
}

// JWTConfig contains JWT token settings.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"` // minutes
}

// UserConfig is an account allowed to log in to the API.
type UserConfig struct {
	Username string `yaml:"username"`

	// PasswordHash is an argon2id PHC string.
	PasswordHash string `yaml:"password_hash"`

	// Role is "admin" (read and write) or "viewer" (read only).
	Role string `yaml:"role"`
}

// Load builds the configuration from, in increasing precedence, the
// built-in defaults, the YAML file at path, a .env file in the same
// directory and RASPICAM_* environment variables, then validates it.
//
// The .env file is optional and never replaces variables that are already
// set in the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Camera: CameraConfig{
			ID:             "camera-001",
			Name:           "Raspberry Pi Camera",
			RestoreOnStart: true,
		},
		Database: DatabaseConfig{
			Path:        "./data/raspicam.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "raspicam-bridge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			HealthInterval: 30,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 15,
			},
		},
	}
}

// envStrings binds string settings to their environment variables.
var envStrings = map[string]func(*Config) *string{
	"RASPICAM_CAMERA_ID":      func(c *Config) *string { return &c.Camera.ID },
	"RASPICAM_PRESET_FILE":    func(c *Config) *string { return &c.Camera.PresetFile },
	"RASPICAM_DATABASE_PATH":  func(c *Config) *string { return &c.Database.Path },
	"RASPICAM_MQTT_HOST":      func(c *Config) *string { return &c.MQTT.Broker.Host },
	"RASPICAM_MQTT_USERNAME":  func(c *Config) *string { return &c.MQTT.Auth.Username },
	"RASPICAM_MQTT_PASSWORD":  func(c *Config) *string { return &c.MQTT.Auth.Password },
	"RASPICAM_API_HOST":       func(c *Config) *string { return &c.API.Host },
	"RASPICAM_INFLUXDB_URL":   func(c *Config) *string { return &c.InfluxDB.URL },
	"RASPICAM_INFLUXDB_TOKEN": func(c *Config) *string { return &c.InfluxDB.Token },
	"RASPICAM_LOG_LEVEL":      func(c *Config) *string { return &c.Logging.Level },
	"RASPICAM_JWT_SECRET":     func(c *Config) *string { return &c.Security.JWT.Secret },
}

// envInts binds integer settings. Values that do not parse are ignored.
var envInts = map[string]func(*Config) *int{
	"RASPICAM_API_PORT":  func(c *Config) *int { return &c.API.Port },
	"RASPICAM_MQTT_PORT": func(c *Config) *int { return &c.MQTT.Broker.Port },
}

// applyEnvOverrides copies every non-empty RASPICAM_* variable into cfg.
func applyEnvOverrides(cfg *Config) {
	for name, field := range envStrings {
		if v := os.Getenv(name); v != "" {
			*field(cfg) = v
		}
	}
	for name, field := range envInts {
		if n, err := strconv.Atoi(os.Getenv(name)); err == nil {
			*field(cfg) = n
		}
	}
}

// minJWTSecretLength is the shortest accepted token signing secret.
const minJWTSecretLength = 32

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	errs := c.Camera.validate()
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, errors.New("mqtt.qos must be 0, 1, or 2"))
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, errors.New("api.port must be between 1 and 65535"))
	}
	errs = append(errs, c.Security.validate()...)

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func (c CameraConfig) validate() []error {
	var errs []error
	switch {
	case c.ID == "":
		errs = append(errs, errors.New("camera.id is required"))
	case strings.ContainsAny(c.ID, "/+#"):
		// The ID is a topic level in every bridge topic.
		errs = append(errs, fmt.Errorf("camera.id must not contain MQTT topic characters (/, +, #): %q", c.ID))
	}
	if c.HistoryRetentionDays < 0 {
		errs = append(errs, errors.New("camera.history_retention_days must not be negative"))
	}
	return errs
}

func (s SecurityConfig) validate() []error {
	var errs []error
	switch {
	case s.JWT.Secret == "":
		errs = append(errs, errors.New("security.jwt.secret is required (set RASPICAM_JWT_SECRET)"))
	case len(s.JWT.Secret) < minJWTSecretLength:
		errs = append(errs, fmt.Errorf("security.jwt.secret must be at least %d characters", minJWTSecretLength))
	}

	seen := make(map[string]bool, len(s.Users))
	for i, u := range s.Users {
		field := fmt.Sprintf("security.users[%d]", i)
		switch {
		case u.Username == "":
			errs = append(errs, fmt.Errorf("%s.username is required", field))
		case seen[u.Username]:
			errs = append(errs, fmt.Errorf("%s.username %q is duplicated", field, u.Username))
		}
		seen[u.Username] = true
		if !strings.HasPrefix(u.PasswordHash, "$argon2id$") {
			errs = append(errs, fmt.Errorf("%s.password_hash must be an argon2id hash", field))
		}
		if u.Role != "admin" && u.Role != "viewer" {
			errs = append(errs, fmt.Errorf("%s.role must be admin or viewer", field))
		}
	}
	return errs
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// GetReadTimeout returns the API read timeout.
func (c *Config) GetReadTimeout() time.Duration { return seconds(c.API.Timeouts.Read) }

// GetWriteTimeout returns the API write timeout.
func (c *Config) GetWriteTimeout() time.Duration { return seconds(c.API.Timeouts.Write) }

// GetIdleTimeout returns the API idle timeout.
func (c *Config) GetIdleTimeout() time.Duration { return seconds(c.API.Timeouts.Idle) }

// GetHealthInterval returns the MQTT health publication period.
func (c *Config) GetHealthInterval() time.Duration { return seconds(c.MQTT.HealthInterval) }
