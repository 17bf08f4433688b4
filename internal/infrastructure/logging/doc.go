// Package logging provides structured logging for the camera bridge.
//
// It wraps log/slog so every record carries the service name and build
// version, in JSON for production or text for development.
//
// Configuration (config.yaml):
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("property applied", "property", "awb", "value", "Cloudy")
//
// Never log secrets such as the JWT secret, MQTT password or InfluxDB token.
package logging
