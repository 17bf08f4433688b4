// Package config loads and validates the camera bridge configuration.
//
// Values come from, in increasing precedence: built-in defaults, the YAML
// file, an optional .env file beside it, and RASPICAM_* environment
// variables. Secrets (JWT secret, MQTT password, InfluxDB token) belong in
// the environment or the .env file rather than the YAML file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Camera.Name)
package config
