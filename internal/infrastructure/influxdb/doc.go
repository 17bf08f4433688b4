// Package influxdb records camera telemetry in InfluxDB 2.x.
//
// It wraps influxdb-client-go v2. Every applied property change becomes a
// camera_property point and the MQTT bridge reports bridge_health samples.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.WritePropertyChange("porch", "brightness", "60", "api")
//
// Writes are non-blocking and batched according to batch_size and
// flush_interval. Asynchronous write errors go to the SetOnError callback.
package influxdb
