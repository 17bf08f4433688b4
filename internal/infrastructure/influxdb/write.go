package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/raspicam-bridge/internal/camera"
)

// Measurement names.
const (
	MeasurementProperty = "camera_property"
	MeasurementBridge   = "bridge_health"
)

// WritePropertyChange records an applied camera property value. It
// satisfies camera.Recorder.
//
// Tags are camera_id, property and source. The raw value is always stored
// in the "value" field; bool and int properties also get a "numeric" field
// so they can be graphed.
func (c *Client) WritePropertyChange(cameraID, property, value, source string) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(propertyPoint(cameraID, property, value, source, time.Now()))
}

// WriteBridgeHealth records one health sample of the MQTT bridge.
func (c *Client) WriteBridgeHealth(cameraID string, uptime time.Duration, commands, failures int64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		MeasurementBridge,
		map[string]string{"camera_id": cameraID},
		map[string]interface{}{
			"uptime_seconds": int64(uptime.Seconds()),
			"commands":       commands,
			"failures":       failures,
		},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

func propertyPoint(cameraID, property, value, source string, ts time.Time) *write.Point {
	fields := map[string]interface{}{"value": value}
	if n, ok := numericValue(property, value); ok {
		fields["numeric"] = n
	}

	return write.NewPoint(
		MeasurementProperty,
		map[string]string{
			"camera_id": cameraID,
			"property":  property,
			"source":    source,
		},
		fields,
		ts,
	)
}

// numericValue maps bool properties to 0/1 and int properties to their
// value. Mode properties have no numeric form.
func numericValue(property, value string) (int64, bool) {
	kind, ok := camera.KindOf(property)
	if !ok {
		return 0, false
	}
	switch kind {
	case camera.KindBool:
		if value == "1" {
			return 1, true
		}
		return 0, true
	case camera.KindInt:
		n, err := strconv.ParseInt(value, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
