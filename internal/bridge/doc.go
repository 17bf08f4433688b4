// Package bridge exposes a camera over MQTT.
//
// Topics, for camera ID {camera}:
//
//	raspicam/command/{camera}              in   CommandMessage
//	raspicam/ack/{camera}                  out  AckMessage
//	raspicam/request/{camera}/{request_id} in   RequestMessage
//	raspicam/response/{camera}/{request_id} out ResponseMessage
//	raspicam/state/{camera}                out  StateMessage (retained)
//	raspicam/health/{camera}               out  HealthMessage (retained)
//
// Commands are applied through camera.Controller, so they are persisted and
// announced exactly like API writes. The state topic is republished after
// every change regardless of which surface made it.
package bridge
