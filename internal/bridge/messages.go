package bridge

import (
	"errors"
	"time"

	"github.com/nerrad567/raspicam-bridge/internal/camera"
)

// CommandMessage asks the bridge to change camera properties.
// Topic: raspicam/command/{camera}
type CommandMessage struct {
	// ID correlates the command with its AckMessage. The bridge assigns one
	// when it is empty.
	ID string `json:"id"`

	Timestamp time.Time `json:"timestamp"`

	// Properties maps property names to values, e.g. {"hflip": "1", "awb": "sun"}.
	Properties map[string]string `json:"properties"`

	// Source overrides the change source recorded in history. Default "mqtt".
	Source string `json:"source,omitempty"`
}

// AckStatus is the overall outcome of a command.
type AckStatus string

const (
	// AckAccepted means every property was applied.
	AckAccepted AckStatus = "accepted"

	// AckPartial means some properties were applied and some failed.
	AckPartial AckStatus = "partial"

	// AckFailed means nothing was applied.
	AckFailed AckStatus = "failed"
)

// AckMessage reports the outcome of a command.
// Topic: raspicam/ack/{camera}
type AckMessage struct {
	CommandID string    `json:"command_id"`
	Timestamp time.Time `json:"timestamp"`
	CameraID  string    `json:"camera_id"`
	Status    AckStatus `json:"status"`

	// Applied lists the properties that were set, in application order.
	Applied []string `json:"applied,omitempty"`

	// Errors holds one entry per failed property. The key "" is used for
	// failures of the command as a whole.
	Errors map[string]AckError `json:"errors,omitempty"`
}

// AckError describes why one property was not applied.
type AckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes shared by acks and responses.
const (
	ErrCodeUnknownProperty = "UNKNOWN_PROPERTY"
	ErrCodeInvalidValue    = "INVALID_VALUE"
	ErrCodeDeviceRejected  = "DEVICE_REJECTED"
	ErrCodeInvalidCommand  = "INVALID_COMMAND"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
)

// Request actions.
const (
	ActionGet       = "get"
	ActionGetAll    = "get_all"
	ActionListModes = "list_modes"
)

// RequestMessage asks for property values.
// Topic: raspicam/request/{camera}/{request_id}
type RequestMessage struct {
	// RequestID defaults to the last topic level.
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`

	// Properties names the properties for ActionGet.
	Properties []string `json:"properties,omitempty"`
}

// ResponseMessage answers a RequestMessage.
// Topic: raspicam/response/{camera}/{request_id}
type ResponseMessage struct {
	RequestID string         `json:"request_id"`
	Timestamp time.Time      `json:"timestamp"`
	Success   bool           `json:"success"`
	Data      map[string]any `json:"data,omitempty"`
	Error     *AckError      `json:"error,omitempty"`
}

// StateMessage carries every readable property of a camera.
// Topic: raspicam/state/{camera}, retained.
type StateMessage struct {
	CameraID   string            `json:"camera_id"`
	Timestamp  time.Time         `json:"timestamp"`
	Properties map[string]string `json:"properties"`
}

// HealthStatus is the operational state of the bridge.
type HealthStatus string

const (
	HealthStarting HealthStatus = "starting"
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage reports bridge health.
// Topic: raspicam/health/{camera}, retained.
type HealthMessage struct {
	CameraID      string           `json:"camera_id"`
	Timestamp     time.Time        `json:"timestamp"`
	Status        HealthStatus     `json:"status"`
	Version       string           `json:"version"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Statistics    BridgeStatistics `json:"statistics"`
	Reason        string           `json:"reason,omitempty"`
}

// BridgeStatistics counts handled messages since start.
type BridgeStatistics struct {
	CommandsReceived int64 `json:"commands_received"`
	CommandsFailed   int64 `json:"commands_failed"`
	RequestsServed   int64 `json:"requests_served"`
}

// ErrorCode maps a camera error to its wire code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, camera.ErrUnknownProperty):
		return ErrCodeUnknownProperty
	case errors.Is(err, camera.ErrInvalidPropertyValue):
		return ErrCodeInvalidValue
	default:
		return ErrCodeDeviceRejected
	}
}

// newAck builds the ack for a command given the per-property failures
// returned by Controller.SetMany.
func newAck(cameraID string, cmd CommandMessage, applied []string, failed map[string]error) AckMessage {
	ack := AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		CameraID:  cameraID,
		Applied:   applied,
	}

	switch {
	case len(failed) == 0:
		ack.Status = AckAccepted
	case len(applied) == 0:
		ack.Status = AckFailed
	default:
		ack.Status = AckPartial
	}

	if len(failed) > 0 {
		ack.Errors = make(map[string]AckError, len(failed))
		for name, err := range failed {
			ack.Errors[name] = AckError{Code: ErrorCode(err), Message: err.Error()}
		}
	}
	return ack
}

func commandRejected(cameraID, commandID, message string) AckMessage {
	return AckMessage{
		CommandID: commandID,
		Timestamp: time.Now().UTC(),
		CameraID:  cameraID,
		Status:    AckFailed,
		Errors: map[string]AckError{
			"": {Code: ErrCodeInvalidCommand, Message: message},
		},
	}
}

func requestFailed(requestID, message string) ResponseMessage {
	return ResponseMessage{
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Success:   false,
		Error:     &AckError{Code: ErrCodeInvalidRequest, Message: message},
	}
}
