package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/raspicam-bridge/internal/camera"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrCodeBadRequest      = "bad_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeUnauthorized    = "unauthorised"
	ErrCodeForbidden       = "forbidden"
	ErrCodeInternal        = "internal_error"
	ErrCodeUnknownProperty = "unknown_property"
	ErrCodeInvalidValue    = "invalid_value"
	ErrCodeDeviceRejected  = "device_rejected"
	ErrCodeUnavailable     = "service_unavailable"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// cameraError maps a camera error to its HTTP status and code.
func cameraError(err error) (int, string) {
	switch {
	case errors.Is(err, camera.ErrUnknownProperty):
		return http.StatusNotFound, ErrCodeUnknownProperty
	case errors.Is(err, camera.ErrInvalidPropertyValue):
		return http.StatusBadRequest, ErrCodeInvalidValue
	default:
		return http.StatusUnprocessableEntity, ErrCodeDeviceRejected
	}
}

func writeCameraError(w http.ResponseWriter, err error) {
	status, code := cameraError(err)
	writeError(w, status, code, err.Error())
}
