package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/raspicam-bridge/internal/camera"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// propertyInfo describes one property in GET /camera.
type propertyInfo struct {
	Name  string      `json:"name"`
	Kind  camera.Kind `json:"kind"`
	Modes []string    `json:"modes,omitempty"`
}

// handleGetCamera returns the camera identity and the properties it supports.
func (s *Server) handleGetCamera(w http.ResponseWriter, _ *http.Request) {
	modes := camera.ModeNames()
	names := camera.Names()

	props := make([]propertyInfo, 0, len(names))
	for _, name := range names {
		kind, _ := camera.KindOf(name)
		props = append(props, propertyInfo{Name: name, Kind: kind, Modes: modes[name]})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":         s.ctrl.CameraID(),
		"name":       s.cameraName,
		"properties": props,
	})
}

// handleGetProperties returns every property, or the comma-separated subset
// named by ?vars=. Unknown names in vars are ignored.
func (s *Server) handleGetProperties(w http.ResponseWriter, r *http.Request) {
	vars := r.URL.Query().Get("vars")
	if vars == "" {
		writeJSON(w, http.StatusOK, s.ctrl.GetAll())
		return
	}

	var names []string
	for _, name := range strings.Split(vars, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	writeJSON(w, http.StatusOK, s.ctrl.GetSubset(names))
}

// handleGetProperty returns one property.
func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	value, err := s.ctrl.Get(name)
	if err != nil {
		writeCameraError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name, "value": value})
}

type setPropertyRequest struct {
	Value *string `json:"value"`
}

// handleSetProperty applies {"value": "..."} to one property and returns
// the value read back from the camera.
func (s *Server) handleSetProperty(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req setPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Value == nil {
		writeBadRequest(w, "value is required")
		return
	}

	if err := s.ctrl.Set(r.Context(), name, *req.Value, camera.SourceAPI); err != nil {
		writeCameraError(w, err)
		return
	}

	value, err := s.ctrl.Get(name)
	if err != nil {
		writeCameraError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name, "value": value})
}

// setPropertiesResponse reports a batch write.
type setPropertiesResponse struct {
	Properties map[string]string `json:"properties"`
	Failed     map[string]Error  `json:"failed,omitempty"`
}

// handleSetProperties applies a {"name": "value", ...} batch. It answers
// 200 when everything applied, 207 when some properties failed and 400 when
// nothing applied. The body always carries the current values.
func (s *Server) handleSetProperties(w http.ResponseWriter, r *http.Request) {
	var props map[string]string
	if err := json.NewDecoder(r.Body).Decode(&props); err != nil {
		writeBadRequest(w, "body must be a JSON object of string values")
		return
	}
	if len(props) == 0 {
		writeBadRequest(w, "no properties given")
		return
	}

	failed := s.ctrl.SetMany(r.Context(), props, camera.SourceAPI)

	resp := setPropertiesResponse{Properties: s.ctrl.GetAll()}
	status := http.StatusOK
	if len(failed) > 0 {
		resp.Failed = make(map[string]Error, len(failed))
		for name, err := range failed {
			code, errCode := cameraError(err)
			resp.Failed[name] = Error{Status: code, Code: errCode, Message: err.Error()}
		}
		status = http.StatusMultiStatus
		if len(failed) == len(props) {
			status = http.StatusBadRequest
		}
	}
	writeJSON(w, status, resp)
}

// handleListModes returns the accepted names of each mode property.
func (s *Server) handleListModes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, camera.ModeNames())
}

// handleHistory returns recorded changes, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	property := q.Get("property")
	if property != "" && !camera.IsKnown(property) {
		writeError(w, http.StatusNotFound, ErrCodeUnknownProperty, "unknown property: "+property)
		return
	}

	limit := defaultHistoryLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	changes, err := s.ctrl.History(r.Context(), property, limit)
	if err != nil {
		s.logger.Error("failed to load history", "error", err)
		writeInternalError(w, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"changes": changes,
		"count":   len(changes),
	})
}
