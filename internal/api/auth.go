package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nerrad567/raspicam-bridge/internal/auth"
)

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /auth/login.
type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	Role        auth.Role `json:"role"`
}

// handleLogin checks credentials against the configured users and returns
// a JWT.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeBadRequest(w, "username and password are required")
		return
	}

	user, err := s.users.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Warn("login failed", "username", req.Username)
			writeUnauthorized(w, "invalid credentials")
			return
		}
		writeInternalError(w, "authentication failed")
		return
	}

	ttl := time.Duration(s.secCfg.JWT.AccessTokenTTL) * time.Minute
	token, err := auth.GenerateAccessToken(user, s.secCfg.JWT.Secret, ttl)
	if err != nil {
		s.logger.Error("failed to sign token", "error", err)
		writeInternalError(w, "failed to generate token")
		return
	}

	claims, err := auth.ParseToken(token, s.secCfg.JWT.Secret)
	if err != nil {
		writeInternalError(w, "failed to generate token")
		return
	}

	s.logger.Info("user logged in", "username", user.Username, "role", user.Role)
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(time.Until(claims.ExpiresAt.Time).Round(time.Second).Seconds()),
		Role:        user.Role,
	})
}

// handleMe returns the caller's identity and permissions.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"username":    claims.Subject,
		"role":        claims.Role,
		"permissions": auth.PermissionsForRole(claims.Role),
	})
}

// handleWSTicket issues a single-use WebSocket ticket bound to the caller.
func (s *Server) handleWSTicket(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	ticket := s.tickets.Issue(*claims)

	writeJSON(w, http.StatusOK, map[string]any{
		"ticket":     ticket,
		"expires_in": int(s.tickets.TTL().Seconds()),
	})
}
