package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AnshRaj112/diary-backend/internal/services"
	"go.uber.org/zap"
)

// Handler serves the diary HTTP API.
type Handler struct {
	repos    *services.Registry
	profiles *services.ProfileService
	log      *zap.Logger
}

// New creates a Handler.
func New(repos *services.Registry, profiles *services.ProfileService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		repos:    repos,
		profiles: profiles,
		log:      log.With(zap.String("component", "http")),
	}
}

// MessageResponse is the body of plain success/failure replies.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Health is the liveness probe.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{
		Success: status < http.StatusBadRequest,
		Message: message,
	})
}

// statusFor maps service errors to HTTP statuses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrNotAuthenticated):
		return http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, services.ErrEntryNotFound):
		return http.StatusNotFound, "Entry not found"
	case errors.Is(err, services.ErrStoreTimeout):
		return http.StatusGatewayTimeout, "Storage did not respond in time"
	case errors.Is(err, services.ErrStoreWrite), errors.Is(err, services.ErrStoreRead):
		return http.StatusBadGateway, "Storage request failed"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeMessage(w, status, message)
}

// userID returns the signed-in user, or "" for anonymous requests.
func userID(r *http.Request) string {
	p, _ := services.PrincipalFromContext(r.Context())
	return p.UserID
}
