package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ashgrove-labs/hearth-core/internal/notify"
)

// handleListNotifications returns the caller's notification history,
// newest first. An optional ?limit= query caps the result.
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	if s.notify == nil {
		writeNotFound(w, "notifications are not enabled")
		return
	}
	claims := callerClaims(r)

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	history, err := s.notify.History(r.Context(), claims.Username, limit)
	if err != nil {
		writeInternalError(w, "failed to list notifications")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"notifications": history, "count": len(history)})
}

// handleSendNotification records a message for a user. Requires
// create:notification.
func (s *Server) handleSendNotification(w http.ResponseWriter, r *http.Request) {
	if s.notify == nil {
		writeNotFound(w, "notifications are not enabled")
		return
	}
	claims := callerClaims(r)

	var req struct {
		Username string `json:"username"`
		Message  string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Message == "" {
		writeBadRequest(w, "username and message are required")
		return
	}

	sent, err := s.notify.Send(r.Context(), claims.UserID, req.Username, req.Message)
	switch {
	case errors.Is(err, notify.ErrForbidden):
		writeForbidden(w, "insufficient permissions")
		return
	case err != nil:
		writeInternalError(w, "failed to send notification")
		return
	}

	writeJSON(w, http.StatusCreated, sent)
}
