package api

import (
	"net/http"
	"strconv"

	"github.com/ashgrove-labs/hearth-core/internal/audit"
	"github.com/ashgrove-labs/hearth-core/internal/auth"
)

// handleListAudit returns a page of the audit trail, newest first.
// Requires read:user.
//
// Query parameters:
//   - event: filter by event kind (login, auth_attempt, ...)
//   - username: filter by username
//   - limit, offset: pagination
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeNotFound(w, "audit trail is not enabled")
		return
	}
	claims := callerClaims(r)
	if !s.auth.Store().HasPermission(claims.UserID, auth.PermUserRead) {
		writeForbidden(w, "insufficient permissions")
		return
	}

	filter := audit.Filter{
		Event:    r.URL.Query().Get("event"),
		Username: r.URL.Query().Get("username"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "offset must be a non-negative integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		writeInternalError(w, "failed to list audit entries")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
