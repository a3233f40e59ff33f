package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ashgrove-labs/hearth-core/internal/schedule"
)

// scheduleRequest is the request body for POST /schedules. The scheduled
// action is a device switch: "turn_on" or "turn_off".
type scheduleRequest struct {
	Name          string    `json:"name"`
	ExecutionTime time.Time `json:"execution_time"`
	DeviceID      string    `json:"device_id"`
	Command       string    `json:"command"`
}

// handleListSchedules returns the caller's pending entries in execution order.
func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)

	entries, err := s.scheduler.List(claims.UserID)
	if err != nil {
		writeForbidden(w, "insufficient permissions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"schedules": entries, "count": len(entries)})
}

// handleCreateSchedule queues a device command for later execution.
func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" || req.DeviceID == "" {
		writeBadRequest(w, "name and device_id are required")
		return
	}

	// The action is bound to the scheduling user, so the permission check
	// at execution time sees the same caller.
	userID := claims.UserID
	var action schedule.Action
	switch req.Command {
	case "turn_on":
		action = func() error { return s.hub.TurnOn(userID, req.DeviceID) }
	case "turn_off":
		action = func() error { return s.hub.TurnOff(userID, req.DeviceID) }
	default:
		writeBadRequest(w, "command must be turn_on or turn_off")
		return
	}

	entry, err := s.scheduler.Schedule(userID, req.Name, req.ExecutionTime, action)
	switch {
	case errors.Is(err, schedule.ErrForbidden):
		writeForbidden(w, "insufficient permissions")
		return
	case err != nil:
		writeInternalError(w, "failed to create schedule")
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// handleRunDueSchedules drains every entry whose execution time has passed.
func (s *Server) handleRunDueSchedules(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)

	executed, err := s.scheduler.RunDue(claims.UserID)
	if err != nil {
		writeForbidden(w, "insufficient permissions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"executed": executed, "count": len(executed)})
}

// handleDeleteSchedule removes one pending entry.
func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)
	id := chi.URLParam(r, "id")

	err := s.scheduler.Remove(claims.UserID, id)
	switch {
	case errors.Is(err, schedule.ErrEntryNotFound):
		writeNotFound(w, "schedule entry not found")
		return
	case errors.Is(err, schedule.ErrForbidden):
		writeForbidden(w, "insufficient permissions")
		return
	case err != nil:
		writeInternalError(w, "failed to delete schedule")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleClearSchedules removes all of the caller's pending entries.
func (s *Server) handleClearSchedules(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)

	removed, err := s.scheduler.Clear(claims.UserID)
	if err != nil {
		writeForbidden(w, "insufficient permissions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}
