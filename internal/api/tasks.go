package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ashgrove-labs/hearth-core/internal/task"
)

// taskRequest is the request body for creating or editing a task.
type taskRequest struct {
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Priority    string    `json:"priority,omitempty"`
}

func (req *taskRequest) toTask() task.Task {
	return task.Task{
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Priority:    task.Priority(req.Priority),
	}
}

// handleListTasks returns the caller's tasks, sorted by start time.
// An optional ?priority= query filters by priority.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)

	var (
		tasks []*task.Task
		err   error
	)
	if p := r.URL.Query().Get("priority"); p != "" {
		tasks, err = s.tasks.ListByPriority(claims.UserID, task.Priority(p))
	} else {
		tasks, err = s.tasks.List(claims.UserID)
	}

	switch {
	case errors.Is(err, task.ErrInvalidPriority):
		writeBadRequest(w, "unknown priority")
		return
	case errors.Is(err, task.ErrForbidden):
		writeForbidden(w, "insufficient permissions")
		return
	case err != nil:
		writeInternalError(w, "failed to list tasks")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks, "count": len(tasks)})
}

// handleCreateTask adds a task to the caller's ledger.
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	created, err := s.tasks.Add(claims.UserID, req.toTask())
	if err != nil {
		s.respondTaskError(w, err, "failed to create task")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// handleGetTask returns one of the caller's tasks by ID.
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)
	id := chi.URLParam(r, "id")

	found, err := s.tasks.Get(claims.UserID, id)
	if err != nil {
		s.respondTaskError(w, err, "failed to get task")
		return
	}

	writeJSON(w, http.StatusOK, found)
}

// handleEditTask rewrites a task's fields, re-checking the window against
// the rest of the ledger.
func (s *Server) handleEditTask(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)
	id := chi.URLParam(r, "id")

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	updated, err := s.tasks.Edit(claims.UserID, id, req.toTask())
	if err != nil {
		s.respondTaskError(w, err, "failed to edit task")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// handleCompleteTask marks a task done. Its window stays occupied.
func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)
	id := chi.URLParam(r, "id")

	if err := s.tasks.Complete(claims.UserID, id); err != nil {
		s.respondTaskError(w, err, "failed to complete task")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// handleDeleteTask removes a task, freeing its window.
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)
	id := chi.URLParam(r, "id")

	if err := s.tasks.Delete(claims.UserID, id); err != nil {
		s.respondTaskError(w, err, "failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// respondTaskError maps ledger sentinel errors onto HTTP responses.
func (s *Server) respondTaskError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, task.ErrTaskNotFound):
		writeNotFound(w, "task not found")
	case errors.Is(err, task.ErrTaskOverlap):
		writeError(w, http.StatusConflict, ErrCodeConflict, "task overlaps an existing task")
	case errors.Is(err, task.ErrInvalidWindow):
		writeBadRequest(w, "task end time must be after start time")
	case errors.Is(err, task.ErrInvalidPriority):
		writeBadRequest(w, "unknown priority")
	case errors.Is(err, task.ErrForbidden):
		writeForbidden(w, "insufficient permissions")
	default:
		writeInternalError(w, fallback)
	}
}
