package task

import (
	"errors"
	"time"
)

// Priority orders tasks by importance.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a scheduled unit of work in a user's ledger. The window
// [StartTime, EndTime) is half-open: a task ending at 11:00 does not
// collide with one starting at 11:00.
type Task struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Priority    Priority  `json:"priority"`
	Completed   bool      `json:"completed"`
}

// Overlaps reports whether two half-open windows intersect.
func (t *Task) Overlaps(other *Task) bool {
	return t.StartTime.Before(other.EndTime) && other.StartTime.Before(t.EndTime)
}

// clone returns an independent copy.
func (t *Task) clone() *Task {
	cpy := *t
	return &cpy
}

// Sentinel errors for ledger operations.
var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrTaskOverlap     = errors.New("task overlaps an existing task")
	ErrInvalidWindow   = errors.New("task end time must be after start time")
	ErrInvalidPriority = errors.New("unknown task priority")
	ErrForbidden       = errors.New("insufficient permissions")
)
