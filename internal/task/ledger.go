package task

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ashgrove-labs/hearth-core/internal/auth"
	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/logging"
)

// PermissionChecker answers whether a user holds a permission. Satisfied
// by *auth.Store.
type PermissionChecker interface {
	HasPermission(userID string, perm auth.Permission) bool
}

// Ledger holds every user's tasks, keyed by user ID. Each user's list is
// kept sorted by start time.
type Ledger struct {
	mu     sync.RWMutex
	tasks  map[string][]*Task
	perms  PermissionChecker
	logger *logging.Logger
}

// NewLedger creates an empty ledger guarded by the given permission
// checker.
func NewLedger(perms PermissionChecker, logger *logging.Logger) *Ledger {
	return &Ledger{
		tasks:  make(map[string][]*Task),
		perms:  perms,
		logger: logger,
	}
}

// Add appends a task to the user's ledger after validating its window
// against every existing task. Requires create:task.
func (l *Ledger) Add(userID string, t Task) (*Task, error) {
	if !l.perms.HasPermission(userID, auth.PermTaskCreate) {
		return nil, fmt.Errorf("add task: %w", ErrForbidden)
	}
	if err := validate(&t); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, existing := range l.tasks[userID] {
		if t.Overlaps(existing) {
			return nil, fmt.Errorf("window [%s, %s) against task %s: %w",
				t.StartTime.Format("15:04"), t.EndTime.Format("15:04"), existing.ID, ErrTaskOverlap)
		}
	}

	t.ID = "tsk-" + uuid.NewString()[:8]
	t.Completed = false
	l.tasks[userID] = insertSorted(l.tasks[userID], &t)

	l.logger.Info("task added", "user_id", userID, "task_id", t.ID)
	return t.clone(), nil
}

// Get returns a single task by ID. Requires read:task.
func (l *Ledger) Get(userID, taskID string) (*Task, error) {
	if !l.perms.HasPermission(userID, auth.PermTaskRead) {
		return nil, fmt.Errorf("get task: %w", ErrForbidden)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, t := range l.tasks[userID] {
		if t.ID == taskID {
			return t.clone(), nil
		}
	}
	return nil, fmt.Errorf("task %q: %w", taskID, ErrTaskNotFound)
}

// List returns the user's tasks in ascending start-time order. Requires
// read:task.
func (l *Ledger) List(userID string) ([]*Task, error) {
	if !l.perms.HasPermission(userID, auth.PermTaskRead) {
		return nil, fmt.Errorf("list tasks: %w", ErrForbidden)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*Task, 0, len(l.tasks[userID]))
	for _, t := range l.tasks[userID] {
		out = append(out, t.clone())
	}
	return out, nil
}

// ListByPriority returns the user's tasks with the given priority, in
// start-time order. Requires read:task.
func (l *Ledger) ListByPriority(userID string, p Priority) ([]*Task, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("priority %q: %w", p, ErrInvalidPriority)
	}
	if !l.perms.HasPermission(userID, auth.PermTaskRead) {
		return nil, fmt.Errorf("list tasks: %w", ErrForbidden)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*Task
	for _, t := range l.tasks[userID] {
		if t.Priority == p {
			out = append(out, t.clone())
		}
	}
	return out, nil
}

// Complete marks a task done. Completion does not free its window; the
// task still counts for overlap checks until deleted. Requires
// update:task.
func (l *Ledger) Complete(userID, taskID string) error {
	if !l.perms.HasPermission(userID, auth.PermTaskUpdate) {
		return fmt.Errorf("complete task: %w", ErrForbidden)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, t := range l.tasks[userID] {
		if t.ID == taskID {
			t.Completed = true
			l.logger.Info("task completed", "user_id", userID, "task_id", taskID)
			return nil
		}
	}
	return fmt.Errorf("task %q: %w", taskID, ErrTaskNotFound)
}

// Edit replaces a task's mutable fields. The new window is re-validated
// against every other task; a failed edit leaves the original untouched.
// Requires update:task.
func (l *Ledger) Edit(userID, taskID string, updated Task) (*Task, error) {
	if !l.perms.HasPermission(userID, auth.PermTaskUpdate) {
		return nil, fmt.Errorf("edit task: %w", ErrForbidden)
	}
	if err := validate(&updated); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	list := l.tasks[userID]
	idx := -1
	for i, t := range list {
		if t.ID == taskID {
			idx = i
			continue
		}
		if updated.Overlaps(t) {
			return nil, fmt.Errorf("edited window against task %s: %w", t.ID, ErrTaskOverlap)
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("task %q: %w", taskID, ErrTaskNotFound)
	}

	current := list[idx]
	current.Description = updated.Description
	current.StartTime = updated.StartTime
	current.EndTime = updated.EndTime
	current.Priority = updated.Priority

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].StartTime.Before(list[j].StartTime)
	})

	l.logger.Info("task edited", "user_id", userID, "task_id", taskID)
	return current.clone(), nil
}

// Delete removes a task from the ledger. Requires delete:task.
func (l *Ledger) Delete(userID, taskID string) error {
	if !l.perms.HasPermission(userID, auth.PermTaskDelete) {
		return fmt.Errorf("delete task: %w", ErrForbidden)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	list := l.tasks[userID]
	for i, t := range list {
		if t.ID == taskID {
			l.tasks[userID] = append(list[:i], list[i+1:]...)
			l.logger.Info("task deleted", "user_id", userID, "task_id", taskID)
			return nil
		}
	}
	return fmt.Errorf("task %q: %w", taskID, ErrTaskNotFound)
}

func validate(t *Task) error {
	if !t.EndTime.After(t.StartTime) {
		return fmt.Errorf("window [%s, %s): %w",
			t.StartTime.Format("15:04"), t.EndTime.Format("15:04"), ErrInvalidWindow)
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("priority %q: %w", t.Priority, ErrInvalidPriority)
	}
	return nil
}

// insertSorted places t into list preserving ascending start-time order.
func insertSorted(list []*Task, t *Task) []*Task {
	i := sort.Search(len(list), func(i int) bool {
		return !list[i].StartTime.Before(t.StartTime)
	})
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = t
	return list
}
