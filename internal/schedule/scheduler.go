package schedule

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashgrove-labs/hearth-core/internal/auth"
	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/logging"
)

// Sentinel errors for scheduler operations.
var (
	ErrEntryNotFound = errors.New("scheduled entry not found")
	ErrNilAction     = errors.New("scheduled action must not be nil")
	ErrForbidden     = errors.New("insufficient permissions")
)

// Action is the deferred work a scheduled entry performs when due.
type Action func() error

// Entry is a named action due at a fixed instant.
type Entry struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ExecutionTime time.Time `json:"execution_time"`

	action Action
}

// PermissionChecker answers whether a user holds a permission. Satisfied
// by *auth.Store.
type PermissionChecker interface {
	HasPermission(userID string, perm auth.Permission) bool
}

// Scheduler keeps a sorted queue of entries per user.
type Scheduler struct {
	mu     sync.Mutex
	queues map[string][]*Entry
	perms  PermissionChecker
	logger *logging.Logger

	now func() time.Time
}

// NewScheduler creates an empty scheduler.
func NewScheduler(perms PermissionChecker, logger *logging.Logger) *Scheduler {
	return &Scheduler{
		queues: make(map[string][]*Entry),
		perms:  perms,
		logger: logger,
		now:    time.Now,
	}
}

// Schedule queues an action for execution at the given instant. Requires
// create:schedule.
func (s *Scheduler) Schedule(userID, name string, at time.Time, action Action) (*Entry, error) {
	if !s.perms.HasPermission(userID, auth.PermScheduleCreate) {
		return nil, fmt.Errorf("schedule %q: %w", name, ErrForbidden)
	}
	if action == nil {
		return nil, fmt.Errorf("schedule %q: %w", name, ErrNilAction)
	}

	entry := &Entry{
		ID:            "sch-" + uuid.NewString()[:8],
		Name:          name,
		ExecutionTime: at,
		action:        action,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.queues[userID]
	i := sort.Search(len(queue), func(i int) bool {
		return !queue[i].ExecutionTime.Before(at)
	})
	queue = append(queue, nil)
	copy(queue[i+1:], queue[i:])
	queue[i] = entry
	s.queues[userID] = queue

	s.logger.Info("entry scheduled",
		"user_id", userID, "entry_id", entry.ID, "name", name, "at", at)

	cpy := *entry
	return &cpy, nil
}

// RunDue executes every entry due at or before now, oldest first, and
// removes them from the queue. A failing action is logged and does not
// stop the drain. Returns the IDs of executed entries. Requires
// execute:schedule.
func (s *Scheduler) RunDue(userID string) ([]string, error) {
	if !s.perms.HasPermission(userID, auth.PermScheduleExecute) {
		return nil, fmt.Errorf("run due entries: %w", ErrForbidden)
	}

	now := s.now()

	s.mu.Lock()
	queue := s.queues[userID]
	cut := sort.Search(len(queue), func(i int) bool {
		return queue[i].ExecutionTime.After(now)
	})
	due := queue[:cut:cut]
	s.queues[userID] = queue[cut:]
	s.mu.Unlock()

	// Actions run outside the lock so a slow one cannot block Schedule.
	executed := make([]string, 0, len(due))
	for _, entry := range due {
		if err := entry.action(); err != nil {
			s.logger.Error("scheduled action failed",
				"user_id", userID, "entry_id", entry.ID, "name", entry.Name, "error", err)
		}
		executed = append(executed, entry.ID)
	}
	return executed, nil
}

// List returns the user's pending entries in execution order. Requires
// read:schedule.
func (s *Scheduler) List(userID string) ([]*Entry, error) {
	if !s.perms.HasPermission(userID, auth.PermScheduleRead) {
		return nil, fmt.Errorf("list entries: %w", ErrForbidden)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Entry, 0, len(s.queues[userID]))
	for _, entry := range s.queues[userID] {
		cpy := *entry
		out = append(out, &cpy)
	}
	return out, nil
}

// Remove cancels a pending entry. Requires delete:schedule.
func (s *Scheduler) Remove(userID, entryID string) error {
	if !s.perms.HasPermission(userID, auth.PermScheduleDelete) {
		return fmt.Errorf("remove entry: %w", ErrForbidden)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.queues[userID]
	for i, entry := range queue {
		if entry.ID == entryID {
			s.queues[userID] = append(queue[:i], queue[i+1:]...)
			s.logger.Info("entry removed", "user_id", userID, "entry_id", entryID)
			return nil
		}
	}
	return fmt.Errorf("entry %q: %w", entryID, ErrEntryNotFound)
}

// Clear cancels all of a user's pending entries and reports how many were
// dropped. Requires delete:schedule.
func (s *Scheduler) Clear(userID string) (int, error) {
	if !s.perms.HasPermission(userID, auth.PermScheduleDelete) {
		return 0, fmt.Errorf("clear entries: %w", ErrForbidden)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.queues[userID])
	delete(s.queues, userID)
	if n > 0 {
		s.logger.Info("queue cleared", "user_id", userID, "dropped", n)
	}
	return n, nil
}
