package task

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ashgrove-labs/hearth-core/internal/auth"
	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/logging"
)

// allowAll grants every permission; denyAll grants none.
type allowAll struct{}

func (allowAll) HasPermission(string, auth.Permission) bool { return true }

type denyAll struct{}

func (denyAll) HasPermission(string, auth.Permission) bool { return false }

func quietLogger() *logging.Logger {
	return &logging.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func testLedger(t *testing.T) *Ledger {
	t.Helper()
	return NewLedger(allowAll{}, quietLogger())
}

// at builds a timestamp on a fixed day for readable windows.
func at(hour, min int) time.Time {
	return time.Date(2026, 3, 1, hour, min, 0, 0, time.UTC)
}

func mustAdd(t *testing.T, l *Ledger, userID string, start, end time.Time) *Task {
	t.Helper()
	task, err := l.Add(userID, Task{
		Description: "fixture",
		StartTime:   start,
		EndTime:     end,
		Priority:    PriorityMedium,
	})
	if err != nil {
		t.Fatalf("Add [%s, %s): %v", start.Format("15:04"), end.Format("15:04"), err)
	}
	return task
}

func TestLedger_Add_OverlapRejected(t *testing.T) {
	l := testLedger(t)

	mustAdd(t, l, "usr-1", at(10, 0), at(11, 0))

	_, err := l.Add("usr-1", Task{
		Description: "overlapping",
		StartTime:   at(10, 30),
		EndTime:     at(11, 30),
		Priority:    PriorityLow,
	})
	if !errors.Is(err, ErrTaskOverlap) {
		t.Errorf("overlapping add: err = %v, want ErrTaskOverlap", err)
	}
}

func TestLedger_Add_TouchingWindowsAllowed(t *testing.T) {
	l := testLedger(t)

	mustAdd(t, l, "usr-1", at(10, 0), at(11, 0))
	// [11:00, 12:00) starts exactly where the previous window ends.
	mustAdd(t, l, "usr-1", at(11, 0), at(12, 0))

	tasks, err := l.List("usr-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("len(tasks) = %d, want 2", len(tasks))
	}
}

func TestLedger_Add_SeparateUsersDoNotCollide(t *testing.T) {
	l := testLedger(t)

	mustAdd(t, l, "usr-1", at(10, 0), at(11, 0))
	mustAdd(t, l, "usr-2", at(10, 0), at(11, 0))
}

func TestLedger_Add_InvalidWindow(t *testing.T) {
	l := testLedger(t)

	tests := []struct {
		name       string
		start, end time.Time
	}{
		{"end before start", at(11, 0), at(10, 0)},
		{"zero-length window", at(10, 0), at(10, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Add("usr-1", Task{StartTime: tt.start, EndTime: tt.end})
			if !errors.Is(err, ErrInvalidWindow) {
				t.Errorf("err = %v, want ErrInvalidWindow", err)
			}
		})
	}
}

func TestLedger_List_SortedByStart(t *testing.T) {
	l := testLedger(t)

	mustAdd(t, l, "usr-1", at(14, 0), at(15, 0))
	mustAdd(t, l, "usr-1", at(9, 0), at(10, 0))
	mustAdd(t, l, "usr-1", at(11, 0), at(12, 0))

	tasks, err := l.List("usr-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for i := 1; i < len(tasks); i++ {
		if tasks[i].StartTime.Before(tasks[i-1].StartTime) {
			t.Errorf("tasks out of order at index %d", i)
		}
	}
}

func TestLedger_ListByPriority(t *testing.T) {
	l := testLedger(t)

	if _, err := l.Add("usr-1", Task{StartTime: at(9, 0), EndTime: at(10, 0), Priority: PriorityHigh}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := l.Add("usr-1", Task{StartTime: at(10, 0), EndTime: at(11, 0), Priority: PriorityLow}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	high, err := l.ListByPriority("usr-1", PriorityHigh)
	if err != nil {
		t.Fatalf("ListByPriority: %v", err)
	}
	if len(high) != 1 || high[0].Priority != PriorityHigh {
		t.Errorf("high = %v, want exactly one high-priority task", high)
	}

	if _, err := l.ListByPriority("usr-1", Priority("urgent")); !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("bad priority: err = %v, want ErrInvalidPriority", err)
	}
}

func TestLedger_Complete(t *testing.T) {
	l := testLedger(t)

	task := mustAdd(t, l, "usr-1", at(10, 0), at(11, 0))
	if err := l.Complete("usr-1", task.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	got, err := l.Get("usr-1", task.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Completed {
		t.Error("task not marked completed")
	}

	if err := l.Complete("usr-1", "tsk-missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("unknown task: err = %v, want ErrTaskNotFound", err)
	}
}

func TestLedger_Edit(t *testing.T) {
	l := testLedger(t)

	a := mustAdd(t, l, "usr-1", at(10, 0), at(11, 0))
	mustAdd(t, l, "usr-1", at(12, 0), at(13, 0))

	// Moving a into the second task's window fails and leaves a intact.
	_, err := l.Edit("usr-1", a.ID, Task{
		Description: "moved",
		StartTime:   at(12, 30),
		EndTime:     at(13, 30),
		Priority:    PriorityMedium,
	})
	if !errors.Is(err, ErrTaskOverlap) {
		t.Fatalf("overlapping edit: err = %v, want ErrTaskOverlap", err)
	}
	got, err := l.Get("usr-1", a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.StartTime.Equal(at(10, 0)) {
		t.Error("failed edit modified the task")
	}

	// An edit that keeps its own slot (or moves to a free one) succeeds;
	// the task's old window does not count against itself.
	edited, err := l.Edit("usr-1", a.ID, Task{
		Description: "shifted",
		StartTime:   at(10, 30),
		EndTime:     at(11, 30),
		Priority:    PriorityHigh,
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if edited.Description != "shifted" || edited.Priority != PriorityHigh {
		t.Errorf("edit not applied: %+v", edited)
	}
}

func TestLedger_Delete_FreesWindow(t *testing.T) {
	l := testLedger(t)

	task := mustAdd(t, l, "usr-1", at(10, 0), at(11, 0))
	if err := l.Delete("usr-1", task.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// The slot is reusable once the task is gone.
	mustAdd(t, l, "usr-1", at(10, 0), at(11, 0))

	if err := l.Delete("usr-1", task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("double delete: err = %v, want ErrTaskNotFound", err)
	}
}

func TestLedger_PermissionDenied(t *testing.T) {
	l := NewLedger(denyAll{}, quietLogger())

	if _, err := l.Add("usr-1", Task{StartTime: at(10, 0), EndTime: at(11, 0)}); !errors.Is(err, ErrForbidden) {
		t.Errorf("Add: err = %v, want ErrForbidden", err)
	}
	if _, err := l.List("usr-1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("List: err = %v, want ErrForbidden", err)
	}
	if err := l.Complete("usr-1", "tsk-x"); !errors.Is(err, ErrForbidden) {
		t.Errorf("Complete: err = %v, want ErrForbidden", err)
	}
	if err := l.Delete("usr-1", "tsk-x"); !errors.Is(err, ErrForbidden) {
		t.Errorf("Delete: err = %v, want ErrForbidden", err)
	}
}
