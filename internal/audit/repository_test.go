package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/database"
	_ "github.com/ashgrove-labs/hearth-core/migrations"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "audit_test.db"),
		WALMode:     true,
		BusyTimeout: 5000,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	return NewSQLiteRepository(db.DB)
}

func TestRepository_CreateAndList(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	entry := &Entry{
		Event:    "login",
		Username: "alice",
		Details:  map[string]any{"strategy": "password"},
	}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if entry.ID == "" {
		t.Error("Create did not assign an ID")
	}

	result, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if result.Total != 1 || len(result.Entries) != 1 {
		t.Fatalf("total=%d len=%d, want 1 entry", result.Total, len(result.Entries))
	}

	got := result.Entries[0]
	if got.Event != "login" || got.Username != "alice" {
		t.Errorf("entry = %+v", got)
	}
	if got.Details["strategy"] != "password" {
		t.Errorf("details = %v, want strategy=password", got.Details)
	}
}

func TestRepository_ListFilters(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	seed := []Entry{
		{Event: "login", Username: "alice"},
		{Event: "login", Username: "bob"},
		{Event: "auth_attempt", Username: "alice"},
	}
	for i := range seed {
		seed[i].CreatedAt = time.Date(2026, 3, 1, 12, i, 0, 0, time.UTC)
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	byEvent, err := repo.List(ctx, Filter{Event: "login"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if byEvent.Total != 2 {
		t.Errorf("login total = %d, want 2", byEvent.Total)
	}

	byUser, err := repo.List(ctx, Filter{Username: "alice"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if byUser.Total != 2 {
		t.Errorf("alice total = %d, want 2", byUser.Total)
	}

	both, err := repo.List(ctx, Filter{Event: "login", Username: "alice"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if both.Total != 1 {
		t.Errorf("combined total = %d, want 1", both.Total)
	}
}

func TestRepository_ListOrderAndPagination(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		entry := Entry{
			Event:     "auth_attempt",
			Username:  "alice",
			CreatedAt: time.Date(2026, 3, 1, 12, i, 0, 0, time.UTC),
		}
		if err := repo.Create(ctx, &entry); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	page, err := repo.List(ctx, Filter{Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Entries) != 2 || page.Total != 5 {
		t.Fatalf("len=%d total=%d, want 2 of 5", len(page.Entries), page.Total)
	}
	// Most recent first.
	if !page.Entries[0].CreatedAt.After(page.Entries[1].CreatedAt) {
		t.Error("entries not in descending time order")
	}

	next, err := repo.List(ctx, Filter{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(next.Entries) != 1 {
		t.Errorf("last page has %d entries, want 1", len(next.Entries))
	}
}
