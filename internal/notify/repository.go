package notify

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Notification is a persisted message addressed to one user.
type Notification struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository defines notification storage.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByUsername(ctx context.Context, username string, limit int) ([]Notification, error)
}

// SQLiteRepository stores notifications in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a notification repository over an open
// database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a notification. ID and CreatedAt are generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = "not-" + uuid.NewString()[:8]
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, username, message, created_at)
		 VALUES (?, ?, ?, ?)`,
		n.ID, n.Username, n.Message, n.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

// ListByUsername returns a user's notifications, most recent first.
func (r *SQLiteRepository) ListByUsername(ctx context.Context, username string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, username, message, created_at FROM notifications
		 WHERE username = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		username, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var (
			n         Notification
			createdAt string
		)
		if err := rows.Scan(&n.ID, &n.Username, &n.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		if n.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing notification timestamp: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notifications: %w", err)
	}
	return out, nil
}
