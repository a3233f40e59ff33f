package auth

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/logging"
)

// quietLogger returns a logger that discards everything.
func quietLogger() *logging.Logger {
	return &logging.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// recordingMailer captures outbound mail for inspection.
type recordingMailer struct {
	to      []string
	subject []string
	body    []string
}

func (m *recordingMailer) Send(to, subject, body string) error {
	m.to = append(m.to, to)
	m.subject = append(m.subject, subject)
	m.body = append(m.body, body)
	return nil
}

// lastResetToken extracts the reset token from the most recent mail body.
func (m *recordingMailer) lastResetToken(t *testing.T) string {
	t.Helper()
	if len(m.body) == 0 {
		t.Fatal("no mail sent")
	}
	body := m.body[len(m.body)-1]
	_, after, found := strings.Cut(body, "?token=")
	if !found {
		t.Fatalf("no token in mail body: %q", body)
	}
	token, _, _ := strings.Cut(after, "\n")
	return token
}

// newTestService builds a service over a bootstrapped store with a
// registered "alice" account and a recording mailer.
func newTestService(t *testing.T) (*Service, *recordingMailer) {
	t.Helper()

	store := NewStore()
	if err := store.Bootstrap(); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	mailer := &recordingMailer{}
	issuer := NewIssuer("test-access-secret", "test-refresh-secret", 15*time.Minute, 7*24*time.Hour)
	svc := NewService(store, issuer, quietLogger(), ServiceOptions{
		Mailer:        mailer,
		ResetURL:      "https://hearth.local/reset",
		MaxFailed:     5,
		LockoutWindow: 15 * time.Minute,
	})

	if _, err := svc.RegisterUser("alice", "alice@example.com", testPassword); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	return svc, mailer
}

func passwordLogin(t *testing.T, svc *Service, username, password string) (*Session, error) {
	t.Helper()
	return svc.Login(username, StrategyPassword, Credentials{Password: password})
}
