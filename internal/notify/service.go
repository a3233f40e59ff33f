package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashgrove-labs/hearth-core/internal/auth"
	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/logging"
)

// ErrForbidden is returned when the sender lacks create:notification.
var ErrForbidden = errors.New("insufficient permissions")

// PermissionChecker answers whether a user holds a permission. Satisfied
// by *auth.Store.
type PermissionChecker interface {
	HasPermission(userID string, perm auth.Permission) bool
}

// Service records notifications for users.
type Service struct {
	repo   Repository
	perms  PermissionChecker
	logger *logging.Logger
}

// NewService creates the notification service.
func NewService(repo Repository, perms PermissionChecker, logger *logging.Logger) *Service {
	return &Service{repo: repo, perms: perms, logger: logger}
}

// Send records a notification addressed to a user. senderID must hold
// create:notification.
func (s *Service) Send(ctx context.Context, senderID, username, message string) (*Notification, error) {
	if !s.perms.HasPermission(senderID, auth.PermNotificationCreate) {
		return nil, fmt.Errorf("send notification: %w", ErrForbidden)
	}

	n := &Notification{Username: username, Message: message}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	s.logger.Info("notification sent", "notification_id", n.ID, "username", username)
	return n, nil
}

// System records a notification from the system itself, bypassing the
// permission check. Used by the hub to report device failures.
func (s *Service) System(ctx context.Context, username, message string) (*Notification, error) {
	n := &Notification{Username: username, Message: message}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	s.logger.Info("system notification sent", "notification_id", n.ID, "username", username)
	return n, nil
}

// History returns a user's notifications, most recent first.
func (s *Service) History(ctx context.Context, username string, limit int) ([]Notification, error) {
	return s.repo.ListByUsername(ctx, username, limit)
}
