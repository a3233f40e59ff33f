package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/logging"
)

// resetTokenBytes is the entropy of a password-reset token (hex-encoded
// before delivery).
const resetTokenBytes = 32

// resetTokenTTL is how long a password-reset token stays redeemable.
const resetTokenTTL = time.Hour

// Mailer delivers password-reset messages. Implemented by the notify
// package; tests substitute a recording fake.
type Mailer interface {
	Send(to, subject, body string) error
}

// Service is the auth facade: login with lockout, token lifecycle,
// password management, MFA enrolment, and role administration. All
// observable state changes are announced on the event bus.
type Service struct {
	store  *Store
	issuer *Issuer
	logger *logging.Logger
	mailer Mailer

	resetURL      string
	maxFailed     int
	lockoutWindow time.Duration

	bus eventBus
	now func() time.Time
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Mailer        Mailer
	ResetURL      string
	MaxFailed     int           // failed attempts before lockout (default 5)
	LockoutWindow time.Duration // lockout duration (default 15m)
}

// NewService wires the auth facade.
func NewService(store *Store, issuer *Issuer, logger *logging.Logger, opts ServiceOptions) *Service {
	if opts.MaxFailed <= 0 {
		opts.MaxFailed = 5 //nolint:mnd // default lockout threshold
	}
	if opts.LockoutWindow <= 0 {
		opts.LockoutWindow = 15 * time.Minute //nolint:mnd // default lockout window
	}
	return &Service{
		store:         store,
		issuer:        issuer,
		logger:        logger,
		mailer:        opts.Mailer,
		resetURL:      opts.ResetURL,
		maxFailed:     opts.MaxFailed,
		lockoutWindow: opts.LockoutWindow,
		now:           time.Now,
	}
}

// Subscribe registers a handler for auth lifecycle events. Handlers are
// invoked in subscription order.
func (s *Service) Subscribe(h EventHandler) {
	s.bus.subscribe(h)
}

func (s *Service) emit(kind EventKind, username string, details map[string]any) {
	s.bus.emit(Event{Kind: kind, Username: username, Details: details, At: s.now()})
}

// Store exposes the underlying credential store for permission checks.
func (s *Service) Store() *Store {
	return s.store
}

// Issuer exposes the token issuer for transport-layer verification.
func (s *Service) Issuer() *Issuer {
	return s.issuer
}

// RegisterUser creates a new account with the default user role.
func (s *Service) RegisterUser(username, email, password string) (*User, error) {
	user, err := s.store.AddUser(username, email, password)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "username", username, "user_id", user.ID)
	s.emit(EventUserAdded, username, map[string]any{"user_id": user.ID})
	return user, nil
}

// CreateRole registers a new role.
func (s *Service) CreateRole(name string, perms []Permission) (*Role, error) {
	role, err := s.store.AddRole(name, perms)
	if err != nil {
		return nil, err
	}
	s.emit(EventRoleAdded, "", map[string]any{"role": name})
	return role, nil
}

// AssignRole grants the named role to the named user.
func (s *Service) AssignRole(username, roleName string) error {
	user, err := s.store.UserByUsername(username)
	if err != nil {
		return err
	}
	role, err := s.store.RoleByName(roleName)
	if err != nil {
		return err
	}
	if err := s.store.AssignRoleToUser(user.ID, role.ID); err != nil {
		return err
	}
	s.emit(EventRoleAssigned, username, map[string]any{"role": roleName})
	return nil
}

// RemoveRole revokes the named role from the named user. Revoking a role
// the user does not hold is a no-op.
func (s *Service) RemoveRole(username, roleName string) error {
	user, err := s.store.UserByUsername(username)
	if err != nil {
		return err
	}
	role, err := s.store.RoleByName(roleName)
	if err != nil {
		return err
	}
	if err := s.store.RemoveRoleFromUser(user.ID, role.ID); err != nil {
		return err
	}
	s.emit(EventRoleRemoved, username, map[string]any{"role": roleName})
	return nil
}

// UserHasRole reports whether the named user holds the named role.
// Unknown users and roles yield false.
func (s *Service) UserHasRole(username, roleName string) bool {
	user, err := s.store.UserByUsername(username)
	if err != nil {
		return false
	}
	role, err := s.store.RoleByName(roleName)
	if err != nil {
		return false
	}
	_, ok := user.RoleIDs[role.ID]
	return ok
}

// Login authenticates a user with the chosen strategy and mints a token
// pair. Failed verification, unknown users, and deactivated accounts all
// return a nil session with no error; only lockout and internal faults
// surface as errors. Credential failures are never distinguishable from
// unknown usernames.
func (s *Service) Login(username string, kind StrategyKind, creds Credentials) (*Session, error) {
	now := s.now()

	user, err := s.store.UserByUsername(username)
	if err != nil {
		s.emit(EventAuthAttempt, username, map[string]any{"success": false, "reason": "unknown user"})
		return nil, nil
	}

	if !user.IsActive {
		s.emit(EventAuthAttempt, username, map[string]any{"success": false, "reason": "account inactive"})
		return nil, nil
	}

	if s.isLocked(user, now) {
		s.emit(EventAuthAttempt, username, map[string]any{"success": false, "reason": "account locked"})
		return nil, fmt.Errorf("user %q: %w", username, ErrAccountLocked)
	}

	ok, err := verifyCredentials(kind, user, creds, now)
	if err != nil {
		return nil, fmt.Errorf("login %q: %w", username, err)
	}
	if !ok {
		if merr := s.store.mutateUser(user.ID, func(u *User) {
			u.FailedAttempts++
			u.LastFailedAttempt = now
		}); merr != nil {
			return nil, merr
		}
		s.logger.Warn("failed login attempt", "username", username, "strategy", string(kind))
		s.emit(EventAuthAttempt, username, map[string]any{"success": false, "reason": "bad credentials"})
		return nil, nil
	}

	if err := s.store.mutateUser(user.ID, func(u *User) {
		u.FailedAttempts = 0
		u.LastFailedAttempt = time.Time{}
	}); err != nil {
		return nil, err
	}

	session, err := s.issuer.IssueSession(user, s.store.RoleNamesForUser(user.ID))
	if err != nil {
		return nil, fmt.Errorf("issuing session for %q: %w", username, err)
	}

	s.logger.Info("user logged in", "username", username, "strategy", string(kind))
	s.emit(EventAuthAttempt, username, map[string]any{"success": true})
	s.emit(EventLogin, username, nil)
	return session, nil
}

// isLocked reports whether the user is inside an active lockout window.
func (s *Service) isLocked(user *User, now time.Time) bool {
	return user.FailedAttempts >= s.maxFailed &&
		now.Sub(user.LastFailedAttempt) < s.lockoutWindow
}

// RefreshAccessToken validates a refresh token and mints a fresh access
// token for its user. The refresh token itself is untouched; clients keep
// using it until expiry.
func (s *Service) RefreshAccessToken(refreshToken string) (string, error) {
	userID, err := s.issuer.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", err
	}

	user, err := s.store.UserByID(userID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !user.IsActive {
		return "", fmt.Errorf("%w: account inactive", ErrTokenInvalid)
	}

	return s.issuer.IssueAccessToken(user, s.store.RoleNamesForUser(user.ID))
}

// ChangePassword rotates a user's password after verifying the current
// one. The new password must satisfy the site policy.
func (s *Service) ChangePassword(username, oldPassword, newPassword string) error {
	user, err := s.store.UserByUsername(username)
	if err != nil {
		return err
	}

	ok, err := VerifyPassword(oldPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verifying current password: %w", err)
	}
	if !ok {
		return fmt.Errorf("user %q: %w", username, ErrBadCredentials)
	}

	if !IsPasswordStrong(newPassword) {
		return fmt.Errorf("user %q: %w", username, ErrWeakPassword)
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing new password: %w", err)
	}

	if err := s.store.mutateUser(user.ID, func(u *User) {
		u.PasswordHash = hash
	}); err != nil {
		return err
	}

	s.logger.Info("password changed", "username", username)
	s.emit(EventPasswordChanged, username, nil)
	return nil
}

// InitiatePasswordReset issues a single-use reset token and mails it to
// the given address. Unknown emails succeed silently so the endpoint
// cannot be used to enumerate accounts.
func (s *Service) InitiatePasswordReset(email string) error {
	user, err := s.store.UserByEmail(email)
	if err != nil {
		s.logger.Info("password reset requested for unknown email")
		return nil
	}

	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return fmt.Errorf("generating reset token: %w", err)
	}
	token := hex.EncodeToString(b)
	expires := s.now().Add(resetTokenTTL)

	if err := s.store.mutateUser(user.ID, func(u *User) {
		u.ResetToken = token
		u.ResetTokenExpires = expires
	}); err != nil {
		return err
	}

	if s.mailer != nil && user.Email != "" {
		body := fmt.Sprintf("A password reset was requested for your account.\n\nReset link: %s?token=%s\n\nThe link expires in one hour. If you did not request this, ignore this message.",
			s.resetURL, token)
		if err := s.mailer.Send(user.Email, "Password reset", body); err != nil {
			s.logger.Error("sending reset mail", "username", user.Username, "error", err)
		}
	}

	s.logger.Info("password reset initiated", "username", user.Username)
	s.emit(EventPasswordResetInitiated, user.Username, nil)
	return nil
}

// ResetPassword redeems a reset token and installs a new password. The
// token is consumed whether or not it has been seen before; a second
// redemption fails with ErrTokenInvalid.
func (s *Service) ResetPassword(token, newPassword string) error {
	now := s.now()

	user, err := s.store.UserByResetToken(token, now)
	if err != nil {
		return fmt.Errorf("redeeming reset token: %w", ErrTokenInvalid)
	}

	if !IsPasswordStrong(newPassword) {
		return fmt.Errorf("user %q: %w", user.Username, ErrWeakPassword)
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing new password: %w", err)
	}

	if err := s.store.mutateUser(user.ID, func(u *User) {
		u.PasswordHash = hash
		u.ResetToken = ""
		u.ResetTokenExpires = time.Time{}
		u.FailedAttempts = 0
		u.LastFailedAttempt = time.Time{}
	}); err != nil {
		return err
	}

	s.logger.Info("password reset completed", "username", user.Username)
	s.emit(EventPasswordReset, user.Username, nil)
	return nil
}

// CleanupExpiredTokens clears reset tokens past their expiry. Returns the
// number of tokens removed. Intended to run on a ticker.
func (s *Service) CleanupExpiredTokens() int {
	now := s.now()
	cleared := 0

	s.store.eachUser(func(u *User) {
		if u.ResetToken != "" && !now.Before(u.ResetTokenExpires) {
			u.ResetToken = ""
			u.ResetTokenExpires = time.Time{}
			cleared++
		}
	})

	if cleared > 0 {
		s.logger.Info("expired reset tokens cleared", "count", cleared)
		s.emit(EventTokenCleanup, "", map[string]any{"count": cleared})
	}
	return cleared
}

// EnableMFA enrols a TOTP secret for the user and returns it for
// provisioning. Re-enrolment replaces the previous secret.
func (s *Service) EnableMFA(username string) (string, error) {
	user, err := s.store.UserByUsername(username)
	if err != nil {
		return "", err
	}

	secret, err := GenerateMFASecret()
	if err != nil {
		return "", err
	}

	if err := s.store.mutateUser(user.ID, func(u *User) {
		u.MFASecret = secret
	}); err != nil {
		return "", err
	}

	s.logger.Info("mfa enabled", "username", username)
	s.emit(EventMFAEnabled, username, nil)
	return secret, nil
}

// Deactivate disables an account. Deactivated users cannot log in or
// refresh tokens.
func (s *Service) Deactivate(username string) error {
	user, err := s.store.UserByUsername(username)
	if err != nil {
		return err
	}
	if err := s.store.mutateUser(user.ID, func(u *User) {
		u.IsActive = false
	}); err != nil {
		return err
	}
	s.logger.Info("account deactivated", "username", username)
	s.emit(EventAccountDeactivated, username, nil)
	return nil
}

// Reactivate re-enables a deactivated account and clears any lockout.
func (s *Service) Reactivate(username string) error {
	user, err := s.store.UserByUsername(username)
	if err != nil {
		return err
	}
	if err := s.store.mutateUser(user.ID, func(u *User) {
		u.IsActive = true
		u.FailedAttempts = 0
		u.LastFailedAttempt = time.Time{}
	}); err != nil {
		return err
	}
	s.logger.Info("account reactivated", "username", username)
	s.emit(EventAccountReactivated, username, nil)
	return nil
}
