package auth

import (
	"errors"
	"time"
)

// User represents an account in the credential store.
//
// The username is globally unique and immutable after creation. Users are
// never physically deleted; deactivation is the delete-analogue.
type User struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email,omitempty"`
	PasswordHash      string    `json:"-"` // never serialised
	FailedAttempts    int       `json:"-"`
	LastFailedAttempt time.Time `json:"-"`
	ResetToken        string    `json:"-"`
	ResetTokenExpires time.Time `json:"-"`
	MFASecret         string    `json:"-"`
	IsActive          bool      `json:"is_active"`
	RoleIDs           map[string]struct{} `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// MFAEnabled reports whether the user has an MFA secret enrolled.
func (u *User) MFAEnabled() bool {
	return u.MFASecret != ""
}

// clone returns an independent copy of the user. The RoleIDs set is
// copied so callers cannot mutate store state through the result.
func (u *User) clone() *User {
	cpy := *u
	cpy.RoleIDs = make(map[string]struct{}, len(u.RoleIDs))
	for id := range u.RoleIDs {
		cpy.RoleIDs[id] = struct{}{}
	}
	return &cpy
}

// Role is a named set of permission strings assignable to users.
type Role struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Permissions map[Permission]struct{} `json:"-"`
}

// Has reports whether the role contains the given permission.
func (r *Role) Has(perm Permission) bool {
	_, ok := r.Permissions[perm]
	return ok
}

// clone returns an independent copy of the role.
func (r *Role) clone() *Role {
	cpy := *r
	cpy.Permissions = make(map[Permission]struct{}, len(r.Permissions))
	for p := range r.Permissions {
		cpy.Permissions[p] = struct{}{}
	}
	return &cpy
}

// PermissionNames returns the role's permissions as plain strings for
// serialisation. Order is unspecified.
func (r *Role) PermissionNames() []string {
	names := make([]string, 0, len(r.Permissions))
	for p := range r.Permissions {
		names = append(names, string(p))
	}
	return names
}

// Session is the pair of tokens issued on a successful login.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Sentinel errors for auth operations.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrRoleNotFound   = errors.New("role not found")
	ErrRoleExists     = errors.New("role already exists")
	ErrUsernameExists = errors.New("username already exists")
	ErrWeakPassword   = errors.New("password does not meet complexity requirements")
	ErrAccountLocked  = errors.New("account temporarily locked")
	ErrBadCredentials = errors.New("incorrect credentials")
	ErrTokenInvalid   = errors.New("invalid token")
	ErrForbidden      = errors.New("insufficient permissions")
)
