package auth

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the in-memory user and role registry. All reads return defensive
// copies; all access is serialized through a single RWMutex so callers never
// observe a half-applied mutation.
type Store struct {
	mu    sync.RWMutex
	users map[string]*User // keyed by user ID
	roles map[string]*Role // keyed by role ID

	usernames map[string]string // username -> user ID
	roleNames map[string]string // role name -> role ID

	now func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:     make(map[string]*User),
		roles:     make(map[string]*Role),
		usernames: make(map[string]string),
		roleNames: make(map[string]string),
		now:       time.Now,
	}
}

// Bootstrap creates the default "user" and "admin" roles if they do not
// already exist. Safe to call more than once.
func (s *Store) Bootstrap() error {
	for _, seed := range []struct {
		name  string
		perms []Permission
	}{
		{RoleNameUser, DefaultUserPermissions()},
		{RoleNameAdmin, AdminPermissions()},
	} {
		if _, err := s.RoleByName(seed.name); err == nil {
			continue
		}
		if _, err := s.AddRole(seed.name, seed.perms); err != nil {
			return fmt.Errorf("bootstrapping role %q: %w", seed.name, err)
		}
	}
	return nil
}

// AddRole registers a new role with the given permission set.
func (s *Store) AddRole(name string, perms []Permission) (*Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.roleNames[name]; exists {
		return nil, fmt.Errorf("role %q: %w", name, ErrRoleExists)
	}

	role := &Role{
		ID:          "rol-" + uuid.NewString()[:8],
		Name:        name,
		Permissions: make(map[Permission]struct{}, len(perms)),
	}
	for _, p := range perms {
		role.Permissions[p] = struct{}{}
	}

	s.roles[role.ID] = role
	s.roleNames[name] = role.ID

	return role.clone(), nil
}

// RoleByName looks up a role by its unique name.
func (s *Store) RoleByName(name string) (*Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.roleNames[name]
	if !ok {
		return nil, fmt.Errorf("role %q: %w", name, ErrRoleNotFound)
	}
	return s.roles[id].clone(), nil
}

// RoleByID looks up a role by ID.
func (s *Store) RoleByID(id string) (*Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	role, ok := s.roles[id]
	if !ok {
		return nil, fmt.Errorf("role %q: %w", id, ErrRoleNotFound)
	}
	return role.clone(), nil
}

// Roles returns all registered roles.
func (s *Store) Roles() []*Role {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Role, 0, len(s.roles))
	for _, role := range s.roles {
		out = append(out, role.clone())
	}
	return out
}

// AddUser registers a new user with the default "user" role. The password
// must satisfy the site policy; usernames are unique.
func (s *Store) AddUser(username, email, password string) (*User, error) {
	if !IsPasswordStrong(password) {
		return nil, fmt.Errorf("user %q: %w", username, ErrWeakPassword)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usernames[username]; exists {
		return nil, fmt.Errorf("user %q: %w", username, ErrUsernameExists)
	}

	now := s.now()
	user := &User{
		ID:           "usr-" + uuid.NewString()[:8],
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		RoleIDs:      make(map[string]struct{}),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if defaultID, ok := s.roleNames[RoleNameUser]; ok {
		user.RoleIDs[defaultID] = struct{}{}
	}

	s.users[user.ID] = user
	s.usernames[username] = user.ID

	return user.clone(), nil
}

// UserByID looks up a user by ID.
func (s *Store) UserByID(id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", id, ErrUserNotFound)
	}
	return user.clone(), nil
}

// UserByUsername looks up a user by username.
func (s *Store) UserByUsername(username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usernames[username]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", username, ErrUserNotFound)
	}
	return s.users[id].clone(), nil
}

// UserByEmail looks up a user by email address. Emails are not required
// unique; the first match wins.
func (s *Store) UserByEmail(email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if email == "" {
		return nil, ErrUserNotFound
	}
	for _, user := range s.users {
		if user.Email == email {
			return user.clone(), nil
		}
	}
	return nil, fmt.Errorf("email %q: %w", email, ErrUserNotFound)
}

// UserByResetToken finds the user holding an unexpired reset token.
func (s *Store) UserByResetToken(token string, at time.Time) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if token == "" {
		return nil, ErrUserNotFound
	}
	for _, user := range s.users {
		if user.ResetToken == token && at.Before(user.ResetTokenExpires) {
			return user.clone(), nil
		}
	}
	return nil, ErrUserNotFound
}

// Users returns all registered users.
func (s *Store) Users() []*User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user.clone())
	}
	return out
}

// UserCount reports the number of registered users.
func (s *Store) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// AssignRoleToUser grants a role to a user. Assigning a role the user
// already holds is a no-op.
func (s *Store) AssignRoleToUser(userID, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %q: %w", userID, ErrUserNotFound)
	}
	if _, ok := s.roles[roleID]; !ok {
		return fmt.Errorf("role %q: %w", roleID, ErrRoleNotFound)
	}

	user.RoleIDs[roleID] = struct{}{}
	user.UpdatedAt = s.now()
	return nil
}

// RemoveRoleFromUser revokes a role from a user. Removing a role the user
// does not hold is a no-op.
func (s *Store) RemoveRoleFromUser(userID, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %q: %w", userID, ErrUserNotFound)
	}

	delete(user.RoleIDs, roleID)
	user.UpdatedAt = s.now()
	return nil
}

// HasPermission reports whether any of the user's roles grants the
// permission. Unknown users and dangling role references yield false,
// never an error.
func (s *Store) HasPermission(userID string, perm Permission) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return false
	}
	for roleID := range user.RoleIDs {
		if role, ok := s.roles[roleID]; ok && role.Has(perm) {
			return true
		}
	}
	return false
}

// RoleNamesForUser returns the names of all roles the user holds.
func (s *Store) RoleNamesForUser(userID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(user.RoleIDs))
	for roleID := range user.RoleIDs {
		if role, ok := s.roles[roleID]; ok {
			names = append(names, role.Name)
		}
	}
	return names
}

// mutateUser applies fn to the live user record under the write lock.
func (s *Store) mutateUser(userID string, fn func(*User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %q: %w", userID, ErrUserNotFound)
	}
	fn(user)
	user.UpdatedAt = s.now()
	return nil
}

// eachUser calls fn with the live record of every user under the write
// lock. Used by maintenance sweeps.
func (s *Store) eachUser(fn func(*User)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		fn(user)
	}
}
