package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/ashgrove-labs/hearth-core/internal/auth"
)

// loginRequest is the request body for POST /auth/login.
// Strategy defaults to "password"; set it to "totp" together with Code to
// authenticate with a one-time code.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Strategy string `json:"strategy,omitempty"`
	Code     string `json:"code,omitempty"`
}

// refreshRequest is the request body for POST /auth/refresh.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// handleLogin authenticates a user and returns an access/refresh token pair.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Username == "" {
		writeBadRequest(w, "username is required")
		return
	}

	kind := auth.StrategyPassword
	if req.Strategy != "" {
		kind = auth.StrategyKind(req.Strategy)
	}

	session, err := s.auth.Login(req.Username, kind, auth.Credentials{
		Password: req.Password,
		TOTPCode: req.Code,
	})
	switch {
	case errors.Is(err, auth.ErrAccountLocked):
		writeError(w, http.StatusForbidden, ErrCodeLocked, "account temporarily locked")
		return
	case err != nil:
		writeInternalError(w, "login failed")
		return
	case session == nil:
		// Wrong username or wrong credentials look identical to the caller.
		writeUnauthorized(w, "invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// handleRefresh exchanges a refresh token for a new access token.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	access, err := s.auth.RefreshAccessToken(req.RefreshToken)
	if err != nil {
		writeUnauthorized(w, "invalid or expired refresh token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access_token": access})
}

// handleResetInitiate starts the password reset flow. The response is the
// same whether or not the account exists.
func (s *Server) handleResetInitiate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Email == "" {
		writeBadRequest(w, "email is required")
		return
	}

	if err := s.auth.InitiatePasswordReset(req.Email); err != nil {
		writeInternalError(w, "failed to initiate password reset")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "if the account exists, a reset link has been sent",
	})
}

// handleResetComplete consumes a reset token and sets a new password.
func (s *Server) handleResetComplete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	err := s.auth.ResetPassword(req.Token, req.NewPassword)
	switch {
	case errors.Is(err, auth.ErrWeakPassword):
		writeBadRequest(w, "password does not meet complexity requirements")
		return
	case errors.Is(err, auth.ErrTokenInvalid):
		writeUnauthorized(w, "invalid or expired reset token")
		return
	case err != nil:
		writeInternalError(w, "failed to reset password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "password reset"})
}

// handleMe returns the caller's profile.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)

	if !s.auth.Store().HasPermission(claims.UserID, auth.PermProfileReadOwn) {
		writeForbidden(w, "insufficient permissions")
		return
	}

	user, err := s.auth.Store().UserByID(claims.UserID)
	if err != nil {
		writeNotFound(w, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":        user,
		"roles":       s.auth.Store().RoleNamesForUser(claims.UserID),
		"mfa_enabled": user.MFAEnabled(),
	})
}

// handleChangePassword changes the caller's own password.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)

	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	err := s.auth.ChangePassword(claims.Username, req.OldPassword, req.NewPassword)
	switch {
	case errors.Is(err, auth.ErrBadCredentials):
		writeUnauthorized(w, "incorrect current password")
		return
	case errors.Is(err, auth.ErrWeakPassword):
		writeBadRequest(w, "password does not meet complexity requirements")
		return
	case err != nil:
		writeInternalError(w, "failed to change password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

// handleEnableMFA enrols the caller in TOTP and returns the shared secret.
// The secret is shown once; clients should render it as a QR code.
func (s *Server) handleEnableMFA(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)

	secret, err := s.auth.EnableMFA(claims.Username)
	if err != nil {
		writeInternalError(w, "failed to enable MFA")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"secret": secret})
}

// handleRegister creates a new user account. Requires create:user.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)
	if !s.auth.Store().HasPermission(claims.UserID, auth.PermUserCreate) {
		writeForbidden(w, "insufficient permissions")
		return
	}

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	user, err := s.auth.RegisterUser(req.Username, req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrUsernameExists):
		writeError(w, http.StatusConflict, ErrCodeConflict, "username already exists")
		return
	case errors.Is(err, auth.ErrWeakPassword):
		writeBadRequest(w, "password does not meet complexity requirements")
		return
	case err != nil:
		writeInternalError(w, "failed to register user")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// handleCreateRole creates a named role. Requires create:role.
func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)
	if !s.auth.Store().HasPermission(claims.UserID, auth.PermRoleCreate) {
		writeForbidden(w, "insufficient permissions")
		return
	}

	var req struct {
		Name        string   `json:"name"`
		Permissions []string `json:"permissions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeBadRequest(w, "role name is required")
		return
	}

	perms := make([]auth.Permission, 0, len(req.Permissions))
	for _, p := range req.Permissions {
		perms = append(perms, auth.Permission(p))
	}

	role, err := s.auth.CreateRole(req.Name, perms)
	switch {
	case errors.Is(err, auth.ErrRoleExists):
		writeError(w, http.StatusConflict, ErrCodeConflict, "role already exists")
		return
	case err != nil:
		writeInternalError(w, "failed to create role")
		return
	}

	writeJSON(w, http.StatusCreated, role)
}

// roleView is the JSON shape for role listings. Permissions are flattened
// to a sorted slice because the set representation marshals poorly.
type roleView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// handleListRoles returns all roles with their permissions. Requires read:role.
func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)
	if !s.auth.Store().HasPermission(claims.UserID, auth.PermRoleRead) {
		writeForbidden(w, "insufficient permissions")
		return
	}

	roles := s.auth.Store().Roles()
	views := make([]roleView, 0, len(roles))
	for _, role := range roles {
		perms := make([]string, 0, len(role.Permissions))
		for p := range role.Permissions {
			perms = append(perms, string(p))
		}
		sort.Strings(perms)
		views = append(views, roleView{ID: role.ID, Name: role.Name, Permissions: perms})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })

	writeJSON(w, http.StatusOK, views)
}

// roleChangeRequest is the body for role assignment endpoints.
type roleChangeRequest struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// handleAssignRole grants a role to a user. Requires assign:role.
func (s *Server) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)
	if !s.auth.Store().HasPermission(claims.UserID, auth.PermRoleAssign) {
		writeForbidden(w, "insufficient permissions")
		return
	}

	var req roleChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.auth.AssignRole(req.Username, req.Role); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) || errors.Is(err, auth.ErrRoleNotFound) {
			writeNotFound(w, "user or role not found")
			return
		}
		writeInternalError(w, "failed to assign role")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "role assigned"})
}

// handleRemoveRole revokes a role from a user. Requires remove:role.
func (s *Server) handleRemoveRole(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)
	if !s.auth.Store().HasPermission(claims.UserID, auth.PermRoleRemove) {
		writeForbidden(w, "insufficient permissions")
		return
	}

	var req roleChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.auth.RemoveRole(req.Username, req.Role); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) || errors.Is(err, auth.ErrRoleNotFound) {
			writeNotFound(w, "user or role not found")
			return
		}
		writeInternalError(w, "failed to remove role")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "role removed"})
}
