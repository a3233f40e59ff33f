package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ashgrove-labs/hearth-core/internal/auth"
	"github.com/ashgrove-labs/hearth-core/internal/automation"
	"github.com/ashgrove-labs/hearth-core/internal/device"
	"github.com/ashgrove-labs/hearth-core/internal/hub"
	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/config"
	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/logging"
	"github.com/ashgrove-labs/hearth-core/internal/schedule"
	"github.com/ashgrove-labs/hearth-core/internal/task"
)

const testPassword = "Str0ng!Passw0rd"

func quietLogger() *logging.Logger {
	return &logging.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// testServer builds a fully wired server with an admin user, returning the
// server and a valid bearer token for that user.
func testServer(t *testing.T) (*Server, string) {
	t.Helper()

	store := auth.NewStore()
	if err := store.Bootstrap(); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	issuer := auth.NewIssuer("access-secret-for-tests", "refresh-secret-for-tests", 15*time.Minute, time.Hour)
	svc := auth.NewService(store, issuer, quietLogger(), auth.ServiceOptions{})

	user, err := svc.RegisterUser("alice", "alice@example.com", testPassword)
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if err := svc.AssignRole("alice", auth.RoleNameAdmin); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}

	registry := device.NewRegistry()
	deviceHub := hub.New(registry, store, store, quietLogger(), hub.Options{})

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logger:    quietLogger(),
		Auth:      svc,
		Tasks:     task.NewLedger(store, quietLogger()),
		Scheduler: schedule.NewScheduler(store, quietLogger()),
		Rules:     automation.NewEngine(registry, store, quietLogger()),
		Hub:       deviceHub,
		Version:   "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	token, err := issuer.IssueAccessToken(user, store.RoleNamesForUser(user.ID))
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	return srv, token
}

// doJSON performs an authenticated request against the router.
func doJSON(t *testing.T, router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodGet, "/api/v1/health", "", "")

	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}

	resp := decodeBody(t, w)
	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["version"] != "test" {
		t.Errorf("version = %v, want test", resp["version"])
	}
}

func TestHealth_ContentType(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodGet, "/api/v1/health", "", "")

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}
}

func TestRequestID_Generated(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodGet, "/api/v1/health", "", "")

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}
}

func TestRequestID_PreservesClient(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want %q", got, "client-123")
	}
}

func TestCORS_Preflight(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("ACAO = %q, want %q", got, "http://localhost:3000")
	}
}

func TestProtectedRoute_RequiresToken(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodGet, "/api/v1/devices", "", "")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestProtectedRoute_RejectsGarbageToken(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodGet, "/api/v1/devices", "not-a-jwt", "")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestLogin_Success(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	body := `{"username": "alice", "password": "` + testPassword + `"}`
	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", body)

	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	resp := decodeBody(t, w)
	if resp["access_token"] == "" || resp["access_token"] == nil {
		t.Error("expected access_token to be non-empty")
	}
	if resp["refresh_token"] == "" || resp["refresh_token"] == nil {
		t.Error("expected refresh_token to be non-empty")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	body := `{"username": "alice", "password": "wrong-password"}`
	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", body)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestLogin_UnknownUserLooksLikeBadPassword(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	wrongPass := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "",
		`{"username": "alice", "password": "wrong-password"}`)
	unknownUser := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "",
		`{"username": "nobody", "password": "wrong-password"}`)

	if wrongPass.Code != unknownUser.Code {
		t.Errorf("status codes differ: %d vs %d", wrongPass.Code, unknownUser.Code)
	}
}

func TestRefresh_RoundTrip(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	body := `{"username": "alice", "password": "` + testPassword + `"}`
	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", body)
	resp := decodeBody(t, w)

	refresh, _ := resp["refresh_token"].(string)
	if refresh == "" {
		t.Fatal("no refresh token in login response")
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", "",
		`{"refresh_token": "`+refresh+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, want %d", w.Code, http.StatusOK)
	}
	if decodeBody(t, w)["access_token"] == "" {
		t.Error("expected a fresh access token")
	}
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", "",
		`{"refresh_token": "`+token+`"}`)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestMe(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodGet, "/api/v1/auth/me", token, "")

	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	resp := decodeBody(t, w)
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("user is not an object: %T", resp["user"])
	}
	if user["username"] != "alice" {
		t.Errorf("username = %v, want alice", user["username"])
	}
	if resp["mfa_enabled"] != false {
		t.Errorf("mfa_enabled = %v, want false", resp["mfa_enabled"])
	}
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/change-password", token,
		`{"old_password": "wrong", "new_password": "An0ther!Passw0rd"}`)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestChangePassword_WeakNew(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/change-password", token,
		`{"old_password": "`+testPassword+`", "new_password": "short"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestResetInitiate_SameResponseForUnknownEmail(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	known := doJSON(t, router, http.MethodPost, "/api/v1/auth/reset/initiate", "",
		`{"email": "alice@example.com"}`)
	unknown := doJSON(t, router, http.MethodPost, "/api/v1/auth/reset/initiate", "",
		`{"email": "nobody@example.com"}`)

	if known.Code != http.StatusAccepted || unknown.Code != http.StatusAccepted {
		t.Errorf("statuses = %d, %d; want both %d", known.Code, unknown.Code, http.StatusAccepted)
	}
}

func TestResetComplete_BadToken(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/reset/complete", "",
		`{"token": "bogus", "new_password": "An0ther!Passw0rd"}`)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestEnableMFA(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/mfa", token, "")

	if w.Code != http.StatusOK {
		t.Fatalf("mfa status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	resp := decodeBody(t, w)
	secret, _ := resp["secret"].(string)
	if secret == "" {
		t.Error("expected MFA secret in response")
	}
}

func TestRegister_RequiresPermission(t *testing.T) {
	srv, adminToken := testServer(t)
	router := srv.buildRouter()

	// Create a plain user and log in as them.
	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", adminToken,
		`{"username": "bob", "email": "bob@example.com", "password": "`+testPassword+`"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "",
		`{"username": "bob", "password": "`+testPassword+`"}`)
	bobToken, _ := decodeBody(t, w)["access_token"].(string)

	// Bob holds only the default user role, which cannot create users.
	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/register", bobToken,
		`{"username": "carol", "email": "carol@example.com", "password": "`+testPassword+`"}`)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", token,
		`{"username": "alice", "email": "other@example.com", "password": "`+testPassword+`"}`)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestCreateAndAssignRole(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/roles", token,
		`{"name": "butler", "permissions": ["read:device", "execute:command"]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create role status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/roles/assign", token,
		`{"username": "alice", "role": "butler"}`)
	if w.Code != http.StatusOK {
		t.Errorf("assign status = %d, want %d", w.Code, http.StatusOK)
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/roles/remove", token,
		`{"username": "alice", "role": "butler"}`)
	if w.Code != http.StatusOK {
		t.Errorf("remove status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestListRoles(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodGet, "/api/v1/auth/roles", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var roles []struct {
		Name        string   `json:"name"`
		Permissions []string `json:"permissions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &roles); err != nil {
		t.Fatalf("decoding roles: %v", err)
	}
	if len(roles) != 2 {
		t.Fatalf("len(roles) = %d, want 2 (admin, user)", len(roles))
	}
	// Sorted by name, so admin comes first.
	if roles[0].Name != "admin" || roles[1].Name != "user" {
		t.Errorf("role names = %q, %q; want admin, user", roles[0].Name, roles[1].Name)
	}
	if len(roles[0].Permissions) == 0 {
		t.Error("admin role has no permissions")
	}
}

func TestAssignRole_UnknownRole(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/roles/assign", token,
		`{"username": "alice", "role": "ghost"}`)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestWSTicket_SingleUse(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/ws-ticket", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	ticket, _ := decodeBody(t, w)["ticket"].(string)
	if ticket == "" {
		t.Fatal("expected ticket to be a non-empty string")
	}

	entry, ok := srv.tickets.consume(ticket)
	if !ok {
		t.Fatal("ticket should be valid on first use")
	}
	if entry.username != "alice" {
		t.Errorf("ticket username = %q, want alice", entry.username)
	}

	if _, ok := srv.tickets.consume(ticket); ok {
		t.Error("ticket should not be valid on second use")
	}
}

func TestWSTicket_Expiry(t *testing.T) {
	ts := newTicketStore()
	ticket := ts.issue("usr-1", "alice")

	ts.mu.Lock()
	entry := ts.tickets[ticket]
	entry.expiresAt = time.Now().Add(-1 * time.Second)
	ts.tickets[ticket] = entry
	ts.mu.Unlock()

	if _, ok := ts.consume(ticket); ok {
		t.Error("expired ticket should not be valid")
	}
}
