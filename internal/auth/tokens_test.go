package auth

import (
	"errors"
	"testing"
	"time"
)

func testIssuer(t *testing.T) *Issuer {
	t.Helper()
	return NewIssuer("access-secret-for-tests", "refresh-secret-for-tests", 15*time.Minute, 7*24*time.Hour)
}

func testTokenUser() *User {
	return &User{ID: "usr-tok1", Username: "alice", IsActive: true}
}

func TestIssuer_AccessTokenRoundTrip(t *testing.T) {
	issuer := testIssuer(t)

	token, err := issuer.IssueAccessToken(testTokenUser(), []string{"user", "admin"})
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	claims, err := issuer.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.UserID != "usr-tok1" {
		t.Errorf("UserID = %q, want usr-tok1", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("Username = %q, want alice", claims.Username)
	}
	if len(claims.Roles) != 2 {
		t.Errorf("Roles = %v, want two entries", claims.Roles)
	}
}

func TestIssuer_AccessTokenWrongSecret(t *testing.T) {
	issuer := testIssuer(t)
	other := NewIssuer("different-access-secret", "refresh-secret-for-tests", 15*time.Minute, 7*24*time.Hour)

	token, err := issuer.IssueAccessToken(testTokenUser(), nil)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	if _, err := other.VerifyAccessToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("VerifyAccessToken with wrong secret: err = %v, want ErrTokenInvalid", err)
	}
}

func TestIssuer_RefreshNotAcceptedAsAccess(t *testing.T) {
	issuer := testIssuer(t)

	refresh, err := issuer.IssueRefreshToken(testTokenUser())
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}

	if _, err := issuer.VerifyAccessToken(refresh); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("refresh token verified as access token: err = %v, want ErrTokenInvalid", err)
	}
}

func TestIssuer_ExpiredAccessToken(t *testing.T) {
	issuer := testIssuer(t)

	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return issued }

	token, err := issuer.IssueAccessToken(testTokenUser(), nil)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	issuer.now = func() time.Time { return issued.Add(16 * time.Minute) }
	if _, err := issuer.VerifyAccessToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expired token verified: err = %v, want ErrTokenInvalid", err)
	}
}

func TestIssuer_RefreshTokenRoundTrip(t *testing.T) {
	issuer := testIssuer(t)

	token, err := issuer.IssueRefreshToken(testTokenUser())
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}

	userID, err := issuer.VerifyRefreshToken(token)
	if err != nil {
		t.Fatalf("VerifyRefreshToken: %v", err)
	}
	if userID != "usr-tok1" {
		t.Errorf("userID = %q, want usr-tok1", userID)
	}
}

func TestIssuer_GarbageTokens(t *testing.T) {
	issuer := testIssuer(t)

	for _, token := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		if _, err := issuer.VerifyAccessToken(token); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("VerifyAccessToken(%q): err = %v, want ErrTokenInvalid", token, err)
		}
	}
}
