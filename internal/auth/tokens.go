package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessClaims extends JWT standard claims with the identity fields
// embedded in access tokens.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID   string   `json:"uid"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// RefreshClaims carries only the user identity; refresh tokens grant
// nothing beyond the right to mint a new access token.
type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// Issuer mints and validates the two JWT families. Access and refresh
// tokens are signed with distinct secrets so one can never stand in for
// the other.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	now func() time.Time
}

// NewIssuer builds a token issuer. TTLs of zero fall back to 15 minutes
// for access and 7 days for refresh tokens.
func NewIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Issuer {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute //nolint:mnd // default access token TTL
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour //nolint:mnd // default refresh token TTL
	}
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// IssueSession mints a fresh access/refresh token pair for a user.
func (i *Issuer) IssueSession(user *User, roleNames []string) (*Session, error) {
	access, err := i.IssueAccessToken(user, roleNames)
	if err != nil {
		return nil, err
	}
	refresh, err := i.IssueRefreshToken(user)
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: access, RefreshToken: refresh}, nil
}

// IssueAccessToken creates a signed short-lived access token carrying the
// user's identity and role names.
func (i *Issuer) IssueAccessToken(user *User, roleNames []string) (string, error) {
	now := i.now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
			ID:        uuid.NewString(),
		},
		UserID:   user.ID,
		Username: user.Username,
		Roles:    roleNames,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.accessSecret)
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// IssueRefreshToken creates a signed long-lived refresh token carrying
// only the user ID.
func (i *Issuer) IssueRefreshToken(user *User) (string, error) {
	now := i.now()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.refreshTTL)),
			ID:        uuid.NewString(),
		},
		UserID: user.ID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("signing refresh token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken validates signature, expiry, and required fields of an
// access token. Any failure yields ErrTokenInvalid.
func (i *Issuer) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(_ *jwt.Token) (any, error) {
		return i.accessSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrTokenInvalid)
	}

	return claims, nil
}

// VerifyRefreshToken validates a refresh token and returns the user ID it
// was issued for.
func (i *Issuer) VerifyRefreshToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RefreshClaims{}, func(_ *jwt.Token) (any, error) {
		return i.refreshSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*RefreshClaims)
	if !ok || !token.Valid {
		return "", ErrTokenInvalid
	}

	if claims.UserID == "" {
		return "", fmt.Errorf("%w: missing user id", ErrTokenInvalid)
	}

	return claims.UserID, nil
}
