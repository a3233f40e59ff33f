package auth

import (
	"fmt"
	"time"
)

// StrategyKind selects how a login attempt is verified.
type StrategyKind string

const (
	// StrategyPassword verifies a plaintext password against the stored
	// Argon2id hash.
	StrategyPassword StrategyKind = "password"
	// StrategyTOTP verifies a time-based one-time code against the user's
	// enrolled MFA secret.
	StrategyTOTP StrategyKind = "totp"
)

// Credentials carries the secret material for a login attempt. Exactly one
// field is consulted depending on the chosen strategy.
type Credentials struct {
	Password string
	TOTPCode string
}

// verifyCredentials dispatches to the strategy implementation. Unknown
// strategies and verification errors both fail closed.
func verifyCredentials(kind StrategyKind, user *User, creds Credentials, at time.Time) (bool, error) {
	switch kind {
	case StrategyPassword:
		ok, err := VerifyPassword(creds.Password, user.PasswordHash)
		if err != nil {
			return false, fmt.Errorf("verifying password: %w", err)
		}
		return ok, nil
	case StrategyTOTP:
		if user.MFASecret == "" {
			return false, nil
		}
		ok, err := VerifyTOTP(user.MFASecret, creds.TOTPCode, at)
		if err != nil {
			return false, fmt.Errorf("verifying totp: %w", err)
		}
		return ok, nil
	default:
		return false, fmt.Errorf("unsupported login strategy: %s", kind)
	}
}
