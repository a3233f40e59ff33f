// Package auth implements the credential store, token issuer, and auth
// gateway for Hearth Core.
//
// The Store owns user and role records and computes permission membership:
// a user effectively holds a permission iff any of their roles contains it.
// The Issuer signs and verifies short-lived JWT access tokens and
// longer-lived refresh tokens. The Service composes both behind one facade
// with pluggable authentication strategies (password, TOTP-based MFA),
// login lockout bookkeeping, and the password reset lifecycle.
//
// Token verification is stateless: a token is valid until its natural
// expiry (there is no revocation list). Verification fails closed — a bad
// signature or expired token yields an absent result, never a panic or an
// unrelated error.
//
// All state is in-memory; the Service publishes typed events that the
// audit package persists.
package auth
