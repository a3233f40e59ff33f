package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // G505: SHA-1 is mandated by RFC 6238 TOTP
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"time"
)

// TOTP parameters per RFC 6238: 30-second time step, 6-digit codes, one
// step of clock skew tolerated in either direction.
const (
	totpStep   = 30 * time.Second
	totpDigits = 6
	totpSkew   = 1
)

// GenerateMFASecret returns a new random base32-encoded shared secret
// suitable for provisioning an authenticator app.
func GenerateMFASecret() (string, error) {
	b := make([]byte, 20) //nolint:mnd // 160-bit secret per RFC 4226
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating mfa secret: %w", err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b), nil
}

// VerifyTOTP checks a 6-digit code against the base32 shared secret at the
// given time, allowing one time step of skew.
func VerifyTOTP(secret, code string, at time.Time) (bool, error) {
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
	if err != nil {
		return false, fmt.Errorf("decoding mfa secret: %w", err)
	}

	counter := uint64(at.Unix()) / uint64(totpStep.Seconds()) //nolint:gosec // G115: unix time is non-negative
	match := false
	for delta := -totpSkew; delta <= totpSkew; delta++ {
		want := hotp(key, counter+uint64(delta)) //nolint:gosec // G115: skew offset wraps harmlessly
		// Constant-time compare, and no early exit, so timing does not
		// leak which digits or which time step matched.
		if subtle.ConstantTimeCompare([]byte(want), []byte(code)) == 1 {
			match = true
		}
	}
	return match, nil
}

// hotp computes the HMAC-based one-time password for a counter value
// (RFC 4226 dynamic truncation).
func hotp(key []byte, counter uint64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	value := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return fmt.Sprintf("%06d", value%1000000)
}
