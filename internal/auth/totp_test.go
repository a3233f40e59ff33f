package auth

import (
	"encoding/base32"
	"testing"
	"time"
)

// rfcSecret is the RFC 6238 appendix test secret (ASCII "12345678901234567890").
var rfcSecret = base32.StdEncoding.WithPadding(base32.NoPadding).
	EncodeToString([]byte("12345678901234567890"))

func TestVerifyTOTP_ReferenceVectors(t *testing.T) {
	// Six-digit truncations of the RFC 6238 appendix B vectors.
	tests := []struct {
		unix int64
		code string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1234567890, "005924"},
	}

	for _, tt := range tests {
		ok, err := VerifyTOTP(rfcSecret, tt.code, time.Unix(tt.unix, 0))
		if err != nil {
			t.Fatalf("VerifyTOTP(t=%d): %v", tt.unix, err)
		}
		if !ok {
			t.Errorf("VerifyTOTP(t=%d, %q) = false, want true", tt.unix, tt.code)
		}
	}
}

func TestVerifyTOTP_SkewWindow(t *testing.T) {
	// The t=59 code belongs to counter 1; it must still verify one step
	// later and fail two steps later.
	ok, err := VerifyTOTP(rfcSecret, "287082", time.Unix(89, 0))
	if err != nil {
		t.Fatalf("VerifyTOTP: %v", err)
	}
	if !ok {
		t.Error("code one step old did not verify")
	}

	ok, err = VerifyTOTP(rfcSecret, "287082", time.Unix(149, 0))
	if err != nil {
		t.Fatalf("VerifyTOTP: %v", err)
	}
	if ok {
		t.Error("code two steps old verified")
	}
}

func TestVerifyTOTP_WrongCode(t *testing.T) {
	for _, code := range []string{"000000", "28708", "2870822", ""} {
		ok, err := VerifyTOTP(rfcSecret, code, time.Unix(59, 0))
		if err != nil {
			t.Fatalf("VerifyTOTP(%q): %v", code, err)
		}
		if ok {
			t.Errorf("code %q verified, want rejection", code)
		}
	}
}

func TestVerifyTOTP_BadSecret(t *testing.T) {
	if _, err := VerifyTOTP("not-base32-!!!", "123456", time.Now()); err == nil {
		t.Error("expected error for undecodable secret")
	}
}

func TestGenerateMFASecret(t *testing.T) {
	s1, err := GenerateMFASecret()
	if err != nil {
		t.Fatalf("GenerateMFASecret: %v", err)
	}
	s2, err := GenerateMFASecret()
	if err != nil {
		t.Fatalf("GenerateMFASecret: %v", err)
	}
	if s1 == s2 {
		t.Error("two generated secrets are identical")
	}
	if _, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(s1); err != nil {
		t.Errorf("secret is not valid base32: %v", err)
	}
}
