package auth

import "unicode"

// minPasswordLength is the minimum accepted password length.
const minPasswordLength = 12

// IsPasswordStrong reports whether a plaintext password meets the site
// policy: at least 12 characters with an uppercase letter, a lowercase
// letter, a digit, and a symbol.
func IsPasswordStrong(password string) bool {
	if len(password) < minPasswordLength {
		return false
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}

	return upper && lower && digit && symbol
}
