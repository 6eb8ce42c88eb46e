package utils

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const HASH_ROUNDS = 10

// dummyHash is a throwaway bcrypt digest compared against when a login names
// an unknown email, so that "no such user" and "wrong password" cost the
// same amount of work.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

const specialChars = `!@#$%^&*(),.?":{}|<>`

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), HASH_ROUNDS)
	return string(bytes), err
}

// ComparePasswords runs the salted, constant-time bcrypt check. bcrypt embeds
// a per-user random salt in the stored digest.
func ComparePasswords(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// CompareDummyPassword burns one bcrypt comparison and always fails.
func CompareDummyPassword(password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
}

// ValidatePassword checks the registration password policy and reports every
// violation, not just the first.
func ValidatePassword(password string) []string {
	var violations []string
	if len(password) < 8 {
		violations = append(violations, "Password must be at least 8 characters long.")
	}
	hasUpper := false
	hasDigit := false
	for _, r := range password {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
	}
	if !hasUpper {
		violations = append(violations, "Password must contain at least one uppercase character.")
	}
	if !hasDigit {
		violations = append(violations, "Password must contain at least one digit.")
	}
	if !strings.ContainsAny(password, specialChars) {
		violations = append(violations, "Password must contain at least one special character.")
	}
	return violations
}

// NormalizeEmail is applied to every email before it is stored, looked up, or
// compared, so identities are keyed case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
