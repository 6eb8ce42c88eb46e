package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"
)

type otpChallenge struct {
	code     string
	issuedAt time.Time
	attempts int
}

// OtpManager keeps the pending one-time passcodes. Challenges are ephemeral
// and server-side only: keyed by normalized email, one live challenge per
// identity, expired entries dropped by the cache. Issuing a new challenge
// for an identity supersedes any previous one.
type OtpManager struct {
	codes       cache.Cache[string, otpChallenge]
	ttl         time.Duration
	maxAttempts int
}

func NewOtpManager(ttl time.Duration, maxAttempts int) *OtpManager {
	return &OtpManager{
		codes:       cache.NewCache[string, otpChallenge]().WithTTL(ttl),
		ttl:         ttl,
		maxAttempts: maxAttempts,
	}
}

// Issue generates a fresh 6-digit code for the identity and returns it for
// out-of-band delivery.
func (m *OtpManager) Issue(identity string) (string, error) {
	code, err := generateOtpCode()
	if err != nil {
		return "", err
	}
	m.codes.Set(identity, otpChallenge{code: code, issuedAt: time.Now()}, 0)
	return code, nil
}

// Verify checks the submitted code against the pending challenge. A missing,
// expired, or mismatched challenge all come back as ErrInvalidOtp. The first
// successful match consumes the challenge; a wrong guess leaves it pending
// until the attempt budget runs out.
func (m *OtpManager) Verify(identity, submitted string) error {
	challenge, ok := m.codes.Get(identity)
	if !ok {
		CompareOtpCodes("000000", submitted)
		return ErrInvalidOtp
	}
	if CompareOtpCodes(challenge.code, submitted) {
		m.codes.Invalidate(identity)
		return nil
	}
	challenge.attempts++
	if challenge.attempts >= m.maxAttempts {
		m.codes.Invalidate(identity)
		return ErrInvalidOtp
	}
	remaining := m.ttl - time.Since(challenge.issuedAt)
	if remaining <= 0 {
		m.codes.Invalidate(identity)
		return ErrInvalidOtp
	}
	m.codes.Set(identity, challenge, remaining)
	return ErrInvalidOtp
}

// CompareOtpCodes is a constant-time comparison of two codes.
func CompareOtpCodes(code, submitted string) bool {
	return subtle.ConstantTimeCompare([]byte(code), []byte(submitted)) == 1
}

// generateOtpCode draws uniformly from [100000, 999999].
func generateOtpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}
