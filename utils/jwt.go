package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the signed assertions embedded in every token: standard
// registered claims (jti, sub, iat, exp) plus the token type and the admin
// flag downstream authorization decisions key off.
type Claims struct {
	TokenType string `json:"token_type"`
	IsAdmin   bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and parses HS256-signed tokens. The signing key is
// process-wide configuration loaded once at startup and never rotated
// mid-process.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	adminEmail string
}

func NewTokenIssuer(cfg *Config) *TokenIssuer {
	return &TokenIssuer{
		secret:     cfg.JWTSecret,
		accessTTL:  cfg.AccessTokenDuration,
		refreshTTL: cfg.RefreshTokenDuration,
		adminEmail: cfg.AdminEmail,
	}
}

func (ti *TokenIssuer) IssueAccessToken(email string) (string, error) {
	return ti.issue(email, ACCESS_TYPE, ti.accessTTL)
}

func (ti *TokenIssuer) IssueRefreshToken(email string) (string, error) {
	return ti.issue(email, REFRESH_TYPE, ti.refreshTTL)
}

func (ti *TokenIssuer) issue(email, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		TokenType: tokenType,
		IsAdmin:   ti.adminEmail != "" && email == ti.adminEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

// Parse decodes and verifies the token's signature and expiry. Expired
// tokens come back as ErrTokenExpired; any other defect is ErrTokenInvalid.
func (ti *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
