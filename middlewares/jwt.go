package middlewares

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/sessionapp/apiv1/utils"
)

type contextKey int

const claimsKey contextKey = 0

// AnyType lets an endpoint accept either token type (logout takes whichever
// token the client still holds).
const AnyType = ""

// RevocationChecker is the ledger view the verifier needs.
type RevocationChecker interface {
	IsRevoked(jti string) (bool, error)
}

// SessionVerifier is the single gate every protected request passes
// through. Validation order: signature and structure, expiry, token type,
// revocation. The first failure rejects; nothing is admitted on partial
// validation.
type SessionVerifier struct {
	issuer *utils.TokenIssuer
	ledger RevocationChecker
}

func NewSessionVerifier(issuer *utils.TokenIssuer, ledger RevocationChecker) *SessionVerifier {
	return &SessionVerifier{issuer: issuer, ledger: ledger}
}

// Authenticate validates a raw bearer token against the expected type and
// returns its claims.
func (sv *SessionVerifier) Authenticate(rawToken, expectedType string) (*utils.Claims, error) {
	claims, err := sv.issuer.Parse(rawToken)
	if err != nil {
		return nil, err
	}
	if expectedType != AnyType && claims.TokenType != expectedType {
		return nil, utils.ErrTokenInvalid
	}
	revoked, err := sv.ledger.IsRevoked(claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, utils.ErrTokenRevoked
	}
	return claims, nil
}

// Require wraps a handler so it only runs for a valid bearer token of the
// expected type, with the resolved claims placed on the request context.
func (sv *SessionVerifier) Require(expectedType string, f http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawToken, err := GetTokenFromAuthorizationHeader(r.Header.Get("Authorization"))
		if err != nil {
			http.Error(w, utils.MISSING_REQUEST_DATA, http.StatusUnauthorized)
			return
		}
		claims, err := sv.Authenticate(rawToken, expectedType)
		if err != nil {
			log.Println(err)
			status := http.StatusUnauthorized
			if !errors.Is(err, utils.ErrTokenExpired) &&
				!errors.Is(err, utils.ErrTokenInvalid) &&
				!errors.Is(err, utils.ErrTokenRevoked) {
				status = http.StatusInternalServerError
			}
			http.Error(w, err.Error(), status)
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey, claims)
		f(w, r.WithContext(ctx))
	}
}

// ClaimsFromContext returns the claims placed by Require.
func ClaimsFromContext(ctx context.Context) (*utils.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*utils.Claims)
	return claims, ok
}

func GetTokenFromAuthorizationHeader(authHeader string) (string, error) {
	if len(authHeader) == 0 {
		return "", errors.New(utils.MISSING_REQUEST_DATA)
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) < 2 || parts[1] == "" {
		return "", errors.New(utils.MISSING_REQUEST_DATA)
	}
	return parts[1], nil
}
