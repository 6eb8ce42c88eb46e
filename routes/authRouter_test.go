package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"github.com/sessionapp/apiv1/dbhelper"
	"github.com/sessionapp/apiv1/middlewares"
	"github.com/sessionapp/apiv1/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var otpPattern = regexp.MustCompile(`\d{6}`)

// fakeMailer records outbound mail instead of delivering it.
type fakeMailer struct {
	mu        sync.Mutex
	recipient string
	body      string
}

func (f *fakeMailer) SendAsync(recipient, subject, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recipient = recipient
	f.body = body
}

func (f *fakeMailer) lastCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return otpPattern.FindString(f.body)
}

func newTestAPI(t *testing.T) (*mux.Router, *API, *fakeMailer) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	// every pooled connection would get its own in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, dbhelper.InitDB(db))

	cfg := &utils.Config{
		JWTSecret:            []byte("test-secret"),
		AdminEmail:           "admin@x.com",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 24 * time.Hour,
		OtpCodeDuration:      5 * time.Minute,
		OtpMaxAttempts:       3,
	}

	users := dbhelper.NewUserStore(db)
	ledger := dbhelper.NewRevocationLedger(db)
	issuer := utils.NewTokenIssuer(cfg)
	mailer := &fakeMailer{}
	api := &API{
		Users:    users,
		Otp:      utils.NewOtpManager(cfg.OtpCodeDuration, cfg.OtpMaxAttempts),
		Issuer:   issuer,
		Ledger:   ledger,
		Mailer:   mailer,
		Verifier: middlewares.NewSessionVerifier(issuer, ledger),
	}

	r := mux.NewRouter()
	lmt := tollbooth.NewLimiter(1000, nil)
	api.AuthRouter(r.PathPrefix("/api/auth").Subrouter(), lmt)
	api.UserRouter(r.PathPrefix("/api/users").Subrouter())
	return r, api, mailer
}

func doJSON(t *testing.T, r *mux.Router, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func signupBody(email, password string) map[string]string {
	return map[string]string{
		"firstname": "John",
		"lastname":  "Doe",
		"email":     email,
		"password":  password,
	}
}

// registerAndLogin walks an identity through signup, login, and OTP
// verification, returning the minted token pair.
func registerAndLogin(t *testing.T, r *mux.Router, mailer *fakeMailer, email, password string) (string, string) {
	t.Helper()

	rec := doJSON(t, r, http.MethodPost, "/api/auth/signup", signupBody(email, password), "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	code := mailer.lastCode()
	require.Len(t, code, 6)
	rec = doJSON(t, r, http.MethodPost, "/api/auth/verify-otp", map[string]string{"email": email, "otp": code}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	tokens := body["tokens"].(map[string]any)
	return tokens["access"].(string), tokens["refresh"].(string)
}

func TestSignup_PasswordPolicy(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestAPI(t)

	// 7 chars: length violation
	rec := doJSON(t, r, http.MethodPost, "/api/auth/signup", signupBody("a@x.com", "short1!"), "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "8 characters")

	// no special character, no uppercase: both reported
	rec = doJSON(t, r, http.MethodPost, "/api/auth/signup", signupBody("a@x.com", "longenough1"), "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errMsg := decodeBody(t, rec)["error"].(string)
	assert.Contains(t, errMsg, "special character")
	assert.Contains(t, errMsg, "uppercase")

	rec = doJSON(t, r, http.MethodPost, "/api/auth/signup", signupBody("a@x.com", "LongEnough1!"), "")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestSignup_Duplicate(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestAPI(t)

	rec := doJSON(t, r, http.MethodPost, "/api/auth/signup", signupBody("a@x.com", "Abcdef1!"), "")
	require.Equal(t, http.StatusCreated, rec.Code)

	// duplicate, case-insensitively
	rec = doJSON(t, r, http.MethodPost, "/api/auth/signup", signupBody("A@X.com", "Abcdef1!"), "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin_UniformRejection(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestAPI(t)
	rec := doJSON(t, r, http.MethodPost, "/api/auth/signup", signupBody("a@x.com", "Abcdef1!"), "")
	require.Equal(t, http.StatusCreated, rec.Code)

	wrongPass := doJSON(t, r, http.MethodPost, "/api/auth/login", map[string]string{"email": "a@x.com", "password": "WrongPass1!"}, "")
	noUser := doJSON(t, r, http.MethodPost, "/api/auth/login", map[string]string{"email": "nobody@x.com", "password": "Abcdef1!"}, "")

	assert.Equal(t, http.StatusBadRequest, wrongPass.Code)
	assert.Equal(t, http.StatusBadRequest, noUser.Code)
	// identical wire message for both failure modes
	assert.Equal(t, wrongPass.Body.String(), noUser.Body.String())
}

func TestAuthFlow_Scenario(t *testing.T) {
	t.Parallel()

	r, api, mailer := newTestAPI(t)

	rec := doJSON(t, r, http.MethodPost, "/api/auth/signup", signupBody("a@x.com", "Abcdef1!"), "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/auth/login", map[string]string{"email": "a@x.com", "password": "Abcdef1!"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@x.com", mailer.recipient)

	// wrong code is rejected with the uniform OTP message
	code := mailer.lastCode()
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	rec = doJSON(t, r, http.MethodPost, "/api/auth/verify-otp", map[string]string{"email": "a@x.com", "otp": wrong}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "Invalid OTP")

	rec = doJSON(t, r, http.MethodPost, "/api/auth/verify-otp", map[string]string{"email": "a@x.com", "otp": code}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	tokens := decodeBody(t, rec)["tokens"].(map[string]any)
	accessToken := tokens["access"].(string)
	refreshToken := tokens["refresh"].(string)

	claims, err := api.Issuer.Parse(accessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Subject)
	assert.False(t, claims.IsAdmin)

	// the code is single use
	rec = doJSON(t, r, http.MethodPost, "/api/auth/verify-otp", map[string]string{"email": "a@x.com", "otp": code}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// protected endpoint admits the access token
	rec = doJSON(t, r, http.MethodGet, "/api/users/detail", nil, accessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	details := decodeBody(t, rec)["details"].(map[string]any)
	assert.Equal(t, "John Doe", details["fullname"])

	// refresh endpoint rejects the access token and accepts the refresh one
	rec = doJSON(t, r, http.MethodGet, "/api/auth/refresh", nil, accessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = doJSON(t, r, http.MethodGet, "/api/auth/refresh", nil, refreshToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["access_token"])

	// refresh token is not an access token
	rec = doJSON(t, r, http.MethodGet, "/api/users/detail", nil, refreshToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// logout revokes the presented jti; the token dies before its expiry
	rec = doJSON(t, r, http.MethodGet, "/api/auth/logout", nil, accessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "access token revoked")

	rec = doJSON(t, r, http.MethodGet, "/api/users/detail", nil, accessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "revoked")
}

func TestLogin_SupersedesPriorChallenge(t *testing.T) {
	t.Parallel()

	r, _, mailer := newTestAPI(t)
	rec := doJSON(t, r, http.MethodPost, "/api/auth/signup", signupBody("a@x.com", "Abcdef1!"), "")
	require.Equal(t, http.StatusCreated, rec.Code)

	login := map[string]string{"email": "a@x.com", "password": "Abcdef1!"}
	rec = doJSON(t, r, http.MethodPost, "/api/auth/login", login, "")
	require.Equal(t, http.StatusOK, rec.Code)
	oldCode := mailer.lastCode()

	rec = doJSON(t, r, http.MethodPost, "/api/auth/login", login, "")
	require.Equal(t, http.StatusOK, rec.Code)
	newCode := mailer.lastCode()

	if oldCode != newCode {
		rec = doJSON(t, r, http.MethodPost, "/api/auth/verify-otp", map[string]string{"email": "a@x.com", "otp": oldCode}, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
	rec = doJSON(t, r, http.MethodPost, "/api/auth/verify-otp", map[string]string{"email": "a@x.com", "otp": newCode}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogout_RefreshTokenAccepted(t *testing.T) {
	t.Parallel()

	r, _, mailer := newTestAPI(t)
	_, refreshToken := registerAndLogin(t, r, mailer, "a@x.com", "Abcdef1!")

	rec := doJSON(t, r, http.MethodGet, "/api/auth/logout", nil, refreshToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "refresh token revoked")

	// the revoked refresh token can no longer mint access tokens
	rec = doJSON(t, r, http.MethodGet, "/api/auth/refresh", nil, refreshToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimit_LoginEndpoint(t *testing.T) {
	t.Parallel()

	_, api, _ := newTestAPI(t)
	// re-register the auth routes behind a one-request-per-second limiter
	r := mux.NewRouter()
	lmt := tollbooth.NewLimiter(1, nil)
	api.AuthRouter(r.PathPrefix("/api/auth").Subrouter(), lmt)

	login := map[string]string{"email": "a@x.com", "password": "Abcdef1!"}
	first := doJSON(t, r, http.MethodPost, "/api/auth/login", login, "")
	second := doJSON(t, r, http.MethodPost, "/api/auth/login", login, "")
	assert.NotEqual(t, http.StatusTooManyRequests, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
