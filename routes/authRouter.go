package routes

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/gorilla/mux"
	"github.com/sessionapp/apiv1/middlewares"
	"github.com/sessionapp/apiv1/models"
	"github.com/sessionapp/apiv1/utils"
)

type SignupAttempt struct {
	FirstName   string `json:"firstname" validate:"required"`
	LastName    string `json:"lastname" validate:"required"`
	Description string `json:"description"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
}

type LoginAttempt struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type OtpAttempt struct {
	Email string `json:"email" validate:"required,email"`
	Otp   string `json:"otp" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
}

// AuthRouter registers the authentication endpoints. The credential-facing
// ones sit behind the rate limiter.
func (api *API) AuthRouter(s *mux.Router, lmt *limiter.Limiter) {
	s.Handle("/signup", tollbooth.LimitFuncHandler(lmt, api.Signup)).Methods("POST")
	s.Handle("/login", tollbooth.LimitFuncHandler(lmt, api.Login)).Methods("POST")
	s.Handle("/verify-otp", tollbooth.LimitFuncHandler(lmt, api.VerifyOtp)).Methods("POST")
	s.HandleFunc("/refresh", api.Verifier.Require(utils.REFRESH_TYPE, api.Refresh)).Methods("GET")
	s.HandleFunc("/logout", api.Verifier.Require(middlewares.AnyType, api.Logout)).Methods("GET")
}

func (api *API) Signup(w http.ResponseWriter, r *http.Request) {
	attempt, err := DecodeValidBody[SignupAttempt](r)
	if err != nil {
		log.Println(err)
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if violations := utils.ValidatePassword(attempt.Password); len(violations) > 0 {
		verr := &utils.ValidationError{Violations: violations}
		log.Println(verr)
		WriteError(w, http.StatusUnprocessableEntity, verr.Error())
		return
	}
	passwordHash, err := utils.HashPassword(attempt.Password)
	if err != nil {
		log.Println(err)
		WriteError(w, http.StatusInternalServerError, "We had some trouble signing you up. Please try again!")
		return
	}
	user := &models.User{
		Email:        attempt.Email,
		PasswordHash: passwordHash,
		FirstName:    attempt.FirstName,
		LastName:     attempt.LastName,
		Description:  attempt.Description,
	}
	if err := api.Users.Create(user); err != nil {
		log.Println(err)
		if errors.Is(err, utils.ErrDuplicateEmail) {
			WriteError(w, http.StatusConflict,
				fmt.Sprintf("User with email - '%s' already exists. Please login", utils.NormalizeEmail(attempt.Email)))
			return
		}
		WriteError(w, http.StatusInternalServerError, "We had some trouble signing you up. Please try again!")
		return
	}
	WriteMessage(w, http.StatusCreated, "User created")
}

// Login verifies the password and, on success, issues an OTP challenge and
// mails the code. The response is the same for an unknown email and a wrong
// password. Mail delivery happens off the request path.
func (api *API) Login(w http.ResponseWriter, r *http.Request) {
	attempt, err := DecodeValidBody[LoginAttempt](r)
	if err != nil {
		log.Println(err)
		WriteError(w, http.StatusBadRequest, utils.GENERIC_LOGIN_ERROR)
		return
	}
	user, err := api.Users.VerifyCredentials(attempt.Email, attempt.Password)
	if err != nil {
		log.Println(err)
		if errors.Is(err, utils.ErrInvalidCredentials) {
			WriteError(w, http.StatusBadRequest, utils.GENERIC_LOGIN_ERROR)
			return
		}
		WriteError(w, http.StatusInternalServerError, "We had some trouble logging you in. Please try again!")
		return
	}
	code, err := api.Otp.Issue(user.Email)
	if err != nil {
		log.Println(err)
		WriteError(w, http.StatusInternalServerError, "We had some trouble logging you in. Please try again!")
		return
	}
	api.Mailer.SendAsync(
		user.Email,
		"Your one-time passcode",
		fmt.Sprintf("Your verification code is %s. It expires shortly.", code),
	)
	WriteMessage(w, http.StatusOK, "OTP sent to your email")
}

// VerifyOtp consumes the pending challenge and, on the first correct code,
// mints the access/refresh token pair.
func (api *API) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	attempt, err := DecodeValidBody[OtpAttempt](r)
	if err != nil {
		log.Println(err)
		WriteError(w, http.StatusBadRequest, utils.GENERIC_OTP_ERROR)
		return
	}
	email := utils.NormalizeEmail(attempt.Email)
	if err := api.Otp.Verify(email, attempt.Otp); err != nil {
		log.Println(err)
		WriteError(w, http.StatusBadRequest, utils.GENERIC_OTP_ERROR)
		return
	}
	user, err := api.Users.GetByEmail(email)
	if err != nil {
		log.Println(err)
		if errors.Is(err, utils.ErrUserNotFound) {
			WriteError(w, http.StatusNotFound, utils.ErrUserNotFound.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, "We had some trouble logging you in. Please try again!")
		return
	}
	accessToken, err := api.Issuer.IssueAccessToken(user.Email)
	if err != nil {
		log.Println(err)
		WriteError(w, http.StatusInternalServerError, "We had some trouble logging you in. Please try again!")
		return
	}
	refreshToken, err := api.Issuer.IssueRefreshToken(user.Email)
	if err != nil {
		log.Println(err)
		WriteError(w, http.StatusInternalServerError, "We had some trouble logging you in. Please try again!")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Logged In",
		"tokens":  TokenResponse{AccessToken: accessToken, RefreshToken: refreshToken},
	})
}

// Refresh runs behind the verifier with the refresh type required, so an
// access token presented here is already rejected before the handler runs.
func (api *API) Refresh(w http.ResponseWriter, r *http.Request) {
	claims, ok := middlewares.ClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, utils.ErrTokenInvalid.Error())
		return
	}
	accessToken, err := api.Issuer.IssueAccessToken(claims.Subject)
	if err != nil {
		log.Println(err)
		WriteError(w, http.StatusInternalServerError, "We had some trouble refreshing your session. Please try again!")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"access_token": accessToken})
}

// Logout writes the presented token's jti into the revocation ledger. The
// write must land before the response: a failed write is a failed logout.
func (api *API) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middlewares.ClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, utils.ErrTokenInvalid.Error())
		return
	}
	if err := api.Ledger.Revoke(claims.ID, claims.ExpiresAt.Time); err != nil {
		log.Println(err)
		WriteError(w, http.StatusInternalServerError, "We had some trouble logging you out. Please try again!")
		return
	}
	WriteMessage(w, http.StatusOK, fmt.Sprintf("%s token revoked successfully", claims.TokenType))
}
