package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sessionapp/apiv1/dbhelper"
	"github.com/sessionapp/apiv1/middlewares"
	"github.com/sessionapp/apiv1/utils"
)

var validate = validator.New()

// Mailer is the outbound email collaborator. Delivery is fire-and-forget;
// issuance never depends on it succeeding.
type Mailer interface {
	SendAsync(recipient, subject, body string)
}

// API bundles the injected collaborators the handlers work against.
type API struct {
	Users    *dbhelper.UserStore
	Otp      *utils.OtpManager
	Issuer   *utils.TokenIssuer
	Ledger   *dbhelper.RevocationLedger
	Mailer   Mailer
	Verifier *middlewares.SessionVerifier
}

func CreateRoutes(r *mux.Router, api *API) {
	lmt := tollbooth.NewLimiter(5, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	lmt.SetMessage(utils.GENERIC_RATE_LIMIT_ERROR)

	auth := r.PathPrefix("/api/auth").Subrouter()
	api.AuthRouter(auth, lmt)

	users := r.PathPrefix("/api/users").Subrouter()
	api.UserRouter(users)
}

type RequestBody interface {
	SignupAttempt | LoginAttempt | OtpAttempt | UpdateRequest
}

// DecodeValidBody decodes the JSON body and runs the struct validation tags.
// Validation failures come back as a ValidationError listing every violation.
func DecodeValidBody[B RequestBody](r *http.Request) (B, error) {
	var requestBody B
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&requestBody); err != nil {
		return requestBody, &utils.ValidationError{Violations: []string{utils.MISSING_REQUEST_DATA}}
	}
	if err := validate.Struct(requestBody); err != nil {
		var violations []string
		if fieldErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrors {
				violations = append(violations, fmt.Sprintf("%s: failed on '%s'", strings.ToLower(fe.Field()), fe.Tag()))
			}
		} else {
			violations = append(violations, utils.MISSING_REQUEST_DATA)
		}
		return requestBody, &utils.ValidationError{Violations: violations}
	}
	return requestBody, nil
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"message": message})
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}
