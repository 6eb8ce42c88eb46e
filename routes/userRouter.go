package routes

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sessionapp/apiv1/middlewares"
	"github.com/sessionapp/apiv1/utils"
)

type UpdateRequest struct {
	Description string `json:"description" validate:"required"`
}

type UserSummary struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

func (api *API) UserRouter(s *mux.Router) {
	s.HandleFunc("/detail", api.Verifier.Require(utils.ACCESS_TYPE, api.UserDetail)).Methods("GET")
	s.HandleFunc("/update", api.Verifier.Require(utils.ACCESS_TYPE, api.UpdateUser)).Methods("PUT")
	s.HandleFunc("/deactivate", api.Verifier.Require(utils.ACCESS_TYPE, api.DeactivateUser)).Methods("DELETE")
	s.HandleFunc("/limit", api.Verifier.Require(utils.ACCESS_TYPE, api.ListUsers)).Methods("GET")
}

func (api *API) UserDetail(w http.ResponseWriter, r *http.Request) {
	claims, _ := middlewares.ClaimsFromContext(r.Context())
	user, err := api.Users.GetByEmail(claims.Subject)
	if err != nil {
		log.Println(err)
		if errors.Is(err, utils.ErrUserNotFound) {
			WriteError(w, http.StatusNotFound, utils.ErrUserNotFound.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, "We had some trouble loading your details. Please try again!")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"message": "message",
		"details": map[string]string{
			"fullname":    fmt.Sprintf("%s %s", user.FirstName, user.LastName),
			"email":       user.Email,
			"description": user.Description,
		},
	})
}

func (api *API) UpdateUser(w http.ResponseWriter, r *http.Request) {
	claims, _ := middlewares.ClaimsFromContext(r.Context())
	body, err := DecodeValidBody[UpdateRequest](r)
	if err != nil {
		log.Println(err)
		WriteError(w, http.StatusUnprocessableEntity, "description key is missing")
		return
	}
	if err := api.Users.UpdateDescription(claims.Subject, body.Description); err != nil {
		log.Println(err)
		if errors.Is(err, utils.ErrUserNotFound) {
			WriteError(w, http.StatusNotFound, utils.ErrUserNotFound.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, "We had some trouble updating your details. Please try again!")
		return
	}
	WriteMessage(w, http.StatusOK, "Description updated")
}

// DeactivateUser flips the identity's active flag. The row stays put so the
// revocation ledger keeps a valid subject to point at.
func (api *API) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	claims, _ := middlewares.ClaimsFromContext(r.Context())
	if err := api.Users.Deactivate(claims.Subject); err != nil {
		log.Println(err)
		if errors.Is(err, utils.ErrUserNotFound) {
			WriteError(w, http.StatusNotFound, utils.ErrUserNotFound.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, "We had some trouble deactivating your account. Please try again!")
		return
	}
	WriteMessage(w, http.StatusOK, "User deactivated")
}

// ListUsers is admin-only; the is_admin claim decides, not a fresh lookup.
func (api *API) ListUsers(w http.ResponseWriter, r *http.Request) {
	claims, _ := middlewares.ClaimsFromContext(r.Context())
	if !claims.IsAdmin {
		WriteMessage(w, http.StatusUnauthorized, utils.ErrUnauthorized.Error())
		return
	}
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 3)
	users, err := api.Users.List(page, perPage)
	if err != nil {
		log.Println(err)
		WriteError(w, http.StatusInternalServerError, "We had some trouble listing users. Please try again!")
		return
	}
	summaries := make([]UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, UserSummary{ID: u.ID, Email: u.Email})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"users": summaries})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
