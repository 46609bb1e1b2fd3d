package handlers

import (
	"cashtrackr-server/src/reqctx"
	"cashtrackr-server/src/services"
	"cashtrackr-server/src/util"
	"net/http"

	"github.com/rs/zerolog/log"
)

// GetUser returns the authenticated account as resolved by the session middleware.
func GetUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		util.WriteJSON(w, http.StatusOK, reqctx.FromContext(r.Context()).Account)
	}
}

func UpdateProfile(accounts *services.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := reqctx.FromContext(r.Context()).Account

		var req struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		}
		if !decode(w, r, &req) {
			return
		}
		if !valid(w, util.Check(
			util.Body("name", req.Name, util.Required("name is required")),
			util.Body("email", req.Email, util.Required("email is required"), util.Email("invalid email")),
		)) {
			return
		}

		if err := accounts.UpdateProfile(r.Context(), account.ID, req.Name, req.Email); err != nil {
			fail(w, r, err, "profile update failed")
			return
		}

		log.Info().Int64("user_id", account.ID).Msg("profile updated")
		util.WriteMessage(w, http.StatusOK, "profile updated")
	}
}

func ChangePassword(accounts *services.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := reqctx.FromContext(r.Context()).Account

		var req struct {
			PrevPassword string `json:"prevPassword"`
			Password     string `json:"password"`
		}
		if !decode(w, r, &req) {
			return
		}
		if !valid(w, util.Check(
			util.Body("prevPassword", req.PrevPassword, util.Required("current password is required")),
			util.Body("password", req.Password, util.Required("password is required"), util.MinLength(minPasswordLength, "password must be at least 8 characters")),
		)) {
			return
		}

		if err := accounts.ChangePassword(r.Context(), account.ID, req.PrevPassword, req.Password); err != nil {
			fail(w, r, err, "password change failed")
			return
		}

		log.Info().Int64("user_id", account.ID).Msg("password changed")
		util.WriteMessage(w, http.StatusOK, "password updated")
	}
}

func CheckPassword(accounts *services.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := reqctx.FromContext(r.Context()).Account

		var req struct {
			Password string `json:"password"`
		}
		if !decode(w, r, &req) {
			return
		}
		if !valid(w, util.Check(
			util.Body("password", req.Password, util.Required("password is required")),
		)) {
			return
		}

		if err := accounts.CheckPassword(r.Context(), account.ID, req.Password); err != nil {
			fail(w, r, err, "password check failed")
			return
		}

		util.WriteMessage(w, http.StatusOK, "correct password")
	}
}
