package handlers

import (
	"cashtrackr-server/src/services"
	"cashtrackr-server/src/util"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const (
	codeLength        = 6
	minPasswordLength = 8
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type codeRequest struct {
	Token string `json:"token"`
}

func Register(accounts *services.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if !decode(w, r, &req) {
			return
		}
		if !valid(w, util.Check(
			util.Body("name", req.Name, util.Required("name is required")),
			util.Body("email", req.Email, util.Required("email is required"), util.Email("invalid email")),
			util.Body("password", req.Password, util.Required("password is required"), util.MinLength(minPasswordLength, "password must be at least 8 characters")),
		)) {
			return
		}

		err := accounts.Register(r.Context(), services.RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password})
		if err != nil {
			fail(w, r, err, "registration failed")
			return
		}

		log.Info().Str("email", req.Email).Msg("account registered")
		util.WriteMessage(w, http.StatusCreated, "account created, check your email to confirm it")
	}
}

func ConfirmAccount(accounts *services.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req codeRequest
		if !decode(w, r, &req) {
			return
		}
		if !valid(w, util.Check(
			util.Body("token", req.Token, util.Required("token is required"), util.ExactLength(codeLength, "invalid token")),
		)) {
			return
		}

		if err := accounts.ConfirmAccount(r.Context(), req.Token); err != nil {
			fail(w, r, err, "account confirmation failed")
			return
		}

		util.WriteMessage(w, http.StatusOK, "account confirmed")
	}
}

// Login answers with the session token as a bare JSON string.
func Login(accounts *services.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if !decode(w, r, &req) {
			return
		}
		if !valid(w, util.Check(
			util.Body("email", req.Email, util.Required("email is required"), util.Email("invalid email")),
			util.Body("password", req.Password, util.Required("password is required"), util.MinLength(minPasswordLength, "password must be at least 8 characters")),
		)) {
			return
		}

		token, err := accounts.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			fail(w, r, err, "login failed")
			return
		}

		util.WriteJSON(w, http.StatusOK, token)
	}
}

func ForgotPassword(accounts *services.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if !decode(w, r, &req) {
			return
		}
		if !valid(w, util.Check(
			util.Body("email", req.Email, util.Required("email is required"), util.Email("invalid email")),
		)) {
			return
		}

		if err := accounts.ForgotPassword(r.Context(), req.Email); err != nil {
			fail(w, r, err, "forgot password failed")
			return
		}

		util.WriteMessage(w, http.StatusOK, "we sent instructions to reset your password to your email")
	}
}

func ValidateToken(accounts *services.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req codeRequest
		if !decode(w, r, &req) {
			return
		}
		if !valid(w, util.Check(
			util.Body("token", req.Token, util.Required("token is required"), util.ExactLength(codeLength, "invalid token")),
		)) {
			return
		}

		if err := accounts.ValidateToken(r.Context(), req.Token); err != nil {
			fail(w, r, err, "token validation failed")
			return
		}

		util.WriteMessage(w, http.StatusOK, "valid token, set your new password")
	}
}

func ResetPassword(accounts *services.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "token")
		var req struct {
			Password string `json:"password"`
		}
		if !decode(w, r, &req) {
			return
		}
		if !valid(w, util.Check(
			util.Param("token", code, util.Required("token is required"), util.ExactLength(codeLength, "invalid token")),
			util.Body("password", req.Password, util.Required("password is required"), util.MinLength(minPasswordLength, "password must be at least 8 characters")),
		)) {
			return
		}

		if err := accounts.ResetPassword(r.Context(), code, req.Password); err != nil {
			fail(w, r, err, "password reset failed")
			return
		}

		util.WriteMessage(w, http.StatusOK, "password reset successfully")
	}
}
