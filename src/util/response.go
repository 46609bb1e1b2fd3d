package util

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"cashtrackr-server/src/apperr"
)

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"message": message})
}

// WriteError renders err as {message} using its apperr kind. Causes of
// unexpected failures are never sent to the client.
func WriteError(w http.ResponseWriter, err error) {
	WriteMessage(w, apperr.KindOf(err).Status(), apperr.PublicMessage(err))
}

func WriteValidationErrors(w http.ResponseWriter, errs []FieldError) {
	WriteJSON(w, http.StatusBadRequest, map[string][]FieldError{"errors": errs})
}
