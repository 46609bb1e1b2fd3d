package handlers

import (
	"cashtrackr-server/src/apperr"
	"cashtrackr-server/src/util"
	"net/http"

	"github.com/rs/zerolog/log"
)

// fail logs err at a level matching its kind and writes the client response.
func fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if apperr.KindOf(err) == apperr.Unexpected {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg(msg)
	} else {
		log.Warn().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg(msg)
	}
	util.WriteError(w, err)
}

// decode reads a JSON body and reports a validation failure when it cannot.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := util.DecodeJSON(r, dst); err != nil {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("failed to decode request body")
		util.WriteValidationErrors(w, util.InvalidBody())
		return false
	}
	return true
}

func valid(w http.ResponseWriter, errs []util.FieldError) bool {
	if len(errs) > 0 {
		util.WriteValidationErrors(w, errs)
		return false
	}
	return true
}
