package middleware

import (
	"cashtrackr-server/src/apperr"
	"cashtrackr-server/src/models"
	"cashtrackr-server/src/reqctx"
	"cashtrackr-server/src/util"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	db "cashtrackr-server/src/db/sql"
)

var (
	ErrNoAuthorization = apperr.New(apperr.Unauthorized, "unauthorized")
	ErrInvalidToken    = apperr.New(apperr.Unauthorized, "invalid token")
)

type TokenVerifier interface {
	Verify(token string) (*util.SessionClaims, error)
}

// AccountLookup resolves an account id to its non-sensitive projection.
type AccountLookup interface {
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
}

// bearerToken returns the segment after the scheme in an Authorization header.
func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// Authenticate verifies the bearer session token and attaches the account to
// the request scope. Any token that does not resolve to an existing account
// is rejected with 401.
func Authenticate(tokens TokenVerifier, accounts AccountLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				util.WriteError(w, ErrNoAuthorization)
				return
			}

			token := bearerToken(header)
			if token == "" {
				util.WriteError(w, ErrInvalidToken)
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("rejected session token")
				util.WriteError(w, ErrInvalidToken)
				return
			}

			accountID, ok := claims.AccountID()
			if !ok {
				log.Warn().Str("subject", claims.Subject).Msg("session token without usable subject")
				util.WriteError(w, ErrInvalidToken)
				return
			}

			account, err := accounts.GetAccountByID(r.Context(), accountID)
			if err != nil {
				if errors.Is(err, db.ErrNotFound) {
					log.Warn().Int64("user_id", accountID).Msg("session token for unknown account")
					util.WriteError(w, ErrInvalidToken)
					return
				}
				log.Error().Err(err).Int64("user_id", accountID).Msg("failed to load session account")
				util.WriteError(w, apperr.Wrap(err, "failed to load session account"))
				return
			}

			next.ServeHTTP(w, r.WithContext(reqctx.WithAccount(r.Context(), account)))
		})
	}
}
