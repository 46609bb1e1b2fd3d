package middleware

import (
	"cashtrackr-server/src/apperr"
	"cashtrackr-server/src/models"
	"cashtrackr-server/src/reqctx"
	"cashtrackr-server/src/util"
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	db "cashtrackr-server/src/db/sql"
)

const (
	BudgetIDParam  = "budgetId"
	ExpenseIDParam = "expenseId"

	invalidIDMessage = "invalid id"
)

var (
	ErrBudgetNotFound = apperr.New(apperr.NotFound, "budget not found")
	ErrNoAccess       = apperr.New(apperr.Unauthorized, "you do not have permission to perform this action")
)

type BudgetFinder interface {
	GetBudgetByID(ctx context.Context, budgetID int64) (*models.Budget, error)
}

// validateID rejects path ids that are not positive integers with the full
// list of failed checks.
func validateID(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := chi.URLParam(r, param)
			errs := util.Check(util.Param(param, raw,
				util.IsInt(invalidIDMessage),
				util.Positive(invalidIDMessage),
			))
			if len(errs) > 0 {
				util.WriteValidationErrors(w, errs)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ValidateBudgetID(next http.Handler) http.Handler {
	return validateID(BudgetIDParam)(next)
}

// BudgetExists resolves the path budget and attaches it to the request scope.
func BudgetExists(budgets BudgetFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			budgetID, err := util.ParseID(chi.URLParam(r, BudgetIDParam))
			if err != nil {
				util.WriteError(w, ErrBudgetNotFound)
				return
			}

			budget, err := budgets.GetBudgetByID(r.Context(), budgetID)
			if err != nil {
				if errors.Is(err, db.ErrNotFound) {
					util.WriteError(w, ErrBudgetNotFound)
					return
				}
				log.Error().Err(err).Int64("budget_id", budgetID).Msg("failed to load budget")
				util.WriteError(w, apperr.Wrap(err, "failed to load budget"))
				return
			}

			next.ServeHTTP(w, r.WithContext(reqctx.WithBudget(r.Context(), budget)))
		})
	}
}

// HasAccess lets the request through only when the authenticated account owns
// the resolved budget.
func HasAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := reqctx.FromContext(r.Context())
		if scope.Account == nil || scope.Budget == nil || scope.Budget.UserID != scope.Account.ID {
			var accountID int64
			if scope.Account != nil {
				accountID = scope.Account.ID
			}
			log.Warn().Int64("user_id", accountID).Str("budget_id", chi.URLParam(r, BudgetIDParam)).Msg("budget access denied")
			util.WriteError(w, ErrNoAccess)
			return
		}
		next.ServeHTTP(w, r)
	})
}
