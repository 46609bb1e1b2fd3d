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

var ErrExpenseNotFound = apperr.New(apperr.NotFound, "expense not found")

type ExpenseFinder interface {
	GetExpenseByID(ctx context.Context, expenseID int64) (*models.Expense, error)
}

func ValidateExpenseID(next http.Handler) http.Handler {
	return validateID(ExpenseIDParam)(next)
}

// ExpenseExists resolves the path expense. An expense filed under a different
// budget than the one in the path is reported as not found.
func ExpenseExists(expenses ExpenseFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			expenseID, err := util.ParseID(chi.URLParam(r, ExpenseIDParam))
			if err != nil {
				util.WriteError(w, ErrExpenseNotFound)
				return
			}
			budgetID, err := util.ParseID(chi.URLParam(r, BudgetIDParam))
			if err != nil {
				util.WriteError(w, ErrExpenseNotFound)
				return
			}

			expense, err := expenses.GetExpenseByID(r.Context(), expenseID)
			if err != nil {
				if errors.Is(err, db.ErrNotFound) {
					util.WriteError(w, ErrExpenseNotFound)
					return
				}
				log.Error().Err(err).Int64("expense_id", expenseID).Msg("failed to load expense")
				util.WriteError(w, apperr.Wrap(err, "failed to load expense"))
				return
			}
			if expense.BudgetID != budgetID {
				util.WriteError(w, ErrExpenseNotFound)
				return
			}

			next.ServeHTTP(w, r.WithContext(reqctx.WithExpense(r.Context(), expense)))
		})
	}
}
