package handlers

import (
	"cashtrackr-server/src/apperr"
	"cashtrackr-server/src/models"
	"cashtrackr-server/src/reqctx"
	"cashtrackr-server/src/util"
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

type ExpenseStore interface {
	CreateExpense(ctx context.Context, expense *models.Expense) error
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, expenseID int64) error
}

func CreateExpense(store ExpenseStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		budget := reqctx.FromContext(r.Context()).Budget
		name, amount, ok := parseEntry(w, r, "expense")
		if !ok {
			return
		}

		expense := &models.Expense{Name: name, Amount: amount, BudgetID: budget.ID}
		if err := store.CreateExpense(context.WithoutCancel(r.Context()), expense); err != nil {
			fail(w, r, apperr.Wrap(err, "failed to create expense"), "failed to create expense")
			return
		}

		log.Info().Int64("expense_id", expense.ID).Int64("budget_id", budget.ID).Msg("expense created")
		util.WriteMessage(w, http.StatusCreated, "expense created")
	}
}

func GetExpense() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		util.WriteJSON(w, http.StatusOK, reqctx.FromContext(r.Context()).Expense)
	}
}

func UpdateExpense(store ExpenseStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		expense := *reqctx.FromContext(r.Context()).Expense
		name, amount, ok := parseEntry(w, r, "expense")
		if !ok {
			return
		}

		expense.Name = name
		expense.Amount = amount
		if err := store.UpdateExpense(context.WithoutCancel(r.Context()), &expense); err != nil {
			fail(w, r, apperr.Wrap(err, "failed to update expense"), "failed to update expense")
			return
		}

		log.Info().Int64("expense_id", expense.ID).Msg("expense updated")
		util.WriteMessage(w, http.StatusOK, "expense updated")
	}
}

func DeleteExpense(store ExpenseStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		expense := reqctx.FromContext(r.Context()).Expense
		if err := store.DeleteExpense(context.WithoutCancel(r.Context()), expense.ID); err != nil {
			fail(w, r, apperr.Wrap(err, "failed to delete expense"), "failed to delete expense")
			return
		}

		log.Info().Int64("expense_id", expense.ID).Msg("expense deleted")
		util.WriteMessage(w, http.StatusOK, "expense deleted")
	}
}
