package handlers

import (
	"cashtrackr-server/src/apperr"
	"cashtrackr-server/src/models"
	"cashtrackr-server/src/reqctx"
	"cashtrackr-server/src/util"
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type BudgetStore interface {
	CreateBudget(ctx context.Context, budget *models.Budget) error
	GetBudgetWithExpenses(ctx context.Context, budgetID int64) (*models.Budget, error)
	ListBudgetsByUser(ctx context.Context, userID int64) ([]models.Budget, error)
	UpdateBudget(ctx context.Context, budget *models.Budget) error
	DeleteBudget(ctx context.Context, budgetID int64) error
}

// entryRequest is the body shared by budgets and expenses. Amount stays
// untyped so that strings and numbers both reach the numeric rules.
type entryRequest struct {
	Name   string      `json:"name"`
	Amount interface{} `json:"amount"`
}

// parseEntry decodes and validates a name/amount body.
func parseEntry(w http.ResponseWriter, r *http.Request, kind string) (string, decimal.Decimal, bool) {
	var req entryRequest
	if !decode(w, r, &req) {
		return "", decimal.Decimal{}, false
	}
	if !valid(w, util.Check(
		util.Body("name", req.Name, util.Required(kind+" name is required")),
		util.Body("amount", req.Amount,
			util.Required(kind+" amount is required"),
			util.Numeric("invalid amount"),
			util.Positive(kind+" amount must be greater than 0"),
		),
	)) {
		return "", decimal.Decimal{}, false
	}
	amount, _ := util.ToDecimal(req.Amount)
	return req.Name, amount, true
}

// budgetDetail always renders the expenses array, even when it is empty.
type budgetDetail struct {
	*models.Budget
	Expenses []models.Expense `json:"expenses"`
}

func GetAllBudgets(store BudgetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := reqctx.FromContext(r.Context()).Account
		budgets, err := store.ListBudgetsByUser(r.Context(), account.ID)
		if err != nil {
			fail(w, r, apperr.Wrap(err, "failed to list budgets"), "failed to list budgets")
			return
		}
		util.WriteJSON(w, http.StatusOK, budgets)
	}
}

func CreateBudget(store BudgetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := reqctx.FromContext(r.Context()).Account
		name, amount, ok := parseEntry(w, r, "budget")
		if !ok {
			return
		}

		budget := &models.Budget{Name: name, Amount: amount, UserID: account.ID}
		if err := store.CreateBudget(context.WithoutCancel(r.Context()), budget); err != nil {
			fail(w, r, apperr.Wrap(err, "failed to create budget"), "failed to create budget")
			return
		}

		log.Info().Int64("budget_id", budget.ID).Int64("user_id", account.ID).Msg("budget created")
		util.WriteMessage(w, http.StatusCreated, "budget created")
	}
}

func GetBudget(store BudgetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope := reqctx.FromContext(r.Context())
		budget, err := store.GetBudgetWithExpenses(r.Context(), scope.Budget.ID)
		if err != nil {
			fail(w, r, apperr.Wrap(err, "failed to load budget"), "failed to load budget")
			return
		}

		expenses := budget.Expenses
		if expenses == nil {
			expenses = []models.Expense{}
		}
		util.WriteJSON(w, http.StatusOK, budgetDetail{Budget: budget, Expenses: expenses})
	}
}

func UpdateBudget(store BudgetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		budget := *reqctx.FromContext(r.Context()).Budget
		name, amount, ok := parseEntry(w, r, "budget")
		if !ok {
			return
		}

		budget.Name = name
		budget.Amount = amount
		if err := store.UpdateBudget(context.WithoutCancel(r.Context()), &budget); err != nil {
			fail(w, r, apperr.Wrap(err, "failed to update budget"), "failed to update budget")
			return
		}

		log.Info().Int64("budget_id", budget.ID).Msg("budget updated")
		util.WriteMessage(w, http.StatusOK, "budget updated")
	}
}

func DeleteBudget(store BudgetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		budget := reqctx.FromContext(r.Context()).Budget
		if err := store.DeleteBudget(context.WithoutCancel(r.Context()), budget.ID); err != nil {
			fail(w, r, apperr.Wrap(err, "failed to delete budget"), "failed to delete budget")
			return
		}

		log.Info().Int64("budget_id", budget.ID).Msg("budget deleted")
		util.WriteMessage(w, http.StatusOK, "budget deleted")
	}
}
