// Package reqctx carries what the middleware chain has resolved for a request.
package reqctx

import (
	"cashtrackr-server/src/models"
	"context"
)

type contextKey struct {
	name string
}

var scopeCtxKey = &contextKey{"scope"}

// Scope is stored by value; each stage copies it, fills its own field and
// stores the copy, so earlier stages never observe later mutations.
type Scope struct {
	Account *models.Account
	Budget  *models.Budget
	Expense *models.Expense
}

func FromContext(ctx context.Context) Scope {
	scope, _ := ctx.Value(scopeCtxKey).(Scope)
	return scope
}

func WithAccount(ctx context.Context, account *models.Account) context.Context {
	scope := FromContext(ctx)
	scope.Account = account
	return context.WithValue(ctx, scopeCtxKey, scope)
}

func WithBudget(ctx context.Context, budget *models.Budget) context.Context {
	scope := FromContext(ctx)
	scope.Budget = budget
	return context.WithValue(ctx, scopeCtxKey, scope)
}

func WithExpense(ctx context.Context, expense *models.Expense) context.Context {
	scope := FromContext(ctx)
	scope.Expense = expense
	return context.WithValue(ctx, scopeCtxKey, scope)
}
