package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Expense struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	BudgetID  int64           `json:"budget_id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
