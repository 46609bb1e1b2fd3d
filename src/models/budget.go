package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Budget struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	UserID    int64           `json:"user_id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Expenses  []Expense       `json:"expenses,omitempty"`
}
