package db

import (
	"cashtrackr-server/src/models"
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const expenseColumns = `id, name, amount::text, budget_id, created_at, updated_at`

func scanExpense(row pgx.Row) (*models.Expense, error) {
	var (
		e      models.Expense
		amount string
	)
	if err := row.Scan(&e.ID, &e.Name, &amount, &e.BudgetID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	d, err := parseAmount(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid expense amount %q: %w", amount, err)
	}
	e.Amount = d
	return &e, nil
}

func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	query := `
		INSERT INTO expenses (name, amount, budget_id)
		VALUES ($1, $2::text::numeric, $3)
		RETURNING id, created_at, updated_at
	`
	err := s.pool.QueryRow(ctx, query, expense.Name, expense.Amount.String(), expense.BudgetID).
		Scan(&expense.ID, &expense.CreatedAt, &expense.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

func (s *Store) GetExpenseByID(ctx context.Context, expenseID int64) (*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`
	e, err := scanExpense(s.pool.QueryRow(ctx, query, expenseID))
	if err != nil {
		return nil, fmt.Errorf("get expense by id: %w", err)
	}
	return e, nil
}

func (s *Store) ListExpensesByBudget(ctx context.Context, budgetID int64) ([]models.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses WHERE budget_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := s.pool.Query(ctx, query, budgetID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

func (s *Store) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	query := `
		UPDATE expenses
		SET name = $1, amount = $2::text::numeric, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`
	err := s.pool.QueryRow(ctx, query, expense.Name, expense.Amount.String(), expense.ID).Scan(&expense.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", notFound(err))
	}
	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, expenseID int64) error {
	cmd, err := s.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
