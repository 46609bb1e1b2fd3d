package db

import (
	"cashtrackr-server/src/models"
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const budgetColumns = `id, name, amount::text, user_id, created_at, updated_at`

func scanBudget(row pgx.Row) (*models.Budget, error) {
	var (
		b      models.Budget
		amount string
	)
	if err := row.Scan(&b.ID, &b.Name, &amount, &b.UserID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	d, err := parseAmount(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid budget amount %q: %w", amount, err)
	}
	b.Amount = d
	return &b, nil
}

func (s *Store) CreateBudget(ctx context.Context, budget *models.Budget) error {
	query := `
		INSERT INTO budgets (name, amount, user_id)
		VALUES ($1, $2::text::numeric, $3)
		RETURNING id, created_at, updated_at
	`
	err := s.pool.QueryRow(ctx, query, budget.Name, budget.Amount.String(), budget.UserID).
		Scan(&budget.ID, &budget.CreatedAt, &budget.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}
	return nil
}

func (s *Store) GetBudgetByID(ctx context.Context, budgetID int64) (*models.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE id = $1`
	b, err := scanBudget(s.pool.QueryRow(ctx, query, budgetID))
	if err != nil {
		return nil, fmt.Errorf("get budget by id: %w", err)
	}
	return b, nil
}

// GetBudgetWithExpenses loads a budget and its expenses, oldest expense first.
func (s *Store) GetBudgetWithExpenses(ctx context.Context, budgetID int64) (*models.Budget, error) {
	b, err := s.GetBudgetByID(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.ListExpensesByBudget(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	b.Expenses = expenses
	return b, nil
}

func (s *Store) ListBudgetsByUser(ctx context.Context, userID int64) ([]models.Budget, error) {
	query := `
		SELECT ` + budgetColumns + `
		FROM budgets WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	budgets := []models.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, *b)
	}
	return budgets, rows.Err()
}

func (s *Store) UpdateBudget(ctx context.Context, budget *models.Budget) error {
	query := `
		UPDATE budgets
		SET name = $1, amount = $2::text::numeric, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`
	err := s.pool.QueryRow(ctx, query, budget.Name, budget.Amount.String(), budget.ID).Scan(&budget.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", notFound(err))
	}
	return nil
}

// DeleteBudget removes a budget; its expenses go with it through ON DELETE CASCADE.
func (s *Store) DeleteBudget(ctx context.Context, budgetID int64) error {
	cmd, err := s.pool.Exec(ctx, `DELETE FROM budgets WHERE id = $1`, budgetID)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
