package db

import (
	"cashtrackr-server/src/models"
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, name, email, password, token, confirmed, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Password,
		&user.Token,
		&user.Confirmed,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(s.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (s *Store) GetUserByToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE token = $1`
	user, err := scanUser(s.pool.QueryRow(ctx, query, token))
	if err != nil {
		return nil, fmt.Errorf("get user by token: %w", err)
	}
	return user, nil
}

// GetAccountByID loads only the non-sensitive columns of a user.
func (s *Store) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	query := `SELECT id, name, email FROM users WHERE id = $1`
	err := s.pool.QueryRow(ctx, query, id).Scan(&account.ID, &account.Name, &account.Email)
	if err != nil {
		return nil, fmt.Errorf("get account by id: %w", notFound(err))
	}
	return &account, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, password, token, confirmed)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := s.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.Password,
		user.Token,
		user.Confirmed,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *Store) UpdateProfile(ctx context.Context, id int64, name, email string) error {
	query := `UPDATE users SET name = $1, email = $2, updated_at = NOW() WHERE id = $3`
	cmd, err := s.pool.Exec(ctx, query, name, email, id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, id int64, hash string) error {
	query := `UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`
	cmd, err := s.pool.Exec(ctx, query, hash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetToken replaces the outstanding code of a user. A nil token clears it.
func (s *Store) SetToken(ctx context.Context, id int64, token *string) error {
	query := `UPDATE users SET token = $1, updated_at = NOW() WHERE id = $2`
	cmd, err := s.pool.Exec(ctx, query, token, id)
	if err != nil {
		return fmt.Errorf("failed to set token: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ConfirmByToken confirms the unconfirmed user holding token and clears the
// code in the same statement, so a code confirms at most one request.
func (s *Store) ConfirmByToken(ctx context.Context, token string) (int64, error) {
	query := `
		UPDATE users
		SET confirmed = TRUE, token = NULL, updated_at = NOW()
		WHERE token = $1 AND confirmed = FALSE
		RETURNING id
	`
	var id int64
	if err := s.pool.QueryRow(ctx, query, token).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to confirm user: %w", notFound(err))
	}
	return id, nil
}

// ResetPasswordByToken sets a new password hash on the confirmed user holding
// token and clears the code in the same statement.
func (s *Store) ResetPasswordByToken(ctx context.Context, token, hash string) (int64, error) {
	query := `
		UPDATE users
		SET password = $2, token = NULL, updated_at = NOW()
		WHERE token = $1 AND confirmed = TRUE
		RETURNING id
	`
	var id int64
	if err := s.pool.QueryRow(ctx, query, token, hash).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to reset password: %w", notFound(err))
	}
	return id, nil
}
