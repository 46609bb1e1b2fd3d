// Package memdb is an in-memory store with the same contract as the
// Postgres store: unique emails, ErrNotFound for missing rows and cascading
// budget deletes.
package memdb

import (
	"cashtrackr-server/src/models"
	"context"
	"sort"
	"sync"
	"time"

	db "cashtrackr-server/src/db/sql"
)

type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	seq      int64
	users    map[int64]models.User
	budgets  map[int64]models.Budget
	expenses map[int64]models.Expense
}

func New() *Store {
	return &Store{
		now:      time.Now,
		users:    make(map[int64]models.User),
		budgets:  make(map[int64]models.Budget),
		expenses: make(map[int64]models.Expense),
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func copyUser(u models.User) *models.User {
	if u.Token != nil {
		token := *u.Token
		u.Token = &token
	}
	return &u
}

// Users

func (s *Store) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return copyUser(u), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *Store) GetUserByToken(_ context.Context, token string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Token != nil && *u.Token == token {
			return copyUser(u), nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *Store) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	u, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Account(), nil
}

func (s *Store) emailTaken(email string, exceptID int64) bool {
	for id, u := range s.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTaken(user.Email, 0) {
		return db.ErrDuplicate
	}
	now := s.now()
	user.ID = s.nextID()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *copyUser(*user)
	return nil
}

func (s *Store) UpdateProfile(_ context.Context, id int64, name, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return db.ErrNotFound
	}
	if s.emailTaken(email, id) {
		return db.ErrDuplicate
	}
	u.Name = name
	u.Email = email
	u.UpdatedAt = s.now()
	s.users[id] = u
	return nil
}

func (s *Store) UpdatePassword(_ context.Context, id int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return db.ErrNotFound
	}
	u.Password = hash
	u.UpdatedAt = s.now()
	s.users[id] = u
	return nil
}

func (s *Store) SetToken(_ context.Context, id int64, token *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return db.ErrNotFound
	}
	u.Token = nil
	if token != nil {
		t := *token
		u.Token = &t
	}
	u.UpdatedAt = s.now()
	s.users[id] = u
	return nil
}

// consumeToken applies fn to the user holding token whose confirmed flag
// equals confirmed, clearing the code under the same lock.
func (s *Store) consumeToken(token string, confirmed bool, fn func(u *models.User)) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, u := range s.users {
		if u.Token == nil || *u.Token != token || u.Confirmed != confirmed {
			continue
		}
		fn(&u)
		u.Token = nil
		u.UpdatedAt = s.now()
		s.users[id] = u
		return id, nil
	}
	return 0, db.ErrNotFound
}

func (s *Store) ConfirmByToken(_ context.Context, token string) (int64, error) {
	return s.consumeToken(token, false, func(u *models.User) { u.Confirmed = true })
}

func (s *Store) ResetPasswordByToken(_ context.Context, token, hash string) (int64, error) {
	return s.consumeToken(token, true, func(u *models.User) { u.Password = hash })
}

// Budgets

func (s *Store) CreateBudget(_ context.Context, budget *models.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[budget.UserID]; !ok {
		return db.ErrNotFound
	}
	now := s.now()
	budget.ID = s.nextID()
	budget.CreatedAt = now
	budget.UpdatedAt = now
	stored := *budget
	stored.Expenses = nil
	s.budgets[budget.ID] = stored
	return nil
}

func (s *Store) GetBudgetByID(_ context.Context, budgetID int64) (*models.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.budgets[budgetID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &b, nil
}

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

func (s *Store) ListBudgetsByUser(_ context.Context, userID int64) ([]models.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	budgets := []models.Budget{}
	for _, b := range s.budgets {
		if b.UserID == userID {
			budgets = append(budgets, b)
		}
	}
	sort.Slice(budgets, func(i, j int) bool {
		if budgets[i].CreatedAt.Equal(budgets[j].CreatedAt) {
			return budgets[i].ID > budgets[j].ID
		}
		return budgets[i].CreatedAt.After(budgets[j].CreatedAt)
	})
	return budgets, nil
}

func (s *Store) UpdateBudget(_ context.Context, budget *models.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.budgets[budget.ID]
	if !ok {
		return db.ErrNotFound
	}
	existing.Name = budget.Name
	existing.Amount = budget.Amount
	existing.UpdatedAt = s.now()
	s.budgets[budget.ID] = existing
	budget.UpdatedAt = existing.UpdatedAt
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, budgetID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.budgets[budgetID]; !ok {
		return db.ErrNotFound
	}
	delete(s.budgets, budgetID)
	for id, e := range s.expenses {
		if e.BudgetID == budgetID {
			delete(s.expenses, id)
		}
	}
	return nil
}

// Expenses

func (s *Store) CreateExpense(_ context.Context, expense *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.budgets[expense.BudgetID]; !ok {
		return db.ErrNotFound
	}
	now := s.now()
	expense.ID = s.nextID()
	expense.CreatedAt = now
	expense.UpdatedAt = now
	s.expenses[expense.ID] = *expense
	return nil
}

func (s *Store) GetExpenseByID(_ context.Context, expenseID int64) (*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenses[expenseID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &e, nil
}

func (s *Store) ListExpensesByBudget(_ context.Context, budgetID int64) ([]models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expenses := []models.Expense{}
	for _, e := range s.expenses {
		if e.BudgetID == budgetID {
			expenses = append(expenses, e)
		}
	}
	sort.Slice(expenses, func(i, j int) bool { return expenses[i].ID < expenses[j].ID })
	return expenses, nil
}

func (s *Store) UpdateExpense(_ context.Context, expense *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.expenses[expense.ID]
	if !ok {
		return db.ErrNotFound
	}
	existing.Name = expense.Name
	existing.Amount = expense.Amount
	existing.UpdatedAt = s.now()
	s.expenses[expense.ID] = existing
	expense.UpdatedAt = existing.UpdatedAt
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, expenseID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[expenseID]; !ok {
		return db.ErrNotFound
	}
	delete(s.expenses, expenseID)
	return nil
}
