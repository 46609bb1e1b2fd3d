package api

import (
	"bytes"
	"cashtrackr-server/src/db/memdb"
	"cashtrackr-server/src/mail/mailtest"
	"cashtrackr-server/src/models"
	"cashtrackr-server/src/services"
	"cashtrackr-server/src/util"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

var _ Store = (*memdb.Store)(nil)

type RouterSuite struct {
	suite.Suite
	store  *memdb.Store
	outbox *mailtest.Outbox
	router http.Handler
}

type errorsBody struct {
	Errors []util.FieldError `json:"errors"`
}

func (s *RouterSuite) SetupSuite() {
	zerolog.SetGlobalLevel(zerolog.Disabled)
}

func (s *RouterSuite) TearDownSuite() {
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}

func (s *RouterSuite) SetupTest() {
	s.store = memdb.New()
	s.outbox = &mailtest.Outbox{}
	tokens := util.NewSessionTokens("test-secret", 0)
	accounts := services.NewAccountService(s.store, util.NewBcryptHasher(bcrypt.MinCost), tokens, s.outbox, util.GenerateCode)
	s.router = NewRouter(Deps{
		Store:          s.store,
		Accounts:       accounts,
		Tokens:         tokens,
		AllowedOrigins: []string{"http://localhost:3000"},
	})
}

// do sends body as JSON unless it is already a string.
func (s *RouterSuite) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		s.Require().NoError(json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) message(rec *httptest.ResponseRecorder) string {
	var body struct {
		Message string `json:"message"`
	}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
	return body.Message
}

func (s *RouterSuite) fieldErrors(rec *httptest.ResponseRecorder) []util.FieldError {
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	var body errorsBody
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
	return body.Errors
}

func (s *RouterSuite) register(email string) string {
	rec := s.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "John Doe", "email": email, "password": "password",
	}, "")
	s.Require().Equal(http.StatusCreated, rec.Code)
	code, ok := s.outbox.LastToken(email)
	s.Require().True(ok)
	return code
}

// login registers, confirms and logs in, returning a session token.
func (s *RouterSuite) login(email string) string {
	code := s.register(email)
	rec := s.do(http.MethodPost, "/api/auth/confirm-account", map[string]string{"token": code}, "")
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": "password"}, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var token string
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&token))
	s.Require().NotEmpty(token)
	return token
}

func (s *RouterSuite) createBudget(token, name, amount string) models.Budget {
	rec := s.do(http.MethodPost, "/api/budgets", map[string]string{"name": name, "amount": amount}, token)
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.Equal("budget created", s.message(rec))

	rec = s.do(http.MethodGet, "/api/budgets", nil, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	var budgets []models.Budget
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&budgets))
	s.Require().NotEmpty(budgets)
	return budgets[0]
}

func (s *RouterSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/health", nil, "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("ok", rec.Body.String())
}

func (s *RouterSuite) TestRegister_DuplicateEmail() {
	s.register("test@test.com")

	rec := s.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "John Doe", "email": "test@test.com", "password": "password",
	}, "")
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal("email already in use", s.message(rec))
}

func (s *RouterSuite) TestRegister_Validation() {
	errs := s.fieldErrors(s.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "", "email": "not-an-email", "password": "short",
	}, ""))

	paths := map[string]int{}
	for _, e := range errs {
		s.Equal("body", e.Location)
		paths[e.Path]++
	}
	s.Equal(map[string]int{"name": 1, "email": 1, "password": 1}, paths)
	s.Empty(s.outbox.Sent())
}

func (s *RouterSuite) TestLogin_EmptyBody() {
	errs := s.fieldErrors(s.do(http.MethodPost, "/api/auth/login", map[string]string{}, ""))
	s.Len(errs, 4)
}

func (s *RouterSuite) TestLogin_MalformedJSON() {
	errs := s.fieldErrors(s.do(http.MethodPost, "/api/auth/login", `{"email":`, ""))
	s.Len(errs, 1)
	s.Equal("body", errs[0].Location)
}

func (s *RouterSuite) TestLogin_Failures() {
	s.register("pending@test.com")
	s.login("test@test.com")

	rec := s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "nobody@test.com", "password": "password"}, "")
	s.Equal(http.StatusNotFound, rec.Code)
	notFound := s.message(rec)

	rec = s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "test@test.com", "password": "wrong-password"}, "")
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(notFound, s.message(rec))

	rec = s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "pending@test.com", "password": "password"}, "")
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *RouterSuite) TestConfirmAccount_CodeIsSingleUse() {
	code := s.register("test@test.com")

	rec := s.do(http.MethodPost, "/api/auth/confirm-account", map[string]string{"token": code}, "")
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/confirm-account", map[string]string{"token": code}, "")
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("invalid token", s.message(rec))

	errs := s.fieldErrors(s.do(http.MethodPost, "/api/auth/confirm-account", map[string]string{"token": "123"}, ""))
	s.Len(errs, 1)
}

func (s *RouterSuite) TestPasswordResetFlow() {
	s.login("test@test.com")

	rec := s.do(http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "test@test.com"}, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	code, ok := s.outbox.LastToken("test@test.com")
	s.Require().True(ok)

	rec = s.do(http.MethodPost, "/api/auth/validate-token", map[string]string{"token": code}, "")
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/reset-password/"+code, map[string]string{"password": "new-password"}, "")
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/validate-token", map[string]string{"token": code}, "")
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "test@test.com", "password": "new-password"}, "")
	s.Equal(http.StatusOK, rec.Code)

	errs := s.fieldErrors(s.do(http.MethodPost, "/api/auth/reset-password/12", map[string]string{"password": "new-password"}, ""))
	s.Require().Len(errs, 1)
	s.Equal("params", errs[0].Location)
}

func (s *RouterSuite) TestForgotPassword_UnknownEmail() {
	rec := s.do(http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "nobody@test.com"}, "")
	s.Equal(http.StatusNotFound, rec.Code)
	s.Empty(s.outbox.Sent())
}

func (s *RouterSuite) TestUserRoutes() {
	token := s.login("test@test.com")
	s.login("taken@test.com")

	rec := s.do(http.MethodGet, "/api/auth/user", nil, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	var raw map[string]interface{}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&raw))
	s.Equal("test@test.com", raw["email"])
	s.NotContains(raw, "password")
	s.NotContains(raw, "token")

	rec = s.do(http.MethodPost, "/api/auth/user/check-password", map[string]string{"password": "password"}, token)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/user/change-password", map[string]string{"prevPassword": "wrong", "password": "new-password"}, token)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("current password is incorrect", s.message(rec))

	rec = s.do(http.MethodPost, "/api/auth/user/change-password", map[string]string{"prevPassword": "password", "password": "new-password"}, token)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPut, "/api/auth/user", map[string]string{"name": "Jane", "email": "taken@test.com"}, token)
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPut, "/api/auth/user", map[string]string{"name": "Jane", "email": "test@test.com"}, token)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/auth/user", nil, token)
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&raw))
	s.Equal("Jane", raw["name"])
}

func (s *RouterSuite) TestBudgets_RequireAuthentication() {
	rec := s.do(http.MethodGet, "/api/budgets", nil, "")
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("unauthorized", s.message(rec))

	// An undecodable token is an authentication failure, not a server error.
	rec = s.do(http.MethodGet, "/api/budgets", nil, "not-a-token")
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("invalid token", s.message(rec))
}

func (s *RouterSuite) TestBudgets_InvalidID() {
	token := s.login("test@test.com")

	errs := s.fieldErrors(s.do(http.MethodPut, "/api/budgets/abc", map[string]string{"name": "x", "amount": "1"}, token))
	s.Len(errs, 2)
}

func (s *RouterSuite) TestBudgets_Validation() {
	token := s.login("test@test.com")

	s.Len(s.fieldErrors(s.do(http.MethodPost, "/api/budgets", map[string]string{}, token)), 4)
	s.Len(s.fieldErrors(s.do(http.MethodPost, "/api/budgets", map[string]string{"name": "x", "amount": "abc"}, token)), 2)
	s.Len(s.fieldErrors(s.do(http.MethodPost, "/api/budgets", map[string]interface{}{"name": "x", "amount": -5}, token)), 1)

	rec := s.do(http.MethodPost, "/api/budgets", map[string]interface{}{"name": "x", "amount": 12.5}, token)
	s.Equal(http.StatusCreated, rec.Code)
}

func (s *RouterSuite) TestBudgetLifecycle() {
	token := s.login("test@test.com")
	budget := s.createBudget(token, "Vacation", "1000")
	s.Equal("Vacation", budget.Name)
	s.Equal("1000", budget.Amount.String())

	budgetPath := fmt.Sprintf("/api/budgets/%d", budget.ID)

	rec := s.do(http.MethodGet, budgetPath, nil, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	var raw map[string]interface{}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&raw))
	s.Equal([]interface{}{}, raw["expenses"])

	rec = s.do(http.MethodPost, budgetPath+"/expenses", map[string]string{"name": "Hotel", "amount": "250.50"}, token)
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.Equal("expense created", s.message(rec))

	rec = s.do(http.MethodGet, budgetPath, nil, token)
	var detail models.Budget
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&detail))
	s.Require().Len(detail.Expenses, 1)
	expense := detail.Expenses[0]
	s.Equal("250.5", expense.Amount.String())

	expensePath := fmt.Sprintf("%s/expenses/%d", budgetPath, expense.ID)
	rec = s.do(http.MethodPut, expensePath, map[string]string{"name": "Hostel", "amount": "100"}, token)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, expensePath, nil, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	var updated models.Expense
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&updated))
	s.Equal("Hostel", updated.Name)

	rec = s.do(http.MethodPut, budgetPath, map[string]string{"name": "Trip", "amount": "2000"}, token)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("budget updated", s.message(rec))

	rec = s.do(http.MethodDelete, budgetPath, nil, token)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, budgetPath, nil, token)
	s.Equal(http.StatusNotFound, rec.Code)

	_, err := s.store.GetExpenseByID(context.Background(), expense.ID)
	s.Error(err)
}

func (s *RouterSuite) TestBudgets_OwnershipEnforced() {
	owner := s.login("owner@test.com")
	intruder := s.login("intruder@test.com")
	budget := s.createBudget(owner, "Vacation", "1000")
	budgetPath := fmt.Sprintf("/api/budgets/%d", budget.ID)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		rec := s.do(method, budgetPath, map[string]string{"name": "Mine", "amount": "1"}, intruder)
		s.Equal(http.StatusUnauthorized, rec.Code, method)
	}
	rec := s.do(http.MethodPost, budgetPath+"/expenses", map[string]string{"name": "x", "amount": "1"}, intruder)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/budgets", nil, intruder)
	var budgets []models.Budget
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&budgets))
	s.Empty(budgets)
}

func (s *RouterSuite) TestExpense_WrongBudget() {
	token := s.login("test@test.com")
	first := s.createBudget(token, "First", "100")
	second := s.createBudget(token, "Second", "100")

	rec := s.do(http.MethodPost, fmt.Sprintf("/api/budgets/%d/expenses", first.ID), map[string]string{"name": "x", "amount": "1"}, token)
	s.Require().Equal(http.StatusCreated, rec.Code)
	expenses, err := s.store.ListExpensesByBudget(context.Background(), first.ID)
	s.Require().NoError(err)
	s.Require().Len(expenses, 1)

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/budgets/%d/expenses/%d", second.ID, expenses[0].ID), nil, token)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("expense not found", s.message(rec))
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}
