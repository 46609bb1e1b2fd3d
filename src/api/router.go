package api

import (
	"cashtrackr-server/src/handlers"
	"cashtrackr-server/src/middleware"
	"cashtrackr-server/src/services"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	db "cashtrackr-server/src/db/sql"
)

// Store is everything the HTTP layer reads and writes.
type Store interface {
	services.AccountStore
	middleware.AccountLookup
	middleware.BudgetFinder
	middleware.ExpenseFinder
	handlers.BudgetStore
	handlers.ExpenseStore
}

var _ Store = (*db.Store)(nil)

type Deps struct {
	Store          Store
	Accounts       *services.AccountService
	Tokens         middleware.TokenVerifier
	AllowedOrigins []string
}

func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORSMiddleware(deps.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	authenticate := middleware.Authenticate(deps.Tokens, deps.Store)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handlers.Register(deps.Accounts))
			r.Post("/confirm-account", handlers.ConfirmAccount(deps.Accounts))
			r.Post("/login", handlers.Login(deps.Accounts))
			r.Post("/forgot-password", handlers.ForgotPassword(deps.Accounts))
			r.Post("/validate-token", handlers.ValidateToken(deps.Accounts))
			r.Post("/reset-password/{token}", handlers.ResetPassword(deps.Accounts))

			// Protected routes
			r.With(authenticate).Group(func(r chi.Router) {
				r.Get("/user", handlers.GetUser())
				r.Put("/user", handlers.UpdateProfile(deps.Accounts))
				r.Post("/user/change-password", handlers.ChangePassword(deps.Accounts))
				r.Post("/user/check-password", handlers.CheckPassword(deps.Accounts))
			})
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/", handlers.GetAllBudgets(deps.Store))
			r.Post("/", handlers.CreateBudget(deps.Store))

			r.Route("/{budgetId}", func(r chi.Router) {
				r.Use(middleware.ValidateBudgetID)
				r.Use(middleware.BudgetExists(deps.Store))
				r.Use(middleware.HasAccess)

				r.Get("/", handlers.GetBudget(deps.Store))
				r.Put("/", handlers.UpdateBudget(deps.Store))
				r.Delete("/", handlers.DeleteBudget(deps.Store))

				r.Route("/expenses", func(r chi.Router) {
					r.Post("/", handlers.CreateExpense(deps.Store))

					r.Route("/{expenseId}", func(r chi.Router) {
						r.Use(middleware.ValidateExpenseID)
						r.Use(middleware.ExpenseExists(deps.Store))

						r.Get("/", handlers.GetExpense())
						r.Put("/", handlers.UpdateExpense(deps.Store))
						r.Delete("/", handlers.DeleteExpense(deps.Store))
					})
				})
			})
		})
	})

	return r
}
