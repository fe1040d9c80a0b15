package router

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/GregMSThompson/expense-tracker/internal/handlers"
	"github.com/GregMSThompson/expense-tracker/internal/middleware"
)

func NewRouter(deps *handlers.Deps) chi.Router {
	r := chi.NewRouter()

	lm := middleware.NewLoggerMiddleware(deps.Log)
	r.Use(chimiddleware.RequestID)
	r.Use(lm.LoggerMiddleware)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", handlers.Healthz(deps.ResponseHandler))

	// cron routes carry their own shared-secret check
	crh := handlers.NewCronHandlers(deps)
	r.Mount("/cron", crh.CronRoutes())

	r.Group(func(r chi.Router) {
		mw := middleware.NewMiddleware(deps.Firebase)
		r.Use(mw.FirebaseAuth)

		ush := handlers.NewUserHandlers(deps)
		rch := handlers.NewRecurringHandlers(deps)
		txh := handlers.NewTransactionHandlers(deps)
		nth := handlers.NewNotificationHandlers(deps)

		r.Mount("/users", ush.UserRoutes())
		r.Mount("/recurring", rch.RecurringRoutes())
		r.Mount("/transactions", txh.TransactionRoutes())
		r.Mount("/notifications", nth.NotificationRoutes())
	})
	return r
}
