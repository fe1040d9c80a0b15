package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/GregMSThompson/expense-tracker/internal/bootstrap"
	"github.com/GregMSThompson/expense-tracker/internal/config"
	"github.com/GregMSThompson/expense-tracker/internal/handlers"
	"github.com/GregMSThompson/expense-tracker/internal/response"
	"github.com/GregMSThompson/expense-tracker/internal/router"
	"github.com/GregMSThompson/expense-tracker/internal/services"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	// stores
	stores := bs.Stores

	// services
	userv := services.NewUserService(stores.Users)
	rcserv := services.NewRecurringService(stores.Recurring)
	txserv := services.NewTransactionService(stores.Transactions)
	anserv := services.NewAnalyticsService(stores.Transactions)
	ntserv := services.NewNotificationService(stores.Notifications)
	nfserv := services.NewNotifierService(stores.Recurring, stores.Notifications, stores.Users, bs.Location, cfg.NotifyWindowDays)
	gnserv := services.NewGenerationService(stores.Recurring, nfserv, bs.Location, cfg.MaxCatchUp)

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.Firebase = bs.Firebase
	deps.UserSvc = userv
	deps.RecurringSvc = rcserv
	deps.TransactionSvc = txserv
	deps.AnalyticsSvc = anserv
	deps.NotificationSvc = ntserv
	deps.NotifierSvc = nfserv
	deps.GenerationSvc = gnserv
	deps.CronSecret = bs.CronSecret
	deps.CycleTimeout = cfg.CycleTimeout

	// router
	r := router.NewRouter(deps)
	bs.Log.Info("api listening", "port", cfg.Port)
	err = http.ListenAndServe(":"+cfg.Port, r)
	exitOnError("server start failed", err, bs.Log)
}
