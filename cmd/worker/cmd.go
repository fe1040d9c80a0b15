package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/expense-tracker/internal/bootstrap"
	"github.com/GregMSThompson/expense-tracker/internal/config"
	"github.com/GregMSThompson/expense-tracker/internal/handlers"
	"github.com/GregMSThompson/expense-tracker/internal/response"
	"github.com/GregMSThompson/expense-tracker/internal/scheduler"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// services
	stores := bs.Stores
	nfserv := services.NewNotifierService(stores.Recurring, stores.Notifications, stores.Users, bs.Location, cfg.NotifyWindowDays)
	gnserv := services.NewGenerationService(stores.Recurring, nfserv, bs.Location, cfg.MaxCatchUp)

	sched := scheduler.New(bs.Log, gnserv, nfserv, cfg.SchedulerInterval, cfg.CycleTimeout)

	// SIGUSR1 forces an immediate run
	trigger := make(chan os.Signal, 1)
	signal.Notify(trigger, syscall.SIGUSR1)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-trigger:
				sched.Notify()
			}
		}
	}()

	// Cloud Run needs a listening port
	r := chi.NewRouter()
	r.Get("/healthz", handlers.Healthz(response.New(bs.Log)))
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			bs.Log.Error("health server failed", "error", err)
			stop()
		}
	}()

	sched.Start(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		bs.Log.Warn("health server shutdown failed", "error", err)
	}
}
