package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"firebase.google.com/go/v4/auth"

	"github.com/GregMSThompson/expense-tracker/internal/config"
	"github.com/GregMSThompson/expense-tracker/internal/store"
	"github.com/GregMSThompson/expense-tracker/internal/store/postgres"
	"github.com/GregMSThompson/expense-tracker/pkg/logger"
)

type Bootstrap struct {
	Log        *slog.Logger
	Firestore  *firestore.Client
	Postgres   *postgres.DB
	Firebase   *auth.Client
	Stores     *store.Set
	Location   *time.Location
	CronSecret string
}

func Run(cfg *config.Config) (*Bootstrap, error) {
	var err error
	applicationCtx := context.Background()
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.NewCloudRunHandler)
	slog.SetDefault(bs.Log)

	bs.Location, err = cfg.Location()
	if err != nil {
		return bs, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.TimeZone, err)
	}

	switch cfg.StoreDriver {
	case config.StoreFirestore:
		bs.Firestore, err = InitFirestore(applicationCtx, cfg.ProjectID)
		if err != nil {
			return bs, err
		}
		bs.Stores = store.NewFirestoreSet(bs.Firestore)
	case config.StorePostgres:
		bs.Postgres, err = InitPostgres(applicationCtx, cfg.DatabaseURL)
		if err != nil {
			return bs, err
		}
		bs.Stores = postgres.NewSet(bs.Postgres)
	default:
		return bs, fmt.Errorf("unknown STOREDRIVER %q", cfg.StoreDriver)
	}

	bs.Firebase, err = InitFirebase(applicationCtx, cfg.ProjectID)
	if err != nil {
		return bs, err
	}

	bs.CronSecret, err = ResolveCronSecret(applicationCtx, cfg)
	if err != nil {
		return bs, err
	}
	if bs.CronSecret == "" {
		bs.Log.Warn("cron trigger has no shared secret configured")
	}

	bs.Log.Info("bootstrap completed", "store", cfg.StoreDriver, "timezone", bs.Location.String())
	return bs, nil
}

func (bs *Bootstrap) Close() {
	if bs.Firestore != nil {
		if err := bs.Firestore.Close(); err != nil {
			bs.Log.Warn("failed to close firestore client", "error", err)
		}
	}
	if bs.Postgres != nil {
		bs.Postgres.Close()
	}
}
