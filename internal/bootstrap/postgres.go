package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/GregMSThompson/expense-tracker/internal/store/postgres"
)

// InitPostgres connects and applies pending migrations.
func InitPostgres(ctx context.Context, databaseURL string) (*postgres.DB, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASEURL is required for the postgres store")
	}
	db, err := postgres.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}
