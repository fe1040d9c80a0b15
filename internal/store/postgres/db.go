// Package postgres is the relational backend for the stores, built on pgx.
// Civil dates travel as YYYY-MM-DD text and amounts as numeric text so no
// precision is lost on either side.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GregMSThompson/expense-tracker/internal/store"
)

type DB struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

// NewSet wires every Postgres store behind the store interfaces.
func NewSet(db *DB) *store.Set {
	return &store.Set{
		Recurring:     NewRecurringStore(db),
		Transactions:  NewTransactionStore(db),
		Notifications: NewNotificationStore(db),
		Users:         NewUserStore(db),
	}
}
