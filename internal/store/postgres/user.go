package postgres

import (
	"context"

	"github.com/GregMSThompson/expense-tracker/internal/errs"
	"github.com/GregMSThompson/expense-tracker/internal/models"
)

type UserStore struct {
	db *DB
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.db.Pool.Exec(ctx,
		`INSERT INTO users (uid, email, first_name, last_name, currency, notify_days_before, mute_generated,
		 created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.UID, user.Email, user.FirstName, user.LastName, user.Preferences.Currency,
		user.Preferences.NotifyDaysBefore, user.Preferences.MuteGenerated, user.CreatedAt, user.UpdatedAt,
	)
	return mapError(err, "create", "user")
}

func (s *UserStore) UpdateUser(ctx context.Context, user *models.User) error {
	tag, err := s.db.Pool.Exec(ctx,
		`UPDATE users SET email = $1, first_name = $2, last_name = $3, currency = $4,
		 notify_days_before = $5, mute_generated = $6, updated_at = $7
		 WHERE uid = $8`,
		user.Email, user.FirstName, user.LastName, user.Preferences.Currency,
		user.Preferences.NotifyDaysBefore, user.Preferences.MuteGenerated, user.UpdatedAt, user.UID,
	)
	if err != nil {
		return mapError(err, "update", "user")
	}
	if tag.RowsAffected() == 0 {
		return errs.NewNotFoundError("user not found")
	}
	return nil
}

func (s *UserStore) GetUser(ctx context.Context, uid string) (*models.User, error) {
	var u models.User
	err := s.db.Pool.QueryRow(ctx,
		`SELECT uid, email, first_name, last_name, currency, notify_days_before, mute_generated, created_at, updated_at
		 FROM users WHERE uid = $1`,
		uid,
	).Scan(&u.UID, &u.Email, &u.FirstName, &u.LastName, &u.Preferences.Currency,
		&u.Preferences.NotifyDaysBefore, &u.Preferences.MuteGenerated, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "read", "user")
	}
	return &u, nil
}
