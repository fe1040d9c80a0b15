package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/GregMSThompson/expense-tracker/internal/dto"
	"github.com/GregMSThompson/expense-tracker/internal/errs"
	"github.com/GregMSThompson/expense-tracker/internal/models"
	"github.com/GregMSThompson/expense-tracker/internal/schedule"
)

const recurringColumns = `id, user_id, title, amount::text, category, transaction_type, frequency,
	start_date::text, COALESCE(end_date::text, ''), next_due_date::text,
	COALESCE(last_generated_date::text, ''), is_active, created_at, updated_at`

type RecurringStore struct {
	db *DB
}

func NewRecurringStore(db *DB) *RecurringStore {
	return &RecurringStore{db: db}
}

func (s *RecurringStore) Create(ctx context.Context, uid string, r *models.RecurringTransaction) error {
	_, err := s.db.Pool.Exec(ctx,
		`INSERT INTO recurring_transactions (id, user_id, title, amount, category, transaction_type, frequency,
		 start_date, end_date, next_due_date, last_generated_date, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8::date, $9::date, $10::date, $11::date, $12, $13, $14)`,
		r.ID, uid, r.Title, r.Amount.StringFixed(2), r.Category, string(r.TransactionType), string(r.Frequency),
		r.StartDate, nullDate(r.EndDate), r.NextDueDate, nullDate(r.LastGeneratedDate), r.IsActive, r.CreatedAt, r.UpdatedAt,
	)
	return mapError(err, "create", "recurring transaction")
}

func (s *RecurringStore) Get(ctx context.Context, uid, id string) (*models.RecurringTransaction, error) {
	row := s.db.Pool.QueryRow(ctx,
		`SELECT `+recurringColumns+` FROM recurring_transactions WHERE id = $1 AND user_id = $2`,
		id, uid,
	)
	r, err := scanRecurring(row)
	if err != nil {
		return nil, mapError(err, "read", "recurring transaction")
	}
	return r, nil
}

func (s *RecurringStore) List(ctx context.Context, uid string, q dto.RecurringQuery) ([]*models.RecurringTransaction, error) {
	sql := `SELECT ` + recurringColumns + ` FROM recurring_transactions WHERE user_id = $1`
	args := []any{uid}
	if q.Active != nil {
		sql += ` AND is_active = $2`
		args = append(args, *q.Active)
	}
	sql += ` ORDER BY next_due_date, id`
	return s.query(ctx, sql, args...)
}

// Update rewrites the row while updated_at still equals version. Claims bump
// updated_at, so an edit based on a stale read cannot restore an old cursor.
func (s *RecurringStore) Update(ctx context.Context, uid string, r *models.RecurringTransaction, version time.Time) error {
	tag, err := s.db.Pool.Exec(ctx,
		`UPDATE recurring_transactions SET title = $1, amount = $2::numeric, category = $3, transaction_type = $4,
		 frequency = $5, start_date = $6::date, end_date = $7::date, next_due_date = $8::date, is_active = $9, updated_at = $10
		 WHERE id = $11 AND user_id = $12 AND updated_at = $13`,
		r.Title, r.Amount.StringFixed(2), r.Category, string(r.TransactionType), string(r.Frequency),
		r.StartDate, nullDate(r.EndDate), r.NextDueDate, r.IsActive, r.UpdatedAt, r.ID, uid, version,
	)
	if err != nil {
		return mapError(err, "update", "recurring transaction")
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = s.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM recurring_transactions WHERE id = $1 AND user_id = $2)`,
		r.ID, uid,
	).Scan(&exists)
	if err != nil {
		return mapError(err, "update", "recurring transaction")
	}
	if !exists {
		return errs.NewNotFoundError("recurring transaction not found")
	}
	return errs.NewConflictError("recurring transaction was modified, reload and retry")
}

func (s *RecurringStore) Delete(ctx context.Context, uid, id string) error {
	tag, err := s.db.Pool.Exec(ctx,
		`DELETE FROM recurring_transactions WHERE id = $1 AND user_id = $2`,
		id, uid,
	)
	if err != nil {
		return mapError(err, "delete", "recurring transaction")
	}
	if tag.RowsAffected() == 0 {
		return errs.NewNotFoundError("recurring transaction not found")
	}
	return nil
}

func (s *RecurringStore) ListDue(ctx context.Context, today string) ([]*models.RecurringTransaction, error) {
	return s.query(ctx,
		`SELECT `+recurringColumns+` FROM recurring_transactions
		 WHERE is_active AND next_due_date <= $1::date
		 ORDER BY next_due_date, id`,
		today,
	)
}

func (s *RecurringStore) ListUpcoming(ctx context.Context, uid, from, to string) ([]*models.RecurringTransaction, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + recurringColumns + ` FROM recurring_transactions
		 WHERE is_active AND next_due_date BETWEEN $1::date AND $2::date`)
	args := []any{from, to}
	if uid != "" {
		sb.WriteString(` AND user_id = $3`)
		args = append(args, uid)
	}
	sb.WriteString(` ORDER BY next_due_date, id`)
	return s.query(ctx, sb.String(), args...)
}

// ClaimOccurrence advances the cursor and inserts the generated transaction in
// a single statement. The UPDATE only matches while the cursor still equals the
// occurrence, and the unique index on (recurring_id, occurrence_date) rejects a
// duplicate occurrence, so a lost race affects no rows or raises 23505.
func (s *RecurringStore) ClaimOccurrence(ctx context.Context, claim dto.OccurrenceClaim) error {
	rec := claim.Recurring
	var (
		tag pgconn.CommandTag
		err error
	)

	if claim.Transaction == nil {
		tag, err = s.db.Pool.Exec(ctx,
			`UPDATE recurring_transactions
			 SET next_due_date = $1::date, is_active = NOT $2, updated_at = $3
			 WHERE id = $4 AND user_id = $5 AND next_due_date = $6::date AND is_active`,
			claim.NextDueDate, claim.Deactivate, claim.Now, rec.ID, rec.UserID, claim.OccurrenceDate,
		)
	} else {
		tx := claim.Transaction
		tag, err = s.db.Pool.Exec(ctx,
			`WITH claimed AS (
				UPDATE recurring_transactions
				SET next_due_date = $1::date, last_generated_date = $6::date, is_active = NOT $2, updated_at = $3
				WHERE id = $4 AND user_id = $5 AND next_due_date = $6::date AND is_active
				RETURNING id, user_id
			)
			INSERT INTO transactions (id, user_id, recurring_id, title, amount, category, transaction_date,
				occurrence_date, transaction_type, created_at, updated_at)
			SELECT $7, user_id, id, $8, $9::numeric, $10, $6::date, $6::date, $11, $3, $3 FROM claimed`,
			claim.NextDueDate, claim.Deactivate, claim.Now, rec.ID, rec.UserID, claim.OccurrenceDate,
			tx.TransactionID, tx.Title, tx.Amount.StringFixed(2), tx.Category, string(tx.TransactionType),
		)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return errs.NewConflictError("occurrence " + claim.OccurrenceDate + " already claimed")
		}
		return errs.NewDatabaseError("claim", "failed to claim occurrence", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NewConflictError("occurrence " + claim.OccurrenceDate + " already claimed")
	}
	return nil
}

func (s *RecurringStore) query(ctx context.Context, sql string, args ...any) ([]*models.RecurringTransaction, error) {
	rows, err := s.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err, "read", "recurring transactions")
	}
	defer rows.Close()

	out := []*models.RecurringTransaction{}
	for rows.Next() {
		r, err := scanRecurring(rows)
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to scan recurring transaction", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list recurring transactions", err)
	}
	return out, nil
}

func scanRecurring(row rowScanner) (*models.RecurringTransaction, error) {
	var (
		r                    models.RecurringTransaction
		amount, txType, freq string
	)
	err := row.Scan(&r.ID, &r.UserID, &r.Title, &amount, &r.Category, &txType, &freq,
		&r.StartDate, &r.EndDate, &r.NextDueDate, &r.LastGeneratedDate, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if r.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}
	r.TransactionType = models.TransactionType(txType)
	r.Frequency = schedule.Frequency(freq)
	return &r, nil
}
