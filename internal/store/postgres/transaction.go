package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/GregMSThompson/expense-tracker/internal/dto"
	"github.com/GregMSThompson/expense-tracker/internal/errs"
	"github.com/GregMSThompson/expense-tracker/internal/models"
)

const transactionColumns = `id, user_id, COALESCE(recurring_id, ''), title, amount::text, category,
	transaction_date::text, transaction_type, created_at, updated_at`

type TransactionStore struct {
	db *DB
}

func NewTransactionStore(db *DB) *TransactionStore {
	return &TransactionStore{db: db}
}

func (s *TransactionStore) Create(ctx context.Context, uid string, tx *models.Transaction) error {
	var recurringID *string
	if tx.RecurringID != "" {
		recurringID = &tx.RecurringID
	}
	_, err := s.db.Pool.Exec(ctx,
		`INSERT INTO transactions (id, user_id, recurring_id, title, amount, category, transaction_date,
		 transaction_type, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5::numeric, $6, $7::date, $8, $9, $10)`,
		tx.TransactionID, uid, recurringID, tx.Title, tx.Amount.StringFixed(2), tx.Category,
		tx.TransactionDate, string(tx.TransactionType), tx.CreatedAt, tx.UpdatedAt,
	)
	return mapError(err, "create", "transaction")
}

func (s *TransactionStore) Get(ctx context.Context, uid, id string) (*models.Transaction, error) {
	row := s.db.Pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2`,
		id, uid,
	)
	tx, err := scanTransaction(row)
	if err != nil {
		return nil, mapError(err, "read", "transaction")
	}
	return tx, nil
}

func (s *TransactionStore) Update(ctx context.Context, uid string, tx *models.Transaction) error {
	tag, err := s.db.Pool.Exec(ctx,
		`UPDATE transactions SET title = $1, amount = $2::numeric, category = $3, transaction_date = $4::date,
		 transaction_type = $5, updated_at = $6
		 WHERE id = $7 AND user_id = $8`,
		tx.Title, tx.Amount.StringFixed(2), tx.Category, tx.TransactionDate, string(tx.TransactionType),
		tx.UpdatedAt, tx.TransactionID, uid,
	)
	if err != nil {
		return mapError(err, "update", "transaction")
	}
	if tag.RowsAffected() == 0 {
		return errs.NewNotFoundError("transaction not found")
	}
	return nil
}

func (s *TransactionStore) Delete(ctx context.Context, uid, id string) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, uid)
	if err != nil {
		return mapError(err, "delete", "transaction")
	}
	if tag.RowsAffected() == 0 {
		return errs.NewNotFoundError("transaction not found")
	}
	return nil
}

// Query streams matching rows on txCh. Both channels are closed at the end of
// the stream; at most one error is sent.
func (s *TransactionStore) Query(ctx context.Context, uid string, q dto.TransactionQuery) (<-chan *models.Transaction, <-chan error) {
	txCh := make(chan *models.Transaction)
	errCh := make(chan error, 1)

	go func() {
		defer close(txCh)
		defer close(errCh)

		sql, args := buildTransactionQuery(uid, q)
		rows, err := s.db.Pool.Query(ctx, sql, args...)
		if err != nil {
			errCh <- errs.NewDatabaseError("read", "failed to query transactions", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			tx, err := scanTransaction(rows)
			if err != nil {
				errCh <- errs.NewDatabaseError("read", "failed to scan transaction", err)
				return
			}
			select {
			case txCh <- tx:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
		if err := rows.Err(); err != nil {
			errCh <- errs.NewDatabaseError("read", "failed to query transactions", err)
		}
	}()

	return txCh, errCh
}

func buildTransactionQuery(uid string, q dto.TransactionQuery) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1`)
	args := []any{uid}

	add := func(clause string, v any) {
		args = append(args, v)
		fmt.Fprintf(&sb, " AND "+clause, len(args))
	}
	if q.Type != nil {
		add("transaction_type = $%d", *q.Type)
	}
	if q.RecurringID != nil {
		add("recurring_id = $%d", *q.RecurringID)
	}
	if q.Category != nil {
		add("category = $%d", *q.Category)
	}
	if q.DateFrom != nil {
		add("transaction_date >= $%d::date", *q.DateFrom)
	}
	if q.DateTo != nil {
		add("transaction_date <= $%d::date", *q.DateTo)
	}

	if q.Desc {
		sb.WriteString(" ORDER BY transaction_date DESC, id DESC")
	} else {
		sb.WriteString(" ORDER BY transaction_date, id")
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	return sb.String(), args
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		tx             models.Transaction
		amount, txType string
	)
	err := row.Scan(&tx.TransactionID, &tx.UserID, &tx.RecurringID, &tx.Title, &amount, &tx.Category,
		&tx.TransactionDate, &txType, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}
	tx.TransactionType = models.TransactionType(txType)
	return &tx, nil
}
