package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/expense-tracker/internal/dto"
	"github.com/GregMSThompson/expense-tracker/internal/errs"
	"github.com/GregMSThompson/expense-tracker/internal/models"
	"github.com/GregMSThompson/expense-tracker/internal/schedule"
	"github.com/GregMSThompson/expense-tracker/pkg/logger"
)

const (
	defaultTransactionLimit = 100
	maxTransactionLimit     = 500
)

type transactionTSStore interface {
	Create(ctx context.Context, uid string, tx *models.Transaction) error
	Get(ctx context.Context, uid, id string) (*models.Transaction, error)
	Update(ctx context.Context, uid string, tx *models.Transaction) error
	Delete(ctx context.Context, uid, id string) error
	Query(ctx context.Context, uid string, q dto.TransactionQuery) (<-chan *models.Transaction, <-chan error)
}

type transactionService struct {
	store    transactionTSStore
	clockNow func() time.Time
	newID    func() string
}

func NewTransactionService(store transactionTSStore) *transactionService {
	return &transactionService{
		store:    store,
		clockNow: time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

func (s *transactionService) List(ctx context.Context, uid string, q dto.TransactionQuery) ([]models.Transaction, error) {
	if err := requireUID(uid); err != nil {
		return nil, err
	}
	if err := validateTransactionQuery(&q); err != nil {
		return nil, err
	}

	txCh, errCh := s.store.Query(ctx, uid, q)
	txs := []models.Transaction{}
	if err := streamTransactions(txCh, errCh, func(tx *models.Transaction) error {
		txs = append(txs, *tx)
		return nil
	}); err != nil {
		return nil, err
	}
	return txs, nil
}

func (s *transactionService) Get(ctx context.Context, uid, id string) (*models.Transaction, error) {
	if err := requireUID(uid); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, uid, id)
}

func (s *transactionService) Create(ctx context.Context, uid string, req dto.CreateTransactionRequest) (*models.Transaction, error) {
	if err := requireUID(uid); err != nil {
		return nil, err
	}
	title, err := normalizeTitle(req.Title)
	if err != nil {
		return nil, err
	}
	category, err := normalizeCategory(req.Category)
	if err != nil {
		return nil, err
	}
	amount, err := normalizeAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	txType, err := parseTransactionType(req.TransactionType)
	if err != nil {
		return nil, err
	}
	date, err := parseDateField("transactionDate", req.TransactionDate)
	if err != nil {
		return nil, err
	}

	now := s.clockNow()
	tx := &models.Transaction{
		TransactionID:   s.newID(),
		UserID:          uid,
		Title:           title,
		Amount:          amount,
		Category:        category,
		TransactionDate: schedule.FormatDate(date),
		TransactionType: txType,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Create(ctx, uid, tx); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info("transaction created", "transaction_id", tx.TransactionID)
	return tx, nil
}

// Update edits a transaction. Generated transactions may be edited freely; the
// parent schedule is not touched.
func (s *transactionService) Update(ctx context.Context, uid, id string, req dto.UpdateTransactionRequest) (*models.Transaction, error) {
	if err := requireUID(uid); err != nil {
		return nil, err
	}
	tx, err := s.store.Get(ctx, uid, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if tx.Title, err = normalizeTitle(*req.Title); err != nil {
			return nil, err
		}
	}
	if req.Category != nil {
		if tx.Category, err = normalizeCategory(*req.Category); err != nil {
			return nil, err
		}
	}
	if req.Amount != nil {
		if tx.Amount, err = normalizeAmount(*req.Amount); err != nil {
			return nil, err
		}
	}
	if req.TransactionType != nil {
		if tx.TransactionType, err = parseTransactionType(*req.TransactionType); err != nil {
			return nil, err
		}
	}
	if req.TransactionDate != nil {
		date, err := parseDateField("transactionDate", *req.TransactionDate)
		if err != nil {
			return nil, err
		}
		tx.TransactionDate = schedule.FormatDate(date)
	}

	tx.UpdatedAt = s.clockNow()
	if err := s.store.Update(ctx, uid, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *transactionService) Delete(ctx context.Context, uid, id string) error {
	if err := requireUID(uid); err != nil {
		return err
	}
	if _, err := s.store.Get(ctx, uid, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, uid, id); err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.Info("transaction deleted", "transaction_id", id)
	return nil
}

func validateTransactionQuery(q *dto.TransactionQuery) error {
	if q.Limit == 0 {
		q.Limit = defaultTransactionLimit
	}
	if q.Limit < 0 || q.Limit > maxTransactionLimit {
		return errs.NewValidationError("limit must be between 1 and 500")
	}
	if err := validateDateRange(q.DateFrom, q.DateTo, q.Type); err != nil {
		return err
	}
	if q.Type != nil {
		t := strings.ToLower(strings.TrimSpace(*q.Type))
		q.Type = &t
	}
	return nil
}

func validateDateRange(from, to, txType *string) error {
	if from != nil {
		if _, err := parseDateField("from", *from); err != nil {
			return err
		}
	}
	if to != nil {
		if _, err := parseDateField("to", *to); err != nil {
			return err
		}
	}
	if from != nil && to != nil && *to < *from {
		return errs.NewValidationError("to must not be before from")
	}
	if txType != nil {
		if _, err := parseTransactionType(*txType); err != nil {
			return err
		}
	}
	return nil
}
