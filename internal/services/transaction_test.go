package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GregMSThompson/expense-tracker/internal/dto"
	"github.com/GregMSThompson/expense-tracker/internal/errs"
	"github.com/GregMSThompson/expense-tracker/internal/models"
	"github.com/GregMSThompson/expense-tracker/pkg/helpers"
)

// fakeTransactionStore streams its fixtures the way the Firestore store does.
type fakeTransactionStore struct {
	txs       map[string]*models.Transaction
	order     []string
	queryErr  error
	lastUID   string
	lastQuery dto.TransactionQuery
	updates   int
}

func newFakeTransactionStore(txs ...*models.Transaction) *fakeTransactionStore {
	s := &fakeTransactionStore{txs: map[string]*models.Transaction{}}
	for _, tx := range txs {
		s.txs[tx.UserID+"/"+tx.TransactionID] = tx
		s.order = append(s.order, tx.UserID+"/"+tx.TransactionID)
	}
	return s
}

func (s *fakeTransactionStore) Create(_ context.Context, uid string, tx *models.Transaction) error {
	c := *tx
	s.txs[uid+"/"+tx.TransactionID] = &c
	s.order = append(s.order, uid+"/"+tx.TransactionID)
	return nil
}

func (s *fakeTransactionStore) Get(_ context.Context, uid, id string) (*models.Transaction, error) {
	tx, ok := s.txs[uid+"/"+id]
	if !ok {
		return nil, errs.NewNotFoundError("transaction not found")
	}
	c := *tx
	return &c, nil
}

func (s *fakeTransactionStore) Update(_ context.Context, uid string, tx *models.Transaction) error {
	s.updates++
	c := *tx
	s.txs[uid+"/"+tx.TransactionID] = &c
	return nil
}

func (s *fakeTransactionStore) Delete(_ context.Context, uid, id string) error {
	delete(s.txs, uid+"/"+id)
	return nil
}

func (s *fakeTransactionStore) Query(_ context.Context, uid string, q dto.TransactionQuery) (<-chan *models.Transaction, <-chan error) {
	s.lastUID = uid
	s.lastQuery = q
	txCh := make(chan *models.Transaction)
	errCh := make(chan error, 1)
	go func() {
		defer close(txCh)
		defer close(errCh)
		for _, key := range s.order {
			tx, ok := s.txs[key]
			if !ok || tx.UserID != uid {
				continue
			}
			txCh <- tx
		}
		if s.queryErr != nil {
			errCh <- s.queryErr
		}
	}()
	return txCh, errCh
}

func newTestTransactionService(store *fakeTransactionStore) *transactionService {
	svc := NewTransactionService(store)
	svc.newID = func() string { return "tx-1" }
	svc.clockNow = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestTransactionServiceCreate(t *testing.T) {
	store := newFakeTransactionStore()
	svc := newTestTransactionService(store)

	got, err := svc.Create(helpers.TestCtx(), "user-1", dto.CreateTransactionRequest{
		Title:           "Groceries",
		Amount:          decimal.RequireFromString("42.199"),
		Category:        "food",
		TransactionDate: "2024-02-28",
		TransactionType: "expense",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.TransactionID != "tx-1" || got.RecurringID != "" {
		t.Fatalf("unexpected ids: %+v", got)
	}
	if !got.Amount.Equal(decimal.RequireFromString("42.2")) {
		t.Fatalf("amount = %s, want 42.20", got.Amount)
	}
	if _, ok := store.txs["user-1/tx-1"]; !ok {
		t.Fatalf("transaction not stored")
	}
}

func TestTransactionServiceCreateValidation(t *testing.T) {
	svc := newTestTransactionService(newFakeTransactionStore())

	_, err := svc.Create(helpers.TestCtx(), "user-1", dto.CreateTransactionRequest{
		Title:           "Groceries",
		Amount:          decimal.RequireFromString("10"),
		TransactionDate: "2024-02-30",
		TransactionType: "expense",
	})
	var vErr *errs.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTransactionServiceUpdateGenerated(t *testing.T) {
	store := newFakeTransactionStore(&models.Transaction{
		TransactionID:   "rec-1_2024-01-15",
		UserID:          "user-1",
		RecurringID:     "rec-1",
		Title:           "Rent",
		Amount:          decimal.NewFromInt(1200),
		TransactionDate: "2024-01-15",
		TransactionType: models.TransactionTypeExpense,
	})
	svc := newTestTransactionService(store)

	got, err := svc.Update(helpers.TestCtx(), "user-1", "rec-1_2024-01-15", dto.UpdateTransactionRequest{
		Amount: helpers.Ptr(decimal.NewFromInt(1250)),
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if !got.Amount.Equal(decimal.NewFromInt(1250)) {
		t.Fatalf("amount not updated: %s", got.Amount)
	}
	if got.RecurringID != "rec-1" {
		t.Fatalf("recurring link lost: %+v", got)
	}
	if store.updates != 1 {
		t.Fatalf("Update called %d times, want 1", store.updates)
	}
}

func TestTransactionServiceList(t *testing.T) {
	store := newFakeTransactionStore(
		&models.Transaction{TransactionID: "a", UserID: "user-1"},
		&models.Transaction{TransactionID: "b", UserID: "user-1"},
		&models.Transaction{TransactionID: "c", UserID: "user-2"},
	)
	svc := newTestTransactionService(store)

	got, err := svc.List(helpers.TestCtx(), "user-1", dto.TransactionQuery{Type: helpers.Ptr(" Income ")})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List returned %d, want 2", len(got))
	}
	if store.lastQuery.Limit != defaultTransactionLimit {
		t.Fatalf("limit = %d, want default", store.lastQuery.Limit)
	}
	if helpers.Value(store.lastQuery.Type) != "income" {
		t.Fatalf("type not normalized: %q", helpers.Value(store.lastQuery.Type))
	}
}

func TestTransactionServiceListValidation(t *testing.T) {
	svc := newTestTransactionService(newFakeTransactionStore())

	cases := []dto.TransactionQuery{
		{Limit: 1000},
		{DateFrom: helpers.Ptr("2024-03-01"), DateTo: helpers.Ptr("2024-02-01")},
		{DateFrom: helpers.Ptr("March")},
		{Type: helpers.Ptr("transfer")},
	}
	for _, q := range cases {
		_, err := svc.List(helpers.TestCtx(), "user-1", q)
		var vErr *errs.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("query %+v: expected validation error, got %v", q, err)
		}
	}
}

func TestTransactionServiceListStreamError(t *testing.T) {
	store := newFakeTransactionStore(&models.Transaction{TransactionID: "a", UserID: "user-1"})
	store.queryErr = errs.NewDatabaseError("read", "failed to query transactions", errors.New("down"))
	svc := newTestTransactionService(store)

	if _, err := svc.List(helpers.TestCtx(), "user-1", dto.TransactionQuery{}); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestTransactionServiceDeleteMissing(t *testing.T) {
	svc := newTestTransactionService(newFakeTransactionStore())

	err := svc.Delete(helpers.TestCtx(), "user-1", "missing")
	var nfErr *errs.NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("expected not found, got %v", err)
	}
}
