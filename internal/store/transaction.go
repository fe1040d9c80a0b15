package store

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/GregMSThompson/expense-tracker/internal/dto"
	"github.com/GregMSThompson/expense-tracker/internal/errs"
	"github.com/GregMSThompson/expense-tracker/internal/models"
)

type transactionStore struct {
	client *firestore.Client
}

func NewTransactionStore(client *firestore.Client) *transactionStore {
	return &transactionStore{client: client}
}

func (s *transactionStore) txCollection(uid string) *firestore.CollectionRef {
	return userCollection(s.client, uid, transactionsCollection)
}

func (s *transactionStore) Create(ctx context.Context, uid string, tx *models.Transaction) error {
	_, err := s.txCollection(uid).Doc(tx.TransactionID).Create(ctx, newTransactionDoc(tx))
	return mapError(err, "create", "transaction")
}

func (s *transactionStore) Get(ctx context.Context, uid, id string) (*models.Transaction, error) {
	snap, err := s.txCollection(uid).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapError(err, "read", "transaction")
	}
	var doc transactionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse transaction data", err)
	}
	return doc.model()
}

func (s *transactionStore) Update(ctx context.Context, uid string, tx *models.Transaction) error {
	doc := newTransactionDoc(tx)
	_, err := s.txCollection(uid).Doc(tx.TransactionID).Update(ctx, []firestore.Update{
		{Path: "title", Value: doc.Title},
		{Path: "amount", Value: doc.Amount},
		{Path: "category", Value: doc.Category},
		{Path: "transactionDate", Value: doc.TransactionDate},
		{Path: "transactionType", Value: doc.TransactionType},
		{Path: "updatedAt", Value: doc.UpdatedAt},
	})
	return mapError(err, "update", "transaction")
}

func (s *transactionStore) Delete(ctx context.Context, uid, id string) error {
	_, err := s.txCollection(uid).Doc(id).Delete(ctx)
	return mapError(err, "delete", "transaction")
}

// Query streams matching transactions ordered by transactionDate. Both channels
// are closed when the stream ends; at most one error is sent.
func (s *transactionStore) Query(ctx context.Context, uid string, q dto.TransactionQuery) (<-chan *models.Transaction, <-chan error) {
	txCh := make(chan *models.Transaction)
	errCh := make(chan error, 1)

	go func() {
		defer close(txCh)
		defer close(errCh)

		iter := s.buildQuery(uid, q).Documents(ctx)
		defer iter.Stop()

		for {
			snap, err := iter.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				errCh <- errs.NewDatabaseError("read", "failed to query transactions", err)
				return
			}
			var doc transactionDoc
			if err := snap.DataTo(&doc); err != nil {
				errCh <- errs.NewDatabaseError("read", "failed to parse transaction data", err)
				return
			}
			tx, err := doc.model()
			if err != nil {
				errCh <- err
				return
			}
			select {
			case txCh <- tx:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
	}()

	return txCh, errCh
}

func (s *transactionStore) buildQuery(uid string, q dto.TransactionQuery) firestore.Query {
	query := s.txCollection(uid).Query
	if q.Type != nil {
		query = query.Where("transactionType", "==", *q.Type)
	}
	if q.RecurringID != nil {
		query = query.Where("recurringId", "==", *q.RecurringID)
	}
	if q.Category != nil {
		query = query.Where("category", "==", *q.Category)
	}
	if q.DateFrom != nil {
		query = query.Where("transactionDate", ">=", *q.DateFrom)
	}
	if q.DateTo != nil {
		query = query.Where("transactionDate", "<=", *q.DateTo)
	}

	dir := firestore.Asc
	if q.Desc {
		dir = firestore.Desc
	}
	query = query.OrderBy("transactionDate", dir)
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	return query
}
