package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/expense-tracker/internal/dto"
	"github.com/GregMSThompson/expense-tracker/internal/errs"
	"github.com/GregMSThompson/expense-tracker/internal/models"
	"github.com/GregMSThompson/expense-tracker/pkg/logger"
)

var (
	errClaimLost     = errors.New("recurring cursor moved")
	errRecordChanged = errors.New("recurring transaction changed since read")
)

type recurringStore struct {
	client *firestore.Client
}

func NewRecurringStore(client *firestore.Client) *recurringStore {
	return &recurringStore{client: client}
}

func (s *recurringStore) collection(uid string) *firestore.CollectionRef {
	return userCollection(s.client, uid, recurringCollection)
}

func (s *recurringStore) Create(ctx context.Context, uid string, r *models.RecurringTransaction) error {
	_, err := s.collection(uid).Doc(r.ID).Create(ctx, newRecurringDoc(r))
	return mapError(err, "create", "recurring transaction")
}

func (s *recurringStore) Get(ctx context.Context, uid, id string) (*models.RecurringTransaction, error) {
	snap, err := s.collection(uid).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapError(err, "read", "recurring transaction")
	}
	var doc recurringDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse recurring transaction data", err)
	}
	return doc.model()
}

func (s *recurringStore) List(ctx context.Context, uid string, q dto.RecurringQuery) ([]*models.RecurringTransaction, error) {
	query := s.collection(uid).Query
	if q.Active != nil {
		query = query.Where("isActive", "==", *q.Active)
	}
	out, err := s.collect(ctx, query)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NextDueDate != out[j].NextDueDate {
			return out[i].NextDueDate < out[j].NextDueDate
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Update replaces the whole document so cleared fields (endDate) are persisted.
// The write is refused when a claim or another edit committed after version.
func (s *recurringStore) Update(ctx context.Context, uid string, r *models.RecurringTransaction, version time.Time) error {
	ref := s.collection(uid).Doc(r.ID)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var cur recurringDoc
		if err := snap.DataTo(&cur); err != nil {
			return err
		}
		if !cur.UpdatedAt.Equal(version) {
			return errRecordChanged
		}
		return tx.Set(ref, newRecurringDoc(r))
	})
	if errors.Is(err, errRecordChanged) {
		return errs.NewConflictError("recurring transaction was modified, reload and retry")
	}
	return mapError(err, "update", "recurring transaction")
}

func (s *recurringStore) Delete(ctx context.Context, uid, id string) error {
	_, err := s.collection(uid).Doc(id).Delete(ctx)
	return mapError(err, "delete", "recurring transaction")
}

// ListDue scans every user's schedules. It needs the (isActive, nextDueDate)
// collection group index provisioned in infra.
func (s *recurringStore) ListDue(ctx context.Context, today string) ([]*models.RecurringTransaction, error) {
	query := s.client.CollectionGroup(recurringCollection).
		Where("isActive", "==", true).
		Where("nextDueDate", "<=", today).
		OrderBy("nextDueDate", firestore.Asc)
	return s.collect(ctx, query)
}

// ListUpcoming returns active schedules due within [from, to]. An empty uid
// searches all users.
func (s *recurringStore) ListUpcoming(ctx context.Context, uid, from, to string) ([]*models.RecurringTransaction, error) {
	var query firestore.Query
	if uid == "" {
		query = s.client.CollectionGroup(recurringCollection).Query
	} else {
		query = s.collection(uid).Query
	}
	query = query.
		Where("isActive", "==", true).
		Where("nextDueDate", ">=", from).
		Where("nextDueDate", "<=", to).
		OrderBy("nextDueDate", firestore.Asc)
	return s.collect(ctx, query)
}

// ClaimOccurrence inserts the generated transaction and advances the cursor in
// one Firestore transaction. The deterministic transaction id makes a replayed
// claim fail with AlreadyExists.
func (s *recurringStore) ClaimOccurrence(ctx context.Context, claim dto.OccurrenceClaim) error {
	rec := claim.Recurring
	ref := s.collection(rec.UserID).Doc(rec.ID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc recurringDoc
		if err := snap.DataTo(&doc); err != nil {
			return err
		}
		if !doc.IsActive || doc.NextDueDate != claim.OccurrenceDate {
			return errClaimLost
		}

		updates := []firestore.Update{
			{Path: "nextDueDate", Value: claim.NextDueDate},
			{Path: "updatedAt", Value: claim.Now},
		}
		if claim.Transaction != nil {
			txRef := userCollection(s.client, rec.UserID, transactionsCollection).Doc(claim.Transaction.TransactionID)
			if err := tx.Create(txRef, newTransactionDoc(claim.Transaction)); err != nil {
				return err
			}
			updates = append(updates, firestore.Update{Path: "lastGeneratedDate", Value: claim.OccurrenceDate})
		}
		if claim.Deactivate {
			updates = append(updates, firestore.Update{Path: "isActive", Value: false})
		}
		return tx.Update(ref, updates)
	})
	if err == nil {
		return nil
	}

	if errors.Is(err, errClaimLost) {
		return errs.NewConflictError("occurrence " + claim.OccurrenceDate + " already claimed")
	}
	switch status.Code(err) {
	case codes.NotFound, codes.AlreadyExists, codes.Aborted, codes.FailedPrecondition:
		logger.FromContext(ctx).Debug("claim lost", "recurring_id", rec.ID, "error", err)
		return errs.NewConflictError("occurrence " + claim.OccurrenceDate + " already claimed")
	}
	return errs.NewDatabaseError("claim", "failed to claim occurrence", err)
}

func (s *recurringStore) collect(ctx context.Context, query firestore.Query) ([]*models.RecurringTransaction, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	out := []*models.RecurringTransaction{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to list recurring transactions", err)
		}
		var doc recurringDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse recurring transaction data", err)
		}
		r, err := doc.model()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
