// Package store persists users, recurring transactions, transactions and
// notifications in Firestore. Every user-owned document lives under
// users/{uid}, so a lookup with the wrong uid reports not found.
package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/GregMSThompson/expense-tracker/internal/dto"
	"github.com/GregMSThompson/expense-tracker/internal/models"
)

const (
	usersCollection         = "users"
	recurringCollection     = "recurring_transactions"
	transactionsCollection  = "transactions"
	notificationsCollection = "notifications"
)

type RecurringStore interface {
	Create(ctx context.Context, uid string, r *models.RecurringTransaction) error
	Get(ctx context.Context, uid, id string) (*models.RecurringTransaction, error)
	List(ctx context.Context, uid string, q dto.RecurringQuery) ([]*models.RecurringTransaction, error)
	Update(ctx context.Context, uid string, r *models.RecurringTransaction, version time.Time) error
	Delete(ctx context.Context, uid, id string) error
	ListDue(ctx context.Context, today string) ([]*models.RecurringTransaction, error)
	ListUpcoming(ctx context.Context, uid, from, to string) ([]*models.RecurringTransaction, error)
	ClaimOccurrence(ctx context.Context, claim dto.OccurrenceClaim) error
}

type TransactionStore interface {
	Create(ctx context.Context, uid string, tx *models.Transaction) error
	Get(ctx context.Context, uid, id string) (*models.Transaction, error)
	Update(ctx context.Context, uid string, tx *models.Transaction) error
	Delete(ctx context.Context, uid, id string) error
	Query(ctx context.Context, uid string, q dto.TransactionQuery) (<-chan *models.Transaction, <-chan error)
}

type NotificationStore interface {
	CreateIfAbsent(ctx context.Context, uid string, n *models.Notification) (bool, error)
	Get(ctx context.Context, uid, id string) (*models.Notification, error)
	List(ctx context.Context, uid string, q dto.NotificationQuery) ([]*models.Notification, error)
	MarkRead(ctx context.Context, uid, id string) error
	MarkAllRead(ctx context.Context, uid string) (int, error)
	Delete(ctx context.Context, uid, id string) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, uid string) (*models.User, error)
}

// Set groups one backend's stores.
type Set struct {
	Recurring     RecurringStore
	Transactions  TransactionStore
	Notifications NotificationStore
	Users         UserStore
}

func NewFirestoreSet(client *firestore.Client) *Set {
	return &Set{
		Recurring:     NewRecurringStore(client),
		Transactions:  NewTransactionStore(client),
		Notifications: NewNotificationStore(client),
		Users:         NewUserStore(client),
	}
}

func userCollection(client *firestore.Client, uid, name string) *firestore.CollectionRef {
	return client.Collection(usersCollection).Doc(uid).Collection(name)
}
