package store

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/GregMSThompson/expense-tracker/internal/errs"
	"github.com/GregMSThompson/expense-tracker/internal/models"
	"github.com/GregMSThompson/expense-tracker/internal/schedule"
)

// Amounts are stored as decimal strings; Firestore has no exact numeric type.

type recurringDoc struct {
	ID                string    `firestore:"id"`
	UserID            string    `firestore:"userId"`
	Title             string    `firestore:"title"`
	Amount            string    `firestore:"amount"`
	Category          string    `firestore:"category"`
	TransactionType   string    `firestore:"transactionType"`
	Frequency         string    `firestore:"frequency"`
	StartDate         string    `firestore:"startDate"`
	EndDate           string    `firestore:"endDate"`
	NextDueDate       string    `firestore:"nextDueDate"`
	LastGeneratedDate string    `firestore:"lastGeneratedDate"`
	IsActive          bool      `firestore:"isActive"`
	CreatedAt         time.Time `firestore:"createdAt"`
	UpdatedAt         time.Time `firestore:"updatedAt"`
}

func newRecurringDoc(r *models.RecurringTransaction) recurringDoc {
	return recurringDoc{
		ID:                r.ID,
		UserID:            r.UserID,
		Title:             r.Title,
		Amount:            r.Amount.StringFixed(2),
		Category:          r.Category,
		TransactionType:   string(r.TransactionType),
		Frequency:         string(r.Frequency),
		StartDate:         r.StartDate,
		EndDate:           r.EndDate,
		NextDueDate:       r.NextDueDate,
		LastGeneratedDate: r.LastGeneratedDate,
		IsActive:          r.IsActive,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func (d recurringDoc) model() (*models.RecurringTransaction, error) {
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return nil, errs.NewDatabaseError("read", "invalid amount on recurring transaction "+d.ID, err)
	}
	return &models.RecurringTransaction{
		ID:                d.ID,
		UserID:            d.UserID,
		Title:             d.Title,
		Amount:            amount,
		Category:          d.Category,
		TransactionType:   models.TransactionType(d.TransactionType),
		Frequency:         schedule.Frequency(d.Frequency),
		StartDate:         d.StartDate,
		EndDate:           d.EndDate,
		NextDueDate:       d.NextDueDate,
		LastGeneratedDate: d.LastGeneratedDate,
		IsActive:          d.IsActive,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}, nil
}

type transactionDoc struct {
	TransactionID   string    `firestore:"transactionId"`
	UserID          string    `firestore:"userId"`
	RecurringID     string    `firestore:"recurringId"`
	Title           string    `firestore:"title"`
	Amount          string    `firestore:"amount"`
	Category        string    `firestore:"category"`
	TransactionDate string    `firestore:"transactionDate"`
	TransactionType string    `firestore:"transactionType"`
	CreatedAt       time.Time `firestore:"createdAt"`
	UpdatedAt       time.Time `firestore:"updatedAt"`
}

func newTransactionDoc(tx *models.Transaction) transactionDoc {
	return transactionDoc{
		TransactionID:   tx.TransactionID,
		UserID:          tx.UserID,
		RecurringID:     tx.RecurringID,
		Title:           tx.Title,
		Amount:          tx.Amount.StringFixed(2),
		Category:        tx.Category,
		TransactionDate: tx.TransactionDate,
		TransactionType: string(tx.TransactionType),
		CreatedAt:       tx.CreatedAt,
		UpdatedAt:       tx.UpdatedAt,
	}
}

func (d transactionDoc) model() (*models.Transaction, error) {
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return nil, errs.NewDatabaseError("read", "invalid amount on transaction "+d.TransactionID, err)
	}
	return &models.Transaction{
		TransactionID:   d.TransactionID,
		UserID:          d.UserID,
		RecurringID:     d.RecurringID,
		Title:           d.Title,
		Amount:          amount,
		Category:        d.Category,
		TransactionDate: d.TransactionDate,
		TransactionType: models.TransactionType(d.TransactionType),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}, nil
}
