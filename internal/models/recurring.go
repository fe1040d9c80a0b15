package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/GregMSThompson/expense-tracker/internal/schedule"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// RecurringTransaction is a schedule that materializes a Transaction on every
// occurrence. NextDueDate is the cursor advanced by the generation cycle.
type RecurringTransaction struct {
	ID                string             `json:"id"`
	UserID            string             `json:"userId"`
	Title             string             `json:"title"`
	Amount            decimal.Decimal    `json:"amount"`
	Category          string             `json:"category,omitempty"`
	TransactionType   TransactionType    `json:"transactionType"`
	Frequency         schedule.Frequency `json:"frequency"`
	StartDate         string             `json:"startDate"`         // YYYY-MM-DD
	EndDate           string             `json:"endDate,omitempty"` // YYYY-MM-DD, empty = open ended
	NextDueDate       string             `json:"nextDueDate"`
	LastGeneratedDate string             `json:"lastGeneratedDate,omitempty"`
	IsActive          bool               `json:"isActive"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}
