package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	TransactionID   string          `json:"transactionId"`
	UserID          string          `json:"userId"`
	RecurringID     string          `json:"recurringId,omitempty"` // set when produced by the generation cycle
	Title           string          `json:"title"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category,omitempty"`
	TransactionDate string          `json:"transactionDate"` // YYYY-MM-DD
	TransactionType TransactionType `json:"transactionType"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
