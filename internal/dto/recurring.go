package dto

import (
	"github.com/shopspring/decimal"
)

type CreateRecurringRequest struct {
	Title           string          `json:"title"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category,omitempty"`
	TransactionType string          `json:"transactionType"`
	Frequency       string          `json:"frequency"`
	StartDate       string          `json:"startDate"`
	EndDate         *string         `json:"endDate,omitempty"`
}

// UpdateRecurringRequest is a partial update; nil fields are left unchanged.
// An empty EndDate clears it.
type UpdateRecurringRequest struct {
	Title           *string          `json:"title,omitempty"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	Category        *string          `json:"category,omitempty"`
	TransactionType *string          `json:"transactionType,omitempty"`
	Frequency       *string          `json:"frequency,omitempty"`
	StartDate       *string          `json:"startDate,omitempty"`
	EndDate         *string          `json:"endDate,omitempty"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"isActive"`
}

type RecurringQuery struct {
	Active *bool
}

type RecurringPreview struct {
	ID          string   `json:"id"`
	Frequency   string   `json:"frequency"`
	Occurrences []string `json:"occurrences"`
}
