package dto

import (
	"github.com/shopspring/decimal"
)

type TransactionQuery struct {
	Type        *string
	RecurringID *string
	Category    *string
	DateFrom    *string
	DateTo      *string
	Desc        bool
	Limit       int
}

type CreateTransactionRequest struct {
	Title           string          `json:"title"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category,omitempty"`
	TransactionDate string          `json:"transactionDate"`
	TransactionType string          `json:"transactionType"`
}

type UpdateTransactionRequest struct {
	Title           *string          `json:"title,omitempty"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	Category        *string          `json:"category,omitempty"`
	TransactionDate *string          `json:"transactionDate,omitempty"`
	TransactionType *string          `json:"transactionType,omitempty"`
}

type CategoryTotal struct {
	Category string          `json:"category"`
	Type     string          `json:"type"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

type TransactionSummary struct {
	From           string          `json:"from,omitempty"`
	To             string          `json:"to,omitempty"`
	Income         decimal.Decimal `json:"income"`
	Expense        decimal.Decimal `json:"expense"`
	Net            decimal.Decimal `json:"net"`
	Count          int             `json:"count"`
	RecurringCount int             `json:"recurringCount"`
	Categories     []CategoryTotal `json:"categories"`
}
