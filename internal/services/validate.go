package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GregMSThompson/expense-tracker/internal/errs"
	"github.com/GregMSThompson/expense-tracker/internal/models"
	"github.com/GregMSThompson/expense-tracker/internal/schedule"
)

const (
	maxTitleLength    = 200
	maxCategoryLength = 100
	// maxNotifyWindowDays bounds the upcoming-due lookahead.
	maxNotifyWindowDays = 31
)

func requireUID(uid string) error {
	if strings.TrimSpace(uid) == "" {
		return errs.NewValidationError("user id is required")
	}
	return nil
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errs.NewValidationError("title is required")
	}
	if len(title) > maxTitleLength {
		return "", errs.NewValidationError("title must be at most 200 characters")
	}
	return title, nil
}

func normalizeCategory(category string) (string, error) {
	category = strings.TrimSpace(category)
	if len(category) > maxCategoryLength {
		return "", errs.NewValidationError("category must be at most 100 characters")
	}
	return category, nil
}

// normalizeAmount rounds to cents and rejects non-positive values.
func normalizeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return decimal.Zero, errs.NewValidationError("amount must be greater than zero")
	}
	return amount, nil
}

func parseTransactionType(s string) (models.TransactionType, error) {
	t := models.TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", errs.NewValidationError("transactionType must be income or expense")
	}
	return t, nil
}

func parseFrequency(s string) (schedule.Frequency, error) {
	f, err := schedule.ParseFrequency(s)
	if err != nil {
		return "", errs.NewValidationError("frequency must be one of daily, weekly, monthly, yearly")
	}
	return f, nil
}

func parseDateField(field, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, errs.NewValidationError(field + " is required")
	}
	d, err := schedule.ParseDate(value)
	if err != nil {
		return time.Time{}, errs.NewValidationError(field + " must be a YYYY-MM-DD date")
	}
	return d, nil
}
