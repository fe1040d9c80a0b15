package services

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/GregMSThompson/expense-tracker/internal/dto"
	"github.com/GregMSThompson/expense-tracker/internal/models"
	"github.com/GregMSThompson/expense-tracker/pkg/helpers"
)

const uncategorized = "uncategorized"

type transactionAnalyticsStore interface {
	Query(ctx context.Context, uid string, q dto.TransactionQuery) (<-chan *models.Transaction, <-chan error)
}

type analyticsService struct {
	txs transactionAnalyticsStore
}

func NewAnalyticsService(txs transactionAnalyticsStore) *analyticsService {
	return &analyticsService{txs: txs}
}

// Summary totals income and expense for the date range, with a per-category
// breakdown ordered by total descending.
func (s *analyticsService) Summary(ctx context.Context, uid string, from, to *string) (dto.TransactionSummary, error) {
	result := dto.TransactionSummary{
		From:       helpers.Value(from),
		To:         helpers.Value(to),
		Income:     decimal.Zero,
		Expense:    decimal.Zero,
		Net:        decimal.Zero,
		Categories: []dto.CategoryTotal{},
	}
	if err := requireUID(uid); err != nil {
		return result, err
	}
	if err := validateDateRange(from, to, nil); err != nil {
		return result, err
	}

	txCh, errCh := s.txs.Query(ctx, uid, dto.TransactionQuery{
		DateFrom: from,
		DateTo:   to,
	})

	items := map[string]*dto.CategoryTotal{}
	if err := streamTransactions(txCh, errCh, func(tx *models.Transaction) error {
		switch tx.TransactionType {
		case models.TransactionTypeIncome:
			result.Income = result.Income.Add(tx.Amount)
		case models.TransactionTypeExpense:
			result.Expense = result.Expense.Add(tx.Amount)
		default:
			return nil
		}
		result.Count++
		if tx.RecurringID != "" {
			result.RecurringCount++
		}

		key := breakdownKey(tx)
		item, ok := items[key]
		if !ok {
			item = &dto.CategoryTotal{
				Category: categoryLabel(tx.Category),
				Type:     string(tx.TransactionType),
				Total:    decimal.Zero,
			}
			items[key] = item
		}
		item.Total = item.Total.Add(tx.Amount)
		item.Count++
		return nil
	}); err != nil {
		return result, err
	}

	result.Net = result.Income.Sub(result.Expense)
	result.Categories = mapBreakdownItems(items)
	return result, nil
}

func breakdownKey(tx *models.Transaction) string {
	return string(tx.TransactionType) + "|" + categoryLabel(tx.Category)
}

func categoryLabel(category string) string {
	if category == "" {
		return uncategorized
	}
	return category
}

func mapBreakdownItems(items map[string]*dto.CategoryTotal) []dto.CategoryTotal {
	out := make([]dto.CategoryTotal, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func streamTransactions(txCh <-chan *models.Transaction, errCh <-chan error, handle func(*models.Transaction) error) error {
	for txCh != nil || errCh != nil {
		select {
		case tx, ok := <-txCh:
			if !ok {
				txCh = nil
				continue
			}
			if handle == nil {
				continue
			}
			if err := handle(tx); err != nil {
				return err
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}
