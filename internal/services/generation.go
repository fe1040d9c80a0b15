package services

import (
	"context"
	"errors"
	"time"

	"github.com/GregMSThompson/expense-tracker/internal/dto"
	"github.com/GregMSThompson/expense-tracker/internal/errs"
	"github.com/GregMSThompson/expense-tracker/internal/models"
	"github.com/GregMSThompson/expense-tracker/internal/schedule"
	"github.com/GregMSThompson/expense-tracker/pkg/logger"
)

const defaultMaxCatchUp = 366

type recurringGSStore interface {
	// ListDue returns active records of all users whose cursor is on or before today.
	ListDue(ctx context.Context, today string) ([]*models.RecurringTransaction, error)
	// ClaimOccurrence applies the claim atomically. It returns *errs.ConflictError
	// when the record is no longer active or its cursor moved.
	ClaimOccurrence(ctx context.Context, claim dto.OccurrenceClaim) error
}

type generationNotifier interface {
	NotifyGenerated(ctx context.Context, tx *models.Transaction) error
}

type generationService struct {
	store      recurringGSStore
	notifier   generationNotifier
	loc        *time.Location
	maxCatchUp int
	clockNow   func() time.Time
}

func NewGenerationService(store recurringGSStore, notifier generationNotifier, loc *time.Location, maxCatchUp int) *generationService {
	if loc == nil {
		loc = time.UTC
	}
	if maxCatchUp <= 0 {
		maxCatchUp = defaultMaxCatchUp
	}
	return &generationService{
		store:      store,
		notifier:   notifier,
		loc:        loc,
		maxCatchUp: maxCatchUp,
		clockNow:   time.Now,
	}
}

// GeneratedTransactionID is the idempotence key of one occurrence.
func GeneratedTransactionID(recurringID, occurrenceDate string) string {
	return recurringID + "_" + occurrenceDate
}

// RunCycle materializes every due occurrence. A failing record is reported in the
// summary and never stops the others; only a failure to list due records is
// returned as an error.
func (s *generationService) RunCycle(ctx context.Context) (dto.CycleSummary, error) {
	log := logger.FromContext(ctx)
	today := schedule.Today(s.clockNow(), s.loc)
	summary := dto.CycleSummary{
		RunDate: schedule.FormatDate(today),
		Results: []dto.CycleRecordResult{},
	}

	due, err := s.store.ListDue(ctx, summary.RunDate)
	if err != nil {
		log.Error("failed to list due recurring transactions", "error", err)
		return summary, err
	}
	log.Info("generation cycle started", "run_date", summary.RunDate, "due_count", len(due))
	if logger.IsDebugEnabled(ctx) {
		ids := make([]string, 0, len(due))
		for _, r := range due {
			ids = append(ids, r.ID)
		}
		log.Debug("due recurring transactions", "recurring_ids", ids)
	}

	for _, r := range due {
		if err := ctx.Err(); err != nil {
			summary.Add(dto.CycleRecordResult{
				RecurringID:    r.ID,
				UserID:         r.UserID,
				Status:         dto.CycleFailed,
				OccurrenceDate: r.NextDueDate,
				Error:          err.Error(),
			})
			continue
		}
		for _, res := range s.processRecord(ctx, r, today) {
			summary.Add(res)
		}
	}

	log.Info("generation cycle completed",
		"run_date", summary.RunDate,
		"generated", summary.GeneratedCount,
		"skipped", summary.SkippedCount,
		"deactivated", summary.DeactivatedCount,
		"failed", summary.FailedCount)
	return summary, nil
}

// processRecord walks one record's cursor forward until it is no longer due,
// claiming one occurrence at a time.
func (s *generationService) processRecord(ctx context.Context, rec *models.RecurringTransaction, today time.Time) []dto.CycleRecordResult {
	log := logger.FromContext(ctx).With("recurring_id", rec.ID, "user_id", rec.UserID)
	cur := *rec
	var results []dto.CycleRecordResult

	fail := func(occurrence string, err error) []dto.CycleRecordResult {
		log.Error("recurring generation failed", "occurrence_date", occurrence, "error", err)
		return append(results, dto.CycleRecordResult{
			RecurringID:    cur.ID,
			UserID:         cur.UserID,
			Status:         dto.CycleFailed,
			OccurrenceDate: occurrence,
			Error:          err.Error(),
		})
	}

	anchor, err := schedule.ParseDate(cur.StartDate)
	if err != nil {
		return fail(cur.NextDueDate, errs.NewValidationError("invalid startDate "+cur.StartDate))
	}
	var end *time.Time
	if cur.EndDate != "" {
		d, err := schedule.ParseDate(cur.EndDate)
		if err != nil {
			return fail(cur.NextDueDate, errs.NewValidationError("invalid endDate "+cur.EndDate))
		}
		end = &d
	}

	for i := 0; i < s.maxCatchUp; i++ {
		if err := ctx.Err(); err != nil {
			return fail(cur.NextDueDate, err)
		}

		occurrence := cur.NextDueDate
		occDate, err := schedule.ParseDate(occurrence)
		if err != nil {
			return fail(occurrence, errs.NewValidationError("invalid nextDueDate "+occurrence))
		}
		if occDate.After(today) {
			return results
		}

		snapshot := cur
		claim := dto.OccurrenceClaim{
			Recurring:      &snapshot,
			OccurrenceDate: occurrence,
			Now:            s.clockNow(),
		}

		if end != nil && occDate.After(*end) {
			// The schedule ran past its end without being deactivated.
			claim.NextDueDate = occurrence
			claim.Deactivate = true
			if err := s.store.ClaimOccurrence(ctx, claim); err != nil {
				return s.claimFailed(ctx, results, &cur, occurrence, err)
			}
			log.Info("recurring transaction deactivated", "end_date", cur.EndDate)
			return append(results, dto.CycleRecordResult{
				RecurringID:    cur.ID,
				UserID:         cur.UserID,
				Status:         dto.CycleDeactivated,
				OccurrenceDate: occurrence,
			})
		}

		next, err := schedule.NextAfter(cur.Frequency, anchor, occDate)
		if err != nil {
			return fail(occurrence, errs.NewValidationError(err.Error()))
		}
		claim.NextDueDate = schedule.FormatDate(next)
		claim.Deactivate = end != nil && next.After(*end)
		claim.Transaction = &models.Transaction{
			TransactionID:   GeneratedTransactionID(cur.ID, occurrence),
			UserID:          cur.UserID,
			RecurringID:     cur.ID,
			Title:           cur.Title,
			Amount:          cur.Amount,
			Category:        cur.Category,
			TransactionDate: occurrence,
			TransactionType: cur.TransactionType,
			CreatedAt:       claim.Now,
			UpdatedAt:       claim.Now,
		}

		if err := s.store.ClaimOccurrence(ctx, claim); err != nil {
			return s.claimFailed(ctx, results, &cur, occurrence, err)
		}

		log.Info("recurring occurrence generated",
			"occurrence_date", occurrence,
			"next_due_date", claim.NextDueDate,
			"transaction_id", claim.Transaction.TransactionID)
		results = append(results, dto.CycleRecordResult{
			RecurringID:    cur.ID,
			UserID:         cur.UserID,
			Status:         dto.CycleGenerated,
			OccurrenceDate: occurrence,
			TransactionID:  claim.Transaction.TransactionID,
			NextDueDate:    claim.NextDueDate,
		})

		if s.notifier != nil {
			if err := s.notifier.NotifyGenerated(ctx, claim.Transaction); err != nil {
				log.Warn("failed to notify generated transaction", "transaction_id", claim.Transaction.TransactionID, "error", err)
			}
		}

		cur.NextDueDate = claim.NextDueDate
		cur.LastGeneratedDate = occurrence
		if claim.Deactivate {
			cur.IsActive = false
			log.Info("recurring transaction reached its end date", "end_date", cur.EndDate)
			return append(results, dto.CycleRecordResult{
				RecurringID: cur.ID,
				UserID:      cur.UserID,
				Status:      dto.CycleDeactivated,
				NextDueDate: cur.NextDueDate,
			})
		}
	}

	log.Warn("catch-up limit reached", "limit", s.maxCatchUp, "next_due_date", cur.NextDueDate)
	return results
}

func (s *generationService) claimFailed(ctx context.Context, results []dto.CycleRecordResult, cur *models.RecurringTransaction, occurrence string, err error) []dto.CycleRecordResult {
	log := logger.FromContext(ctx)
	res := dto.CycleRecordResult{
		RecurringID:    cur.ID,
		UserID:         cur.UserID,
		OccurrenceDate: occurrence,
		Error:          err.Error(),
	}

	var conflict *errs.ConflictError
	if errors.As(err, &conflict) {
		log.Info("occurrence already claimed", "recurring_id", cur.ID, "occurrence_date", occurrence)
		res.Status = dto.CycleSkipped
		return append(results, res)
	}

	log.Error("failed to claim occurrence", "recurring_id", cur.ID, "occurrence_date", occurrence, "error", err)
	res.Status = dto.CycleFailed
	return append(results, res)
}
