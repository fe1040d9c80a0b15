package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/expense-tracker/internal/dto"
	"github.com/GregMSThompson/expense-tracker/internal/errs"
	"github.com/GregMSThompson/expense-tracker/internal/models"
	"github.com/GregMSThompson/expense-tracker/internal/schedule"
	"github.com/GregMSThompson/expense-tracker/pkg/logger"
)

const (
	defaultPreviewCount = 6
	maxPreviewCount     = 24
)

type recurringRSStore interface {
	Create(ctx context.Context, uid string, r *models.RecurringTransaction) error
	Get(ctx context.Context, uid, id string) (*models.RecurringTransaction, error)
	List(ctx context.Context, uid string, q dto.RecurringQuery) ([]*models.RecurringTransaction, error)
	// Update writes r only while the stored updatedAt still equals version,
	// otherwise it returns *errs.ConflictError.
	Update(ctx context.Context, uid string, r *models.RecurringTransaction, version time.Time) error
	Delete(ctx context.Context, uid, id string) error
}

type recurringService struct {
	store    recurringRSStore
	clockNow func() time.Time
	newID    func() string
}

func NewRecurringService(store recurringRSStore) *recurringService {
	return &recurringService{
		store:    store,
		clockNow: time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

func (s *recurringService) Create(ctx context.Context, uid string, req dto.CreateRecurringRequest) (*models.RecurringTransaction, error) {
	if err := requireUID(uid); err != nil {
		return nil, err
	}
	title, err := normalizeTitle(req.Title)
	if err != nil {
		return nil, err
	}
	category, err := normalizeCategory(req.Category)
	if err != nil {
		return nil, err
	}
	amount, err := normalizeAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	txType, err := parseTransactionType(req.TransactionType)
	if err != nil {
		return nil, err
	}
	freq, err := parseFrequency(req.Frequency)
	if err != nil {
		return nil, err
	}
	start, err := parseDateField("startDate", req.StartDate)
	if err != nil {
		return nil, err
	}
	var end *time.Time
	if req.EndDate != nil && *req.EndDate != "" {
		d, err := parseDateField("endDate", *req.EndDate)
		if err != nil {
			return nil, err
		}
		end = &d
	}
	if end != nil && end.Before(start) {
		return nil, errs.NewValidationError("endDate must not be before startDate")
	}

	next, err := schedule.NextDueDate(freq, start)
	if err != nil {
		return nil, errs.NewValidationError(err.Error())
	}

	now := s.clockNow()
	r := &models.RecurringTransaction{
		ID:              s.newID(),
		UserID:          uid,
		Title:           title,
		Amount:          amount,
		Category:        category,
		TransactionType: txType,
		Frequency:       freq,
		StartDate:       schedule.FormatDate(start),
		NextDueDate:     schedule.FormatDate(next),
		IsActive:        end == nil || !next.After(*end),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if end != nil {
		r.EndDate = schedule.FormatDate(*end)
	}

	if err := s.store.Create(ctx, uid, r); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info("recurring transaction created", "recurring_id", r.ID, "frequency", r.Frequency, "next_due_date", r.NextDueDate)
	return r, nil
}

func (s *recurringService) Get(ctx context.Context, uid, id string) (*models.RecurringTransaction, error) {
	if err := requireUID(uid); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, uid, id)
}

func (s *recurringService) List(ctx context.Context, uid string, q dto.RecurringQuery) ([]*models.RecurringTransaction, error) {
	if err := requireUID(uid); err != nil {
		return nil, err
	}
	return s.store.List(ctx, uid, q)
}

// Update applies a partial edit. Changing the frequency or start date re-derives
// the cursor from the last generated occurrence, or from the start date when
// nothing has been generated yet.
func (s *recurringService) Update(ctx context.Context, uid, id string, req dto.UpdateRecurringRequest) (*models.RecurringTransaction, error) {
	if err := requireUID(uid); err != nil {
		return nil, err
	}
	r, err := s.store.Get(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	version := r.UpdatedAt

	if req.Title != nil {
		if r.Title, err = normalizeTitle(*req.Title); err != nil {
			return nil, err
		}
	}
	if req.Category != nil {
		if r.Category, err = normalizeCategory(*req.Category); err != nil {
			return nil, err
		}
	}
	if req.Amount != nil {
		if r.Amount, err = normalizeAmount(*req.Amount); err != nil {
			return nil, err
		}
	}
	if req.TransactionType != nil {
		if r.TransactionType, err = parseTransactionType(*req.TransactionType); err != nil {
			return nil, err
		}
	}

	rescheduled := false
	if req.Frequency != nil {
		freq, err := parseFrequency(*req.Frequency)
		if err != nil {
			return nil, err
		}
		rescheduled = rescheduled || freq != r.Frequency
		r.Frequency = freq
	}
	if req.StartDate != nil {
		start, err := parseDateField("startDate", *req.StartDate)
		if err != nil {
			return nil, err
		}
		formatted := schedule.FormatDate(start)
		rescheduled = rescheduled || formatted != r.StartDate
		r.StartDate = formatted
	}
	if req.EndDate != nil {
		if *req.EndDate == "" {
			r.EndDate = ""
		} else {
			end, err := parseDateField("endDate", *req.EndDate)
			if err != nil {
				return nil, err
			}
			r.EndDate = schedule.FormatDate(end)
		}
	}
	if r.EndDate != "" && r.EndDate < r.StartDate {
		return nil, errs.NewValidationError("endDate must not be before startDate")
	}

	if rescheduled {
		next, err := nextFromHistory(r)
		if err != nil {
			return nil, err
		}
		r.NextDueDate = next
	}
	if r.EndDate != "" && r.NextDueDate > r.EndDate {
		r.IsActive = false
	}

	r.UpdatedAt = s.clockNow()
	if err := s.store.Update(ctx, uid, r, version); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info("recurring transaction updated", "recurring_id", r.ID, "rescheduled", rescheduled, "next_due_date", r.NextDueDate)
	return r, nil
}

func (s *recurringService) SetActive(ctx context.Context, uid, id string, active bool) (*models.RecurringTransaction, error) {
	if err := requireUID(uid); err != nil {
		return nil, err
	}
	r, err := s.store.Get(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	if active && r.EndDate != "" && r.NextDueDate > r.EndDate {
		return nil, errs.NewValidationError("cannot activate a recurring transaction past its endDate")
	}
	if r.IsActive == active {
		return r, nil
	}
	version := r.UpdatedAt
	r.IsActive = active
	r.UpdatedAt = s.clockNow()
	if err := s.store.Update(ctx, uid, r, version); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info("recurring transaction toggled", "recurring_id", r.ID, "is_active", active)
	return r, nil
}

func (s *recurringService) Delete(ctx context.Context, uid, id string) error {
	if err := requireUID(uid); err != nil {
		return err
	}
	// Get first so a record owned by someone else reports not found.
	if _, err := s.store.Get(ctx, uid, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, uid, id); err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.Info("recurring transaction deleted", "recurring_id", id)
	return nil
}

// Preview lists the next count occurrences starting at the cursor.
func (s *recurringService) Preview(ctx context.Context, uid, id string, count int) (dto.RecurringPreview, error) {
	if count == 0 {
		count = defaultPreviewCount
	}
	if count < 1 || count > maxPreviewCount {
		return dto.RecurringPreview{}, errs.NewValidationError("count must be between 1 and 24")
	}
	r, err := s.Get(ctx, uid, id)
	if err != nil {
		return dto.RecurringPreview{}, err
	}

	preview := dto.RecurringPreview{ID: r.ID, Frequency: string(r.Frequency), Occurrences: []string{}}
	if !r.IsActive {
		return preview, nil
	}

	anchor, err := schedule.ParseDate(r.StartDate)
	if err != nil {
		return preview, err
	}
	first, err := schedule.ParseDate(r.NextDueDate)
	if err != nil {
		return preview, err
	}
	var until *time.Time
	if r.EndDate != "" {
		end, err := schedule.ParseDate(r.EndDate)
		if err != nil {
			return preview, err
		}
		until = &end
	}

	dates, err := schedule.Upcoming(r.Frequency, anchor, first, count, until)
	if err != nil {
		return preview, err
	}
	for _, d := range dates {
		preview.Occurrences = append(preview.Occurrences, schedule.FormatDate(d))
	}
	return preview, nil
}

// nextFromHistory derives the cursor from the last materialized occurrence, or
// from the start date when nothing was generated on or after it. The result is
// always after the start date.
func nextFromHistory(r *models.RecurringTransaction) (string, error) {
	anchor, err := schedule.ParseDate(r.StartDate)
	if err != nil {
		return "", err
	}
	base := anchor
	if r.LastGeneratedDate != "" && r.LastGeneratedDate >= r.StartDate {
		if base, err = schedule.ParseDate(r.LastGeneratedDate); err != nil {
			return "", err
		}
	}
	next, err := schedule.NextAfter(r.Frequency, anchor, base)
	if err != nil {
		return "", errs.NewValidationError(err.Error())
	}
	return schedule.FormatDate(next), nil
}
