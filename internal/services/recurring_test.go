package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GregMSThompson/expense-tracker/internal/dto"
	"github.com/GregMSThompson/expense-tracker/internal/errs"
	"github.com/GregMSThompson/expense-tracker/internal/models"
	"github.com/GregMSThompson/expense-tracker/internal/schedule"
	"github.com/GregMSThompson/expense-tracker/pkg/helpers"
)

type fakeRecurringStore struct {
	records   map[string]*models.RecurringTransaction
	err       error
	updates   int
	deleted   []string
	lastQuery dto.RecurringQuery
	// beforeUpdate runs between the service's read and its write.
	beforeUpdate func()
}

func newFakeRecurringStore(records ...*models.RecurringTransaction) *fakeRecurringStore {
	s := &fakeRecurringStore{records: map[string]*models.RecurringTransaction{}}
	for _, r := range records {
		s.records[r.UserID+"/"+r.ID] = r
	}
	return s
}

func (s *fakeRecurringStore) Create(_ context.Context, uid string, r *models.RecurringTransaction) error {
	if s.err != nil {
		return s.err
	}
	c := *r
	s.records[uid+"/"+r.ID] = &c
	return nil
}

func (s *fakeRecurringStore) Get(_ context.Context, uid, id string) (*models.RecurringTransaction, error) {
	r, ok := s.records[uid+"/"+id]
	if !ok {
		return nil, errs.NewNotFoundError("recurring transaction not found")
	}
	c := *r
	return &c, nil
}

func (s *fakeRecurringStore) List(_ context.Context, uid string, q dto.RecurringQuery) ([]*models.RecurringTransaction, error) {
	s.lastQuery = q
	var out []*models.RecurringTransaction
	for _, r := range s.records {
		if r.UserID == uid {
			out = append(out, r)
		}
	}
	return out, s.err
}

func (s *fakeRecurringStore) Update(_ context.Context, uid string, r *models.RecurringTransaction, version time.Time) error {
	if s.err != nil {
		return s.err
	}
	if s.beforeUpdate != nil {
		s.beforeUpdate()
	}
	cur, ok := s.records[uid+"/"+r.ID]
	if !ok {
		return errs.NewNotFoundError("recurring transaction not found")
	}
	if !cur.UpdatedAt.Equal(version) {
		return errs.NewConflictError("recurring transaction was modified")
	}
	s.updates++
	c := *r
	s.records[uid+"/"+r.ID] = &c
	return nil
}

func (s *fakeRecurringStore) Delete(_ context.Context, uid, id string) error {
	s.deleted = append(s.deleted, id)
	delete(s.records, uid+"/"+id)
	return nil
}

func newTestRecurringService(store *fakeRecurringStore) *recurringService {
	svc := NewRecurringService(store)
	svc.newID = func() string { return "rec-1" }
	svc.clockNow = func() time.Time { return time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC) }
	return svc
}

func validCreateRequest() dto.CreateRecurringRequest {
	return dto.CreateRecurringRequest{
		Title:           "  Rent ",
		Amount:          decimal.RequireFromString("1200.004"),
		Category:        "housing",
		TransactionType: "Expense",
		Frequency:       "monthly",
		StartDate:       "2024-01-31",
	}
}

func TestRecurringServiceCreate(t *testing.T) {
	store := newFakeRecurringStore()
	svc := newTestRecurringService(store)

	got, err := svc.Create(helpers.TestCtx(), "user-1", validCreateRequest())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if got.ID != "rec-1" || got.UserID != "user-1" {
		t.Fatalf("unexpected identifiers: %+v", got)
	}
	if got.Title != "Rent" {
		t.Fatalf("title not trimmed: %q", got.Title)
	}
	if !got.Amount.Equal(decimal.RequireFromString("1200")) {
		t.Fatalf("amount not rounded: %s", got.Amount)
	}
	if got.TransactionType != models.TransactionTypeExpense || got.Frequency != schedule.Monthly {
		t.Fatalf("unexpected type/frequency: %+v", got)
	}
	if got.NextDueDate != "2024-02-29" {
		t.Fatalf("nextDueDate = %s, want 2024-02-29", got.NextDueDate)
	}
	if !got.IsActive {
		t.Fatalf("new record should be active")
	}
	if _, ok := store.records["user-1/rec-1"]; !ok {
		t.Fatalf("record not stored")
	}
}

func TestRecurringServiceCreateValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*dto.CreateRecurringRequest)
	}{
		{name: "empty title", mutate: func(r *dto.CreateRecurringRequest) { r.Title = "  " }},
		{name: "zero amount", mutate: func(r *dto.CreateRecurringRequest) { r.Amount = decimal.Zero }},
		{name: "negative amount", mutate: func(r *dto.CreateRecurringRequest) { r.Amount = decimal.NewFromInt(-5) }},
		{name: "unknown type", mutate: func(r *dto.CreateRecurringRequest) { r.TransactionType = "transfer" }},
		{name: "unknown frequency", mutate: func(r *dto.CreateRecurringRequest) { r.Frequency = "hourly" }},
		{name: "bad start date", mutate: func(r *dto.CreateRecurringRequest) { r.StartDate = "31/01/2024" }},
		{name: "end before start", mutate: func(r *dto.CreateRecurringRequest) { r.EndDate = helpers.Ptr("2024-01-01") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeRecurringStore()
			svc := newTestRecurringService(store)
			req := validCreateRequest()
			tc.mutate(&req)

			_, err := svc.Create(helpers.TestCtx(), "user-1", req)
			var vErr *errs.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(store.records) != 0 {
				t.Fatalf("store should be untouched")
			}
		})
	}
}

func TestRecurringServiceCreateEndBeforeFirstOccurrence(t *testing.T) {
	store := newFakeRecurringStore()
	svc := newTestRecurringService(store)
	req := validCreateRequest()
	req.EndDate = helpers.Ptr("2024-02-15")

	got, err := svc.Create(helpers.TestCtx(), "user-1", req)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.IsActive {
		t.Fatalf("record ending before its first occurrence should be inactive")
	}
}

func TestRecurringServiceGetOtherUser(t *testing.T) {
	store := newFakeRecurringStore(&models.RecurringTransaction{ID: "rec-1", UserID: "owner"})
	svc := newTestRecurringService(store)

	_, err := svc.Get(helpers.TestCtx(), "intruder", "rec-1")
	var nfErr *errs.NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRecurringServiceUpdateReschedules(t *testing.T) {
	existing := &models.RecurringTransaction{
		ID:                "rec-1",
		UserID:            "user-1",
		Title:             "Rent",
		Amount:            decimal.NewFromInt(1200),
		TransactionType:   models.TransactionTypeExpense,
		Frequency:         schedule.Monthly,
		StartDate:         "2024-01-15",
		NextDueDate:       "2024-02-15",
		LastGeneratedDate: "2024-01-15",
		IsActive:          true,
	}
	store := newFakeRecurringStore(existing)
	svc := newTestRecurringService(store)

	got, err := svc.Update(helpers.TestCtx(), "user-1", "rec-1", dto.UpdateRecurringRequest{
		Frequency: helpers.Ptr("weekly"),
		Title:     helpers.Ptr("Rent (weekly)"),
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if got.NextDueDate != "2024-01-22" {
		t.Fatalf("nextDueDate = %s, want 2024-01-22", got.NextDueDate)
	}
	if got.Title != "Rent (weekly)" {
		t.Fatalf("title not updated: %q", got.Title)
	}
	if store.updates != 1 {
		t.Fatalf("Update called %d times, want 1", store.updates)
	}
}

func TestRecurringServiceUpdateStartAfterHistory(t *testing.T) {
	existing := &models.RecurringTransaction{
		ID: "rec-1", UserID: "user-1", Frequency: schedule.Monthly,
		StartDate: "2024-01-15", NextDueDate: "2024-04-15", LastGeneratedDate: "2024-03-15", IsActive: true,
	}
	store := newFakeRecurringStore(existing)
	svc := newTestRecurringService(store)

	got, err := svc.Update(helpers.TestCtx(), "user-1", "rec-1", dto.UpdateRecurringRequest{
		StartDate: helpers.Ptr("2024-06-01"),
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if got.NextDueDate != "2024-07-01" {
		t.Fatalf("nextDueDate = %s, want 2024-07-01", got.NextDueDate)
	}
	if got.NextDueDate <= got.StartDate {
		t.Fatalf("cursor %s not after startDate %s", got.NextDueDate, got.StartDate)
	}
}

func TestRecurringServiceUpdateStartBeforeHistory(t *testing.T) {
	existing := &models.RecurringTransaction{
		ID: "rec-1", UserID: "user-1", Frequency: schedule.Monthly,
		StartDate: "2024-01-15", NextDueDate: "2024-04-15", LastGeneratedDate: "2024-03-15", IsActive: true,
	}
	store := newFakeRecurringStore(existing)
	svc := newTestRecurringService(store)

	got, err := svc.Update(helpers.TestCtx(), "user-1", "rec-1", dto.UpdateRecurringRequest{
		StartDate: helpers.Ptr("2024-01-10"),
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	// Re-anchored on the 10th, continuing after the last generated occurrence.
	if got.NextDueDate != "2024-04-10" {
		t.Fatalf("nextDueDate = %s, want 2024-04-10", got.NextDueDate)
	}
}

func TestRecurringServiceEditRacingClaim(t *testing.T) {
	readAt := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	newRecord := func() *models.RecurringTransaction {
		return &models.RecurringTransaction{
			ID: "rec-1", UserID: "user-1", Title: "Rent", Frequency: schedule.Monthly,
			StartDate: "2024-01-15", NextDueDate: "2024-02-15", LastGeneratedDate: "2024-01-15",
			IsActive: true, UpdatedAt: readAt,
		}
	}
	// A cycle claim commits between the service's read and its write.
	claim := func(store *fakeRecurringStore) func() {
		return func() {
			r := store.records["user-1/rec-1"]
			r.NextDueDate = "2024-03-15"
			r.LastGeneratedDate = "2024-02-15"
			r.UpdatedAt = readAt.Add(time.Minute)
		}
	}

	t.Run("update", func(t *testing.T) {
		store := newFakeRecurringStore(newRecord())
		store.beforeUpdate = claim(store)
		svc := newTestRecurringService(store)

		_, err := svc.Update(helpers.TestCtx(), "user-1", "rec-1", dto.UpdateRecurringRequest{Title: helpers.Ptr("Rent 2")})
		var conflict *errs.ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if got := store.records["user-1/rec-1"]; got.NextDueDate != "2024-03-15" || got.Title != "Rent" {
			t.Fatalf("claimed cursor overwritten: %+v", got)
		}
	})

	t.Run("set active", func(t *testing.T) {
		store := newFakeRecurringStore(newRecord())
		store.beforeUpdate = claim(store)
		svc := newTestRecurringService(store)

		_, err := svc.SetActive(helpers.TestCtx(), "user-1", "rec-1", false)
		var conflict *errs.ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if got := store.records["user-1/rec-1"]; got.NextDueDate != "2024-03-15" || !got.IsActive {
			t.Fatalf("claimed cursor overwritten: %+v", got)
		}
	})
}

func TestRecurringServiceUpdateAmountKeepsCursor(t *testing.T) {
	existing := &models.RecurringTransaction{
		ID: "rec-1", UserID: "user-1", Frequency: schedule.Monthly,
		StartDate: "2024-01-15", NextDueDate: "2024-03-15", IsActive: true,
	}
	store := newFakeRecurringStore(existing)
	svc := newTestRecurringService(store)

	got, err := svc.Update(helpers.TestCtx(), "user-1", "rec-1", dto.UpdateRecurringRequest{
		Amount: helpers.Ptr(decimal.RequireFromString("99.99")),
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if got.NextDueDate != "2024-03-15" {
		t.Fatalf("cursor moved: %s", got.NextDueDate)
	}
}

func TestRecurringServiceUpdateEndDateDeactivates(t *testing.T) {
	existing := &models.RecurringTransaction{
		ID: "rec-1", UserID: "user-1", Frequency: schedule.Weekly,
		StartDate: "2024-01-01", NextDueDate: "2024-02-05", IsActive: true,
	}
	store := newFakeRecurringStore(existing)
	svc := newTestRecurringService(store)

	got, err := svc.Update(helpers.TestCtx(), "user-1", "rec-1", dto.UpdateRecurringRequest{
		EndDate: helpers.Ptr("2024-02-01"),
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if got.IsActive {
		t.Fatalf("record should be deactivated")
	}
}

func TestRecurringServiceSetActive(t *testing.T) {
	t.Run("pause", func(t *testing.T) {
		store := newFakeRecurringStore(&models.RecurringTransaction{
			ID: "rec-1", UserID: "user-1", NextDueDate: "2024-02-01", IsActive: true,
		})
		svc := newTestRecurringService(store)

		got, err := svc.SetActive(helpers.TestCtx(), "user-1", "rec-1", false)
		if err != nil {
			t.Fatalf("SetActive error: %v", err)
		}
		if got.IsActive || store.records["user-1/rec-1"].IsActive {
			t.Fatalf("record should be inactive")
		}
	})

	t.Run("reactivate past end", func(t *testing.T) {
		store := newFakeRecurringStore(&models.RecurringTransaction{
			ID: "rec-1", UserID: "user-1", NextDueDate: "2024-02-05", EndDate: "2024-02-01",
		})
		svc := newTestRecurringService(store)

		_, err := svc.SetActive(helpers.TestCtx(), "user-1", "rec-1", true)
		var vErr *errs.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("no change", func(t *testing.T) {
		store := newFakeRecurringStore(&models.RecurringTransaction{
			ID: "rec-1", UserID: "user-1", NextDueDate: "2024-02-01", IsActive: true,
		})
		svc := newTestRecurringService(store)

		if _, err := svc.SetActive(helpers.TestCtx(), "user-1", "rec-1", true); err != nil {
			t.Fatalf("SetActive error: %v", err)
		}
		if store.updates != 0 {
			t.Fatalf("no-op toggle should not write")
		}
	})
}

func TestRecurringServiceDelete(t *testing.T) {
	store := newFakeRecurringStore(&models.RecurringTransaction{ID: "rec-1", UserID: "user-1"})
	svc := newTestRecurringService(store)

	if err := svc.Delete(helpers.TestCtx(), "other", "rec-1"); err == nil {
		t.Fatalf("expected error deleting another user's record")
	}
	if len(store.deleted) != 0 {
		t.Fatalf("foreign delete reached the store")
	}
	if err := svc.Delete(helpers.TestCtx(), "user-1", "rec-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if len(store.deleted) != 1 {
		t.Fatalf("Delete not forwarded")
	}
}

func TestRecurringServicePreview(t *testing.T) {
	store := newFakeRecurringStore(&models.RecurringTransaction{
		ID: "rec-1", UserID: "user-1", Frequency: schedule.Monthly,
		StartDate: "2024-01-31", NextDueDate: "2024-02-29", EndDate: "2024-05-15", IsActive: true,
	})
	svc := newTestRecurringService(store)

	got, err := svc.Preview(helpers.TestCtx(), "user-1", "rec-1", 0)
	if err != nil {
		t.Fatalf("Preview error: %v", err)
	}
	want := []string{"2024-02-29", "2024-03-31", "2024-04-30"}
	if len(got.Occurrences) != len(want) {
		t.Fatalf("occurrences = %v, want %v", got.Occurrences, want)
	}
	for i := range want {
		if got.Occurrences[i] != want[i] {
			t.Fatalf("occurrences = %v, want %v", got.Occurrences, want)
		}
	}

	if _, err := svc.Preview(helpers.TestCtx(), "user-1", "rec-1", 25); err == nil {
		t.Fatalf("expected error for count 25")
	}
}

func TestRecurringServiceListPassesFilter(t *testing.T) {
	store := newFakeRecurringStore(&models.RecurringTransaction{ID: "rec-1", UserID: "user-1"})
	svc := newTestRecurringService(store)

	got, err := svc.List(helpers.TestCtx(), "user-1", dto.RecurringQuery{Active: helpers.Ptr(true)})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("List returned %d records, want 1", len(got))
	}
	if store.lastQuery.Active == nil || !*store.lastQuery.Active {
		t.Fatalf("filter not forwarded: %+v", store.lastQuery)
	}
}
