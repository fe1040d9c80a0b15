package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GregMSThompson/expense-tracker/internal/errs"
	"github.com/GregMSThompson/expense-tracker/internal/models"
	"github.com/GregMSThompson/expense-tracker/internal/schedule"
	"github.com/GregMSThompson/expense-tracker/pkg/helpers"
)

type fakeUpcomingStore struct {
	records  []*models.RecurringTransaction
	err      error
	lastUID  string
	lastFrom string
	lastTo   string
}

func (s *fakeUpcomingStore) ListUpcoming(_ context.Context, uid, from, to string) ([]*models.RecurringTransaction, error) {
	s.lastUID, s.lastFrom, s.lastTo = uid, from, to
	if s.err != nil {
		return nil, s.err
	}
	var out []*models.RecurringTransaction
	for _, r := range s.records {
		if !r.IsActive || r.NextDueDate < from || r.NextDueDate > to {
			continue
		}
		if uid != "" && r.UserID != uid {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type fakeNotificationSink struct {
	created map[string]*models.Notification
	failFor string
}

func newFakeNotificationSink() *fakeNotificationSink {
	return &fakeNotificationSink{created: map[string]*models.Notification{}}
}

func (s *fakeNotificationSink) CreateIfAbsent(_ context.Context, _ string, n *models.Notification) (bool, error) {
	if s.failFor != "" && n.NotificationID == s.failFor {
		return false, errs.NewDatabaseError("create", "failed to create notification", errors.New("boom"))
	}
	if _, ok := s.created[n.NotificationID]; ok {
		return false, nil
	}
	s.created[n.NotificationID] = n
	return true, nil
}

type fakeUserLookup struct {
	users map[string]*models.User
}

func (s *fakeUserLookup) GetUser(_ context.Context, uid string) (*models.User, error) {
	if u, ok := s.users[uid]; ok {
		return u, nil
	}
	return nil, errs.NewNotFoundError("user not found")
}

func upcomingFixture(id, uid, next string) *models.RecurringTransaction {
	return &models.RecurringTransaction{
		ID:              id,
		UserID:          uid,
		Title:           "Gym",
		Amount:          decimal.RequireFromString("35.5"),
		TransactionType: models.TransactionTypeExpense,
		Frequency:       schedule.Monthly,
		StartDate:       "2024-01-01",
		NextDueDate:     next,
		IsActive:        true,
	}
}

func newTestNotifier(recurring *fakeUpcomingStore, sink *fakeNotificationSink, users *fakeUserLookup, today string) *notifierService {
	if users == nil {
		users = &fakeUserLookup{}
	}
	svc := NewNotifierService(recurring, sink, users, time.UTC, 3)
	svc.clockNow = func() time.Time {
		d, _ := schedule.ParseDate(today)
		return d.Add(8 * time.Hour)
	}
	return svc
}

func TestNotifyUpcomingWithinWindow(t *testing.T) {
	recurring := &fakeUpcomingStore{records: []*models.RecurringTransaction{
		upcomingFixture("rec-today", "user-1", "2024-03-10"),
		upcomingFixture("rec-soon", "user-1", "2024-03-12"),
		upcomingFixture("rec-late", "user-1", "2024-03-20"),
		upcomingFixture("rec-other", "user-2", "2024-03-11"),
	}}
	sink := newFakeNotificationSink()
	svc := newTestNotifier(recurring, sink, nil, "2024-03-10")

	summary, err := svc.NotifyUpcoming(helpers.TestCtx(), "user-1", 0)
	require.NoError(t, err)

	assert.Equal(t, "user-1", recurring.lastUID)
	assert.Equal(t, "2024-03-10", recurring.lastFrom)
	assert.Equal(t, "2024-03-13", recurring.lastTo)
	assert.Equal(t, 2, summary.Scanned)
	assert.Equal(t, 2, summary.Notified)

	n := sink.created[DueSoonNotificationID("rec-soon", "2024-03-12")]
	require.NotNil(t, n)
	assert.Equal(t, models.NotificationRecurringDueSoon, n.Type)
	assert.Equal(t, "Upcoming expense: Gym", n.Title)
	assert.Equal(t, "/recurring/rec-soon", n.ActionURL)
	assert.Contains(t, n.Message, "35.50")
	assert.Contains(t, n.Message, "in 2 days")
	assert.Contains(t, sink.created[DueSoonNotificationID("rec-today", "2024-03-10")].Message, "today")
}

func TestNotifyUpcomingDedupes(t *testing.T) {
	recurring := &fakeUpcomingStore{records: []*models.RecurringTransaction{
		upcomingFixture("rec-1", "user-1", "2024-03-11"),
	}}
	sink := newFakeNotificationSink()
	svc := newTestNotifier(recurring, sink, nil, "2024-03-10")

	first, err := svc.NotifyUpcoming(helpers.TestCtx(), "user-1", 5)
	require.NoError(t, err)
	second, err := svc.NotifyUpcoming(helpers.TestCtx(), "user-1", 5)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Notified)
	assert.Equal(t, 0, second.Notified)
	assert.Equal(t, 1, second.Scanned)
	assert.Len(t, sink.created, 1)
}

func TestNotifyUpcomingDoesNotModifyRecords(t *testing.T) {
	rec := upcomingFixture("rec-1", "user-1", "2024-03-11")
	before := *rec
	svc := newTestNotifier(&fakeUpcomingStore{records: []*models.RecurringTransaction{rec}}, newFakeNotificationSink(), nil, "2024-03-10")

	_, err := svc.NotifyUpcoming(helpers.TestCtx(), "user-1", 3)
	require.NoError(t, err)
	assert.Equal(t, before, *rec)
}

func TestNotifyUpcomingContinuesAfterFailure(t *testing.T) {
	recurring := &fakeUpcomingStore{records: []*models.RecurringTransaction{
		upcomingFixture("rec-1", "user-1", "2024-03-11"),
		upcomingFixture("rec-2", "user-1", "2024-03-12"),
	}}
	sink := newFakeNotificationSink()
	sink.failFor = DueSoonNotificationID("rec-1", "2024-03-11")
	svc := newTestNotifier(recurring, sink, nil, "2024-03-10")

	summary, err := svc.NotifyUpcoming(helpers.TestCtx(), "user-1", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Notified)
}

func TestNotifyUpcomingValidatesWindow(t *testing.T) {
	svc := newTestNotifier(&fakeUpcomingStore{}, newFakeNotificationSink(), nil, "2024-03-10")

	_, err := svc.NotifyUpcoming(helpers.TestCtx(), "user-1", 32)
	var vErr *errs.ValidationError
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.NotifyUpcoming(helpers.TestCtx(), "", 3)
	assert.ErrorAs(t, err, &vErr)
}

func TestNotifyUpcomingListError(t *testing.T) {
	recurring := &fakeUpcomingStore{err: errs.NewDatabaseError("read", "failed", errors.New("down"))}
	svc := newTestNotifier(recurring, newFakeNotificationSink(), nil, "2024-03-10")

	_, err := svc.NotifyUpcoming(helpers.TestCtx(), "user-1", 3)
	var dbErr *errs.DatabaseError
	assert.ErrorAs(t, err, &dbErr)
}

func TestNotifyAllUpcomingUsesUserWindow(t *testing.T) {
	recurring := &fakeUpcomingStore{records: []*models.RecurringTransaction{
		upcomingFixture("rec-1", "user-1", "2024-03-16"),
		upcomingFixture("rec-2", "user-2", "2024-03-16"),
	}}
	users := &fakeUserLookup{users: map[string]*models.User{
		"user-1": {UID: "user-1", Preferences: models.UserPreferences{NotifyDaysBefore: 7}},
	}}
	sink := newFakeNotificationSink()
	svc := newTestNotifier(recurring, sink, users, "2024-03-10")

	summary, err := svc.NotifyAllUpcoming(helpers.TestCtx())
	require.NoError(t, err)

	assert.Equal(t, "", recurring.lastUID)
	assert.Equal(t, "2024-04-10", recurring.lastTo)
	assert.Equal(t, 1, summary.Notified)
	assert.Contains(t, sink.created, DueSoonNotificationID("rec-1", "2024-03-16"))
	assert.NotContains(t, sink.created, DueSoonNotificationID("rec-2", "2024-03-16"))
}

func TestNotifyGenerated(t *testing.T) {
	tx := &models.Transaction{
		TransactionID:   "rec-1_2024-03-10",
		UserID:          "user-1",
		RecurringID:     "rec-1",
		Title:           "Salary",
		Amount:          decimal.RequireFromString("2500"),
		TransactionDate: "2024-03-10",
		TransactionType: models.TransactionTypeIncome,
	}

	t.Run("creates alert", func(t *testing.T) {
		sink := newFakeNotificationSink()
		svc := newTestNotifier(&fakeUpcomingStore{}, sink, nil, "2024-03-10")

		require.NoError(t, svc.NotifyGenerated(helpers.TestCtx(), tx))
		n := sink.created["gen_rec-1_2024-03-10"]
		require.NotNil(t, n)
		assert.Equal(t, models.NotificationRecurringGenerated, n.Type)
		assert.Equal(t, "Recurring income added", n.Title)
		assert.Equal(t, "/transactions/rec-1_2024-03-10", n.ActionURL)
	})

	t.Run("muted", func(t *testing.T) {
		sink := newFakeNotificationSink()
		users := &fakeUserLookup{users: map[string]*models.User{
			"user-1": {UID: "user-1", Preferences: models.UserPreferences{MuteGenerated: true}},
		}}
		svc := newTestNotifier(&fakeUpcomingStore{}, sink, users, "2024-03-10")

		require.NoError(t, svc.NotifyGenerated(helpers.TestCtx(), tx))
		assert.Empty(t, sink.created)
	})
}
