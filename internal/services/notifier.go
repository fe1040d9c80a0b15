package services

import (
	"context"
	"fmt"
	"time"

	"github.com/GregMSThompson/expense-tracker/internal/dto"
	"github.com/GregMSThompson/expense-tracker/internal/errs"
	"github.com/GregMSThompson/expense-tracker/internal/models"
	"github.com/GregMSThompson/expense-tracker/internal/schedule"
	"github.com/GregMSThompson/expense-tracker/pkg/logger"
)

const defaultNotifyWindowDays = 3

type recurringNSStore interface {
	// ListUpcoming returns active records with from <= nextDueDate <= to.
	// An empty uid searches across all users.
	ListUpcoming(ctx context.Context, uid, from, to string) ([]*models.RecurringTransaction, error)
}

type notificationNSStore interface {
	// CreateIfAbsent reports false when a notification with the same id exists.
	CreateIfAbsent(ctx context.Context, uid string, n *models.Notification) (bool, error)
}

type userNSStore interface {
	GetUser(ctx context.Context, uid string) (*models.User, error)
}

type notifierService struct {
	recurring     recurringNSStore
	notifications notificationNSStore
	users         userNSStore
	loc           *time.Location
	defaultWindow int
	clockNow      func() time.Time
}

func NewNotifierService(recurring recurringNSStore, notifications notificationNSStore, users userNSStore, loc *time.Location, defaultWindow int) *notifierService {
	if loc == nil {
		loc = time.UTC
	}
	if defaultWindow <= 0 || defaultWindow > maxNotifyWindowDays {
		defaultWindow = defaultNotifyWindowDays
	}
	return &notifierService{
		recurring:     recurring,
		notifications: notifications,
		users:         users,
		loc:           loc,
		defaultWindow: defaultWindow,
		clockNow:      time.Now,
	}
}

// DueSoonNotificationID keeps one alert per record and due date.
func DueSoonNotificationID(recurringID, dueDate string) string {
	return "due_" + recurringID + "_" + dueDate
}

// NotifyUpcoming alerts uid about active records due within days (0 = user
// preference or default). Records are never modified.
func (s *notifierService) NotifyUpcoming(ctx context.Context, uid string, days int) (dto.ScanSummary, error) {
	if err := requireUID(uid); err != nil {
		return dto.ScanSummary{}, err
	}
	if days < 0 || days > maxNotifyWindowDays {
		return dto.ScanSummary{}, errs.NewValidationError("days must be between 0 and 31")
	}
	if days == 0 {
		days = s.userWindow(ctx, uid)
	}
	return s.scan(ctx, uid, func(string) int { return days })
}

// NotifyAllUpcoming runs the scan for every user, honouring each user's window.
func (s *notifierService) NotifyAllUpcoming(ctx context.Context) (dto.ScanSummary, error) {
	windows := map[string]int{}
	return s.scan(ctx, "", func(uid string) int {
		w, ok := windows[uid]
		if !ok {
			w = s.userWindow(ctx, uid)
			windows[uid] = w
		}
		return w
	})
}

func (s *notifierService) scan(ctx context.Context, uid string, windowFor func(uid string) int) (dto.ScanSummary, error) {
	log := logger.FromContext(ctx)
	var summary dto.ScanSummary

	today := schedule.Today(s.clockNow(), s.loc)
	horizon := maxNotifyWindowDays
	if uid != "" {
		horizon = windowFor(uid)
	}

	records, err := s.recurring.ListUpcoming(ctx, uid, schedule.FormatDate(today), schedule.FormatDate(today.AddDate(0, 0, horizon)))
	if err != nil {
		log.Error("failed to list upcoming recurring transactions", "error", err)
		return summary, err
	}

	for _, r := range records {
		due, err := schedule.ParseDate(r.NextDueDate)
		if err != nil {
			summary.Failed++
			log.Warn("skipping record with invalid due date", "recurring_id", r.ID, "next_due_date", r.NextDueDate)
			continue
		}
		daysLeft := int(due.Sub(today).Hours() / 24)
		if daysLeft > windowFor(r.UserID) {
			continue
		}
		summary.Scanned++

		n := &models.Notification{
			NotificationID: DueSoonNotificationID(r.ID, r.NextDueDate),
			UserID:         r.UserID,
			Title:          fmt.Sprintf("Upcoming %s: %s", r.TransactionType, r.Title),
			Message:        fmt.Sprintf("%s of %s is due %s (%s).", r.Title, r.Amount.StringFixed(2), dueIn(daysLeft), r.NextDueDate),
			Type:           models.NotificationRecurringDueSoon,
			ActionURL:      "/recurring/" + r.ID,
			CreatedAt:      s.clockNow(),
		}
		created, err := s.notifications.CreateIfAbsent(ctx, r.UserID, n)
		if err != nil {
			summary.Failed++
			log.Error("failed to create due-soon notification", "recurring_id", r.ID, "user_id", r.UserID, "error", err)
			continue
		}
		if created {
			summary.Notified++
		}
	}

	log.Info("upcoming scan completed", "scanned", summary.Scanned, "notified", summary.Notified, "failed", summary.Failed)
	return summary, nil
}

// NotifyGenerated tells the owner that the cycle added a transaction, unless muted.
func (s *notifierService) NotifyGenerated(ctx context.Context, tx *models.Transaction) error {
	if u, err := s.users.GetUser(ctx, tx.UserID); err == nil && u.Preferences.MuteGenerated {
		return nil
	}

	n := &models.Notification{
		NotificationID: "gen_" + tx.TransactionID,
		UserID:         tx.UserID,
		Title:          fmt.Sprintf("Recurring %s added", tx.TransactionType),
		Message:        fmt.Sprintf("%s of %s was recorded for %s.", tx.Title, tx.Amount.StringFixed(2), tx.TransactionDate),
		Type:           models.NotificationRecurringGenerated,
		ActionURL:      "/transactions/" + tx.TransactionID,
		CreatedAt:      s.clockNow(),
	}
	_, err := s.notifications.CreateIfAbsent(ctx, tx.UserID, n)
	return err
}

func (s *notifierService) userWindow(ctx context.Context, uid string) int {
	u, err := s.users.GetUser(ctx, uid)
	if err != nil {
		logger.FromContext(ctx).Debug("using default notify window", "user_id", uid, "error", err)
		return s.defaultWindow
	}
	if d := u.Preferences.NotifyDaysBefore; d > 0 && d <= maxNotifyWindowDays {
		return d
	}
	return s.defaultWindow
}

func dueIn(days int) string {
	switch days {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}
