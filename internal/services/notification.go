package services

import (
	"context"

	"github.com/GregMSThompson/expense-tracker/internal/dto"
	"github.com/GregMSThompson/expense-tracker/internal/errs"
	"github.com/GregMSThompson/expense-tracker/internal/models"
	"github.com/GregMSThompson/expense-tracker/pkg/logger"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

// notificationStore is the storage interface for a user's notification inbox.
type notificationStore interface {
	Get(ctx context.Context, uid, id string) (*models.Notification, error)
	List(ctx context.Context, uid string, q dto.NotificationQuery) ([]*models.Notification, error)
	MarkRead(ctx context.Context, uid, id string) error
	MarkAllRead(ctx context.Context, uid string) (int, error)
	Delete(ctx context.Context, uid, id string) error
}

type notificationService struct {
	store notificationStore
}

func NewNotificationService(store notificationStore) *notificationService {
	return &notificationService{store: store}
}

func (s *notificationService) List(ctx context.Context, uid string, q dto.NotificationQuery) ([]*models.Notification, error) {
	if err := requireUID(uid); err != nil {
		return nil, err
	}
	if q.Limit == 0 {
		q.Limit = defaultNotificationLimit
	}
	if q.Limit < 0 || q.Limit > maxNotificationLimit {
		return nil, errs.NewValidationError("limit must be between 1 and 200")
	}
	return s.store.List(ctx, uid, q)
}

func (s *notificationService) MarkRead(ctx context.Context, uid, id string) (*models.Notification, error) {
	if err := requireUID(uid); err != nil {
		return nil, err
	}
	n, err := s.store.Get(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	if n.Read {
		return n, nil
	}
	if err := s.store.MarkRead(ctx, uid, id); err != nil {
		return nil, err
	}
	n.Read = true
	return n, nil
}

// MarkAllRead returns how many notifications changed state.
func (s *notificationService) MarkAllRead(ctx context.Context, uid string) (int, error) {
	if err := requireUID(uid); err != nil {
		return 0, err
	}
	updated, err := s.store.MarkAllRead(ctx, uid)
	if err != nil {
		return 0, err
	}

	log := logger.FromContext(ctx)
	log.Info("notifications marked read", "count", updated)
	return updated, nil
}

func (s *notificationService) Delete(ctx context.Context, uid, id string) error {
	if err := requireUID(uid); err != nil {
		return err
	}
	if _, err := s.store.Get(ctx, uid, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, uid, id)
}
