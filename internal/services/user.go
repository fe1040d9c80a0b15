package services

import (
	"context"
	"strings"
	"time"

	"github.com/GregMSThompson/expense-tracker/internal/dto"
	"github.com/GregMSThompson/expense-tracker/internal/errs"
	"github.com/GregMSThompson/expense-tracker/internal/models"
	"github.com/GregMSThompson/expense-tracker/pkg/logger"
)

type userUSStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, uid string) (*models.User, error)
}

type userService struct {
	Store    userUSStore
	clockNow func() time.Time
}

func NewUserService(store userUSStore) *userService {
	return &userService{
		Store:    store,
		clockNow: time.Now,
	}
}

func (s *userService) CreateUser(ctx context.Context, uid, email, first, last string) (*models.User, error) {
	// uid, email and request_id are already on the context logger
	log := logger.FromContext(ctx)

	if err := requireUID(uid); err != nil {
		return nil, err
	}

	now := s.clockNow()
	user := &models.User{
		UID:       uid,
		Email:     email,
		FirstName: strings.TrimSpace(first),
		LastName:  strings.TrimSpace(last),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Store.CreateUser(ctx, user); err != nil {
		log.Error("failed to create user in store", "error", err)
		return nil, err
	}

	log.Info("user created successfully", "first_name", user.FirstName, "last_name", user.LastName)
	log.Debug("user created with full details", "user", user)
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, uid string) (*models.User, error) {
	if err := requireUID(uid); err != nil {
		return nil, err
	}
	return s.Store.GetUser(ctx, uid)
}

// UpdatePreferences applies the non-nil fields of req.
func (s *userService) UpdatePreferences(ctx context.Context, uid string, req dto.UserPreferencesRequest) (*models.User, error) {
	if err := requireUID(uid); err != nil {
		return nil, err
	}
	user, err := s.Store.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	if req.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if len(currency) != 3 {
			return nil, errs.NewValidationError("currency must be a 3-letter ISO code")
		}
		user.Preferences.Currency = currency
	}
	if req.NotifyDaysBefore != nil {
		d := *req.NotifyDaysBefore
		if d < 0 || d > maxNotifyWindowDays {
			return nil, errs.NewValidationError("notifyDaysBefore must be between 0 and 31")
		}
		user.Preferences.NotifyDaysBefore = d
	}
	if req.MuteGenerated != nil {
		user.Preferences.MuteGenerated = *req.MuteGenerated
	}

	user.UpdatedAt = s.clockNow()
	if err := s.Store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info("user preferences updated")
	return user, nil
}
