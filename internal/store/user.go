package store

import (
	"context"

	"cloud.google.com/go/firestore"

	"github.com/GregMSThompson/expense-tracker/internal/errs"
	"github.com/GregMSThompson/expense-tracker/internal/models"
)

// userStore keeps profiles at users/{uid}, the parent of every other
// user-owned collection.
type userStore struct {
	profiles *firestore.CollectionRef
}

func NewUserStore(client *firestore.Client) *userStore {
	return &userStore{profiles: client.Collection(usersCollection)}
}

func (s *userStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.profiles.Doc(user.UID).Create(ctx, user)
	return mapError(err, "create", "user")
}

// UpdateUser writes the profile fields only so subcollections stay untouched.
func (s *userStore) UpdateUser(ctx context.Context, user *models.User) error {
	_, err := s.profiles.Doc(user.UID).Set(ctx, map[string]any{
		"email":       user.Email,
		"firstName":   user.FirstName,
		"lastName":    user.LastName,
		"preferences": user.Preferences,
		"updatedAt":   user.UpdatedAt,
	}, firestore.MergeAll)
	return mapError(err, "update", "user")
}

func (s *userStore) GetUser(ctx context.Context, uid string) (*models.User, error) {
	snap, err := s.profiles.Doc(uid).Get(ctx)
	if err != nil {
		return nil, mapError(err, "read", "user")
	}

	var user models.User
	if err := snap.DataTo(&user); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse user data", err)
	}
	user.UID = snap.Ref.ID
	return &user, nil
}
