package models

import (
	"time"
)

type User struct {
	UID         string          `firestore:"uid" json:"uid"`
	Email       string          `firestore:"email" json:"email"`
	FirstName   string          `firestore:"firstName" json:"firstName"`
	LastName    string          `firestore:"lastName" json:"lastName"`
	Preferences UserPreferences `firestore:"preferences" json:"preferences"`
	CreatedAt   time.Time       `firestore:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time       `firestore:"updatedAt" json:"updatedAt"`
}

// UserPreferences are collected during onboarding.
type UserPreferences struct {
	Currency string `firestore:"currency" json:"currency"`

	// NotifyDaysBefore overrides the default upcoming-due window; 0 means default.
	NotifyDaysBefore int  `firestore:"notifyDaysBefore" json:"notifyDaysBefore"`
	MuteGenerated    bool `firestore:"muteGenerated" json:"muteGenerated"`
}
