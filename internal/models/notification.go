package models

import "time"

type NotificationType string

const (
	NotificationRecurringDueSoon   NotificationType = "recurring_due_soon"
	NotificationRecurringGenerated NotificationType = "recurring_generated"
)

type Notification struct {
	NotificationID string           `firestore:"notificationId" json:"notificationId"`
	UserID         string           `firestore:"userId" json:"userId"`
	Title          string           `firestore:"title" json:"title"`
	Message        string           `firestore:"message" json:"message"`
	Type           NotificationType `firestore:"type" json:"type"`
	ActionURL      string           `firestore:"actionUrl" json:"actionUrl,omitempty"`
	Read           bool             `firestore:"read" json:"read"`
	CreatedAt      time.Time        `firestore:"createdAt" json:"createdAt"`
}
