package dto

type NotificationQuery struct {
	UnreadOnly bool
	Limit      int
}
