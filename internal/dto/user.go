package dto

type CreateUserRequest struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

type UserPreferencesRequest struct {
	Currency         *string `json:"currency,omitempty"`
	NotifyDaysBefore *int    `json:"notifyDaysBefore,omitempty"`
	MuteGenerated    *bool   `json:"muteGenerated,omitempty"`
}
