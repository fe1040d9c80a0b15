package handlers

import (
	"log/slog"
	"time"

	"firebase.google.com/go/v4/auth"

	"github.com/GregMSThompson/expense-tracker/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	Firebase        *auth.Client
	UserSvc         userService
	RecurringSvc    recurringService
	TransactionSvc  transactionService
	AnalyticsSvc    analyticsService
	NotificationSvc notificationService
	NotifierSvc     notifierService
	GenerationSvc   generationService
	CronSecret      string
	CycleTimeout    time.Duration
}
