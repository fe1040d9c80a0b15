package dto

import (
	"time"

	"github.com/GregMSThompson/expense-tracker/internal/models"
)

type CycleStatus string

const (
	CycleGenerated   CycleStatus = "generated"
	CycleSkipped     CycleStatus = "skipped"
	CycleDeactivated CycleStatus = "deactivated"
	CycleFailed      CycleStatus = "failed"
)

// OccurrenceClaim is one atomic claim-and-advance step. The store must apply it
// only when the record is still active and its cursor equals OccurrenceDate.
type OccurrenceClaim struct {
	Recurring      *models.RecurringTransaction
	OccurrenceDate string
	NextDueDate    string
	Deactivate     bool
	// Transaction is nil when the claim only deactivates the record.
	Transaction *models.Transaction
	Now         time.Time
}

type CycleRecordResult struct {
	RecurringID    string      `json:"recurringId"`
	UserID         string      `json:"userId"`
	Status         CycleStatus `json:"status"`
	OccurrenceDate string      `json:"occurrenceDate,omitempty"`
	TransactionID  string      `json:"transactionId,omitempty"`
	NextDueDate    string      `json:"nextDueDate,omitempty"`
	Error          string      `json:"error,omitempty"`
}

type CycleSummary struct {
	RunDate          string              `json:"runDate"`
	GeneratedCount   int                 `json:"generatedCount"`
	FailedCount      int                 `json:"failedCount"`
	SkippedCount     int                 `json:"skippedCount"`
	DeactivatedCount int                 `json:"deactivatedCount"`
	Results          []CycleRecordResult `json:"results"`
}

type ScanSummary struct {
	Scanned  int `json:"scanned"`
	Notified int `json:"notified"`
	Failed   int `json:"failed"`
}

// CronResponse is the trigger endpoint body.
type CronResponse struct {
	Success          bool                `json:"success"`
	RunDate          string              `json:"runDate"`
	GeneratedCount   int                 `json:"generatedCount"`
	FailedCount      int                 `json:"failedCount"`
	SkippedCount     int                 `json:"skippedCount"`
	DeactivatedCount int                 `json:"deactivatedCount"`
	NotifiedCount    int                 `json:"notifiedCount"`
	Results          []CycleRecordResult `json:"results,omitempty"`
}

// Add records one result and bumps the matching counter.
func (s *CycleSummary) Add(res CycleRecordResult) {
	switch res.Status {
	case CycleGenerated:
		s.GeneratedCount++
	case CycleSkipped:
		s.SkippedCount++
	case CycleDeactivated:
		s.DeactivatedCount++
	case CycleFailed:
		s.FailedCount++
	}
	s.Results = append(s.Results, res)
}
