package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/expense-tracker/internal/dto"
	"github.com/GregMSThompson/expense-tracker/internal/middleware"
	"github.com/GregMSThompson/expense-tracker/internal/response"
	"github.com/GregMSThompson/expense-tracker/pkg/logger"
)

const defaultCycleTimeout = 60 * time.Second

type generationService interface {
	RunCycle(ctx context.Context) (dto.CycleSummary, error)
}

type cronHandlers struct {
	ResponseHandler response.ResponseHandler
	GenerationSvc   generationService
	NotifierSvc     notifierService
	Secret          string
	Timeout         time.Duration
}

func NewCronHandlers(deps *Deps) *cronHandlers {
	timeout := deps.CycleTimeout
	if timeout <= 0 {
		timeout = defaultCycleTimeout
	}
	return &cronHandlers{
		ResponseHandler: deps.ResponseHandler,
		GenerationSvc:   deps.GenerationSvc,
		NotifierSvc:     deps.NotifierSvc,
		Secret:          deps.CronSecret,
		Timeout:         timeout,
	}
}

func (h *cronHandlers) CronRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/recurring", h.Probe)
	r.With(middleware.CronAuth(h.Secret)).Post("/recurring", h.RunRecurring)
	return r
}

func (h *cronHandlers) Probe(w http.ResponseWriter, r *http.Request) {
	h.ResponseHandler.WriteJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// RunRecurring runs one generation cycle followed by the upcoming-due scan for
// every user. Each step gets its own timeout. Per-record failures are reported
// in the body with a 200.
func (h *cronHandlers) RunRecurring(w http.ResponseWriter, r *http.Request) {
	cycleCtx, cancelCycle := context.WithTimeout(r.Context(), h.Timeout)
	summary, err := h.GenerationSvc.RunCycle(cycleCtx)
	cancelCycle()
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	resp := dto.CronResponse{
		Success:          true,
		RunDate:          summary.RunDate,
		GeneratedCount:   summary.GeneratedCount,
		FailedCount:      summary.FailedCount,
		SkippedCount:     summary.SkippedCount,
		DeactivatedCount: summary.DeactivatedCount,
		Results:          summary.Results,
	}

	if h.NotifierSvc != nil {
		scanCtx, cancelScan := context.WithTimeout(r.Context(), h.Timeout)
		scan, err := h.NotifierSvc.NotifyAllUpcoming(scanCtx)
		cancelScan()
		if err != nil {
			logger.FromContext(r.Context()).Warn("upcoming scan failed after cycle", "error", err)
		}
		resp.NotifiedCount = scan.Notified
	}

	h.ResponseHandler.WriteJSON(w, r, http.StatusOK, resp)
}

// Healthz is the service liveness endpoint.
func Healthz(rh response.ResponseHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rh.WriteJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}
