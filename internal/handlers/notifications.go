package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/expense-tracker/internal/dto"
	"github.com/GregMSThompson/expense-tracker/internal/middleware"
	"github.com/GregMSThompson/expense-tracker/internal/models"
	"github.com/GregMSThompson/expense-tracker/internal/response"
)

type notificationService interface {
	List(ctx context.Context, uid string, q dto.NotificationQuery) ([]*models.Notification, error)
	MarkRead(ctx context.Context, uid, id string) (*models.Notification, error)
	MarkAllRead(ctx context.Context, uid string) (int, error)
	Delete(ctx context.Context, uid, id string) error
}

type notifierService interface {
	NotifyUpcoming(ctx context.Context, uid string, days int) (dto.ScanSummary, error)
	NotifyAllUpcoming(ctx context.Context) (dto.ScanSummary, error)
}

type notificationHandlers struct {
	ResponseHandler response.ResponseHandler
	NotificationSvc notificationService
	NotifierSvc     notifierService
}

func NewNotificationHandlers(deps *Deps) *notificationHandlers {
	return &notificationHandlers{
		ResponseHandler: deps.ResponseHandler,
		NotificationSvc: deps.NotificationSvc,
		NotifierSvc:     deps.NotifierSvc,
	}
}

func (h *notificationHandlers) NotificationRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/read-all", h.MarkAllRead)
	r.Post("/scan", h.Scan)
	r.Patch("/{id}/read", h.MarkRead)
	r.Delete("/{id}", h.Delete)
	return r
}

func (h *notificationHandlers) List(w http.ResponseWriter, r *http.Request) {
	unread, err := queryBool(r, "unread")
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	q := dto.NotificationQuery{UnreadOnly: unread != nil && *unread, Limit: limit}
	list, err := h.NotificationSvc.List(r.Context(), uid, q)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, list)
}

func (h *notificationHandlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	uid := middleware.UID(r.Context())
	n, err := h.NotificationSvc.MarkRead(r.Context(), uid, id)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, n)
}

func (h *notificationHandlers) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	updated, err := h.NotificationSvc.MarkAllRead(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, map[string]int{"updated": updated})
}

func (h *notificationHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	uid := middleware.UID(r.Context())
	if err := h.NotificationSvc.Delete(r.Context(), uid, id); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

// Scan runs the upcoming-due scan for the caller only.
func (h *notificationHandlers) Scan(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days")
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	summary, err := h.NotifierSvc.NotifyUpcoming(r.Context(), uid, days)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, summary)
}
