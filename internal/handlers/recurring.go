package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/expense-tracker/internal/dto"
	"github.com/GregMSThompson/expense-tracker/internal/errs"
	"github.com/GregMSThompson/expense-tracker/internal/middleware"
	"github.com/GregMSThompson/expense-tracker/internal/models"
	"github.com/GregMSThompson/expense-tracker/internal/response"
)

type recurringService interface {
	Create(ctx context.Context, uid string, req dto.CreateRecurringRequest) (*models.RecurringTransaction, error)
	Get(ctx context.Context, uid, id string) (*models.RecurringTransaction, error)
	List(ctx context.Context, uid string, q dto.RecurringQuery) ([]*models.RecurringTransaction, error)
	Update(ctx context.Context, uid, id string, req dto.UpdateRecurringRequest) (*models.RecurringTransaction, error)
	SetActive(ctx context.Context, uid, id string, active bool) (*models.RecurringTransaction, error)
	Delete(ctx context.Context, uid, id string) error
	Preview(ctx context.Context, uid, id string, count int) (dto.RecurringPreview, error)
}

type recurringHandlers struct {
	ResponseHandler response.ResponseHandler
	RecurringSvc    recurringService
}

func NewRecurringHandlers(deps *Deps) *recurringHandlers {
	return &recurringHandlers{
		ResponseHandler: deps.ResponseHandler,
		RecurringSvc:    deps.RecurringSvc,
	}
}

func (h *recurringHandlers) RecurringRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}/active", h.SetActive)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/preview", h.Preview)
	return r
}

func (h *recurringHandlers) List(w http.ResponseWriter, r *http.Request) {
	active, err := queryBool(r, "active")
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	records, err := h.RecurringSvc.List(r.Context(), uid, dto.RecurringQuery{Active: active})
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, records)
}

func (h *recurringHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRecurringRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	rec, err := h.RecurringSvc.Create(r.Context(), uid, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, rec)
}

func (h *recurringHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	uid := middleware.UID(r.Context())
	rec, err := h.RecurringSvc.Get(r.Context(), uid, id)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, rec)
}

func (h *recurringHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req dto.UpdateRecurringRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	rec, err := h.RecurringSvc.Update(r.Context(), uid, id, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, rec)
}

func (h *recurringHandlers) SetActive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req dto.SetActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	if req.IsActive == nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("isActive is required"))
		return
	}
	uid := middleware.UID(r.Context())
	rec, err := h.RecurringSvc.SetActive(r.Context(), uid, id, *req.IsActive)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, rec)
}

func (h *recurringHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	uid := middleware.UID(r.Context())
	if err := h.RecurringSvc.Delete(r.Context(), uid, id); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *recurringHandlers) Preview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	count, err := queryInt(r, "count")
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	preview, err := h.RecurringSvc.Preview(r.Context(), uid, id, count)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, preview)
}
