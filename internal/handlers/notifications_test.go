package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GregMSThompson/expense-tracker/internal/dto"
	"github.com/GregMSThompson/expense-tracker/internal/errs"
	"github.com/GregMSThompson/expense-tracker/internal/models"
)

type stubNotificationService struct {
	list      []*models.Notification
	marked    *models.Notification
	updated   int
	err       error
	lastID    string
	lastQuery dto.NotificationQuery
	deleted   bool
}

func (s *stubNotificationService) List(_ context.Context, _ string, q dto.NotificationQuery) ([]*models.Notification, error) {
	s.lastQuery = q
	return s.list, s.err
}

func (s *stubNotificationService) MarkRead(_ context.Context, _, id string) (*models.Notification, error) {
	s.lastID = id
	return s.marked, s.err
}

func (s *stubNotificationService) MarkAllRead(_ context.Context, _ string) (int, error) {
	return s.updated, s.err
}

func (s *stubNotificationService) Delete(_ context.Context, _, id string) error {
	s.lastID = id
	s.deleted = s.err == nil
	return s.err
}

type stubNotifierService struct {
	summary   dto.ScanSummary
	err       error
	lastUID   string
	lastDays  int
	allCalled bool
	allCtxErr error
}

func (s *stubNotifierService) NotifyUpcoming(_ context.Context, uid string, days int) (dto.ScanSummary, error) {
	s.lastUID = uid
	s.lastDays = days
	return s.summary, s.err
}

func (s *stubNotifierService) NotifyAllUpcoming(ctx context.Context) (dto.ScanSummary, error) {
	s.allCalled = true
	s.allCtxErr = ctx.Err()
	return s.summary, s.err
}

func TestListNotifications_Unread(t *testing.T) {
	svc := &stubNotificationService{list: []*models.Notification{{NotificationID: "n1"}}}
	resp := &stubResponseHandler{}
	h := NewNotificationHandlers(&Deps{ResponseHandler: resp, NotificationSvc: svc})

	req := httptest.NewRequest(http.MethodGet, "/notifications?unread=true", nil)
	h.List(httptest.NewRecorder(), withUID(req, "uid1"))

	if !svc.lastQuery.UnreadOnly {
		t.Fatal("expected unread filter")
	}
	if !resp.writeSuccessCalled {
		t.Fatal("expected WriteSuccess")
	}
}

func TestMarkNotificationRead(t *testing.T) {
	svc := &stubNotificationService{marked: &models.Notification{NotificationID: "n1", Read: true}}
	resp := &stubResponseHandler{}
	h := NewNotificationHandlers(&Deps{ResponseHandler: resp, NotificationSvc: svc})

	req := withChiParam(withUID(httptest.NewRequest(http.MethodPatch, "/notifications/n1/read", nil), "uid1"), "id", "n1")
	h.MarkRead(httptest.NewRecorder(), req)

	if svc.lastID != "n1" || !resp.writeSuccessCalled {
		t.Fatalf("unexpected: id=%q success=%v", svc.lastID, resp.writeSuccessCalled)
	}
}

func TestMarkAllNotificationsRead(t *testing.T) {
	svc := &stubNotificationService{updated: 4}
	resp := &stubResponseHandler{}
	h := NewNotificationHandlers(&Deps{ResponseHandler: resp, NotificationSvc: svc})

	req := httptest.NewRequest(http.MethodPost, "/notifications/read-all", nil)
	h.MarkAllRead(httptest.NewRecorder(), withUID(req, "uid1"))

	data, ok := resp.writeSuccessData.(map[string]int)
	if !ok || data["updated"] != 4 {
		t.Fatalf("unexpected data: %#v", resp.writeSuccessData)
	}
}

func TestDeleteNotification_NotFound(t *testing.T) {
	svc := &stubNotificationService{err: errs.NewNotFoundError("notification not found")}
	resp := &stubResponseHandler{}
	h := NewNotificationHandlers(&Deps{ResponseHandler: resp, NotificationSvc: svc})

	req := withChiParam(withUID(httptest.NewRequest(http.MethodDelete, "/notifications/n1", nil), "uid1"), "id", "n1")
	h.Delete(httptest.NewRecorder(), req)

	if !resp.handleErrorCalled || resp.writeSuccessCalled {
		t.Fatal("expected HandleError only")
	}
}

func TestScanNotifications(t *testing.T) {
	notifier := &stubNotifierService{summary: dto.ScanSummary{Scanned: 2, Notified: 1}}
	resp := &stubResponseHandler{}
	h := NewNotificationHandlers(&Deps{ResponseHandler: resp, NotifierSvc: notifier})

	req := httptest.NewRequest(http.MethodPost, "/notifications/scan?days=7", nil)
	h.Scan(httptest.NewRecorder(), withUID(req, "uid1"))

	if notifier.lastUID != "uid1" || notifier.lastDays != 7 {
		t.Fatalf("unexpected scan args: uid=%q days=%d", notifier.lastUID, notifier.lastDays)
	}
	if notifier.allCalled {
		t.Fatal("per-user scan must not scan every user")
	}
	got, ok := resp.writeSuccessData.(dto.ScanSummary)
	if !ok || got.Notified != 1 {
		t.Fatalf("unexpected data: %#v", resp.writeSuccessData)
	}
}

func TestScanNotifications_BadDays(t *testing.T) {
	notifier := &stubNotifierService{}
	resp := &stubResponseHandler{}
	h := NewNotificationHandlers(&Deps{ResponseHandler: resp, NotifierSvc: notifier})

	req := httptest.NewRequest(http.MethodPost, "/notifications/scan?days=soon", nil)
	h.Scan(httptest.NewRecorder(), withUID(req, "uid1"))

	if !resp.handleErrorCalled || notifier.lastUID != "" {
		t.Fatal("expected HandleError without scanning")
	}
}
