package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/expense-tracker/internal/dto"
	"github.com/GregMSThompson/expense-tracker/internal/errs"
	"github.com/GregMSThompson/expense-tracker/internal/models"
	"github.com/GregMSThompson/expense-tracker/pkg/logger"
)

type notificationStore struct {
	client *firestore.Client
}

func NewNotificationStore(client *firestore.Client) *notificationStore {
	return &notificationStore{client: client}
}

func (s *notificationStore) collection(uid string) *firestore.CollectionRef {
	return userCollection(s.client, uid, notificationsCollection)
}

// CreateIfAbsent reports false when a notification with the same id exists.
func (s *notificationStore) CreateIfAbsent(ctx context.Context, uid string, n *models.Notification) (bool, error) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	_, err := s.collection(uid).Doc(n.NotificationID).Create(ctx, n)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return false, nil
		}
		return false, errs.NewDatabaseError("create", "failed to create notification", err)
	}
	return true, nil
}

func (s *notificationStore) Get(ctx context.Context, uid, id string) (*models.Notification, error) {
	doc, err := s.collection(uid).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapError(err, "read", "notification")
	}
	var n models.Notification
	if err := doc.DataTo(&n); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse notification data", err)
	}
	return &n, nil
}

func (s *notificationStore) List(ctx context.Context, uid string, q dto.NotificationQuery) ([]*models.Notification, error) {
	query := s.collection(uid).Query
	if q.UnreadOnly {
		query = query.Where("read", "==", false)
	}
	query = query.OrderBy("createdAt", firestore.Desc)
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list notifications", err)
	}
	out := make([]*models.Notification, 0, len(docs))
	for _, d := range docs {
		var n models.Notification
		if err := d.DataTo(&n); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse notification data", err)
		}
		out = append(out, &n)
	}
	return out, nil
}

func (s *notificationStore) MarkRead(ctx context.Context, uid, id string) error {
	_, err := s.collection(uid).Doc(id).Update(ctx, []firestore.Update{{Path: "read", Value: true}})
	return mapError(err, "update", "notification")
}

type bulkReadJob struct {
	notificationID string
	job            *firestore.BulkWriterJob
}

// MarkAllRead flips every unread notification with one BulkWriter pass.
func (s *notificationStore) MarkAllRead(ctx context.Context, uid string) (int, error) {
	log := logger.FromContext(ctx)

	iter := s.collection(uid).Where("read", "==", false).Documents(ctx)
	defer iter.Stop()

	bw := s.client.BulkWriter(ctx)
	var jobs []bulkReadJob
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bw.End()
			return 0, errs.NewDatabaseError("read", "failed to list unread notifications", err)
		}
		j, err := bw.Update(snap.Ref, []firestore.Update{{Path: "read", Value: true}})
		if err != nil {
			bw.End()
			return 0, errs.NewDatabaseError("update", "failed to schedule notification update", err)
		}
		jobs = append(jobs, bulkReadJob{notificationID: snap.Ref.ID, job: j})
	}
	bw.End()

	for _, entry := range jobs {
		if _, err := entry.job.Results(); err != nil {
			log.Error("failed to mark notification read", "notification_id", entry.notificationID, "error", err)
			return 0, errs.NewDatabaseError("update", "failed to mark notifications read", err)
		}
	}
	return len(jobs), nil
}

func (s *notificationStore) Delete(ctx context.Context, uid, id string) error {
	_, err := s.collection(uid).Doc(id).Delete(ctx)
	return mapError(err, "delete", "notification")
}
