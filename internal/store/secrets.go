package store

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/expense-tracker/internal/errs"
)

// Secrets path
// projects/{project}/secrets/{secretID}/versions/latest

type secretsStore struct {
	client    *secretmanager.Client
	projectID string
}

func NewSecretsStore(client *secretmanager.Client, projectID string) *secretsStore {
	return &secretsStore{
		client:    client,
		projectID: projectID,
	}
}

func (s *secretsStore) secretName(secretID string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", s.projectID, secretID)
}

// Latest returns the payload of the newest enabled version of secretID.
func (s *secretsStore) Latest(ctx context.Context, secretID string) (string, error) {
	res, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("%s/versions/latest", s.secretName(secretID)),
	})
	if err != nil {
		switch status.Code(err) {
		case codes.NotFound:
			return "", errs.NewNotFoundError("secret " + secretID + " not found")
		case codes.Unavailable, codes.DeadlineExceeded:
			return "", errs.NewExternalServiceError("secretmanager", "secret manager unavailable", true, err)
		default:
			return "", errs.NewExternalServiceError("secretmanager", "failed to access secret", false, err)
		}
	}
	return string(res.Payload.Data), nil
}
