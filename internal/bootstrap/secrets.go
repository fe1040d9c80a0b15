package bootstrap

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"

	"github.com/GregMSThompson/expense-tracker/internal/config"
	"github.com/GregMSThompson/expense-tracker/internal/store"
)

// ResolveCronSecret prefers CRONSECRET and otherwise reads CRONSECRETNAME
// from Secret Manager. Both empty leaves the trigger open.
func ResolveCronSecret(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.CronSecret != "" || cfg.CronSecretName == "" {
		return cfg.CronSecret, nil
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create secret manager client: %w", err)
	}
	defer client.Close()

	secret, err := store.NewSecretsStore(client, cfg.ProjectID).Latest(ctx, cfg.CronSecretName)
	if err != nil {
		return "", fmt.Errorf("failed to read cron secret: %w", err)
	}
	return strings.TrimSpace(secret), nil
}
