package secret

import (
	"fmt"

	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/projects"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/secretmanager"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/serviceaccount"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// Manager creates secrets readable by a single service account.
type Manager struct {
	prov    *gcp.Provider
	service *projects.Service
	reader  *serviceaccount.Account
}

var manager *Manager

// SetupSecretManager enables the API. Secrets added afterwards are readable by
// reader only.
func SetupSecretManager(ctx *pulumi.Context, prov *gcp.Provider, reader *serviceaccount.Account) (*projects.Service, error) {
	service, err := projects.NewService(ctx, "secretManagerService", &projects.ServiceArgs{
		Service: pulumi.String("secretmanager.googleapis.com"),
	},
		pulumi.Provider(prov),
	)
	if err != nil {
		return nil, err
	}

	manager = &Manager{prov: prov, service: service, reader: reader}
	return service, nil
}

// AddSecret stores value under secretID and returns the secret id.
func AddSecret(ctx *pulumi.Context, resourceName, secretID string, value pulumi.StringInput) (pulumi.StringOutput, error) {
	if manager == nil {
		return pulumi.String("").ToStringOutput(), fmt.Errorf("secret manager not set up before adding %s", secretID)
	}
	return manager.add(ctx, resourceName, secretID, value)
}

func (m *Manager) add(ctx *pulumi.Context, resourceName, secretID string, value pulumi.StringInput) (pulumi.StringOutput, error) {
	empty := pulumi.String("").ToStringOutput()

	s, err := secretmanager.NewSecret(ctx, resourceName, &secretmanager.SecretArgs{
		SecretId: pulumi.String(secretID),
		Replication: &secretmanager.SecretReplicationArgs{
			Auto: &secretmanager.SecretReplicationAutoArgs{},
		},
		Labels: pulumi.StringMap{"app": pulumi.String("expense-tracker")},
	},
		pulumi.Provider(m.prov),
		pulumi.DependsOn([]pulumi.Resource{m.service}),
	)
	if err != nil {
		return empty, err
	}

	if _, err = secretmanager.NewSecretVersion(ctx, resourceName+"Version", &secretmanager.SecretVersionArgs{
		Secret:     s.ID(),
		SecretData: value,
	},
		pulumi.Provider(m.prov),
	); err != nil {
		return empty, err
	}

	if _, err = secretmanager.NewSecretIamMember(ctx, resourceName+"Accessor", &secretmanager.SecretIamMemberArgs{
		SecretId: s.SecretId,
		Role:     pulumi.String("roles/secretmanager.secretAccessor"),
		Member: m.reader.Email.ApplyT(func(email string) string {
			return fmt.Sprintf("serviceAccount:%s", email)
		}).(pulumi.StringOutput),
	},
		pulumi.Provider(m.prov),
	); err != nil {
		return empty, err
	}

	return s.SecretId, nil
}
