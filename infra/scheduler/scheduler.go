package scheduler

import (
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/cloudrun"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/cloudscheduler"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/projects"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

// SetupCronTrigger posts to /cron/recurring on a schedule with the shared
// secret as a bearer token.
func SetupCronTrigger(ctx *pulumi.Context, prov *gcp.Provider, svc *cloudrun.Service, cronSecret pulumi.StringOutput) error {
	gcpCfg := config.New(ctx, "gcp")
	cronCfg := config.New(ctx, "cron")

	region := gcpCfg.Require("region")
	schedule := cronCfg.Get("schedule")
	if schedule == "" {
		schedule = "0 1 * * *"
	}
	timeZone := cronCfg.Get("timeZone")
	if timeZone == "" {
		timeZone = "Etc/UTC"
	}

	apiSvc, err := projects.NewService(ctx, "cloudSchedulerService", &projects.ServiceArgs{
		Service: pulumi.String("cloudscheduler.googleapis.com"),
	},
		pulumi.Provider(prov),
	)
	if err != nil {
		return err
	}

	uri := svc.Statuses.ApplyT(func(statuses []cloudrun.ServiceStatus) string {
		if len(statuses) == 0 || statuses[0].Url == nil {
			return ""
		}
		return *statuses[0].Url + "/cron/recurring"
	}).(pulumi.StringOutput)

	_, err = cloudscheduler.NewJob(ctx, "recurringCycleJob", &cloudscheduler.JobArgs{
		Region:          pulumi.String(region),
		Description:     pulumi.String("Generate due recurring transactions"),
		Schedule:        pulumi.String(schedule),
		TimeZone:        pulumi.String(timeZone),
		AttemptDeadline: pulumi.String("320s"),
		RetryConfig: &cloudscheduler.JobRetryConfigArgs{
			RetryCount: pulumi.Int(3),
		},
		HttpTarget: &cloudscheduler.JobHttpTargetArgs{
			Uri:        uri,
			HttpMethod: pulumi.String("POST"),
			Headers: pulumi.StringMap{
				"Authorization": pulumi.Sprintf("Bearer %s", cronSecret),
			},
		},
	},
		pulumi.Provider(prov),
		pulumi.DependsOn([]pulumi.Resource{apiSvc, svc}),
	)
	return err
}
