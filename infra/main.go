package main

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/GregMSThompson/expense-tracker/infra/cloudrun"
	"github.com/GregMSThompson/expense-tracker/infra/docker"
	"github.com/GregMSThompson/expense-tracker/infra/firestore"
	"github.com/GregMSThompson/expense-tracker/infra/identity"
	"github.com/GregMSThompson/expense-tracker/infra/provider"
	"github.com/GregMSThompson/expense-tracker/infra/scheduler"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		// set default provider with the correct project
		prov, err := provider.SetupDefaultProvider(ctx)
		if err != nil {
			return err
		}

		// enable identity service to allow using firebase
		ident, err := identity.SetupIdentity(ctx, prov)
		if err != nil {
			return err
		}

		// enable firestore, create the database and the due-date index
		err = firestore.SetupFirestore(ctx, prov)
		if err != nil {
			return err
		}

		// create docker repo
		repo, err := docker.CreateCloudrunRepo(ctx, prov)
		if err != nil {
			return err
		}

		api, err := cloudrun.SetupCloudRun(ctx, prov, ident, repo)
		if err != nil {
			return err
		}

		// daily trigger for the recurring generation cycle
		return scheduler.SetupCronTrigger(ctx, prov, api.Service, api.CronSecret)
	})
}
