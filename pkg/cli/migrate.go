package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/repository/firestore"
	"github.com/secmon-lab/casedesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var projectID string
	var databaseID string
	var collectionPrefix string
	var dryRun bool

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Migrate Firestore indexes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "firestore-project-id",
				Usage:       "Firestore Project ID (required)",
				Required:    true,
				Sources:     cli.EnvVars("CASEDESK_FIRESTORE_PROJECT_ID"),
				Destination: &projectID,
			},
			&cli.StringFlag{
				Name:        "firestore-database-id",
				Usage:       "Firestore Database ID",
				Sources:     cli.EnvVars("CASEDESK_FIRESTORE_DATABASE_ID"),
				Destination: &databaseID,
			},
			&cli.StringFlag{
				Name:        "firestore-collection-prefix",
				Usage:       "Prefix of Firestore collection names",
				Sources:     cli.EnvVars("CASEDESK_FIRESTORE_COLLECTION_PREFIX"),
				Destination: &collectionPrefix,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "Preview changes without applying",
				Destination: &dryRun,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			logger.Info("Migrate configuration",
				"projectID", projectID,
				"databaseID", databaseID,
				"collectionPrefix", collectionPrefix,
				"dryRun", dryRun)

			indexConfig := getIndexConfig(collectionPrefix)

			client, err := fireconf.NewClient(ctx, projectID, databaseID)
			if err != nil {
				return goerr.Wrap(err, "failed to create fireconf client")
			}
			defer func() {
				if err := client.Close(); err != nil {
					logger.Error("failed to close fireconf client", "error", err.Error())
				}
			}()

			if dryRun {
				logger.Info("Dry run mode - previewing changes")
				plan, err := client.GetMigrationPlan(ctx, indexConfig)
				if err != nil {
					return goerr.Wrap(err, "failed to create migration plan")
				}

				if len(plan.Steps) == 0 {
					logger.Info("No changes required")
					return nil
				}

				for _, step := range plan.Steps {
					logger.Info("Migration step",
						"collection", step.Collection,
						"operation", step.Operation,
						"description", step.Description,
						"destructive", step.Destructive)
				}
				return nil
			}

			logger.Info("Applying migrations")
			if err := client.Migrate(ctx, indexConfig); err != nil {
				return goerr.Wrap(err, "failed to apply migrations")
			}
			logger.Info("Migrations applied successfully")
			return nil
		},
	}
}

// getIndexConfig returns the composite indexes used by case queries
func getIndexConfig(prefix string) *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: firestore.CasesCollection(prefix),
				Indexes: []fireconf.Index{
					// status ASC, created_at DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "status", Order: fireconf.OrderAscending},
							{Path: "created_at", Order: fireconf.OrderDescending},
						},
					},
					// owner ASC, created_at DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "owner", Order: fireconf.OrderAscending},
							{Path: "created_at", Order: fireconf.OrderDescending},
						},
					},
				},
			},
		},
	}
}
