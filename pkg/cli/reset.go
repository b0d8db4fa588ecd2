package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/cli/config"
	"github.com/secmon-lab/casedesk/pkg/usecase"
	"github.com/secmon-lab/casedesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

var errResetNotConfirmed = goerr.New("reset requires --yes")

func cmdReset() *cli.Command {
	var repoCfg config.Repository
	var storageCfg config.Storage
	var yes bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "yes",
			Usage:       "Confirm deletion of every case and attachment",
			Destination: &yes,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, storageCfg.Flags()...)

	return &cli.Command{
		Name:  "reset",
		Usage: "Delete all cases and their attachments",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if !yes {
				return errResetNotConfirmed
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			var opts []usecase.Option
			attachments, closeStorage, err := storageCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure attachment storage")
			}
			if attachments != nil {
				defer closeStorage()
				opts = append(opts, usecase.WithAttachmentStorage(attachments))
			}

			if err := usecase.New(repo, opts...).Case.ResetAllData(ctx); err != nil {
				return goerr.Wrap(err, "failed to reset data")
			}

			logging.Default().Info("All cases deleted")
			return nil
		},
	}
}
