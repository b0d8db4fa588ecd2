package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/cli/config"
	httpctrl "github.com/secmon-lab/casedesk/pkg/controller/http"
	"github.com/secmon-lab/casedesk/pkg/domain/types"
	"github.com/secmon-lab/casedesk/pkg/service/notification"
	"github.com/secmon-lab/casedesk/pkg/service/worker"
	"github.com/secmon-lab/casedesk/pkg/usecase"
	"github.com/secmon-lab/casedesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var reminderInterval time.Duration
	var appCfg config.App
	var repoCfg config.Repository
	var authCfg config.Auth
	var storageCfg config.Storage
	var notifyCfg config.Notification

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("CASEDESK_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "reminder-interval",
			Usage:       "Interval of pending contact reminders to case owners (0 disables)",
			Category:    "Notification",
			Sources:     cli.EnvVars("CASEDESK_REMINDER_INTERVAL"),
			Destination: &reminderInterval,
		},
	}

	// Add shared config flags
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)
	flags = append(flags, storageCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load configuration")
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

			authUC, err := authCfg.Configure(repo, cfg)
			if err != nil {
				return goerr.Wrap(err, "failed to configure authentication")
			}

			hub, err := notifyCfg.Configure(cfg)
			if err != nil {
				return goerr.Wrap(err, "failed to configure notifications")
			}
			defer hub.Wait()
			authUC.OnAuthStateChange(sessionListener(hub))

			ucOpts := []usecase.Option{
				usecase.WithAuth(authUC),
				usecase.WithNotificationHub(hub),
			}

			attachments, closeStorage, err := storageCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure attachment storage")
			}
			if attachments != nil {
				defer closeStorage()
				ucOpts = append(ucOpts, usecase.WithAttachmentStorage(attachments))
			}

			uc := usecase.New(repo, ucOpts...)

			var reminder *worker.PendingContactReminder
			if reminderInterval > 0 {
				reminder = worker.NewPendingContactReminder(repo, hub, reminderInterval)
				if err := reminder.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start pending contact reminder")
				}
			}

			var httpOpts []httpctrl.Options
			if cfg.Server.MaxBodyBytes > 0 {
				httpOpts = append(httpOpts, httpctrl.WithMaxBodyBytes(cfg.Server.MaxBodyBytes))
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server",
					"addr", addr,
					"repository", repoCfg,
					"auth", authCfg,
					"storage", storageCfg,
					"notification", notifyCfg)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				if reminder != nil {
					reminder.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}

// sessionListener drops the notification state of users who sign out
func sessionListener(hub *notification.Hub) func(usecase.AuthEvent) {
	return func(ev usecase.AuthEvent) {
		if ev.Token == nil {
			return
		}
		userID := types.UserID(ev.Token.Sub)
		if ev.SignedIn {
			logging.Default().Debug("session started", "user_id", userID)
			return
		}
		hub.Remove(userID)
		logging.Default().Debug("session ended", "user_id", userID)
	}
}
