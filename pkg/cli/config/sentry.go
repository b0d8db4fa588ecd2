package config

import (
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

type Sentry struct {
	dsn         string
	environment string
}

func (x *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN for error reporting",
			Category:    "Sentry",
			Sources:     cli.EnvVars("CASEDESK_SENTRY_DSN"),
			Destination: &x.dsn,
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment",
			Category:    "Sentry",
			Value:       "production",
			Sources:     cli.EnvVars("CASEDESK_SENTRY_ENV"),
			Destination: &x.environment,
		},
	}
}

func (x Sentry) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("enabled", x.dsn != ""),
		slog.String("environment", x.environment),
	)
}

// Configure initializes the Sentry client when a DSN is set. The returned
// function flushes buffered events.
func (x *Sentry) Configure(release string) (func(), error) {
	if x.dsn == "" {
		return func() {}, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         x.dsn,
		Environment: x.environment,
		Release:     release,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to initialize sentry")
	}
	logging.Default().Info("Sentry error reporting enabled", "environment", x.environment)

	return func() {
		sentry.Flush(2 * time.Second)
	}, nil
}
