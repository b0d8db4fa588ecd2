package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/interfaces"
	"github.com/secmon-lab/casedesk/pkg/service/storage"
	"github.com/secmon-lab/casedesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Storage configures where attachment bytes are kept. Without a bucket the
// bytes stay inline in case documents.
type Storage struct {
	bucket string
	prefix string
}

func (x *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Cloud Storage bucket for attachments",
			Category:    "Storage",
			Sources:     cli.EnvVars("CASEDESK_GCS_BUCKET"),
			Destination: &x.bucket,
		},
		&cli.StringFlag{
			Name:        "gcs-prefix",
			Usage:       "Object name prefix in the attachment bucket",
			Category:    "Storage",
			Sources:     cli.EnvVars("CASEDESK_GCS_PREFIX"),
			Destination: &x.prefix,
		},
	}
}

func (x Storage) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("bucket", x.bucket),
		slog.String("prefix", x.prefix),
	)
}

// Configure returns the attachment storage and its closer. Both are nil
// when no bucket is set.
func (x *Storage) Configure(ctx context.Context) (interfaces.AttachmentStorage, func(), error) {
	if x.bucket == "" {
		logging.Default().Info("Attachment storage not configured, attachments are stored inline")
		return nil, nil, nil
	}

	gcs, err := storage.NewGCS(ctx, x.bucket, x.prefix)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize attachment storage", goerr.V("bucket", x.bucket))
	}
	logging.Default().Info("Using Cloud Storage for attachments", "bucket", x.bucket, "prefix", x.prefix)

	return gcs, func() {
		if err := gcs.Close(); err != nil {
			logging.Default().Warn("failed to close storage client", "error", err)
		}
	}, nil
}
