package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/interfaces"
	"github.com/secmon-lab/casedesk/pkg/repository/firestore"
	"github.com/secmon-lab/casedesk/pkg/repository/memory"
	"github.com/secmon-lab/casedesk/pkg/repository/sqlite"
	"github.com/secmon-lab/casedesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend          string
	projectID        string
	databaseID       string
	collectionPrefix string
	sqlitePath       string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Repository backend type (firestore, sqlite or memory)",
			Value:       "firestore",
			Category:    "Repository",
			Sources:     cli.EnvVars("CASEDESK_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("CASEDESK_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Repository",
			Sources:     cli.EnvVars("CASEDESK_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
		&cli.StringFlag{
			Name:        "firestore-collection-prefix",
			Usage:       "Prefix of Firestore collection names",
			Category:    "Repository",
			Sources:     cli.EnvVars("CASEDESK_FIRESTORE_COLLECTION_PREFIX"),
			Destination: &r.collectionPrefix,
		},
		&cli.StringFlag{
			Name:        "sqlite-path",
			Usage:       "Path of the SQLite database file (sqlite backend)",
			Value:       "casedesk.db",
			Category:    "Repository",
			Sources:     cli.EnvVars("CASEDESK_SQLITE_PATH"),
			Destination: &r.sqlitePath,
		},
	}
}

func (r Repository) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", r.backend),
		slog.String("project_id", r.projectID),
		slog.String("database_id", r.databaseID),
		slog.String("sqlite_path", r.sqlitePath),
	)
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// ProjectID returns the Firestore project ID
func (r *Repository) ProjectID() string {
	return r.projectID
}

// DatabaseID returns the Firestore database ID
func (r *Repository) DatabaseID() string {
	return r.databaseID
}

// CollectionPrefix returns the Firestore collection name prefix
func (r *Repository) CollectionPrefix() string {
	return r.collectionPrefix
}

// Configure initializes and returns a repository based on the configured backend.
// The caller is responsible for calling Close() on the returned repository.
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch r.backend {
	case "firestore":
		if r.projectID == "" {
			return nil, goerr.New("firestore-project-id is required when using firestore backend")
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID, firestore.WithCollectionPrefix(r.collectionPrefix))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
			"collection_prefix", r.collectionPrefix,
		)
		return repo, nil

	case "sqlite":
		repo, err := sqlite.New(ctx, r.sqlitePath)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize sqlite repository", goerr.V("path", r.sqlitePath))
		}
		logging.Default().Info("Using SQLite repository", "path", r.sqlitePath)
		return repo, nil

	case "memory":
		logging.Default().Info("Using in-memory repository (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.Wrap(ErrUnknownBackend, "invalid repository backend", goerr.V(BackendKey, r.backend))
	}
}
