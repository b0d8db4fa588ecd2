package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/interfaces"
	"github.com/secmon-lab/casedesk/pkg/usecase"
	"github.com/secmon-lab/casedesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Auth selects and configures the authentication backend
type Auth struct {
	backend           string
	firebaseAPIKey    string
	firebaseProjectID string
	noAuthnSub        string
	noAuthnEmail      string
	noAuthnName       string
}

func (x *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "auth-backend",
			Usage:       "Authentication backend (firebase, password or none)",
			Value:       "none",
			Category:    "Authentication",
			Sources:     cli.EnvVars("CASEDESK_AUTH_BACKEND"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "firebase-api-key",
			Usage:       "Firebase Web API key (firebase backend)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("CASEDESK_FIREBASE_API_KEY"),
			Destination: &x.firebaseAPIKey,
		},
		&cli.StringFlag{
			Name:        "firebase-project-id",
			Usage:       "Firebase project ID used as token audience (firebase backend)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("CASEDESK_FIREBASE_PROJECT_ID"),
			Destination: &x.firebaseProjectID,
		},
		&cli.StringFlag{
			Name:        "no-auth-user",
			Usage:       "User ID to act as when authentication is disabled (development only)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("CASEDESK_NO_AUTH_USER"),
			Destination: &x.noAuthnSub,
		},
		&cli.StringFlag{
			Name:        "no-auth-email",
			Usage:       "Email of the no-auth user",
			Category:    "Authentication",
			Sources:     cli.EnvVars("CASEDESK_NO_AUTH_EMAIL"),
			Destination: &x.noAuthnEmail,
		},
		&cli.StringFlag{
			Name:        "no-auth-name",
			Usage:       "Display name of the no-auth user",
			Category:    "Authentication",
			Sources:     cli.EnvVars("CASEDESK_NO_AUTH_NAME"),
			Destination: &x.noAuthnName,
		},
	}
}

func (x Auth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", x.backend),
		slog.Int("firebase-api-key.len", len(x.firebaseAPIKey)),
		slog.String("firebase-project-id", x.firebaseProjectID),
		slog.String("no-auth-user", x.noAuthnSub),
	)
}

// Configure creates the authentication use case of the selected backend
func (x *Auth) Configure(repo interfaces.Repository, appCfg *AppConfig) (usecase.AuthUseCaseInterface, error) {
	switch x.backend {
	case "firebase":
		if x.firebaseAPIKey == "" || x.firebaseProjectID == "" {
			return nil, goerr.New("firebase-api-key and firebase-project-id are required for firebase backend")
		}
		logging.Default().Info("Firebase authentication enabled", "project_id", x.firebaseProjectID)
		return usecase.NewFirebaseAuthUseCase(repo, x.firebaseAPIKey, x.firebaseProjectID), nil

	case "password":
		if len(appCfg.Accounts) == 0 {
			return nil, goerr.New("password backend requires at least one [[account]] in the config file")
		}
		uc, err := usecase.NewPasswordAuthUseCase(repo, appCfg.PasswordAccounts())
		if err != nil {
			return nil, goerr.Wrap(err, "failed to configure password authentication")
		}
		logging.Default().Info("Password authentication enabled", "accounts", len(appCfg.Accounts))
		return uc, nil

	case "none", "":
		logging.Default().Warn("Running without authentication (development only)", "user", x.noAuthnSub)
		return usecase.NewNoAuthnUseCase(repo, x.noAuthnSub, x.noAuthnEmail, x.noAuthnName), nil

	default:
		return nil, goerr.Wrap(ErrUnknownBackend, "invalid auth backend", goerr.V(BackendKey, x.backend))
	}
}
