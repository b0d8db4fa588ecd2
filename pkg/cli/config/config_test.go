package config_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/casedesk/pkg/cli/config"
	"github.com/secmon-lab/casedesk/pkg/repository/memory"
	"github.com/secmon-lab/casedesk/pkg/service/notification"
	"github.com/secmon-lab/casedesk/pkg/usecase"
	"github.com/secmon-lab/casedesk/pkg/utils/logging"
	"golang.org/x/crypto/bcrypt"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "casedesk.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()
	return path
}

func TestLoadAppConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name: "valid configuration",
			content: `
[[account]]
email = "alice@example.com"
name = "Alice"
password_hash = "$2a$10$abcdefghijklmnopqrstuv"

[notification]
duration = "3s"
slack_types = ["error", "warning"]

[server]
max_body_bytes = 1048576
`,
		},
		{
			name:    "empty file",
			content: "",
		},
		{
			name: "duplicate account",
			content: `
[[account]]
email = "alice@example.com"
password_hash = "x"

[[account]]
email = "ALICE@example.com"
password_hash = "y"
`,
			wantErr: config.ErrDuplicateAccount,
		},
		{
			name: "account without email",
			content: `
[[account]]
name = "Nobody"
password_hash = "x"
`,
			wantErr: config.ErrMissingEmail,
		},
		{
			name: "account without hash",
			content: `
[[account]]
email = "alice@example.com"
`,
			wantErr: config.ErrMissingHash,
		},
		{
			name: "invalid duration",
			content: `
[notification]
duration = "soon"
`,
			wantErr: config.ErrInvalidDuration,
		},
		{
			name: "unknown slack type",
			content: `
[notification]
slack_types = ["fatal"]
`,
			wantErr: config.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.LoadAppConfiguration(writeConfig(t, tt.content))
			if tt.wantErr != nil {
				gt.Error(t, err).Is(tt.wantErr)
				return
			}
			gt.NoError(t, err).Required()
			gt.Value(t, cfg).NotNil()
		})
	}

	t.Run("values", func(t *testing.T) {
		cfg, err := config.LoadAppConfiguration(writeConfig(t, tests[0].content))
		gt.NoError(t, err).Required()

		d, err := cfg.NotificationDuration()
		gt.NoError(t, err).Required()
		gt.Value(t, d).Equal(3 * time.Second)
		gt.Value(t, cfg.SlackTypes()).Equal([]notification.Type{notification.TypeError, notification.TypeWarning})
		gt.Value(t, cfg.Server.MaxBodyBytes).Equal(int64(1048576))

		accounts := cfg.PasswordAccounts()
		gt.A(t, accounts).Length(1)
		gt.Value(t, accounts[0].Email).Equal("alice@example.com")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadAppConfiguration(filepath.Join(t.TempDir(), "missing.toml"))
		gt.Error(t, err)
	})

	t.Run("default duration", func(t *testing.T) {
		cfg := &config.AppConfig{}
		d, err := cfg.NotificationDuration()
		gt.NoError(t, err).Required()
		gt.Value(t, d).Equal(notification.DefaultDuration)
	})
}

func TestAuthConfigure(t *testing.T) {
	repo := memory.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	gt.NoError(t, err).Required()
	appCfg := &config.AppConfig{
		Accounts: []config.Account{{Email: "alice@example.com", PasswordHash: string(hash)}},
	}

	t.Run("none", func(t *testing.T) {
		uc, err := config.NewAuthForTest("none", "", "").Configure(repo, appCfg)
		gt.NoError(t, err).Required()
		gt.B(t, uc.IsNoAuthn()).True()
	})

	t.Run("password", func(t *testing.T) {
		uc, err := config.NewAuthForTest("password", "", "").Configure(repo, appCfg)
		gt.NoError(t, err).Required()
		_, ok := uc.(*usecase.PasswordAuthUseCase)
		gt.B(t, ok).True()
	})

	t.Run("password without accounts", func(t *testing.T) {
		_, err := config.NewAuthForTest("password", "", "").Configure(repo, &config.AppConfig{})
		gt.Error(t, err)
	})

	t.Run("firebase requires key and project", func(t *testing.T) {
		_, err := config.NewAuthForTest("firebase", "", "proj").Configure(repo, appCfg)
		gt.Error(t, err)

		uc, err := config.NewAuthForTest("firebase", "key", "proj").Configure(repo, appCfg)
		gt.NoError(t, err).Required()
		gt.B(t, uc.IsNoAuthn()).False()
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := config.NewAuthForTest("oauth", "", "").Configure(repo, appCfg)
		gt.Error(t, err).Is(config.ErrUnknownBackend)
	})
}

func TestRepositoryConfigure(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		repo, err := config.NewRepositoryForTest("memory", "").Configure(ctx)
		gt.NoError(t, err).Required()
		gt.NoError(t, repo.Close())
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cases.db")
		repo, err := config.NewRepositoryForTest("sqlite", path).Configure(ctx)
		gt.NoError(t, err).Required()
		gt.NoError(t, repo.Close())

		_, err = os.Stat(path)
		gt.NoError(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := config.NewRepositoryForTest("mysql", "").Configure(ctx)
		gt.Error(t, err).Is(config.ErrUnknownBackend)
	})
}

func TestLoggerConfigure(t *testing.T) {
	orig := logging.Default()
	t.Cleanup(func() { logging.SetDefault(orig) })

	path := filepath.Join(t.TempDir(), "casedesk.log")
	closer, err := config.NewLoggerForTest("debug", "json", path).Configure()
	gt.NoError(t, err).Required()

	type credentials struct {
		User     string
		Password string `masq:"secret"`
	}
	logging.Default().Debug("signing in", "credentials", credentials{User: "alice", Password: "hunter2"})
	closer()

	data, err := os.ReadFile(path)
	gt.NoError(t, err).Required()
	gt.String(t, string(data)).Contains("signing in")
	gt.String(t, string(data)).Contains("alice")
	gt.B(t, !strings.Contains(string(data), "hunter2")).Describef("secret leaked: %s", string(data)).True()

	t.Run("invalid level", func(t *testing.T) {
		_, err := config.NewLoggerForTest("verbose", "json", "stdout").Configure()
		gt.Error(t, err)
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := config.NewLoggerForTest("info", "xml", "stdout").Configure()
		gt.Error(t, err)
	})
}
