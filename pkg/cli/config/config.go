package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/model"
	"github.com/secmon-lab/casedesk/pkg/service/notification"
	"github.com/secmon-lab/casedesk/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// AppConfig represents the application configuration file
type AppConfig struct {
	Accounts     []Account          `toml:"account"`
	Notification NotificationConfig `toml:"notification"`
	Server       ServerConfig       `toml:"server"`
}

// Account is a local sign-in account for the password backend
type Account struct {
	Email        string `toml:"email"`
	Name         string `toml:"name"`
	PasswordHash string `toml:"password_hash" masq:"secret"`
}

// Validate checks if the Account is valid
func (a *Account) Validate() error {
	if model.NormalizeEmail(a.Email) == "" {
		return goerr.Wrap(ErrMissingEmail, "account without email", goerr.V("name", a.Name))
	}
	if a.PasswordHash == "" {
		return goerr.Wrap(ErrMissingHash, "account without password hash", goerr.V(EmailKey, a.Email))
	}
	return nil
}

// NotificationConfig controls the transient notifications
type NotificationConfig struct {
	// Duration is a Go duration string such as "5s"
	Duration string `toml:"duration"`
	// SlackTypes selects the notification types mirrored to Slack
	SlackTypes []string `toml:"slack_types"`
}

// ServerConfig holds HTTP server tuning
type ServerConfig struct {
	MaxBodyBytes int64 `toml:"max_body_bytes"`
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	emails := make(map[string]bool)
	for _, account := range a.Accounts {
		if err := account.Validate(); err != nil {
			return goerr.Wrap(err, "invalid account")
		}
		email := model.NormalizeEmail(account.Email)
		if emails[email] {
			return goerr.Wrap(ErrDuplicateAccount, "account listed twice", goerr.V(EmailKey, email))
		}
		emails[email] = true
	}

	if _, err := a.NotificationDuration(); err != nil {
		return err
	}
	for _, t := range a.Notification.SlackTypes {
		switch notification.Type(t) {
		case notification.TypeSuccess, notification.TypeError, notification.TypeWarning, notification.TypeInfo:
		default:
			return goerr.Wrap(ErrInvalidConfig, "unknown notification type", goerr.V("type", t))
		}
	}

	if a.Server.MaxBodyBytes < 0 {
		return goerr.Wrap(ErrInvalidConfig, "max_body_bytes must not be negative", goerr.V("max_body_bytes", a.Server.MaxBodyBytes))
	}
	return nil
}

// NotificationDuration returns the configured duration, or the default
func (a *AppConfig) NotificationDuration() (time.Duration, error) {
	if a.Notification.Duration == "" {
		return notification.DefaultDuration, nil
	}
	d, err := time.ParseDuration(a.Notification.Duration)
	if err != nil || d <= 0 {
		return 0, goerr.Wrap(ErrInvalidDuration, "notification duration must be a positive duration",
			goerr.V("duration", a.Notification.Duration))
	}
	return d, nil
}

// PasswordAccounts converts the accounts for the password backend
func (a *AppConfig) PasswordAccounts() []usecase.PasswordAccount {
	accounts := make([]usecase.PasswordAccount, len(a.Accounts))
	for i, account := range a.Accounts {
		accounts[i] = usecase.PasswordAccount{
			Email:        account.Email,
			Name:         account.Name,
			PasswordHash: account.PasswordHash,
		}
	}
	return accounts
}

// SlackTypes returns the notification types mirrored to Slack
func (a *AppConfig) SlackTypes() []notification.Type {
	kinds := make([]notification.Type, len(a.Notification.SlackTypes))
	for i, t := range a.Notification.SlackTypes {
		kinds[i] = notification.Type(t)
	}
	return kinds
}

// LoadAppConfiguration loads the application configuration from a TOML file
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var config AppConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML config", goerr.V(ConfigPathKey, path))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &config, nil
}

// App holds the flag pointing to the configuration file
type App struct {
	path string
}

func (x *App) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the TOML configuration file",
			Sources:     cli.EnvVars("CASEDESK_CONFIG"),
			Destination: &x.path,
		},
	}
}

// Configure loads the configuration file. An empty configuration is
// returned when no file is given.
func (x *App) Configure() (*AppConfig, error) {
	if x.path == "" {
		return &AppConfig{}, nil
	}
	return LoadAppConfiguration(x.path)
}
