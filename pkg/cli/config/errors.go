package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrInvalidConfig    = goerr.New("invalid configuration")
	ErrDuplicateAccount = goerr.New("duplicate account email")
	ErrMissingEmail     = goerr.New("account email is required")
	ErrMissingHash      = goerr.New("account password hash is required")
	ErrInvalidDuration  = goerr.New("invalid duration")
	ErrUnknownBackend   = goerr.New("unknown backend")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	EmailKey      = "email"
	BackendKey    = "backend"
)
