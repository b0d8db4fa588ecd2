package usecase

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/model"
)

// Sentinel errors for use case layer
var (
	// Not found errors
	ErrCaseNotFound       = goerr.New("case not found")
	ErrAttachmentNotFound = goerr.New("attachment not found")
	ErrUserNotFound       = goerr.New("user not found")

	// Access control errors
	ErrAccessDenied = goerr.New("access denied to case")

	// Authentication errors
	ErrInvalidCredentials = goerr.New("invalid email or password")
	ErrUnauthenticated    = goerr.New("authentication required")

	// Re-exported domain errors
	ErrValidation   = model.ErrValidation
	ErrCaseClosed   = model.ErrCaseClosed
	ErrStepNotFound = model.ErrStepNotFound
)

// Context keys for error values
const (
	CaseIDKey       = model.CaseIDKey
	StepIDKey       = model.StepIDKey
	AttachmentIDKey = "attachment_id"
	UserIDKey       = "user_id"
	EmailKey        = "email"
)
