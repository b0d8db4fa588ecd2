package model

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for case state and input validation
var (
	ErrValidation   = goerr.New("validation failed")
	ErrCaseClosed   = goerr.New("case is closed")
	ErrStepNotFound = goerr.New("step not found")
	ErrInvalidData  = goerr.New("invalid attachment data")
)

// Context keys for error values
const (
	CaseIDKey = "case_id"
	StepIDKey = "step_id"
	FieldKey  = "field"
)
