package types

import "github.com/m-mizutani/goerr/v2"

// CaseStatus represents the status of a case
type CaseStatus string

const (
	CaseStatusOpen       CaseStatus = "open"
	CaseStatusInProgress CaseStatus = "in-progress"
	CaseStatusPending    CaseStatus = "pending"
	CaseStatusResolved   CaseStatus = "resolved"
	CaseStatusClosed     CaseStatus = "closed"
)

// ErrInvalidCaseStatus is returned when parsing an unknown status
var ErrInvalidCaseStatus = goerr.New("invalid case status")

// AllCaseStatuses returns all valid case statuses in bucket order. The order
// is used for list grouping and must not change.
func AllCaseStatuses() []CaseStatus {
	return []CaseStatus{
		CaseStatusOpen,
		CaseStatusInProgress,
		CaseStatusPending,
		CaseStatusResolved,
		CaseStatusClosed,
	}
}

// IsValid checks if the case status is valid
func (s CaseStatus) IsValid() bool {
	switch s {
	case CaseStatusOpen,
		CaseStatusInProgress,
		CaseStatusPending,
		CaseStatusResolved,
		CaseStatusClosed:
		return true
	default:
		return false
	}
}

// IsActive reports whether the case still needs work
func (s CaseStatus) IsActive() bool {
	return s == CaseStatusOpen || s == CaseStatusInProgress || s == CaseStatusPending
}

// IsFinished reports whether the case is resolved or closed
func (s CaseStatus) IsFinished() bool {
	return s == CaseStatusResolved || s == CaseStatusClosed
}

// String returns the string representation of the case status
func (s CaseStatus) String() string {
	return string(s)
}

// ParseCaseStatus parses a string into a CaseStatus
func ParseCaseStatus(s string) (CaseStatus, error) {
	status := CaseStatus(s)
	if !status.IsValid() {
		return "", goerr.Wrap(ErrInvalidCaseStatus, "unknown status", goerr.V("status", s))
	}
	return status, nil
}
