package types

import (
	"strconv"

	"github.com/google/uuid"
)

// CaseID is the display identifier of a case. Repositories assign
// sequential numbers rendered as decimal strings.
type CaseID string

func (x CaseID) String() string { return string(x) }

// NewCaseIDFromSeq renders a sequence number as a CaseID
func NewCaseIDFromSeq(seq int64) CaseID {
	return CaseID(strconv.FormatInt(seq, 10))
}

// StepID identifies a step within a case history
type StepID string

func (x StepID) String() string { return string(x) }

// NewStepID returns a random StepID
func NewStepID() StepID {
	return StepID(uuid.NewString())
}

// AttachmentID identifies an attachment
type AttachmentID string

func (x AttachmentID) String() string { return string(x) }

// NewAttachmentID returns a random AttachmentID
func NewAttachmentID() AttachmentID {
	return AttachmentID(uuid.NewString())
}

// UserID identifies a signed-in user (auth subject)
type UserID string

func (x UserID) String() string { return string(x) }
