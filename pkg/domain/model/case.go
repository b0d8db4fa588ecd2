package model

import (
	"slices"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/types"
)

// Titles and descriptions of system generated steps
const (
	StepTitleCaseOpened = "Case opened"
	StepDescCaseOpened  = "The case was opened in the system."
	StepTitleCaseClosed = "Case closed"
	StepDescCaseClosed  = "The case was closed with the corresponding evidence."
	StepTitleDeleted    = "Step deleted"
	StepTitleEdited     = "Step edited"
)

// Case is a tracked incident with a status and a timeline of steps
type Case struct {
	ID             types.CaseID
	Title          string
	Description    string
	Status         types.CaseStatus
	References     []string
	PendingContact string
	History        []Step
	Owner          types.UserID
	SharedWith     []types.UserID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Step is one entry of a case timeline
type Step struct {
	ID             types.StepID
	Title          string
	Description    string
	Timestamp      time.Time
	Attachments    []Attachment
	PendingContact string
	IsSystemAction bool
	LastEdited     *time.Time
}

// NewCase builds a case with its seed step. It does not validate input.
func NewCase(title, description string, status types.CaseStatus, references []string, pendingContact string, owner types.UserID, now time.Time) *Case {
	return &Case{
		Title:          title,
		Description:    description,
		Status:         status,
		References:     CleanReferences(references),
		PendingContact: strings.TrimSpace(pendingContact),
		Owner:          owner,
		CreatedAt:      now,
		History: []Step{
			{
				ID:          types.NewStepID(),
				Title:       StepTitleCaseOpened,
				Description: StepDescCaseOpened,
				Timestamp:   now,
			},
		},
	}
}

// CleanReferences trims references and drops blank entries
func CleanReferences(refs []string) []string {
	cleaned := make([]string, 0, len(refs))
	for _, ref := range refs {
		if v := strings.TrimSpace(ref); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	return cleaned
}

// ValidateText checks the required text fields shared by cases and steps
func ValidateText(title, description string) error {
	if strings.TrimSpace(title) == "" {
		return goerr.Wrap(ErrValidation, "title is required", goerr.V(FieldKey, "title"))
	}
	if strings.TrimSpace(description) == "" {
		return goerr.Wrap(ErrValidation, "description is required", goerr.V(FieldKey, "description"))
	}
	return nil
}

// IsClosed reports whether the case reached its terminal state
func (c *Case) IsClosed() bool {
	return c.Status == types.CaseStatusClosed
}

// EnsureMutable returns ErrCaseClosed for closed cases
func (c *Case) EnsureMutable() error {
	if c.IsClosed() {
		return goerr.Wrap(ErrCaseClosed, "closed case can not be modified", goerr.V(CaseIDKey, c.ID))
	}
	return nil
}

// IsAccessibleBy reports whether userID may read and modify the case.
// Cases without owner are visible to everyone.
func (c *Case) IsAccessibleBy(userID types.UserID) bool {
	if c.Owner == "" || c.Owner == userID {
		return true
	}
	return slices.Contains(c.SharedWith, userID)
}

// ShareWith grants userID access. It returns false if the user already had
// access.
func (c *Case) ShareWith(userID types.UserID) bool {
	if c.Owner == userID || slices.Contains(c.SharedWith, userID) {
		return false
	}
	c.SharedWith = append(c.SharedWith, userID)
	return true
}

// FindStep returns the index and a pointer to the step with id, or -1 and nil
func (c *Case) FindStep(id types.StepID) (int, *Step) {
	for i := range c.History {
		if c.History[i].ID == id {
			return i, &c.History[i]
		}
	}
	return -1, nil
}

// AddStep appends a user authored step
func (c *Case) AddStep(title, description string, attachments []Attachment, pendingContact string, now time.Time) (*Step, error) {
	if err := c.EnsureMutable(); err != nil {
		return nil, err
	}
	if err := ValidateText(title, description); err != nil {
		return nil, err
	}

	c.History = append(c.History, Step{
		ID:             types.NewStepID(),
		Title:          title,
		Description:    description,
		Timestamp:      now,
		Attachments:    attachments,
		PendingContact: strings.TrimSpace(pendingContact),
	})
	return &c.History[len(c.History)-1], nil
}

// EditStep replaces the content of a step and records an audit step. The
// original timestamp is kept.
func (c *Case) EditStep(id types.StepID, title, description string, attachments []Attachment, pendingContact string, now time.Time) error {
	if err := c.EnsureMutable(); err != nil {
		return err
	}
	if err := ValidateText(title, description); err != nil {
		return err
	}

	idx, step := c.FindStep(id)
	if step == nil {
		return goerr.Wrap(ErrStepNotFound, "step not found", goerr.V(CaseIDKey, c.ID), goerr.V(StepIDKey, id))
	}
	originalTitle := step.Title
	edited := now

	c.History[idx] = Step{
		ID:             step.ID,
		Title:          title,
		Description:    description,
		Timestamp:      step.Timestamp,
		Attachments:    attachments,
		PendingContact: strings.TrimSpace(pendingContact),
		IsSystemAction: step.IsSystemAction,
		LastEdited:     &edited,
	}
	c.History = append(c.History, Step{
		ID:             types.NewStepID(),
		Title:          StepTitleEdited,
		Description:    `Edited step "` + originalTitle + `"`,
		Timestamp:      now,
		IsSystemAction: true,
	})
	return nil
}

// DeleteStep appends an audit step referencing the deleted step, then
// removes the step itself from the history.
func (c *Case) DeleteStep(id types.StepID, now time.Time) (*Step, error) {
	if err := c.EnsureMutable(); err != nil {
		return nil, err
	}

	idx, step := c.FindStep(id)
	if step == nil {
		return nil, goerr.Wrap(ErrStepNotFound, "step not found", goerr.V(CaseIDKey, c.ID), goerr.V(StepIDKey, id))
	}
	deleted := step.clone()

	c.History = append(c.History, Step{
		ID:             types.NewStepID(),
		Title:          StepTitleDeleted,
		Description:    `Deleted step "` + deleted.Title + `"`,
		Timestamp:      now,
		IsSystemAction: true,
	})
	c.History = slices.Delete(c.History, idx, idx+1)
	return &deleted, nil
}

// Close moves the case to the closed state. Pending contacts of every
// existing step are cleared and a closing step with evidence is appended.
func (c *Case) Close(evidence []Attachment, now time.Time) error {
	if c.IsClosed() {
		return goerr.Wrap(ErrCaseClosed, "case is already closed", goerr.V(CaseIDKey, c.ID))
	}

	c.Status = types.CaseStatusClosed
	for i := range c.History {
		c.History[i].PendingContact = ""
	}
	c.History = append(c.History, Step{
		ID:             types.NewStepID(),
		Title:          StepTitleCaseClosed,
		Description:    StepDescCaseClosed,
		Timestamp:      now,
		Attachments:    evidence,
		IsSystemAction: true,
	})
	return nil
}

// Attachments returns every attachment of the case history
func (c *Case) Attachments() []Attachment {
	var result []Attachment
	for _, step := range c.History {
		result = append(result, step.Attachments...)
	}
	return result
}

// Clone returns a deep copy of the case
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	copied := *c
	copied.References = slices.Clone(c.References)
	copied.SharedWith = slices.Clone(c.SharedWith)
	if c.History != nil {
		copied.History = make([]Step, len(c.History))
		for i, step := range c.History {
			copied.History[i] = step.clone()
		}
	}
	return &copied
}

func (s Step) clone() Step {
	copied := s
	if s.Attachments != nil {
		copied.Attachments = make([]Attachment, len(s.Attachments))
		for i, a := range s.Attachments {
			copied.Attachments[i] = a.Clone()
		}
	}
	if s.LastEdited != nil {
		t := *s.LastEdited
		copied.LastEdited = &t
	}
	return copied
}
