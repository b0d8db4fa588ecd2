package usecase

import (
	"context"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/model"
	"github.com/secmon-lab/casedesk/pkg/domain/types"
	"github.com/secmon-lab/casedesk/pkg/service/notification"
	"github.com/secmon-lab/casedesk/pkg/utils/logging"
)

// StepInput carries a step authored by a user
type StepInput struct {
	Title          string
	Description    string
	PendingContact string

	// Attachments are new uploads
	Attachments []model.FileUpload

	// KeepAttachments lists existing attachments retained by EditStep.
	// nil keeps all of them.
	KeepAttachments []types.AttachmentID
}

// prepareMutation loads the case and runs the checks shared by every step
// operation before any attachment is ingested
func (uc *CaseUseCase) prepareMutation(ctx context.Context, caseID types.CaseID) (*model.Case, error) {
	c, err := uc.getCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := c.EnsureMutable(); err != nil {
		return nil, err
	}
	return c, nil
}

func (uc *CaseUseCase) AddStep(ctx context.Context, caseID types.CaseID, input StepInput) (*model.Case, error) {
	const failMsg = "Failed to add step"

	c, err := uc.prepareMutation(ctx, caseID)
	if err != nil {
		return nil, uc.fail(ctx, err, failMsg)
	}
	if err := model.ValidateText(input.Title, input.Description); err != nil {
		return nil, uc.fail(ctx, err, failMsg)
	}

	attachments, err := uc.ingestAttachments(ctx, input.Attachments)
	if err != nil {
		return nil, uc.fail(ctx, err, failMsg)
	}

	next := c.Clone()
	if _, err := next.AddStep(input.Title, input.Description, attachments, input.PendingContact, uc.now()); err != nil {
		uc.discardAttachments(ctx, attachments)
		return nil, uc.fail(ctx, err, failMsg)
	}

	updated, err := uc.save(ctx, next)
	if err != nil {
		uc.discardAttachments(ctx, attachments)
		return nil, uc.fail(ctx, err, failMsg)
	}

	uc.notify(ctx, notification.TypeSuccess, "Step added successfully")
	return updated, nil
}

// EditStep replaces title, description, pending contact and attachments of
// a step. The step keeps its timestamp and an audit step is appended.
func (uc *CaseUseCase) EditStep(ctx context.Context, caseID types.CaseID, stepID types.StepID, input StepInput) (*model.Case, error) {
	const failMsg = "Failed to edit step"

	c, err := uc.prepareMutation(ctx, caseID)
	if err != nil {
		return nil, uc.fail(ctx, err, failMsg)
	}
	if err := model.ValidateText(input.Title, input.Description); err != nil {
		return nil, uc.fail(ctx, err, failMsg)
	}
	_, step := c.FindStep(stepID)
	if step == nil {
		return nil, uc.fail(ctx, goerr.Wrap(model.ErrStepNotFound, "step not found",
			goerr.V(CaseIDKey, caseID), goerr.V(StepIDKey, stepID)), failMsg)
	}

	kept, dropped := splitAttachments(step.Attachments, input.KeepAttachments)

	added, err := uc.ingestAttachments(ctx, input.Attachments)
	if err != nil {
		return nil, uc.fail(ctx, err, failMsg)
	}

	next := c.Clone()
	if err := next.EditStep(stepID, input.Title, input.Description, append(kept, added...), input.PendingContact, uc.now()); err != nil {
		uc.discardAttachments(ctx, added)
		return nil, uc.fail(ctx, err, failMsg)
	}

	updated, err := uc.save(ctx, next)
	if err != nil {
		uc.discardAttachments(ctx, added)
		return nil, uc.fail(ctx, err, failMsg)
	}
	uc.discardAttachments(ctx, dropped)

	uc.notify(ctx, notification.TypeSuccess, "Step updated successfully")
	return updated, nil
}

// splitAttachments partitions current by keep. A nil keep retains all.
func splitAttachments(current []model.Attachment, keep []types.AttachmentID) (kept, dropped []model.Attachment) {
	for _, a := range current {
		if keep == nil || slices.Contains(keep, a.ID) {
			kept = append(kept, a.Clone())
		} else {
			dropped = append(dropped, a)
		}
	}
	return kept, dropped
}

// DeleteStep removes a step from the history and records an audit step
func (uc *CaseUseCase) DeleteStep(ctx context.Context, caseID types.CaseID, stepID types.StepID) (*model.Case, error) {
	const failMsg = "Failed to delete step"

	c, err := uc.prepareMutation(ctx, caseID)
	if err != nil {
		return nil, uc.fail(ctx, err, failMsg)
	}

	next := c.Clone()
	deleted, err := next.DeleteStep(stepID, uc.now())
	if err != nil {
		return nil, uc.fail(ctx, err, failMsg)
	}

	updated, err := uc.save(ctx, next)
	if err != nil {
		return nil, uc.fail(ctx, err, failMsg)
	}
	uc.discardAttachments(ctx, deleted.Attachments)

	uc.notify(ctx, notification.TypeSuccess, "Step deleted successfully")
	return updated, nil
}

// CloseCase closes the case with optional evidence. Closing a closed case
// changes nothing and is reported as a warning.
func (uc *CaseUseCase) CloseCase(ctx context.Context, caseID types.CaseID, evidence []model.FileUpload) (*model.Case, error) {
	const failMsg = "Failed to close case"

	c, err := uc.getCase(ctx, caseID)
	if err != nil {
		return nil, uc.fail(ctx, err, failMsg)
	}
	if c.IsClosed() {
		err := goerr.Wrap(model.ErrCaseClosed, "case is already closed", goerr.V(CaseIDKey, caseID))
		uc.notify(ctx, notification.TypeWarning, "The case is already closed")
		logging.From(ctx).Info("close requested for closed case", "case_id", caseID)
		return nil, err
	}

	attachments, err := uc.ingestAttachments(ctx, evidence)
	if err != nil {
		return nil, uc.fail(ctx, err, failMsg)
	}

	next := c.Clone()
	if err := next.Close(attachments, uc.now()); err != nil {
		uc.discardAttachments(ctx, attachments)
		return nil, uc.fail(ctx, err, failMsg)
	}

	updated, err := uc.save(ctx, next)
	if err != nil {
		uc.discardAttachments(ctx, attachments)
		return nil, uc.fail(ctx, err, failMsg)
	}

	logging.From(ctx).Info("case closed", "case_id", caseID, "evidence", len(attachments))
	uc.notify(ctx, notification.TypeSuccess, "Case closed successfully")
	return updated, nil
}
