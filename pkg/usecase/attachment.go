package usecase

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/model"
	"github.com/secmon-lab/casedesk/pkg/domain/types"
	"github.com/secmon-lab/casedesk/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

func attachmentKey(id types.AttachmentID) string {
	return "attachments/" + id.String()
}

// ingestAttachments decodes uploads concurrently, one goroutine per file,
// and offloads the bytes when attachment storage is configured. Results are
// appended in the order the goroutines finish. On failure, objects already
// written are removed.
func (uc *CaseUseCase) ingestAttachments(ctx context.Context, uploads []model.FileUpload) ([]model.Attachment, error) {
	if len(uploads) == 0 {
		return nil, nil
	}

	var mu sync.Mutex
	attachments := make([]model.Attachment, 0, len(uploads))

	eg, egCtx := errgroup.WithContext(ctx)
	for _, upload := range uploads {
		eg.Go(func() error {
			a, err := upload.Normalize()
			if err != nil {
				return err
			}

			if uc.storage != nil {
				key := attachmentKey(a.ID)
				if err := uc.storage.Put(egCtx, key, a.MimeType, a.Data); err != nil {
					return goerr.Wrap(err, "failed to store attachment",
						goerr.V(AttachmentIDKey, a.ID), goerr.V("name", a.Name))
				}
				a.StorageKey = key
				a.Data = nil
			}

			mu.Lock()
			attachments = append(attachments, a)
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		uc.discardAttachments(ctx, attachments)
		return nil, err
	}
	return attachments, nil
}

// discardAttachments removes offloaded bytes. Failures are logged only.
func (uc *CaseUseCase) discardAttachments(ctx context.Context, attachments []model.Attachment) {
	if uc.storage == nil {
		return
	}
	for _, a := range attachments {
		if !a.IsOffloaded() {
			continue
		}
		if err := uc.storage.Delete(ctx, a.StorageKey); err != nil {
			logging.From(ctx).Warn("failed to delete attachment object",
				"error", err,
				"attachment_id", a.ID,
				"key", a.StorageKey)
		}
	}
}

// GetAttachment returns the attachment with its bytes loaded
func (uc *CaseUseCase) GetAttachment(ctx context.Context, caseID types.CaseID, stepID types.StepID, attachmentID types.AttachmentID) (*model.Attachment, error) {
	c, err := uc.getCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	_, step := c.FindStep(stepID)
	if step == nil {
		return nil, goerr.Wrap(model.ErrStepNotFound, "step not found",
			goerr.V(CaseIDKey, caseID), goerr.V(StepIDKey, stepID))
	}

	for _, a := range step.Attachments {
		if a.ID != attachmentID {
			continue
		}
		found := a.Clone()
		if found.IsOffloaded() {
			if uc.storage == nil {
				return nil, goerr.New("attachment is offloaded but no storage is configured",
					goerr.V(AttachmentIDKey, attachmentID))
			}
			data, err := uc.storage.Get(ctx, found.StorageKey)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to load attachment", goerr.V(AttachmentIDKey, attachmentID))
			}
			found.Data = data
		}
		return &found, nil
	}

	return nil, goerr.Wrap(ErrAttachmentNotFound, "attachment not found",
		goerr.V(CaseIDKey, caseID), goerr.V(StepIDKey, stepID), goerr.V(AttachmentIDKey, attachmentID))
}
