package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/interfaces"
	"github.com/secmon-lab/casedesk/pkg/domain/model"
	"github.com/secmon-lab/casedesk/pkg/domain/model/auth"
	"github.com/secmon-lab/casedesk/pkg/domain/types"
	"github.com/secmon-lab/casedesk/pkg/service/notification"
	"github.com/secmon-lab/casedesk/pkg/utils/logging"
)

// CaseInput carries the editable fields of a case
type CaseInput struct {
	Title          string
	Description    string
	Status         types.CaseStatus
	References     []string
	PendingContact string
}

type CaseUseCase struct {
	repo          interfaces.Repository
	storage       interfaces.AttachmentStorage
	notifications *notification.Hub
	now           func() time.Time
}

func NewCaseUseCase(repo interfaces.Repository, storage interfaces.AttachmentStorage, hub *notification.Hub, now func() time.Time) *CaseUseCase {
	if now == nil {
		now = time.Now
	}
	if hub == nil {
		hub = notification.NewHub()
	}
	return &CaseUseCase{
		repo:          repo,
		storage:       storage,
		notifications: hub,
		now:           now,
	}
}

// actor returns the signed in user of ctx. Calls without a session, such
// as CLI commands, act as the system and see every case.
func actor(ctx context.Context) (types.UserID, bool) {
	token := auth.TokenFromContext(ctx)
	if token == nil {
		return "", false
	}
	return types.UserID(token.Sub), true
}

func (uc *CaseUseCase) notify(ctx context.Context, typ notification.Type, message string) {
	userID, _ := actor(ctx)
	uc.notifications.Publish(ctx, userID, typ, message)
}

// fail publishes an error notification for err and returns it
func (uc *CaseUseCase) fail(ctx context.Context, err error, message string) error {
	uc.notify(ctx, notification.TypeError, message+": "+reason(err))
	logging.From(ctx).Info(message, "error", err)
	return err
}

// reason renders err for end users without leaking store details
func reason(err error) string {
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrInvalidData):
		var ge *goerr.Error
		if errors.As(err, &ge) {
			if field, ok := ge.Values()[model.FieldKey].(string); ok {
				return field + " is invalid or missing"
			}
		}
		return "invalid input"
	case errors.Is(err, model.ErrCaseClosed):
		return "the case is closed"
	case errors.Is(err, ErrCaseNotFound):
		return "the case does not exist"
	case errors.Is(err, model.ErrStepNotFound):
		return "the step does not exist"
	case errors.Is(err, ErrAccessDenied):
		return "access denied"
	case errors.Is(err, ErrUserNotFound):
		return "no user is registered with that email"
	default:
		return "internal error"
	}
}

func validateCaseInput(input *CaseInput) error {
	if err := model.ValidateText(input.Title, input.Description); err != nil {
		return err
	}
	if input.Status == "" {
		input.Status = types.CaseStatusOpen
	}
	if !input.Status.IsValid() {
		return goerr.Wrap(model.ErrValidation, "invalid status",
			goerr.V(model.FieldKey, "status"), goerr.V("status", input.Status))
	}
	return nil
}

// getCase loads a case the actor may access
func (uc *CaseUseCase) getCase(ctx context.Context, id types.CaseID) (*model.Case, error) {
	c, err := uc.repo.Case().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrCaseNotFound, "case not found", goerr.V(CaseIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get case", goerr.V(CaseIDKey, id))
	}

	if userID, ok := actor(ctx); ok && !c.IsAccessibleBy(userID) {
		return nil, goerr.Wrap(ErrAccessDenied, "case is not owned by or shared with user",
			goerr.V(CaseIDKey, id), goerr.V(UserIDKey, userID))
	}
	return c, nil
}

// save persists next. On failure nothing is kept: the stored case is the
// one before the mutation.
func (uc *CaseUseCase) save(ctx context.Context, next *model.Case) (*model.Case, error) {
	updated, err := uc.repo.Case().Update(ctx, next)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrCaseNotFound, "case disappeared while updating", goerr.V(CaseIDKey, next.ID))
		}
		return nil, goerr.Wrap(err, "failed to save case", goerr.V(CaseIDKey, next.ID))
	}
	return updated, nil
}

func (uc *CaseUseCase) CreateCase(ctx context.Context, input CaseInput) (*model.Case, error) {
	if err := validateCaseInput(&input); err != nil {
		return nil, uc.fail(ctx, err, "Failed to create case")
	}
	if input.Status == types.CaseStatusClosed {
		return nil, uc.fail(ctx, goerr.Wrap(model.ErrValidation, "a new case can not be closed",
			goerr.V(model.FieldKey, "status")), "Failed to create case")
	}

	owner, _ := actor(ctx)
	c := model.NewCase(input.Title, input.Description, input.Status, input.References, input.PendingContact, owner, uc.now())

	created, err := uc.repo.Case().Create(ctx, c)
	if err != nil {
		return nil, uc.fail(ctx, goerr.Wrap(err, "failed to create case"), "Failed to create case")
	}

	logging.From(ctx).Info("case created", "case_id", created.ID, "owner", owner)
	uc.notify(ctx, notification.TypeSuccess, "Case created successfully")
	return created, nil
}

// UpdateCase replaces the editable fields. History, owner and sharing are
// kept. Cases are closed through CloseCase only.
func (uc *CaseUseCase) UpdateCase(ctx context.Context, id types.CaseID, input CaseInput) (*model.Case, error) {
	const failMsg = "Failed to update case"

	c, err := uc.getCase(ctx, id)
	if err != nil {
		return nil, uc.fail(ctx, err, failMsg)
	}
	if err := c.EnsureMutable(); err != nil {
		return nil, uc.fail(ctx, err, failMsg)
	}
	if err := validateCaseInput(&input); err != nil {
		return nil, uc.fail(ctx, err, failMsg)
	}
	if input.Status == types.CaseStatusClosed {
		return nil, uc.fail(ctx, goerr.Wrap(model.ErrValidation, "use the close operation to close a case",
			goerr.V(model.FieldKey, "status"), goerr.V(CaseIDKey, id)), failMsg)
	}

	next := c.Clone()
	next.Title = input.Title
	next.Description = input.Description
	next.Status = input.Status
	next.References = model.CleanReferences(input.References)
	next.PendingContact = strings.TrimSpace(input.PendingContact)

	updated, err := uc.save(ctx, next)
	if err != nil {
		return nil, uc.fail(ctx, err, failMsg)
	}

	uc.notify(ctx, notification.TypeSuccess, "Case updated successfully")
	return updated, nil
}

// DeleteCase removes an open case and its stored attachments
func (uc *CaseUseCase) DeleteCase(ctx context.Context, id types.CaseID) error {
	const failMsg = "Failed to delete case"

	c, err := uc.getCase(ctx, id)
	if err != nil {
		return uc.fail(ctx, err, failMsg)
	}
	if err := c.EnsureMutable(); err != nil {
		return uc.fail(ctx, err, failMsg)
	}

	if err := uc.repo.Case().Delete(ctx, id); err != nil {
		return uc.fail(ctx, goerr.Wrap(err, "failed to delete case", goerr.V(CaseIDKey, id)), failMsg)
	}
	uc.discardAttachments(ctx, c.Attachments())

	logging.From(ctx).Info("case deleted", "case_id", id)
	uc.notify(ctx, notification.TypeSuccess, "Case deleted successfully")
	return nil
}

func (uc *CaseUseCase) GetCase(ctx context.Context, id types.CaseID) (*model.Case, error) {
	return uc.getCase(ctx, id)
}

// accessibleCases returns owned, shared and unowned cases of the actor,
// deduplicated by id
func (uc *CaseUseCase) accessibleCases(ctx context.Context) ([]*model.Case, error) {
	userID, ok := actor(ctx)
	if !ok {
		cases, err := uc.repo.Case().List(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list cases")
		}
		return cases, nil
	}

	filters := [][]interfaces.ListCaseOption{
		{interfaces.WithOwner(userID)},
		{interfaces.WithSharedWith(userID)},
		{interfaces.WithOwner("")},
	}

	seen := make(map[types.CaseID]struct{})
	var cases []*model.Case
	for _, opts := range filters {
		found, err := uc.repo.Case().List(ctx, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list cases", goerr.V(UserIDKey, userID))
		}
		for _, c := range found {
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			cases = append(cases, c)
		}
	}
	return cases, nil
}

// ListCases returns the accessible cases matching query in bucket order
func (uc *CaseUseCase) ListCases(ctx context.Context, query string) ([]*model.Case, error) {
	groups, err := uc.GroupedCases(ctx, query)
	if err != nil {
		return nil, err
	}
	return groups.Flatten(), nil
}

// GroupedCases returns the accessible cases matching query partitioned by
// status
func (uc *CaseUseCase) GroupedCases(ctx context.Context, query string) (model.CaseGroups, error) {
	cases, err := uc.accessibleCases(ctx)
	if err != nil {
		return nil, err
	}
	return model.GroupCases(model.FilterCases(cases, query)), nil
}

func (uc *CaseUseCase) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	cases, err := uc.accessibleCases(ctx)
	if err != nil {
		return nil, err
	}
	return model.BuildDashboard(cases), nil
}

// ShareCase grants the user registered with email access to the case. Only
// the owner may share.
func (uc *CaseUseCase) ShareCase(ctx context.Context, id types.CaseID, email string) (*model.Case, error) {
	const failMsg = "Failed to share case"

	c, err := uc.getCase(ctx, id)
	if err != nil {
		return nil, uc.fail(ctx, err, failMsg)
	}
	if err := c.EnsureMutable(); err != nil {
		return nil, uc.fail(ctx, err, failMsg)
	}
	if userID, ok := actor(ctx); ok && c.Owner != userID {
		return nil, uc.fail(ctx, goerr.Wrap(ErrAccessDenied, "only the owner can share a case",
			goerr.V(CaseIDKey, id), goerr.V(UserIDKey, userID)), failMsg)
	}

	target, err := uc.repo.User().FindByEmail(ctx, email)
	if err != nil {
		return nil, uc.fail(ctx, goerr.Wrap(err, "failed to look up user", goerr.V(EmailKey, email)), failMsg)
	}
	if target == nil {
		return nil, uc.fail(ctx, goerr.Wrap(ErrUserNotFound, "no user with email", goerr.V(EmailKey, email)), failMsg)
	}

	next := c.Clone()
	if !next.ShareWith(target.ID) {
		uc.notify(ctx, notification.TypeInfo, "The case is already shared with "+target.Email)
		return c, nil
	}

	updated, err := uc.save(ctx, next)
	if err != nil {
		return nil, uc.fail(ctx, err, failMsg)
	}

	uc.notify(ctx, notification.TypeSuccess, "Case shared with "+target.Email)
	return updated, nil
}

// ResetAllData deletes cases and their stored attachments. A signed-in
// actor only removes the accessible cases that are not closed; the full wipe
// is reserved for the system actor.
func (uc *CaseUseCase) ResetAllData(ctx context.Context) error {
	const failMsg = "Failed to reset data"

	if _, ok := actor(ctx); ok {
		return uc.resetAccessible(ctx, failMsg)
	}

	cases, err := uc.repo.Case().List(ctx)
	if err != nil {
		return uc.fail(ctx, goerr.Wrap(err, "failed to list cases"), failMsg)
	}
	if err := uc.repo.Case().DeleteAll(ctx); err != nil {
		return uc.fail(ctx, goerr.Wrap(err, "failed to delete all cases"), failMsg)
	}

	var attachments []model.Attachment
	for _, c := range cases {
		attachments = append(attachments, c.Attachments()...)
	}
	uc.discardAttachments(ctx, attachments)

	logging.From(ctx).Warn("all cases deleted", "count", len(cases))
	uc.notify(ctx, notification.TypeSuccess, "Data reset successfully")
	return nil
}

func (uc *CaseUseCase) resetAccessible(ctx context.Context, failMsg string) error {
	cases, err := uc.accessibleCases(ctx)
	if err != nil {
		return uc.fail(ctx, err, failMsg)
	}

	var deleted int
	for _, c := range cases {
		if c.IsClosed() {
			continue
		}
		if err := uc.repo.Case().Delete(ctx, c.ID); err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				continue
			}
			return uc.fail(ctx, goerr.Wrap(err, "failed to delete case", goerr.V(CaseIDKey, c.ID)), failMsg)
		}
		uc.discardAttachments(ctx, c.Attachments())
		deleted++
	}

	logging.From(ctx).Warn("accessible cases deleted", "count", deleted)
	uc.notify(ctx, notification.TypeSuccess, "Data reset successfully")
	return nil
}
