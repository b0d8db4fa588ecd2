package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/casedesk/pkg/domain/model"
	"github.com/secmon-lab/casedesk/pkg/domain/types"
)

func newOpenCase(t *testing.T) *model.Case {
	t.Helper()
	c := model.NewCase("Bike theft", "Bike stolen from garage", types.CaseStatusOpen,
		[]string{" REF-1 ", "", "  "}, " Officer Diaz ", "user-1", baseTime)
	c.ID = "1"
	return c
}

func TestNewCase(t *testing.T) {
	c := newOpenCase(t)

	gt.Value(t, c.References).Equal([]string{"REF-1"})
	gt.Value(t, c.PendingContact).Equal("Officer Diaz")
	gt.Value(t, c.Owner).Equal(types.UserID("user-1"))
	gt.Value(t, c.CreatedAt).Equal(baseTime)
	gt.A(t, c.History).Length(1)
	gt.Value(t, c.History[0].Title).Equal(model.StepTitleCaseOpened)
	gt.Value(t, c.History[0].Timestamp).Equal(baseTime)
	gt.B(t, c.History[0].IsSystemAction).False()
	gt.Value(t, c.History[0].ID).NotEqual(types.StepID(""))
}

func TestValidateText(t *testing.T) {
	gt.NoError(t, model.ValidateText("a", "b"))
	gt.Error(t, model.ValidateText("  ", "b")).Is(model.ErrValidation)
	gt.Error(t, model.ValidateText("a", "\t")).Is(model.ErrValidation)
}

func TestCase_AddStep(t *testing.T) {
	c := newOpenCase(t)
	now := baseTime.Add(time.Hour)

	step, err := c.AddStep("Call witness", "Phoned the neighbour", nil, " Ana ", now)
	gt.NoError(t, err).Required()
	gt.Value(t, step.Title).Equal("Call witness")
	gt.Value(t, step.PendingContact).Equal("Ana")
	gt.Value(t, step.Timestamp).Equal(now)
	gt.A(t, c.History).Length(2)

	_, err = c.AddStep("", "x", nil, "", now)
	gt.Error(t, err).Is(model.ErrValidation)
	gt.A(t, c.History).Length(2)
}

func TestCase_EditStep(t *testing.T) {
	c := newOpenCase(t)
	step, err := c.AddStep("Call witness", "Phoned the neighbour", nil, "Ana", baseTime.Add(time.Hour))
	gt.NoError(t, err).Required()
	stepID := step.ID

	editedAt := baseTime.Add(2 * time.Hour)
	gt.NoError(t, c.EditStep(stepID, "Call witness again", "No answer", nil, "", editedAt)).Required()

	_, edited := c.FindStep(stepID)
	gt.Value(t, edited).NotNil()
	gt.Value(t, edited.Title).Equal("Call witness again")
	gt.Value(t, edited.PendingContact).Equal("")
	gt.Value(t, edited.Timestamp).Equal(baseTime.Add(time.Hour))
	gt.Value(t, *edited.LastEdited).Equal(editedAt)

	gt.A(t, c.History).Length(3)
	audit := c.History[2]
	gt.Value(t, audit.Title).Equal(model.StepTitleEdited)
	gt.String(t, audit.Description).Contains(`"Call witness"`)
	gt.B(t, audit.IsSystemAction).True()

	gt.Error(t, c.EditStep("missing", "a", "b", nil, "", editedAt)).Is(model.ErrStepNotFound)
}

func TestCase_DeleteStep(t *testing.T) {
	c := newOpenCase(t)
	step, err := c.AddStep("Call witness", "Phoned the neighbour", nil, "", baseTime.Add(time.Hour))
	gt.NoError(t, err).Required()
	stepID := step.ID
	before := len(c.History)

	deleted, err := c.DeleteStep(stepID, baseTime.Add(2*time.Hour))
	gt.NoError(t, err).Required()
	gt.Value(t, deleted.Title).Equal("Call witness")

	// one removed, one audit added
	gt.A(t, c.History).Length(before)
	idx, _ := c.FindStep(stepID)
	gt.Value(t, idx).Equal(-1)

	last := c.History[len(c.History)-1]
	gt.Value(t, last.Title).Equal(model.StepTitleDeleted)
	gt.String(t, last.Description).Contains("Call witness")
	gt.B(t, last.IsSystemAction).True()

	_, err = c.DeleteStep(stepID, baseTime)
	gt.Error(t, err).Is(model.ErrStepNotFound)
}

func TestCase_Close(t *testing.T) {
	c := newOpenCase(t)
	_, err := c.AddStep("Ask lab", "Waiting for results", nil, "Dr. Smith", baseTime.Add(time.Hour))
	gt.NoError(t, err).Required()

	evidence := []model.Attachment{{ID: "a1", Name: "report.pdf", MimeType: "application/pdf", SizeBytes: 3, Data: []byte("pdf")}}
	closedAt := baseTime.Add(3 * time.Hour)
	gt.NoError(t, c.Close(evidence, closedAt)).Required()

	gt.Value(t, c.Status).Equal(types.CaseStatusClosed)
	for _, s := range c.History {
		gt.Value(t, s.PendingContact).Equal("")
	}
	last := c.History[len(c.History)-1]
	gt.Value(t, last.Title).Equal(model.StepTitleCaseClosed)
	gt.Value(t, last.Timestamp).Equal(closedAt)
	gt.A(t, last.Attachments).Length(1)
	gt.B(t, last.IsSystemAction).True()

	gt.A(t, model.BuildDashboard([]*model.Case{c}).PendingContacts).Length(0)

	t.Run("closing twice fails", func(t *testing.T) {
		gt.Error(t, c.Close(nil, closedAt)).Is(model.ErrCaseClosed)
	})
}

func TestCase_ClosedIsImmutable(t *testing.T) {
	c := newOpenCase(t)
	gt.NoError(t, c.Close(nil, baseTime)).Required()
	stepID := c.History[0].ID
	snapshot := c.Clone()

	_, err := c.AddStep("a", "b", nil, "", baseTime)
	gt.Error(t, err).Is(model.ErrCaseClosed)
	gt.Error(t, c.EditStep(stepID, "a", "b", nil, "", baseTime)).Is(model.ErrCaseClosed)
	_, err = c.DeleteStep(stepID, baseTime)
	gt.Error(t, err).Is(model.ErrCaseClosed)

	gt.Value(t, c).Equal(snapshot)
}

func TestCase_Access(t *testing.T) {
	c := newOpenCase(t)

	gt.B(t, c.IsAccessibleBy("user-1")).True()
	gt.B(t, c.IsAccessibleBy("user-2")).False()

	gt.B(t, c.ShareWith("user-2")).True()
	gt.B(t, c.ShareWith("user-2")).False()
	gt.B(t, c.ShareWith("user-1")).False()
	gt.B(t, c.IsAccessibleBy("user-2")).True()

	unowned := &model.Case{ID: "2"}
	gt.B(t, unowned.IsAccessibleBy("anyone")).True()
}

func TestCase_Clone(t *testing.T) {
	c := newOpenCase(t)
	_, err := c.AddStep("a", "b", []model.Attachment{{Name: "x", Data: []byte("abc")}}, "", baseTime)
	gt.NoError(t, err).Required()

	copied := c.Clone()
	gt.Value(t, copied).Equal(c)

	copied.History[1].Attachments[0].Data[0] = 'z'
	copied.References[0] = "changed"
	copied.History[0].Title = "changed"

	gt.Value(t, c.History[1].Attachments[0].Data).Equal([]byte("abc"))
	gt.Value(t, c.References[0]).Equal("REF-1")
	gt.Value(t, c.History[0].Title).Equal(model.StepTitleCaseOpened)
}
