package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/casedesk/pkg/domain/interfaces"
	"github.com/secmon-lab/casedesk/pkg/domain/model"
	"github.com/secmon-lab/casedesk/pkg/domain/types"
)

func newCase(title string, status types.CaseStatus, owner types.UserID) *model.Case {
	return model.NewCase(title, title+" description", status, []string{"REF-1"}, "", owner,
		time.Now().UTC().Truncate(time.Millisecond))
}

func runCaseRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create assigns sequential IDs", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created1, err := repo.Case().Create(ctx, newCase("Stolen bike", types.CaseStatusOpen, "u1"))
		gt.NoError(t, err).Required()
		gt.Value(t, created1.ID).Equal(types.CaseID("1"))
		gt.Value(t, created1.Title).Equal("Stolen bike")
		gt.Bool(t, created1.CreatedAt.IsZero()).False()
		gt.Bool(t, created1.UpdatedAt.IsZero()).False()

		created2, err := repo.Case().Create(ctx, newCase("Noise", types.CaseStatusOpen, "u1"))
		gt.NoError(t, err).Required()
		gt.Value(t, created2.ID).Equal(types.CaseID("2"))
	})

	t.Run("Get returns the stored case with history", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		c := newCase("Lost wallet", types.CaseStatusPending, "u1")
		c.PendingContact = "Ana"
		_, err := c.AddStep("Call", "Called the station", []model.Attachment{
			{ID: "a1", Name: "note.txt", MimeType: "text/plain", SizeBytes: 5, Data: []byte("hello")},
		}, "Luis", c.CreatedAt.Add(time.Minute))
		gt.NoError(t, err).Required()

		created, err := repo.Case().Create(ctx, c)
		gt.NoError(t, err).Required()

		got, err := repo.Case().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Title).Equal("Lost wallet")
		gt.Value(t, got.Status).Equal(types.CaseStatusPending)
		gt.Value(t, got.PendingContact).Equal("Ana")
		gt.Value(t, got.References).Equal([]string{"REF-1"})
		gt.Value(t, got.Owner).Equal(types.UserID("u1"))
		gt.A(t, got.History).Length(2)
		gt.Value(t, got.History[0].Title).Equal(model.StepTitleCaseOpened)
		gt.Value(t, got.History[1].PendingContact).Equal("Luis")
		gt.A(t, got.History[1].Attachments).Length(1)
		gt.Value(t, got.History[1].Attachments[0].Data).Equal([]byte("hello"))
		gt.Bool(t, got.CreatedAt.Equal(c.CreatedAt)).True()
	})

	t.Run("Get returns not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Case().Get(context.Background(), "999")
		gt.Bool(t, isNotFound(err)).True()
	})

	t.Run("returned cases are copies", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Case().Create(ctx, newCase("Copy", types.CaseStatusOpen, "u1"))
		gt.NoError(t, err).Required()
		created.Title = "mutated"
		created.History[0].Title = "mutated"

		got, err := repo.Case().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Title).Equal("Copy")
		gt.Value(t, got.History[0].Title).Equal(model.StepTitleCaseOpened)
	})

	t.Run("Update replaces the case and keeps CreatedAt", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Case().Create(ctx, newCase("Before", types.CaseStatusOpen, "u1"))
		gt.NoError(t, err).Required()

		created.Title = "After"
		created.Status = types.CaseStatusInProgress
		created.CreatedAt = time.Time{}
		_, err = created.AddStep("Next", "Next step", nil, "", time.Now().UTC())
		gt.NoError(t, err).Required()

		updated, err := repo.Case().Update(ctx, created)
		gt.NoError(t, err).Required()
		gt.Bool(t, updated.CreatedAt.IsZero()).False()

		got, err := repo.Case().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Title).Equal("After")
		gt.Value(t, got.Status).Equal(types.CaseStatusInProgress)
		gt.A(t, got.History).Length(2)
		gt.Bool(t, got.CreatedAt.IsZero()).False()
	})

	t.Run("Update returns not found", func(t *testing.T) {
		repo := newRepo(t)
		c := newCase("Ghost", types.CaseStatusOpen, "u1")
		c.ID = "999"
		_, err := repo.Case().Update(context.Background(), c)
		gt.Bool(t, isNotFound(err)).True()
	})

	t.Run("Delete removes the case", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Case().Create(ctx, newCase("Delete me", types.CaseStatusOpen, "u1"))
		gt.NoError(t, err).Required()
		gt.NoError(t, repo.Case().Delete(ctx, created.ID)).Required()

		_, err = repo.Case().Get(ctx, created.ID)
		gt.Bool(t, isNotFound(err)).True()

		err = repo.Case().Delete(ctx, created.ID)
		gt.Bool(t, isNotFound(err)).True()
	})

	t.Run("List filters by owner, shared user and status", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		owned := newCase("Owned", types.CaseStatusOpen, "alice")
		shared := newCase("Shared", types.CaseStatusPending, "bob")
		shared.SharedWith = []types.UserID{"alice"}
		other := newCase("Other", types.CaseStatusOpen, "bob")

		for _, c := range []*model.Case{owned, shared, other} {
			_, err := repo.Case().Create(ctx, c)
			gt.NoError(t, err).Required()
		}

		all, err := repo.Case().List(ctx)
		gt.NoError(t, err).Required()
		gt.A(t, all).Length(3)

		byOwner, err := repo.Case().List(ctx, interfaces.WithOwner("alice"))
		gt.NoError(t, err).Required()
		gt.A(t, byOwner).Length(1)
		gt.Value(t, byOwner[0].Title).Equal("Owned")

		bySharing, err := repo.Case().List(ctx, interfaces.WithSharedWith("alice"))
		gt.NoError(t, err).Required()
		gt.A(t, bySharing).Length(1)
		gt.Value(t, bySharing[0].Title).Equal("Shared")

		byStatus, err := repo.Case().List(ctx, interfaces.WithStatus(types.CaseStatusOpen))
		gt.NoError(t, err).Required()
		gt.A(t, byStatus).Length(2)
	})

	t.Run("DeleteAll empties the store and restarts IDs", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for _, title := range []string{"a", "b"} {
			_, err := repo.Case().Create(ctx, newCase(title, types.CaseStatusOpen, "u1"))
			gt.NoError(t, err).Required()
		}
		gt.NoError(t, repo.Case().DeleteAll(ctx)).Required()

		all, err := repo.Case().List(ctx)
		gt.NoError(t, err).Required()
		gt.A(t, all).Length(0)

		created, err := repo.Case().Create(ctx, newCase("c", types.CaseStatusOpen, "u1"))
		gt.NoError(t, err).Required()
		gt.Value(t, created.ID).Equal(types.CaseID("1"))
	})
}
