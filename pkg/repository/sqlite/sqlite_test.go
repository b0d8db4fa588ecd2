package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/casedesk/pkg/domain/model"
	"github.com/secmon-lab/casedesk/pkg/domain/types"
	"github.com/secmon-lab/casedesk/pkg/repository/sqlite"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func openStore(t *testing.T, path string) *sqlite.SQLite {
	t.Helper()
	s, err := sqlite.New(context.Background(), path, sqlite.WithClock(func() time.Time { return fixedNow }))
	gt.NoError(t, err).Required()
	return s
}

func TestNew_SeedsExampleCase(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "casedesk.db"))
	defer func() { gt.NoError(t, s.Close()) }()

	cases, err := s.Case().List(ctx)
	gt.NoError(t, err).Required()
	gt.A(t, cases).Length(1)
	gt.Value(t, cases[0].ID).Equal(types.CaseID("1"))
	gt.Value(t, cases[0].Status).Equal(types.CaseStatusOpen)
	gt.A(t, cases[0].History).Length(1)
	gt.Value(t, cases[0].History[0].Title).Equal(model.StepTitleCaseOpened)

	created, err := s.Case().Create(ctx, model.NewCase("Second", "desc", types.CaseStatusOpen, nil, "", "", fixedNow))
	gt.NoError(t, err).Required()
	gt.Value(t, created.ID).Equal(types.CaseID("2"))
}

func TestNew_LoadsPersistedState(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "casedesk.db")

	s := openStore(t, path)
	gt.NoError(t, s.Case().DeleteAll(ctx)).Required()
	c := model.NewCase("Persisted", "desc", types.CaseStatusPending, []string{"R-1"}, "Ana", "u1", fixedNow)
	_, err := c.AddStep("Attach", "file", []model.Attachment{{ID: "a1", Name: "x.bin", Data: []byte{1, 2, 3}}}, "", fixedNow)
	gt.NoError(t, err).Required()
	created, err := s.Case().Create(ctx, c)
	gt.NoError(t, err).Required()
	gt.NoError(t, s.Close()).Required()

	reopened := openStore(t, path)
	defer func() { gt.NoError(t, reopened.Close()) }()

	cases, err := reopened.Case().List(ctx)
	gt.NoError(t, err).Required()
	// emptied store is not seeded again
	gt.A(t, cases).Length(1)
	gt.Value(t, cases[0].ID).Equal(created.ID)
	gt.Value(t, cases[0].PendingContact).Equal("Ana")
	gt.Value(t, cases[0].History[1].Attachments[0].Data).Equal([]byte{1, 2, 3})

	next, err := reopened.Case().Create(ctx, model.NewCase("Next", "desc", types.CaseStatusOpen, nil, "", "", fixedNow))
	gt.NoError(t, err).Required()
	gt.Value(t, next.ID).Equal(types.CaseID("2"))
}

func TestMutate_RollsBackOnWriteFailure(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "casedesk.db"))

	before, err := s.Case().Get(ctx, "1")
	gt.NoError(t, err).Required()

	gt.NoError(t, sqlite.CloseDB(s)).Required()

	_, err = s.Case().Create(ctx, model.NewCase("Lost", "desc", types.CaseStatusOpen, nil, "", "", fixedNow))
	gt.Error(t, err)

	changed := before.Clone()
	changed.Title = "Changed"
	_, err = s.Case().Update(ctx, changed)
	gt.Error(t, err)

	gt.Error(t, s.Case().Delete(ctx, "1"))

	cases, err := s.Case().List(ctx)
	gt.NoError(t, err).Required()
	gt.A(t, cases).Length(1)
	gt.Value(t, cases[0].Title).Equal(before.Title)
}
