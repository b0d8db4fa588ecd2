package model_test

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/casedesk/pkg/domain/model"
	"github.com/secmon-lab/casedesk/pkg/domain/types"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestCase(id string, status types.CaseStatus, createdOffset time.Duration) *model.Case {
	return &model.Case{
		ID:          types.CaseID(id),
		Title:       "Case " + id,
		Description: "Description of case " + id,
		Status:      status,
		CreatedAt:   baseTime.Add(createdOffset),
	}
}

func TestFilterCases(t *testing.T) {
	theft := &model.Case{ID: "12", Title: "Theft report", Description: "Bike stolen from garage", Status: types.CaseStatusOpen}
	noise := &model.Case{ID: "7", Title: "Noise complaint", Description: "Loud music at night", Status: types.CaseStatusPending}
	cases := []*model.Case{theft, noise}

	t.Run("matches title case-insensitively", func(t *testing.T) {
		got := model.FilterCases(cases, "theft")
		gt.A(t, got).Length(1)
		gt.Value(t, got[0].ID).Equal(theft.ID)
	})

	t.Run("no match excludes everything", func(t *testing.T) {
		gt.A(t, model.FilterCases(cases, "xyz")).Length(0)
	})

	t.Run("matches description", func(t *testing.T) {
		got := model.FilterCases(cases, "MUSIC")
		gt.A(t, got).Length(1)
		gt.Value(t, got[0].ID).Equal(noise.ID)
	})

	t.Run("matches identifier", func(t *testing.T) {
		got := model.FilterCases(cases, "12")
		gt.A(t, got).Length(1)
		gt.Value(t, got[0].ID).Equal(theft.ID)
	})

	t.Run("blank query keeps all", func(t *testing.T) {
		gt.A(t, model.FilterCases(cases, "   ")).Length(2)
	})
}

func TestGroupCases(t *testing.T) {
	cases := []*model.Case{
		newTestCase("1", types.CaseStatusClosed, 1*time.Hour),
		newTestCase("2", types.CaseStatusOpen, 2*time.Hour),
		newTestCase("3", types.CaseStatusOpen, 5*time.Hour),
		newTestCase("4", types.CaseStatusPending, 3*time.Hour),
		newTestCase("5", types.CaseStatusInProgress, 4*time.Hour),
		newTestCase("6", types.CaseStatusOpen, 0),
	}

	groups := model.GroupCases(cases)
	gt.A(t, groups).Length(5)
	for i, s := range types.AllCaseStatuses() {
		gt.Value(t, groups[i].Status).Equal(s)
	}

	open := groups.Bucket(types.CaseStatusOpen)
	gt.A(t, open).Length(3)
	gt.Value(t, open[0].ID).Equal(types.CaseID("3"))
	gt.Value(t, open[1].ID).Equal(types.CaseID("2"))
	gt.Value(t, open[2].ID).Equal(types.CaseID("6"))

	flat := groups.Flatten()
	ids := make([]types.CaseID, len(flat))
	for i, c := range flat {
		ids[i] = c.ID
	}
	gt.Value(t, ids).Equal([]types.CaseID{"3", "2", "6", "5", "4", "1"})

	// input order is not touched
	gt.Value(t, cases[0].ID).Equal(types.CaseID("1"))
}

func TestGroupCases_DropsUnknownStatus(t *testing.T) {
	cases := []*model.Case{
		newTestCase("1", types.CaseStatus("abierto"), 0),
		newTestCase("2", types.CaseStatusResolved, 0),
	}
	flat := model.GroupCases(cases).Flatten()
	gt.A(t, flat).Length(1)
	gt.Value(t, flat[0].ID).Equal(types.CaseID("2"))
}

func TestGroupCases_PartitionProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	statuses := types.AllCaseStatuses()

	for round := 0; round < 50; round++ {
		n := rng.IntN(40)
		cases := make([]*model.Case, n)
		for i := range cases {
			cases[i] = newTestCase(
				fmt.Sprintf("%d", i+1),
				statuses[rng.IntN(len(statuses))],
				time.Duration(rng.IntN(1000))*time.Minute,
			)
		}

		groups := model.GroupCases(cases)
		seen := make(map[types.CaseID]int)
		for _, g := range groups {
			for i, c := range g.Cases {
				seen[c.ID]++
				gt.Value(t, c.Status).Equal(g.Status)
				if i > 0 {
					gt.B(t, g.Cases[i-1].CreatedAt.Before(c.CreatedAt)).False()
				}
			}
		}
		gt.Value(t, len(seen)).Equal(n)
		for id, count := range seen {
			gt.Value(t, count).Describef("case %s appears once", id).Equal(1)
		}
	}
}

func TestBuildDashboard_Empty(t *testing.T) {
	stats := model.BuildDashboard(nil)

	gt.Value(t, stats.Total).Equal(0)
	gt.A(t, stats.RecentCases).Length(0)
	gt.A(t, stats.PendingContacts).Length(0)
	for _, s := range types.AllCaseStatuses() {
		gt.Value(t, stats.ByStatus[s]).Equal(0)
		gt.Value(t, stats.Percentages[s]).Equal(0.0)
	}
}

func TestBuildDashboard_Counts(t *testing.T) {
	cases := []*model.Case{
		newTestCase("1", types.CaseStatusOpen, 0),
		newTestCase("2", types.CaseStatusOpen, time.Hour),
		newTestCase("3", types.CaseStatusInProgress, 2*time.Hour),
		newTestCase("4", types.CaseStatusResolved, 3*time.Hour),
		newTestCase("5", types.CaseStatusClosed, 4*time.Hour),
		newTestCase("6", types.CaseStatus("unknown"), 5*time.Hour),
	}

	stats := model.BuildDashboard(cases)

	gt.Value(t, stats.Total).Equal(6)
	gt.Value(t, stats.ByStatus[types.CaseStatusOpen]).Equal(2)
	gt.Value(t, stats.ByStatus[types.CaseStatusInProgress]).Equal(1)
	gt.Value(t, stats.ByStatus[types.CaseStatusPending]).Equal(0)
	gt.Value(t, stats.ByStatus[types.CaseStatusResolved]).Equal(1)
	gt.Value(t, stats.ByStatus[types.CaseStatusClosed]).Equal(1)
	gt.Value(t, len(stats.ByStatus)).Equal(5)
	gt.Value(t, stats.OpenCases).Equal(3)
	gt.Value(t, stats.ResolvedCases).Equal(2)
	gt.B(t, math.Abs(stats.Percentages[types.CaseStatusOpen]-2.0/6*100) < 1e-9).True()
}

func TestBuildDashboard_PercentagesSumTo100(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	statuses := types.AllCaseStatuses()

	for round := 0; round < 50; round++ {
		n := 1 + rng.IntN(30)
		cases := make([]*model.Case, n)
		for i := range cases {
			cases[i] = newTestCase(fmt.Sprintf("%d", i), statuses[rng.IntN(len(statuses))], 0)
		}

		var sum float64
		for _, p := range model.BuildDashboard(cases).Percentages {
			sum += p
		}
		gt.B(t, math.Abs(sum-100) < 1e-9).Describef("sum=%f", sum).True()
	}
}

func TestBuildDashboard_RecentCases(t *testing.T) {
	cases := []*model.Case{
		newTestCase("1", types.CaseStatusOpen, 1*time.Hour),
		newTestCase("2", types.CaseStatusClosed, 10*time.Hour),
		newTestCase("3", types.CaseStatusPending, 3*time.Hour),
		newTestCase("4", types.CaseStatusResolved, 4*time.Hour),
		newTestCase("5", types.CaseStatusOpen, 5*time.Hour),
		newTestCase("6", types.CaseStatusInProgress, 6*time.Hour),
		newTestCase("7", types.CaseStatusOpen, 0),
	}

	recent := model.BuildDashboard(cases).RecentCases
	gt.A(t, recent).Length(model.RecentCasesLimit)

	ids := make([]types.CaseID, len(recent))
	for i, c := range recent {
		ids[i] = c.ID
	}
	// closed case 2 is the newest but must not be listed
	gt.Value(t, ids).Equal([]types.CaseID{"6", "5", "4", "3", "1"})
}

func TestBuildDashboard_PendingContacts(t *testing.T) {
	t.Run("case-level and step-level entries share one person", func(t *testing.T) {
		c1 := newTestCase("1", types.CaseStatusOpen, 0)
		c1.PendingContact = "Dr. Smith"

		c2 := newTestCase("2", types.CaseStatusPending, time.Hour)
		c2.History = []model.Step{
			{Title: "Request lab results", Description: "Asked for results", PendingContact: "Dr. Smith"},
		}

		groups := model.BuildDashboard([]*model.Case{c1, c2}).PendingContacts
		gt.A(t, groups).Length(1)
		gt.Value(t, groups[0].Person).Equal("Dr. Smith")
		gt.A(t, groups[0].Cases).Length(2)

		gt.Value(t, groups[0].Cases[0].CaseID).Equal(types.CaseID("1"))
		gt.B(t, groups[0].Cases[0].FromCase).True()
		gt.Value(t, groups[0].Cases[1].CaseID).Equal(types.CaseID("2"))
		gt.B(t, groups[0].Cases[1].FromCase).False()
		gt.Value(t, groups[0].Cases[1].StepTitle).Equal("Request lab results")
	})

	t.Run("duplicate step titles are listed once per person", func(t *testing.T) {
		c := newTestCase("1", types.CaseStatusOpen, 0)
		c.History = []model.Step{
			{Title: "Call back", PendingContact: "Ana"},
			{Title: "Call back", PendingContact: "Ana"},
			{Title: "Call back", PendingContact: "Luis"},
		}

		groups := model.BuildDashboard([]*model.Case{c}).PendingContacts
		gt.A(t, groups).Length(2)
		gt.Value(t, groups[0].Person).Equal("Ana")
		gt.A(t, groups[0].Cases).Length(1)
		gt.Value(t, groups[1].Person).Equal("Luis")
		gt.A(t, groups[1].Cases).Length(1)
	})

	t.Run("case entry and same-titled step entry are both kept", func(t *testing.T) {
		c := newTestCase("1", types.CaseStatusOpen, 0)
		c.PendingContact = "Ana"
		c.History = []model.Step{{Title: "Follow up", PendingContact: "Ana"}}

		groups := model.BuildDashboard([]*model.Case{c}).PendingContacts
		gt.A(t, groups).Length(1)
		gt.A(t, groups[0].Cases).Length(2)
	})

	t.Run("names are trimmed and blanks ignored", func(t *testing.T) {
		c := newTestCase("1", types.CaseStatusOpen, 0)
		c.PendingContact = "  Ana "
		c.History = []model.Step{
			{Title: "x", PendingContact: "   "},
			{Title: "y", PendingContact: "Ana"},
		}

		groups := model.BuildDashboard([]*model.Case{c}).PendingContacts
		gt.A(t, groups).Length(1)
		gt.Value(t, groups[0].Person).Equal("Ana")
		gt.A(t, groups[0].Cases).Length(2)
	})

	t.Run("closed cases contribute nothing", func(t *testing.T) {
		c := newTestCase("1", types.CaseStatusClosed, 0)
		c.PendingContact = "Ana"
		c.History = []model.Step{{Title: "y", PendingContact: "Ana"}}

		gt.A(t, model.BuildDashboard([]*model.Case{c}).PendingContacts).Length(0)
	})

	t.Run("groups keep first encounter order", func(t *testing.T) {
		c1 := newTestCase("1", types.CaseStatusOpen, 0)
		c1.PendingContact = "Zoe"
		c2 := newTestCase("2", types.CaseStatusOpen, 0)
		c2.PendingContact = "Adam"
		c3 := newTestCase("3", types.CaseStatusOpen, 0)
		c3.PendingContact = "Zoe"

		groups := model.BuildDashboard([]*model.Case{c1, c2, c3}).PendingContacts
		gt.A(t, groups).Length(2)
		gt.Value(t, groups[0].Person).Equal("Zoe")
		gt.A(t, groups[0].Cases).Length(2)
		gt.Value(t, groups[1].Person).Equal("Adam")
	})
}
