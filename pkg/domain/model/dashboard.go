package model

import (
	"slices"
	"strings"

	"github.com/secmon-lab/casedesk/pkg/domain/types"
)

// RecentCasesLimit is the number of cases in the dashboard recent feed
const RecentCasesLimit = 5

// CaseGroup is one status bucket of the list view
type CaseGroup struct {
	Status types.CaseStatus
	Cases  []*Case
}

// CaseGroups holds the five status buckets in fixed order
type CaseGroups []CaseGroup

// Flatten concatenates the buckets in order
func (g CaseGroups) Flatten() []*Case {
	var total int
	for _, group := range g {
		total += len(group.Cases)
	}
	result := make([]*Case, 0, total)
	for _, group := range g {
		result = append(result, group.Cases...)
	}
	return result
}

// Bucket returns the cases of one status
func (g CaseGroups) Bucket(status types.CaseStatus) []*Case {
	for _, group := range g {
		if group.Status == status {
			return group.Cases
		}
	}
	return nil
}

// PendingContactEntry is one case or step waiting on a person
type PendingContactEntry struct {
	CaseID          types.CaseID
	CaseTitle       string
	CaseDescription string
	CaseStatus      types.CaseStatus
	FromCase        bool
	StepTitle       string
	StepDescription string
}

// PendingContactGroup collects everything waiting on one person
type PendingContactGroup struct {
	Person string
	Cases  []PendingContactEntry
}

// DashboardStats is the aggregate view of a case list
type DashboardStats struct {
	Total           int
	ByStatus        map[types.CaseStatus]int
	Percentages     map[types.CaseStatus]float64
	RecentCases     []*Case
	PendingContacts []PendingContactGroup
	OpenCases       int
	ResolvedCases   int
}

// FilterCases keeps cases whose title, description or ID contains query,
// case-insensitively. A blank query keeps everything.
func FilterCases(cases []*Case, query string) []*Case {
	if strings.TrimSpace(query) == "" {
		return cases
	}
	q := strings.ToLower(query)

	result := make([]*Case, 0, len(cases))
	for _, c := range cases {
		if strings.Contains(strings.ToLower(c.Title), q) ||
			strings.Contains(strings.ToLower(c.Description), q) ||
			strings.Contains(strings.ToLower(c.ID.String()), q) {
			result = append(result, c)
		}
	}
	return result
}

// GroupCases partitions cases into the status buckets, newest first within
// each bucket. Cases with an unknown status are left out.
func GroupCases(cases []*Case) CaseGroups {
	statuses := types.AllCaseStatuses()
	groups := make(CaseGroups, len(statuses))
	index := make(map[types.CaseStatus]int, len(statuses))
	for i, s := range statuses {
		groups[i] = CaseGroup{Status: s, Cases: []*Case{}}
		index[s] = i
	}

	for _, c := range cases {
		if i, ok := index[c.Status]; ok {
			groups[i].Cases = append(groups[i].Cases, c)
		}
	}

	for i := range groups {
		sortNewestFirst(groups[i].Cases)
	}
	return groups
}

// BuildDashboard computes the dashboard statistics of cases
func BuildDashboard(cases []*Case) *DashboardStats {
	stats := &DashboardStats{
		Total:       len(cases),
		ByStatus:    make(map[types.CaseStatus]int),
		Percentages: make(map[types.CaseStatus]float64),
	}

	for _, s := range types.AllCaseStatuses() {
		stats.ByStatus[s] = 0
	}
	for _, c := range cases {
		if _, ok := stats.ByStatus[c.Status]; ok {
			stats.ByStatus[c.Status]++
		}
	}

	for s, n := range stats.ByStatus {
		if stats.Total > 0 {
			stats.Percentages[s] = float64(n) / float64(stats.Total) * 100
		} else {
			stats.Percentages[s] = 0
		}
		if s.IsActive() {
			stats.OpenCases += n
		}
		if s.IsFinished() {
			stats.ResolvedCases += n
		}
	}

	stats.RecentCases = recentCases(cases)
	stats.PendingContacts = pendingContacts(cases)
	return stats
}

// recentCases returns the newest non-closed cases. Closed cases are no
// longer actionable and stay out of the feed.
func recentCases(cases []*Case) []*Case {
	open := make([]*Case, 0, len(cases))
	for _, c := range cases {
		if !c.IsClosed() {
			open = append(open, c)
		}
	}
	sortNewestFirst(open)
	if len(open) > RecentCasesLimit {
		open = open[:RecentCasesLimit]
	}
	return open
}

func pendingContacts(cases []*Case) []PendingContactGroup {
	type stepKey struct {
		caseID types.CaseID
		title  string
	}

	var groups []PendingContactGroup
	index := make(map[string]int)
	seenSteps := make(map[string]map[stepKey]struct{})

	groupOf := func(person string) *PendingContactGroup {
		i, ok := index[person]
		if !ok {
			i = len(groups)
			index[person] = i
			groups = append(groups, PendingContactGroup{Person: person})
			seenSteps[person] = make(map[stepKey]struct{})
		}
		return &groups[i]
	}

	for _, c := range cases {
		if c.IsClosed() {
			continue
		}

		if person := strings.TrimSpace(c.PendingContact); person != "" {
			g := groupOf(person)
			g.Cases = append(g.Cases, PendingContactEntry{
				CaseID:          c.ID,
				CaseTitle:       c.Title,
				CaseDescription: c.Description,
				CaseStatus:      c.Status,
				FromCase:        true,
			})
		}

		for _, step := range c.History {
			person := strings.TrimSpace(step.PendingContact)
			if person == "" {
				continue
			}
			g := groupOf(person)
			key := stepKey{caseID: c.ID, title: step.Title}
			if _, dup := seenSteps[person][key]; dup {
				continue
			}
			seenSteps[person][key] = struct{}{}
			g.Cases = append(g.Cases, PendingContactEntry{
				CaseID:          c.ID,
				CaseTitle:       c.Title,
				CaseDescription: c.Description,
				CaseStatus:      c.Status,
				StepTitle:       step.Title,
				StepDescription: step.Description,
			})
		}
	}

	if groups == nil {
		return []PendingContactGroup{}
	}
	return groups
}

func sortNewestFirst(cases []*Case) {
	slices.SortStableFunc(cases, func(a, b *Case) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
