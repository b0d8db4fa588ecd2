package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/secmon-lab/casedesk/pkg/domain/model"
	"github.com/secmon-lab/casedesk/pkg/domain/types"
	"github.com/secmon-lab/casedesk/pkg/service/notification"
	"github.com/secmon-lab/casedesk/pkg/utils/errutil"
	"github.com/secmon-lab/casedesk/pkg/utils/safe"
)

type attachmentResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Size      int64  `json:"size"`
	SizeLabel string `json:"sizeLabel"`
	Kind      string `json:"kind"`
	URL       string `json:"url"`
}

type stepResponse struct {
	ID             string               `json:"id"`
	Title          string               `json:"title"`
	Description    string               `json:"description"`
	Timestamp      time.Time            `json:"timestamp"`
	Attachments    []attachmentResponse `json:"attachments"`
	PendingContact string               `json:"pendingContact,omitempty"`
	IsSystemAction bool                 `json:"isSystemAction"`
	LastEdited     *time.Time           `json:"lastEdited,omitempty"`
}

type caseResponse struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Status         string         `json:"status"`
	References     []string       `json:"references"`
	PendingContact string         `json:"pendingContact,omitempty"`
	History        []stepResponse `json:"history"`
	Owner          string         `json:"owner,omitempty"`
	SharedWith     []string       `json:"sharedWith"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

type caseGroupResponse struct {
	Status string         `json:"status"`
	Cases  []caseResponse `json:"cases"`
}

type pendingContactEntryResponse struct {
	CaseID          string `json:"caseId"`
	CaseTitle       string `json:"caseTitle"`
	CaseDescription string `json:"caseDescription"`
	CaseStatus      string `json:"caseStatus"`
	FromCase        bool   `json:"fromCase"`
	StepTitle       string `json:"stepTitle,omitempty"`
	StepDescription string `json:"stepDescription,omitempty"`
}

type pendingContactGroupResponse struct {
	Person string                        `json:"person"`
	Cases  []pendingContactEntryResponse `json:"cases"`
}

type dashboardResponse struct {
	Total           int                           `json:"total"`
	ByStatus        map[string]int                `json:"byStatus"`
	Percentages     map[string]float64            `json:"percentages"`
	RecentCases     []caseResponse                `json:"recentCases"`
	PendingContacts []pendingContactGroupResponse `json:"pendingContacts"`
	OpenCases       int                           `json:"openCases"`
	ResolvedCases   int                           `json:"resolvedCases"`
}

type notificationResponse struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	ShownAt   time.Time `json:"shownAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Progress  float64   `json:"progress"`
}

func attachmentURL(caseID types.CaseID, stepID types.StepID, id types.AttachmentID) string {
	return "/api/cases/" + caseID.String() + "/steps/" + stepID.String() + "/attachments/" + id.String()
}

func newCaseResponse(c *model.Case) caseResponse {
	resp := caseResponse{
		ID:             c.ID.String(),
		Title:          c.Title,
		Description:    c.Description,
		Status:         c.Status.String(),
		References:     append([]string{}, c.References...),
		PendingContact: c.PendingContact,
		History:        make([]stepResponse, len(c.History)),
		Owner:          c.Owner.String(),
		SharedWith:     make([]string, len(c.SharedWith)),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
	for i, u := range c.SharedWith {
		resp.SharedWith[i] = u.String()
	}

	for i, step := range c.History {
		s := stepResponse{
			ID:             step.ID.String(),
			Title:          step.Title,
			Description:    step.Description,
			Timestamp:      step.Timestamp,
			Attachments:    make([]attachmentResponse, len(step.Attachments)),
			PendingContact: step.PendingContact,
			IsSystemAction: step.IsSystemAction,
			LastEdited:     step.LastEdited,
		}
		for j, a := range step.Attachments {
			s.Attachments[j] = attachmentResponse{
				ID:        a.ID.String(),
				Name:      a.Name,
				Type:      a.MimeType,
				Size:      a.SizeBytes,
				SizeLabel: a.HumanSize(),
				Kind:      string(a.Kind()),
				URL:       attachmentURL(c.ID, step.ID, a.ID),
			}
		}
		resp.History[i] = s
	}
	return resp
}

func newCaseListResponse(cases []*model.Case) []caseResponse {
	resp := make([]caseResponse, len(cases))
	for i, c := range cases {
		resp[i] = newCaseResponse(c)
	}
	return resp
}

func newCaseGroupsResponse(groups model.CaseGroups) []caseGroupResponse {
	resp := make([]caseGroupResponse, len(groups))
	for i, g := range groups {
		resp[i] = caseGroupResponse{
			Status: g.Status.String(),
			Cases:  newCaseListResponse(g.Cases),
		}
	}
	return resp
}

func newDashboardResponse(stats *model.DashboardStats) dashboardResponse {
	resp := dashboardResponse{
		Total:           stats.Total,
		ByStatus:        make(map[string]int, len(stats.ByStatus)),
		Percentages:     make(map[string]float64, len(stats.Percentages)),
		RecentCases:     newCaseListResponse(stats.RecentCases),
		PendingContacts: make([]pendingContactGroupResponse, len(stats.PendingContacts)),
		OpenCases:       stats.OpenCases,
		ResolvedCases:   stats.ResolvedCases,
	}
	for status, n := range stats.ByStatus {
		resp.ByStatus[status.String()] = n
	}
	for status, p := range stats.Percentages {
		resp.Percentages[status.String()] = p
	}

	for i, group := range stats.PendingContacts {
		entries := make([]pendingContactEntryResponse, len(group.Cases))
		for j, e := range group.Cases {
			entries[j] = pendingContactEntryResponse{
				CaseID:          e.CaseID.String(),
				CaseTitle:       e.CaseTitle,
				CaseDescription: e.CaseDescription,
				CaseStatus:      e.CaseStatus.String(),
				FromCase:        e.FromCase,
				StepTitle:       e.StepTitle,
				StepDescription: e.StepDescription,
			}
		}
		resp.PendingContacts[i] = pendingContactGroupResponse{Person: group.Person, Cases: entries}
	}
	return resp
}

func newNotificationResponse(n notification.Notification, now time.Time) notificationResponse {
	return notificationResponse{
		Type:      string(n.Type),
		Message:   n.Message,
		ShownAt:   n.ShownAt,
		ExpiresAt: n.ExpiresAt(),
		Progress:  n.Progress(now),
	}
}

// writeJSON writes a JSON response with proper error handling
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	safe.Write(ctx, w, body)
}
