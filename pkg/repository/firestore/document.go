package firestore

import (
	"time"

	"github.com/secmon-lab/casedesk/pkg/domain/model"
	"github.com/secmon-lab/casedesk/pkg/domain/types"
)

// caseDoc is the stored form of model.Case
type caseDoc struct {
	ID             string    `firestore:"id"`
	Title          string    `firestore:"title"`
	Description    string    `firestore:"description"`
	Status         string    `firestore:"status"`
	References     []string  `firestore:"references"`
	PendingContact string    `firestore:"pending_contact"`
	History        []stepDoc `firestore:"history"`
	Owner          string    `firestore:"owner"`
	SharedWith     []string  `firestore:"shared_with"`
	CreatedAt      time.Time `firestore:"created_at"`
	UpdatedAt      time.Time `firestore:"updated_at"`
}

type stepDoc struct {
	ID             string          `firestore:"id"`
	Title          string          `firestore:"title"`
	Description    string          `firestore:"description"`
	Timestamp      time.Time       `firestore:"timestamp"`
	Attachments    []attachmentDoc `firestore:"attachments"`
	PendingContact string          `firestore:"pending_contact"`
	IsSystemAction bool            `firestore:"is_system_action"`
	LastEdited     *time.Time      `firestore:"last_edited"`
}

type attachmentDoc struct {
	ID         string `firestore:"id"`
	Name       string `firestore:"name"`
	MimeType   string `firestore:"mime_type"`
	SizeBytes  int64  `firestore:"size_bytes"`
	Data       []byte `firestore:"data"`
	StorageKey string `firestore:"storage_key"`
}

type userDoc struct {
	ID        string    `firestore:"id"`
	Email     string    `firestore:"email"`
	Name      string    `firestore:"name"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func toCaseDoc(c *model.Case) *caseDoc {
	doc := &caseDoc{
		ID:             c.ID.String(),
		Title:          c.Title,
		Description:    c.Description,
		Status:         c.Status.String(),
		References:     c.References,
		PendingContact: c.PendingContact,
		Owner:          c.Owner.String(),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
	for _, u := range c.SharedWith {
		doc.SharedWith = append(doc.SharedWith, u.String())
	}
	for _, s := range c.History {
		sd := stepDoc{
			ID:             s.ID.String(),
			Title:          s.Title,
			Description:    s.Description,
			Timestamp:      s.Timestamp,
			PendingContact: s.PendingContact,
			IsSystemAction: s.IsSystemAction,
			LastEdited:     s.LastEdited,
		}
		for _, a := range s.Attachments {
			sd.Attachments = append(sd.Attachments, attachmentDoc{
				ID:         a.ID.String(),
				Name:       a.Name,
				MimeType:   a.MimeType,
				SizeBytes:  a.SizeBytes,
				Data:       a.Data,
				StorageKey: a.StorageKey,
			})
		}
		doc.History = append(doc.History, sd)
	}
	return doc
}

func (d *caseDoc) toModel() *model.Case {
	c := &model.Case{
		ID:             types.CaseID(d.ID),
		Title:          d.Title,
		Description:    d.Description,
		Status:         types.CaseStatus(d.Status),
		References:     d.References,
		PendingContact: d.PendingContact,
		Owner:          types.UserID(d.Owner),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	for _, u := range d.SharedWith {
		c.SharedWith = append(c.SharedWith, types.UserID(u))
	}
	for _, sd := range d.History {
		s := model.Step{
			ID:             types.StepID(sd.ID),
			Title:          sd.Title,
			Description:    sd.Description,
			Timestamp:      sd.Timestamp,
			PendingContact: sd.PendingContact,
			IsSystemAction: sd.IsSystemAction,
			LastEdited:     sd.LastEdited,
		}
		for _, a := range sd.Attachments {
			s.Attachments = append(s.Attachments, model.Attachment{
				ID:         types.AttachmentID(a.ID),
				Name:       a.Name,
				MimeType:   a.MimeType,
				SizeBytes:  a.SizeBytes,
				Data:       a.Data,
				StorageKey: a.StorageKey,
			})
		}
		c.History = append(c.History, s)
	}
	return c
}
