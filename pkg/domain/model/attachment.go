package model

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/types"
)

const defaultMimeType = "application/octet-stream"

// Attachment is a file attached to a step. Bytes are either inline in Data
// or kept in attachment storage under StorageKey.
type Attachment struct {
	ID         types.AttachmentID
	Name       string
	MimeType   string
	SizeBytes  int64
	Data       []byte
	StorageKey string
}

// AttachmentKind is a coarse classification of the attachment content
type AttachmentKind string

const (
	AttachmentKindImage       AttachmentKind = "image"
	AttachmentKindPDF         AttachmentKind = "pdf"
	AttachmentKindSpreadsheet AttachmentKind = "spreadsheet"
	AttachmentKindDocument    AttachmentKind = "document"
	AttachmentKindEmail       AttachmentKind = "email"
	AttachmentKindOther       AttachmentKind = "other"
)

// Kind classifies the attachment by its mime type
func (a Attachment) Kind() AttachmentKind {
	t := strings.ToLower(a.MimeType)
	switch {
	case strings.Contains(t, "image"):
		return AttachmentKindImage
	case strings.Contains(t, "pdf"):
		return AttachmentKindPDF
	case strings.Contains(t, "excel"), strings.Contains(t, "sheet"), strings.Contains(t, "csv"):
		return AttachmentKindSpreadsheet
	case strings.Contains(t, "word"), strings.Contains(t, "document"):
		return AttachmentKindDocument
	case strings.Contains(t, "email"), strings.Contains(t, "message"):
		return AttachmentKindEmail
	default:
		return AttachmentKindOther
	}
}

// HumanSize formats SizeBytes as bytes, KB or MB
func (a Attachment) HumanSize() string {
	switch {
	case a.SizeBytes < 1024:
		return fmt.Sprintf("%d bytes", a.SizeBytes)
	case a.SizeBytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(a.SizeBytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(a.SizeBytes)/(1024*1024))
	}
}

// IsOffloaded reports whether the bytes live in attachment storage
func (a Attachment) IsOffloaded() bool {
	return a.StorageKey != ""
}

// Clone returns a deep copy
func (a Attachment) Clone() Attachment {
	copied := a
	if a.Data != nil {
		copied.Data = append([]byte(nil), a.Data...)
	}
	return copied
}

// FileUpload is the shape attachments arrive in. Both the English and the
// Spanish field spellings are accepted; Normalize reconciles them.
type FileUpload struct {
	Name   string `json:"name,omitempty"`
	Nombre string `json:"nombre,omitempty"`
	Type   string `json:"type,omitempty"`
	Tipo   string `json:"tipo,omitempty"`
	Size   int64  `json:"size,omitempty"`
	Tamano int64  `json:"tamano,omitempty"`
	// Data is a data URL ("data:<mime>;base64,<payload>") or bare base64
	Data string `json:"data"`
}

// Normalize converts the upload into an Attachment with a fresh ID
func (f FileUpload) Normalize() (Attachment, error) {
	name := firstNonEmpty(f.Name, f.Nombre)
	if strings.TrimSpace(name) == "" {
		return Attachment{}, goerr.Wrap(ErrValidation, "attachment name is required", goerr.V(FieldKey, "name"))
	}

	mediaType, data, err := DecodeDataURL(f.Data)
	if err != nil {
		return Attachment{}, goerr.Wrap(err, "failed to decode attachment", goerr.V("name", name))
	}

	mimeType := firstNonEmpty(f.Type, f.Tipo, mediaType, defaultMimeType)

	size := f.Size
	if size == 0 {
		size = f.Tamano
	}
	if size == 0 {
		size = int64(len(data))
	}

	return Attachment{
		ID:        types.NewAttachmentID(),
		Name:      name,
		MimeType:  mimeType,
		SizeBytes: size,
		Data:      data,
	}, nil
}

// DecodeDataURL decodes a data URL or a bare base64 string. The media type
// is empty when not present.
func DecodeDataURL(s string) (string, []byte, error) {
	if !strings.HasPrefix(s, "data:") {
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return "", nil, goerr.Wrap(ErrInvalidData, "invalid base64 payload")
		}
		return "", data, nil
	}

	meta, payload, found := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !found {
		return "", nil, goerr.Wrap(ErrInvalidData, "data URL has no payload")
	}

	isBase64 := strings.HasSuffix(meta, ";base64")
	mediaType, _, _ := strings.Cut(strings.TrimSuffix(meta, ";base64"), ";")

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, goerr.Wrap(ErrInvalidData, "invalid base64 payload in data URL")
		}
		return mediaType, data, nil
	}

	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, goerr.Wrap(ErrInvalidData, "invalid escaped payload in data URL")
	}
	return mediaType, []byte(decoded), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
