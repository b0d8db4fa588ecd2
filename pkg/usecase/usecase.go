package usecase

import (
	"time"

	"github.com/secmon-lab/casedesk/pkg/domain/interfaces"
	"github.com/secmon-lab/casedesk/pkg/service/notification"
)

// UseCases is the application state shared by all request handlers
type UseCases struct {
	repo          interfaces.Repository
	storage       interfaces.AttachmentStorage
	notifications *notification.Hub
	now           func() time.Time

	Case *CaseUseCase
	Auth AuthUseCaseInterface
}

type Option func(*UseCases)

func WithAuth(auth AuthUseCaseInterface) Option {
	return func(uc *UseCases) {
		uc.Auth = auth
	}
}

// WithAttachmentStorage moves attachment bytes out of case documents
func WithAttachmentStorage(storage interfaces.AttachmentStorage) Option {
	return func(uc *UseCases) {
		uc.storage = storage
	}
}

func WithNotificationHub(hub *notification.Hub) Option {
	return func(uc *UseCases) {
		uc.notifications = hub
	}
}

// WithClock replaces time.Now for timestamps of cases and steps
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.notifications == nil {
		uc.notifications = notification.NewHub()
	}
	if uc.Auth == nil {
		uc.Auth = NewNoAuthnUseCase(repo, "", "", "")
	}

	uc.Case = NewCaseUseCase(repo, uc.storage, uc.notifications, uc.now)

	return uc
}

// Notifications returns the per-user notification hub
func (uc *UseCases) Notifications() *notification.Hub {
	return uc.notifications
}
