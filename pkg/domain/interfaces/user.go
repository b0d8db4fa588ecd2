package interfaces

import (
	"context"

	"github.com/secmon-lab/casedesk/pkg/domain/model"
)

// UserRepository is the user directory used to resolve share targets
type UserRepository interface {
	// Save inserts or replaces the user keyed by its email
	Save(ctx context.Context, user *model.User) error

	// FindByEmail returns nil, nil if no user is registered with email
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}
