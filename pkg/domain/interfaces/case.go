package interfaces

import (
	"context"

	"github.com/secmon-lab/casedesk/pkg/domain/model"
	"github.com/secmon-lab/casedesk/pkg/domain/types"
)

// CaseRepository defines the interface for Case data access
type CaseRepository interface {
	// Create stores a new case with an auto-generated ID. CreatedAt is kept
	// when already set.
	Create(ctx context.Context, c *model.Case) (*model.Case, error)

	// Get retrieves a case by ID
	Get(ctx context.Context, id types.CaseID) (*model.Case, error)

	// List retrieves cases with optional filtering
	List(ctx context.Context, opts ...ListCaseOption) ([]*model.Case, error)

	// Update replaces an existing case. CreatedAt of the stored case is kept.
	Update(ctx context.Context, c *model.Case) (*model.Case, error)

	// Delete deletes a case by ID
	Delete(ctx context.Context, id types.CaseID) error

	// DeleteAll removes every case and resets the ID sequence
	DeleteAll(ctx context.Context) error
}
