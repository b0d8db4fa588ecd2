package interfaces

import "github.com/secmon-lab/casedesk/pkg/domain/types"

// ListCaseOption is a functional option for filtering cases in List
type ListCaseOption func(*listCaseConfig)

type listCaseConfig struct {
	status     *types.CaseStatus
	owner      *types.UserID
	sharedWith *types.UserID
}

// WithStatus filters cases by status
func WithStatus(status types.CaseStatus) ListCaseOption {
	return func(c *listCaseConfig) {
		c.status = &status
	}
}

// WithOwner filters cases owned by userID. An empty userID selects cases
// without owner.
func WithOwner(userID types.UserID) ListCaseOption {
	return func(c *listCaseConfig) {
		c.owner = &userID
	}
}

// WithSharedWith filters cases shared with userID
func WithSharedWith(userID types.UserID) ListCaseOption {
	return func(c *listCaseConfig) {
		c.sharedWith = &userID
	}
}

// BuildListCaseConfig builds a listCaseConfig from options
func BuildListCaseConfig(opts ...ListCaseOption) *listCaseConfig {
	cfg := &listCaseConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Status returns the status filter value, or nil if not set
func (c *listCaseConfig) Status() *types.CaseStatus {
	return c.status
}

// Owner returns the owner filter value, or nil if not set
func (c *listCaseConfig) Owner() *types.UserID {
	return c.owner
}

// SharedWith returns the shared-with filter value, or nil if not set
func (c *listCaseConfig) SharedWith() *types.UserID {
	return c.sharedWith
}

// Match reports whether status, owner and shared-with filters all accept
// the given values. Used by stores that filter in process.
func (c *listCaseConfig) Match(status types.CaseStatus, owner types.UserID, sharedWith []types.UserID) bool {
	if c.status != nil && *c.status != status {
		return false
	}
	if c.owner != nil && *c.owner != owner {
		return false
	}
	if c.sharedWith != nil {
		found := false
		for _, u := range sharedWith {
			if u == *c.sharedWith {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
