package sqlite

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/interfaces"
	"github.com/secmon-lab/casedesk/pkg/domain/model"
	"github.com/secmon-lab/casedesk/pkg/domain/types"
)

const casesKey = "cases"

type caseState struct {
	NextID int64         `json:"next_id"`
	Cases  []*model.Case `json:"cases"`
}

func (x *caseState) clone() *caseState {
	copied := &caseState{
		NextID: x.NextID,
		Cases:  make([]*model.Case, len(x.Cases)),
	}
	for i, c := range x.Cases {
		copied.Cases[i] = c.Clone()
	}
	return copied
}

func (x *caseState) index(id types.CaseID) int {
	return slices.IndexFunc(x.Cases, func(c *model.Case) bool { return c.ID == id })
}

func (s *SQLite) seedState() *caseState {
	example := model.NewCase(
		"Example case",
		"This case was created automatically. Edit or close it to get started.",
		types.CaseStatusOpen, nil, "", "", s.now().UTC(),
	)
	example.ID = types.NewCaseIDFromSeq(1)
	example.UpdatedAt = example.CreatedAt
	return &caseState{NextID: 2, Cases: []*model.Case{example}}
}

func (s *SQLite) load(ctx context.Context) error {
	raw, found, err := s.getValue(ctx, casesKey)
	if err != nil {
		return err
	}

	if !found {
		seed := s.seedState()
		if err := s.persist(ctx, seed); err != nil {
			return goerr.Wrap(err, "failed to seed cases")
		}
		s.state = seed
		return nil
	}

	var state caseState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return goerr.Wrap(err, "failed to decode stored cases")
	}
	if state.NextID < 1 {
		state.NextID = 1
	}
	s.state = &state
	return nil
}

func (s *SQLite) persist(ctx context.Context, state *caseState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return goerr.Wrap(err, "failed to encode cases")
	}
	return s.putValue(ctx, casesKey, string(raw))
}

// mutate applies fn to a copy of the state, writes the copy and swaps it in.
// The in-memory state is left untouched when fn or the write fails.
func (s *SQLite) mutate(ctx context.Context, fn func(state *caseState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.state = next
	return nil
}

type caseRepository struct {
	store *SQLite
}

var _ interfaces.CaseRepository = &caseRepository{}

func (r *caseRepository) Create(ctx context.Context, c *model.Case) (*model.Case, error) {
	var created *model.Case
	err := r.store.mutate(ctx, func(state *caseState) error {
		now := r.store.now().UTC()
		created = c.Clone()
		created.ID = types.NewCaseIDFromSeq(state.NextID)
		if created.CreatedAt.IsZero() {
			created.CreatedAt = now
		}
		created.UpdatedAt = now
		state.NextID++
		state.Cases = append(state.Cases, created)
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create case")
	}
	return created.Clone(), nil
}

func (r *caseRepository) Get(ctx context.Context, id types.CaseID) (*model.Case, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	idx := r.store.state.index(id)
	if idx < 0 {
		return nil, goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", id))
	}
	return r.store.state.Cases[idx].Clone(), nil
}

func (r *caseRepository) List(ctx context.Context, opts ...interfaces.ListCaseOption) ([]*model.Case, error) {
	cfg := interfaces.BuildListCaseConfig(opts...)

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	cases := make([]*model.Case, 0, len(r.store.state.Cases))
	for _, c := range r.store.state.Cases {
		if cfg.Match(c.Status, c.Owner, c.SharedWith) {
			cases = append(cases, c.Clone())
		}
	}
	return cases, nil
}

func (r *caseRepository) Update(ctx context.Context, c *model.Case) (*model.Case, error) {
	var updated *model.Case
	err := r.store.mutate(ctx, func(state *caseState) error {
		idx := state.index(c.ID)
		if idx < 0 {
			return goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", c.ID))
		}
		updated = c.Clone()
		updated.CreatedAt = state.Cases[idx].CreatedAt
		updated.UpdatedAt = r.store.now().UTC()
		state.Cases[idx] = updated
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update case", goerr.V("id", c.ID))
	}
	return updated.Clone(), nil
}

func (r *caseRepository) Delete(ctx context.Context, id types.CaseID) error {
	err := r.store.mutate(ctx, func(state *caseState) error {
		idx := state.index(id)
		if idx < 0 {
			return goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", id))
		}
		state.Cases = slices.Delete(state.Cases, idx, idx+1)
		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "failed to delete case", goerr.V("id", id))
	}
	return nil
}

func (r *caseRepository) DeleteAll(ctx context.Context) error {
	err := r.store.mutate(ctx, func(state *caseState) error {
		state.Cases = []*model.Case{}
		state.NextID = 1
		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "failed to delete all cases")
	}
	return nil
}
