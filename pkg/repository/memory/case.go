package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/interfaces"
	"github.com/secmon-lab/casedesk/pkg/domain/model"
	"github.com/secmon-lab/casedesk/pkg/domain/types"
)

type caseRepository struct {
	mu     sync.RWMutex
	cases  map[types.CaseID]*model.Case
	nextID int64
}

func newCaseRepository() *caseRepository {
	return &caseRepository{
		cases:  make(map[types.CaseID]*model.Case),
		nextID: 1,
	}
}

var _ interfaces.CaseRepository = &caseRepository{}

func (r *caseRepository) Create(ctx context.Context, c *model.Case) (*model.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := c.Clone()
	created.ID = types.NewCaseIDFromSeq(r.nextID)
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	created.UpdatedAt = now
	r.nextID++

	r.cases[created.ID] = created
	return created.Clone(), nil
}

func (r *caseRepository) Get(ctx context.Context, id types.CaseID) (*model.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.cases[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", id))
	}

	return c.Clone(), nil
}

func (r *caseRepository) List(ctx context.Context, opts ...interfaces.ListCaseOption) ([]*model.Case, error) {
	cfg := interfaces.BuildListCaseConfig(opts...)

	r.mu.RLock()
	defer r.mu.RUnlock()

	cases := make([]*model.Case, 0, len(r.cases))
	for _, c := range r.cases {
		if !cfg.Match(c.Status, c.Owner, c.SharedWith) {
			continue
		}
		cases = append(cases, c.Clone())
	}

	// map iteration is random; keep a stable order by numeric id
	sort.Slice(cases, func(i, j int) bool {
		return idLess(cases[i].ID, cases[j].ID)
	})

	return cases, nil
}

func (r *caseRepository) Update(ctx context.Context, c *model.Case) (*model.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.cases[c.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", c.ID))
	}

	updated := c.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.cases[updated.ID] = updated
	return updated.Clone(), nil
}

func (r *caseRepository) Delete(ctx context.Context, id types.CaseID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cases[id]; !exists {
		return goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", id))
	}

	delete(r.cases, id)
	return nil
}

func (r *caseRepository) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cases = make(map[types.CaseID]*model.Case)
	r.nextID = 1
	return nil
}

func idLess(a, b types.CaseID) bool {
	x, errX := strconv.ParseInt(a.String(), 10, 64)
	y, errY := strconv.ParseInt(b.String(), 10, 64)
	if errX != nil || errY != nil {
		return a < b
	}
	return x < y
}
