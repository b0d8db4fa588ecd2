package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/interfaces"
	"github.com/secmon-lab/casedesk/pkg/domain/model"
	"github.com/secmon-lab/casedesk/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type caseRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newCaseRepository(client *firestore.Client) *caseRepository {
	return &caseRepository{
		client: client,
	}
}

var _ interfaces.CaseRepository = &caseRepository{}

func (r *caseRepository) casesCollection() string {
	return CasesCollection(r.collectionPrefix)
}

func (r *caseRepository) counterCollection() string {
	return collectionName(r.collectionPrefix, "counters")
}

func (r *caseRepository) counterRef() *firestore.DocumentRef {
	return r.client.Collection(r.counterCollection()).Doc("case_counter")
}

func (r *caseRepository) getNextID(ctx context.Context) (int64, error) {
	counterRef := r.counterRef()

	var nextID int64
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(counterRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				nextID = 1
				return tx.Set(counterRef, map[string]interface{}{
					"value": nextID,
				})
			}
			return goerr.Wrap(err, "failed to get counter")
		}

		currentValue, err := doc.DataAt("value")
		if err != nil {
			return goerr.Wrap(err, "failed to get counter value")
		}

		val, ok := currentValue.(int64)
		if !ok {
			return goerr.New("counter value is not of type int64", goerr.V("value", currentValue))
		}
		nextID = val + 1
		return tx.Update(counterRef, []firestore.Update{
			{Path: "value", Value: nextID},
		})
	})

	if err != nil {
		return 0, goerr.Wrap(err, "failed to get next ID")
	}

	return nextID, nil
}

func (r *caseRepository) Create(ctx context.Context, c *model.Case) (*model.Case, error) {
	nextID, err := r.getNextID(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get next ID")
	}

	now := time.Now().UTC()
	created := c.Clone()
	created.ID = types.NewCaseIDFromSeq(nextID)
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	created.UpdatedAt = now

	_, err = r.client.Collection(r.casesCollection()).Doc(created.ID.String()).Set(ctx, toCaseDoc(created))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create case", goerr.V("id", created.ID))
	}

	return created, nil
}

func (r *caseRepository) Get(ctx context.Context, id types.CaseID) (*model.Case, error) {
	docSnap, err := r.client.Collection(r.casesCollection()).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get case", goerr.V("id", id))
	}

	var doc caseDoc
	if err := docSnap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode case", goerr.V("id", id))
	}

	return doc.toModel(), nil
}

func (r *caseRepository) List(ctx context.Context, opts ...interfaces.ListCaseOption) ([]*model.Case, error) {
	cfg := interfaces.BuildListCaseConfig(opts...)

	query := r.client.Collection(r.casesCollection()).Query
	ordered := false
	if s := cfg.Status(); s != nil {
		query = query.Where("status", "==", s.String())
		ordered = true
	}
	if o := cfg.Owner(); o != nil {
		query = query.Where("owner", "==", o.String())
		ordered = true
	}
	if u := cfg.SharedWith(); u != nil {
		query = query.Where("shared_with", "array-contains", u.String())
		ordered = false
	}
	if ordered {
		query = query.OrderBy("created_at", firestore.Desc)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var cases []*model.Case
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate cases")
		}

		var doc caseDoc
		if err := docSnap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode case", goerr.V("doc_id", docSnap.Ref.ID))
		}

		cases = append(cases, doc.toModel())
	}

	return cases, nil
}

func (r *caseRepository) Update(ctx context.Context, c *model.Case) (*model.Case, error) {
	docRef := r.client.Collection(r.casesCollection()).Doc(c.ID.String())

	updated := c.Clone()
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", c.ID))
			}
			return goerr.Wrap(err, "failed to check case existence", goerr.V("id", c.ID))
		}

		var existing caseDoc
		if err := docSnap.DataTo(&existing); err != nil {
			return goerr.Wrap(err, "failed to decode case", goerr.V("id", c.ID))
		}

		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = time.Now().UTC()
		return tx.Set(docRef, toCaseDoc(updated))
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update case", goerr.V("id", c.ID))
	}

	return updated, nil
}

func (r *caseRepository) Delete(ctx context.Context, id types.CaseID) error {
	docRef := r.client.Collection(r.casesCollection()).Doc(id.String())

	// Check if document exists
	_, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to check case existence", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete case", goerr.V("id", id))
	}

	return nil
}

func (r *caseRepository) DeleteAll(ctx context.Context) error {
	iter := r.client.Collection(r.casesCollection()).Documents(ctx)
	defer iter.Stop()

	bulkWriter := r.client.BulkWriter(ctx)

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bulkWriter.End()
			return goerr.Wrap(err, "failed to iterate cases for deletion")
		}

		if _, err := bulkWriter.Delete(doc.Ref); err != nil {
			bulkWriter.End()
			return goerr.Wrap(err, "failed to delete case", goerr.V("doc_id", doc.Ref.ID))
		}
	}
	bulkWriter.End()

	if _, err := r.counterRef().Delete(ctx); err != nil && status.Code(err) != codes.NotFound {
		return goerr.Wrap(err, "failed to reset case counter")
	}

	return nil
}
