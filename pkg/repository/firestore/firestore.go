package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/interfaces"
)

type Firestore struct {
	client           *firestore.Client
	collectionPrefix string
	caseRepo         *caseRepository
	userRepo         *userRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prepends prefix and "_" to every collection name
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.collectionPrefix = prefix
		f.caseRepo.collectionPrefix = prefix
		f.userRepo.collectionPrefix = prefix
	}
}

// New connects to Firestore. The default database is used when databaseID
// is empty.
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID == "" {
		client, err = firestore.NewClient(ctx, projectID)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:   client,
		caseRepo: newCaseRepository(client),
		userRepo: newUserRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Case() interfaces.CaseRepository {
	return f.caseRepo
}

func (f *Firestore) User() interfaces.UserRepository {
	return f.userRepo
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// CasesCollection returns the name of the case collection for prefix
func CasesCollection(prefix string) string {
	return collectionName(prefix, "cases")
}

func collectionName(prefix, name string) string {
	if prefix != "" {
		return prefix + "_" + name
	}
	return name
}
