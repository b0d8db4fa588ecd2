package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/model"
	"github.com/secmon-lab/casedesk/pkg/domain/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type userRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newUserRepository(client *firestore.Client) *userRepository {
	return &userRepository{client: client}
}

func (r *userRepository) usersCollection() string {
	return collectionName(r.collectionPrefix, "users")
}

func (r *userRepository) Save(ctx context.Context, user *model.User) error {
	email := model.NormalizeEmail(user.Email)
	if email == "" {
		return goerr.New("user email is required", goerr.V("id", user.ID))
	}

	doc := &userDoc{
		ID:        user.ID.String(),
		Email:     email,
		Name:      user.Name,
		UpdatedAt: user.UpdatedAt,
	}
	if _, err := r.client.Collection(r.usersCollection()).Doc(email).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to save user", goerr.V("email", email))
	}
	return nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}

	docSnap, err := r.client.Collection(r.usersCollection()).Doc(email).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("email", email))
	}

	var doc userDoc
	if err := docSnap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode user", goerr.V("email", email))
	}

	return &model.User{
		ID:        types.UserID(doc.ID),
		Email:     doc.Email,
		Name:      doc.Name,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}
