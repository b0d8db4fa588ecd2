package sqlite

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/model"
)

func userKey(email string) string {
	return "user:" + email
}

type userRepository struct {
	store *SQLite
}

func (r *userRepository) Save(ctx context.Context, user *model.User) error {
	email := model.NormalizeEmail(user.Email)
	if email == "" {
		return goerr.New("user email is required", goerr.V("id", user.ID))
	}

	saved := *user
	saved.Email = email
	raw, err := json.Marshal(saved)
	if err != nil {
		return goerr.Wrap(err, "failed to encode user", goerr.V("email", email))
	}
	return r.store.putValue(ctx, userKey(email), string(raw))
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}

	raw, found, err := r.store.getValue(ctx, userKey(email))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var user model.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, goerr.Wrap(err, "failed to decode user", goerr.V("email", email))
	}
	return &user, nil
}
