package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/model"
)

type userRepository struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func newUserRepository() *userRepository {
	return &userRepository{
		users: make(map[string]model.User),
	}
}

func (r *userRepository) Save(ctx context.Context, user *model.User) error {
	email := model.NormalizeEmail(user.Email)
	if email == "" {
		return goerr.New("user email is required", goerr.V("id", user.ID))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	saved := *user
	saved.Email = email
	r.users[email] = saved
	return nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[model.NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	return &user, nil
}
