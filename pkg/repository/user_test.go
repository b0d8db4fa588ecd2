package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/casedesk/pkg/domain/interfaces"
	"github.com/secmon-lab/casedesk/pkg/domain/model"
)

func runUserRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Save and FindByEmail", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		user := &model.User{ID: "uid-1", Email: "Ana@Example.com ", Name: "Ana", UpdatedAt: time.Now().UTC()}
		gt.NoError(t, repo.User().Save(ctx, user)).Required()

		got, err := repo.User().FindByEmail(ctx, "ana@example.com")
		gt.NoError(t, err).Required()
		gt.Value(t, got).NotNil()
		gt.Value(t, got.ID).Equal(user.ID)
		gt.Value(t, got.Email).Equal("ana@example.com")
		gt.Value(t, got.Name).Equal("Ana")
	})

	t.Run("Save overwrites the same email", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.User().Save(ctx, &model.User{ID: "uid-1", Email: "ana@example.com", Name: "Ana"})).Required()
		gt.NoError(t, repo.User().Save(ctx, &model.User{ID: "uid-1", Email: "ana@example.com", Name: "Ana Ruiz"})).Required()

		got, err := repo.User().FindByEmail(ctx, "ANA@example.com")
		gt.NoError(t, err).Required()
		gt.Value(t, got.Name).Equal("Ana Ruiz")
	})

	t.Run("FindByEmail returns nil for unknown email", func(t *testing.T) {
		repo := newRepo(t)
		got, err := repo.User().FindByEmail(context.Background(), "nobody@example.com")
		gt.NoError(t, err)
		gt.Value(t, got).Nil()
	})

	t.Run("Save requires email", func(t *testing.T) {
		repo := newRepo(t)
		gt.Error(t, repo.User().Save(context.Background(), &model.User{ID: "uid-1"}))
	})
}
