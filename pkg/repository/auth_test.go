package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/casedesk/pkg/domain/interfaces"
	"github.com/secmon-lab/casedesk/pkg/domain/model/auth"
)

func runAuthRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("PutToken and GetToken", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		token := auth.NewToken("user-123", "test@example.com", "Test User")
		gt.NoError(t, repo.PutToken(ctx, token)).Required()

		got, err := repo.GetToken(ctx, token.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(token.ID)
		gt.Value(t, got.Secret).Equal(token.Secret)
		gt.Value(t, got.Sub).Equal(token.Sub)
		gt.Value(t, got.Email).Equal(token.Email)
		gt.Value(t, got.Name).Equal(token.Name)

		// Firestore keeps microsecond precision
		gt.Bool(t, got.ExpiresAt.Sub(token.ExpiresAt).Abs() < time.Second).True()
		gt.Bool(t, got.CreatedAt.Sub(token.CreatedAt).Abs() < time.Second).True()
	})

	t.Run("GetToken not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetToken(context.Background(), auth.NewTokenID())
		gt.Bool(t, isNotFound(err)).True()
	})

	t.Run("DeleteToken", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		token := auth.NewToken("user-456", "delete@example.com", "Delete User")
		gt.NoError(t, repo.PutToken(ctx, token)).Required()
		gt.NoError(t, repo.DeleteToken(ctx, token.ID)).Required()

		_, err := repo.GetToken(ctx, token.ID)
		gt.Bool(t, isNotFound(err)).True()

		err = repo.DeleteToken(ctx, token.ID)
		gt.Bool(t, isNotFound(err)).True()
	})

	t.Run("PutToken rejects invalid token", func(t *testing.T) {
		repo := newRepo(t)

		invalid := auth.NewToken("user-789", "x@example.com", "X")
		invalid.Sub = ""
		gt.Error(t, repo.PutToken(context.Background(), invalid)).Is(auth.ErrInvalidToken)
	})

	t.Run("GetToken rejects malformed ID", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetToken(context.Background(), "not-a-uuid")
		gt.Error(t, err).Is(auth.ErrInvalidToken)
	})
}
