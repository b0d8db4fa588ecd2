package usecase

import (
	"context"

	"github.com/secmon-lab/casedesk/pkg/domain/interfaces"
	"github.com/secmon-lab/casedesk/pkg/domain/model/auth"
)

// NoAuthnUseCase signs everybody in as one fixed user (for development)
type NoAuthnUseCase struct {
	*sessions
	sub   string
	email string
	name  string
}

var _ AuthUseCaseInterface = &NoAuthnUseCase{}

// NewNoAuthnUseCase creates a NoAuthnUseCase. The anonymous user is used
// when sub is empty.
func NewNoAuthnUseCase(repo interfaces.Repository, sub, email, name string) *NoAuthnUseCase {
	if sub == "" {
		anonymous := auth.NewAnonymousUser()
		sub, email, name = anonymous.Sub, anonymous.Email, anonymous.Name
	}
	return &NoAuthnUseCase{
		sessions: newSessions(repo),
		sub:      sub,
		email:    email,
		name:     name,
	}
}

// SignIn ignores the credentials and issues a token for the fixed user
func (uc *NoAuthnUseCase) SignIn(ctx context.Context, email, password string) (*auth.Token, error) {
	return uc.issue(ctx, uc.sub, uc.email, uc.name)
}

// ValidateToken always returns a token for the fixed user
func (uc *NoAuthnUseCase) ValidateToken(ctx context.Context, tokenID auth.TokenID, tokenSecret auth.TokenSecret) (*auth.Token, error) {
	return auth.NewToken(uc.sub, uc.email, uc.name), nil
}

// IsNoAuthn returns true for NoAuthnUseCase
func (uc *NoAuthnUseCase) IsNoAuthn() bool {
	return true
}
