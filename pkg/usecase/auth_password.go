package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/interfaces"
	"github.com/secmon-lab/casedesk/pkg/domain/model"
	"github.com/secmon-lab/casedesk/pkg/domain/model/auth"
	"golang.org/x/crypto/bcrypt"
)

// PasswordAccount is a locally configured user with a bcrypt hash
type PasswordAccount struct {
	Email        string
	Name         string
	PasswordHash string `masq:"secret"`
}

// PasswordAuthUseCase checks credentials against configured accounts
type PasswordAuthUseCase struct {
	*sessions
	accounts map[string]PasswordAccount
}

var _ AuthUseCaseInterface = &PasswordAuthUseCase{}

func NewPasswordAuthUseCase(repo interfaces.Repository, accounts []PasswordAccount) (*PasswordAuthUseCase, error) {
	uc := &PasswordAuthUseCase{
		sessions: newSessions(repo),
		accounts: make(map[string]PasswordAccount, len(accounts)),
	}

	for _, account := range accounts {
		email := model.NormalizeEmail(account.Email)
		if email == "" {
			return nil, goerr.New("password account without email")
		}
		if _, err := bcrypt.Cost([]byte(account.PasswordHash)); err != nil {
			return nil, goerr.Wrap(err, "invalid bcrypt hash", goerr.V(EmailKey, email))
		}
		if _, dup := uc.accounts[email]; dup {
			return nil, goerr.New("duplicated password account", goerr.V(EmailKey, email))
		}
		account.Email = email
		uc.accounts[email] = account
	}

	return uc, nil
}

func (uc *PasswordAuthUseCase) SignIn(ctx context.Context, email, password string) (*auth.Token, error) {
	email = model.NormalizeEmail(email)
	account, ok := uc.accounts[email]
	if !ok {
		// compare anyway so unknown emails take as long as wrong passwords
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, goerr.Wrap(ErrInvalidCredentials, "unknown account", goerr.V(EmailKey, email))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, goerr.Wrap(ErrInvalidCredentials, "password mismatch", goerr.V(EmailKey, email))
	}

	return uc.issue(ctx, account.Email, account.Email, account.Name)
}

// dummyHash is compared when the account does not exist
var dummyHash = []byte("$2a$10$CwTycUXWue0Thq9StjUM0uJ8.DzHrY2w1sOGmwYtFfdu0ACMyvIqO")
