package usecase

import (
	"sync"
	"time"

	"github.com/secmon-lab/casedesk/pkg/domain/model/auth"
)

const authCacheTTL = 5 * time.Minute

type cachedToken struct {
	token     *auth.Token
	expiresAt time.Time
}

// authCache keeps validated tokens to avoid a repository read per request
type authCache struct {
	entries sync.Map
	now     func() time.Time
}

func newAuthCache() *authCache {
	return &authCache{now: time.Now}
}

func (c *authCache) get(tokenID auth.TokenID) (*auth.Token, bool) {
	val, ok := c.entries.Load(tokenID)
	if !ok {
		return nil, false
	}

	cached := val.(*cachedToken)
	if c.now().After(cached.expiresAt) {
		c.entries.Delete(tokenID)
		return nil, false
	}
	return cached.token, true
}

func (c *authCache) set(token *auth.Token) {
	c.entries.Store(token.ID, &cachedToken{
		token:     token,
		expiresAt: c.now().Add(authCacheTTL),
	})
}

func (c *authCache) remove(tokenID auth.TokenID) {
	c.entries.Delete(tokenID)
}
