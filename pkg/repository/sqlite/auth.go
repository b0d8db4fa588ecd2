package sqlite

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/model/auth"
)

func tokenKey(id auth.TokenID) string {
	return "token:" + id.String()
}

func (s *SQLite) PutToken(ctx context.Context, token *auth.Token) error {
	if err := token.Validate(); err != nil {
		return goerr.Wrap(err, "invalid token")
	}

	raw, err := json.Marshal(token)
	if err != nil {
		return goerr.Wrap(err, "failed to encode token", goerr.V("token_id", token.ID))
	}
	return s.putValue(ctx, tokenKey(token.ID), string(raw))
}

func (s *SQLite) GetToken(ctx context.Context, tokenID auth.TokenID) (*auth.Token, error) {
	if err := tokenID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid token ID")
	}

	raw, found, err := s.getValue(ctx, tokenKey(tokenID))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, goerr.Wrap(ErrNotFound, "token not found", goerr.V("token_id", tokenID))
	}

	var token auth.Token
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		return nil, goerr.Wrap(err, "failed to decode token", goerr.V("token_id", tokenID))
	}
	return &token, nil
}

func (s *SQLite) DeleteToken(ctx context.Context, tokenID auth.TokenID) error {
	if err := tokenID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid token ID")
	}

	deleted, err := s.deleteValue(ctx, tokenKey(tokenID))
	if err != nil {
		return err
	}
	if !deleted {
		return goerr.Wrap(ErrNotFound, "token not found", goerr.V("token_id", tokenID))
	}
	return nil
}
