package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Adeyod/degenuisFx-backend/internal/common"
	"github.com/Adeyod/degenuisFx-backend/internal/common/security"
	"github.com/Adeyod/degenuisFx-backend/internal/domain/model"
	"github.com/Adeyod/degenuisFx-backend/internal/domain/repository"
	"github.com/Adeyod/degenuisFx-backend/internal/platform/logging"
)

// TokenIssuer mints and checks the two token families: mailed action tokens
// kept in the token store, and stateless signed session tokens.
type TokenIssuer struct {
	tokens   repository.ActionTokenRepository
	sessions *security.SessionManager
	log      logging.Logger
}

func NewTokenIssuer(tokens repository.ActionTokenRepository, sessions *security.SessionManager, logger logging.Logger) *TokenIssuer {
	return &TokenIssuer{tokens: tokens, sessions: sessions, log: logger.With("component", "token_issuer")}
}

// IssueActionToken stores a fresh token for (kind, purpose, user), replacing
// any outstanding one.
func (t *TokenIssuer) IssueActionToken(ctx context.Context, kind model.Kind, purpose model.TokenPurpose, userID string) (*model.ActionToken, error) {
	value, err := security.NewActionToken()
	if err != nil {
		return nil, err
	}
	token := &model.ActionToken{
		Kind:      kind,
		Purpose:   purpose,
		UserID:    userID,
		Token:     value,
		CreatedAt: time.Now().UTC(),
	}
	if err := t.tokens.Save(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to save action token: %w", err)
	}
	return token, nil
}

// IssueOrReuseActionToken returns the outstanding token with its TTL
// restarted, so a re-sent link is good for a full period. A new token is
// minted when none is live.
func (t *TokenIssuer) IssueOrReuseActionToken(ctx context.Context, kind model.Kind, purpose model.TokenPurpose, userID string) (*model.ActionToken, error) {
	existing, err := t.tokens.Find(ctx, kind, purpose, userID)
	if err != nil && !errors.Is(err, common.ErrTokenNotFound) {
		return nil, err
	}
	if err == nil {
		touched, err := t.tokens.Touch(ctx, existing)
		if err != nil {
			return nil, fmt.Errorf("failed to refresh action token: %w", err)
		}
		if touched {
			return existing, nil
		}
	}
	return t.IssueActionToken(ctx, kind, purpose, userID)
}

// VerifyActionToken resolves the exact (user, token) pair without consuming it.
func (t *TokenIssuer) VerifyActionToken(ctx context.Context, kind model.Kind, purpose model.TokenPurpose, userID, value string) (*model.ActionToken, error) {
	if userID == "" || value == "" {
		return nil, common.ErrTokenNotFound
	}
	stored, err := t.tokens.Find(ctx, kind, purpose, userID)
	if err != nil {
		return nil, err
	}
	if !security.TokensEqual(stored.Token, value) {
		return nil, common.ErrTokenNotFound
	}
	return stored, nil
}

// ConsumeActionToken claims a verified token by deleting it. Only one caller
// can win the delete; the others get ErrTokenNotFound, so a link cannot be
// used twice even by concurrent requests.
func (t *TokenIssuer) ConsumeActionToken(ctx context.Context, token *model.ActionToken) error {
	deleted, err := t.tokens.Delete(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to delete action token: %w", err)
	}
	if !deleted {
		t.log.Warn(ctx, "action token already used", "user_id", token.UserID, "purpose", token.Purpose)
		return common.ErrTokenNotFound
	}
	return nil
}

func (t *TokenIssuer) IssueSession(user *model.User) (security.Session, error) {
	return t.sessions.Issue(user.ID, user.Email)
}

func (t *TokenIssuer) VerifySession(token string) (security.Principal, error) {
	return t.sessions.Verify(token)
}
