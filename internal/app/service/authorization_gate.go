package service

import (
	"context"
	"errors"

	"github.com/Adeyod/degenuisFx-backend/internal/common"
	"github.com/Adeyod/degenuisFx-backend/internal/domain/repository"
	"github.com/Adeyod/degenuisFx-backend/internal/platform/logging"
)

// AuthorizationGate decides admin-only access for an authenticated principal
// of either kind.
type AuthorizationGate struct {
	users repository.UserRepository
	log   logging.Logger
}

func NewAuthorizationGate(users repository.UserRepository, logger logging.Logger) *AuthorizationGate {
	return &AuthorizationGate{users: users, log: logger.With("component", "authorization_gate")}
}

// Authorize allows only principals whose stored role is admin. An unknown
// principal and a non-admin principal are both denied; the reason is only
// logged. The error is non-nil only when the store itself failed.
func (g *AuthorizationGate) Authorize(ctx context.Context, principalID string) (bool, error) {
	user, err := g.users.FindPrincipal(ctx, principalID)
	if errors.Is(err, common.ErrNotFound) {
		g.log.Warn(ctx, "admin access denied", "user_id", principalID, "reason", "principal not found")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !user.IsAdmin() {
		g.log.Warn(ctx, "admin access denied", "user_id", principalID, "reason", "role", "role", user.Role)
		return false, nil
	}
	return true, nil
}
