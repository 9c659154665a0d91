package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/Adeyod/degenuisFx-backend/internal/common"
	"github.com/Adeyod/degenuisFx-backend/internal/common/security"
	"github.com/Adeyod/degenuisFx-backend/internal/platform/logging"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const principalCtxKey contextKey = "principal"

type SessionVerifier interface {
	Verify(token string) (security.Principal, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, principalID string) (bool, error)
}

// TokenFromRequest reads the session cookie first and falls back to an
// Authorization bearer header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(security.CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return jwtauth.TokenFromHeader(r)
}

// Authenticator rejects requests without a valid session and stores the
// principal in the request context. Missing, invalid and expired sessions
// get distinct messages.
func Authenticator(sessions SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := sessions.Verify(TokenFromRequest(r))
			if err != nil {
				var e *common.Error
				if !errors.As(err, &e) {
					e = common.ErrSessionInvalid
				}
				common.RespondWithError(w, http.StatusUnauthorized, e.Msg)
				return
			}
			ctx := context.WithValue(r.Context(), principalCtxKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly must run after Authenticator. Unknown principals and non-admins
// both get 403.
func AdminOnly(gate Authorizer, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				common.RespondWithError(w, http.StatusForbidden, common.ErrAdminRequired.Msg)
				return
			}
			allowed, err := gate.Authorize(r.Context(), principal.UserID)
			if err != nil {
				logger.Error(r.Context(), "authorization lookup failed", "user_id", principal.UserID, "error", err)
				common.RespondWithFault(w, err)
				return
			}
			if !allowed {
				common.RespondWithError(w, http.StatusForbidden, common.ErrAdminRequired.Msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PrincipalFromContext returns the principal set by Authenticator.
func PrincipalFromContext(ctx context.Context) (security.Principal, bool) {
	p, ok := ctx.Value(principalCtxKey).(security.Principal)
	return p, ok
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p security.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, p)
}
