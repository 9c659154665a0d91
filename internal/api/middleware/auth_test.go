package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Adeyod/degenuisFx-backend/internal/common/security"
	"github.com/Adeyod/degenuisFx-backend/internal/platform/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gateFunc func(ctx context.Context, id string) (bool, error)

func (f gateFunc) Authorize(ctx context.Context, id string) (bool, error) { return f(ctx, id) }

func okHandler(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	w.Write([]byte(p.UserID))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthenticator(t *testing.T) {
	sessions := security.NewSessionManager([]byte("secret"), time.Hour, security.CookieOptions{})
	s, err := sessions.Issue("u1", "ada@x.com")
	require.NoError(t, err)
	h := Authenticator(sessions)(http.HandlerFunc(okHandler))

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: security.CookieName, Value: s.Token})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u1", rec.Body.String())
	})

	t.Run("bearer client token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+s.ClientToken)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Please login to continue", decode(t, rec)["error"])
	})

	t.Run("invalid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: security.CookieName, Value: "garbage"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid token", decode(t, rec)["error"])
	})
}

func TestAdminOnly(t *testing.T) {
	gate := gateFunc(func(_ context.Context, id string) (bool, error) {
		switch id {
		case "admin":
			return true, nil
		case "broken":
			return false, errors.New("db down")
		}
		return false, nil
	})
	h := AdminOnly(gate, logging.Discard())(http.HandlerFunc(okHandler))

	serve := func(p *security.Principal) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if p != nil {
			req = req.WithContext(WithPrincipal(req.Context(), *p))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, serve(&security.Principal{UserID: "admin"}).Code)

	rec := serve(&security.Principal{UserID: "student"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(403), body["status"])

	assert.Equal(t, http.StatusForbidden, serve(nil).Code)
	assert.Equal(t, http.StatusInternalServerError, serve(&security.Principal{UserID: "broken"}).Code)
}
