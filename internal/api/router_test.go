package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Adeyod/degenuisFx-backend/internal/app/service"
	"github.com/Adeyod/degenuisFx-backend/internal/common/security"
	"github.com/Adeyod/degenuisFx-backend/internal/domain/model"
	"github.com/Adeyod/degenuisFx-backend/internal/domain/repository"
	"github.com/Adeyod/degenuisFx-backend/internal/domain/repository/repositorytest"
	"github.com/Adeyod/degenuisFx-backend/internal/platform/logging"
	"github.com/Adeyod/degenuisFx-backend/internal/platform/mailer/mailertest"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler  http.Handler
	users    *repositorytest.Users
	contacts *repositorytest.Contacts
	mail     *mailertest.Recorder
	sessions *security.SessionManager
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	ts := &testServer{
		users:    repositorytest.NewUsers(),
		contacts: &repositorytest.Contacts{},
		mail:     &mailertest.Recorder{},
		sessions: security.NewSessionManager([]byte("router-secret"), time.Hour, security.CookieOptions{}),
	}
	logger := logging.Discard()
	tokens := service.NewTokenIssuer(repository.NewRedisActionTokenRepository(rdb, 30*time.Minute), ts.sessions, logger)
	opts := service.AccountOptions{FrontendURL: "http://front", BcryptCost: 4, PageSize: 10}

	ts.handler = NewRouter(RouterDeps{
		Students:        service.NewAccountService(model.KindStudent, ts.users, tokens, ts.mail, logger, opts),
		Investors:       service.NewAccountService(model.KindInvestor, ts.users, tokens, ts.mail, logger, opts),
		Contacts:        service.NewContactService(ts.contacts, logger),
		Sessions:        ts.sessions,
		Gate:            service.NewAuthorizationGate(ts.users, logger),
		Logger:          logger,
		CORSOrigins:     []string{"http://front"},
		RateLimit:       rateLimit,
		RateLimitWindow: time.Minute,
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any, cookie *http.Cookie) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func (ts *testServer) sessionCookie(t *testing.T, u *model.User) *http.Cookie {
	t.Helper()
	s, err := ts.sessions.Issue(u.ID, u.Email)
	require.NoError(t, err)
	return &http.Cookie{Name: security.CookieName, Value: s.Token}
}

func registration(email string) map[string]string {
	return map[string]string{
		"firstName":          "Ada",
		"lastName":           "Lovelace",
		"email":              email,
		"password":           "Str0ng!Pass",
		"confirmPassword":    "Str0ng!Pass",
		"phoneNumber":        "123",
		"address":            "1 Lane",
		"countryOfResidence": "UK",
		"stateOfResidence":   "London",
		"gender":             "Female",
		"DOB":                "1815-12-10",
	}
}

func findCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == security.CookieName {
			return c
		}
	}
	return nil
}

func TestRouter_RootAndHealth(t *testing.T) {
	ts := newTestServer(t, 0)

	rec, _ := ts.do(t, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Degenius FX website", rec.Body.String())

	rec, _ = ts.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRouter_StudentLifecycle(t *testing.T) {
	ts := newTestServer(t, 0)

	rec, body := ts.do(t, http.MethodPost, "/api/student/register", registration("ada@x.com"), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(201), body["status"])
	assert.Equal(t, "Student registration is successful. Please verify your email with the link sent to you", body["message"])

	rec, body = ts.do(t, http.MethodPost, "/api/student/login",
		map[string]string{"email": "ada@x.com", "password": "Str0ng!Pass"}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Please use the mail sent to your email address to verify your email", body["error"])
	assert.Nil(t, findCookie(rec))

	sent, ok := ts.mail.Last()
	require.True(t, ok)
	link, err := url.Parse(sent.Link)
	require.NoError(t, err)
	userID, token := link.Query().Get("userId"), link.Query().Get("token")

	rec, body = ts.do(t, http.MethodGet, "/api/student/verify-email/"+userID+"/"+token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Email verification successful", body["message"])
	verified := body["user"].(map[string]any)
	assert.Equal(t, userID, verified["id"])
	assert.Equal(t, true, verified["isVerified"])
	assert.NotContains(t, verified, "password")

	rec, body = ts.do(t, http.MethodPost, "/api/student/login",
		map[string]string{"email": "ada@x.com", "password": "Str0ng!Pass"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Student logged in successfully", body["message"])
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["clientToken"])
	user := body["user"].(map[string]any)
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "PasswordHash")

	cookie := findCookie(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	rec, body = ts.do(t, http.MethodGet, "/api/student/getSelf/"+userID, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada@x.com", body["user"].(map[string]any)["email"])

	rec, _ = ts.do(t, http.MethodGet, "/api/student/getSelf/someone-else", nil, cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = ts.do(t, http.MethodPost, "/api/student/update/"+userID,
		map[string]string{"levelOfForexExperience": "Beginner"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["user"].(map[string]any)["isUpdated"])

	rec, body = ts.do(t, http.MethodGet, "/api/student/search?query=love", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["users"], 1)

	rec, body = ts.do(t, http.MethodGet, "/api/student/search?query=nobody", nil, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No student found", body["error"])
	assert.Empty(t, body["users"])

	rec, body = ts.do(t, http.MethodGet, "/api/student/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User logged out successfully", body["message"])
	cleared := findCookie(rec)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestRouter_ProtectedRoutesRequireSession(t *testing.T) {
	ts := newTestServer(t, 0)

	rec, body := ts.do(t, http.MethodGet, "/api/investors/getSelf/abc", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Please login to continue", body["error"])

	rec, body = ts.do(t, http.MethodPost, "/api/student/update/abc", map[string]string{"nokName": "x"},
		&http.Cookie{Name: security.CookieName, Value: "not-a-jwt"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", body["error"])
}

func TestRouter_SearchIsPublic(t *testing.T) {
	ts := newTestServer(t, 0)
	ts.users.Put(&model.User{ID: "33333333-3333-3333-3333-333333333333", Kind: model.KindStudent, Role: model.RoleStudent,
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@x.com", PasswordHash: "hash", IsVerified: true})

	rec, body := ts.do(t, http.MethodGet, "/api/student/search?query=love", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Students found successfully", body["message"])
	users := body["users"].([]any)
	require.Len(t, users, 1)
	assert.NotContains(t, users[0].(map[string]any), "password")

	rec, body = ts.do(t, http.MethodGet, "/api/investors/search?query=love", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No investor found", body["error"])
}

func TestRouter_AdminRoutes(t *testing.T) {
	ts := newTestServer(t, 0)
	student := &model.User{ID: "11111111-1111-1111-1111-111111111111", Kind: model.KindStudent, Role: model.RoleStudent,
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@x.com", IsVerified: true}
	admin := &model.User{ID: "22222222-2222-2222-2222-222222222222", Kind: model.KindStudent, Role: model.RoleAdmin,
		FirstName: "Root", LastName: "Admin", Email: "root@x.com", IsVerified: true}
	ts.users.Put(student)
	ts.users.Put(admin)

	t.Run("non-admin denied even for missing target", func(t *testing.T) {
		rec, body := ts.do(t, http.MethodGet, "/api/student/getSingle/does-not-exist", nil, ts.sessionCookie(t, student))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Unauthorized", body["error"])

		rec, _ = ts.do(t, http.MethodGet, "/api/investors/getAll", nil, ts.sessionCookie(t, student))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin lists students", func(t *testing.T) {
		rec, body := ts.do(t, http.MethodGet, "/api/student/getAll", nil, ts.sessionCookie(t, admin))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(1), body["count"])
		assert.Equal(t, float64(1), body["pages"])
		assert.Len(t, body["users"], 1)
	})

	t.Run("admin reads a student", func(t *testing.T) {
		rec, body := ts.do(t, http.MethodGet, "/api/student/getSingle/"+student.ID, nil, ts.sessionCookie(t, admin))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Student fetched successfully", body["message"])
	})

	t.Run("page out of range", func(t *testing.T) {
		rec, body := ts.do(t, http.MethodGet, "/api/student/getAll?page=5&limit=1", nil, ts.sessionCookie(t, admin))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Page limit exceeded", body["error"])
	})

	t.Run("bad query params", func(t *testing.T) {
		rec, _ := ts.do(t, http.MethodGet, "/api/student/getAll?page=x", nil, ts.sessionCookie(t, admin))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		rec, _ = ts.do(t, http.MethodGet, "/api/student/getAll?limit=0", nil, ts.sessionCookie(t, admin))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRouter_InvalidPayload(t *testing.T) {
	ts := newTestServer(t, 0)
	req := httptest.NewRequest(http.MethodPost, "/api/student/register", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid request payload")
}

func TestRouter_LoginRateLimited(t *testing.T) {
	ts := newTestServer(t, 2)
	creds := map[string]string{"email": "nobody@x.com", "password": "whatever"}

	for i := 0; i < 2; i++ {
		rec, body := ts.do(t, http.MethodPost, "/api/student/login", creds, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid credentials", body["error"])
	}
	rec, body := ts.do(t, http.MethodPost, "/api/student/login", creds, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests, please try again later.", body["error"])

	// Registration is not throttled.
	rec, _ = ts.do(t, http.MethodPost, "/api/student/register", registration("grace@x.com"), nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRouter_Contact(t *testing.T) {
	ts := newTestServer(t, 0)

	rec, body := ts.do(t, http.MethodPost, "/api/v2/feedback",
		map[string]any{"name": "Ada", "email": "ada@x.com", "message": "great", "rating": 5}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Thank you for the feedback", body["message"])
	assert.Equal(t, "Ada", body["sender"])

	rec, body = ts.do(t, http.MethodPost, "/api/v2/contactUs",
		map[string]any{"name": "Ada", "email": "ada@x.com", "phoneNumber": "123", "message": "hello"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ada", body["sender"])

	rec, _ = ts.do(t, http.MethodPost, "/api/v2/emailSubscription", map[string]any{"email": "ada@x.com"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, body = ts.do(t, http.MethodPost, "/api/v2/emailSubscription", map[string]any{"email": "ada@x.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already exist", body["error"])

	assert.Len(t, ts.contacts.Feedback, 1)
	assert.Len(t, ts.contacts.Messages, 1)
	assert.Len(t, ts.contacts.Subscriptions, 1)
}
