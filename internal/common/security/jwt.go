package security

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Adeyod/degenuisFx-backend/internal/common"
	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the session cookie set on login and cleared on logout.
const CookieName = "token"

const (
	claimUserID = "user_id"
	claimEmail  = "email"
	claimNonce  = "nonce"
	claimUse    = "use"

	useSession = "session"
	useClient  = "client"
)

// Session is the result of a successful login. Token goes into the cookie;
// ClientToken is handed to callers that cannot read the cookie.
type Session struct {
	Token       string
	ClientToken string
	ExpiresAt   time.Time
}

// Principal is the identity carried by a verified session token.
type Principal struct {
	UserID string
	Email  string
}

type CookieOptions struct {
	SameSite http.SameSite
	Secure   bool
}

// SessionManager signs and verifies HS256 session tokens.
type SessionManager struct {
	auth   *jwtauth.JWTAuth
	ttl    time.Duration
	cookie CookieOptions
	now    func() time.Time
}

func NewSessionManager(secret []byte, ttl time.Duration, cookie CookieOptions) *SessionManager {
	return &SessionManager{
		auth:   jwtauth.New("HS256", secret, nil),
		ttl:    ttl,
		cookie: cookie,
		now:    time.Now,
	}
}

func (m *SessionManager) TTL() time.Duration { return m.ttl }

// Issue signs a session token for the user along with a client token bound
// to the user id and a fresh nonce.
func (m *SessionManager) Issue(userID, email string) (Session, error) {
	now := m.now()
	exp := now.Add(m.ttl)

	_, token, err := m.auth.Encode(jwt.MapClaims{
		claimUserID: userID,
		claimEmail:  email,
		claimUse:    useSession,
		"exp":       exp.Unix(),
		"iat":       now.Unix(),
	})
	if err != nil {
		return Session{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	_, clientToken, err := m.auth.Encode(jwt.MapClaims{
		claimUserID: userID,
		claimNonce:  uuid.NewString(),
		claimUse:    useClient,
		"exp":       exp.Unix(),
		"iat":       now.Unix(),
	})
	if err != nil {
		return Session{}, fmt.Errorf("failed to sign client token: %w", err)
	}

	return Session{Token: token, ClientToken: clientToken, ExpiresAt: exp}, nil
}

// Verify checks signature and expiry. Expired tokens fail with
// ErrSessionExpired; anything else unusable fails with ErrSessionInvalid.
func (m *SessionManager) Verify(tokenString string) (Principal, error) {
	if tokenString == "" {
		return Principal{}, common.ErrSessionMissing
	}

	token, err := jwtauth.VerifyToken(m.auth, tokenString)
	if err != nil {
		if errors.Is(err, jwtauth.ErrExpired) {
			return Principal{}, common.ErrSessionExpired
		}
		return Principal{}, common.ErrSessionInvalid
	}

	claims := token.PrivateClaims()
	userID, ok := claims[claimUserID].(string)
	if !ok || userID == "" {
		return Principal{}, common.ErrSessionInvalid
	}
	email, _ := claims[claimEmail].(string)
	return Principal{UserID: userID, Email: email}, nil
}

// SetCookie writes the session token as an HTTP-only cookie.
func (m *SessionManager) SetCookie(w http.ResponseWriter, s Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.cookie.Secure,
		SameSite: m.cookie.SameSite,
	})
}

// ClearCookie expires the session cookie.
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cookie.Secure,
		SameSite: m.cookie.SameSite,
	})
}
