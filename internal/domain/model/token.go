package model

import "time"

// TokenPurpose separates verification tokens from reset tokens; a token
// issued for one purpose never satisfies the other.
type TokenPurpose string

const (
	PurposeVerifyEmail   TokenPurpose = "verify-email"
	PurposeResetPassword TokenPurpose = "reset-password"
)

// ActionToken is a short-lived opaque credential mailed to the user.
// Expiry is enforced by the store.
type ActionToken struct {
	Kind      Kind
	Purpose   TokenPurpose
	UserID    string
	Token     string
	CreatedAt time.Time
}
