package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

// Category errors. Every business error unwraps to exactly one of these.
var (
	ErrNotFound        = errors.New("requested resource not found")
	ErrUnauthorized    = errors.New("unauthorized access")
	ErrForbidden       = errors.New("forbidden access")
	ErrBadRequest      = errors.New("bad request")
	ErrConflict        = errors.New("resource conflict")
	ErrValidation      = errors.New("validation failed")
	ErrDependency      = errors.New("dependency failure")
	ErrTooManyRequests = errors.New("too many requests")
)

// Dependency causes, joined onto ErrMailDeliveryFailed by the mail transport.
var (
	ErrTransportAuth = errors.New("mail transport authentication failed")
	ErrRateLimited   = errors.New("mail transport rate limited")
)

// Error is a business outcome with a client-facing message.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Validation builds a validation error carrying msg for the client.
func Validation(msg string) error {
	return newError(ErrValidation, msg)
}

// Validationf is Validation with formatting.
func Validationf(format string, args ...any) error {
	return newError(ErrValidation, fmt.Sprintf(format, args...))
}

var (
	ErrMissingFields      = newError(ErrValidation, "Please fill all mandatory fields")
	ErrAllFieldsRequired  = newError(ErrValidation, "All fields are required")
	ErrEmailRequired      = newError(ErrValidation, "Email is required")
	ErrPasswordMismatch   = newError(ErrValidation, "Password and confirm password do not match")
	ErrDuplicateEmail     = newError(ErrConflict, "Email already exist")
	ErrAlreadyVerified    = newError(ErrConflict, "User already verified")
	ErrInvalidCredentials = newError(ErrBadRequest, "Invalid credentials")
	ErrEmailNotVerified   = newError(ErrForbidden, "Please use the mail sent to your email address to verify your email")
	ErrForbiddenUser      = newError(ErrForbidden, "Not the authorized user")
	ErrAdminRequired      = newError(ErrForbidden, "Unauthorized")
	ErrSessionMissing     = newError(ErrUnauthorized, "Please login to continue")
	ErrSessionInvalid     = newError(ErrUnauthorized, "Invalid token")
	ErrSessionExpired     = newError(ErrUnauthorized, "Session expired, please login again")
	ErrTokenNotFound      = newError(ErrNotFound, "Token not found")
	ErrUserNotFound       = newError(ErrNotFound, "User not found")
	ErrEmailNotFound      = newError(ErrNotFound, "Email not found")
	ErrPageOutOfRange     = newError(ErrNotFound, "Page limit exceeded")
	ErrMailDeliveryFailed = newError(ErrDependency, "Unable to send email. Please try again")
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) || errors.Is(err, ErrConflict) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrTooManyRequests) || errors.Is(err, ErrRateLimited) {
		return http.StatusTooManyRequests
	}
	if errors.Is(err, ErrDependency) {
		return http.StatusServiceUnavailable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

// IsBusinessError reports whether err carries a client-safe message and can be
// answered directly instead of going through the fault handler.
func IsBusinessError(err error) bool {
	var e *Error
	return errors.As(err, &e) && !errors.Is(err, ErrDependency)
}

// MailFailure joins the delivery failure with an optional classified cause.
func MailFailure(cause, err error) error {
	if cause == nil {
		return fmt.Errorf("%w: %v", ErrMailDeliveryFailed, err)
	}
	return fmt.Errorf("%w: %w: %v", ErrMailDeliveryFailed, cause, err)
}
