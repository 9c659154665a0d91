package service

import "context"

// Notifier delivers account emails. Implementations report transport
// failures wrapped in common.ErrMailDeliveryFailed.
type Notifier interface {
	SendEmailVerification(ctx context.Context, to, firstName, link string) error
	SendPasswordReset(ctx context.Context, to, firstName, link string) error
}
