package port

import "context"

// Mailer delivers the transactional emails of the signup flow.
type Mailer interface {
	SendVerificationCode(ctx context.Context, to, code string) error
	SendMagicLink(ctx context.Context, to, link string) error
	SendWelcome(ctx context.Context, to, name string) error
}
