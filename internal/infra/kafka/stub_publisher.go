package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/phamyourfam/blissbite/internal/core/domain"
	"github.com/phamyourfam/blissbite/internal/core/port"
	"github.com/phamyourfam/blissbite/internal/infra/logger"
)

// StubPublisher logs events instead of producing them. Used when Kafka is disabled.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a logging publisher.
func NewStubPublisher(log *zap.Logger) *StubPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &StubPublisher{logger: log}
}

func (p *StubPublisher) logEvent(ctx context.Context, eventType, accountID string, at time.Time, fields ...zap.Field) {
	if at.IsZero() {
		at = time.Now()
	}
	base := []zap.Field{
		zap.String("event_type", eventType),
		zap.String("account_id", accountID),
		zap.Time("timestamp", at.UTC()),
	}
	logger.FromContext(ctx, p.logger).Info("event published (stub)", append(base, fields...)...)
}

// PublishAccountRegistered logs account.registered.
func (p *StubPublisher) PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error {
	p.logEvent(ctx, EventAccountRegistered, event.AccountID, event.RegisteredAt,
		zap.String("email", logger.MaskEmail(event.Email)),
		zap.String("account_type", string(event.AccountType)),
	)
	return nil
}

// PublishAccountActivated logs account.activated.
func (p *StubPublisher) PublishAccountActivated(ctx context.Context, event domain.AccountActivatedEvent) error {
	p.logEvent(ctx, EventAccountActivated, event.AccountID, event.ActivatedAt,
		zap.String("method", string(event.Method)),
	)
	return nil
}

// PublishSessionCreated logs session.created.
func (p *StubPublisher) PublishSessionCreated(ctx context.Context, event domain.SessionCreatedEvent) error {
	p.logEvent(ctx, EventSessionCreated, event.AccountID, event.CreatedAt,
		zap.String("session_id", event.SessionID),
		zap.String("origin", event.Origin),
		zap.String("ip", logger.MaskIP(event.IPAddress)),
	)
	return nil
}

// PublishSessionRevoked logs session.revoked.
func (p *StubPublisher) PublishSessionRevoked(ctx context.Context, event domain.SessionRevokedEvent) error {
	p.logEvent(ctx, EventSessionRevoked, event.AccountID, event.RevokedAt,
		zap.String("session_id", event.SessionID),
		zap.String("reason", event.Reason),
	)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
