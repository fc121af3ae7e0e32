package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/phamyourfam/blissbite/internal/core/domain"
	"github.com/phamyourfam/blissbite/internal/core/port"
	"github.com/phamyourfam/blissbite/internal/infra/config"
)

const schemaVersion = "1.0"

const (
	EventAccountRegistered = "account.registered"
	EventAccountActivated  = "account.activated"
	EventSessionCreated    = "session.created"
	EventSessionRevoked    = "session.revoked"
)

// EventPublisher implements port.EventPublisher on top of the async producer.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	AccountID string            `json:"account_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, accountID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now()
	}
	if eventID == "" {
		eventID = uuid.NewString()
	}

	metadata := map[string]string{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		metadata["trace_id"] = sc.TraceID().String()
	}

	body, err := json.Marshal(eventEnvelope{
		EventID:   eventID,
		EventType: eventType,
		AccountID: accountID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	})
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		// keyed by account so one account's events stay ordered on a partition
		Key:   sarama.StringEncoder(accountID),
		Value: sarama.ByteEncoder(body),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishAccountRegistered publishes account.registered.
func (p *EventPublisher) PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error {
	payload := struct {
		AccountID    string             `json:"account_id"`
		Email        string             `json:"email"`
		AccountType  domain.AccountType `json:"account_type"`
		RegisteredAt time.Time          `json:"registered_at"`
		Metadata     map[string]any     `json:"metadata,omitempty"`
	}{
		AccountID:    event.AccountID,
		Email:        event.Email,
		AccountType:  event.AccountType,
		RegisteredAt: event.RegisteredAt.UTC(),
		Metadata:     event.Metadata,
	}
	return p.publish(ctx, event.EventID, EventAccountRegistered, event.AccountID, event.RegisteredAt, payload)
}

// PublishAccountActivated publishes account.activated.
func (p *EventPublisher) PublishAccountActivated(ctx context.Context, event domain.AccountActivatedEvent) error {
	payload := struct {
		AccountID   string                    `json:"account_id"`
		Method      domain.VerificationMethod `json:"method"`
		ActivatedAt time.Time                 `json:"activated_at"`
		Metadata    map[string]any            `json:"metadata,omitempty"`
	}{
		AccountID:   event.AccountID,
		Method:      event.Method,
		ActivatedAt: event.ActivatedAt.UTC(),
		Metadata:    event.Metadata,
	}
	return p.publish(ctx, event.EventID, EventAccountActivated, event.AccountID, event.ActivatedAt, payload)
}

// PublishSessionCreated publishes session.created.
func (p *EventPublisher) PublishSessionCreated(ctx context.Context, event domain.SessionCreatedEvent) error {
	payload := struct {
		SessionID string    `json:"session_id"`
		AccountID string    `json:"account_id"`
		Origin    string    `json:"origin"`
		IPAddress string    `json:"ip_address,omitempty"`
		CreatedAt time.Time `json:"created_at"`
		ExpiresAt time.Time `json:"expires_at"`
	}{
		SessionID: event.SessionID,
		AccountID: event.AccountID,
		Origin:    event.Origin,
		IPAddress: event.IPAddress,
		CreatedAt: event.CreatedAt.UTC(),
		ExpiresAt: event.ExpiresAt.UTC(),
	}
	return p.publish(ctx, event.EventID, EventSessionCreated, event.AccountID, event.CreatedAt, payload)
}

// PublishSessionRevoked publishes session.revoked.
func (p *EventPublisher) PublishSessionRevoked(ctx context.Context, event domain.SessionRevokedEvent) error {
	payload := struct {
		SessionID string    `json:"session_id"`
		AccountID string    `json:"account_id"`
		Reason    string    `json:"reason"`
		RevokedAt time.Time `json:"revoked_at"`
	}{
		SessionID: event.SessionID,
		AccountID: event.AccountID,
		Reason:    event.Reason,
		RevokedAt: event.RevokedAt.UTC(),
	}
	return p.publish(ctx, event.EventID, EventSessionRevoked, event.AccountID, event.RevokedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
