package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/phamyourfam/blissbite/internal/core/domain"
	"github.com/phamyourfam/blissbite/internal/core/port"
)

// SessionRepository persists login sessions. Only the SHA-256 digest of the
// bearer token is stored.
type SessionRepository struct {
	db      DB
	builder squirrel.StatementBuilderType
}

// NewSessionRepository creates a session repository.
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db, builder: newBuilder()}
}

// Create inserts a new session row.
func (r *SessionRepository) Create(ctx context.Context, session domain.Session) error {
	insert := r.builder.Insert("sessions").
		Columns("id", "account_id", "session_token", "ip_address", "user_agent", "created_at", "expires_at", "last_activity").
		Values(
			session.ID,
			session.AccountID,
			session.TokenHash,
			nullIfEmpty(session.IPAddress),
			nullIfEmpty(session.UserAgent),
			session.CreatedAt,
			session.ExpiresAt,
			session.LastActivity,
		)
	return execStmt(ctx, r.db, insert, "insert session")
}

// GetByTokenHash finds a session by token digest regardless of expiry.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	stmt, args, err := r.builder.
		Select("id", "account_id", "session_token", "ip_address", "user_agent", "created_at", "expires_at", "last_activity").
		From("sessions").
		Where(squirrel.Eq{"session_token": tokenHash}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select session sql: %w", err)
	}

	var (
		session   domain.Session
		ipAddress *string
		userAgent *string
	)
	if err := r.db.QueryRow(ctx, stmt, args...).Scan(
		&session.ID,
		&session.AccountID,
		&session.TokenHash,
		&ipAddress,
		&userAgent,
		&session.CreatedAt,
		&session.ExpiresAt,
		&session.LastActivity,
	); err != nil {
		return nil, mapError(err)
	}
	if ipAddress != nil {
		session.IPAddress = *ipAddress
	}
	if userAgent != nil {
		session.UserAgent = *userAgent
	}
	return &session, nil
}

// Touch records activity on a session.
func (r *SessionRepository) Touch(ctx context.Context, sessionID string, at time.Time) error {
	update := r.builder.Update("sessions").
		Set("last_activity", at).
		Where(squirrel.Eq{"id": sessionID})
	return execAffecting(ctx, r.db, update, "touch session")
}

// Delete removes a session. Deleting an unknown session is not an error.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	return execStmt(ctx, r.db, r.builder.Delete("sessions").Where(squirrel.Eq{"id": sessionID}), "delete session")
}

// DeleteExpired purges sessions whose expiry is at or before the cutoff.
func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	stmt, args, err := r.builder.Delete("sessions").
		Where(squirrel.LtOrEq{"expires_at": before}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build purge sessions sql: %w", err)
	}

	tag, err := r.db.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", mapError(err))
	}
	return tag.RowsAffected(), nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ port.SessionRepository = (*SessionRepository)(nil)
