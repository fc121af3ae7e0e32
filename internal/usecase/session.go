package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phamyourfam/blissbite/internal/core/domain"
	"github.com/phamyourfam/blissbite/internal/core/port"
	"github.com/phamyourfam/blissbite/internal/infra/logger"
	"github.com/phamyourfam/blissbite/internal/infra/security"
	"github.com/phamyourfam/blissbite/internal/infra/telemetry"
	"github.com/phamyourfam/blissbite/internal/repository"
)

const defaultSessionDuration = 30 * 24 * time.Hour

var (
	// ErrLoginFieldsRequired indicates email or password was empty.
	ErrLoginFieldsRequired = errors.New("email and password are required")
	// ErrInvalidCredentials indicates an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountNoStatus indicates the account never received a lifecycle status.
	ErrAccountNoStatus = errors.New("account has no status")
	// ErrAccountInactive indicates the account is still pending.
	ErrAccountInactive = errors.New("account is not active")
	// ErrAccountSuspended indicates the account was suspended.
	ErrAccountSuspended = errors.New("account is suspended")
	// ErrAccountRemoved indicates the account was soft deleted.
	ErrAccountRemoved = errors.New("account no longer exists")
	// ErrAccountNotVerified indicates the EMAIL verification is missing or incomplete.
	ErrAccountNotVerified = errors.New("account not verified")
	// ErrSessionInvalid indicates the token does not resolve to a live session.
	ErrSessionInvalid = errors.New("session not found or expired")
)

// IssuedSession pairs the persisted session with the raw token handed to the client.
type IssuedSession struct {
	Token   string
	Session domain.Session
}

// LoginInput carries the credentials and client details of a login request.
type LoginInput struct {
	Email    string
	Password string
	Metadata domain.SessionMetadata
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	Account domain.Account
	Session IssuedSession
}

// AuthenticatedSession is the outcome of resolving a session token.
type AuthenticatedSession struct {
	Session domain.Session
	Account domain.AccountProjection
}

// SessionService issues, resolves and destroys server-side sessions.
type SessionService struct {
	sessions port.SessionRepository
	accounts port.AccountRepository
	hasher   port.PasswordHasher
	events   port.EventPublisher
	metrics  *telemetry.Metrics
	logger   *zap.Logger
	duration time.Duration
	now      func() time.Time
}

// NewSessionService constructs a SessionService. A non-positive duration falls back to 30 days.
func NewSessionService(sessions port.SessionRepository, accounts port.AccountRepository, hasher port.PasswordHasher, duration time.Duration, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if duration <= 0 {
		duration = defaultSessionDuration
	}
	return &SessionService{
		sessions: sessions,
		accounts: accounts,
		hasher:   hasher,
		logger:   logger,
		duration: duration,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *SessionService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// WithEventPublisher enables session lifecycle events.
func (s *SessionService) WithEventPublisher(events port.EventPublisher) *SessionService {
	s.events = events
	return s
}

// WithMetrics enables session counters.
func (s *SessionService) WithMetrics(metrics *telemetry.Metrics) *SessionService {
	s.metrics = metrics
	return s
}

// Duration reports how long issued sessions stay valid.
func (s *SessionService) Duration() time.Duration {
	return s.duration
}

// Login verifies credentials and account state, then issues a session.
// The password is checked before the account state so callers without the
// password learn nothing about the account.
func (s *SessionService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, ErrLoginFieldsRequired
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.SessionEvent("login_failed")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	ok, err := s.hasher.Verify(input.Password, account.PasswordHash)
	if err != nil {
		s.logger.Warn("stored password hash unreadable", zap.String("account_id", account.ID), zap.Error(err))
	}
	if !ok {
		s.metrics.SessionEvent("login_failed")
		return nil, ErrInvalidCredentials
	}

	if err := checkLoginAllowed(*account); err != nil {
		s.metrics.SessionEvent("login_rejected")
		return nil, err
	}

	issued, err := s.Issue(ctx, *account, input.Metadata, "login")
	if err != nil {
		return nil, err
	}

	return &LoginResult{Account: *account, Session: *issued}, nil
}

func checkLoginAllowed(account domain.Account) error {
	switch account.State() {
	case "":
		return ErrAccountNoStatus
	case domain.AccountStateActive:
	case domain.AccountStateSuspended:
		return ErrAccountSuspended
	case domain.AccountStateSoftDeleted:
		return ErrAccountRemoved
	default:
		return ErrAccountInactive
	}

	if !account.EmailVerified() {
		return ErrAccountNotVerified
	}
	return nil
}

// Issue persists a new session for account and returns its raw token.
// origin labels the flow that created it ("login" or "signup").
func (s *SessionService) Issue(ctx context.Context, account domain.Account, meta domain.SessionMetadata, origin string) (*IssuedSession, error) {
	token, err := security.NewSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	now := s.now()
	session := domain.Session{
		ID:           uuid.NewString(),
		AccountID:    account.ID,
		TokenHash:    security.HashToken(token),
		IPAddress:    strings.TrimSpace(meta.IPAddress),
		UserAgent:    strings.TrimSpace(meta.UserAgent),
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.duration),
		LastActivity: now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.metrics.SessionEvent("created")

	if s.events != nil {
		event := domain.SessionCreatedEvent{
			EventID:   uuid.NewString(),
			SessionID: session.ID,
			AccountID: account.ID,
			Origin:    origin,
			IPAddress: session.IPAddress,
			CreatedAt: session.CreatedAt,
			ExpiresAt: session.ExpiresAt,
		}
		if err := s.events.PublishSessionCreated(ctx, event); err != nil {
			logger.FromContext(ctx, s.logger).Warn("publish session created failed", zap.String("account_id", account.ID), zap.Error(err))
		}
	}

	return &IssuedSession{Token: token, Session: session}, nil
}

// Authenticate resolves a raw token to its session and account. Expired or
// orphaned sessions are deleted. Successful lookups bump last_activity.
func (s *SessionService) Authenticate(ctx context.Context, token string) (*AuthenticatedSession, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrSessionInvalid
	}

	session, err := s.sessions.GetByTokenHash(ctx, security.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	now := s.now()
	if session.Expired(now) {
		s.discard(ctx, *session, "expired")
		return nil, ErrSessionInvalid
	}

	account, err := s.accounts.GetByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.discard(ctx, *session, "orphaned")
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("lookup session account: %w", err)
	}

	if err := s.sessions.Touch(ctx, session.ID, now); err != nil && !errors.Is(err, repository.ErrNotFound) {
		logger.FromContext(ctx, s.logger).Warn("touch session failed", zap.String("session_id", session.ID), zap.Error(err))
	}
	session.LastActivity = now

	return &AuthenticatedSession{Session: *session, Account: account.Projection()}, nil
}

// Logout deletes the session behind token. Unknown tokens are not an error.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	session, err := s.sessions.GetByTokenHash(ctx, security.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup session: %w", err)
	}

	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.metrics.SessionEvent("logout")
	s.publishRevoked(ctx, *session, "logout")
	return nil
}

// PurgeExpired removes every session that expired before now.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	removed, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	if removed > 0 {
		s.logger.Info("expired sessions purged", zap.Int64("count", removed))
	}
	return removed, nil
}

func (s *SessionService) discard(ctx context.Context, session domain.Session, reason string) {
	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		logger.FromContext(ctx, s.logger).Warn("delete stale session failed",
			zap.String("session_id", session.ID),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return
	}
	s.metrics.SessionEvent(reason)
	s.publishRevoked(ctx, session, reason)
}

func (s *SessionService) publishRevoked(ctx context.Context, session domain.Session, reason string) {
	if s.events == nil {
		return
	}
	event := domain.SessionRevokedEvent{
		EventID:   uuid.NewString(),
		SessionID: session.ID,
		AccountID: session.AccountID,
		Reason:    reason,
		RevokedAt: s.now(),
	}
	if err := s.events.PublishSessionRevoked(ctx, event); err != nil {
		logger.FromContext(ctx, s.logger).Warn("publish session revoked failed", zap.String("session_id", session.ID), zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
