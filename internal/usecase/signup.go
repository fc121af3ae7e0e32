package usecase

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
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

const activationReason = "Account verified via email"

var (
	// ErrSignupFieldsRequired indicates email or password was empty.
	ErrSignupFieldsRequired = errors.New("email and password are required")
	// ErrEmailTaken indicates a permanent account already owns the email.
	ErrEmailTaken = errors.New("an account with this email already exists")
	// ErrPasswordPolicyViolation indicates the password does not satisfy the policy.
	ErrPasswordPolicyViolation = errors.New("password does not meet complexity requirements")
	// ErrTempSignupNotFound indicates the temporary signup record is absent or expired.
	ErrTempSignupNotFound = errors.New("temporary account not found or expired")
	// ErrVerificationFieldsRequired indicates a field of the verify step was empty.
	ErrVerificationFieldsRequired = errors.New("temporary account id, account id and verification code are required")
	// ErrVerificationNotFound indicates the code or its signup record expired or never existed.
	ErrVerificationNotFound = errors.New("verification request not found or expired")
	// ErrVerificationCodeInvalid indicates the code does not match.
	ErrVerificationCodeInvalid = errors.New("invalid verification code")
	// ErrCompletionFieldsRequired indicates the temp id or the token was empty.
	ErrCompletionFieldsRequired = errors.New("temporary account id and verification token are required")
	// ErrVerificationTokenInvalid indicates the magic-link token is absent, expired or wrong.
	ErrVerificationTokenInvalid = errors.New("invalid or expired verification token")
	// ErrAccountNotFound indicates the account row does not exist.
	ErrAccountNotFound = errors.New("account not found")
)

// SignupSettings holds the lifetimes of the ephemeral signup records.
type SignupSettings struct {
	TempAccountTTL      time.Duration
	VerificationCodeTTL time.Duration
	MagicLinkTTL        time.Duration
	FrontendURL         string
}

// StartSignupInput carries the first signup step.
type StartSignupInput struct {
	Email    string
	Password string
	Forename string
	Surname  string
}

// StartSignupResult identifies the in-flight signup.
type StartSignupResult struct {
	TempAccountID string
	AccountID     string
}

// VerifyEmailInput carries the code submitted by the user.
type VerifyEmailInput struct {
	TempAccountID string
	AccountID     string
	Code          string
}

// VerifyEmailResult carries the magic-link token.
type VerifyEmailResult struct {
	Token string
}

// CompleteSignupInput carries the final signup step.
type CompleteSignupInput struct {
	TempAccountID     string
	VerificationToken string
	Forename          string
	Surname           string
	Metadata          domain.SessionMetadata
}

// CompleteSignupResult is the activated account and its first session.
type CompleteSignupResult struct {
	Account domain.AccountProjection
	Session IssuedSession
}

// SignupService drives the start, verify and complete handshake over the
// ephemeral store. Every record shares the tempAccountId key in its own namespace.
type SignupService struct {
	accounts port.AccountRepository
	store    port.KeyValueStore
	hasher   port.PasswordHasher
	policy   port.PasswordPolicyValidator
	sessions *SessionService
	mailer   port.Mailer
	events   port.EventPublisher
	metrics  *telemetry.Metrics
	logger   *zap.Logger
	settings SignupSettings
	now      func() time.Time
}

// NewSignupService constructs a SignupService. The policy may be nil.
func NewSignupService(
	accounts port.AccountRepository,
	store port.KeyValueStore,
	hasher port.PasswordHasher,
	policy port.PasswordPolicyValidator,
	sessions *SessionService,
	settings SignupSettings,
	logger *zap.Logger,
) *SignupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SignupService{
		accounts: accounts,
		store:    store,
		hasher:   hasher,
		policy:   policy,
		sessions: sessions,
		logger:   logger,
		settings: settings,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *SignupService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// WithMailer enables outbound signup emails.
func (s *SignupService) WithMailer(mailer port.Mailer) *SignupService {
	s.mailer = mailer
	return s
}

// WithEventPublisher enables account lifecycle events.
func (s *SignupService) WithEventPublisher(events port.EventPublisher) *SignupService {
	s.events = events
	return s
}

// WithMetrics enables signup step counters.
func (s *SignupService) WithMetrics(metrics *telemetry.Metrics) *SignupService {
	s.metrics = metrics
	return s
}

// Start creates the inactive account, stores the temporary signup record
// and emails a verification code.
func (s *SignupService) Start(ctx context.Context, input StartSignupInput) (*StartSignupResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, ErrSignupFieldsRequired
	}

	forename := strings.TrimSpace(input.Forename)
	surname := strings.TrimSpace(input.Surname)

	if s.policy != nil {
		if err := s.policy.Validate(input.Password, email, forename, surname); err != nil {
			s.metrics.SignupStep("start", "rejected")
			return nil, fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
		}
	}

	if err := s.claimEmail(ctx, email); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			s.metrics.SignupStep("start", "conflict")
		}
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	account := domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Forename:     forename,
		Surname:      surname,
		AccountType:  domain.AccountTypePersonal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	verification := domain.AccountVerification{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		Method:    domain.VerificationMethodEmail,
		CreatedAt: now,
	}

	if err := s.accounts.CreatePending(ctx, account, verification); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			s.metrics.SignupStep("start", "conflict")
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create pending account: %w", err)
	}

	tempID, err := security.NewTempAccountID()
	if err != nil {
		s.abandonSignup(ctx, account.ID, "")
		return nil, fmt.Errorf("generate temp account id: %w", err)
	}

	temp := domain.TempSignupData{
		Email:          email,
		HashedPassword: passwordHash,
		Forename:       forename,
		Surname:        surname,
		AccountID:      account.ID,
		ExpiresAt:      now.Add(s.settings.TempAccountTTL),
	}
	if err := s.saveTemp(ctx, tempID, temp); err != nil {
		s.abandonSignup(ctx, account.ID, "")
		return nil, err
	}

	if err := s.issueCode(ctx, tempID, email); err != nil {
		s.abandonSignup(ctx, account.ID, tempID)
		return nil, err
	}

	if s.events != nil {
		event := domain.AccountRegisteredEvent{
			EventID:      uuid.NewString(),
			AccountID:    account.ID,
			Email:        email,
			AccountType:  account.AccountType,
			RegisteredAt: now,
		}
		if err := s.events.PublishAccountRegistered(ctx, event); err != nil {
			logger.FromContext(ctx, s.logger).Warn("publish account registered failed", zap.String("account_id", account.ID), zap.Error(err))
		}
	}

	s.metrics.SignupStep("start", "ok")
	return &StartSignupResult{TempAccountID: tempID, AccountID: account.ID}, nil
}

// abandonSignup removes the pending account, and the temp record when one
// was stored, after Start fails midway so the email is not held until the
// temp-account TTL lapses.
func (s *SignupService) abandonSignup(ctx context.Context, accountID, tempID string) {
	log := logger.FromContext(ctx, s.logger)
	if tempID != "" {
		if err := s.store.Delete(ctx, domain.NamespaceTempSignup, tempID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			log.Warn("discard temp signup failed", zap.String("temp_account_id", tempID), zap.Error(err))
		}
	}
	if err := s.accounts.Delete(ctx, accountID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Warn("discard pending account failed", zap.String("account_id", accountID), zap.Error(err))
	}
}

// claimEmail fails with ErrEmailTaken when an account owns email. An
// account left without status by a signup older than the temp-account TTL
// is deleted so the email can be reused.
func (s *SignupService) claimEmail(ctx context.Context, email string) error {
	existing, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	stale := existing.Status == nil && !existing.CreatedAt.Add(s.settings.TempAccountTTL).After(s.now())
	if !stale {
		return ErrEmailTaken
	}

	if err := s.accounts.Delete(ctx, existing.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("reclaim stale signup: %w", err)
	}
	logger.FromContext(ctx, s.logger).Info("stale pending signup reclaimed",
		zap.String("account_id", existing.ID),
		zap.String("email", logger.MaskEmail(email)),
	)
	return nil
}

// Resend issues a fresh code for an in-flight signup, restarting the code TTL.
func (s *SignupService) Resend(ctx context.Context, email, tempAccountID string) error {
	email = normalizeEmail(email)
	tempAccountID = strings.TrimSpace(tempAccountID)
	if tempAccountID == "" {
		return ErrTempSignupNotFound
	}

	temp, err := s.loadTemp(ctx, tempAccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTempSignupNotFound
		}
		return err
	}
	if temp.Email != email {
		return ErrTempSignupNotFound
	}

	if err := s.issueCode(ctx, tempAccountID, email); err != nil {
		return err
	}
	s.metrics.SignupStep("resend", "ok")
	return nil
}

// Verify checks the emailed code and issues the magic-link token.
func (s *SignupService) Verify(ctx context.Context, input VerifyEmailInput) (*VerifyEmailResult, error) {
	tempID := strings.TrimSpace(input.TempAccountID)
	accountID := strings.TrimSpace(input.AccountID)
	code := strings.TrimSpace(input.Code)
	if tempID == "" || accountID == "" || code == "" {
		return nil, ErrVerificationFieldsRequired
	}

	stored, err := s.store.Get(ctx, domain.NamespaceVerificationCodes, tempID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.SignupStep("verify", "expired")
			return nil, ErrVerificationNotFound
		}
		return nil, fmt.Errorf("load verification code: %w", err)
	}

	temp, err := s.loadTemp(ctx, tempID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.SignupStep("verify", "expired")
			return nil, ErrVerificationNotFound
		}
		return nil, err
	}
	if temp.AccountID != accountID {
		return nil, ErrVerificationNotFound
	}

	if !strings.EqualFold(stored, code) {
		s.metrics.SignupStep("verify", "mismatch")
		return nil, ErrVerificationCodeInvalid
	}

	token, err := security.NewVerificationToken()
	if err != nil {
		return nil, fmt.Errorf("generate verification token: %w", err)
	}
	if err := s.store.Set(ctx, domain.NamespaceVerificationTokens, tempID, token, s.settings.MagicLinkTTL); err != nil {
		return nil, fmt.Errorf("store verification token: %w", err)
	}
	if err := s.store.Delete(ctx, domain.NamespaceVerificationCodes, tempID); err != nil {
		return nil, fmt.Errorf("delete verification code: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendMagicLink(ctx, temp.Email, s.magicLink(token, tempID)); err != nil {
			logger.FromContext(ctx, s.logger).Warn("send magic link failed", zap.String("email", logger.MaskEmail(temp.Email)), zap.Error(err))
		}
	}

	s.metrics.SignupStep("verify", "ok")
	return &VerifyEmailResult{Token: token}, nil
}

// Complete activates the account, clears the ephemeral records and issues
// the first session.
func (s *SignupService) Complete(ctx context.Context, input CompleteSignupInput) (*CompleteSignupResult, error) {
	tempID := strings.TrimSpace(input.TempAccountID)
	token := input.VerificationToken
	if tempID == "" || token == "" {
		return nil, ErrCompletionFieldsRequired
	}

	stored, err := s.store.Get(ctx, domain.NamespaceVerificationTokens, tempID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load verification token: %w", err)
	}
	if err != nil || subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		s.metrics.SignupStep("complete", "unauthorized")
		return nil, ErrVerificationTokenInvalid
	}

	temp, err := s.loadTemp(ctx, tempID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTempSignupNotFound
		}
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, temp.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	forename := firstNonEmpty(input.Forename, temp.Forename, account.Forename)
	surname := firstNonEmpty(input.Surname, temp.Surname, account.Surname)

	now := s.now()
	status := domain.AccountStatus{
		ID:         uuid.NewString(),
		State:      domain.AccountStateActive,
		Reason:     activationReason,
		RecordedAt: now,
	}
	if err := s.accounts.Activate(ctx, port.ActivateAccountParams{
		AccountID:  account.ID,
		Forename:   forename,
		Surname:    surname,
		Status:     status,
		VerifiedAt: now,
	}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("activate account: %w", err)
	}

	account.Forename = forename
	account.Surname = surname
	account.StatusID = &status.ID
	account.Status = &status

	for _, namespace := range []string{domain.NamespaceTempSignup, domain.NamespaceVerificationTokens} {
		if err := s.store.Delete(ctx, namespace, tempID); err != nil {
			logger.FromContext(ctx, s.logger).Warn("delete signup record failed", zap.String("namespace", namespace), zap.Error(err))
		}
	}

	issued, err := s.sessions.Issue(ctx, *account, input.Metadata, "signup")
	if err != nil {
		return nil, err
	}

	if s.mailer != nil {
		if err := s.mailer.SendWelcome(ctx, account.Email, forename); err != nil {
			logger.FromContext(ctx, s.logger).Warn("send welcome email failed", zap.String("email", logger.MaskEmail(account.Email)), zap.Error(err))
		}
	}

	if s.events != nil {
		event := domain.AccountActivatedEvent{
			EventID:     uuid.NewString(),
			AccountID:   account.ID,
			Method:      domain.VerificationMethodEmail,
			ActivatedAt: now,
		}
		if err := s.events.PublishAccountActivated(ctx, event); err != nil {
			logger.FromContext(ctx, s.logger).Warn("publish account activated failed", zap.String("account_id", account.ID), zap.Error(err))
		}
	}

	s.metrics.SignupStep("complete", "ok")
	return &CompleteSignupResult{Account: account.Projection(), Session: *issued}, nil
}

func (s *SignupService) issueCode(ctx context.Context, tempID, email string) error {
	code, err := security.NewVerificationCode()
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}
	if err := s.store.Set(ctx, domain.NamespaceVerificationCodes, tempID, code, s.settings.VerificationCodeTTL); err != nil {
		return fmt.Errorf("store verification code: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendVerificationCode(ctx, email, code); err != nil {
			logger.FromContext(ctx, s.logger).Warn("send verification code failed", zap.String("email", logger.MaskEmail(email)), zap.Error(err))
		}
	}
	return nil
}

func (s *SignupService) saveTemp(ctx context.Context, tempID string, temp domain.TempSignupData) error {
	payload, err := json.Marshal(temp)
	if err != nil {
		return fmt.Errorf("encode temp signup: %w", err)
	}
	if err := s.store.Set(ctx, domain.NamespaceTempSignup, tempID, string(payload), s.settings.TempAccountTTL); err != nil {
		return fmt.Errorf("store temp signup: %w", err)
	}
	return nil
}

func (s *SignupService) loadTemp(ctx context.Context, tempID string) (*domain.TempSignupData, error) {
	raw, err := s.store.Get(ctx, domain.NamespaceTempSignup, tempID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load temp signup: %w", err)
	}

	var temp domain.TempSignupData
	if err := json.Unmarshal([]byte(raw), &temp); err != nil {
		return nil, fmt.Errorf("decode temp signup: %w", err)
	}
	return &temp, nil
}

func (s *SignupService) magicLink(token, tempID string) string {
	return strings.TrimRight(s.settings.FrontendURL, "/") +
		"/verify?token=" + url.QueryEscape(token) + "&id=" + url.QueryEscape(tempID)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
