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
	"github.com/phamyourfam/blissbite/internal/repository"
)

var (
	// ErrAccountForbidden indicates the caller tried to modify another account.
	ErrAccountForbidden = errors.New("accounts can only be modified by their owner")
	// ErrAccountInvalid indicates a malformed account payload.
	ErrAccountInvalid = errors.New("the account info is malformed")
)

// CreateAccountInput carries a direct account creation request.
type CreateAccountInput struct {
	Email       string
	Password    string
	Forename    string
	Surname     string
	PhoneNumber string
	AccountType string
}

// AccountService implements account CRUD.
type AccountService struct {
	accounts port.AccountRepository
	hasher   port.PasswordHasher
	policy   port.PasswordPolicyValidator
	logger   *zap.Logger
	now      func() time.Time
}

// NewAccountService constructs an AccountService.
func NewAccountService(accounts port.AccountRepository, hasher port.PasswordHasher, policy port.PasswordPolicyValidator, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		accounts: accounts,
		hasher:   hasher,
		policy:   policy,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *AccountService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// List returns a page of accounts, newest first.
func (s *AccountService) List(ctx context.Context, page domain.Page) ([]domain.Account, domain.PageInfo, error) {
	page = page.Normalize()
	accounts, total, err := s.accounts.List(ctx, page)
	if err != nil {
		return nil, domain.PageInfo{}, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, domain.NewPageInfo(page, total), nil
}

// Get returns one account.
func (s *AccountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	return account, nil
}

// Create inserts a PENDING account with an unverified EMAIL verification.
func (s *AccountService) Create(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, ErrAccountInvalid
	}

	accountType := domain.AccountTypePersonal
	if strings.TrimSpace(input.AccountType) != "" {
		parsed, ok := domain.ParseAccountType(input.AccountType)
		if !ok {
			return nil, ErrAccountInvalid
		}
		accountType = parsed
	}

	forename := strings.TrimSpace(input.Forename)
	surname := strings.TrimSpace(input.Surname)
	if s.policy != nil {
		if err := s.policy.Validate(input.Password, email, forename, surname); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
		}
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
		AccountType:  accountType,
		CreatedAt:    now,
		UpdatedAt:    now,
		Status: &domain.AccountStatus{
			ID:         uuid.NewString(),
			State:      domain.AccountStatePending,
			RecordedAt: now,
		},
	}
	if phone := strings.TrimSpace(input.PhoneNumber); phone != "" {
		account.PhoneNumber = &phone
	}
	account.StatusID = &account.Status.ID

	verification := domain.AccountVerification{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		Method:    domain.VerificationMethodEmail,
		CreatedAt: now,
	}

	if err := s.accounts.CreatePending(ctx, account, verification); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	account.Verifications = []domain.AccountVerification{verification}
	return &account, nil
}

// Update applies a partial update to the caller's own account.
func (s *AccountService) Update(ctx context.Context, callerID, id string, patch domain.AccountPatch) (*domain.Account, error) {
	if callerID != id {
		return nil, ErrAccountForbidden
	}

	updated, err := s.accounts.Update(ctx, id, patch, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	return updated, nil
}

// Delete removes the caller's own account and everything it owns.
func (s *AccountService) Delete(ctx context.Context, callerID, id string) error {
	if callerID != id {
		return ErrAccountForbidden
	}

	if err := s.accounts.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("delete account: %w", err)
	}
	s.logger.Info("account deleted", zap.String("account_id", id))
	return nil
}
