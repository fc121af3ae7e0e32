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
	// ErrProfessionalRequired indicates the caller has no professional account.
	ErrProfessionalRequired = errors.New("only professional accounts can manage establishments")
	// ErrEstablishmentNotFound indicates the establishment is missing or owned by someone else.
	ErrEstablishmentNotFound = errors.New("establishment not found")
	// ErrEstablishmentInvalid indicates a malformed establishment payload.
	ErrEstablishmentInvalid = errors.New("name and address are required")
)

// CreateEstablishmentInput carries a new establishment.
type CreateEstablishmentInput struct {
	Name        string
	Address     string
	Description *string
	Avatar      *string
	Banner      *string
}

// EstablishmentService implements establishment CRUD scoped to the caller's
// professional account.
type EstablishmentService struct {
	accounts       port.AccountRepository
	establishments port.EstablishmentRepository
	logger         *zap.Logger
	now            func() time.Time
}

// NewEstablishmentService constructs an EstablishmentService.
func NewEstablishmentService(accounts port.AccountRepository, establishments port.EstablishmentRepository, logger *zap.Logger) *EstablishmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EstablishmentService{
		accounts:       accounts,
		establishments: establishments,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *EstablishmentService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// List returns a page of the caller's establishments, newest first.
func (s *EstablishmentService) List(ctx context.Context, accountID string, page domain.Page) ([]domain.Establishment, domain.PageInfo, error) {
	owner, err := professionalOf(ctx, s.accounts, accountID)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}

	page = page.Normalize()
	items, total, err := s.establishments.ListOwned(ctx, owner.ID, page)
	if err != nil {
		return nil, domain.PageInfo{}, fmt.Errorf("list establishments: %w", err)
	}
	return items, domain.NewPageInfo(page, total), nil
}

// Get returns one of the caller's establishments.
func (s *EstablishmentService) Get(ctx context.Context, accountID, id string) (*domain.Establishment, error) {
	owner, err := professionalOf(ctx, s.accounts, accountID)
	if err != nil {
		return nil, err
	}
	return ownedEstablishment(ctx, s.establishments, owner.ID, id)
}

// Create adds an active establishment for the caller.
func (s *EstablishmentService) Create(ctx context.Context, accountID string, input CreateEstablishmentInput) (*domain.Establishment, error) {
	owner, err := professionalOf(ctx, s.accounts, accountID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	address := strings.TrimSpace(input.Address)
	if name == "" || address == "" {
		return nil, ErrEstablishmentInvalid
	}

	now := s.now()
	establishment := domain.Establishment{
		ID:                    uuid.NewString(),
		ProfessionalAccountID: owner.ID,
		Name:                  name,
		Address:               address,
		Description:           input.Description,
		Status:                domain.EstablishmentActive,
		Avatar:                input.Avatar,
		Banner:                input.Banner,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.establishments.Create(ctx, establishment); err != nil {
		return nil, fmt.Errorf("create establishment: %w", err)
	}

	s.logger.Info("establishment created", zap.String("establishment_id", establishment.ID), zap.String("account_id", accountID))
	return &establishment, nil
}

// Update applies a partial update to one of the caller's establishments.
func (s *EstablishmentService) Update(ctx context.Context, accountID, id string, patch domain.EstablishmentPatch) (*domain.Establishment, error) {
	owner, err := professionalOf(ctx, s.accounts, accountID)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil && !patch.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrEstablishmentInvalid, *patch.Status)
	}
	if (patch.Name != nil && strings.TrimSpace(*patch.Name) == "") || (patch.Address != nil && strings.TrimSpace(*patch.Address) == "") {
		return nil, ErrEstablishmentInvalid
	}
	if patch.Empty() {
		return ownedEstablishment(ctx, s.establishments, owner.ID, id)
	}

	updated, err := s.establishments.Update(ctx, id, owner.ID, patch, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEstablishmentNotFound
		}
		return nil, fmt.Errorf("update establishment: %w", err)
	}
	return updated, nil
}

// Delete removes one of the caller's establishments together with its menu.
func (s *EstablishmentService) Delete(ctx context.Context, accountID, id string) error {
	owner, err := professionalOf(ctx, s.accounts, accountID)
	if err != nil {
		return err
	}

	if err := s.establishments.Delete(ctx, id, owner.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEstablishmentNotFound
		}
		return fmt.Errorf("delete establishment: %w", err)
	}
	return nil
}

func professionalOf(ctx context.Context, accounts port.AccountRepository, accountID string) (*domain.ProfessionalAccount, error) {
	owner, err := accounts.GetProfessionalAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfessionalRequired
		}
		return nil, fmt.Errorf("lookup professional account: %w", err)
	}
	return owner, nil
}

func ownedEstablishment(ctx context.Context, establishments port.EstablishmentRepository, ownerID, id string) (*domain.Establishment, error) {
	establishment, err := establishments.GetOwned(ctx, strings.TrimSpace(id), ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEstablishmentNotFound
		}
		return nil, fmt.Errorf("lookup establishment: %w", err)
	}
	return establishment, nil
}
