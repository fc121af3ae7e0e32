package port

import (
	"context"
	"time"

	"github.com/phamyourfam/blissbite/internal/core/domain"
)

// ActivateAccountParams carries everything written when signup completes.
type ActivateAccountParams struct {
	AccountID  string
	Forename   string
	Surname    string
	Status     domain.AccountStatus
	VerifiedAt time.Time
}

// AccountRepository exposes persistence behavior for accounts and their satellites.
type AccountRepository interface {
	// CreatePending inserts an account without status together with its unverified verification row.
	CreatePending(ctx context.Context, account domain.Account, verification domain.AccountVerification) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	List(ctx context.Context, page domain.Page) ([]domain.Account, int, error)
	Activate(ctx context.Context, params ActivateAccountParams) error
	Update(ctx context.Context, id string, patch domain.AccountPatch, at time.Time) (*domain.Account, error)
	Delete(ctx context.Context, id string) error
	GetProfessionalAccount(ctx context.Context, accountID string) (*domain.ProfessionalAccount, error)
}
