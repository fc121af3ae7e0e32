package port

import (
	"context"
	"time"

	"github.com/phamyourfam/blissbite/internal/core/domain"
)

// EstablishmentRepository persists establishments scoped to their owning professional account.
type EstablishmentRepository interface {
	Create(ctx context.Context, establishment domain.Establishment) error
	GetOwned(ctx context.Context, id, professionalAccountID string) (*domain.Establishment, error)
	ListOwned(ctx context.Context, professionalAccountID string, page domain.Page) ([]domain.Establishment, int, error)
	Update(ctx context.Context, id, professionalAccountID string, patch domain.EstablishmentPatch, at time.Time) (*domain.Establishment, error)
	Delete(ctx context.Context, id, professionalAccountID string) error
}

// ProductRepository persists products of one establishment.
type ProductRepository interface {
	Create(ctx context.Context, product domain.Product, categoryIDs []string) error
	Get(ctx context.Context, establishmentID, id string) (*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error)
	Update(ctx context.Context, establishmentID, id string, patch domain.ProductPatch, at time.Time) (*domain.Product, error)
	Delete(ctx context.Context, establishmentID, id string) error
}

// ReviewRepository persists reviews addressed by tagged targets.
type ReviewRepository interface {
	Create(ctx context.Context, review domain.Review) error
	ListByTarget(ctx context.Context, target domain.Target, page domain.Page) ([]domain.Review, int, error)
}

// FavoriteRepository persists an account's favorites.
type FavoriteRepository interface {
	Add(ctx context.Context, favorite domain.Favorite) error
	ListByAccount(ctx context.Context, accountID string) ([]domain.Favorite, error)
	Delete(ctx context.Context, accountID, id string) error
}

// TargetLookup checks that a tagged target references an existing row.
type TargetLookup interface {
	TargetExists(ctx context.Context, target domain.Target) (bool, error)
}
