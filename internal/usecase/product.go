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
	// ErrProductNotFound indicates the product is missing from the establishment.
	ErrProductNotFound = errors.New("product not found")
	// ErrProductInvalid indicates a malformed product payload.
	ErrProductInvalid = errors.New("name and a non-negative basePrice are required")
)

// CreateProductInput carries a new menu item.
type CreateProductInput struct {
	Name            string
	Description     *string
	BasePrice       *float64
	IsAvailable     *bool
	PreparationTime *int
	ImageURLs       []string
	CategoryIDs     []string
}

// ProductService implements product CRUD. Ownership is resolved through
// account, professional account and establishment in that order.
type ProductService struct {
	accounts       port.AccountRepository
	establishments port.EstablishmentRepository
	products       port.ProductRepository
	logger         *zap.Logger
	now            func() time.Time
}

// NewProductService constructs a ProductService.
func NewProductService(accounts port.AccountRepository, establishments port.EstablishmentRepository, products port.ProductRepository, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		accounts:       accounts,
		establishments: establishments,
		products:       products,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *ProductService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// List returns a filtered page of an owned establishment's products.
func (s *ProductService) List(ctx context.Context, accountID string, filter domain.ProductFilter) ([]domain.Product, domain.PageInfo, error) {
	establishment, err := s.establishment(ctx, accountID, filter.EstablishmentID)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}

	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, domain.PageInfo{}, fmt.Errorf("%w: minPrice exceeds maxPrice", ErrProductInvalid)
	}

	filter.EstablishmentID = establishment.ID
	filter.Page = filter.Page.Normalize()
	if filter.SortBy == "" {
		filter.SortBy = domain.ProductSortPrice
	}
	if filter.Order == "" {
		filter.Order = domain.SortAsc
	}

	items, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, domain.PageInfo{}, fmt.Errorf("list products: %w", err)
	}
	return items, domain.NewPageInfo(filter.Page, total), nil
}

// Get returns one product of an owned establishment.
func (s *ProductService) Get(ctx context.Context, accountID, establishmentID, id string) (*domain.Product, error) {
	establishment, err := s.establishment(ctx, accountID, establishmentID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.Get(ctx, establishment.ID, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("lookup product: %w", err)
	}
	return product, nil
}

// Create adds a product to an owned establishment.
func (s *ProductService) Create(ctx context.Context, accountID, establishmentID string, input CreateProductInput) (*domain.Product, error) {
	establishment, err := s.establishment(ctx, accountID, establishmentID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" || input.BasePrice == nil || *input.BasePrice < 0 {
		return nil, ErrProductInvalid
	}

	available := true
	if input.IsAvailable != nil {
		available = *input.IsAvailable
	}

	now := s.now()
	product := domain.Product{
		ID:              uuid.NewString(),
		EstablishmentID: establishment.ID,
		Name:            name,
		Description:     input.Description,
		BasePrice:       *input.BasePrice,
		IsAvailable:     available,
		PreparationTime: input.PreparationTime,
		ImageURLs:       input.ImageURLs,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if product.ImageURLs == nil {
		product.ImageURLs = []string{}
	}

	if err := s.products.Create(ctx, product, input.CategoryIDs); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	created, err := s.products.Get(ctx, establishment.ID, product.ID)
	if err != nil {
		s.logger.Warn("reload created product failed", zap.String("product_id", product.ID), zap.Error(err))
		return &product, nil
	}
	return created, nil
}

// Update applies a partial update to a product of an owned establishment.
func (s *ProductService) Update(ctx context.Context, accountID, establishmentID, id string, patch domain.ProductPatch) (*domain.Product, error) {
	establishment, err := s.establishment(ctx, accountID, establishmentID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, ErrProductInvalid
	}
	if patch.BasePrice != nil && *patch.BasePrice < 0 {
		return nil, ErrProductInvalid
	}

	updated, err := s.products.Update(ctx, establishment.ID, strings.TrimSpace(id), patch, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

// Delete removes a product from an owned establishment.
func (s *ProductService) Delete(ctx context.Context, accountID, establishmentID, id string) error {
	establishment, err := s.establishment(ctx, accountID, establishmentID)
	if err != nil {
		return err
	}

	if err := s.products.Delete(ctx, establishment.ID, strings.TrimSpace(id)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (s *ProductService) establishment(ctx context.Context, accountID, establishmentID string) (*domain.Establishment, error) {
	owner, err := professionalOf(ctx, s.accounts, accountID)
	if err != nil {
		return nil, err
	}
	return ownedEstablishment(ctx, s.establishments, owner.ID, establishmentID)
}
