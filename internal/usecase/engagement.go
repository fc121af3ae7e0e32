package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phamyourfam/blissbite/internal/core/domain"
	"github.com/phamyourfam/blissbite/internal/core/port"
	"github.com/phamyourfam/blissbite/internal/repository"
)

var (
	// ErrTargetNotFound indicates the reviewed or favorited entity does not exist.
	ErrTargetNotFound = errors.New("target not found")
	// ErrReviewInvalid indicates a rating outside 1..5.
	ErrReviewInvalid = errors.New("rating must be between 1 and 5")
	// ErrFavoriteExists indicates the target is already a favorite.
	ErrFavoriteExists = errors.New("target is already a favorite")
	// ErrFavoriteNotFound indicates the favorite is missing or owned by someone else.
	ErrFavoriteNotFound = errors.New("favorite not found")
)

// CreateReviewInput carries a new review.
type CreateReviewInput struct {
	Target      domain.Target
	Rating      int
	Title       *string
	Comment     *string
	IsAnonymous bool
}

// ReviewService lists and records reviews of products and establishments.
type ReviewService struct {
	reviews port.ReviewRepository
	targets port.TargetLookup
	now     func() time.Time
}

// NewReviewService constructs a ReviewService.
func NewReviewService(reviews port.ReviewRepository, targets port.TargetLookup) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		targets: targets,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *ReviewService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// List returns a page of reviews for target, newest first.
func (s *ReviewService) List(ctx context.Context, target domain.Target, page domain.Page) ([]domain.Review, domain.PageInfo, error) {
	page = page.Normalize()
	reviews, total, err := s.reviews.ListByTarget(ctx, target, page)
	if err != nil {
		return nil, domain.PageInfo{}, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, domain.NewPageInfo(page, total), nil
}

// Create records a review by accountID.
func (s *ReviewService) Create(ctx context.Context, accountID string, input CreateReviewInput) (*domain.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrReviewInvalid
	}
	if err := ensureTarget(ctx, s.targets, input.Target); err != nil {
		return nil, err
	}

	review := domain.Review{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Target:      input.Target,
		Rating:      input.Rating,
		Title:       trimmedOrNil(input.Title),
		Comment:     trimmedOrNil(input.Comment),
		IsAnonymous: input.IsAnonymous,
		CreatedAt:   s.now(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return nil, ErrTargetNotFound
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	if review.IsAnonymous {
		review.AccountID = ""
	}
	return &review, nil
}

// FavoriteService manages an account's favorites.
type FavoriteService struct {
	favorites port.FavoriteRepository
	targets   port.TargetLookup
	now       func() time.Time
}

// NewFavoriteService constructs a FavoriteService.
func NewFavoriteService(favorites port.FavoriteRepository, targets port.TargetLookup) *FavoriteService {
	return &FavoriteService{
		favorites: favorites,
		targets:   targets,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *FavoriteService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// List returns every favorite of accountID.
func (s *FavoriteService) List(ctx context.Context, accountID string) ([]domain.Favorite, error) {
	favorites, err := s.favorites.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return favorites, nil
}

// Add bookmarks target for accountID.
func (s *FavoriteService) Add(ctx context.Context, accountID string, target domain.Target) (*domain.Favorite, error) {
	if err := ensureTarget(ctx, s.targets, target); err != nil {
		return nil, err
	}

	favorite := domain.Favorite{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Target:    target,
		CreatedAt: s.now(),
	}
	if err := s.favorites.Add(ctx, favorite); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrFavoriteExists
		case errors.Is(err, repository.ErrInvalidReference):
			return nil, ErrTargetNotFound
		}
		return nil, fmt.Errorf("add favorite: %w", err)
	}
	return &favorite, nil
}

// Remove deletes one of accountID's favorites.
func (s *FavoriteService) Remove(ctx context.Context, accountID, id string) error {
	if err := s.favorites.Delete(ctx, accountID, strings.TrimSpace(id)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrFavoriteNotFound
		}
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

func ensureTarget(ctx context.Context, targets port.TargetLookup, target domain.Target) error {
	ok, err := targets.TargetExists(ctx, target)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTargetNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup %s: %w", target, err)
	}
	if !ok {
		return ErrTargetNotFound
	}
	return nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
