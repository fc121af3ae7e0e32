package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/phamyourfam/blissbite/internal/core/domain"
	"github.com/phamyourfam/blissbite/internal/core/port"
)

// ReviewRepository persists reviews against product or establishment targets.
type ReviewRepository struct {
	db      DB
	builder squirrel.StatementBuilderType
}

// NewReviewRepository creates a review repository.
func NewReviewRepository(db DB) *ReviewRepository {
	return &ReviewRepository{db: db, builder: newBuilder()}
}

// Create inserts a review.
func (r *ReviewRepository) Create(ctx context.Context, review domain.Review) error {
	insert := r.builder.Insert("reviews").
		Columns("id", "account_id", "target_kind", "target_id", "rating", "title", "comment", "is_anonymous", "created_at").
		Values(
			review.ID,
			review.AccountID,
			review.Target.Kind,
			review.Target.ID,
			review.Rating,
			review.Title,
			review.Comment,
			review.IsAnonymous,
			review.CreatedAt,
		)
	return execStmt(ctx, r.db, insert, "insert review")
}

// ListByTarget returns a page of reviews for target, newest first.
// Anonymous reviews are returned without their author.
func (r *ReviewRepository) ListByTarget(ctx context.Context, target domain.Target, page domain.Page) ([]domain.Review, int, error) {
	page = page.Normalize()
	where := squirrel.Eq{"target_kind": target.Kind, "target_id": target.ID}

	total, err := count(ctx, r.db, r.builder.Select("COUNT(*)").From("reviews").Where(where))
	if err != nil {
		return nil, 0, err
	}

	stmt, args, err := r.builder.
		Select("id", "account_id", "target_kind", "target_id", "rating", "title", "comment", "is_anonymous", "created_at").
		From("reviews").
		Where(where).
		OrderBy("created_at DESC", "id").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list reviews sql: %w", err)
	}

	rows, err := r.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", mapError(err))
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0, page.Limit)
	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(
			&review.ID,
			&review.AccountID,
			&review.Target.Kind,
			&review.Target.ID,
			&review.Rating,
			&review.Title,
			&review.Comment,
			&review.IsAnonymous,
			&review.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review: %w", err)
		}
		if review.IsAnonymous {
			review.AccountID = ""
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, total, nil
}

// FavoriteRepository persists account favorites.
type FavoriteRepository struct {
	db      DB
	builder squirrel.StatementBuilderType
}

// NewFavoriteRepository creates a favorite repository.
func NewFavoriteRepository(db DB) *FavoriteRepository {
	return &FavoriteRepository{db: db, builder: newBuilder()}
}

// Add inserts a favorite; a duplicate target yields repository.ErrConflict.
func (r *FavoriteRepository) Add(ctx context.Context, favorite domain.Favorite) error {
	insert := r.builder.Insert("favorites").
		Columns("id", "account_id", "target_kind", "target_id", "created_at").
		Values(favorite.ID, favorite.AccountID, favorite.Target.Kind, favorite.Target.ID, favorite.CreatedAt)
	return execStmt(ctx, r.db, insert, "insert favorite")
}

// ListByAccount returns every favorite of accountID, newest first.
func (r *FavoriteRepository) ListByAccount(ctx context.Context, accountID string) ([]domain.Favorite, error) {
	stmt, args, err := r.builder.
		Select("id", "account_id", "target_kind", "target_id", "created_at").
		From("favorites").
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("created_at DESC", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list favorites sql: %w", err)
	}

	rows, err := r.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", mapError(err))
	}

	favorites, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Favorite, error) {
		var f domain.Favorite
		err := row.Scan(&f.ID, &f.AccountID, &f.Target.Kind, &f.Target.ID, &f.CreatedAt)
		return f, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan favorites: %w", err)
	}
	return favorites, nil
}

// Delete removes a favorite owned by accountID.
func (r *FavoriteRepository) Delete(ctx context.Context, accountID, id string) error {
	remove := r.builder.Delete("favorites").Where(squirrel.Eq{"id": id, "account_id": accountID})
	return execAffecting(ctx, r.db, remove, "delete favorite")
}

// TargetRepository resolves tagged targets against their tables.
type TargetRepository struct {
	db      DB
	builder squirrel.StatementBuilderType
}

// NewTargetRepository creates a target lookup.
func NewTargetRepository(db DB) *TargetRepository {
	return &TargetRepository{db: db, builder: newBuilder()}
}

// TargetExists reports whether the referenced product or establishment exists.
func (r *TargetRepository) TargetExists(ctx context.Context, target domain.Target) (bool, error) {
	var table string
	switch target.Kind {
	case domain.TargetProduct:
		table = "products"
	case domain.TargetEstablishment:
		table = "establishments"
	default:
		return false, fmt.Errorf("unknown target kind %q", target.Kind)
	}

	total, err := count(ctx, r.db, r.builder.Select("COUNT(*)").From(table).Where(squirrel.Eq{"id": target.ID}))
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

var (
	_ port.ReviewRepository   = (*ReviewRepository)(nil)
	_ port.FavoriteRepository = (*FavoriteRepository)(nil)
	_ port.TargetLookup       = (*TargetRepository)(nil)
)
