package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/phamyourfam/blissbite/internal/core/domain"
	"github.com/phamyourfam/blissbite/internal/core/port"
)

var establishmentColumns = []string{
	"id",
	"professional_account_id",
	"name",
	"address",
	"description",
	"products_count",
	"status",
	"avatar",
	"banner",
	"created_at",
	"updated_at",
}

// EstablishmentRepository persists establishments. Every read and write is
// scoped to the owning professional account.
type EstablishmentRepository struct {
	db      DB
	builder squirrel.StatementBuilderType
}

// NewEstablishmentRepository creates an establishment repository.
func NewEstablishmentRepository(db DB) *EstablishmentRepository {
	return &EstablishmentRepository{db: db, builder: newBuilder()}
}

// Create inserts an establishment.
func (r *EstablishmentRepository) Create(ctx context.Context, e domain.Establishment) error {
	insert := r.builder.Insert("establishments").
		Columns(establishmentColumns...).
		Values(
			e.ID,
			e.ProfessionalAccountID,
			e.Name,
			e.Address,
			e.Description,
			e.ProductsCount,
			e.Status,
			e.Avatar,
			e.Banner,
			e.CreatedAt,
			e.UpdatedAt,
		)
	return execStmt(ctx, r.db, insert, "insert establishment")
}

// GetOwned loads an establishment owned by professionalAccountID.
func (r *EstablishmentRepository) GetOwned(ctx context.Context, id, professionalAccountID string) (*domain.Establishment, error) {
	stmt, args, err := r.builder.Select(establishmentColumns...).
		From("establishments").
		Where(squirrel.Eq{"id": id, "professional_account_id": professionalAccountID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select establishment sql: %w", err)
	}
	return scanEstablishment(r.db.QueryRow(ctx, stmt, args...))
}

// ListOwned returns a page of establishments owned by professionalAccountID, newest first.
func (r *EstablishmentRepository) ListOwned(ctx context.Context, professionalAccountID string, page domain.Page) ([]domain.Establishment, int, error) {
	page = page.Normalize()
	owner := squirrel.Eq{"professional_account_id": professionalAccountID}

	total, err := count(ctx, r.db, r.builder.Select("COUNT(*)").From("establishments").Where(owner))
	if err != nil {
		return nil, 0, err
	}

	stmt, args, err := r.builder.Select(establishmentColumns...).
		From("establishments").
		Where(owner).
		OrderBy("created_at DESC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list establishments sql: %w", err)
	}

	rows, err := r.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list establishments: %w", mapError(err))
	}
	defer rows.Close()

	out := make([]domain.Establishment, 0, page.Limit)
	for rows.Next() {
		e, err := scanEstablishment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate establishments: %w", err)
	}
	return out, total, nil
}

// Update applies a partial update and returns the stored row.
func (r *EstablishmentRepository) Update(ctx context.Context, id, professionalAccountID string, patch domain.EstablishmentPatch, at time.Time) (*domain.Establishment, error) {
	update := r.builder.Update("establishments").
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id, "professional_account_id": professionalAccountID}).
		Suffix("RETURNING " + joinColumns(establishmentColumns))
	if patch.Name != nil {
		update = update.Set("name", *patch.Name)
	}
	if patch.Address != nil {
		update = update.Set("address", *patch.Address)
	}
	if patch.Description != nil {
		update = update.Set("description", *patch.Description)
	}
	if patch.Status != nil {
		update = update.Set("status", *patch.Status)
	}
	if patch.Avatar != nil {
		update = update.Set("avatar", *patch.Avatar)
	}
	if patch.Banner != nil {
		update = update.Set("banner", *patch.Banner)
	}

	stmt, args, err := update.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update establishment sql: %w", err)
	}
	return scanEstablishment(r.db.QueryRow(ctx, stmt, args...))
}

// Delete removes an owned establishment; its products cascade.
func (r *EstablishmentRepository) Delete(ctx context.Context, id, professionalAccountID string) error {
	remove := r.builder.Delete("establishments").
		Where(squirrel.Eq{"id": id, "professional_account_id": professionalAccountID})
	return execAffecting(ctx, r.db, remove, "delete establishment")
}

func scanEstablishment(row pgx.Row) (*domain.Establishment, error) {
	var e domain.Establishment
	if err := row.Scan(
		&e.ID,
		&e.ProfessionalAccountID,
		&e.Name,
		&e.Address,
		&e.Description,
		&e.ProductsCount,
		&e.Status,
		&e.Avatar,
		&e.Banner,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &e, nil
}

var _ port.EstablishmentRepository = (*EstablishmentRepository)(nil)
