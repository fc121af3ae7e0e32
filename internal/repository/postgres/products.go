package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/phamyourfam/blissbite/internal/core/domain"
	"github.com/phamyourfam/blissbite/internal/core/port"
)

const (
	averageRatingColumn = "(SELECT AVG(r.rating) FROM reviews r WHERE r.target_kind = 'product' AND r.target_id = p.id) AS average_rating"
	orderCountColumn    = "(SELECT COUNT(*) FROM order_products op WHERE op.product_id = p.id) AS order_count"
)

var productColumns = []string{
	"p.id",
	"p.establishment_id",
	"p.name",
	"p.description",
	"p.base_price",
	"p.is_available",
	"p.preparation_time",
	"p.image_urls",
	"p.created_at",
	"p.updated_at",
	averageRatingColumn,
	orderCountColumn,
}

// ProductRepository persists products and their category links.
type ProductRepository struct {
	db      DB
	builder squirrel.StatementBuilderType
}

// NewProductRepository creates a product repository.
func NewProductRepository(db DB) *ProductRepository {
	return &ProductRepository{db: db, builder: newBuilder()}
}

// Create inserts the product, links categories of the same establishment
// and bumps the establishment's products_count.
func (r *ProductRepository) Create(ctx context.Context, product domain.Product, categoryIDs []string) error {
	return runInTx(ctx, r.db, func(tx pgx.Tx) error {
		imageURLs := product.ImageURLs
		if imageURLs == nil {
			imageURLs = []string{}
		}

		insert := r.builder.Insert("products").
			Columns("id", "establishment_id", "name", "description", "base_price", "is_available", "preparation_time", "image_urls", "created_at", "updated_at").
			Values(
				product.ID,
				product.EstablishmentID,
				product.Name,
				product.Description,
				product.BasePrice,
				product.IsAvailable,
				product.PreparationTime,
				imageURLs,
				product.CreatedAt,
				product.UpdatedAt,
			)
		if err := execStmt(ctx, tx, insert, "insert product"); err != nil {
			return err
		}

		if err := r.linkCategories(ctx, tx, product.EstablishmentID, product.ID, categoryIDs); err != nil {
			return err
		}

		return r.adjustProductsCount(ctx, tx, product.EstablishmentID, 1)
	})
}

// Get loads a product belonging to establishmentID.
func (r *ProductRepository) Get(ctx context.Context, establishmentID, id string) (*domain.Product, error) {
	stmt, args, err := r.builder.Select(productColumns...).
		From("products p").
		Where(squirrel.Eq{"p.id": id, "p.establishment_id": establishmentID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select product sql: %w", err)
	}

	product, err := scanProduct(r.db.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, err
	}

	products := []domain.Product{*product}
	if err := r.attachCategories(ctx, products); err != nil {
		return nil, err
	}
	return &products[0], nil
}

// List applies filter and returns one page plus the total number of matches.
func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	page := filter.Page.Normalize()
	where := productConditions(filter)

	total, err := count(ctx, r.db, r.builder.Select("COUNT(*)").From("products p").Where(where))
	if err != nil {
		return nil, 0, err
	}

	stmt, args, err := r.builder.Select(productColumns...).
		From("products p").
		Where(where).
		OrderBy(productOrder(filter.SortBy, filter.Order)...).
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list products sql: %w", err)
	}

	rows, err := r.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", mapError(err))
	}
	defer rows.Close()

	products := make([]domain.Product, 0, page.Limit)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate products: %w", err)
	}
	rows.Close()

	if err := r.attachCategories(ctx, products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Update applies a partial update. A non-nil CategoryIDs replaces the links.
func (r *ProductRepository) Update(ctx context.Context, establishmentID, id string, patch domain.ProductPatch, at time.Time) (*domain.Product, error) {
	err := runInTx(ctx, r.db, func(tx pgx.Tx) error {
		update := r.builder.Update("products").
			Set("updated_at", at).
			Where(squirrel.Eq{"id": id, "establishment_id": establishmentID})
		if patch.Name != nil {
			update = update.Set("name", *patch.Name)
		}
		if patch.Description != nil {
			update = update.Set("description", *patch.Description)
		}
		if patch.BasePrice != nil {
			update = update.Set("base_price", *patch.BasePrice)
		}
		if patch.IsAvailable != nil {
			update = update.Set("is_available", *patch.IsAvailable)
		}
		if patch.PreparationTime != nil {
			update = update.Set("preparation_time", *patch.PreparationTime)
		}
		if patch.ImageURLs != nil {
			update = update.Set("image_urls", *patch.ImageURLs)
		}
		if err := execAffecting(ctx, tx, update, "update product"); err != nil {
			return err
		}

		if patch.CategoryIDs == nil {
			return nil
		}
		unlink := r.builder.Delete("product_categories").Where(squirrel.Eq{"product_id": id})
		if err := execStmt(ctx, tx, unlink, "unlink product categories"); err != nil {
			return err
		}
		return r.linkCategories(ctx, tx, establishmentID, id, *patch.CategoryIDs)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, establishmentID, id)
}

// Delete removes the product and decrements products_count.
func (r *ProductRepository) Delete(ctx context.Context, establishmentID, id string) error {
	return runInTx(ctx, r.db, func(tx pgx.Tx) error {
		remove := r.builder.Delete("products").Where(squirrel.Eq{"id": id, "establishment_id": establishmentID})
		if err := execAffecting(ctx, tx, remove, "delete product"); err != nil {
			return err
		}
		return r.adjustProductsCount(ctx, tx, establishmentID, -1)
	})
}

func (r *ProductRepository) linkCategories(ctx context.Context, tx pgx.Tx, establishmentID, productID string, categoryIDs []string) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	// Categories of other establishments are silently ignored.
	link := squirrel.Expr(
		"INSERT INTO product_categories (product_id, category_id) SELECT $1, id FROM categories WHERE establishment_id = $2 AND id = ANY($3) ON CONFLICT DO NOTHING",
		productID, establishmentID, categoryIDs,
	)
	return execStmt(ctx, tx, link, "link product categories")
}

func (r *ProductRepository) adjustProductsCount(ctx context.Context, tx pgx.Tx, establishmentID string, delta int) error {
	update := r.builder.Update("establishments").
		Set("products_count", squirrel.Expr("GREATEST(products_count + ?, 0)", delta)).
		Where(squirrel.Eq{"id": establishmentID})
	return execAffecting(ctx, tx, update, "adjust products count")
}

func (r *ProductRepository) attachCategories(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]string, len(products))
	index := make(map[string]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		index[p.ID] = i
	}

	stmt, args, err := r.builder.
		Select("pc.product_id", "c.id", "c.establishment_id", "c.name", "c.description", "c.display_order").
		From("product_categories pc").
		Join("categories c ON c.id = pc.category_id").
		Where(squirrel.Eq{"pc.product_id": ids}).
		OrderBy("c.display_order", "c.name").
		ToSql()
	if err != nil {
		return fmt.Errorf("build select product categories sql: %w", err)
	}

	rows, err := r.db.Query(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("select product categories: %w", mapError(err))
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID string
			c         domain.Category
		)
		if err := rows.Scan(&productID, &c.ID, &c.EstablishmentID, &c.Name, &c.Description, &c.DisplayOrder); err != nil {
			return fmt.Errorf("scan product category: %w", err)
		}
		if i, ok := index[productID]; ok {
			products[i].Categories = append(products[i].Categories, c)
		}
	}
	return rows.Err()
}

func productConditions(filter domain.ProductFilter) squirrel.And {
	where := squirrel.And{}
	if filter.EstablishmentID != "" {
		where = append(where, squirrel.Eq{"p.establishment_id": filter.EstablishmentID})
	}
	if filter.MinPrice != nil {
		where = append(where, squirrel.GtOrEq{"p.base_price": *filter.MinPrice})
	}
	if filter.MaxPrice != nil {
		where = append(where, squirrel.LtOrEq{"p.base_price": *filter.MaxPrice})
	}
	if filter.AvailableOnly {
		where = append(where, squirrel.Eq{"p.is_available": true})
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		where = append(where, squirrel.Expr(
			"EXISTS (SELECT 1 FROM product_categories pc JOIN categories c ON c.id = pc.category_id WHERE pc.product_id = p.id AND (c.id::text = ? OR lower(c.name) = lower(?)))",
			category, category,
		))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + search + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"p.name": pattern},
			squirrel.ILike{"p.description": pattern},
		})
	}
	return where
}

func productOrder(sortBy domain.ProductSort, order domain.SortOrder) []string {
	direction := "ASC"
	if order == domain.SortDesc {
		direction = "DESC"
	}

	switch sortBy {
	case domain.ProductSortRating:
		return []string{"average_rating " + direction + " NULLS LAST", "p.id"}
	case domain.ProductSortPopularity:
		return []string{"order_count " + direction, "p.id"}
	default:
		return []string{"p.base_price " + direction, "p.id"}
	}
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p          domain.Product
		orderCount int64
	)
	if err := row.Scan(
		&p.ID,
		&p.EstablishmentID,
		&p.Name,
		&p.Description,
		&p.BasePrice,
		&p.IsAvailable,
		&p.PreparationTime,
		&p.ImageURLs,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.AverageRating,
		&orderCount,
	); err != nil {
		return nil, mapError(err)
	}
	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}
	return &p, nil
}

var _ port.ProductRepository = (*ProductRepository)(nil)
