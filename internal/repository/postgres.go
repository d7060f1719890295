package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shopassist/internal/model"
	"shopassist/internal/utils"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique key is already taken
var ErrConflict = errors.New("already exists")

// PostgresRepository handles database operations
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Ping checks that the database is reachable
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const productColumns = `
	p.id, p.name, p.description, p.category_id, c.name AS category_name,
	p.price, p.stock_quantity, p.sku, p.brand, p.rating, p.image_url,
	p.is_active, p.featured, p.created_at, p.updated_at`

var sortClauses = map[string]string{
	model.SortNameAsc:     "p.name ASC",
	model.SortNameDesc:    "p.name DESC",
	model.SortPriceAsc:    "p.price ASC",
	model.SortPriceDesc:   "p.price DESC",
	model.SortRatingAsc:   "p.rating ASC",
	model.SortRatingDesc:  "p.rating DESC",
	model.SortCreatedAsc:  "p.created_at ASC",
	model.SortCreatedDesc: "p.created_at DESC",
	// relevance is re-ranked by the service; fetch best rated first
	model.SortRelevance: "p.rating DESC",
}

// buildProductWhere translates filters into a WHERE clause over products p
// joined with categories c. Only active products are ever returned.
func buildProductWhere(f model.ProductFilters) (string, []interface{}) {
	whereClauses := []string{"p.is_active = true"}
	args := []interface{}{}
	argIndex := 1

	if q := strings.TrimSpace(f.Query); q != "" {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(p.name ILIKE $%[1]d OR p.description ILIKE $%[1]d OR p.brand ILIKE $%[1]d OR c.name ILIKE $%[1]d)",
			argIndex))
		args = append(args, "%"+utils.EscapeLike(q)+"%")
		argIndex++
	}
	if f.CategoryID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("p.category_id = $%d", argIndex))
		args = append(args, *f.CategoryID)
		argIndex++
	}
	if f.MinPrice != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("p.price >= $%d", argIndex))
		args = append(args, *f.MinPrice)
		argIndex++
	}
	if f.MaxPrice != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("p.price <= $%d", argIndex))
		args = append(args, *f.MaxPrice)
		argIndex++
	}
	if b := strings.TrimSpace(f.Brand); b != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("p.brand ILIKE $%d", argIndex))
		args = append(args, "%"+utils.EscapeLike(b)+"%")
		argIndex++
	}
	if f.InStock != nil && *f.InStock {
		whereClauses = append(whereClauses, "p.stock_quantity > 0")
	}
	if f.Featured != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("p.featured = $%d", argIndex))
		args = append(args, *f.Featured)
	}

	return strings.Join(whereClauses, " AND "), args
}

// SearchProducts returns one page of active products matching the query and
// the total number of matches.
func (r *PostgresRepository) SearchProducts(ctx context.Context, q model.ProductQuery) ([]model.Product, int, error) {
	orderBy, ok := sortClauses[q.SortBy]
	if !ok {
		orderBy = sortClauses[model.DefaultSortOrder]
	}

	whereClause, args := buildProductWhere(q.Filters)

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE %s`, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	argIndex := len(args) + 1
	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE %s
		ORDER BY %s, p.id DESC
		LIMIT $%d OFFSET $%d`, productColumns, whereClause, orderBy, argIndex, argIndex+1)
	args = append(args, q.Limit, q.Offset)

	products := []model.Product{}
	if err := r.db.SelectContext(ctx, &products, selectQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

// GetProductByID retrieves a single active product
func (r *PostgresRepository) GetProductByID(ctx context.Context, id int64) (*model.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1 AND p.is_active = true`, productColumns)

	var product model.Product
	if err := r.db.GetContext(ctx, &product, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// ListCategories returns every category with its active product count
func (r *PostgresRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	query := `
		SELECT c.id, c.name, c.description, c.created_at,
			COUNT(p.id) FILTER (WHERE p.is_active) AS product_count
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		GROUP BY c.id
		ORDER BY c.name`

	categories := []model.Category{}
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// FindCategory returns the first category whose name contains any of the
// given keywords, preferring a match on the first keyword.
func (r *PostgresRepository) FindCategory(ctx context.Context, keywords []string) (*model.Category, error) {
	if len(keywords) == 0 {
		return nil, ErrNotFound
	}

	conditions, args := utils.BuildILikeAny("c.name", keywords, 1)
	query := fmt.Sprintf(`
		SELECT c.id, c.name, c.description, c.created_at, 0 AS product_count
		FROM categories c
		WHERE %s
		ORDER BY CASE WHEN c.name ILIKE $1 THEN 0 ELSE 1 END, c.id
		LIMIT 1`, conditions)

	var category model.Category
	if err := r.db.GetContext(ctx, &category, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return &category, nil
}

// ListBrands returns the distinct brands of active products
func (r *PostgresRepository) ListBrands(ctx context.Context) ([]string, error) {
	brands := []string{}
	query := `SELECT DISTINCT brand FROM products WHERE is_active = true ORDER BY brand`
	if err := r.db.SelectContext(ctx, &brands, query); err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	return brands, nil
}

// ListFeatured returns up to limit active featured products
func (r *PostgresRepository) ListFeatured(ctx context.Context, limit int) ([]model.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.is_active = true AND p.featured = true
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $1`, productColumns)

	products := []model.Product{}
	if err := r.db.SelectContext(ctx, &products, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list featured products: %w", err)
	}
	return products, nil
}

// UpsertCategory creates the category if needed and returns its id
func (r *PostgresRepository) UpsertCategory(ctx context.Context, name, description string) (int64, error) {
	query := `
		INSERT INTO categories (name, description)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE
			SET description = COALESCE(NULLIF(EXCLUDED.description, ''), categories.description)
		RETURNING id`

	var id int64
	if err := r.db.GetContext(ctx, &id, query, name, description); err != nil {
		return 0, fmt.Errorf("failed to upsert category %q: %w", name, err)
	}
	return id, nil
}

// UpsertProduct inserts or updates a product keyed by SKU
func (r *PostgresRepository) UpsertProduct(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (name, description, category_id, price, stock_quantity, sku,
			brand, rating, image_url, is_active, featured)
		VALUES (:name, :description, :category_id, :price, :stock_quantity, :sku,
			:brand, :rating, :image_url, :is_active, :featured)
		ON CONFLICT (sku) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category_id = EXCLUDED.category_id,
			price = EXCLUDED.price,
			stock_quantity = EXCLUDED.stock_quantity,
			brand = EXCLUDED.brand,
			rating = EXCLUDED.rating,
			image_url = EXCLUDED.image_url,
			is_active = EXCLUDED.is_active,
			featured = EXCLUDED.featured,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	rows, err := r.db.NamedQueryContext(ctx, query, p)
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", p.SKU, err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return fmt.Errorf("failed to read upserted product %s: %w", p.SKU, err)
		}
	}
	return rows.Err()
}
