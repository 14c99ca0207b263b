package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"faceted-catalog-service/internal/domain"
	"faceted-catalog-service/internal/listing"
	"faceted-catalog-service/internal/predicate"
)

// listingColumns maps predicate fields onto the joined listing query.
var listingColumns = predicate.Columns{
	Status:      "p.status",
	Category:    "c.slug",
	Subcategory: "s.slug",
	Rating:      "p.average_rating",
	Price:       "v.our_price",
	Stock:       "v.stock",
}

const listingFrom = `
		FROM product_variants v
		JOIN products p ON p.id = v.product_id AND v.is_default
		JOIN categories c ON c.id = p.category_id
		LEFT JOIN subcategories s ON s.id = p.subcategory_id
		LEFT JOIN brands b ON b.id = p.brand_id
`

const listingSelect = `
		SELECT p.id AS product_id, p.slug, p.full_name, p.average_rating, p.brand_id,
			COALESCE(b.name, '') AS brand_name, c.slug AS category_slug,
			COALESCE(s.slug, '') AS subcategory_slug, p.status, p.created_at,
			v.id AS variant_id, v.slug AS variant_slug, v.our_price, v.mrp, v.stock,
			v.attributes, COALESCE(v.image_url, '') AS image
` + listingFrom

// PostgresStore implements CatalogReader on PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- CategoryReader Implementation ---

func (s *PostgresStore) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	query := `
		SELECT id, slug, name, is_active
		FROM categories
		WHERE slug = $1;
	`
	var category domain.Category
	if err := s.db.GetContext(ctx, &category, query, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: GetCategoryBySlug failed to scan row: %w", err)
	}
	return &category, nil
}

func (s *PostgresStore) ListSubcategories(ctx context.Context, categoryID int64) ([]domain.Subcategory, error) {
	query := `
		SELECT id, category_id, slug, name
		FROM subcategories
		WHERE category_id = $1
		ORDER BY name ASC;
	`
	subcategories := []domain.Subcategory{}
	if err := s.db.SelectContext(ctx, &subcategories, query, categoryID); err != nil {
		return nil, fmt.Errorf("store: ListSubcategories failed to query subcategories: %w", err)
	}
	return subcategories, nil
}

func (s *PostgresStore) GetAttributeTemplate(ctx context.Context, categoryID int64) (*domain.AttributeTemplate, error) {
	query := `
		SELECT attribute_template
		FROM categories
		WHERE id = $1;
	`
	var raw []byte
	if err := s.db.GetContext(ctx, &raw, query, categoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: GetAttributeTemplate failed to scan row: %w", err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var template domain.AttributeTemplate
	if err := json.Unmarshal(raw, &template); err != nil {
		return nil, fmt.Errorf("store: GetAttributeTemplate failed to unmarshal template for category %d: %w", categoryID, err)
	}
	return &template, nil
}

// --- ListingReader Implementation ---

// ScanListings pushes the SQL-renderable clauses into the WHERE clause and
// evaluates the rest in memory.
func (s *PostgresStore) ScanListings(ctx context.Context, pred predicate.Predicate) ([]domain.Listing, error) {
	rendered := pred.ToSQL(listingColumns, 1)
	rows, err := s.selectListings(ctx, listingSelect+" WHERE "+rendered.Where, rendered.Args)
	if err != nil {
		return nil, fmt.Errorf("store: ScanListings failed to query listings: %w", err)
	}
	if !rendered.HasResidual() {
		return rows, nil
	}

	matched := rows[:0]
	for i := range rows {
		if rendered.Residual.Match(&rows[i]) {
			matched = append(matched, rows[i])
		}
	}
	return matched, nil
}

// QueryListings counts, sorts and windows in SQL when every clause can be
// pushed down. Otherwise it scans the pushed-down population and assembles
// the page in memory.
func (s *PostgresStore) QueryListings(ctx context.Context, pred predicate.Predicate, sort domain.SortKey, w listing.Window) (domain.ListingPage, error) {
	rendered := pred.ToSQL(listingColumns, 1)
	whereCondition := " WHERE " + rendered.Where

	if rendered.HasResidual() {
		rows, err := s.selectListings(ctx, listingSelect+whereCondition, rendered.Args)
		if err != nil {
			return domain.ListingPage{}, fmt.Errorf("store: QueryListings failed to query listings: %w", err)
		}
		return listing.Assemble(rows, rendered.Residual, sort, w), nil
	}

	countQuery := "SELECT COUNT(*)" + listingFrom + whereCondition
	var totalCount int
	if err := s.db.GetContext(ctx, &totalCount, countQuery, rendered.Args...); err != nil {
		return domain.ListingPage{}, fmt.Errorf("store: QueryListings failed to count listings: %w", err)
	}
	if totalCount == 0 {
		return listing.Slice(nil, 0, w), nil
	}

	argID := len(rendered.Args) + 1
	dataQuery := fmt.Sprintf("%s%s ORDER BY %s LIMIT $%d OFFSET $%d",
		listingSelect, whereCondition,
		listing.OrderBy(sort, "v.our_price", "p.average_rating", "p.created_at", "v.id"),
		argID, argID+1)
	args := append(append([]interface{}{}, rendered.Args...), w.Size, w.Offset())

	rows, err := s.selectListings(ctx, dataQuery, args)
	if err != nil {
		return domain.ListingPage{}, fmt.Errorf("store: QueryListings failed to query listings: %w", err)
	}
	return domain.ListingPage{Items: rows, TotalCount: totalCount, Page: w.Page, PageSize: w.Size}, nil
}

func (s *PostgresStore) selectListings(ctx context.Context, query string, args []interface{}) ([]domain.Listing, error) {
	rows := []domain.Listing{}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
