package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faceted-catalog-service/internal/domain"
	"faceted-catalog-service/internal/filter"
	"faceted-catalog-service/internal/listing"
	"faceted-catalog-service/internal/predicate"
)

// Helper function to create a mock DB and PostgresStore for testing
func newMockDBAndStore(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresStore) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	store := NewPostgresStore(sqlx.NewDb(db, "postgres"))
	require.NotNil(t, store, "Store should not be nil")

	return db, mock, store
}

func PtrTo[T any](v T) *T {
	return &v
}

var listingRowColumns = []string{
	"product_id", "slug", "full_name", "average_rating", "brand_id", "brand_name", "category_slug",
	"subcategory_slug", "status", "created_at", "variant_id", "variant_slug", "our_price", "mrp",
	"stock", "attributes", "image",
}

func TestPostgresStore_GetCategoryBySlug_Found(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	query := regexp.QuoteMeta(`SELECT id, slug, name, is_active FROM categories WHERE slug = $1;`)
	rows := sqlmock.NewRows([]string{"id", "slug", "name", "is_active"}).AddRow(7, "laptops", "Laptops", true)
	mock.ExpectQuery(query).WithArgs("laptops").WillReturnRows(rows)

	category, err := store.GetCategoryBySlug(context.Background(), "laptops")
	require.NoError(t, err)
	assert.Equal(t, &domain.Category{ID: 7, Slug: "laptops", Name: "Laptops", IsActive: true}, category)
	require.NoError(t, mock.ExpectationsWereMet(), "SQLmock expectations were not met")
}

func TestPostgresStore_GetCategoryBySlug_NotFound(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM categories WHERE slug = $1`)).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	category, err := store.GetCategoryBySlug(context.Background(), "nope")
	assert.Nil(t, category)
	assert.True(t, errors.Is(err, ErrCategoryNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListSubcategories(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "category_id", "slug", "name"}).
		AddRow(1, 7, "gaming", "Gaming").
		AddRow(2, 7, "ultrabook", "Ultrabook")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM subcategories WHERE category_id = $1 ORDER BY name ASC;`)).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	subs, err := store.ListSubcategories(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "ultrabook", subs[1].Slug)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetAttributeTemplate(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	query := regexp.QuoteMeta(`SELECT attribute_template FROM categories WHERE id = $1;`)
	template := `{"attributes":[{"name":"RAM","type":"select","options":["8 GB","16 GB"],"isFilterable":true,"isRequired":false,"displayOrder":1}]}`
	mock.ExpectQuery(query).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"attribute_template"}).AddRow([]byte(template)))
	mock.ExpectQuery(query).WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"attribute_template"}).AddRow(nil))

	got, err := store.GetAttributeTemplate(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Definitions, 1)
	assert.Equal(t, domain.AttributeTypeSelect, got.Definitions[0].Type)
	assert.Equal(t, []string{"8 GB", "16 GB"}, got.Definitions[0].Options)

	got, err = store.GetAttributeTemplate(context.Background(), 8)
	require.NoError(t, err)
	assert.Nil(t, got, "a NULL template means the category has none")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_QueryListings_Pushdown(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	fs := domain.FilterSet{CategorySlug: "laptops", MinPrice: 40000, MaxPrice: 90000, PriceBounded: true, InStockOnly: true}
	pred := predicate.Compile(fs)

	countQuery := regexp.QuoteMeta(`SELECT COUNT(*) FROM product_variants v`) + `.*` +
		regexp.QuoteMeta(`WHERE p.status = $1 AND c.slug = $2 AND v.our_price >= $3 AND v.our_price <= $4 AND v.stock > 0`)
	mock.ExpectQuery(countQuery).
		WithArgs("active", "laptops", 40000.0, 90000.0).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))

	dataQuery := regexp.QuoteMeta(`AND v.stock > 0 ORDER BY v.our_price ASC, v.id ASC LIMIT $5 OFFSET $6`)
	rows := sqlmock.NewRows(listingRowColumns).
		AddRow(1, "xps-15", "Dell XPS 15", 4.6, 3, "Dell", "laptops", "", "active", created,
			11, "xps-15-16gb", 85000.0, 99000.0, 4, []byte(`{"RAM":"16gb","Touch":true}`), "xps.jpg")
	mock.ExpectQuery(dataQuery).
		WithArgs("active", "laptops", 40000.0, 90000.0, 24, 24).
		WillReturnRows(rows)

	page, err := store.QueryListings(context.Background(), pred, domain.SortPriceAsc, listing.NewWindow(2, 24))
	require.NoError(t, err)
	assert.Equal(t, 25, page.TotalCount)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 24, page.PageSize)
	require.Len(t, page.Items, 1)

	item := page.Items[0]
	assert.Equal(t, int64(11), item.VariantID)
	assert.Equal(t, PtrTo(4.6), item.AverageRating)
	assert.Equal(t, PtrTo(int64(3)), item.BrandID)
	assert.Equal(t, int32(4), item.Stock)
	assert.Equal(t, domain.TextValue("16gb"), item.Attributes["RAM"])
	assert.Equal(t, domain.BoolValue(true), item.Attributes["Touch"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_QueryListings_EmptyCountSkipsDataQuery(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	fs := domain.FilterSet{CategorySlug: "laptops", MinPrice: 50000, MaxPrice: 40000, PriceBounded: true}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*)`)).
		WithArgs("active", "laptops", 50000.0, 40000.0).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	page, err := store.QueryListings(context.Background(), predicate.Compile(fs), domain.SortNewest, listing.NewWindow(1, 24))
	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalCount)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_QueryListings_HugePage(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	fs := domain.FilterSet{CategorySlug: "laptops", MaxPrice: domain.MaxPriceSentinel, InStockOnly: true}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*)`)).
		WithArgs("active", "laptops").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(`LIMIT $3 OFFSET $4`)).
		WithArgs("active", "laptops", 24, 9223372036854775776).
		WillReturnRows(sqlmock.NewRows(listingRowColumns))

	w := listing.NewWindow(filter.ParsePage("400000000000000000"), 24)
	page, err := store.QueryListings(context.Background(), predicate.Compile(fs), domain.SortNewest, w)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_QueryListings_HugePageWithResidual(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	fs := domain.FilterSet{
		CategorySlug: "laptops",
		MaxPrice:     domain.MaxPriceSentinel,
		Brands:       map[string]struct{}{"Dell": {}},
	}
	rows := sqlmock.NewRows(listingRowColumns).
		AddRow(1, "a", "A", 4.2, 3, "dell", "laptops", "", "active", created, 11, "a-1", 500.0, 600.0, 1, []byte(`{}`), "")
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE p.status = $1 AND c.slug = $2`)).
		WithArgs("active", "laptops").
		WillReturnRows(rows)

	w := listing.NewWindow(filter.ParsePage("400000000000000000"), 24)
	page, err := store.QueryListings(context.Background(), predicate.Compile(fs), domain.SortNewest, w)
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalCount)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_QueryListings_ResidualAssembledInMemory(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	fs := domain.FilterSet{
		CategorySlug:     "laptops",
		MaxPrice:         domain.MaxPriceSentinel,
		Ratings:          map[int]struct{}{4: {}},
		AttributeFilters: map[string]map[string]struct{}{"RAM": {"16 GB": {}}},
	}

	rows := sqlmock.NewRows(listingRowColumns).
		AddRow(1, "a", "A", 4.2, nil, "", "laptops", "", "active", created, 11, "a-1", 500.0, 600.0, 1, []byte(`{"RAM":"16gb"}`), "").
		AddRow(2, "b", "B", 4.9, nil, "", "laptops", "", "active", created, 12, "b-1", 400.0, 600.0, 1, []byte(`{"RAM":"8 GB"}`), "").
		AddRow(3, "c", "C", 4.0, nil, "", "laptops", "", "active", created, 13, "c-1", 300.0, 600.0, 1, []byte(`{"ram":16}`), "")
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE p.status = $1 AND c.slug = $2 AND FLOOR(p.average_rating)::int = ANY($3)`)).
		WithArgs("active", "laptops", sqlmock.AnyArg()).
		WillReturnRows(rows)

	page, err := store.QueryListings(context.Background(), predicate.Compile(fs), domain.SortPriceAsc, listing.NewWindow(1, 24))
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalCount)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(13), page.Items[0].VariantID)
	assert.Equal(t, int64(11), page.Items[1].VariantID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ScanListings(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	created := time.Now()
	rows := sqlmock.NewRows(listingRowColumns).
		AddRow(1, "a", "A", nil, 1, "dell", "laptops", "gaming", "active", created, 11, "a-1", 500.0, 600.0, 0, nil, "").
		AddRow(2, "b", "B", nil, 2, "Lenovo", "laptops", "gaming", "active", created, 12, "b-1", 400.0, 600.0, 3, []byte(`{}`), "")
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE p.status = $1 AND c.slug = $2 AND s.slug = $3`)).
		WithArgs("active", "laptops", "gaming").
		WillReturnRows(rows)

	pred := predicate.ForScope(domain.Scope{CategorySlug: "laptops", SubcategorySlug: "gaming"}).
		And(predicate.BrandIn{Brands: map[string]struct{}{"Dell": {}}})
	got, err := store.ScanListings(context.Background(), pred)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "dell", got[0].BrandName)
	assert.Nil(t, got[0].AverageRating)
	assert.Empty(t, got[0].Attributes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ScanListings_QueryError(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	boom := errors.New("connection refused")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM product_variants v`)).WillReturnError(boom)

	_, err := store.ScanListings(context.Background(), predicate.ForScope(domain.Scope{CategorySlug: "laptops"}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	require.NoError(t, mock.ExpectationsWereMet())
}
