package store

import (
	"context"
	"errors"

	"faceted-catalog-service/internal/domain"
	"faceted-catalog-service/internal/listing"
	"faceted-catalog-service/internal/predicate"
)

// ErrCategoryNotFound is returned when no category has the requested slug or id.
var ErrCategoryNotFound = errors.New("store: category not found")

// CategoryReader reads category metadata.
type CategoryReader interface {
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	ListSubcategories(ctx context.Context, categoryID int64) ([]domain.Subcategory, error)
	// GetAttributeTemplate returns nil when the category has no template.
	GetAttributeTemplate(ctx context.Context, categoryID int64) (*domain.AttributeTemplate, error)
}

// ListingReader reads joined default-variant listing rows.
type ListingReader interface {
	// ScanListings returns every row matching pred, in no particular order.
	ScanListings(ctx context.Context, pred predicate.Predicate) ([]domain.Listing, error)
	// QueryListings returns one sorted window of the rows matching pred.
	QueryListings(ctx context.Context, pred predicate.Predicate, sort domain.SortKey, w listing.Window) (domain.ListingPage, error)
}

// CatalogReader is everything the catalog service reads.
type CatalogReader interface {
	CategoryReader
	ListingReader
	Ping(ctx context.Context) error
}
