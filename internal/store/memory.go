package store

import (
	"context"
	"sort"
	"sync"

	"faceted-catalog-service/internal/domain"
	"faceted-catalog-service/internal/listing"
	"faceted-catalog-service/internal/predicate"
)

// MemoryStore is an in-process CatalogReader over fixed data. Packages that
// depend on a CatalogReader test against it.
type MemoryStore struct {
	mu            sync.RWMutex
	categories    []domain.Category
	subcategories []domain.Subcategory
	templates     map[int64]*domain.AttributeTemplate
	listings      []domain.Listing
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{templates: make(map[int64]*domain.AttributeTemplate)}
}

// AddCategory stores a category with its subcategories and optional template.
func (m *MemoryStore) AddCategory(c domain.Category, template *domain.AttributeTemplate, subcategories ...domain.Subcategory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories = append(m.categories, c)
	m.subcategories = append(m.subcategories, subcategories...)
	if template != nil {
		m.templates[c.ID] = template
	}
}

// AddListings stores listing rows.
func (m *MemoryStore) AddListings(rows ...domain.Listing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings = append(m.listings, rows...)
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryStore) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.categories {
		if c.Slug == slug {
			found := c
			return &found, nil
		}
	}
	return nil, ErrCategoryNotFound
}

func (m *MemoryStore) ListSubcategories(ctx context.Context, categoryID int64) ([]domain.Subcategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.Subcategory{}
	for _, s := range m.subcategories {
		if s.CategoryID == categoryID {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) GetAttributeTemplate(ctx context.Context, categoryID int64) (*domain.AttributeTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.categories {
		if c.ID == categoryID {
			return m.templates[categoryID], nil
		}
	}
	return nil, ErrCategoryNotFound
}

func (m *MemoryStore) ScanListings(ctx context.Context, pred predicate.Predicate) ([]domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.Listing{}
	for i := range m.listings {
		if pred.Match(&m.listings[i]) {
			out = append(out, m.listings[i])
		}
	}
	return out, nil
}

func (m *MemoryStore) QueryListings(ctx context.Context, pred predicate.Predicate, sort domain.SortKey, w listing.Window) (domain.ListingPage, error) {
	if err := ctx.Err(); err != nil {
		return domain.ListingPage{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return listing.Assemble(m.listings, pred, sort, w), nil
}
