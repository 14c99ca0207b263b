// Package facet builds the filter menu of a category scope. The menu is
// computed over every active listing in the scope, never over the filtered
// result, so every option stays selectable once another filter is applied.
package facet

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"faceted-catalog-service/internal/domain"
	"faceted-catalog-service/internal/normalize"
	"faceted-catalog-service/internal/predicate"
	"faceted-catalog-service/internal/schema"
)

// PopulationSource scans every listing that satisfies pred.
type PopulationSource interface {
	ScanListings(ctx context.Context, pred predicate.Predicate) ([]domain.Listing, error)
}

// Aggregator computes facet menus, optionally through a Cache.
type Aggregator struct {
	source PopulationSource
	cache  Cache
	logger zerolog.Logger
}

// NewAggregator creates an Aggregator. cache may be nil.
func NewAggregator(source PopulationSource, cache Cache, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		source: source,
		cache:  cache,
		logger: logger.With().Str("component", "facet").Logger(),
	}
}

// Aggregate returns the facet menu of scope. Keys tmpl marks as not
// filterable are left out; tmpl may be nil. Cache failures are logged and
// fall through to a fresh scan.
func (a *Aggregator) Aggregate(ctx context.Context, scope domain.Scope, tmpl *schema.Template) (domain.FacetMenu, error) {
	if a.cache != nil {
		menu, ok, err := a.cache.Get(ctx, scope)
		if err != nil {
			a.logger.Warn().Err(err).Str("category", scope.CategorySlug).Msg("facet cache read failed")
		} else if ok {
			return menu, nil
		}
	}

	rows, err := a.source.ScanListings(ctx, predicate.ForScope(scope))
	if err != nil {
		return domain.FacetMenu{}, fmt.Errorf("facet: Aggregate failed to scan %q: %w", scope.CategorySlug, err)
	}
	menu := Build(rows, tmpl)

	if a.cache != nil {
		if err := a.cache.Set(ctx, scope, menu); err != nil {
			a.logger.Warn().Err(err).Str("category", scope.CategorySlug).Msg("facet cache write failed")
		}
	}
	return menu, nil
}

// Build aggregates an already scoped population.
func Build(rows []domain.Listing, tmpl *schema.Template) domain.FacetMenu {
	menu := domain.EmptyFacetMenu()
	if len(rows) == 0 {
		return menu
	}

	brands := make(map[string]struct{})
	subcategories := make(map[string]struct{})
	// values is keyed by lower-cased attribute key; names keeps the display
	// spelling of each key.
	values := make(map[string]map[string]struct{})
	names := make(map[string]string)
	minPrice, maxPrice := math.Inf(1), math.Inf(-1)

	for i := range rows {
		row := &rows[i]
		if row.BrandName != "" {
			if brand := normalize.Normalize("Brand", row.BrandName); brand != "" {
				brands[brand] = struct{}{}
			}
		}
		if row.SubcategorySlug != "" {
			subcategories[row.SubcategorySlug] = struct{}{}
		}
		minPrice = math.Min(minPrice, row.OurPrice)
		maxPrice = math.Max(maxPrice, row.OurPrice)

		for key, raw := range row.Attributes {
			if tmpl.Hides(key) {
				continue
			}
			v := normalize.Normalize(key, raw.String())
			if v == "" {
				continue
			}
			folded := strings.ToLower(key)
			if values[folded] == nil {
				values[folded] = make(map[string]struct{})
			}
			values[folded][v] = struct{}{}
			names[folded] = displayKey(names[folded], key, tmpl)
		}
	}

	menu.Brands = sortedLabels(brands)
	menu.Subcategories = sortedLabels(subcategories)
	for folded, set := range values {
		menu.Attributes[names[folded]] = sortedLabels(set)
	}
	menu.PriceRange = domain.PriceRange{Min: minPrice, Max: maxPrice}
	return menu
}

// displayKey picks the template spelling of a key when there is one, and
// otherwise the smallest spelling seen so the choice does not depend on scan order.
func displayKey(current, seen string, tmpl *schema.Template) string {
	if def, ok := tmpl.Definition(seen); ok {
		return def.Name
	}
	if current == "" || seen < current {
		return seen
	}
	return current
}
