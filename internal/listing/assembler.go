// Package listing sorts and windows filtered listing populations.
package listing

import (
	"math"
	"sort"

	"faceted-catalog-service/internal/domain"
	"faceted-catalog-service/internal/predicate"
)

// DefaultPageSize is the fixed browse page size.
const DefaultPageSize = 24

// Window is a 1-indexed page of a fixed size.
type Window struct {
	Page int
	Size int
}

// NewWindow clamps page to at least 1 and falls back to DefaultPageSize for
// non-positive sizes. Pages whose offset would not fit in an int are clamped
// to the last representable page, which is always past the end.
func NewWindow(page, size int) Window {
	if size < 1 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	if maxPage := math.MaxInt / size; page > maxPage {
		page = maxPage
	}
	return Window{Page: page, Size: size}
}

// Offset is the number of rows skipped before the window. It never
// overflows: out-of-range windows report math.MaxInt.
func (w Window) Offset() int {
	if w.Page <= 1 || w.Size < 1 {
		return 0
	}
	if w.Page-1 > math.MaxInt/w.Size {
		return math.MaxInt
	}
	return (w.Page - 1) * w.Size
}

// Assemble filters rows with pred, orders them by key and cuts out the window.
// TotalCount counts every row that matched pred. rows is not modified.
func Assemble(rows []domain.Listing, pred predicate.Predicate, key domain.SortKey, w Window) domain.ListingPage {
	matched := make([]domain.Listing, 0, len(rows))
	for i := range rows {
		if pred.Match(&rows[i]) {
			matched = append(matched, rows[i])
		}
	}
	Sort(matched, key)
	return Slice(matched, len(matched), w)
}

// Slice cuts the window out of already sorted rows.
func Slice(sorted []domain.Listing, total int, w Window) domain.ListingPage {
	page := domain.ListingPage{
		Items:      []domain.Listing{},
		TotalCount: total,
		Page:       w.Page,
		PageSize:   w.Size,
	}
	start := w.Offset()
	if start < 0 || start >= len(sorted) || w.Size < 1 {
		return page
	}
	end := len(sorted)
	if w.Size < end-start {
		end = start + w.Size
	}
	page.Items = append(page.Items, sorted[start:end]...)
	return page
}

// Sort orders rows in place. Equal keys fall back to variant id so the order
// is total and pages never overlap.
func Sort(rows []domain.Listing, key domain.SortKey) {
	less := lessFunc(key)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := &rows[i], &rows[j]
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return a.VariantID < b.VariantID
	})
}

func lessFunc(key domain.SortKey) func(a, b *domain.Listing) bool {
	switch key {
	case domain.SortPriceAsc:
		return func(a, b *domain.Listing) bool { return a.OurPrice < b.OurPrice }
	case domain.SortPriceDesc:
		return func(a, b *domain.Listing) bool { return a.OurPrice > b.OurPrice }
	case domain.SortRatingDesc:
		return func(a, b *domain.Listing) bool {
			switch {
			case a.AverageRating == nil:
				return false
			case b.AverageRating == nil:
				return true
			default:
				return *a.AverageRating > *b.AverageRating
			}
		}
	default:
		return func(a, b *domain.Listing) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
}

// OrderBy returns the SQL ORDER BY list equivalent to Sort, using the given
// column expressions.
func OrderBy(key domain.SortKey, price, rating, createdAt, variantID string) string {
	switch key {
	case domain.SortPriceAsc:
		return price + " ASC, " + variantID + " ASC"
	case domain.SortPriceDesc:
		return price + " DESC, " + variantID + " ASC"
	case domain.SortRatingDesc:
		return rating + " DESC NULLS LAST, " + variantID + " ASC"
	default:
		return createdAt + " DESC, " + variantID + " ASC"
	}
}
