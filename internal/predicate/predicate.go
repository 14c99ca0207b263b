// Package predicate compiles filter sets into AND-folded typed clauses that
// can be evaluated in memory or rendered as a parameterized SQL WHERE clause.
package predicate

import (
	"math"
	"sort"

	"faceted-catalog-service/internal/domain"
	"faceted-catalog-service/internal/normalize"
)

// Clause is one boolean test over a joined listing row.
type Clause interface {
	Match(l *domain.Listing) bool
}

// Predicate is the conjunction of its clauses. The zero value matches everything.
type Predicate struct {
	clauses []Clause
}

// And returns a predicate with extra clauses appended. p is not modified.
func (p Predicate) And(clauses ...Clause) Predicate {
	out := make([]Clause, 0, len(p.clauses)+len(clauses))
	out = append(out, p.clauses...)
	out = append(out, clauses...)
	return Predicate{clauses: out}
}

// Clauses returns the clauses in evaluation order.
func (p Predicate) Clauses() []Clause {
	out := make([]Clause, len(p.clauses))
	copy(out, p.clauses)
	return out
}

// Match reports whether l satisfies every clause.
func (p Predicate) Match(l *domain.Listing) bool {
	for _, c := range p.clauses {
		if !c.Match(l) {
			return false
		}
	}
	return true
}

// Compile turns a filter set into a predicate. Clauses are emitted in a fixed
// order so the rendered SQL is stable for identical filter sets.
func Compile(fs domain.FilterSet) Predicate {
	p := ForScope(fs.Scope())

	if len(fs.Brands) > 0 {
		p = p.And(BrandIn{Brands: fs.Brands})
	}
	if len(fs.Ratings) > 0 {
		p = p.And(RatingIn{Buckets: fs.Ratings})
	}
	if fs.PriceBounded {
		p = p.And(PriceBetween{Min: fs.MinPrice, Max: fs.MaxPrice})
	}
	if fs.InStockOnly {
		p = p.And(InStock{})
	}

	keys := make([]string, 0, len(fs.AttributeFilters))
	for key := range fs.AttributeFilters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		p = p.And(AttributeIn{Key: key, Values: fs.AttributeFilters[key]})
	}
	return p
}

// ForScope builds the facet population predicate: active rows of a category
// and, when given, one of its subcategories.
func ForScope(scope domain.Scope) Predicate {
	p := Predicate{}.And(StatusIs{Status: domain.ProductStatusActive}, CategoryIs{Slug: scope.CategorySlug})
	if scope.SubcategorySlug != "" {
		p = p.And(SubcategoryIs{Slug: scope.SubcategorySlug})
	}
	return p
}

// StatusIs matches rows whose product status equals Status.
type StatusIs struct{ Status string }

func (c StatusIs) Match(l *domain.Listing) bool { return l.Status == c.Status }

// CategoryIs matches rows of one category slug.
type CategoryIs struct{ Slug string }

func (c CategoryIs) Match(l *domain.Listing) bool { return l.CategorySlug == c.Slug }

// SubcategoryIs matches rows of one subcategory slug.
type SubcategoryIs struct{ Slug string }

func (c SubcategoryIs) Match(l *domain.Listing) bool { return l.SubcategorySlug == c.Slug }

// BrandIn matches rows whose normalized brand name is in Brands.
// Rows without a brand never match.
type BrandIn struct{ Brands map[string]struct{} }

func (c BrandIn) Match(l *domain.Listing) bool {
	if l.BrandName == "" {
		return false
	}
	_, ok := c.Brands[normalize.Normalize("Brand", l.BrandName)]
	return ok
}

// RatingIn matches rows whose floored average rating is one of Buckets.
// Unrated rows never match.
type RatingIn struct{ Buckets map[int]struct{} }

func (c RatingIn) Match(l *domain.Listing) bool {
	if l.AverageRating == nil {
		return false
	}
	_, ok := c.Buckets[int(math.Floor(*l.AverageRating))]
	return ok
}

// PriceBetween matches rows priced within [Min, Max]. Inverted bounds match nothing.
type PriceBetween struct{ Min, Max float64 }

func (c PriceBetween) Match(l *domain.Listing) bool {
	return l.OurPrice >= c.Min && l.OurPrice <= c.Max
}

// InStock matches rows with positive stock.
type InStock struct{}

func (InStock) Match(l *domain.Listing) bool { return l.Stock > 0 }

// AttributeIn matches rows whose normalized value for Key is in Values.
// A row lacking the key fails.
type AttributeIn struct {
	Key    string
	Values map[string]struct{}
}

func (c AttributeIn) Match(l *domain.Listing) bool {
	raw, ok := l.Attributes.Lookup(c.Key)
	if !ok {
		return false
	}
	_, ok = c.Values[normalize.Normalize(c.Key, raw.String())]
	return ok
}
