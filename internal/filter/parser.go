// Package filter turns browse query strings into structured filter sets.
package filter

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"faceted-catalog-service/internal/domain"
	"faceted-catalog-service/internal/normalize"
)

// Query is a parsed browse request.
type Query struct {
	Filters domain.FilterSet
	Sort    domain.SortKey
	Page    int
}

// Fixed parameter names. Every other key is a dynamic attribute filter.
const (
	ParamCategory    = "category"
	ParamSubcategory = "subcategory"
	ParamPage        = "page"
	ParamSort        = "sort"
	ParamMinPrice    = "minPrice"
	ParamMaxPrice    = "maxPrice"
	ParamInStock     = "inStock"
	ParamBrand       = "brand"
	ParamRating      = "rating"
)

// IsReserved reports whether key names a fixed parameter rather than an attribute.
func IsReserved(key string) bool {
	_, ok := reservedName(strings.TrimSpace(paramName(key)))
	return ok
}

// Parse reads a browse request from query values. It never fails: malformed
// input falls back to the documented default for that parameter. Values are
// canonicalized with normalize.Normalize, the same function predicates and
// facets apply to stored values.
func Parse(values url.Values) Query {
	params := collect(values)

	fs := domain.FilterSet{
		CategorySlug:     first(params[ParamCategory]),
		SubcategorySlug:  first(params[ParamSubcategory]),
		Brands:           make(map[string]struct{}),
		Ratings:          make(map[int]struct{}),
		MinPrice:         0,
		MaxPrice:         domain.MaxPriceSentinel,
		AttributeFilters: make(map[string]map[string]struct{}),
	}

	for _, raw := range params[ParamBrand] {
		if brand := normalize.Normalize("Brand", raw); brand != "" {
			fs.Brands[brand] = struct{}{}
		}
	}
	for _, raw := range params[ParamRating] {
		if bucket, ok := ParseRating(raw); ok {
			fs.Ratings[bucket] = struct{}{}
		}
	}
	if v, ok := parsePrice(first(params[ParamMinPrice])); ok {
		fs.MinPrice = v
		fs.PriceBounded = true
	}
	if v, ok := parsePrice(first(params[ParamMaxPrice])); ok {
		fs.MaxPrice = v
		fs.PriceBounded = true
	}
	fs.InStockOnly, _ = strconv.ParseBool(first(params[ParamInStock]))

	for key, raws := range params {
		if IsReserved(key) {
			continue
		}
		set := make(map[string]struct{})
		for _, raw := range raws {
			if v := normalize.Normalize(key, raw); v != "" {
				set[v] = struct{}{}
			}
		}
		if len(set) > 0 {
			fs.AttributeFilters[key] = set
		}
	}

	return Query{
		Filters: fs,
		Sort:    ParseSort(first(params[ParamSort])),
		Page:    ParsePage(first(params[ParamPage])),
	}
}

// ParseScope reads only the category and subcategory of a request.
func ParseScope(values url.Values) domain.Scope {
	params := collect(values)
	return domain.Scope{
		CategorySlug:    first(params[ParamCategory]),
		SubcategorySlug: first(params[ParamSubcategory]),
	}
}

// ParseSort maps a sort parameter to a SortKey. Unknown keys, "relevance"
// and the empty string all resolve to newest-first.
func ParseSort(raw string) domain.SortKey {
	switch key := domain.SortKey(strings.ToLower(strings.TrimSpace(raw))); key {
	case domain.SortPriceAsc, domain.SortPriceDesc, domain.SortRatingDesc, domain.SortNewest:
		return key
	default:
		return domain.SortNewest
	}
}

// ParsePage returns the 1-indexed page; anything below 1 or non-numeric is 1.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// ParseRating floors a rating parameter into a 1..5 bucket.
func ParseRating(raw string) (int, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	bucket := int(math.Floor(v))
	if bucket < 1 || bucket > 5 {
		return 0, false
	}
	return bucket, true
}

func parsePrice(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// collect merges "key" and "key[]" forms and canonicalizes reserved names,
// dropping blank values.
func collect(values url.Values) map[string][]string {
	out := make(map[string][]string, len(values))
	for rawKey, vals := range values {
		key := strings.TrimSpace(paramName(rawKey))
		if key == "" {
			continue
		}
		if canonical, ok := reservedName(key); ok {
			key = canonical
		}
		for _, v := range vals {
			if v = strings.TrimSpace(v); v != "" {
				out[key] = append(out[key], v)
			}
		}
	}
	return out
}

var reservedParams = []string{ParamCategory, ParamSubcategory, ParamPage, ParamSort,
	ParamMinPrice, ParamMaxPrice, ParamInStock, ParamBrand, ParamRating}

func reservedName(key string) (string, bool) {
	for _, name := range reservedParams {
		if strings.EqualFold(name, key) {
			return name, true
		}
	}
	return "", false
}

func paramName(key string) string {
	return strings.TrimSuffix(key, "[]")
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
