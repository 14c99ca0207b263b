package catalog

import (
	"strings"

	"faceted-catalog-service/internal/domain"
)

// BrowseResponse is the body of a category browse request.
type BrowseResponse struct {
	Data          []domain.Listing `json:"data"`
	TotalCount    int              `json:"totalCount"`
	Page          int              `json:"page"`
	PageSize      int              `json:"pageSize"`
	FilterOptions FilterOptions    `json:"filterOptions"`
}

// FilterOptions is the facet menu as clients receive it. Colors and
// StorageOptions repeat the "color" and "storage" attribute facets.
type FilterOptions struct {
	Brands         []string            `json:"brands"`
	Subcategories  []string            `json:"subcategories"`
	Colors         []string            `json:"colors"`
	StorageOptions []string            `json:"storageOptions"`
	Attributes     map[string][]string `json:"attributes"`
	PriceRange     domain.PriceRange   `json:"priceRange"`
}

// NewFilterOptions converts a facet menu, filling the alias lists.
func NewFilterOptions(menu domain.FacetMenu) FilterOptions {
	opts := FilterOptions{
		Brands:         nonNil(menu.Brands),
		Subcategories:  nonNil(menu.Subcategories),
		Colors:         attributeAlias(menu.Attributes, "color"),
		StorageOptions: attributeAlias(menu.Attributes, "storage"),
		Attributes:     menu.Attributes,
		PriceRange:     menu.PriceRange,
	}
	if opts.Attributes == nil {
		opts.Attributes = map[string][]string{}
	}
	return opts
}

func emptyResponse(page, pageSize int) *BrowseResponse {
	return &BrowseResponse{
		Data:          []domain.Listing{},
		Page:          page,
		PageSize:      pageSize,
		FilterOptions: NewFilterOptions(domain.EmptyFacetMenu()),
	}
}

func attributeAlias(attributes map[string][]string, key string) []string {
	if values, ok := attributes[key]; ok {
		return nonNil(values)
	}
	for k, values := range attributes {
		if strings.EqualFold(k, key) {
			return nonNil(values)
		}
	}
	return []string{}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
