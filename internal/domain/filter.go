package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"math"
)

// SortKey selects the listing order.
type SortKey string

const (
	SortPriceAsc   SortKey = "price_asc"
	SortPriceDesc  SortKey = "price_desc"
	SortRatingDesc SortKey = "rating_desc"
	SortNewest     SortKey = "newest"
)

// MaxPriceSentinel stands in for an unbounded upper price.
var MaxPriceSentinel = math.MaxFloat64

// FilterSet is the parsed, request-scoped set of browsing constraints.
type FilterSet struct {
	CategorySlug     string
	SubcategorySlug  string
	Brands           map[string]struct{}
	Ratings          map[int]struct{}
	MinPrice         float64
	MaxPrice         float64
	PriceBounded     bool // true when either price bound was supplied
	InStockOnly      bool
	AttributeFilters map[string]map[string]struct{}
}

// Scope is the category/subcategory pair facets are computed over.
type Scope struct {
	CategorySlug    string
	SubcategorySlug string
}

// Scope returns the category scope of the filter set.
func (f FilterSet) Scope() Scope {
	return Scope{CategorySlug: f.CategorySlug, SubcategorySlug: f.SubcategorySlug}
}

// PriceRange is an inclusive min/max price pair.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FacetMenu lists every selectable filter value of a category scope.
type FacetMenu struct {
	Brands        []string            `json:"brands"`
	Subcategories []string            `json:"subcategories"`
	Attributes    map[string][]string `json:"attributes"`
	PriceRange    PriceRange          `json:"priceRange"`
}

// EmptyFacetMenu returns a menu with non-nil, empty collections.
func EmptyFacetMenu() FacetMenu {
	return FacetMenu{
		Brands:        []string{},
		Subcategories: []string{},
		Attributes:    map[string][]string{},
	}
}

// --- Attribute templates ---

// AttributeType is the declared value type of a template attribute.
type AttributeType string

const (
	AttributeTypeText    AttributeType = "text"
	AttributeTypeNumber  AttributeType = "number"
	AttributeTypeBoolean AttributeType = "boolean"
	AttributeTypeSelect  AttributeType = "select"
)

// AttributeDefinition declares one attribute key of a category.
type AttributeDefinition struct {
	Name         string        `json:"name" validate:"required,max=100"`
	Type         AttributeType `json:"type" validate:"required,oneof=text number boolean select"`
	Options      []string      `json:"options,omitempty" validate:"omitempty,dive,required"`
	Unit         string        `json:"unit,omitempty" validate:"omitempty,max=20"`
	IsFilterable bool          `json:"isFilterable"`
	IsRequired   bool          `json:"isRequired"`
	DisplayOrder int           `json:"displayOrder" validate:"gte=0"`
}

// AttributeTemplate is the ordered attribute schema owned by a category.
type AttributeTemplate struct {
	Definitions []AttributeDefinition `json:"attributes" validate:"dive"`
}

func (t AttributeTemplate) Value() (driver.Value, error) {
	return json.Marshal(t)
}

func (t *AttributeTemplate) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*t = AttributeTemplate{}
		return nil
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return errors.New("domain: attribute template column is not JSON")
	}
}
