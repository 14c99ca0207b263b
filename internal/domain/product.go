package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ProductStatusActive is the only product status visible to catalog browsing.
const ProductStatusActive = "active"

// Category represents a top-level catalog category.
type Category struct {
	ID       int64  `json:"id" db:"id"`
	Slug     string `json:"slug" db:"slug"`
	Name     string `json:"name" db:"name"`
	IsActive bool   `json:"isActive" db:"is_active"`
}

// Subcategory belongs to exactly one category.
type Subcategory struct {
	ID         int64  `json:"id" db:"id"`
	CategoryID int64  `json:"categoryId" db:"category_id"`
	Slug       string `json:"slug" db:"slug"`
	Name       string `json:"name" db:"name"`
}

// Listing is one joined Product + default Variant + Brand/Category/Subcategory row.
// It is the record every predicate clause is evaluated against.
type Listing struct {
	ProductID       int64      `json:"id" db:"product_id"`
	Slug            string     `json:"slug" db:"slug"`
	FullName        string     `json:"fullName" db:"full_name"`
	AverageRating   *float64   `json:"averageRating" db:"average_rating"`
	BrandID         *int64     `json:"brandId" db:"brand_id"`
	BrandName       string     `json:"brandName" db:"brand_name"`
	CategorySlug    string     `json:"category" db:"category_slug"`
	SubcategorySlug string     `json:"subcategory" db:"subcategory_slug"`
	Status          string     `json:"-" db:"status"`
	CreatedAt       time.Time  `json:"-" db:"created_at"`
	VariantID       int64      `json:"variantId" db:"variant_id"`
	VariantSlug     string     `json:"variantSlug" db:"variant_slug"`
	OurPrice        float64    `json:"ourPrice" db:"our_price"`
	MRP             float64    `json:"mrp" db:"mrp"`
	Stock           int32      `json:"stock" db:"stock"`
	Attributes      Attributes `json:"attributes" db:"attributes"`
	Image           string     `json:"image" db:"image"`
}

// ListingPage is one window of a filtered, sorted listing population.
type ListingPage struct {
	Items      []Listing
	TotalCount int
	Page       int
	PageSize   int
}

// --- Attribute values ---

// AttributeKind tags the closed set of stored attribute value shapes.
type AttributeKind uint8

const (
	AttributeText AttributeKind = iota
	AttributeNumber
	AttributeBool
)

// AttributeValue is a stored attribute value: text, number or boolean.
// It is turned into a string only at the comparison boundary.
type AttributeValue struct {
	Kind AttributeKind
	Text string
	Num  float64
	Bool bool
}

// TextValue, NumberValue and BoolValue build attribute values.
func TextValue(s string) AttributeValue { return AttributeValue{Kind: AttributeText, Text: s} }
func NumberValue(f float64) AttributeValue { return AttributeValue{Kind: AttributeNumber, Num: f} }
func BoolValue(b bool) AttributeValue { return AttributeValue{Kind: AttributeBool, Bool: b} }

// String renders the raw (not yet normalized) value.
func (v AttributeValue) String() string {
	switch v.Kind {
	case AttributeNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case AttributeBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Text
	}
}

func (v AttributeValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case AttributeNumber:
		return json.Marshal(v.Num)
	case AttributeBool:
		return json.Marshal(v.Bool)
	default:
		return json.Marshal(v.Text)
	}
}

func (v *AttributeValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case string:
		*v = TextValue(t)
	case float64:
		*v = NumberValue(t)
	case bool:
		*v = BoolValue(t)
	case nil:
		*v = TextValue("")
	default:
		return fmt.Errorf("domain: unsupported attribute value %s", string(data))
	}
	return nil
}

// Attributes is the open, per-variant attribute bag stored as JSONB.
type Attributes map[string]AttributeValue

// Lookup returns the value stored under key. An exact key match wins;
// otherwise keys are compared case-insensitively.
func (a Attributes) Lookup(key string) (AttributeValue, bool) {
	if v, ok := a[key]; ok {
		return v, true
	}
	for k, v := range a {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return AttributeValue{}, false
}

func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a)
}

func (a *Attributes) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*a = Attributes{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("domain: attributes column is not JSON")
	}
	if len(data) == 0 || string(data) == "null" {
		*a = Attributes{}
		return nil
	}
	return json.Unmarshal(data, a)
}
