// Package schema adapts per-category attribute templates for the catalog
// engine. Templates describe known attribute keys for presentation; filtering
// and normalization work for keys a template does not mention.
package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"faceted-catalog-service/internal/domain"
)

// ErrInvalidTemplate is returned when a stored template breaks its invariants.
var ErrInvalidTemplate = errors.New("schema: invalid attribute template")

// TemplateSource loads the raw attribute template of a category.
// A nil template with a nil error means the category has none.
type TemplateSource interface {
	GetAttributeTemplate(ctx context.Context, categoryID int64) (*domain.AttributeTemplate, error)
}

// Registry loads and validates attribute templates.
type Registry struct {
	source   TemplateSource
	validate *validator.Validate
}

// NewRegistry creates a Registry reading from source.
func NewRegistry(source TemplateSource) *Registry {
	v := validator.New()
	v.RegisterStructValidation(templateStructLevel, domain.AttributeTemplate{})
	return &Registry{source: source, validate: v}
}

// Template returns the validated template of a category, ordered by
// DisplayOrder. Categories without a template yield an empty Template.
func (r *Registry) Template(ctx context.Context, categoryID int64) (*Template, error) {
	raw, err := r.source.GetAttributeTemplate(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("schema: Template failed to load category %d: %w", categoryID, err)
	}
	if raw == nil {
		return newTemplate(nil), nil
	}
	if err := r.Validate(*raw); err != nil {
		return nil, err
	}
	return newTemplate(raw.Definitions), nil
}

// Validate checks field rules, unique names and select options.
func (r *Registry) Validate(t domain.AttributeTemplate) error {
	if err := r.validate.Struct(t); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	return nil
}

func templateStructLevel(sl validator.StructLevel) {
	t := sl.Current().Interface().(domain.AttributeTemplate)
	seen := make(map[string]struct{}, len(t.Definitions))
	for i, def := range t.Definitions {
		name := strings.ToLower(strings.TrimSpace(def.Name))
		if _, dup := seen[name]; dup {
			sl.ReportError(def.Name, fmt.Sprintf("Definitions[%d].Name", i), "Name", "unique", "")
		}
		seen[name] = struct{}{}

		if def.Type == domain.AttributeTypeSelect && len(def.Options) == 0 {
			sl.ReportError(def.Options, fmt.Sprintf("Definitions[%d].Options", i), "Options", "required_for_select", "")
		}
	}
}

// Template is a validated, ordered attribute template.
type Template struct {
	defs  []domain.AttributeDefinition
	byKey map[string]int
}

func newTemplate(defs []domain.AttributeDefinition) *Template {
	ordered := make([]domain.AttributeDefinition, len(defs))
	copy(ordered, defs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DisplayOrder < ordered[j].DisplayOrder
	})

	t := &Template{defs: ordered, byKey: make(map[string]int, len(ordered))}
	for i, def := range ordered {
		t.byKey[strings.ToLower(def.Name)] = i
	}
	return t
}

// Definitions returns the definitions in display order.
func (t *Template) Definitions() []domain.AttributeDefinition {
	out := make([]domain.AttributeDefinition, len(t.defs))
	copy(out, t.defs)
	return out
}

// Definition looks up a key case-insensitively.
func (t *Template) Definition(key string) (domain.AttributeDefinition, bool) {
	if t == nil {
		return domain.AttributeDefinition{}, false
	}
	i, ok := t.byKey[strings.ToLower(key)]
	if !ok {
		return domain.AttributeDefinition{}, false
	}
	return t.defs[i], true
}

// Hides reports whether the template explicitly marks key as not filterable.
// Keys the template does not know are never hidden.
func (t *Template) Hides(key string) bool {
	def, ok := t.Definition(key)
	return ok && !def.IsFilterable
}

// FilterableKeys lists the filterable keys in display order.
func (t *Template) FilterableKeys() []string {
	keys := make([]string, 0, len(t.defs))
	for _, def := range t.defs {
		if def.IsFilterable {
			keys = append(keys, def.Name)
		}
	}
	return keys
}
