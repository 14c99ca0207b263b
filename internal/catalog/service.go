// Package catalog answers faceted browse requests: one sorted page of
// listings plus the facet menu of the requested category scope.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"faceted-catalog-service/internal/domain"
	"faceted-catalog-service/internal/facet"
	"faceted-catalog-service/internal/filter"
	"faceted-catalog-service/internal/listing"
	"faceted-catalog-service/internal/predicate"
	"faceted-catalog-service/internal/schema"
	"faceted-catalog-service/internal/store"
)

var (
	// ErrQueryFailed is the only failure a browse request reports.
	ErrQueryFailed = errors.New("catalog query failed")
	// ErrCategoryNotFound is returned by category lookups for unknown or inactive slugs.
	ErrCategoryNotFound = errors.New("catalog: category not found")
)

// Options tune the service.
type Options struct {
	PageSize     int
	FacetTimeout time.Duration // 0 means facets share the request deadline
	QueryTimeout time.Duration // 0 means only the caller's deadline applies
}

// Service answers browse, facet and category detail requests.
type Service struct {
	store    store.CatalogReader
	facets   *facet.Aggregator
	registry *schema.Registry
	opts     Options
	logger   zerolog.Logger
}

// NewService wires a Service. facets may be nil, in which case an uncached
// aggregator over st is used.
func NewService(st store.CatalogReader, facets *facet.Aggregator, opts Options, logger zerolog.Logger) *Service {
	if opts.PageSize < 1 {
		opts.PageSize = listing.DefaultPageSize
	}
	logger = logger.With().Str("component", "catalog").Logger()
	if facets == nil {
		facets = facet.NewAggregator(st, nil, logger)
	}
	return &Service{
		store:    st,
		facets:   facets,
		registry: schema.NewRegistry(st),
		opts:     opts,
		logger:   logger,
	}
}

// Browse runs the page query and the facet aggregation concurrently. A
// missing, unknown or inactive category yields an empty response. A facet
// phase that runs past FacetTimeout degrades to an empty menu; every other
// store failure is reported as ErrQueryFailed.
func (s *Service) Browse(ctx context.Context, q filter.Query) (*BrowseResponse, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	if q.Filters.CategorySlug == "" {
		return emptyResponse(page, s.opts.PageSize), nil
	}

	ctx, cancel := s.withQueryTimeout(ctx)
	defer cancel()

	log := s.logger.With().
		Str("category", q.Filters.CategorySlug).
		Str("subcategory", q.Filters.SubcategorySlug).
		Logger()

	category, err := s.activeCategory(ctx, q.Filters.CategorySlug)
	if errors.Is(err, ErrCategoryNotFound) {
		return emptyResponse(page, s.opts.PageSize), nil
	}
	if err != nil {
		log.Error().Err(err).Msg("category lookup failed")
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	var (
		result domain.ListingPage
		menu   domain.FacetMenu
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		result, err = s.store.QueryListings(gctx, predicate.Compile(q.Filters), q.Sort, listing.NewWindow(page, s.opts.PageSize))
		return err
	})
	g.Go(func() error {
		var err error
		menu, err = s.facetMenu(gctx, category, q.Filters.Scope(), log)
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("browse failed")
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	items := result.Items
	if items == nil {
		items = []domain.Listing{}
	}
	return &BrowseResponse{
		Data:          items,
		TotalCount:    result.TotalCount,
		Page:          page,
		PageSize:      s.opts.PageSize,
		FilterOptions: NewFilterOptions(menu),
	}, nil
}

// Facets returns the filter options of a scope alone.
func (s *Service) Facets(ctx context.Context, scope domain.Scope) (FilterOptions, error) {
	if scope.CategorySlug == "" {
		return NewFilterOptions(domain.EmptyFacetMenu()), nil
	}

	ctx, cancel := s.withQueryTimeout(ctx)
	defer cancel()

	log := s.logger.With().Str("category", scope.CategorySlug).Str("subcategory", scope.SubcategorySlug).Logger()

	category, err := s.activeCategory(ctx, scope.CategorySlug)
	if errors.Is(err, ErrCategoryNotFound) {
		return NewFilterOptions(domain.EmptyFacetMenu()), nil
	}
	if err != nil {
		log.Error().Err(err).Msg("category lookup failed")
		return FilterOptions{}, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	menu, err := s.facetMenu(ctx, category, scope, log)
	if err != nil {
		log.Error().Err(err).Msg("facet aggregation failed")
		return FilterOptions{}, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return NewFilterOptions(menu), nil
}

// CategoryDetails describes an active category for clients building filter UIs.
type CategoryDetails struct {
	Category          domain.Category              `json:"category"`
	Subcategories     []domain.Subcategory         `json:"subcategories"`
	AttributeTemplate []domain.AttributeDefinition `json:"attributeTemplate"`
	FilterableKeys    []string                     `json:"filterableKeys"`
}

// Category returns the details of an active category. An invalid template is
// logged and reported as empty.
func (s *Service) Category(ctx context.Context, slug string) (*CategoryDetails, error) {
	ctx, cancel := s.withQueryTimeout(ctx)
	defer cancel()

	category, err := s.activeCategory(ctx, slug)
	if err != nil {
		if !errors.Is(err, ErrCategoryNotFound) {
			s.logger.Error().Err(err).Str("category", slug).Msg("category lookup failed")
			err = fmt.Errorf("%w: %w", ErrQueryFailed, err)
		}
		return nil, err
	}

	subcategories, err := s.store.ListSubcategories(ctx, category.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("category", slug).Msg("subcategory lookup failed")
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	tmpl, err := s.template(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	details := &CategoryDetails{
		Category:          *category,
		Subcategories:     subcategories,
		AttributeTemplate: []domain.AttributeDefinition{},
		FilterableKeys:    []string{},
	}
	if tmpl != nil {
		details.AttributeTemplate = tmpl.Definitions()
		details.FilterableKeys = tmpl.FilterableKeys()
	}
	return details, nil
}

func (s *Service) activeCategory(ctx context.Context, slug string) (*domain.Category, error) {
	category, err := s.store.GetCategoryBySlug(ctx, slug)
	if errors.Is(err, store.ErrCategoryNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	if !category.IsActive {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

// facetMenu loads the template and aggregates the scope under FacetTimeout.
// Running out of that budget yields an empty menu; running out of the
// caller's deadline does not.
func (s *Service) facetMenu(ctx context.Context, category *domain.Category, scope domain.Scope, log zerolog.Logger) (domain.FacetMenu, error) {
	fctx := ctx
	if s.opts.FacetTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, s.opts.FacetTimeout)
		defer cancel()
	}

	menu, err := s.aggregate(fctx, category, scope)
	if err == nil {
		return menu, nil
	}
	if ctx.Err() == nil && errors.Is(fctx.Err(), context.DeadlineExceeded) {
		log.Warn().Err(err).Dur("timeout", s.opts.FacetTimeout).Msg("facet aggregation timed out, returning empty filter options")
		return domain.EmptyFacetMenu(), nil
	}
	return domain.FacetMenu{}, err
}

func (s *Service) aggregate(ctx context.Context, category *domain.Category, scope domain.Scope) (domain.FacetMenu, error) {
	tmpl, err := s.template(ctx, category)
	if err != nil {
		return domain.FacetMenu{}, err
	}
	return s.facets.Aggregate(ctx, scope, tmpl)
}

// template returns nil, without error, when the stored template is invalid.
func (s *Service) template(ctx context.Context, category *domain.Category) (*schema.Template, error) {
	tmpl, err := s.registry.Template(ctx, category.ID)
	if errors.Is(err, schema.ErrInvalidTemplate) {
		s.logger.Warn().Err(err).Str("category", category.Slug).Msg("ignoring invalid attribute template")
		return nil, nil
	}
	return tmpl, err
}

func (s *Service) withQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.QueryTimeout > 0 {
		return context.WithTimeout(ctx, s.opts.QueryTimeout)
	}
	return context.WithCancel(ctx)
}
