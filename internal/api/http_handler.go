package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"faceted-catalog-service/internal/catalog"
	"faceted-catalog-service/internal/domain"
	"faceted-catalog-service/internal/filter"
)

// CatalogService is the catalog behavior the transports expose.
type CatalogService interface {
	Browse(ctx context.Context, q filter.Query) (*catalog.BrowseResponse, error)
	Facets(ctx context.Context, scope domain.Scope) (catalog.FilterOptions, error)
	Category(ctx context.Context, slug string) (*catalog.CategoryDetails, error)
}

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	service CatalogService
	logger  zerolog.Logger
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(service CatalogService, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		service: service,
		logger:  logger.With().Str("component", "http").Logger(),
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *HTTPHandler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, ErrorResponse{Error: message})
}

func (h *HTTPHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			h.logger.Error().Err(err).Msg("failed to encode JSON response")
		}
	}
}

// --- Catalog Handlers ---

// BrowseProducts answers GET /api/v1/catalog/products. Malformed parameters
// never produce a 4xx; only store failures are reported, as a 500.
func (h *HTTPHandler) BrowseProducts(w http.ResponseWriter, r *http.Request) {
	q := filter.Parse(r.URL.Query())

	resp, err := h.service.Browse(r.Context(), q)
	if err != nil {
		h.logger.Error().Err(err).Str("category", q.Filters.CategorySlug).Msg("browse request failed")
		h.respondWithError(w, http.StatusInternalServerError, catalog.ErrQueryFailed.Error())
		return
	}
	h.respondWithJSON(w, http.StatusOK, resp)
}

// GetFacets answers GET /api/v1/catalog/facets with the filter options of a scope.
func (h *HTTPHandler) GetFacets(w http.ResponseWriter, r *http.Request) {
	scope := filter.ParseScope(r.URL.Query())

	opts, err := h.service.Facets(r.Context(), scope)
	if err != nil {
		h.logger.Error().Err(err).Str("category", scope.CategorySlug).Msg("facet request failed")
		h.respondWithError(w, http.StatusInternalServerError, catalog.ErrQueryFailed.Error())
		return
	}
	h.respondWithJSON(w, http.StatusOK, opts)
}

// GetCategory answers GET /api/v1/categories/{slug}.
func (h *HTTPHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	details, err := h.service.Category(r.Context(), slug)
	if err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			h.respondWithError(w, http.StatusNotFound, "category not found")
			return
		}
		h.logger.Error().Err(err).Str("category", slug).Msg("category request failed")
		h.respondWithError(w, http.StatusInternalServerError, catalog.ErrQueryFailed.Error())
		return
	}
	h.respondWithJSON(w, http.StatusOK, details)
}

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/products", h.BrowseProducts) // GET /api/v1/catalog/products
		r.Get("/facets", h.GetFacets)        // GET /api/v1/catalog/facets
	})

	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Get("/{slug}", h.GetCategory) // GET /api/v1/categories/{slug}
	})
}
