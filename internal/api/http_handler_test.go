package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"faceted-catalog-service/internal/catalog"
	"faceted-catalog-service/internal/domain"
	"faceted-catalog-service/internal/filter"
)

// MockCatalogService is a mock implementation of CatalogService
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) Browse(ctx context.Context, q filter.Query) (*catalog.BrowseResponse, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.BrowseResponse), args.Error(1)
}

func (m *MockCatalogService) Facets(ctx context.Context, scope domain.Scope) (catalog.FilterOptions, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).(catalog.FilterOptions), args.Error(1)
}

func (m *MockCatalogService) Category(ctx context.Context, slug string) (*catalog.CategoryDetails, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.CategoryDetails), args.Error(1)
}

// Helper for setting up tests with a chi router and handler
func setupTestChiServer(t *testing.T, svc CatalogService) *httptest.Server {
	t.Helper()
	handler := NewHTTPHandler(svc, zerolog.Nop())
	router := chi.NewRouter()
	router.Use(RequestLogger(zerolog.Nop()))
	handler.RegisterRoutes(router)

	return httptest.NewServer(router)
}

func PtrTo[T any](v T) *T {
	return &v
}

func sampleResponse() *catalog.BrowseResponse {
	menu := domain.EmptyFacetMenu()
	menu.Brands = []string{"Dell", "HP"}
	menu.Attributes["RAM"] = []string{"8 GB", "16 GB"}
	menu.Attributes["Color"] = []string{"Black"}
	menu.PriceRange = domain.PriceRange{Min: 42000, Max: 85000}

	return &catalog.BrowseResponse{
		Data: []domain.Listing{{
			ProductID: 1, Slug: "xps-15", FullName: "Dell XPS 15", AverageRating: PtrTo(4.6), BrandID: PtrTo(int64(3)),
			BrandName: "Dell", CategorySlug: "laptops", VariantID: 11, VariantSlug: "xps-15-16gb",
			OurPrice: 85000, MRP: 99000, Stock: 4, Attributes: domain.Attributes{"RAM": domain.TextValue("16gb")},
		}},
		TotalCount:    1,
		Page:          1,
		PageSize:      24,
		FilterOptions: catalog.NewFilterOptions(menu),
	}
}

func TestHTTPHandler_BrowseProducts_Success(t *testing.T) {
	mockSvc := new(MockCatalogService)
	server := setupTestChiServer(t, mockSvc)
	defer server.Close()

	mockSvc.On("Browse", mock.Anything, mock.MatchedBy(func(q filter.Query) bool {
		_, dell := q.Filters.Brands["Dell"]
		_, ram := q.Filters.AttributeFilters["RAM"]["16 GB"]
		return q.Filters.CategorySlug == "laptops" && dell && ram && q.Page == 1 && q.Sort == domain.SortPriceAsc
	})).Return(sampleResponse(), nil).Once()

	resp, err := http.Get(server.URL + "/api/v1/catalog/products?category=laptops&brand=dell&RAM=16gb&page=abc&sort=price_asc")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.EqualValues(t, 1, body["totalCount"])
	assert.EqualValues(t, 24, body["pageSize"])

	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	item := data[0].(map[string]interface{})
	for _, key := range []string{"id", "slug", "fullName", "averageRating", "brandId", "brandName", "category",
		"subcategory", "variantId", "variantSlug", "ourPrice", "mrp", "stock", "attributes", "image"} {
		assert.Contains(t, item, key)
	}
	assert.NotContains(t, item, "status")

	options := body["filterOptions"].(map[string]interface{})
	assert.Equal(t, []interface{}{"Black"}, options["colors"])
	assert.Equal(t, []interface{}{}, options["storageOptions"])
	assert.Equal(t, map[string]interface{}{"min": 42000.0, "max": 85000.0}, options["priceRange"])

	mockSvc.AssertExpectations(t)
}

func TestHTTPHandler_BrowseProducts_StoreFailure(t *testing.T) {
	mockSvc := new(MockCatalogService)
	server := setupTestChiServer(t, mockSvc)
	defer server.Close()

	mockSvc.On("Browse", mock.Anything, mock.AnythingOfType("filter.Query")).
		Return(nil, errors.Join(catalog.ErrQueryFailed, errors.New("pq: password authentication failed"))).Once()

	resp, err := http.Get(server.URL + "/api/v1/catalog/products?category=laptops")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"catalog query failed"}`, string(raw), "store details never leak")
	mockSvc.AssertExpectations(t)
}

func TestHTTPHandler_BrowseProducts_EmptyCategory(t *testing.T) {
	svc := catalog.NewService(nil, nil, catalog.Options{PageSize: 24}, zerolog.Nop())
	server := setupTestChiServer(t, svc)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/catalog/products?brand=Dell&page=-3")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"data": [],
		"totalCount": 0,
		"page": 1,
		"pageSize": 24,
		"filterOptions": {
			"brands": [],
			"subcategories": [],
			"colors": [],
			"storageOptions": [],
			"attributes": {},
			"priceRange": {"min": 0, "max": 0}
		}
	}`, string(raw))
}

func TestHTTPHandler_GetFacets(t *testing.T) {
	mockSvc := new(MockCatalogService)
	server := setupTestChiServer(t, mockSvc)
	defer server.Close()

	opts := sampleResponse().FilterOptions
	mockSvc.On("Facets", mock.Anything, domain.Scope{CategorySlug: "laptops", SubcategorySlug: "gaming"}).Return(opts, nil).Once()

	resp, err := http.Get(server.URL + "/api/v1/catalog/facets?category=laptops&subcategory=gaming&brand=Dell")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got catalog.FilterOptions
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, opts, got)
	mockSvc.AssertExpectations(t)
}

func TestHTTPHandler_GetCategory(t *testing.T) {
	mockSvc := new(MockCatalogService)
	server := setupTestChiServer(t, mockSvc)
	defer server.Close()

	details := &catalog.CategoryDetails{
		Category:      domain.Category{ID: 1, Slug: "laptops", Name: "Laptops", IsActive: true},
		Subcategories: []domain.Subcategory{{ID: 10, CategoryID: 1, Slug: "gaming", Name: "Gaming"}},
		AttributeTemplate: []domain.AttributeDefinition{
			{Name: "RAM", Type: domain.AttributeTypeSelect, Options: []string{"8 GB"}, IsFilterable: true},
		},
		FilterableKeys: []string{"RAM"},
	}
	mockSvc.On("Category", mock.Anything, "laptops").Return(details, nil).Once()
	mockSvc.On("Category", mock.Anything, "nope").Return(nil, catalog.ErrCategoryNotFound).Once()
	mockSvc.On("Category", mock.Anything, "broken").Return(nil, catalog.ErrQueryFailed).Once()

	resp, err := http.Get(server.URL + "/api/v1/categories/laptops")
	require.NoError(t, err)
	var got catalog.CategoryDetails
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, *details, got)

	resp, err = http.Get(server.URL + "/api/v1/categories/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(server.URL + "/api/v1/categories/broken")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	mockSvc.AssertExpectations(t)
}
