package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/caspian-bazaar/api/internal/domain"
	"github.com/caspian-bazaar/api/internal/services"
)

func newStorefrontRouter(svc *stubCatalogService, t *testing.T) chi.Router {
	t.Helper()
	h := NewStorefrontHandlers(svc, testResolver(t))
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func TestSearchParsesQueryParameters(t *testing.T) {
	svc := &stubCatalogService{}
	router := newStorefrontRouter(svc, t)

	req := httptest.NewRequest(http.MethodGet, "/search?q=chair&category=furniture&price=50-100&sort=price-high", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if svc.lastCriteria.Query != "chair" {
		t.Fatalf("query not forwarded, got %q", svc.lastCriteria.Query)
	}
	if svc.lastCriteria.CategoryID != "furniture" {
		t.Fatalf("category not forwarded, got %q", svc.lastCriteria.CategoryID)
	}
	if svc.lastCriteria.Bucket != domain.PriceBucketMedium {
		t.Fatalf("bucket not parsed, got %q", svc.lastCriteria.Bucket)
	}
	if svc.lastCriteria.Sort != domain.SortPriceHigh {
		t.Fatalf("sort not parsed, got %q", svc.lastCriteria.Sort)
	}
}

func TestSearchUnknownParametersFallBack(t *testing.T) {
	svc := &stubCatalogService{}
	router := newStorefrontRouter(svc, t)

	req := httptest.NewRequest(http.MethodGet, "/search?price=bogus&sort=bogus", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if svc.lastCriteria.Bucket != domain.PriceBucketNone {
		t.Fatalf("unknown bucket must be dropped, got %q", svc.lastCriteria.Bucket)
	}
	if svc.lastCriteria.Sort != domain.SortDefault {
		t.Fatalf("unknown sort must fall back to default, got %q", svc.lastCriteria.Sort)
	}
}

func TestListProductsNegotiatesLocale(t *testing.T) {
	svc := &stubCatalogService{}
	router := newStorefrontRouter(svc, t)

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Accept-Language", "de-AT,de;q=0.9,en;q=0.5")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if svc.lastLocale != domain.LocaleGerman {
		t.Fatalf("expected de from Accept-Language, got %q", svc.lastLocale)
	}

	var body productListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Locale != "de" {
		t.Fatalf("response must echo the locale, got %q", body.Locale)
	}
}

func TestLangParameterOverridesHeader(t *testing.T) {
	svc := &stubCatalogService{}
	router := newStorefrontRouter(svc, t)

	req := httptest.NewRequest(http.MethodGet, "/products?lang=fa", nil)
	req.Header.Set("Accept-Language", "de")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if svc.lastLocale != domain.LocalePersian {
		t.Fatalf("lang parameter must win, got %q", svc.lastLocale)
	}
}

func TestGetProductNotFoundMapsTo404(t *testing.T) {
	svc := &stubCatalogService{err: services.ErrCatalogNotFound}
	router := newStorefrontRouter(svc, t)

	req := httptest.NewRequest(http.MethodGet, "/products/missing", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if body["error"] != "product_not_found" {
		t.Fatalf("unexpected error code %v", body["error"])
	}
}

func TestListCategories(t *testing.T) {
	svc := &stubCatalogService{categories: []services.CategoryView{{ID: "c1", Name: "Textilien"}}}
	router := newStorefrontRouter(svc, t)

	req := httptest.NewRequest(http.MethodGet, "/categories?lang=de", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body categoryListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(body.Categories) != 1 || body.Categories[0].Name != "Textilien" {
		t.Fatalf("unexpected categories payload: %+v", body.Categories)
	}
}
