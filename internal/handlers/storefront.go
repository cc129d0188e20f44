package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/caspian-bazaar/api/internal/domain"
	"github.com/caspian-bazaar/api/internal/locale"
	"github.com/caspian-bazaar/api/internal/platform/httpx"
	"github.com/caspian-bazaar/api/internal/services"
)

// StorefrontHandlers serves the unauthenticated catalog endpoints.
type StorefrontHandlers struct {
	catalog services.CatalogService
	locales *locale.Resolver
}

// NewStorefrontHandlers constructs the public catalog handlers.
func NewStorefrontHandlers(catalog services.CatalogService, locales *locale.Resolver) *StorefrontHandlers {
	return &StorefrontHandlers{catalog: catalog, locales: locales}
}

// Routes wires the /public endpoints onto the provided router.
func (h *StorefrontHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/products", h.listProducts)
	r.Get("/products/{productID}", h.getProduct)
	r.Get("/categories", h.listCategories)
	r.Get("/search", h.search)
}

type productListResponse struct {
	Products []services.ProductView `json:"products"`
	Locale   string                 `json:"locale"`
}

type categoryListResponse struct {
	Categories []services.CategoryView `json:"categories"`
	Locale     string                  `json:"locale"`
}

func (h *StorefrontHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	h.serveSearch(w, r, domain.SearchCriteria{})
}

// search applies query, category, price bucket and sort parameters. Unknown
// sort keys fall back to the default ordering, unknown buckets to no bucket.
func (h *StorefrontHandlers) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.serveSearch(w, r, domain.SearchCriteria{
		Query:      q.Get("q"),
		CategoryID: q.Get("category"),
		Bucket:     domain.ParsePriceBucket(q.Get("price")),
		Sort:       domain.ParseSortKey(q.Get("sort")),
	})
}

func (h *StorefrontHandlers) serveSearch(w http.ResponseWriter, r *http.Request, criteria domain.SearchCriteria) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	loc := requestLocale(r, h.locales)
	views, err := h.catalog.SearchProducts(ctx, criteria, loc)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, productListResponse{Products: views, Locale: string(loc)})
}

func (h *StorefrontHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	loc := requestLocale(r, h.locales)
	view, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "productID"), loc)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, view)
}

func (h *StorefrontHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	loc := requestLocale(r, h.locales)
	views, err := h.catalog.ListCategories(ctx, loc)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, categoryListResponse{Categories: views, Locale: string(loc)})
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogConflict):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_conflict", "catalog entry has been modified; refresh and retry", http.StatusConflict))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to serve catalog request", http.StatusInternalServerError))
	}
}
