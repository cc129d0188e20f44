package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/caspian-bazaar/api/internal/domain"
	"github.com/caspian-bazaar/api/internal/platform/auth"
	"github.com/caspian-bazaar/api/internal/platform/httpx"
	"github.com/caspian-bazaar/api/internal/platform/storage"
	"github.com/caspian-bazaar/api/internal/repositories"
	"github.com/caspian-bazaar/api/internal/services"
)

const maxAdminBodySize = 64 * 1024

// AdminHandlers exposes the back-office catalog and order maintenance
// endpoints. All routes require the admin role.
type AdminHandlers struct {
	authn   *auth.Authenticator
	catalog services.CatalogService
	orders  services.OrderService
	uploads *storage.ImageUploader
}

// NewAdminHandlers constructs the admin handlers. The uploader may be nil
// when no images bucket is configured; the upload endpoint then reports the
// feature as unavailable.
func NewAdminHandlers(authn *auth.Authenticator, catalog services.CatalogService, orders services.OrderService, uploads *storage.ImageUploader) *AdminHandlers {
	return &AdminHandlers{authn: authn, catalog: catalog, orders: orders, uploads: uploads}
}

// Routes wires the /admin endpoints onto the provided router.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth(auth.RoleAdmin))
	}

	r.Post("/products", h.createProduct)
	r.Put("/products/{productID}", h.updateProduct)
	r.Delete("/products/{productID}", h.deleteProduct)
	r.Post("/products/{productID}/image-upload", h.signImageUpload)

	r.Post("/categories", h.createCategory)
	r.Put("/categories/{categoryID}", h.updateCategory)
	r.Delete("/categories/{categoryID}", h.deleteCategory)

	r.Get("/orders", h.listOrders)
	r.Patch("/orders/{orderID}/status", h.updateOrderStatus)
}

type localizedTextPayload struct {
	EN      string `json:"en,omitempty"`
	DE      string `json:"de,omitempty"`
	FA      string `json:"fa,omitempty"`
	Generic string `json:"generic,omitempty"`
}

type productRequest struct {
	Name        localizedTextPayload `json:"name"`
	Description localizedTextPayload `json:"description"`
	Price       float64              `json:"price"`
	Stock       int                  `json:"stock"`
	CategoryID  string               `json:"categoryId"`
	ImageURL    string               `json:"imageUrl"`
}

type categoryRequest struct {
	Name     localizedTextPayload `json:"name"`
	ParentID string               `json:"parentId"`
}

type adminProductPayload struct {
	ID          string               `json:"id"`
	Name        localizedTextPayload `json:"name"`
	Description localizedTextPayload `json:"description"`
	Price       float64              `json:"price"`
	Stock       int                  `json:"stock"`
	CategoryID  string               `json:"categoryId,omitempty"`
	ImageURL    string               `json:"imageUrl,omitempty"`
	SalesCount  int                  `json:"salesCount"`
	CreatedAt   string               `json:"createdAt,omitempty"`
	UpdatedAt   string               `json:"updatedAt,omitempty"`
}

type adminCategoryPayload struct {
	ID       string               `json:"id"`
	Name     localizedTextPayload `json:"name"`
	ParentID string               `json:"parentId,omitempty"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

type imageUploadRequest struct {
	ContentType string `json:"contentType"`
}

type imageUploadResponse struct {
	URL         string `json:"url"`
	Method      string `json:"method"`
	ObjectName  string `json:"objectName"`
	PublicURL   string `json:"publicUrl"`
	ContentType string `json:"contentType"`
	ExpiresAt   string `json:"expiresAt"`
}

func (h *AdminHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req productRequest
	if !h.decodeAdminBody(w, r, &req) {
		return
	}

	product, err := h.catalog.CreateProduct(ctx, productInputFromRequest(req))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildAdminProductPayload(product))
}

func (h *AdminHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req productRequest
	if !h.decodeAdminBody(w, r, &req) {
		return
	}

	product, err := h.catalog.UpdateProduct(ctx, chi.URLParam(r, "productID"), productInputFromRequest(req))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildAdminProductPayload(product))
}

func (h *AdminHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.catalog.DeleteProduct(ctx, chi.URLParam(r, "productID")); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// signImageUpload hands the admin frontend a short-lived signed PUT URL so
// image bytes never pass through the API.
func (h *AdminHandlers) signImageUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.uploads == nil {
		httpx.WriteError(ctx, w, httpx.NewError("uploads_unavailable", "image uploads are not configured", http.StatusServiceUnavailable))
		return
	}

	var req imageUploadRequest
	if !h.decodeAdminBody(w, r, &req) {
		return
	}

	productID := chi.URLParam(r, "productID")
	if _, err := h.catalog.GetProduct(ctx, productID, domain.DefaultLocale); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	upload, err := h.uploads.SignedUploadURL(ctx, productID, req.ContentType)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedContentType) {
			httpx.WriteError(ctx, w, httpx.NewError("unsupported_content_type", "content type must be a supported image format", http.StatusBadRequest))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("upload_sign_failed", "failed to sign upload URL", http.StatusInternalServerError))
		return
	}

	writeJSONResponse(w, http.StatusOK, imageUploadResponse{
		URL:         upload.URL,
		Method:      upload.Method,
		ObjectName:  upload.ObjectName,
		PublicURL:   upload.PublicURL,
		ContentType: upload.ContentType,
		ExpiresAt:   formatTime(upload.ExpiresAt),
	})
}

func (h *AdminHandlers) createCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req categoryRequest
	if !h.decodeAdminBody(w, r, &req) {
		return
	}

	category, err := h.catalog.CreateCategory(ctx, services.CategoryInput{
		Name:     localizedTextFromPayload(req.Name),
		ParentID: req.ParentID,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildAdminCategoryPayload(category))
}

func (h *AdminHandlers) updateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req categoryRequest
	if !h.decodeAdminBody(w, r, &req) {
		return
	}

	category, err := h.catalog.UpdateCategory(ctx, chi.URLParam(r, "categoryID"), services.CategoryInput{
		Name:     localizedTextFromPayload(req.Name),
		ParentID: req.ParentID,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildAdminCategoryPayload(category))
}

func (h *AdminHandlers) deleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.catalog.DeleteCategory(ctx, chi.URLParam(r, "categoryID")); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}

	filter := repositories.OrderListFilter{}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		filter.Status = domain.OrderStatus(strings.ToLower(raw))
	}

	orders, err := h.orders.ListAllOrders(ctx, filter)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderListResponse(orders))
}

func (h *AdminHandlers) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req updateOrderStatusRequest
	if !h.decodeAdminBody(w, r, &req) {
		return
	}

	order, err := h.orders.UpdateStatus(ctx, chi.URLParam(r, "orderID"), domain.OrderStatus(strings.ToLower(strings.TrimSpace(req.Status))))
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *AdminHandlers) decodeAdminBody(w http.ResponseWriter, r *http.Request, target any) bool {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return false
	}

	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return false
	}
	if err := json.Unmarshal(body, target); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return false
	}
	return true
}

func productInputFromRequest(req productRequest) services.ProductInput {
	return services.ProductInput{
		Name:        localizedTextFromPayload(req.Name),
		Description: localizedTextFromPayload(req.Description),
		Price:       req.Price,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		ImageURL:    req.ImageURL,
	}
}

func localizedTextFromPayload(p localizedTextPayload) domain.LocalizedText {
	return domain.LocalizedText{EN: p.EN, DE: p.DE, FA: p.FA, Generic: p.Generic}
}

func localizedTextPayloadFrom(t domain.LocalizedText) localizedTextPayload {
	return localizedTextPayload{EN: t.EN, DE: t.DE, FA: t.FA, Generic: t.Generic}
}

func buildAdminProductPayload(product domain.Product) adminProductPayload {
	return adminProductPayload{
		ID:          product.ID,
		Name:        localizedTextPayloadFrom(product.Name),
		Description: localizedTextPayloadFrom(product.Description),
		Price:       product.Price,
		Stock:       product.Stock,
		CategoryID:  product.CategoryID,
		ImageURL:    product.ImageURL,
		SalesCount:  product.SalesCount,
		CreatedAt:   formatTime(product.CreatedAt),
		UpdatedAt:   formatTime(product.UpdatedAt),
	}
}

func buildAdminCategoryPayload(category domain.Category) adminCategoryPayload {
	return adminCategoryPayload{
		ID:       category.ID,
		Name:     localizedTextPayloadFrom(category.Name),
		ParentID: category.ParentID,
	}
}
