package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/caspian-bazaar/api/internal/domain"
	"github.com/caspian-bazaar/api/internal/services"
)

func newAdminRouter(catalog *stubCatalogService, orders *stubOrderService) chi.Router {
	h := NewAdminHandlers(nil, catalog, orders, nil)
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func TestAdminCreateProduct(t *testing.T) {
	catalog := &stubCatalogService{created: domain.Product{
		ID:    "p9",
		Name:  domain.LocalizedText{EN: "Brass Lamp"},
		Price: 30,
	}}
	router := newAdminRouter(catalog, &stubOrderService{})

	payload := `{"name":{"en":"Brass Lamp","de":"Messinglampe"},"price":30,"stock":5}`
	req := authedRequest(httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(payload)), "admin-1", "admin")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if catalog.lastInput.Name.EN != "Brass Lamp" || catalog.lastInput.Name.DE != "Messinglampe" {
		t.Fatalf("localized name not forwarded: %+v", catalog.lastInput.Name)
	}

	var body adminProductPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.ID != "p9" {
		t.Fatalf("unexpected product payload: %+v", body)
	}
}

func TestAdminCreateProductInvalidInput(t *testing.T) {
	catalog := &stubCatalogService{err: services.ErrCatalogInvalidInput}
	router := newAdminRouter(catalog, &stubOrderService{})

	req := authedRequest(httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"price":-1}`)), "admin-1", "admin")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAdminListOrdersForwardsStatusFilter(t *testing.T) {
	orders := &stubOrderService{}
	router := newAdminRouter(&stubCatalogService{}, orders)

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/orders?status=Shipped", nil), "admin-1", "admin")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if orders.lastFilter.Status != domain.OrderStatusShipped {
		t.Fatalf("status filter not normalised, got %q", orders.lastFilter.Status)
	}
}

func TestAdminUpdateOrderStatus(t *testing.T) {
	orders := &stubOrderService{order: sampleOrder()}
	router := newAdminRouter(&stubCatalogService{}, orders)

	req := authedRequest(httptest.NewRequest(http.MethodPatch, "/orders/o1/status", strings.NewReader(`{"status":"Processing"}`)), "admin-1", "admin")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if orders.lastStatus != domain.OrderStatusProcessing {
		t.Fatalf("status not normalised, got %q", orders.lastStatus)
	}
}

func TestAdminUpdateOrderStatusConflict(t *testing.T) {
	orders := &stubOrderService{err: services.ErrOrderConflict}
	router := newAdminRouter(&stubCatalogService{}, orders)

	req := authedRequest(httptest.NewRequest(http.MethodPatch, "/orders/o1/status", strings.NewReader(`{"status":"shipped"}`)), "admin-1", "admin")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestAdminImageUploadUnconfigured(t *testing.T) {
	router := newAdminRouter(&stubCatalogService{}, &stubOrderService{})

	req := authedRequest(httptest.NewRequest(http.MethodPost, "/products/p1/image-upload", strings.NewReader(`{"contentType":"image/png"}`)), "admin-1", "admin")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without an uploader, got %d", rr.Code)
	}
}
