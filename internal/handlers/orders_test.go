package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/caspian-bazaar/api/internal/domain"
	"github.com/caspian-bazaar/api/internal/services"
)

func newOrderRouter(svc *stubOrderService) chi.Router {
	h := NewOrderHandlers(nil, svc)
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func sampleOrder() domain.Order {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	return domain.Order{
		ID:     "o1",
		UserID: "u1",
		Status: domain.OrderStatusPending,
		Lines: []domain.OrderLine{
			{ProductID: "p1", Name: "Walnut Chair", UnitPrice: 40, Quantity: 2},
		},
		Total:     80,
		Shipping:  domain.ShippingDetails{FullName: "Mina Kazemi", Address: "12 Harbour Lane"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCheckoutCreated(t *testing.T) {
	svc := &stubOrderService{order: sampleOrder()}
	router := newOrderRouter(svc)

	payload := `{"shipping":{"fullName":"Mina Kazemi","address":"12 Harbour Lane"}}`
	req := authedRequest(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload)), "u1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if svc.lastShipping.FullName != "Mina Kazemi" {
		t.Fatalf("shipping not forwarded: %+v", svc.lastShipping)
	}

	var body orderResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Order.Status != "pending" || body.Order.Total != 80 {
		t.Fatalf("unexpected order payload: %+v", body.Order)
	}
}

func TestCheckoutEmptyCartMapsToConflict(t *testing.T) {
	router := newOrderRouter(&stubOrderService{err: services.ErrOrderEmptyCart})

	payload := `{"shipping":{"fullName":"Mina Kazemi","address":"12 Harbour Lane"}}`
	req := authedRequest(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload)), "u1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for an empty cart, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if body["error"] != "cart_empty" {
		t.Fatalf("unexpected error code %v", body["error"])
	}
}

func TestCheckoutRequiresIdentity(t *testing.T) {
	router := newOrderRouter(&stubOrderService{})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rr.Code)
	}
}

func TestListOrders(t *testing.T) {
	router := newOrderRouter(&stubOrderService{orders: []domain.Order{sampleOrder()}})

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/", nil), "u1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body orderListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(body.Orders) != 1 || body.Orders[0].ID != "o1" {
		t.Fatalf("unexpected orders payload: %+v", body.Orders)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	router := newOrderRouter(&stubOrderService{err: services.ErrOrderNotFound})

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/o9", nil), "u1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
