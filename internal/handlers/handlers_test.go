package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	domain "github.com/caspian-bazaar/api/internal/domain"
	"github.com/caspian-bazaar/api/internal/locale"
	"github.com/caspian-bazaar/api/internal/platform/auth"
	"github.com/caspian-bazaar/api/internal/repositories"
	"github.com/caspian-bazaar/api/internal/services"
)

func testResolver(t *testing.T) *locale.Resolver {
	t.Helper()
	r, err := locale.NewResolver(domain.DefaultLocale, domain.SupportedLocales)
	if err != nil {
		t.Fatalf("locale resolver: %v", err)
	}
	return r
}

func authedRequest(r *http.Request, uid string, roles ...string) *http.Request {
	if len(roles) == 0 {
		roles = []string{auth.RoleUser}
	}
	identity := &auth.Identity{UID: uid, Roles: roles, Locale: string(domain.DefaultLocale)}
	return r.WithContext(auth.WithIdentity(r.Context(), identity))
}

type stubCatalogService struct {
	views      []services.ProductView
	categories []services.CategoryView
	product    services.ProductView
	created    domain.Product
	err        error

	lastCriteria domain.SearchCriteria
	lastLocale   domain.Locale
	lastInput    services.ProductInput
}

func (s *stubCatalogService) SearchProducts(_ context.Context, criteria domain.SearchCriteria, loc domain.Locale) ([]services.ProductView, error) {
	s.lastCriteria = criteria
	s.lastLocale = loc
	return s.views, s.err
}

func (s *stubCatalogService) GetProduct(_ context.Context, productID string, loc domain.Locale) (services.ProductView, error) {
	s.lastLocale = loc
	if s.err != nil {
		return services.ProductView{}, s.err
	}
	return s.product, nil
}

func (s *stubCatalogService) ListCategories(_ context.Context, loc domain.Locale) ([]services.CategoryView, error) {
	s.lastLocale = loc
	return s.categories, s.err
}

func (s *stubCatalogService) CreateProduct(_ context.Context, input services.ProductInput) (domain.Product, error) {
	s.lastInput = input
	return s.created, s.err
}

func (s *stubCatalogService) UpdateProduct(_ context.Context, _ string, input services.ProductInput) (domain.Product, error) {
	s.lastInput = input
	return s.created, s.err
}

func (s *stubCatalogService) DeleteProduct(context.Context, string) error { return s.err }

func (s *stubCatalogService) CreateCategory(context.Context, services.CategoryInput) (domain.Category, error) {
	return domain.Category{}, s.err
}

func (s *stubCatalogService) UpdateCategory(context.Context, string, services.CategoryInput) (domain.Category, error) {
	return domain.Category{}, s.err
}

func (s *stubCatalogService) DeleteCategory(context.Context, string) error { return s.err }

func (s *stubCatalogService) WarmCache(context.Context) {}

func (s *stubCatalogService) Close() {}

type stubCartService struct {
	cart domain.Cart
	err  error

	lastProductID string
	lastQuantity  int
	lastLineID    string
	cleared       bool
}

func (s *stubCartService) GetCart(_ context.Context, userID string) (domain.Cart, error) {
	return s.cart, s.err
}

func (s *stubCartService) AddItem(_ context.Context, _, productID string, quantity int, _ domain.Locale) (domain.Cart, error) {
	s.lastProductID = productID
	s.lastQuantity = quantity
	return s.cart, s.err
}

func (s *stubCartService) UpdateQuantity(_ context.Context, _, lineID string, quantity int) (domain.Cart, error) {
	s.lastLineID = lineID
	s.lastQuantity = quantity
	return s.cart, s.err
}

func (s *stubCartService) RemoveItem(_ context.Context, _, lineID string) (domain.Cart, error) {
	s.lastLineID = lineID
	return s.cart, s.err
}

func (s *stubCartService) ClearCart(context.Context, string) error {
	s.cleared = true
	return s.err
}

type stubWishlistService struct {
	entries []domain.WishlistEntry
	entry   domain.WishlistEntry
	cart    domain.Cart
	present bool
	created bool
	err     error
}

func (s *stubWishlistService) List(context.Context, string) ([]domain.WishlistEntry, error) {
	return s.entries, s.err
}

func (s *stubWishlistService) Add(context.Context, string, string, domain.Locale) (domain.WishlistEntry, bool, error) {
	return s.entry, s.created, s.err
}

func (s *stubWishlistService) Remove(context.Context, string, string) error { return s.err }

func (s *stubWishlistService) Contains(context.Context, string, string) (bool, error) {
	return s.present, s.err
}

func (s *stubWishlistService) Toggle(context.Context, string, string, domain.Locale) (bool, error) {
	return s.present, s.err
}

func (s *stubWishlistService) MoveToCart(context.Context, string, string, domain.Locale) (domain.Cart, error) {
	return s.cart, s.err
}

type stubOrderService struct {
	order  domain.Order
	orders []domain.Order
	err    error

	lastShipping domain.ShippingDetails
	lastStatus   domain.OrderStatus
	lastFilter   repositories.OrderListFilter
}

func (s *stubOrderService) Checkout(_ context.Context, _ string, shipping domain.ShippingDetails) (domain.Order, error) {
	s.lastShipping = shipping
	return s.order, s.err
}

func (s *stubOrderService) ListOrders(context.Context, string) ([]domain.Order, error) {
	return s.orders, s.err
}

func (s *stubOrderService) GetOrder(context.Context, string, string) (domain.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) ListAllOrders(_ context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	s.lastFilter = filter
	return s.orders, s.err
}

func (s *stubOrderService) UpdateStatus(_ context.Context, _ string, status domain.OrderStatus) (domain.Order, error) {
	s.lastStatus = status
	return s.order, s.err
}

func sampleCart() domain.Cart {
	return domain.Cart{
		UserID: "u1",
		Lines: []domain.CartLine{
			{ID: "l1", ProductID: "p1", Name: "Walnut Chair", UnitPrice: 40, Quantity: 2},
		},
		Total:     80,
		UpdatedAt: time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC),
	}
}
