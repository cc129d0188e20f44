// Package services implements the storefront business rules on top of the
// repository layer: catalog search, cart aggregation, wishlist membership,
// checkout and fulfilment.
package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/caspian-bazaar/api/internal/domain"
	"github.com/caspian-bazaar/api/internal/repositories"
)

// ProductView is a product rendered for a single locale.
type ProductView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	CategoryID  string  `json:"categoryId,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	SalesCount  int     `json:"salesCount"`
}

// CategoryView is a category rendered for a single locale.
type CategoryView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
}

// ProductInput carries admin-supplied product fields.
type ProductInput struct {
	Name        domain.LocalizedText
	Description domain.LocalizedText
	Price       float64
	Stock       int
	CategoryID  string
	ImageURL    string
}

// CategoryInput carries admin-supplied category fields.
type CategoryInput struct {
	Name     domain.LocalizedText
	ParentID string
}

// CatalogService exposes catalog browsing, search and back-office maintenance.
type CatalogService interface {
	SearchProducts(ctx context.Context, criteria domain.SearchCriteria, loc domain.Locale) ([]ProductView, error)
	GetProduct(ctx context.Context, productID string, loc domain.Locale) (ProductView, error)
	ListCategories(ctx context.Context, loc domain.Locale) ([]CategoryView, error)

	CreateProduct(ctx context.Context, input ProductInput) (domain.Product, error)
	UpdateProduct(ctx context.Context, productID string, input ProductInput) (domain.Product, error)
	DeleteProduct(ctx context.Context, productID string) error

	CreateCategory(ctx context.Context, input CategoryInput) (domain.Category, error)
	UpdateCategory(ctx context.Context, categoryID string, input CategoryInput) (domain.Category, error)
	DeleteCategory(ctx context.Context, categoryID string) error

	// WarmCache loads the product snapshot eagerly; Close stops the
	// background refresh machinery.
	WarmCache(ctx context.Context)
	Close()
}

// CartService aggregates a user's cart.
type CartService interface {
	GetCart(ctx context.Context, userID string) (domain.Cart, error)
	AddItem(ctx context.Context, userID, productID string, quantity int, loc domain.Locale) (domain.Cart, error)
	UpdateQuantity(ctx context.Context, userID, lineID string, quantity int) (domain.Cart, error)
	RemoveItem(ctx context.Context, userID, lineID string) (domain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

// WishlistService maintains the per-user wishlist set.
type WishlistService interface {
	List(ctx context.Context, userID string) ([]domain.WishlistEntry, error)
	Add(ctx context.Context, userID, productID string, loc domain.Locale) (domain.WishlistEntry, bool, error)
	Remove(ctx context.Context, userID, productID string) error
	Contains(ctx context.Context, userID, productID string) (bool, error)
	Toggle(ctx context.Context, userID, productID string, loc domain.Locale) (bool, error)
	MoveToCart(ctx context.Context, userID, productID string, loc domain.Locale) (domain.Cart, error)
}

// OrderService places and tracks orders.
type OrderService interface {
	Checkout(ctx context.Context, userID string, shipping domain.ShippingDetails) (domain.Order, error)
	ListOrders(ctx context.Context, userID string) ([]domain.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (domain.Order, error)

	ListAllOrders(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error)
}

// OrderEventMessage is the payload published on order lifecycle changes.
type OrderEventMessage struct {
	OrderID    string    `json:"orderId"`
	UserID     string    `json:"userId"`
	Event      string    `json:"event"`
	Status     string    `json:"status"`
	Total      float64   `json:"total"`
	OccurredAt time.Time `json:"occurredAt"`
}

// OrderEventPublisher delivers order events to downstream consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, message OrderEventMessage) (string, error)
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

// translateRepoError maps a categorised repository error onto the service's
// sentinel errors.
func translateRepoError(err error, notFound, conflict, unavailable error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return notFound
		case repoErr.IsConflict():
			return conflict
		case repoErr.IsUnavailable():
			return unavailable
		}
	}
	return unavailable
}
