package repositories

import (
	"context"

	domain "github.com/caspian-bazaar/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ProductRepository persists catalog products.
type ProductRepository interface {
	Insert(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	Delete(ctx context.Context, productID string) error
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	List(ctx context.Context, filter ProductListFilter) ([]domain.Product, error)
	IncrementSales(ctx context.Context, productID string, delta int) error
}

// ProductListFilter narrows product listings. Text matching and ordering run
// in the service pipeline; the filter covers what the backend indexes.
type ProductListFilter struct {
	CategoryID string
	Bucket     domain.PriceBucket
}

// CategoryRepository persists catalog categories.
type CategoryRepository interface {
	Insert(ctx context.Context, category domain.Category) error
	Update(ctx context.Context, category domain.Category) error
	Delete(ctx context.Context, categoryID string) error
	FindByID(ctx context.Context, categoryID string) (domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
}

// CartRepository persists per-user carts.
type CartRepository interface {
	Get(ctx context.Context, userID string) (domain.Cart, error)
	Save(ctx context.Context, cart domain.Cart) error
	Clear(ctx context.Context, userID string) error
}

// WishlistRepository persists per-user wishlist entries as a set keyed by product.
type WishlistRepository interface {
	List(ctx context.Context, userID string) ([]domain.WishlistEntry, error)
	// Put stores the entry unless one already exists; it reports whether a
	// new entry was created.
	Put(ctx context.Context, userID string, entry domain.WishlistEntry) (bool, error)
	// Delete removes the entry; deleting an absent entry is not an error.
	Delete(ctx context.Context, userID string, productID string) (bool, error)
	Contains(ctx context.Context, userID string, productID string) (bool, error)
}

// OrderRepository persists placed orders.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error)
}

// OrderListFilter narrows back-office order listings.
type OrderListFilter struct {
	Status domain.OrderStatus
}

// HealthRepository verifies backend connectivity for readiness probes.
type HealthRepository interface {
	Ping(ctx context.Context) error
}
