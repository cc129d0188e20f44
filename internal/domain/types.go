package domain

import "time"

// Locale identifies a storefront display language.
type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleGerman  Locale = "de"
	LocalePersian Locale = "fa"
)

// DefaultLocale is the fallback language used when a requested locale is
// unsupported or a localized field is missing.
const DefaultLocale = LocaleEnglish

// SupportedLocales lists the locales the storefront ships translations for.
var SupportedLocales = []Locale{LocaleEnglish, LocaleGerman, LocalePersian}

// PlaceholderName is rendered when no name field resolves for any locale.
const PlaceholderName = "unnamed"

// LocalizedText carries per-locale variants of a display string together
// with a locale-agnostic fallback.
type LocalizedText struct {
	EN      string `json:"en,omitempty"`
	DE      string `json:"de,omitempty"`
	FA      string `json:"fa,omitempty"`
	Generic string `json:"generic,omitempty"`
}

// ForLocale returns the variant for the given locale without applying any
// fallback. Resolution with fallback lives in the locale package.
func (t LocalizedText) ForLocale(loc Locale) string {
	switch loc {
	case LocaleGerman:
		return t.DE
	case LocalePersian:
		return t.FA
	default:
		return t.EN
	}
}

// Product is a catalog item.
type Product struct {
	ID          string        `json:"id"`
	Name        LocalizedText `json:"name"`
	Description LocalizedText `json:"description"`
	Price       float64       `json:"price"`
	Stock       int           `json:"stock"`
	CategoryID  string        `json:"categoryId,omitempty"`
	ImageURL    string        `json:"imageUrl,omitempty"`
	SalesCount  int           `json:"salesCount"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Category groups products for navigation and filtering.
type Category struct {
	ID        string        `json:"id"`
	Name      LocalizedText `json:"name"`
	ParentID  string        `json:"parentId,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// CartLine is a single product entry in a user's cart. A cart holds at most
// one line per product; duplicate adds merge into the existing line.
type CartLine struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Name      string    `json:"name"`
	UnitPrice float64   `json:"unitPrice"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Subtotal returns the line contribution to the cart total.
func (l CartLine) Subtotal() float64 {
	return Round2(l.UnitPrice * float64(l.Quantity))
}

// Cart is the aggregated view of a user's cart.
type Cart struct {
	UserID    string     `json:"userId"`
	Lines     []CartLine `json:"lines"`
	Total     float64    `json:"total"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// WishlistEntry is a saved product reference. The wishlist behaves as a set
// keyed by product ID.
type WishlistEntry struct {
	ProductID string    `json:"productId"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	AddedAt   time.Time `json:"addedAt"`
}

// OrderStatus tracks fulfilment progress.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether the status is one of the known values.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo enforces the forward-only fulfilment flow. Cancellation is
// allowed from any non-terminal state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !next.Valid() || s == next {
		return false
	}
	if s == OrderStatusDelivered || s == OrderStatusCancelled {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	order := map[OrderStatus]int{
		OrderStatusPending:    0,
		OrderStatusProcessing: 1,
		OrderStatusShipped:    2,
		OrderStatusDelivered:  3,
	}
	cur, ok := order[s]
	if !ok {
		return false
	}
	nxt, ok := order[next]
	if !ok {
		return false
	}
	return nxt == cur+1
}

// OrderLine snapshots a cart line at checkout time.
type OrderLine struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

// ShippingDetails carries the contact fields collected at checkout.
type ShippingDetails struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Address  string `json:"address"`
	City     string `json:"city,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Order is a placed checkout.
type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Lines     []OrderLine     `json:"lines"`
	Total     float64         `json:"total"`
	Status    OrderStatus     `json:"status"`
	Shipping  ShippingDetails `json:"shipping"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
