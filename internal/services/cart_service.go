package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/caspian-bazaar/api/internal/domain"
	"github.com/caspian-bazaar/api/internal/locale"
	"github.com/caspian-bazaar/api/internal/repositories"
)

var (
	errCartRepositoryRequired = errors.New("cart service: repository is required")
	errCartProductsRequired   = errors.New("cart service: product finder is required")
	errCartLocalesRequired    = errors.New("cart service: locale resolver is required")
)

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart service: invalid input")

// ErrCartNotFound indicates the requested cart line does not exist.
var ErrCartNotFound = errors.New("cart service: not found")

// ErrCartConflict indicates the cart could not be updated due to concurrent modifications.
var ErrCartConflict = errors.New("cart service: conflict")

// ErrCartUnavailable indicates the cart service cannot fulfil the request.
var ErrCartUnavailable = errors.New("cart service: unavailable")

// ProductFinder resolves products referenced by cart mutations.
type ProductFinder interface {
	FindByID(ctx context.Context, productID string) (domain.Product, error)
}

// CartServiceDeps wires the dependencies for cart operations.
type CartServiceDeps struct {
	Repository  repositories.CartRepository
	Products    ProductFinder
	Locales     *locale.Resolver
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

type cartService struct {
	repo     repositories.CartRepository
	products ProductFinder
	locales  *locale.Resolver
	now      func() time.Time
	newID    func() string
	logger   func(context.Context, string, map[string]any)
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Repository == nil {
		return nil, errCartRepositoryRequired
	}
	if deps.Products == nil {
		return nil, errCartProductsRequired
	}
	if deps.Locales == nil {
		return nil, errCartLocalesRequired
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &cartService{
		repo:     deps.Repository,
		products: deps.Products,
		locales:  deps.Locales,
		now:      func() time.Time { return clock().UTC() },
		newID:    idGen,
		logger:   logger,
	}, nil
}

// GetCart loads the user's cart with defensive line aggregation applied.
func (s *cartService) GetCart(ctx context.Context, userID string) (domain.Cart, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}

	cart, err := s.repo.Get(ctx, uid)
	if err != nil {
		return domain.Cart{}, s.translateError(err)
	}
	return s.normalise(cart, uid), nil
}

// AddItem puts the product in the cart. Adding a product that is already
// present merges into the existing line by summing quantities.
func (s *cartService) AddItem(ctx context.Context, userID, productID string, quantity int, loc domain.Locale) (domain.Cart, error) {
	uid := strings.TrimSpace(userID)
	pid := strings.TrimSpace(productID)
	if uid == "" || pid == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}
	if quantity <= 0 {
		quantity = 1
	}

	product, err := s.products.FindByID(ctx, pid)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.Cart{}, ErrCartNotFound
		}
		return domain.Cart{}, s.translateError(err)
	}

	cart, err := s.repo.Get(ctx, uid)
	if err != nil {
		return domain.Cart{}, s.translateError(err)
	}
	cart = s.normalise(cart, uid)

	now := s.now()
	merged := false
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == pid {
			cart.Lines[i].Quantity += quantity
			cart.Lines[i].UpdatedAt = now
			merged = true
			break
		}
	}
	if !merged {
		cart.Lines = append(cart.Lines, domain.CartLine{
			ID:        s.newID(),
			ProductID: pid,
			Name:      s.locales.ResolveName(product, loc),
			UnitPrice: domain.Round2(product.Price),
			Quantity:  quantity,
			AddedAt:   now,
			UpdatedAt: now,
		})
	}

	return s.save(ctx, cart)
}

// UpdateQuantity sets the quantity on a line. Negative input is clamped to
// zero, and zero removes the line.
func (s *cartService) UpdateQuantity(ctx context.Context, userID, lineID string, quantity int) (domain.Cart, error) {
	uid := strings.TrimSpace(userID)
	lid := strings.TrimSpace(lineID)
	if uid == "" || lid == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}
	if quantity < 0 {
		quantity = 0
	}

	cart, err := s.repo.Get(ctx, uid)
	if err != nil {
		return domain.Cart{}, s.translateError(err)
	}
	cart = s.normalise(cart, uid)

	idx := -1
	for i := range cart.Lines {
		if cart.Lines[i].ID == lid {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Cart{}, ErrCartNotFound
	}

	if quantity == 0 {
		cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
	} else {
		cart.Lines[idx].Quantity = quantity
		cart.Lines[idx].UpdatedAt = s.now()
	}

	return s.save(ctx, cart)
}

// RemoveItem deletes a line from the cart. Removing an absent line is a no-op.
func (s *cartService) RemoveItem(ctx context.Context, userID, lineID string) (domain.Cart, error) {
	uid := strings.TrimSpace(userID)
	lid := strings.TrimSpace(lineID)
	if uid == "" || lid == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}

	cart, err := s.repo.Get(ctx, uid)
	if err != nil {
		return domain.Cart{}, s.translateError(err)
	}
	cart = s.normalise(cart, uid)

	kept := cart.Lines[:0]
	removed := false
	for _, line := range cart.Lines {
		if line.ID == lid {
			removed = true
			continue
		}
		kept = append(kept, line)
	}
	cart.Lines = kept

	if !removed {
		return cart, nil
	}
	return s.save(ctx, cart)
}

// ClearCart drops every line.
func (s *cartService) ClearCart(ctx context.Context, userID string) error {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return ErrCartInvalidInput
	}
	if err := s.repo.Clear(ctx, uid); err != nil {
		return s.translateError(err)
	}
	return nil
}

func (s *cartService) save(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	cart.Total = CartTotal(cart.Lines)
	cart.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, cart); err != nil {
		return domain.Cart{}, s.translateError(err)
	}
	return cart, nil
}

// normalise applies defensive aggregation on load: duplicate product lines
// are merged by summing quantities and non-positive lines are dropped, so a
// corrupted document never renders duplicates.
func (s *cartService) normalise(cart domain.Cart, uid string) domain.Cart {
	cart.UserID = uid
	cart.Lines = AggregateLines(cart.Lines)
	cart.Total = CartTotal(cart.Lines)
	return cart
}

// AggregateLines merges lines sharing a product identifier, keeping the first
// line's identity and snapshot and summing quantities. Order of first
// occurrence is preserved.
func AggregateLines(lines []domain.CartLine) []domain.CartLine {
	if len(lines) == 0 {
		return lines
	}

	out := make([]domain.CartLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		if i, ok := index[line.ProductID]; ok {
			out[i].Quantity += line.Quantity
			if line.UpdatedAt.After(out[i].UpdatedAt) {
				out[i].UpdatedAt = line.UpdatedAt
			}
			continue
		}
		index[line.ProductID] = len(out)
		out = append(out, line)
	}
	return out
}

// CartTotal sums the line subtotals, rounded to two decimals.
func CartTotal(lines []domain.CartLine) float64 {
	var total float64
	for _, line := range lines {
		total += line.Subtotal()
	}
	return domain.Round2(total)
}

func (s *cartService) translateError(err error) error {
	return translateRepoError(err, ErrCartNotFound, ErrCartConflict, ErrCartUnavailable)
}
