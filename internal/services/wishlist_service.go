package services

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/caspian-bazaar/api/internal/domain"
	"github.com/caspian-bazaar/api/internal/locale"
	"github.com/caspian-bazaar/api/internal/repositories"
)

var (
	errWishlistRepositoryRequired = errors.New("wishlist service: repository is required")
	errWishlistProductsRequired   = errors.New("wishlist service: product finder is required")
	errWishlistLocalesRequired    = errors.New("wishlist service: locale resolver is required")
	errWishlistCartRequired       = errors.New("wishlist service: cart service is required")
)

// ErrWishlistInvalidInput indicates the caller supplied invalid input.
var ErrWishlistInvalidInput = errors.New("wishlist service: invalid input")

// ErrWishlistNotFound indicates the referenced product does not exist.
var ErrWishlistNotFound = errors.New("wishlist service: not found")

// ErrWishlistConflict indicates a conflicting concurrent update.
var ErrWishlistConflict = errors.New("wishlist service: conflict")

// ErrWishlistUnavailable indicates the backend cannot fulfil the request.
var ErrWishlistUnavailable = errors.New("wishlist service: unavailable")

// CartAdder is the slice of CartService the wishlist needs for promotion.
type CartAdder interface {
	AddItem(ctx context.Context, userID, productID string, quantity int, loc domain.Locale) (domain.Cart, error)
}

// WishlistServiceDeps wires the dependencies for wishlist operations.
type WishlistServiceDeps struct {
	Repository repositories.WishlistRepository
	Products   ProductFinder
	Locales    *locale.Resolver
	Cart       CartAdder
	Clock      func() time.Time
	Logger     func(context.Context, string, map[string]any)
}

type wishlistService struct {
	repo     repositories.WishlistRepository
	products ProductFinder
	locales  *locale.Resolver
	cart     CartAdder
	now      func() time.Time
	logger   func(context.Context, string, map[string]any)
}

// NewWishlistService constructs a WishlistService enforcing dependency validation.
func NewWishlistService(deps WishlistServiceDeps) (WishlistService, error) {
	if deps.Repository == nil {
		return nil, errWishlistRepositoryRequired
	}
	if deps.Products == nil {
		return nil, errWishlistProductsRequired
	}
	if deps.Locales == nil {
		return nil, errWishlistLocalesRequired
	}
	if deps.Cart == nil {
		return nil, errWishlistCartRequired
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &wishlistService{
		repo:     deps.Repository,
		products: deps.Products,
		locales:  deps.Locales,
		cart:     deps.Cart,
		now:      func() time.Time { return clock().UTC() },
		logger:   logger,
	}, nil
}

// List returns the user's wishlist entries.
func (s *wishlistService) List(ctx context.Context, userID string) ([]domain.WishlistEntry, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, ErrWishlistInvalidInput
	}

	entries, err := s.repo.List(ctx, uid)
	if err != nil {
		return nil, s.translateError(err)
	}
	return entries, nil
}

// Add puts the product on the wishlist. Adding a product that is already
// present is a no-op; the second return reports whether an entry was created.
func (s *wishlistService) Add(ctx context.Context, userID, productID string, loc domain.Locale) (domain.WishlistEntry, bool, error) {
	uid := strings.TrimSpace(userID)
	pid := strings.TrimSpace(productID)
	if uid == "" || pid == "" {
		return domain.WishlistEntry{}, false, ErrWishlistInvalidInput
	}

	product, err := s.products.FindByID(ctx, pid)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.WishlistEntry{}, false, ErrWishlistNotFound
		}
		return domain.WishlistEntry{}, false, s.translateError(err)
	}

	entry := domain.WishlistEntry{
		ProductID: pid,
		Name:      s.locales.ResolveName(product, loc),
		Price:     domain.Round2(product.Price),
		AddedAt:   s.now(),
	}
	created, err := s.repo.Put(ctx, uid, entry)
	if err != nil {
		return domain.WishlistEntry{}, false, s.translateError(err)
	}
	return entry, created, nil
}

// Remove deletes the entry. Removing an absent entry is a no-op.
func (s *wishlistService) Remove(ctx context.Context, userID, productID string) error {
	uid := strings.TrimSpace(userID)
	pid := strings.TrimSpace(productID)
	if uid == "" || pid == "" {
		return ErrWishlistInvalidInput
	}

	if _, err := s.repo.Delete(ctx, uid, pid); err != nil {
		return s.translateError(err)
	}
	return nil
}

// Contains reports wishlist membership.
func (s *wishlistService) Contains(ctx context.Context, userID, productID string) (bool, error) {
	uid := strings.TrimSpace(userID)
	pid := strings.TrimSpace(productID)
	if uid == "" || pid == "" {
		return false, ErrWishlistInvalidInput
	}

	present, err := s.repo.Contains(ctx, uid, pid)
	if err != nil {
		return false, s.translateError(err)
	}
	return present, nil
}

// Toggle flips membership and reports whether the product is now present.
func (s *wishlistService) Toggle(ctx context.Context, userID, productID string, loc domain.Locale) (bool, error) {
	uid := strings.TrimSpace(userID)
	pid := strings.TrimSpace(productID)
	if uid == "" || pid == "" {
		return false, ErrWishlistInvalidInput
	}

	present, err := s.repo.Contains(ctx, uid, pid)
	if err != nil {
		return false, s.translateError(err)
	}
	if present {
		if _, err := s.repo.Delete(ctx, uid, pid); err != nil {
			return false, s.translateError(err)
		}
		return false, nil
	}

	if _, _, err := s.Add(ctx, uid, pid, loc); err != nil {
		return false, err
	}
	return true, nil
}

// MoveToCart promotes the entry into the cart and removes it from the
// wishlist. The promotion wins on partial failure: a cart line without a
// wishlist removal beats the reverse.
func (s *wishlistService) MoveToCart(ctx context.Context, userID, productID string, loc domain.Locale) (domain.Cart, error) {
	uid := strings.TrimSpace(userID)
	pid := strings.TrimSpace(productID)
	if uid == "" || pid == "" {
		return domain.Cart{}, ErrWishlistInvalidInput
	}

	present, err := s.repo.Contains(ctx, uid, pid)
	if err != nil {
		return domain.Cart{}, s.translateError(err)
	}
	if !present {
		return domain.Cart{}, ErrWishlistNotFound
	}

	cart, err := s.cart.AddItem(ctx, uid, pid, 1, loc)
	if err != nil {
		switch {
		case errors.Is(err, ErrCartNotFound):
			return domain.Cart{}, ErrWishlistNotFound
		case errors.Is(err, ErrCartInvalidInput):
			return domain.Cart{}, ErrWishlistInvalidInput
		default:
			return domain.Cart{}, ErrWishlistUnavailable
		}
	}

	if _, err := s.repo.Delete(ctx, uid, pid); err != nil {
		s.logger(ctx, "wishlist entry removal after promotion failed", map[string]any{
			"user_id":    uid,
			"product_id": pid,
			"error":      err.Error(),
		})
	}
	return cart, nil
}

func (s *wishlistService) translateError(err error) error {
	return translateRepoError(err, ErrWishlistNotFound, ErrWishlistConflict, ErrWishlistUnavailable)
}
