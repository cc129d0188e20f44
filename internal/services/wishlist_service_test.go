package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/caspian-bazaar/api/internal/domain"
)

type stubWishlistRepo struct {
	entries map[string]map[string]domain.WishlistEntry
	putErr  error
	listErr error
}

func newStubWishlistRepo() *stubWishlistRepo {
	return &stubWishlistRepo{entries: make(map[string]map[string]domain.WishlistEntry)}
}

func (r *stubWishlistRepo) List(_ context.Context, userID string) ([]domain.WishlistEntry, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.WishlistEntry
	for _, entry := range r.entries[userID] {
		out = append(out, entry)
	}
	return out, nil
}

func (r *stubWishlistRepo) Put(_ context.Context, userID string, entry domain.WishlistEntry) (bool, error) {
	if r.putErr != nil {
		return false, r.putErr
	}
	if r.entries[userID] == nil {
		r.entries[userID] = make(map[string]domain.WishlistEntry)
	}
	if _, ok := r.entries[userID][entry.ProductID]; ok {
		return false, nil
	}
	r.entries[userID][entry.ProductID] = entry
	return true, nil
}

func (r *stubWishlistRepo) Delete(_ context.Context, userID string, productID string) (bool, error) {
	if _, ok := r.entries[userID][productID]; !ok {
		return false, nil
	}
	delete(r.entries[userID], productID)
	return true, nil
}

func (r *stubWishlistRepo) Contains(_ context.Context, userID string, productID string) (bool, error) {
	_, ok := r.entries[userID][productID]
	return ok, nil
}

func newTestWishlistService(t *testing.T, repo *stubWishlistRepo, cartRepo *stubCartRepo) WishlistService {
	t.Helper()
	finder := catalogFixture()
	cartSvc := newTestCartService(t, cartRepo, finder)
	svc, err := NewWishlistService(WishlistServiceDeps{
		Repository: repo,
		Products:   finder,
		Locales:    testLocales(t),
		Cart:       cartSvc,
		Clock:      fixedClock(),
	})
	if err != nil {
		t.Fatalf("NewWishlistService: %v", err)
	}
	return svc
}

func TestWishlistAddIsSetLike(t *testing.T) {
	repo := newStubWishlistRepo()
	svc := newTestWishlistService(t, repo, newStubCartRepo())
	ctx := context.Background()

	entry, created, err := svc.Add(ctx, "u1", "p1", domain.LocalePersian)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !created {
		t.Fatalf("first add must create an entry")
	}
	if entry.Name != "Walnut Chair" {
		t.Fatalf("fa falls back to english name, got %q", entry.Name)
	}
	if entry.Price != 40 {
		t.Fatalf("entry must snapshot price, got %v", entry.Price)
	}

	_, created, err = svc.Add(ctx, "u1", "p1", domain.LocalePersian)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if created {
		t.Fatalf("adding a present product must be a no-op")
	}

	entries, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("wishlist must hold one entry per product, got %d", len(entries))
	}
}

func TestWishlistAddUnknownProduct(t *testing.T) {
	svc := newTestWishlistService(t, newStubWishlistRepo(), newStubCartRepo())

	if _, _, err := svc.Add(context.Background(), "u1", "missing", domain.LocaleEnglish); !errors.Is(err, ErrWishlistNotFound) {
		t.Fatalf("expected ErrWishlistNotFound, got %v", err)
	}
}

func TestWishlistRemoveIdempotent(t *testing.T) {
	repo := newStubWishlistRepo()
	svc := newTestWishlistService(t, repo, newStubCartRepo())
	ctx := context.Background()

	if _, _, err := svc.Add(ctx, "u1", "p1", domain.LocaleEnglish); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := svc.Remove(ctx, "u1", "p1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := svc.Remove(ctx, "u1", "p1"); err != nil {
		t.Fatalf("removing an absent entry must be a no-op, got %v", err)
	}

	present, err := svc.Contains(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if present {
		t.Fatalf("entry must be gone after remove")
	}
}

func TestWishlistToggle(t *testing.T) {
	svc := newTestWishlistService(t, newStubWishlistRepo(), newStubCartRepo())
	ctx := context.Background()

	present, err := svc.Toggle(ctx, "u1", "p2", domain.LocaleEnglish)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !present {
		t.Fatalf("first toggle must add")
	}

	present, err = svc.Toggle(ctx, "u1", "p2", domain.LocaleEnglish)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if present {
		t.Fatalf("second toggle must remove")
	}
}

func TestWishlistMoveToCart(t *testing.T) {
	repo := newStubWishlistRepo()
	cartRepo := newStubCartRepo()
	svc := newTestWishlistService(t, repo, cartRepo)
	ctx := context.Background()

	if _, _, err := svc.Add(ctx, "u1", "p1", domain.LocaleEnglish); err != nil {
		t.Fatalf("Add: %v", err)
	}

	cart, err := svc.MoveToCart(ctx, "u1", "p1", domain.LocaleEnglish)
	if err != nil {
		t.Fatalf("MoveToCart: %v", err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].ProductID != "p1" || cart.Lines[0].Quantity != 1 {
		t.Fatalf("unexpected cart after promotion: %+v", cart.Lines)
	}

	present, err := svc.Contains(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if present {
		t.Fatalf("promotion must remove the wishlist entry")
	}
}

func TestWishlistMoveToCartAbsentEntry(t *testing.T) {
	svc := newTestWishlistService(t, newStubWishlistRepo(), newStubCartRepo())

	if _, err := svc.MoveToCart(context.Background(), "u1", "p1", domain.LocaleEnglish); !errors.Is(err, ErrWishlistNotFound) {
		t.Fatalf("expected ErrWishlistNotFound, got %v", err)
	}
}
