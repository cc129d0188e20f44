package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	domain "github.com/caspian-bazaar/api/internal/domain"
	"github.com/caspian-bazaar/api/internal/locale"
)

type repoError struct {
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e repoError) Error() string       { return "repo error" }
func (e repoError) IsNotFound() bool    { return e.notFound }
func (e repoError) IsConflict() bool    { return e.conflict }
func (e repoError) IsUnavailable() bool { return e.unavailable }

type stubCartRepo struct {
	carts   map[string]domain.Cart
	getErr  error
	saveErr error
	saves   int
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{carts: make(map[string]domain.Cart)}
}

func (r *stubCartRepo) Get(_ context.Context, userID string) (domain.Cart, error) {
	if r.getErr != nil {
		return domain.Cart{}, r.getErr
	}
	if cart, ok := r.carts[userID]; ok {
		return cart, nil
	}
	return domain.Cart{UserID: userID}, nil
}

func (r *stubCartRepo) Save(_ context.Context, cart domain.Cart) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.carts[cart.UserID] = cart
	return nil
}

func (r *stubCartRepo) Clear(_ context.Context, userID string) error {
	delete(r.carts, userID)
	return nil
}

type stubProductFinder struct {
	products map[string]domain.Product
}

func (f *stubProductFinder) FindByID(_ context.Context, productID string) (domain.Product, error) {
	if p, ok := f.products[productID]; ok {
		return p, nil
	}
	return domain.Product{}, repoError{notFound: true}
}

func testLocales(t *testing.T) *locale.Resolver {
	t.Helper()
	r, err := locale.NewResolver(domain.DefaultLocale, domain.SupportedLocales)
	if err != nil {
		t.Fatalf("locale resolver: %v", err)
	}
	return r
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	}
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newTestCartService(t *testing.T, repo *stubCartRepo, finder *stubProductFinder) CartService {
	t.Helper()
	svc, err := NewCartService(CartServiceDeps{
		Repository:  repo,
		Products:    finder,
		Locales:     testLocales(t),
		Clock:       fixedClock(),
		IDGenerator: sequentialIDs("line"),
	})
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}
	return svc
}

func catalogFixture() *stubProductFinder {
	return &stubProductFinder{products: map[string]domain.Product{
		"p1": {ID: "p1", Name: domain.LocalizedText{EN: "Walnut Chair", DE: "Walnuss Stuhl"}, Price: 40},
		"p2": {ID: "p2", Name: domain.LocalizedText{EN: "Oak Table"}, Price: 19.999},
		"p3": {ID: "p3", Name: domain.LocalizedText{EN: "Silk Rug"}, Price: 120},
	}}
}

func TestAddItemCreatesLineWithSnapshot(t *testing.T) {
	repo := newStubCartRepo()
	svc := newTestCartService(t, repo, catalogFixture())

	cart, err := svc.AddItem(context.Background(), "u1", "p1", 0, domain.LocaleGerman)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if len(cart.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(cart.Lines))
	}
	line := cart.Lines[0]
	if line.Quantity != 1 {
		t.Fatalf("zero quantity must default to 1, got %d", line.Quantity)
	}
	if line.Name != "Walnuss Stuhl" {
		t.Fatalf("name snapshot must use the active locale, got %q", line.Name)
	}
	if line.UnitPrice != 40 {
		t.Fatalf("unit price must be captured at add time, got %v", line.UnitPrice)
	}
	if cart.Total != 40 {
		t.Fatalf("expected total 40, got %v", cart.Total)
	}
}

func TestAddItemMergesDuplicates(t *testing.T) {
	repo := newStubCartRepo()
	svc := newTestCartService(t, repo, catalogFixture())
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "u1", "p1", 2, domain.LocaleEnglish); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	cart, err := svc.AddItem(ctx, "u1", "p1", 3, domain.LocaleEnglish)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if len(cart.Lines) != 1 {
		t.Fatalf("duplicate adds must merge, got %d lines", len(cart.Lines))
	}
	if cart.Lines[0].Quantity != 5 {
		t.Fatalf("expected merged quantity 5, got %d", cart.Lines[0].Quantity)
	}
	if cart.Total != 200 {
		t.Fatalf("expected total 200, got %v", cart.Total)
	}
}

func TestAddItemUnknownProduct(t *testing.T) {
	repo := newStubCartRepo()
	svc := newTestCartService(t, repo, catalogFixture())

	if _, err := svc.AddItem(context.Background(), "u1", "missing", 1, domain.LocaleEnglish); !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	repo := newStubCartRepo()
	svc := newTestCartService(t, repo, catalogFixture())
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, "u1", "p1", 2, domain.LocaleEnglish)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	lineID := cart.Lines[0].ID

	cart, err = svc.UpdateQuantity(ctx, "u1", lineID, 0)
	if err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if len(cart.Lines) != 0 {
		t.Fatalf("zero quantity must remove the line, got %d lines", len(cart.Lines))
	}
	if cart.Total != 0 {
		t.Fatalf("expected total 0.00, got %v", cart.Total)
	}
}

func TestUpdateQuantityClampsNegative(t *testing.T) {
	repo := newStubCartRepo()
	svc := newTestCartService(t, repo, catalogFixture())
	ctx := context.Background()

	cart, _ := svc.AddItem(ctx, "u1", "p2", 1, domain.LocaleEnglish)
	cart, err := svc.UpdateQuantity(ctx, "u1", cart.Lines[0].ID, -4)
	if err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if len(cart.Lines) != 0 {
		t.Fatalf("negative quantity must clamp to removal, got %d lines", len(cart.Lines))
	}
}

func TestUpdateQuantityUnknownLine(t *testing.T) {
	repo := newStubCartRepo()
	svc := newTestCartService(t, repo, catalogFixture())

	if _, err := svc.UpdateQuantity(context.Background(), "u1", "nope", 2); !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
}

func TestRemoveItemIdempotent(t *testing.T) {
	repo := newStubCartRepo()
	svc := newTestCartService(t, repo, catalogFixture())
	ctx := context.Background()

	cart, _ := svc.AddItem(ctx, "u1", "p1", 1, domain.LocaleEnglish)
	lineID := cart.Lines[0].ID

	cart, err := svc.RemoveItem(ctx, "u1", lineID)
	if err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if len(cart.Lines) != 0 {
		t.Fatalf("line was not removed")
	}

	savesBefore := repo.saves
	cart, err = svc.RemoveItem(ctx, "u1", lineID)
	if err != nil {
		t.Fatalf("second RemoveItem must be a no-op, got %v", err)
	}
	if repo.saves != savesBefore {
		t.Fatalf("removing an absent line must not write")
	}
	_ = cart
}

func TestCartTotalRounding(t *testing.T) {
	repo := newStubCartRepo()
	svc := newTestCartService(t, repo, catalogFixture())
	ctx := context.Background()

	// p2 price 19.999 rounds to 20.00 when captured on the line.
	cart, err := svc.AddItem(ctx, "u1", "p2", 3, domain.LocaleEnglish)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if cart.Lines[0].UnitPrice != 20.00 {
		t.Fatalf("expected captured unit price 20.00, got %v", cart.Lines[0].UnitPrice)
	}
	if cart.Total != 60.00 {
		t.Fatalf("expected total 60.00, got %v", cart.Total)
	}
}

func TestGetCartAggregatesCorruptLines(t *testing.T) {
	repo := newStubCartRepo()
	now := fixedClock()()
	repo.carts["u1"] = domain.Cart{
		UserID: "u1",
		Lines: []domain.CartLine{
			{ID: "a", ProductID: "p1", Name: "Walnut Chair", UnitPrice: 40, Quantity: 1, AddedAt: now},
			{ID: "b", ProductID: "p1", Name: "Walnut Chair", UnitPrice: 40, Quantity: 2, AddedAt: now},
			{ID: "c", ProductID: "p3", Name: "Silk Rug", UnitPrice: 120, Quantity: 0, AddedAt: now},
		},
	}
	svc := newTestCartService(t, repo, catalogFixture())

	cart, err := svc.GetCart(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("expected duplicates merged and empty lines dropped, got %d lines", len(cart.Lines))
	}
	if cart.Lines[0].ID != "a" || cart.Lines[0].Quantity != 3 {
		t.Fatalf("unexpected aggregated line: %+v", cart.Lines[0])
	}
	if cart.Total != 120 {
		t.Fatalf("expected total 120, got %v", cart.Total)
	}
}

func TestCartRepoUnavailable(t *testing.T) {
	repo := newStubCartRepo()
	repo.getErr = repoError{unavailable: true}
	svc := newTestCartService(t, repo, catalogFixture())

	if _, err := svc.GetCart(context.Background(), "u1"); !errors.Is(err, ErrCartUnavailable) {
		t.Fatalf("expected ErrCartUnavailable, got %v", err)
	}
}

func TestCartInvalidInput(t *testing.T) {
	repo := newStubCartRepo()
	svc := newTestCartService(t, repo, catalogFixture())

	if _, err := svc.GetCart(context.Background(), "  "); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("expected ErrCartInvalidInput, got %v", err)
	}
	if _, err := svc.AddItem(context.Background(), "u1", "", 1, domain.LocaleEnglish); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("expected ErrCartInvalidInput, got %v", err)
	}
}
