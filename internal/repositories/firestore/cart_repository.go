package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/caspian-bazaar/api/internal/domain"
	pfirestore "github.com/caspian-bazaar/api/internal/platform/firestore"
	"github.com/caspian-bazaar/api/internal/repositories"
)

const cartCollection = "carts"

type cartLineDocument struct {
	LineID    string    `firestore:"line_id"`
	ProductID string    `firestore:"product_id"`
	Name      string    `firestore:"name"`
	UnitPrice float64   `firestore:"unit_price"`
	Quantity  int       `firestore:"quantity"`
	AddedAt   time.Time `firestore:"added_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

// cartDocument stores a user's cart as a single document keyed by UID.
type cartDocument struct {
	Lines     []cartLineDocument `firestore:"lines"`
	Total     float64            `firestore:"total"`
	UpdatedAt time.Time          `firestore:"updated_at"`
}

func encodeCart(cart domain.Cart) cartDocument {
	lines := make([]cartLineDocument, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		lines = append(lines, cartLineDocument{
			LineID:    line.ID,
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			AddedAt:   line.AddedAt,
			UpdatedAt: line.UpdatedAt,
		})
	}
	return cartDocument{
		Lines:     lines,
		Total:     cart.Total,
		UpdatedAt: cart.UpdatedAt,
	}
}

func decodeCart(userID string, doc cartDocument) domain.Cart {
	lines := make([]domain.CartLine, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		lines = append(lines, domain.CartLine{
			ID:        line.LineID,
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			AddedAt:   line.AddedAt,
			UpdatedAt: line.UpdatedAt,
		})
	}
	return domain.Cart{
		UserID:    userID,
		Lines:     lines,
		Total:     doc.Total,
		UpdatedAt: doc.UpdatedAt,
	}
}

// CartRepository persists per-user carts in Firestore.
type CartRepository struct {
	base *pfirestore.BaseRepository[cartDocument]
}

// NewCartRepository constructs a Firestore-backed cart repository.
func NewCartRepository(provider *pfirestore.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository requires firestore provider")
	}
	return &CartRepository{
		base: pfirestore.NewBaseRepository[cartDocument](provider, cartCollection, nil, nil),
	}, nil
}

// Get loads the user's cart. A missing document yields an empty cart rather
// than an error so first-time shoppers start from a clean slate.
func (r *CartRepository) Get(ctx context.Context, userID string) (domain.Cart, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Cart{}, errors.New("cart repository: user id is required")
	}

	doc, err := r.base.Get(ctx, userID)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return domain.Cart{UserID: userID}, nil
		}
		return domain.Cart{}, err
	}
	return decodeCart(userID, doc.Data), nil
}

// Save upserts the full cart document.
func (r *CartRepository) Save(ctx context.Context, cart domain.Cart) error {
	if strings.TrimSpace(cart.UserID) == "" {
		return errors.New("cart repository: user id is required")
	}
	_, err := r.base.Set(ctx, cart.UserID, encodeCart(cart))
	return err
}

// Clear removes the user's cart document. Clearing an absent cart is a no-op.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	doc, err := r.base.DocumentRef(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := doc.Delete(ctx); err != nil {
		wrapped := pfirestore.WrapError("carts.clear", err)
		var repoErr repositories.RepositoryError
		if errors.As(wrapped, &repoErr) && repoErr.IsNotFound() {
			return nil
		}
		return wrapped
	}
	return nil
}
