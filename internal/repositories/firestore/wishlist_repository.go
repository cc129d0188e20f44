package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/caspian-bazaar/api/internal/domain"
	pfirestore "github.com/caspian-bazaar/api/internal/platform/firestore"
)

const wishlistCollectionPattern = "users/%s/wishlist"

type wishlistDocument struct {
	Name    string    `firestore:"name"`
	Price   float64   `firestore:"price"`
	AddedAt time.Time `firestore:"added_at"`
}

// WishlistRepository persists wishlist entries per user. Documents are keyed
// by product ID, which makes the wishlist a set at the storage level.
type WishlistRepository struct {
	provider *pfirestore.Provider
}

// NewWishlistRepository constructs a Firestore-backed wishlist repository.
func NewWishlistRepository(provider *pfirestore.Provider) (*WishlistRepository, error) {
	if provider == nil {
		return nil, errors.New("wishlist repository requires firestore provider")
	}
	return &WishlistRepository{provider: provider}, nil
}

// List returns wishlist entries ordered by most recent addition.
func (r *WishlistRepository) List(ctx context.Context, userID string) ([]domain.WishlistEntry, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return nil, err
	}

	iter := coll.OrderBy("added_at", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var entries []domain.WishlistEntry
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError("wishlist.list", err)
		}
		var doc wishlistDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("wishlist.list: decode %s: %w", snap.Ref.ID, err)
		}
		entries = append(entries, domain.WishlistEntry{
			ProductID: snap.Ref.ID,
			Name:      doc.Name,
			Price:     doc.Price,
			AddedAt:   doc.AddedAt,
		})
	}
	return entries, nil
}

// Put stores the entry unless one already exists. The transactional check
// keeps concurrent double-clicks from resetting the addition timestamp.
func (r *WishlistRepository) Put(ctx context.Context, userID string, entry domain.WishlistEntry) (bool, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return false, err
	}

	productID := strings.TrimSpace(entry.ProductID)
	if productID == "" {
		return false, errors.New("wishlist repository: product id is required")
	}

	created := false
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docRef := coll.Doc(productID)
		if _, err := tx.Get(docRef); err == nil {
			return nil
		} else if status.Code(err) != codes.NotFound {
			return err
		}

		created = true
		return tx.Set(docRef, wishlistDocument{
			Name:    entry.Name,
			Price:   entry.Price,
			AddedAt: entry.AddedAt,
		})
	})
	if err != nil {
		return false, pfirestore.WrapError("wishlist.put", err)
	}
	return created, nil
}

// Delete removes the entry, reporting whether it existed.
func (r *WishlistRepository) Delete(ctx context.Context, userID string, productID string) (bool, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return false, err
	}

	productID = strings.TrimSpace(productID)
	if productID == "" {
		return false, errors.New("wishlist repository: product id is required")
	}

	existed := false
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docRef := coll.Doc(productID)
		if _, err := tx.Get(docRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return nil
			}
			return err
		}
		existed = true
		return tx.Delete(docRef)
	})
	if err != nil {
		return false, pfirestore.WrapError("wishlist.delete", err)
	}
	return existed, nil
}

// Contains reports whether the product is on the user's wishlist.
func (r *WishlistRepository) Contains(ctx context.Context, userID string, productID string) (bool, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return false, err
	}

	productID = strings.TrimSpace(productID)
	if productID == "" {
		return false, errors.New("wishlist repository: product id is required")
	}

	_, err = coll.Doc(productID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, pfirestore.WrapError("wishlist.contains", err)
	}
	return true, nil
}

func (r *WishlistRepository) collection(ctx context.Context, userID string) (*firestore.CollectionRef, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("wishlist repository: user id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(fmt.Sprintf(wishlistCollectionPattern, userID)), nil
}
