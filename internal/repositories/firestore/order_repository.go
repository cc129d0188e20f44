package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/caspian-bazaar/api/internal/domain"
	pfirestore "github.com/caspian-bazaar/api/internal/platform/firestore"
	"github.com/caspian-bazaar/api/internal/repositories"
)

const orderCollection = "orders"

type orderLineDocument struct {
	ProductID string  `firestore:"product_id"`
	Name      string  `firestore:"name"`
	UnitPrice float64 `firestore:"unit_price"`
	Quantity  int     `firestore:"quantity"`
}

type orderShippingDocument struct {
	FullName string `firestore:"full_name"`
	Phone    string `firestore:"phone,omitempty"`
	Email    string `firestore:"email,omitempty"`
	Address  string `firestore:"address"`
	City     string `firestore:"city,omitempty"`
	Notes    string `firestore:"notes,omitempty"`
}

type orderDocument struct {
	UserID    string                `firestore:"user_id"`
	Lines     []orderLineDocument   `firestore:"lines"`
	Total     float64               `firestore:"total"`
	Status    string                `firestore:"status"`
	Shipping  orderShippingDocument `firestore:"shipping"`
	CreatedAt time.Time             `firestore:"created_at"`
	UpdatedAt time.Time             `firestore:"updated_at"`
}

func encodeOrder(order domain.Order) orderDocument {
	lines := make([]orderLineDocument, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, orderLineDocument{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}
	return orderDocument{
		UserID: order.UserID,
		Lines:  lines,
		Total:  order.Total,
		Status: string(order.Status),
		Shipping: orderShippingDocument{
			FullName: order.Shipping.FullName,
			Phone:    order.Shipping.Phone,
			Email:    order.Shipping.Email,
			Address:  order.Shipping.Address,
			City:     order.Shipping.City,
			Notes:    order.Shipping.Notes,
		},
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
}

func decodeOrder(id string, doc orderDocument) domain.Order {
	lines := make([]domain.OrderLine, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		lines = append(lines, domain.OrderLine{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}
	return domain.Order{
		ID:     id,
		UserID: doc.UserID,
		Lines:  lines,
		Total:  doc.Total,
		Status: domain.OrderStatus(doc.Status),
		Shipping: domain.ShippingDetails{
			FullName: doc.Shipping.FullName,
			Phone:    doc.Shipping.Phone,
			Email:    doc.Shipping.Email,
			Address:  doc.Shipping.Address,
			City:     doc.Shipping.City,
			Notes:    doc.Shipping.Notes,
		},
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

// OrderRepository persists orders in Firestore.
type OrderRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{
		provider: provider,
		base:     pfirestore.NewBaseRepository[orderDocument](provider, orderCollection, nil, nil),
	}, nil
}

// Insert stores a new order document under its ID.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	_, err := r.base.Set(ctx, order.ID, encodeOrder(order))
	return err
}

// FindByID fetches an order by its document ID.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	doc, err := r.base.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return decodeOrder(doc.ID, doc.Data), nil
}

// ListByUser returns the user's orders, most recent first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("order repository: user id is required")
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.Where("user_id", "==", userID).OrderBy("created_at", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}
	return decodeOrders(docs), nil
}

// List returns orders for the back office, optionally narrowed by status.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		if filter.Status != "" {
			query = query.Where("status", "==", string(filter.Status))
		}
		return query.OrderBy("created_at", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}
	return decodeOrders(docs), nil
}

// UpdateStatus transitions the order status transactionally, enforcing the
// forward-only fulfilment flow, and returns the updated order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, next domain.OrderStatus) (domain.Order, error) {
	docRef, err := r.base.DocumentRef(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	var updated domain.Order
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			return err
		}
		var doc orderDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("orders.update_status: decode %s: %w", snap.Ref.ID, err)
		}

		current := domain.OrderStatus(doc.Status)
		if !current.CanTransitionTo(next) {
			return status.Errorf(codes.FailedPrecondition,
				"order status %s cannot transition to %s", current, next)
		}

		now := time.Now().UTC()
		if err := tx.Update(docRef, []firestore.Update{
			{Path: "status", Value: string(next)},
			{Path: "updated_at", Value: now},
		}); err != nil {
			return err
		}

		doc.Status = string(next)
		doc.UpdatedAt = now
		updated = decodeOrder(snap.Ref.ID, doc)
		return nil
	})
	if err != nil {
		return domain.Order{}, pfirestore.WrapError("orders.update_status", err)
	}
	return updated, nil
}

func decodeOrders(docs []pfirestore.Document[orderDocument]) []domain.Order {
	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, decodeOrder(doc.ID, doc.Data))
	}
	return orders
}
