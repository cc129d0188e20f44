package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/caspian-bazaar/api/internal/domain"
	"github.com/caspian-bazaar/api/internal/repositories"
)

var (
	errOrderRepositoryRequired = errors.New("order service: repository is required")
	errOrderCartRequired       = errors.New("order service: cart repository is required")
)

// ErrOrderInvalidInput indicates the caller supplied invalid input.
var ErrOrderInvalidInput = errors.New("order service: invalid input")

// ErrOrderNotFound indicates the requested order does not exist.
var ErrOrderNotFound = errors.New("order service: not found")

// ErrOrderConflict indicates an illegal status transition or concurrent update.
var ErrOrderConflict = errors.New("order service: conflict")

// ErrOrderUnavailable indicates the backend cannot fulfil the request.
var ErrOrderUnavailable = errors.New("order service: unavailable")

// ErrOrderEmptyCart indicates a checkout was attempted on an empty cart.
var ErrOrderEmptyCart = errors.New("order service: cart is empty")

// SalesRecorder bumps denormalised sales counters after checkout.
type SalesRecorder interface {
	IncrementSales(ctx context.Context, productID string, delta int) error
}

// OrderServiceDeps wires the dependencies for order operations.
type OrderServiceDeps struct {
	Repository  repositories.OrderRepository
	Carts       repositories.CartRepository
	Sales       SalesRecorder
	Events      OrderEventPublisher
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

type orderService struct {
	repo   repositories.OrderRepository
	carts  repositories.CartRepository
	sales  SalesRecorder
	events OrderEventPublisher
	now    func() time.Time
	newID  func() string
	logger func(context.Context, string, map[string]any)
}

// NewOrderService constructs an OrderService enforcing dependency validation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Repository == nil {
		return nil, errOrderRepositoryRequired
	}
	if deps.Carts == nil {
		return nil, errOrderCartRequired
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

	return &orderService{
		repo:   deps.Repository,
		carts:  deps.Carts,
		sales:  deps.Sales,
		events: deps.Events,
		now:    func() time.Time { return clock().UTC() },
		newID:  idGen,
		logger: logger,
	}, nil
}

// Checkout turns the user's cart into a pending order, clears the cart, and
// publishes an order.created event.
func (s *orderService) Checkout(ctx context.Context, userID string, shipping domain.ShippingDetails) (domain.Order, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.Order{}, ErrOrderInvalidInput
	}

	shipping.FullName = strings.TrimSpace(shipping.FullName)
	shipping.Address = strings.TrimSpace(shipping.Address)
	shipping.Phone = strings.TrimSpace(shipping.Phone)
	shipping.Email = strings.TrimSpace(shipping.Email)
	shipping.City = strings.TrimSpace(shipping.City)
	shipping.Notes = strings.TrimSpace(shipping.Notes)
	if shipping.FullName == "" || shipping.Address == "" {
		return domain.Order{}, ErrOrderInvalidInput
	}

	cart, err := s.carts.Get(ctx, uid)
	if err != nil {
		return domain.Order{}, s.translateError(err)
	}
	lines := AggregateLines(cart.Lines)
	if len(lines) == 0 {
		return domain.Order{}, ErrOrderEmptyCart
	}

	now := s.now()
	order := domain.Order{
		ID:        s.newID(),
		UserID:    uid,
		Lines:     make([]domain.OrderLine, 0, len(lines)),
		Status:    domain.OrderStatusPending,
		Shipping:  shipping,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, line := range lines {
		order.Lines = append(order.Lines, domain.OrderLine{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}
	order.Total = CartTotal(lines)

	if err := s.repo.Insert(ctx, order); err != nil {
		return domain.Order{}, s.translateError(err)
	}

	if err := s.carts.Clear(ctx, uid); err != nil {
		// The order is already placed; a stale cart is recoverable.
		s.logger(ctx, "cart clear after checkout failed", map[string]any{
			"order_id": order.ID,
			"user_id":  uid,
			"error":    err.Error(),
		})
	}

	if s.sales != nil {
		for _, line := range order.Lines {
			if err := s.sales.IncrementSales(ctx, line.ProductID, line.Quantity); err != nil {
				s.logger(ctx, "sales counter increment failed", map[string]any{
					"order_id":   order.ID,
					"product_id": line.ProductID,
					"error":      err.Error(),
				})
			}
		}
	}

	s.publish(ctx, order, "order.created")
	return order, nil
}

// ListOrders returns the user's own orders, most recent first.
func (s *orderService) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, ErrOrderInvalidInput
	}

	orders, err := s.repo.ListByUser(ctx, uid)
	if err != nil {
		return nil, s.translateError(err)
	}
	return orders, nil
}

// GetOrder fetches a single order, enforcing ownership.
func (s *orderService) GetOrder(ctx context.Context, userID, orderID string) (domain.Order, error) {
	uid := strings.TrimSpace(userID)
	oid := strings.TrimSpace(orderID)
	if uid == "" || oid == "" {
		return domain.Order{}, ErrOrderInvalidInput
	}

	order, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return domain.Order{}, s.translateError(err)
	}
	if order.UserID != uid {
		// Ownership failures read as absence to avoid leaking order IDs.
		return domain.Order{}, ErrOrderNotFound
	}
	return order, nil
}

// ListAllOrders returns orders for the back office.
func (s *orderService) ListAllOrders(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, ErrOrderInvalidInput
	}

	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, s.translateError(err)
	}
	return orders, nil
}

// UpdateStatus transitions the order and publishes an order.status_changed event.
func (s *orderService) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error) {
	oid := strings.TrimSpace(orderID)
	if oid == "" || !status.Valid() {
		return domain.Order{}, ErrOrderInvalidInput
	}

	order, err := s.repo.UpdateStatus(ctx, oid, status)
	if err != nil {
		return domain.Order{}, s.translateError(err)
	}

	s.publish(ctx, order, "order.status_changed")
	return order, nil
}

func (s *orderService) publish(ctx context.Context, order domain.Order, event string) {
	if s.events == nil {
		return
	}
	if _, err := s.events.PublishOrderEvent(ctx, OrderEventMessage{
		OrderID:    order.ID,
		UserID:     order.UserID,
		Event:      event,
		Status:     string(order.Status),
		Total:      order.Total,
		OccurredAt: s.now(),
	}); err != nil {
		s.logger(ctx, "order event publish failed", map[string]any{
			"order_id": order.ID,
			"event":    event,
			"error":    err.Error(),
		})
	}
}

func (s *orderService) translateError(err error) error {
	return translateRepoError(err, ErrOrderNotFound, ErrOrderConflict, ErrOrderUnavailable)
}
