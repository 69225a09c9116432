package port

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/shopflow/internal/domain"
)

// OrderMutation changes an order whose row is locked for the duration of the call.
// Carts is bound to the same transaction, so cart edits commit or roll back with the order.
// The returned change's To becomes the new status and is appended to the history; a zero change leaves
// the order untouched. Returning an error aborts the transaction.
type OrderMutation func(ctx context.Context, order *domain.Order, carts CartRepository) (domain.StatusChange, error)

type OrderRepository interface {
	// PlaceOrder reads the cart with current product prices and persists the order built from it
	// in a single transaction.
	PlaceOrder(ctx context.Context, cartID uuid.UUID, build func(cart domain.Cart) (domain.Order, error)) (domain.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (domain.Order, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, mutate OrderMutation) (domain.Order, error)
	UpdateOrderByGatewayRef(ctx context.Context, gatewayOrderRef string, mutate OrderMutation) (domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	GetStats(ctx context.Context, monthStart, now time.Time) (domain.OrderStats, error)
	ListStatusChanges(ctx context.Context, orderID uuid.UUID) ([]domain.StatusChange, error)
}

// StatusChangeOutbox exposes status changes not yet published to downstream consumers.
type StatusChangeOutbox interface {
	ListUnpublished(ctx context.Context, limit int) ([]domain.StatusChange, error)
	MarkPublished(ctx context.Context, ids []int64) error
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
}
