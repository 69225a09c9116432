package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending       OrderStatus = "PENDING"
	OrderStatusCreated       OrderStatus = "CREATED"
	OrderStatusPaid          OrderStatus = "PAID"
	OrderStatusPaymentFailed OrderStatus = "PAYMENT_FAILED"
	OrderStatusProcessing    OrderStatus = "PROCESSING"
	OrderStatusShipped       OrderStatus = "SHIPPED"
	OrderStatusDelivered     OrderStatus = "DELIVERED"
	OrderStatusCancelled     OrderStatus = "CANCELLED"
)

// adminVocabulary is the set of statuses an administrator may assign directly.
var adminVocabulary = map[OrderStatus]struct{}{
	OrderStatusPending:    {},
	OrderStatusPaid:       {},
	OrderStatusProcessing: {},
	OrderStatusShipped:    {},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

var lifecycle = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusCreated, OrderStatusPaid, OrderStatusPaymentFailed, OrderStatusCancelled},
	OrderStatusCreated:    {OrderStatusPaid, OrderStatusPaymentFailed},
	OrderStatusPaid:       {OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// RevenueStatuses lists the statuses whose totals count as realised revenue.
var RevenueStatuses = []OrderStatus{OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered}

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func (s OrderStatus) IsKnown() bool {
	if _, ok := lifecycle[s]; ok {
		return true
	}
	return s == OrderStatusPaymentFailed || s.IsTerminal()
}

// AwaitsPayment reports whether a gateway callback may still settle the order.
func (s OrderStatus) AwaitsPayment() bool {
	return s == OrderStatusPending || s == OrderStatusCreated
}

// ParseAdminStatus accepts a case-insensitive status from the administrator vocabulary.
func ParseAdminStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := adminVocabulary[status]; !ok {
		return "", fmt.Errorf("status %q: %w", raw, ErrInvalidValue)
	}
	return status, nil
}

// ParseStatus accepts any known status, case-insensitive.
func ParseStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.IsKnown() {
		return "", fmt.Errorf("status %q: %w", raw, ErrInvalidValue)
	}
	return status, nil
}

// CanTransition reports whether the lifecycle permits moving from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range lifecycle[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AdminPolicy governs status overrides issued by administrators.
type AdminPolicy struct {
	// Strict restricts overrides to lifecycle edges instead of the whole vocabulary.
	Strict bool
}

func (p AdminPolicy) Check(from, to OrderStatus) error {
	if _, ok := adminVocabulary[to]; !ok {
		return fmt.Errorf("status %s: %w", to, ErrInvalidValue)
	}
	if from.IsTerminal() {
		return fmt.Errorf("order is %s: %w", from, ErrInvalidState)
	}
	if p.Strict && !CanTransition(from, to) {
		return fmt.Errorf("transition %s -> %s: %w", from, to, ErrInvalidState)
	}
	return nil
}

type Order struct {
	ID                uuid.UUID
	OwnerID           string
	Status            OrderStatus
	Total             Money
	Items             []OrderItem
	GatewayOrderRef   *string
	GatewayPaymentRef *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice Money
}

func (o Order) OwnedBy(userID string) bool {
	return userID != "" && o.OwnerID == userID
}

func (o Order) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(o.Items))
	for _, item := range o.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// NewOrder snapshots cart lines into a PENDING order, freezing unit prices and the total.
func NewOrder(id uuid.UUID, ownerID string, lines []CartItem, now time.Time) (Order, error) {
	if len(lines) == 0 {
		return Order{}, fmt.Errorf("no lines selected: %w", ErrInvalidState)
	}

	items := make([]OrderItem, 0, len(lines))
	total := Money{Currency: lines[0].Price.Currency}

	for _, line := range lines {
		if line.Quantity < 1 {
			return Order{}, fmt.Errorf("product[%s] quantity %d: %w", line.ProductID, line.Quantity, ErrInvalidValue)
		}

		var err error
		total, err = total.Add(line.Price.Mul(line.Quantity))
		if err != nil {
			return Order{}, fmt.Errorf("total.Add: %w", err)
		}

		items = append(items, OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.Price,
		})
	}

	return Order{
		ID:        id,
		OwnerID:   ownerID,
		Status:    OrderStatusPending,
		Total:     total,
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// StatusChange is one entry of an order's append-only transition log.
type StatusChange struct {
	ID      int64
	OrderID uuid.UUID
	// From is empty for the entry recording order creation.
	From   OrderStatus
	To     OrderStatus
	Actor  string
	Reason string

	CreatedAt time.Time
}

const ActorGateway = "gateway"

func UserActor(userID string) string {
	return "user:" + userID
}

func AdminActor(userID string) string {
	return "admin:" + userID
}

type OrderFilter struct {
	OwnerID string
	Status  OrderStatus
	From    *time.Time
	To      *time.Time
	Limit   int
}
