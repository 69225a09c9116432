package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/shopflow/internal/domain"
	"github.com/nikolayk812/shopflow/internal/port"
	"go.uber.org/zap"
)

const (
	defaultRecentOrders = 10
	maxRecentOrders     = 100
)

type OrderService struct {
	orders port.OrderRepository
	policy domain.AdminPolicy
	logger *zap.Logger
	now    func() time.Time
}

func NewOrderService(orders port.OrderRepository, policy domain.AdminPolicy, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OrderService{
		orders: orders,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// PlaceOrder snapshots the selected cart lines, or all of them when lineIDs is empty, into a PENDING order.
// The cart keeps its lines until the order is paid.
func (s *OrderService) PlaceOrder(ctx context.Context, requesterID string, cartID uuid.UUID, lineIDs []uuid.UUID) (domain.Order, error) {
	order, err := s.orders.PlaceOrder(ctx, cartID, func(cart domain.Cart) (domain.Order, error) {
		if requesterID == "" || cart.OwnerID != requesterID {
			return domain.Order{}, fmt.Errorf("cart %s: %w", cartID, domain.ErrAccessDenied)
		}
		if cart.IsEmpty() {
			return domain.Order{}, fmt.Errorf("cart %s is empty: %w", cartID, domain.ErrInvalidState)
		}

		return domain.NewOrder(uuid.New(), cart.OwnerID, cart.Select(lineIDs), s.now())
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("orders.PlaceOrder: %w", err)
	}

	s.logger.Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", order.OwnerID),
		zap.Stringer("total", order.Total),
		zap.Int("lines", len(order.Items)))

	return order, nil
}

func (s *OrderService) CancelOrder(ctx context.Context, orderID uuid.UUID, requesterID string) (domain.Order, error) {
	order, err := s.orders.UpdateOrder(ctx, orderID, func(_ context.Context, o *domain.Order, _ port.CartRepository) (domain.StatusChange, error) {
		if !o.OwnedBy(requesterID) {
			return domain.StatusChange{}, fmt.Errorf("order %s: %w", o.ID, domain.ErrAccessDenied)
		}
		if o.Status != domain.OrderStatusPending {
			return domain.StatusChange{}, fmt.Errorf("cancel order in status %s: %w", o.Status, domain.ErrInvalidState)
		}

		return domain.StatusChange{
			To:        domain.OrderStatusCancelled,
			Actor:     domain.UserActor(requesterID),
			Reason:    "cancelled by owner",
			CreatedAt: s.now(),
		}, nil
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("orders.UpdateOrder: %w", err)
	}

	return order, nil
}

// UpdateStatus applies an administrator override. Entering PAID strips the ordered products from
// the owner's cart in the same transaction.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, rawStatus, adminID string) (domain.Order, error) {
	status, err := domain.ParseAdminStatus(rawStatus)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := s.orders.UpdateOrder(ctx, orderID, func(ctx context.Context, o *domain.Order, carts port.CartRepository) (domain.StatusChange, error) {
		if o.Status == status {
			return domain.StatusChange{}, nil
		}
		if err := s.policy.Check(o.Status, status); err != nil {
			return domain.StatusChange{}, err
		}

		if status == domain.OrderStatusPaid {
			if _, err := carts.DeleteItemsByOwner(ctx, o.OwnerID, o.ProductIDs()); err != nil {
				return domain.StatusChange{}, fmt.Errorf("carts.DeleteItemsByOwner: %w", err)
			}
		}

		return domain.StatusChange{
			To:        status,
			Actor:     domain.AdminActor(adminID),
			CreatedAt: s.now(),
		}, nil
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("orders.UpdateOrder: %w", err)
	}

	s.logger.Info("order status overridden",
		zap.String("order_id", orderID.String()),
		zap.String("status", order.Status.String()),
		zap.String("admin_id", adminID))

	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID, requesterID string) (domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("orders.GetOrder: %w", err)
	}

	if !order.OwnedBy(requesterID) {
		return domain.Order{}, fmt.Errorf("order %s: %w", orderID, domain.ErrAccessDenied)
	}

	return order, nil
}

func (s *OrderService) GetOrderForAdmin(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("orders.GetOrder: %w", err)
	}

	return order, nil
}

// ListUserOrders lists userID's orders, newest first, optionally narrowed to one status.
func (s *OrderService) ListUserOrders(ctx context.Context, requesterID, userID, rawStatus string) ([]domain.Order, error) {
	if requesterID == "" || requesterID != userID {
		return nil, fmt.Errorf("orders of user %s: %w", userID, domain.ErrAccessDenied)
	}

	filter := domain.OrderFilter{OwnerID: userID}
	if rawStatus != "" {
		status, err := domain.ParseStatus(rawStatus)
		if err != nil {
			return nil, err
		}
		filter.Status = status
	}

	return s.ListOrders(ctx, filter)
}

func (s *OrderService) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, fmt.Errorf("range end before start: %w", domain.ErrInvalidValue)
	}

	orders, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("orders.ListOrders: %w", err)
	}

	return orders, nil
}

func (s *OrderService) RecentOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	switch {
	case limit <= 0:
		limit = defaultRecentOrders
	case limit > maxRecentOrders:
		limit = maxRecentOrders
	}

	return s.ListOrders(ctx, domain.OrderFilter{Limit: limit})
}

// Stats aggregates order counts and revenue; the monthly figure covers the current calendar month
// in the server's local time zone.
func (s *OrderService) Stats(ctx context.Context) (domain.OrderStats, error) {
	now := s.now()

	stats, err := s.orders.GetStats(ctx, domain.MonthStart(now), now)
	if err != nil {
		return domain.OrderStats{}, fmt.Errorf("orders.GetStats: %w", err)
	}

	return stats, nil
}

func (s *OrderService) History(ctx context.Context, orderID uuid.UUID, requesterID string) ([]domain.StatusChange, error) {
	if _, err := s.GetOrder(ctx, orderID, requesterID); err != nil {
		return nil, err
	}

	return s.history(ctx, orderID)
}

func (s *OrderService) HistoryForAdmin(ctx context.Context, orderID uuid.UUID) ([]domain.StatusChange, error) {
	if _, err := s.GetOrderForAdmin(ctx, orderID); err != nil {
		return nil, err
	}

	return s.history(ctx, orderID)
}

func (s *OrderService) history(ctx context.Context, orderID uuid.UUID) ([]domain.StatusChange, error) {
	changes, err := s.orders.ListStatusChanges(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("orders.ListStatusChanges: %w", err)
	}

	return changes, nil
}
