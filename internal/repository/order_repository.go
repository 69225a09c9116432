package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/shopflow/internal/db"
	"github.com/nikolayk812/shopflow/internal/domain"
	"github.com/nikolayk812/shopflow/internal/port"
)

type orderRepository struct {
	q    *db.Queries
	pool *pgxpool.Pool
}

func NewOrder(pool *pgxpool.Pool) (port.OrderRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}

	return &orderRepository{
		q:    db.New(pool),
		pool: pool,
	}, nil
}

func (r *orderRepository) PlaceOrder(ctx context.Context, cartID uuid.UUID, build func(cart domain.Cart) (domain.Order, error)) (domain.Order, error) {
	if cartID == uuid.Nil {
		return domain.Order{}, fmt.Errorf("cartID is empty")
	}

	return withTx(ctx, r.pool, r.q, func(q *db.Queries) (domain.Order, error) {
		dbCart, err := q.GetCart(ctx, cartID)
		if err != nil {
			return domain.Order{}, fmt.Errorf("q.GetCart: %w", notFound(err))
		}

		cart, err := loadCart(ctx, q, dbCart)
		if err != nil {
			return domain.Order{}, fmt.Errorf("loadCart: %w", err)
		}

		order, err := build(cart)
		if err != nil {
			return domain.Order{}, fmt.Errorf("build: %w", err)
		}

		if err := insertOrder(ctx, q, order); err != nil {
			return domain.Order{}, fmt.Errorf("insertOrder: %w", err)
		}

		_, err = appendStatusChange(ctx, q, domain.StatusChange{
			OrderID:   order.ID,
			To:        order.Status,
			Actor:     domain.UserActor(order.OwnerID),
			CreatedAt: order.CreatedAt,
		})
		if err != nil {
			return domain.Order{}, fmt.Errorf("appendStatusChange: %w", err)
		}

		return order, nil
	})
}

func (r *orderRepository) GetOrder(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	row, err := r.q.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("q.GetOrder: %w", notFound(err))
	}

	orders, err := loadOrders(ctx, r.q, []db.Order{row})
	if err != nil {
		return domain.Order{}, fmt.Errorf("loadOrders: %w", err)
	}

	return orders[0], nil
}

func (r *orderRepository) UpdateOrder(ctx context.Context, id uuid.UUID, mutate port.OrderMutation) (domain.Order, error) {
	if id == uuid.Nil {
		return domain.Order{}, fmt.Errorf("orderID is empty")
	}

	return r.updateLocked(ctx, mutate, func(q *db.Queries) (db.Order, error) {
		row, err := q.GetOrderForUpdate(ctx, id)
		if err != nil {
			return db.Order{}, fmt.Errorf("q.GetOrderForUpdate: %w", notFound(err))
		}
		return row, nil
	})
}

func (r *orderRepository) UpdateOrderByGatewayRef(ctx context.Context, gatewayOrderRef string, mutate port.OrderMutation) (domain.Order, error) {
	if gatewayOrderRef == "" {
		return domain.Order{}, fmt.Errorf("gatewayOrderRef is empty")
	}

	return r.updateLocked(ctx, mutate, func(q *db.Queries) (db.Order, error) {
		row, err := q.GetOrderByGatewayRefForUpdate(ctx, &gatewayOrderRef)
		if err != nil {
			return db.Order{}, fmt.Errorf("q.GetOrderByGatewayRefForUpdate: %w", notFound(err))
		}
		return row, nil
	})
}

// updateLocked holds the order row lock from lock until commit, so concurrent mutations of one order
// observe each other's results.
func (r *orderRepository) updateLocked(ctx context.Context, mutate port.OrderMutation, lock func(q *db.Queries) (db.Order, error)) (domain.Order, error) {
	return withTx(ctx, r.pool, r.q, func(q *db.Queries) (domain.Order, error) {
		row, err := lock(q)
		if err != nil {
			return domain.Order{}, err
		}

		orders, err := loadOrders(ctx, q, []db.Order{row})
		if err != nil {
			return domain.Order{}, fmt.Errorf("loadOrders: %w", err)
		}
		order := orders[0]
		from := order.Status

		change, err := mutate(ctx, &order, newCartWithQueries(q))
		if err != nil {
			return domain.Order{}, err
		}
		if change.To == "" {
			return order, nil
		}

		if change.CreatedAt.IsZero() {
			change.CreatedAt = time.Now().UTC()
		}
		change.OrderID = order.ID
		change.From = from

		order.Status = change.To
		order.UpdatedAt = change.CreatedAt

		err = q.UpdateOrder(ctx, db.UpdateOrderParams{
			ID:                order.ID,
			Status:            order.Status.String(),
			GatewayOrderRef:   order.GatewayOrderRef,
			GatewayPaymentRef: order.GatewayPaymentRef,
			UpdatedAt:         order.UpdatedAt,
		})
		if err != nil {
			return domain.Order{}, fmt.Errorf("q.UpdateOrder: %w", err)
		}

		if _, err := appendStatusChange(ctx, q, change); err != nil {
			return domain.Order{}, fmt.Errorf("appendStatusChange: %w", err)
		}

		return order, nil
	})
}

func (r *orderRepository) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	params := db.ListOrdersParams{
		OwnerID:     optional(filter.OwnerID),
		Status:      optional(filter.Status.String()),
		CreatedFrom: filter.From,
		CreatedTo:   filter.To,
	}
	if filter.Limit > 0 {
		limit := int32(filter.Limit)
		params.MaxRows = &limit
	}

	rows, err := r.q.ListOrders(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("q.ListOrders: %w", err)
	}

	orders, err := loadOrders(ctx, r.q, rows)
	if err != nil {
		return nil, fmt.Errorf("loadOrders: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) GetStats(ctx context.Context, monthStart, now time.Time) (domain.OrderStats, error) {
	counts, err := r.q.CountOrdersByStatus(ctx)
	if err != nil {
		return domain.OrderStats{}, fmt.Errorf("q.CountOrdersByStatus: %w", err)
	}

	stats := domain.OrderStats{ByStatus: make(map[domain.OrderStatus]int64, len(counts))}
	for _, c := range counts {
		stats.ByStatus[domain.OrderStatus(c.Status)] = c.Orders
		stats.TotalOrders += c.Orders
	}

	statuses := make([]string, 0, len(domain.RevenueStatuses))
	for _, s := range domain.RevenueStatuses {
		statuses = append(statuses, s.String())
	}

	stats.TotalRevenue, err = r.sumRevenue(ctx, db.SumRevenueParams{Statuses: statuses})
	if err != nil {
		return domain.OrderStats{}, fmt.Errorf("r.sumRevenue: %w", err)
	}

	stats.MonthlyRevenue, err = r.sumRevenue(ctx, db.SumRevenueParams{
		Statuses:    statuses,
		CreatedFrom: &monthStart,
		CreatedTo:   &now,
	})
	if err != nil {
		return domain.OrderStats{}, fmt.Errorf("r.sumRevenue monthly: %w", err)
	}

	return stats, nil
}

func (r *orderRepository) sumRevenue(ctx context.Context, params db.SumRevenueParams) (domain.Revenue, error) {
	rows, err := r.q.SumRevenue(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("q.SumRevenue: %w", err)
	}

	revenue := make(domain.Revenue, len(rows))
	for _, row := range rows {
		unit, err := parseCurrency(row.TotalCurrency)
		if err != nil {
			return nil, fmt.Errorf("parseCurrency: %w", err)
		}
		revenue[unit] = row.Revenue
	}

	return revenue, nil
}

func (r *orderRepository) ListStatusChanges(ctx context.Context, orderID uuid.UUID) ([]domain.StatusChange, error) {
	rows, err := r.q.ListStatusChanges(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("q.ListStatusChanges: %w", err)
	}

	return mapStatusChangesToDomain(rows), nil
}

func insertOrder(ctx context.Context, q *db.Queries, order domain.Order) error {
	if order.ID == uuid.Nil {
		return fmt.Errorf("orderID is empty")
	}
	if order.OwnerID == "" {
		return fmt.Errorf("ownerID is empty")
	}

	err := q.CreateOrder(ctx, db.CreateOrderParams{
		ID:            order.ID,
		OwnerID:       order.OwnerID,
		Status:        order.Status.String(),
		TotalAmount:   order.Total.Amount,
		TotalCurrency: order.Total.Currency.String(),
		CreatedAt:     order.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("q.CreateOrder: %w", err)
	}

	for i, item := range order.Items {
		err := q.CreateOrderItem(ctx, db.CreateOrderItemParams{
			OrderID:           order.ID,
			Position:          int32(i),
			ProductID:         item.ProductID,
			Quantity:          int32(item.Quantity),
			UnitPriceAmount:   item.UnitPrice.Amount,
			UnitPriceCurrency: item.UnitPrice.Currency.String(),
		})
		if err != nil {
			return fmt.Errorf("q.CreateOrderItem[%d]: %w", i, notFound(err))
		}
	}

	return nil
}

func appendStatusChange(ctx context.Context, q *db.Queries, change domain.StatusChange) (int64, error) {
	return q.InsertStatusChange(ctx, db.InsertStatusChangeParams{
		OrderID:    change.OrderID,
		FromStatus: optional(change.From.String()),
		ToStatus:   change.To.String(),
		Actor:      change.Actor,
		Reason:     change.Reason,
		CreatedAt:  change.CreatedAt,
	})
}

// loadOrders attaches items to rows with a single query, preserving row order.
func loadOrders(ctx context.Context, q *db.Queries, rows []db.Order) ([]domain.Order, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	itemRows, err := q.ListOrderItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("q.ListOrderItems: %w", err)
	}

	itemsByOrder := make(map[uuid.UUID][]domain.OrderItem, len(rows))
	for _, itemRow := range itemRows {
		unitPrice, err := mapMoney(itemRow.UnitPriceAmount, itemRow.UnitPriceCurrency)
		if err != nil {
			return nil, err
		}

		itemsByOrder[itemRow.OrderID] = append(itemsByOrder[itemRow.OrderID], domain.OrderItem{
			ProductID: itemRow.ProductID,
			Quantity:  int(itemRow.Quantity),
			UnitPrice: unitPrice,
		})
	}

	orders := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		total, err := mapMoney(row.TotalAmount, row.TotalCurrency)
		if err != nil {
			return nil, err
		}

		orders = append(orders, domain.Order{
			ID:                row.ID,
			OwnerID:           row.OwnerID,
			Status:            domain.OrderStatus(row.Status),
			Total:             total,
			Items:             itemsByOrder[row.ID],
			GatewayOrderRef:   row.GatewayOrderRef,
			GatewayPaymentRef: row.GatewayPaymentRef,
			CreatedAt:         row.CreatedAt,
			UpdatedAt:         row.UpdatedAt,
		})
	}

	return orders, nil
}

func mapStatusChangesToDomain(rows []db.OrderStatusHistory) []domain.StatusChange {
	changes := make([]domain.StatusChange, 0, len(rows))

	for _, row := range rows {
		changes = append(changes, domain.StatusChange{
			ID:        row.ID,
			OrderID:   row.OrderID,
			From:      domain.OrderStatus(deref(row.FromStatus)),
			To:        domain.OrderStatus(row.ToStatus),
			Actor:     row.Actor,
			Reason:    row.Reason,
			CreatedAt: row.CreatedAt,
		})
	}

	return changes
}
