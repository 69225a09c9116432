package service_test

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/shopflow/internal/domain"
	"github.com/nikolayk812/shopflow/internal/port"
)

// memStore is an in-memory stand-in for the PostgreSQL repositories. A single mutex plays the role
// of the order row lock, and cart edits made inside a mutation are rolled back when it fails.
type memStore struct {
	mu sync.Mutex

	products map[uuid.UUID]domain.Product
	carts    map[uuid.UUID]*memCart
	orders   map[uuid.UUID]domain.Order
	history  []domain.StatusChange

	// updateErr, when set, fails the next order update after its mutation ran.
	updateErr error
}

type memCart struct {
	id      uuid.UUID
	ownerID string
	lines   []memLine
}

type memLine struct {
	id        uuid.UUID
	productID uuid.UUID
	quantity  int
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[uuid.UUID]domain.Product),
		carts:    make(map[uuid.UUID]*memCart),
		orders:   make(map[uuid.UUID]domain.Order),
	}
}

func (s *memStore) cartRepo() port.CartRepository {
	return &memCartRepo{store: s}
}

func (s *memStore) orderRepo() port.OrderRepository {
	return &memOrderRepo{store: s}
}

func (s *memStore) productRepo() port.ProductRepository {
	return &memProductRepo{store: s}
}

func (s *memStore) putProduct(price domain.Money) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := domain.Product{ID: uuid.New(), Name: "product", Price: price, CreatedAt: time.Now()}
	s.products[p.ID] = p
	return p
}

func (s *memStore) setPrice(productID uuid.UUID, price domain.Money) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.products[productID]
	p.Price = price
	s.products[productID] = p
}

func (s *memStore) statusChanges(orderID uuid.UUID) []domain.StatusChange {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.StatusChange
	for _, c := range s.history {
		if c.OrderID == orderID {
			out = append(out, c)
		}
	}
	return out
}

func (s *memStore) snapshotCarts() map[uuid.UUID]*memCart {
	out := make(map[uuid.UUID]*memCart, len(s.carts))
	for id, c := range s.carts {
		out[id] = &memCart{id: c.id, ownerID: c.ownerID, lines: slices.Clone(c.lines)}
	}
	return out
}

// unlocked cart operations, callers hold mu

func (s *memStore) getOrCreateCart(ownerID string) domain.Cart {
	for _, c := range s.carts {
		if c.ownerID == ownerID {
			return s.viewCart(c)
		}
	}
	c := &memCart{id: uuid.New(), ownerID: ownerID}
	s.carts[c.id] = c
	return s.viewCart(c)
}

func (s *memStore) viewCart(c *memCart) domain.Cart {
	cart := domain.Cart{ID: c.id, OwnerID: c.ownerID}
	for _, l := range c.lines {
		p, ok := s.products[l.productID]
		if !ok {
			continue
		}
		cart.Items = append(cart.Items, domain.CartItem{
			ID:        l.id,
			ProductID: l.productID,
			Quantity:  l.quantity,
			Price:     p.Price,
		})
	}
	return cart
}

func (s *memStore) deleteItemsByOwner(ownerID string, productIDs []uuid.UUID) int64 {
	var removed int64
	for _, c := range s.carts {
		if c.ownerID != ownerID {
			continue
		}
		kept := c.lines[:0]
		for _, l := range c.lines {
			if slices.Contains(productIDs, l.productID) {
				removed++
				continue
			}
			kept = append(kept, l)
		}
		c.lines = kept
	}
	return removed
}

type memCartRepo struct {
	store *memStore
	// inTx marks a repository handed to an order mutation; the store lock is already held.
	inTx bool
}

func (r *memCartRepo) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *memCartRepo) GetOrCreateCart(_ context.Context, ownerID string) (domain.Cart, error) {
	defer r.lock()()
	if ownerID == "" {
		return domain.Cart{}, fmt.Errorf("ownerID is empty")
	}
	return r.store.getOrCreateCart(ownerID), nil
}

func (r *memCartRepo) GetCart(_ context.Context, cartID uuid.UUID) (domain.Cart, error) {
	defer r.lock()()
	c, ok := r.store.carts[cartID]
	if !ok {
		return domain.Cart{}, fmt.Errorf("cart %s: %w", cartID, domain.ErrNotFound)
	}
	return r.store.viewCart(c), nil
}

func (r *memCartRepo) AddItem(_ context.Context, cartID, productID uuid.UUID, quantity int) error {
	defer r.lock()()
	c, ok := r.store.carts[cartID]
	if !ok {
		return fmt.Errorf("cart %s: %w", cartID, domain.ErrNotFound)
	}
	if _, ok := r.store.products[productID]; !ok {
		return fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	if quantity < 1 {
		return fmt.Errorf("quantity %d: %w", quantity, domain.ErrInvalidValue)
	}
	for i := range c.lines {
		if c.lines[i].productID == productID {
			c.lines[i].quantity += quantity
			return nil
		}
	}
	c.lines = append(c.lines, memLine{id: uuid.New(), productID: productID, quantity: quantity})
	return nil
}

func (r *memCartRepo) DeleteItem(_ context.Context, cartID, productID uuid.UUID) (bool, error) {
	defer r.lock()()
	c, ok := r.store.carts[cartID]
	if !ok {
		return false, nil
	}
	for i, l := range c.lines {
		if l.productID == productID {
			c.lines = slices.Delete(c.lines, i, i+1)
			return true, nil
		}
	}
	return false, nil
}

func (r *memCartRepo) DeleteItemsByOwner(_ context.Context, ownerID string, productIDs []uuid.UUID) (int64, error) {
	defer r.lock()()
	return r.store.deleteItemsByOwner(ownerID, productIDs), nil
}

type memOrderRepo struct {
	store *memStore
}

func (r *memOrderRepo) PlaceOrder(_ context.Context, cartID uuid.UUID, build func(cart domain.Cart) (domain.Order, error)) (domain.Order, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[cartID]
	if !ok {
		return domain.Order{}, fmt.Errorf("cart %s: %w", cartID, domain.ErrNotFound)
	}

	order, err := build(s.viewCart(c))
	if err != nil {
		return domain.Order{}, err
	}

	s.orders[order.ID] = cloneOrder(order)
	s.appendChange(domain.StatusChange{OrderID: order.ID, To: order.Status, Actor: domain.UserActor(order.OwnerID), CreatedAt: order.CreatedAt})

	return order, nil
}

func (r *memOrderRepo) GetOrder(_ context.Context, id uuid.UUID) (domain.Order, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return cloneOrder(order), nil
}

func (r *memOrderRepo) UpdateOrder(ctx context.Context, id uuid.UUID, mutate port.OrderMutation) (domain.Order, error) {
	return r.update(ctx, mutate, func(s *memStore) (domain.Order, bool) {
		order, ok := s.orders[id]
		return order, ok
	})
}

func (r *memOrderRepo) UpdateOrderByGatewayRef(ctx context.Context, ref string, mutate port.OrderMutation) (domain.Order, error) {
	return r.update(ctx, mutate, func(s *memStore) (domain.Order, bool) {
		for _, order := range s.orders {
			if order.GatewayOrderRef != nil && *order.GatewayOrderRef == ref {
				return order, true
			}
		}
		return domain.Order{}, false
	})
}

func (r *memOrderRepo) update(ctx context.Context, mutate port.OrderMutation, find func(s *memStore) (domain.Order, bool)) (domain.Order, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	found, ok := find(s)
	if !ok {
		return domain.Order{}, fmt.Errorf("order: %w", domain.ErrNotFound)
	}

	order := cloneOrder(found)
	from := order.Status
	saved := s.snapshotCarts()

	change, err := mutate(ctx, &order, &memCartRepo{store: s, inTx: true})
	if err == nil {
		err, s.updateErr = s.updateErr, nil
	}
	if err != nil {
		s.carts = saved
		return domain.Order{}, err
	}
	if change.To == "" {
		return order, nil
	}

	change.OrderID, change.From = order.ID, from
	order.Status = change.To
	order.UpdatedAt = change.CreatedAt

	s.orders[order.ID] = cloneOrder(order)
	s.appendChange(change)

	return order, nil
}

func (r *memOrderRepo) ListOrders(_ context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Order
	for _, o := range s.orders {
		switch {
		case filter.OwnerID != "" && o.OwnerID != filter.OwnerID:
		case filter.Status != "" && o.Status != filter.Status:
		case filter.From != nil && o.CreatedAt.Before(*filter.From):
		case filter.To != nil && !o.CreatedAt.Before(*filter.To):
		default:
			out = append(out, cloneOrder(o))
		}
	}

	slices.SortFunc(out, func(a, b domain.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memOrderRepo) GetStats(_ context.Context, monthStart, now time.Time) (domain.OrderStats, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := domain.OrderStats{
		ByStatus:       make(map[domain.OrderStatus]int64),
		TotalRevenue:   make(domain.Revenue),
		MonthlyRevenue: make(domain.Revenue),
	}
	for _, o := range s.orders {
		stats.TotalOrders++
		stats.ByStatus[o.Status]++
		if !slices.Contains(domain.RevenueStatuses, o.Status) {
			continue
		}
		unit := o.Total.Currency
		stats.TotalRevenue[unit] = stats.TotalRevenue[unit].Add(o.Total.Amount)
		if !o.CreatedAt.Before(monthStart) && o.CreatedAt.Before(now) {
			stats.MonthlyRevenue[unit] = stats.MonthlyRevenue[unit].Add(o.Total.Amount)
		}
	}
	return stats, nil
}

func (r *memOrderRepo) ListStatusChanges(_ context.Context, orderID uuid.UUID) ([]domain.StatusChange, error) {
	return r.store.statusChanges(orderID), nil
}

func (s *memStore) appendChange(change domain.StatusChange) {
	change.ID = int64(len(s.history) + 1)
	s.history = append(s.history, change)
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = slices.Clone(o.Items)
	if o.GatewayOrderRef != nil {
		ref := *o.GatewayOrderRef
		o.GatewayOrderRef = &ref
	}
	if o.GatewayPaymentRef != nil {
		ref := *o.GatewayPaymentRef
		o.GatewayPaymentRef = &ref
	}
	return o
}

type memProductRepo struct {
	store *memStore
}

func (r *memProductRepo) CreateProduct(_ context.Context, product domain.Product) (domain.Product, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.Name == "" {
		return domain.Product{}, fmt.Errorf("name is empty: %w", domain.ErrInvalidValue)
	}
	product.CreatedAt, product.UpdatedAt = time.Now(), time.Now()
	s.products[product.ID] = product
	return product, nil
}

func (r *memProductRepo) GetProduct(_ context.Context, id uuid.UUID) (domain.Product, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

func (r *memProductRepo) ListProducts(context.Context) ([]domain.Product, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Product
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *memProductRepo) UpdateProduct(_ context.Context, product domain.Product) (domain.Product, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.products[product.ID]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %s: %w", product.ID, domain.ErrNotFound)
	}
	product.CreatedAt, product.UpdatedAt = current.CreatedAt, time.Now()
	s.products[product.ID] = product
	return product, nil
}

func (r *memProductRepo) DeleteProduct(_ context.Context, id uuid.UUID) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return false, nil
	}
	delete(s.products, id)
	return true, nil
}

type fakeGateway struct {
	mu       sync.Mutex
	requests []port.GatewayOrderRequest
	err      error
	delay    time.Duration
}

func (g *fakeGateway) CreateOrder(ctx context.Context, req port.GatewayOrderRequest) (port.GatewayOrder, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	err, delay := g.err, g.delay
	n := len(g.requests)
	g.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return port.GatewayOrder{}, ctx.Err()
		}
	}
	if err != nil {
		return port.GatewayOrder{}, err
	}

	return port.GatewayOrder{
		ID:       fmt.Sprintf("order_test%04d", n),
		Amount:   req.Amount,
		Currency: req.Currency.String(),
		Receipt:  req.Receipt,
		Status:   "created",
	}, nil
}

func (g *fakeGateway) lastRequest() port.GatewayOrderRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

type fakeImageStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{objects: make(map[string][]byte)}
}

func (f *fakeImageStore) Put(_ context.Context, key, _ string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return "https://images.test/" + key, nil
}

func (f *fakeImageStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}
