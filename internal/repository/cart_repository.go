package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/shopflow/internal/db"
	"github.com/nikolayk812/shopflow/internal/domain"
	"github.com/nikolayk812/shopflow/internal/port"
	"golang.org/x/text/currency"
)

type cartRepository struct {
	q    *db.Queries
	pool *pgxpool.Pool
}

func NewCart(pool *pgxpool.Pool) (port.CartRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}

	return &cartRepository{
		q:    db.New(pool),
		pool: pool,
	}, nil
}

func NewCartWithTx(tx pgx.Tx) port.CartRepository {
	return newCartWithQueries(db.New(tx))
}

// newCartWithQueries binds a cart repository to queries already running inside a transaction.
func newCartWithQueries(q *db.Queries) *cartRepository {
	return &cartRepository{
		q:    q,
		pool: nil,
	}
}

func (r *cartRepository) GetOrCreateCart(ctx context.Context, ownerID string) (domain.Cart, error) {
	if ownerID == "" {
		return domain.Cart{}, fmt.Errorf("ownerID is empty")
	}

	dbCart, err := r.q.UpsertCart(ctx, db.UpsertCartParams{
		ID:      uuid.New(),
		OwnerID: ownerID,
	})
	if err != nil {
		return domain.Cart{}, fmt.Errorf("q.UpsertCart: %w", err)
	}

	return loadCart(ctx, r.q, dbCart)
}

func (r *cartRepository) GetCart(ctx context.Context, cartID uuid.UUID) (domain.Cart, error) {
	if cartID == uuid.Nil {
		return domain.Cart{}, fmt.Errorf("cartID is empty")
	}

	dbCart, err := r.q.GetCart(ctx, cartID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("q.GetCart: %w", notFound(err))
	}

	return loadCart(ctx, r.q, dbCart)
}

func (r *cartRepository) AddItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error {
	if cartID == uuid.Nil {
		return fmt.Errorf("cartID is empty")
	}
	if quantity < 1 {
		return fmt.Errorf("quantity %d: %w", quantity, domain.ErrInvalidValue)
	}

	_, err := withTx(ctx, r.pool, r.q, func(q *db.Queries) (struct{}, error) {
		if _, err := q.GetCart(ctx, cartID); err != nil {
			return struct{}{}, fmt.Errorf("q.GetCart: %w", notFound(err))
		}

		if _, err := q.GetProduct(ctx, productID); err != nil {
			return struct{}{}, fmt.Errorf("q.GetProduct: %w", notFound(err))
		}

		err := q.AddCartItem(ctx, db.AddCartItemParams{
			ID:        uuid.New(),
			CartID:    cartID,
			ProductID: productID,
			Quantity:  int32(quantity),
		})
		if err != nil {
			return struct{}{}, fmt.Errorf("q.AddCartItem: %w", notFound(err))
		}

		return struct{}{}, nil
	})

	return err
}

func (r *cartRepository) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) (bool, error) {
	if cartID == uuid.Nil {
		return false, fmt.Errorf("cartID is empty")
	}

	rowsAffected, err := r.q.DeleteCartItem(ctx, db.DeleteCartItemParams{
		CartID:    cartID,
		ProductID: productID,
	})
	if err != nil {
		return false, fmt.Errorf("q.DeleteCartItem: %w", err)
	}

	return rowsAffected > 0, nil
}

func (r *cartRepository) DeleteItemsByOwner(ctx context.Context, ownerID string, productIDs []uuid.UUID) (int64, error) {
	if ownerID == "" {
		return 0, fmt.Errorf("ownerID is empty")
	}
	if len(productIDs) == 0 {
		return 0, nil
	}

	rowsAffected, err := r.q.DeleteCartItemsByOwner(ctx, db.DeleteCartItemsByOwnerParams{
		OwnerID:    ownerID,
		ProductIds: productIDs,
	})
	if err != nil {
		return 0, fmt.Errorf("q.DeleteCartItemsByOwner: %w", err)
	}

	return rowsAffected, nil
}

func loadCart(ctx context.Context, q *db.Queries, dbCart db.Cart) (domain.Cart, error) {
	rows, err := q.ListCartItems(ctx, dbCart.ID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("q.ListCartItems: %w", err)
	}

	items, err := mapCartItemRowsToDomain(rows)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("mapCartItemRowsToDomain: %w", err)
	}

	return domain.Cart{
		ID:        dbCart.ID,
		OwnerID:   dbCart.OwnerID,
		Items:     items,
		CreatedAt: dbCart.CreatedAt,
	}, nil
}

func mapCartItemRowToDomain(row db.ListCartItemsRow) (domain.CartItem, error) {
	price, err := mapMoney(row.PriceAmount, row.PriceCurrency)
	if err != nil {
		return domain.CartItem{}, err
	}

	return domain.CartItem{
		ID:        row.ID,
		ProductID: row.ProductID,
		Quantity:  int(row.Quantity),
		Price:     price,
		CreatedAt: row.CreatedAt,
	}, nil
}

func mapCartItemRowsToDomain(rows []db.ListCartItemsRow) ([]domain.CartItem, error) {
	var items []domain.CartItem

	for _, row := range rows {
		item, err := mapCartItemRowToDomain(row)
		if err != nil {
			return nil, fmt.Errorf("mapCartItemRowToDomain: %w", err)
		}

		items = append(items, item)
	}

	return items, nil
}

func parseCurrency(code string) (currency.Unit, error) {
	parsed, err := currency.ParseISO(code)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("currency[%s] is not valid: %w", code, err)
	}
	return parsed, nil
}
