package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/shopflow/internal/domain"
)

type CartRepository interface {
	GetOrCreateCart(ctx context.Context, ownerID string) (domain.Cart, error)
	GetCart(ctx context.Context, cartID uuid.UUID) (domain.Cart, error)
	AddItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, cartID, productID uuid.UUID) (bool, error)
	DeleteItemsByOwner(ctx context.Context, ownerID string, productIDs []uuid.UUID) (int64, error)
}
