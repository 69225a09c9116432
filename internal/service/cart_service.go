package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nikolayk812/shopflow/internal/domain"
	"github.com/nikolayk812/shopflow/internal/port"
)

type CartService struct {
	carts port.CartRepository
}

func NewCartService(carts port.CartRepository) *CartService {
	return &CartService{carts: carts}
}

// GetOrCreateCart returns userID's cart, creating it on first access.
func (s *CartService) GetOrCreateCart(ctx context.Context, requesterID, userID string) (domain.Cart, error) {
	if requesterID != userID {
		return domain.Cart{}, fmt.Errorf("cart of user %s: %w", userID, domain.ErrAccessDenied)
	}

	cart, err := s.carts.GetOrCreateCart(ctx, userID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("carts.GetOrCreateCart: %w", err)
	}

	return cart, nil
}

func (s *CartService) GetCart(ctx context.Context, requesterID string, cartID uuid.UUID) (domain.Cart, error) {
	return s.ownedCart(ctx, requesterID, cartID)
}

func (s *CartService) ListItems(ctx context.Context, requesterID string, cartID uuid.UUID) ([]domain.CartItem, error) {
	cart, err := s.ownedCart(ctx, requesterID, cartID)
	if err != nil {
		return nil, err
	}

	return cart.Items, nil
}

// AddItem adds quantity units of productID; zero means the default quantity.
func (s *CartService) AddItem(ctx context.Context, requesterID string, cartID, productID uuid.UUID, quantity int) (domain.Cart, error) {
	switch {
	case quantity == 0:
		quantity = domain.DefaultQuantity
	case quantity < 0:
		return domain.Cart{}, fmt.Errorf("quantity %d: %w", quantity, domain.ErrInvalidValue)
	}

	if _, err := s.ownedCart(ctx, requesterID, cartID); err != nil {
		return domain.Cart{}, err
	}

	if err := s.carts.AddItem(ctx, cartID, productID, quantity); err != nil {
		return domain.Cart{}, fmt.Errorf("carts.AddItem: %w", err)
	}

	return s.ownedCart(ctx, requesterID, cartID)
}

func (s *CartService) RemoveItem(ctx context.Context, requesterID string, cartID, productID uuid.UUID) (domain.Cart, error) {
	if _, err := s.ownedCart(ctx, requesterID, cartID); err != nil {
		return domain.Cart{}, err
	}

	deleted, err := s.carts.DeleteItem(ctx, cartID, productID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("carts.DeleteItem: %w", err)
	}
	if !deleted {
		return domain.Cart{}, fmt.Errorf("product %s in cart %s: %w", productID, cartID, domain.ErrNotFound)
	}

	return s.ownedCart(ctx, requesterID, cartID)
}

// RemoveItems strips productIDs from the cart, ignoring products it does not hold.
func (s *CartService) RemoveItems(ctx context.Context, cartID uuid.UUID, productIDs []uuid.UUID) (int64, error) {
	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return 0, fmt.Errorf("carts.GetCart: %w", err)
	}

	removed, err := s.carts.DeleteItemsByOwner(ctx, cart.OwnerID, productIDs)
	if err != nil {
		return 0, fmt.Errorf("carts.DeleteItemsByOwner: %w", err)
	}

	return removed, nil
}

func (s *CartService) ownedCart(ctx context.Context, requesterID string, cartID uuid.UUID) (domain.Cart, error) {
	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("carts.GetCart: %w", err)
	}

	if requesterID == "" || cart.OwnerID != requesterID {
		return domain.Cart{}, fmt.Errorf("cart %s: %w", cartID, domain.ErrAccessDenied)
	}

	return cart, nil
}
