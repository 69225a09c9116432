package domain

import (
	"time"

	"github.com/google/uuid"
)

const DefaultQuantity = 1

type Cart struct {
	ID      uuid.UUID
	OwnerID string
	Items   []CartItem

	CreatedAt time.Time
}

type CartItem struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	// Price is the product's current catalog price, not a snapshot.
	Price Money

	CreatedAt time.Time
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Select returns the lines whose ids are listed, or every line when ids is empty.
func (c Cart) Select(ids []uuid.UUID) []CartItem {
	if len(ids) == 0 {
		return c.Items
	}

	wanted := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	var selected []CartItem
	for _, item := range c.Items {
		if _, ok := wanted[item.ID]; ok {
			selected = append(selected, item)
		}
	}

	return selected
}
