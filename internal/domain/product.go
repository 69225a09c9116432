package domain

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID          uuid.UUID
	Name        string
	Description string
	Price       Money
	ImageURL    string
	ImageKey    string

	CreatedAt time.Time
	UpdatedAt time.Time
}
