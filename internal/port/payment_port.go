package port

import (
	"context"

	"golang.org/x/text/currency"
)

type GatewayOrderRequest struct {
	// Amount is expressed in the currency's minor unit.
	Amount   int64
	Currency currency.Unit
	Receipt  string
	Notes    map[string]string
}

type GatewayOrder struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
	Status   string
}

type PaymentGateway interface {
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (GatewayOrder, error)
}
