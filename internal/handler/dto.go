package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/shopflow/internal/domain"
	"github.com/nikolayk812/shopflow/internal/service"
	"github.com/shopspring/decimal"
)

type productResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type productRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
}

type cartLineResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type cartResponse struct {
	ID     uuid.UUID          `json:"id"`
	UserID string             `json:"userId"`
	Items  []cartLineResponse `json:"items"`
}

type orderItemResponse struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	UserID          string              `json:"userId"`
	Status          string              `json:"status"`
	Total           decimal.Decimal     `json:"total"`
	Currency        string              `json:"currency"`
	Items           []orderItemResponse `json:"items"`
	GatewayOrderRef *string             `json:"gatewayOrderRef,omitempty"`
	PaymentRef      *string             `json:"paymentRef,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

type statusChangeResponse struct {
	ID        int64     `json:"id"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to"`
	Actor     string    `json:"actor"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type statsResponse struct {
	TotalOrders    int64                      `json:"totalOrders"`
	ByStatus       map[string]int64           `json:"byStatus"`
	TotalRevenue   map[string]decimal.Decimal `json:"totalRevenue"`
	MonthlyRevenue map[string]decimal.Decimal `json:"monthlyRevenue"`
}

type paymentIntentResponse struct {
	OrderID         uuid.UUID       `json:"orderId"`
	GatewayOrderRef string          `json:"gatewayOrderRef"`
	Amount          decimal.Decimal `json:"amount"`
	AmountMinor     int64           `json:"amountMinor"`
	Currency        string          `json:"currency"`
	Receipt         string          `json:"receipt"`
	PublicKey       string          `json:"publicKey"`
}

type paymentStatusResponse struct {
	OrderID         uuid.UUID `json:"orderId"`
	Status          string    `json:"status"`
	GatewayOrderRef *string   `json:"gatewayOrderRef,omitempty"`
	PaymentRef      *string   `json:"paymentRef,omitempty"`
}

type verifyPaymentRequest struct {
	GatewayOrderRef string `json:"gatewayOrderRef"`
	PaymentID       string `json:"paymentId"`
	Signature       string `json:"signature"`
}

type paymentFailureRequest struct {
	GatewayOrderRef string `json:"gatewayOrderRef"`
	Reason          string `json:"reason"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func buildProduct(p domain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.Amount,
		Currency:    p.Price.Currency.String(),
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func buildProducts(products []domain.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, buildProduct(p))
	}
	return out
}

func buildCartLines(items []domain.CartItem) []cartLineResponse {
	out := make([]cartLineResponse, 0, len(items))
	for _, item := range items {
		out = append(out, cartLineResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price.Amount,
			Currency:  item.Price.Currency.String(),
			Subtotal:  item.Price.Mul(item.Quantity).Amount,
		})
	}
	return out
}

func buildCart(cart domain.Cart) cartResponse {
	return cartResponse{
		ID:     cart.ID,
		UserID: cart.OwnerID,
		Items:  buildCartLines(cart.Items),
	}
}

func buildOrder(o domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.Amount,
		})
	}

	return orderResponse{
		ID:              o.ID,
		UserID:          o.OwnerID,
		Status:          o.Status.String(),
		Total:           o.Total.Amount,
		Currency:        o.Total.Currency.String(),
		Items:           items,
		GatewayOrderRef: o.GatewayOrderRef,
		PaymentRef:      o.GatewayPaymentRef,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func buildOrders(orders []domain.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, buildOrder(o))
	}
	return out
}

func buildStatusChanges(changes []domain.StatusChange) []statusChangeResponse {
	out := make([]statusChangeResponse, 0, len(changes))
	for _, c := range changes {
		out = append(out, statusChangeResponse{
			ID:        c.ID,
			From:      c.From.String(),
			To:        c.To.String(),
			Actor:     c.Actor,
			Reason:    c.Reason,
			CreatedAt: c.CreatedAt,
		})
	}
	return out
}

func buildStats(s domain.OrderStats) statsResponse {
	byStatus := make(map[string]int64, len(s.ByStatus))
	for status, n := range s.ByStatus {
		byStatus[status.String()] = n
	}

	return statsResponse{
		TotalOrders:    s.TotalOrders,
		ByStatus:       byStatus,
		TotalRevenue:   revenueByCode(s.TotalRevenue),
		MonthlyRevenue: revenueByCode(s.MonthlyRevenue),
	}
}

func revenueByCode(r domain.Revenue) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(r))
	for unit, amount := range r {
		out[unit.String()] = amount
	}
	return out
}

func buildPaymentIntent(intent service.PaymentIntent) paymentIntentResponse {
	return paymentIntentResponse{
		OrderID:         intent.OrderID,
		GatewayOrderRef: intent.GatewayOrderRef,
		Amount:          intent.Amount,
		AmountMinor:     intent.AmountMinor,
		Currency:        intent.Currency,
		Receipt:         intent.Receipt,
		PublicKey:       intent.PublicKey,
	}
}
