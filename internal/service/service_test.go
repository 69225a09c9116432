package service_test

import (
	"testing"
	"time"

	"github.com/nikolayk812/shopflow/internal/domain"
	"github.com/nikolayk812/shopflow/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/currency"
)

const testKeySecret = "whsec_test_secret"

type fixture struct {
	store    *memStore
	gateway  *fakeGateway
	images   *fakeImageStore
	carts    *service.CartService
	orders   *service.OrderService
	payments *service.PaymentService
	products *service.ProductService
	signer   service.Signer
}

func newFixture(t *testing.T, policy domain.AdminPolicy) fixture {
	t.Helper()
	return newFixtureWithTimeout(t, policy, 0)
}

func newFixtureWithTimeout(t *testing.T, policy domain.AdminPolicy, gatewayTimeout time.Duration) fixture {
	t.Helper()

	logger := zaptest.NewLogger(t)
	store := newMemStore()
	gateway := &fakeGateway{}
	images := newFakeImageStore()

	payments, err := service.NewPaymentService(store.orderRepo(), gateway, service.PaymentConfig{
		KeyID:          "rzp_test_key",
		KeySecret:      testKeySecret,
		GatewayTimeout: gatewayTimeout,
	}, logger)
	require.NoError(t, err)

	return fixture{
		store:    store,
		gateway:  gateway,
		images:   images,
		carts:    service.NewCartService(store.cartRepo()),
		orders:   service.NewOrderService(store.orderRepo(), policy, logger),
		payments: payments,
		products: service.NewProductService(store.productRepo(), images, logger),
		signer:   service.NewSigner(testKeySecret),
	}
}

// cartWith returns userID's cart holding quantity units of a new product priced at price INR.
func (f fixture) cartWith(t *testing.T, userID, price string, quantity int) (domain.Cart, domain.Product) {
	t.Helper()
	ctx := t.Context()

	product := f.store.putProduct(inr(price))

	cart, err := f.carts.GetOrCreateCart(ctx, userID, userID)
	require.NoError(t, err)

	cart, err = f.carts.AddItem(ctx, userID, cart.ID, product.ID, quantity)
	require.NoError(t, err)

	return cart, product
}

func (f fixture) pendingOrder(t *testing.T, userID, price string, quantity int) (domain.Order, domain.Cart) {
	t.Helper()

	cart, _ := f.cartWith(t, userID, price, quantity)

	order, err := f.orders.PlaceOrder(t.Context(), userID, cart.ID, nil)
	require.NoError(t, err)

	return order, cart
}

func (f fixture) createdOrder(t *testing.T, userID, price string, quantity int) (domain.Order, service.PaymentIntent) {
	t.Helper()

	order, _ := f.pendingOrder(t, userID, price, quantity)

	intent, err := f.payments.CreatePaymentIntent(t.Context(), order.ID, order.Total.Amount, userID)
	require.NoError(t, err)

	return order, intent
}

func inr(amount string) domain.Money {
	return domain.Money{Amount: decimal.RequireFromString(amount), Currency: currency.INR}
}
