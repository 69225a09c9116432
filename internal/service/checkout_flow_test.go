package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/shopflow/internal/domain"
	"github.com/nikolayk812/shopflow/internal/migrations"
	"github.com/nikolayk812/shopflow/internal/repository"
	"github.com/nikolayk812/shopflow/internal/service"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap/zaptest"
)

type checkoutFlowSuite struct {
	suite.Suite

	pool     *pgxpool.Pool
	gateway  *fakeGateway
	carts    *service.CartService
	orders   *service.OrderService
	payments *service.PaymentService
	products *service.ProductService
	signer   service.Signer
}

func TestCheckoutFlowSuite(t *testing.T) {
	suite.Run(t, new(checkoutFlowSuite))
}

func (suite *checkoutFlowSuite) SetupSuite() {
	t := suite.T()
	ctx := t.Context()

	connStr, err := startPostgres(ctx)
	suite.Require().NoError(err)

	suite.pool, err = pgxpool.New(ctx, connStr)
	suite.Require().NoError(err)

	cartRepo, err := repository.NewCart(suite.pool)
	suite.Require().NoError(err)

	orderRepo, err := repository.NewOrder(suite.pool)
	suite.Require().NoError(err)

	productRepo, err := repository.NewProduct(suite.pool)
	suite.Require().NoError(err)

	logger := zaptest.NewLogger(t)
	suite.gateway = &fakeGateway{}

	suite.payments, err = service.NewPaymentService(orderRepo, suite.gateway, service.PaymentConfig{
		KeyID:     "rzp_test_key",
		KeySecret: testKeySecret,
	}, logger)
	suite.Require().NoError(err)

	suite.carts = service.NewCartService(cartRepo)
	suite.orders = service.NewOrderService(orderRepo, domain.AdminPolicy{}, logger)
	suite.products = service.NewProductService(productRepo, nil, logger)
	suite.signer = service.NewSigner(testKeySecret)
}

func (suite *checkoutFlowSuite) TearDownSuite() {
	if suite.pool != nil {
		suite.pool.Close()
	}
}

func (suite *checkoutFlowSuite) TearDownTest() {
	_, err := suite.pool.Exec(context.Background(),
		"TRUNCATE TABLE order_status_history, order_items, orders, cart_items, carts, products CASCADE")
	suite.Require().NoError(err)
}

// placeOrder runs the first leg of every flow: a cart holding two units of a 9.99 INR product,
// checked out in full.
func (suite *checkoutFlowSuite) placeOrder(userID string) (domain.Order, domain.Cart, domain.Product) {
	ctx := suite.T().Context()

	product, err := suite.products.Create(ctx, domain.Product{
		Name:  gofakeit.ProductName(),
		Price: inr("9.99"),
	})
	suite.Require().NoError(err)

	cart, err := suite.carts.GetOrCreateCart(ctx, userID, userID)
	suite.Require().NoError(err)

	cart, err = suite.carts.AddItem(ctx, userID, cart.ID, product.ID, 2)
	suite.Require().NoError(err)

	order, err := suite.orders.PlaceOrder(ctx, userID, cart.ID, nil)
	suite.Require().NoError(err)

	return order, cart, product
}

// declinePayment places an order and answers its payment intent with an empty signature.
func (suite *checkoutFlowSuite) declinePayment(userID string) (domain.Order, domain.Cart, domain.Product) {
	ctx := suite.T().Context()

	order, cart, product := suite.placeOrder(userID)

	intent, err := suite.payments.CreatePaymentIntent(ctx, order.ID, order.Total.Amount, userID)
	suite.Require().NoError(err)

	ok, err := suite.payments.VerifyPayment(ctx, intent.GatewayOrderRef, "pay_"+gofakeit.LetterN(14), "", userID)
	suite.Require().NoError(err)
	suite.Require().False(ok)

	return order, cart, product
}

func (suite *checkoutFlowSuite) TestPlaceOrder() {
	t := suite.T()

	order, _, _ := suite.placeOrder(gofakeit.UUID())

	suite.Equal(domain.OrderStatusPending, order.Status)
	suite.Equal("19.98", order.Total.Amount.StringFixed(2))

	got, err := suite.orders.GetOrder(t.Context(), order.ID, order.OwnerID)
	suite.Require().NoError(err)
	suite.Equal("19.98", got.Total.Amount.StringFixed(2))
}

func (suite *checkoutFlowSuite) TestPayOrder() {
	t := suite.T()
	ctx := t.Context()
	userID := gofakeit.UUID()

	order, cart, product := suite.placeOrder(userID)

	intent, err := suite.payments.CreatePaymentIntent(ctx, order.ID, order.Total.Amount, userID)
	suite.Require().NoError(err)
	suite.Equal(int64(1998), intent.AmountMinor)

	created, err := suite.payments.PaymentStatus(ctx, order.ID, userID)
	suite.Require().NoError(err)
	suite.Equal(domain.OrderStatusCreated, created.Status)
	suite.Require().NotNil(created.GatewayOrderRef)
	suite.Equal(intent.GatewayOrderRef, *created.GatewayOrderRef)

	paymentRef := "pay_" + gofakeit.LetterN(14)
	ok, err := suite.payments.VerifyPayment(ctx, intent.GatewayOrderRef, paymentRef, suite.signer.Sign(intent.GatewayOrderRef, paymentRef), userID)
	suite.Require().NoError(err)
	suite.True(ok)

	paid, err := suite.payments.PaymentStatus(ctx, order.ID, userID)
	suite.Require().NoError(err)
	suite.Equal(domain.OrderStatusPaid, paid.Status)

	after, err := suite.carts.GetCart(ctx, userID, cart.ID)
	suite.Require().NoError(err)
	for _, item := range after.Items {
		suite.NotEqual(product.ID, item.ProductID)
	}

	history, err := suite.orders.History(ctx, order.ID, userID)
	suite.Require().NoError(err)
	suite.Require().Len(history, 3)
	suite.Equal(domain.OrderStatusPaid, history[2].To)
}

func (suite *checkoutFlowSuite) TestShipThenCancel() {
	t := suite.T()
	ctx := t.Context()
	userID := gofakeit.UUID()

	order, _, _ := suite.placeOrder(userID)

	intent, err := suite.payments.CreatePaymentIntent(ctx, order.ID, order.Total.Amount, userID)
	suite.Require().NoError(err)

	ok, err := suite.payments.VerifyPayment(ctx, intent.GatewayOrderRef, "pay_1", suite.signer.Sign(intent.GatewayOrderRef, "pay_1"), userID)
	suite.Require().NoError(err)
	suite.Require().True(ok)

	shipped, err := suite.orders.UpdateStatus(ctx, order.ID, "SHIPPED", "admin-1")
	suite.Require().NoError(err)
	suite.Equal(domain.OrderStatusShipped, shipped.Status)

	_, err = suite.orders.CancelOrder(ctx, order.ID, userID)
	suite.Require().ErrorIs(err, domain.ErrInvalidState)

	got, err := suite.orders.GetOrder(ctx, order.ID, userID)
	suite.Require().NoError(err)
	suite.Equal(domain.OrderStatusShipped, got.Status)
}

func (suite *checkoutFlowSuite) TestVerifyUnknownRef() {
	t := suite.T()
	ctx := t.Context()
	userID := gofakeit.UUID()

	order, _, _ := suite.placeOrder(userID)
	before, err := suite.orders.History(ctx, order.ID, userID)
	suite.Require().NoError(err)

	ok, err := suite.payments.VerifyPayment(ctx, "order_unknown", "pay_1", suite.signer.Sign("order_unknown", "pay_1"), userID)
	suite.Require().ErrorIs(err, domain.ErrNotFound)
	suite.False(ok)

	got, err := suite.orders.GetOrder(ctx, order.ID, userID)
	suite.Require().NoError(err)
	suite.Equal(domain.OrderStatusPending, got.Status)

	after, err := suite.orders.History(ctx, order.ID, userID)
	suite.Require().NoError(err)
	suite.Len(after, len(before))
}

func (suite *checkoutFlowSuite) TestTamperedSignature() {
	t := suite.T()
	ctx := t.Context()
	userID := gofakeit.UUID()

	order, cart, _ := suite.declinePayment(userID)

	got, err := suite.payments.PaymentStatus(ctx, order.ID, userID)
	suite.Require().NoError(err)
	suite.Equal(domain.OrderStatusPaymentFailed, got.Status)

	kept, err := suite.carts.GetCart(ctx, userID, cart.ID)
	suite.Require().NoError(err)
	suite.Len(kept.Items, 1)
}

func (suite *checkoutFlowSuite) TestVerifyForeignCaller() {
	t := suite.T()
	ctx := t.Context()
	userID := gofakeit.UUID()

	order, cart, _ := suite.placeOrder(userID)

	intent, err := suite.payments.CreatePaymentIntent(ctx, order.ID, order.Total.Amount, userID)
	suite.Require().NoError(err)

	ok, err := suite.payments.VerifyPayment(ctx, intent.GatewayOrderRef, "pay_1", "", gofakeit.UUID())
	suite.Require().ErrorIs(err, domain.ErrAccessDenied)
	suite.False(ok)

	got, err := suite.payments.PaymentStatus(ctx, order.ID, userID)
	suite.Require().NoError(err)
	suite.Equal(domain.OrderStatusCreated, got.Status)

	kept, err := suite.carts.GetCart(ctx, userID, cart.ID)
	suite.Require().NoError(err)
	suite.Len(kept.Items, 1)

	history, err := suite.orders.History(ctx, order.ID, userID)
	suite.Require().NoError(err)
	suite.Len(history, 2)
}

func (suite *checkoutFlowSuite) TestConcurrentVerify() {
	t := suite.T()
	ctx := t.Context()
	userID := gofakeit.UUID()

	order, _, _ := suite.placeOrder(userID)

	intent, err := suite.payments.CreatePaymentIntent(ctx, order.ID, order.Total.Amount, userID)
	suite.Require().NoError(err)
	signature := suite.signer.Sign(intent.GatewayOrderRef, "pay_1")

	const workers = 6
	results := make(chan error, workers)
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := suite.payments.VerifyPayment(ctx, intent.GatewayOrderRef, "pay_1", signature, userID)
			if err == nil && !ok {
				err = fmt.Errorf("unexpected negative result")
			}
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		suite.ErrorIs(err, domain.ErrInvalidState)
	}
	suite.Equal(1, successes)

	history, err := suite.orders.History(ctx, order.ID, userID)
	suite.Require().NoError(err)
	suite.Len(history, 3)
}

func (suite *checkoutFlowSuite) TestPlaceOrderForeignCart() {
	t := suite.T()
	ctx := t.Context()

	_, cart, _ := suite.placeOrder(gofakeit.UUID())

	_, err := suite.orders.PlaceOrder(ctx, uuid.NewString(), cart.ID, nil)
	suite.Require().ErrorIs(err, domain.ErrAccessDenied)
}

func startPostgres(ctx context.Context) (string, error) {
	postgresContainer, err := postgres.Run(ctx, "postgres:17.6-alpine3.22",
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return "", fmt.Errorf("postgres.Run: %w", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return "", fmt.Errorf("pc.ConnectionString: %w", err)
	}

	if err := migrations.Up(connStr); err != nil {
		return "", fmt.Errorf("migrations.Up: %w", err)
	}

	return connStr, nil
}
