package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/nikolayk812/shopflow/internal/auth"
	"github.com/nikolayk812/shopflow/internal/domain"
	"github.com/nikolayk812/shopflow/internal/handler"
	"github.com/nikolayk812/shopflow/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

var errNotImplemented = errors.New("not implemented")

type stubCartService struct {
	getOrCreateFn func(ctx context.Context, requesterID, userID string) (domain.Cart, error)
	getFn         func(ctx context.Context, requesterID string, cartID uuid.UUID) (domain.Cart, error)
	addFn         func(ctx context.Context, requesterID string, cartID, productID uuid.UUID, quantity int) (domain.Cart, error)
}

func (s *stubCartService) GetOrCreateCart(ctx context.Context, requesterID, userID string) (domain.Cart, error) {
	if s.getOrCreateFn != nil {
		return s.getOrCreateFn(ctx, requesterID, userID)
	}
	return domain.Cart{}, errNotImplemented
}

func (s *stubCartService) GetCart(ctx context.Context, requesterID string, cartID uuid.UUID) (domain.Cart, error) {
	if s.getFn != nil {
		return s.getFn(ctx, requesterID, cartID)
	}
	return domain.Cart{}, errNotImplemented
}

func (s *stubCartService) ListItems(ctx context.Context, requesterID string, cartID uuid.UUID) ([]domain.CartItem, error) {
	cart, err := s.GetCart(ctx, requesterID, cartID)
	return cart.Items, err
}

func (s *stubCartService) AddItem(ctx context.Context, requesterID string, cartID, productID uuid.UUID, quantity int) (domain.Cart, error) {
	if s.addFn != nil {
		return s.addFn(ctx, requesterID, cartID, productID, quantity)
	}
	return domain.Cart{}, errNotImplemented
}

func (s *stubCartService) RemoveItem(context.Context, string, uuid.UUID, uuid.UUID) (domain.Cart, error) {
	return domain.Cart{}, errNotImplemented
}

type stubOrderService struct {
	placeFn        func(ctx context.Context, requesterID string, cartID uuid.UUID, lineIDs []uuid.UUID) (domain.Order, error)
	getFn          func(ctx context.Context, orderID uuid.UUID, requesterID string) (domain.Order, error)
	updateStatusFn func(ctx context.Context, orderID uuid.UUID, rawStatus, adminID string) (domain.Order, error)
	listFn         func(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	statsFn        func(ctx context.Context) (domain.OrderStats, error)
}

func (s *stubOrderService) PlaceOrder(ctx context.Context, requesterID string, cartID uuid.UUID, lineIDs []uuid.UUID) (domain.Order, error) {
	if s.placeFn != nil {
		return s.placeFn(ctx, requesterID, cartID, lineIDs)
	}
	return domain.Order{}, errNotImplemented
}

func (s *stubOrderService) CancelOrder(context.Context, uuid.UUID, string) (domain.Order, error) {
	return domain.Order{}, errNotImplemented
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, rawStatus, adminID string) (domain.Order, error) {
	if s.updateStatusFn != nil {
		return s.updateStatusFn(ctx, orderID, rawStatus, adminID)
	}
	return domain.Order{}, errNotImplemented
}

func (s *stubOrderService) GetOrder(ctx context.Context, orderID uuid.UUID, requesterID string) (domain.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, orderID, requesterID)
	}
	return domain.Order{}, errNotImplemented
}

func (s *stubOrderService) GetOrderForAdmin(context.Context, uuid.UUID) (domain.Order, error) {
	return domain.Order{}, errNotImplemented
}

func (s *stubOrderService) ListUserOrders(context.Context, string, string, string) ([]domain.Order, error) {
	return nil, nil
}

func (s *stubOrderService) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, errNotImplemented
}

func (s *stubOrderService) RecentOrders(context.Context, int) ([]domain.Order, error) {
	return nil, errNotImplemented
}

func (s *stubOrderService) Stats(ctx context.Context) (domain.OrderStats, error) {
	if s.statsFn != nil {
		return s.statsFn(ctx)
	}
	return domain.OrderStats{}, errNotImplemented
}

func (s *stubOrderService) History(context.Context, uuid.UUID, string) ([]domain.StatusChange, error) {
	return nil, errNotImplemented
}

func (s *stubOrderService) HistoryForAdmin(context.Context, uuid.UUID) ([]domain.StatusChange, error) {
	return nil, errNotImplemented
}

type stubPaymentService struct {
	createFn func(ctx context.Context, orderID uuid.UUID, claimed decimal.Decimal, requesterID string) (service.PaymentIntent, error)
	verifyFn func(ctx context.Context, ref, paymentRef, signature, requesterID string) (bool, error)
}

func (s *stubPaymentService) CreatePaymentIntent(ctx context.Context, orderID uuid.UUID, claimed decimal.Decimal, requesterID string) (service.PaymentIntent, error) {
	if s.createFn != nil {
		return s.createFn(ctx, orderID, claimed, requesterID)
	}
	return service.PaymentIntent{}, errNotImplemented
}

func (s *stubPaymentService) VerifyPayment(ctx context.Context, ref, paymentRef, signature, requesterID string) (bool, error) {
	if s.verifyFn != nil {
		return s.verifyFn(ctx, ref, paymentRef, signature, requesterID)
	}
	return false, errNotImplemented
}

func (s *stubPaymentService) ReportFailure(context.Context, string, string, string) (domain.Order, error) {
	return domain.Order{}, errNotImplemented
}

func (s *stubPaymentService) PaymentStatus(context.Context, uuid.UUID, string) (domain.Order, error) {
	return domain.Order{}, errNotImplemented
}

type stubProductService struct {
	products []domain.Product
	created  domain.Product
}

func (s *stubProductService) Create(_ context.Context, p domain.Product) (domain.Product, error) {
	s.created = p
	p.ID = uuid.New()
	return p, nil
}

func (s *stubProductService) Get(context.Context, uuid.UUID) (domain.Product, error) {
	return domain.Product{}, domain.ErrNotFound
}

func (s *stubProductService) List(context.Context) ([]domain.Product, error) {
	return s.products, nil
}

func (s *stubProductService) Update(context.Context, domain.Product) (domain.Product, error) {
	return domain.Product{}, errNotImplemented
}

func (s *stubProductService) Delete(context.Context, uuid.UUID) error {
	return errNotImplemented
}

func (s *stubProductService) SetImage(context.Context, uuid.UUID, string, io.Reader) (domain.Product, error) {
	return domain.Product{}, errNotImplemented
}

type server struct {
	t        *testing.T
	handler  http.Handler
	tokens   *auth.TokenManager
	carts    *stubCartService
	orders   *stubOrderService
	payments *stubPaymentService
	products *stubProductService
}

func newServer(t *testing.T) *server {
	t.Helper()

	tokens, err := auth.NewTokenManager(testSigningKey)
	require.NoError(t, err)
	authn := auth.NewAuthenticator(tokens)

	s := &server{
		t:        t,
		tokens:   tokens,
		carts:    &stubCartService{},
		orders:   &stubOrderService{},
		payments: &stubPaymentService{},
		products: &stubProductService{},
	}

	productHandlers := handler.NewProductHandlers(s.products)
	orderHandlers := handler.NewOrderHandlers(authn, s.orders)

	s.handler = handler.NewRouter(
		handler.WithProductRoutes(productHandlers.Routes),
		handler.WithCartRoutes(handler.NewCartHandlers(authn, s.carts).Routes),
		handler.WithOrderRoutes(orderHandlers.Routes),
		handler.WithPaymentRoutes(handler.NewPaymentHandlers(authn, s.payments).Routes),
		handler.WithAdminRoutes(
			handler.AdminRoutes(productHandlers.AdminRoutes, orderHandlers.AdminRoutes),
			authn.RequireAuth(auth.RoleAdmin),
		),
	)

	return s
}

func (s *server) token(userID string, role auth.Role) string {
	s.t.Helper()

	token, err := s.tokens.Issue(userID, "name-"+userID, role)
	require.NoError(s.t, err)
	return token
}

// do sends a request as userID with role; an empty userID sends no credentials.
func (s *server) do(method, path, userID string, role auth.Role, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(userID, role))
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func inr(amount string) domain.Money {
	return domain.Money{Amount: decimal.RequireFromString(amount), Currency: currency.INR}
}
