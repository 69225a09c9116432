package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/shopflow/internal/domain"
	"github.com/nikolayk812/shopflow/internal/port"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultGatewayTimeout = 10 * time.Second
	cleanupTimeout        = 5 * time.Second
	receiptPrefix         = "rcpt_"
)

type PaymentConfig struct {
	// KeyID is the public gateway key handed to clients to open the checkout widget.
	KeyID          string
	KeySecret      string
	GatewayTimeout time.Duration
}

// PaymentIntent is what a client needs to complete payment for an order at the gateway.
type PaymentIntent struct {
	OrderID         uuid.UUID
	GatewayOrderRef string
	Amount          decimal.Decimal
	AmountMinor     int64
	Currency        string
	Receipt         string
	PublicKey       string
}

type PaymentService struct {
	orders  port.OrderRepository
	gateway port.PaymentGateway
	signer  Signer
	keyID   string
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

func NewPaymentService(orders port.OrderRepository, gateway port.PaymentGateway, cfg PaymentConfig, logger *zap.Logger) (*PaymentService, error) {
	if gateway == nil {
		return nil, fmt.Errorf("gateway is nil")
	}
	if cfg.KeySecret == "" {
		return nil, fmt.Errorf("key secret is empty")
	}

	timeout := cfg.GatewayTimeout
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PaymentService{
		orders:  orders,
		gateway: gateway,
		signer:  NewSigner(cfg.KeySecret),
		keyID:   cfg.KeyID,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// CreatePaymentIntent mints a gateway order for a PENDING order whose total matches claimedAmount and
// moves it to CREATED. A failed or timed out gateway call leaves the order PENDING.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, orderID uuid.UUID, claimedAmount decimal.Decimal, requesterID string) (PaymentIntent, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return PaymentIntent{}, fmt.Errorf("orders.GetOrder: %w", err)
	}

	if err := checkPayable(order, requesterID); err != nil {
		return PaymentIntent{}, err
	}
	if !order.Total.Matches(claimedAmount) {
		return PaymentIntent{}, fmt.Errorf("claimed %s, order total %s: %w", claimedAmount, order.Total, domain.ErrAmountMismatch)
	}

	req := port.GatewayOrderRequest{
		Amount:   order.Total.MinorUnits(),
		Currency: order.Total.Currency,
		Receipt:  receiptPrefix + ulid.Make().String(),
		Notes: map[string]string{
			"order_id": order.ID.String(),
			"user_id":  order.OwnerID,
		},
	}

	gatewayCtx, cancel := context.WithTimeout(ctx, s.timeout)
	gatewayOrder, err := s.gateway.CreateOrder(gatewayCtx, req)
	cancel()
	if err != nil {
		return PaymentIntent{}, fmt.Errorf("gateway.CreateOrder: %w: %w", domain.ErrGateway, err)
	}
	if gatewayOrder.ID == "" {
		return PaymentIntent{}, fmt.Errorf("gateway returned no order id: %w", domain.ErrGateway)
	}

	ref := gatewayOrder.ID
	_, err = s.orders.UpdateOrder(ctx, orderID, func(_ context.Context, o *domain.Order, _ port.CartRepository) (domain.StatusChange, error) {
		if err := checkPayable(*o, requesterID); err != nil {
			return domain.StatusChange{}, err
		}

		o.GatewayOrderRef = &ref
		return domain.StatusChange{
			To:        domain.OrderStatusCreated,
			Actor:     domain.UserActor(requesterID),
			Reason:    "payment intent " + ref,
			CreatedAt: s.now(),
		}, nil
	})
	if err != nil {
		return PaymentIntent{}, fmt.Errorf("orders.UpdateOrder: %w", err)
	}

	s.logger.Info("payment intent created",
		zap.String("order_id", orderID.String()),
		zap.String("gateway_order_ref", ref),
		zap.Int64("amount_minor", req.Amount))

	return PaymentIntent{
		OrderID:         orderID,
		GatewayOrderRef: ref,
		Amount:          order.Total.Amount,
		AmountMinor:     req.Amount,
		Currency:        order.Total.Currency.String(),
		Receipt:         req.Receipt,
		PublicKey:       s.keyID,
	}, nil
}

// VerifyPayment checks the gateway callback signature on behalf of the order owner. A mismatch is a
// negative result, not an error: it returns false and marks the order PAYMENT_FAILED on a best-effort
// basis. On a match the order becomes PAID and its products leave the owner's cart atomically.
// A caller who does not own the order gets domain.ErrAccessDenied and the order is left untouched.
// Failures other than NotFound, AccessDenied or InvalidState are reported as domain.ErrVerification.
func (s *PaymentService) VerifyPayment(ctx context.Context, gatewayOrderRef, paymentRef, signature, requesterID string) (bool, error) {
	if gatewayOrderRef == "" || paymentRef == "" {
		return false, fmt.Errorf("gateway order and payment refs are required: %w", domain.ErrInvalidValue)
	}

	logger := s.logger.With(zap.String("gateway_order_ref", gatewayOrderRef))

	if !s.signer.Verify(gatewayOrderRef, paymentRef, signature) {
		logger.Warn("payment signature mismatch")
		if err := s.markFailed(ctx, gatewayOrderRef, "signature mismatch", requesterID); errors.Is(err, domain.ErrAccessDenied) {
			return false, fmt.Errorf("markFailed: %w", err)
		}
		return false, nil
	}

	order, err := s.orders.UpdateOrderByGatewayRef(ctx, gatewayOrderRef, func(ctx context.Context, o *domain.Order, carts port.CartRepository) (domain.StatusChange, error) {
		if !o.OwnedBy(requesterID) {
			return domain.StatusChange{}, fmt.Errorf("order %s: %w", o.ID, domain.ErrAccessDenied)
		}
		if !o.Status.AwaitsPayment() {
			return domain.StatusChange{}, fmt.Errorf("verify payment in status %s: %w", o.Status, domain.ErrInvalidState)
		}

		if _, err := carts.DeleteItemsByOwner(ctx, o.OwnerID, o.ProductIDs()); err != nil {
			return domain.StatusChange{}, fmt.Errorf("carts.DeleteItemsByOwner: %w", err)
		}

		o.GatewayPaymentRef = &paymentRef
		return domain.StatusChange{
			To:        domain.OrderStatusPaid,
			Actor:     domain.ActorGateway,
			Reason:    "payment " + paymentRef,
			CreatedAt: s.now(),
		}, nil
	})
	switch {
	case err == nil:
		logger.Info("payment verified", zap.String("order_id", order.ID.String()))
		return true, nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrAccessDenied), errors.Is(err, domain.ErrInvalidState):
		return false, fmt.Errorf("orders.UpdateOrderByGatewayRef: %w", err)
	default:
		logger.Error("payment verification failed", zap.Error(err))
		_ = s.markFailed(ctx, gatewayOrderRef, "verification error", requesterID)
		return false, fmt.Errorf("orders.UpdateOrderByGatewayRef: %w: %w", domain.ErrVerification, err)
	}
}

// ReportFailure records a payment failure reported by the client for an order still awaiting payment.
func (s *PaymentService) ReportFailure(ctx context.Context, gatewayOrderRef, reason, requesterID string) (domain.Order, error) {
	if gatewayOrderRef == "" {
		return domain.Order{}, fmt.Errorf("gateway order ref is required: %w", domain.ErrInvalidValue)
	}

	order, err := s.orders.UpdateOrderByGatewayRef(ctx, gatewayOrderRef, func(_ context.Context, o *domain.Order, _ port.CartRepository) (domain.StatusChange, error) {
		if !o.OwnedBy(requesterID) {
			return domain.StatusChange{}, fmt.Errorf("order %s: %w", o.ID, domain.ErrAccessDenied)
		}
		if !o.Status.AwaitsPayment() {
			return domain.StatusChange{}, fmt.Errorf("report failure in status %s: %w", o.Status, domain.ErrInvalidState)
		}

		return domain.StatusChange{
			To:        domain.OrderStatusPaymentFailed,
			Actor:     domain.UserActor(requesterID),
			Reason:    reason,
			CreatedAt: s.now(),
		}, nil
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("orders.UpdateOrderByGatewayRef: %w", err)
	}

	return order, nil
}

func (s *PaymentService) PaymentStatus(ctx context.Context, orderID uuid.UUID, requesterID string) (domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("orders.GetOrder: %w", err)
	}

	if !order.OwnedBy(requesterID) {
		return domain.Order{}, fmt.Errorf("order %s: %w", orderID, domain.ErrAccessDenied)
	}

	return order, nil
}

// markFailed moves an order of requesterID that awaits payment to PAYMENT_FAILED. A cancelled
// request context does not abort the write. Failures are logged; the error is returned only so the
// caller can tell an ownership violation apart.
func (s *PaymentService) markFailed(ctx context.Context, gatewayOrderRef, reason, requesterID string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	_, err := s.orders.UpdateOrderByGatewayRef(ctx, gatewayOrderRef, func(_ context.Context, o *domain.Order, _ port.CartRepository) (domain.StatusChange, error) {
		if !o.OwnedBy(requesterID) {
			return domain.StatusChange{}, fmt.Errorf("order %s: %w", o.ID, domain.ErrAccessDenied)
		}
		if !o.Status.AwaitsPayment() {
			return domain.StatusChange{}, nil
		}

		return domain.StatusChange{
			To:        domain.OrderStatusPaymentFailed,
			Actor:     domain.ActorGateway,
			Reason:    reason,
			CreatedAt: s.now(),
		}, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		s.logger.Debug("no order to mark payment failed", zap.String("gateway_order_ref", gatewayOrderRef))
	case errors.Is(err, domain.ErrAccessDenied):
		s.logger.Warn("payment callback from non-owner",
			zap.String("gateway_order_ref", gatewayOrderRef),
			zap.String("requester_id", requesterID))
	default:
		s.logger.Warn("mark payment failed",
			zap.String("gateway_order_ref", gatewayOrderRef),
			zap.Error(err))
	}

	return err
}

func checkPayable(order domain.Order, requesterID string) error {
	if !order.OwnedBy(requesterID) {
		return fmt.Errorf("order %s: %w", order.ID, domain.ErrAccessDenied)
	}
	if order.Status != domain.OrderStatusPending {
		return fmt.Errorf("create payment intent in status %s: %w", order.Status, domain.ErrInvalidState)
	}
	return nil
}
