package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nikolayk812/shopflow/internal/auth"
	"github.com/nikolayk812/shopflow/internal/domain"
	"github.com/nikolayk812/shopflow/internal/httpx"
	"github.com/nikolayk812/shopflow/internal/service"
	"github.com/shopspring/decimal"
)

type PaymentService interface {
	CreatePaymentIntent(ctx context.Context, orderID uuid.UUID, claimedAmount decimal.Decimal, requesterID string) (service.PaymentIntent, error)
	VerifyPayment(ctx context.Context, gatewayOrderRef, paymentRef, signature, requesterID string) (bool, error)
	ReportFailure(ctx context.Context, gatewayOrderRef, reason, requesterID string) (domain.Order, error)
	PaymentStatus(ctx context.Context, orderID uuid.UUID, requesterID string) (domain.Order, error)
}

type PaymentHandlers struct {
	authn    *auth.Authenticator
	payments PaymentService
}

func NewPaymentHandlers(authn *auth.Authenticator, payments PaymentService) *PaymentHandlers {
	return &PaymentHandlers{authn: authn, payments: payments}
}

func (h *PaymentHandlers) Routes(r chi.Router) {
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Post("/create-order/{orderId}/{amount}", h.createOrder)
	r.Post("/verify", h.verify)
	r.Post("/failure", h.failure)
	r.Get("/status/{orderId}", h.status)
}

func (h *PaymentHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "orderId")
	if !ok {
		return
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(chi.URLParam(r, "amount")))
	if err != nil {
		writeBadRequest(r.Context(), w, "amount must be a decimal number")
		return
	}

	intent, err := h.payments.CreatePaymentIntent(r.Context(), orderID, amount, identity.UserID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildPaymentIntent(intent))
}

// verify answers 200 for a valid signature and 400 for a mismatch; verification faults are 500.
func (h *PaymentHandlers) verify(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req verifyPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	verified, err := h.payments.VerifyPayment(r.Context(), strings.TrimSpace(req.GatewayOrderRef), strings.TrimSpace(req.PaymentID), strings.TrimSpace(req.Signature), identity.UserID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if !verified {
		httpx.WriteError(r.Context(), w, httpx.NewError("signature_mismatch", "payment signature could not be verified", http.StatusBadRequest))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"verified": true})
}

func (h *PaymentHandlers) failure(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req paymentFailureRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.payments.ReportFailure(r.Context(), strings.TrimSpace(req.GatewayOrderRef), strings.TrimSpace(req.Reason), identity.UserID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, paymentStatus(order))
}

func (h *PaymentHandlers) status(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "orderId")
	if !ok {
		return
	}

	order, err := h.payments.PaymentStatus(r.Context(), orderID, identity.UserID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, paymentStatus(order))
}

func paymentStatus(o domain.Order) paymentStatusResponse {
	return paymentStatusResponse{
		OrderID:         o.ID,
		Status:          o.Status.String(),
		GatewayOrderRef: o.GatewayOrderRef,
		PaymentRef:      o.GatewayPaymentRef,
	}
}
