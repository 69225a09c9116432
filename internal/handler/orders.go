package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nikolayk812/shopflow/internal/auth"
	"github.com/nikolayk812/shopflow/internal/domain"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, requesterID string, cartID uuid.UUID, lineIDs []uuid.UUID) (domain.Order, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID, requesterID string) (domain.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, rawStatus, adminID string) (domain.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID, requesterID string) (domain.Order, error)
	GetOrderForAdmin(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	ListUserOrders(ctx context.Context, requesterID, userID, rawStatus string) ([]domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	RecentOrders(ctx context.Context, limit int) ([]domain.Order, error)
	Stats(ctx context.Context) (domain.OrderStats, error)
	History(ctx context.Context, orderID uuid.UUID, requesterID string) ([]domain.StatusChange, error)
	HistoryForAdmin(ctx context.Context, orderID uuid.UUID) ([]domain.StatusChange, error)
}

type OrderHandlers struct {
	authn  *auth.Authenticator
	orders OrderService
}

func NewOrderHandlers(authn *auth.Authenticator, orders OrderService) *OrderHandlers {
	return &OrderHandlers{authn: authn, orders: orders}
}

// Routes registers the /orders endpoints for authenticated users.
func (h *OrderHandlers) Routes(r chi.Router) {
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Post("/cart/{cartId}", h.placeOrder)
	r.Post("/cart/{cartId}/items", h.placeOrderFromLines)
	r.Get("/user/{userId}", h.listUserOrders)
	r.Get("/{orderId}/user/{userId}", h.getOrder)
	r.Get("/{orderId}/checkout", h.getOrder)
	r.Get("/{orderId}/history", h.history)
	r.Put("/{orderId}/user/{userId}/cancel", h.cancelOrder)
}

// AdminRoutes registers order management under /admin/orders.
func (h *OrderHandlers) AdminRoutes(r chi.Router) {
	r.Get("/orders", h.adminListOrders)
	r.Get("/orders/recent", h.adminRecentOrders)
	r.Get("/orders/stats", h.adminStats)
	r.Get("/orders/{orderId}", h.adminGetOrder)
	r.Get("/orders/{orderId}/history", h.adminHistory)
	r.Put("/orders/{orderId}/status", h.adminUpdateStatus)
}

func (h *OrderHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	h.place(w, r, nil)
}

func (h *OrderHandlers) placeOrderFromLines(w http.ResponseWriter, r *http.Request) {
	var lineIDs []uuid.UUID
	if !decodeJSON(w, r, &lineIDs) {
		return
	}
	if len(lineIDs) == 0 {
		writeBadRequest(r.Context(), w, "at least one cart line is required")
		return
	}

	h.place(w, r, lineIDs)
}

func (h *OrderHandlers) place(w http.ResponseWriter, r *http.Request, lineIDs []uuid.UUID) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	cartID, ok := uuidParam(w, r, "cartId")
	if !ok {
		return
	}

	order, err := h.orders.PlaceOrder(r.Context(), identity.UserID, cartID, lineIDs)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, buildOrder(order))
}

func (h *OrderHandlers) listUserOrders(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.ListUserOrders(r.Context(), identity.UserID, strings.TrimSpace(chi.URLParam(r, "userId")), r.URL.Query().Get("status"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildOrders(orders))
}

// getOrder serves both the owner view and the checkout fetch; the path user id, when present, must
// be the caller.
func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "orderId")
	if !ok {
		return
	}
	if !h.pathUserMatches(w, r, identity) {
		return
	}

	order, err := h.orders.GetOrder(r.Context(), orderID, identity.UserID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildOrder(order))
}

func (h *OrderHandlers) history(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "orderId")
	if !ok {
		return
	}

	changes, err := h.orders.History(r.Context(), orderID, identity.UserID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildStatusChanges(changes))
}

func (h *OrderHandlers) cancelOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "orderId")
	if !ok {
		return
	}
	if !h.pathUserMatches(w, r, identity) {
		return
	}

	order, err := h.orders.CancelOrder(r.Context(), orderID, identity.UserID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildOrder(order))
}

func (h *OrderHandlers) pathUserMatches(w http.ResponseWriter, r *http.Request, identity *auth.Identity) bool {
	userID := strings.TrimSpace(chi.URLParam(r, "userId"))
	if userID != "" && userID != identity.UserID {
		writeError(r.Context(), w, domain.ErrAccessDenied)
		return false
	}
	return true
}

func (h *OrderHandlers) adminListOrders(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseOrderFilter(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), filter)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildOrders(orders))
}

func (h *OrderHandlers) adminRecentOrders(w http.ResponseWriter, r *http.Request) {
	limit, ok := intQuery(w, r, "limit")
	if !ok {
		return
	}

	orders, err := h.orders.RecentOrders(r.Context(), limit)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildOrders(orders))
}

func (h *OrderHandlers) adminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orders.Stats(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildStats(stats))
}

func (h *OrderHandlers) adminGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "orderId")
	if !ok {
		return
	}

	order, err := h.orders.GetOrderForAdmin(r.Context(), orderID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildOrder(order))
}

func (h *OrderHandlers) adminHistory(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "orderId")
	if !ok {
		return
	}

	changes, err := h.orders.HistoryForAdmin(r.Context(), orderID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildStatusChanges(changes))
}

func (h *OrderHandlers) adminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "orderId")
	if !ok {
		return
	}

	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), orderID, req.Status, identity.UserID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildOrder(order))
}

func parseOrderFilter(w http.ResponseWriter, r *http.Request) (domain.OrderFilter, bool) {
	query := r.URL.Query()
	filter := domain.OrderFilter{OwnerID: strings.TrimSpace(query.Get("user"))}

	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			writeError(r.Context(), w, err)
			return domain.OrderFilter{}, false
		}
		filter.Status = status
	}

	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := strings.TrimSpace(query.Get(name))
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeBadRequest(r.Context(), w, name+" must be an RFC3339 timestamp")
			return domain.OrderFilter{}, false
		}
		*dst = &ts
	}

	limit, ok := intQuery(w, r, "limit")
	if !ok {
		return domain.OrderFilter{}, false
	}
	filter.Limit = limit

	return filter, true
}

func intQuery(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeBadRequest(r.Context(), w, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
