package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nikolayk812/shopflow/internal/auth"
	"github.com/nikolayk812/shopflow/internal/domain"
)

type CartService interface {
	GetOrCreateCart(ctx context.Context, requesterID, userID string) (domain.Cart, error)
	GetCart(ctx context.Context, requesterID string, cartID uuid.UUID) (domain.Cart, error)
	ListItems(ctx context.Context, requesterID string, cartID uuid.UUID) ([]domain.CartItem, error)
	AddItem(ctx context.Context, requesterID string, cartID, productID uuid.UUID, quantity int) (domain.Cart, error)
	RemoveItem(ctx context.Context, requesterID string, cartID, productID uuid.UUID) (domain.Cart, error)
}

type CartHandlers struct {
	authn *auth.Authenticator
	carts CartService
}

func NewCartHandlers(authn *auth.Authenticator, carts CartService) *CartHandlers {
	return &CartHandlers{authn: authn, carts: carts}
}

func (h *CartHandlers) Routes(r chi.Router) {
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Post("/create/{userId}", h.getOrCreateCart)
	r.Get("/user/{userId}", h.getOrCreateCart)
	r.Get("/{cartId}", h.getCart)
	r.Get("/{cartId}/items", h.listItems)
	r.Post("/{cartId}/add/{productId}", h.addItem)
	r.Delete("/{cartId}/remove/{productId}", h.removeItem)
}

func (h *CartHandlers) getOrCreateCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.GetOrCreateCart(r.Context(), identity.UserID, strings.TrimSpace(chi.URLParam(r, "userId")))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildCart(cart))
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	cartID, ok := uuidParam(w, r, "cartId")
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(r.Context(), identity.UserID, cartID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildCart(cart))
}

func (h *CartHandlers) listItems(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	cartID, ok := uuidParam(w, r, "cartId")
	if !ok {
		return
	}

	items, err := h.carts.ListItems(r.Context(), identity.UserID, cartID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildCartLines(items))
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	cartID, ok := uuidParam(w, r, "cartId")
	if !ok {
		return
	}
	productID, ok := uuidParam(w, r, "productId")
	if !ok {
		return
	}

	quantity := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("quantity")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeBadRequest(r.Context(), w, "quantity must be an integer")
			return
		}
		quantity = n
	}

	cart, err := h.carts.AddItem(r.Context(), identity.UserID, cartID, productID, quantity)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildCart(cart))
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	cartID, ok := uuidParam(w, r, "cartId")
	if !ok {
		return
	}
	productID, ok := uuidParam(w, r, "productId")
	if !ok {
		return
	}

	cart, err := h.carts.RemoveItem(r.Context(), identity.UserID, cartID, productID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildCart(cart))
}
