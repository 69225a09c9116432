package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nikolayk812/shopflow/internal/domain"
	"golang.org/x/text/currency"
)

const maxImageSize = 5 << 20

type ProductService interface {
	Create(ctx context.Context, product domain.Product) (domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, product domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetImage(ctx context.Context, id uuid.UUID, contentType string, body io.Reader) (domain.Product, error)
}

type ProductHandlers struct {
	products ProductService
}

func NewProductHandlers(products ProductService) *ProductHandlers {
	return &ProductHandlers{products: products}
}

// Routes registers the anonymous catalog endpoints.
func (h *ProductHandlers) Routes(r chi.Router) {
	r.Get("/", h.listProducts)
	r.Get("/{productId}", h.getProduct)
}

// AdminRoutes registers catalog writes; the caller mounts them behind an admin check.
func (h *ProductHandlers) AdminRoutes(r chi.Router) {
	r.Post("/products", h.createProduct)
	r.Put("/products/{productId}", h.updateProduct)
	r.Delete("/products/{productId}", h.deleteProduct)
	r.Put("/products/{productId}/image", h.setImage)
}

func (h *ProductHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildProducts(products))
}

func (h *ProductHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "productId")
	if !ok {
		return
	}

	product, err := h.products.Get(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildProduct(product))
}

func (h *ProductHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := decodeProduct(w, r)
	if !ok {
		return
	}

	created, err := h.products.Create(r.Context(), product)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, buildProduct(created))
}

func (h *ProductHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "productId")
	if !ok {
		return
	}

	product, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	product.ID = id

	updated, err := h.products.Update(r.Context(), product)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildProduct(updated))
}

func (h *ProductHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "productId")
	if !ok {
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandlers) setImage(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "productId")
	if !ok {
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxImageSize)
	product, err := h.products.SetImage(r.Context(), id, r.Header.Get("Content-Type"), body)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildProduct(product))
}

func decodeProduct(w http.ResponseWriter, r *http.Request) (domain.Product, bool) {
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return domain.Product{}, false
	}

	unit, err := currency.ParseISO(strings.TrimSpace(req.Currency))
	if err != nil {
		writeBadRequest(r.Context(), w, "currency must be an ISO 4217 code")
		return domain.Product{}, false
	}

	return domain.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       domain.Money{Amount: req.Price, Currency: unit},
	}, true
}
