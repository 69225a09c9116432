package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/google/uuid"
	"github.com/nikolayk812/shopflow/internal/domain"
	"github.com/nikolayk812/shopflow/internal/port"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type ProductService struct {
	products port.ProductRepository
	images   port.ImageStore
	logger   *zap.Logger
}

// NewProductService wires the catalog. images may be nil, in which case SetImage is unavailable.
func NewProductService(products port.ProductRepository, images port.ImageStore, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ProductService{
		products: products,
		images:   images,
		logger:   logger,
	}
}

func (s *ProductService) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	product.ID = uuid.New()
	product.ImageURL, product.ImageKey = "", ""

	created, err := s.products.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, fmt.Errorf("products.CreateProduct: %w", err)
	}

	return created, nil
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	product, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("products.GetProduct: %w", err)
	}

	return product, nil
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("products.ListProducts: %w", err)
	}

	return products, nil
}

// Update replaces the catalog fields of a product. Existing orders keep the prices they were placed at.
func (s *ProductService) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	current, err := s.products.GetProduct(ctx, product.ID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("products.GetProduct: %w", err)
	}

	product.ImageURL, product.ImageKey = current.ImageURL, current.ImageKey

	updated, err := s.products.UpdateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, fmt.Errorf("products.UpdateProduct: %w", err)
	}

	return updated, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.products.DeleteProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("products.DeleteProduct: %w", err)
	}
	if !deleted {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// SetImage uploads a new product image and drops the previous object.
func (s *ProductService) SetImage(ctx context.Context, id uuid.UUID, contentType string, body io.Reader) (domain.Product, error) {
	if s.images == nil {
		return domain.Product{}, fmt.Errorf("image store is not configured")
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return domain.Product{}, fmt.Errorf("content type %q: %w", contentType, domain.ErrInvalidValue)
	}

	product, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("products.GetProduct: %w", err)
	}

	key := imageKey(id, mediaType)
	url, err := s.images.Put(ctx, key, mediaType, body)
	if err != nil {
		return domain.Product{}, fmt.Errorf("images.Put: %w", err)
	}

	previousKey := product.ImageKey
	product.ImageURL, product.ImageKey = url, key

	updated, err := s.products.UpdateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, fmt.Errorf("products.UpdateProduct: %w", err)
	}

	if previousKey != "" {
		if err := s.images.Delete(ctx, previousKey); err != nil {
			s.logger.Warn("delete previous product image",
				zap.String("product_id", id.String()),
				zap.String("key", previousKey),
				zap.Error(err))
		}
	}

	return updated, nil
}

func imageKey(productID uuid.UUID, mediaType string) string {
	ext := ""
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	return fmt.Sprintf("products/%s/%s%s", productID, strings.ToLower(ulid.Make().String()), ext)
}
