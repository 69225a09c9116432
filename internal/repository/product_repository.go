package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/shopflow/internal/db"
	"github.com/nikolayk812/shopflow/internal/domain"
	"github.com/nikolayk812/shopflow/internal/port"
	"github.com/shopspring/decimal"
)

type productRepository struct {
	q *db.Queries
}

func NewProduct(pool *pgxpool.Pool) (port.ProductRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}

	return &productRepository{q: db.New(pool)}, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if err := validateProduct(product); err != nil {
		return domain.Product{}, err
	}

	id := product.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row, err := r.q.CreateProduct(ctx, db.CreateProductParams{
		ID:            id,
		Name:          product.Name,
		Description:   product.Description,
		PriceAmount:   product.Price.Amount,
		PriceCurrency: product.Price.Currency.String(),
		ImageUrl:      optional(product.ImageURL),
		ImageKey:      optional(product.ImageKey),
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("q.CreateProduct: %w", err)
	}

	return mapProductToDomain(row)
}

func (r *productRepository) GetProduct(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	row, err := r.q.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("q.GetProduct: %w", notFound(err))
	}

	return mapProductToDomain(row)
}

func (r *productRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.q.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("q.ListProducts: %w", err)
	}

	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		product, err := mapProductToDomain(row)
		if err != nil {
			return nil, fmt.Errorf("mapProductToDomain: %w", err)
		}
		products = append(products, product)
	}

	return products, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if product.ID == uuid.Nil {
		return domain.Product{}, fmt.Errorf("productID is empty")
	}
	if err := validateProduct(product); err != nil {
		return domain.Product{}, err
	}

	row, err := r.q.UpdateProduct(ctx, db.UpdateProductParams{
		ID:            product.ID,
		Name:          product.Name,
		Description:   product.Description,
		PriceAmount:   product.Price.Amount,
		PriceCurrency: product.Price.Currency.String(),
		ImageUrl:      optional(product.ImageURL),
		ImageKey:      optional(product.ImageKey),
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("q.UpdateProduct: %w", notFound(err))
	}

	return mapProductToDomain(row)
}

func (r *productRepository) DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error) {
	rowsAffected, err := r.q.DeleteProduct(ctx, id)
	if err != nil {
		return false, fmt.Errorf("q.DeleteProduct: %w", err)
	}

	return rowsAffected > 0, nil
}

func validateProduct(product domain.Product) error {
	if product.Name == "" {
		return fmt.Errorf("name is empty: %w", domain.ErrInvalidValue)
	}
	if product.Price.Amount.IsNegative() {
		return fmt.Errorf("price %s is negative: %w", product.Price.Amount, domain.ErrInvalidValue)
	}
	return nil
}

func mapProductToDomain(row db.Product) (domain.Product, error) {
	price, err := mapMoney(row.PriceAmount, row.PriceCurrency)
	if err != nil {
		return domain.Product{}, err
	}

	return domain.Product{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Price:       price,
		ImageURL:    deref(row.ImageUrl),
		ImageKey:    deref(row.ImageKey),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

func mapMoney(amount decimal.Decimal, code string) (domain.Money, error) {
	unit, err := parseCurrency(code)
	if err != nil {
		return domain.Money{}, err
	}
	return domain.Money{Amount: amount, Currency: unit}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
