package usecase

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/shopkite/ordering-api/internal/domain"
	"github.com/shopkite/ordering-api/internal/repository"
)

type ProductDetail struct {
	Product domain.Product
	Stocks  []domain.ProductStock
}

// CatalogService serves the read-only browse paths. No locks, no
// contention discipline.
type CatalogService struct {
	store repository.Store
}

func NewCatalogService(store repository.Store) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.store.ListProducts(ctx)
}

func (s *CatalogService) GetProductDetail(ctx context.Context, productID int64) (ProductDetail, error) {
	product, err := s.store.GetProduct(ctx, productID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProductDetail{}, domain.ErrProductNotFound
	}
	if err != nil {
		return ProductDetail{}, err
	}

	stocks, err := s.store.ListStocksByProduct(ctx, productID)
	if err != nil {
		return ProductDetail{}, err
	}
	return ProductDetail{Product: product, Stocks: stocks}, nil
}
