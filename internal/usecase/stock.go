package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/shopkite/ordering-api/internal/domain"
	"github.com/shopkite/ordering-api/internal/repository"
)

// StockService decrements per-SKU stock under a row lock. Every call runs
// in its own transaction on the pool and commits before the caller's
// order flow continues, which keeps the lock hold time on the hottest
// rows bounded. The flip side is that a later failure in the same order
// cannot roll this back; the orchestrator compensates with Increase.
type StockService struct {
	store repository.Store
	log   *zap.Logger
}

func NewStockService(store repository.Store, log *zap.Logger) *StockService {
	return &StockService{store: store, log: log}
}

func (s *StockService) Decrease(ctx context.Context, productID int64, size, quantity int) error {
	return s.store.ExecTx(ctx, func(q repository.Querier) error {
		product, err := q.GetProduct(ctx, productID)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrProductNotFound
		}
		if err != nil {
			return err
		}
		if err := product.ValidateOrderable(time.Now()); err != nil {
			return err
		}

		stock, err := q.GetStockForUpdate(ctx, productID, size)
		if errors.Is(err, pgx.ErrNoRows) {
			// No row for this (product, size) means nothing to sell.
			return domain.ErrInsufficientStock
		}
		if err != nil {
			return translateLockErr(err)
		}

		if err := stock.DecreaseStock(quantity); err != nil {
			return err
		}
		return q.UpdateStockQuantity(ctx, stock.ID, stock.StockQuantity)
	})
}

// Increase restores stock after a downstream failure. Same lock
// discipline as Decrease.
func (s *StockService) Increase(ctx context.Context, productID int64, size, quantity int) error {
	s.log.Debug("restoring stock",
		zap.Int64("product_id", productID),
		zap.Int("size", size),
		zap.Int("quantity", quantity),
	)
	return s.store.ExecTx(ctx, func(q repository.Querier) error {
		stock, err := q.GetStockForUpdate(ctx, productID, size)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrInsufficientStock
		}
		if err != nil {
			return translateLockErr(err)
		}

		if err := stock.IncreaseStock(quantity); err != nil {
			return err
		}
		return q.UpdateStockQuantity(ctx, stock.ID, stock.StockQuantity)
	})
}
