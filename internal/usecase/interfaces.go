package usecase

import (
	"context"

	"github.com/shopkite/ordering-api/internal/domain"
)

type BalanceUseCase interface {
	CreateBalance(ctx context.Context, userID, initialAmount int64) error
	Charge(ctx context.Context, userID, amount int64, reason string) (domain.Balance, error)
	Decrease(ctx context.Context, userID, amount int64, reason string) (domain.Balance, error)
	GetBalance(ctx context.Context, userID int64) (domain.Balance, error)
	GetHistory(ctx context.Context, userID int64) ([]domain.BalanceHistory, error)
}

type CouponUseCase interface {
	Issue(ctx context.Context, userID int64, couponCode string) error
	ApplyDiscount(ctx context.Context, userID int64, couponCode string, orderAmount int64) (int64, error)
	ListUserCoupons(ctx context.Context, userID int64) ([]domain.UserCoupon, error)
}

type StockUseCase interface {
	Decrease(ctx context.Context, productID int64, size, quantity int) error
	Increase(ctx context.Context, productID int64, size, quantity int) error
}

type CatalogUseCase interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductDetail(ctx context.Context, productID int64) (ProductDetail, error)
}

type OrderUseCase interface {
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
}
