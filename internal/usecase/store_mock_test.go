package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/shopkite/ordering-api/internal/audit"
	"github.com/shopkite/ordering-api/internal/domain"
	"github.com/shopkite/ordering-api/internal/repository"
)

type mockStore struct {
	insertBalanceFn          func(ctx context.Context, userID, amount int64) error
	getBalanceFn             func(ctx context.Context, userID int64) (domain.Balance, error)
	updateBalanceVersionedFn func(ctx context.Context, b domain.Balance) (int64, error)
	insertBalanceHistoryFn   func(ctx context.Context, h domain.BalanceHistory) error
	listBalanceHistoryFn     func(ctx context.Context, userID int64) ([]domain.BalanceHistory, error)

	getCouponByCodeFn          func(ctx context.Context, code string) (domain.Coupon, error)
	getCouponByCodeForUpdateFn func(ctx context.Context, code string) (domain.Coupon, error)
	decrementCouponQuantityFn  func(ctx context.Context, couponID int64) (int64, error)
	couponIssueExistsFn        func(ctx context.Context, userID, couponID int64) (bool, error)
	insertCouponIssueFn        func(ctx context.Context, userID, couponID int64, issuedAt time.Time) error
	getCouponIssueForUpdateFn  func(ctx context.Context, userID, couponID int64) (domain.CouponIssue, error)
	markCouponIssueUsedFn      func(ctx context.Context, issueID int64) (int64, error)
	listUserCouponsFn          func(ctx context.Context, userID int64) ([]domain.UserCoupon, error)

	getProductFn          func(ctx context.Context, productID int64) (domain.Product, error)
	listProductsFn        func(ctx context.Context) ([]domain.Product, error)
	getStockForUpdateFn   func(ctx context.Context, productID int64, size int) (domain.ProductStock, error)
	updateStockQuantityFn func(ctx context.Context, stockID int64, quantity int) error
	listStocksByProductFn func(ctx context.Context, productID int64) ([]domain.ProductStock, error)

	insertOrderFn           func(ctx context.Context, o domain.Order) error
	updateOrderStatusFn     func(ctx context.Context, orderID string, status domain.OrderStatus) error
	updateOrderPaidAmountFn func(ctx context.Context, orderID string, paidAmount int64) error
	getOrderFn              func(ctx context.Context, orderID string) (domain.Order, error)

	execTxFn func(ctx context.Context, fn func(repository.Querier) error) error
}

func (m *mockStore) InsertBalance(ctx context.Context, userID, amount int64) error {
	if m.insertBalanceFn != nil {
		return m.insertBalanceFn(ctx, userID, amount)
	}
	return nil
}

func (m *mockStore) GetBalance(ctx context.Context, userID int64) (domain.Balance, error) {
	if m.getBalanceFn != nil {
		return m.getBalanceFn(ctx, userID)
	}
	return domain.Balance{}, nil
}

func (m *mockStore) UpdateBalanceVersioned(ctx context.Context, b domain.Balance) (int64, error) {
	if m.updateBalanceVersionedFn != nil {
		return m.updateBalanceVersionedFn(ctx, b)
	}
	return 1, nil
}

func (m *mockStore) InsertBalanceHistory(ctx context.Context, h domain.BalanceHistory) error {
	if m.insertBalanceHistoryFn != nil {
		return m.insertBalanceHistoryFn(ctx, h)
	}
	return nil
}

func (m *mockStore) ListBalanceHistory(ctx context.Context, userID int64) ([]domain.BalanceHistory, error) {
	if m.listBalanceHistoryFn != nil {
		return m.listBalanceHistoryFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockStore) GetCouponByCode(ctx context.Context, code string) (domain.Coupon, error) {
	if m.getCouponByCodeFn != nil {
		return m.getCouponByCodeFn(ctx, code)
	}
	return domain.Coupon{}, nil
}

func (m *mockStore) GetCouponByCodeForUpdate(ctx context.Context, code string) (domain.Coupon, error) {
	if m.getCouponByCodeForUpdateFn != nil {
		return m.getCouponByCodeForUpdateFn(ctx, code)
	}
	return domain.Coupon{}, nil
}

func (m *mockStore) DecrementCouponQuantity(ctx context.Context, couponID int64) (int64, error) {
	if m.decrementCouponQuantityFn != nil {
		return m.decrementCouponQuantityFn(ctx, couponID)
	}
	return 1, nil
}

func (m *mockStore) CouponIssueExists(ctx context.Context, userID, couponID int64) (bool, error) {
	if m.couponIssueExistsFn != nil {
		return m.couponIssueExistsFn(ctx, userID, couponID)
	}
	return false, nil
}

func (m *mockStore) InsertCouponIssue(ctx context.Context, userID, couponID int64, issuedAt time.Time) error {
	if m.insertCouponIssueFn != nil {
		return m.insertCouponIssueFn(ctx, userID, couponID, issuedAt)
	}
	return nil
}

func (m *mockStore) GetCouponIssueForUpdate(ctx context.Context, userID, couponID int64) (domain.CouponIssue, error) {
	if m.getCouponIssueForUpdateFn != nil {
		return m.getCouponIssueForUpdateFn(ctx, userID, couponID)
	}
	return domain.CouponIssue{}, nil
}

func (m *mockStore) MarkCouponIssueUsed(ctx context.Context, issueID int64) (int64, error) {
	if m.markCouponIssueUsedFn != nil {
		return m.markCouponIssueUsedFn(ctx, issueID)
	}
	return 1, nil
}

func (m *mockStore) ListUserCoupons(ctx context.Context, userID int64) ([]domain.UserCoupon, error) {
	if m.listUserCouponsFn != nil {
		return m.listUserCouponsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockStore) GetProduct(ctx context.Context, productID int64) (domain.Product, error) {
	if m.getProductFn != nil {
		return m.getProductFn(ctx, productID)
	}
	return domain.Product{}, nil
}

func (m *mockStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if m.listProductsFn != nil {
		return m.listProductsFn(ctx)
	}
	return nil, nil
}

func (m *mockStore) GetStockForUpdate(ctx context.Context, productID int64, size int) (domain.ProductStock, error) {
	if m.getStockForUpdateFn != nil {
		return m.getStockForUpdateFn(ctx, productID, size)
	}
	return domain.ProductStock{}, nil
}

func (m *mockStore) UpdateStockQuantity(ctx context.Context, stockID int64, quantity int) error {
	if m.updateStockQuantityFn != nil {
		return m.updateStockQuantityFn(ctx, stockID, quantity)
	}
	return nil
}

func (m *mockStore) ListStocksByProduct(ctx context.Context, productID int64) ([]domain.ProductStock, error) {
	if m.listStocksByProductFn != nil {
		return m.listStocksByProductFn(ctx, productID)
	}
	return nil, nil
}

func (m *mockStore) InsertOrder(ctx context.Context, o domain.Order) error {
	if m.insertOrderFn != nil {
		return m.insertOrderFn(ctx, o)
	}
	return nil
}

func (m *mockStore) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	if m.updateOrderStatusFn != nil {
		return m.updateOrderStatusFn(ctx, orderID, status)
	}
	return nil
}

func (m *mockStore) UpdateOrderPaidAmount(ctx context.Context, orderID string, paidAmount int64) error {
	if m.updateOrderPaidAmountFn != nil {
		return m.updateOrderPaidAmountFn(ctx, orderID, paidAmount)
	}
	return nil
}

func (m *mockStore) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if m.getOrderFn != nil {
		return m.getOrderFn(ctx, orderID)
	}
	return domain.Order{}, nil
}

func (m *mockStore) ExecTx(ctx context.Context, fn func(repository.Querier) error) error {
	if m.execTxFn != nil {
		return m.execTxFn(ctx, fn)
	}
	return fn(m)
}

// recordingSink collects audit event kinds for assertions. Services may
// record from concurrent goroutines, so access is locked.
type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *recordingSink) Record(_ context.Context, e audit.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) kinds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kinds []string
	for _, e := range s.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}
