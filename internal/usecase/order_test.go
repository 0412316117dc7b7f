package usecase

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/shopkite/ordering-api/internal/domain"
	"github.com/shopkite/ordering-api/internal/repository"
)

type mockStock struct {
	decreaseFn func(ctx context.Context, productID int64, size, quantity int) error
	increaseFn func(ctx context.Context, productID int64, size, quantity int) error
}

func (m *mockStock) Decrease(ctx context.Context, productID int64, size, quantity int) error {
	if m.decreaseFn != nil {
		return m.decreaseFn(ctx, productID, size, quantity)
	}
	return nil
}

func (m *mockStock) Increase(ctx context.Context, productID int64, size, quantity int) error {
	if m.increaseFn != nil {
		return m.increaseFn(ctx, productID, size, quantity)
	}
	return nil
}

type mockCoupons struct {
	applyDiscountFn func(ctx context.Context, userID int64, couponCode string, orderAmount int64) (int64, error)
}

func (m *mockCoupons) Issue(ctx context.Context, userID int64, couponCode string) error {
	return nil
}

func (m *mockCoupons) ApplyDiscount(ctx context.Context, userID int64, couponCode string, orderAmount int64) (int64, error) {
	if m.applyDiscountFn != nil {
		return m.applyDiscountFn(ctx, userID, couponCode, orderAmount)
	}
	return orderAmount, nil
}

func (m *mockCoupons) ListUserCoupons(ctx context.Context, userID int64) ([]domain.UserCoupon, error) {
	return nil, nil
}

type mockBalances struct {
	decreaseFn func(ctx context.Context, userID, amount int64, reason string) (domain.Balance, error)
}

func (m *mockBalances) CreateBalance(ctx context.Context, userID, initialAmount int64) error {
	return nil
}

func (m *mockBalances) Charge(ctx context.Context, userID, amount int64, reason string) (domain.Balance, error) {
	return domain.Balance{}, nil
}

func (m *mockBalances) Decrease(ctx context.Context, userID, amount int64, reason string) (domain.Balance, error) {
	if m.decreaseFn != nil {
		return m.decreaseFn(ctx, userID, amount, reason)
	}
	return domain.Balance{}, nil
}

func (m *mockBalances) GetBalance(ctx context.Context, userID int64) (domain.Balance, error) {
	return domain.Balance{}, nil
}

func (m *mockBalances) GetHistory(ctx context.Context, userID int64) ([]domain.BalanceHistory, error) {
	return nil, nil
}

func orderStore(statuses *[]domain.OrderStatus) *mockStore {
	return &mockStore{
		getProductFn: func(ctx context.Context, productID int64) (domain.Product, error) {
			return domain.Product{ID: productID, Price: 10000}, nil
		},
		updateOrderStatusFn: func(ctx context.Context, orderID string, status domain.OrderStatus) error {
			*statuses = append(*statuses, status)
			return nil
		},
	}
}

func twoItems() []PlaceOrderItem {
	return []PlaceOrderItem{
		{ProductID: 1, Size: 270, Quantity: 2},
		{ProductID: 2, Size: 260, Quantity: 1},
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	var statuses []domain.OrderStatus
	var paidAmount int64
	store := orderStore(&statuses)
	balances := &mockBalances{
		decreaseFn: func(ctx context.Context, userID, amount int64, reason string) (domain.Balance, error) {
			paidAmount = amount
			return domain.Balance{UserID: userID}, nil
		},
	}
	sink := &recordingSink{}

	svc := NewOrderService(store, &mockStock{}, &mockCoupons{}, balances, sink, zap.NewNop())
	order, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{UserID: 1, Items: twoItems()})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if order.TotalAmount != 30000 {
		t.Fatalf("expected total 30000, got %d", order.TotalAmount)
	}
	if paidAmount != 30000 {
		t.Fatalf("expected balance deduction of 30000, got %d", paidAmount)
	}
	if order.Status != domain.OrderStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", order.Status)
	}
	want := []domain.OrderStatus{
		domain.OrderStatusStockReserved,
		domain.OrderStatusPaid,
		domain.OrderStatusCompleted,
	}
	if !slices.Equal(statuses, want) {
		t.Fatalf("expected transitions %v, got %v", want, statuses)
	}
	if !slices.Contains(sink.kinds(), "ORDER_COMPLETED") {
		t.Fatalf("expected ORDER_COMPLETED audit event, got %v", sink.kinds())
	}
}

func TestPlaceOrder_WithCoupon(t *testing.T) {
	var statuses []domain.OrderStatus
	var paidAmount int64
	store := orderStore(&statuses)
	coupons := &mockCoupons{
		applyDiscountFn: func(ctx context.Context, userID int64, couponCode string, orderAmount int64) (int64, error) {
			return orderAmount * 9 / 10, nil
		},
	}
	balances := &mockBalances{
		decreaseFn: func(ctx context.Context, userID, amount int64, reason string) (domain.Balance, error) {
			paidAmount = amount
			return domain.Balance{}, nil
		},
	}

	svc := NewOrderService(store, &mockStock{}, coupons, balances, &recordingSink{}, zap.NewNop())
	order, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		UserID:     1,
		CouponCode: "WELCOME10",
		Items:      twoItems(),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if paidAmount != 27000 {
		t.Fatalf("expected discounted deduction 27000, got %d", paidAmount)
	}
	if order.PaidAmount != 27000 {
		t.Fatalf("expected paid amount 27000, got %d", order.PaidAmount)
	}
	if !slices.Contains(statuses, domain.OrderStatusDiscountApplied) {
		t.Fatalf("expected DISCOUNT_APPLIED transition, got %v", statuses)
	}
}

func TestPlaceOrder_StockFailureCompensatesEarlierItems(t *testing.T) {
	var statuses []domain.OrderStatus
	var restored []int64
	store := orderStore(&statuses)
	stock := &mockStock{
		decreaseFn: func(ctx context.Context, productID int64, size, quantity int) error {
			if productID == 2 {
				return domain.ErrInsufficientStock
			}
			return nil
		},
		increaseFn: func(ctx context.Context, productID int64, size, quantity int) error {
			restored = append(restored, productID)
			return nil
		},
	}

	svc := NewOrderService(store, stock, &mockCoupons{}, &mockBalances{}, &recordingSink{}, zap.NewNop())
	_, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{UserID: 1, Items: twoItems()})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	if !slices.Equal(restored, []int64{1}) {
		t.Fatalf("expected only product 1 restored, got %v", restored)
	}
	if !slices.Contains(statuses, domain.OrderStatusFailed) {
		t.Fatalf("expected FAILED transition, got %v", statuses)
	}
}

func TestPlaceOrder_BalanceFailureCompensatesAllItems(t *testing.T) {
	var statuses []domain.OrderStatus
	var restored []int64
	store := orderStore(&statuses)
	stock := &mockStock{
		increaseFn: func(ctx context.Context, productID int64, size, quantity int) error {
			restored = append(restored, productID)
			return nil
		},
	}
	balances := &mockBalances{
		decreaseFn: func(ctx context.Context, userID, amount int64, reason string) (domain.Balance, error) {
			return domain.Balance{}, domain.ErrInsufficientFunds
		},
	}
	sink := &recordingSink{}

	svc := NewOrderService(store, stock, &mockCoupons{}, balances, sink, zap.NewNop())
	_, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{UserID: 1, Items: twoItems()})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	if !slices.Equal(restored, []int64{1, 2}) {
		t.Fatalf("expected both items restored, got %v", restored)
	}
	kinds := sink.kinds()
	if !slices.Contains(kinds, "STOCK_COMPENSATED") || !slices.Contains(kinds, "ORDER_FAILED") {
		t.Fatalf("expected compensation and failure audit events, got %v", kinds)
	}
}

func TestPlaceOrder_CompensationFailureEscalates(t *testing.T) {
	var statuses []domain.OrderStatus
	store := orderStore(&statuses)
	stock := &mockStock{
		increaseFn: func(ctx context.Context, productID int64, size, quantity int) error {
			return domain.ErrLockTimeout
		},
	}
	balances := &mockBalances{
		decreaseFn: func(ctx context.Context, userID, amount int64, reason string) (domain.Balance, error) {
			return domain.Balance{}, domain.ErrInsufficientFunds
		},
	}

	svc := NewOrderService(store, stock, &mockCoupons{}, balances, &recordingSink{}, zap.NewNop())
	_, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{UserID: 1, Items: twoItems()})
	if !errors.Is(err, domain.ErrCompensationFailed) {
		t.Fatalf("expected ErrCompensationFailed, got %v", err)
	}
	if !slices.Contains(statuses, domain.OrderStatusFailed) {
		t.Fatalf("expected FAILED transition, got %v", statuses)
	}
}

func TestPlaceOrder_CouponFailureCompensates(t *testing.T) {
	var statuses []domain.OrderStatus
	var restored []int64
	store := orderStore(&statuses)
	stock := &mockStock{
		increaseFn: func(ctx context.Context, productID int64, size, quantity int) error {
			restored = append(restored, productID)
			return nil
		},
	}
	coupons := &mockCoupons{
		applyDiscountFn: func(ctx context.Context, userID int64, couponCode string, orderAmount int64) (int64, error) {
			return 0, domain.ErrNotIssued
		},
	}

	svc := NewOrderService(store, stock, coupons, &mockBalances{}, &recordingSink{}, zap.NewNop())
	_, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		UserID:     1,
		CouponCode: "WELCOME10",
		Items:      twoItems(),
	})
	if !errors.Is(err, domain.ErrNotIssued) {
		t.Fatalf("expected ErrNotIssued, got %v", err)
	}
	if len(restored) != 2 {
		t.Fatalf("expected both items restored, got %v", restored)
	}
}

func TestPlaceOrder_InsertsOrderAndItemsInOneTransaction(t *testing.T) {
	var statuses []domain.OrderStatus
	store := orderStore(&statuses)
	var inTx, insertedInTx bool
	store.execTxFn = func(ctx context.Context, fn func(repository.Querier) error) error {
		inTx = true
		defer func() { inTx = false }()
		return fn(store)
	}
	store.insertOrderFn = func(ctx context.Context, o domain.Order) error {
		insertedInTx = inTx
		if len(o.Items) != 2 {
			t.Errorf("expected 2 items in the inserted order, got %d", len(o.Items))
		}
		return nil
	}

	svc := NewOrderService(store, &mockStock{}, &mockCoupons{}, &mockBalances{}, &recordingSink{}, zap.NewNop())
	if _, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{UserID: 1, Items: twoItems()}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !insertedInTx {
		t.Fatal("expected the order insert to run inside a transaction")
	}
}

func TestPlaceOrder_CompletionWriteFailureSurfaces(t *testing.T) {
	writeErr := errors.New("connection reset")
	store := &mockStore{
		getProductFn: func(ctx context.Context, productID int64) (domain.Product, error) {
			return domain.Product{ID: productID, Price: 10000}, nil
		},
		updateOrderStatusFn: func(ctx context.Context, orderID string, status domain.OrderStatus) error {
			if status == domain.OrderStatusCompleted {
				return writeErr
			}
			return nil
		},
	}

	svc := NewOrderService(store, &mockStock{}, &mockCoupons{}, &mockBalances{}, &recordingSink{}, zap.NewNop())
	_, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{UserID: 1, Items: twoItems()})
	if !errors.Is(err, writeErr) {
		t.Fatalf("expected the completion write error to surface, got %v", err)
	}
}

func TestPlaceOrder_PaidAmountWriteFailureSurfaces(t *testing.T) {
	writeErr := errors.New("connection reset")
	var statuses []domain.OrderStatus
	store := orderStore(&statuses)
	store.updateOrderPaidAmountFn = func(ctx context.Context, orderID string, paidAmount int64) error {
		return writeErr
	}

	svc := NewOrderService(store, &mockStock{}, &mockCoupons{}, &mockBalances{}, &recordingSink{}, zap.NewNop())
	_, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{UserID: 1, Items: twoItems()})
	if !errors.Is(err, writeErr) {
		t.Fatalf("expected the paid amount write error to surface, got %v", err)
	}
	if slices.Contains(statuses, domain.OrderStatusCompleted) {
		t.Fatalf("expected no COMPLETED transition after a failed paid amount write, got %v", statuses)
	}
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	svc := NewOrderService(&mockStore{}, &mockStock{}, &mockCoupons{}, &mockBalances{}, &recordingSink{}, zap.NewNop())
	_, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{UserID: 1})
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	store := &mockStore{
		getOrderFn: func(ctx context.Context, orderID string) (domain.Order, error) {
			return domain.Order{}, pgx.ErrNoRows
		},
	}

	svc := NewOrderService(store, &mockStock{}, &mockCoupons{}, &mockBalances{}, &recordingSink{}, zap.NewNop())
	_, err := svc.GetOrder(context.Background(), "missing")
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
