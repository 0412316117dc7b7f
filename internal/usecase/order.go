package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/shopkite/ordering-api/internal/audit"
	"github.com/shopkite/ordering-api/internal/domain"
	"github.com/shopkite/ordering-api/internal/repository"
)

type PlaceOrderItem struct {
	ProductID int64
	Size      int
	Quantity  int
}

type PlaceOrderCommand struct {
	UserID     int64
	CouponCode string
	Items      []PlaceOrderItem
}

// OrderService sequences the three contended resources for one order:
// stock first (each item in its own committed transaction), then the
// optional coupon, then the balance. Stock decrements are already
// committed by the time coupon or balance can fail, so every failure
// after the first reservation triggers a compensating restock before the
// order is marked failed.
type OrderService struct {
	store    repository.Store
	stock    StockUseCase
	coupons  CouponUseCase
	balances BalanceUseCase
	sink     audit.Sink
	log      *zap.Logger
}

func NewOrderService(store repository.Store, stock StockUseCase, coupons CouponUseCase, balances BalanceUseCase, sink audit.Sink, log *zap.Logger) *OrderService {
	return &OrderService{
		store:    store,
		stock:    stock,
		coupons:  coupons,
		balances: balances,
		sink:     sink,
		log:      log,
	}
}

func (s *OrderService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (domain.Order, error) {
	if len(cmd.Items) == 0 {
		return domain.Order{}, domain.ErrInvalidAmount
	}

	order := domain.Order{
		ID:         uuid.NewString(),
		UserID:     cmd.UserID,
		CouponCode: cmd.CouponCode,
		Status:     domain.OrderStatusPending,
		CreatedAt:  time.Now(),
	}
	for _, item := range cmd.Items {
		if item.Quantity <= 0 {
			return domain.Order{}, domain.ErrInvalidAmount
		}
		product, err := s.store.GetProduct(ctx, item.ProductID)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, domain.ErrProductNotFound
		}
		if err != nil {
			return domain.Order{}, err
		}
		orderItem := domain.OrderItem{
			ProductID: item.ProductID,
			Size:      item.Size,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		}
		order.Items = append(order.Items, orderItem)
		order.TotalAmount += orderItem.Subtotal()
	}

	// One transaction for the order row and its items so a mid-insert
	// failure cannot leave a partial order behind.
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		return q.InsertOrder(ctx, order)
	})
	if err != nil {
		return domain.Order{}, err
	}

	var reserved []PlaceOrderItem
	for _, item := range cmd.Items {
		if err := s.stock.Decrease(ctx, item.ProductID, item.Size, item.Quantity); err != nil {
			return domain.Order{}, s.fail(ctx, &order, reserved, err)
		}
		reserved = append(reserved, item)
	}
	s.transition(ctx, &order, domain.OrderStatusStockReserved)

	paid := order.TotalAmount
	if cmd.CouponCode != "" {
		discounted, err := s.coupons.ApplyDiscount(ctx, cmd.UserID, cmd.CouponCode, order.TotalAmount)
		if err != nil {
			return domain.Order{}, s.fail(ctx, &order, reserved, err)
		}
		paid = discounted
		s.transition(ctx, &order, domain.OrderStatusDiscountApplied)
	}

	if _, err := s.balances.Decrease(ctx, cmd.UserID, paid, "order "+order.ID); err != nil {
		return domain.Order{}, s.fail(ctx, &order, reserved, err)
	}
	order.PaidAmount = paid
	if err := s.store.UpdateOrderPaidAmount(ctx, order.ID, paid); err != nil {
		return domain.Order{}, fmt.Errorf("persist paid amount: %w", err)
	}
	s.transition(ctx, &order, domain.OrderStatusPaid)

	// The completed write is the record of truth for the caller's money
	// having been taken, so unlike the intermediate transitions it must
	// not be lost silently.
	order.Status = domain.OrderStatusCompleted
	if err := s.store.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusCompleted); err != nil {
		return domain.Order{}, fmt.Errorf("persist order completion: %w", err)
	}

	s.sink.Record(ctx, audit.Event{
		UserID:    cmd.UserID,
		Amount:    paid,
		Kind:      audit.KindOrderCompleted,
		Reason:    order.ID,
		Timestamp: time.Now(),
	})
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order, err
}

func (s *OrderService) transition(ctx context.Context, order *domain.Order, status domain.OrderStatus) {
	order.Status = status
	if err := s.store.UpdateOrderStatus(ctx, order.ID, status); err != nil {
		s.log.Warn("failed to persist order status",
			zap.String("order_id", order.ID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}

// fail restores any stock this order already committed-decremented, marks
// the order failed, and propagates the cause. A restock failure outranks
// the cause: it means sellable stock leaked and someone has to look.
func (s *OrderService) fail(ctx context.Context, order *domain.Order, reserved []PlaceOrderItem, cause error) error {
	compErr := s.compensate(ctx, order, reserved)
	s.transition(ctx, order, domain.OrderStatusFailed)

	s.sink.Record(ctx, audit.Event{
		UserID:    order.UserID,
		Amount:    order.TotalAmount,
		Kind:      audit.KindOrderFailed,
		Reason:    cause.Error(),
		Timestamp: time.Now(),
	})

	if compErr != nil {
		return fmt.Errorf("%w: %v (order failure cause: %v)", domain.ErrCompensationFailed, compErr, cause)
	}
	return cause
}

func (s *OrderService) compensate(ctx context.Context, order *domain.Order, reserved []PlaceOrderItem) error {
	var errs []error
	for _, item := range reserved {
		if err := s.stock.Increase(ctx, item.ProductID, item.Size, item.Quantity); err != nil {
			s.log.Error("compensating restock failed",
				zap.String("order_id", order.ID),
				zap.Int64("product_id", item.ProductID),
				zap.Int("size", item.Size),
				zap.Int("quantity", item.Quantity),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		s.sink.Record(ctx, audit.Event{
			UserID:    order.UserID,
			Amount:    int64(item.Quantity),
			Kind:      audit.KindStockCompensated,
			Reason:    order.ID,
			Timestamp: time.Now(),
		})
	}
	return errors.Join(errs...)
}
