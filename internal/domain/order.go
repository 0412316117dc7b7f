package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusStockReserved   OrderStatus = "STOCK_RESERVED"
	OrderStatusDiscountApplied OrderStatus = "DISCOUNT_APPLIED"
	OrderStatusPaid            OrderStatus = "PAID"
	OrderStatusCompleted       OrderStatus = "COMPLETED"
	OrderStatusFailed          OrderStatus = "FAILED"
)

type OrderItem struct {
	ProductID int64
	Size      int
	Quantity  int
	UnitPrice int64
}

func (i OrderItem) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

type Order struct {
	ID          string
	UserID      int64
	Items       []OrderItem
	CouponCode  string
	TotalAmount int64
	PaidAmount  int64
	Status      OrderStatus
	CreatedAt   time.Time
}
