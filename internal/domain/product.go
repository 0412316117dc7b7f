package domain

import "time"

// Product is read-only in the ordering core; only the release date gates
// orderability.
type Product struct {
	ID          int64
	Name        string
	Brand       string
	Price       int64
	ReleaseDate time.Time
}

func (p *Product) ValidateOrderable(now time.Time) error {
	if p.ReleaseDate.After(now) {
		return ErrNotReleased
	}
	return nil
}

// ProductStock tracks quantity per (product, size). StockQuantity is
// mutated only through DecreaseStock/IncreaseStock while the reservation
// service holds the row lock.
type ProductStock struct {
	ID            int64
	ProductID     int64
	Size          int
	StockQuantity int
}

func (s *ProductStock) DecreaseStock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidAmount
	}
	if quantity > s.StockQuantity {
		return ErrInsufficientStock
	}
	s.StockQuantity -= quantity
	return nil
}

func (s *ProductStock) IncreaseStock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidAmount
	}
	s.StockQuantity += quantity
	return nil
}
