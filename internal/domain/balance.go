package domain

import "time"

// Balance is a user's prepaid balance in currency minor units. Amount is
// guarded by Charge/Decrease; Version is the optimistic-lock counter the
// repository checks on every conditional write.
type Balance struct {
	UserID    int64
	Amount    int64
	Version   int64
	UpdatedAt time.Time
}

func (b *Balance) Charge(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	b.Amount += amount
	return nil
}

func (b *Balance) Decrease(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > b.Amount {
		return ErrInsufficientFunds
	}
	b.Amount -= amount
	return nil
}

type BalanceChangeType string

const (
	BalanceChangeCharge BalanceChangeType = "CHARGE"
	BalanceChangeDeduct BalanceChangeType = "DEDUCT"
)

// BalanceHistory is an append-only record of one committed balance
// mutation. Never updated or deleted.
type BalanceHistory struct {
	ID        int64
	UserID    int64
	Amount    int64
	Type      BalanceChangeType
	Reason    string
	CreatedAt time.Time
}
