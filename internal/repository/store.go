package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopkite/ordering-api/internal/domain"
)

// Querier is the set of row operations available both on the pool and
// inside a transaction.
type Querier interface {
	InsertBalance(ctx context.Context, userID, amount int64) error
	GetBalance(ctx context.Context, userID int64) (domain.Balance, error)
	UpdateBalanceVersioned(ctx context.Context, b domain.Balance) (int64, error)
	InsertBalanceHistory(ctx context.Context, h domain.BalanceHistory) error
	ListBalanceHistory(ctx context.Context, userID int64) ([]domain.BalanceHistory, error)

	GetCouponByCode(ctx context.Context, code string) (domain.Coupon, error)
	GetCouponByCodeForUpdate(ctx context.Context, code string) (domain.Coupon, error)
	DecrementCouponQuantity(ctx context.Context, couponID int64) (int64, error)
	CouponIssueExists(ctx context.Context, userID, couponID int64) (bool, error)
	InsertCouponIssue(ctx context.Context, userID, couponID int64, issuedAt time.Time) error
	GetCouponIssueForUpdate(ctx context.Context, userID, couponID int64) (domain.CouponIssue, error)
	MarkCouponIssueUsed(ctx context.Context, issueID int64) (int64, error)
	ListUserCoupons(ctx context.Context, userID int64) ([]domain.UserCoupon, error)

	GetProduct(ctx context.Context, productID int64) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetStockForUpdate(ctx context.Context, productID int64, size int) (domain.ProductStock, error)
	UpdateStockQuantity(ctx context.Context, stockID int64, quantity int) error
	ListStocksByProduct(ctx context.Context, productID int64) ([]domain.ProductStock, error)

	InsertOrder(ctx context.Context, o domain.Order) error
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
	UpdateOrderPaidAmount(ctx context.Context, orderID string, paidAmount int64) error
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
}

type Store interface {
	Querier
	// ExecTx runs fn inside a transaction started directly on the pool.
	// Each call is its own independently-committing scope, so a service
	// that needs requires-new semantics simply calls ExecTx on the Store.
	ExecTx(ctx context.Context, fn func(Querier) error) error
}

type store struct {
	*Queries
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

func New(pool *pgxpool.Pool, lockTimeout time.Duration) Store {
	return &store{
		Queries:     NewQueries(pool),
		pool:        pool,
		lockTimeout: lockTimeout,
	}
}

func (s *store) ExecTx(ctx context.Context, fn func(Querier) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if s.lockTimeout > 0 {
		// SET does not take bind parameters; the value is our own
		// configured integer, not caller input.
		_, err = tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds()))
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("set lock_timeout: %w", err)
		}
	}

	if err := fn(NewQueries(tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx err: %v, rollback err: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// IsLockTimeout reports whether err is Postgres 55P03, a lock wait that
// exceeded lock_timeout.
func IsLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "55P03"
}

// IsUniqueViolation reports whether err is Postgres 23505.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
