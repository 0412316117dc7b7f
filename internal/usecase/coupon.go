package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/shopkite/ordering-api/internal/audit"
	"github.com/shopkite/ordering-api/internal/domain"
	"github.com/shopkite/ordering-api/internal/repository"
)

// CouponService allocates from finite coupon pools. Issuance serializes
// all contenders for one coupon behind an exclusive row lock held for the
// transaction, so the quantity check and the decrement can never race.
type CouponService struct {
	store repository.Store
	sink  audit.Sink
	log   *zap.Logger
}

func NewCouponService(store repository.Store, sink audit.Sink, log *zap.Logger) *CouponService {
	return &CouponService{store: store, sink: sink, log: log}
}

func (s *CouponService) Issue(ctx context.Context, userID int64, couponCode string) error {
	var issued domain.Coupon
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		coupon, err := q.GetCouponByCodeForUpdate(ctx, couponCode)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrCouponNotFound
		}
		if err != nil {
			return translateLockErr(err)
		}

		if err := coupon.ValidateUsable(time.Now()); err != nil {
			return err
		}

		exists, err := q.CouponIssueExists(ctx, userID, coupon.ID)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrAlreadyIssued
		}

		affected, err := q.DecrementCouponQuantity(ctx, coupon.ID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrAlreadyExhausted
		}

		if err := q.InsertCouponIssue(ctx, userID, coupon.ID, time.Now()); err != nil {
			// Unique index backstop; the lock should make this unreachable.
			if repository.IsUniqueViolation(err) {
				return domain.ErrAlreadyIssued
			}
			return err
		}

		issued = coupon
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Debug("coupon issued",
		zap.Int64("user_id", userID),
		zap.String("code", couponCode),
		zap.Int("remaining", issued.RemainingQuantity-1),
	)
	s.sink.Record(ctx, audit.Event{
		UserID:    userID,
		Amount:    issued.DiscountValue,
		Kind:      audit.KindCouponIssue,
		Reason:    couponCode,
		Timestamp: time.Now(),
	})
	return nil
}

// ApplyDiscount consumes a previously issued coupon for one order.
// Marking the issue used is a one-way transition; a second call fails.
func (s *CouponService) ApplyDiscount(ctx context.Context, userID int64, couponCode string, orderAmount int64) (int64, error) {
	var discounted int64
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		coupon, err := q.GetCouponByCode(ctx, couponCode)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrCouponNotFound
		}
		if err != nil {
			return err
		}

		issue, err := q.GetCouponIssueForUpdate(ctx, userID, coupon.ID)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotIssued
		}
		if err != nil {
			return translateLockErr(err)
		}

		if err := issue.MarkAsUsed(); err != nil {
			return err
		}
		if coupon.IsExpired(time.Now()) {
			return domain.ErrCouponExpired
		}

		affected, err := q.MarkCouponIssueUsed(ctx, issue.ID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrAlreadyIssued
		}

		discounted = coupon.Type.ApplyDiscount(orderAmount, coupon.DiscountValue)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return discounted, nil
}

func (s *CouponService) ListUserCoupons(ctx context.Context, userID int64) ([]domain.UserCoupon, error) {
	return s.store.ListUserCoupons(ctx, userID)
}
