package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/shopkite/ordering-api/internal/audit"
	"github.com/shopkite/ordering-api/internal/domain"
	"github.com/shopkite/ordering-api/internal/repository"
)

// BalanceService mutates user balances under optimistic concurrency. Each
// attempt re-reads the row, applies the change in memory, and writes back
// conditioned on the version it read. A conflicting writer leaves zero
// affected rows; the attempt is repeated against fresh state up to
// retryMax times before escalating.
type BalanceService struct {
	store    repository.Store
	sink     audit.Sink
	log      *zap.Logger
	retryMax int
	backoff  time.Duration
}

func NewBalanceService(store repository.Store, sink audit.Sink, log *zap.Logger, retryMax int, backoff time.Duration) *BalanceService {
	if retryMax <= 0 {
		retryMax = 3
	}
	return &BalanceService{
		store:    store,
		sink:     sink,
		log:      log,
		retryMax: retryMax,
		backoff:  backoff,
	}
}

func (s *BalanceService) CreateBalance(ctx context.Context, userID, initialAmount int64) error {
	if initialAmount < 0 {
		return domain.ErrInvalidAmount
	}
	return s.store.InsertBalance(ctx, userID, initialAmount)
}

func (s *BalanceService) Charge(ctx context.Context, userID, amount int64, reason string) (domain.Balance, error) {
	b, err := s.mutateWithRetry(ctx, userID, func(b *domain.Balance) error {
		return b.Charge(amount)
	})
	if err != nil {
		return domain.Balance{}, err
	}

	s.recordHistory(ctx, userID, amount, domain.BalanceChangeCharge, reason)
	s.sink.Record(ctx, audit.Event{
		UserID:    userID,
		Amount:    amount,
		Kind:      audit.KindBalanceCharge,
		Reason:    reason,
		Timestamp: time.Now(),
	})
	return b, nil
}

func (s *BalanceService) Decrease(ctx context.Context, userID, amount int64, reason string) (domain.Balance, error) {
	b, err := s.mutateWithRetry(ctx, userID, func(b *domain.Balance) error {
		return b.Decrease(amount)
	})
	if err != nil {
		return domain.Balance{}, err
	}

	s.recordHistory(ctx, userID, amount, domain.BalanceChangeDeduct, reason)
	s.sink.Record(ctx, audit.Event{
		UserID:    userID,
		Amount:    amount,
		Kind:      audit.KindBalanceDeduct,
		Reason:    reason,
		Timestamp: time.Now(),
	})
	return b, nil
}

func (s *BalanceService) GetBalance(ctx context.Context, userID int64) (domain.Balance, error) {
	b, err := s.store.GetBalance(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Balance{}, domain.ErrBalanceNotFound
	}
	return b, err
}

func (s *BalanceService) GetHistory(ctx context.Context, userID int64) ([]domain.BalanceHistory, error) {
	return s.store.ListBalanceHistory(ctx, userID)
}

// mutateWithRetry is the optimistic retry combinator. The mutation closure
// runs against freshly read state on every attempt; a stale value from a
// failed attempt is never reused. Business-rule rejections from the
// closure stop the loop immediately.
func (s *BalanceService) mutateWithRetry(ctx context.Context, userID int64, mutate func(*domain.Balance) error) (domain.Balance, error) {
	for attempt := 1; attempt <= s.retryMax; attempt++ {
		b, err := s.store.GetBalance(ctx, userID)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Balance{}, domain.ErrBalanceNotFound
		}
		if err != nil {
			return domain.Balance{}, err
		}

		if err := mutate(&b); err != nil {
			return domain.Balance{}, err
		}

		affected, err := s.store.UpdateBalanceVersioned(ctx, b)
		if err != nil {
			return domain.Balance{}, err
		}
		if affected > 0 {
			b.Version++
			return b, nil
		}

		s.log.Debug("balance version conflict",
			zap.Int64("user_id", userID),
			zap.Int("attempt", attempt),
		)
		if attempt < s.retryMax {
			if err := s.sleep(ctx); err != nil {
				return domain.Balance{}, err
			}
		}
	}
	return domain.Balance{}, fmt.Errorf("%w: %w", domain.ErrConcurrencyExhausted, domain.ErrConcurrencyConflict)
}

// sleep waits a jittered backoff so colliding writers do not re-collide in
// lockstep.
func (s *BalanceService) sleep(ctx context.Context) error {
	delay := s.backoff
	if delay > 0 {
		delay += time.Duration(rand.Int63n(int64(delay)))
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// recordHistory appends the audit row for a committed mutation. It is
// best-effort: a failure is logged, never surfaced.
func (s *BalanceService) recordHistory(ctx context.Context, userID, amount int64, changeType domain.BalanceChangeType, reason string) {
	err := s.store.InsertBalanceHistory(ctx, domain.BalanceHistory{
		UserID:    userID,
		Amount:    amount,
		Type:      changeType,
		Reason:    reason,
		CreatedAt: time.Now(),
	})
	if err != nil {
		s.log.Warn("failed to record balance history",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
}
