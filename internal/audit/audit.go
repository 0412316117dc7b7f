// Package audit publishes best-effort audit events for balance, coupon,
// and order activity. Recording never blocks or fails the operation that
// produced the event.
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	KindBalanceCharge    = "BALANCE_CHARGE"
	KindBalanceDeduct    = "BALANCE_DEDUCT"
	KindCouponIssue      = "COUPON_ISSUE"
	KindOrderCompleted   = "ORDER_COMPLETED"
	KindOrderFailed      = "ORDER_FAILED"
	KindStockCompensated = "STOCK_COMPENSATED"
)

type Event struct {
	UserID    int64     `json:"user_id"`
	Amount    int64     `json:"amount"`
	Kind      string    `json:"kind"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

type Sink interface {
	Record(ctx context.Context, e Event)
}

// LogSink writes audit events to the application log. Used when Kafka
// publication is disabled.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

var _ Sink = (*LogSink)(nil)

func (s *LogSink) Record(_ context.Context, e Event) {
	s.log.Info("audit event",
		zap.String("kind", e.Kind),
		zap.Int64("user_id", e.UserID),
		zap.Int64("amount", e.Amount),
		zap.String("reason", e.Reason),
		zap.Time("timestamp", e.Timestamp),
	)
}
