package audit

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

const Topic = "ordering.audit"

// KafkaSink publishes events asynchronously. Produce failures are logged
// and dropped; audit must never propagate into the caller's path.
type KafkaSink struct {
	client *kgo.Client
	log    *zap.Logger
}

var _ Sink = (*KafkaSink)(nil)

func NewKafkaSink(client *kgo.Client, log *zap.Logger) *KafkaSink {
	return &KafkaSink{client: client, log: log}
}

func (s *KafkaSink) Record(ctx context.Context, e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		s.log.Error("failed to encode audit event", zap.Error(err))
		return
	}

	record := &kgo.Record{
		Topic: Topic,
		Key:   []byte(e.Kind),
		Value: payload,
	}
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			s.log.Warn("audit event dropped",
				zap.String("kind", e.Kind),
				zap.Int64("user_id", e.UserID),
				zap.Error(err),
			)
		}
	})
}

func EnsureTopic(ctx context.Context, client *kgo.Client, partitions int32, replication int16) error {
	adm := kadm.NewClient(client)

	resp, err := adm.CreateTopics(ctx, partitions, replication, nil, Topic)
	if err != nil {
		return err
	}
	for _, detail := range resp {
		if detail.Err != nil && !strings.Contains(detail.Err.Error(), "already exists") {
			return detail.Err
		}
	}
	return nil
}
