package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageHandler processes one message value. A non-nil error means the
// message should be tried again.
type MessageHandler func(ctx context.Context, body string) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader     messageReader
	logger     *zap.Logger
	backoff    time.Duration
	maxBackoff time.Duration
}

func NewConsumer(brokers []string, topic, groupID string, logger *zap.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1e3,
		MaxBytes: 1e6,
	})
	return newConsumer(r, logger.With(zap.String("topic", topic), zap.String("group_id", groupID)))
}

func newConsumer(r messageReader, logger *zap.Logger) *Consumer {
	return &Consumer{reader: r, logger: logger, backoff: time.Second, maxBackoff: 30 * time.Second}
}

// Run reads until ctx is cancelled. An offset is committed only after the
// handler accepted the message; a failing message is retried with backoff and
// blocks its partition until it succeeds.
func (c *Consumer) Run(ctx context.Context, handler MessageHandler) error {
	c.logger.Info("kafka consumer started")
	defer c.reader.Close()

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.logger.Info("kafka consumer stopped")
				return ctx.Err()
			}
			return err
		}

		if err := c.handle(ctx, handler, m); err != nil {
			c.logger.Info("kafka consumer stopped with uncommitted message",
				zap.Int64("offset", m.Offset), zap.Int("partition", m.Partition))
			return err
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.logger.Warn("failed to commit offset", zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}
}

func (c *Consumer) handle(ctx context.Context, handler MessageHandler, m kafka.Message) error {
	wait := c.backoff
	for attempt := 1; ; attempt++ {
		err := handler(ctx, string(m.Value))
		if err == nil {
			return nil
		}
		c.logger.Error("failed to handle message",
			zap.Int64("offset", m.Offset),
			zap.Int("partition", m.Partition),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", wait),
			zap.Error(err))

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		if wait *= 2; wait > c.maxBackoff {
			wait = c.maxBackoff
		}
	}
}
