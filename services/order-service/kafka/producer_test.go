package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewProducer_FlushesSingleMessagesPromptly(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, "order-events", zap.NewNop())
	defer p.Close()

	assert.Equal(t, 1, p.writer.BatchSize)
	assert.LessOrEqual(t, p.writer.BatchTimeout, 10*time.Millisecond)
	assert.Equal(t, "order-events", p.writer.Topic)
}
