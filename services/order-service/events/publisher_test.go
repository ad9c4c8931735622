package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yashrajoria/multivendor-store/services/order-service/models"
)

type mockSNS struct {
	mock.Mock
}

func (m *mockSNS) Publish(ctx context.Context, topicArn string, message []byte, attributes map[string]string) error {
	args := m.Called(topicArn, message, attributes)
	return args.Error(0)
}

type recorder struct {
	got []models.OrderEvent
	err error
}

func (r *recorder) Publish(ctx context.Context, evt models.OrderEvent) error {
	r.got = append(r.got, evt)
	return r.err
}

func TestSNSPublisher_SetsAttributes(t *testing.T) {
	sns := &mockSNS{}
	arn := "arn:aws:sns:eu-west-2:000000000000:order-events"
	evt := models.OrderEvent{Type: models.EventOrderCreated, OrderID: "o-1", Status: models.StatusPending, Timestamp: time.Now()}

	sns.On("Publish", arn, mock.MatchedBy(func(b []byte) bool {
		var out models.OrderEvent
		return json.Unmarshal(b, &out) == nil && out.OrderID == "o-1"
	}), map[string]string{"event_type": models.EventOrderCreated, "status": "pending"}).Return(nil)

	require.NoError(t, NewSNSPublisher(sns, arn).Publish(context.Background(), evt))
	sns.AssertExpectations(t)
}

func TestFanout_PublishesToAllAndJoinsErrors(t *testing.T) {
	ok := &recorder{}
	failing := &recorder{err: errors.New("broker down")}

	err := Fanout{failing, ok}.Publish(context.Background(), models.OrderEvent{OrderID: "o-1"})
	assert.ErrorContains(t, err, "broker down")
	assert.Len(t, ok.got, 1)
	assert.Len(t, failing.got, 1)
}
