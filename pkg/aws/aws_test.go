package aws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnwrapSNSEnvelope(t *testing.T) {
	wrapped := `{"Type":"Notification","MessageId":"m-1","Message":"{\"type\":\"payment_succeeded\"}"}`
	assert.Equal(t, `{"type":"payment_succeeded"}`, UnwrapSNSEnvelope(wrapped))

	raw := `{"type":"payment_failed","order_id":"o-1"}`
	assert.Equal(t, raw, UnwrapSNSEnvelope(raw))

	assert.Equal(t, "not-json", UnwrapSNSEnvelope("not-json"))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Equal(t, "", firstNonEmpty("", ""))
}

func TestParseSecretMap(t *testing.T) {
	values, err := ParseSecretMap(`{"SMTP_PASS":"s3cret","POSTGRES_PASSWORD":"pg"}`)
	assert.NoError(t, err)
	assert.Equal(t, "s3cret", values["SMTP_PASS"])

	_, err = ParseSecretMap(`["not","an","object"]`)
	assert.Error(t, err)
}

func TestMetricsClientNilIsDisabled(t *testing.T) {
	var m *MetricsClient
	assert.False(t, m.IsEnabled())
	assert.NoError(t, m.RecordCount(context.Background(), MetricHTTPRequests, nil))
}
