package sender

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmail struct {
	to, subject, body string
	err               error
}

func (f *fakeEmail) SendEmail(ctx context.Context, to, subject, body string) (SendResult, error) {
	f.to, f.subject, f.body = to, subject, body
	return SendResult{MessageID: "m-1", SentAt: time.Now()}, f.err
}

type fakeQueue struct {
	body  string
	attrs map[string]string
}

func (f *fakeQueue) SendMessage(ctx context.Context, body string, attributes map[string]string) error {
	f.body, f.attrs = body, attributes
	return nil
}

func TestRenderDeliveryOTP(t *testing.T) {
	body, err := RenderDeliveryOTP("o-1", "4821", 10*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, body, "4821")
	assert.Contains(t, body, "valid for 10 minutes")
	assert.Contains(t, body, "Order o-1")
}

func TestMailNotifier_SendsRenderedBody(t *testing.T) {
	email := &fakeEmail{}
	n := NewMailNotifier(email, 10*time.Minute)

	require.NoError(t, n.SendDeliveryOTP(context.Background(), "buyer@example.com", "o-1", "1234"))
	assert.Equal(t, "buyer@example.com", email.to)
	assert.Equal(t, DeliveryOTPSubject, email.subject)
	assert.Contains(t, email.body, "1234")
}

func TestMailNotifier_PropagatesFailure(t *testing.T) {
	email := &fakeEmail{err: errors.New("smtp down")}
	n := NewMailNotifier(email, 10*time.Minute)

	err := n.SendDeliveryOTP(context.Background(), "buyer@example.com", "o-1", "1234")
	assert.EqualError(t, err, "smtp down")
}

func TestQueueNotifier_EnqueuesEmail(t *testing.T) {
	q := &fakeQueue{}
	n := NewQueueNotifier(q, 10*time.Minute)

	require.NoError(t, n.SendDeliveryOTP(context.Background(), "buyer@example.com", "o-1", "9876"))

	var msg EmailMessage
	require.NoError(t, json.Unmarshal([]byte(q.body), &msg))
	assert.Equal(t, "buyer@example.com", msg.To)
	assert.Equal(t, DeliveryOTPSubject, msg.Subject)
	assert.Contains(t, msg.Body, "9876")
	assert.Equal(t, "email", q.attrs["channel"])
}

func TestNewSMTPSender_RequiresConfig(t *testing.T) {
	_, err := NewSMTPSender(SMTPConfig{Port: "587", Username: "u", Password: "p"})
	assert.EqualError(t, err, "SMTP_HOST not set")

	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: "587", Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "u", s.cfg.From)
}
