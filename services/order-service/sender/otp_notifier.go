package sender

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"time"

	awspkg "github.com/yashrajoria/multivendor-store/pkg/aws"
)

const DeliveryOTPSubject = "Your Delivery OTP"

//go:embed templates/delivery_otp.html
var templateFS embed.FS

var deliveryOTPTemplate = template.Must(template.ParseFS(templateFS, "templates/delivery_otp.html"))

type deliveryOTPData struct {
	Code     string
	ValidFor string
	OrderID  string
}

// RenderDeliveryOTP builds the html body of the delivery code email.
func RenderDeliveryOTP(orderID, code string, ttl time.Duration) (string, error) {
	var buf bytes.Buffer
	err := deliveryOTPTemplate.Execute(&buf, deliveryOTPData{
		Code:     code,
		ValidFor: humanDuration(ttl),
		OrderID:  orderID,
	})
	if err != nil {
		return "", fmt.Errorf("render delivery otp email: %w", err)
	}
	return buf.String(), nil
}

func humanDuration(d time.Duration) string {
	if d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	return d.String()
}

// MailNotifier emails the delivery code directly.
type MailNotifier struct {
	email EmailSender
	ttl   time.Duration
}

func NewMailNotifier(email EmailSender, ttl time.Duration) *MailNotifier {
	return &MailNotifier{email: email, ttl: ttl}
}

func (n *MailNotifier) SendDeliveryOTP(ctx context.Context, to, orderID, code string) error {
	body, err := RenderDeliveryOTP(orderID, code, n.ttl)
	if err != nil {
		return err
	}
	_, err = n.email.SendEmail(ctx, to, DeliveryOTPSubject, body)
	return err
}

// EmailMessage is the payload the notification service consumes from its queue.
type EmailMessage struct {
	Type    string `json:"type"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// QueueNotifier hands the rendered email to the notification queue.
type QueueNotifier struct {
	queue awspkg.MessageSender
	ttl   time.Duration
}

func NewQueueNotifier(queue awspkg.MessageSender, ttl time.Duration) *QueueNotifier {
	return &QueueNotifier{queue: queue, ttl: ttl}
}

func (n *QueueNotifier) SendDeliveryOTP(ctx context.Context, to, orderID, code string) error {
	body, err := RenderDeliveryOTP(orderID, code, n.ttl)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(EmailMessage{
		Type:    "email",
		To:      to,
		Subject: DeliveryOTPSubject,
		Body:    body,
	})
	if err != nil {
		return err
	}
	return n.queue.SendMessage(ctx, string(payload), map[string]string{"channel": "email"})
}
