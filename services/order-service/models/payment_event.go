package models

import "time"

const (
	PaymentSucceeded = "payment_succeeded"
	PaymentFailed    = "payment_failed"
)

// PaymentEvent arrives from the payment service over SQS or Kafka.
type PaymentEvent struct {
	Type      string    `json:"type"`
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	PaymentID string    `json:"payment_id,omitempty"`
	Amount    float64   `json:"amount,omitempty"`
	Currency  string    `json:"currency,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

const (
	EventOrderCreated      = "order.created"
	EventOrderStatus       = "order.status_changed"
	EventDeliveryRequested = "order.delivery_otp_requested"
	EventOrderDelivered    = "order.delivered"
	EventOrderCancelled    = "order.cancelled"
	EventOrderReturned     = "order.returned"
	EventOrderPaid         = "order.paid"
)

// OrderEvent is emitted after every successful ledger mutation.
type OrderEvent struct {
	Type           string      `json:"type"`
	OrderID        string      `json:"order_id"`
	Buyer          string      `json:"buyer"`
	Vendor         string      `json:"vendor"`
	Status         OrderStatus `json:"status"`
	TotalAmount    float64     `json:"total_amount"`
	ReturnedAmount float64     `json:"returned_amount,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}

func NewOrderEvent(eventType string, o *Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:           eventType,
		OrderID:        o.ID,
		Buyer:          o.Buyer,
		Vendor:         o.Vendor,
		Status:         o.Status,
		TotalAmount:    o.TotalAmount,
		ReturnedAmount: o.ReturnedAmount,
		Timestamp:      at,
	}
}
