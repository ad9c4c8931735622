package repository

import (
	"context"
	"errors"

	"github.com/yashrajoria/multivendor-store/services/order-service/models"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrStaleOrder means the stored order changed since it was read.
	ErrStaleOrder = errors.New("order was modified concurrently")
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	FindByBuyer(ctx context.Context, buyer string) ([]models.Order, error)
	FindByVendor(ctx context.Context, vendor string) ([]models.Order, error)
	FindAll(ctx context.Context) ([]models.Order, error)
	// Update writes the mutable fields of order only if the stored version
	// still equals order.Version, then advances order.Version.
	Update(ctx context.Context, order *models.Order) error
}

// mutableFields lists what a transition may change. Keys are both the bson
// field and the column name.
func mutableFields(o *models.Order) map[string]interface{} {
	return map[string]interface{}{
		"status":            o.Status,
		"is_paid":           o.IsPaid,
		"returned_amount":   o.ReturnedAmount,
		"delivery_otp":      o.DeliveryOTP,
		"otp_expires_at":    o.OTPExpiresAt,
		"delivery_date":     o.DeliveryDate,
		"cancelled_at":      o.CancelledAt,
		"payment_reference": o.PaymentReference,
		"updated_at":        o.UpdatedAt,
		"version":           o.Version + 1,
	}
}
