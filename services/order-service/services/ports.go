package services

import (
	"context"

	"github.com/yashrajoria/multivendor-store/services/order-service/models"
)

// CartStore is the part of the cart the ledger consumes at checkout.
type CartStore interface {
	FindEntry(ctx context.Context, userID, productID string) (*models.CartItem, error)
	RemoveEntry(ctx context.Context, userID, productID string) error
}

type UserDirectory interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	AppendOrder(ctx context.Context, userID, orderID string) error
}

type OTPNotifier interface {
	SendDeliveryOTP(ctx context.Context, to, orderID, code string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, evt models.OrderEvent) error
}

type IdempotencyStore interface {
	Claim(ctx context.Context, buyer, key string) (orderID string, claimed bool, err error)
	Complete(ctx context.Context, buyer, key, orderID string) error
	Release(ctx context.Context, buyer, key string) error
}
