package models

import (
	"time"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusReturned  OrderStatus = "returned"
	StatusCancelled OrderStatus = "cancelled"
)

// Open reports whether the order has not yet reached delivered, cancelled or returned.
func (s OrderStatus) Open() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusShipped
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusReturned, StatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentOnline
}

// Address is the shipping snapshot taken at checkout.
type Address struct {
	Name    string `json:"name" bson:"name" validate:"notblank"`
	Phone   string `json:"phone" bson:"phone" validate:"notblank"`
	Address string `json:"address" bson:"address" validate:"notblank"`
	City    string `json:"city" bson:"city" validate:"notblank"`
	Pincode string `json:"pincode" bson:"pincode" validate:"notblank"`
}

type LineItem struct {
	ProductID string  `json:"product_id" bson:"product_id"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	UnitPrice float64 `json:"unit_price" bson:"unit_price"`
}

// Order is stored as a Mongo document or a Postgres row. Version is bumped on
// every update and used as the compare-and-set token.
type Order struct {
	ID               string        `json:"id" bson:"_id" gorm:"type:uuid;primaryKey"`
	Buyer            string        `json:"buyer" bson:"buyer" gorm:"not null;index"`
	Vendor           string        `json:"vendor" bson:"vendor" gorm:"not null;index"`
	LineItems        []LineItem    `json:"line_items" bson:"line_items" gorm:"type:jsonb;serializer:json;not null"`
	ProductsTotal    float64       `json:"products_total" bson:"products_total" gorm:"not null"`
	DeliveryCharge   float64       `json:"delivery_charge" bson:"delivery_charge" gorm:"not null"`
	ServiceCharge    float64       `json:"service_charge" bson:"service_charge" gorm:"not null"`
	TotalAmount      float64       `json:"total_amount" bson:"total_amount" gorm:"not null"`
	PaymentMethod    PaymentMethod `json:"payment_method" bson:"payment_method" gorm:"type:varchar(10);not null"`
	IsPaid           bool          `json:"is_paid" bson:"is_paid" gorm:"not null"`
	Status           OrderStatus   `json:"status" bson:"status" gorm:"type:varchar(20);not null;index"`
	ReturnedAmount   float64       `json:"returned_amount" bson:"returned_amount" gorm:"not null"`
	DeliveryOTP      string        `json:"-" bson:"delivery_otp,omitempty" gorm:"column:delivery_otp;type:varchar(4)"`
	OTPExpiresAt     *time.Time    `json:"otp_expires_at,omitempty" bson:"otp_expires_at,omitempty" gorm:"column:otp_expires_at"`
	DeliveryDate     *time.Time    `json:"delivery_date,omitempty" bson:"delivery_date,omitempty"`
	CancelledAt      *time.Time    `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	Address          Address       `json:"address" bson:"address" gorm:"embedded;embeddedPrefix:address_"`
	PaymentReference string        `json:"payment_reference,omitempty" bson:"payment_reference,omitempty"`
	Version          int64         `json:"-" bson:"version" gorm:"not null"`
	CreatedAt        time.Time     `json:"created_at" bson:"created_at" gorm:"index"`
	UpdatedAt        time.Time     `json:"updated_at" bson:"updated_at"`
}

// OTPPending reports whether a delivery code is waiting to be verified.
func (o *Order) OTPPending() bool {
	return o.DeliveryOTP != "" && o.OTPExpiresAt != nil
}

func (o *Order) ClearOTP() {
	o.DeliveryOTP = ""
	o.OTPExpiresAt = nil
}

// LineTotal is the sum of quantity × captured unit price. Surcharges excluded.
func (o *Order) LineTotal() float64 {
	var total float64
	for _, li := range o.LineItems {
		total += float64(li.Quantity) * li.UnitPrice
	}
	return total
}

func (o *Order) ProductIDs() []string {
	ids := make([]string, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		ids = append(ids, li.ProductID)
	}
	return ids
}
