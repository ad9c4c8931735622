package models

const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

// Product is the catalog view the ledger reads at checkout.
type Product struct {
	ID                 string  `json:"id" bson:"_id" dynamodbav:"product_id"`
	Title              string  `json:"title" bson:"title" dynamodbav:"title"`
	Price              float64 `json:"price" bson:"price" dynamodbav:"price"`
	Stock              int     `json:"stock" bson:"stock" dynamodbav:"stock"`
	Vendor             string  `json:"vendor" bson:"vendor" dynamodbav:"vendor"`
	PayOnDelivery      bool    `json:"pay_on_delivery" bson:"pay_on_delivery" dynamodbav:"pay_on_delivery"`
	FreeDelivery       bool    `json:"free_delivery" bson:"free_delivery" dynamodbav:"free_delivery"`
	ReplacementDays    int     `json:"replacement_days" bson:"replacement_days" dynamodbav:"replacement_days"`
	IsActive           bool    `json:"is_active" bson:"is_active" dynamodbav:"is_active"`
	VerificationStatus string  `json:"verification_status" bson:"verification_status" dynamodbav:"verification_status"`
}

// Available reports whether the product may be carted and bought: the vendor
// listed it and an admin approved it.
func (p *Product) Available() bool {
	return p.IsActive && p.VerificationStatus == VerificationApproved
}

type ProductSummary struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Price           float64 `json:"price"`
	ReplacementDays int     `json:"replacement_days"`
}

func (p *Product) Summary() ProductSummary {
	return ProductSummary{ID: p.ID, Title: p.Title, Price: p.Price, ReplacementDays: p.ReplacementDays}
}
