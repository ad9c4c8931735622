package services

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/yashrajoria/multivendor-store/services/common/errors"
	"github.com/yashrajoria/multivendor-store/services/order-service/models"
	"github.com/yashrajoria/multivendor-store/services/order-service/repository"
)

// LineItemEligibility is the derived return window of one line item.
type LineItemEligibility struct {
	ProductID  string     `json:"product_id"`
	Returnable bool       `json:"returnable"`
	ReturnBy   *time.Time `json:"return_by,omitempty"`
}

// productCache memoizes catalog reads for one request.
type productCache struct {
	catalog  repository.CatalogRepository
	products map[string]*models.Product
}

func newProductCache(catalog repository.CatalogRepository) *productCache {
	return &productCache{catalog: catalog, products: map[string]*models.Product{}}
}

// get returns nil without error for products no longer in the catalog.
func (c *productCache) get(ctx context.Context, id string) (*models.Product, error) {
	if p, ok := c.products[id]; ok {
		return p, nil
	}
	p, err := c.catalog.GetProduct(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		c.products[id] = nil
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Dependency("catalog unavailable", err)
	}
	c.products[id] = p
	return p, nil
}

// returnEligibility evaluates each line item against deliveryDate +
// replacement_days. Items of removed products are not returnable.
func (s *OrderService) returnEligibility(ctx context.Context, order *models.Order, products *productCache) ([]LineItemEligibility, error) {
	out := make([]LineItemEligibility, 0, len(order.LineItems))
	now := s.now()

	for _, li := range order.LineItems {
		e := LineItemEligibility{ProductID: li.ProductID}
		if order.Status == models.StatusDelivered && order.DeliveryDate != nil {
			product, err := products.get(ctx, li.ProductID)
			if err != nil {
				return nil, err
			}
			if product != nil {
				by := order.DeliveryDate.AddDate(0, 0, product.ReplacementDays)
				e.ReturnBy = &by
				e.Returnable = !now.After(by)
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func anyReturnable(items []LineItemEligibility) bool {
	for _, e := range items {
		if e.Returnable {
			return true
		}
	}
	return false
}
