package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	apperrors "github.com/yashrajoria/multivendor-store/services/common/errors"
	"github.com/yashrajoria/multivendor-store/services/order-service/models"
	"github.com/yashrajoria/multivendor-store/services/order-service/repository"
)

type Scope string

const (
	ScopeBuyer  Scope = "buyer"
	ScopeVendor Scope = "vendor"
	ScopeAll    Scope = "all"
)

// OrderView is an order as served to a reader. Buyers get per line item
// return eligibility; admins get buyer, vendor and product summaries.
type OrderView struct {
	models.Order
	ReturnEligibility []LineItemEligibility   `json:"return_eligibility,omitempty"`
	BuyerDetails      *models.UserSummary     `json:"buyer_details,omitempty"`
	VendorDetails     *models.UserSummary     `json:"vendor_details,omitempty"`
	Products          []models.ProductSummary `json:"products,omitempty"`
}

// ListOrders returns the orders visible in scope, newest first.
func (s *OrderService) ListOrders(ctx context.Context, p models.Principal, scope Scope) ([]OrderView, error) {
	var (
		orders []models.Order
		err    error
	)
	switch scope {
	case ScopeBuyer:
		orders, err = s.orders.FindByBuyer(ctx, p.UserID)
	case ScopeVendor:
		orders, err = s.orders.FindByVendor(ctx, p.UserID)
	case ScopeAll:
		if !p.IsAdmin() {
			return nil, apperrors.Forbidden("admin access required")
		}
		orders, err = s.orders.FindAll(ctx)
	default:
		return nil, apperrors.Validation("unknown scope %q", scope)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to fetch orders", err)
	}

	products := newProductCache(s.catalog)
	users := map[string]*models.UserSummary{}
	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		v := OrderView{Order: orders[i]}
		switch scope {
		case ScopeBuyer:
			if v.ReturnEligibility, err = s.returnEligibility(ctx, &v.Order, products); err != nil {
				return nil, err
			}
		case ScopeAll:
			if err := s.join(ctx, &v, products, users); err != nil {
				return nil, err
			}
		}
		views = append(views, v)
	}
	return views, nil
}

// GetOrder returns one order to its buyer, its vendor or an admin.
func (s *OrderService) GetOrder(ctx context.Context, p models.Principal, id string) (*OrderView, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isParty(p, order) {
		return nil, apperrors.Forbidden("not a party to this order")
	}

	v := &OrderView{Order: *order}
	products := newProductCache(s.catalog)
	if p.UserID == order.Buyer {
		if v.ReturnEligibility, err = s.returnEligibility(ctx, order, products); err != nil {
			return nil, err
		}
	}
	if p.IsAdmin() {
		if err := s.join(ctx, v, products, map[string]*models.UserSummary{}); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// join fills the admin summaries. Missing users or products leave the
// corresponding summary out.
func (s *OrderService) join(ctx context.Context, v *OrderView, products *productCache, users map[string]*models.UserSummary) error {
	var err error
	if v.BuyerDetails, err = s.userSummary(ctx, v.Buyer, users); err != nil {
		return err
	}
	if v.VendorDetails, err = s.userSummary(ctx, v.Vendor, users); err != nil {
		return err
	}
	for _, id := range v.ProductIDs() {
		p, err := products.get(ctx, id)
		if err != nil {
			return err
		}
		if p != nil {
			v.Products = append(v.Products, p.Summary())
		}
	}
	return nil
}

func (s *OrderService) userSummary(ctx context.Context, id string, cache map[string]*models.UserSummary) (*models.UserSummary, error) {
	if u, ok := cache[id]; ok {
		return u, nil
	}
	user, err := s.users.GetUser(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		s.log(ctx).Debug("user missing from directory", zap.String("user_id", id))
		cache[id] = nil
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Dependency("user directory unavailable", err)
	}
	summary := user.Summary()
	cache[id] = &summary
	return &summary, nil
}
