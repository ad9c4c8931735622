package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/yashrajoria/multivendor-store/services/common/errors"
	"github.com/yashrajoria/multivendor-store/services/order-service/models"
	"github.com/yashrajoria/multivendor-store/services/order-service/repository"
)

// CreateOrderRequest is a single-product checkout. The claimed totals are
// what the client displayed; they are checked against the server's numbers
// and never stored.
type CreateOrderRequest struct {
	ProductID      string               `json:"product_id"`
	Quantity       int                  `json:"quantity"`
	Address        models.Address       `json:"address"`
	Amount         *float64             `json:"amount"`
	DeliveryCharge *float64             `json:"delivery_charge"`
	ServiceCharge  *float64             `json:"service_charge"`
	PaymentMethod  models.PaymentMethod `json:"payment_method"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("payment_method", ValidatePaymentMethod)
	return v
}

// ValidatePaymentMethod backs the payment_method validation tag.
func ValidatePaymentMethod(fl validator.FieldLevel) bool {
	return models.PaymentMethod(fl.Field().String()).Valid()
}

// validateCheckout runs the request-only checks in their fixed order and
// returns the first failure.
func validateCheckout(req *CreateOrderRequest) error {
	if strings.TrimSpace(req.ProductID) == "" {
		return apperrors.Validation("product_id is required")
	}
	if req.Quantity < 1 {
		return apperrors.Validation("quantity must be at least 1")
	}

	if err := validate.Struct(req.Address); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return apperrors.Validation("address %s is required", strings.ToLower(fieldErrs[0].Field()))
		}
		return apperrors.Validation("invalid address")
	}

	claimed := []struct {
		name  string
		value *float64
	}{
		{"amount", req.Amount},
		{"delivery_charge", req.DeliveryCharge},
		{"service_charge", req.ServiceCharge},
	}
	for _, c := range claimed {
		if c.value == nil || math.IsNaN(*c.value) || math.IsInf(*c.value, 0) {
			return apperrors.Validation("%s must be a number", c.name)
		}
	}

	if err := validate.Var(string(req.PaymentMethod), "required,payment_method"); err != nil {
		return apperrors.Validation("payment_method must be cod or online")
	}
	return nil
}

// CreateOrder places a pending order for one product from the buyer's cart.
func (s *OrderService) CreateOrder(ctx context.Context, p models.Principal, req *CreateOrderRequest, idempotencyKey string) (*models.Order, error) {
	const op = "create"

	if s.idem != nil && idempotencyKey != "" {
		existing, claimed, err := s.idem.Claim(ctx, p.UserID, idempotencyKey)
		if err != nil {
			return nil, apperrors.Dependency("idempotency store unavailable", err)
		}
		if existing != "" {
			return s.load(ctx, existing)
		}
		if !claimed {
			return nil, s.reject(op, apperrors.Conflict("a request with this Idempotency-Key is still in progress"))
		}

		order, err := s.createOrder(ctx, p, req)
		if err != nil {
			if relErr := s.idem.Release(ctx, p.UserID, idempotencyKey); relErr != nil {
				s.log(ctx).Warn("failed to release idempotency key", zap.Error(relErr))
			}
			return nil, err
		}
		if err := s.idem.Complete(ctx, p.UserID, idempotencyKey, order.ID); err != nil {
			s.log(ctx).Warn("failed to record idempotency key", zap.String("order_id", order.ID), zap.Error(err))
		}
		return order, nil
	}

	return s.createOrder(ctx, p, req)
}

func (s *OrderService) createOrder(ctx context.Context, p models.Principal, req *CreateOrderRequest) (*models.Order, error) {
	const op = "create"
	log := s.log(ctx)

	if err := validateCheckout(req); err != nil {
		return nil, s.reject(op, apperrors.As(err))
	}

	entry, err := s.carts.FindEntry(ctx, p.UserID, req.ProductID)
	if err != nil {
		return nil, apperrors.Dependency("cart store unavailable", err)
	}
	if entry == nil {
		return nil, s.reject(op, apperrors.Conflict("product not found in cart"))
	}

	product, err := s.catalog.GetProduct(ctx, req.ProductID)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, s.reject(op, apperrors.NotFound("product %s not found", req.ProductID))
	}
	if err != nil {
		return nil, apperrors.Dependency("catalog unavailable", err)
	}
	if !product.Available() {
		return nil, s.reject(op, apperrors.Conflict("product not available"))
	}
	if product.Stock < req.Quantity {
		return nil, s.reject(op, apperrors.Conflict("insufficient stock: %d available", product.Stock))
	}
	if req.PaymentMethod == models.PaymentCOD && !product.PayOnDelivery {
		return nil, s.reject(op, apperrors.Conflict("cash on delivery is not available for this product"))
	}

	order := s.buildOrder(p, req, product)
	s.checkClaimedTotals(log, req, order)

	if err := s.catalog.DecrementStock(ctx, product.ID, req.Quantity); err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientStock):
			return nil, s.reject(op, apperrors.Conflict("insufficient stock"))
		case errors.Is(err, repository.ErrProductNotFound):
			return nil, s.reject(op, apperrors.NotFound("product %s not found", req.ProductID))
		default:
			return nil, apperrors.Dependency("failed to reserve stock", err)
		}
	}

	if err := s.orders.Create(ctx, order); err != nil {
		if restoreErr := s.catalog.RestoreStock(ctx, product.ID, req.Quantity); restoreErr != nil {
			log.Error("failed to restore stock after order insert failure",
				zap.String("product_id", product.ID), zap.Int("quantity", req.Quantity), zap.Error(restoreErr))
		}
		return nil, apperrors.Internal("failed to create order", err)
	}

	if err := s.carts.RemoveEntry(ctx, p.UserID, product.ID); err != nil {
		log.Warn("failed to remove cart entry", zap.String("order_id", order.ID), zap.Error(err))
	}
	if err := s.users.AppendOrder(ctx, p.UserID, order.ID); err != nil {
		log.Warn("failed to append order to buyer", zap.String("order_id", order.ID), zap.Error(err))
	}

	s.metrics.created(order.PaymentMethod)
	log.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("buyer", order.Buyer),
		zap.String("vendor", order.Vendor),
		zap.Float64("total_amount", order.TotalAmount))
	s.publish(ctx, models.EventOrderCreated, order)
	return order, nil
}

func (s *OrderService) buildOrder(p models.Principal, req *CreateOrderRequest, product *models.Product) *models.Order {
	now := s.now()
	order := &models.Order{
		ID:     uuid.NewString(),
		Buyer:  p.UserID,
		Vendor: product.Vendor,
		LineItems: []models.LineItem{{
			ProductID: product.ID,
			Quantity:  req.Quantity,
			UnitPrice: product.Price,
		}},
		ServiceCharge: s.cfg.ServiceCharge,
		PaymentMethod: req.PaymentMethod,
		Status:        models.StatusPending,
		Address:       req.Address,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if !product.FreeDelivery {
		order.DeliveryCharge = s.cfg.DeliveryCharge
	}
	order.ProductsTotal = order.LineTotal()
	order.TotalAmount = order.ProductsTotal + order.DeliveryCharge + order.ServiceCharge
	return order
}

// checkClaimedTotals logs when the client displayed different numbers.
func (s *OrderService) checkClaimedTotals(log *zap.Logger, req *CreateOrderRequest, order *models.Order) {
	const epsilon = 0.005
	if math.Abs(*req.Amount-order.TotalAmount) < epsilon &&
		math.Abs(*req.DeliveryCharge-order.DeliveryCharge) < epsilon &&
		math.Abs(*req.ServiceCharge-order.ServiceCharge) < epsilon {
		return
	}
	s.metrics.tampered()
	log.Warn("client totals differ from server totals; using server totals",
		zap.String("buyer", order.Buyer),
		zap.String("product_id", req.ProductID),
		zap.Float64("claimed_amount", *req.Amount),
		zap.Float64("amount", order.TotalAmount),
		zap.Float64("claimed_delivery_charge", *req.DeliveryCharge),
		zap.Float64("delivery_charge", order.DeliveryCharge),
		zap.Float64("claimed_service_charge", *req.ServiceCharge),
		zap.Float64("service_charge", order.ServiceCharge))
}
