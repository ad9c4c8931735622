package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/yashrajoria/multivendor-store/services/common/errors"
	"github.com/yashrajoria/multivendor-store/services/order-service/models"
	"github.com/yashrajoria/multivendor-store/services/order-service/repository"
)

// statusSources lists, per target, the statuses SetStatus may move from.
var statusSources = map[models.OrderStatus][]models.OrderStatus{
	models.StatusConfirmed: {models.StatusPending},
	models.StatusShipped:   {models.StatusPending, models.StatusConfirmed},
}

func canMove(from, to models.OrderStatus) bool {
	for _, s := range statusSources[to] {
		if s == from {
			return true
		}
	}
	return false
}

// SetStatus advances fulfilment to confirmed or shipped. Delivery goes
// through the OTP flow instead.
func (s *OrderService) SetStatus(ctx context.Context, p models.Principal, id string, target models.OrderStatus) (*models.Order, error) {
	const op = "set_status"

	if _, ok := statusSources[target]; !ok {
		return nil, s.reject(op, apperrors.Validation("status must be confirmed or shipped"))
	}

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isVendorOrAdmin(p, order) {
		return nil, s.reject(op, apperrors.Forbidden("only the order's vendor can update its status"))
	}
	if order.Status == target {
		return order, nil
	}
	if !canMove(order.Status, target) {
		return nil, s.reject(op, apperrors.Conflict("cannot move order from %s to %s", order.Status, target))
	}

	from := order.Status
	order.Status = target
	if err := s.commit(ctx, op, order, from); err != nil {
		return nil, err
	}
	s.publish(ctx, models.EventOrderStatus, order)
	return order, nil
}

// RequestDeliveryOTP stores a fresh code with an expiry and emails it to the
// buyer. Status does not change. If the email cannot be sent the code is
// withdrawn again so no undelivered code stays verifiable.
func (s *OrderService) RequestDeliveryOTP(ctx context.Context, p models.Principal, id string) (*models.Order, error) {
	const op = "request_otp"
	log := s.log(ctx)

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isVendorOrAdmin(p, order) {
		return nil, s.reject(op, apperrors.Forbidden("only the order's vendor can request delivery confirmation"))
	}
	if !order.Status.Open() {
		return nil, s.reject(op, apperrors.Conflict("cannot request delivery for a %s order", order.Status))
	}

	buyer, err := s.users.GetUser(ctx, order.Buyer)
	if errors.Is(err, repository.ErrUserNotFound) || (err == nil && strings.TrimSpace(buyer.Email) == "") {
		return nil, s.reject(op, apperrors.NotFound("buyer email not found"))
	}
	if err != nil {
		return nil, apperrors.Dependency("user directory unavailable", err)
	}

	code, err := s.newCode()
	if err != nil {
		return nil, apperrors.Internal("failed to generate delivery code", err)
	}
	expires := s.now().Add(s.cfg.OTPTTL)
	order.DeliveryOTP = code
	order.OTPExpiresAt = &expires
	if err := s.commit(ctx, op, order, order.Status); err != nil {
		return nil, err
	}

	if err := s.notifier.SendDeliveryOTP(ctx, buyer.Email, order.ID, code); err != nil {
		order.ClearOTP()
		if rbErr := s.commit(ctx, op, order, order.Status); rbErr != nil {
			log.Error("failed to withdraw delivery code after send failure",
				zap.String("order_id", order.ID), zap.Error(rbErr))
		}
		s.metrics.rejected(op, apperrors.KindDependency)
		return nil, apperrors.Dependency("failed to send delivery OTP", err)
	}

	log.Info("delivery OTP sent", zap.String("order_id", order.ID), zap.Time("otp_expires_at", expires))
	s.publish(ctx, models.EventDeliveryRequested, order)
	return order, nil
}

// VerifyDeliveryOTP marks the order delivered and paid when code matches the
// pending one before it expires. The code is single use.
func (s *OrderService) VerifyDeliveryOTP(ctx context.Context, p models.Principal, id, code string) (*models.Order, error) {
	const op = "verify_otp"

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isParty(p, order) {
		return nil, s.reject(op, apperrors.Forbidden("not a party to this order"))
	}
	if !order.Status.Open() || !order.OTPPending() {
		return nil, s.reject(op, apperrors.Conflict("no delivery OTP is pending for this order"))
	}
	now := s.now()
	if now.After(*order.OTPExpiresAt) {
		return nil, s.reject(op, apperrors.Conflict("delivery OTP has expired"))
	}
	if !otpMatches(order.DeliveryOTP, strings.TrimSpace(code)) {
		return nil, s.reject(op, apperrors.Conflict("invalid delivery OTP"))
	}

	from := order.Status
	order.Status = models.StatusDelivered
	order.IsPaid = true
	order.DeliveryDate = &now
	order.ClearOTP()
	if err := s.commit(ctx, op, order, from); err != nil {
		return nil, err
	}
	s.publish(ctx, models.EventOrderDelivered, order)
	return order, nil
}

// CancelOrder cancels an order that has not been delivered and gives the
// stock back. Paid online orders can only be returned after delivery.
func (s *OrderService) CancelOrder(ctx context.Context, p models.Principal, id string) (*models.Order, error) {
	const op = "cancel"

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isParty(p, order) {
		return nil, s.reject(op, apperrors.Forbidden("not a party to this order"))
	}
	if err := cancelGuard(order); err != nil {
		return nil, s.reject(op, err)
	}
	return s.cancel(ctx, op, order)
}

func cancelGuard(order *models.Order) *apperrors.Error {
	switch order.Status {
	case models.StatusCancelled:
		return apperrors.Conflict("order already cancelled")
	case models.StatusDelivered, models.StatusReturned:
		return apperrors.Conflict("cannot cancel a %s order", order.Status)
	}
	if order.PaymentMethod == models.PaymentOnline && order.IsPaid {
		return apperrors.Conflict("paid online orders cannot be cancelled; request a return after delivery")
	}
	return nil
}

func (s *OrderService) cancel(ctx context.Context, op string, order *models.Order) (*models.Order, error) {
	now := s.now()
	from := order.Status
	order.Status = models.StatusCancelled
	order.CancelledAt = &now
	order.ClearOTP()
	if err := s.commit(ctx, op, order, from); err != nil {
		return nil, err
	}

	for _, li := range order.LineItems {
		if err := s.catalog.RestoreStock(ctx, li.ProductID, li.Quantity); err != nil {
			s.log(ctx).Warn("failed to restore stock for cancelled order",
				zap.String("order_id", order.ID), zap.String("product_id", li.ProductID),
				zap.Int("quantity", li.Quantity), zap.Error(err))
		}
	}
	s.publish(ctx, models.EventOrderCancelled, order)
	return order, nil
}

// ReturnOrder returns a delivered order as a whole while at least one of its
// line items is still inside its replacement window. The refund is the line
// total; delivery and service charges are never refunded.
func (s *OrderService) ReturnOrder(ctx context.Context, p models.Principal, id string) (*models.Order, error) {
	const op = "return"

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isBuyerOrAdmin(p, order) {
		return nil, s.reject(op, apperrors.Forbidden("only the buyer can return this order"))
	}
	switch order.Status {
	case models.StatusDelivered:
	case models.StatusCancelled:
		return nil, s.reject(op, apperrors.Conflict("cancelled order cannot be returned"))
	case models.StatusReturned:
		return nil, s.reject(op, apperrors.Conflict("order already returned"))
	default:
		return nil, s.reject(op, apperrors.Conflict("only delivered orders can be returned"))
	}

	eligibility, err := s.returnEligibility(ctx, order, newProductCache(s.catalog))
	if err != nil {
		return nil, err
	}
	if !anyReturnable(eligibility) {
		return nil, s.reject(op, apperrors.Conflict("return window has closed"))
	}

	from := order.Status
	order.Status = models.StatusReturned
	order.ReturnedAmount = order.LineTotal()
	if err := s.commit(ctx, op, order, from); err != nil {
		return nil, err
	}
	s.metrics.refunded(order.ReturnedAmount)
	s.publish(ctx, models.EventOrderReturned, order)
	return order, nil
}

// MarkPaid records a successful online payment. Repeated callbacks are no-ops.
// A non-zero amount must match the order total; zero means the payment
// service did not report one.
func (s *OrderService) MarkPaid(ctx context.Context, id, reference string, amount float64) (*models.Order, error) {
	const op = "mark_paid"

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != models.PaymentOnline {
		return nil, s.reject(op, apperrors.Conflict("order %s is not an online payment order", id))
	}
	if order.IsPaid {
		return order, nil
	}
	if !order.Status.Open() {
		return nil, s.reject(op, apperrors.Conflict("cannot mark a %s order as paid", order.Status))
	}
	if amount != 0 && math.Abs(amount-order.TotalAmount) >= 0.005 {
		s.log(ctx).Warn("payment amount does not match order total",
			zap.String("order_id", order.ID),
			zap.String("payment_reference", reference),
			zap.Float64("amount", amount),
			zap.Float64("total_amount", order.TotalAmount))
		return nil, s.reject(op, apperrors.Conflict("payment amount %.2f does not match order total %.2f", amount, order.TotalAmount))
	}

	order.IsPaid = true
	order.PaymentReference = reference
	if err := s.commit(ctx, op, order, order.Status); err != nil {
		return nil, err
	}
	s.log(ctx).Info("order paid", zap.String("order_id", order.ID), zap.String("payment_reference", reference))
	s.publish(ctx, models.EventOrderPaid, order)
	return order, nil
}

// FailPayment cancels an unpaid online order after the gateway reported a
// failed payment. Orders already paid, delivered or closed are left alone.
func (s *OrderService) FailPayment(ctx context.Context, id string) (*models.Order, error) {
	const op = "payment_failed"

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != models.PaymentOnline || order.IsPaid || !order.Status.Open() {
		return order, nil
	}
	return s.cancel(ctx, op, order)
}
