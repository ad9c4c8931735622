package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/yashrajoria/multivendor-store/services/common/errors"
	"github.com/yashrajoria/multivendor-store/services/common/logger"
	"github.com/yashrajoria/multivendor-store/services/order-service/models"
	"github.com/yashrajoria/multivendor-store/services/order-service/repository"
)

type LedgerConfig struct {
	DeliveryCharge float64
	ServiceCharge  float64
	OTPTTL         time.Duration
}

func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		DeliveryCharge: 50,
		ServiceCharge:  30,
		OTPTTL:         10 * time.Minute,
	}
}

// OrderService owns the order lifecycle. Every mutation loads the order,
// checks the transition guard, then writes through OrderRepository.Update so a
// concurrent writer that got there first turns this call into a conflict.
type OrderService struct {
	orders   repository.OrderRepository
	catalog  repository.CatalogRepository
	carts    CartStore
	users    UserDirectory
	notifier OTPNotifier
	events   EventPublisher
	idem     IdempotencyStore
	metrics  *LedgerMetrics
	cfg      LedgerConfig
	logger   *zap.Logger

	now     func() time.Time
	newCode func() (string, error)
}

func NewOrderService(
	orders repository.OrderRepository,
	catalog repository.CatalogRepository,
	carts CartStore,
	users UserDirectory,
	notifier OTPNotifier,
	cfg LedgerConfig,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		catalog:  catalog,
		carts:    carts,
		users:    users,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newCode:  GenerateOTP,
	}
}

func (s *OrderService) WithEvents(p EventPublisher) *OrderService {
	s.events = p
	return s
}

func (s *OrderService) WithIdempotency(store IdempotencyStore) *OrderService {
	s.idem = store
	return s
}

func (s *OrderService) WithMetrics(m *LedgerMetrics) *OrderService {
	s.metrics = m
	return s
}

// WithClock replaces the wall clock, used by tests to move past OTP expiry
// and return windows.
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

func (s *OrderService) WithCodeGenerator(gen func() (string, error)) *OrderService {
	s.newCode = gen
	return s
}

func (s *OrderService) log(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx, s.logger)
}

func (s *OrderService) load(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, apperrors.NotFound("order %s not found", id)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load order", err)
	}
	return order, nil
}

// commit persists a mutated copy of the order. from is the status the guard
// was checked against.
func (s *OrderService) commit(ctx context.Context, op string, order *models.Order, from models.OrderStatus) error {
	order.UpdatedAt = s.now()
	err := s.orders.Update(ctx, order)
	if errors.Is(err, repository.ErrStaleOrder) {
		s.metrics.rejected(op, apperrors.KindConflict)
		return apperrors.Conflict("order %s was modified concurrently; reload and retry", order.ID)
	}
	if err != nil {
		return apperrors.Internal("failed to update order", err)
	}

	if from != order.Status {
		s.metrics.transition(from, order.Status)
		s.log(ctx).Info("order transition",
			zap.String("order_id", order.ID),
			zap.String("operation", op),
			zap.String("from", string(from)),
			zap.String("to", string(order.Status)))
	}
	return nil
}

func (s *OrderService) reject(op string, err *apperrors.Error) error {
	s.metrics.rejected(op, err.Kind)
	return err
}

// publish is best effort; the mutation already committed.
func (s *OrderService) publish(ctx context.Context, eventType string, order *models.Order) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, models.NewOrderEvent(eventType, order, s.now())); err != nil {
		s.log(ctx).Warn("failed to publish order event",
			zap.String("order_id", order.ID), zap.String("event", eventType), zap.Error(err))
	}
}

func isParty(p models.Principal, order *models.Order) bool {
	return p.IsAdmin() || p.UserID == order.Buyer || p.UserID == order.Vendor
}

func isVendorOrAdmin(p models.Principal, order *models.Order) bool {
	return p.IsAdmin() || p.UserID == order.Vendor
}

func isBuyerOrAdmin(p models.Principal, order *models.Order) bool {
	return p.IsAdmin() || p.UserID == order.Buyer
}
