package services

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	awspkg "github.com/yashrajoria/multivendor-store/pkg/aws"
	apperrors "github.com/yashrajoria/multivendor-store/services/common/errors"
	"github.com/yashrajoria/multivendor-store/services/order-service/models"
)

// PaymentEventHandler applies payment service callbacks to the ledger. It is
// shared by the SQS and Kafka readers.
type PaymentEventHandler struct {
	ledger *OrderService
	logger *zap.Logger
}

func NewPaymentEventHandler(ledger *OrderService, logger *zap.Logger) *PaymentEventHandler {
	return &PaymentEventHandler{ledger: ledger, logger: logger}
}

// Handle returns an error only when retrying could help. Malformed events
// and events the ledger rejects are logged and dropped.
func (h *PaymentEventHandler) Handle(ctx context.Context, body string) error {
	body = awspkg.UnwrapSNSEnvelope(body)

	var evt models.PaymentEvent
	if err := json.Unmarshal([]byte(body), &evt); err != nil {
		h.logger.Warn("invalid payment event", zap.Error(err))
		return nil
	}
	if evt.OrderID == "" || evt.Type == "" {
		h.logger.Warn("payment event missing fields", zap.String("order_id", evt.OrderID), zap.String("type", evt.Type))
		return nil
	}

	log := h.logger.With(zap.String("order_id", evt.OrderID), zap.String("type", evt.Type))

	var err error
	switch evt.Type {
	case models.PaymentSucceeded:
		_, err = h.ledger.MarkPaid(ctx, evt.OrderID, evt.PaymentID, evt.Amount)
	case models.PaymentFailed:
		_, err = h.ledger.FailPayment(ctx, evt.OrderID)
	default:
		log.Debug("ignoring payment event")
		return nil
	}

	if err == nil {
		log.Info("payment event applied")
		return nil
	}
	if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrValidation) {
		log.Warn("payment event rejected", zap.Error(err))
		return nil
	}
	return err
}
