package services

import (
	"github.com/prometheus/client_golang/prometheus"

	apperrors "github.com/yashrajoria/multivendor-store/services/common/errors"
	"github.com/yashrajoria/multivendor-store/services/order-service/models"
)

// LedgerMetrics are the order lifecycle collectors. A nil *LedgerMetrics
// records nothing.
type LedgerMetrics struct {
	OrdersCreated *prometheus.CounterVec
	Transitions   *prometheus.CounterVec
	Rejections    *prometheus.CounterVec
	TamperedTotal prometheus.Counter
	RefundedTotal prometheus.Counter
}

func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	m := &LedgerMetrics{
		OrdersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Orders created, by payment method.",
		}, []string{"payment_method"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "orders",
			Name:      "transitions_total",
			Help:      "Committed status transitions.",
		}, []string{"from", "to"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "orders",
			Name:      "rejections_total",
			Help:      "Ledger operations rejected, by operation and error kind.",
		}, []string{"operation", "kind"}),
		TamperedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "orders",
			Name:      "client_total_mismatch_total",
			Help:      "Checkouts whose client-claimed totals differed from the server totals.",
		}),
		RefundedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "orders",
			Name:      "refunded_amount_total",
			Help:      "Sum of returned amounts.",
		}),
	}
	reg.MustRegister(m.OrdersCreated, m.Transitions, m.Rejections, m.TamperedTotal, m.RefundedTotal)
	return m
}

func (m *LedgerMetrics) created(method models.PaymentMethod) {
	if m != nil {
		m.OrdersCreated.WithLabelValues(string(method)).Inc()
	}
}

func (m *LedgerMetrics) transition(from, to models.OrderStatus) {
	if m != nil {
		m.Transitions.WithLabelValues(string(from), string(to)).Inc()
	}
}

func (m *LedgerMetrics) rejected(op string, kind apperrors.Kind) {
	if m != nil {
		m.Rejections.WithLabelValues(op, string(kind)).Inc()
	}
}

func (m *LedgerMetrics) tampered() {
	if m != nil {
		m.TamperedTotal.Inc()
	}
}

func (m *LedgerMetrics) refunded(amount float64) {
	if m != nil {
		m.RefundedTotal.Add(amount)
	}
}
