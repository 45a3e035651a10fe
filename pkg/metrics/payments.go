package metrics

import "github.com/prometheus/client_golang/prometheus"

// PaymentMetrics records gateway settlement outcomes.
type PaymentMetrics struct {
	settled    *prometheus.CounterVec
	expired    prometheus.Counter
	reconciled prometheus.Counter
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_settled_total",
		Help: "Payments reaching a terminal state, by status.",
	}, []string{"status"})
	expired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payments_expired_total",
		Help: "Pending payments expired by the sweeper.",
	})
	reconciled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payments_reconciled_total",
		Help: "Pending payments resolved by polling the gateway.",
	})
	reg.MustRegister(settled, expired, reconciled)
	return &PaymentMetrics{
		settled:    settled,
		expired:    expired,
		reconciled: reconciled,
	}
}

// IncSettled increments the terminal-state counter for a status label.
func (p *PaymentMetrics) IncSettled(status string) {
	if p == nil || p.settled == nil {
		return
	}
	p.settled.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncExpired increments the expiry sweeper counter.
func (p *PaymentMetrics) IncExpired() {
	if p == nil || p.expired == nil {
		return
	}
	p.expired.Inc()
}

// IncReconciled increments the reconcile poller counter.
func (p *PaymentMetrics) IncReconciled() {
	if p == nil || p.reconciled == nil {
		return
	}
	p.reconciled.Inc()
}
