package billing

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type billingMetrics struct {
	activeLoans    prometheus.Gauge
	overdueLoans   prometheus.Gauge
	outstanding    prometheus.Gauge
	debtUnits      prometheus.Gauge
	vaultIdle      prometheus.Gauge
	vaultAllocated prometheus.Gauge
	vaultShares    prometheus.Gauge
	dueNotices     prometheus.Counter
	overdueNotices prometheus.Counter
}

var (
	metricsOnce     sync.Once
	metricsRegistry *billingMetrics
)

func defaultMetrics() *billingMetrics {
	metricsOnce.Do(func() {
		metricsRegistry = &billingMetrics{
			activeLoans: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "termpool",
				Subsystem: "engine",
				Name:      "active_loans",
				Help:      "Loans currently open.",
			}),
			overdueLoans: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "termpool",
				Subsystem: "engine",
				Name:      "overdue_loans",
				Help:      "Open loans past their due date plus grace.",
			}),
			outstanding: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "termpool",
				Subsystem: "engine",
				Name:      "outstanding_principal",
				Help:      "Sum of remaining principal across open loans.",
			}),
			debtUnits: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "termpool",
				Subsystem: "engine",
				Name:      "debt_units",
				Help:      "Sum of debt-accounting units across borrowers.",
			}),
			vaultIdle: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "termpool",
				Subsystem: "vault",
				Name:      "idle_balance",
				Help:      "Vault funds held in custody and withdrawable.",
			}),
			vaultAllocated: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "termpool",
				Subsystem: "vault",
				Name:      "allocated_balance",
				Help:      "Vault funds currently drawn by loan engines.",
			}),
			vaultShares: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "termpool",
				Subsystem: "vault",
				Name:      "total_shares",
				Help:      "Vault shares in circulation.",
			}),
			dueNotices: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "termpool",
				Subsystem: "billing",
				Name:      "due_notices_total",
				Help:      "Payment-due notifications enqueued.",
			}),
			overdueNotices: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "termpool",
				Subsystem: "billing",
				Name:      "overdue_notices_total",
				Help:      "Overdue notifications enqueued.",
			}),
		}
		prometheus.MustRegister(
			metricsRegistry.activeLoans,
			metricsRegistry.overdueLoans,
			metricsRegistry.outstanding,
			metricsRegistry.debtUnits,
			metricsRegistry.vaultIdle,
			metricsRegistry.vaultAllocated,
			metricsRegistry.vaultShares,
			metricsRegistry.dueNotices,
			metricsRegistry.overdueNotices,
		)
	})
	return metricsRegistry
}
