package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// MarketplaceMetrics tracks protocol-level activity: settlements, escrow
// transitions, reward payouts and credential grants.
type MarketplaceMetrics struct {
	settlements      *prometheus.CounterVec
	settlementErrors *prometheus.CounterVec
	escrowEvents     *prometheus.CounterVec
	rewardsAccrued   prometheus.Counter
	accessGrants     *prometheus.CounterVec
}

var (
	marketplaceOnce     sync.Once
	marketplaceRegistry *MarketplaceMetrics
)

// Marketplace returns the process-wide protocol metrics registry,
// registering the collectors on first use.
func Marketplace() *MarketplaceMetrics {
	marketplaceOnce.Do(func() {
		marketplaceRegistry = &MarketplaceMetrics{
			settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "brickmarket",
				Subsystem: "settlement",
				Name:      "buys_total",
				Help:      "Count of settled purchases segmented by fee payer.",
			}, []string{"fee_payer"}),
			settlementErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "brickmarket",
				Subsystem: "settlement",
				Name:      "errors_total",
				Help:      "Count of rejected settlements segmented by reason.",
			}, []string{"reason"}),
			escrowEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "brickmarket",
				Subsystem: "escrow",
				Name:      "transitions_total",
				Help:      "Count of escrow state transitions segmented by outcome.",
			}, []string{"outcome"}),
			rewardsAccrued: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "brickmarket",
				Subsystem: "rewards",
				Name:      "accruals_total",
				Help:      "Count of reward accrual payouts.",
			}),
			accessGrants: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "brickmarket",
				Subsystem: "access",
				Name:      "grants_total",
				Help:      "Count of credential grants segmented by origin.",
			}, []string{"origin"}),
		}
		prometheus.MustRegister(
			marketplaceRegistry.settlements,
			marketplaceRegistry.settlementErrors,
			marketplaceRegistry.escrowEvents,
			marketplaceRegistry.rewardsAccrued,
			marketplaceRegistry.accessGrants,
		)
	})
	return marketplaceRegistry
}

// ObserveSettlement records one settled purchase.
func (m *MarketplaceMetrics) ObserveSettlement(feePayer string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(feePayer).Inc()
}

// ObserveSettlementError records a rejected settlement with its reason.
func (m *MarketplaceMetrics) ObserveSettlementError(reason string) {
	if m == nil {
		return
	}
	m.settlementErrors.WithLabelValues(reason).Inc()
}

// ObserveEscrow records an escrow transition ("paid", "accepted", "denied",
// "recovered").
func (m *MarketplaceMetrics) ObserveEscrow(outcome string) {
	if m == nil {
		return
	}
	m.escrowEvents.WithLabelValues(outcome).Inc()
}

// ObserveAccrual records one reward accrual payout.
func (m *MarketplaceMetrics) ObserveAccrual() {
	if m == nil {
		return
	}
	m.rewardsAccrued.Inc()
}

// ObserveAccessGrant records a credential grant ("accept" or "airdrop").
func (m *MarketplaceMetrics) ObserveAccessGrant(origin string) {
	if m == nil {
		return
	}
	m.accessGrants.WithLabelValues(origin).Inc()
}
