package metrics

import (
	"sync"

	"github.com/DomeLiquid/lending/core"
	"github.com/prometheus/client_golang/prometheus"
)

type LendingMetrics struct {
	operations        *prometheus.CounterVec
	liquidations      *prometheus.CounterVec
	liquidationRepaid *prometheus.CounterVec
	liquidationSeized *prometheus.CounterVec
	liquidationHealth prometheus.Histogram
}

var (
	lendingOnce     sync.Once
	lendingRegistry *LendingMetrics
)

// Lending returns the process wide metrics registered on the default
// prometheus registry.
func Lending() *LendingMetrics {
	lendingOnce.Do(func() {
		lendingRegistry = NewLendingMetrics(prometheus.DefaultRegisterer)
	})
	return lendingRegistry
}

func NewLendingMetrics(reg prometheus.Registerer) *LendingMetrics {
	m := &LendingMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lending_operations_total",
			Help: "Count of lending operations by type and result.",
		}, []string{"op", "result"}),
		liquidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lending_liquidations_total",
			Help: "Count of settled liquidations by collateral and borrowed asset.",
		}, []string{"collateral", "borrowed"}),
		liquidationRepaid: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lending_liquidation_repaid_units_total",
			Help: "Raw units of borrowed asset repaid by liquidators.",
		}, []string{"asset"}),
		liquidationSeized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lending_liquidation_seized_units_total",
			Help: "Raw units of collateral paid out to liquidators.",
		}, []string{"asset"}),
		liquidationHealth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lending_liquidation_health_factor",
			Help:    "Health factor of accounts at the time they were liquidated.",
			Buckets: prometheus.LinearBuckets(10, 10, 9),
		}),
	}
	reg.MustRegister(
		m.operations,
		m.liquidations,
		m.liquidationRepaid,
		m.liquidationSeized,
		m.liquidationHealth,
	)
	return m
}

func (m *LendingMetrics) ObserveOperation(op string, result string) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	m.operations.WithLabelValues(op, result).Inc()
}

func (m *LendingMetrics) ObserveLiquidation(result *core.LiquidateResult) {
	if m == nil || result == nil {
		return
	}
	m.liquidations.WithLabelValues(result.CollateralAssetId, result.BorrowedAssetId).Inc()
	m.liquidationRepaid.WithLabelValues(result.BorrowedAssetId).Add(float64(result.LiquidationAmount))
	m.liquidationSeized.WithLabelValues(result.CollateralAssetId).Add(float64(result.CollateralAmount))
	m.liquidationHealth.Observe(float64(result.HealthFactor))
}
