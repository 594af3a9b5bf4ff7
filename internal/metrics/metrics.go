// Package metrics exposes Prometheus collectors for stair pricing.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Simplici0/stairworks/internal/pricing"
)

var (
	calculations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stairworks_price_calculations_total",
		Help: "Stair price calculations by result.",
	}, []string{"result"})

	calculationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stairworks_price_calculation_seconds",
		Help:    "Time spent pricing one stair order, including rule lookups.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})

	ruleImports = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stairworks_rule_imports_total",
		Help: "Pricing rules written by spreadsheet imports.",
	})
)

// Result classifies a calculation error into a metric label.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, pricing.ErrInvalidOrder):
		return "invalid_order"
	case errors.Is(err, pricing.ErrRuleNotFound):
		return "rule_not_found"
	case errors.Is(err, pricing.ErrUnknownSpecialPart):
		return "unknown_special_part"
	case errors.Is(err, pricing.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "error"
	}
}

// ObserveCalculation records one finished calculation.
func ObserveCalculation(err error, elapsed time.Duration) {
	calculations.WithLabelValues(Result(err)).Inc()
	calculationSeconds.Observe(elapsed.Seconds())
}

// AddRuleImports counts rules written by an import.
func AddRuleImports(n int) {
	ruleImports.Add(float64(n))
}
