// Package observability holds the Prometheus metrics exported on /metrics.
//
// Metrics are package-level promauto collectors, registered once on the
// default registry at init.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// ─── Ledger Metrics ─────────────────────────────────────────────────────────

// GradesRecorded counts grades recorded per subject.
var GradesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "foundation",
	Subsystem: "grades",
	Name:      "recorded_total",
	Help:      "Total grades recorded, by subject.",
}, []string{"subject"})

// GradesDeleted counts deleted grades.
var GradesDeleted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "foundation",
	Subsystem: "grades",
	Name:      "deleted_total",
	Help:      "Total grades deleted.",
})

// ─── Credit Metrics ─────────────────────────────────────────────────────────

// CreditsBalance tracks the current balance.
var CreditsBalance = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "foundation",
	Subsystem: "credits",
	Name:      "balance",
	Help:      "Current credit balance.",
})

// CreditsEarned sums credits granted, by source (grade, session).
var CreditsEarned = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "foundation",
	Subsystem: "credits",
	Name:      "earned_total",
	Help:      "Total credits granted, by source.",
}, []string{"source"})

// ─── Reward Metrics ─────────────────────────────────────────────────────────

// RewardsRedeemed counts successful redemptions.
var RewardsRedeemed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "foundation",
	Subsystem: "rewards",
	Name:      "redeemed_total",
	Help:      "Total successful reward redemptions.",
})

// RedeemRejected counts redemptions refused for insufficient balance.
var RedeemRejected = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "foundation",
	Subsystem: "rewards",
	Name:      "redeem_rejected_total",
	Help:      "Total redemptions rejected for insufficient balance.",
})

// ─── Persistence Metrics ────────────────────────────────────────────────────

// StoreFailures counts failed writes per logical key.
var StoreFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "foundation",
	Subsystem: "store",
	Name:      "failures_total",
	Help:      "Total persistence writes that failed, by key.",
}, []string{"key"})

// ─── Calendar Metrics ───────────────────────────────────────────────────────

// CalendarFetches counts calendar refreshes by result (ok, error).
var CalendarFetches = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "foundation",
	Subsystem: "calendar",
	Name:      "fetch_total",
	Help:      "Total calendar fetches, by result.",
}, []string{"result"})

// CalendarEvents tracks how many events the last refresh returned.
var CalendarEvents = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "foundation",
	Subsystem: "calendar",
	Name:      "events",
	Help:      "Number of upcoming events from the last refresh.",
})

// SetBalance mirrors a decimal balance into the gauge.
func SetBalance(b decimal.Decimal) {
	f, _ := b.Float64()
	CreditsBalance.Set(f)
}

// AddEarned adds a decimal amount to the earned counter for source.
func AddEarned(source string, amount decimal.Decimal) {
	f, _ := amount.Float64()
	if f > 0 {
		CreditsEarned.WithLabelValues(source).Add(f)
	}
}
