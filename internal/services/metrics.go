package services

import "github.com/prometheus/client_golang/prometheus"

// Domain counters. Label cardinality is bounded: intents are a fixed
// vocabulary and lookup outcomes a fixed set.
var (
	// repliesTotal counts handled messages by classified intent.
	repliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sms_messages_handled_total",
			Help: "Total inbound SMS messages handled, by classified intent.",
		},
		[]string{"intent"},
	)

	// rateLimitedTotal counts messages dropped by the rolling-window gate.
	rateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sms_rate_limited_total",
			Help: "Total inbound SMS messages silently dropped by the rolling-window rate limiter.",
		},
	)

	// locatorLookups counts clinic-search attempts by outcome
	// (ok, empty, error, directory_not_ready).
	locatorLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_lookups_total",
			Help: "Total clinic-search lookups, by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(repliesTotal, rateLimitedTotal, locatorLookups)
}
