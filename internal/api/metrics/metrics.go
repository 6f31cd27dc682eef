// Package metrics defines all custom Prometheus metrics for the rental API.
// It is the single source of truth for metric names, labels, and help strings.
//
// Metrics are registered with the default registry at import time via
// promauto; the /metrics endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rental"

// PropertiesCreatedTotal counts newly created listings.
// Label:
//   - property_type: "bedsitter", "studio", "apartment", …
var PropertiesCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "properties_created_total",
		Help:      "Total number of listings created, by property type.",
	},
	[]string{"property_type"},
)

// DuplicateListingsTotal counts create/update attempts rejected by the
// per-landlord duplicate-listing constraint.
var DuplicateListingsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duplicate_listings_total",
		Help:      "Total number of listing writes rejected as duplicates.",
	},
)

// PropertySearchesTotal counts public search requests.
var PropertySearchesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "property_searches_total",
		Help:      "Total number of public property searches served.",
	},
)

// UnlocksTotal counts contact-unlock outcomes.
// Label:
//   - result: "completed", "replay", "conflict", or "failed"
var UnlocksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unlocks_total",
		Help:      "Total number of contact-unlock attempts, by outcome.",
	},
	[]string{"result"},
)
