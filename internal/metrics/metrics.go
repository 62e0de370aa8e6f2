// Package metrics defines the Prometheus metrics of the identity layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "photoshare"

// CacheRequestsTotal counts identity cache lookups.
// Labels:
//   - kind: entry kind ("user_by_name", "user_by_id", "role", "user_role")
//   - result: "hit", "miss", "fallback" (cache unavailable) or "foreign" (key shared by another record)
var CacheRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_cache_requests_total",
		Help:      "Identity cache lookups by entry kind and result.",
	},
	[]string{"kind", "result"},
)

// StoreLoadsTotal counts Store round-trips performed by cache loaders.
var StoreLoadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_store_loads_total",
		Help:      "Store reads performed on identity cache misses.",
	},
	[]string{"kind"},
)

// AccessDecisionsTotal counts access gate outcomes.
// Label:
//   - decision: "granted", "unauthenticated" or "forbidden"
var AccessDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_decisions_total",
		Help:      "Access gate decisions.",
	},
	[]string{"decision"},
)

// RoleAssignmentsTotal counts role assignments by role.
var RoleAssignmentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_assignments_total",
		Help:      "Role assignments written to the store.",
	},
	[]string{"role"},
)
