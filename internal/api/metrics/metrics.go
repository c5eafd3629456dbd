// Package metrics defines the custom Prometheus metrics of the sweet shop
// API. It is the single source of truth for metric names, labels, and help
// strings. Metrics register with the default registry on package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sweetshop/inventory-api/internal/core/ports"
)

const namespace = "sweetshop"

// ── Inventory ────────────────────────────────────────────────────────────────

// PurchasesTotal counts purchase attempts.
// Label:
//   - result: ok, not_found, insufficient_stock, invalid, duplicate, error
var PurchasesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purchases_total",
		Help:      "Total number of purchase attempts, by result.",
	},
	[]string{"result"},
)

// UnitsSoldTotal counts units removed from stock by successful purchases.
var UnitsSoldTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "units_sold_total",
		Help:      "Total number of units removed from stock by purchases.",
	},
)

// RestocksTotal counts restock attempts.
// Label:
//   - result: ok, not_found, invalid, error
var RestocksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "restocks_total",
		Help:      "Total number of restock attempts, by result.",
	},
	[]string{"result"},
)

var UnitsRestockedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "units_restocked_total",
		Help:      "Total number of units added to stock by restocks.",
	},
)

// CatalogChangesTotal counts successful catalog writes.
// Label:
//   - operation: create, update, delete
var CatalogChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweets_catalog_changes_total",
		Help:      "Total number of catalog writes, by operation.",
	},
	[]string{"operation"},
)

// ── Auth ─────────────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts registration and login outcomes.
// Labels:
//   - operation: register, login
//   - result: ok, duplicate, invalid, error
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of registration and login attempts, by result.",
	},
	[]string{"operation", "result"},
)

// Recorder feeds service outcomes into the counters above.
type Recorder struct{}

var (
	_ ports.InventoryMetrics = Recorder{}
	_ ports.AuthMetrics      = Recorder{}
)

func NewRecorder() Recorder { return Recorder{} }

func (Recorder) Purchase(result string, units int) {
	PurchasesTotal.WithLabelValues(result).Inc()
	if result == ports.ResultOK {
		UnitsSoldTotal.Add(float64(units))
	}
}

func (Recorder) Restock(result string, units int) {
	RestocksTotal.WithLabelValues(result).Inc()
	if result == ports.ResultOK {
		UnitsRestockedTotal.Add(float64(units))
	}
}

func (Recorder) CatalogChange(operation string) {
	CatalogChangesTotal.WithLabelValues(operation).Inc()
}

func (Recorder) AuthAttempt(operation, result string) {
	AuthAttemptsTotal.WithLabelValues(operation, result).Inc()
}
