package ports

// Result values reported to the metrics recorders.
const (
	ResultOK                = "ok"
	ResultNotFound          = "not_found"
	ResultInsufficientStock = "insufficient_stock"
	ResultInvalid           = "invalid"
	ResultDuplicate         = "duplicate"
	ResultError             = "error"
)

// InventoryMetrics records catalog and stock outcomes. units is only
// meaningful when result is ResultOK.
type InventoryMetrics interface {
	Purchase(result string, units int)
	Restock(result string, units int)
	CatalogChange(operation string)
}

// AuthMetrics records registration and login outcomes.
type AuthMetrics interface {
	AuthAttempt(operation, result string)
}
