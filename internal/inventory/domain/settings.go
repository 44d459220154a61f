package domain

// InventorySettings are the per-store defaults consumed when a product is
// created without an explicit margin or sale price. They belong to the store
// record, which lives outside this core; only this slice of it is consumed.
type InventorySettings struct {
	LowStockThreshold    int     `json:"lowStockThreshold"`
	EnableLowStockAlerts bool    `json:"enableLowStockAlerts"`
	AutoCalculatePrices  bool    `json:"autoCalculatePrices"`
	DefaultProfitMargin  float64 `json:"defaultProfitMargin"`
}

// DefaultInventorySettings mirror the defaults a freshly created store gets.
func DefaultInventorySettings() InventorySettings {
	return InventorySettings{
		LowStockThreshold:    10,
		EnableLowStockAlerts: true,
		AutoCalculatePrices:  true,
		DefaultProfitMargin:  30,
	}
}

// Summary is the inventory aggregate view for one store, recomputed on
// demand from a snapshot of the product collection.
type Summary struct {
	TotalProducts   int   `json:"totalProducts"`
	ActiveProducts  int   `json:"activeProducts"`
	LowStockCount   int   `json:"lowStockCount"`
	OutOfStockCount int   `json:"outOfStockCount"`
	InventoryValue  int64 `json:"inventoryValue"`
}

// Summarize folds a product snapshot into its aggregate view. Inventory
// value is priced at cost. Low stock excludes products already out of stock,
// matching the alerting split between the two lists.
func Summarize(products []Product) Summary {
	var s Summary
	s.TotalProducts = len(products)
	for _, p := range products {
		if p.Status == StatusActive {
			s.ActiveProducts++
		}
		if p.IsOutOfStock() {
			s.OutOfStockCount++
		} else if p.HasLowStock() {
			s.LowStockCount++
		}
		s.InventoryValue += p.PurchasePrice * int64(p.Stock)
	}
	return s
}
