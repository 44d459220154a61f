package domain

// Outbox event payloads emitted by the inventory ledger.

type ProductCreated struct {
	ProductID string `json:"productId"`
	StoreID   string `json:"storeId"`
	Name      string `json:"name"`
	SalePrice int64  `json:"salePrice"`
	Stock     int    `json:"stock"`
}

type ProductUpdated struct {
	ProductID string        `json:"productId"`
	StoreID   string        `json:"storeId"`
	SalePrice int64         `json:"salePrice"`
	Status    ProductStatus `json:"status"`
}

type StockAdjusted struct {
	ProductID string         `json:"productId"`
	StoreID   string         `json:"storeId"`
	Operation StockOperation `json:"operation"`
	Quantity  int            `json:"quantity"`
	NewStock  int            `json:"newStock"`
}
