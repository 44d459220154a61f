package domain

// Outbox event payloads emitted by the sale ledger.

type SaleCreated struct {
	SaleID     string     `json:"saleId"`
	StoreID    string     `json:"storeId"`
	SaleNumber string     `json:"saleNumber"`
	Total      int64      `json:"total"`
	Status     SaleStatus `json:"status"`
}

type PaymentRecorded struct {
	SaleID    string        `json:"saleId"`
	Method    PaymentMethod `json:"method"`
	Amount    int64         `json:"amount"`
	AmountDue int64         `json:"amountDue"`
}

type SaleCancelled struct {
	SaleID  string `json:"saleId"`
	StoreID string `json:"storeId"`
}
