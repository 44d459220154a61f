package domain

import (
	"fmt"
	"math"
	"time"
)

type ProductStatus string

const (
	StatusActive       ProductStatus = "active"
	StatusInactive     ProductStatus = "inactive"
	StatusDiscontinued ProductStatus = "discontinued"
)

type StockOperation string

const (
	StockAdd      StockOperation = "add"
	StockSubtract StockOperation = "subtract"
	StockSet      StockOperation = "set"
)

// Product is one inventory entry. Prices are in minor currency units.
// A product is never physically removed: soft deletion moves it to
// StatusDiscontinued so historical sale items keep a valid reference.
type Product struct {
	ID          string `json:"id"`
	StoreID     string `json:"storeId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	CategoryID string `json:"categoryId,omitempty"`
	SKU        string `json:"sku,omitempty"`
	Barcode    string `json:"barcode,omitempty"`

	PurchasePrice int64   `json:"purchasePrice"`
	SalePrice     int64   `json:"salePrice"`
	ProfitMargin  float64 `json:"profitMargin"`

	Stock    int    `json:"stock"`
	MinStock int    `json:"minStock"`
	MaxStock int    `json:"maxStock,omitempty"`
	Unit     string `json:"unit,omitempty"`

	Status ProductStatus `json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CreatedBy string    `json:"createdBy"`
}

// CreateProductInput carries caller-supplied data for a new product.
// SalePrice and ProfitMargin are optional: a nil margin falls back to the
// store default, a nil sale price is derived from cost and margin.
type CreateProductInput struct {
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	CategoryID    string         `json:"categoryId"`
	SKU           string         `json:"sku"`
	Barcode       string         `json:"barcode"`
	PurchasePrice int64          `json:"purchasePrice"`
	SalePrice     *int64         `json:"salePrice"`
	ProfitMargin  *float64       `json:"profitMargin"`
	Stock         int            `json:"stock"`
	MinStock      int            `json:"minStock"`
	MaxStock      int            `json:"maxStock"`
	Unit          string         `json:"unit"`
	Status        *ProductStatus `json:"status"`
}

// ProductPatch is a merge patch: nil fields are left untouched.
type ProductPatch struct {
	Name          *string        `json:"name"`
	Description   *string        `json:"description"`
	CategoryID    *string        `json:"categoryId"`
	SKU           *string        `json:"sku"`
	Barcode       *string        `json:"barcode"`
	PurchasePrice *int64         `json:"purchasePrice"`
	SalePrice     *int64         `json:"salePrice"`
	ProfitMargin  *float64       `json:"profitMargin"`
	Stock         *int           `json:"stock"`
	MinStock      *int           `json:"minStock"`
	MaxStock      *int           `json:"maxStock"`
	Unit          *string        `json:"unit"`
	Status        *ProductStatus `json:"status"`
}

type ProductSortField string

const (
	SortByName    ProductSortField = "name"
	SortByPrice   ProductSortField = "price"
	SortByStock   ProductSortField = "stock"
	SortByCreated ProductSortField = "created"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ProductFilter selects and orders products. Search is a case-insensitive
// substring match on name, SKU and barcode; LowStock keeps products with
// stock at or below their minimum.
type ProductFilter struct {
	Search     string
	CategoryID string
	Status     ProductStatus
	LowStock   bool
	SortBy     ProductSortField
	SortOrder  SortOrder
}

// CalculateSalePrice derives the sale price from cost and margin percent,
// rounded to the nearest minor unit.
func CalculateSalePrice(purchasePrice int64, profitMargin float64) int64 {
	return int64(math.Round(float64(purchasePrice) * (1 + profitMargin/100)))
}

// CalculateProfitMargin is the inverse of CalculateSalePrice; because both
// round, a round trip may be off by one percent point.
func CalculateProfitMargin(purchasePrice, salePrice int64) float64 {
	if purchasePrice == 0 {
		return 0
	}
	return math.Round(float64(salePrice-purchasePrice) / float64(purchasePrice) * 100)
}

// CalculateUnitProfit is the per-unit gain at current prices.
func CalculateUnitProfit(purchasePrice, salePrice int64) int64 {
	return salePrice - purchasePrice
}

func (p Product) HasLowStock() bool { return p.Stock <= p.MinStock }

func (p Product) IsOutOfStock() bool { return p.Stock == 0 }

// ApplyStockOperation computes the stock that would result from the
// operation without mutating the product.
func (p Product) ApplyStockOperation(op StockOperation, quantity int) (int, error) {
	switch op {
	case StockAdd:
		return p.Stock + quantity, nil
	case StockSubtract:
		return p.Stock - quantity, nil
	case StockSet:
		return quantity, nil
	default:
		return 0, fmt.Errorf("unknown stock operation %q", op)
	}
}

// Validate returns every violated precondition, not just the first.
func (in CreateProductInput) Validate() []string {
	var violations []string
	if len([]rune(in.Name)) < 2 {
		violations = append(violations, "name must be at least 2 characters")
	}
	if in.PurchasePrice < 0 {
		violations = append(violations, "purchase price cannot be negative")
	}
	if in.SalePrice != nil && *in.SalePrice < 0 {
		violations = append(violations, "sale price cannot be negative")
	}
	if in.SalePrice != nil && *in.SalePrice < in.PurchasePrice {
		violations = append(violations, "sale price cannot be below purchase price")
	}
	if in.ProfitMargin != nil && *in.ProfitMargin < 0 {
		violations = append(violations, "profit margin cannot be negative")
	}
	if in.Stock < 0 {
		violations = append(violations, "stock cannot be negative")
	}
	if in.MinStock < 0 {
		violations = append(violations, "minimum stock cannot be negative")
	}
	return violations
}
