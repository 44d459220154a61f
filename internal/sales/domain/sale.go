package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type PaymentMethod string

const (
	PayCash     PaymentMethod = "cash"
	PayCard     PaymentMethod = "card"
	PayTransfer PaymentMethod = "transfer"
	PayCredit   PaymentMethod = "credit"
	PayMixed    PaymentMethod = "mixed"
)

type SaleStatus string

const (
	StatusPending   SaleStatus = "pending"
	StatusPartial   SaleStatus = "partial"
	StatusCompleted SaleStatus = "completed"
	StatusCancelled SaleStatus = "cancelled"
)

// SaleItem snapshots the product's name and prices at sale time, so later
// price changes never alter recorded history.
type SaleItem struct {
	ProductID     string `json:"productId"`
	ProductName   string `json:"productName"`
	Quantity      int    `json:"quantity"`
	UnitPrice     int64  `json:"unitPrice"`
	PurchasePrice int64  `json:"purchasePrice"`
	Subtotal      int64  `json:"subtotal"`
}

type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// Payment is one entry in a sale's append-only payment log.
type Payment struct {
	Method    PaymentMethod `json:"method"`
	Amount    int64         `json:"amount"`
	Reference string        `json:"reference,omitempty"`
	Date      time.Time     `json:"date"`
}

// Sale is one recorded sale. AmountDue is always Total minus AmountPaid and
// never negative; Status follows AmountPaid against Total except when the
// sale was explicitly cancelled.
type Sale struct {
	ID         string `json:"id"`
	StoreID    string `json:"storeId"`
	SaleNumber string `json:"saleNumber"`

	Items []SaleItem `json:"items"`

	Subtotal int64 `json:"subtotal"`
	Tax      int64 `json:"tax,omitempty"`
	Discount int64 `json:"discount,omitempty"`
	Total    int64 `json:"total"`

	Customer *Customer `json:"customer,omitempty"`

	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Payments      []Payment     `json:"payments"`
	AmountPaid    int64         `json:"amountPaid"`
	AmountDue     int64         `json:"amountDue"`

	Status SaleStatus `json:"status"`
	Notes  string     `json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CreatedBy string    `json:"createdBy"`

	Profit int64 `json:"profit"`
}

// SaleItemInput references a product by id; prices are snapshotted from the
// current product record unless UnitPrice overrides the listed price.
type SaleItemInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	UnitPrice *int64 `json:"unitPrice"`
}

type CreateSaleInput struct {
	Items         []SaleItemInput `json:"items"`
	Customer      *Customer       `json:"customer"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	AmountPaid    int64           `json:"amountPaid"`
	Discount      int64           `json:"discount"`
	Tax           int64           `json:"tax"`
	Notes         string          `json:"notes"`
}

// SalePatch updates the fields a recorded sale still allows: customer and
// notes. Status moves only through the payment and cancellation paths.
type SalePatch struct {
	Customer *Customer `json:"customer"`
	Notes    *string   `json:"notes"`
}

type PaymentInput struct {
	Method    PaymentMethod `json:"method"`
	Amount    int64         `json:"amount"`
	Reference string        `json:"reference"`
}

type SaleSortField string

const (
	SortByDate     SaleSortField = "date"
	SortByTotal    SaleSortField = "total"
	SortByCustomer SaleSortField = "customer"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SaleFilter selects and orders sales. DateTo is inclusive through the end
// of that day. Without an explicit sort, most recent first.
type SaleFilter struct {
	Search        string
	Status        SaleStatus
	PaymentMethod PaymentMethod
	DateFrom      *time.Time
	DateTo        *time.Time
	SortBy        SaleSortField
	SortOrder     SortOrder
}

// CalculateTotal is subtotal plus a flat tax term minus discount.
func CalculateTotal(subtotal, tax, discount int64) int64 {
	return subtotal + tax - discount
}

// CalculateProfit sums quantity times unit margin over the item snapshots.
func CalculateProfit(items []SaleItem) int64 {
	var profit int64
	for _, item := range items {
		profit += int64(item.Quantity) * (item.UnitPrice - item.PurchasePrice)
	}
	return profit
}

// StatusForPayment derives the state a non-cancelled sale must be in.
func StatusForPayment(amountPaid, total int64) SaleStatus {
	switch {
	case amountPaid >= total:
		return StatusCompleted
	case amountPaid > 0:
		return StatusPartial
	default:
		return StatusPending
	}
}

func (s Sale) HasPendingDebt() bool { return s.AmountDue > 0 }

func (s Sale) IsPaid() bool { return s.AmountDue == 0 }

const saleNumberPrefix = "V-"

// NextSaleNumber assigns the next sequential number for a store from the
// numbers already issued. The numeric maximum of the suffixes is used rather
// than the lexicographic maximum so the sequence stays correct if it ever
// grows past four digits; %04d widens on its own beyond 9999.
func NextSaleNumber(existing []string) string {
	max := 0
	for _, n := range existing {
		suffix, ok := strings.CutPrefix(n, saleNumberPrefix)
		if !ok {
			continue
		}
		v, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		if v > max {
			max = v
		}
	}
	return fmt.Sprintf("%s%04d", saleNumberPrefix, max+1)
}

// Validate returns every violated precondition, not just the first.
func (in CreateSaleInput) Validate() []string {
	var violations []string
	if len(in.Items) == 0 {
		violations = append(violations, "at least one item is required")
	}
	for i, item := range in.Items {
		if item.ProductID == "" {
			violations = append(violations, fmt.Sprintf("item %d is missing a product id", i+1))
		}
		if item.Quantity <= 0 {
			violations = append(violations, fmt.Sprintf("quantity of item %d must be greater than 0", i+1))
		}
		if item.UnitPrice != nil && *item.UnitPrice < 0 {
			violations = append(violations, fmt.Sprintf("unit price of item %d cannot be negative", i+1))
		}
	}
	if in.AmountPaid < 0 {
		violations = append(violations, "amount paid cannot be negative")
	}
	if in.Discount < 0 {
		violations = append(violations, "discount cannot be negative")
	}
	if in.PaymentMethod == PayCredit && in.Customer == nil {
		violations = append(violations, "credit sales require a customer")
	}
	return violations
}
