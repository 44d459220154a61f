// Package ledger holds the business-error taxonomy shared by the inventory
// and sale ledgers. Every error here is recoverable: it is returned to the
// caller as a typed result and never causes a mutation. Unexpected failures
// (storage unreachable and the like) are ordinary errors that propagate up.
package ledger

import (
	"fmt"
	"strings"
)

// ValidationError aggregates every precondition violated by caller-supplied
// data, not just the first one found.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// NotFoundError indicates the referenced id does not exist in the relevant
// ledger.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NegativeStockError indicates a stock mutation that would take the count
// below zero. The mutation is rejected before it is applied, never clamped.
type NegativeStockError struct {
	ProductID string
	Stock     int
	Requested int
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("stock of product %s cannot go negative (have %d, requested %d)", e.ProductID, e.Stock, e.Requested)
}

// OverpaymentError indicates a payment larger than the outstanding balance.
// The payment is rejected wholly; no partial application.
type OverpaymentError struct {
	SaleID    string
	Amount    int64
	AmountDue int64
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment of %d exceeds amount due %d on sale %s", e.Amount, e.AmountDue, e.SaleID)
}

// StockFailure records one failed stock mutation inside a multi-item flow.
type StockFailure struct {
	ProductID string `json:"productId"`
	Reason    string `json:"reason"`
}

// PartialFailureError reports that a multi-step flow recorded its primary
// entity but failed one or more dependent stock mutations. The primary entity
// is not rolled back; stock has drifted and needs compensating action.
type PartialFailureError struct {
	SaleID   string
	Failures []StockFailure
}

func (e *PartialFailureError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %s", f.ProductID, f.Reason))
	}
	return fmt.Sprintf("sale %s recorded but %d stock adjustment(s) failed: %s", e.SaleID, len(e.Failures), strings.Join(parts, "; "))
}
