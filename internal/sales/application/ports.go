package application

import (
	"context"
	"errors"

	inventorydomain "github.com/JNAMx03/OutOfStock/internal/inventory/domain"
	"github.com/JNAMx03/OutOfStock/internal/sales/domain"
)

// ErrNotFound is returned by repositories when the id has no record.
var ErrNotFound = errors.New("sale not found")

// SaleRepository is the persistence port for the sale ledger.
type SaleRepository interface {
	Get(ctx context.Context, id string) (domain.Sale, error)
	ListByStore(ctx context.Context, storeID string) ([]domain.Sale, error)
	SaveWithOutbox(ctx context.Context, s domain.Sale, eventType string, payload []byte, traceparent string) error
}

// Inventory is the capability the sale ledger holds on the inventory ledger:
// reading products to snapshot prices and moving stock through the one choke
// point that guards the non-negative invariant.
type Inventory interface {
	Product(ctx context.Context, id string) (inventorydomain.Product, error)
	UpdateStock(ctx context.Context, id string, quantity int, op inventorydomain.StockOperation) (inventorydomain.Product, error)
}
