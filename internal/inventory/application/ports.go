package application

import (
	"context"
	"errors"

	"github.com/JNAMx03/OutOfStock/internal/inventory/domain"
)

// ErrNotFound is returned by repositories when the id has no record.
// Services translate it into the business-error taxonomy.
var ErrNotFound = errors.New("product not found")

// ProductRepository is the persistence port for the inventory ledger.
// SaveWithOutbox persists the product and records the event in the same
// transaction where the backend supports one.
type ProductRepository interface {
	Get(ctx context.Context, id string) (domain.Product, error)
	ListByStore(ctx context.Context, storeID string) ([]domain.Product, error)
	SaveWithOutbox(ctx context.Context, p domain.Product, eventType string, payload []byte, traceparent string) error
}

// SettingsProvider exposes the slice of the store record this core consumes:
// the inventory defaults. The store itself is managed elsewhere.
type SettingsProvider interface {
	InventorySettings(ctx context.Context, storeID string) (domain.InventorySettings, error)
}
