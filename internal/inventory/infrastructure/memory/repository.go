// Package memory holds the in-memory product repository: the backing store
// in dev mode and the test double everywhere else.
package memory

import (
	"context"
	"sync"

	"github.com/JNAMx03/OutOfStock/internal/inventory/application"
	"github.com/JNAMx03/OutOfStock/internal/inventory/domain"
	"github.com/JNAMx03/OutOfStock/pkg/outbox"
)

// Repository guards its maps with a mutex because the HTTP layer is
// concurrent, even though the ledger itself is single-actor. Insertion
// order is kept so listings and stable sorts are deterministic.
type Repository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	order    []string
	outbox   *outbox.MemoryStore
}

func NewRepository(ob *outbox.MemoryStore) *Repository {
	return &Repository{
		products: make(map[string]domain.Product),
		outbox:   ob,
	}
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, application.ErrNotFound
	}
	return p, nil
}

func (r *Repository) ListByStore(ctx context.Context, storeID string) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Product
	for _, id := range r.order {
		if p := r.products[id]; p.StoreID == storeID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *Repository) SaveWithOutbox(ctx context.Context, p domain.Product, eventType string, payload []byte, traceparent string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.products[p.ID]; !exists {
		r.order = append(r.order, p.ID)
	}
	r.products[p.ID] = p
	if r.outbox != nil {
		r.outbox.Append("product", p.ID, eventType, payload, traceparent)
	}
	return nil
}
