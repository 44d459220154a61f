// Package memory holds the in-memory sale repository: the backing store in
// dev mode and the test double everywhere else.
package memory

import (
	"context"
	"sync"

	"github.com/JNAMx03/OutOfStock/internal/sales/application"
	"github.com/JNAMx03/OutOfStock/internal/sales/domain"
	"github.com/JNAMx03/OutOfStock/pkg/outbox"
)

type Repository struct {
	mu     sync.RWMutex
	sales  map[string]domain.Sale
	order  []string
	outbox *outbox.MemoryStore
}

func NewRepository(ob *outbox.MemoryStore) *Repository {
	return &Repository{
		sales:  make(map[string]domain.Sale),
		outbox: ob,
	}
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sales[id]
	if !ok {
		return domain.Sale{}, application.ErrNotFound
	}
	return s, nil
}

func (r *Repository) ListByStore(ctx context.Context, storeID string) ([]domain.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Sale
	for _, id := range r.order {
		if s := r.sales[id]; s.StoreID == storeID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *Repository) SaveWithOutbox(ctx context.Context, s domain.Sale, eventType string, payload []byte, traceparent string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sales[s.ID]; !exists {
		r.order = append(r.order, s.ID)
	}
	r.sales[s.ID] = s
	if r.outbox != nil {
		r.outbox.Append("sale", s.ID, eventType, payload, traceparent)
	}
	return nil
}
