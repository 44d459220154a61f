package memory

import (
	"context"
	"sync"

	"github.com/JNAMx03/OutOfStock/internal/inventory/domain"
)

// SettingsProvider stands in for the store-management collaborator, which
// owns the real store records. Stores without an entry get the defaults.
type SettingsProvider struct {
	mu       sync.RWMutex
	byStore  map[string]domain.InventorySettings
	defaults domain.InventorySettings
}

func NewSettingsProvider() *SettingsProvider {
	return &SettingsProvider{
		byStore:  make(map[string]domain.InventorySettings),
		defaults: domain.DefaultInventorySettings(),
	}
}

func (p *SettingsProvider) InventorySettings(ctx context.Context, storeID string) (domain.InventorySettings, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if s, ok := p.byStore[storeID]; ok {
		return s, nil
	}
	return p.defaults, nil
}

// Set overrides the settings for one store.
func (p *SettingsProvider) Set(storeID string, s domain.InventorySettings) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byStore[storeID] = s
}
