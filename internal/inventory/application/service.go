package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JNAMx03/OutOfStock/internal/inventory/domain"
	"github.com/JNAMx03/OutOfStock/internal/ledger"
	"github.com/JNAMx03/OutOfStock/pkg/tracing"
)

// Ledger is the inventory ledger: it owns the product collection of every
// store and is the single choke point for stock mutations, which is what
// keeps stock from ever going negative.
type Ledger struct {
	log  *slog.Logger
	repo ProductRepository
	now  func() time.Time
}

func NewLedger(log *slog.Logger, repo ProductRepository) *Ledger {
	return &Ledger{log: log, repo: repo, now: time.Now}
}

// CreateProduct validates the input, fills in margin and sale price from the
// store defaults where the caller left them out, and persists the product.
func (l *Ledger) CreateProduct(ctx context.Context, in domain.CreateProductInput, storeID, userID string, settings domain.InventorySettings) (domain.Product, error) {
	if violations := in.Validate(); len(violations) > 0 {
		return domain.Product{}, &ledger.ValidationError{Violations: violations}
	}

	margin := settings.DefaultProfitMargin
	if in.ProfitMargin != nil {
		margin = *in.ProfitMargin
	}
	salePrice := domain.CalculateSalePrice(in.PurchasePrice, margin)
	if in.SalePrice != nil {
		salePrice = *in.SalePrice
	}
	status := domain.StatusActive
	if in.Status != nil {
		status = *in.Status
	}
	minStock := in.MinStock
	if minStock == 0 && settings.LowStockThreshold > 0 {
		minStock = settings.LowStockThreshold
	}

	now := l.now().UTC()
	p := domain.Product{
		ID:            "product-" + uuid.NewString(),
		StoreID:       storeID,
		Name:          in.Name,
		Description:   in.Description,
		CategoryID:    in.CategoryID,
		SKU:           in.SKU,
		Barcode:       in.Barcode,
		PurchasePrice: in.PurchasePrice,
		SalePrice:     salePrice,
		ProfitMargin:  margin,
		Stock:         in.Stock,
		MinStock:      minStock,
		MaxStock:      in.MaxStock,
		Unit:          in.Unit,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
		CreatedBy:     userID,
	}

	payload, err := json.Marshal(domain.ProductCreated{
		ProductID: p.ID,
		StoreID:   p.StoreID,
		Name:      p.Name,
		SalePrice: p.SalePrice,
		Stock:     p.Stock,
	})
	if err != nil {
		return domain.Product{}, err
	}
	if err := l.repo.SaveWithOutbox(ctx, p, "ProductCreated", payload, tracing.Traceparent(ctx)); err != nil {
		return domain.Product{}, err
	}

	l.log.Info("product created", "product_id", p.ID, "store_id", storeID, "name", p.Name)
	return p, nil
}

// UpdateProduct merges the patch over the stored record. When the patch
// touches purchase price or margin, the sale price is recomputed from the
// merged values; an explicit sale price in the patch wins only when neither
// was touched.
func (l *Ledger) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error) {
	p, err := l.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.Product{}, &ledger.NotFoundError{Entity: "product", ID: id}
		}
		return domain.Product{}, err
	}

	merged := mergePatch(p, patch)
	if patch.PurchasePrice != nil || patch.ProfitMargin != nil {
		merged.SalePrice = domain.CalculateSalePrice(merged.PurchasePrice, merged.ProfitMargin)
	}
	merged.UpdatedAt = l.now().UTC()

	payload, err := json.Marshal(domain.ProductUpdated{
		ProductID: merged.ID,
		StoreID:   merged.StoreID,
		SalePrice: merged.SalePrice,
		Status:    merged.Status,
	})
	if err != nil {
		return domain.Product{}, err
	}
	if err := l.repo.SaveWithOutbox(ctx, merged, "ProductUpdated", payload, tracing.Traceparent(ctx)); err != nil {
		return domain.Product{}, err
	}

	l.log.Info("product updated", "product_id", merged.ID)
	return merged, nil
}

// DeleteProduct soft deletes: the record transitions to discontinued and is
// never removed, so historical sale items keep a valid reference.
func (l *Ledger) DeleteProduct(ctx context.Context, id string) (domain.Product, error) {
	discontinued := domain.StatusDiscontinued
	return l.UpdateProduct(ctx, id, domain.ProductPatch{Status: &discontinued})
}

// UpdateStock applies an add, subtract or set operation. A result below zero
// is rejected with NegativeStockError before anything is written. Every flow
// that moves stock, manual adjustments and both sale paths included, goes
// through here.
func (l *Ledger) UpdateStock(ctx context.Context, id string, quantity int, op domain.StockOperation) (domain.Product, error) {
	p, err := l.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.Product{}, &ledger.NotFoundError{Entity: "product", ID: id}
		}
		return domain.Product{}, err
	}

	newStock, err := p.ApplyStockOperation(op, quantity)
	if err != nil {
		return domain.Product{}, &ledger.ValidationError{Violations: []string{err.Error()}}
	}
	if newStock < 0 {
		return domain.Product{}, &ledger.NegativeStockError{ProductID: id, Stock: p.Stock, Requested: quantity}
	}

	p.Stock = newStock
	p.UpdatedAt = l.now().UTC()

	payload, err := json.Marshal(domain.StockAdjusted{
		ProductID: p.ID,
		StoreID:   p.StoreID,
		Operation: op,
		Quantity:  quantity,
		NewStock:  newStock,
	})
	if err != nil {
		return domain.Product{}, err
	}
	if err := l.repo.SaveWithOutbox(ctx, p, "StockAdjusted", payload, tracing.Traceparent(ctx)); err != nil {
		return domain.Product{}, err
	}

	l.log.Info("stock adjusted", "product_id", id, "operation", string(op), "quantity", quantity, "new_stock", newStock)
	if p.HasLowStock() {
		l.log.Warn("product below minimum stock", "product_id", id, "stock", p.Stock, "min_stock", p.MinStock)
	}
	return p, nil
}

// Product fetches one product by id.
func (l *Ledger) Product(ctx context.Context, id string) (domain.Product, error) {
	p, err := l.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.Product{}, &ledger.NotFoundError{Entity: "product", ID: id}
		}
		return domain.Product{}, err
	}
	return p, nil
}

// ProductsByStore returns the store's products in insertion order.
func (l *Ledger) ProductsByStore(ctx context.Context, storeID string) ([]domain.Product, error) {
	return l.repo.ListByStore(ctx, storeID)
}

// Filter returns the store's products narrowed and ordered by the filter.
func (l *Ledger) Filter(ctx context.Context, storeID string, f domain.ProductFilter) ([]domain.Product, error) {
	products, err := l.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return domain.FilterProducts(products, f), nil
}

// Summary recomputes the store's inventory aggregates from a fresh snapshot.
func (l *Ledger) Summary(ctx context.Context, storeID string) (domain.Summary, error) {
	products, err := l.repo.ListByStore(ctx, storeID)
	if err != nil {
		return domain.Summary{}, err
	}
	return domain.Summarize(products), nil
}

func mergePatch(p domain.Product, patch domain.ProductPatch) domain.Product {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.CategoryID != nil {
		p.CategoryID = *patch.CategoryID
	}
	if patch.SKU != nil {
		p.SKU = *patch.SKU
	}
	if patch.Barcode != nil {
		p.Barcode = *patch.Barcode
	}
	if patch.PurchasePrice != nil {
		p.PurchasePrice = *patch.PurchasePrice
	}
	if patch.SalePrice != nil {
		p.SalePrice = *patch.SalePrice
	}
	if patch.ProfitMargin != nil {
		p.ProfitMargin = *patch.ProfitMargin
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.MinStock != nil {
		p.MinStock = *patch.MinStock
	}
	if patch.MaxStock != nil {
		p.MaxStock = *patch.MaxStock
	}
	if patch.Unit != nil {
		p.Unit = *patch.Unit
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	return p
}
