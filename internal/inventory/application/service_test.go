package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/JNAMx03/OutOfStock/internal/inventory/domain"
	"github.com/JNAMx03/OutOfStock/internal/ledger"
)

type fakeRepo struct {
	products map[string]domain.Product
	order    []string
	events   []string
	failSave error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{products: make(map[string]domain.Product)}
}

func (r *fakeRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, ErrNotFound
	}
	return p, nil
}

func (r *fakeRepo) ListByStore(ctx context.Context, storeID string) ([]domain.Product, error) {
	var out []domain.Product
	for _, id := range r.order {
		if p := r.products[id]; p.StoreID == storeID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) SaveWithOutbox(ctx context.Context, p domain.Product, eventType string, payload []byte, traceparent string) error {
	if r.failSave != nil {
		return r.failSave
	}
	if _, exists := r.products[p.ID]; !exists {
		r.order = append(r.order, p.ID)
	}
	r.products[p.ID] = p
	r.events = append(r.events, eventType)
	return nil
}

func testLedger(t *testing.T) (*Ledger, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	l := NewLedger(slog.New(slog.NewTextHandler(io.Discard, nil)), repo)
	l.now = func() time.Time { return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC) }
	return l, repo
}

func defaults() domain.InventorySettings {
	return domain.InventorySettings{DefaultProfitMargin: 40, LowStockThreshold: 10}
}

func TestCreateProductDerivesSalePrice(t *testing.T) {
	l, repo := testLedger(t)

	p, err := l.CreateProduct(context.Background(), domain.CreateProductInput{
		Name:          "Cerveza Corona 355ml",
		PurchasePrice: 2500,
		Stock:         48,
		MinStock:      24,
	}, "store-1", "user-1", defaults())
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if p.SalePrice != 3500 {
		t.Errorf("sale price = %d, want 3500 (cost 2500, default margin 40)", p.SalePrice)
	}
	if p.ProfitMargin != 40 {
		t.Errorf("margin = %v, want default 40", p.ProfitMargin)
	}
	if p.Status != domain.StatusActive {
		t.Errorf("status = %s, want active", p.Status)
	}
	if p.CreatedBy != "user-1" || p.StoreID != "store-1" {
		t.Errorf("attribution: %+v", p)
	}
	if len(repo.events) != 1 || repo.events[0] != "ProductCreated" {
		t.Errorf("events = %v", repo.events)
	}
}

func TestCreateProductExplicitPriceWins(t *testing.T) {
	l, _ := testLedger(t)

	price := int64(9000)
	margin := 50.0
	p, err := l.CreateProduct(context.Background(), domain.CreateProductInput{
		Name:          "Coca-Cola 2L",
		PurchasePrice: 4000,
		SalePrice:     &price,
		ProfitMargin:  &margin,
		Stock:         8,
		MinStock:      12,
	}, "store-1", "user-1", defaults())
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if p.SalePrice != 9000 {
		t.Errorf("explicit sale price overridden: %d", p.SalePrice)
	}
	if p.ProfitMargin != 50 {
		t.Errorf("explicit margin overridden: %v", p.ProfitMargin)
	}
}

func TestCreateProductRejectsInvalidInput(t *testing.T) {
	l, repo := testLedger(t)

	_, err := l.CreateProduct(context.Background(), domain.CreateProductInput{
		Name:          "x",
		PurchasePrice: -1,
		Stock:         -2,
		MinStock:      -3,
	}, "store-1", "user-1", defaults())

	var verr *ledger.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if len(verr.Violations) < 4 {
		t.Errorf("violations not aggregated: %v", verr.Violations)
	}
	if len(repo.products) != 0 {
		t.Error("invalid input must not create a product")
	}
}

func TestUpdateProductRecomputesSalePriceWhenCostChanges(t *testing.T) {
	l, _ := testLedger(t)
	p, _ := l.CreateProduct(context.Background(), domain.CreateProductInput{
		Name: "Cerveza", PurchasePrice: 2500, Stock: 48, MinStock: 24,
	}, "store-1", "user-1", defaults())

	cost := int64(3000)
	updated, err := l.UpdateProduct(context.Background(), p.ID, domain.ProductPatch{PurchasePrice: &cost})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.SalePrice != domain.CalculateSalePrice(3000, 40) {
		t.Errorf("sale price not recomputed from merged cost: %d", updated.SalePrice)
	}
}

func TestUpdateProductPatchSalePriceWinsWhenCostUntouched(t *testing.T) {
	l, _ := testLedger(t)
	p, _ := l.CreateProduct(context.Background(), domain.CreateProductInput{
		Name: "Cerveza", PurchasePrice: 2500, Stock: 48, MinStock: 24,
	}, "store-1", "user-1", defaults())

	price := int64(4200)
	updated, err := l.UpdateProduct(context.Background(), p.ID, domain.ProductPatch{SalePrice: &price})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.SalePrice != 4200 {
		t.Errorf("explicit sale price lost: %d", updated.SalePrice)
	}
}

func TestUpdateProductRecomputationBeatsPatchSalePrice(t *testing.T) {
	l, _ := testLedger(t)
	p, _ := l.CreateProduct(context.Background(), domain.CreateProductInput{
		Name: "Cerveza", PurchasePrice: 2500, Stock: 48, MinStock: 24,
	}, "store-1", "user-1", defaults())

	price := int64(4200)
	margin := 20.0
	updated, err := l.UpdateProduct(context.Background(), p.ID, domain.ProductPatch{SalePrice: &price, ProfitMargin: &margin})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if want := domain.CalculateSalePrice(2500, 20); updated.SalePrice != want {
		t.Errorf("sale price = %d, want recomputed %d", updated.SalePrice, want)
	}
}

func TestUpdateProductNotFound(t *testing.T) {
	l, _ := testLedger(t)
	_, err := l.UpdateProduct(context.Background(), "missing", domain.ProductPatch{})
	var nf *ledger.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
}

func TestDeleteProductIsSoft(t *testing.T) {
	l, repo := testLedger(t)
	p, _ := l.CreateProduct(context.Background(), domain.CreateProductInput{
		Name: "Cerveza", PurchasePrice: 2500, Stock: 48, MinStock: 24,
	}, "store-1", "user-1", defaults())

	deleted, err := l.DeleteProduct(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if deleted.Status != domain.StatusDiscontinued {
		t.Errorf("status = %s, want discontinued", deleted.Status)
	}
	if _, ok := repo.products[p.ID]; !ok {
		t.Error("record must survive soft delete")
	}
}

func TestUpdateStockNeverGoesNegative(t *testing.T) {
	l, _ := testLedger(t)
	p, _ := l.CreateProduct(context.Background(), domain.CreateProductInput{
		Name: "Cerveza", PurchasePrice: 2500, Stock: 10, MinStock: 2,
	}, "store-1", "user-1", defaults())
	ctx := context.Background()

	// A mixed sequence of operations; the rejected ones must not move the
	// count, and it must stay non-negative throughout.
	steps := []struct {
		op      domain.StockOperation
		qty     int
		wantErr bool
		want    int
	}{
		{domain.StockSubtract, 4, false, 6},
		{domain.StockSubtract, 7, true, 6},
		{domain.StockAdd, 2, false, 8},
		{domain.StockSet, 0, false, 0},
		{domain.StockSubtract, 1, true, 0},
		{domain.StockAdd, 5, false, 5},
	}
	for i, s := range steps {
		got, err := l.UpdateStock(ctx, p.ID, s.qty, s.op)
		if s.wantErr {
			var neg *ledger.NegativeStockError
			if !errors.As(err, &neg) {
				t.Fatalf("step %d: want NegativeStockError, got %v", i, err)
			}
			current, _ := l.Product(ctx, p.ID)
			if current.Stock != s.want {
				t.Fatalf("step %d: rejected op mutated stock to %d", i, current.Stock)
			}
			continue
		}
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got.Stock != s.want {
			t.Fatalf("step %d: stock = %d, want %d", i, got.Stock, s.want)
		}
		if got.Stock < 0 {
			t.Fatalf("step %d: negative stock %d", i, got.Stock)
		}
	}
}

func TestUpdateStockEmitsEvent(t *testing.T) {
	l, repo := testLedger(t)
	p, _ := l.CreateProduct(context.Background(), domain.CreateProductInput{
		Name: "Cerveza", PurchasePrice: 2500, Stock: 10, MinStock: 2,
	}, "store-1", "user-1", defaults())

	if _, err := l.UpdateStock(context.Background(), p.ID, 3, domain.StockSubtract); err != nil {
		t.Fatalf("UpdateStock: %v", err)
	}
	if repo.events[len(repo.events)-1] != "StockAdjusted" {
		t.Errorf("events = %v", repo.events)
	}
}

func TestFilterUsesSnapshot(t *testing.T) {
	l, _ := testLedger(t)
	ctx := context.Background()
	for _, name := range []string{"Cerveza Corona", "Coca-Cola", "Pan"} {
		if _, err := l.CreateProduct(ctx, domain.CreateProductInput{
			Name: name, PurchasePrice: 1000, Stock: 5, MinStock: 1,
		}, "store-1", "user-1", defaults()); err != nil {
			t.Fatalf("CreateProduct %s: %v", name, err)
		}
	}

	got, err := l.Filter(ctx, "store-1", domain.ProductFilter{Search: "co"})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("filter result: %d products", len(got))
	}
}
