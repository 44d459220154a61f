package integration

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	inventorydomain "github.com/JNAMx03/OutOfStock/internal/inventory/domain"
	inventorypg "github.com/JNAMx03/OutOfStock/internal/inventory/infrastructure/postgres"
	"github.com/JNAMx03/OutOfStock/internal/platform/postgres"
	salesdomain "github.com/JNAMx03/OutOfStock/internal/sales/domain"
	salespg "github.com/JNAMx03/OutOfStock/internal/sales/infrastructure/postgres"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test needs docker")
	}
	ctx := context.Background()

	env, err := SetupPostgres(ctx)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { env.Teardown(context.Background()) })

	pool, err := pgxpool.New(ctx, env.PGURL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return pool
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPostgresLedgerRoundTrip(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	log := discard()
	now := time.Now().UTC().Truncate(time.Microsecond)

	products := inventorypg.NewRepository(log, pool)
	sales := salespg.NewRepository(log, pool)
	outboxStore := postgres.NewOutboxStore(log, pool)

	product := inventorydomain.Product{
		ID:            "product-it-1",
		StoreID:       "store-it",
		Name:          "Cerveza Corona",
		PurchasePrice: 2500,
		SalePrice:     3500,
		ProfitMargin:  40,
		Stock:         48,
		MinStock:      24,
		Status:        inventorydomain.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
		CreatedBy:     "user-it",
	}
	payload, _ := json.Marshal(map[string]string{"productId": product.ID})
	if err := products.SaveWithOutbox(ctx, product, "ProductCreated", payload, ""); err != nil {
		t.Fatalf("save product: %v", err)
	}

	got, err := products.Get(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got.Name != product.Name || got.SalePrice != 3500 || got.Stock != 48 {
		t.Errorf("product round trip: %+v", got)
	}

	// Upsert path: the same id with new stock must update, not duplicate.
	product.Stock = 46
	product.UpdatedAt = now.Add(time.Second)
	if err := products.SaveWithOutbox(ctx, product, "StockAdjusted", payload, ""); err != nil {
		t.Fatalf("update product: %v", err)
	}
	listed, err := products.ListByStore(ctx, "store-it")
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(listed) != 1 || listed[0].Stock != 46 {
		t.Errorf("listed = %+v", listed)
	}

	sale := salesdomain.Sale{
		ID:         "sale-it-1",
		StoreID:    "store-it",
		SaleNumber: "V-0001",
		Items: []salesdomain.SaleItem{
			{ProductID: product.ID, ProductName: product.Name, Quantity: 2, UnitPrice: 3500, PurchasePrice: 2500, Subtotal: 7000},
		},
		Subtotal:      7000,
		Total:         7000,
		Customer:      &salesdomain.Customer{Name: "Ana Torres", Phone: "555-0101"},
		PaymentMethod: salesdomain.PayCredit,
		Payments:      []salesdomain.Payment{{Method: salesdomain.PayCash, Amount: 3000, Date: now}},
		AmountPaid:    3000,
		AmountDue:     4000,
		Status:        salesdomain.StatusPartial,
		CreatedAt:     now,
		UpdatedAt:     now,
		CreatedBy:     "user-it",
		Profit:        2000,
	}
	salePayload, _ := json.Marshal(map[string]string{"saleId": sale.ID})
	if err := sales.SaveWithOutbox(ctx, sale, "SaleCreated", salePayload, "00-abc-def-01"); err != nil {
		t.Fatalf("save sale: %v", err)
	}

	gotSale, err := sales.Get(ctx, sale.ID)
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if gotSale.SaleNumber != "V-0001" || gotSale.AmountDue != 4000 || gotSale.Status != salesdomain.StatusPartial {
		t.Errorf("sale round trip: %+v", gotSale)
	}
	if len(gotSale.Items) != 1 || gotSale.Items[0].Subtotal != 7000 {
		t.Errorf("items round trip: %+v", gotSale.Items)
	}
	if gotSale.Customer == nil || gotSale.Customer.Name != "Ana Torres" {
		t.Errorf("customer round trip: %+v", gotSale.Customer)
	}
	if len(gotSale.Payments) != 1 || gotSale.Payments[0].Amount != 3000 {
		t.Errorf("payments round trip: %+v", gotSale.Payments)
	}

	// Settle the sale and make sure the mutable columns update.
	gotSale.Payments = append(gotSale.Payments, salesdomain.Payment{Method: salesdomain.PayCash, Amount: 4000, Date: now})
	gotSale.AmountPaid = 7000
	gotSale.AmountDue = 0
	gotSale.Status = salesdomain.StatusCompleted
	gotSale.UpdatedAt = now.Add(time.Minute)
	if err := sales.SaveWithOutbox(ctx, gotSale, "PaymentRecorded", salePayload, ""); err != nil {
		t.Fatalf("update sale: %v", err)
	}
	settled, err := sales.Get(ctx, sale.ID)
	if err != nil {
		t.Fatalf("get settled sale: %v", err)
	}
	if settled.Status != salesdomain.StatusCompleted || settled.AmountDue != 0 || len(settled.Payments) != 2 {
		t.Errorf("settled sale: %+v", settled)
	}

	// Every save above appended an outbox row in the same transaction.
	events, err := outboxStore.LockBatch(ctx, "relay-it", 10, 30*time.Second)
	if err != nil {
		t.Fatalf("lock batch: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("outbox events = %d, want 4", len(events))
	}
	ids := make([]int64, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	if err := outboxStore.MarkSent(ctx, ids); err != nil {
		t.Fatalf("mark sent: %v", err)
	}

	// Leased-and-sent events must not come back.
	again, err := outboxStore.LockBatch(ctx, "relay-it", 10, 30*time.Second)
	if err != nil {
		t.Fatalf("second lock batch: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("events re-leased after send: %d", len(again))
	}
}

func TestPostgresGetMissingReturnsNotFound(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	if _, err := inventorypg.NewRepository(discard(), pool).Get(ctx, "product-none"); err == nil {
		t.Error("missing product did not error")
	}
	if _, err := salespg.NewRepository(discard(), pool).Get(ctx, "sale-none"); err == nil {
		t.Error("missing sale did not error")
	}
}
