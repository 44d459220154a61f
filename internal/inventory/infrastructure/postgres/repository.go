// Package postgres implements the product repository on pgx.
package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JNAMx03/OutOfStock/internal/inventory/application"
	"github.com/JNAMx03/OutOfStock/internal/inventory/domain"
	platform "github.com/JNAMx03/OutOfStock/internal/platform/postgres"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

const productColumns = `id, store_id, name, description, category_id, sku, barcode,
	purchase_price, sale_price, profit_margin, stock, min_stock, max_stock, unit,
	status, created_at, updated_at, created_by`

func (r *Repository) Get(ctx context.Context, id string) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, application.ErrNotFound
	}
	return p, err
}

func (r *Repository) ListByStore(ctx context.Context, storeID string) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE store_id = $1 ORDER BY created_at, id`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) SaveWithOutbox(ctx context.Context, p domain.Product, eventType string, payload []byte, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category_id = EXCLUDED.category_id,
			sku = EXCLUDED.sku,
			barcode = EXCLUDED.barcode,
			purchase_price = EXCLUDED.purchase_price,
			sale_price = EXCLUDED.sale_price,
			profit_margin = EXCLUDED.profit_margin,
			stock = EXCLUDED.stock,
			min_stock = EXCLUDED.min_stock,
			max_stock = EXCLUDED.max_stock,
			unit = EXCLUDED.unit,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`, p.ID, p.StoreID, p.Name, p.Description, p.CategoryID, p.SKU, p.Barcode,
		p.PurchasePrice, p.SalePrice, p.ProfitMargin, p.Stock, p.MinStock, p.MaxStock, p.Unit,
		string(p.Status), p.CreatedAt, p.UpdatedAt, p.CreatedBy)
	if err != nil {
		return err
	}

	if err := platform.InsertEvent(ctx, tx, "product", p.ID, eventType, payload, traceparent); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	var status string
	err := row.Scan(&p.ID, &p.StoreID, &p.Name, &p.Description, &p.CategoryID, &p.SKU, &p.Barcode,
		&p.PurchasePrice, &p.SalePrice, &p.ProfitMargin, &p.Stock, &p.MinStock, &p.MaxStock, &p.Unit,
		&status, &p.CreatedAt, &p.UpdatedAt, &p.CreatedBy)
	if err != nil {
		return domain.Product{}, err
	}
	p.Status = domain.ProductStatus(status)
	return p, nil
}
