// Package postgres implements the sale repository on pgx. Customer and the
// payment log are stored as jsonb; items get their own table so product ids
// stay queryable.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	platform "github.com/JNAMx03/OutOfStock/internal/platform/postgres"
	"github.com/JNAMx03/OutOfStock/internal/sales/application"
	"github.com/JNAMx03/OutOfStock/internal/sales/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

const saleColumns = `id, store_id, sale_number, subtotal, tax, discount, total,
	customer, payment_method, payments, amount_paid, amount_due, status, notes,
	profit, created_at, updated_at, created_by`

func (r *Repository) Get(ctx context.Context, id string) (domain.Sale, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
	s, err := scanSale(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Sale{}, application.ErrNotFound
	}
	if err != nil {
		return domain.Sale{}, err
	}
	items, err := r.itemsFor(ctx, []string{id})
	if err != nil {
		return domain.Sale{}, err
	}
	s.Items = items[id]
	return s, nil
}

func (r *Repository) ListByStore(ctx context.Context, storeID string) ([]domain.Sale, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+saleColumns+` FROM sales WHERE store_id = $1 ORDER BY created_at, id`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Sale
	var ids []string
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

func (r *Repository) SaveWithOutbox(ctx context.Context, s domain.Sale, eventType string, payload []byte, traceparent string) error {
	customer, payments, err := marshalJSONFields(s)
	if err != nil {
		return err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO sales (`+saleColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (id) DO UPDATE SET
			customer = EXCLUDED.customer,
			payments = EXCLUDED.payments,
			amount_paid = EXCLUDED.amount_paid,
			amount_due = EXCLUDED.amount_due,
			status = EXCLUDED.status,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at
	`, s.ID, s.StoreID, s.SaleNumber, s.Subtotal, s.Tax, s.Discount, s.Total,
		customer, string(s.PaymentMethod), payments, s.AmountPaid, s.AmountDue, string(s.Status), s.Notes,
		s.Profit, s.CreatedAt, s.UpdatedAt, s.CreatedBy)
	if err != nil {
		return err
	}

	// Item snapshots are immutable; only write them on first insert.
	batch := &pgx.Batch{}
	for i, item := range s.Items {
		batch.Queue(`
			INSERT INTO sale_items (sale_id, product_id, product_name, quantity, unit_price, purchase_price, subtotal, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (sale_id, position) DO NOTHING
		`, s.ID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.PurchasePrice, item.Subtotal, i)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}

	if err := platform.InsertEvent(ctx, tx, "sale", s.ID, eventType, payload, traceparent); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) itemsFor(ctx context.Context, saleIDs []string) (map[string][]domain.SaleItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT sale_id, product_id, product_name, quantity, unit_price, purchase_price, subtotal
		FROM sale_items
		WHERE sale_id = ANY($1)
		ORDER BY sale_id, position
	`, saleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[string][]domain.SaleItem)
	for rows.Next() {
		var saleID string
		var it domain.SaleItem
		if err := rows.Scan(&saleID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.PurchasePrice, &it.Subtotal); err != nil {
			return nil, err
		}
		items[saleID] = append(items[saleID], it)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSale(row rowScanner) (domain.Sale, error) {
	var s domain.Sale
	var method, status string
	var customer, payments []byte
	err := row.Scan(&s.ID, &s.StoreID, &s.SaleNumber, &s.Subtotal, &s.Tax, &s.Discount, &s.Total,
		&customer, &method, &payments, &s.AmountPaid, &s.AmountDue, &status, &s.Notes,
		&s.Profit, &s.CreatedAt, &s.UpdatedAt, &s.CreatedBy)
	if err != nil {
		return domain.Sale{}, err
	}
	s.PaymentMethod = domain.PaymentMethod(method)
	s.Status = domain.SaleStatus(status)
	if customer != nil {
		s.Customer = &domain.Customer{}
		if err := json.Unmarshal(customer, s.Customer); err != nil {
			return domain.Sale{}, err
		}
	}
	if err := json.Unmarshal(payments, &s.Payments); err != nil {
		return domain.Sale{}, err
	}
	return s, nil
}

func marshalJSONFields(s domain.Sale) (customer, payments []byte, err error) {
	if s.Customer != nil {
		customer, err = json.Marshal(s.Customer)
		if err != nil {
			return nil, nil, err
		}
	}
	if s.Payments == nil {
		payments = []byte("[]")
	} else {
		payments, err = json.Marshal(s.Payments)
		if err != nil {
			return nil, nil, err
		}
	}
	return customer, payments, nil
}
