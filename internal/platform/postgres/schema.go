// Package postgres holds the pieces of the postgres backend shared by both
// ledgers: schema bootstrap and the outbox store the relay drains.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id             text PRIMARY KEY,
	store_id       text NOT NULL,
	name           text NOT NULL,
	description    text NOT NULL DEFAULT '',
	category_id    text NOT NULL DEFAULT '',
	sku            text NOT NULL DEFAULT '',
	barcode        text NOT NULL DEFAULT '',
	purchase_price bigint NOT NULL,
	sale_price     bigint NOT NULL,
	profit_margin  double precision NOT NULL,
	stock          integer NOT NULL CHECK (stock >= 0),
	min_stock      integer NOT NULL,
	max_stock      integer NOT NULL DEFAULT 0,
	unit           text NOT NULL DEFAULT '',
	status         text NOT NULL,
	created_at     timestamptz NOT NULL,
	updated_at     timestamptz NOT NULL,
	created_by     text NOT NULL
);
CREATE INDEX IF NOT EXISTS products_store_idx ON products (store_id);

CREATE TABLE IF NOT EXISTS sales (
	id             text PRIMARY KEY,
	store_id       text NOT NULL,
	sale_number    text NOT NULL,
	subtotal       bigint NOT NULL,
	tax            bigint NOT NULL DEFAULT 0,
	discount       bigint NOT NULL DEFAULT 0,
	total          bigint NOT NULL,
	customer       jsonb,
	payment_method text NOT NULL,
	payments       jsonb NOT NULL DEFAULT '[]',
	amount_paid    bigint NOT NULL,
	amount_due     bigint NOT NULL CHECK (amount_due >= 0),
	status         text NOT NULL,
	notes          text NOT NULL DEFAULT '',
	profit         bigint NOT NULL DEFAULT 0,
	created_at     timestamptz NOT NULL,
	updated_at     timestamptz NOT NULL,
	created_by     text NOT NULL,
	UNIQUE (store_id, sale_number)
);
CREATE INDEX IF NOT EXISTS sales_store_idx ON sales (store_id);

CREATE TABLE IF NOT EXISTS sale_items (
	sale_id        text NOT NULL REFERENCES sales (id),
	product_id     text NOT NULL,
	product_name   text NOT NULL,
	quantity       integer NOT NULL,
	unit_price     bigint NOT NULL,
	purchase_price bigint NOT NULL,
	subtotal       bigint NOT NULL,
	position       integer NOT NULL,
	PRIMARY KEY (sale_id, position)
);

CREATE TABLE IF NOT EXISTS outbox (
	id             bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	aggregate_type text NOT NULL,
	aggregate_id   text NOT NULL,
	type           text NOT NULL,
	payload        jsonb NOT NULL,
	traceparent    text NOT NULL DEFAULT '',
	status         text NOT NULL DEFAULT 'pending',
	relay_id       text,
	lease_until    timestamptz,
	retry_count    integer NOT NULL DEFAULT 0,
	last_error     text,
	created_at     timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS outbox_pending_idx ON outbox (status, id);
`

// EnsureSchema creates the tables on startup. IF NOT EXISTS keeps it safe to
// run on every boot; real migrations can replace this without touching the
// repositories.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
