package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema — создать необходимые таблицы, если отсутствуют.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS customers (
  id text PRIMARY KEY,
  first_name text NOT NULL DEFAULT '',
  last_name text NOT NULL DEFAULT '',
  phone text NOT NULL DEFAULT '',
  email text NOT NULL DEFAULT '',
  notes text NOT NULL DEFAULT '',
  created_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS addresses (
  id text PRIMARY KEY,
  customer_id text NOT NULL REFERENCES customers(id),
  first_name text NOT NULL DEFAULT '',
  last_name text NOT NULL DEFAULT '',
  address1 text NOT NULL DEFAULT '',
  address2 text NOT NULL DEFAULT '',
  city text NOT NULL DEFAULT '',
  province text NOT NULL DEFAULT '',
  postal_code text NOT NULL DEFAULT '',
  country text NOT NULL DEFAULT 'CA',
  phone text NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS shop_orders (
  id text PRIMARY KEY,
  status text NOT NULL,
  customer_id text NOT NULL REFERENCES customers(id),
  recipient_customer_id text NOT NULL REFERENCES customers(id),
  delivery_address_id text NOT NULL REFERENCES addresses(id),
  delivery_date date,
  card_message text NOT NULL DEFAULT '',
  special_instructions text NOT NULL DEFAULT '',
  occasion text NOT NULL DEFAULT '',
  payment_amount_cents bigint NOT NULL DEFAULT 0,
  delivery_fee_cents bigint NOT NULL DEFAULT 0,
  created_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS order_items (
  id text PRIMARY KEY,
  order_id text NOT NULL REFERENCES shop_orders(id),
  description text NOT NULL DEFAULT '',
  unit_price_cents bigint NOT NULL DEFAULT 0,
  quantity int NOT NULL DEFAULT 1,
  row_total_cents bigint NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS wire_orders (
  external_id text PRIMARY KEY,
  order_item_id text NOT NULL DEFAULT '',
  direction text NOT NULL DEFAULT '',
  raw_status text NOT NULL DEFAULT '',
  sync_status text NOT NULL,
  sending_florist_code text NOT NULL DEFAULT '',
  recipient_first_name text NOT NULL DEFAULT '',
  recipient_last_name text NOT NULL DEFAULT '',
  recipient_phone text NOT NULL DEFAULT '',
  recipient_city text NOT NULL DEFAULT '',
  delivery_date date,
  card_message text NOT NULL DEFAULT '',
  product_description text NOT NULL DEFAULT '',
  total_amount_cents bigint NOT NULL DEFAULT 0,
  detailed_payload jsonb,
  detailed_fetched_at timestamptz,
  linked_order_id text REFERENCES shop_orders(id),
  last_checked_at timestamptz NOT NULL DEFAULT now(),
  created_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS payment_transactions (
  id text PRIMARY KEY,
  order_id text NOT NULL REFERENCES shop_orders(id),
  amount_cents bigint NOT NULL,
  metadata jsonb,
  created_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS wire_settings (
  id int PRIMARY KEY DEFAULT 1 CHECK (id = 1),
  shop_id text NOT NULL DEFAULT '',
  api_key text NOT NULL DEFAULT '',
  auth_token text NOT NULL DEFAULT '',
  token_refreshed_at timestamptz,
  last_sync_time timestamptz,
  polling_enabled boolean NOT NULL DEFAULT true,
  polling_interval_seconds int NOT NULL DEFAULT 300
);`)
	return err
}
