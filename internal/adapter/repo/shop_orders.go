package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/bloom-wire-service/internal/domain"
)

type ShopOrderRepo struct {
	Pool *pgxpool.Pool
}

func NewShopOrderRepo(pool *pgxpool.Pool) *ShopOrderRepo {
	return &ShopOrderRepo{Pool: pool}
}

// Create пишет заказ и его позиции в одной транзакции.
func (r *ShopOrderRepo) Create(ctx context.Context, o *domain.ShopOrder, items []domain.OrderItem) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
INSERT INTO shop_orders(
  id, status, customer_id, recipient_customer_id, delivery_address_id, delivery_date,
  card_message, special_instructions, occasion, payment_amount_cents, delivery_fee_cents, created_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		o.ID, o.Status, o.CustomerID, o.RecipientCustomerID, o.DeliveryAddressID, o.DeliveryDate,
		o.CardMessage, o.SpecialInstructions, o.Occasion, o.PaymentAmountCents, o.DeliveryFeeCents, o.CreatedAt)
	if err != nil {
		return err
	}

	for _, it := range items {
		_, err = tx.Exec(ctx, `
INSERT INTO order_items(id, order_id, description, unit_price_cents, quantity, row_total_cents)
VALUES($1,$2,$3,$4,$5,$6)`,
			it.ID, it.OrderID, it.Description, it.UnitPriceCents, it.Quantity, it.RowTotalCents)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *ShopOrderRepo) Get(ctx context.Context, id string) (*domain.ShopOrder, error) {
	var o domain.ShopOrder
	err := r.Pool.QueryRow(ctx, `
SELECT id, status, customer_id, recipient_customer_id, delivery_address_id, delivery_date,
  card_message, special_instructions, occasion, payment_amount_cents, delivery_fee_cents, created_at
FROM shop_orders WHERE id = $1`, id).Scan(
		&o.ID, &o.Status, &o.CustomerID, &o.RecipientCustomerID, &o.DeliveryAddressID, &o.DeliveryDate,
		&o.CardMessage, &o.SpecialInstructions, &o.Occasion, &o.PaymentAmountCents, &o.DeliveryFeeCents, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *ShopOrderRepo) UpdateStatus(ctx context.Context, id string, status domain.ShopOrderStatus) error {
	_, err := r.Pool.Exec(ctx, `UPDATE shop_orders SET status = $2 WHERE id = $1`, id, status)
	return err
}

var _ domain.ShopOrderRepository = (*ShopOrderRepo)(nil)
