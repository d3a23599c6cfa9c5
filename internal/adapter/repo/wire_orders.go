package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/bloom-wire-service/internal/domain"
)

type WireOrderRepo struct {
	Pool *pgxpool.Pool
}

func NewWireOrderRepo(pool *pgxpool.Pool) *WireOrderRepo {
	return &WireOrderRepo{Pool: pool}
}

const wireOrderColumns = `external_id, order_item_id, direction, raw_status, sync_status,
  sending_florist_code, recipient_first_name, recipient_last_name, recipient_phone,
  recipient_city, delivery_date, card_message, product_description, total_amount_cents,
  detailed_payload, detailed_fetched_at, COALESCE(linked_order_id, ''), last_checked_at, created_at`

func scanWireOrder(row pgx.Row) (*domain.WireOrder, error) {
	var w domain.WireOrder
	err := row.Scan(
		&w.ExternalID, &w.OrderItemID, &w.Direction, &w.RawStatus, &w.SyncStatus,
		&w.SendingFloristCode, &w.RecipientFirstName, &w.RecipientLastName, &w.RecipientPhone,
		&w.RecipientCity, &w.DeliveryDate, &w.CardMessage, &w.ProductDescription, &w.TotalAmountCents,
		&w.DetailedPayload, &w.DetailedFetchedAt, &w.LinkedOrderID, &w.LastCheckedAt, &w.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WireOrderRepo) Get(ctx context.Context, externalID string) (*domain.WireOrder, error) {
	row := r.Pool.QueryRow(ctx,
		`SELECT `+wireOrderColumns+` FROM wire_orders WHERE external_id = $1`, externalID)
	return scanWireOrder(row)
}

func (r *WireOrderRepo) Create(ctx context.Context, w *domain.WireOrder) error {
	_, err := r.Pool.Exec(ctx, `
INSERT INTO wire_orders(
  external_id, order_item_id, direction, raw_status, sync_status,
  sending_florist_code, recipient_first_name, recipient_last_name, recipient_phone,
  recipient_city, delivery_date, card_message, product_description, total_amount_cents,
  detailed_payload, detailed_fetched_at, last_checked_at, created_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		w.ExternalID, w.OrderItemID, w.Direction, w.RawStatus, w.SyncStatus,
		w.SendingFloristCode, w.RecipientFirstName, w.RecipientLastName, w.RecipientPhone,
		w.RecipientCity, w.DeliveryDate, w.CardMessage, w.ProductDescription, w.TotalAmountCents,
		w.DetailedPayload, w.DetailedFetchedAt, w.LastCheckedAt, w.CreatedAt)
	return err
}

func (r *WireOrderRepo) UpdateStatus(ctx context.Context, externalID string, status domain.SyncStatus, rawStatus string, at time.Time) error {
	_, err := r.Pool.Exec(ctx,
		`UPDATE wire_orders SET sync_status = $2, raw_status = $3, last_checked_at = $4 WHERE external_id = $1`,
		externalID, status, rawStatus, at)
	return err
}

func (r *WireOrderRepo) Touch(ctx context.Context, externalID string, at time.Time) error {
	_, err := r.Pool.Exec(ctx,
		`UPDATE wire_orders SET last_checked_at = $2 WHERE external_id = $1`, externalID, at)
	return err
}

// Link — атомарная проверка-и-запись привязки: UPDATE срабатывает, только
// если привязки ещё нет. Гонка материализации разрешается на уровне базы.
func (r *WireOrderRepo) Link(ctx context.Context, externalID, orderID string) (bool, error) {
	tag, err := r.Pool.Exec(ctx,
		`UPDATE wire_orders SET linked_order_id = $2 WHERE external_id = $1 AND linked_order_id IS NULL`,
		externalID, orderID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *WireOrderRepo) SaveDetails(ctx context.Context, w *domain.WireOrder) error {
	_, err := r.Pool.Exec(ctx, `
UPDATE wire_orders SET
  sending_florist_code = $2, recipient_first_name = $3, recipient_last_name = $4,
  recipient_phone = $5, recipient_city = $6, delivery_date = $7, card_message = $8,
  product_description = $9, total_amount_cents = $10, detailed_payload = $11,
  detailed_fetched_at = $12
WHERE external_id = $1`,
		w.ExternalID, w.SendingFloristCode, w.RecipientFirstName, w.RecipientLastName,
		w.RecipientPhone, w.RecipientCity, w.DeliveryDate, w.CardMessage,
		w.ProductDescription, w.TotalAmountCents, w.DetailedPayload, w.DetailedFetchedAt)
	return err
}

func (r *WireOrderRepo) List(ctx context.Context, status domain.SyncStatus) ([]domain.WireOrder, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT `+wireOrderColumns+` FROM wire_orders
		 WHERE ($1 = '' OR sync_status = $1) ORDER BY created_at DESC`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WireOrder
	for rows.Next() {
		w, err := scanWireOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

var _ domain.WireOrderRepository = (*WireOrderRepo)(nil)
