package ledger

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/bloom-wire-service/internal/domain"
)

// Recorder — регистратор платёжных проводок поверх postgres. Для вызывающей
// стороны это best-effort коллаборатор: его отказ не откатывает заказ.
type Recorder struct {
	Pool *pgxpool.Pool
}

func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{Pool: pool}
}

func (r *Recorder) CreateLedgerEntry(ctx context.Context, orderID string, amountCents int64, metadata map[string]string) (*domain.LedgerEntry, error) {
	entry := &domain.LedgerEntry{
		ID:          uuid.NewString(),
		OrderID:     orderID,
		AmountCents: amountCents,
		Metadata:    metadata,
		CreatedAt:   time.Now(),
	}
	meta, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	_, err = r.Pool.Exec(ctx, `
INSERT INTO payment_transactions(id, order_id, amount_cents, metadata, created_at)
VALUES($1,$2,$3,$4,$5)`,
		entry.ID, entry.OrderID, entry.AmountCents, meta, entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

var _ domain.TransactionRecorder = (*Recorder)(nil)
