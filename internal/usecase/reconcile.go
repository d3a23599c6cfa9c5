package usecase

import (
	"context"
	"errors"
	"log"

	"github.com/example/bloom-wire-service/internal/domain"
)

// Reconciler держит статус заказа магазина в соответствии с последним
// известным статусом сети. Для зеркалируемых заказов сеть — источник истины:
// перезапись безусловна, валидация переходов здесь намеренно отключена.
type Reconciler struct {
	Orders domain.ShopOrderRepository
}

func (r Reconciler) Reconcile(ctx context.Context, w *domain.WireOrder) error {
	if !w.Materialized() {
		return nil
	}
	desired := domain.ShopStatusFor(w.SyncStatus)

	o, err := r.Orders.Get(ctx, w.LinkedOrderID)
	if errors.Is(err, domain.ErrNotFound) {
		// Привязка указывает в пустоту: фиксируем в логе, цикл не валим.
		log.Printf("wire reconcile: %s linked to missing order %s", w.ExternalID, w.LinkedOrderID)
		return nil
	}
	if err != nil {
		return err
	}
	if o.Status == desired {
		return nil
	}
	if err := r.Orders.UpdateStatus(ctx, o.ID, desired); err != nil {
		return err
	}
	log.Printf("wire reconcile: order %s status %s -> %s", o.ID, o.Status, desired)
	return nil
}
