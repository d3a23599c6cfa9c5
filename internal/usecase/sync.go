package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/bloom-wire-service/internal/domain"
)

// Syncer — сопоставление списочных записей сети с локальными зеркалами.
// Одна запись за вызов; вызовы строго последовательны внутри цикла опроса.
type Syncer struct {
	Wire         domain.WireOrderRepository
	Network      domain.OrderNetwork
	Notifier     domain.Notifier
	Materializer *Materializer
	Reconciler   Reconciler
	Now          func() time.Time
}

func (s *Syncer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ProcessListRecord прогоняет одну списочную запись через конечный автомат
// UNSEEN/SEEN. Результат — только для метрик цикла.
func (s *Syncer) ProcessListRecord(ctx context.Context, rec domain.ListRecord) (domain.SyncResult, error) {
	if rec.MessageNumber == "" {
		log.Printf("wire sync: list record without messageNumber, skipping")
		return domain.ResultUnchanged, nil
	}
	// Исходящие заказы не зеркалируются и не мутируются.
	if !domain.IsInbound(rec.Direction) {
		return domain.ResultUnchanged, nil
	}

	existing, err := s.Wire.Get(ctx, rec.MessageNumber)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return s.admitNew(ctx, rec)
	case err != nil:
		return domain.ResultUnchanged, fmt.Errorf("load mirror %s: %w", rec.MessageNumber, err)
	}
	return s.revisit(ctx, existing, rec)
}

// admitNew — путь UNSEEN: детали, зеркало, уведомление, материализация.
func (s *Syncer) admitNew(ctx context.Context, rec domain.ListRecord) (domain.SyncResult, error) {
	detail, err := s.Network.FetchDetails(ctx, rec.OrderItemID)
	if err != nil {
		return domain.ResultUnchanged, fmt.Errorf("fetch details %s: %w", rec.MessageNumber, err)
	}
	if detail == nil {
		// Без деталей заказ не заводится вовсе: запись вернётся в список
		// на следующем цикле, он и есть механизм повтора.
		log.Printf("wire sync: no detail payload for %s yet, deferring to next poll", rec.MessageNumber)
		return domain.ResultUnchanged, nil
	}

	w := buildMirror(rec, detail, s.now())
	if err := s.Wire.Create(ctx, w); err != nil {
		return domain.ResultUnchanged, fmt.Errorf("create mirror %s: %w", rec.MessageNumber, err)
	}
	log.Printf("wire sync: mirrored order %s (%s)", w.ExternalID, w.RawStatus)

	if s.Notifier != nil {
		if err := s.Notifier.NotifyNewOrder(ctx, notification(w, false)); err != nil {
			log.Printf("wire sync: notify %s: %v", w.ExternalID, err)
		}
	}

	if err := s.Materializer.Materialize(ctx, w); err != nil {
		// Зеркало остаётся без привязки; следующий цикл доделает.
		log.Printf("wire sync: materialize %s: %v", w.ExternalID, err)
	}
	return domain.ResultNew, nil
}

// revisit — путь SEEN: обновление статуса, самовосстановление, сверка.
func (s *Syncer) revisit(ctx context.Context, w *domain.WireOrder, rec domain.ListRecord) (domain.SyncResult, error) {
	now := s.now()
	next := domain.SyncStatusFor(rec.Status)
	changed := next != w.SyncStatus

	if changed {
		if err := s.Wire.UpdateStatus(ctx, w.ExternalID, next, rec.Status, now); err != nil {
			return domain.ResultUnchanged, fmt.Errorf("update status %s: %w", w.ExternalID, err)
		}
		log.Printf("wire sync: order %s status %s -> %s", w.ExternalID, w.RawStatus, rec.Status)
		w.SyncStatus = next
		w.RawStatus = rec.Status
	} else {
		if err := s.Wire.Touch(ctx, w.ExternalID, now); err != nil {
			return domain.ResultUnchanged, fmt.Errorf("touch %s: %w", w.ExternalID, err)
		}
	}
	w.LastCheckedAt = now

	if !w.Materialized() {
		// Прошлая материализация не удалась; чиним до сверки статуса.
		if err := s.Materializer.Materialize(ctx, w); err != nil {
			log.Printf("wire sync: re-materialize %s: %v", w.ExternalID, err)
		}
	}
	if w.Materialized() {
		if err := s.Reconciler.Reconcile(ctx, w); err != nil {
			return domain.ResultUnchanged, fmt.Errorf("reconcile %s: %w", w.ExternalID, err)
		}
	}

	if changed {
		return domain.ResultUpdated, nil
	}
	return domain.ResultUnchanged, nil
}

// RefreshDetails — ручное обновление деталей одного заказа. Единственный
// путь, которому позволено перезаписать уже выбранный пейлоад.
func (s *Syncer) RefreshDetails(ctx context.Context, externalID string) (*domain.WireOrder, error) {
	w, err := s.Wire.Get(ctx, externalID)
	if err != nil {
		return nil, err
	}
	detail, err := s.Network.FetchDetails(ctx, w.OrderItemID)
	if err != nil {
		return nil, fmt.Errorf("fetch details %s: %w", externalID, err)
	}
	if detail == nil {
		return nil, domain.ErrNotFound
	}
	applyDetail(w, detail, s.now())
	if err := s.Wire.SaveDetails(ctx, w); err != nil {
		return nil, fmt.Errorf("save details %s: %w", externalID, err)
	}
	log.Printf("wire sync: details refreshed for %s (manual)", externalID)
	return w, nil
}

func buildMirror(rec domain.ListRecord, detail *domain.OrderDetail, now time.Time) *domain.WireOrder {
	w := &domain.WireOrder{
		ExternalID:    rec.MessageNumber,
		OrderItemID:   rec.OrderItemID,
		Direction:     rec.Direction,
		RawStatus:     rec.Status,
		SyncStatus:    domain.SyncStatusFor(rec.Status),
		LastCheckedAt: now,
		CreatedAt:     now,
	}
	if w.OrderItemID == "" {
		w.OrderItemID = detail.OrderItemID
	}
	applyDetail(w, detail, now)
	return w
}

// applyDetail переносит производные поля детального пейлоада в зеркало.
func applyDetail(w *domain.WireOrder, detail *domain.OrderDetail, now time.Time) {
	w.SendingFloristCode = detail.SendingMember.MemberCode
	w.RecipientFirstName = domain.CleanName(detail.RecipientInfo.FirstName)
	w.RecipientLastName = domain.CleanName(detail.RecipientInfo.LastName)
	w.RecipientPhone = detail.RecipientInfo.Phone
	w.RecipientCity = detail.RecipientInfo.City
	w.DeliveryDate = detail.DeliveryDate()
	w.CardMessage = domain.CleanMessage(detail.DeliveryInfo.CardMessage)
	w.ProductDescription = detail.ProductDescription()
	w.TotalAmountCents = detail.TotalAmountCents()
	w.DetailedPayload = detail.Raw
	fetchedAt := now
	w.DetailedFetchedAt = &fetchedAt
}

func notification(w *domain.WireOrder, isUpdate bool) domain.OrderNotification {
	return domain.OrderNotification{
		ExternalID:         w.ExternalID,
		RecipientFirstName: w.RecipientFirstName,
		RecipientLastName:  w.RecipientLastName,
		City:               w.RecipientCity,
		DeliveryDate:       w.DeliveryDate,
		ProductDescription: w.ProductDescription,
		TotalAmountCents:   w.TotalAmountCents,
		CardMessage:        w.CardMessage,
		IsUpdate:           isUpdate,
	}
}
