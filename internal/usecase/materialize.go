package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/bloom-wire-service/internal/domain"
)

// DeliveryFeeCents — плоская плата за доставку, вычитаемая из суммы заказа
// при расчёте цены товарной позиции.
const DeliveryFeeCents int64 = 1500

// Materializer превращает зеркальный заказ с выбранными деталями в локальные
// записи: клиентов, адрес, заказ магазина, позицию и платёжную проводку.
// Каждый шаг дедуплицируется; зеркало материализуется не более одного раза.
type Materializer struct {
	Customers domain.CustomerRepository
	Addresses domain.AddressRepository
	Orders    domain.ShopOrderRepository
	Wire      domain.WireOrderRepository
	Ledger    domain.TransactionRecorder
	Now       func() time.Time
}

func (m *Materializer) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Materialize создаёт заказ магазина для зеркала без привязки. Пейлоад
// деталей обязателен: зеркала без деталей не существуют по построению.
func (m *Materializer) Materialize(ctx context.Context, w *domain.WireOrder) error {
	if w.Materialized() {
		return nil
	}
	if len(w.DetailedPayload) == 0 {
		return fmt.Errorf("mirror %s has no detail payload: %w", w.ExternalID, domain.ErrValidation)
	}

	sender, err := m.resolveSender(ctx, w.SendingFloristCode)
	if err != nil {
		return fmt.Errorf("resolve sender: %w", err)
	}
	recipient, err := m.resolveRecipient(ctx, w)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}

	detail, err := domain.ParseOrderDetail(w.DetailedPayload)
	if err != nil {
		return fmt.Errorf("parse detail payload: %w", err)
	}

	addr := &domain.Address{
		ID:         uuid.NewString(),
		CustomerID: recipient.ID,
		FirstName:  w.RecipientFirstName,
		LastName:   w.RecipientLastName,
		Address1:   detail.RecipientInfo.AddressLine1,
		Address2:   detail.RecipientInfo.AddressLine2,
		City:       detail.RecipientInfo.City,
		Province:   detail.RecipientInfo.State,
		PostalCode: detail.RecipientInfo.Zip,
		Country:    country(detail.RecipientInfo.Country),
		Phone:      w.RecipientPhone,
	}
	if err := m.Addresses.Create(ctx, addr); err != nil {
		return fmt.Errorf("create address: %w", err)
	}

	total := w.TotalAmountCents
	productCents := total - DeliveryFeeCents
	if productCents < 0 {
		productCents = 0
	}

	order := &domain.ShopOrder{
		ID:                  uuid.NewString(),
		Status:              domain.ShopStatusFor(w.SyncStatus),
		CustomerID:          sender.ID,
		RecipientCustomerID: recipient.ID,
		DeliveryAddressID:   addr.ID,
		DeliveryDate:        w.DeliveryDate,
		CardMessage:         w.CardMessage,
		SpecialInstructions: detail.DeliveryInfo.DeliveryInstructions,
		Occasion:            detail.DeliveryInfo.Occasion,
		PaymentAmountCents:  total,
		DeliveryFeeCents:    DeliveryFeeCents,
		CreatedAt:           m.now(),
	}
	item := domain.OrderItem{
		ID:             uuid.NewString(),
		OrderID:        order.ID,
		Description:    w.ProductDescription,
		UnitPriceCents: productCents,
		Quantity:       1,
		RowTotalCents:  productCents,
	}
	if err := m.Orders.Create(ctx, order, []domain.OrderItem{item}); err != nil {
		return fmt.Errorf("create shop order: %w", err)
	}

	linked, err := m.Wire.Link(ctx, w.ExternalID, order.ID)
	if err != nil {
		return fmt.Errorf("link mirror: %w", err)
	}
	if !linked {
		// Параллельный цикл успел раньше; наша копия заказа не публикуется.
		log.Printf("wire materialize: %s already linked, dropping duplicate attempt", w.ExternalID)
		return nil
	}
	w.LinkedOrderID = order.ID
	log.Printf("wire materialize: created shop order %s from %s (%s)", order.ID, w.ExternalID, w.RawStatus)

	// Платёжная проводка best-effort: её отказ не откатывает заказ и не
	// должен прятать его от операторов.
	if m.Ledger != nil {
		meta := map[string]string{"source": "FTD", "externalId": w.ExternalID}
		if _, err := m.Ledger.CreateLedgerEntry(ctx, order.ID, total, meta); err != nil {
			log.Printf("wire materialize: ledger entry for %s: %v", w.ExternalID, err)
		}
	}
	return nil
}

// resolveSender находит либо заводит клиента-флориста по псевдо-телефону.
// Имя-заглушка для B2B-отправителя, не имя человека.
func (m *Materializer) resolveSender(ctx context.Context, memberCode string) (*domain.Customer, error) {
	phone := domain.FloristPhone(memberCode)
	c, err := m.Customers.FindByPhone(ctx, phone)
	if err == nil {
		return c, nil
	}
	if err != domain.ErrNotFound {
		return nil, err
	}
	code := memberCode
	if code == "" {
		code = "unknown"
	}
	c = &domain.Customer{
		ID:        uuid.NewString(),
		FirstName: "FTD Florist",
		LastName:  "#" + code,
		Phone:     phone,
		Notes:     "FTD sending florist code: " + code,
		CreatedAt: m.now(),
	}
	if err := m.Customers.Create(ctx, c); err != nil {
		return nil, err
	}
	log.Printf("wire materialize: created sending florist customer #%s", code)
	return c, nil
}

// resolveRecipient: телефон → имя+город → создание.
func (m *Materializer) resolveRecipient(ctx context.Context, w *domain.WireOrder) (*domain.Customer, error) {
	normalized := domain.NormalizePhone(w.RecipientPhone)

	if normalized != "" {
		c, err := m.Customers.FindByPhone(ctx, normalized)
		if err == nil {
			m.fillContact(ctx, c, normalized, "")
			return c, nil
		}
		if err != domain.ErrNotFound {
			return nil, err
		}
	}

	if w.RecipientFirstName != "" && w.RecipientLastName != "" {
		matches, err := m.Customers.FindByName(ctx, w.RecipientFirstName, w.RecipientLastName)
		if err != nil {
			return nil, err
		}
		if c := pickByCity(matches, w.RecipientCity); c != nil {
			m.fillContact(ctx, c, normalized, "")
			return c, nil
		}
	}

	first := w.RecipientFirstName
	if first == "" {
		first = "Recipient"
	}
	c := &domain.Customer{
		ID:        uuid.NewString(),
		FirstName: first,
		LastName:  w.RecipientLastName,
		Phone:     normalized,
		CreatedAt: m.now(),
	}
	if err := m.Customers.Create(ctx, c); err != nil {
		return nil, err
	}
	log.Printf("wire materialize: created recipient customer %s %s", c.FirstName, c.LastName)
	return c, nil
}

// fillContact дозаполняет пустые контакты найденного клиента, best-effort.
func (m *Materializer) fillContact(ctx context.Context, c *domain.Customer, phone, email string) {
	if (c.Phone != "" || phone == "") && (c.Email != "" || email == "") {
		return
	}
	if err := m.Customers.UpdateContact(ctx, c.ID, phone, email); err != nil {
		log.Printf("wire materialize: update contact %s: %v", c.ID, err)
		return
	}
	if c.Phone == "" {
		c.Phone = phone
	}
	if c.Email == "" {
		c.Email = email
	}
}

// pickByCity выбирает кандидата с адресом в том же городе, иначе первого.
func pickByCity(matches []domain.CustomerMatch, city string) *domain.Customer {
	if len(matches) == 0 {
		return nil
	}
	want := strings.ToLower(strings.TrimSpace(city))
	for i := range matches {
		for _, c := range matches[i].Cities {
			if strings.ToLower(strings.TrimSpace(c)) == want {
				return &matches[i].Customer
			}
		}
	}
	return &matches[0].Customer
}

func country(c string) string {
	if c == "" {
		return "CA"
	}
	return c
}
