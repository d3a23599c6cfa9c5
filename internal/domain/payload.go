package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ListRecord — облегчённая запись списочного API сети.
type ListRecord struct {
	MessageNumber string        `json:"messageNumber"`
	Direction     string        `json:"direction"`
	Status        string        `json:"status"`
	OrderItemID   string        `json:"orderItemId"`
	SendingMember Member        `json:"sendingMember"`
	RecipientInfo RecipientInfo `json:"recipientInfo"`
	DeliveryInfo  DeliveryInfo  `json:"deliveryInfo"`
	Price         []PriceEntry  `json:"price"`
}

// Member — участник сети (флорист) с кодом.
type Member struct {
	MemberCode string `json:"memberCode"`
}

// RecipientInfo — получатель из детального пейлоада.
type RecipientInfo struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip"`
	Country      string `json:"country"`
}

// DeliveryInfo — параметры доставки из детального пейлоада.
type DeliveryInfo struct {
	DeliveryDate         string `json:"deliveryDate"`
	DeliveryTimeWindow   string `json:"deliveryTimeWindow"`
	CardMessage          string `json:"cardMessage"`
	DeliveryInstructions string `json:"deliveryInstructions"`
	Occasion             string `json:"occasion"`
}

// PriceEntry — именованная сумма в долларах.
type PriceEntry struct {
	Name  string      `json:"name"`
	Value json.Number `json:"value"`
}

// DetailLineItem — позиция детального пейлоада.
type DetailLineItem struct {
	ProductName                   string       `json:"productName"`
	ProductCode                   string       `json:"productCode"`
	ProductFirstChoiceDescription string       `json:"productFirstChoiceDescription"`
	Quantity                      json.Number  `json:"quantity"`
	LineItemAmounts               []PriceEntry `json:"lineItemAmounts"`
}

// OrderDetail — типизированный детальный пейлоад. Разбирается один раз на
// границе и дальше не перечитывается из сырого блоба.
type OrderDetail struct {
	OrderItemID   string           `json:"orderItemId"`
	MessageNumber string           `json:"messageNumber"`
	Status        string           `json:"status"`
	SendingMember Member           `json:"sendingMember"`
	RecipientInfo RecipientInfo    `json:"recipientInfo"`
	DeliveryInfo  DeliveryInfo     `json:"deliveryInfo"`
	Price         []PriceEntry     `json:"price"`
	LineItems     []DetailLineItem `json:"lineItems"`

	// Raw — исходный блоб для хранения в зеркале.
	Raw json.RawMessage `json:"-"`
}

// ParseOrderDetail разбирает сырой пейлоад, сохраняя исходный блоб.
func ParseOrderDetail(raw json.RawMessage) (*OrderDetail, error) {
	var d OrderDetail
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	d.Raw = append(json.RawMessage(nil), raw...)
	return &d, nil
}

// centsOf переводит долларовую сумму в центы без плавающей точки.
func centsOf(v json.Number) int64 {
	if v == "" {
		return 0
	}
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return 0
	}
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// TotalAmountCents — полная сумма заказа в центах из записи price с именем
// orderTotal; отсутствие записи даёт ноль.
func (d *OrderDetail) TotalAmountCents() int64 {
	for _, p := range d.Price {
		if p.Name == "orderTotal" {
			return centsOf(p.Value)
		}
	}
	return 0
}

// ProductDescription собирает человекочитаемое описание из позиций.
func (d *OrderDetail) ProductDescription() string {
	var parts []string
	for _, it := range d.LineItems {
		desc := it.ProductName
		if desc == "" {
			desc = it.ProductCode
		}
		if desc == "" {
			desc = it.ProductFirstChoiceDescription
		}
		if desc == "" {
			desc = "FTD Product"
		}
		if strings.Contains(desc, "ons: Select Size") {
			if it.ProductCode != "" {
				desc = it.ProductCode
			} else {
				desc = "FTD Wire Order"
			}
		}
		parts = append(parts, desc)
	}
	if len(parts) == 0 {
		return "FTD Wire Order"
	}
	return strings.Join(parts, ", ")
}

// DeliveryDate разбирает дату доставки (календарный день, без часового пояса).
func (d *OrderDetail) DeliveryDate() *time.Time {
	if d.DeliveryInfo.DeliveryDate == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", d.DeliveryInfo.DeliveryDate)
	if err != nil {
		return nil
	}
	return &t
}

// CleanName убирает мусорные запятые и пробелы по краям имени.
func CleanName(s string) string {
	return strings.Trim(s, ", \t\r\n")
}

// CleanMessage нормализует переводы строк текста открытки.
func CleanMessage(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}
