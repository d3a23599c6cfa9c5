package domain

import (
	"encoding/json"
	"time"
)

// WireOrder — локальное зеркало заказа внешней сети. Создаётся при первом
// появлении externalId в списочном опросе; далее мутируют только статус и
// lastCheckedAt. Записи никогда не удаляются.
type WireOrder struct {
	ExternalID         string
	OrderItemID        string
	Direction          string
	RawStatus          string
	SyncStatus         SyncStatus
	SendingFloristCode string
	RecipientFirstName string
	RecipientLastName  string
	RecipientPhone     string
	RecipientCity      string
	DeliveryDate       *time.Time
	CardMessage        string
	ProductDescription string
	TotalAmountCents   int64
	DetailedPayload    json.RawMessage
	// DetailedFetchedAt выставляется не более одного раза автоматическим
	// путём; перезаписать его может только ручное обновление деталей.
	DetailedFetchedAt *time.Time
	// LinkedOrderID — пустая строка, пока заказ магазина не материализован.
	LinkedOrderID string
	LastCheckedAt time.Time
	CreatedAt     time.Time
}

// Materialized сообщает, создан ли уже заказ магазина для этого зеркала.
func (w *WireOrder) Materialized() bool { return w.LinkedOrderID != "" }

// ShopOrder — собственный заказ магазина, материализованный из зеркала.
type ShopOrder struct {
	ID                  string
	Status              ShopOrderStatus
	CustomerID          string
	RecipientCustomerID string
	DeliveryAddressID   string
	DeliveryDate        *time.Time
	CardMessage         string
	SpecialInstructions string
	Occasion            string
	PaymentAmountCents  int64
	DeliveryFeeCents    int64
	CreatedAt           time.Time
}

// OrderItem — позиция заказа магазина.
type OrderItem struct {
	ID             string
	OrderID        string
	Description    string
	UnitPriceCents int64
	Quantity       int
	RowTotalCents  int64
}

// Customer — клиент в роли отправителя либо получателя. Телефон хранится в
// нормализованном цифровом виде (псевдо-телефоны флористов — как есть).
type Customer struct {
	ID        string
	FirstName string
	LastName  string
	Phone     string
	Email     string
	Notes     string
	CreatedAt time.Time
}

// CustomerMatch — кандидат при поиске по имени вместе с городами его адресов.
type CustomerMatch struct {
	Customer Customer
	Cities   []string
}

// Address — адрес доставки. Импорт из сети всегда создаёт новый адрес на
// заказ, без дедупликации: асимметрия с интерактивным потоком сохранена
// намеренно.
type Address struct {
	ID         string
	CustomerID string
	FirstName  string
	LastName   string
	Address1   string
	Address2   string
	City       string
	Province   string
	PostalCode string
	Country    string
	Phone      string
}

// LedgerEntry — проводка платёжного журнала внешнего регистратора транзакций.
type LedgerEntry struct {
	ID          string
	OrderID     string
	AmountCents int64
	Metadata    map[string]string
	CreatedAt   time.Time
}

// OrderNotification — сводка нового заказа для уведомления.
type OrderNotification struct {
	ExternalID         string     `json:"externalId"`
	RecipientFirstName string     `json:"recipientFirstName"`
	RecipientLastName  string     `json:"recipientLastName"`
	City               string     `json:"city"`
	DeliveryDate       *time.Time `json:"deliveryDate"`
	ProductDescription string     `json:"productDescription"`
	TotalAmountCents   int64      `json:"totalAmountCents"`
	CardMessage        string     `json:"cardMessage"`
	IsUpdate           bool       `json:"isUpdate"`
}

// Settings — конфигурация интеграции: одна строка в хранилище.
type Settings struct {
	ShopID                 string
	APIKey                 string
	AuthToken              string
	TokenRefreshedAt       *time.Time
	LastSyncTime           *time.Time
	PollingEnabled         bool
	PollingIntervalSeconds int
}

// SyncResult — исход обработки одной списочной записи, только для метрик.
type SyncResult string

const (
	ResultNew       SyncResult = "new"
	ResultUpdated   SyncResult = "updated"
	ResultUnchanged SyncResult = "unchanged"
)
