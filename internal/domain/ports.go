package domain

import (
	"context"
	"time"
)

// WireOrderRepository — порт персистентности зеркальных заказов.
type WireOrderRepository interface {
	Get(ctx context.Context, externalID string) (*WireOrder, error)
	Create(ctx context.Context, w *WireOrder) error
	// UpdateStatus пишет новый статус и lastCheckedAt.
	UpdateStatus(ctx context.Context, externalID string, status SyncStatus, rawStatus string, at time.Time) error
	// Touch обновляет только lastCheckedAt.
	Touch(ctx context.Context, externalID string, at time.Time) error
	// Link привязывает заказ магазина, только если зеркало ещё не привязано.
	// Проверка-и-запись атомарны; false — привязка уже существует.
	Link(ctx context.Context, externalID, orderID string) (bool, error)
	// SaveDetails перезаписывает детальный пейлоад и производные поля
	// (единственный путь повторной записи detailedFetchedAt — ручной).
	SaveDetails(ctx context.Context, w *WireOrder) error
	List(ctx context.Context, status SyncStatus) ([]WireOrder, error)
}

// ShopOrderRepository — порт персистентности заказов магазина.
type ShopOrderRepository interface {
	// Create сохраняет заказ вместе с позициями в одной транзакции.
	Create(ctx context.Context, o *ShopOrder, items []OrderItem) error
	Get(ctx context.Context, id string) (*ShopOrder, error)
	UpdateStatus(ctx context.Context, id string, status ShopOrderStatus) error
}

// CustomerRepository — порт поиска и создания клиентов.
type CustomerRepository interface {
	// FindByPhone ищет по точному совпадению либо по последним десяти
	// цифрам нормализованного номера.
	FindByPhone(ctx context.Context, phone string) (*Customer, error)
	// FindByName возвращает кандидатов по имени (без учёта регистра)
	// вместе с городами их адресов.
	FindByName(ctx context.Context, firstName, lastName string) ([]CustomerMatch, error)
	Create(ctx context.Context, c *Customer) error
	// UpdateContact дозаполняет пустые телефон и email.
	UpdateContact(ctx context.Context, id, phone, email string) error
}

// AddressRepository — порт персистентности адресов доставки.
type AddressRepository interface {
	Create(ctx context.Context, a *Address) error
}

// SettingsRepository — порт конфигурации интеграции и водяного знака.
type SettingsRepository interface {
	Get(ctx context.Context) (*Settings, error)
	SaveToken(ctx context.Context, token string, refreshedAt time.Time) error
	SaveLastSync(ctx context.Context, at time.Time) error
}

// ListQuery — параметры списочного запроса к сети.
type ListQuery struct {
	StartDate time.Time
	// EndDate нулевое — параметр остаётся пустым.
	EndDate time.Time
	Delta   bool
	// LastSync нулевое — водяного знака нет.
	LastSync time.Time
}

// OrderNetwork — порт внешней сети заказов.
type OrderNetwork interface {
	ListOrders(ctx context.Context, q ListQuery) ([]ListRecord, error)
	// FetchDetails возвращает (nil, nil) на корректный пустой ответ.
	FetchDetails(ctx context.Context, orderItemID string) (*OrderDetail, error)
}

// TokenSource — текущий bearer-токен; читается перед каждым внешним вызовом.
type TokenSource interface {
	Current() string
}

// TokenRefresher — непрозрачный поставщик свежего токена.
type TokenRefresher interface {
	Refresh(ctx context.Context) (string, error)
}

// BusinessHours — предикат рабочего времени; при отсутствии конфигурации
// обязан отвечать true.
type BusinessHours interface {
	IsOpenNow() bool
}

// Notifier — отправка уведомлений о новых заказах, best-effort.
type Notifier interface {
	NotifyNewOrder(ctx context.Context, n OrderNotification) error
}

// TransactionRecorder — внешний регистратор платёжных проводок.
type TransactionRecorder interface {
	CreateLedgerEntry(ctx context.Context, orderID string, amountCents int64, metadata map[string]string) (*LedgerEntry, error)
}

// Общие доменные ошибки
var (
	ErrNotFound     = notFoundError("not found")
	ErrValidation   = validationError("invalid data")
	ErrUnauthorized = unauthorizedError("unauthorized")
)

type notFoundError string

func (e notFoundError) Error() string { return string(e) }

type validationError string

func (e validationError) Error() string { return string(e) }

type unauthorizedError string

func (e unauthorizedError) Error() string { return string(e) }
