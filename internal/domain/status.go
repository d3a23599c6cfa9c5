package domain

import "strings"

// SyncStatus — внутренний статус синхронизации зеркального заказа.
type SyncStatus string

const (
	SyncNeedsAction    SyncStatus = "NEEDS_ACTION"
	SyncAccepted       SyncStatus = "ACCEPTED"
	SyncInDesign       SyncStatus = "IN_DESIGN"
	SyncReady          SyncStatus = "READY"
	SyncOutForDelivery SyncStatus = "OUT_FOR_DELIVERY"
	SyncDelivered      SyncStatus = "DELIVERED"
	SyncRejected       SyncStatus = "REJECTED"
	SyncCancelled      SyncStatus = "CANCELLED"
)

// ShopOrderStatus — упрощённый статус заказа магазина.
type ShopOrderStatus string

const (
	ShopDraft          ShopOrderStatus = "DRAFT"
	ShopPaid           ShopOrderStatus = "PAID"
	ShopInDesign       ShopOrderStatus = "IN_DESIGN"
	ShopOutForDelivery ShopOrderStatus = "OUT_FOR_DELIVERY"
	ShopCompleted      ShopOrderStatus = "COMPLETED"
	ShopCancelled      ShopOrderStatus = "CANCELLED"
)

// ExternalStatuses — полный словарь статусов сети Mercury, запрашиваемый
// списочным API. Порядок фиксирован форматом запроса.
var ExternalStatuses = []string{
	"NEW",
	"VIEWED",
	"ACKNOWLEDGED",
	"PENDING",
	"SENT",
	"FORWARDED",
	"PRINTED",
	"DS_REQUESTED",
	"DS_REQUEST_PENDING",
	"ACKNOWLEDGE_PRINT",
	"DESIGN",
	"DESIGNED",
	"OUT_FOR_DELIVERY",
	"REJECTED",
	"CANCELLED",
	"DELIVERED",
	"ERROR",
	"FORFEITED",
}

var syncStatusByExternal = map[string]SyncStatus{
	"NEW":                SyncNeedsAction,
	"VIEWED":             SyncNeedsAction,
	"PENDING":            SyncNeedsAction,
	"SENT":               SyncNeedsAction,
	"FORWARDED":          SyncNeedsAction,
	"PRINTED":            SyncNeedsAction,
	"ACKNOWLEDGED":       SyncAccepted,
	"ACKNOWLEDGE_PRINT":  SyncAccepted,
	"DESIGN":             SyncInDesign,
	"DESIGNED":           SyncReady,
	"DS_REQUESTED":       SyncOutForDelivery,
	"DS_REQUEST_PENDING": SyncOutForDelivery,
	"OUT_FOR_DELIVERY":   SyncOutForDelivery,
	"DELIVERED":          SyncDelivered,
	"REJECTED":           SyncRejected,
	"CANCELLED":          SyncCancelled,
	"ERROR":              SyncCancelled,
	"FORFEITED":          SyncCancelled,
}

// SyncStatusFor отображает статус внешней сети во внутренний статус
// синхронизации. Неизвестные значения дают NEEDS_ACTION: незнакомый словарь
// не должен останавливать конвейер.
func SyncStatusFor(external string) SyncStatus {
	if s, ok := syncStatusByExternal[strings.ToUpper(strings.TrimSpace(external))]; ok {
		return s
	}
	return SyncNeedsAction
}

// ShopStatusFor отображает статус синхронизации в статус заказа магазина.
// Отображение многозначное: IN_DESIGN и READY схлопываются в IN_DESIGN.
func ShopStatusFor(s SyncStatus) ShopOrderStatus {
	switch s {
	case SyncAccepted:
		return ShopPaid
	case SyncInDesign, SyncReady:
		return ShopInDesign
	case SyncOutForDelivery:
		return ShopOutForDelivery
	case SyncDelivered:
		return ShopCompleted
	case SyncRejected, SyncCancelled:
		return ShopCancelled
	default:
		return ShopDraft
	}
}

// IsInbound — обрабатываются только входящие заказы сети.
func IsInbound(direction string) bool {
	return strings.EqualFold(strings.TrimSpace(direction), "INBOUND")
}
