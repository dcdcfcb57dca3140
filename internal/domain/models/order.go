package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus - статус заказа, хранится строкой в нижнем регистре
type OrderStatus string

const (
	StatusPending         OrderStatus = "pending"
	StatusProcessing      OrderStatus = "processing"
	StatusShipped         OrderStatus = "shipped"
	StatusDelivered       OrderStatus = "delivered"
	StatusCompleted       OrderStatus = "completed"
	StatusCanceled        OrderStatus = "canceled"
	StatusReturnRequested OrderStatus = "return_requested"
	StatusReturned        OrderStatus = "returned"
	StatusRefunded        OrderStatus = "refunded"
)

var orderStatuses = map[OrderStatus]struct{}{
	StatusPending:         {},
	StatusProcessing:      {},
	StatusShipped:         {},
	StatusDelivered:       {},
	StatusCompleted:       {},
	StatusCanceled:        {},
	StatusReturnRequested: {},
	StatusReturned:        {},
	StatusRefunded:        {},
}

// ParseOrderStatus принимает значение без учёта регистра и пробелов по краям
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	_, ok := orderStatuses[st]
	return st, ok
}

// IsTerminal - из этих статусов заказ дальше не движется
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusRefunded, StatusCanceled:
		return true
	}
	return false
}

// CanBeCanceledBy: отправленный заказ может отменить только администратор
func (s OrderStatus) CanBeCanceledBy(isAdmin bool) bool {
	if s == StatusShipped && !isAdmin {
		return false
	}
	return true
}

// Order - шапка заказа
type Order struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	UserEmail       string          `json:"user_email,omitempty"` // заполняется через JOIN с users
	ShippingAddress string          `json:"shipping_address"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          OrderStatus     `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []OrderItem     `json:"items,omitempty"`
}

// OrderItem - строка заказа; subtotal фиксируется по цене на момент заказа
type OrderItem struct {
	ID               int64           `json:"id"`
	OrderID          int64           `json:"order_id"`
	ProductVariantID int64           `json:"product_size_id"`
	Quantity         int             `json:"quantity"`
	Subtotal         decimal.Decimal `json:"subtotal"`

	// проекции варианта и товара, заполняются при чтении
	ProductID   int64           `json:"product_id,omitempty"`
	ProductName string          `json:"product_name,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	SizeType    string          `json:"size,omitempty"`
	Color       string          `json:"color,omitempty"`
}

// ShippingAddress - адрес доставки из запроса
type ShippingAddress struct {
	City   string
	Town   string
	Street string
}

// String сворачивает адрес в одну строку для колонки orders.shipping_address
func (a ShippingAddress) String() string {
	return strings.Join([]string{a.Street, a.Town, a.City}, ", ")
}

// Line - одна позиция запроса на оформление заказа
type Line struct {
	ProductID int64
	SizeID    int64
	Color     string
	Quantity  int
}
