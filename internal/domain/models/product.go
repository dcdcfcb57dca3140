package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product - карточка товара в каталоге
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"` // NUMERIC(10,2)
	IsFeatured  bool            `json:"is_featured"`
	CategoryID  *int64          `json:"category_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Size - глобальный размер ("M", "42"), общий для всех товаров
type Size struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// ProductVariant - продаваемая единица (товар, размер, цвет) со своим остатком.
// В БД таблица product_sizes, уникальность по (product_id, size_id, color).
type ProductVariant struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	SizeID    int64  `json:"size_id"`
	SizeType  string `json:"size,omitempty"` // заполняется через JOIN с sizes
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

// ProductWithVariants - товар вместе со всеми вариантами
type ProductWithVariants struct {
	Product
	Variants []ProductVariant `json:"variants"`
}
