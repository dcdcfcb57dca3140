package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/storage"
)

// ValidatedLine - позиция запроса, для которой найден вариант и текущая цена товара
type ValidatedLine struct {
	models.Line
	VariantID int64
	UnitPrice decimal.Decimal
}

// StockValidator проверяет, что каждая позиция существует и остатка хватает.
// Только чтение, ничего не меняет.
type StockValidator struct {
	variantRepo storage.VariantStorage
	productRepo storage.ProductStorage
}

func NewStockValidator(variantRepo storage.VariantStorage, productRepo storage.ProductStorage) *StockValidator {
	return &StockValidator{variantRepo: variantRepo, productRepo: productRepo}
}

// Validate возвращает ошибку для первой (в порядке запроса) позиции, которую нельзя выполнить.
// Позиции на один и тот же вариант проверяются по суммарному количеству.
func (v *StockValidator) Validate(ctx context.Context, lines []models.Line) ([]ValidatedLine, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: at least one product is required", ErrValidation)
	}

	requested := make(map[int64]int, len(lines))
	prices := make(map[int64]decimal.Decimal, len(lines))
	out := make([]ValidatedLine, 0, len(lines))

	for _, line := range lines {
		variant, err := v.variantRepo.FindVariant(ctx, line.ProductID, line.SizeID, line.Color)
		if err != nil {
			if errors.Is(err, storage.ErrVariantNotFound) {
				return nil, lineError(line, err)
			}
			return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
		}

		requested[variant.ID] += line.Quantity
		if variant.Quantity < requested[variant.ID] {
			return nil, lineError(line, storage.ErrInsufficientStock)
		}

		price, ok := prices[line.ProductID]
		if !ok {
			product, err := v.productRepo.FindProduct(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, storage.ErrProductNotFound) {
					return nil, lineError(line, err)
				}
				return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
			}
			price = product.Price
			prices[line.ProductID] = price
		}

		out = append(out, ValidatedLine{Line: line, VariantID: variant.ID, UnitPrice: price})
	}

	return out, nil
}

func lineError(line models.Line, cause error) error {
	return fmt.Errorf("%w: product %d size %d color %q quantity %d: %w",
		ErrInsufficientStock, line.ProductID, line.SizeID, line.Color, line.Quantity, cause)
}
