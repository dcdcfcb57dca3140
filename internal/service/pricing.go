package service

import "github.com/shopspring/decimal"

// PricedLine - позиция с посчитанной суммой
type PricedLine struct {
	ValidatedLine
	Subtotal decimal.Decimal
}

// PriceLines считает subtotal = цена × количество для каждой позиции и итог по заказу.
// Суммы в валюте, округление до копеек.
func PriceLines(lines []ValidatedLine) ([]PricedLine, decimal.Decimal) {
	priced := make([]PricedLine, 0, len(lines))
	total := decimal.Zero
	for _, l := range lines {
		subtotal := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
		priced = append(priced, PricedLine{ValidatedLine: l, Subtotal: subtotal})
		total = total.Add(subtotal)
	}
	return priced, total
}
