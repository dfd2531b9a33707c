package promo

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Apply computes the discount of rule over items, rounded to cents and never
// negative. It returns ErrInvalidCode when items fall short of MinItems.
func Apply(rule *Rule, items []Item) (Discount, error) {
	if rule.MinItems > 0 && units(items) < rule.MinItems {
		return Discount{}, errors.Wrapf(ErrInvalidCode, "%s needs %d items", rule.Code, rule.MinItems)
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	var amount decimal.Decimal
	switch rule.DiscountType {
	case DiscountPercentage:
		amount = subtotal.Mul(rule.Value).Div(hundred)
	case DiscountFixed:
		amount = decimal.Min(rule.Value, subtotal)
	case DiscountFreeLowest:
		amount = cheapest(items)
	default:
		return Discount{}, errors.Errorf("unsupported discount type: %q", rule.DiscountType)
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}

	return Discount{
		Amount:      amount.Round(2),
		Description: rule.Description,
	}, nil
}

func units(items []Item) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

// cheapest returns the lowest unit price, or zero for no items.
func cheapest(items []Item) decimal.Decimal {
	if len(items) == 0 {
		return decimal.Zero
	}
	lowest := items[0].Price
	for _, item := range items[1:] {
		if item.Price.LessThan(lowest) {
			lowest = item.Price
		}
	}
	return lowest
}
