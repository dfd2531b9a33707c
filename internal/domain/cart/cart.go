// Package cart holds a browsing session's shopping cart: an ordered list of
// line items, the operations that mutate it, its persisted snapshot format
// and the pure projection into a ViewModel.
package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidItem is returned when an item cannot be placed in the cart.
var ErrInvalidItem = errors.New("invalid cart item")

// MaxQuantity bounds a single line item's quantity.
const MaxQuantity = 9999

// LineItem is one product entry in the cart.
type LineItem struct {
	Name      string
	UnitPrice decimal.Decimal
	Image     string
	Quantity  int
}

// Subtotal returns UnitPrice * Quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Storage persists the cart snapshot.
type Storage interface {
	// Load returns the persisted items. A missing snapshot is not an error.
	Load(ctx context.Context) ([]LineItem, error)
	Save(ctx context.Context, items []LineItem) error
}

// indexOf returns the position of the item named name, or -1.
func indexOf(items []LineItem, name string) int {
	for i := range items {
		if items[i].Name == name {
			return i
		}
	}
	return -1
}

// removeAt deletes items[i] keeping the order of the rest.
func removeAt(items []LineItem, i int) []LineItem {
	out := make([]LineItem, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}

func cloneItems(items []LineItem) []LineItem {
	if len(items) == 0 {
		return []LineItem{}
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

// Total returns the sum of UnitPrice * Quantity over items.
func Total(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Subtotal())
	}
	return sum
}

// Count returns the sum of quantities over items.
func Count(items []LineItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

// sanitize drops entries that would break the cart invariants: empty names,
// negative prices, quantities outside [1, MaxQuantity] and repeated names
// (first wins).
func sanitize(items []LineItem) (clean []LineItem, dropped int) {
	clean = make([]LineItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.Name == "" || item.Quantity < 1 || item.Quantity > MaxQuantity || item.UnitPrice.IsNegative() {
			dropped++
			continue
		}
		if _, ok := seen[item.Name]; ok {
			dropped++
			continue
		}
		seen[item.Name] = struct{}{}
		clean = append(clean, item)
	}
	return clean, dropped
}
