package cart

import (
	"github.com/shopspring/decimal"
)

// EmptyMessage is shown in place of rows when the cart has no items.
const EmptyMessage = "Your cart is empty"

// ImageDir prefixes item image references in rendered rows.
const ImageDir = "images/"

// ViewModel is a rendering-agnostic description of the cart view.
type ViewModel struct {
	Rows         []Row
	Empty        bool
	EmptyMessage string
	// Total is the cart total formatted to two decimal places.
	Total string
	// Count is the sum of all quantities.
	Count      int
	Adjustment *AdjustmentRow
}

// Row is one rendered line item.
type Row struct {
	Name      string
	Image     string
	UnitPrice string
	Quantity  int
	Subtotal  string
}

// AdjustmentRow shows a price adjustment (a promo discount) beneath the
// total. It does not change Total.
type AdjustmentRow struct {
	Label       string
	Description string
	Amount      string
	// Final is Total minus Amount, floored at zero.
	Final string
}

// Adjustment is a computed change to the amount payable.
type Adjustment struct {
	Label       string
	Description string
	Amount      decimal.Decimal
}

// Adjuster computes an optional adjustment for the given items.
type Adjuster interface {
	Adjust(items []LineItem) (Adjustment, bool)
}

// Render projects items into a ViewModel. It has no side effects.
func Render(items []LineItem, adj Adjuster) ViewModel {
	total := Total(items)
	vm := ViewModel{
		Rows:  make([]Row, 0, len(items)),
		Total: total.StringFixed(2),
		Count: Count(items),
	}
	if len(items) == 0 {
		vm.Empty = true
		vm.EmptyMessage = EmptyMessage
	}
	for _, item := range items {
		vm.Rows = append(vm.Rows, Row{
			Name:      item.Name,
			Image:     ImageDir + item.Image,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal().StringFixed(2),
		})
	}

	if adj == nil || len(items) == 0 {
		return vm
	}
	a, ok := adj.Adjust(items)
	if !ok {
		return vm
	}
	final := total.Sub(a.Amount)
	if final.IsNegative() {
		final = decimal.Zero
	}
	vm.Adjustment = &AdjustmentRow{
		Label:       a.Label,
		Description: a.Description,
		Amount:      a.Amount.StringFixed(2),
		Final:       final.StringFixed(2),
	}
	return vm
}
