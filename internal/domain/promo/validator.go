package promo

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-storefront/internal/domain/cart"
)

// Validator resolves a code to a rule that is currently usable.
type Validator struct {
	repo Repository
	now  func() time.Time
}

// NewValidator creates a Validator backed by repo.
func NewValidator(repo Repository) *Validator {
	return &Validator{repo: repo, now: time.Now}
}

// Lookup returns the rule for code after checking its validity window.
func (v *Validator) Lookup(ctx context.Context, code string) (*Rule, error) {
	rule, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			return nil, ErrInvalidCode
		}
		return nil, errors.Wrap(err, "lookup promo")
	}

	now := v.now()
	if rule.ValidFrom != nil && now.Before(*rule.ValidFrom) {
		return nil, ErrExpired
	}
	if rule.ValidUntil != nil && now.After(*rule.ValidUntil) {
		return nil, ErrExpired
	}
	return rule, nil
}

var _ cart.Adjuster = Preview{}

// Preview shows a rule's discount on the cart view.
type Preview struct {
	Rule Rule
}

// Adjust applies the rule to the cart lines. Carts the rule does not apply
// to get no adjustment.
func (p Preview) Adjust(lines []cart.LineItem) (cart.Adjustment, bool) {
	items := make([]Item, len(lines))
	for i, l := range lines {
		items[i] = Item{Name: l.Name, Price: l.UnitPrice, Quantity: l.Quantity}
	}
	d, err := Apply(&p.Rule, items)
	if err != nil || d.Amount.IsZero() {
		return cart.Adjustment{}, false
	}
	return cart.Adjustment{
		Label:       p.Rule.Code,
		Description: d.Description,
		Amount:      d.Amount,
	}, true
}
