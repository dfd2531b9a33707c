// Package promo implements discount codes such as the one handed out by the
// welcome signup. A promo code previews a discount on the cart view.
package promo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported discount strategies.
type DiscountType string

const (
	// DiscountPercentage takes a percentage off the subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed takes a fixed amount off, capped at the subtotal.
	DiscountFixed DiscountType = "fixed"
	// DiscountFreeLowest makes one unit of the cheapest item free.
	DiscountFreeLowest DiscountType = "free_lowest"
)

var (
	// ErrInvalidCode is returned for unknown codes and for carts that do not
	// meet a rule's minimum item count.
	ErrInvalidCode = errors.New("invalid promo code")
	// ErrExpired is returned outside a rule's validity window.
	ErrExpired = errors.New("promo code expired")
)

// Rule defines a code's discount and eligibility.
type Rule struct {
	Code         string
	DiscountType DiscountType
	Value        decimal.Decimal
	MinItems     int
	Description  string
	ValidFrom    *time.Time
	ValidUntil   *time.Time
}

// Discount is a computed discount.
type Discount struct {
	Amount      decimal.Decimal
	Description string
}

// Item is the part of a cart line a discount needs.
type Item struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// Repository looks up rules by code.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)
}

var _ Repository = (*StaticRepository)(nil)

// StaticRepository serves a fixed rule set. Codes match case-insensitively.
type StaticRepository struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// NewStaticRepository indexes rules by upper-cased code.
func NewStaticRepository(rules ...Rule) *StaticRepository {
	r := &StaticRepository{rules: make(map[string]Rule, len(rules))}
	for _, rule := range rules {
		r.rules[normalize(rule.Code)] = rule
	}
	return r
}

// FindByCode returns the rule for code or ErrInvalidCode.
func (r *StaticRepository) FindByCode(_ context.Context, code string) (*Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[normalize(code)]
	if !ok {
		return nil, ErrInvalidCode
	}
	return &rule, nil
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Chain looks a code up in each repository in turn. The first one that knows
// the code wins; other errors stop the search.
type Chain []Repository

// FindByCode implements Repository.
func (c Chain) FindByCode(ctx context.Context, code string) (*Rule, error) {
	for _, repo := range c {
		rule, err := repo.FindByCode(ctx, code)
		if errors.Is(err, ErrInvalidCode) {
			continue
		}
		return rule, err
	}
	return nil, ErrInvalidCode
}
