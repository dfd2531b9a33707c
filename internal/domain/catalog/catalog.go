// Package catalog describes the storefront's product cards and the search
// filter over them.
package catalog

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested card does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrInvalidPrice is returned when a card's price text is not a number.
	ErrInvalidPrice = errors.New("invalid price")
)

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

func (e *ProductNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Card is a product as displayed on the storefront. The price is kept as
// the text shown to the user, in one of two places: the regular price or,
// for brewing equipment, the brewing price.
type Card struct {
	ID           string
	Name         string
	Category     string
	PriceText    string
	AltPriceText string
	// Image is the image URL or path shown on the card.
	Image string
}

// Repository provides read access to the cards.
type Repository interface {
	List(ctx context.Context) ([]Card, error)
	GetByID(ctx context.Context, id string) (*Card, error)
}

// ParsePrice converts displayed price text such as "$1,250.00" into a
// decimal, stripping currency symbols and thousands separators.
func ParsePrice(text string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == '$' || r == ',' {
			return -1
		}
		return r
	}, text)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.Zero, errors.Wrapf(ErrInvalidPrice, "empty price %q", text)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, errors.Wrapf(ErrInvalidPrice, "parse %q", text)
	}
	if d.IsNegative() {
		return decimal.Zero, errors.Wrapf(ErrInvalidPrice, "negative price %q", text)
	}
	return d, nil
}

// Extract returns what an "add to cart" control passes to the cart: the
// product name, the parsed price from whichever price location is filled
// in, and the image file name.
func (c Card) Extract() (name string, price decimal.Decimal, image string, err error) {
	text := c.PriceText
	if strings.TrimSpace(text) == "" {
		text = c.AltPriceText
	}
	price, err = ParsePrice(text)
	if err != nil {
		return "", decimal.Zero, "", errors.Wrapf(err, "card %s", c.ID)
	}
	return strings.TrimSpace(c.Name), price, ImageRef(c.Image), nil
}

// ImageRef returns the last path segment of an image URL or path.
func ImageRef(image string) string {
	if image == "" {
		return ""
	}
	if i := strings.IndexAny(image, "?#"); i >= 0 {
		image = image[:i]
	}
	return path.Base(image)
}

// FormatPrice renders d as display text, e.g. "$1,250.00".
func FormatPrice(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
