// Package storage provides per-session key/value slots and the adapters that
// keep domain state in them.
package storage

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-storefront/internal/domain/cart"
)

// Slot keys. Each concern owns its own key.
const (
	KeyCart       = "cart"
	KeyModalShown = "modalShown"
	KeyPromo      = "promo"
	// KeyFlash holds a notice to show on the next page render.
	KeyFlash = "flash"
)

// ErrNotFound is returned by Slots.Get when a slot has never been written.
var ErrNotFound = errors.New("slot not found")

// Slots is session-scoped key/value storage.
type Slots interface {
	Get(ctx context.Context, session, key string) ([]byte, error)
	Set(ctx context.Context, session, key string, value []byte) error
}

var _ cart.Storage = (*CartSlot)(nil)

// CartSlot stores a session's cart snapshot in the KeyCart slot.
type CartSlot struct {
	slots   Slots
	session string
}

// NewCartSlot returns the cart storage for session.
func NewCartSlot(slots Slots, session string) *CartSlot {
	return &CartSlot{slots: slots, session: session}
}

// Load reads and decodes the snapshot. A missing slot is an empty cart.
func (c *CartSlot) Load(ctx context.Context) ([]cart.LineItem, error) {
	data, err := c.slots.Get(ctx, c.session, KeyCart)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read cart slot")
	}
	return cart.UnmarshalSnapshot(data)
}

// Save encodes and writes the snapshot.
func (c *CartSlot) Save(ctx context.Context, items []cart.LineItem) error {
	if err := c.slots.Set(ctx, c.session, KeyCart, cart.MarshalSnapshot(items)); err != nil {
		return errors.Wrap(err, "write cart slot")
	}
	return nil
}
