package memory

import (
	"context"

	"github.com/xenking/kart-storefront/internal/domain/catalog"
)

var _ catalog.Repository = (*Catalog)(nil)

// Catalog serves a fixed list of cards in the given order.
type Catalog struct {
	cards []catalog.Card
	byID  map[string]int
}

// NewCatalog indexes cards by id. Later duplicates replace earlier ones.
func NewCatalog(cards []catalog.Card) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(cards))}
	for _, card := range cards {
		if i, ok := c.byID[card.ID]; ok {
			c.cards[i] = card
			continue
		}
		c.byID[card.ID] = len(c.cards)
		c.cards = append(c.cards, card)
	}
	return c
}

func (c *Catalog) List(_ context.Context) ([]catalog.Card, error) {
	return append([]catalog.Card(nil), c.cards...), nil
}

func (c *Catalog) GetByID(_ context.Context, id string) (*catalog.Card, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, &catalog.ProductNotFoundError{ProductID: id}
	}
	card := c.cards[i]
	return &card, nil
}
