package catalog

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// DecodeCards reads a JSON array of
// {"id","name","category","price","brewPrice","image"} objects, where the
// prices are display text.
func DecodeCards(data []byte) ([]Card, error) {
	var cards []Card
	err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		var c Card
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var (
				v   string
				err error
			)
			switch key {
			case "id", "name", "category", "price", "brewPrice", "image":
				v, err = d.Str()
				if err != nil {
					return errors.Wrap(err, key)
				}
			default:
				return d.Skip()
			}
			switch key {
			case "id":
				c.ID = v
			case "name":
				c.Name = v
			case "category":
				c.Category = v
			case "price":
				c.PriceText = v
			case "brewPrice":
				c.AltPriceText = v
			case "image":
				c.Image = v
			}
			return nil
		}); err != nil {
			return err
		}
		if c.ID == "" {
			return errors.Errorf("card %q has no id", c.Name)
		}
		cards = append(cards, c)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode cards")
	}
	return cards, nil
}
