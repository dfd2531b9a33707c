package cart

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// MarshalSnapshot encodes items as a JSON array of
// {"name","price","image","quantity"} objects.
func MarshalSnapshot(items []LineItem) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, item := range items {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(item.Name)
		e.FieldStart("price")
		e.Num(jx.Num(item.UnitPrice.String()))
		e.FieldStart("image")
		e.Str(item.Image)
		e.FieldStart("quantity")
		e.Int(item.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

// UnmarshalSnapshot decodes a snapshot produced by MarshalSnapshot. A JSON
// null or empty input decodes to an empty cart. Entries whose price is null
// come back with a zero quantity so that loading drops them.
func UnmarshalSnapshot(data []byte) ([]LineItem, error) {
	items := []LineItem{}
	if len(data) == 0 {
		return items, nil
	}

	d := jx.DecodeBytes(data)
	if d.Next() == jx.Null {
		if err := d.Null(); err != nil {
			return nil, errors.Wrap(err, "decode snapshot")
		}
		return items, nil
	}

	err := d.Arr(func(d *jx.Decoder) error {
		item, err := decodeItem(d)
		if err != nil {
			return err
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode snapshot")
	}
	return items, nil
}

func decodeItem(d *jx.Decoder) (LineItem, error) {
	var (
		item     LineItem
		badPrice bool
	)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "name")
			}
			item.Name = v
		case "price":
			if d.Next() == jx.Null {
				badPrice = true
				return d.Null()
			}
			n, err := d.Num()
			if err != nil {
				return errors.Wrap(err, "price")
			}
			p, err := decimal.NewFromString(n.String())
			if err != nil {
				return errors.Wrap(err, "price")
			}
			item.UnitPrice = p
		case "image":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "image")
			}
			item.Image = v
		case "quantity":
			v, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "quantity")
			}
			item.Quantity = v
		default:
			return d.Skip()
		}
		return nil
	})
	if badPrice {
		item.Quantity = 0
	}
	return item, err
}
