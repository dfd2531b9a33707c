package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/catalog"
	"github.com/xenking/kart-storefront/internal/domain/notice"
	"github.com/xenking/kart-storefront/internal/domain/promo"
	"github.com/xenking/kart-storefront/internal/session"
	"github.com/xenking/kart-storefront/internal/storage"
)

// GetCart returns the cart view. It is what a page calls once on load.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	rec := &recorder{}
	s := h.carts.Cart(r.Context(), session.FromContext(r.Context()))
	s.Initialize(cart.WithPresenter(r.Context(), rec))
	h.writeMutation(w, http.StatusOK, rec, s)
}

// addRequest is either {"productId"} or a direct {"name","price","image"}.
type addRequest struct {
	productID string
	name      string
	price     string
	image     string
}

func decodeAddRequest(r *http.Request) (addRequest, error) {
	var req addRequest
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			req.productID, err = d.Str()
		case "name":
			req.name, err = d.Str()
		case "image":
			req.image, err = d.Str()
		case "price":
			// Accept a JSON number or the displayed price text.
			if d.Next() == jx.Number {
				var n jx.Num
				n, err = d.Num()
				req.price = n.String()
			} else {
				req.price, err = d.Str()
			}
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return req, err
	}
	if req.productID == "" && req.name == "" {
		return req, errors.Wrap(errBadRequest, "productId or name is required")
	}
	return req, nil
}

// AddItem adds one unit of a catalog product, or of a product described
// inline, to the cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAddRequest(r)
	if err != nil {
		fail(w, r, err, mapCartError)
		return
	}
	rec, s, err := h.add(r.Context(), req)
	if err != nil {
		fail(w, r, err, mapCartError)
		return
	}
	h.writeMutation(w, http.StatusOK, rec, s)
}

func (h *Handler) add(ctx context.Context, req addRequest) (*recorder, *cart.Store, error) {
	var card catalog.Card
	if req.productID != "" {
		c, err := h.catalog.GetByID(ctx, req.productID)
		if err != nil {
			return nil, nil, err
		}
		card = *c
	} else {
		card = catalog.Card{ID: req.name, Name: req.name, PriceText: req.price, Image: req.image}
	}

	name, price, image, err := card.Extract()
	if err != nil {
		zctx.From(ctx).Warn("Rejected product", zap.String("product", card.ID), zap.Error(err))
		return nil, nil, err
	}
	return h.mutate(ctx, "add", func(ctx context.Context, s *cart.Store) error {
		return s.Add(ctx, name, price, image)
	})
}

// RemoveItem deletes a line item by name.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	rec, s, err := h.mutate(r.Context(), "remove", func(ctx context.Context, s *cart.Store) error {
		return s.Remove(ctx, name)
	})
	if err != nil {
		fail(w, r, err, mapCartError)
		return
	}
	h.writeMutation(w, http.StatusOK, rec, s)
}

// ChangeQuantity applies {"delta"} to a line item's quantity.
func (h *Handler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	var (
		delta    int
		hasDelta bool
	)
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != "delta" {
			return d.Skip()
		}
		hasDelta = true
		var err error
		delta, err = d.Int()
		return err
	})
	if err == nil && !hasDelta {
		err = errors.Wrap(errBadRequest, "delta is required")
	}
	if err != nil {
		fail(w, r, err, mapCartError)
		return
	}

	rec, s, err := h.changeQuantity(r.Context(), r.PathValue("name"), delta)
	if err != nil {
		fail(w, r, err, mapCartError)
		return
	}
	h.writeMutation(w, http.StatusOK, rec, s)
}

func (h *Handler) changeQuantity(ctx context.Context, name string, delta int) (*recorder, *cart.Store, error) {
	return h.mutate(ctx, "quantity", func(ctx context.Context, s *cart.Store) error {
		return s.ChangeQuantity(ctx, name, delta)
	})
}

// ApplyPromo previews {"code"} on the cart. An empty code clears it.
func (h *Handler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	var code string
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != "code" {
			return d.Skip()
		}
		var err error
		code, err = d.Str()
		return err
	})
	if err != nil {
		fail(w, r, err, mapCartError)
		return
	}

	rec, s, err := h.applyPromo(r.Context(), code)
	if err != nil {
		fail(w, r, err, mapCartError)
		return
	}
	h.writeMutation(w, http.StatusOK, rec, s)
}

func (h *Handler) applyPromo(ctx context.Context, code string) (*recorder, *cart.Store, error) {
	code = strings.TrimSpace(code)
	sid := session.FromContext(ctx)

	var adj cart.Adjuster
	n := notice.Notice{Kind: notice.KindInfo, Title: "Promo removed", AutoDismiss: notice.DefaultDismiss}
	if code != "" {
		rule, err := h.promos.Lookup(ctx, code)
		if err != nil {
			return nil, nil, err
		}
		adj = promo.Preview{Rule: *rule}
		code = rule.Code
		n = notice.Notice{
			Kind:        notice.KindSuccess,
			Title:       "Promo applied",
			Text:        fmt.Sprintf("%s: %s", rule.Code, rule.Description),
			AutoDismiss: notice.DefaultDismiss,
		}
	}
	if err := h.slots.Set(ctx, sid, storage.KeyPromo, []byte(code)); err != nil {
		return nil, nil, errors.Wrap(err, "save promo")
	}

	rec, s, err := h.mutate(ctx, "promo", func(ctx context.Context, s *cart.Store) error {
		s.SetAdjuster(ctx, adj)
		return nil
	})
	if err != nil {
		return rec, s, err
	}
	rec.notice = n
	return rec, s, nil
}

// writeMutation responds with the view the operation rendered, or the
// current one, plus the count and any notice.
func (h *Handler) writeMutation(w http.ResponseWriter, status int, rec *recorder, s *cart.Store) {
	vm := s.View()
	if rec.view != nil {
		vm = *rec.view
	}
	count := vm.Count
	if rec.counted {
		count = rec.count
	}
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("view")
		h.encodeView(e, vm)
		e.FieldStart("count")
		e.Int(count)
		if !rec.notice.IsZero() {
			e.FieldStart("notice")
			encodeNotice(e, rec.notice)
		}
		e.ObjEnd()
	})
}

// RestorePromo returns the adjuster for a session's saved promo code, so a
// reopened cart keeps showing its discount.
func RestorePromo(slots storage.Slots, v *promo.Validator) session.AdjusterFunc {
	return func(ctx context.Context, sid string) cart.Adjuster {
		data, err := slots.Get(ctx, sid, storage.KeyPromo)
		if err != nil || len(data) == 0 {
			return nil
		}
		rule, err := v.Lookup(ctx, string(data))
		if err != nil {
			return nil
		}
		return promo.Preview{Rule: *rule}
	}
}
