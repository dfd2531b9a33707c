package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/catalog"
	"github.com/xenking/kart-storefront/internal/domain/notice"
)

const maxBodySize = 1 << 16

// errBadRequest marks malformed request bodies.
var errBadRequest = errors.New("bad request")

// decodeBody reads a JSON object from r and calls fn for every field.
func decodeBody(r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	if len(data) == 0 {
		return errors.Wrap(errBadRequest, "empty body")
	}
	if err := jx.DecodeBytes(data).Obj(fn); err != nil {
		return errors.Wrapf(errBadRequest, "decode body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func (h *Handler) imageURL(p string) string {
	if h.imageBaseURL == "" || p == "" || strings.Contains(p, "://") {
		return p
	}
	return strings.TrimSuffix(h.imageBaseURL, "/") + "/" + strings.TrimPrefix(p, "/")
}

func (h *Handler) encodeView(e *jx.Encoder, vm cart.ViewModel) {
	e.ObjStart()
	e.FieldStart("rows")
	e.ArrStart()
	for _, r := range vm.Rows {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(r.Name)
		e.FieldStart("image")
		e.Str(h.imageURL(r.Image))
		e.FieldStart("unitPrice")
		e.Str(r.UnitPrice)
		e.FieldStart("quantity")
		e.Int(r.Quantity)
		e.FieldStart("subtotal")
		e.Str(r.Subtotal)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("empty")
	e.Bool(vm.Empty)
	if vm.Empty {
		e.FieldStart("emptyMessage")
		e.Str(vm.EmptyMessage)
	}
	e.FieldStart("total")
	e.Str(vm.Total)
	e.FieldStart("count")
	e.Int(vm.Count)
	if a := vm.Adjustment; a != nil {
		e.FieldStart("adjustment")
		e.ObjStart()
		e.FieldStart("label")
		e.Str(a.Label)
		e.FieldStart("description")
		e.Str(a.Description)
		e.FieldStart("amount")
		e.Str(a.Amount)
		e.FieldStart("final")
		e.Str(a.Final)
		e.ObjEnd()
	}
	e.ObjEnd()
}

func encodeNotice(e *jx.Encoder, n notice.Notice) {
	e.ObjStart()
	e.FieldStart("kind")
	e.Str(string(n.Kind))
	e.FieldStart("title")
	e.Str(n.Title)
	e.FieldStart("text")
	e.Str(n.Text)
	if n.AutoDismiss > 0 {
		e.FieldStart("autoDismissMs")
		e.Int64(n.AutoDismiss.Milliseconds())
	}
	if n.Confirm != "" {
		e.FieldStart("confirm")
		e.Str(n.Confirm)
	}
	if n.Cancel != "" {
		e.FieldStart("cancel")
		e.Str(n.Cancel)
	}
	e.ObjEnd()
}

func (h *Handler) encodeCard(e *jx.Encoder, c catalog.Card) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(c.ID)
	e.FieldStart("name")
	e.Str(c.Name)
	e.FieldStart("category")
	e.Str(c.Category)
	if c.PriceText != "" {
		e.FieldStart("price")
		e.Str(c.PriceText)
	}
	if c.AltPriceText != "" {
		e.FieldStart("brewPrice")
		e.Str(c.AltPriceText)
	}
	e.FieldStart("image")
	e.Str(h.imageURL(c.Image))
	e.ObjEnd()
}

// writeError writes {"code","message"} and, when n is set, a "notice" the
// page shows to the user.
func writeError(w http.ResponseWriter, status int, msg string, n *notice.Notice) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(msg)
		if n != nil {
			e.FieldStart("notice")
			encodeNotice(e, *n)
		}
		e.ObjEnd()
	})
}
