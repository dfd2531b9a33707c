package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/kart-storefront/internal/session"
)

// CheckWelcome tells the page whether to show the welcome notice, and after
// what delay. Only the first call per session answers yes; the call records
// the notice as shown, so it is served on POST.
func (h *Handler) CheckWelcome(w http.ResponseWriter, r *http.Request) {
	d, err := h.welcome.Check(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		fail(w, r, err, mapWelcomeError)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("show")
		e.Bool(d.Show)
		if d.Show {
			e.FieldStart("delayMs")
			e.Int64(d.Delay.Milliseconds())
		}
		e.ObjEnd()
	})
}

// Signup records {"email"} and returns the discount code dialog.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var email string
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != "email" {
			return d.Skip()
		}
		var err error
		email, err = d.Str()
		return err
	})
	if err != nil {
		fail(w, r, err, mapWelcomeError)
		return
	}

	res, err := h.welcome.Signup(r.Context(), email)
	if err != nil {
		fail(w, r, err, mapWelcomeError)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Str(res.Code)
		e.FieldStart("returning")
		e.Bool(res.Returning)
		e.FieldStart("notice")
		encodeNotice(e, res.Dialog)
		e.ObjEnd()
	})
}
