package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/kart-storefront/internal/domain/catalog"
)

// ListProducts returns the cards matching ?q= together with the search
// message and the ids of the cards the filter hides.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	cards, err := h.catalog.List(r.Context())
	if err != nil {
		fail(w, r, err, mapCartError)
		return
	}
	res := catalog.Filter(cards, r.URL.Query().Get("q"))

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("query")
		e.Str(res.Query)
		if res.Message != "" {
			e.FieldStart("message")
			e.Str(res.Message)
		}
		e.FieldStart("products")
		e.ArrStart()
		for _, c := range res.Visible {
			h.encodeCard(e, c)
		}
		e.ArrEnd()
		e.FieldStart("hidden")
		e.ArrStart()
		for _, c := range res.Hidden {
			e.Str(c.ID)
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}
