package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/session"
)

// ListPlans returns the offered plan names.
func (h *Handler) ListPlans(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("plans")
		e.ArrStart()
		for _, p := range h.subscriptions.Plans() {
			e.Str(p)
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

// PromptSubscription returns the confirmation dialog for a plan.
func (h *Handler) PromptSubscription(w http.ResponseWriter, r *http.Request) {
	n, err := h.subscriptions.Prompt(r.PathValue("plan"))
	if err != nil {
		fail(w, r, err, mapSubscriptionError)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("notice")
		encodeNotice(e, n)
		e.ObjEnd()
	})
}

// ConfirmSubscription records the plan for the session.
func (h *Handler) ConfirmSubscription(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "subscription.confirm")
	defer span.End()

	sub, n, err := h.subscriptions.Confirm(ctx, session.FromContext(ctx), r.PathValue("plan"))
	if err != nil {
		span.RecordError(err)
		fail(w, r, err, mapSubscriptionError)
		return
	}
	zctx.From(ctx).Info("Subscription confirmed", zap.String("plan", sub.Plan), zap.String("id", sub.ID))

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(sub.ID)
		e.FieldStart("plan")
		e.Str(sub.Plan)
		e.FieldStart("createdAt")
		e.Str(sub.CreatedAt.UTC().Format(time.RFC3339))
		e.FieldStart("notice")
		encodeNotice(e, n)
		e.ObjEnd()
	})
}
