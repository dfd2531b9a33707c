package handler

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/domain/notice"
	"github.com/xenking/kart-storefront/internal/session"
	"github.com/xenking/kart-storefront/internal/storage"
)

// setFlash keeps n for the next page the session renders.
func (h *Handler) setFlash(ctx context.Context, n notice.Notice) {
	if n.IsZero() {
		return
	}
	var e jx.Encoder
	encodeNotice(&e, n)
	if err := h.slots.Set(ctx, session.FromContext(ctx), storage.KeyFlash, e.Bytes()); err != nil {
		zctx.From(ctx).Warn("Flash not saved", zap.Error(err))
	}
}

// takeFlash returns and clears the pending notice.
func (h *Handler) takeFlash(ctx context.Context) (notice.Notice, bool) {
	sid := session.FromContext(ctx)
	data, err := h.slots.Get(ctx, sid, storage.KeyFlash)
	if err != nil || len(data) == 0 {
		return notice.Notice{}, false
	}
	if err := h.slots.Set(ctx, sid, storage.KeyFlash, []byte{}); err != nil {
		zctx.From(ctx).Warn("Flash not cleared", zap.Error(err))
	}
	n, err := decodeNotice(data)
	if err != nil {
		zctx.From(ctx).Warn("Flash unreadable", zap.Error(err))
		return notice.Notice{}, false
	}
	return n, !n.IsZero()
}

func decodeNotice(data []byte) (notice.Notice, error) {
	var n notice.Notice
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "kind":
			v, err := d.Str()
			n.Kind = notice.Kind(v)
			return err
		case "title":
			v, err := d.Str()
			n.Title = v
			return err
		case "text":
			v, err := d.Str()
			n.Text = v
			return err
		case "autoDismissMs":
			v, err := d.Int64()
			n.AutoDismiss = time.Duration(v) * time.Millisecond
			return err
		case "confirm":
			v, err := d.Str()
			n.Confirm = v
			return err
		case "cancel":
			v, err := d.Str()
			n.Cancel = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return notice.Notice{}, errors.Wrap(err, "decode notice")
	}
	return n, nil
}
