package handler

import (
	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/notice"
)

var _ cart.Presenter = (*recorder)(nil)

// recorder captures what a cart operation shows so it can be returned in the
// response.
type recorder struct {
	count    int
	counted  bool
	view     *cart.ViewModel
	notice   notice.Notice
	rendered int
}

func (r *recorder) UpdateCount(count int) {
	r.count = count
	r.counted = true
}

func (r *recorder) Render(vm cart.ViewModel) {
	r.view = &vm
	r.rendered++
}

func (r *recorder) Notify(n notice.Notice) {
	r.notice = n
}
