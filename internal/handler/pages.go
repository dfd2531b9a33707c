package handler

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/catalog"
	"github.com/xenking/kart-storefront/internal/domain/notice"
	"github.com/xenking/kart-storefront/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

func parsePages() (*template.Template, error) {
	return template.New("pages").Funcs(template.FuncMap{
		"ms": func(n notice.Notice) int64 { return n.AutoDismiss.Milliseconds() },
	}).ParseFS(templateFS, "templates/*.html")
}

// page is the data shared by every template.
type page struct {
	Count   int
	Notice  *notice.Notice
	Welcome *welcomeBanner
}

type welcomeBanner struct {
	DelayMs int64
}

type storefrontPage struct {
	page
	Search catalog.SearchResult
	Cards  []cardView
	Plans  []string
	Prompt *planPrompt
}

type cardView struct {
	ID    string
	Name  string
	Price string
	Image string
}

type planPrompt struct {
	Plan   string
	Notice notice.Notice
}

type cartPage struct {
	page
	View cart.ViewModel
}

func (h *Handler) basePage(ctx context.Context, s *cart.Store) page {
	p := page{Count: s.Count()}
	if n, ok := h.takeFlash(ctx); ok {
		p.Notice = &n
	}
	return p
}

// StorefrontPage renders the product grid with the search filter, the plan
// list and, once per session, the welcome banner.
func (h *Handler) StorefrontPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := h.carts.Cart(ctx, session.FromContext(ctx))

	cards, err := h.catalog.List(ctx)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	data := storefrontPage{
		page:   h.basePage(ctx, s),
		Search: catalog.Filter(cards, r.URL.Query().Get("q")),
		Plans:  h.subscriptions.Plans(),
	}
	for _, c := range data.Search.Visible {
		price := c.PriceText
		if price == "" {
			price = c.AltPriceText
		}
		data.Cards = append(data.Cards, cardView{ID: c.ID, Name: c.Name, Price: price, Image: h.imageURL(c.Image)})
	}

	if plan := r.URL.Query().Get("plan"); plan != "" {
		if n, err := h.subscriptions.Prompt(plan); err == nil {
			data.Prompt = &planPrompt{Plan: plan, Notice: n}
		}
	}

	// Rendering the banner is what shows it, so the page marks it shown.
	if d, err := h.welcome.Check(ctx, session.FromContext(ctx)); err != nil {
		zctx.From(ctx).Warn("Welcome check failed", zap.Error(err))
	} else if d.Show {
		data.Welcome = &welcomeBanner{DelayMs: d.Delay.Milliseconds()}
	}

	h.render(w, r, "storefront.html", data)
}

// CartPage renders the cart.
func (h *Handler) CartPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := h.carts.Cart(ctx, session.FromContext(ctx))

	rec := &recorder{}
	s.Initialize(cart.WithPresenter(ctx, rec))
	vm := s.View()
	if rec.view != nil {
		vm = *rec.view
	}
	for i := range vm.Rows {
		vm.Rows[i].Image = h.imageURL(vm.Rows[i].Image)
	}
	h.render(w, r, "cart.html", cartPage{page: h.basePage(ctx, s), View: vm})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := h.pages.ExecuteTemplate(&buf, name, data); err != nil {
		h.pageError(w, r, errors.Wrapf(err, "render %s", name))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (h *Handler) pageError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("Page failed", zap.Error(err))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// redirectBack sends the browser to the page named by the "return" field,
// restricted to the storefront's own pages.
func redirectBack(w http.ResponseWriter, r *http.Request, fallback string) {
	to := fallback
	switch ret := r.PostFormValue("return"); ret {
	case "/", "/cart":
		to = ret
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// formDone stores the outcome as a flash and redirects.
func (h *Handler) formDone(w http.ResponseWriter, r *http.Request, n notice.Notice, err error, mapErr func(error) apiError, fallback string) {
	if err != nil {
		e := mapErr(err)
		if e.status >= http.StatusInternalServerError {
			zctx.From(r.Context()).Error("Form failed", zap.Error(err))
		}
		if e.notice != nil {
			n = *e.notice
		} else {
			n = notice.Failure("Request failed", e.message)
		}
	}
	h.setFlash(r.Context(), n)
	redirectBack(w, r, fallback)
}

// AddForm handles the "Add to Cart" button of a product card.
func (h *Handler) AddForm(w http.ResponseWriter, r *http.Request) {
	rec, _, err := h.add(r.Context(), addRequest{productID: r.PostFormValue("product_id")})
	var n notice.Notice
	if rec != nil {
		n = rec.notice
	}
	h.formDone(w, r, n, err, mapCartError, "/")
}

// RemoveForm handles the remove button of a cart row.
func (h *Handler) RemoveForm(w http.ResponseWriter, r *http.Request) {
	name := r.PostFormValue("name")
	_, _, err := h.mutate(r.Context(), "remove", func(ctx context.Context, s *cart.Store) error {
		return s.Remove(ctx, name)
	})
	h.formDone(w, r, notice.Notice{}, err, mapCartError, "/cart")
}

// QuantityForm handles the +/- buttons of a cart row.
func (h *Handler) QuantityForm(w http.ResponseWriter, r *http.Request) {
	delta, err := strconv.Atoi(r.PostFormValue("delta"))
	if err != nil {
		h.formDone(w, r, notice.Notice{}, errors.Wrap(errBadRequest, "delta must be an integer"), mapCartError, "/cart")
		return
	}
	_, _, err = h.changeQuantity(r.Context(), r.PostFormValue("name"), delta)
	h.formDone(w, r, notice.Notice{}, err, mapCartError, "/cart")
}

// PromoForm handles the promo code field of the cart page.
func (h *Handler) PromoForm(w http.ResponseWriter, r *http.Request) {
	rec, _, err := h.applyPromo(r.Context(), r.PostFormValue("code"))
	var n notice.Notice
	if rec != nil {
		n = rec.notice
	}
	h.formDone(w, r, n, err, mapCartError, "/cart")
}

// SignupForm handles the welcome banner's email form.
func (h *Handler) SignupForm(w http.ResponseWriter, r *http.Request) {
	res, err := h.welcome.Signup(r.Context(), r.PostFormValue("email"))
	var n notice.Notice
	if res != nil {
		n = res.Dialog
	}
	h.formDone(w, r, n, err, mapWelcomeError, "/")
}

// SubscribeForm handles the confirm button of the plan dialog.
func (h *Handler) SubscribeForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, n, err := h.subscriptions.Confirm(ctx, session.FromContext(ctx), r.PostFormValue("plan"))
	h.formDone(w, r, n, err, mapSubscriptionError, "/")
}
