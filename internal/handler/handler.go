// Package handler serves the storefront: a JSON API under /api and
// server-rendered pages that post plain forms.
package handler

import (
	"context"
	"html/template"
	"net/http"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/catalog"
	"github.com/xenking/kart-storefront/internal/domain/promo"
	"github.com/xenking/kart-storefront/internal/domain/subscription"
	"github.com/xenking/kart-storefront/internal/domain/welcome"
	"github.com/xenking/kart-storefront/internal/session"
	"github.com/xenking/kart-storefront/internal/storage"
)

const instrumentationName = "github.com/xenking/kart-storefront/internal/handler"

// Config holds non-dependency settings.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in responses.
	ImageBaseURL string
}

// Deps are the services the handler delegates to.
type Deps struct {
	Catalog       catalog.Repository
	Carts         *session.Registry
	Slots         storage.Slots
	Promos        *promo.Validator
	Welcome       *welcome.Service
	Subscriptions *subscription.Service
}

// Handler serves the storefront routes.
type Handler struct {
	catalog       catalog.Repository
	carts         *session.Registry
	slots         storage.Slots
	promos        *promo.Validator
	welcome       *welcome.Service
	subscriptions *subscription.Service
	imageBaseURL  string

	pages     *template.Template
	tracer    trace.Tracer
	mutations metric.Int64Counter
}

// New creates a Handler.
func New(cfg Config, deps Deps, tp trace.TracerProvider, mp metric.MeterProvider) (*Handler, error) {
	mutations, err := mp.Meter(instrumentationName).Int64Counter("cart.mutations",
		metric.WithDescription("Successful cart mutations by operation"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create counter")
	}
	pages, err := parsePages()
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}
	return &Handler{
		catalog:       deps.Catalog,
		carts:         deps.Carts,
		slots:         deps.Slots,
		promos:        deps.Promos,
		welcome:       deps.Welcome,
		subscriptions: deps.Subscriptions,
		imageBaseURL:  cfg.ImageBaseURL,
		pages:         pages,
		tracer:        tp.Tracer(instrumentationName),
		mutations:     mutations,
	}, nil
}

// Register adds every route to mux. Requests must pass session.Middleware
// first.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/cart", h.GetCart)
	mux.HandleFunc("POST /api/cart/items", h.AddItem)
	mux.HandleFunc("DELETE /api/cart/items/{name}", h.RemoveItem)
	mux.HandleFunc("POST /api/cart/items/{name}/quantity", h.ChangeQuantity)
	mux.HandleFunc("POST /api/cart/promo", h.ApplyPromo)
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("POST /api/welcome", h.CheckWelcome)
	mux.HandleFunc("POST /api/welcome/signup", h.Signup)
	mux.HandleFunc("GET /api/subscriptions", h.ListPlans)
	mux.HandleFunc("GET /api/subscriptions/{plan}", h.PromptSubscription)
	mux.HandleFunc("POST /api/subscriptions/{plan}/confirm", h.ConfirmSubscription)

	mux.HandleFunc("GET /{$}", h.StorefrontPage)
	mux.HandleFunc("GET /cart", h.CartPage)
	mux.HandleFunc("POST /cart/add", h.AddForm)
	mux.HandleFunc("POST /cart/remove", h.RemoveForm)
	mux.HandleFunc("POST /cart/quantity", h.QuantityForm)
	mux.HandleFunc("POST /cart/promo", h.PromoForm)
	mux.HandleFunc("POST /welcome/signup", h.SignupForm)
	mux.HandleFunc("POST /subscriptions/confirm", h.SubscribeForm)
}

// mutate runs a cart operation for the request's session inside a span and
// records what it presented.
func (h *Handler) mutate(ctx context.Context, op string, fn func(ctx context.Context, s *cart.Store) error) (*recorder, *cart.Store, error) {
	ctx, span := h.tracer.Start(ctx, "cart."+op, trace.WithAttributes(attribute.String("cart.op", op)))
	defer span.End()

	rec := &recorder{}
	s := h.carts.Cart(ctx, session.FromContext(ctx))
	if err := fn(cart.WithPresenter(ctx, rec), s); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cart operation failed")
		return rec, s, err
	}
	h.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
	return rec, s, nil
}
