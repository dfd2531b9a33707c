package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kart-storefront/internal/domain/promo"
	"github.com/xenking/kart-storefront/internal/domain/subscription"
	"github.com/xenking/kart-storefront/internal/domain/welcome"
	"github.com/xenking/kart-storefront/internal/handler"
	"github.com/xenking/kart-storefront/internal/session"
	"github.com/xenking/kart-storefront/pkg/health"
	"github.com/xenking/kart-storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage.Driver),
	)

	b, err := openBackend(ctx, cfg.Storage, lg)
	if err != nil {
		return errors.Wrap(err, "open storage")
	}
	defer b.close()

	healthSvc := health.New()
	for name, check := range b.checks {
		healthSvc.AddReadinessCheck(name, 5*time.Second, check)
	}
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)

	// Domain services.
	// Ingested codes take precedence; the welcome code is always known.
	promos := promo.Chain{promo.NewStaticRepository(promo.Rule{
		Code:         cfg.Welcome.Code,
		DiscountType: promo.DiscountPercentage,
		Value:        decimal.NewFromInt(10),
		Description:  "10% off your order",
	})}
	if b.promos != nil {
		promos = append(promo.Chain{b.promos}, promos...)
	}
	validator := promo.NewValidator(promos)
	carts := session.NewRegistry(b.slots, handler.RestorePromo(b.slots, validator), lg.Named("cart"))
	carts.StartEviction(ctx, time.Minute, cfg.Session.IdleEvict)

	h, err := handler.New(handler.Config{ImageBaseURL: cfg.ImageBaseURL}, handler.Deps{
		Catalog: b.catalog,
		Carts:   carts,
		Slots:   b.slots,
		Promos:  validator,
		Welcome: welcome.NewService(welcome.Config{
			Delay: cfg.Welcome.Delay,
			Code:  cfg.Welcome.Code,
		}, b.slots, b.subscribers, lg.Named("welcome")),
		Subscriptions: subscription.NewService(cfg.Plans, b.subscriptions),
	}, m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create handler")
	}

	// Storefront routes need a session; probes do not.
	site := http.NewServeMux()
	h.Register(site)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/", session.Middleware(session.CookieConfig{
		Name:   cfg.Session.CookieName,
		MaxAge: cfg.Session.MaxAge,
		Secure: cfg.Session.Secure,
	})(site))

	routeFinder := routes(mux, site)
	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Recovery(),
			httpmiddleware.Instrument("kart-storefront", routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
				Skip:   httpmiddleware.SkipSafeMethods,
			}),
		),
	}
	healthSvc.SetReady(true)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		// Graceful shutdown: stop advertising readiness, drain, then stop.
		<-gctx.Done()
		healthSvc.SetReady(false)
		if ctx.Err() != nil {
			lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		return nil
	})
	return g.Wait()
}

// routes resolves probe routes on root and storefront routes on site.
func routes(root, site *http.ServeMux) httpmiddleware.RouteFinder {
	findRoot := httpmiddleware.MakeRouteFinder(root)
	findSite := httpmiddleware.MakeRouteFinder(site)
	return func(r *http.Request) string {
		if route := findRoot(r); route != "/" {
			return route
		}
		return findSite(r)
	}
}
