package app

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/db"
	"github.com/xenking/kart-storefront/internal/domain/catalog"
	"github.com/xenking/kart-storefront/internal/domain/promo"
	"github.com/xenking/kart-storefront/internal/domain/subscription"
	"github.com/xenking/kart-storefront/internal/domain/welcome"
	"github.com/xenking/kart-storefront/internal/storage"
	"github.com/xenking/kart-storefront/internal/storage/gzfile"
	"github.com/xenking/kart-storefront/internal/storage/memory"
	"github.com/xenking/kart-storefront/internal/storage/postgres"
	"github.com/xenking/kart-storefront/pkg/health"
)

// backend bundles the storage the selected driver provides.
type backend struct {
	slots         storage.Slots
	catalog       catalog.Repository
	promos        promo.Repository
	subscribers   welcome.SubscriberRepository
	subscriptions subscription.Repository
	checks        map[string]health.CheckFunc
	close         func()
}

func openBackend(ctx context.Context, cfg StorageConfig, lg *zap.Logger) (*backend, error) {
	cards, err := catalog.DecodeCards(db.Catalog)
	if err != nil {
		return nil, errors.Wrap(err, "decode seed catalog")
	}

	b := &backend{
		catalog:       memory.NewCatalog(cards),
		subscribers:   memory.NewSubscribers(),
		subscriptions: memory.NewSubscriptions(),
		checks:        map[string]health.CheckFunc{},
		close:         func() {},
	}

	switch cfg.Driver {
	case DriverMemory:
		b.slots = memory.New()
	case DriverFile:
		slots, err := gzfile.New(cfg.Dir)
		if err != nil {
			return nil, errors.Wrap(err, "open file slots")
		}
		b.slots = slots
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}

		repo := postgres.NewCatalogRepository(pool)
		existing, err := repo.List(ctx)
		if err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "list catalog")
		}
		if len(existing) == 0 {
			if err := repo.Upsert(ctx, cards); err != nil {
				pool.Close()
				return nil, errors.Wrap(err, "seed catalog")
			}
			lg.Info("Seeded empty catalog", zap.Int("products", len(cards)))
		}

		b.slots = postgres.NewSlots(pool)
		b.catalog = repo
		b.promos = postgres.NewPromoRepository(pool)
		b.subscribers = postgres.NewSubscriberRepository(pool)
		b.subscriptions = postgres.NewSubscriptionRepository(pool)
		b.checks["postgres"] = health.PingCheck(pool)
		b.close = pool.Close
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Driver)
	}

	b.checks["slots"] = slotRoundTrip(b.slots)
	return b, nil
}

// slotRoundTrip writes and reads back a probe slot.
func slotRoundTrip(slots storage.Slots) health.CheckFunc {
	const probeSession = "_health"
	return func(ctx context.Context) error {
		want := strconv.FormatInt(time.Now().UnixNano(), 10)
		if err := slots.Set(ctx, probeSession, "probe", []byte(want)); err != nil {
			return errors.Wrap(err, "write probe")
		}
		got, err := slots.Get(ctx, probeSession, "probe")
		if err != nil {
			return errors.Wrap(err, "read probe")
		}
		if string(got) != want {
			return errors.New("probe mismatch")
		}
		return nil
	}
}
