// Command seed-db applies the schema and loads the product catalog and the
// house promo codes into PostgreSQL.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/db"
	"github.com/xenking/kart-storefront/internal/domain/catalog"
	"github.com/xenking/kart-storefront/internal/domain/promo"
	"github.com/xenking/kart-storefront/internal/storage/postgres"
)

// housePromos are always available on a seeded database.
var housePromos = []promo.Rule{
	{
		Code:         "HAPPYHOURS",
		DiscountType: promo.DiscountPercentage,
		Value:        decimal.NewFromInt(18),
		Description:  "Happy Hours: 18% off your order",
	},
	{
		Code:         "BUYGETONE",
		DiscountType: promo.DiscountFreeLowest,
		MinItems:     2,
		Description:  "Buy one get one: lowest priced item free",
	},
}

func main() {
	var (
		databaseURL  string
		productsFile string
		skipPromos   bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "", "product cards JSON file (default: embedded catalog)")
	flag.BoolVar(&skipPromos, "skip-promos", false, "do not seed house promo codes")
	flag.Parse()

	lg := zap.Must(zap.NewProduction())
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("Database URL is required: set -database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, productsFile, skipPromos); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL, productsFile string, skipPromos bool) error {
	cards, err := loadCards(productsFile)
	if err != nil {
		return err
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := postgres.NewCatalogRepository(pool).Upsert(ctx, cards); err != nil {
		return errors.Wrap(err, "seed products")
	}
	lg.Info("Products upserted", zap.Int("count", len(cards)))

	if skipPromos {
		return nil
	}
	if err := postgres.NewPromoRepository(pool).Upsert(ctx, housePromos); err != nil {
		return errors.Wrap(err, "seed promos")
	}
	for _, rule := range housePromos {
		lg.Info("Promo upserted", zap.String("code", rule.Code), zap.String("description", rule.Description))
	}
	return nil
}

// loadCards reads and validates product cards. Every card must carry a
// parseable price so the storefront never lists an item it cannot add.
func loadCards(path string) ([]catalog.Card, error) {
	data := db.Catalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read products file")
		}
		data = b
	}

	cards, err := catalog.DecodeCards(data)
	if err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	for _, c := range cards {
		if _, _, _, err := c.Extract(); err != nil {
			return nil, err
		}
	}
	return cards, nil
}
