// Command promo-ingest loads promo codes into PostgreSQL. A code is accepted
// when it appears in at least -min-files of the given gzip dumps, one code
// per line. Every accepted code gets the same discount rule.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"slices"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/domain/promo"
	"github.com/xenking/kart-storefront/internal/storage/postgres"
)

const writeBatch = 1000

func main() {
	var (
		pattern     string
		databaseURL string
		kind        string
		value       string
		minItems    int
		description string
		ingest      ingestConfig
	)

	flag.StringVar(&pattern, "files", "data/promos*.gz", "glob of gzip files with one code per line")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&kind, "discount-type", string(promo.DiscountPercentage), "percentage, fixed or free_lowest")
	flag.StringVar(&value, "value", "10", "discount value")
	flag.IntVar(&minItems, "min-items", 0, "minimum cart units")
	flag.StringVar(&description, "description", "10% off your order", "description shown with the discount")
	flag.UintVar(&ingest.Capacity, "capacity", 10_000_000, "expected codes per file")
	flag.Float64Var(&ingest.FPR, "fpr", 0.001, "bloom filter false positive rate")
	flag.IntVar(&ingest.MinFiles, "min-files", 2, "files a code must appear in")
	flag.IntVar(&ingest.MinLen, "min-len", 8, "minimum code length")
	flag.IntVar(&ingest.MaxLen, "max-len", 10, "maximum code length")
	flag.Uint64Var(&ingest.ProgressEvery, "progress", 1_000_000, "log progress every N codes")
	flag.Parse()

	lg := zap.Must(zap.NewProduction())
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("Database URL is required: set -database-url or DATABASE_URL")
	}

	amount, err := decimal.NewFromString(value)
	if err != nil {
		lg.Fatal("Invalid value", zap.String("value", value), zap.Error(err))
	}
	template := promo.Rule{
		DiscountType: promo.DiscountType(kind),
		Value:        amount,
		MinItems:     minItems,
		Description:  description,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, pattern, databaseURL, ingest, template); err != nil {
		lg.Fatal("Promo ingest failed", zap.Error(err))
	}
	lg.Info("Promo ingest completed")
}

func run(ctx context.Context, lg *zap.Logger, pattern, databaseURL string, cfg ingestConfig, template promo.Rule) error {
	switch template.DiscountType {
	case promo.DiscountPercentage, promo.DiscountFixed, promo.DiscountFreeLowest:
	default:
		return errors.Errorf("unsupported discount type %q", template.DiscountType)
	}

	files, err := filepath.Glob(pattern)
	if err != nil {
		return errors.Wrap(err, "glob")
	}
	codes, err := newIngester(cfg, lg).Codes(ctx, files)
	if err != nil {
		return err
	}
	lg.Info("Codes accepted", zap.Int("count", len(codes)))
	if len(codes) == 0 {
		return nil
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	repo := postgres.NewPromoRepository(pool)
	written := 0
	for chunk := range slices.Chunk(rulesFor(codes, template), writeBatch) {
		if err := repo.Upsert(ctx, chunk); err != nil {
			return errors.Wrapf(err, "write batch at %d", written)
		}
		written += len(chunk)
		lg.Info("Write progress", zap.Int("written", written), zap.Int("total", len(codes)))
	}
	return nil
}

func rulesFor(codes []string, template promo.Rule) []promo.Rule {
	rules := make([]promo.Rule, len(codes))
	for i, code := range codes {
		rules[i] = template
		rules[i].Code = code
	}
	return rules
}
