package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-storefront/internal/domain/catalog"
)

var _ catalog.Repository = (*CatalogRepository)(nil)

const productColumns = `id, name, category, price, brew_price, image`

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
// Prices are stored as NUMERIC and rendered back into display text.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// List returns all cards in display order.
func (r *CatalogRepository) List(ctx context.Context) ([]catalog.Card, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	cards, err := pgx.CollectRows(rows, scanCard)
	if err != nil {
		return nil, fmt.Errorf("scanning products: %w", err)
	}
	return cards, nil
}

// GetByID returns a single card or a *catalog.ProductNotFoundError.
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*catalog.Card, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCard)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &catalog.ProductNotFoundError{ProductID: id}
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &c, nil
}

// Upsert writes cards, keeping their order in the position column. Card
// price text is parsed so that invalid prices never reach the table.
func (r *CatalogRepository) Upsert(ctx context.Context, cards []catalog.Card) error {
	batch := &pgx.Batch{}
	for i, c := range cards {
		price, err := optionalPrice(c.PriceText)
		if err != nil {
			return errors.Wrapf(err, "card %s", c.ID)
		}
		brew, err := optionalPrice(c.AltPriceText)
		if err != nil {
			return errors.Wrapf(err, "card %s", c.ID)
		}
		if !price.Valid && !brew.Valid {
			return errors.Wrapf(catalog.ErrInvalidPrice, "card %s has no price", c.ID)
		}
		batch.Queue(
			`INSERT INTO products (id, name, category, price, brew_price, image, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (id) DO UPDATE SET
			   name = EXCLUDED.name, category = EXCLUDED.category,
			   price = EXCLUDED.price, brew_price = EXCLUDED.brew_price,
			   image = EXCLUDED.image, position = EXCLUDED.position`,
			c.ID, c.Name, c.Category, price, brew, c.Image, i,
		)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upserting products: %w", err)
	}
	return nil
}

func optionalPrice(text string) (decimal.NullDecimal, error) {
	if text == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := catalog.ParsePrice(text)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

func scanCard(row pgx.CollectableRow) (catalog.Card, error) {
	var (
		c           catalog.Card
		price, brew decimal.NullDecimal
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Category, &price, &brew, &c.Image); err != nil {
		return catalog.Card{}, err
	}
	if price.Valid {
		c.PriceText = catalog.FormatPrice(price.Decimal)
	}
	if brew.Valid {
		c.AltPriceText = catalog.FormatPrice(brew.Decimal)
	}
	return c, nil
}
