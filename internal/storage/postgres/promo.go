package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-storefront/internal/domain/promo"
)

var _ promo.Repository = (*PromoRepository)(nil)

// PromoRepository serves promo rules from the promos table.
type PromoRepository struct {
	pool *pgxpool.Pool
}

// NewPromoRepository returns a PromoRepository that uses the given pool.
func NewPromoRepository(pool *pgxpool.Pool) *PromoRepository {
	return &PromoRepository{pool: pool}
}

// FindByCode returns the rule for code, matched case-insensitively.
func (r *PromoRepository) FindByCode(ctx context.Context, code string) (*promo.Rule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT code, discount_type, value, min_items, description, valid_from, valid_until
		FROM promos WHERE code = $1`, normalizeCode(code))
	if err != nil {
		return nil, fmt.Errorf("finding promo %q: %w", code, err)
	}
	rule, err := pgx.CollectExactlyOneRow(rows, scanRule)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promo.ErrInvalidCode
		}
		return nil, fmt.Errorf("finding promo %q: %w", code, err)
	}
	return &rule, nil
}

// Upsert inserts or replaces rules in one batch.
func (r *PromoRepository) Upsert(ctx context.Context, rules []promo.Rule) error {
	batch := &pgx.Batch{}
	for _, rule := range rules {
		batch.Queue(`
			INSERT INTO promos (code, discount_type, value, min_items, description, valid_from, valid_until)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (code) DO UPDATE SET
				discount_type = EXCLUDED.discount_type,
				value         = EXCLUDED.value,
				min_items     = EXCLUDED.min_items,
				description   = EXCLUDED.description,
				valid_from    = EXCLUDED.valid_from,
				valid_until   = EXCLUDED.valid_until`,
			normalizeCode(rule.Code), string(rule.DiscountType), rule.Value, rule.MinItems,
			rule.Description, rule.ValidFrom, rule.ValidUntil,
		)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upserting promos: %w", err)
	}
	return nil
}

func scanRule(row pgx.CollectableRow) (promo.Rule, error) {
	var (
		rule      promo.Rule
		kind      string
		value     decimal.Decimal
		minItems  int32
		validFrom *time.Time
		validTo   *time.Time
	)
	if err := row.Scan(&rule.Code, &kind, &value, &minItems, &rule.Description, &validFrom, &validTo); err != nil {
		return promo.Rule{}, err
	}
	rule.DiscountType = promo.DiscountType(kind)
	rule.Value = value
	rule.MinItems = int(minItems)
	rule.ValidFrom = validFrom
	rule.ValidUntil = validTo
	return rule, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
