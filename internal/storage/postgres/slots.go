package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kart-storefront/internal/storage"
)

var _ storage.Slots = (*Slots)(nil)

// Slots implements storage.Slots on the slots table.
type Slots struct {
	pool *pgxpool.Pool
}

// NewSlots returns Slots that use the given pool.
func NewSlots(pool *pgxpool.Pool) *Slots {
	return &Slots{pool: pool}
}

// Get returns the slot value or storage.ErrNotFound.
func (s *Slots) Get(ctx context.Context, session, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM slots WHERE session = $1 AND key = $2`,
		session, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("getting slot %s/%s: %w", session, key, err)
	}
	return value, nil
}

// Set upserts the slot value.
func (s *Slots) Set(ctx context.Context, session, key string, value []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO slots (session, key, value, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (session, key) DO UPDATE
		 SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		session, key, value,
	)
	if err != nil {
		return fmt.Errorf("setting slot %s/%s: %w", session, key, err)
	}
	return nil
}
