package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kart-storefront/internal/domain/subscription"
	"github.com/xenking/kart-storefront/internal/domain/welcome"
)

var (
	_ welcome.SubscriberRepository = (*SubscriberRepository)(nil)
	_ subscription.Repository      = (*SubscriptionRepository)(nil)
)

// SubscriberRepository stores welcome signups.
type SubscriberRepository struct {
	pool *pgxpool.Pool
}

// NewSubscriberRepository returns a SubscriberRepository that uses the given pool.
func NewSubscriberRepository(pool *pgxpool.Pool) *SubscriberRepository {
	return &SubscriberRepository{pool: pool}
}

// Exists reports whether email has signed up before.
func (r *SubscriberRepository) Exists(ctx context.Context, email string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM subscribers WHERE email = $1)`, email,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("checking subscriber: %w", err)
	}
	return ok, nil
}

// Add records email. Adding an existing address is a no-op.
func (r *SubscriberRepository) Add(ctx context.Context, email string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO subscribers (email) VALUES ($1) ON CONFLICT (email) DO NOTHING`, email)
	if err != nil {
		return fmt.Errorf("adding subscriber: %w", err)
	}
	return nil
}

// SubscriptionRepository stores confirmed plan subscriptions.
type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepository returns a SubscriptionRepository that uses the given pool.
func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

// Create persists a new subscription.
func (r *SubscriptionRepository) Create(ctx context.Context, s *subscription.Subscription) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO subscriptions (id, session, plan, created_at) VALUES ($1, $2, $3, $4)`,
		s.ID, s.Session, s.Plan, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating subscription %q: %w", s.ID, err)
	}
	return nil
}
