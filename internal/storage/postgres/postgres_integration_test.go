//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/kart-storefront/db"
	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/catalog"
	"github.com/xenking/kart-storefront/internal/domain/promo"
	"github.com/xenking/kart-storefront/internal/domain/subscription"
	"github.com/xenking/kart-storefront/internal/storage"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "kart",
				"POSTGRES_PASSWORD": "kart",
				"POSTGRES_DB":       "kart",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "start postgres: %v\n", err)
		return 1
	}
	defer func() { _ = container.Terminate(context.Background()) }()

	host, err := container.Host(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "host: %v\n", err)
		return 1
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		fmt.Fprintf(os.Stderr, "mapped port: %v\n", err)
		return 1
	}

	url := fmt.Sprintf("postgres://kart:kart@%s:%s/kart?sslmode=disable", host, port.Port())
	testPool, err = NewPool(ctx, url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pool: %v\n", err)
		return 1
	}
	defer testPool.Close()

	if err := RunMigrations(ctx, testPool); err != nil {
		fmt.Fprintf(os.Stderr, "migrations: %v\n", err)
		return 1
	}

	return m.Run()
}

func TestSlots_CartRoundTrip(t *testing.T) {
	ctx := context.Background()
	slots := NewSlots(testPool)

	_, err := slots.Get(ctx, "it-session", storage.KeyCart)
	require.ErrorIs(t, err, storage.ErrNotFound)

	s := cart.Open(ctx, storage.NewCartSlot(slots, "it-session"), nil)
	require.NoError(t, s.Add(ctx, "Espresso", decimal.RequireFromString("3.50"), "espresso.png"))
	require.NoError(t, s.Add(ctx, "Espresso", decimal.RequireFromString("3.50"), "espresso.png"))
	require.NoError(t, s.Add(ctx, "Latte", decimal.RequireFromString("4.00"), "latte.png"))

	reloaded := cart.Open(ctx, storage.NewCartSlot(slots, "it-session"), nil)
	items := reloaded.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Espresso", items[0].Name)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, decimal.RequireFromString("11.00").Equal(reloaded.Total()))
}

func TestCatalogRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository(testPool)

	cards, err := catalog.DecodeCards(db.Catalog)
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(ctx, cards))

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, len(cards))
	assert.Equal(t, cards[0].ID, listed[0].ID)

	machine, err := repo.GetByID(ctx, "espresso-machine")
	require.NoError(t, err)
	assert.Equal(t, "$1,250.00", machine.AltPriceText)
	assert.Empty(t, machine.PriceText)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, catalog.ErrNotFound)

	err = repo.Upsert(ctx, []catalog.Card{{ID: "bad", Name: "Bad", PriceText: "free"}})
	require.ErrorIs(t, err, catalog.ErrInvalidPrice)
}

func TestSubscriberAndSubscriptionRepositories(t *testing.T) {
	ctx := context.Background()
	subs := NewSubscriberRepository(testPool)

	ok, err := subs.Exists(ctx, "it@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, subs.Add(ctx, "it@example.com"))
	require.NoError(t, subs.Add(ctx, "it@example.com"))

	ok, err = subs.Exists(ctx, "it@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	svc := subscription.NewService([]string{"Gold"}, NewSubscriptionRepository(testPool))
	_, _, err = svc.Confirm(ctx, "it-session", "Gold")
	require.NoError(t, err)
}

func TestPromoRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPromoRepository(testPool)

	until := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, []promo.Rule{
		{Code: "spring10", DiscountType: promo.DiscountPercentage, Value: decimal.NewFromInt(10), ValidUntil: &until},
		{Code: "FREEBIE", DiscountType: promo.DiscountFreeLowest, MinItems: 2},
	}))

	rule, err := repo.FindByCode(ctx, " Spring10 ")
	require.NoError(t, err)
	assert.Equal(t, "SPRING10", rule.Code)
	assert.True(t, decimal.NewFromInt(10).Equal(rule.Value))
	require.NotNil(t, rule.ValidUntil)
	assert.True(t, until.Equal(*rule.ValidUntil))
	assert.Nil(t, rule.ValidFrom)

	rule, err = repo.FindByCode(ctx, "freebie")
	require.NoError(t, err)
	assert.Equal(t, 2, rule.MinItems)

	_, err = repo.FindByCode(ctx, "nope")
	require.ErrorIs(t, err, promo.ErrInvalidCode)
}
