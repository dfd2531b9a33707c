package subscription_test

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-storefront/internal/domain/notice"
	"github.com/xenking/kart-storefront/internal/domain/subscription"
	"github.com/xenking/kart-storefront/internal/storage/memory"
)

type failingRepo struct{}

func (failingRepo) Create(context.Context, *subscription.Subscription) error {
	return errors.New("insert failed")
}

func TestPrompt(t *testing.T) {
	svc := subscription.NewService([]string{"Gold", "Silver"}, memory.NewSubscriptions())

	n, err := svc.Prompt("gold")
	require.NoError(t, err)
	assert.Equal(t, notice.KindQuestion, n.Kind)
	assert.Equal(t, "Join the Club!", n.Title)
	assert.Equal(t, "You are selecting the Gold plan. Proceed to secure payment?", n.Text)
	assert.Equal(t, "Yes, Subscribe!", n.Confirm)
	assert.Equal(t, "Cancel", n.Cancel)

	assert.Equal(t, []string{"Gold", "Silver"}, svc.Plans())
}

func TestPrompt_UnknownPlan(t *testing.T) {
	svc := subscription.NewService([]string{"Gold"}, memory.NewSubscriptions())

	_, err := svc.Prompt("Platinum")
	require.ErrorIs(t, err, subscription.ErrUnknownPlan)

	var upErr *subscription.UnknownPlanError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "Platinum", upErr.Plan)
}

func TestConfirm(t *testing.T) {
	repo := memory.NewSubscriptions()
	svc := subscription.NewService([]string{"Gold"}, repo)

	sub, n, err := svc.Confirm(context.Background(), "sess-1", "GOLD")
	require.NoError(t, err)
	assert.Equal(t, "Gold", sub.Plan)
	assert.Equal(t, "sess-1", sub.Session)
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, "Welcome Aboard!", n.Title)
	assert.Equal(t, "Your subscription has been processed successfully.", n.Text)

	all := repo.All()
	require.Len(t, all, 1)
	assert.Equal(t, sub.ID, all[0].ID)
}

func TestConfirm_Errors(t *testing.T) {
	svc := subscription.NewService([]string{"Gold"}, failingRepo{})
	ctx := context.Background()

	_, _, err := svc.Confirm(ctx, "s", "Bronze")
	require.ErrorIs(t, err, subscription.ErrUnknownPlan)

	_, _, err = svc.Confirm(ctx, "s", "Gold")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create subscription")
}
