package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	apperrors "tixify/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierRepository_DecreaseAvailable(t *testing.T) {
	pool := setupTest(t)
	ctx := context.Background()
	repo := NewTierRepository(pool)
	event := createTestEvent(t, pool, "org-1", "Decrease")
	other := createTestEvent(t, pool, "org-1", "Other")
	tier := createTestTiers(t, pool, event.ID, tierInput("GA", 25, 5))[0]

	t.Run("Success", func(t *testing.T) {
		tx, err := pool.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		remaining, price, err := repo.DecreaseAvailable(ctx, tx, event.ID, tier.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, remaining)
		assert.Equal(t, "25", price.String())
	})

	t.Run("Failed - Insufficient", func(t *testing.T) {
		tx, err := pool.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		_, _, err = repo.DecreaseAvailable(ctx, tx, event.ID, tier.ID, 6)
		var inv *apperrors.InsufficientInventoryError
		require.ErrorAs(t, err, &inv)
		assert.Equal(t, 5, inv.Available)
		assert.ErrorIs(t, err, apperrors.ErrInsufficientInventory)
	})

	t.Run("Failed - TierOfAnotherEvent", func(t *testing.T) {
		tx, err := pool.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		_, _, err = repo.DecreaseAvailable(ctx, tx, other.ID, tier.ID, 1)
		assert.ErrorIs(t, err, apperrors.ErrTierNotFound)
	})

	t.Run("Failed - ZeroQuantity", func(t *testing.T) {
		tx, err := pool.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		_, _, err = repo.DecreaseAvailable(ctx, tx, event.ID, tier.ID, 0)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

// 50 個交易同時搶 10 張票，不能超賣
func TestTierRepository_DecreaseAvailable_NoOversell(t *testing.T) {
	pool := setupTest(t)
	ctx := context.Background()
	repo := NewTierRepository(pool)
	event := createTestEvent(t, pool, "org-1", "Popular Concert")
	tier := createTestTiers(t, pool, event.ID, tierInput("GA", 40, 10))[0]

	const buyers = 50
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejected  int
		other     []error
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := pool.Begin(ctx)
			if err != nil {
				mu.Lock()
				other = append(other, err)
				mu.Unlock()
				return
			}
			defer tx.Rollback(ctx)

			_, _, err = repo.DecreaseAvailable(ctx, tx, event.ID, tier.ID, 1)
			if err == nil {
				err = tx.Commit(ctx)
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, apperrors.ErrInsufficientInventory):
				rejected++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 10, successes)
	assert.Equal(t, buyers-10, rejected)

	after, err := repo.FindByID(ctx, tier.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.Available)
}

func TestTierRepository_ReplaceForEvent(t *testing.T) {
	pool := setupTest(t)
	ctx := context.Background()
	repo := NewTierRepository(pool)
	event := createTestEvent(t, pool, "org-1", "Replace")

	createTestTiers(t, pool, event.ID, tierInput("Old", 10, 10))
	created := createTestTiers(t, pool, event.ID, tierInput("GA", 20, 100), tierInput("VIP", 90, 10))

	tiers, err := repo.ListByEventID(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, tiers, 2)
	assert.Equal(t, created[0].ID, tiers[0].ID)
	for _, tier := range tiers {
		assert.Equal(t, tier.Quantity, tier.Available)
	}
}

func TestTierRepository_Update(t *testing.T) {
	pool := setupTest(t)
	ctx := context.Background()
	repo := NewTierRepository(pool)
	event := createTestEvent(t, pool, "org-1", "Update")
	tier := createTestTiers(t, pool, event.ID, tierInput("GA", 20, 100))[0]

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	locked, err := repo.FindByIDWithLock(ctx, tx, tier.ID)
	require.NoError(t, err)
	locked.Quantity, locked.Available = 80, 80
	updated, err := repo.Update(ctx, tx, locked)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, 80, updated.Quantity)

	_, err = repo.FindByID(ctx, 99999)
	assert.ErrorIs(t, err, apperrors.ErrTierNotFound)
}
