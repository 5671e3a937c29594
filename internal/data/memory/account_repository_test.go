package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/bank-account-service/internal/domain/account"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccount(accountID string) *account.Account {
	return account.New(accountID, "Jane", "Doe", decimal.NewFromInt(3500), decimal.NewFromInt(1500), true)
}

func TestAccountRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	first, err := repo.Save(ctx, newAccount("a@example.com"))
	require.NoError(t, err)
	second, err := repo.Save(ctx, newAccount("b@example.com"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)

	byID, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, byID)

	byKey, err := repo.FindByAccountID(ctx, "b@example.com")
	require.NoError(t, err)
	assert.Equal(t, second, byKey)

	missing, err := repo.FindByAccountID(ctx, "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	missing, err = repo.FindByID(ctx, 42)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAccountRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	saved, err := repo.Save(ctx, newAccount("a@example.com"))
	require.NoError(t, err)

	saved.FirstName = "Mallory"
	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", found.FirstName)

	found.Balance = decimal.Zero
	again, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.True(t, again.Balance.Equal(decimal.NewFromInt(3500)))
}

func TestAccountRepository_DuplicateAccountID(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	_, err := repo.Save(ctx, newAccount("a@example.com"))
	require.NoError(t, err)

	_, err = repo.Save(ctx, newAccount("a@example.com"))
	assert.ErrorIs(t, err, account.ErrDuplicateAccount{AccountID: "a@example.com"})
}

func TestAccountRepository_OptimisticLocking(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	saved, err := repo.Save(ctx, newAccount("a@example.com"))
	require.NoError(t, err)
	require.Equal(t, 1, saved.Version)

	stale := *saved

	saved.Balance = decimal.NewFromInt(4000)
	updated, err := repo.Save(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	stale.Balance = decimal.NewFromInt(1)
	_, err = repo.Save(ctx, &stale)
	assert.ErrorIs(t, err, account.ErrConcurrentModification{ID: saved.ID})

	current, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.True(t, current.Balance.Equal(decimal.NewFromInt(4000)), "stale write is not applied")
}

func TestAccountRepository_UpdateKeepsImmutableFields(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	saved, err := repo.Save(ctx, newAccount("a@example.com"))
	require.NoError(t, err)

	changed := *saved
	changed.AccountID = "other@example.com"
	changed.CreatedAt = changed.CreatedAt.Add(-100)

	updated, err := repo.Save(ctx, &changed)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", updated.AccountID)
	assert.Equal(t, saved.CreatedAt, updated.CreatedAt)
}

func TestAccountRepository_UpdateOfDeletedAccount(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	saved, err := repo.Save(ctx, newAccount("a@example.com"))
	require.NoError(t, err)
	require.NoError(t, repo.DeleteByID(ctx, saved.ID))

	_, err = repo.Save(ctx, saved)
	assert.ErrorIs(t, err, account.ErrConcurrentModification{})
}

func TestAccountRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	a, err := repo.Save(ctx, newAccount("a@example.com"))
	require.NoError(t, err)
	b, err := repo.Save(ctx, newAccount("b@example.com"))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByAccountID(ctx, "a@example.com"))
	require.NoError(t, repo.DeleteByAccountID(ctx, "a@example.com"), "idempotent")
	require.NoError(t, repo.DeleteByID(ctx, b.ID))
	require.NoError(t, repo.DeleteByID(ctx, b.ID), "idempotent")

	found, err := repo.FindByID(ctx, a.ID)
	assert.NoError(t, err)
	assert.Nil(t, found)
	found, err = repo.FindByAccountID(ctx, "b@example.com")
	assert.NoError(t, err)
	assert.Nil(t, found)

	// key is free again
	_, err = repo.Save(ctx, newAccount("a@example.com"))
	assert.NoError(t, err)
}

func TestAccountRepository_ConcurrentSavesOneWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	saved, err := repo.Save(ctx, newAccount("a@example.com"))
	require.NoError(t, err)

	const writers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cp := *saved
			cp.Balance = decimal.NewFromInt(int64(i))
			if _, err := repo.Save(ctx, &cp); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	current, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, current.Version)
}
