// Package memory provides an in-process account store used for local runs and tests.
package memory

import (
	"context"
	"sync"

	"github.com/bank-account-service/internal/domain/account"
)

// AccountRepository keeps accounts in a map guarded by a single mutex.
// Callers only ever receive copies, never pointers into the map.
type AccountRepository struct {
	mu        sync.Mutex
	nextID    int64
	byID      map[int64]*account.Account
	byAccount map[string]int64
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:      make(map[int64]*account.Account),
		byAccount: make(map[string]int64),
	}
}

func (r *AccountRepository) FindByID(_ context.Context, id int64) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *acc
	return &cp, nil
}

func (r *AccountRepository) FindByAccountID(_ context.Context, accountID string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byAccount[accountID]
	if !ok {
		return nil, nil
	}
	cp := *r.byID[id]
	return &cp, nil
}

// Save mirrors the PostgreSQL store: inserts get the next ID, updates must carry
// the stored version and bump it by one.
func (r *AccountRepository) Save(ctx context.Context, acc *account.Account) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	saved := *acc
	if acc.ID == 0 {
		if _, exists := r.byAccount[acc.AccountID]; exists {
			return nil, account.ErrDuplicateAccount{AccountID: acc.AccountID}
		}
		r.nextID++
		saved.ID = r.nextID
		r.byAccount[saved.AccountID] = saved.ID
	} else {
		current, ok := r.byID[acc.ID]
		if !ok || current.Version != acc.Version {
			return nil, account.ErrConcurrentModification{ID: acc.ID}
		}
		// account ID is immutable once stored
		saved.AccountID = current.AccountID
		saved.CreatedAt = current.CreatedAt
		saved.Version++
	}

	stored := saved
	r.byID[saved.ID] = &stored
	return &saved, nil
}

func (r *AccountRepository) DeleteByAccountID(_ context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byAccount[accountID]; ok {
		delete(r.byID, id)
		delete(r.byAccount, accountID)
	}
	return nil
}

func (r *AccountRepository) DeleteByID(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if acc, ok := r.byID[id]; ok {
		delete(r.byAccount, acc.AccountID)
		delete(r.byID, id)
	}
	return nil
}

var _ account.Repository = (*AccountRepository)(nil)
