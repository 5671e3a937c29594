package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bank-account-service/internal/domain/account"
	"github.com/bank-account-service/internal/domain/transaction"
)

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id int64) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByAccountID(ctx context.Context, accountID string) (*account.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) Save(ctx context.Context, acc *account.Account) (*account.Account, error) {
	args := m.Called(ctx, acc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) DeleteByAccountID(ctx context.Context, accountID string) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

func (m *MockAccountRepository) DeleteByID(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockFieldUpdater struct {
	mock.Mock
}

func (m *MockFieldUpdater) Update(ctx context.Context, existing *account.Account, updates []account.FieldUpdate) (*account.Account, error) {
	args := m.Called(ctx, existing, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

type MockTransactionLog struct {
	mock.Mock
}

func (m *MockTransactionLog) Append(ctx context.Context, bankAccountID int64, amount decimal.Decimal, txType transaction.Type) error {
	args := m.Called(ctx, bankAccountID, amount, txType)
	return args.Error(0)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *transaction.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListByBankAccountID(ctx context.Context, bankAccountID int64, limit, offset int) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, bankAccountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) CountByBankAccountID(ctx context.Context, bankAccountID int64) (int64, error) {
	args := m.Called(ctx, bankAccountID)
	return args.Get(0).(int64), args.Error(1)
}

type testDeps struct {
	repo    *MockAccountRepository
	updater *MockFieldUpdater
	txLog   *MockTransactionLog
	txRepo  *MockTransactionRepository
	service AccountService
}

func newTestDeps() *testDeps {
	d := &testDeps{
		repo:    new(MockAccountRepository),
		updater: new(MockFieldUpdater),
		txLog:   new(MockTransactionLog),
		txRepo:  new(MockTransactionRepository),
	}
	d.service = NewAccountService(d.repo, d.updater, d.txLog, d.txRepo, validator.New(), slog.Default())
	return d
}

func (d *testDeps) assertExpectations(t *testing.T) {
	d.repo.AssertExpectations(t)
	d.updater.AssertExpectations(t)
	d.txLog.AssertExpectations(t)
	d.txRepo.AssertExpectations(t)
}

const testAccountID = "john.doe@example.com"

func activeAccount() *account.Account {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return &account.Account{
		ID:             11,
		AccountID:      testAccountID,
		FirstName:      "John",
		LastName:       "Doe",
		Balance:        decimal.NewFromInt(3500),
		MinimumBalance: decimal.NewFromInt(1500),
		Active:         true,
		Version:        2,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
}

func decimalEq(want string) interface{} {
	d := decimal.RequireFromString(want)
	return mock.MatchedBy(func(v decimal.Decimal) bool { return v.Equal(d) })
}

func TestAccountServiceImpl_InvalidAccountID(t *testing.T) {
	ctx := context.Background()
	invalid := []string{"", "not-an-email", "john.doe@", "@example.com", "john doe@example.com"}

	for _, key := range invalid {
		d := newTestDeps()

		_, err := d.service.GetInfo(ctx, key)
		assert.ErrorIs(t, err, account.ErrInvalidAccountID, "GetInfo(%q)", key)
		_, err = d.service.Create(ctx, CreateAccountRequest{AccountID: key})
		assert.ErrorIs(t, err, account.ErrInvalidAccountID, "Create(%q)", key)
		assert.ErrorIs(t, d.service.Delete(ctx, key), account.ErrInvalidAccountID, "Delete(%q)", key)
		_, err = d.service.Activate(ctx, key)
		assert.ErrorIs(t, err, account.ErrInvalidAccountID, "Activate(%q)", key)
		_, err = d.service.Deactivate(ctx, key)
		assert.ErrorIs(t, err, account.ErrInvalidAccountID, "Deactivate(%q)", key)
		_, err = d.service.Deposit(ctx, key, decimal.NewFromInt(-1))
		assert.ErrorIs(t, err, account.ErrInvalidAccountID, "key is checked before amount")
		_, err = d.service.Withdraw(ctx, key, decimal.NewFromInt(1))
		assert.ErrorIs(t, err, account.ErrInvalidAccountID, "Withdraw(%q)", key)
		_, err = d.service.UpdateFields(ctx, key, nil)
		assert.ErrorIs(t, err, account.ErrInvalidAccountID, "UpdateFields(%q)", key)
		_, _, err = d.service.ListTransactions(ctx, key, 1, 10)
		assert.ErrorIs(t, err, account.ErrInvalidAccountID, "ListTransactions(%q)", key)

		d.repo.AssertNotCalled(t, "FindByAccountID", mock.Anything, mock.Anything)
		d.assertExpectations(t)
	}
}

func TestAccountServiceImpl_GetInfo(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		d := newTestDeps()
		expected := activeAccount()
		d.repo.On("FindByAccountID", ctx, testAccountID).Return(expected, nil).Once()

		acc, err := d.service.GetInfo(ctx, testAccountID)

		assert.NoError(t, err)
		assert.Equal(t, expected, acc)
		d.assertExpectations(t)
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		d := newTestDeps()
		d.repo.On("FindByAccountID", ctx, "missing@example.com").Return(nil, nil).Once()

		acc, err := d.service.GetInfo(ctx, "missing@example.com")

		assert.Nil(t, acc)
		assert.ErrorIs(t, err, account.ErrAccountNotFound{AccountID: "missing@example.com"})
		d.assertExpectations(t)
	})

	t.Run("RepositoryError", func(t *testing.T) {
		d := newTestDeps()
		repoErr := errors.New("database error")
		d.repo.On("FindByAccountID", ctx, testAccountID).Return(nil, repoErr).Once()

		_, err := d.service.GetInfo(ctx, testAccountID)

		assert.ErrorIs(t, err, repoErr)
		d.assertExpectations(t)
	})
}

func TestAccountServiceImpl_GetInfoByID(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		d := newTestDeps()
		expected := activeAccount()
		d.repo.On("FindByID", ctx, int64(11)).Return(expected, nil).Once()

		acc, err := d.service.GetInfoByID(ctx, 11)

		assert.NoError(t, err)
		assert.Equal(t, expected, acc)
		d.assertExpectations(t)
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		d := newTestDeps()
		d.repo.On("FindByID", ctx, int64(99)).Return(nil, nil).Once()

		_, err := d.service.GetInfoByID(ctx, 99)

		assert.ErrorIs(t, err, account.ErrAccountNotFound{ID: 99})
		d.assertExpectations(t)
	})
}

func TestAccountServiceImpl_Create(t *testing.T) {
	ctx := context.Background()
	req := CreateAccountRequest{
		AccountID:      testAccountID,
		FirstName:      "John",
		LastName:       "Doe",
		Balance:        decimal.NewFromInt(3500),
		MinimumBalance: decimal.NewFromInt(1500),
	}

	t.Run("Success", func(t *testing.T) {
		d := newTestDeps()
		saved := activeAccount()
		saved.ID = 1
		saved.Active = false
		saved.Version = 1

		d.repo.On("FindByAccountID", ctx, testAccountID).Return(nil, nil).Once()
		d.repo.On("Save", ctx, mock.MatchedBy(func(acc *account.Account) bool {
			return acc.ID == 0 && acc.AccountID == testAccountID && !acc.Active && acc.Version == 1 &&
				acc.Balance.Equal(req.Balance) && acc.MinimumBalance.Equal(req.MinimumBalance)
		})).Return(saved, nil).Once()

		acc, err := d.service.Create(ctx, req)

		require.NoError(t, err)
		assert.Equal(t, int64(1), acc.ID)
		assert.Equal(t, "John", acc.FirstName)
		assert.False(t, acc.Active, "accounts start inactive unless requested")
		d.assertExpectations(t)
	})

	t.Run("DuplicateAccountID", func(t *testing.T) {
		d := newTestDeps()
		d.repo.On("FindByAccountID", ctx, testAccountID).Return(activeAccount(), nil).Once()

		acc, err := d.service.Create(ctx, req)

		assert.Nil(t, acc)
		var dup account.ErrDuplicateAccount
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, testAccountID, dup.AccountID)
		d.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		d.assertExpectations(t)
	})

	t.Run("DuplicateDetectedByStore", func(t *testing.T) {
		d := newTestDeps()
		d.repo.On("FindByAccountID", ctx, testAccountID).Return(nil, nil).Once()
		d.repo.On("Save", ctx, mock.AnythingOfType("*account.Account")).
			Return(nil, account.ErrDuplicateAccount{AccountID: testAccountID}).Once()

		_, err := d.service.Create(ctx, req)

		assert.ErrorIs(t, err, account.ErrDuplicateAccount{})
		d.assertExpectations(t)
	})

	t.Run("RepositorySaveError", func(t *testing.T) {
		d := newTestDeps()
		repoErr := errors.New("database error")
		d.repo.On("FindByAccountID", ctx, testAccountID).Return(nil, nil).Once()
		d.repo.On("Save", ctx, mock.AnythingOfType("*account.Account")).Return(nil, repoErr).Once()

		acc, err := d.service.Create(ctx, req)

		assert.Nil(t, acc)
		assert.ErrorIs(t, err, repoErr)
		d.assertExpectations(t)
	})
}

func TestAccountServiceImpl_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("ByAccountID", func(t *testing.T) {
		d := newTestDeps()
		d.repo.On("DeleteByAccountID", ctx, testAccountID).Return(nil).Once()

		assert.NoError(t, d.service.Delete(ctx, testAccountID))
		d.assertExpectations(t)
	})

	t.Run("ByID", func(t *testing.T) {
		d := newTestDeps()
		d.repo.On("DeleteByID", ctx, int64(11)).Return(nil).Once()

		assert.NoError(t, d.service.DeleteByID(ctx, 11))
		d.assertExpectations(t)
	})

	t.Run("RepositoryError", func(t *testing.T) {
		d := newTestDeps()
		repoErr := errors.New("database error")
		d.repo.On("DeleteByAccountID", ctx, testAccountID).Return(repoErr).Once()

		assert.ErrorIs(t, d.service.Delete(ctx, testAccountID), repoErr)
		d.assertExpectations(t)
	})
}

func TestAccountServiceImpl_ActivateDeactivate(t *testing.T) {
	ctx := context.Background()

	t.Run("ActivateSetsActiveTrue", func(t *testing.T) {
		d := newTestDeps()
		existing := activeAccount()
		existing.Active = false
		updated := *existing
		updated.Active = true

		d.repo.On("FindByAccountID", ctx, testAccountID).Return(existing, nil).Once()
		d.updater.On("Update", ctx, existing, []account.FieldUpdate{{Field: account.FieldActive, Value: "true"}}).
			Return(&updated, nil).Once()

		acc, err := d.service.Activate(ctx, testAccountID)

		require.NoError(t, err)
		assert.True(t, acc.Active)
		d.assertExpectations(t)
	})

	t.Run("DeactivateSetsActiveFalse", func(t *testing.T) {
		d := newTestDeps()
		existing := activeAccount()
		updated := *existing
		updated.Active = false

		d.repo.On("FindByAccountID", ctx, testAccountID).Return(existing, nil).Once()
		d.updater.On("Update", ctx, existing, []account.FieldUpdate{{Field: account.FieldActive, Value: "false"}}).
			Return(&updated, nil).Once()

		acc, err := d.service.Deactivate(ctx, testAccountID)

		require.NoError(t, err)
		assert.False(t, acc.Active)
		d.assertExpectations(t)
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		d := newTestDeps()
		d.repo.On("FindByAccountID", ctx, testAccountID).Return(nil, nil).Twice()

		_, err := d.service.Activate(ctx, testAccountID)
		assert.ErrorIs(t, err, account.ErrAccountNotFound{})
		_, err = d.service.Deactivate(ctx, testAccountID)
		assert.ErrorIs(t, err, account.ErrAccountNotFound{})

		d.updater.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		d.assertExpectations(t)
	})
}

func TestAccountServiceImpl_Deposit(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		d := newTestDeps()
		existing := activeAccount()
		updated := *existing
		updated.Balance = decimal.RequireFromString("3600.50")

		d.repo.On("FindByAccountID", ctx, testAccountID).Return(existing, nil).Once()
		d.updater.On("Update", ctx, existing, []account.FieldUpdate{{Field: account.FieldBalance, Value: "3600.5"}}).
			Return(&updated, nil).Once()
		d.txLog.On("Append", ctx, int64(11), decimalEq("100.50"), transaction.TypeDeposit).Return(nil).Once()

		acc, err := d.service.Deposit(ctx, testAccountID, decimal.RequireFromString("100.50"))

		require.NoError(t, err)
		assert.True(t, acc.Balance.Equal(decimal.RequireFromString("3600.5")))
		d.assertExpectations(t)
	})

	t.Run("NegativeAmountRejectedBeforeStoreAccess", func(t *testing.T) {
		d := newTestDeps()

		_, err := d.service.Deposit(ctx, testAccountID, decimal.NewFromInt(-1))

		assert.ErrorIs(t, err, account.ErrInvalidAmount)
		d.repo.AssertNotCalled(t, "FindByAccountID", mock.Anything, mock.Anything)
		d.assertExpectations(t)
	})

	t.Run("InactiveAccount", func(t *testing.T) {
		d := newTestDeps()
		existing := activeAccount()
		existing.Active = false
		d.repo.On("FindByAccountID", ctx, testAccountID).Return(existing, nil).Once()

		_, err := d.service.Deposit(ctx, testAccountID, decimal.NewFromInt(10))

		assert.ErrorIs(t, err, account.ErrInactiveAccount)
		d.updater.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		d.txLog.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		d.assertExpectations(t)
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		d := newTestDeps()
		d.repo.On("FindByAccountID", ctx, testAccountID).Return(nil, nil).Once()

		_, err := d.service.Deposit(ctx, testAccountID, decimal.NewFromInt(10))

		assert.ErrorIs(t, err, account.ErrAccountNotFound{})
		d.assertExpectations(t)
	})

	t.Run("TransactionLogFailureDoesNotFailDeposit", func(t *testing.T) {
		d := newTestDeps()
		existing := activeAccount()
		updated := *existing
		updated.Balance = decimal.NewFromInt(3510)

		d.repo.On("FindByAccountID", ctx, testAccountID).Return(existing, nil).Once()
		d.updater.On("Update", ctx, existing, mock.Anything).Return(&updated, nil).Once()
		d.txLog.On("Append", ctx, int64(11), decimalEq("10"), transaction.TypeDeposit).Return(errors.New("broker down")).Once()

		acc, err := d.service.Deposit(ctx, testAccountID, decimal.NewFromInt(10))

		require.NoError(t, err)
		assert.Equal(t, &updated, acc)
		d.assertExpectations(t)
	})

	t.Run("SaveFailureSkipsTransactionLog", func(t *testing.T) {
		d := newTestDeps()
		existing := activeAccount()
		conflict := account.ErrConcurrentModification{ID: existing.ID}

		d.repo.On("FindByAccountID", ctx, testAccountID).Return(existing, nil).Once()
		d.updater.On("Update", ctx, existing, mock.Anything).Return(nil, conflict).Once()

		_, err := d.service.Deposit(ctx, testAccountID, decimal.NewFromInt(10))

		assert.ErrorIs(t, err, account.ErrConcurrentModification{})
		d.txLog.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		d.assertExpectations(t)
	})
}

func TestAccountServiceImpl_Withdraw(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		d := newTestDeps()
		existing := activeAccount()
		updated := *existing
		updated.Balance = decimal.NewFromInt(1501)

		d.repo.On("FindByAccountID", ctx, testAccountID).Return(existing, nil).Once()
		d.updater.On("Update", ctx, existing, []account.FieldUpdate{{Field: account.FieldBalance, Value: "1501"}}).
			Return(&updated, nil).Once()
		d.txLog.On("Append", ctx, int64(11), decimalEq("1999"), transaction.TypeWithdraw).Return(nil).Once()

		acc, err := d.service.Withdraw(ctx, testAccountID, decimal.NewFromInt(1999))

		require.NoError(t, err)
		assert.True(t, acc.Balance.Equal(decimal.NewFromInt(1501)))
		d.assertExpectations(t)
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		d := newTestDeps()
		existing := activeAccount()
		d.repo.On("FindByAccountID", ctx, testAccountID).Return(existing, nil).Once()

		_, err := d.service.Withdraw(ctx, testAccountID, decimal.RequireFromString("2000.01"))

		assert.ErrorIs(t, err, account.ErrInsufficientFunds)
		d.updater.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		d.assertExpectations(t)
	})

	t.Run("InactiveCheckedBeforeFunds", func(t *testing.T) {
		d := newTestDeps()
		existing := activeAccount()
		existing.Active = false
		d.repo.On("FindByAccountID", ctx, testAccountID).Return(existing, nil).Once()

		_, err := d.service.Withdraw(ctx, testAccountID, decimal.NewFromInt(1000000))

		assert.ErrorIs(t, err, account.ErrInactiveAccount)
		d.assertExpectations(t)
	})

	t.Run("NegativeAmount", func(t *testing.T) {
		d := newTestDeps()

		_, err := d.service.Withdraw(ctx, testAccountID, decimal.NewFromInt(-1))

		assert.ErrorIs(t, err, account.ErrInvalidAmount)
		d.assertExpectations(t)
	})
}

func TestAccountServiceImpl_UpdateFields(t *testing.T) {
	ctx := context.Background()
	updates := []account.FieldUpdate{{Field: account.FieldFirstName, Value: "Johnny"}}

	t.Run("DelegatesToFieldUpdater", func(t *testing.T) {
		d := newTestDeps()
		existing := activeAccount()
		updated := *existing
		updated.FirstName = "Johnny"

		d.repo.On("FindByAccountID", ctx, testAccountID).Return(existing, nil).Once()
		d.updater.On("Update", ctx, existing, updates).Return(&updated, nil).Once()

		acc, err := d.service.UpdateFields(ctx, testAccountID, updates)

		require.NoError(t, err)
		assert.Equal(t, "Johnny", acc.FirstName)
		d.assertExpectations(t)
	})

	t.Run("UnauthorizedFieldPropagates", func(t *testing.T) {
		d := newTestDeps()
		existing := activeAccount()
		bad := []account.FieldUpdate{{Field: account.FieldID, Value: "1"}}

		d.repo.On("FindByAccountID", ctx, testAccountID).Return(existing, nil).Once()
		d.updater.On("Update", ctx, existing, bad).Return(nil, account.UnauthorizedFieldError{Field: account.FieldID}).Once()

		_, err := d.service.UpdateFields(ctx, testAccountID, bad)

		var unauthorized account.UnauthorizedFieldError
		assert.ErrorAs(t, err, &unauthorized)
		d.assertExpectations(t)
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		d := newTestDeps()
		d.repo.On("FindByAccountID", ctx, testAccountID).Return(nil, nil).Once()

		_, err := d.service.UpdateFields(ctx, testAccountID, updates)

		assert.ErrorIs(t, err, account.ErrAccountNotFound{})
		d.assertExpectations(t)
	})
}

func TestAccountServiceImpl_ListTransactions(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		d := newTestDeps()
		records := []*transaction.Transaction{
			transaction.New(11, decimal.NewFromInt(5), transaction.TypeWithdraw, ""),
			transaction.New(11, decimal.NewFromInt(10), transaction.TypeDeposit, ""),
		}

		d.repo.On("FindByAccountID", ctx, testAccountID).Return(activeAccount(), nil).Once()
		d.txRepo.On("ListByBankAccountID", ctx, int64(11), 10, 20).Return(records, nil).Once()
		d.txRepo.On("CountByBankAccountID", ctx, int64(11)).Return(int64(22), nil).Once()

		got, total, err := d.service.ListTransactions(ctx, testAccountID, 3, 10)

		require.NoError(t, err)
		assert.Equal(t, records, got)
		assert.Equal(t, int64(22), total)
		d.assertExpectations(t)
	})

	t.Run("PageBelowOneStartsAtFirstPage", func(t *testing.T) {
		d := newTestDeps()
		d.repo.On("FindByAccountID", ctx, testAccountID).Return(activeAccount(), nil).Once()
		d.txRepo.On("ListByBankAccountID", ctx, int64(11), 10, 0).Return([]*transaction.Transaction{}, nil).Once()
		d.txRepo.On("CountByBankAccountID", ctx, int64(11)).Return(int64(0), nil).Once()

		_, _, err := d.service.ListTransactions(ctx, testAccountID, 0, 10)

		require.NoError(t, err)
		d.assertExpectations(t)
	})

	t.Run("RepositoryError", func(t *testing.T) {
		d := newTestDeps()
		repoErr := errors.New("mongo unavailable")
		d.repo.On("FindByAccountID", ctx, testAccountID).Return(activeAccount(), nil).Once()
		d.txRepo.On("ListByBankAccountID", ctx, int64(11), 10, 0).Return(nil, repoErr).Once()

		_, _, err := d.service.ListTransactions(ctx, testAccountID, 1, 10)

		assert.ErrorIs(t, err, repoErr)
		d.assertExpectations(t)
	})
}
