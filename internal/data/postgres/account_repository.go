// Package postgres provides the PostgreSQL implementation of the account store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bank-account-service/internal/domain/account"
	"github.com/bank-account-service/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

const (
	selectAccountColumns = `SELECT id, account_id, first_name, last_name, balance, minimum_balance, active, version, created_at, updated_at
		FROM bank_accounts`

	findByIDQuery = selectAccountColumns + `
		WHERE id = $1`

	findByAccountIDQuery = selectAccountColumns + `
		WHERE account_id = $1`

	insertAccountQuery = `INSERT INTO bank_accounts (account_id, first_name, last_name, balance, minimum_balance, active, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	// version is compared and bumped in the same statement
	updateAccountQuery = `UPDATE bank_accounts
		SET first_name = $1, last_name = $2, balance = $3, minimum_balance = $4, active = $5, version = version + 1, updated_at = $6
		WHERE id = $7 AND version = $8
		RETURNING version`

	deleteByAccountIDQuery = `DELETE FROM bank_accounts WHERE account_id = $1`

	deleteByIDQuery = `DELETE FROM bank_accounts WHERE id = $1`
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) *AccountRepository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// FindByID retrieves an account by its internal ID
func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*account.Account, error) {
	acc, err := scanAccount(r.querier.QueryRow(ctx, findByIDQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get account", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

// FindByAccountID retrieves an account by its external account ID
func (r *AccountRepository) FindByAccountID(ctx context.Context, accountID string) (*account.Account, error) {
	acc, err := scanAccount(r.querier.QueryRow(ctx, findByAccountIDQuery, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get account by account ID", "account_id", accountID, "error", err)
		return nil, fmt.Errorf("failed to get account by account ID: %w", err)
	}
	return acc, nil
}

// Save inserts acc when it has no ID yet, otherwise updates it guarded by its version.
// The input is not modified; the persisted state is returned.
func (r *AccountRepository) Save(ctx context.Context, acc *account.Account) (*account.Account, error) {
	saved := *acc
	if acc.ID == 0 {
		err := r.querier.QueryRow(ctx, insertAccountQuery,
			acc.AccountID,
			acc.FirstName,
			acc.LastName,
			acc.Balance,
			acc.MinimumBalance,
			acc.Active,
			acc.Version,
			acc.CreatedAt,
			acc.UpdatedAt,
		).Scan(&saved.ID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
				return nil, account.ErrDuplicateAccount{AccountID: acc.AccountID}
			}
			r.logger.Error("Failed to create account", "account_id", acc.AccountID, "error", err)
			return nil, fmt.Errorf("failed to create account: %w", err)
		}
		return &saved, nil
	}

	err := r.querier.QueryRow(ctx, updateAccountQuery,
		acc.FirstName,
		acc.LastName,
		acc.Balance,
		acc.MinimumBalance,
		acc.Active,
		acc.UpdatedAt,
		acc.ID,
		acc.Version,
	).Scan(&saved.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrConcurrentModification{ID: acc.ID}
		}
		r.logger.Error("Failed to update account", "id", acc.ID, "error", err)
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	return &saved, nil
}

// DeleteByAccountID removes the account with the given account ID. Deleting a missing account is not an error.
func (r *AccountRepository) DeleteByAccountID(ctx context.Context, accountID string) error {
	if _, err := r.querier.Exec(ctx, deleteByAccountIDQuery, accountID); err != nil {
		r.logger.Error("Failed to delete account", "account_id", accountID, "error", err)
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

// DeleteByID removes the account with the given internal ID. Deleting a missing account is not an error.
func (r *AccountRepository) DeleteByID(ctx context.Context, id int64) error {
	if _, err := r.querier.Exec(ctx, deleteByIDQuery, id); err != nil {
		r.logger.Error("Failed to delete account", "id", id, "error", err)
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

func scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	err := row.Scan(
		&acc.ID,
		&acc.AccountID,
		&acc.FirstName,
		&acc.LastName,
		&acc.Balance,
		&acc.MinimumBalance,
		&acc.Active,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

var _ account.Repository = (*AccountRepository)(nil)
