package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/domain"
)

// AccountRepository implements domain.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{
		pool: pool,
	}
}

// FindByAccountNumber retrieves an account and all of its balances.
// More than one matching account row is reported as domain.ErrAmbiguousAccount
// rather than silently picking one.
func (r *AccountRepository) FindByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	query := `
		SELECT id, account_number, name, country_code, created_at
		FROM accounts
		WHERE account_number = $1
		LIMIT 2
	`

	q := conn(ctx, r.pool)

	rows, err := q.Query(ctx, query, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	accounts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Account, error) {
		var a domain.Account
		err := row.Scan(&a.ID, &a.AccountNumber, &a.Name, &a.CountryCode, &a.CreatedAt)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	switch len(accounts) {
	case 0:
		return nil, domain.ErrAccountNotFound
	case 1:
	default:
		return nil, domain.ErrAmbiguousAccount
	}

	account := accounts[0]
	account.Balances, err = r.balances(ctx, q, account.ID)
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// balances loads the full balance set of an account, ordered by currency.
func (r *AccountRepository) balances(ctx context.Context, q querier, accountID uuid.UUID) ([]domain.Balance, error) {
	query := `
		SELECT currency_code, amount
		FROM account_balances
		WHERE account_id = $1
		ORDER BY currency_code
	`

	rows, err := q.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get balances: %w", err)
	}

	balances, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Balance, error) {
		var b domain.Balance
		err := row.Scan(&b.CurrencyCode, &b.Amount)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan balances: %w", err)
	}

	return balances, nil
}

// ListPage returns accounts holding a balance in the query currency within the
// optional bounds, in creation order. Each account carries only that balance.
func (r *AccountRepository) ListPage(ctx context.Context, lq domain.ListAccountsQuery) ([]domain.Account, error) {
	query := `
		SELECT a.id, a.account_number, a.name, a.country_code, a.created_at,
		       b.currency_code, b.amount
		FROM accounts a
		JOIN account_balances b
		  ON b.account_id = a.id AND b.currency_code = $1
		WHERE ($2::bigint IS NULL OR b.amount >= $2)
		  AND ($3::bigint IS NULL OR b.amount <= $3)
		ORDER BY a.seq
		LIMIT $4 OFFSET $5
	`

	rows, err := conn(ctx, r.pool).Query(ctx, query,
		lq.CurrencyCode,
		lq.MinBalance,
		lq.MaxBalance,
		lq.PageSize,
		lq.Offset(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	accounts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Account, error) {
		var a domain.Account
		var b domain.Balance
		err := row.Scan(&a.ID, &a.AccountNumber, &a.Name, &a.CountryCode, &a.CreatedAt, &b.CurrencyCode, &b.Amount)
		a.Balances = []domain.Balance{b}
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan accounts: %w", err)
	}

	return accounts, nil
}

// Insert stores a new account and its balances atomically.
// When called inside a transaction context it runs in a savepoint.
func (r *AccountRepository) Insert(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	tx, err := conn(ctx, r.pool).Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin insert: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	_, err = tx.Exec(ctx, `
		INSERT INTO accounts (id, account_number, name, country_code, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, account.ID, account.AccountNumber, account.Name, account.CountryCode, account.CreatedAt)
	if err != nil {
		if isPgUniqueViolation(err, accountNumberConstraint) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateAccount, account.AccountNumber)
		}
		return nil, fmt.Errorf("failed to insert account: %w", err)
	}

	if len(account.Balances) > 0 {
		batch := &pgx.Batch{}
		for _, b := range account.Balances {
			batch.Queue(`
				INSERT INTO account_balances (account_id, currency_code, amount)
				VALUES ($1, $2, $3)
			`, account.ID, b.CurrencyCode, b.Amount)
		}

		results := tx.SendBatch(ctx, batch)
		for range account.Balances {
			if _, err := results.Exec(); err != nil {
				results.Close()
				if isPgUniqueViolation(err, accountBalanceConstraint) {
					return nil, domain.ErrDuplicateBalance
				}
				return nil, fmt.Errorf("failed to insert balance: %w", err)
			}
		}
		if err := results.Close(); err != nil {
			return nil, fmt.Errorf("failed to insert balances: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if isPgUniqueViolation(err, accountNumberConstraint) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateAccount, account.AccountNumber)
		}
		return nil, fmt.Errorf("failed to commit account insert: %w", err)
	}

	return account, nil
}

// LockByAccountNumber acquires a pessimistic lock on every account row matching
// the account number for the duration of the transaction.
// This method MUST be called within a transaction context.
// Uses SELECT ... FOR UPDATE to lock the row.
func (r *AccountRepository) LockByAccountNumber(ctx context.Context, accountNumber string) (uuid.UUID, error) {
	query := `
		SELECT id
		FROM accounts
		WHERE account_number = $1
		FOR UPDATE
	`

	rows, err := conn(ctx, r.pool).Query(ctx, query, accountNumber)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to lock account: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to lock account: %w", err)
	}

	switch len(ids) {
	case 0:
		return uuid.Nil, domain.ErrAccountNotFound
	case 1:
		return ids[0], nil
	default:
		return uuid.Nil, domain.ErrAmbiguousAccount
	}
}

// BalanceForUpdate locks the balance row of an account in a currency.
// This method MUST be called within a transaction context.
func (r *AccountRepository) BalanceForUpdate(ctx context.Context, accountID uuid.UUID, currencyCode string) (int64, bool, error) {
	query := `
		SELECT amount
		FROM account_balances
		WHERE account_id = $1 AND currency_code = $2
		FOR UPDATE
	`

	var amount int64
	err := conn(ctx, r.pool).QueryRow(ctx, query, accountID, currencyCode).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to lock balance: %w", err)
	}

	return amount, true, nil
}

// Debit subtracts amount from a balance. The guard in the WHERE clause makes
// the check and the update one statement, so the balance never goes negative.
func (r *AccountRepository) Debit(ctx context.Context, accountID uuid.UUID, currencyCode string, amount int64) error {
	query := `
		UPDATE account_balances
		SET amount = amount - $3
		WHERE account_id = $1 AND currency_code = $2 AND amount >= $3
	`

	result, err := conn(ctx, r.pool).Exec(ctx, query, accountID, currencyCode, amount)
	if err != nil {
		return fmt.Errorf("failed to debit balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrInsufficientFunds
	}

	return nil
}

// Credit adds amount to a balance, creating the balance row from zero if the
// account holds nothing in that currency yet.
func (r *AccountRepository) Credit(ctx context.Context, accountID uuid.UUID, currencyCode string, amount int64) error {
	query := `
		INSERT INTO account_balances (account_id, currency_code, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, currency_code)
		DO UPDATE SET amount = account_balances.amount + EXCLUDED.amount
	`

	if _, err := conn(ctx, r.pool).Exec(ctx, query, accountID, currencyCode, amount); err != nil {
		return fmt.Errorf("failed to credit balance: %w", err)
	}

	return nil
}
