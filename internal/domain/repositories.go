package domain

import (
	"context"

	"github.com/google/uuid"
)

// AccountRepository defines the interface for account and balance data access.
// Mutating methods are only called by the transfer engine inside a transaction.
type AccountRepository interface {
	// FindByAccountNumber retrieves an account together with all its balances.
	// Returns ErrAccountNotFound or ErrAmbiguousAccount.
	FindByAccountNumber(ctx context.Context, accountNumber string) (*Account, error)

	// ListPage returns one page of accounts holding a balance in the query currency.
	// Each account carries only the matching balance.
	ListPage(ctx context.Context, query ListAccountsQuery) ([]Account, error)

	// Insert stores a new account and its initial balances atomically.
	// Returns ErrDuplicateAccount if the account number is taken.
	Insert(ctx context.Context, account *Account) (*Account, error)

	// LockByAccountNumber acquires a row lock on the account for the duration
	// of the transaction and returns its ID.
	// Must be called within a transaction context.
	LockByAccountNumber(ctx context.Context, accountNumber string) (uuid.UUID, error)

	// BalanceForUpdate locks and returns the balance of an account in a currency.
	// The boolean is false when the account holds no balance in that currency.
	// Must be called within a transaction context.
	BalanceForUpdate(ctx context.Context, accountID uuid.UUID, currencyCode string) (int64, bool, error)

	// Debit subtracts amount from the balance.
	// Returns ErrInsufficientFunds instead of producing a negative balance.
	Debit(ctx context.Context, accountID uuid.UUID, currencyCode string, amount int64) error

	// Credit adds amount to the balance, creating it from zero if absent.
	Credit(ctx context.Context, accountID uuid.UUID, currencyCode string, amount int64) error
}

// TransferRepository defines the interface for the append-only transfer log.
type TransferRepository interface {
	// Append records a completed transfer.
	// Must be called in the same transaction as the balance mutations.
	Append(ctx context.Context, transfer *Transfer) error

	// GetByID retrieves a transfer by its unique identifier.
	GetByID(ctx context.Context, id uuid.UUID) (*Transfer, error)
}

// TransactionManager defines the interface for managing database transactions.
// This abstraction allows the service layer to work with transactions
// without being coupled to a specific database implementation.
type TransactionManager interface {
	// WithTransaction executes the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// Otherwise, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher publishes domain events to external systems (e.g. RabbitMQ).
type EventPublisher interface {
	PublishTransferCompleted(ctx context.Context, transfer *Transfer) error
}
