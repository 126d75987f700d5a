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

// TransferRepository implements domain.TransferRepository using PostgreSQL.
// Rows are only ever inserted; the log is append-only.
type TransferRepository struct {
	pool *pgxpool.Pool
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(pool *pgxpool.Pool) *TransferRepository {
	return &TransferRepository{
		pool: pool,
	}
}

// Append records a transfer. It should run inside the transaction that moved the funds.
func (r *TransferRepository) Append(ctx context.Context, transfer *domain.Transfer) error {
	query := `
		INSERT INTO transfers (
			id, from_account_number, to_account_number,
			amount, currency_code,
			to_bic, reference, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := conn(ctx, r.pool).Exec(ctx, query,
		transfer.ID,
		transfer.FromAccountNumber,
		transfer.ToAccountNumber,
		transfer.Amount,
		transfer.CurrencyCode,
		transfer.ToBIC,
		transfer.Reference,
		transfer.CreatedAt,
	)
	if err != nil {
		if isPgUniqueViolation(err, transferIDConstraint) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateTransfer, transfer.ID)
		}
		return fmt.Errorf("failed to append transfer: %w", err)
	}

	return nil
}

// GetByID retrieves a transfer by its unique identifier.
func (r *TransferRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	query := `
		SELECT id, from_account_number, to_account_number,
		       amount, currency_code,
		       to_bic, reference, created_at
		FROM transfers
		WHERE id = $1
	`

	var transfer domain.Transfer
	err := conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&transfer.ID,
		&transfer.FromAccountNumber,
		&transfer.ToAccountNumber,
		&transfer.Amount,
		&transfer.CurrencyCode,
		&transfer.ToBIC,
		&transfer.Reference,
		&transfer.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransferNotFound
		}
		return nil, fmt.Errorf("failed to get transfer by ID: %w", err)
	}

	return &transfer, nil
}
