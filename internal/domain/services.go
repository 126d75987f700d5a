package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransferNormalizer turns a TransferIntent into a Transfer ready for execution
// by assigning it an identifier and a creation timestamp.
type TransferNormalizer struct {
	now   func() time.Time
	newID func() uuid.UUID
}

// NewTransferNormalizer creates a TransferNormalizer.
// Pass nil to use the wall clock and random UUIDs.
func NewTransferNormalizer(now func() time.Time, newID func() uuid.UUID) *TransferNormalizer {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.New
	}
	return &TransferNormalizer{now: now, newID: newID}
}

// Normalize assigns an ID and timestamp and passes every other field through unchanged.
func (n *TransferNormalizer) Normalize(intent TransferIntent) *Transfer {
	return &Transfer{
		ID:                n.newID(),
		FromAccountNumber: intent.FromAccountNumber,
		ToAccountNumber:   intent.ToAccountNumber,
		CreatedAt:         n.now().UTC(),
		Amount:            intent.Amount,
		CurrencyCode:      intent.CurrencyCode,
		ToBIC:             intent.ToBIC,
		Reference:         intent.Reference,
	}
}

// outcomeError aborts the transfer transaction with an expected failure tag.
type outcomeError struct {
	status OutcomeStatus
	reason string
}

func (e *outcomeError) Error() string {
	return fmt.Sprintf("%s: %s", e.status, e.reason)
}

func abort(status OutcomeStatus, reason string) error {
	return &outcomeError{status: status, reason: reason}
}

// party is the result of locking one side of a transfer.
type party struct {
	id  uuid.UUID
	err error // ErrAccountNotFound or ErrAmbiguousAccount
}

// TransferService handles the business logic for money transfers.
// It coordinates between repositories and ensures transactional consistency.
type TransferService struct {
	accountRepo  AccountRepository
	transferRepo TransferRepository
	txManager    TransactionManager
	normalizer   *TransferNormalizer
	logger       *zap.Logger
	// Optional event publisher to emit domain events (e.g. transfer completed)
	eventPublisher EventPublisher
}

// NewTransferService creates a new instance of TransferService.
// Pass nil for eventPublisher if no events should be emitted.
func NewTransferService(
	accountRepo AccountRepository,
	transferRepo TransferRepository,
	txManager TransactionManager,
	eventPublisher EventPublisher,
	logger *zap.Logger,
) *TransferService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferService{
		accountRepo:    accountRepo,
		transferRepo:   transferRepo,
		txManager:      txManager,
		normalizer:     NewTransferNormalizer(nil, nil),
		logger:         logger,
		eventPublisher: eventPublisher,
	}
}

// WithNormalizer replaces the normalizer used by Transfer.
func (s *TransferService) WithNormalizer(n *TransferNormalizer) *TransferService {
	s.normalizer = n
	return s
}

// Transfer normalizes an inbound intent and executes it.
func (s *TransferService) Transfer(ctx context.Context, intent TransferIntent) TransferOutcome {
	return s.Execute(ctx, s.normalizer.Normalize(intent))
}

// Execute applies a transfer atomically within a database transaction:
//  1. Lock sender and receiver accounts
//  2. Validate sender exists and holds enough in the currency
//  3. Validate receiver exists
//  4. Debit sender, credit receiver (creating the balance if needed)
//  5. Append the transfer record
//  6. Commit
//
// Any failure rolls back every effect. Expected failures carry their own
// status; everything else is reported as OutcomeInternalFailure.
func (s *TransferService) Execute(ctx context.Context, transfer *Transfer) TransferOutcome {
	log := s.logger.With(
		zap.String("transfer_id", transfer.ID.String()),
		zap.String("from", transfer.FromAccountNumber),
		zap.String("to", transfer.ToAccountNumber),
		zap.Int64("amount", transfer.Amount),
		zap.String("currency", transfer.CurrencyCode),
	)

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.apply(txCtx, transfer)
	})

	if err != nil {
		var oe *outcomeError
		if errors.As(err, &oe) {
			if oe.status == OutcomeInsufficientFunds {
				log.Info("transfer rejected", zap.String("status", string(oe.status)))
			} else {
				log.Warn("transfer rejected", zap.String("status", string(oe.status)), zap.String("reason", oe.reason))
			}
			return TransferOutcome{Status: oe.status, Reason: oe.reason}
		}

		log.Error("transfer failed", zap.Error(err))
		return TransferOutcome{Status: OutcomeInternalFailure, Reason: "transfer failed"}
	}

	log.Info("transfer completed")

	// After successful transaction commit, publish transfer completed event (best-effort).
	// Publishing is asynchronous so a broker failure never turns a committed
	// transfer into a failed one.
	if s.eventPublisher != nil {
		go func(t *Transfer) {
			if err := s.eventPublisher.PublishTransferCompleted(context.Background(), t); err != nil {
				log.Warn("failed to publish transfer completed event", zap.Error(err))
			}
		}(transfer)
	}

	return TransferOutcome{Status: OutcomeSuccess, Transfer: transfer}
}

// apply runs the transfer steps inside an open transaction.
func (s *TransferService) apply(ctx context.Context, t *Transfer) error {
	sender, receiver, err := s.lockParties(ctx, t.FromAccountNumber, t.ToAccountNumber)
	if err != nil {
		return err
	}

	if sender.err != nil {
		if errors.Is(sender.err, ErrAmbiguousAccount) {
			return abort(OutcomeSenderAmbiguous, "multiple accounts match the sender account number")
		}
		return abort(OutcomeSenderNotFound, "sender account does not exist")
	}

	available, ok, err := s.accountRepo.BalanceForUpdate(ctx, sender.id, t.CurrencyCode)
	if err != nil {
		return fmt.Errorf("failed to lock sender balance: %w", err)
	}
	if !ok || available < t.Amount {
		return abort(OutcomeInsufficientFunds, "insufficient funds")
	}

	if receiver.err != nil {
		if errors.Is(receiver.err, ErrAmbiguousAccount) {
			return abort(OutcomeReceiverAmbiguous, "multiple accounts match the receiver account number")
		}
		return abort(OutcomeReceiverNotFound, "receiver account does not exist")
	}

	if err := s.accountRepo.Debit(ctx, sender.id, t.CurrencyCode, t.Amount); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return abort(OutcomeInsufficientFunds, "insufficient funds")
		}
		return fmt.Errorf("failed to debit sender account: %w", err)
	}

	if err := s.accountRepo.Credit(ctx, receiver.id, t.CurrencyCode, t.Amount); err != nil {
		return fmt.Errorf("failed to credit receiver account: %w", err)
	}

	if err := s.transferRepo.Append(ctx, t); err != nil {
		return fmt.Errorf("failed to append transfer record: %w", err)
	}

	return nil
}

// lockParties locks both accounts in a deterministic order to prevent deadlocks
// between transfers running in opposite directions.
// Lookup misses are reported per party; only storage failures are returned as err.
func (s *TransferService) lockParties(ctx context.Context, from, to string) (sender, receiver party, err error) {
	lock := func(number string) (party, error) {
		id, err := s.accountRepo.LockByAccountNumber(ctx, number)
		switch {
		case err == nil:
			return party{id: id}, nil
		case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrAmbiguousAccount):
			return party{err: err}, nil
		default:
			return party{}, fmt.Errorf("failed to lock account %s: %w", number, err)
		}
	}

	if from == to {
		sender, err = lock(from)
		return sender, sender, err
	}

	if from < to {
		if sender, err = lock(from); err != nil {
			return
		}
		receiver, err = lock(to)
		return
	}

	if receiver, err = lock(to); err != nil {
		return
	}
	sender, err = lock(from)
	return
}

// GetTransfer retrieves a recorded transfer.
func (s *TransferService) GetTransfer(ctx context.Context, id uuid.UUID) (*Transfer, error) {
	transfer, err := s.transferRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}
	return transfer, nil
}
