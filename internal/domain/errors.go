package domain

import "errors"

var (
	// ErrAccountNotFound is returned when no account matches an account number
	ErrAccountNotFound = errors.New("account not found")

	// ErrAmbiguousAccount is returned when more than one account matches an account number
	ErrAmbiguousAccount = errors.New("multiple accounts match the account number")

	// ErrInsufficientFunds is returned when the sender doesn't have enough balance
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicateAccount is returned when an account number already exists
	ErrDuplicateAccount = errors.New("account number already exists")

	// ErrDuplicateBalance is returned when an account is opened with two balances in one currency
	ErrDuplicateBalance = errors.New("duplicate currency in account balances")

	// ErrInvalidBalance is returned when an initial balance has a malformed currency or a negative amount
	ErrInvalidBalance = errors.New("invalid account balance")

	// ErrDuplicateTransfer is returned when a transfer ID is recorded twice
	ErrDuplicateTransfer = errors.New("transfer already recorded")

	// ErrTransferNotFound is returned when a transfer doesn't exist
	ErrTransferNotFound = errors.New("transfer not found")

	// ErrInvalidQuery is returned when listing parameters are out of range
	ErrInvalidQuery = errors.New("invalid account listing query")
)
