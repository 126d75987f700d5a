package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account represents a bank account in the system.
// An account holds zero or more balances, at most one per currency.
type Account struct {
	ID            uuid.UUID `json:"id"`            // Unique identifier of the account
	AccountNumber string    `json:"accountNumber"` // Bank-style account number (22 characters)
	Name          string    `json:"name"`          // Account holder name
	CountryCode   string    `json:"countryCode"`   // ISO 3166-1 alpha-3 country code
	CreatedAt     time.Time `json:"createdAt"`     // Timestamp when the account was opened
	Balances      []Balance `json:"balances"`      // Per-currency balances
}

// Balance is the amount an account holds in a single currency.
type Balance struct {
	CurrencyCode string `json:"currencyCode"` // ISO 4217 currency code (e.g., "EUR")
	Amount       int64  `json:"balance"`      // Minor units of the currency, never negative
}

// Transfer represents a completed money movement between two accounts.
// A Transfer is immutable once it has been recorded in the transfer log.
type Transfer struct {
	ID                uuid.UUID `json:"id"`
	FromAccountNumber string    `json:"fromAccountNumber"`
	ToAccountNumber   string    `json:"toAccountNumber"`
	CreatedAt         time.Time `json:"createdAt"`
	Amount            int64     `json:"amount"`
	CurrencyCode      string    `json:"currencyCode"`
	ToBIC             string    `json:"toBIC"`
	Reference         string    `json:"reference"`
}

// TransferIntent is an inbound request to move money, before it has been
// assigned an identifier and a creation timestamp.
type TransferIntent struct {
	FromAccountNumber string
	ToAccountNumber   string
	Amount            int64
	CurrencyCode      string
	ToBIC             string
	Reference         string
}

// OutcomeStatus tags the result of a transfer attempt.
type OutcomeStatus string

const (
	OutcomeSuccess           OutcomeStatus = "success"
	OutcomeSenderNotFound    OutcomeStatus = "sender-not-found"
	OutcomeSenderAmbiguous   OutcomeStatus = "sender-ambiguous"
	OutcomeInsufficientFunds OutcomeStatus = "insufficient-funds"
	OutcomeReceiverNotFound  OutcomeStatus = "receiver-not-found"
	OutcomeReceiverAmbiguous OutcomeStatus = "receiver-ambiguous"
	OutcomeInternalFailure   OutcomeStatus = "internal-failure"
)

// TransferOutcome is the result of executing a transfer.
// Transfer is only set when Status is OutcomeSuccess.
type TransferOutcome struct {
	Status   OutcomeStatus
	Reason   string
	Transfer *Transfer
}

// Succeeded reports whether the transfer was applied.
func (o TransferOutcome) Succeeded() bool {
	return o.Status == OutcomeSuccess
}

// ListAccountsQuery selects one page of accounts holding a balance in CurrencyCode.
// MinBalance and MaxBalance are inclusive and optional.
type ListAccountsQuery struct {
	Page         int
	PageSize     int
	CurrencyCode string
	MinBalance   *int64
	MaxBalance   *int64
}

// Offset returns the number of accounts preceding the requested page.
func (q ListAccountsQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// BalanceIn returns the balance held in the given currency.
func (a *Account) BalanceIn(currencyCode string) (Balance, bool) {
	for _, b := range a.Balances {
		if b.CurrencyCode == currencyCode {
			return b, true
		}
	}
	return Balance{}, false
}

// NewAccount creates a new Account with a fresh ID and the given initial balances.
func NewAccount(accountNumber, name, countryCode string, balances []Balance) *Account {
	return &Account{
		ID:            uuid.New(),
		AccountNumber: accountNumber,
		Name:          name,
		CountryCode:   countryCode,
		CreatedAt:     time.Now().UTC(),
		Balances:      balances,
	}
}
