package domain

import (
	"fmt"
)

const (
	// MaxPageSize caps the number of accounts returned by a single listing page.
	MaxPageSize = 100

	// AccountNumberLength is the fixed length of an account number.
	AccountNumberLength = 22
)

// ValidateCurrencyCode validates that a currency code follows ISO 4217 format.
func ValidateCurrencyCode(code string) error {
	if code == "" {
		return fmt.Errorf("currency code cannot be empty")
	}

	if len(code) != 3 {
		return fmt.Errorf("currency code must be 3 characters (ISO 4217)")
	}

	// Check if all characters are uppercase letters
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return fmt.Errorf("currency code must contain only uppercase letters")
		}
	}

	return nil
}

// ValidateListQuery checks paging bounds and the balance range of a listing query.
func ValidateListQuery(q ListAccountsQuery) error {
	if q.Page < 1 {
		return fmt.Errorf("%w: page must be at least 1", ErrInvalidQuery)
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return fmt.Errorf("%w: page size must be between 1 and %d", ErrInvalidQuery, MaxPageSize)
	}
	if err := ValidateCurrencyCode(q.CurrencyCode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if q.MinBalance != nil && q.MaxBalance != nil && *q.MinBalance > *q.MaxBalance {
		return fmt.Errorf("%w: minBalance exceeds maxBalance", ErrInvalidQuery)
	}
	return nil
}

// ValidateBalances checks an initial balance set: non-negative amounts, one entry per currency.
func ValidateBalances(balances []Balance) error {
	seen := make(map[string]struct{}, len(balances))
	for _, b := range balances {
		if err := ValidateCurrencyCode(b.CurrencyCode); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidBalance, err)
		}
		if b.Amount < 0 {
			return fmt.Errorf("%w: balance in %s must not be negative", ErrInvalidBalance, b.CurrencyCode)
		}
		if _, ok := seen[b.CurrencyCode]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateBalance, b.CurrencyCode)
		}
		seen[b.CurrencyCode] = struct{}{}
	}
	return nil
}
