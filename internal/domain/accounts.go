package domain

import (
	"context"
	"fmt"
)

// AccountService serves account lookups, listings and account opening.
type AccountService struct {
	accountRepo AccountRepository
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo AccountRepository) *AccountService {
	return &AccountService{accountRepo: accountRepo}
}

// GetByAccountNumber retrieves an account with all of its balances.
func (s *AccountService) GetByAccountNumber(ctx context.Context, accountNumber string) (*Account, error) {
	account, err := s.accountRepo.FindByAccountNumber(ctx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// ListAccounts returns one page of accounts holding a balance in the query currency.
func (s *AccountService) ListAccounts(ctx context.Context, query ListAccountsQuery) ([]Account, error) {
	if err := ValidateListQuery(query); err != nil {
		return nil, err
	}

	accounts, err := s.accountRepo.ListPage(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// OpenAccount stores a new account with its initial balances.
func (s *AccountService) OpenAccount(ctx context.Context, accountNumber, name, countryCode string, balances []Balance) (*Account, error) {
	if err := ValidateBalances(balances); err != nil {
		return nil, err
	}

	account, err := s.accountRepo.Insert(ctx, NewAccount(accountNumber, name, countryCode, balances))
	if err != nil {
		return nil, fmt.Errorf("failed to open account: %w", err)
	}
	return account, nil
}
