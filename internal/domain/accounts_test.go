package domain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/domain"
)

func TestAccountService_GetByAccountNumber(t *testing.T) {
	l := newLedger(account(numberA, eur(5), domain.Balance{CurrencyCode: "CHF", Amount: 7}))
	svc := domain.NewAccountService(l.accounts)

	first, err := svc.GetByAccountNumber(context.Background(), numberA)
	require.NoError(t, err)
	second, err := svc.GetByAccountNumber(context.Background(), numberA)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []domain.Balance{{CurrencyCode: "CHF", Amount: 7}, {CurrencyCode: "EUR", Amount: 5}}, first.Balances)

	_, err = svc.GetByAccountNumber(context.Background(), numberZ)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountService_GetByAccountNumber_Ambiguous(t *testing.T) {
	l := newLedger(account(numberA), account(numberA))
	svc := domain.NewAccountService(l.accounts)

	_, err := svc.GetByAccountNumber(context.Background(), numberA)
	assert.ErrorIs(t, err, domain.ErrAmbiguousAccount)
}

func TestAccountService_ListAccounts(t *testing.T) {
	l := newLedger(
		account("DE00000000000000000010", eur(10)),
		account("DE00000000000000000011", domain.Balance{CurrencyCode: "USD", Amount: 99}),
		account("DE00000000000000000012", eur(20), domain.Balance{CurrencyCode: "USD", Amount: 1}),
		account("DE00000000000000000013", eur(30)),
	)
	svc := domain.NewAccountService(l.accounts)

	page, err := svc.ListAccounts(context.Background(), domain.ListAccountsQuery{Page: 1, PageSize: 5, CurrencyCode: "EUR"})
	require.NoError(t, err)
	require.Len(t, page, 3)
	for _, a := range page {
		require.Len(t, a.Balances, 1)
		assert.Equal(t, "EUR", a.Balances[0].CurrencyCode)
	}
	assert.Equal(t, "DE00000000000000000012", page[1].AccountNumber)

	minBalance := int64(15)
	filtered, err := svc.ListAccounts(context.Background(), domain.ListAccountsQuery{Page: 1, PageSize: 5, CurrencyCode: "EUR", MinBalance: &minBalance})
	require.NoError(t, err)
	require.Len(t, filtered, 2)

	_, err = svc.ListAccounts(context.Background(), domain.ListAccountsQuery{Page: 0, PageSize: 5, CurrencyCode: "EUR"})
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func TestAccountService_OpenAccount(t *testing.T) {
	l := newLedger()
	svc := domain.NewAccountService(l.accounts)

	opened, err := svc.OpenAccount(context.Background(), numberA, "Alice", "DEU", []domain.Balance{eur(100)})
	require.NoError(t, err)
	assert.Equal(t, numberA, opened.AccountNumber)
	assert.False(t, opened.CreatedAt.IsZero())

	_, err = svc.OpenAccount(context.Background(), numberA, "Mallory", "DEU", nil)
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)

	_, err = svc.OpenAccount(context.Background(), numberB, "Bob", "DEU", []domain.Balance{eur(1), eur(2)})
	assert.ErrorIs(t, err, domain.ErrDuplicateBalance)

	_, err = svc.OpenAccount(context.Background(), numberB, "Bob", "DEU", []domain.Balance{eur(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidBalance)
}
