package domain_test

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/domain"
)

// memStore is an in-memory ledger. memTxManager holds its mutex for the whole
// transaction, which stands in for row locks; repository methods never lock.
type memStore struct {
	mu        sync.Mutex
	accounts  []*domain.Account // duplicates allowed so ambiguity can be exercised
	transfers map[uuid.UUID]*domain.Transfer
	order     []uuid.UUID

	lockCalls []string

	debitErr  error
	creditErr error
	appendErr error
	lockErr   error
}

func newMemStore(accounts ...*domain.Account) *memStore {
	return &memStore{
		accounts:  accounts,
		transfers: make(map[uuid.UUID]*domain.Transfer),
	}
}

func (s *memStore) byNumber(number string) []*domain.Account {
	var out []*domain.Account
	for _, a := range s.accounts {
		if a.AccountNumber == number {
			out = append(out, a)
		}
	}
	return out
}

func (s *memStore) byID(id uuid.UUID) *domain.Account {
	for _, a := range s.accounts {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// balance returns the amount held by the account number in a currency, or -1 if absent.
func (s *memStore) balance(number, currency string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	matches := s.byNumber(number)
	if len(matches) == 0 {
		return -1
	}
	if b, ok := matches[0].BalanceIn(currency); ok {
		return b.Amount
	}
	return -1
}

func (s *memStore) transferCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transfers)
}

type snapshot struct {
	accounts  []domain.Account
	transfers map[uuid.UUID]*domain.Transfer
	order     []uuid.UUID
}

func (s *memStore) snapshot() snapshot {
	snap := snapshot{
		transfers: make(map[uuid.UUID]*domain.Transfer, len(s.transfers)),
		order:     append([]uuid.UUID(nil), s.order...),
	}
	for _, a := range s.accounts {
		c := *a
		c.Balances = append([]domain.Balance(nil), a.Balances...)
		snap.accounts = append(snap.accounts, c)
	}
	for k, v := range s.transfers {
		snap.transfers[k] = v
	}
	return snap
}

func (s *memStore) restore(snap snapshot) {
	s.accounts = s.accounts[:0]
	for i := range snap.accounts {
		a := snap.accounts[i]
		s.accounts = append(s.accounts, &a)
	}
	s.transfers = snap.transfers
	s.order = snap.order
}

// memAccountRepo implements domain.AccountRepository.
type memAccountRepo struct{ s *memStore }

func (r *memAccountRepo) FindByAccountNumber(_ context.Context, number string) (*domain.Account, error) {
	matches := r.s.byNumber(number)
	switch len(matches) {
	case 0:
		return nil, domain.ErrAccountNotFound
	case 1:
		c := *matches[0]
		c.Balances = append([]domain.Balance(nil), matches[0].Balances...)
		sort.Slice(c.Balances, func(i, j int) bool { return c.Balances[i].CurrencyCode < c.Balances[j].CurrencyCode })
		return &c, nil
	default:
		return nil, domain.ErrAmbiguousAccount
	}
}

func (r *memAccountRepo) ListPage(_ context.Context, q domain.ListAccountsQuery) ([]domain.Account, error) {
	var out []domain.Account
	for _, a := range r.s.accounts {
		b, ok := a.BalanceIn(q.CurrencyCode)
		if !ok {
			continue
		}
		if q.MinBalance != nil && b.Amount < *q.MinBalance {
			continue
		}
		if q.MaxBalance != nil && b.Amount > *q.MaxBalance {
			continue
		}
		c := *a
		c.Balances = []domain.Balance{b}
		out = append(out, c)
	}
	start := q.Offset()
	if start >= len(out) {
		return nil, nil
	}
	end := start + q.PageSize
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func (r *memAccountRepo) Insert(_ context.Context, account *domain.Account) (*domain.Account, error) {
	if len(r.s.byNumber(account.AccountNumber)) > 0 {
		return nil, domain.ErrDuplicateAccount
	}
	r.s.accounts = append(r.s.accounts, account)
	return account, nil
}

func (r *memAccountRepo) LockByAccountNumber(_ context.Context, number string) (uuid.UUID, error) {
	r.s.lockCalls = append(r.s.lockCalls, number)
	if r.s.lockErr != nil {
		return uuid.Nil, r.s.lockErr
	}
	matches := r.s.byNumber(number)
	switch len(matches) {
	case 0:
		return uuid.Nil, domain.ErrAccountNotFound
	case 1:
		return matches[0].ID, nil
	default:
		return uuid.Nil, domain.ErrAmbiguousAccount
	}
}

func (r *memAccountRepo) BalanceForUpdate(_ context.Context, id uuid.UUID, currency string) (int64, bool, error) {
	a := r.s.byID(id)
	if a == nil {
		return 0, false, nil
	}
	b, ok := a.BalanceIn(currency)
	return b.Amount, ok, nil
}

func (r *memAccountRepo) Debit(_ context.Context, id uuid.UUID, currency string, amount int64) error {
	if r.s.debitErr != nil {
		return r.s.debitErr
	}
	a := r.s.byID(id)
	for i := range a.Balances {
		if a.Balances[i].CurrencyCode == currency {
			if a.Balances[i].Amount < amount {
				return domain.ErrInsufficientFunds
			}
			a.Balances[i].Amount -= amount
			return nil
		}
	}
	return domain.ErrInsufficientFunds
}

func (r *memAccountRepo) Credit(_ context.Context, id uuid.UUID, currency string, amount int64) error {
	if r.s.creditErr != nil {
		return r.s.creditErr
	}
	a := r.s.byID(id)
	for i := range a.Balances {
		if a.Balances[i].CurrencyCode == currency {
			a.Balances[i].Amount += amount
			return nil
		}
	}
	a.Balances = append(a.Balances, domain.Balance{CurrencyCode: currency, Amount: amount})
	return nil
}

// memTransferRepo implements domain.TransferRepository.
type memTransferRepo struct{ s *memStore }

func (r *memTransferRepo) Append(_ context.Context, t *domain.Transfer) error {
	if r.s.appendErr != nil {
		return r.s.appendErr
	}
	if _, ok := r.s.transfers[t.ID]; ok {
		return domain.ErrDuplicateTransfer
	}
	r.s.transfers[t.ID] = t
	r.s.order = append(r.s.order, t.ID)
	return nil
}

func (r *memTransferRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Transfer, error) {
	t, ok := r.s.transfers[id]
	if !ok {
		return nil, domain.ErrTransferNotFound
	}
	return t, nil
}

// memTxManager serializes transactions and restores a snapshot on failure.
type memTxManager struct {
	s         *memStore
	commitErr error
}

func (m *memTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	snap := m.s.snapshot()
	if err := fn(ctx); err != nil {
		m.s.restore(snap)
		return err
	}
	if m.commitErr != nil {
		m.s.restore(snap)
		return m.commitErr
	}
	return nil
}

// recordingPublisher captures published transfers.
type recordingPublisher struct {
	published chan *domain.Transfer
	err       error
}

func newRecordingPublisher(err error) *recordingPublisher {
	return &recordingPublisher{published: make(chan *domain.Transfer, 64), err: err}
}

func (p *recordingPublisher) PublishTransferCompleted(_ context.Context, t *domain.Transfer) error {
	p.published <- t
	return p.err
}

type ledger struct {
	store     *memStore
	txManager *memTxManager
	accounts  *memAccountRepo
	transfers *memTransferRepo
}

func newLedger(accounts ...*domain.Account) *ledger {
	s := newMemStore(accounts...)
	return &ledger{
		store:     s,
		txManager: &memTxManager{s: s},
		accounts:  &memAccountRepo{s: s},
		transfers: &memTransferRepo{s: s},
	}
}

func (l *ledger) service(publisher domain.EventPublisher) *domain.TransferService {
	return domain.NewTransferService(l.accounts, l.transfers, l.txManager, publisher, nil)
}

func account(number string, balances ...domain.Balance) *domain.Account {
	return domain.NewAccount(number, "Holder "+number[len(number)-3:], "DEU", balances)
}

func eur(amount int64) domain.Balance {
	return domain.Balance{CurrencyCode: "EUR", Amount: amount}
}
