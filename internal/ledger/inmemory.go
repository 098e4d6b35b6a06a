package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryStore struct {
	mu       sync.RWMutex
	accounts map[int64]*memoryAccount
	nextTxID int64

	// commitFaults > 0 makes the next commits fail after staging. Set via
	// the FailCommits test helper.
	commitFaults int
}

type memoryAccount struct {
	// row is the exclusive per-account lock. A unit of work acquires it in
	// LockAccountForUpdate and holds it until Commit or Rollback.
	row     sync.Mutex
	account Account
	history []Transaction // commit order, newest last
}

// NewMemoryStore creates a concurrency-safe in-memory store implementing the
// same locking contract as PostgresStore. Used as the dev fallback and in
// unit tests.
func NewMemoryStore(seeds ...Account) Store {
	m := &memoryStore{accounts: make(map[int64]*memoryAccount)}
	for _, a := range seeds {
		m.accounts[a.ID] = &memoryAccount{account: a}
	}
	return m
}

func (m *memoryStore) Begin(_ context.Context) (UnitOfWork, error) {
	return &memoryUnitOfWork{store: m}, nil
}

func (m *memoryStore) GetAccount(_ context.Context, id int64) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acct, ok := m.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return acct.account, nil
}

func (m *memoryStore) ListRecentTransactions(_ context.Context, accountID int64, limit int) ([]Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acct, ok := m.accounts[accountID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	n := limit
	if n > len(acct.history) {
		n = len(acct.history)
	}
	out := make([]Transaction, 0, n)
	for i := len(acct.history) - 1; i >= len(acct.history)-n; i-- {
		out = append(out, acct.history[i])
	}
	return out, nil
}

type memoryUnitOfWork struct {
	store   *memoryStore
	locked  *memoryAccount
	balance *int64
	inserts []Transaction
	done    bool
}

func (u *memoryUnitOfWork) LockAccountForUpdate(_ context.Context, id int64) (Account, error) {
	u.store.mu.RLock()
	acct, ok := u.store.accounts[id]
	u.store.mu.RUnlock()
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	// Blocks until any competing unit of work on this account finishes.
	acct.row.Lock()
	u.locked = acct
	return acct.account, nil
}

func (u *memoryUnitOfWork) UpdateAccountBalance(_ context.Context, id int64, balance int64) error {
	if u.locked == nil || u.locked.account.ID != id {
		return fmt.Errorf("account %d is not locked by this unit of work", id)
	}
	u.balance = &balance
	return nil
}

func (u *memoryUnitOfWork) InsertTransaction(_ context.Context, t Transaction) error {
	if u.done {
		return fmt.Errorf("unit of work already finished")
	}
	u.inserts = append(u.inserts, t)
	return nil
}

// Commit applies the staged balance update and record inserts in one step
// under the store lock, stamping each record with the commit-time clock.
func (u *memoryUnitOfWork) Commit(_ context.Context) error {
	if u.done {
		return fmt.Errorf("unit of work already finished")
	}
	u.done = true
	defer u.release()

	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	if u.store.commitFaults > 0 {
		u.store.commitFaults--
		return fmt.Errorf("injected commit fault")
	}

	if u.balance != nil {
		u.locked.account.Balance = *u.balance
	}
	now := time.Now().UTC()
	for _, t := range u.inserts {
		u.store.nextTxID++
		t.ID = u.store.nextTxID
		t.OccurredAt = now
		if acct, ok := u.store.accounts[t.AccountID]; ok {
			acct.history = append(acct.history, t)
		}
	}
	return nil
}

func (u *memoryUnitOfWork) Rollback(_ context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	u.release()
	return nil
}

func (u *memoryUnitOfWork) release() {
	if u.locked != nil {
		u.locked.row.Unlock()
		u.locked = nil
	}
	u.balance = nil
	u.inserts = nil
}
