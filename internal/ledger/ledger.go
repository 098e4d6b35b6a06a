package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidInput indicates a request failed validation before any
	// storage access was attempted.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAccountNotFound indicates the referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientFunds occurs when a debit would push the balance below
	// the account's credit floor.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrStorage wraps lock, write or commit failures from the backing
	// store. The unit of work is rolled back before the error is returned,
	// so no partial writes are ever visible.
	ErrStorage = errors.New("storage failure")
)

// Kind is the direction of a transaction.
type Kind string

const (
	// KindCredit increases the account balance.
	KindCredit Kind = "credit"
	// KindDebit decreases the account balance, bounded by the credit floor.
	KindDebit Kind = "debit"
)

// StatementLimit is the number of recent transactions a statement carries.
const StatementLimit = 10

// Account holds a credit limit and the running balance. The invariant
// balance >= -limit holds after every committed transaction.
type Account struct {
	ID      int64
	Limit   int64
	Balance int64
}

// Transaction is one committed ledger movement. Records are append-only and
// immutable once written. OccurredAt is assigned by the store at insert
// time, never by the caller.
type Transaction struct {
	ID          int64
	AccountID   int64
	Amount      int64
	Kind        Kind
	Description string
	OccurredAt  time.Time
}

// Store defines the contract implemented by ledger backends (e.g. Postgres).
// GetAccount and ListRecentTransactions read without blocking writers.
type Store interface {
	Begin(ctx context.Context) (UnitOfWork, error)
	GetAccount(ctx context.Context, id int64) (Account, error)
	ListRecentTransactions(ctx context.Context, accountID int64, limit int) ([]Transaction, error)
}

// UnitOfWork groups the writes of one transaction so they commit or roll
// back atomically. LockAccountForUpdate blocks until the exclusive row lock
// is acquired; the lock is held until Commit or Rollback. Rollback after the
// unit of work has finished is a no-op, so callers may defer it.
type UnitOfWork interface {
	LockAccountForUpdate(ctx context.Context, id int64) (Account, error)
	UpdateAccountBalance(ctx context.Context, id int64, balance int64) error
	InsertTransaction(ctx context.Context, t Transaction) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DefaultSeedAccounts returns the account set provisioned at bootstrap.
// Accounts are seeded, never created through the API.
func DefaultSeedAccounts() []Account {
	return []Account{
		{ID: 1, Limit: 100_000},
		{ID: 2, Limit: 80_000},
		{ID: 3, Limit: 1_000_000},
		{ID: 4, Limit: 10_000_000},
		{ID: 5, Limit: 500_000},
	}
}
