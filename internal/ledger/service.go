package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// Service owns the two ledger operations: applying a transaction to an
// account and producing a statement.
type Service struct {
	store Store
}

// NewService builds a ledger service on top of the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// TransactionInput captures a validated-at-the-boundary transaction request.
type TransactionInput struct {
	AccountID   int64
	Amount      int64
	Kind        Kind
	Description string
}

// TransactionResult reports the account state after a committed transaction.
type TransactionResult struct {
	Limit   int64
	Balance int64
}

// Statement is a point-in-time snapshot of an account: current balance and
// limit plus the most recent transactions, newest first.
type Statement struct {
	Balance      int64
	Limit        int64
	GeneratedAt  time.Time
	Transactions []Transaction
}

func (in TransactionInput) validate() error {
	if in.Kind != KindCredit && in.Kind != KindDebit {
		return fmt.Errorf("%w: kind must be %q or %q", ErrInvalidInput, KindCredit, KindDebit)
	}
	if in.Amount <= 0 {
		return fmt.Errorf("%w: amount must be a positive integer", ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(in.Description); n < 1 || n > 10 {
		return fmt.Errorf("%w: description must be 1 to 10 characters", ErrInvalidInput)
	}
	return nil
}

// CreateTransaction applies a credit or debit to the account. The account
// row is locked exclusively before the balance is read and held until
// commit, so concurrent transactions on the same account serialize; a
// read-then-write without the lock would race under concurrent debits.
// Exactly one balance update and one record insert commit together, or
// nothing does.
func (s *Service) CreateTransaction(ctx context.Context, in TransactionInput) (TransactionResult, error) {
	if err := in.validate(); err != nil {
		return TransactionResult{}, err
	}

	uow, err := s.store.Begin(ctx)
	if err != nil {
		return TransactionResult{}, storageErr("begin", err)
	}
	defer uow.Rollback(ctx) // nolint:errcheck

	account, err := uow.LockAccountForUpdate(ctx, in.AccountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return TransactionResult{}, err
		}
		return TransactionResult{}, storageErr("lock account", err)
	}

	balance := account.Balance
	switch in.Kind {
	case KindDebit:
		provisional := balance - in.Amount
		if provisional < -account.Limit {
			return TransactionResult{}, ErrInsufficientFunds
		}
		balance = provisional
	case KindCredit:
		balance += in.Amount
	}

	if err := uow.UpdateAccountBalance(ctx, account.ID, balance); err != nil {
		return TransactionResult{}, storageErr("update balance", err)
	}
	if err := uow.InsertTransaction(ctx, Transaction{
		AccountID:   account.ID,
		Amount:      in.Amount,
		Kind:        in.Kind,
		Description: in.Description,
	}); err != nil {
		return TransactionResult{}, storageErr("insert transaction", err)
	}
	if err := uow.Commit(ctx); err != nil {
		return TransactionResult{}, storageErr("commit", err)
	}

	return TransactionResult{Limit: account.Limit, Balance: balance}, nil
}

// GetStatement returns the account balance, limit and its ten most recent
// transactions, newest first. The read does not block writers; the snapshot
// is best-effort with respect to transactions still in flight.
func (s *Service) GetStatement(ctx context.Context, accountID int64) (Statement, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Statement{}, err
		}
		return Statement{}, storageErr("read account", err)
	}

	txs, err := s.store.ListRecentTransactions(ctx, accountID, StatementLimit)
	if err != nil {
		return Statement{}, storageErr("list transactions", err)
	}

	return Statement{
		Balance:      account.Balance,
		Limit:        account.Limit,
		GeneratedAt:  time.Now().UTC(),
		Transactions: txs,
	}, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}
