package ledger

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func newTestService(accounts ...Account) (*Service, Store) {
	store := NewMemoryStore(accounts...)
	return NewService(store), store
}

func TestCreateTransactionValidation(t *testing.T) {
	svc, _ := newTestService(Account{ID: 1, Limit: 1000})
	ctx := context.Background()

	cases := []struct {
		name  string
		input TransactionInput
	}{
		{"unknown kind", TransactionInput{AccountID: 1, Amount: 10, Kind: "x", Description: "coffee"}},
		{"empty kind", TransactionInput{AccountID: 1, Amount: 10, Kind: "", Description: "coffee"}},
		{"zero amount", TransactionInput{AccountID: 1, Amount: 0, Kind: KindCredit, Description: "coffee"}},
		{"negative amount", TransactionInput{AccountID: 1, Amount: -5, Kind: KindDebit, Description: "coffee"}},
		{"empty description", TransactionInput{AccountID: 1, Amount: 10, Kind: KindCredit, Description: ""}},
		{"oversized description", TransactionInput{AccountID: 1, Amount: 10, Kind: KindCredit, Description: "abcdefghijk"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateTransaction(ctx, tc.input); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	// Validation fails before any storage access, so nothing was written.
	st, err := svc.GetStatement(ctx, 1)
	if err != nil {
		t.Fatalf("statement: %v", err)
	}
	if len(st.Transactions) != 0 {
		t.Fatalf("expected no transactions after rejected inputs, got %d", len(st.Transactions))
	}
}

func TestCreateTransactionCreditAndDebit(t *testing.T) {
	svc, _ := newTestService(Account{ID: 1, Limit: 1000})
	ctx := context.Background()

	res, err := svc.CreateTransaction(ctx, TransactionInput{AccountID: 1, Amount: 500, Kind: KindCredit, Description: "salary"})
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if res.Balance != 500 || res.Limit != 1000 {
		t.Fatalf("expected balance 500 limit 1000, got %d/%d", res.Balance, res.Limit)
	}

	// Debit down to the exact floor is allowed.
	res, err = svc.CreateTransaction(ctx, TransactionInput{AccountID: 1, Amount: 1500, Kind: KindDebit, Description: "rent"})
	if err != nil {
		t.Fatalf("debit to floor: %v", err)
	}
	if res.Balance != -1000 {
		t.Fatalf("expected balance -1000, got %d", res.Balance)
	}

	if _, err := svc.CreateTransaction(ctx, TransactionInput{AccountID: 1, Amount: 1, Kind: KindDebit, Description: "tea"}); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	st, err := svc.GetStatement(ctx, 1)
	if err != nil {
		t.Fatalf("statement: %v", err)
	}
	if st.Balance != -1000 {
		t.Fatalf("rejected debit changed the balance: %d", st.Balance)
	}
	if len(st.Transactions) != 2 {
		t.Fatalf("expected 2 committed transactions, got %d", len(st.Transactions))
	}
}

func TestCreateTransactionUnknownAccount(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateTransaction(ctx, TransactionInput{AccountID: 42, Amount: 10, Kind: KindCredit, Description: "topup"}); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if _, err := svc.GetStatement(ctx, 42); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound from statement, got %v", err)
	}
}

func TestConcurrentDebitsRespectFloor(t *testing.T) {
	svc, _ := newTestService(Account{ID: 1, Limit: 0, Balance: 100})
	ctx := context.Background()

	const workers = 50
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateTransaction(ctx, TransactionInput{AccountID: 1, Amount: 10, Kind: KindDebit, Description: "debit"})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInsufficientFunds):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if succeeded != 10 {
		t.Fatalf("expected exactly 10 successful debits, got %d", succeeded)
	}
	if rejected != workers-10 {
		t.Fatalf("expected %d rejected debits, got %d", workers-10, rejected)
	}

	st, err := svc.GetStatement(ctx, 1)
	if err != nil {
		t.Fatalf("statement: %v", err)
	}
	if st.Balance != 0 {
		t.Fatalf("expected final balance 0, got %d", st.Balance)
	}
}

func TestStatementOrderingNewestFirst(t *testing.T) {
	svc, _ := newTestService(Account{ID: 1, Limit: 0})
	ctx := context.Background()

	for i := 1; i <= 15; i++ {
		if _, err := svc.CreateTransaction(ctx, TransactionInput{AccountID: 1, Amount: int64(i), Kind: KindCredit, Description: fmt.Sprintf("tx-%d", i)}); err != nil {
			t.Fatalf("transaction %d: %v", i, err)
		}
	}

	st, err := svc.GetStatement(ctx, 1)
	if err != nil {
		t.Fatalf("statement: %v", err)
	}
	if len(st.Transactions) != StatementLimit {
		t.Fatalf("expected %d transactions, got %d", StatementLimit, len(st.Transactions))
	}
	for i, tx := range st.Transactions {
		want := int64(15 - i)
		if tx.Amount != want {
			t.Fatalf("position %d: expected amount %d, got %d", i, want, tx.Amount)
		}
	}
}

func TestStatementReadIsIdempotent(t *testing.T) {
	svc, _ := newTestService(Account{ID: 1, Limit: 500})
	ctx := context.Background()

	for _, amount := range []int64{100, 250, 75} {
		if _, err := svc.CreateTransaction(ctx, TransactionInput{AccountID: 1, Amount: amount, Kind: KindCredit, Description: "deposit"}); err != nil {
			t.Fatalf("transaction: %v", err)
		}
	}

	first, err := svc.GetStatement(ctx, 1)
	if err != nil {
		t.Fatalf("first statement: %v", err)
	}
	second, err := svc.GetStatement(ctx, 1)
	if err != nil {
		t.Fatalf("second statement: %v", err)
	}

	if first.Balance != second.Balance || first.Limit != second.Limit {
		t.Fatalf("statements disagree: %+v vs %+v", first, second)
	}
	if !reflect.DeepEqual(first.Transactions, second.Transactions) {
		t.Fatalf("transaction lists differ between reads")
	}
}

func TestCommitFaultLeavesNoPartialState(t *testing.T) {
	svc, store := newTestService(Account{ID: 1, Limit: 0, Balance: 100})
	ctx := context.Background()

	FailCommits(store, 1)
	if _, err := svc.CreateTransaction(ctx, TransactionInput{AccountID: 1, Amount: 40, Kind: KindDebit, Description: "debit"}); !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}

	st, err := svc.GetStatement(ctx, 1)
	if err != nil {
		t.Fatalf("statement: %v", err)
	}
	if st.Balance != 100 {
		t.Fatalf("failed commit mutated the balance: %d", st.Balance)
	}
	if len(st.Transactions) != 0 {
		t.Fatalf("failed commit left %d transaction records", len(st.Transactions))
	}

	// The store stays usable once the fault clears.
	res, err := svc.CreateTransaction(ctx, TransactionInput{AccountID: 1, Amount: 40, Kind: KindDebit, Description: "debit"})
	if err != nil {
		t.Fatalf("retry after fault: %v", err)
	}
	if res.Balance != 60 {
		t.Fatalf("expected balance 60 after retry, got %d", res.Balance)
	}
}

func TestAccountsDoNotContend(t *testing.T) {
	svc, _ := newTestService(
		Account{ID: 1, Limit: 0, Balance: 1000},
		Account{ID: 2, Limit: 500},
	)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			if _, err := svc.CreateTransaction(ctx, TransactionInput{AccountID: 1, Amount: 10, Kind: KindDebit, Description: "debit"}); err != nil {
				t.Errorf("account 1 debit %d: %v", i, err)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			if _, err := svc.CreateTransaction(ctx, TransactionInput{AccountID: 2, Amount: 5, Kind: KindCredit, Description: "credit"}); err != nil {
				t.Errorf("account 2 credit %d: %v", i, err)
			}
		}
	}()
	wg.Wait()

	// Each account's final balance matches its own sequential result.
	st1, err := svc.GetStatement(ctx, 1)
	if err != nil {
		t.Fatalf("statement 1: %v", err)
	}
	if st1.Balance != 800 {
		t.Fatalf("account 1: expected balance 800, got %d", st1.Balance)
	}
	st2, err := svc.GetStatement(ctx, 2)
	if err != nil {
		t.Fatalf("statement 2: %v", err)
	}
	if st2.Balance != 100 {
		t.Fatalf("account 2: expected balance 100, got %d", st2.Balance)
	}
}
