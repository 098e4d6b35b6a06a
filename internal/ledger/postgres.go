package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists accounts and transactions in PostgreSQL, relying on
// row-level FOR UPDATE locks and transactional commit for atomicity.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id BIGINT PRIMARY KEY,
    credit_limit BIGINT NOT NULL CHECK (credit_limit >= 0),
    balance BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    account_id BIGINT NOT NULL REFERENCES accounts (id),
    amount BIGINT NOT NULL,
    kind TEXT NOT NULL,
    description TEXT NOT NULL,
    occurred_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_account_occurred
    ON transactions (account_id, occurred_at DESC);
`

// Bootstrap creates the schema and seeds the initial accounts. Seeding is
// idempotent: accounts that already exist keep their balance.
func (s *PostgresStore) Bootstrap(ctx context.Context, seeds []Account) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	for _, a := range seeds {
		_, err := s.db.Exec(ctx, `INSERT INTO accounts (id, credit_limit, balance) VALUES ($1, $2, $3)
            ON CONFLICT (id) DO NOTHING`, a.ID, a.Limit, a.Balance)
		if err != nil {
			return fmt.Errorf("seed account %d: %w", a.ID, err)
		}
	}
	return nil
}

// Begin opens a database transaction as the unit of work.
func (s *PostgresStore) Begin(ctx context.Context) (UnitOfWork, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &pgxUnitOfWork{tx: tx}, nil
}

// GetAccount reads an account without locking it.
func (s *PostgresStore) GetAccount(ctx context.Context, id int64) (Account, error) {
	row := s.db.QueryRow(ctx, `SELECT id, credit_limit, balance FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// ListRecentTransactions returns up to limit transactions for the account,
// newest first. The synthetic id breaks ties between equal timestamps.
func (s *PostgresStore) ListRecentTransactions(ctx context.Context, accountID int64, limit int) ([]Transaction, error) {
	rows, err := s.db.Query(ctx, `SELECT id, account_id, amount, kind, description, occurred_at
        FROM transactions WHERE account_id = $1
        ORDER BY occurred_at DESC, id DESC LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		var kind string
		var occurredAt time.Time
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Amount, &kind, &t.Description, &occurredAt); err != nil {
			return nil, err
		}
		t.Kind = Kind(kind)
		t.OccurredAt = occurredAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

type pgxUnitOfWork struct {
	tx pgx.Tx
}

func (u *pgxUnitOfWork) LockAccountForUpdate(ctx context.Context, id int64) (Account, error) {
	row := u.tx.QueryRow(ctx, `SELECT id, credit_limit, balance FROM accounts WHERE id = $1 FOR UPDATE`, id)
	return scanAccount(row)
}

func (u *pgxUnitOfWork) UpdateAccountBalance(ctx context.Context, id int64, balance int64) error {
	tag, err := u.tx.Exec(ctx, `UPDATE accounts SET balance = $2 WHERE id = $1`, id, balance)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// InsertTransaction stamps the record with clock_timestamp() so every insert
// gets its own clock reading rather than the transaction start time.
func (u *pgxUnitOfWork) InsertTransaction(ctx context.Context, t Transaction) error {
	_, err := u.tx.Exec(ctx, `INSERT INTO transactions (account_id, amount, kind, description, occurred_at)
        VALUES ($1, $2, $3, $4, clock_timestamp())`, t.AccountID, t.Amount, string(t.Kind), t.Description)
	return err
}

func (u *pgxUnitOfWork) Commit(ctx context.Context) error {
	return u.tx.Commit(ctx)
}

func (u *pgxUnitOfWork) Rollback(ctx context.Context) error {
	err := u.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	if err := row.Scan(&a.ID, &a.Limit, &a.Balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}
