package store

import (
	"database/sql"
	"fmt"

	"github.com/mghoffman/perkhive/internal/model"
	"github.com/mghoffman/perkhive/internal/tier"
)

type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

func scanEntry(scanner interface{ Scan(...any) error }) (*model.LedgerEntry, error) {
	var e model.LedgerEntry
	err := scanner.Scan(&e.ID, &e.AccountID, &e.AmountDelta, &e.Reason, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

const entryCols = `id, account_id, amount_delta, reason, created_at`

// applyDelta mutates the cached balance and appends the ledger entry inside
// the caller's transaction. The balance update is conditional on the result
// staying non-negative, so a debit racing another debit can never overdraw:
// whichever transaction commits second sees the already-reduced balance.
// On any error nothing is written (the caller rolls the transaction back).
func applyDelta(tx *sql.Tx, accountID int64, delta int, reason model.Reason) (*model.LedgerEntry, int, error) {
	if !reason.Valid() {
		return nil, 0, ErrInvalidReason
	}

	result, err := tx.Exec(
		`UPDATE accounts SET point_balance = point_balance + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND point_balance + ? >= 0`,
		delta, accountID, delta,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("update balance: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, 0, fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		var exists int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM accounts WHERE id = ?`, accountID).Scan(&exists); err != nil {
			return nil, 0, fmt.Errorf("check account: %w", err)
		}
		if exists == 0 {
			return nil, 0, ErrAccountNotFound
		}
		return nil, 0, ErrInsufficientBalance
	}

	res, err := tx.Exec(
		`INSERT INTO ledger_entries (account_id, amount_delta, reason) VALUES (?, ?, ?)`,
		accountID, delta, string(reason),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("insert ledger entry: %w", err)
	}
	entryID, err := res.LastInsertId()
	if err != nil {
		return nil, 0, fmt.Errorf("last insert id: %w", err)
	}

	row := tx.QueryRow(`SELECT `+entryCols+` FROM ledger_entries WHERE id = ?`, entryID)
	entry, err := scanEntry(row)
	if err != nil {
		return nil, 0, fmt.Errorf("read ledger entry: %w", err)
	}

	var balance int
	if err := tx.QueryRow(`SELECT point_balance FROM accounts WHERE id = ?`, accountID).Scan(&balance); err != nil {
		return nil, 0, fmt.Errorf("read balance: %w", err)
	}

	return entry, balance, nil
}

// ApplyDelta credits or debits an account and appends the matching ledger
// entry as one atomic unit. A debit that would push the balance negative
// fails with ErrInsufficientBalance and writes nothing.
func (s *LedgerStore) ApplyDelta(accountID int64, delta int, reason model.Reason) (*model.LedgerEntry, int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	entry, balance, err := applyDelta(tx, accountID, delta, reason)
	if err != nil {
		return nil, 0, err
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit: %w", err)
	}
	return entry, balance, nil
}

// Balance is the cached account balance plus its derived tier.
type Balance struct {
	AccountID int64     `json:"account_id"`
	Points    int       `json:"points"`
	Tier      tier.Tier `json:"tier"`
}

// GetBalance returns the cached balance and tier for an account. The tier is
// recomputed from the balance on every read.
func (s *LedgerStore) GetBalance(accountID int64) (*Balance, error) {
	var points int
	err := s.db.QueryRow(`SELECT point_balance FROM accounts WHERE id = ?`, accountID).Scan(&points)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return &Balance{AccountID: accountID, Points: points, Tier: tier.ForBalance(points)}, nil
}

// SumEntries derives the balance from the ledger history. It must always
// equal the cached balance, since every mutation path appends its entry in
// the same transaction as the balance update.
func (s *LedgerStore) SumEntries(accountID int64) (int, error) {
	var sum sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(amount_delta), 0) FROM ledger_entries WHERE account_id = ?`,
		accountID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum ledger entries: %w", err)
	}
	return int(sum.Int64), nil
}

// ListEntries returns an account's ledger history, newest first.
func (s *LedgerStore) ListEntries(accountID int64) ([]model.LedgerEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+entryCols+` FROM ledger_entries WHERE account_id = ? ORDER BY id DESC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
