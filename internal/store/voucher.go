package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/mghoffman/perkhive/internal/model"
)

type VoucherStore struct {
	db *sql.DB
}

func NewVoucherStore(db *sql.DB) *VoucherStore {
	return &VoucherStore{db: db}
}

func scanVoucher(scanner interface{ Scan(...any) error }) (*model.Voucher, error) {
	var v model.Voucher
	var consumed int
	var consumedAt sql.NullTime
	var consumedVenue sql.NullInt64

	err := scanner.Scan(
		&v.ID, &v.AccountID, &v.RewardID, &v.Code, &v.IssuedAt, &v.ExpiresAt,
		&consumed, &consumedAt, &consumedVenue,
	)
	if err != nil {
		return nil, err
	}

	v.Consumed = consumed != 0
	if consumedAt.Valid {
		v.ConsumedAt = &consumedAt.Time
	}
	if consumedVenue.Valid {
		v.ConsumedAtVenueID = &consumedVenue.Int64
	}
	return &v, nil
}

const voucherCols = `id, account_id, reward_id, code, issued_at, expires_at, consumed, consumed_at, consumed_at_venue_id`

// generateCode returns a 128-bit crypto-random hex voucher code. Codes must
// not be guessable or enumerable by a venue-side attacker.
func generateCode() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Redeem debits the reward's cost from the account and issues a voucher, as
// one transaction. If any step fails the debit is rolled back with the rest;
// points can never be lost to a half-finished redemption.
func (s *VoucherStore) Redeem(accountID, rewardID int64, ttl time.Duration) (*model.Voucher, error) {
	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	return s.redeemWithCode(accountID, rewardID, ttl, code)
}

func (s *VoucherStore) redeemWithCode(accountID, rewardID int64, ttl time.Duration, code string) (*model.Voucher, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var costPoints, active int
	err = tx.QueryRow(`SELECT cost_points, active FROM rewards WHERE id = ?`, rewardID).Scan(&costPoints, &active)
	if err == sql.ErrNoRows {
		return nil, ErrRewardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	if active == 0 {
		return nil, ErrRewardInactive
	}

	if _, _, err := applyDelta(tx, accountID, -costPoints, model.ReasonRedemptionDebit); err != nil {
		return nil, err
	}

	expiresAt := time.Now().UTC().Add(ttl)
	result, err := tx.Exec(
		`INSERT INTO vouchers (account_id, reward_id, code, expires_at) VALUES (?, ?, ?, ?)`,
		accountID, rewardID, code, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert voucher: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := tx.QueryRow(`SELECT `+voucherCols+` FROM vouchers WHERE id = ?`, id)
	voucher, err := scanVoucher(row)
	if err != nil {
		return nil, fmt.Errorf("read voucher: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return voucher, nil
}

// Validate checks a presented code for the given venue and, when valid,
// consumes it in the same call. The consume is a conditional update on
// consumed = 0, so of two racing validations exactly one wins; the loser
// gets ErrVoucherUsed.
func (s *VoucherStore) Validate(code string, venueID int64) (*model.Voucher, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var rewardVenueID int64
	row := tx.QueryRow(
		`SELECT v.id, v.account_id, v.reward_id, v.code, v.issued_at, v.expires_at,
		        v.consumed, v.consumed_at, v.consumed_at_venue_id, r.venue_id
		 FROM vouchers v JOIN rewards r ON r.id = v.reward_id
		 WHERE v.code = ?`,
		code,
	)
	voucher, err := scanVoucherWithVenue(row, &rewardVenueID)
	if err == sql.ErrNoRows {
		return nil, ErrVoucherNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get voucher: %w", err)
	}

	now := time.Now().UTC()
	switch {
	case voucher.Consumed:
		return nil, ErrVoucherUsed
	case voucher.Expired(now):
		return nil, ErrVoucherExpired
	case rewardVenueID != venueID:
		return nil, ErrWrongVenue
	}

	result, err := tx.Exec(
		`UPDATE vouchers SET consumed = 1, consumed_at = ?, consumed_at_venue_id = ? WHERE id = ? AND consumed = 0`,
		now, venueID, voucher.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("consume voucher: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return nil, ErrVoucherUsed
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	voucher.Consumed = true
	voucher.ConsumedAt = &now
	voucher.ConsumedAtVenueID = &venueID
	return voucher, nil
}

// Refund cancels one of the owner's unconsumed vouchers and returns the
// reward's cost to their balance, as one transaction. The cancel is the same
// conditional update Validate uses, so a refund racing a venue validation
// resolves with exactly one winner. Expired vouchers are not refundable.
func (s *VoucherStore) Refund(voucherID, accountID int64) (*model.Voucher, int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var costPoints int64
	row := tx.QueryRow(
		`SELECT v.id, v.account_id, v.reward_id, v.code, v.issued_at, v.expires_at,
		        v.consumed, v.consumed_at, v.consumed_at_venue_id, r.cost_points
		 FROM vouchers v JOIN rewards r ON r.id = v.reward_id
		 WHERE v.id = ?`,
		voucherID,
	)
	voucher, err := scanVoucherWithVenue(row, &costPoints)
	if err == sql.ErrNoRows {
		return nil, 0, ErrVoucherNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get voucher: %w", err)
	}

	// Not the caller's voucher reads the same as no voucher at all
	if voucher.AccountID != accountID {
		return nil, 0, ErrVoucherNotFound
	}

	now := time.Now().UTC()
	switch {
	case voucher.Consumed:
		return nil, 0, ErrVoucherUsed
	case voucher.Expired(now):
		return nil, 0, ErrVoucherExpired
	}

	result, err := tx.Exec(
		`UPDATE vouchers SET consumed = 1, consumed_at = ? WHERE id = ? AND consumed = 0`,
		now, voucher.ID,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("cancel voucher: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, 0, fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return nil, 0, ErrVoucherUsed
	}

	_, balance, err := applyDelta(tx, accountID, int(costPoints), model.ReasonRedemptionRefund)
	if err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit: %w", err)
	}

	voucher.Consumed = true
	voucher.ConsumedAt = &now
	return voucher, balance, nil
}

// scanVoucherWithVenue scans a voucher row joined with one extra integer
// column from rewards (venue_id for Validate, cost_points for Refund).
func scanVoucherWithVenue(scanner interface{ Scan(...any) error }, extra *int64) (*model.Voucher, error) {
	var v model.Voucher
	var consumed int
	var consumedAt sql.NullTime
	var consumedVenue sql.NullInt64

	err := scanner.Scan(
		&v.ID, &v.AccountID, &v.RewardID, &v.Code, &v.IssuedAt, &v.ExpiresAt,
		&consumed, &consumedAt, &consumedVenue, extra,
	)
	if err != nil {
		return nil, err
	}

	v.Consumed = consumed != 0
	if consumedAt.Valid {
		v.ConsumedAt = &consumedAt.Time
	}
	if consumedVenue.Valid {
		v.ConsumedAtVenueID = &consumedVenue.Int64
	}
	return &v, nil
}

func (s *VoucherStore) GetByCode(code string) (*model.Voucher, error) {
	row := s.db.QueryRow(`SELECT `+voucherCols+` FROM vouchers WHERE code = ?`, code)
	v, err := scanVoucher(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get voucher by code: %w", err)
	}
	return v, nil
}

func (s *VoucherStore) ListByAccount(accountID int64) ([]model.Voucher, error) {
	rows, err := s.db.Query(
		`SELECT `+voucherCols+` FROM vouchers WHERE account_id = ? ORDER BY issued_at DESC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list vouchers: %w", err)
	}
	defer rows.Close()

	var vouchers []model.Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, fmt.Errorf("scan voucher: %w", err)
		}
		vouchers = append(vouchers, *v)
	}
	return vouchers, rows.Err()
}
