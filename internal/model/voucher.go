package model

import "time"

// Voucher is a single-use proof of a redeemed reward. It is created in the
// same transaction as the redemption debit and consumed at most once.
type Voucher struct {
	ID                int64      `json:"id"`
	AccountID         int64      `json:"account_id"`
	RewardID          int64      `json:"reward_id"`
	Code              string     `json:"code"`
	IssuedAt          time.Time  `json:"issued_at"`
	ExpiresAt         time.Time  `json:"expires_at"`
	Consumed          bool       `json:"consumed"`
	ConsumedAt        *time.Time `json:"consumed_at,omitempty"`
	ConsumedAtVenueID *int64     `json:"consumed_at_venue_id,omitempty"`
}

// Expired reports whether the voucher has passed its expiry. Expiry is
// derived from ExpiresAt, never written back to the row.
func (v *Voucher) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}
