package model

import "time"

// Reason identifies why points were credited or debited. Every ledger entry
// carries one; balances are only ever changed by appending entries.
type Reason string

const (
	ReasonPost             Reason = "post"
	ReasonLike             Reason = "like"
	ReasonComment          Reason = "comment"
	ReasonSurvey           Reason = "survey"
	ReasonDailyTask        Reason = "daily-task"
	ReasonCheckin          Reason = "check-in"
	ReasonRedemptionDebit  Reason = "redemption-debit"
	ReasonRedemptionRefund Reason = "redemption-refund"
	ReasonCashoutDebit     Reason = "cashout-debit"
	ReasonAdminAdjustment  Reason = "admin-adjustment"
)

var validReasons = map[Reason]bool{
	ReasonPost:             true,
	ReasonLike:             true,
	ReasonComment:          true,
	ReasonSurvey:           true,
	ReasonDailyTask:        true,
	ReasonCheckin:          true,
	ReasonRedemptionDebit:  true,
	ReasonRedemptionRefund: true,
	ReasonCashoutDebit:     true,
	ReasonAdminAdjustment:  true,
}

func (r Reason) Valid() bool {
	return validReasons[r]
}

// LedgerEntry is an immutable point delta. Entries are never updated or
// deleted; the account balance is the running sum of its entries.
type LedgerEntry struct {
	ID          int64     `json:"id"`
	AccountID   int64     `json:"account_id"`
	AmountDelta int       `json:"amount_delta"`
	Reason      Reason    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}
