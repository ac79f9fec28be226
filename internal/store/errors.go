package store

import "errors"

// Sentinel errors for expected, user-facing failures. Handlers map these to
// 4xx responses; anything else is treated as an internal error.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountSuspended    = errors.New("account suspended")
	ErrInsufficientBalance = errors.New("insufficient point balance")
	ErrInvalidReason       = errors.New("invalid ledger reason")

	ErrRewardNotFound = errors.New("reward not found")
	ErrRewardInactive = errors.New("reward inactive")

	ErrVoucherNotFound = errors.New("voucher not found")
	ErrVoucherUsed     = errors.New("voucher already used")
	ErrVoucherExpired  = errors.New("voucher expired")
	ErrWrongVenue      = errors.New("voucher not valid at this venue")

	ErrEventNotFound    = errors.New("event not found")
	ErrNotRegistered    = errors.New("account not registered for event")
	ErrAlreadyCheckedIn = errors.New("already checked in")
	ErrWrongMethod      = errors.New("check-in method not allowed for event")
	ErrInvalidCode      = errors.New("invalid check-in code")
	ErrTooFar           = errors.New("too far from venue")
	ErrEventNotStarted  = errors.New("event has not started")
	ErrEventEnded       = errors.New("event has ended")

	ErrCaseNotFound      = errors.New("moderation case not found")
	ErrInvalidTransition = errors.New("invalid case transition")
)
