package model

import "time"

// CheckinRecord proves an account's presence at an event. At most one exists
// per (account, event) pair; the uniqueness gate is what makes check-in
// point credits single-shot.
type CheckinRecord struct {
	ID            int64         `json:"id"`
	AccountID     int64         `json:"account_id"`
	EventID       int64         `json:"event_id"`
	Method        CheckinMethod `json:"method"`
	VerifiedAt    time.Time     `json:"verified_at"`
	PointsAwarded int           `json:"points_awarded"`
}
