package model

import "time"

// CheckinMethod is how presence at an event is proven.
type CheckinMethod string

const (
	MethodGPS    CheckinMethod = "gps"
	MethodQR     CheckinMethod = "qr"
	MethodEither CheckinMethod = "either"
)

type Event struct {
	ID            int64         `json:"id"`
	VenueID       int64         `json:"venue_id"`
	Title         string        `json:"title"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	CheckInMethod CheckinMethod `json:"check_in_method"`
	Lat           float64       `json:"lat"`
	Lng           float64       `json:"lng"`
	QRToken       string        `json:"-"`
	PointsReward  int           `json:"points_reward"`
	RequiresRSVP  bool          `json:"requires_rsvp"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Active reports whether now falls inside the event's check-in window.
func (e *Event) Active(now time.Time) bool {
	return !now.Before(e.StartTime) && !now.After(e.EndTime)
}

// AllowsMethod reports whether the event accepts the given check-in method.
func (e *Event) AllowsMethod(m CheckinMethod) bool {
	return e.CheckInMethod == MethodEither || e.CheckInMethod == m
}

type EventRSVP struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"event_id"`
	AccountID int64     `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
}
