package model

import "time"

type Reward struct {
	ID          int64     `json:"id"`
	VenueID     int64     `json:"venue_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CostPoints  int       `json:"cost_points"`
	Active      bool      `json:"active"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
