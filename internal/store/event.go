package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mghoffman/perkhive/internal/model"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

func scanEvent(scanner interface{ Scan(...any) error }) (*model.Event, error) {
	var e model.Event
	var requiresRSVP int

	err := scanner.Scan(
		&e.ID, &e.VenueID, &e.Title, &e.StartTime, &e.EndTime, &e.CheckInMethod,
		&e.Lat, &e.Lng, &e.QRToken, &e.PointsReward, &requiresRSVP, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.RequiresRSVP = requiresRSVP != 0
	return &e, nil
}

const eventCols = `id, venue_id, title, start_time, end_time, check_in_method, lat, lng, qr_token, points_reward, requires_rsvp, created_at`

func (s *EventStore) Create(venueID int64, title string, start, end time.Time, method model.CheckinMethod, lat, lng float64, qrToken string, pointsReward int, requiresRSVP bool) (*model.Event, error) {
	var rsvp int
	if requiresRSVP {
		rsvp = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO events (venue_id, title, start_time, end_time, check_in_method, lat, lng, qr_token, points_reward, requires_rsvp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		venueID, title, start.UTC(), end.UTC(), string(method), lat, lng, qrToken, pointsReward, rsvp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *EventStore) GetByID(id int64) (*model.Event, error) {
	row := s.db.QueryRow(`SELECT `+eventCols+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// ListUpcoming returns events that have not yet ended, soonest first.
func (s *EventStore) ListUpcoming(now time.Time) ([]model.Event, error) {
	rows, err := s.db.Query(`SELECT ` + eventCols + ` FROM events ORDER BY start_time ASC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if now.After(e.EndTime) {
			continue
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (s *EventStore) ListByVenue(venueID int64) ([]model.Event, error) {
	rows, err := s.db.Query(
		`SELECT `+eventCols+` FROM events WHERE venue_id = ? ORDER BY start_time ASC`,
		venueID,
	)
	if err != nil {
		return nil, fmt.Errorf("list venue events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// RSVP registers an account for an event. Registering twice is a no-op.
func (s *EventStore) RSVP(eventID, accountID int64) error {
	event, err := s.GetByID(eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return ErrEventNotFound
	}

	_, err = s.db.Exec(
		`INSERT OR IGNORE INTO event_rsvps (event_id, account_id) VALUES (?, ?)`,
		eventID, accountID,
	)
	if err != nil {
		return fmt.Errorf("insert rsvp: %w", err)
	}
	return nil
}

func (s *EventStore) HasRSVP(eventID, accountID int64) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM event_rsvps WHERE event_id = ? AND account_id = ?`,
		eventID, accountID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check rsvp: %w", err)
	}
	return count > 0, nil
}
