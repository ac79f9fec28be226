package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mghoffman/perkhive/internal/geo"
	"github.com/mghoffman/perkhive/internal/model"
)

type CheckinStore struct {
	db *sql.DB
}

func NewCheckinStore(db *sql.DB) *CheckinStore {
	return &CheckinStore{db: db}
}

// CheckinPayload carries the proof presented by the client: a scanned QR
// token or a GPS position, depending on the method.
type CheckinPayload struct {
	Token string  `json:"token"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

func scanCheckin(scanner interface{ Scan(...any) error }) (*model.CheckinRecord, error) {
	var c model.CheckinRecord
	err := scanner.Scan(&c.ID, &c.AccountID, &c.EventID, &c.Method, &c.VerifiedAt, &c.PointsAwarded)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const checkinCols = `id, account_id, event_id, method, verified_at, points_awarded`

// CheckIn verifies presence at an event and credits the event's points, all
// in one transaction. The unique (account_id, event_id) index is the gate
// against double check-in: even if two requests pass every validation
// concurrently, only one insert succeeds and only one credit is written.
func (s *CheckinStore) CheckIn(accountID, eventID int64, method model.CheckinMethod, payload CheckinPayload, radiusMeters float64) (*model.CheckinRecord, error) {
	if method != model.MethodGPS && method != model.MethodQR {
		return nil, ErrWrongMethod
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+eventCols+` FROM events WHERE id = ?`, eventID)
	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}

	if event.RequiresRSVP {
		var count int
		err := tx.QueryRow(
			`SELECT COUNT(*) FROM event_rsvps WHERE event_id = ? AND account_id = ?`,
			eventID, accountID,
		).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("check rsvp: %w", err)
		}
		if count == 0 {
			return nil, ErrNotRegistered
		}
	}

	var existing int
	err = tx.QueryRow(
		`SELECT COUNT(*) FROM checkins WHERE account_id = ? AND event_id = ?`,
		accountID, eventID,
	).Scan(&existing)
	if err != nil {
		return nil, fmt.Errorf("check existing checkin: %w", err)
	}
	if existing > 0 {
		return nil, ErrAlreadyCheckedIn
	}

	if !event.AllowsMethod(method) {
		return nil, ErrWrongMethod
	}

	switch method {
	case model.MethodQR:
		if payload.Token != event.QRToken {
			return nil, ErrInvalidCode
		}
	case model.MethodGPS:
		if geo.DistanceMeters(payload.Lat, payload.Lng, event.Lat, event.Lng) > radiusMeters {
			return nil, ErrTooFar
		}
	}

	now := time.Now().UTC()
	if now.Before(event.StartTime) {
		return nil, ErrEventNotStarted
	}
	if now.After(event.EndTime) {
		return nil, ErrEventEnded
	}

	result, err := tx.Exec(
		`INSERT INTO checkins (account_id, event_id, method, verified_at, points_awarded) VALUES (?, ?, ?, ?, ?)`,
		accountID, eventID, string(method), now, event.PointsReward,
	)
	if err != nil {
		// The unique index catches the race the pre-check cannot.
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, fmt.Errorf("insert checkin: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, _, err := applyDelta(tx, accountID, event.PointsReward, model.ReasonCheckin); err != nil {
		return nil, err
	}

	row = tx.QueryRow(`SELECT `+checkinCols+` FROM checkins WHERE id = ?`, id)
	record, err := scanCheckin(row)
	if err != nil {
		return nil, fmt.Errorf("read checkin: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return record, nil
}

func (s *CheckinStore) ListByAccount(accountID int64) ([]model.CheckinRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+checkinCols+` FROM checkins WHERE account_id = ? ORDER BY verified_at DESC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list checkins: %w", err)
	}
	defer rows.Close()

	var records []model.CheckinRecord
	for rows.Next() {
		c, err := scanCheckin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checkin: %w", err)
		}
		records = append(records, *c)
	}
	return records, rows.Err()
}

// CountForEvent returns how many accounts have checked in to an event.
func (s *CheckinStore) CountForEvent(eventID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM checkins WHERE event_id = ?`, eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count checkins: %w", err)
	}
	return count, nil
}
