package store

import (
	"database/sql"
	"fmt"

	"github.com/mghoffman/perkhive/internal/model"
)

type VenueStore struct {
	db *sql.DB
}

func NewVenueStore(db *sql.DB) *VenueStore {
	return &VenueStore{db: db}
}

func scanVenue(scanner interface{ Scan(...any) error }) (*model.Venue, error) {
	var v model.Venue
	err := scanner.Scan(&v.ID, &v.Name, &v.Lat, &v.Lng, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

const venueCols = `id, name, lat, lng, created_at`

func (s *VenueStore) Create(name string, lat, lng float64) (*model.Venue, error) {
	result, err := s.db.Exec(
		`INSERT INTO venues (name, lat, lng) VALUES (?, ?, ?)`,
		name, lat, lng,
	)
	if err != nil {
		return nil, fmt.Errorf("insert venue: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *VenueStore) GetByID(id int64) (*model.Venue, error) {
	row := s.db.QueryRow(`SELECT `+venueCols+` FROM venues WHERE id = ?`, id)
	v, err := scanVenue(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get venue: %w", err)
	}
	return v, nil
}

func (s *VenueStore) List() ([]model.Venue, error) {
	rows, err := s.db.Query(`SELECT ` + venueCols + ` FROM venues ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	defer rows.Close()

	var venues []model.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan venue: %w", err)
		}
		venues = append(venues, *v)
	}
	return venues, rows.Err()
}
