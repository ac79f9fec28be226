package store

import (
	"errors"
	"testing"
	"time"

	"github.com/mghoffman/perkhive/internal/database"
	"github.com/mghoffman/perkhive/internal/model"
)

func setupEventTestDB(t *testing.T) (*EventStore, *AccountStore, *VenueStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewEventStore(db), NewAccountStore(db), NewVenueStore(db)
}

func TestEventCreateAndGet(t *testing.T) {
	es, _, vns := setupEventTestDB(t)

	venue, _ := vns.Create("The Crooked Spoon", 51.5007, -0.1246)
	start := time.Date(2026, 9, 12, 19, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)

	event, err := es.Create(venue.ID, "Quiz Night", start, end, model.MethodQR,
		51.5007, -0.1246, "qn-token-2231", 50, true)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if event.Title != "Quiz Night" {
		t.Errorf("title = %q, want Quiz Night", event.Title)
	}
	if !event.StartTime.Equal(start) {
		t.Errorf("start_time = %v, want %v", event.StartTime, start)
	}
	if event.CheckInMethod != model.MethodQR {
		t.Errorf("method = %q, want qr", event.CheckInMethod)
	}
	if !event.RequiresRSVP {
		t.Error("expected requires_rsvp")
	}
	if event.PointsReward != 50 {
		t.Errorf("points_reward = %d, want 50", event.PointsReward)
	}
}

func TestEventActiveWindow(t *testing.T) {
	start := time.Date(2026, 9, 12, 19, 0, 0, 0, time.UTC)
	e := &model.Event{StartTime: start, EndTime: start.Add(3 * time.Hour)}

	if e.Active(start.Add(-2 * time.Minute)) {
		t.Error("event should not be active before start")
	}
	if !e.Active(start) {
		t.Error("event should be active at start")
	}
	if !e.Active(start.Add(time.Hour)) {
		t.Error("event should be active mid-window")
	}
	if e.Active(start.Add(4 * time.Hour)) {
		t.Error("event should not be active after end")
	}
}

func TestEventListUpcomingSkipsEnded(t *testing.T) {
	es, _, vns := setupEventTestDB(t)

	venue, _ := vns.Create("The Crooked Spoon", 51.5007, -0.1246)
	now := time.Now().UTC()

	es.Create(venue.ID, "Last Week", now.Add(-8*24*time.Hour), now.Add(-7*24*time.Hour),
		model.MethodEither, 0, 0, "", 10, false)
	es.Create(venue.ID, "Tonight", now.Add(-time.Hour), now.Add(2*time.Hour),
		model.MethodEither, 0, 0, "", 10, false)
	es.Create(venue.ID, "Next Week", now.Add(7*24*time.Hour), now.Add(7*24*time.Hour+3*time.Hour),
		model.MethodEither, 0, 0, "", 10, false)

	events, err := es.ListUpcoming(now)
	if err != nil {
		t.Fatalf("list upcoming: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Title != "Tonight" {
		t.Errorf("events[0] = %q, want Tonight", events[0].Title)
	}
	if events[1].Title != "Next Week" {
		t.Errorf("events[1] = %q, want Next Week", events[1].Title)
	}
}

func TestRSVP(t *testing.T) {
	es, as, vns := setupEventTestDB(t)

	venue, _ := vns.Create("The Crooked Spoon", 51.5007, -0.1246)
	acct, _ := as.Create("alice@example.com", "Alice", "secret", "member", nil)
	now := time.Now().UTC()
	event, _ := es.Create(venue.ID, "Quiz Night", now, now.Add(time.Hour),
		model.MethodQR, 0, 0, "tok", 50, true)

	has, _ := es.HasRSVP(event.ID, acct.ID)
	if has {
		t.Error("should not have rsvp before registering")
	}

	if err := es.RSVP(event.ID, acct.ID); err != nil {
		t.Fatalf("rsvp: %v", err)
	}
	// Registering twice is a no-op, not an error.
	if err := es.RSVP(event.ID, acct.ID); err != nil {
		t.Fatalf("second rsvp: %v", err)
	}

	has, err := es.HasRSVP(event.ID, acct.ID)
	if err != nil {
		t.Fatalf("has rsvp: %v", err)
	}
	if !has {
		t.Error("expected rsvp after registering")
	}
}

func TestRSVPUnknownEvent(t *testing.T) {
	es, as, _ := setupEventTestDB(t)

	acct, _ := as.Create("bob@example.com", "Bob", "secret", "member", nil)
	err := es.RSVP(999, acct.ID)
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("err = %v, want ErrEventNotFound", err)
	}
}
