package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mghoffman/perkhive/internal/auth"
	"github.com/mghoffman/perkhive/internal/model"
	"github.com/mghoffman/perkhive/internal/store"
	"github.com/mghoffman/perkhive/internal/ws"
)

type EventHandler struct {
	eventStore   *store.EventStore
	checkinStore *store.CheckinStore
	radiusMeters float64
	hub          *ws.Hub
}

func NewEventHandler(es *store.EventStore, cs *store.CheckinStore, radiusMeters float64, hub *ws.Hub) *EventHandler {
	return &EventHandler{
		eventStore:   es,
		checkinStore: cs,
		radiusMeters: radiusMeters,
		hub:          hub,
	}
}

func (h *EventHandler) broadcast(n ws.Notification) {
	if h.hub != nil {
		h.hub.Broadcast(n)
	}
}

// List returns upcoming and in-progress events.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventStore.ListUpcoming(time.Now().UTC())
	if err != nil {
		log.Printf("failed to list events: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	event, err := h.eventStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	if event == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

type eventRequest struct {
	VenueID       int64     `json:"venue_id"`
	Title         string    `json:"title"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	CheckInMethod string    `json:"check_in_method"`
	Lat           float64   `json:"lat"`
	Lng           float64   `json:"lng"`
	QRToken       string    `json:"qr_token"`
	PointsReward  int       `json:"points_reward"`
	RequiresRSVP  bool      `json:"requires_rsvp"`
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if !req.EndTime.After(req.StartTime) {
		writeError(w, http.StatusBadRequest, "end_time must be after start_time")
		return
	}

	method := model.CheckinMethod(req.CheckInMethod)
	if method != model.MethodGPS && method != model.MethodQR && method != model.MethodEither {
		writeError(w, http.StatusBadRequest, "check_in_method must be gps, qr, or either")
		return
	}
	if (method == model.MethodQR || method == model.MethodEither) && req.QRToken == "" {
		writeError(w, http.StatusBadRequest, "qr_token is required for QR check-in")
		return
	}
	if req.PointsReward < 0 {
		writeError(w, http.StatusBadRequest, "points_reward must be >= 0")
		return
	}

	// Staff can only create events for their own venue
	if !auth.IsAdmin(r.Context()) {
		req.VenueID = auth.VenueID(r.Context())
	}
	if req.VenueID == 0 {
		writeError(w, http.StatusBadRequest, "venue_id is required")
		return
	}

	event, err := h.eventStore.Create(req.VenueID, req.Title, req.StartTime, req.EndTime, method, req.Lat, req.Lng, req.QRToken, req.PointsReward, req.RequiresRSVP)
	if err != nil {
		log.Printf("failed to create event: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create event")
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// RSVP registers the caller for an event. Repeating an RSVP is a no-op.
func (h *EventHandler) RSVP(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	accountID := auth.AccountID(r.Context())

	if err := h.eventStore.RSVP(id, accountID); err != nil {
		if errors.Is(err, store.ErrEventNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		log.Printf("failed to rsvp: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to rsvp")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type checkinRequest struct {
	Method string  `json:"method"`
	Token  string  `json:"token"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

// CheckIn verifies the caller's presence at an event and awards points.
func (h *EventHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req checkinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	accountID := auth.AccountID(r.Context())
	payload := store.CheckinPayload{Token: req.Token, Lat: req.Lat, Lng: req.Lng}

	record, err := h.checkinStore.CheckIn(accountID, id, model.CheckinMethod(req.Method), payload, h.radiusMeters)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrEventNotFound):
			writeError(w, http.StatusNotFound, "event not found")
		case errors.Is(err, store.ErrNotRegistered):
			writeError(w, http.StatusForbidden, "rsvp required for this event")
		case errors.Is(err, store.ErrAlreadyCheckedIn):
			writeError(w, http.StatusConflict, "already checked in")
		case errors.Is(err, store.ErrWrongMethod):
			writeError(w, http.StatusBadRequest, "check-in method not accepted for this event")
		case errors.Is(err, store.ErrInvalidCode):
			writeError(w, http.StatusUnprocessableEntity, "invalid QR code")
		case errors.Is(err, store.ErrTooFar):
			writeError(w, http.StatusUnprocessableEntity, "too far from event location")
		case errors.Is(err, store.ErrEventNotStarted):
			writeError(w, http.StatusUnprocessableEntity, "event has not started")
		case errors.Is(err, store.ErrEventEnded):
			writeError(w, http.StatusUnprocessableEntity, "event has ended")
		default:
			log.Printf("failed to check in: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to check in")
		}
		return
	}

	h.broadcast(ws.Notification{
		Kind:      ws.KindCheckinVerified,
		AccountID: accountID,
		Data:      map[string]any{"event_id": id, "points_awarded": record.PointsAwarded},
	})

	writeJSON(w, http.StatusCreated, record)
}

// ListCheckins returns the caller's check-in history.
func (h *EventHandler) ListCheckins(w http.ResponseWriter, r *http.Request) {
	accountID := auth.AccountID(r.Context())

	records, err := h.checkinStore.ListByAccount(accountID)
	if err != nil {
		log.Printf("failed to list checkins: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list checkins")
		return
	}
	if records == nil {
		records = []model.CheckinRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
