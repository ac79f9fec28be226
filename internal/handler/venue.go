package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/mghoffman/perkhive/internal/model"
	"github.com/mghoffman/perkhive/internal/store"
)

type VenueHandler struct {
	venueStore *store.VenueStore
}

func NewVenueHandler(vs *store.VenueStore) *VenueHandler {
	return &VenueHandler{venueStore: vs}
}

func (h *VenueHandler) List(w http.ResponseWriter, r *http.Request) {
	venues, err := h.venueStore.List()
	if err != nil {
		log.Printf("failed to list venues: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list venues")
		return
	}
	if venues == nil {
		venues = []model.Venue{}
	}
	writeJSON(w, http.StatusOK, venues)
}

func (h *VenueHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	venue, err := h.venueStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get venue")
		return
	}
	if venue == nil {
		writeError(w, http.StatusNotFound, "venue not found")
		return
	}
	writeJSON(w, http.StatusOK, venue)
}

type venueRequest struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

func (h *VenueHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req venueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
		writeError(w, http.StatusBadRequest, "invalid coordinates")
		return
	}

	venue, err := h.venueStore.Create(req.Name, req.Lat, req.Lng)
	if err != nil {
		log.Printf("failed to create venue: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create venue")
		return
	}

	writeJSON(w, http.StatusCreated, venue)
}
