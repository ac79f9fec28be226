package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/mghoffman/perkhive/internal/auth"
	"github.com/mghoffman/perkhive/internal/model"
	"github.com/mghoffman/perkhive/internal/store"
	"github.com/mghoffman/perkhive/internal/ws"
)

type ModerationHandler struct {
	moderationStore *store.ModerationStore
	accountStore    *store.AccountStore
	hub             *ws.Hub
}

func NewModerationHandler(ms *store.ModerationStore, as *store.AccountStore, hub *ws.Hub) *ModerationHandler {
	return &ModerationHandler{moderationStore: ms, accountStore: as, hub: hub}
}

func (h *ModerationHandler) broadcast(n ws.Notification) {
	if h.hub != nil {
		h.hub.Broadcast(n)
	}
}

type reportRequest struct {
	SubjectAccountID int64  `json:"subject_account_id"`
	ContentRef       string `json:"content_ref"`
	Severity         string `json:"severity"`
}

// Report opens a moderation case against an account. Any member can report.
func (h *ModerationHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	severity := model.CaseSeverity(req.Severity)
	if severity == "" {
		severity = model.SeverityLow
	}
	if !severity.Valid() {
		writeError(w, http.StatusBadRequest, "severity must be low, medium, or high")
		return
	}

	subject, err := h.accountStore.GetByID(req.SubjectAccountID)
	if err != nil {
		log.Printf("failed to get subject account: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create report")
		return
	}
	if subject == nil {
		writeError(w, http.StatusNotFound, "subject account not found")
		return
	}

	reporterID := auth.AccountID(r.Context())

	c, err := h.moderationStore.Create(req.SubjectAccountID, req.ContentRef, severity, &reporterID)
	if err != nil {
		log.Printf("failed to create case: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create report")
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

// List returns moderation cases, optionally filtered by ?status=.
func (h *ModerationHandler) List(w http.ResponseWriter, r *http.Request) {
	status := model.CaseStatus(r.URL.Query().Get("status"))

	cases, err := h.moderationStore.List(status)
	if err != nil {
		log.Printf("failed to list cases: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list cases")
		return
	}
	if cases == nil {
		cases = []model.ModerationCase{}
	}
	writeJSON(w, http.StatusOK, cases)
}

func (h *ModerationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		// Fall back to the public case ref
		c, gerr := h.moderationStore.GetByRef(strings.TrimSpace(r.PathValue("id")))
		if gerr != nil {
			writeError(w, http.StatusInternalServerError, "failed to get case")
			return
		}
		if c == nil {
			writeError(w, http.StatusNotFound, "case not found")
			return
		}
		writeJSON(w, http.StatusOK, c)
		return
	}

	c, err := h.moderationStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get case")
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type resolveRequest struct {
	Action string `json:"action"`
	Notes  string `json:"notes"`
}

// Resolve applies a moderator decision. The status change and any account
// side effect (warning, suspension) commit together or not at all.
func (h *ModerationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	action := model.CaseAction(req.Action)
	if !action.Valid() {
		writeError(w, http.StatusBadRequest, "action must be dismiss, warn, suspend, or escalate")
		return
	}

	c, err := h.moderationStore.Resolve(id, action, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCaseNotFound):
			writeError(w, http.StatusNotFound, "case not found")
		case errors.Is(err, store.ErrInvalidTransition):
			writeError(w, http.StatusConflict, "case does not permit this action")
		case errors.Is(err, store.ErrAccountNotFound):
			writeError(w, http.StatusNotFound, "subject account not found")
		default:
			log.Printf("failed to resolve case: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to resolve case")
		}
		return
	}

	if c.Status.Terminal() {
		h.broadcast(ws.Notification{
			Kind:      ws.KindCaseResolved,
			AccountID: c.SubjectAccountID,
			Data:      map[string]any{"case_ref": c.Ref, "action": string(action)},
		})
	}

	writeJSON(w, http.StatusOK, c)
}
