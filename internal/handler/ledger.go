package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/mghoffman/perkhive/internal/auth"
	"github.com/mghoffman/perkhive/internal/model"
	"github.com/mghoffman/perkhive/internal/store"
	"github.com/mghoffman/perkhive/internal/ws"
)

type LedgerHandler struct {
	ledgerStore *store.LedgerStore
	hub         *ws.Hub
}

func NewLedgerHandler(ls *store.LedgerStore, hub *ws.Hub) *LedgerHandler {
	return &LedgerHandler{ledgerStore: ls, hub: hub}
}

func (h *LedgerHandler) broadcast(n ws.Notification) {
	if h.hub != nil {
		h.hub.Broadcast(n)
	}
}

// GetBalance returns the caller's balance and tier.
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID := auth.AccountID(r.Context())

	balance, err := h.ledgerStore.GetBalance(accountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		log.Printf("failed to get balance: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get balance")
		return
	}

	writeJSON(w, http.StatusOK, balance)
}

// ListEntries returns the caller's ledger history, newest first.
func (h *LedgerHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	accountID := auth.AccountID(r.Context())

	entries, err := h.ledgerStore.ListEntries(accountID)
	if err != nil {
		log.Printf("failed to list ledger entries: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list entries")
		return
	}
	if entries == nil {
		entries = []model.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type adjustRequest struct {
	AccountID int64        `json:"account_id"`
	Amount    int          `json:"amount"`
	Reason    model.Reason `json:"reason"`
}

// Adjust applies an admin point adjustment to any account.
func (h *LedgerHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Amount == 0 {
		writeError(w, http.StatusBadRequest, "amount must be non-zero")
		return
	}
	if req.Reason == "" {
		req.Reason = model.ReasonAdminAdjustment
	}
	if !req.Reason.Valid() {
		writeError(w, http.StatusBadRequest, "invalid reason")
		return
	}

	entry, balance, err := h.ledgerStore.ApplyDelta(req.AccountID, req.Amount, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrAccountNotFound):
			writeError(w, http.StatusNotFound, "account not found")
		case errors.Is(err, store.ErrInsufficientBalance):
			writeError(w, http.StatusUnprocessableEntity, "insufficient balance")
		default:
			log.Printf("failed to adjust points: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to adjust points")
		}
		return
	}

	h.broadcast(ws.Notification{
		Kind:      ws.KindPointsChanged,
		AccountID: req.AccountID,
		Data:      map[string]any{"balance": balance, "delta": req.Amount},
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"entry":   entry,
		"balance": balance,
	})
}
