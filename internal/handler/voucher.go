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

type VoucherHandler struct {
	voucherStore *store.VoucherStore
	hub          *ws.Hub
}

func NewVoucherHandler(vs *store.VoucherStore, hub *ws.Hub) *VoucherHandler {
	return &VoucherHandler{voucherStore: vs, hub: hub}
}

func (h *VoucherHandler) broadcast(n ws.Notification) {
	if h.hub != nil {
		h.hub.Broadcast(n)
	}
}

// List returns the caller's vouchers, newest first.
func (h *VoucherHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID := auth.AccountID(r.Context())

	vouchers, err := h.voucherStore.ListByAccount(accountID)
	if err != nil {
		log.Printf("failed to list vouchers: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list vouchers")
		return
	}
	if vouchers == nil {
		vouchers = []model.Voucher{}
	}
	writeJSON(w, http.StatusOK, vouchers)
}

// Refund cancels one of the caller's unconsumed vouchers and returns its
// cost to their balance.
func (h *VoucherHandler) Refund(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	accountID := auth.AccountID(r.Context())

	voucher, balance, err := h.voucherStore.Refund(id, accountID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrVoucherNotFound):
			writeError(w, http.StatusNotFound, "voucher not found")
		case errors.Is(err, store.ErrVoucherUsed):
			writeError(w, http.StatusConflict, "voucher already used")
		case errors.Is(err, store.ErrVoucherExpired):
			writeError(w, http.StatusGone, "voucher expired")
		default:
			log.Printf("failed to refund voucher: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to refund voucher")
		}
		return
	}

	h.broadcast(ws.Notification{
		Kind:      ws.KindPointsChanged,
		AccountID: accountID,
		Data:      map[string]any{"balance": balance},
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"voucher": voucher,
		"balance": balance,
	})
}

type validateRequest struct {
	Code string `json:"code"`
}

// Validate consumes a voucher presented at the staff member's venue. A
// voucher is consumed at most once; losing racers get the already-used
// error.
func (h *VoucherHandler) Validate(w http.ResponseWriter, r *http.Request) {
	venueID := auth.VenueID(r.Context())
	if venueID == 0 {
		writeError(w, http.StatusForbidden, "no venue assigned")
		return
	}

	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	voucher, err := h.voucherStore.Validate(req.Code, venueID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrVoucherNotFound):
			writeError(w, http.StatusNotFound, "voucher not found")
		case errors.Is(err, store.ErrVoucherUsed):
			writeError(w, http.StatusConflict, "voucher already used")
		case errors.Is(err, store.ErrVoucherExpired):
			writeError(w, http.StatusGone, "voucher expired")
		case errors.Is(err, store.ErrWrongVenue):
			writeError(w, http.StatusForbidden, "voucher belongs to another venue")
		default:
			log.Printf("failed to validate voucher: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to validate voucher")
		}
		return
	}

	h.broadcast(ws.Notification{
		Kind:      ws.KindVoucherConsumed,
		AccountID: voucher.AccountID,
		Data:      map[string]any{"voucher_id": voucher.ID},
	})

	writeJSON(w, http.StatusOK, voucher)
}
