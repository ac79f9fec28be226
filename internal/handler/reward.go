package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mghoffman/perkhive/internal/auth"
	"github.com/mghoffman/perkhive/internal/model"
	"github.com/mghoffman/perkhive/internal/store"
	"github.com/mghoffman/perkhive/internal/ws"
)

type RewardHandler struct {
	rewardStore  *store.RewardStore
	voucherStore *store.VoucherStore
	ledgerStore  *store.LedgerStore
	voucherTTL   time.Duration
	hub          *ws.Hub
}

func NewRewardHandler(rs *store.RewardStore, vs *store.VoucherStore, ls *store.LedgerStore, voucherTTL time.Duration, hub *ws.Hub) *RewardHandler {
	return &RewardHandler{
		rewardStore:  rs,
		voucherStore: vs,
		ledgerStore:  ls,
		voucherTTL:   voucherTTL,
		hub:          hub,
	}
}

func (h *RewardHandler) broadcast(n ws.Notification) {
	if h.hub != nil {
		h.hub.Broadcast(n)
	}
}

// List returns rewards. Members see active rewards for one venue; staff and
// admins can pass all=true to include inactive ones.
func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("all") == "true" && auth.IsStaff(r.Context()) {
		rewards, err := h.rewardStore.List()
		if err != nil {
			log.Printf("failed to list rewards: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to list rewards")
			return
		}
		if rewards == nil {
			rewards = []model.Reward{}
		}
		writeJSON(w, http.StatusOK, rewards)
		return
	}

	venueIDStr := r.URL.Query().Get("venue_id")
	venueID, err := strconv.ParseInt(venueIDStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "venue_id is required")
		return
	}

	rewards, err := h.rewardStore.ListActiveByVenue(venueID)
	if err != nil {
		log.Printf("failed to list rewards: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list rewards")
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *RewardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	reward, err := h.rewardStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get reward")
		return
	}
	if reward == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}
	writeJSON(w, http.StatusOK, reward)
}

type rewardRequest struct {
	VenueID     int64  `json:"venue_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CostPoints  int    `json:"cost_points"`
	Category    string `json:"category"`
	Active      bool   `json:"active"`
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.CostPoints <= 0 {
		writeError(w, http.StatusBadRequest, "cost_points must be > 0")
		return
	}

	// Staff can only create rewards for their own venue
	if !auth.IsAdmin(r.Context()) {
		req.VenueID = auth.VenueID(r.Context())
	}
	if req.VenueID == 0 {
		writeError(w, http.StatusBadRequest, "venue_id is required")
		return
	}

	reward, err := h.rewardStore.Create(req.VenueID, req.Title, req.Description, req.CostPoints, req.Category, req.Active)
	if err != nil {
		log.Printf("failed to create reward: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create reward")
		return
	}

	writeJSON(w, http.StatusCreated, reward)
}

func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.rewardStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get reward")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}
	if !auth.IsAdmin(r.Context()) && existing.VenueID != auth.VenueID(r.Context()) {
		writeError(w, http.StatusForbidden, "reward belongs to another venue")
		return
	}

	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.CostPoints <= 0 {
		writeError(w, http.StatusBadRequest, "cost_points must be > 0")
		return
	}

	reward, err := h.rewardStore.Update(id, req.Title, req.Description, req.CostPoints, req.Category, req.Active)
	if err != nil {
		log.Printf("failed to update reward: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update reward")
		return
	}

	writeJSON(w, http.StatusOK, reward)
}

// SetActive toggles a reward's availability for new redemptions. Vouchers
// already issued against it stay valid.
func (h *RewardHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	existing, err := h.rewardStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get reward")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}
	if !auth.IsAdmin(r.Context()) && existing.VenueID != auth.VenueID(r.Context()) {
		writeError(w, http.StatusForbidden, "reward belongs to another venue")
		return
	}

	reward, err := h.rewardStore.SetActive(id, req.Active)
	if err != nil {
		log.Printf("failed to set reward active: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update reward")
		return
	}

	writeJSON(w, http.StatusOK, reward)
}

// Redeem debits the reward's cost from the caller and issues a voucher. The
// debit and the voucher are one transaction: a failure on either side leaves
// the balance untouched.
func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	accountID := auth.AccountID(r.Context())

	voucher, err := h.voucherStore.Redeem(accountID, id, h.voucherTTL)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrRewardNotFound):
			writeError(w, http.StatusNotFound, "reward not found")
		case errors.Is(err, store.ErrRewardInactive):
			writeError(w, http.StatusUnprocessableEntity, "reward is not active")
		case errors.Is(err, store.ErrInsufficientBalance):
			writeError(w, http.StatusUnprocessableEntity, "insufficient points")
		case errors.Is(err, store.ErrAccountNotFound):
			writeError(w, http.StatusNotFound, "account not found")
		default:
			log.Printf("failed to redeem reward: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to redeem reward")
		}
		return
	}

	balance, err := h.ledgerStore.GetBalance(accountID)
	if err != nil {
		log.Printf("failed to get balance after redeem: %v", err)
	} else {
		h.broadcast(ws.Notification{
			Kind:      ws.KindPointsChanged,
			AccountID: accountID,
			Data:      map[string]any{"balance": balance.Points},
		})
	}

	h.broadcast(ws.Notification{
		Kind:      ws.KindVoucherIssued,
		AccountID: accountID,
		Data:      map[string]any{"voucher_id": voucher.ID, "reward_id": id},
	})

	writeJSON(w, http.StatusCreated, voucher)
}
