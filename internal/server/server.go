package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mghoffman/perkhive/internal/auth"
	"github.com/mghoffman/perkhive/internal/config"
	"github.com/mghoffman/perkhive/internal/handler"
	"github.com/mghoffman/perkhive/internal/middleware"
	"github.com/mghoffman/perkhive/internal/store"
	"github.com/mghoffman/perkhive/internal/ws"
)

// validateLimit caps voucher validation attempts per staff account per
// minute. Well above honest counter traffic, far below enumeration speed.
const validateLimit = 30

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	authH        *handler.AuthHandler
	ledgerH      *handler.LedgerHandler
	rewardH      *handler.RewardHandler
	voucherH     *handler.VoucherHandler
	eventH       *handler.EventHandler
	moderationH  *handler.ModerationHandler
	venueH       *handler.VenueHandler
	sessionStore *store.SessionStore
	accountStore *store.AccountStore
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "ws"))

	accountStore := store.NewAccountStore(db)
	sessionStore := store.NewSessionStore(db)
	venueStore := store.NewVenueStore(db)
	ledgerStore := store.NewLedgerStore(db)
	rewardStore := store.NewRewardStore(db)
	voucherStore := store.NewVoucherStore(db)
	eventStore := store.NewEventStore(db)
	checkinStore := store.NewCheckinStore(db)
	moderationStore := store.NewModerationStore(db)

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(accountStore, sessionStore, cfg.SessionTTL, logger.With("component", "auth")),
		ledgerH:      handler.NewLedgerHandler(ledgerStore, hub),
		rewardH:      handler.NewRewardHandler(rewardStore, voucherStore, ledgerStore, cfg.VoucherTTL, hub),
		voucherH:     handler.NewVoucherHandler(voucherStore, hub),
		eventH:       handler.NewEventHandler(eventStore, checkinStore, cfg.CheckinRadiusMeters, hub),
		moderationH:  handler.NewModerationHandler(moderationStore, accountStore, hub),
		venueH:       handler.NewVenueHandler(venueStore),
		sessionStore: sessionStore,
		accountStore: accountStore,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /api/venues", s.venueH.List)
	outerMux.HandleFunc("GET /api/venues/{id}", s.venueH.Get)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes behind RequireAuth
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.accountStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)

	// Points ledger
	mux.HandleFunc("GET /api/points/balance", s.ledgerH.GetBalance)
	mux.HandleFunc("GET /api/points/history", s.ledgerH.ListEntries)
	mux.Handle("POST /api/points/adjust", middleware.RequireAdmin(http.HandlerFunc(s.ledgerH.Adjust)))

	// Rewards
	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.HandleFunc("GET /api/rewards/{id}", s.rewardH.Get)
	mux.Handle("POST /api/rewards", middleware.RequireStaff(http.HandlerFunc(s.rewardH.Create)))
	mux.Handle("PUT /api/rewards/{id}", middleware.RequireStaff(http.HandlerFunc(s.rewardH.Update)))
	mux.Handle("PUT /api/rewards/{id}/active", middleware.RequireStaff(http.HandlerFunc(s.rewardH.SetActive)))
	mux.HandleFunc("POST /api/rewards/{id}/redeem", s.rewardH.Redeem)

	// Vouchers. Validation is rate-limited per staff account so codes cannot
	// be enumerated from a compromised venue session.
	mux.HandleFunc("GET /api/vouchers", s.voucherH.List)
	mux.HandleFunc("POST /api/vouchers/{id}/refund", s.voucherH.Refund)
	validateKey := func(r *http.Request) string {
		return "validate:" + strconv.FormatInt(auth.AccountID(r.Context()), 10)
	}
	validateRL := middleware.RateLimit(s.rateLimiter, validateKey, validateLimit, time.Minute)
	mux.Handle("POST /api/vouchers/validate", middleware.RequireStaff(validateRL(http.HandlerFunc(s.voucherH.Validate))))

	// Events and check-ins
	mux.HandleFunc("GET /api/events", s.eventH.List)
	mux.HandleFunc("GET /api/events/{id}", s.eventH.Get)
	mux.Handle("POST /api/events", middleware.RequireStaff(http.HandlerFunc(s.eventH.Create)))
	mux.HandleFunc("POST /api/events/{id}/rsvp", s.eventH.RSVP)
	mux.HandleFunc("POST /api/events/{id}/checkin", s.eventH.CheckIn)
	mux.HandleFunc("GET /api/checkins", s.eventH.ListCheckins)

	// Moderation
	mux.HandleFunc("POST /api/reports", s.moderationH.Report)
	mux.Handle("GET /api/moderation/cases", middleware.RequireAdmin(http.HandlerFunc(s.moderationH.List)))
	mux.Handle("GET /api/moderation/cases/{id}", middleware.RequireAdmin(http.HandlerFunc(s.moderationH.Get)))
	mux.Handle("POST /api/moderation/cases/{id}/resolve", middleware.RequireAdmin(http.HandlerFunc(s.moderationH.Resolve)))

	// Admin venue management
	mux.Handle("POST /api/venues", middleware.RequireAdmin(http.HandlerFunc(s.venueH.Create)))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.Handler(s.hub, s.logger.With("component", "ws")))
}
