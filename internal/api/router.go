// Package api serves the session boundary (sign-in, profile lookups), JSON
// views of pools, rosters and activity, and operator-wallet writes.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"survive-arena/internal/domain"
	"survive-arena/internal/identity"
	"survive-arena/internal/observability"
	"survive-arena/internal/pool"
	"survive-arena/internal/storage"
)

// PoolViews builds pool and account view models. *pool.Builder satisfies it.
type PoolViews interface {
	ListPools(ctx context.Context, filter pool.Filter) ([]domain.PoolSnapshot, error)
	BuildSnapshot(ctx context.Context, poolID uint64) (*domain.PoolSnapshot, error)
	BuildRoster(ctx context.Context, poolID uint64, connected string) ([]domain.PlayerRecord, error)
	UserPools(ctx context.Context, account string) ([]domain.UserPool, error)
	AllUserBets(ctx context.Context, account string) ([]domain.BetRecord, error)
	UserTickets(ctx context.Context, account string) ([]domain.TicketRecord, error)
	UserStats(ctx context.Context, account string) (*domain.UserStats, error)
	UserVotes(ctx context.Context, poolID uint64, account string) (*domain.VoteSummary, error)
	PopularPlayers(ctx context.Context) ([]domain.PopularPlayer, error)
	TopTenWithRanks(ctx context.Context, poolID uint64, roster []domain.PlayerRecord) ([]domain.RankedPlayer, error)
}

// PoolActions submits contract writes from the connected wallet.
// *pool.Builder satisfies it.
type PoolActions interface {
	Account() string
	Join(ctx context.Context, poolID uint64) (*domain.Receipt, error)
	Vote(ctx context.Context, poolID uint64, candidates []string) (*domain.Receipt, error)
	PlaceBet(ctx context.Context, poolID uint64, target string, betType domain.BetType, amount string) (*domain.Receipt, error)
	BuyVotingTicket(ctx context.Context, poolID uint64) (*domain.Receipt, error)
	ClaimPoolReward(ctx context.Context, poolID uint64) (*domain.Receipt, error)
	ClaimBetReward(ctx context.Context, poolID uint64) (*domain.Receipt, error)
}

// ActivityFeed builds the activity feed. *activity.Reconstructor satisfies it.
type ActivityFeed interface {
	Build(ctx context.Context) ([]domain.ActivityEvent, error)
	BuildPool(ctx context.Context, poolID uint64) ([]domain.ActivityEvent, error)
}

// VoteTallies keeps refreshed vote counts of displayed rosters.
// *pool.VoteRefresher satisfies it.
type VoteTallies interface {
	Watch(poolID uint64, counts map[string]int64)
	Tally(poolID uint64) (pool.VoteTally, bool)
}

// ProfileInvalidator drops cached profile lookups after an upsert.
// *profile.CachedStore satisfies it.
type ProfileInvalidator interface {
	Invalidate(ctx context.Context, address string) error
}

// Deps are the collaborators of the API handlers. Pools, Activity,
// Profiles and Sessions are required; the rest are optional.
type Deps struct {
	Pools    PoolViews
	Activity ActivityFeed
	Profiles storage.ProfileStore
	Sessions identity.SessionStore

	Provider     *identity.Provider // nil disables /api/auth/login and callback
	Cookies      identity.Cookies
	Votes        VoteTallies
	ProfileCache ProfileInvalidator
	// Actions enables the write routes. They are served only to the signed-in
	// user whose linked wallet is the connected one.
	Actions PoolActions
	// Reinitialize rebuilds the ledger gateway (POST /api/admin/reinitialize).
	Reinitialize func(ctx context.Context) error
	// Status returns the body of /status.
	Status func() any
	// AfterLogin is the redirect target of a completed sign-in. Default "/".
	AfterLogin string
	Logger     *zap.Logger
}

// Handler holds the dependencies for API handlers.
type Handler struct {
	Deps
	logger  *zap.Logger
	started time.Time
}

// NewHandler creates a new Handler.
func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.AfterLogin == "" {
		deps.AfterLogin = "/"
	}
	return &Handler{Deps: deps, logger: logger, started: time.Now()}
}

// NewRouter creates and configures the HTTP router with all API routes.
func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.observe)

	r.Get("/health", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", observability.Handler())
	r.Get("/status", h.handleStatus)

	r.Route("/api", func(r chi.Router) {
		r.Get("/auth/login", h.handleLogin)
		r.Get("/auth/callback", h.handleCallback)
		r.Post("/auth/logout", h.handleLogout)
		r.Get("/check-auth", h.handleCheckAuth)
		r.Post("/check-auth", h.handleLinkWallet)

		r.Get("/players/{id}", h.handlePlayer)
		r.Post("/players", h.handleUpsertPlayer)
		r.Get("/users/{address}", h.handleUser)

		r.Get("/pools", h.handlePools)
		r.Get("/pools/{id}", h.handlePool)
		r.Get("/pools/{id}/players", h.handleRoster)
		r.Get("/pools/{id}/top", h.handleTop)
		r.Get("/pools/{id}/votes", h.handleVotes)
		r.Get("/pools/{id}/activity", h.handlePoolActivity)

		r.Get("/activity", h.handleActivity)
		r.Get("/popular", h.handlePopular)

		r.Get("/accounts/{address}/stats", h.handleAccountStats)
		r.Get("/accounts/{address}/bets", h.handleAccountBets)
		r.Get("/accounts/{address}/pools", h.handleAccountPools)
		r.Get("/accounts/{address}/tickets", h.handleAccountTickets)
		r.Get("/accounts/{address}/votes", h.handleAccountVotes)

		r.Group(func(r chi.Router) {
			r.Use(h.requireOperator)
			r.Post("/pools/{id}/join", h.handleJoin)
			r.Post("/pools/{id}/votes", h.handleVote)
			r.Post("/pools/{id}/bets", h.handleBet)
			r.Post("/pools/{id}/tickets", h.handleBuyTicket)
			r.Post("/pools/{id}/claims", h.handleClaim)
			r.Post("/admin/reinitialize", h.handleReinitialize)
		})
	})

	return r
}

// observe records per-route request metrics and a debug access log.
func (h *Handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		observability.RecordHTTPRequest(route, fmt.Sprintf("%dxx", status/100))
		h.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	}
	if h.Status != nil {
		body["components"] = h.Status()
	}
	writeJSON(w, http.StatusOK, body)
}
