package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"survive-arena/internal/domain"
	"survive-arena/internal/pool"
)

func (h *Handler) handlePools(w http.ResponseWriter, r *http.Request) {
	pools, err := h.Pools.ListPools(r.Context(), pool.ParseFilter(r.URL.Query().Get("filter")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if pools == nil {
		pools = []domain.PoolSnapshot{}
	}
	writeJSON(w, http.StatusOK, pools)
}

func (h *Handler) handlePool(w http.ResponseWriter, r *http.Request) {
	id, err := poolIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s, err := h.Pools.BuildSnapshot(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// handleRoster returns the roster and starts refreshing its vote counts.
func (h *Handler) handleRoster(w http.ResponseWriter, r *http.Request) {
	id, err := poolIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	roster, err := h.Pools.BuildRoster(r.Context(), id, r.URL.Query().Get("connected"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if roster == nil {
		roster = []domain.PlayerRecord{}
	}
	h.watch(id, roster)
	writeJSON(w, http.StatusOK, roster)
}

// handleTop ranks the active roster; n defaults to the pool's
// candidatesToSelect. source=contract returns the contract's own top ten.
func (h *Handler) handleTop(w http.ResponseWriter, r *http.Request) {
	id, err := poolIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if r.URL.Query().Get("source") == "contract" {
		roster, err := h.Pools.BuildRoster(r.Context(), id, "")
		if err != nil {
			h.fail(w, r, err)
			return
		}
		ranked, err := h.Pools.TopTenWithRanks(r.Context(), id, roster)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if ranked == nil {
			ranked = []domain.RankedPlayer{}
		}
		writeJSON(w, http.StatusOK, ranked)
		return
	}

	n := intQuery(r, "n")
	if n == 0 {
		s, err := h.Pools.BuildSnapshot(r.Context(), id)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		n = s.CandidatesToSelect
	}

	roster, err := h.Pools.BuildRoster(r.Context(), id, "")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ranked := pool.RankTopCandidates(roster, n)
	if ranked == nil {
		ranked = []domain.RankedPlayer{}
	}
	writeJSON(w, http.StatusOK, ranked)
}

// handleVotes returns the refreshed vote tally of a pool. An unwatched pool
// is seeded from a fresh roster.
func (h *Handler) handleVotes(w http.ResponseWriter, r *http.Request) {
	id, err := poolIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.Votes != nil {
		if tally, ok := h.Votes.Tally(id); ok {
			writeJSON(w, http.StatusOK, tally)
			return
		}
	}

	roster, err := h.Pools.BuildRoster(r.Context(), id, "")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.watch(id, roster)

	tally := pool.VoteTally{PoolID: id, Votes: make(map[string]int64, len(roster)), UpdatedAt: time.Now().UTC()}
	for _, p := range roster {
		tally.Votes[p.Address] = p.Votes
	}
	writeJSON(w, http.StatusOK, tally)
}

// watch hands the active players of a roster, with the counts just read,
// to the vote refresher.
func (h *Handler) watch(poolID uint64, roster []domain.PlayerRecord) {
	if h.Votes == nil || len(roster) == 0 {
		return
	}
	counts := make(map[string]int64, len(roster))
	for _, p := range roster {
		if p.IsActive {
			counts[p.Address] = p.Votes
		}
	}
	h.Votes.Watch(poolID, counts)
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	events, err := h.Activity.Build(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if limit := intQuery(r, "limit"); limit > 0 && limit < len(events) {
		events = events[:limit]
	}
	if events == nil {
		events = []domain.ActivityEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// handlePoolActivity returns the feed of one pool, newest first.
func (h *Handler) handlePoolActivity(w http.ResponseWriter, r *http.Request) {
	id, err := poolIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.Pools.BuildSnapshot(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	events, err := h.Activity.BuildPool(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if limit := intQuery(r, "limit"); limit > 0 && limit < len(events) {
		events = events[:limit]
	}
	if events == nil {
		events = []domain.ActivityEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) handlePopular(w http.ResponseWriter, r *http.Request) {
	players, err := h.Pools.PopularPlayers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if players == nil {
		players = []domain.PopularPlayer{}
	}
	writeJSON(w, http.StatusOK, players)
}

func (h *Handler) handleAccountStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Pools.UserStats(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleAccountBets(w http.ResponseWriter, r *http.Request) {
	bets, err := h.Pools.AllUserBets(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if bets == nil {
		bets = []domain.BetRecord{}
	}
	writeJSON(w, http.StatusOK, bets)
}

func (h *Handler) handleAccountPools(w http.ResponseWriter, r *http.Request) {
	pools, err := h.Pools.UserPools(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if pools == nil {
		pools = []domain.UserPool{}
	}
	writeJSON(w, http.StatusOK, pools)
}

func (h *Handler) handleAccountTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.Pools.UserTickets(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if tickets == nil {
		tickets = []domain.TicketRecord{}
	}
	writeJSON(w, http.StatusOK, tickets)
}

// handleAccountVotes returns the ballots of an account in ?pool=.
func (h *Handler) handleAccountVotes(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.URL.Query().Get("pool"), 10, 64)
	if err != nil || id == 0 {
		h.fail(w, r, errInvalidPoolID)
		return
	}
	votes, err := h.Pools.UserVotes(r.Context(), id, chi.URLParam(r, "address"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if votes.VotedFor == nil {
		votes.VotedFor = []string{}
	}
	writeJSON(w, http.StatusOK, votes)
}
