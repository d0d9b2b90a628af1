package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"survive-arena/internal/domain"
	"survive-arena/internal/identity"
)

// currentUser returns the signed-in identity of r, if any.
func (h *Handler) currentUser(r *http.Request) (*domain.Identity, bool) {
	id := h.Cookies.SessionID(r)
	if id == "" {
		return nil, false
	}
	sess, err := h.Sessions.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, identity.ErrSessionNotFound) {
			h.logger.Warn("session lookup failed", zap.Error(err))
		}
		return nil, false
	}
	return &sess.User, true
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if h.Provider == nil {
		writeError(w, http.StatusServiceUnavailable, "identity provider not configured")
		return
	}
	state := uuid.NewString()
	verifier := identity.NewVerifier()
	h.Cookies.SetLogin(w, state, verifier)
	http.Redirect(w, r, h.Provider.AuthCodeURL(state, verifier), http.StatusFound)
}

func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	if h.Provider == nil {
		writeError(w, http.StatusServiceUnavailable, "identity provider not configured")
		return
	}
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		writeError(w, http.StatusBadRequest, "sign-in cancelled: "+e)
		return
	}

	state, verifier, ok := h.Cookies.Login(w, r)
	if !ok || state != q.Get("state") {
		writeError(w, http.StatusBadRequest, "invalid login state")
		return
	}

	tok, err := h.Provider.Exchange(r.Context(), q.Get("code"), verifier)
	if err != nil {
		h.logger.Warn("code exchange failed", zap.Error(err))
		writeError(w, http.StatusUnauthorized, "sign-in failed")
		return
	}
	user, err := h.Provider.FetchUser(r.Context(), tok)
	if err != nil {
		h.logger.Warn("fetch user failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "identity provider unavailable")
		return
	}

	sess, err := h.Sessions.Create(r.Context(), *user)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Cookies.SetSession(w, sess)
	h.logger.Info("user signed in", zap.String("twitter_id", user.ID), zap.String("username", user.Username))
	http.Redirect(w, r, h.AfterLogin, http.StatusFound)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id := h.Cookies.SessionID(r); id != "" {
		if err := h.Sessions.Delete(r.Context(), id); err != nil {
			h.logger.Warn("delete session failed", zap.Error(err))
		}
	}
	h.Cookies.ClearSession(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type checkAuthResponse struct {
	Authenticated bool             `json:"authenticated"`
	User          *domain.Identity `json:"user,omitempty"`
}

func (h *Handler) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(r)
	writeJSON(w, http.StatusOK, checkAuthResponse{Authenticated: ok, User: user})
}

type linkWalletRequest struct {
	WalletAddress string `json:"walletAddress"`
}

type linkWalletResponse struct {
	Success       bool            `json:"success"`
	Authenticated bool            `json:"authenticated,omitempty"`
	Player        *domain.Profile `json:"player,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// handleLinkWallet upserts the signed-in user's profile with a wallet.
func (h *Handler) handleLinkWallet(w http.ResponseWriter, r *http.Request) {
	var req linkWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, linkWalletResponse{Error: "invalid request body"})
		return
	}

	user, ok := h.currentUser(r)
	if !ok || req.WalletAddress == "" {
		writeJSON(w, http.StatusUnauthorized, linkWalletResponse{Error: "session or wallet address missing"})
		return
	}
	if !common.IsHexAddress(req.WalletAddress) {
		writeJSON(w, http.StatusBadRequest, linkWalletResponse{Error: "invalid wallet address"})
		return
	}

	player, err := h.upsertProfile(r, &domain.Profile{
		TwitterID:       user.ID,
		TwitterUsername: user.Username,
		WalletAddress:   req.WalletAddress,
		ProfileImage:    user.ProfileImageURL,
	})
	if err != nil {
		h.logger.Error("link wallet failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, linkWalletResponse{Error: "profile update failed"})
		return
	}
	writeJSON(w, http.StatusOK, linkWalletResponse{Success: true, Authenticated: true, Player: player})
}

// upsertProfile stores p and drops cached lookups of both the new wallet and
// the one it replaces.
func (h *Handler) upsertProfile(r *http.Request, p *domain.Profile) (*domain.Profile, error) {
	var previous string
	if h.ProfileCache != nil {
		if old, err := h.Profiles.GetByTwitterID(r.Context(), p.TwitterID); err == nil {
			previous = old.WalletAddress
		}
	}

	stored, err := h.Profiles.Upsert(r.Context(), p)
	if err != nil {
		return nil, err
	}
	if h.ProfileCache == nil {
		return stored, nil
	}
	stale := []string{stored.WalletAddress}
	if previous != "" && !domain.SameAddress(previous, stored.WalletAddress) {
		stale = append(stale, previous)
	}
	for _, addr := range stale {
		if err := h.ProfileCache.Invalidate(r.Context(), addr); err != nil {
			h.logger.Warn("profile cache invalidation failed", zap.String("address", addr), zap.Error(err))
		}
	}
	return stored, nil
}
