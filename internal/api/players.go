package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"survive-arena/internal/domain"
	"survive-arena/internal/storage"
)

// handlePlayer returns the profile with the given twitter id, or a 404
// with a null body.
func (h *Handler) handlePlayer(w http.ResponseWriter, r *http.Request) {
	p, err := h.Profiles.GetByTwitterID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, nil)
			return
		}
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type upsertPlayerRequest struct {
	TwitterID       string `json:"twitter_id"`
	TwitterUsername string `json:"twitter_username"`
	WalletAddress   string `json:"wallet_address"`
	ProfileImage    string `json:"profile_image"`
}

// handleUpsertPlayer upserts a profile. Callers may only write their own
// signed-in identity.
func (h *Handler) handleUpsertPlayer(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	var req upsertPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TwitterID == "" {
		req.TwitterID = user.ID
	}
	if req.TwitterID != user.ID {
		writeError(w, http.StatusForbidden, "twitter id does not match session")
		return
	}
	if req.WalletAddress != "" && !common.IsHexAddress(req.WalletAddress) {
		writeError(w, http.StatusBadRequest, "invalid wallet address")
		return
	}

	p, err := h.upsertProfile(r, &domain.Profile{
		TwitterID:       req.TwitterID,
		TwitterUsername: req.TwitterUsername,
		WalletAddress:   req.WalletAddress,
		ProfileImage:    req.ProfileImage,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type userResponse struct {
	TwitterUsername string `json:"twitter_username"`
	ProfileImage    string `json:"profile_image"`
	WalletAddress   string `json:"wallet_address"`
}

func (h *Handler) handleUser(w http.ResponseWriter, r *http.Request) {
	p, err := h.Profiles.GetByWalletAddress(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidInput) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{
		TwitterUsername: p.TwitterUsername,
		ProfileImage:    p.ProfileImage,
		WalletAddress:   p.WalletAddress,
	})
}
