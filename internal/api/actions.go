package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"survive-arena/internal/contract"
	"survive-arena/internal/domain"
	"survive-arena/internal/storage"
)

// requireOperator admits the signed-in user whose linked wallet is the
// session's connected wallet.
func (h *Handler) requireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := h.currentUser(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "sign-in required")
			return
		}

		operator := ""
		if h.Actions != nil {
			operator = h.Actions.Account()
		}
		if operator == "" {
			h.fail(w, r, &contract.NotConnectedError{Reason: contract.ErrNotConnected, Detail: "server wallet is read-only"})
			return
		}

		p, err := h.Profiles.GetByTwitterID(r.Context(), user.ID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			h.fail(w, r, err)
			return
		}
		if p == nil || !domain.SameAddress(p.WalletAddress, operator) {
			writeError(w, http.StatusForbidden, "linked wallet is not the connected wallet")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// decodeBody decodes an optional JSON body into v.
func decodeBody(r *http.Request, v any) error {
	if r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body", errBadRequest)
	}
	return nil
}

func (h *Handler) writeReceipt(w http.ResponseWriter, r *http.Request, action string, poolID uint64, rcpt *domain.Receipt, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("transaction confirmed",
		zap.String("action", action),
		zap.Uint64("pool_id", poolID),
		zap.String("tx", rcpt.TxHash))
	writeJSON(w, http.StatusOK, rcpt)
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	id, err := poolIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rcpt, err := h.Actions.Join(r.Context(), id)
	h.writeReceipt(w, r, "join", id, rcpt, err)
}

type voteRequest struct {
	Candidates []string `json:"candidates"`
}

func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	id, err := poolIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req voteRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	rcpt, err := h.Actions.Vote(r.Context(), id, req.Candidates)
	h.writeReceipt(w, r, "vote", id, rcpt, err)
}

type betRequest struct {
	Target  string `json:"target"`
	BetType uint64 `json:"betType"`
	Amount  string `json:"amount"`
}

func (h *Handler) handleBet(w http.ResponseWriter, r *http.Request) {
	id, err := poolIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req betRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	betType, err := domain.ParseBetType(req.BetType)
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if req.Amount == "" {
		h.fail(w, r, fmt.Errorf("%w: amount is required", errBadRequest))
		return
	}
	rcpt, err := h.Actions.PlaceBet(r.Context(), id, req.Target, betType, req.Amount)
	h.writeReceipt(w, r, "bet", id, rcpt, err)
}

func (h *Handler) handleBuyTicket(w http.ResponseWriter, r *http.Request) {
	id, err := poolIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rcpt, err := h.Actions.BuyVotingTicket(r.Context(), id)
	h.writeReceipt(w, r, "buy_ticket", id, rcpt, err)
}

type claimRequest struct {
	// Kind is "pool" (player reward) or "bet".
	Kind string `json:"kind"`
}

func (h *Handler) handleClaim(w http.ResponseWriter, r *http.Request) {
	id, err := poolIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req claimRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	var rcpt *domain.Receipt
	switch req.Kind {
	case "pool":
		rcpt, err = h.Actions.ClaimPoolReward(r.Context(), id)
	case "bet":
		rcpt, err = h.Actions.ClaimBetReward(r.Context(), id)
	default:
		err = fmt.Errorf("%w: kind must be pool or bet", errBadRequest)
	}
	h.writeReceipt(w, r, "claim_"+req.Kind, id, rcpt, err)
}

func (h *Handler) handleReinitialize(w http.ResponseWriter, r *http.Request) {
	if h.Reinitialize == nil {
		writeError(w, http.StatusServiceUnavailable, "reinitialize not available")
		return
	}
	if err := h.Reinitialize(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("ledger gateway reinitialized")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
