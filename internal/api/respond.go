package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"survive-arena/internal/contract"
	"survive-arena/internal/pool"
	"survive-arena/internal/storage"
)

var (
	errInvalidPoolID = errors.New("invalid pool id")
	errBadRequest    = errors.New("bad request")
)

type errorBody struct {
	Error string `json:"error"`
}

// txErrorBody is the 422 body of a rejected or reverted write.
type txErrorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
	TxHash string `json:"txHash,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// fail maps a domain error to a status code and writes it.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		txErr      *contract.TransactionError
		notConnErr *contract.NotConnectedError
	)
	if errors.As(err, &txErr) {
		h.logger.Warn("transaction failed", zap.String("method", txErr.Method), zap.String("tx", txErr.TxHash), zap.Error(err))
		writeJSON(w, http.StatusUnprocessableEntity, txErrorBody{Error: err.Error(), Reason: txErr.Reason, TxHash: txErr.TxHash})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &notConnErr):
		status = http.StatusConflict
	case errors.Is(err, pool.ErrNotAllowed), errors.Is(err, pool.ErrAlreadyJoined):
		status = http.StatusConflict
	case errors.Is(err, errInvalidPoolID), errors.Is(err, errBadRequest), errors.Is(err, pool.ErrInvalidAddress),
		errors.Is(err, pool.ErrSelfVote), errors.Is(err, pool.ErrSelectionFull),
		errors.Is(err, pool.ErrEmptySelection), errors.Is(err, pool.ErrBetAmount):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, contract.ErrUnavailable):
		status = http.StatusServiceUnavailable
	case r.Context().Err() != nil:
		// Client went away.
		return
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, status, http.StatusText(status))
		return
	}
	writeError(w, status, err.Error())
}

func poolIDParam(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidPoolID
	}
	return id, nil
}

func intQuery(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
