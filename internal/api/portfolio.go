package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"pnlledger/internal/pnl"
	"pnlledger/internal/portfolio"
)

// TradeIssue describes one trade rejected by a strict calculation.
type TradeIssue struct {
	TradeID string `json:"trade_id"`
	Symbol  string `json:"symbol"`
	Error   string `json:"error"`
}

// ValidationResponse is the 422 body for rejected calculations.
type ValidationResponse struct {
	Error  string       `json:"error"`
	Trades []TradeIssue `json:"trades"`
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	accountID, q, ok := s.portfolioRequest(w, r)
	if !ok {
		return
	}

	summary, err := s.portfolio.Summary(r.Context(), accountID, q)
	if err != nil {
		writeCalculationError(w, accountID, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	accountID, q, ok := s.portfolioRequest(w, r)
	if !ok {
		return
	}

	summary, err := s.portfolio.Summary(r.Context(), accountID, q)
	if err != nil {
		writeCalculationError(w, accountID, err)
		return
	}
	writeJSON(w, http.StatusOK, summary.Positions)
}

func (s *Server) handleRealized(w http.ResponseWriter, r *http.Request) {
	accountID, q, ok := s.portfolioRequest(w, r)
	if !ok {
		return
	}

	summary, err := s.portfolio.Summary(r.Context(), accountID, q)
	if err != nil {
		writeCalculationError(w, accountID, err)
		return
	}
	writeJSON(w, http.StatusOK, summary.RealizedPnLByAsset)
}

func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	accountID, q, ok := s.portfolioRequest(w, r)
	if !ok {
		return
	}

	snap, err := s.portfolio.Snapshot(r.Context(), accountID, q)
	if err != nil {
		writeCalculationError(w, accountID, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		if limit, err = strconv.Atoi(limitStr); err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	snaps, err := s.portfolio.Snapshots(r.Context(), accountID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list snapshots")
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

// portfolioRequest parses the account and query parameters shared by the
// calculation endpoints, writing the error response itself when it fails.
func (s *Server) portfolioRequest(w http.ResponseWriter, r *http.Request) (string, portfolio.Query, bool) {
	accountID := chi.URLParam(r, "accountId")
	params := r.URL.Query()

	var q portfolio.Query
	since, err := parseTime(params.Get("since"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid since time")
		return "", q, false
	}
	q.Since = since

	if strictStr := params.Get("strict"); strictStr != "" {
		if q.Strict, err = strconv.ParseBool(strictStr); err != nil {
			writeError(w, http.StatusBadRequest, "invalid strict flag")
			return "", q, false
		}
	}

	exists, err := s.repo.AccountExists(r.Context(), accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check account")
		return "", q, false
	}
	if !exists {
		writeError(w, http.StatusNotFound, "account not found")
		return "", q, false
	}

	return accountID, q, true
}

func writeCalculationError(w http.ResponseWriter, accountID string, err error) {
	if issues := pnl.TradeErrors(err); len(issues) > 0 {
		resp := ValidationResponse{
			Error:  fmt.Sprintf("%d invalid trade(s)", len(issues)),
			Trades: make([]TradeIssue, len(issues)),
		}
		for i, te := range issues {
			resp.Trades[i] = TradeIssue{TradeID: te.TradeID, Symbol: te.Symbol, Error: te.Err.Error()}
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	log.Error().Err(err).Str("account_id", accountID).Msg("portfolio calculation failed")
	writeError(w, http.StatusInternalServerError, "failed to calculate portfolio")
}
