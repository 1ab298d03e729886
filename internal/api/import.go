package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/rs/zerolog/log"

	"pnlledger/internal/domain"
	"pnlledger/internal/ingest"
)

// maxImportTrades caps the size of one import request.
const maxImportTrades = 1000

// ImportRequest is the request body for POST /api/v1/import.
type ImportRequest struct {
	Trades []ingest.TradeEvent `json:"trades"`
}

// ImportResult holds the result of a single trade import.
type ImportResult struct {
	TradeID string `json:"trade_id"`
	Status  string `json:"status"` // "inserted" or "duplicate"
}

// ImportResponse is the response body for POST /api/v1/import.
type ImportResponse struct {
	Total      int            `json:"total"`
	Inserted   int            `json:"inserted"`
	Duplicates int            `json:"duplicates"`
	Results    []ImportResult `json:"results"`
}

// handleImportTrades stores a batch of trades in one transaction. Positions are
// not touched: they are recomputed from trades on every read, so historic
// imports may arrive in any order.
func (s *Server) handleImportTrades(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	if len(req.Trades) == 0 {
		writeError(w, http.StatusBadRequest, "trades array is empty")
		return
	}

	if len(req.Trades) > maxImportTrades {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("too many trades: max %d per request", maxImportTrades))
		return
	}

	// Validate all trades up front before inserting any
	trades := make([]domain.Trade, len(req.Trades))
	for i, event := range req.Trades {
		if err := event.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("trade[%d] (%s): %v", i, event.ID, err))
			return
		}
		trade, err := event.ToDomain()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("trade[%d] (%s): %v", i, event.ID, err))
			return
		}
		trades[i] = *trade
	}

	// Insert in execution order so arrival order breaks timestamp ties the same way
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Timestamp < trades[j].Timestamp
	})

	inserted, err := s.repo.ImportTrades(r.Context(), trades)
	if err != nil {
		log.Error().Err(err).Int("trades", len(trades)).Msg("import failed")
		writeError(w, http.StatusInternalServerError, "failed to import trades")
		return
	}

	resp := ImportResponse{
		Total:   len(trades),
		Results: make([]ImportResult, len(trades)),
	}
	for i, trade := range trades {
		result := ImportResult{TradeID: trade.ID, Status: "duplicate"}
		if inserted[i] {
			result.Status = "inserted"
			resp.Inserted++
		} else {
			resp.Duplicates++
		}
		resp.Results[i] = result
	}

	writeJSON(w, http.StatusOK, resp)
}
