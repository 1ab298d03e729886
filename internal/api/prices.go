package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"pnlledger/internal/domain"
	"pnlledger/internal/ingest"
)

// PricesRequest is the request body for POST /api/v1/prices.
type PricesRequest struct {
	Prices []ingest.PriceEvent `json:"prices"`
}

func (s *Server) handleUpsertPrices(w http.ResponseWriter, r *http.Request) {
	var req PricesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if len(req.Prices) == 0 {
		writeError(w, http.StatusBadRequest, "prices array is empty")
		return
	}

	now := time.Now()
	prices := make([]domain.Price, len(req.Prices))
	for i, event := range req.Prices {
		if err := event.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("prices[%d] (%s): %v", i, event.Symbol, err))
			return
		}
		if event.Source == "" {
			event.Source = "api"
		}
		prices[i] = event.ToDomain(now)
	}

	if err := s.repo.UpsertPrices(r.Context(), prices); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store prices")
		return
	}
	if s.cache != nil {
		if err := s.cache.Set(r.Context(), prices); err != nil {
			log.Warn().Err(err).Msg("failed to refresh price cache")
		}
	}

	writeJSON(w, http.StatusOK, map[string]int{"updated": len(prices)})
}

func (s *Server) handleListPrices(w http.ResponseWriter, r *http.Request) {
	var symbols []string
	for _, value := range r.URL.Query()["symbol"] {
		for _, symbol := range strings.Split(value, ",") {
			if symbol = strings.TrimSpace(symbol); symbol != "" {
				symbols = append(symbols, symbol)
			}
		}
	}

	prices, err := s.repo.ListPrices(r.Context(), symbols)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list prices")
		return
	}
	writeJSON(w, http.StatusOK, prices)
}
