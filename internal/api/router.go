package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"pnlledger/internal/domain"
	"pnlledger/internal/ingest"
	"pnlledger/internal/portfolio"
	"pnlledger/internal/store"
)

// Store is the persistence used by the HTTP handlers.
type Store interface {
	Ping(ctx context.Context) error
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	AccountExists(ctx context.Context, id string) (bool, error)
	ImportTrades(ctx context.Context, trades []domain.Trade) ([]bool, error)
	ListTrades(ctx context.Context, accountID string, filter store.TradeFilter) (*store.TradeListResult, error)
	UpsertPrices(ctx context.Context, prices []domain.Price) error
	ListPrices(ctx context.Context, symbols []string) ([]domain.Price, error)
}

// Portfolio computes and persists P&L summaries.
type Portfolio interface {
	Summary(ctx context.Context, accountID string, q portfolio.Query) (domain.PortfolioSummary, error)
	Snapshot(ctx context.Context, accountID string, q portfolio.Query) (*domain.Snapshot, error)
	Snapshots(ctx context.Context, accountID string, limit int) ([]domain.Snapshot, error)
}

// Server holds the HTTP server dependencies.
type Server struct {
	repo      Store
	portfolio Portfolio
	cache     ingest.PriceCache
	nc        *nats.Conn
}

// NewServer creates a new API server. cache and nc may be nil.
func NewServer(repo Store, svc Portfolio, cache ingest.PriceCache, nc *nats.Conn) *Server {
	return &Server{repo: repo, portfolio: svc, cache: cache, nc: nc}
}

// Router returns the configured chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/import", s.handleImportTrades)

		r.Get("/prices", s.handleListPrices)
		r.Post("/prices", s.handleUpsertPrices)

		r.Get("/accounts", s.handleListAccounts)
		r.Route("/accounts/{accountId}", func(r chi.Router) {
			r.Get("/trades", s.handleListTrades)
			r.Get("/portfolio", s.handlePortfolio)
			r.Get("/positions", s.handlePositions)
			r.Get("/realized", s.handleRealized)
			r.Get("/snapshots", s.handleListSnapshots)
			r.Post("/snapshots", s.handleCreateSnapshot)
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "Method Not Allowed",
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
