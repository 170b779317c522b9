// Package httpapi exposes persisted backtest runs over a read-only JSON
// HTTP API.
package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"mdsim/internal/store"
)

// Server serves the run-results HTTP API.
type Server struct {
	runs store.RunStore
	log  *slog.Logger
}

// NewServer creates a Server backed by the given run store.
func NewServer(runs store.RunStore, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{runs: runs, log: log.With("component", "httpapi")}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /api/runs/{id}/fills", s.handleGetFills)
}

// Handler returns an http.Handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.logMiddleware(mux)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"elapsed", time.Since(start).Round(time.Millisecond))
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encoding JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// runSummaryJSON is the wire form of a run listing entry.
type runSummaryJSON struct {
	ID        string    `json:"id"`
	Strategy  string    `json:"strategy"`
	CreatedAt time.Time `json:"created_at"`
	PnL       float64   `json:"pnl"`
	FillCount int       `json:"fill_count"`
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.runs.ListRuns(r.Context())
	if err != nil {
		s.log.Error("listing runs", "error", err)
		s.writeError(w, http.StatusInternalServerError, "listing runs")
		return
	}

	out := make([]runSummaryJSON, 0, len(summaries))
	for _, sum := range summaries {
		out = append(out, runSummaryJSON{
			ID:        sum.ID,
			Strategy:  sum.Strategy,
			CreatedAt: sum.CreatedAt,
			PnL:       sum.PnL,
			FillCount: sum.FillCount,
		})
	}
	s.writeJSON(w, out)
}

// runJSON is the wire form of a full run, without the fill list.
type runJSON struct {
	ID               string             `json:"id"`
	Strategy         string             `json:"strategy"`
	CreatedAt        time.Time          `json:"created_at"`
	ActionDurationMS int64              `json:"action_duration_ms"`
	PnL              float64            `json:"pnl"`
	Positions        map[string]float64 `json:"positions"`
	FillCount        int                `json:"fill_count"`
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, runJSON{
		ID:               run.ID,
		Strategy:         run.Strategy,
		CreatedAt:        run.CreatedAt,
		ActionDurationMS: run.ActionDurationMS,
		PnL:              run.PnL,
		Positions:        run.Positions,
		FillCount:        len(run.Fills),
	})
}

// fillJSON is the wire form of one fill record.
type fillJSON struct {
	Seq             int     `json:"seq"`
	Timestamp       int64   `json:"timestamp"`
	Instrument      string  `json:"instrument"`
	PnLDelta        float64 `json:"pnl_delta"`
	InstrumentDelta float64 `json:"instrument_delta"`
}

func (s *Server) handleGetFills(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	out := make([]fillJSON, 0, len(run.Fills))
	for _, f := range run.Fills {
		out = append(out, fillJSON{
			Seq:             f.Seq,
			Timestamp:       f.Timestamp,
			Instrument:      f.Instrument,
			PnLDelta:        f.PnLDelta,
			InstrumentDelta: f.InstrumentDelta,
		})
	}
	s.writeJSON(w, out)
}

func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*store.Run, bool) {
	id := r.PathValue("id")
	run, err := s.runs.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, http.StatusNotFound, "run not found")
			return nil, false
		}
		s.log.Error("getting run", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "getting run")
		return nil, false
	}
	return run, true
}
