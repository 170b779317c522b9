// Package store defines storage interfaces for persisting and retrieving
// market data (BBO quotes, trade ticks) and backtest run results.
package store

import (
	"context"
	"time"

	"mdsim/internal/domain"
)

// QuoteStore persists and retrieves BBO quote series.
type QuoteStore interface {
	// WriteQuotes persists a batch of snapshots for one instrument.
	WriteQuotes(ctx context.Context, instrument string, series domain.Series) error

	// ReadQuotes returns the snapshots for an instrument within
	// [start, end] (Unix µs), sorted ascending by timestamp.
	ReadQuotes(ctx context.Context, instrument string, start, end int64) (domain.Series, error)

	// ListInstruments returns all instruments with stored quotes.
	ListInstruments(ctx context.Context) ([]string, error)
}

// TradeStore persists and retrieves trade tick data.
type TradeStore interface {
	// WriteTrades persists a batch of trades for one instrument.
	WriteTrades(ctx context.Context, instrument string, trades []domain.Trade) error

	// ReadTrades returns the trades for an instrument within [start, end]
	// (Unix µs), sorted ascending by timestamp.
	ReadTrades(ctx context.Context, instrument string, start, end int64) ([]domain.Trade, error)
}

// Run is one persisted backtest run: the parameters it ran with and the
// full output artifact.
type Run struct {
	ID               string
	Strategy         string
	CreatedAt        time.Time
	ActionDurationMS int64
	PnL              float64
	Positions        map[string]float64
	Fills            []domain.FillRecord
}

// RunSummary is the listing view of a run, without the fill history.
type RunSummary struct {
	ID        string
	Strategy  string
	CreatedAt time.Time
	PnL       float64
	FillCount int
}

// RunStore persists and retrieves backtest runs.
type RunStore interface {
	// SaveRun inserts a run with its positions and fill history.
	SaveRun(ctx context.Context, run *Run) error

	// GetRun retrieves a full run by ID, including fills and positions.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns summaries of all runs, newest first.
	ListRuns(ctx context.Context) ([]RunSummary, error)
}
