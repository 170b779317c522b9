package sim

import (
	"log/slog"
	"sort"

	"mdsim/internal/domain"
)

// Backtester executes a list of strategy intents against per-instrument BBO
// series, one intent at a time in timestamp order. It is single-threaded;
// the market data set is read-only for the whole run.
type Backtester struct {
	actionDuration int64 // µs
	log            *slog.Logger
}

// NewBacktester creates a Backtester with a fixed per-action time budget.
// The duration is supplied in milliseconds and converted to microseconds to
// match snapshot timestamps.
func NewBacktester(actionDurationMS int64, log *slog.Logger) *Backtester {
	if log == nil {
		log = slog.Default()
	}
	return &Backtester{
		actionDuration: actionDurationMS * 1000,
		log:            log.With("component", "backtester"),
	}
}

// ActionDuration returns the per-action time budget in microseconds.
func (bt *Backtester) ActionDuration() int64 { return bt.actionDuration }

// Run executes all intents against the given market data and returns the
// cumulative PnL, final per-instrument positions, and the fill history.
//
// Intents need not arrive sorted; they are stable-sorted by timestamp, so
// intents sharing a timestamp keep their input order. The input slice is
// not modified. An intent naming an instrument with no market data is a
// zero fill, recorded as such.
func (bt *Backtester) Run(intents []domain.Intent, marketData map[string]domain.Series) domain.RunResult {
	sorted := make([]domain.Intent, len(intents))
	copy(sorted, intents)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	result := domain.RunResult{
		Positions: make(map[string]float64),
		History:   domain.NewHistory(),
	}

	for _, intent := range sorted {
		for _, action := range intent.Actions {
			series, ok := marketData[action.Instrument]
			if !ok {
				bt.log.Warn("no market data for instrument, recording zero fill",
					"instrument", action.Instrument, "timestamp", intent.Timestamp)
			}

			res := Fill(intent.Timestamp, action, series, bt.actionDuration)

			result.PnL += res.PnLDelta
			result.Positions[action.Instrument] += res.InstrumentDelta
			result.History.Append(intent.Timestamp, action.Instrument, res)
		}
	}

	return result
}
