// Package sim implements the backtest execution engine: it walks a sorted
// BBO snapshot series, converts strategy intents into partial fills bounded
// by available liquidity and a time budget, and accumulates PnL and
// positions into a fill history.
package sim

import (
	"sort"

	"mdsim/internal/domain"
)

// locate returns the index of the first snapshot whose timestamp is strictly
// greater than target. The series must be sorted ascending by timestamp.
// The result can be len(series) when target is at or past the last
// snapshot; callers clamp it into range.
func locate(series domain.Series, target int64) int {
	return sort.Search(len(series), func(i int) bool {
		return series[i].Timestamp > target
	})
}

// available returns the liquidity a snapshot exposes for a signed request:
// buys consume ask-side size, sells consume bid-side size.
func available(snap domain.Snapshot, remaining float64) float64 {
	if remaining > 0 {
		return snap.AskSize
	}
	return snap.BidSize
}
