// Package domain defines the core data types shared across the mdsim
// system: BBO snapshots, trade ticks, strategy intents, and the fill
// history produced by a backtest run.
package domain

import "time"

// ---------------------------------------------------------------------------
// Market data
// ---------------------------------------------------------------------------

// Snapshot is a single best-bid/offer observation. Timestamps are Unix
// microseconds. Snapshots are immutable once loaded.
type Snapshot struct {
	Timestamp int64   // Unix µs
	BidPrice  float64
	BidSize   float64
	AskPrice  float64
	AskSize   float64
}

// Series is a sequence of snapshots for one instrument, sorted ascending by
// Timestamp. Duplicate timestamps are permitted; position breaks ties.
type Series []Snapshot

// TimeBounds returns the first and last timestamps in the series. The second
// return value is false for an empty series.
func (s Series) TimeBounds() (start, end int64, ok bool) {
	if len(s) == 0 {
		return 0, 0, false
	}
	return s[0].Timestamp, s[len(s)-1].Timestamp, true
}

// Trade is a single executed market trade (tick), used for candle
// aggregation. Side is "buy" or "sell" (taker side).
type Trade struct {
	Timestamp int64 // Unix µs
	Price     float64
	Size      float64
	Side      string
}

// ---------------------------------------------------------------------------
// Strategy intents
// ---------------------------------------------------------------------------

// BaseIntent is a request to change the position in one instrument by a
// signed quantity: positive buys, negative sells, zero is a no-op.
// BaseIntents are immutable; the simulator tracks remaining quantity in its
// own accumulator.
type BaseIntent struct {
	Instrument string
	Amount     float64
}

// Intent is a timestamped group of base intents to be executed together.
type Intent struct {
	Timestamp int64 // Unix µs
	Actions   []BaseIntent
}

// ---------------------------------------------------------------------------
// Fill history
// ---------------------------------------------------------------------------

// FillResult is the outcome of executing one base intent against the market.
// PnLDelta follows the cash-flow convention: negative for net spend (buys),
// positive for net proceeds (sells). Remaining is the unfilled portion of
// the requested amount.
type FillResult struct {
	InstrumentDelta float64
	PnLDelta        float64
	Remaining       float64
}

// FillRecord is one entry of the fill history: the realized result of one
// base intent. Seq increases monotonically in execution order, so records
// sharing a (Timestamp, Instrument) key remain distinguishable.
type FillRecord struct {
	Seq             int
	Timestamp       int64 // intent timestamp, Unix µs
	Instrument      string
	PnLDelta        float64
	InstrumentDelta float64
}

// Day returns the UTC calendar day the record's timestamp falls on;
// metric consumers group daily PnL by this value.
func (r FillRecord) Day() time.Time {
	t := time.UnixMicro(r.Timestamp).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// historyKey identifies a fill-history slot. If two intents share a
// timestamp for the same instrument, the later-processed one overwrites the
// earlier in the keyed view.
type historyKey struct {
	Timestamp  int64
	Instrument string
}

// History is the ordered fill history of a backtest run. Records preserves
// every fill in execution order; the keyed lookup keeps only the
// last-written record per (timestamp, instrument).
type History struct {
	Records []FillRecord
	byKey   map[historyKey]int // index into Records
}

// NewHistory creates an empty fill history.
func NewHistory() *History {
	return &History{byKey: make(map[historyKey]int)}
}

// Append adds a record in execution order, assigning its sequence number.
// It returns the stored record.
func (h *History) Append(timestamp int64, instrument string, res FillResult) FillRecord {
	rec := FillRecord{
		Seq:             len(h.Records),
		Timestamp:       timestamp,
		Instrument:      instrument,
		PnLDelta:        res.PnLDelta,
		InstrumentDelta: res.InstrumentDelta,
	}
	h.Records = append(h.Records, rec)
	h.byKey[historyKey{Timestamp: timestamp, Instrument: instrument}] = rec.Seq
	return rec
}

// Get returns the record last written at (timestamp, instrument). The second
// return value reports whether any record exists for that key.
func (h *History) Get(timestamp int64, instrument string) (FillRecord, bool) {
	idx, ok := h.byKey[historyKey{Timestamp: timestamp, Instrument: instrument}]
	if !ok {
		return FillRecord{}, false
	}
	return h.Records[idx], true
}

// Len returns the number of records in execution order.
func (h *History) Len() int { return len(h.Records) }

// KeyCount returns the number of distinct (timestamp, instrument) keys.
func (h *History) KeyCount() int { return len(h.byKey) }

// Instruments returns the distinct instruments appearing in the history, in
// first-seen order.
func (h *History) Instruments() []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range h.Records {
		if !seen[rec.Instrument] {
			seen[rec.Instrument] = true
			out = append(out, rec.Instrument)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Run output
// ---------------------------------------------------------------------------

// RunResult is the output artifact of one backtest run.
type RunResult struct {
	PnL       float64
	Positions map[string]float64
	History   *History
}
