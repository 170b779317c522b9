// Package metrics computes performance statistics from a backtest fill
// history: total PnL, drawdown, Sharpe/Sortino ratios, traded volume,
// position flips, and average holding time. It is a pure consumer of
// domain.History and never touches market data state.
package metrics

import (
	"math"
	"time"

	"mdsim/internal/domain"
)

// Report bundles all statistics for one backtest run. Per-instrument maps
// use NaN where a ratio is undefined (no records, zero deviation, or no
// losing days for Sortino).
type Report struct {
	TotalPnL         float64
	MaxDrawdown      float64
	Sharpe           map[string]float64
	Sortino          map[string]float64
	TradedVolume     map[string]float64
	Flips            map[string]int
	AvgHoldingTime   map[string]time.Duration
	AvgHoldingTimeOK map[string]bool // false when no closed position interval exists
}

// Compute builds a Report over the given history for the given instruments.
// Instruments absent from the history get NaN ratios and zero volume.
func Compute(history *domain.History, instruments []string, riskFreeRate float64) *Report {
	r := &Report{
		TotalPnL:         TotalPnL(history),
		MaxDrawdown:      MaxDrawdown(history),
		Sharpe:           make(map[string]float64, len(instruments)),
		Sortino:          make(map[string]float64, len(instruments)),
		TradedVolume:     TradedVolume(history, instruments),
		Flips:            Flips(history, instruments),
		AvgHoldingTime:   make(map[string]time.Duration, len(instruments)),
		AvgHoldingTimeOK: make(map[string]bool, len(instruments)),
	}
	for _, instrument := range instruments {
		r.Sharpe[instrument] = Sharpe(history, instrument, riskFreeRate)
		r.Sortino[instrument] = Sortino(history, instrument, riskFreeRate)
		d, ok := AvgHoldingTime(history, instrument)
		r.AvgHoldingTime[instrument] = d
		r.AvgHoldingTimeOK[instrument] = ok
	}
	return r
}

// TotalPnL sums every PnL delta in the history.
func TotalPnL(history *domain.History) float64 {
	var total float64
	for _, rec := range history.Records {
		total += rec.PnLDelta
	}
	return total
}

// MaxDrawdown returns the largest peak-to-trough decline of the cumulative
// PnL curve built record by record. An empty history has zero drawdown.
func MaxDrawdown(history *domain.History) float64 {
	var cum, peak, maxDD float64
	for i, rec := range history.Records {
		cum += rec.PnLDelta
		if i == 0 || cum > peak {
			peak = cum
		}
		if dd := peak - cum; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// dailyPnL groups one instrument's PnL deltas by UTC calendar day and
// returns the sums in day order.
func dailyPnL(history *domain.History, instrument string) []float64 {
	sums := make(map[time.Time]float64)
	var order []time.Time
	for _, rec := range history.Records {
		if rec.Instrument != instrument {
			continue
		}
		day := rec.Day()
		if _, seen := sums[day]; !seen {
			order = append(order, day)
		}
		sums[day] += rec.PnLDelta
	}
	out := make([]float64, len(order))
	for i, day := range order {
		out[i] = sums[day]
	}
	return out
}

// mean and populationStd mirror the numpy defaults the ratios are usually
// quoted with (population standard deviation, not sample).
func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func populationStd(xs []float64) float64 {
	m := mean(xs)
	var sq float64
	for _, x := range xs {
		sq += (x - m) * (x - m)
	}
	return math.Sqrt(sq / float64(len(xs)))
}

// Sharpe returns the Sharpe ratio of an instrument's daily PnL: the mean
// daily return over its population standard deviation, less the risk-free
// rate. NaN when the instrument has no records or zero deviation.
func Sharpe(history *domain.History, instrument string, riskFreeRate float64) float64 {
	returns := dailyPnL(history, instrument)
	if len(returns) == 0 {
		return math.NaN()
	}
	std := populationStd(returns)
	if std == 0 {
		return math.NaN()
	}
	return (mean(returns) - riskFreeRate) / std
}

// Sortino returns the Sortino ratio of an instrument's daily PnL: like
// Sharpe, but deviation is measured over losing days only. NaN when the
// instrument has no records, no losing days, or zero downside deviation.
func Sortino(history *domain.History, instrument string, riskFreeRate float64) float64 {
	returns := dailyPnL(history, instrument)
	if len(returns) == 0 {
		return math.NaN()
	}
	var negative []float64
	for _, r := range returns {
		if r < 0 {
			negative = append(negative, r)
		}
	}
	if len(negative) == 0 {
		return math.NaN()
	}
	std := populationStd(negative)
	if std == 0 {
		return math.NaN()
	}
	return (mean(returns) - riskFreeRate) / std
}

// TradedVolume sums the absolute realized quantity per instrument.
func TradedVolume(history *domain.History, instruments []string) map[string]float64 {
	volume := make(map[string]float64, len(instruments))
	for _, instrument := range instruments {
		volume[instrument] = 0
	}
	for _, rec := range history.Records {
		if _, ok := volume[rec.Instrument]; ok {
			volume[rec.Instrument] += math.Abs(rec.InstrumentDelta)
		}
	}
	return volume
}

// Flips counts, per instrument, how often the running position crossed zero
// (long to short or short to long).
func Flips(history *domain.History, instruments []string) map[string]int {
	flips := make(map[string]int, len(instruments))
	position := make(map[string]float64, len(instruments))
	for _, instrument := range instruments {
		flips[instrument] = 0
	}
	for _, rec := range history.Records {
		if _, ok := flips[rec.Instrument]; !ok {
			continue
		}
		before := position[rec.Instrument]
		after := before + rec.InstrumentDelta
		if before*after < 0 {
			flips[rec.Instrument]++
		}
		position[rec.Instrument] = after
	}
	return flips
}

// AvgHoldingTime averages the span between a position-opening fill (first
// nonzero delta while flat) and the next zero-delta record for that
// instrument, which marks the close. The second return value is false when
// no interval ever closed.
func AvgHoldingTime(history *domain.History, instrument string) (time.Duration, bool) {
	var openedAt int64
	open := false
	var total int64
	var count int

	for _, rec := range history.Records {
		if rec.Instrument != instrument {
			continue
		}
		switch {
		case !open && rec.InstrumentDelta != 0:
			openedAt = rec.Timestamp
			open = true
		case open && rec.InstrumentDelta == 0:
			total += rec.Timestamp - openedAt
			count++
			open = false
		}
	}

	if count == 0 {
		return 0, false
	}
	avgMicros := total / int64(count)
	return time.Duration(avgMicros) * time.Microsecond, true
}
