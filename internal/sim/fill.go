package sim

import "mdsim/internal/domain"

// Fill executes one base intent against a snapshot series. Starting from
// the first snapshot after start, it consumes liquidity snapshot by
// snapshot until the request is exhausted, the time budget (µs) elapses, or
// the series runs out. Liquidity shortfall is not an error: the unfilled
// remainder is reported in FillResult.Remaining and otherwise dropped.
//
// Every partial fill is priced off the ask, for sells as well as buys. That
// asymmetry is a known simplification of this simulator, kept deliberately.
func Fill(start int64, action domain.BaseIntent, series domain.Series, budget int64) domain.FillResult {
	res := domain.FillResult{Remaining: action.Amount}
	if len(series) == 0 || action.Amount == 0 {
		return res
	}

	idx := locate(series, start)
	if idx >= len(series) {
		idx = len(series) - 1
	}

	deadline := start + budget
	for idx < len(series) && series[idx].Timestamp < deadline && res.Remaining != 0 {
		snap := series[idx]

		// Signed take: min(ask size, remaining) for buys,
		// max(-bid size, remaining) for sells.
		qty := res.Remaining
		if avail := available(snap, res.Remaining); res.Remaining > 0 {
			qty = min(avail, res.Remaining)
		} else {
			qty = max(-avail, res.Remaining)
		}

		res.Remaining -= qty
		res.InstrumentDelta += qty
		res.PnLDelta -= snap.AskPrice * qty

		idx++
	}

	return res
}
