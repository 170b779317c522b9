package strategy

import (
	"context"

	"mdsim/internal/domain"
)

// Compile-time interface check.
var _ Generator = (*Lookahead)(nil)

// Lookahead peeks at completed candles to trade with perfect hindsight: it
// enters at a candle's start in the direction the candle will move and
// exits at its end. Useful as an upper-bound sanity check on the simulator,
// not as a real strategy.
type Lookahead struct {
	amount float64
}

// NewLookahead creates a Lookahead generator trading the given fixed amount
// per candle.
func NewLookahead(amount float64) *Lookahead {
	return &Lookahead{amount: amount}
}

// Name returns "lookahead".
func (g *Lookahead) Name() string { return "lookahead" }

// Generate emits, for every candle fully inside the universe's trimmed time
// range, a position-opening intent at the candle start and the opposite
// intent at the candle end. Candles are sold only when they close strictly
// below their open; flat candles are bought.
func (g *Lookahead) Generate(_ context.Context, u Universe) ([]domain.Intent, error) {
	var intents []domain.Intent

	for instrument, cs := range u.Candles {
		for _, candle := range cs {
			if candle.TimeStart <= u.TimeStart+margin || candle.TimeEnd >= u.TimeEnd-margin {
				continue
			}

			amount := g.amount
			if candle.BodyClose < candle.BodyOpen {
				amount = -amount
			}

			intents = append(intents,
				domain.Intent{
					Timestamp: candle.TimeStart,
					Actions:   []domain.BaseIntent{{Instrument: instrument, Amount: amount}},
				},
				domain.Intent{
					Timestamp: candle.TimeEnd,
					Actions:   []domain.BaseIntent{{Instrument: instrument, Amount: -amount}},
				},
			)
		}
	}

	return intents, nil
}
