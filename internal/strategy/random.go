package strategy

import (
	"context"
	"math/rand"

	"mdsim/internal/domain"
)

// Compile-time interface check.
var _ Generator = (*Random)(nil)

// Random generates evenly spaced intents with uniformly random signed
// amounts on randomly chosen instruments, then flattens every open position
// shortly before the end of the data. A fixed seed makes runs reproducible.
type Random struct {
	n         int
	maxAmount int
	rng       *rand.Rand
}

// NewRandom creates a Random generator producing n intents with amounts in
// [-maxAmount, maxAmount], driven by the given seed.
func NewRandom(n, maxAmount int, seed int64) *Random {
	return &Random{
		n:         n,
		maxAmount: maxAmount,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Name returns "random".
func (g *Random) Name() string { return "random" }

// Generate spreads n random intents across the universe's time range,
// stopping one minute before the end, and appends one closing intent per
// instrument at the stop time so the run finishes flat.
func (g *Random) Generate(_ context.Context, u Universe) ([]domain.Intent, error) {
	stop := u.TimeEnd - margin
	dt := (stop - u.TimeStart) / int64(g.n)

	open := make(map[string]float64, len(u.Instruments))
	intents := make([]domain.Intent, 0, g.n+len(u.Instruments))

	for i := 0; i < g.n; i++ {
		amount := float64(g.rng.Intn(2*g.maxAmount+1) - g.maxAmount)
		instrument := u.Instruments[g.rng.Intn(len(u.Instruments))]

		intents = append(intents, domain.Intent{
			Timestamp: u.TimeStart + int64(i)*dt,
			Actions:   []domain.BaseIntent{{Instrument: instrument, Amount: amount}},
		})
		open[instrument] += amount
	}

	// Close out whatever the random walk accumulated.
	for _, instrument := range u.Instruments {
		intents = append(intents, domain.Intent{
			Timestamp: stop,
			Actions:   []domain.BaseIntent{{Instrument: instrument, Amount: -open[instrument]}},
		})
	}

	return intents, nil
}
