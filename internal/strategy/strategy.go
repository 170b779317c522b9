// Package strategy defines the Generator interface for producing backtest
// intents and provides a Registry for managing multiple generator
// implementations.
package strategy

import (
	"context"
	"sort"
	"time"

	"mdsim/internal/candles"
	"mdsim/internal/domain"
)

// Universe describes the market a generator can trade: the instruments with
// data, the covered time range, and optional per-instrument candles for
// generators that read price structure.
type Universe struct {
	Instruments []string
	TimeStart   int64 // Unix µs
	TimeEnd     int64 // Unix µs
	Candles     map[string][]candles.Candle
}

// Generator is the interface all intent generators implement. Generate
// returns the full intent list for one backtest pass; the simulator sorts
// it, so order is not part of the contract.
type Generator interface {
	// Name returns the unique identifier for this generator.
	Name() string

	// Generate produces the intents to backtest over the given universe.
	Generate(ctx context.Context, u Universe) ([]domain.Intent, error)
}

// Registry holds a named collection of generators for lookup and
// enumeration.
type Registry struct {
	generators map[string]Generator
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]Generator),
	}
}

// Register adds a generator to the registry, keyed by its Name().
func (r *Registry) Register(g Generator) {
	r.generators[g.Name()] = g
}

// Get retrieves a generator by name. The second return value indicates
// whether it was found.
func (r *Registry) Get(name string) (Generator, bool) {
	g, ok := r.generators[name]
	return g, ok
}

// List returns a sorted slice of all registered generator names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// margin is how far generators stay away from the edges of the data so
// every intent has market data to fill against.
const margin = int64(time.Minute / time.Microsecond)
