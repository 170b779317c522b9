package strategy

import (
	"context"
	"testing"

	"mdsim/internal/candles"
)

const minuteMicros = int64(60 * 1_000_000)

func testUniverse() Universe {
	return Universe{
		Instruments: []string{"DOGE", "PEPE"},
		TimeStart:   0,
		TimeEnd:     10 * minuteMicros,
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(NewRandom(10, 1000, 1))
	r.Register(NewLookahead(1000))

	if _, ok := r.Get("random"); !ok {
		t.Error("random generator not found")
	}
	if _, ok := r.Get("nope"); ok {
		t.Error("unexpected generator found")
	}

	names := r.List()
	if len(names) != 2 || names[0] != "lookahead" || names[1] != "random" {
		t.Errorf("List() = %v, want [lookahead random]", names)
	}
}

func TestRandomGenerateFlattens(t *testing.T) {
	g := NewRandom(50, 1000, 42)
	intents, err := g.Generate(context.Background(), testUniverse())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// 50 random intents plus one closing intent per instrument.
	if len(intents) != 52 {
		t.Fatalf("intent count = %d, want 52", len(intents))
	}

	// Net amount per instrument is zero after the closing intents.
	net := make(map[string]float64)
	for _, intent := range intents {
		for _, action := range intent.Actions {
			net[action.Instrument] += action.Amount
		}
	}
	for instrument, sum := range net {
		if sum != 0 {
			t.Errorf("%s net amount = %v, want 0", instrument, sum)
		}
	}

	// Closing intents sit one minute before the end of the data.
	stop := testUniverse().TimeEnd - minuteMicros
	for _, intent := range intents[50:] {
		if intent.Timestamp != stop {
			t.Errorf("closing intent at %d, want %d", intent.Timestamp, stop)
		}
	}
}

func TestRandomGenerateReproducible(t *testing.T) {
	a, _ := NewRandom(20, 1000, 7).Generate(context.Background(), testUniverse())
	b, _ := NewRandom(20, 1000, 7).Generate(context.Background(), testUniverse())

	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Timestamp != b[i].Timestamp ||
			a[i].Actions[0].Instrument != b[i].Actions[0].Instrument ||
			a[i].Actions[0].Amount != b[i].Actions[0].Amount {
			t.Fatalf("intent %d differs between seeded runs", i)
		}
	}
}

func TestLookaheadGenerate(t *testing.T) {
	u := testUniverse()
	u.Candles = map[string][]candles.Candle{
		"DOGE": {
			// Inside the trimmed range, closes up: expect buy then sell.
			{TimeStart: 2 * minuteMicros, TimeEnd: 3 * minuteMicros, BodyOpen: 10, BodyClose: 12},
			// Inside the range, closes down: expect sell then buy.
			{TimeStart: 4 * minuteMicros, TimeEnd: 5 * minuteMicros, BodyOpen: 12, BodyClose: 9},
			// Too close to the end of the data: skipped.
			{TimeStart: 9*minuteMicros + 1, TimeEnd: 10 * minuteMicros, BodyOpen: 9, BodyClose: 10},
		},
	}

	intents, err := NewLookahead(1000).Generate(context.Background(), u)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(intents) != 4 {
		t.Fatalf("intent count = %d, want 4", len(intents))
	}

	if got := intents[0].Actions[0].Amount; got != 1000 {
		t.Errorf("up candle entry amount = %v, want 1000", got)
	}
	if got := intents[1].Actions[0].Amount; got != -1000 {
		t.Errorf("up candle exit amount = %v, want -1000", got)
	}
	if got := intents[2].Actions[0].Amount; got != -1000 {
		t.Errorf("down candle entry amount = %v, want -1000", got)
	}
	if got := intents[3].Actions[0].Amount; got != 1000 {
		t.Errorf("down candle exit amount = %v, want 1000", got)
	}
}

func TestLookaheadFlatCandleBuys(t *testing.T) {
	u := testUniverse()
	u.Candles = map[string][]candles.Candle{
		"DOGE": {
			{TimeStart: 2 * minuteMicros, TimeEnd: 3 * minuteMicros, BodyOpen: 10, BodyClose: 10},
		},
	}

	intents, err := NewLookahead(1000).Generate(context.Background(), u)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(intents) != 2 {
		t.Fatalf("intent count = %d, want 2", len(intents))
	}
	if got := intents[0].Actions[0].Amount; got != 1000 {
		t.Errorf("flat candle entry amount = %v, want 1000", got)
	}
	if got := intents[1].Actions[0].Amount; got != -1000 {
		t.Errorf("flat candle exit amount = %v, want -1000", got)
	}
}
