package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mdsim/internal/domain"
)

func TestParquetStorePaths(t *testing.T) {
	ps := NewParquetStore("/data")

	qp := ps.quotePath("doge", "2024-06-15")
	want := filepath.Join("/data", "quotes", "DOGE", "2024-06-15.parquet")
	if qp != want {
		t.Errorf("quotePath mismatch:\n  got  %s\n  want %s", qp, want)
	}

	tp := ps.tradePath("PEPE", "2024-06-15")
	if !strings.Contains(tp, "trades") || !strings.Contains(tp, "PEPE") {
		t.Errorf("tradePath should contain kind and instrument: %s", tp)
	}
}

func TestParquetStoreQuoteRoundTrip(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	base := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC).UnixMicro()
	series := domain.Series{
		{Timestamp: base, BidPrice: 0.097, BidSize: 400, AskPrice: 0.098, AskSize: 450},
		{Timestamp: base + 1000, BidPrice: 0.098, BidSize: 500, AskPrice: 0.099, AskSize: 600},
		// Next UTC day, exercises the per-day file split.
		{Timestamp: base + 24*3600*1_000_000, BidPrice: 0.1, BidSize: 100, AskPrice: 0.101, AskSize: 200},
	}

	if err := ps.WriteQuotes(ctx, "DOGE", series); err != nil {
		t.Fatalf("WriteQuotes: %v", err)
	}

	got, err := ps.ReadQuotes(ctx, "DOGE", base, base+24*3600*1_000_000)
	if err != nil {
		t.Fatalf("ReadQuotes: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := range series {
		if got[i] != series[i] {
			t.Errorf("got[%d] = %+v, want %+v", i, got[i], series[i])
		}
	}

	// Range filter excludes the second day.
	got, err = ps.ReadQuotes(ctx, "DOGE", base, base+1000)
	if err != nil {
		t.Fatalf("ReadQuotes: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("filtered len = %d, want 2", len(got))
	}

	instruments, err := ps.ListInstruments(ctx)
	if err != nil {
		t.Fatalf("ListInstruments: %v", err)
	}
	if len(instruments) != 1 || instruments[0] != "DOGE" {
		t.Errorf("ListInstruments = %v, want [DOGE]", instruments)
	}
}

func TestParquetStoreWriteIdempotent(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	base := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC).UnixMicro()
	series := domain.Series{
		{Timestamp: base, BidPrice: 1, BidSize: 1, AskPrice: 2, AskSize: 2},
		// Same timestamp, different quote — both must survive.
		{Timestamp: base, BidPrice: 1.5, BidSize: 1, AskPrice: 2.5, AskSize: 2},
	}

	if err := ps.WriteQuotes(ctx, "DOGE", series); err != nil {
		t.Fatalf("first WriteQuotes: %v", err)
	}
	if err := ps.WriteQuotes(ctx, "DOGE", series); err != nil {
		t.Fatalf("second WriteQuotes: %v", err)
	}

	got, err := ps.ReadQuotes(ctx, "DOGE", base, base)
	if err != nil {
		t.Fatalf("ReadQuotes: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2 (duplicate timestamps kept, rewrite deduplicated)", len(got))
	}
}

func TestParquetStoreTradeRoundTrip(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	base := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC).UnixMicro()
	trades := []domain.Trade{
		{Timestamp: base, Price: 0.1, Size: 100, Side: "buy"},
		{Timestamp: base + 500, Price: 0.11, Size: 50, Side: "sell"},
	}

	if err := ps.WriteTrades(ctx, "PEPE", trades); err != nil {
		t.Fatalf("WriteTrades: %v", err)
	}
	got, err := ps.ReadTrades(ctx, "PEPE", base, base+1000)
	if err != nil {
		t.Fatalf("ReadTrades: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0] != trades[0] || got[1] != trades[1] {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestSQLiteRunStoreRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "mdsim.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	run := &Run{
		ID:               "run-1",
		Strategy:         "random",
		CreatedAt:        time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		ActionDurationMS: 10000,
		PnL:              -12.5,
		Positions:        map[string]float64{"DOGE": 3, "PEPE": -7},
		Fills: []domain.FillRecord{
			{Seq: 0, Timestamp: 100, Instrument: "DOGE", PnLDelta: -30, InstrumentDelta: 3},
			{Seq: 1, Timestamp: 200, Instrument: "PEPE", PnLDelta: 17.5, InstrumentDelta: -7},
		},
	}

	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Strategy != "random" || got.PnL != -12.5 || got.ActionDurationMS != 10000 {
		t.Errorf("run header = %+v", got)
	}
	if !got.CreatedAt.Equal(run.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, run.CreatedAt)
	}
	if got.Positions["DOGE"] != 3 || got.Positions["PEPE"] != -7 {
		t.Errorf("positions = %v", got.Positions)
	}
	if len(got.Fills) != 2 || got.Fills[0] != run.Fills[0] || got.Fills[1] != run.Fills[1] {
		t.Errorf("fills = %+v", got.Fills)
	}
}

func TestSQLiteRunStoreList(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "mdsim.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	older := &Run{ID: "a", Strategy: "random", CreatedAt: time.UnixMicro(1000).UTC(), PnL: 1,
		Fills: []domain.FillRecord{{Seq: 0, Instrument: "DOGE"}}}
	newer := &Run{ID: "b", Strategy: "lookahead", CreatedAt: time.UnixMicro(2000).UTC(), PnL: 2}
	if err := s.SaveRun(ctx, older); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := s.SaveRun(ctx, newer); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	summaries, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("len = %d, want 2", len(summaries))
	}
	if summaries[0].ID != "b" || summaries[1].ID != "a" {
		t.Errorf("order = [%s %s], want newest first", summaries[0].ID, summaries[1].ID)
	}
	if summaries[1].FillCount != 1 {
		t.Errorf("FillCount = %d, want 1", summaries[1].FillCount)
	}

	if _, err := s.GetRun(ctx, "missing"); err == nil {
		t.Error("expected error for missing run")
	}
}
