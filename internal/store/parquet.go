package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"mdsim/internal/domain"
)

// Compile-time interface checks.
var _ QuoteStore = (*ParquetStore)(nil)
var _ TradeStore = (*ParquetStore)(nil)

// ParquetStore implements QuoteStore and TradeStore using Parquet files on
// disk, one file per instrument and UTC day.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// QuoteRecord is the Parquet schema for BBO quote data.
type QuoteRecord struct {
	Instrument string  `parquet:"instrument"`
	Timestamp  int64   `parquet:"timestamp,timestamp(microsecond)"` // Unix µs
	BidPrice   float64 `parquet:"bid_price"`
	BidSize    float64 `parquet:"bid_size"`
	AskPrice   float64 `parquet:"ask_price"`
	AskSize    float64 `parquet:"ask_size"`
}

// TradeRecord is the Parquet schema for trade tick data.
type TradeRecord struct {
	Instrument string  `parquet:"instrument"`
	Timestamp  int64   `parquet:"timestamp,timestamp(microsecond)"` // Unix µs
	Price      float64 `parquet:"price"`
	Size       float64 `parquet:"size"`
	Side       string  `parquet:"side"`
}

// ---------------------------------------------------------------------------
// QuoteStore implementation
// ---------------------------------------------------------------------------

// WriteQuotes writes quote data to Parquet files organized by instrument and
// UTC date:
//
//	<DataDir>/quotes/<INSTRUMENT>/<YYYY-MM-DD>.parquet
func (s *ParquetStore) WriteQuotes(_ context.Context, instrument string, series domain.Series) error {
	if len(series) == 0 {
		return nil
	}

	groups := make(map[string][]QuoteRecord)
	for _, snap := range series {
		date := dayOf(snap.Timestamp)
		groups[date] = append(groups[date], QuoteRecord{
			Instrument: instrument,
			Timestamp:  snap.Timestamp,
			BidPrice:   snap.BidPrice,
			BidSize:    snap.BidSize,
			AskPrice:   snap.AskPrice,
			AskSize:    snap.AskSize,
		})
	}

	for date, records := range groups {
		path := s.quotePath(instrument, date)

		existing, _ := readParquetFile[QuoteRecord](path)
		merged := mergeRecords(existing, records, func(r QuoteRecord) int64 { return r.Timestamp })

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing quotes for %s/%s: %w", instrument, date, err)
		}
	}
	return nil
}

// ReadQuotes reads quote data for the given instrument and time range
// (Unix µs, inclusive), sorted ascending by timestamp.
func (s *ParquetStore) ReadQuotes(_ context.Context, instrument string, start, end int64) (domain.Series, error) {
	var series domain.Series
	for _, path := range s.dayFiles("quotes", instrument, start, end) {
		records, err := readParquetFile[QuoteRecord](path)
		if err != nil {
			// No file for this day.
			continue
		}
		for _, r := range records {
			if r.Timestamp >= start && r.Timestamp <= end {
				series = append(series, domain.Snapshot{
					Timestamp: r.Timestamp,
					BidPrice:  r.BidPrice,
					BidSize:   r.BidSize,
					AskPrice:  r.AskPrice,
					AskSize:   r.AskSize,
				})
			}
		}
	}
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Timestamp < series[j].Timestamp
	})
	return series, nil
}

// ListInstruments lists all instruments with stored quote data.
func (s *ParquetStore) ListInstruments(_ context.Context) ([]string, error) {
	dir := filepath.Join(s.DataDir, "quotes")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var instruments []string
	for _, e := range entries {
		if e.IsDir() {
			instruments = append(instruments, e.Name())
		}
	}
	sort.Strings(instruments)
	return instruments, nil
}

// ---------------------------------------------------------------------------
// TradeStore implementation
// ---------------------------------------------------------------------------

// WriteTrades writes trade data to Parquet files organized by instrument and
// UTC date:
//
//	<DataDir>/trades/<INSTRUMENT>/<YYYY-MM-DD>.parquet
func (s *ParquetStore) WriteTrades(_ context.Context, instrument string, trades []domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	groups := make(map[string][]TradeRecord)
	for _, t := range trades {
		date := dayOf(t.Timestamp)
		groups[date] = append(groups[date], TradeRecord{
			Instrument: instrument,
			Timestamp:  t.Timestamp,
			Price:      t.Price,
			Size:       t.Size,
			Side:       t.Side,
		})
	}

	for date, records := range groups {
		path := s.tradePath(instrument, date)

		existing, _ := readParquetFile[TradeRecord](path)
		merged := mergeRecords(existing, records, func(r TradeRecord) int64 { return r.Timestamp })

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing trades for %s/%s: %w", instrument, date, err)
		}
	}
	return nil
}

// ReadTrades reads trade data for the given instrument and time range
// (Unix µs, inclusive), sorted ascending by timestamp.
func (s *ParquetStore) ReadTrades(_ context.Context, instrument string, start, end int64) ([]domain.Trade, error) {
	var trades []domain.Trade
	for _, path := range s.dayFiles("trades", instrument, start, end) {
		records, err := readParquetFile[TradeRecord](path)
		if err != nil {
			continue
		}
		for _, r := range records {
			if r.Timestamp >= start && r.Timestamp <= end {
				trades = append(trades, domain.Trade{
					Timestamp: r.Timestamp,
					Price:     r.Price,
					Size:      r.Size,
					Side:      r.Side,
				})
			}
		}
	}
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Timestamp < trades[j].Timestamp
	})
	return trades, nil
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

// dayOf formats a Unix µs timestamp as its UTC date.
func dayOf(microsecond int64) string {
	return time.UnixMicro(microsecond).UTC().Format("2006-01-02")
}

// quotePath returns the filesystem path for a quote Parquet file.
func (s *ParquetStore) quotePath(instrument, date string) string {
	return filepath.Join(s.DataDir, "quotes", strings.ToUpper(instrument), date+".parquet")
}

// tradePath returns the filesystem path for a trade Parquet file.
func (s *ParquetStore) tradePath(instrument, date string) string {
	return filepath.Join(s.DataDir, "trades", strings.ToUpper(instrument), date+".parquet")
}

// dayFiles returns the candidate file paths covering [start, end] for one
// instrument under the given kind ("quotes" or "trades").
func (s *ParquetStore) dayFiles(kind, instrument string, start, end int64) []string {
	startDay := time.UnixMicro(start).UTC().Truncate(24 * time.Hour)
	endDay := time.UnixMicro(end).UTC().Truncate(24 * time.Hour)

	var paths []string
	for d := startDay; !d.After(endDay); d = d.AddDate(0, 0, 1) {
		date := d.Format("2006-01-02")
		paths = append(paths, filepath.Join(s.DataDir, kind, strings.ToUpper(instrument), date+".parquet"))
	}
	return paths
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeRecords combines existing and incoming records, dropping exact
// duplicates so re-writing the same batch is idempotent. Records that share
// a timestamp but differ in content are all kept (duplicate timestamps are
// legal in BBO data). Results are sorted ascending by timestamp; the sort
// is stable so same-timestamp records keep their relative order.
func mergeRecords[T comparable](existing, incoming []T, ts func(T) int64) []T {
	seen := make(map[T]bool, len(existing)+len(incoming))
	merged := make([]T, 0, len(existing)+len(incoming))
	for _, r := range existing {
		if !seen[r] {
			seen[r] = true
			merged = append(merged, r)
		}
	}
	for _, r := range incoming {
		if !seen[r] {
			seen[r] = true
			merged = append(merged, r)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return ts(merged[i]) < ts(merged[j])
	})
	return merged
}
