// Package marketdata loads historical BBO quotes and trade ticks from CSV
// files into in-memory series for the simulator. File locations come from
// explicit configuration; nothing here reads environment state.
package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"mdsim/internal/domain"
)

// Set maps instrument IDs to their BBO series.
type Set map[string]domain.Series

// TimeBounds returns the intersection-free overall bounds of the set: the
// minimum start and maximum end across all instruments. The second return
// value is false when the set holds no data at all.
func (s Set) TimeBounds() (start, end int64, ok bool) {
	for _, series := range s {
		a, b, present := series.TimeBounds()
		if !present {
			continue
		}
		if !ok || a < start {
			start = a
		}
		if !ok || b > end {
			end = b
		}
		ok = true
	}
	return start, end, ok
}

// Instruments returns the sorted instrument IDs present in the set.
func (s Set) Instruments() []string {
	out := make([]string, 0, len(s))
	for instrument := range s {
		out = append(out, instrument)
	}
	sort.Strings(out)
	return out
}

// columnIndex maps a CSV header row to column positions for the named
// required columns.
func columnIndex(header []string, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return idx, nil
}

// ReadQuotesCSV reads a BBO quote file with columns local_timestamp,
// bid_price, bid_amount, ask_price, ask_amount (any column order, extra
// columns ignored) and returns the series sorted ascending by timestamp.
func ReadQuotesCSV(path string) (domain.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	idx, err := columnIndex(header, "local_timestamp", "bid_price", "bid_amount", "ask_price", "ask_amount")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var series domain.Series
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line+1, err)
		}
		line++

		snap, err := parseSnapshot(row, idx)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		series = append(series, snap)
	}

	// The simulator requires ascending timestamps.
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Timestamp < series[j].Timestamp
	})

	return series, nil
}

func parseSnapshot(row []string, idx map[string]int) (domain.Snapshot, error) {
	ts, err := strconv.ParseInt(row[idx["local_timestamp"]], 10, 64)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("local_timestamp: %w", err)
	}
	fields := [4]float64{}
	for i, name := range [4]string{"bid_price", "bid_amount", "ask_price", "ask_amount"} {
		v, err := strconv.ParseFloat(row[idx[name]], 64)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("%s: %w", name, err)
		}
		fields[i] = v
	}
	return domain.Snapshot{
		Timestamp: ts,
		BidPrice:  fields[0],
		BidSize:   fields[1],
		AskPrice:  fields[2],
		AskSize:   fields[3],
	}, nil
}

// ReadTradesCSV reads a trade tick file with columns local_timestamp,
// price, amount, side and returns the trades sorted ascending by timestamp.
func ReadTradesCSV(path string) ([]domain.Trade, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	idx, err := columnIndex(header, "local_timestamp", "price", "amount", "side")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var trades []domain.Trade
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line+1, err)
		}
		line++

		ts, err := strconv.ParseInt(row[idx["local_timestamp"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: local_timestamp: %w", path, line, err)
		}
		price, err := strconv.ParseFloat(row[idx["price"]], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: price: %w", path, line, err)
		}
		size, err := strconv.ParseFloat(row[idx["amount"]], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: amount: %w", path, line, err)
		}
		trades = append(trades, domain.Trade{
			Timestamp: ts,
			Price:     price,
			Size:      size,
			Side:      row[idx["side"]],
		})
	}

	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Timestamp < trades[j].Timestamp
	})

	return trades, nil
}
