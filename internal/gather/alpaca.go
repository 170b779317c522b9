package gather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"mdsim/internal/domain"
	"mdsim/internal/store"
)

// ---------------------------------------------------------------------------
// Compile-time interface checks
// ---------------------------------------------------------------------------

var _ Gatherer = (*QuoteGatherer)(nil)
var _ Gatherer = (*TradeGatherer)(nil)

// Symbol pairs an mdsim instrument ID with the Alpaca crypto symbol it is
// fetched under (e.g. "DOGE" ↔ "DOGE/USD").
type Symbol struct {
	Instrument string
	Alpaca     string
}

// batchWindow is how much of the range a single API request covers. Quote
// data is dense, so requests are kept to one-hour slices and paginated by
// the SDK internally.
const batchWindow = time.Hour

// ---------------------------------------------------------------------------
// QuoteGatherer — historical BBO quotes from the Alpaca crypto API.
// ---------------------------------------------------------------------------

// QuoteGatherer gathers historical BBO quotes for crypto instruments via the
// Alpaca market-data API and writes them to the quote store.
type QuoteGatherer struct {
	client  *marketdata.Client
	store   store.QuoteStore
	symbols []Symbol
	window  DateRange
	log     *slog.Logger
}

// NewQuoteGatherer creates a QuoteGatherer configured with the given Alpaca
// credentials, target store, symbols, and date range.
func NewQuoteGatherer(apiKey, apiSecret, dataURL string, s store.QuoteStore, symbols []Symbol, window DateRange) *QuoteGatherer {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &QuoteGatherer{
		client:  marketdata.NewClient(opts),
		store:   s,
		symbols: symbols,
		window:  window,
		log:     slog.Default().With("gatherer", "crypto-quotes"),
	}
}

// Name returns the gatherer identifier.
func (g *QuoteGatherer) Name() string { return "crypto-quotes" }

// Run fetches BBO quotes for all configured symbols over the date range and
// writes them to the quote store, one batch window at a time.
func (g *QuoteGatherer) Run(ctx context.Context) error {
	for _, sym := range g.symbols {
		if err := g.gatherSymbol(ctx, sym); err != nil {
			return fmt.Errorf("gathering quotes for %s: %w", sym.Instrument, err)
		}
	}
	return nil
}

func (g *QuoteGatherer) gatherSymbol(ctx context.Context, sym Symbol) error {
	start := time.Now()
	total := 0

	for cur := g.window.Start; cur.Before(g.window.End); cur = cur.Add(batchWindow) {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		end := cur.Add(batchWindow)
		if end.After(g.window.End) {
			end = g.window.End
		}

		quotes, err := g.client.GetCryptoQuotes(sym.Alpaca, marketdata.GetCryptoQuotesRequest{
			Start: cur,
			End:   end,
		})
		if err != nil {
			return fmt.Errorf("GetCryptoQuotes %s [%s, %s): %w", sym.Alpaca, cur, end, err)
		}
		if len(quotes) == 0 {
			continue
		}

		series := make(domain.Series, 0, len(quotes))
		for _, q := range quotes {
			series = append(series, domain.Snapshot{
				Timestamp: q.Timestamp.UnixMicro(),
				BidPrice:  q.BidPrice,
				BidSize:   q.BidSize,
				AskPrice:  q.AskPrice,
				AskSize:   q.AskSize,
			})
		}

		if err := g.store.WriteQuotes(ctx, sym.Instrument, series); err != nil {
			return fmt.Errorf("writing quotes: %w", err)
		}
		total += len(series)
	}

	g.log.Info("symbol complete",
		"instrument", sym.Instrument,
		"quotes", total,
		"elapsed", time.Since(start).Round(time.Second),
	)
	return nil
}

// ---------------------------------------------------------------------------
// TradeGatherer — historical trade ticks from the Alpaca crypto API.
// ---------------------------------------------------------------------------

// TradeGatherer gathers historical trade ticks for crypto instruments via
// the Alpaca market-data API and writes them to the trade store.
type TradeGatherer struct {
	client  *marketdata.Client
	store   store.TradeStore
	symbols []Symbol
	window  DateRange
	log     *slog.Logger
}

// NewTradeGatherer creates a TradeGatherer configured with the given Alpaca
// credentials, target store, symbols, and date range.
func NewTradeGatherer(apiKey, apiSecret, dataURL string, s store.TradeStore, symbols []Symbol, window DateRange) *TradeGatherer {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &TradeGatherer{
		client:  marketdata.NewClient(opts),
		store:   s,
		symbols: symbols,
		window:  window,
		log:     slog.Default().With("gatherer", "crypto-trades"),
	}
}

// Name returns the gatherer identifier.
func (g *TradeGatherer) Name() string { return "crypto-trades" }

// Run fetches trade ticks for all configured symbols over the date range
// and writes them to the trade store.
func (g *TradeGatherer) Run(ctx context.Context) error {
	for _, sym := range g.symbols {
		if err := g.gatherSymbol(ctx, sym); err != nil {
			return fmt.Errorf("gathering trades for %s: %w", sym.Instrument, err)
		}
	}
	return nil
}

func (g *TradeGatherer) gatherSymbol(ctx context.Context, sym Symbol) error {
	start := time.Now()
	total := 0

	for cur := g.window.Start; cur.Before(g.window.End); cur = cur.Add(batchWindow) {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		end := cur.Add(batchWindow)
		if end.After(g.window.End) {
			end = g.window.End
		}

		ticks, err := g.client.GetCryptoTrades(sym.Alpaca, marketdata.GetCryptoTradesRequest{
			Start: cur,
			End:   end,
		})
		if err != nil {
			return fmt.Errorf("GetCryptoTrades %s [%s, %s): %w", sym.Alpaca, cur, end, err)
		}
		if len(ticks) == 0 {
			continue
		}

		trades := make([]domain.Trade, 0, len(ticks))
		for _, t := range ticks {
			trades = append(trades, domain.Trade{
				Timestamp: t.Timestamp.UnixMicro(),
				Price:     t.Price,
				Size:      t.Size,
				Side:      takerSide(t.TakerSide),
			})
		}

		if err := g.store.WriteTrades(ctx, sym.Instrument, trades); err != nil {
			return fmt.Errorf("writing trades: %w", err)
		}
		total += len(trades)
	}

	g.log.Info("symbol complete",
		"instrument", sym.Instrument,
		"trades", total,
		"elapsed", time.Since(start).Round(time.Second),
	)
	return nil
}

// takerSide maps Alpaca's single-letter taker side to the domain convention.
func takerSide(s string) string {
	switch s {
	case "B":
		return "buy"
	case "S":
		return "sell"
	default:
		return s
	}
}
