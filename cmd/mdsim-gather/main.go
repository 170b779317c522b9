package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mdsim/internal/config"
	"mdsim/internal/gather"
	"mdsim/internal/store"
	"mdsim/internal/util"
)

func main() {
	startStr := flag.String("start", "", "range start (YYYY-MM-DD, UTC)")
	endStr := flag.String("end", "", "range end (YYYY-MM-DD, UTC), defaults to now")
	quotesOnly := flag.Bool("quotes-only", false, "skip the trade gatherer")
	flag.Parse()

	cfgPath := "config/mdsim.yaml"
	if p := os.Getenv("MDSIM_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	window, err := parseRange(*startStr, *endStr)
	if err != nil {
		log.Fatalf("invalid range: %v", err)
	}

	var symbols []gather.Symbol
	for _, instr := range cfg.Instruments {
		if instr.AlpacaSymbol == "" {
			continue
		}
		symbols = append(symbols, gather.Symbol{Instrument: instr.ID, Alpaca: instr.AlpacaSymbol})
	}
	if len(symbols) == 0 {
		log.Fatal("no instruments with an alpaca_symbol configured")
	}

	pstore := store.NewParquetStore(cfg.Storage.DataDir)

	gatherers := []gather.Gatherer{
		gather.NewQuoteGatherer(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL, pstore, symbols, window),
	}
	if !*quotesOnly {
		gatherers = append(gatherers,
			gather.NewTradeGatherer(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL, pstore, symbols, window))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting gather", "start", window.Start, "end", window.End, "symbols", len(symbols))
	for _, g := range gatherers {
		if err := g.Run(ctx); err != nil {
			log.Fatalf("%s: %v", g.Name(), err)
		}
	}
}

func parseRange(startStr, endStr string) (gather.DateRange, error) {
	var window gather.DateRange

	start, err := time.ParseInLocation("2006-01-02", startStr, time.UTC)
	if err != nil {
		return window, err
	}
	window.Start = start

	window.End = time.Now().UTC()
	if endStr != "" {
		end, err := time.ParseInLocation("2006-01-02", endStr, time.UTC)
		if err != nil {
			return window, err
		}
		window.End = end
	}
	return window, nil
}
