package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"github.com/google/uuid"

	"mdsim/internal/candles"
	"mdsim/internal/config"
	"mdsim/internal/domain"
	"mdsim/internal/marketdata"
	"mdsim/internal/metrics"
	"mdsim/internal/sim"
	"mdsim/internal/store"
	"mdsim/internal/strategy"
	"mdsim/internal/util"
)

// lookaheadAmount is the fixed per-intent size the lookahead generator trades.
const lookaheadAmount = 1000

func main() {
	strategyName := flag.String("strategy", "random", "intent generator to run")
	maxAmount := flag.Int("max-amount", 10, "amount bound for the random generator")
	riskFree := flag.Float64("risk-free", 0, "daily risk-free rate for Sharpe/Sortino")
	save := flag.Bool("save", false, "persist the run to the SQLite store")
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

	marketData := make(marketdata.Set)
	tradesByInstr := make(map[string][]domain.Trade)
	for _, instr := range cfg.Instruments {
		series, err := marketdata.ReadQuotesCSV(instr.QuotesCSV)
		if err != nil {
			log.Fatalf("loading quotes for %s: %v", instr.ID, err)
		}
		marketData[instr.ID] = series

		if instr.TradesCSV != "" {
			trades, err := marketdata.ReadTradesCSV(instr.TradesCSV)
			if err != nil {
				log.Fatalf("loading trades for %s: %v", instr.ID, err)
			}
			tradesByInstr[instr.ID] = trades
		}
	}

	start, end, ok := marketData.TimeBounds()
	if !ok {
		log.Fatal("no market data loaded")
	}

	candleWidth := time.Duration(cfg.Backtest.CandleDurationMS) * time.Millisecond
	universe := strategy.Universe{
		Instruments: marketData.Instruments(),
		TimeStart:   start,
		TimeEnd:     end,
		Candles:     make(map[string][]candles.Candle),
	}
	for id, trades := range tradesByInstr {
		universe.Candles[id] = candles.Make(trades, candleWidth)
	}

	registry := strategy.NewRegistry()
	registry.Register(strategy.NewRandom(cfg.Backtest.RandomIntents, *maxAmount, cfg.Backtest.RandomSeed))
	registry.Register(strategy.NewLookahead(lookaheadAmount))

	gen, ok := registry.Get(*strategyName)
	if !ok {
		log.Fatalf("unknown strategy %q, available: %v", *strategyName, registry.List())
	}

	intents, err := gen.Generate(context.Background(), universe)
	if err != nil {
		log.Fatalf("generating intents: %v", err)
	}
	logger.Info("generated intents", "strategy", gen.Name(), "count", len(intents))

	bt := sim.NewBacktester(cfg.Backtest.ActionDurationMS, logger)
	result := bt.Run(intents, map[string]domain.Series(marketData))

	report := metrics.Compute(result.History, universe.Instruments, *riskFree)
	printReport(result, report, universe.Instruments)

	if *save {
		run := &store.Run{
			ID:               uuid.NewString(),
			Strategy:         gen.Name(),
			CreatedAt:        time.Now().UTC(),
			ActionDurationMS: cfg.Backtest.ActionDurationMS,
			PnL:              result.PnL,
			Positions:        result.Positions,
			Fills:            result.History.Records,
		}
		db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("opening run store: %v", err)
		}
		defer db.Close()
		if err := db.SaveRun(context.Background(), run); err != nil {
			log.Fatalf("saving run: %v", err)
		}
		logger.Info("run saved", "id", run.ID)
	}
}

func printReport(result domain.RunResult, report *metrics.Report, instruments []string) {
	fmt.Printf("total pnl:     %.4f\n", report.TotalPnL)
	fmt.Printf("max drawdown:  %.4f\n", report.MaxDrawdown)
	for _, id := range instruments {
		fmt.Printf("\n%s\n", id)
		fmt.Printf("  position:       %.4f\n", result.Positions[id])
		fmt.Printf("  traded volume:  %.4f\n", report.TradedVolume[id])
		fmt.Printf("  flips:          %d\n", report.Flips[id])
		printRatio("sharpe", report.Sharpe[id])
		printRatio("sortino", report.Sortino[id])
		if report.AvgHoldingTimeOK[id] {
			fmt.Printf("  avg holding:    %s\n", report.AvgHoldingTime[id])
		} else {
			fmt.Printf("  avg holding:    n/a\n")
		}
	}
}

func printRatio(name string, v float64) {
	if math.IsNaN(v) {
		fmt.Printf("  %-15s n/a\n", name+":")
		return
	}
	fmt.Printf("  %-15s %.4f\n", name+":", v)
}
