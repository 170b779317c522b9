package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
storage:
  data_dir: "/tmp/mdsim/data"
  sqlite_path: "/tmp/mdsim/mdsim.db"
server:
  host: "0.0.0.0"
  port: 8080
logging:
  level: "debug"
  format: "json"
backtest:
  action_duration_ms: 10000
  random_seed: 42
  random_intents: 100
  candle_duration_ms: 3600000
instruments:
  - id: "DOGE"
    quotes_csv: "/data/bbo_dogeusdt.csv"
    trades_csv: "/data/trades_dogeusdt.csv"
    alpaca_symbol: "DOGE/USD"
  - id: "PEPE"
    quotes_csv: "/data/bbo_1000pepeusdt.csv"
    trades_csv: "/data/trades_1000pepeusdt.csv"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Storage.DataDir != "/tmp/mdsim/data" {
		t.Errorf("DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Backtest.ActionDurationMS != 10000 {
		t.Errorf("ActionDurationMS = %d, want 10000", cfg.Backtest.ActionDurationMS)
	}
	if len(cfg.Instruments) != 2 {
		t.Fatalf("instrument count = %d, want 2", len(cfg.Instruments))
	}
	if cfg.Instruments[0].ID != "DOGE" || cfg.Instruments[0].QuotesCSV != "/data/bbo_dogeusdt.csv" {
		t.Errorf("instruments[0] = %+v", cfg.Instruments[0])
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
storage:
  data_dir: "/tmp/mdsim"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backtest.ActionDurationMS != 1000 {
		t.Errorf("default ActionDurationMS = %d, want 1000", cfg.Backtest.ActionDurationMS)
	}
	if cfg.Backtest.RandomIntents != 100 {
		t.Errorf("default RandomIntents = %d, want 100", cfg.Backtest.RandomIntents)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
storage:
  data_dir: "/from/file"
logging:
  level: "info"
`)

	t.Setenv("DATA_DIR", "/from/env")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ALPACA_API_KEY", "key-from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.DataDir != "/from/env" {
		t.Errorf("DataDir = %q, want env override", cfg.Storage.DataDir)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Alpaca.APIKey != "key-from-env" {
		t.Errorf("APIKey = %q, want env override", cfg.Alpaca.APIKey)
	}
}

func TestLoadRejectsDuplicateInstruments(t *testing.T) {
	path := writeConfig(t, `
instruments:
  - id: "DOGE"
  - id: "DOGE"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for duplicate instrument ids")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
