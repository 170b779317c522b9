package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for mdsim.
type Config struct {
	Storage     Storage            `yaml:"storage"`
	Server      Server             `yaml:"server"`
	Alpaca      Alpaca             `yaml:"alpaca"`
	Logging     Logging            `yaml:"logging"`
	Backtest    Backtest           `yaml:"backtest"`
	Instruments []InstrumentConfig `yaml:"instruments"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds network listener configuration for mdsim-server.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Alpaca holds credentials and endpoint for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Backtest holds simulator parameters.
type Backtest struct {
	// ActionDurationMS is the per-action time budget in milliseconds; the
	// simulator converts it to microseconds.
	ActionDurationMS int64 `yaml:"action_duration_ms"`
	// RandomSeed drives the random intent generator.
	RandomSeed int64 `yaml:"random_seed"`
	// RandomIntents is how many intents the random generator produces.
	RandomIntents int `yaml:"random_intents"`
	// CandleDurationMS is the candle width used by the lookahead generator.
	CandleDurationMS int64 `yaml:"candle_duration_ms"`
}

// InstrumentConfig names an instrument and where its historical data lives.
// The original data paths were environment variables; they are explicit
// configuration here so the core never reads process state.
type InstrumentConfig struct {
	ID           string `yaml:"id"`
	QuotesCSV    string `yaml:"quotes_csv"`
	TradesCSV    string `yaml:"trades_csv"`
	AlpacaSymbol string `yaml:"alpaca_symbol"` // e.g. "DOGE/USD", used by mdsim-gather
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides, and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}

	// Standard Alpaca env vars (highest priority — canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Backtest.ActionDurationMS == 0 {
		cfg.Backtest.ActionDurationMS = 1000
	}
	if cfg.Backtest.RandomIntents == 0 {
		cfg.Backtest.RandomIntents = 100
	}
	if cfg.Backtest.CandleDurationMS == 0 {
		cfg.Backtest.CandleDurationMS = 60 * 60 * 1000 // 1h candles
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func (cfg *Config) validate() error {
	if cfg.Backtest.ActionDurationMS < 0 {
		return fmt.Errorf("backtest.action_duration_ms must not be negative")
	}
	seen := make(map[string]bool, len(cfg.Instruments))
	for _, inst := range cfg.Instruments {
		if inst.ID == "" {
			return fmt.Errorf("instrument with empty id")
		}
		if seen[inst.ID] {
			return fmt.Errorf("duplicate instrument id %q", inst.ID)
		}
		seen[inst.ID] = true
	}
	return nil
}
