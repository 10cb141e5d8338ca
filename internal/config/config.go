package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vortex-trading/vortex/internal/narrative"
	"github.com/vortex-trading/vortex/internal/pricing"
	"github.com/vortex-trading/vortex/internal/selector"
	"github.com/vortex-trading/vortex/internal/trading"
)

// Config is the root configuration structure for Vortex.
type Config struct {
	General    GeneralConfig     `yaml:"general"`
	Engine     EngineConfig      `yaml:"engine"`
	Trading    TradingConfig     `yaml:"trading"`
	Exits      trading.ExitConfig `yaml:"exits"`
	Selector   selector.Config   `yaml:"selector"`
	Pricing    PricingConfig     `yaml:"pricing"`
	Advisory   AdvisoryConfig    `yaml:"advisory"`
	Narratives narrative.Lexicon `yaml:"narratives"`
	Telemetry  TelemetryConfig   `yaml:"telemetry"`
	Kafka      KafkaConfig       `yaml:"kafka"`
	Telegram   TelegramConfig    `yaml:"telegram"`
}

type GeneralConfig struct {
	InstanceID string `yaml:"instance_id"`
	LogLevel   string `yaml:"log_level"`
	LogFormat  string `yaml:"log_format"` // json|console
}

type EngineConfig struct {
	ScanInterval     time.Duration `yaml:"scan_interval"`
	TickInterval     time.Duration `yaml:"tick_interval"`
	ResearchInterval time.Duration `yaml:"research_interval"`
	ProviderTimeout  time.Duration `yaml:"provider_timeout"`
}

type TradingConfig struct {
	StartingBalanceUSD float64 `yaml:"starting_balance_usd"`
	FeeRate            float64 `yaml:"fee_rate"` // fraction, e.g. 0.003
	MaxPositions       int     `yaml:"max_positions"`
	MinPositionUSD     float64 `yaml:"min_position_usd"`
	MaxPositionPct     float64 `yaml:"max_position_pct"` // of balance, per buy
}

type PricingConfig struct {
	Mode       string             `yaml:"mode"` // simulated|feed
	Seed       int64              `yaml:"seed"`
	Volatility pricing.Volatility `yaml:"volatility"`
}

type AdvisoryConfig struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
}

type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type KafkaConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Brokers     []string `yaml:"brokers"`
	TopicPrefix string   `yaml:"topic_prefix"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  int64  `yaml:"chat_id"`
}

// Load reads and parses a YAML configuration file. Environment variables
// in the file are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// Default returns a fully defaulted configuration, used when no config
// file is supplied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.General.InstanceID == "" {
		cfg.General.InstanceID = "vortex-1"
	}
	if cfg.General.LogLevel == "" {
		cfg.General.LogLevel = "info"
	}
	if cfg.General.LogFormat == "" {
		cfg.General.LogFormat = "json"
	}
	if cfg.Engine.ScanInterval == 0 {
		cfg.Engine.ScanInterval = 10 * time.Second
	}
	if cfg.Engine.TickInterval == 0 {
		cfg.Engine.TickInterval = 2 * time.Second
	}
	if cfg.Engine.ResearchInterval == 0 {
		cfg.Engine.ResearchInterval = time.Hour
	}
	if cfg.Engine.ProviderTimeout == 0 {
		cfg.Engine.ProviderTimeout = 8 * time.Second
	}
	if cfg.Trading.StartingBalanceUSD == 0 {
		cfg.Trading.StartingBalanceUSD = 1000
	}
	if cfg.Trading.FeeRate == 0 {
		cfg.Trading.FeeRate = 0.003
	}
	if cfg.Trading.MaxPositions == 0 {
		cfg.Trading.MaxPositions = 5
	}
	if cfg.Trading.MinPositionUSD == 0 {
		cfg.Trading.MinPositionUSD = 50
	}
	if cfg.Trading.MaxPositionPct == 0 {
		cfg.Trading.MaxPositionPct = 20
	}
	if cfg.Exits == (trading.ExitConfig{}) {
		cfg.Exits = trading.DefaultExitConfig()
	}
	if cfg.Selector == (selector.Config{}) {
		cfg.Selector = selector.DefaultConfig()
	}
	if cfg.Pricing.Mode == "" {
		cfg.Pricing.Mode = "simulated"
	}
	if cfg.Pricing.Seed == 0 {
		cfg.Pricing.Seed = time.Now().UnixNano()
	}
	if cfg.Pricing.Volatility == (pricing.Volatility{}) {
		cfg.Pricing.Volatility = pricing.DefaultVolatility()
	}
	if cfg.Advisory.Timeout == 0 {
		cfg.Advisory.Timeout = 5 * time.Second
	}
	if len(cfg.Narratives) == 0 {
		cfg.Narratives = narrative.DefaultLexicon()
	}
	if cfg.Telemetry.Addr == "" {
		cfg.Telemetry.Addr = ":8787"
	}
	if cfg.Kafka.TopicPrefix == "" {
		cfg.Kafka.TopicPrefix = "vortex"
	}
}

// Validate checks invariants that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Trading.StartingBalanceUSD < 0 {
		return fmt.Errorf("trading.starting_balance_usd must be >= 0")
	}
	if c.Trading.FeeRate < 0 || c.Trading.FeeRate >= 1 {
		return fmt.Errorf("trading.fee_rate must be in [0, 1)")
	}
	if c.Trading.MaxPositionPct <= 0 || c.Trading.MaxPositionPct > 100 {
		return fmt.Errorf("trading.max_position_pct must be in (0, 100]")
	}
	switch c.Pricing.Mode {
	case "simulated", "feed":
	default:
		return fmt.Errorf("pricing.mode must be simulated or feed, got %q", c.Pricing.Mode)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka.enabled")
	}
	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required when telegram.enabled")
	}
	return nil
}
