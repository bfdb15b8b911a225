package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pairwatch/internal/scoring"
)

// Config represents the complete application configuration
type Config struct {
	Chains   []ChainConfig  `mapstructure:"chains"`
	Scanner  ScannerConfig  `mapstructure:"scanner"`
	Source   SourceConfig   `mapstructure:"source"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ChainConfig describes one monitored network. Loaded once at startup and
// never mutated afterwards.
type ChainConfig struct {
	Name    string `mapstructure:"name"`
	Enabled bool   `mapstructure:"enabled"`

	// Endpoints are complete upstream query URLs. Results from multiple
	// endpoints are merged, first seen wins.
	Endpoints []string `mapstructure:"endpoints"`

	// ExplorerURL is a template with a single %s for the token address.
	ExplorerURL string `mapstructure:"explorer_url"`

	// OracleURL is a template with a single %s for the token address.
	// Empty disables the security oracle for this chain.
	OracleURL string `mapstructure:"oracle_url"`

	MinLiquidityUSD float64       `mapstructure:"min_liquidity_usd"`
	MinVolumeUSD    float64       `mapstructure:"min_volume_usd"`
	MinAge          time.Duration `mapstructure:"min_age"`
	MaxAge          time.Duration `mapstructure:"max_age"`
	TrustedDexes    []string      `mapstructure:"trusted_dexes"`
	AlertThreshold  float64       `mapstructure:"alert_threshold"`

	Scoring scoring.Params `mapstructure:"scoring"`
}

// ChainParams bundles this chain's scoring inputs for the engine.
func (c ChainConfig) ChainParams() scoring.ChainParams {
	return scoring.ChainParams{
		Params:       c.Scoring,
		TrustedDexes: c.TrustedDexes,
		Threshold:    c.AlertThreshold,
		MinAge:       c.MinAge,
		MaxAge:       c.MaxAge,
	}
}

// ScannerConfig holds scan-cycle behavior configuration
type ScannerConfig struct {
	// MinDelay and MaxDelay bound the jittered sleep between cycles.
	MinDelay time.Duration `mapstructure:"min_delay"`
	MaxDelay time.Duration `mapstructure:"max_delay"`

	// Timeout bounds every outbound network call.
	Timeout time.Duration `mapstructure:"timeout"`

	// FetchCap caps how many candidates one source call may return.
	FetchCap int `mapstructure:"fetch_cap"`

	// MaxConsecutiveFailures is how many fully failed cycles are
	// tolerated before the process exits non-zero.
	MaxConsecutiveFailures int `mapstructure:"max_consecutive_failures"`

	// MaxFlushFailures is how many consecutive ledger-flush failures are
	// tolerated before the process exits non-zero.
	MaxFlushFailures int `mapstructure:"max_flush_failures"`
}

// SourceConfig holds HTTP client tuning for the market-data source
type SourceConfig struct {
	MaxRetries          int           `mapstructure:"max_retries"`
	RetryDelayBase      time.Duration `mapstructure:"retry_delay_base"`
	MaxIdleConns        int           `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds storage and persistence configuration
type StorageConfig struct {
	DBPath    string `mapstructure:"db_path"`
	MaxAlerts int    `mapstructure:"max_alerts"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvPrefix("PAIRWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyChainDefaults()

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Scanner defaults
	v.SetDefault("scanner.min_delay", "4m")
	v.SetDefault("scanner.max_delay", "6m")
	v.SetDefault("scanner.timeout", "15s")
	v.SetDefault("scanner.fetch_cap", 30)
	v.SetDefault("scanner.max_consecutive_failures", 5)
	v.SetDefault("scanner.max_flush_failures", 3)

	// Source defaults
	v.SetDefault("source.max_retries", 3)
	v.SetDefault("source.retry_delay_base", "1s")
	v.SetDefault("source.max_idle_conns", 10)
	v.SetDefault("source.max_idle_conns_per_host", 10)
	v.SetDefault("source.idle_conn_timeout", "90s")

	// Telegram defaults
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Storage defaults
	v.SetDefault("storage.db_path", "")
	v.SetDefault("storage.max_alerts", 500)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// applyChainDefaults fills unset per-chain fields after unmarshalling:
// viper defaults cannot reach into list elements.
func (c *Config) applyChainDefaults() {
	stock := scoring.DefaultParams()
	for i := range c.Chains {
		ch := &c.Chains[i]
		if ch.MaxAge == 0 {
			ch.MaxAge = 24 * time.Hour
		}
		if ch.AlertThreshold == 0 {
			ch.AlertThreshold = 5
		}
		if len(ch.Scoring.LiquiditySteps) == 0 {
			ch.Scoring.LiquiditySteps = stock.LiquiditySteps
		}
		if len(ch.Scoring.VolumeSteps) == 0 {
			ch.Scoring.VolumeSteps = stock.VolumeSteps
		}
		if len(ch.Scoring.AgeBands) == 0 {
			ch.Scoring.AgeBands = stock.AgeBands
		}
		if ch.Scoring.TrustedDexPoints == 0 {
			ch.Scoring.TrustedDexPoints = stock.TrustedDexPoints
		}
		if ch.Scoring.TrapPenalty == 0 {
			ch.Scoring.TrapPenalty = stock.TrapPenalty
		}
		if ch.Scoring.LowFrictionPoints == 0 {
			ch.Scoring.LowFrictionPoints = stock.LowFrictionPoints
		}
		if ch.Scoring.MaxTaxPct == 0 {
			ch.Scoring.MaxTaxPct = stock.MaxTaxPct
		}
	}
}

// EnabledChains returns the chains to scan this cycle.
func (c *Config) EnabledChains() []ChainConfig {
	var out []ChainConfig
	for _, ch := range c.Chains {
		if ch.Enabled {
			out = append(out, ch)
		}
	}
	return out
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if len(c.Chains) == 0 {
		return fmt.Errorf("chains must contain at least one network")
	}
	seen := make(map[string]bool)
	for i, ch := range c.Chains {
		if ch.Name == "" {
			return fmt.Errorf("chains[%d].name is required", i)
		}
		if seen[ch.Name] {
			return fmt.Errorf("chains[%d]: duplicate chain name %q", i, ch.Name)
		}
		seen[ch.Name] = true
		if !ch.Enabled {
			continue
		}
		if len(ch.Endpoints) == 0 {
			return fmt.Errorf("chain %s: endpoints must contain at least one URL", ch.Name)
		}
		if ch.MinLiquidityUSD < 0 {
			return fmt.Errorf("chain %s: min_liquidity_usd must not be negative", ch.Name)
		}
		if ch.MinVolumeUSD < 0 {
			return fmt.Errorf("chain %s: min_volume_usd must not be negative", ch.Name)
		}
		if ch.MinAge < 0 {
			return fmt.Errorf("chain %s: min_age must not be negative", ch.Name)
		}
		if ch.MaxAge <= ch.MinAge {
			return fmt.Errorf("chain %s: max_age must be greater than min_age", ch.Name)
		}
		if ch.AlertThreshold <= 0 {
			return fmt.Errorf("chain %s: alert_threshold must be positive", ch.Name)
		}
		if ch.ExplorerURL != "" && strings.Count(ch.ExplorerURL, "%s") != 1 {
			return fmt.Errorf("chain %s: explorer_url must contain exactly one %%s", ch.Name)
		}
		if ch.OracleURL != "" && strings.Count(ch.OracleURL, "%s") != 1 {
			return fmt.Errorf("chain %s: oracle_url must contain exactly one %%s", ch.Name)
		}
		if err := ch.Scoring.Validate(); err != nil {
			return fmt.Errorf("chain %s: %w", ch.Name, err)
		}
	}

	// Validate Scanner config
	if c.Scanner.MinDelay < 10*time.Second {
		return fmt.Errorf("scanner.min_delay must be at least 10 seconds")
	}
	if c.Scanner.MaxDelay < c.Scanner.MinDelay {
		return fmt.Errorf("scanner.max_delay must not be less than min_delay")
	}
	if c.Scanner.Timeout < 1*time.Second {
		return fmt.Errorf("scanner.timeout must be at least 1 second")
	}
	if c.Scanner.FetchCap < 1 || c.Scanner.FetchCap > 100 {
		return fmt.Errorf("scanner.fetch_cap must be between 1 and 100")
	}
	if c.Scanner.MaxConsecutiveFailures < 1 {
		return fmt.Errorf("scanner.max_consecutive_failures must be at least 1")
	}
	if c.Scanner.MaxFlushFailures < 1 {
		return fmt.Errorf("scanner.max_flush_failures must be at least 1")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Storage config
	if c.Storage.MaxAlerts < 1 {
		return fmt.Errorf("storage.max_alerts must be at least 1")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
