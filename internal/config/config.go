package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	FMP        FMPConfig        `yaml:"fmp" mapstructure:"fmp"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Screener   ScreenerConfig   `yaml:"screener" mapstructure:"screener"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// FMPConfig holds Financial Modeling Prep API settings.
type FMPConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// CacheConfig configures provider-response caching.
type CacheConfig struct {
	DefaultTTLHours    int `yaml:"default_ttl_hours" mapstructure:"default_ttl_hours"`
	IntradayTTLMinutes int `yaml:"intraday_ttl_minutes" mapstructure:"intraday_ttl_minutes"`
	UniverseTTLMinutes int `yaml:"universe_ttl_minutes" mapstructure:"universe_ttl_minutes"`
}

// ScreenerConfig configures peer screening.
type ScreenerConfig struct {
	MaxIndustryPeers int     `yaml:"max_industry_peers" mapstructure:"max_industry_peers"`
	MinPeers         int     `yaml:"min_peers" mapstructure:"min_peers"`
	MarketCapFloor   float64 `yaml:"market_cap_floor" mapstructure:"market_cap_floor"`
	BatchSize        int     `yaml:"batch_size" mapstructure:"batch_size"`
	BatchDelayMillis int     `yaml:"batch_delay_millis" mapstructure:"batch_delay_millis"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FINHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("store.database_url", "")
	v.SetDefault("fmp.key", "")
	v.SetDefault("fmp.base_url", "https://financialmodelingprep.com/api/v3")
	v.SetDefault("fmp.rate_per_sec", 10)
	v.SetDefault("fmp.timeout_secs", 30)
	v.SetDefault("perplexity.key", "")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar")
	v.SetDefault("cache.default_ttl_hours", 24)
	v.SetDefault("cache.intraday_ttl_minutes", 5)
	v.SetDefault("cache.universe_ttl_minutes", 60)
	v.SetDefault("screener.max_industry_peers", 8)
	v.SetDefault("screener.min_peers", 5)
	v.SetDefault("screener.market_cap_floor", 1e8)
	v.SetDefault("screener.batch_size", 5)
	v.SetDefault("screener.batch_delay_millis", 1000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
