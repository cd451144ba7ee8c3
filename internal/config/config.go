// Package config loads application configuration from file and environment
// and owns global logger setup.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zenement/reviews-cli/internal/crawl"
	"github.com/zenement/reviews-cli/internal/ingest"
	"github.com/zenement/reviews-cli/internal/resilience"
	"github.com/zenement/reviews-cli/internal/webdriver"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig      `yaml:"store" mapstructure:"store"`
	Driver   webdriver.Config `yaml:"driver" mapstructure:"driver"`
	Crawl    CrawlConfig      `yaml:"crawl" mapstructure:"crawl"`
	Ingest   ingest.Config    `yaml:"ingest" mapstructure:"ingest"`
	Fallback FallbackConfig   `yaml:"fallback" mapstructure:"fallback"`
	Log      LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the warehouse connection.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CrawlConfig configures the crawl phase. Durations are expressed in
// seconds in the config file.
type CrawlConfig struct {
	StartURL         string   `yaml:"start_url" mapstructure:"start_url"`
	Account          string   `yaml:"account" mapstructure:"account"`
	PageSize         int      `yaml:"page_size" mapstructure:"page_size"`
	SettleDelaySecs  int      `yaml:"settle_delay_secs" mapstructure:"settle_delay_secs"`
	WaitTimeoutSecs  int      `yaml:"wait_timeout_secs" mapstructure:"wait_timeout_secs"`
	Retries          int      `yaml:"retries" mapstructure:"retries"`
	RetryBackoffSecs int      `yaml:"retry_backoff_secs" mapstructure:"retry_backoff_secs"`
	Marketplaces     []string `yaml:"marketplaces" mapstructure:"marketplaces"`
}

// ControllerConfig converts the file representation to the crawl package's
// config.
func (c CrawlConfig) ControllerConfig() crawl.Config {
	retry := resilience.DefaultRetryConfig()
	if c.Retries > 0 {
		retry.MaxAttempts = c.Retries
	}
	if c.RetryBackoffSecs > 0 {
		retry.Backoff = time.Duration(c.RetryBackoffSecs) * time.Second
	}

	return crawl.Config{
		Account:      c.Account,
		PageSize:     c.PageSize,
		SettleDelay:  time.Duration(c.SettleDelaySecs) * time.Second,
		WaitTimeout:  time.Duration(c.WaitTimeoutSecs) * time.Second,
		Retry:        retry,
		Marketplaces: c.Marketplaces,
	}
}

// FallbackConfig configures local fallback persistence.
type FallbackConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
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
	v.SetEnvPrefix("REVIEWS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("driver.url", "http://127.0.0.1:9515")
	v.SetDefault("driver.poll_interval", "250ms")
	v.SetDefault("driver.commands_per_second", 4.0)
	v.SetDefault("crawl.start_url", "https://sellercentral.amazon.com/")
	v.SetDefault("crawl.account", "Zenement")
	v.SetDefault("crawl.page_size", 50)
	v.SetDefault("crawl.settle_delay_secs", 2)
	v.SetDefault("crawl.wait_timeout_secs", 10)
	v.SetDefault("crawl.retries", 3)
	v.SetDefault("crawl.retry_backoff_secs", 2)
	v.SetDefault("ingest.table", "reviews")
	v.SetDefault("ingest.staging_table", "staging_reviews")
	v.SetDefault("ingest.default_verified", false)
	v.SetDefault("ingest.default_helpful", false)
	v.SetDefault("fallback.path", "parsed_data_store.json")

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
