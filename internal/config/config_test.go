package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "http://127.0.0.1:9515", cfg.Driver.URL)
	assert.Equal(t, 250*time.Millisecond, cfg.Driver.PollInterval)
	assert.InDelta(t, 4.0, cfg.Driver.CommandsPerSecond, 0.001)
	assert.Equal(t, "https://sellercentral.amazon.com/", cfg.Crawl.StartURL)
	assert.Equal(t, "Zenement", cfg.Crawl.Account)
	assert.Equal(t, 50, cfg.Crawl.PageSize)
	assert.Equal(t, 2, cfg.Crawl.SettleDelaySecs)
	assert.Equal(t, 10, cfg.Crawl.WaitTimeoutSecs)
	assert.Equal(t, 3, cfg.Crawl.Retries)
	assert.Equal(t, 2, cfg.Crawl.RetryBackoffSecs)
	assert.Equal(t, "reviews", cfg.Ingest.Table)
	assert.Equal(t, "staging_reviews", cfg.Ingest.StagingTable)
	assert.False(t, cfg.Ingest.DefaultVerified)
	assert.False(t, cfg.Ingest.DefaultHelpful)
	assert.Equal(t, "parsed_data_store.json", cfg.Fallback.Path)
}

func TestLoadFromYAML(t *testing.T) {
	chdirTemp(t)

	yaml := `
store:
  database_url: postgres://localhost/reviews
log:
  level: debug
crawl:
  page_size: 25
  marketplaces: [ES, FR]
ingest:
  default_verified: true
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/reviews", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 25, cfg.Crawl.PageSize)
	assert.Equal(t, []string{"ES", "FR"}, cfg.Crawl.Marketplaces)
	assert.True(t, cfg.Ingest.DefaultVerified)
	// Defaults still apply for unset values
	assert.Equal(t, "Zenement", cfg.Crawl.Account)
	assert.Equal(t, 10, cfg.Crawl.WaitTimeoutSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chdirTemp(t)

	yaml := `
log:
  level: debug
crawl:
  page_size: 25
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("REVIEWS_LOG_LEVEL", "warn")
	t.Setenv("REVIEWS_CRAWL_PAGE_SIZE", "10")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Crawl.PageSize)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("REVIEWS_DRIVER_URL", "http://10.0.0.5:4444")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:4444", cfg.Driver.URL)
}

func TestControllerConfig(t *testing.T) {
	c := CrawlConfig{
		Account:          "Zenement",
		PageSize:         25,
		SettleDelaySecs:  3,
		WaitTimeoutSecs:  12,
		Retries:          5,
		RetryBackoffSecs: 4,
		Marketplaces:     []string{"ES", "FR"},
	}

	cc := c.ControllerConfig()
	assert.Equal(t, "Zenement", cc.Account)
	assert.Equal(t, 25, cc.PageSize)
	assert.Equal(t, 3*time.Second, cc.SettleDelay)
	assert.Equal(t, 12*time.Second, cc.WaitTimeout)
	assert.Equal(t, 5, cc.Retry.MaxAttempts)
	assert.Equal(t, 4*time.Second, cc.Retry.Backoff)
	assert.Equal(t, []string{"ES", "FR"}, cc.Marketplaces)
}

func TestControllerConfig_RetryDefaults(t *testing.T) {
	cc := CrawlConfig{}.ControllerConfig()
	assert.Equal(t, 3, cc.Retry.MaxAttempts)
	assert.Equal(t, 2*time.Second, cc.Retry.Backoff)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Driver.URL = "http://127.0.0.1:9515"
	cfg.Crawl.StartURL = "https://sellercentral.amazon.com/"
	cfg.Crawl.PageSize = 50
	cfg.Fallback.Path = "parsed_data_store.json"
	return cfg
}

func TestValidateScrape_AllPresent(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = "postgres://localhost/reviews"

	assert.NoError(t, cfg.Validate("scrape"))
}

func TestValidateScrape_MissingFields(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate("scrape")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
	assert.Contains(t, err.Error(), "driver.url is required")
	assert.Contains(t, err.Error(), "crawl.start_url is required")
}

func TestValidateScrape_PageSizeBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = "postgres://localhost/reviews"

	cfg.Crawl.PageSize = 0
	err := cfg.Validate("scrape")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "crawl.page_size must be between 1 and 100")

	cfg.Crawl.PageSize = 101
	err = cfg.Validate("scrape")
	assert.Error(t, err)

	cfg.Crawl.PageSize = 100
	assert.NoError(t, cfg.Validate("scrape"))
}

func TestValidateScrape_UnknownMarketplace(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = "postgres://localhost/reviews"
	cfg.Crawl.Marketplaces = []string{"ES", "US"}

	err := cfg.Validate("scrape")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `unknown code "US"`)
}

func TestValidateRetry_NoDB(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("retry")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")
}

func TestValidateStatus(t *testing.T) {
	cfg := &Config{}
	cfg.Store.DatabaseURL = "postgres://localhost/reviews"

	assert.NoError(t, cfg.Validate("status"))
	assert.NoError(t, cfg.Validate("migrate"))
}

func TestValidateExtract_RequiresFallbackPath(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate("extract")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "fallback.path is required")

	cfg.Fallback.Path = "out.json"
	assert.NoError(t, cfg.Validate("extract"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
