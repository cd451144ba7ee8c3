package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/zenement/reviews-cli/internal/marketplace"
)

// Validate checks that the configuration a command mode depends on is
// present and in range. Modes map one-to-one to CLI commands.
func (c *Config) Validate(mode string) error {
	var problems []string

	warehouse := func() {
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	}
	fallback := func() {
		if c.Fallback.Path == "" {
			problems = append(problems, "fallback.path is required")
		}
	}
	crawl := func() {
		if c.Driver.URL == "" {
			problems = append(problems, "driver.url is required")
		}
		if c.Crawl.StartURL == "" {
			problems = append(problems, "crawl.start_url is required")
		}
		if c.Crawl.PageSize < 1 || c.Crawl.PageSize > 100 {
			problems = append(problems, "crawl.page_size must be between 1 and 100")
		}
		for _, code := range c.Crawl.Marketplaces {
			if _, ok := marketplace.Name(code); !ok {
				problems = append(problems, fmt.Sprintf("crawl.marketplaces: unknown code %q", code))
			}
		}
	}

	switch mode {
	case "scrape":
		crawl()
		warehouse()
		fallback()
	case "retry":
		warehouse()
		fallback()
	case "migrate", "status":
		warehouse()
	case "extract":
		fallback()
	default:
		return eris.Errorf("unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}
