// Package crawl drives pagination and marketplace iteration over the
// seller console, invoking the extractor once per rendered page.
package crawl

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/zenement/reviews-cli/internal/extract"
	"github.com/zenement/reviews-cli/internal/marketplace"
	"github.com/zenement/reviews-cli/internal/resilience"
	"github.com/zenement/reviews-cli/internal/review"
)

// Config holds crawl tunables.
type Config struct {
	// Account is the seller account title selected in the switcher.
	Account string `yaml:"account" mapstructure:"account"`

	// PageSize is the listing page size requested from the console.
	PageSize int `yaml:"page_size" mapstructure:"page_size"`

	// SettleDelay is the fixed pause after navigation and switcher
	// interactions, letting asynchronous page updates complete.
	SettleDelay time.Duration `yaml:"settle_delay" mapstructure:"settle_delay"`

	// WaitTimeout bounds each wait for review content to appear.
	WaitTimeout time.Duration `yaml:"wait_timeout" mapstructure:"wait_timeout"`

	// Retry is the bounded-retry policy for page-content waits.
	Retry resilience.RetryConfig

	// Marketplaces restricts the crawl to the given country codes; empty
	// means the full enumeration.
	Marketplaces []string `yaml:"marketplaces" mapstructure:"marketplaces"`
}

func (c Config) withDefaults() Config {
	if c.Account == "" {
		c.Account = "Zenement"
	}
	if c.PageSize <= 0 {
		c.PageSize = 50
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 2 * time.Second
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = 10 * time.Second
	}
	if len(c.Marketplaces) == 0 {
		c.Marketplaces = marketplace.Codes
	}
	return c
}

// Result is the outcome of a full multi-marketplace pass.
type Result struct {
	Reviews []review.Review
	// Samples holds the first extracted review per marketplace, shown to
	// the operator at the accept/retry gate.
	Samples map[string]review.Review
}

// Controller walks every marketplace sequentially, paginating through the
// reviews listing and accumulating extracted records.
type Controller struct {
	session Session
	cfg     Config

	// sleep is swappable for tests.
	sleep func(time.Duration)
}

// New creates a Controller over the given session.
func New(session Session, cfg Config) *Controller {
	return &Controller{
		session: session,
		cfg:     cfg.withDefaults(),
		sleep:   time.Sleep,
	}
}

// SelectEnglish switches the console display language to English, a
// precondition for parsing the attribution lines. Failures are logged and
// returned; the caller decides whether to proceed.
func (c *Controller) SelectEnglish(ctx context.Context) error {
	if err := c.session.Interact(ctx, localeIconSelector, ActionClick); err != nil {
		return eris.Wrap(err, "crawl: open locale picker")
	}
	if err := c.session.WaitFor(ctx, localeListSelector, c.cfg.WaitTimeout); err != nil {
		return eris.Wrap(err, "crawl: wait for locale list")
	}
	if err := c.session.Interact(ctx, localeEnglishXPath, ActionClick); err != nil {
		return eris.Wrap(err, "crawl: select English")
	}
	c.sleep(c.cfg.SettleDelay)
	return nil
}

// RunAll crawls the configured marketplace enumeration in order. A failure
// in any single marketplace leaves that marketplace's contribution empty
// and never aborts the whole pass.
func (c *Controller) RunAll(ctx context.Context) (Result, error) {
	result := Result{Samples: make(map[string]review.Review)}

	for _, code := range c.cfg.Marketplaces {
		if ctx.Err() != nil {
			return result, eris.Wrap(ctx.Err(), "crawl: canceled")
		}

		log := zap.L().With(zap.String("marketplace", code))

		reviews, err := c.runMarketplace(ctx, code)
		if err != nil {
			log.Error("marketplace crawl failed, skipping", zap.Error(err))
			continue
		}

		log.Info("marketplace crawl complete", zap.Int("reviews", len(reviews)))
		result.Reviews = append(result.Reviews, reviews...)
		if len(reviews) > 0 {
			result.Samples[code] = reviews[0]
		}
	}

	return result, nil
}

// runMarketplace runs the per-marketplace state flow: switch marketplace,
// load the listing, paginate.
func (c *Controller) runMarketplace(ctx context.Context, code string) ([]review.Review, error) {
	label, ok := marketplace.Name(code)
	if !ok {
		return nil, eris.Errorf("crawl: unknown marketplace %s", code)
	}

	c.sleep(c.cfg.SettleDelay)
	if err := c.switchMarketplace(ctx, label); err != nil {
		return nil, err
	}
	c.sleep(c.cfg.SettleDelay)

	listingURL, err := c.listingURL(ctx, 1)
	if err != nil {
		return nil, err
	}
	if err := c.session.Navigate(ctx, listingURL); err != nil {
		return nil, eris.Wrapf(err, "crawl: navigate to listing for %s", code)
	}

	if err := c.session.WaitFor(ctx, reviewSelector, c.cfg.WaitTimeout); err != nil {
		return nil, eris.Wrapf(err, "crawl: no review content for %s", code)
	}

	return c.paginate(ctx, code)
}

// switchMarketplace drives the account-switcher dropdown to the account
// entry and the marketplace beneath it.
func (c *Controller) switchMarketplace(ctx context.Context, label string) error {
	if err := c.session.Interact(ctx, switcherSelector, ActionClick); err != nil {
		return eris.Wrap(err, "crawl: open account switcher")
	}
	if err := c.session.WaitFor(ctx, switcherListSelector, c.cfg.WaitTimeout); err != nil {
		return eris.Wrap(err, "crawl: wait for switcher list")
	}
	if err := c.session.Interact(ctx, fmt.Sprintf(accountEntryXPath, c.cfg.Account), ActionClick); err != nil {
		return eris.Wrapf(err, "crawl: select account %s", c.cfg.Account)
	}
	if err := c.session.Interact(ctx, fmt.Sprintf(marketplaceXPath, label), ActionClick); err != nil {
		return eris.Wrapf(err, "crawl: select marketplace %s", label)
	}
	return nil
}

// paginate iterates currentPage..totalPages, waiting for review content
// with bounded retry on each page, extracting, and accumulating. Exhausted
// retries abort the marketplace and return whatever was collected so far.
func (c *Controller) paginate(ctx context.Context, code string) ([]review.Review, error) {
	total, current, err := c.pageCount(ctx)
	if err != nil {
		// Unreadable page-count indicator: assume a single page rather
		// than failing the marketplace.
		zap.L().Warn("unreadable page count, assuming one page",
			zap.String("marketplace", code), zap.Error(err))
		total, current = 1, 1
	}

	var all []review.Review
	for page := current; page <= total; page++ {
		zap.L().Info("scraping page",
			zap.String("marketplace", code),
			zap.Int("page", page),
			zap.Int("total", total),
		)

		retryCfg := c.cfg.Retry
		retryCfg.OnRetry = resilience.RetryLogger(code, page)
		waitErr := resilience.Do(ctx, retryCfg, func(ctx context.Context) error {
			if err := c.session.WaitFor(ctx, reviewSelector, c.cfg.WaitTimeout); err != nil {
				return resilience.NewTransientError(err)
			}
			return nil
		})
		if waitErr != nil {
			zap.L().Error("review content never appeared, aborting marketplace",
				zap.String("marketplace", code),
				zap.Int("page", page),
				zap.Error(waitErr),
			)
			return all, nil
		}

		markup, err := c.session.PageSource(ctx)
		if err != nil {
			return all, eris.Wrapf(err, "crawl: page source for %s page %d", code, page)
		}

		reviews, err := extract.Parse(markup)
		if err != nil {
			zap.L().Warn("page extraction failed",
				zap.String("marketplace", code),
				zap.Int("page", page),
				zap.Error(err),
			)
		} else if len(reviews) == 0 {
			zap.L().Info("no reviews found on page",
				zap.String("marketplace", code),
				zap.Int("page", page),
			)
		} else {
			all = append(all, reviews...)
		}

		if page < total {
			next, err := c.listingURL(ctx, page+1)
			if err != nil {
				return all, err
			}
			if err := c.session.Navigate(ctx, next); err != nil {
				zap.L().Error("could not navigate to next page",
					zap.String("marketplace", code),
					zap.Int("page", page+1),
					zap.Error(err),
				)
				return all, nil
			}
			c.sleep(c.cfg.SettleDelay)
		}
	}

	return all, nil
}

// pageCount reads the current and total page numbers from the pagination
// indicator in the rendered page.
func (c *Controller) pageCount(ctx context.Context) (total, current int, err error) {
	markup, err := c.session.PageSource(ctx)
	if err != nil {
		return 0, 0, eris.Wrap(err, "crawl: page source for pagination")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return 0, 0, eris.Wrap(err, "crawl: parse pagination markup")
	}

	el := doc.Find(paginationSelector).First()
	maxAttr, ok := el.Attr("aria-valuemax")
	if !ok {
		return 0, 0, eris.New("crawl: pagination indicator not found")
	}
	nowAttr, _ := el.Attr("aria-valuenow")

	total, err = strconv.Atoi(maxAttr)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "crawl: total pages %q", maxAttr)
	}
	current, err = strconv.Atoi(nowAttr)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "crawl: current page %q", nowAttr)
	}
	return total, current, nil
}

// listingURL builds the reviews listing URL for a page from the session's
// current origin.
func (c *Controller) listingURL(ctx context.Context, page int) (string, error) {
	current, err := c.session.CurrentURL(ctx)
	if err != nil {
		return "", eris.Wrap(err, "crawl: current url")
	}
	u, err := url.Parse(current)
	if err != nil {
		return "", eris.Wrapf(err, "crawl: parse current url %q", current)
	}
	origin := u.Scheme + "://" + u.Host
	return origin + fmt.Sprintf(listingPath, c.cfg.PageSize, page), nil
}
