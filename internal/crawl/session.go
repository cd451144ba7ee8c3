package crawl

import (
	"context"
	"time"
)

// Action is a UI interaction performed on a located element.
type Action string

const (
	// ActionClick clicks the first element matching the selector.
	ActionClick Action = "click"
)

// Session is the page-rendering collaborator the controller drives. The
// core depends only on these five operations; session bootstrap and login
// are the caller's concern. Selectors are CSS, or XPath when prefixed
// with "//".
type Session interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	PageSource(ctx context.Context) (string, error)
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	Interact(ctx context.Context, selector string, action Action) error
}

// Console element selectors. The account switcher and locale picker only
// distinguish entries by their title/text, hence the XPath entries.
const (
	reviewSelector       = ".reviewContainer"
	paginationSelector   = ".css-9ymdzb"
	switcherSelector     = ".dropdown-account-switcher-header-label"
	switcherListSelector = ".dropdown-account-switcher-list-scrollable"
	accountEntryXPath    = `//div[@class="dropdown-account-switcher-list-item" and @title=%q]`
	marketplaceXPath     = `//div[contains(@class, "dropdown-account-switcher-list-item-indented") and @title=%q]`
	localeIconSelector   = ".locale-icon-wrapper"
	localeListSelector   = ".locale-list-body"
	localeEnglishXPath   = `//a[@class="locale-list-item" and .//div[@class="locale-list-item-language" and normalize-space(text())="English"]]`
)

// listingPath is the reviews listing endpoint relative to the console
// origin, parameterized by page size and page number.
const listingPath = "/brand-customer-reviews/ref=xx_crvws_foot_xx?pageSize=%d&pageNumber=%d"
