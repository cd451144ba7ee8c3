// Package webdriver is a thin W3C WebDriver client over net/http. It talks
// to an already-running driver endpoint (e.g. chromedriver) and implements
// the page-rendering session the crawl controller depends on. Browser
// install and profile management stay outside this module.
package webdriver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/zenement/reviews-cli/internal/crawl"
	"github.com/zenement/reviews-cli/internal/resilience"
)

// elementKey is the W3C web element identifier key.
const elementKey = "element-6066-11e4-a852-e17d-ebc2c9a66f5c"

// Config holds driver endpoint settings.
type Config struct {
	// URL is the WebDriver remote end, e.g. http://127.0.0.1:9515.
	URL string `yaml:"url" mapstructure:"url"`

	// PollInterval is the element-polling cadence inside WaitFor.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`

	// CommandsPerSecond paces driver commands; zero disables pacing.
	CommandsPerSecond float64 `yaml:"commands_per_second" mapstructure:"commands_per_second"`
}

// Client is a WebDriver session. It satisfies crawl.Session.
type Client struct {
	base      string
	http      *http.Client
	limiter   *rate.Limiter
	poll      time.Duration
	sessionID string
}

// APIError is returned when the driver responds with a non-2xx status.
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("webdriver: HTTP %d %s: %s", e.StatusCode, e.ErrorCode, e.Message)
}

// IsNoSuchElement reports whether err is the driver's "no such element"
// response.
func IsNoSuchElement(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == "no such element"
}

// New creates a Client for the given driver endpoint. Start must be called
// before any session operation.
func New(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = "http://127.0.0.1:9515"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.CommandsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.CommandsPerSecond), 1)
	}

	return &Client{
		base: strings.TrimRight(cfg.URL, "/"),
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: limiter,
		poll:    cfg.PollInterval,
	}
}

type newSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// Start opens a new browser session.
func (c *Client) Start(ctx context.Context) error {
	body := map[string]any{
		"capabilities": map[string]any{
			"alwaysMatch": map[string]any{"browserName": "chrome"},
		},
	}

	var resp newSessionResponse
	if err := c.command(ctx, http.MethodPost, "/session", body, &resp); err != nil {
		return eris.Wrap(err, "webdriver: new session")
	}
	if resp.SessionID == "" {
		return eris.New("webdriver: new session returned no session id")
	}
	c.sessionID = resp.SessionID

	zap.L().Debug("webdriver session started", zap.String("session", c.sessionID))
	return nil
}

// Stop ends the browser session. Safe to call when no session is open.
func (c *Client) Stop(ctx context.Context) error {
	if c.sessionID == "" {
		return nil
	}
	err := c.command(ctx, http.MethodDelete, "/session/"+c.sessionID, nil, nil)
	c.sessionID = ""
	if err != nil {
		return eris.Wrap(err, "webdriver: delete session")
	}
	return nil
}

// Navigate loads the given URL.
func (c *Client) Navigate(ctx context.Context, url string) error {
	body := map[string]string{"url": url}
	if err := c.command(ctx, http.MethodPost, c.sessionPath("/url"), body, nil); err != nil {
		return eris.Wrapf(err, "webdriver: navigate %s", url)
	}
	return nil
}

// CurrentURL returns the browser's current URL.
func (c *Client) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := c.command(ctx, http.MethodGet, c.sessionPath("/url"), nil, &url); err != nil {
		return "", eris.Wrap(err, "webdriver: current url")
	}
	return url, nil
}

// PageSource returns the full rendered markup of the current page.
func (c *Client) PageSource(ctx context.Context) (string, error) {
	var source string
	if err := c.command(ctx, http.MethodGet, c.sessionPath("/source"), nil, &source); err != nil {
		return "", eris.Wrap(err, "webdriver: page source")
	}
	return source, nil
}

// WaitFor polls for an element matching selector until it appears or the
// timeout elapses. A timeout is reported as a transient error so callers
// can retry it.
func (c *Client) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		_, err := c.findElement(ctx, selector)
		if err == nil {
			return nil
		}
		if !IsNoSuchElement(err) {
			return err
		}

		if time.Now().After(deadline) {
			return resilience.NewTransientError(
				eris.Errorf("webdriver: timed out waiting for %q", selector))
		}

		timer := time.NewTimer(c.poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return eris.Wrap(ctx.Err(), "webdriver: wait canceled")
		case <-timer.C:
		}
	}
}

// Interact locates the first element matching selector and performs the
// given action on it.
func (c *Client) Interact(ctx context.Context, selector string, action crawl.Action) error {
	id, err := c.findElement(ctx, selector)
	if err != nil {
		return eris.Wrapf(err, "webdriver: locate %q", selector)
	}

	switch action {
	case crawl.ActionClick:
		path := c.sessionPath("/element/" + id + "/click")
		if err := c.command(ctx, http.MethodPost, path, map[string]any{}, nil); err != nil {
			return eris.Wrapf(err, "webdriver: click %q", selector)
		}
		return nil
	default:
		return eris.Errorf("webdriver: unsupported action %q", action)
	}
}

// findElement returns the element id of the first match. Selectors
// prefixed with "//" are treated as XPath, everything else as CSS.
func (c *Client) findElement(ctx context.Context, selector string) (string, error) {
	using := "css selector"
	if strings.HasPrefix(selector, "//") {
		using = "xpath"
	}

	body := map[string]string{"using": using, "value": selector}
	var el map[string]string
	if err := c.command(ctx, http.MethodPost, c.sessionPath("/element"), body, &el); err != nil {
		return "", err
	}

	id, ok := el[elementKey]
	if !ok || id == "" {
		return "", eris.Errorf("webdriver: element response missing id for %q", selector)
	}
	return id, nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/session/" + c.sessionID + suffix
}

// wireValue is the W3C response envelope. Success payloads and error
// payloads both live under "value".
type wireValue struct {
	Value json.RawMessage `json:"value"`
}

type wireError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// command runs one WebDriver command, honoring the pacing limiter, and
// decodes the response value into out when non-nil.
func (c *Client) command(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "webdriver: limiter wait")
	}

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "webdriver: marshal request")
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reqBody)
	if err != nil {
		return eris.Wrap(err, "webdriver: create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "webdriver: execute request")
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "webdriver: read response")
	}

	var envelope wireValue
	if len(data) > 0 {
		if err := json.Unmarshal(data, &envelope); err != nil {
			return eris.Wrapf(err, "webdriver: decode response for %s", path)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var we wireError
		_ = json.Unmarshal(envelope.Value, &we)
		return &APIError{StatusCode: resp.StatusCode, ErrorCode: we.Error, Message: we.Message}
	}

	if out != nil && len(envelope.Value) > 0 {
		if err := json.Unmarshal(envelope.Value, out); err != nil {
			return eris.Wrapf(err, "webdriver: decode value for %s", path)
		}
	}
	return nil
}
