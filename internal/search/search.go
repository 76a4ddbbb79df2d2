// Package search provides a web search client backed by the Qwant API.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Balogunolalere/Thoughbot/internal/flow"
	"github.com/Balogunolalere/Thoughbot/internal/logging"
)

const baseURL = "https://api.qwant.com/v3/search/web"

// The Qwant web endpoint rejects requests without browser-looking
// headers and consent cookies.
var defaultHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:141.0) Gecko/20100101 Firefox/141.0",
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "en-US,en;q=0.5",
	"Referer":         "https://www.qwant.com/",
	"Origin":          "https://www.qwant.com",
	"DNT":             "1",
	"Cache-Control":   "no-cache",
}

// Result is one parsed web search result.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"desc"`
}

// Options tune one search call.
type Options struct {
	Count      int    // must be 10 (API requirement)
	Offset     int    // multiple of 10, 0..40
	Locale     string // lowercase locale code, e.g. "en_gb"
	SafeSearch int    // 0, 1 or 2
}

func (o *Options) applyDefaults() {
	if o.Count == 0 {
		o.Count = 10
	}
	if o.Locale == "" {
		o.Locale = "en_gb"
	}
}

func (o *Options) validate() error {
	if o.Count != 10 {
		return fmt.Errorf("search: count must be 10, got %d", o.Count)
	}
	if o.Offset%10 != 0 {
		return fmt.Errorf("search: offset must be a multiple of 10, got %d", o.Offset)
	}
	if o.Offset < 0 || o.Offset > 40 {
		return fmt.Errorf("search: offset must be between 0 and 40, got %d", o.Offset)
	}
	if o.SafeSearch < 0 || o.SafeSearch > 2 {
		return fmt.Errorf("search: safesearch must be 0, 1 or 2, got %d", o.SafeSearch)
	}
	return nil
}

// Client is a reusable Qwant search client.
type Client struct {
	httpClient *http.Client
	cookies    map[string]string
	endpoint   string
	maxRetries int
	delay      time.Duration
	logger     *logging.Logger
}

// New creates a search client. Cookies may be nil; Qwant usually
// answers anonymous requests but consent cookies reduce 429s. Transient
// failures are retried up to maxRetries attempts with exponential
// backoff.
func New(timeout time.Duration, maxRetries int, cookies map[string]string) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		cookies:    cookies,
		endpoint:   baseURL,
		maxRetries: maxRetries,
		delay:      time.Second,
		logger:     logging.New().WithComponent("search"),
	}
}

// SetDelay overrides the base retry delay, for tests.
func (c *Client) SetDelay(d time.Duration) {
	c.delay = d
}

// SetEndpoint overrides the API endpoint, for tests.
func (c *Client) SetEndpoint(endpoint string) {
	c.endpoint = endpoint
}

// Search performs one web search. Network and server failures are
// retried up to the configured attempt count with exponential backoff,
// then surfaced as transient errors; an API-level error response is
// permanent and returned immediately.
func (c *Client) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	opts.applyDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	delay := c.delay
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		results, err := c.searchOnce(ctx, query, opts)
		if err == nil {
			return results, nil
		}
		if !flow.IsTransient(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, flow.Transient(fmt.Errorf("search failed after %d attempts: %w", c.maxRetries, lastErr))
}

func (c *Client) searchOnce(ctx context.Context, query string, opts Options) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(opts.Count))
	params.Set("locale", opts.Locale)
	params.Set("offset", strconv.Itoa(opts.Offset))
	params.Set("device", "desktop")
	params.Set("tgp", "4")
	params.Set("safesearch", strconv.Itoa(opts.SafeSearch))
	params.Set("displayed", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}
	for name, value := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	c.logger.CollaboratorCall("searcher", query)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.CollaboratorResult("searcher", time.Since(start), err)
		return nil, flow.Transient(fmt.Errorf("search request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		err := fmt.Errorf("search returned status %d", resp.StatusCode)
		c.logger.CollaboratorResult("searcher", time.Since(start), err)
		return nil, flow.Transient(err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("search returned status %d", resp.StatusCode)
		c.logger.CollaboratorResult("searcher", time.Since(start), err)
		return nil, err
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}
	results, err := parseWebResults(&body)
	c.logger.CollaboratorResult("searcher", time.Since(start), err)
	return results, err
}

// apiResponse mirrors the slice of the Qwant response we consume.
type apiResponse struct {
	Status string `json:"status"`
	Data   struct {
		Message json.RawMessage `json:"message"`
		Result  struct {
			Items struct {
				Mainline []struct {
					Type  string `json:"type"`
					Items []struct {
						Title string `json:"title"`
						URL   string `json:"url"`
						Desc  string `json:"desc"`
					} `json:"items"`
				} `json:"mainline"`
			} `json:"items"`
		} `json:"result"`
	} `json:"data"`
}

func parseWebResults(body *apiResponse) ([]Result, error) {
	if body.Status != "success" {
		return nil, fmt.Errorf("search API error: %s", string(body.Data.Message))
	}
	var results []Result
	for _, block := range body.Data.Result.Items.Mainline {
		if block.Type != "web" {
			continue
		}
		for _, item := range block.Items {
			results = append(results, Result{
				Title:       item.Title,
				URL:         item.URL,
				Description: item.Desc,
			})
		}
	}
	return results, nil
}

// Format renders results as numbered plain text for prompt context.
func Format(results []Result) string {
	if len(results) == 0 {
		return "No results found."
	}
	out := ""
	for i, r := range results {
		out += fmt.Sprintf("%d. %s\n   %s\n   %s\n", i+1, r.Title, r.URL, r.Description)
	}
	return out
}
